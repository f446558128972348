package compose

// Document is a Compose file as written to disk. Maps marshal key-sorted
// under yaml.v3, which keeps regeneration byte-identical.
type Document struct {
	Services map[string]*ServiceBlock `yaml:"services"`
	Networks map[string]Network       `yaml:"networks,omitempty"`
	Volumes  map[string]*Volume       `yaml:"volumes,omitempty"`
}

type ServiceBlock struct {
	Image       string   `yaml:"image"`
	Restart     string   `yaml:"restart,omitempty"`
	Ports       []string `yaml:"ports,omitempty"`
	Environment []string `yaml:"environment,omitempty"`
	Volumes     []string `yaml:"volumes,omitempty"`
	Networks    []string `yaml:"networks,omitempty"`
	DependsOn   []string `yaml:"depends_on,omitempty"`

	// Extra carries the service's compose override block untouched.
	Extra map[string]any `yaml:",inline"`
}

type Network struct {
	Driver string `yaml:"driver,omitempty"`
}

type Volume struct {
	Driver     string            `yaml:"driver,omitempty"`
	DriverOpts map[string]string `yaml:"driver_opts,omitempty"`
}
