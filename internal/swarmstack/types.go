package swarmstack

// Stack is a Compose v3.8 stack file as consumed by docker stack deploy.
type Stack struct {
	Version  string                  `yaml:"version"`
	Services map[string]*ServiceSpec `yaml:"services"`
	Networks map[string]Network      `yaml:"networks,omitempty"`
	Volumes  map[string]*Volume      `yaml:"volumes,omitempty"`
	Secrets  map[string]Secret       `yaml:"secrets,omitempty"`
}

type ServiceSpec struct {
	Image       string       `yaml:"image"`
	Ports       []string     `yaml:"ports,omitempty"`
	Environment []string     `yaml:"environment,omitempty"`
	Volumes     []string     `yaml:"volumes,omitempty"`
	Networks    []string     `yaml:"networks,omitempty"`
	Secrets     []string     `yaml:"secrets,omitempty"`
	Deploy      *DeployBlock `yaml:"deploy,omitempty"`

	Extra map[string]any `yaml:",inline"`
}

type DeployBlock struct {
	Mode          string         `yaml:"mode,omitempty"`
	Replicas      *int           `yaml:"replicas,omitempty"`
	Placement     *Placement     `yaml:"placement,omitempty"`
	Resources     *Resources     `yaml:"resources,omitempty"`
	UpdateConfig  *UpdateConfig  `yaml:"update_config,omitempty"`
	RestartPolicy *RestartPolicy `yaml:"restart_policy,omitempty"`
}

type Placement struct {
	Constraints []string `yaml:"constraints,omitempty"`
}

type Resources struct {
	Limits       *CPUAndMem `yaml:"limits,omitempty"`
	Reservations *CPUAndMem `yaml:"reservations,omitempty"`
}

type CPUAndMem struct {
	CPUs   string `yaml:"cpus,omitempty"`
	Memory string `yaml:"memory,omitempty"`
}

type UpdateConfig struct {
	Parallelism int    `yaml:"parallelism"`
	Delay       string `yaml:"delay"`
}

type RestartPolicy struct {
	Condition string `yaml:"condition"`
}

type Network struct {
	Driver string `yaml:"driver,omitempty"`
}

type Volume struct {
	Driver     string            `yaml:"driver,omitempty"`
	DriverOpts map[string]string `yaml:"driver_opts,omitempty"`
}

type Secret struct {
	External bool `yaml:"external"`
}
