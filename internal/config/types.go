package config

import (
	"sort"

	"gopkg.in/yaml.v3"
)

// Config is the in-memory model of a homelab.yaml document. The core never
// mutates it except through SetEnabled + Save.
type Config struct {
	Version     string              `yaml:"version,omitempty"`
	Defaults    Defaults            `yaml:"defaults,omitempty"`
	Environment map[string]string   `yaml:"environment,omitempty"`
	Categories  map[string]string   `yaml:"categories,omitempty"`
	Machines    map[string]*Machine `yaml:"machines,omitempty"`
	Services    map[string]*Service `yaml:"services"`

	// Source document, kept for structural rewrites (enable/disable).
	path string
	doc  *yaml.Node
}

type Defaults struct {
	BaseDomain string `yaml:"base_domain,omitempty"`
	Deploy     string `yaml:"deploy,omitempty"`
}

// Machine is a deployable host. Read-only for the core.
type Machine struct {
	IP      string            `yaml:"ip" validate:"required"`
	SSHUser string            `yaml:"ssh_user,omitempty"`
	SSHPort uint              `yaml:"ssh_port,omitempty"`
	Role    string            `yaml:"role,omitempty" validate:"omitempty,oneof=manager worker"`
	Labels  map[string]string `yaml:"labels,omitempty"`
	Driver  bool              `yaml:"driver,omitempty"`
}

// Service is a deployable unit.
type Service struct {
	Name             string            `yaml:"name,omitempty"`
	Category         string            `yaml:"category,omitempty"`
	Image            string            `yaml:"image" validate:"required"`
	Port             int               `yaml:"port,omitempty"`
	Ports            []string          `yaml:"ports,omitempty"`
	Deploy           string            `yaml:"deploy,omitempty"`
	Enabled          bool              `yaml:"enabled,omitempty"`
	DependsOn        []string          `yaml:"depends_on,omitempty"`
	StartupPriority  int               `yaml:"startup_priority,omitempty"`
	Domain           string            `yaml:"domain,omitempty"`
	Web              *bool             `yaml:"web,omitempty"`
	Environment      map[string]string `yaml:"environment,omitempty"`
	Volumes          []string          `yaml:"volumes,omitempty"`
	Storage          *Storage          `yaml:"storage,omitempty"`
	Replicas         int               `yaml:"replicas,omitempty"`
	Resources        Resources         `yaml:"resources,omitempty"`
	Secrets          []string          `yaml:"secrets,omitempty"`
	TemplateFile     string            `yaml:"template_file,omitempty"`
	AdditionalConfig string            `yaml:"additional_config,omitempty"`

	// Platform-specific override blocks, carried opaquely.
	Compose map[string]any `yaml:"compose,omitempty"`
	Swarm   map[string]any `yaml:"swarm,omitempty"`
	Nginx   map[string]any `yaml:"nginx,omitempty"`

	// Target is the Deploy expression parsed once at load time.
	Target DeployTarget `yaml:"-"`
}

// Storage declares where a service's state lives.
type Storage struct {
	Type   string `yaml:"type" validate:"omitempty,oneof=local nfs volume"`
	Server string `yaml:"server,omitempty"`
	Path   string `yaml:"path,omitempty"`
	Target string `yaml:"target,omitempty"`
}

type Resources struct {
	Limits       CPUAndMem `yaml:"limits,omitempty"`
	Reservations CPUAndMem `yaml:"reservations,omitempty"`
}

type CPUAndMem struct {
	CPUs   string `yaml:"cpus,omitempty"`
	Memory string `yaml:"memory,omitempty"`
}

// conventional web ports, used when a service has no explicit domain
var webPorts = map[int]struct{}{
	80: {}, 443: {}, 3000: {}, 5000: {}, 8000: {},
	8080: {}, 8443: {}, 9000: {},
}

// WebExposed reports whether the service gets a reverse-proxy vhost.
// An explicit web flag always wins; otherwise a service is exposed when it
// has a port and either an explicit domain or a conventional web port.
func (s *Service) WebExposed() bool {
	if s.Web != nil {
		return *s.Web && s.Port != 0
	}
	if s.Port == 0 {
		return false
	}
	if s.Domain != "" {
		return true
	}
	_, ok := webPorts[s.Port]
	return ok
}

// ProxyPort is the upstream port the reverse proxy forwards to.
func (s *Service) ProxyPort() int {
	if s.Port != 0 {
		return s.Port
	}
	return 80
}

// ServiceKeys returns service keys in lexical order. All iteration over
// services goes through this so output is the same on every run.
func (c *Config) ServiceKeys() []string {
	keys := make([]string, 0, len(c.Services))
	for k := range c.Services {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MachineKeys returns machine keys with the driver machine first, then the
// rest in lexical order. "First machine" for any/random placement means the
// first entry of this list.
func (c *Config) MachineKeys() []string {
	keys := make([]string, 0, len(c.Machines))
	var driver string
	for k, m := range c.Machines {
		if m.Driver {
			driver = k
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if driver != "" {
		keys = append([]string{driver}, keys...)
	}
	return keys
}

// DriverKey returns the designated driver/local machine, if any.
func (c *Config) DriverKey() (string, bool) {
	for k, m := range c.Machines {
		if m.Driver {
			return k, true
		}
	}
	return "", false
}

// ManagerKey returns the machine DNS CNAMEs point at: the driver when
// designated, otherwise the first manager, otherwise the first machine.
func (c *Config) ManagerKey() (string, bool) {
	if k, ok := c.DriverKey(); ok {
		return k, true
	}
	for _, k := range c.MachineKeys() {
		if c.Machines[k].Role == "manager" {
			return k, true
		}
	}
	if keys := c.MachineKeys(); len(keys) > 0 {
		return keys[0], true
	}
	return "", false
}

// BaseDomain returns the configured base domain, falling back to the
// environment block's BASE_DOMAIN entry.
func (c *Config) BaseDomain() string {
	if c.Defaults.BaseDomain != "" {
		return c.Defaults.BaseDomain
	}
	return c.Environment["BASE_DOMAIN"]
}

// EnabledServices returns the enabled subset, keyed like Services.
func (c *Config) EnabledServices() map[string]*Service {
	out := make(map[string]*Service)
	for k, s := range c.Services {
		if s.Enabled {
			out[k] = s
		}
	}
	return out
}

// Path returns the file the model was loaded from.
func (c *Config) Path() string { return c.path }
