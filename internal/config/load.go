package config

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Load reads and validates a homelab.yaml document. It is a pure read: the
// file is parsed once and the resulting model is never re-read from disk.
// Validation reports every problem it finds, not just the first.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	cfg.path = path
	cfg.doc = &doc

	if err := cfg.validateSchema(); err != nil {
		return nil, &SchemaError{Err: err}
	}

	for _, key := range cfg.ServiceKeys() {
		svc := cfg.Services[key]
		raw := svc.Deploy
		if raw == "" {
			raw = cfg.Defaults.Deploy
		}
		svc.Target = ParseDeployTarget(raw)
	}
	return &cfg, nil
}

func (c *Config) validateSchema() error {
	var merr *multierror.Error

	if len(c.Services) == 0 {
		merr = multierror.Append(merr, fmt.Errorf("services: required top-level key is missing or empty"))
	}

	for _, key := range c.ServiceKeys() {
		svc := c.Services[key]
		if svc == nil {
			merr = multierror.Append(merr, fmt.Errorf("service %q: empty definition", key))
			continue
		}
		if svc.Image == "" {
			merr = multierror.Append(merr, fmt.Errorf("service %q: image is required", key))
		}
		if svc.Web != nil && *svc.Web && svc.Port == 0 {
			merr = multierror.Append(merr, fmt.Errorf("service %q: web is enabled but no port is declared", key))
		}
		for _, dep := range svc.DependsOn {
			if _, ok := c.Services[dep]; !ok {
				merr = multierror.Append(merr, fmt.Errorf("service %q: depends_on references unknown service %q", key, dep))
			}
		}
		if slices.Contains(svc.DependsOn, key) {
			merr = multierror.Append(merr, fmt.Errorf("service %q: depends on itself", key))
		}
		if svc.Storage != nil {
			if err := validate.Struct(svc.Storage); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("service %q: storage: %v", key, err))
			}
			if svc.Storage.Type == "nfs" && (svc.Storage.Server == "" || svc.Storage.Path == "") {
				merr = multierror.Append(merr, fmt.Errorf("service %q: nfs storage needs server and path", key))
			}
		}
	}

	var drivers []string
	machineKeys := make([]string, 0, len(c.Machines))
	for k := range c.Machines {
		machineKeys = append(machineKeys, k)
	}
	sort.Strings(machineKeys)
	for _, key := range machineKeys {
		m := c.Machines[key]
		if m == nil {
			merr = multierror.Append(merr, fmt.Errorf("machine %q: empty definition", key))
			continue
		}
		if err := validate.Struct(m); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("machine %q: %v", key, err))
		}
		if m.Driver {
			drivers = append(drivers, key)
		}
	}
	if len(drivers) > 1 {
		merr = multierror.Append(merr, fmt.Errorf("machines %v: more than one machine is marked as driver", drivers))
	}

	return merr.ErrorOrNil()
}
