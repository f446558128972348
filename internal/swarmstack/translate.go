// Package swarmstack maps the service model into a Swarm stack document.
//
// It differs from the Compose translation in the placement mapping, scaling,
// resource/update policy, and external secrets. Disabled services are
// excluded entirely.
package swarmstack

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/diyhub/homelabctl/internal/config"
)

const sharedNetwork = "homelab"

var defaultUpdate = UpdateConfig{Parallelism: 1, Delay: "10s"}

// Translate builds the stack document for every enabled service.
func Translate(cfg *config.Config) (*Stack, error) {
	st := &Stack{
		Version:  "3.8",
		Services: map[string]*ServiceSpec{},
		Networks: map[string]Network{sharedNetwork: {Driver: "overlay"}},
	}

	for _, key := range cfg.ServiceKeys() {
		svc := cfg.Services[key]
		if !svc.Enabled {
			continue
		}
		sp := &ServiceSpec{
			Image:    svc.Image,
			Networks: []string{sharedNetwork},
			Deploy:   deployBlock(svc),
			Extra:    sanitizeExtra(svc.Swarm),
		}

		if svc.Port != 0 {
			sp.Ports = append(sp.Ports, fmt.Sprintf("%d:%d", svc.Port, svc.Port))
		}
		sp.Ports = append(sp.Ports, svc.Ports...)

		envKeys := make([]string, 0, len(svc.Environment))
		for k := range svc.Environment {
			envKeys = append(envKeys, k)
		}
		sort.Strings(envKeys)
		for _, k := range envKeys {
			sp.Environment = append(sp.Environment, k+"="+svc.Environment[k])
		}

		sp.Volumes = append(sp.Volumes, svc.Volumes...)
		if mount, name, vol := storage(key, svc); mount != "" {
			sp.Volumes = append(sp.Volumes, mount)
			if name != "" {
				if st.Volumes == nil {
					st.Volumes = map[string]*Volume{}
				}
				st.Volumes[name] = vol
			}
		}

		// external secret references appear both on the service and in the
		// stack's top-level secrets section
		for _, sec := range svc.Secrets {
			sp.Secrets = append(sp.Secrets, sec)
			if st.Secrets == nil {
				st.Secrets = map[string]Secret{}
			}
			st.Secrets[sec] = Secret{External: true}
		}

		st.Services[key] = sp
	}
	return st, nil
}

// deployBlock reproduces the placement mapping exactly: a specific machine
// becomes a node-hostname constraint, all becomes global mode, any stays
// replicated and unconstrained, a role becomes a node.role constraint.
func deployBlock(svc *config.Service) *DeployBlock {
	d := &DeployBlock{
		UpdateConfig:  &UpdateConfig{Parallelism: defaultUpdate.Parallelism, Delay: defaultUpdate.Delay},
		RestartPolicy: &RestartPolicy{Condition: "on-failure"},
	}

	switch svc.Target.Kind {
	case config.TargetAll:
		d.Mode = "global"
	case config.TargetMachine:
		d.Mode = "replicated"
		d.Placement = &Placement{Constraints: []string{"node.hostname == " + svc.Target.Machine}}
	case config.TargetRole:
		d.Mode = "replicated"
		d.Placement = &Placement{Constraints: []string{"node.role == " + svc.Target.Role}}
	default:
		d.Mode = "replicated"
	}

	if d.Mode == "replicated" {
		replicas := svc.Replicas
		if replicas == 0 {
			replicas = 1
		}
		d.Replicas = &replicas
	}

	if r := resources(svc); r != nil {
		d.Resources = r
	}
	return d
}

func resources(svc *config.Service) *Resources {
	var out Resources
	if svc.Resources.Limits != (config.CPUAndMem{}) {
		out.Limits = &CPUAndMem{CPUs: svc.Resources.Limits.CPUs, Memory: svc.Resources.Limits.Memory}
	}
	if svc.Resources.Reservations != (config.CPUAndMem{}) {
		out.Reservations = &CPUAndMem{CPUs: svc.Resources.Reservations.CPUs, Memory: svc.Resources.Reservations.Memory}
	}
	if out.Limits == nil && out.Reservations == nil {
		return nil
	}
	return &out
}

func storage(key string, svc *config.Service) (mount, name string, vol *Volume) {
	st := svc.Storage
	if st == nil {
		return "", "", nil
	}
	target := st.Target
	if target == "" {
		target = "/data"
	}
	switch st.Type {
	case "local":
		return st.Path + ":" + target, "", nil
	case "nfs":
		return key + "_data:" + target, key + "_data", &Volume{
			Driver: "local",
			DriverOpts: map[string]string{
				"type":   "nfs",
				"o":      "addr=" + st.Server + ",rw",
				"device": ":" + st.Path,
			},
		}
	case "volume":
		return key + "_data:" + target, key + "_data", &Volume{}
	default:
		return "", "", nil
	}
}

// sanitizeExtra drops override keys that would duplicate keys the struct
// already emits; a duplicate mapping key is invalid YAML.
func sanitizeExtra(extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return nil
	}
	reserved := map[string]bool{
		"image": true, "ports": true, "environment": true,
		"volumes": true, "networks": true, "secrets": true, "deploy": true,
	}
	out := map[string]any{}
	for k, v := range extra {
		if !reserved[k] {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Marshal serializes the stack deterministically.
func Marshal(st *Stack) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(st); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
