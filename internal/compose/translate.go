// Package compose maps the service model into per-machine Compose documents.
package compose

import (
	"fmt"
	"sort"
	"strings"

	"github.com/diyhub/homelabctl/internal/config"
	"github.com/diyhub/homelabctl/internal/placement"
)

// ScopeAll selects every machine's services in one document.
const ScopeAll = "all"

const sharedNetwork = "homelab"

// Translate builds the Compose document for one machine, or for ScopeAll.
// Only services assigned to the scope appear. A reverse-proxy entry is added
// whenever a web-exposed service is in scope, and an ACME companion whenever
// a certificate secret is referenced. The result is a pure function of the
// model: translating an unchanged model twice gives identical documents.
func Translate(cfg *config.Config, ts *placement.TargetSet, scope string) (*Document, error) {
	var keys []string
	switch scope {
	case ScopeAll:
		keys = ts.AllServices()
	default:
		if _, ok := cfg.Machines[scope]; !ok {
			return nil, fmt.Errorf("unknown machine %q", scope)
		}
		keys = ts.ServicesOn(scope)
	}

	doc := &Document{
		Services: map[string]*ServiceBlock{},
		Networks: map[string]Network{sharedNetwork: {Driver: "bridge"}},
	}

	inScope := map[string]bool{}
	for _, k := range keys {
		inScope[k] = true
	}

	var webExposed, certSecrets bool
	for _, key := range keys {
		svc := cfg.Services[key]
		block := serviceBlock(key, svc, inScope)
		doc.Services[key] = block
		if name, vol := namedVolume(key, svc); name != "" {
			if doc.Volumes == nil {
				doc.Volumes = map[string]*Volume{}
			}
			doc.Volumes[name] = vol
		}
		if svc.WebExposed() {
			webExposed = true
		}
		if referencesCertSecret(svc) {
			certSecrets = true
		}
	}

	if webExposed {
		doc.Services["nginx"] = &ServiceBlock{
			Image:   "nginx:1.27-alpine",
			Restart: "unless-stopped",
			Ports:   []string{"80:80", "443:443"},
			Volumes: []string{
				"./nginx:/etc/nginx/conf.d:ro",
				"certs:/etc/nginx/certs:ro",
			},
			Networks: []string{sharedNetwork},
		}
		if doc.Volumes == nil {
			doc.Volumes = map[string]*Volume{}
		}
		doc.Volumes["certs"] = &Volume{}
	}
	if certSecrets {
		doc.Services["acme"] = &ServiceBlock{
			Image:   "neilpang/acme.sh:latest",
			Restart: "unless-stopped",
			Volumes: []string{
				"acme:/acme.sh",
				"certs:/etc/nginx/certs",
			},
			Networks: []string{sharedNetwork},
			Extra:    map[string]any{"command": "daemon"},
		}
		if doc.Volumes == nil {
			doc.Volumes = map[string]*Volume{}
		}
		doc.Volumes["acme"] = &Volume{}
	}

	return doc, nil
}

func serviceBlock(key string, svc *config.Service, inScope map[string]bool) *ServiceBlock {
	block := &ServiceBlock{
		Image:    svc.Image,
		Restart:  "unless-stopped",
		Networks: []string{sharedNetwork},
		Extra:    sanitizeExtra(svc.Compose),
	}

	if svc.Port != 0 {
		block.Ports = append(block.Ports, fmt.Sprintf("%d:%d", svc.Port, svc.Port))
	}
	block.Ports = append(block.Ports, svc.Ports...)

	envKeys := make([]string, 0, len(svc.Environment))
	for k := range svc.Environment {
		envKeys = append(envKeys, k)
	}
	sort.Strings(envKeys)
	for _, k := range envKeys {
		block.Environment = append(block.Environment, k+"="+svc.Environment[k])
	}

	block.Volumes = append(block.Volumes, svc.Volumes...)
	if mount := storageMount(key, svc); mount != "" {
		block.Volumes = append(block.Volumes, mount)
	}

	// keep only in-scope dependencies; ordering across machines is the
	// dispatcher's job, not Compose's
	for _, dep := range svc.DependsOn {
		if inScope[dep] {
			block.DependsOn = append(block.DependsOn, dep)
		}
	}
	sort.Strings(block.DependsOn)

	return block
}

func storageMount(key string, svc *config.Service) string {
	st := svc.Storage
	if st == nil {
		return ""
	}
	target := st.Target
	if target == "" {
		target = "/data"
	}
	switch st.Type {
	case "local":
		return st.Path + ":" + target
	case "nfs", "volume":
		return key + "_data:" + target
	default:
		return ""
	}
}

// namedVolume returns the top-level volume entry a service's storage needs.
func namedVolume(key string, svc *config.Service) (string, *Volume) {
	st := svc.Storage
	if st == nil {
		return "", nil
	}
	switch st.Type {
	case "nfs":
		return key + "_data", &Volume{
			Driver: "local",
			DriverOpts: map[string]string{
				"type":   "nfs",
				"o":      "addr=" + st.Server + ",rw",
				"device": ":" + st.Path,
			},
		}
	case "volume":
		return key + "_data", &Volume{}
	default:
		return "", nil
	}
}

// sanitizeExtra drops override keys that would duplicate keys the struct
// already emits; a duplicate mapping key is invalid YAML.
func sanitizeExtra(extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return nil
	}
	reserved := map[string]bool{
		"image": true, "restart": true, "ports": true, "environment": true,
		"volumes": true, "networks": true, "depends_on": true,
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

func referencesCertSecret(svc *config.Service) bool {
	for _, s := range svc.Secrets {
		if strings.Contains(s, "cert") {
			return true
		}
	}
	return false
}
