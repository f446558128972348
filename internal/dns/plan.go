// Package dns plans and applies the zone records a homelab needs: one A
// record per machine and one CNAME per web-exposed service.
package dns

import (
	"fmt"
	"net"

	"github.com/diyhub/homelabctl/internal/config"
	"github.com/diyhub/homelabctl/internal/naming"
)

type Record struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Target string `json:"target"`
}

func (r Record) String() string {
	return fmt.Sprintf("%s %s -> %s", r.Type, r.Name, r.Target)
}

// Plan derives the record set from the model. Service records come from the
// same resolved domain map the reverse proxy is configured from, so the plan
// self-updates as services are added. Machines whose key is itself a bare IP
// get no hostname record.
func Plan(cfg *config.Config, domains naming.Domains) ([]Record, error) {
	base := domains.BaseDomain
	if base == "" {
		return nil, fmt.Errorf("base domain is not configured")
	}

	var records []Record
	for _, key := range cfg.MachineKeys() {
		if net.ParseIP(key) != nil {
			continue
		}
		records = append(records, Record{
			Type:   "A",
			Name:   key + "." + base,
			Target: cfg.Machines[key].IP,
		})
	}

	managerKey, ok := cfg.ManagerKey()
	if !ok {
		// no machines: machine-less configs still validate, they just
		// cannot route service traffic anywhere
		return records, nil
	}
	managerIsIP := net.ParseIP(managerKey) != nil

	for _, key := range domains.Keys() {
		if !cfg.Services[key].Enabled {
			continue
		}
		m, _ := domains.Lookup(key)
		if managerIsIP {
			records = append(records, Record{Type: "A", Name: m.FQDN, Target: cfg.Machines[managerKey].IP})
			continue
		}
		records = append(records, Record{
			Type:   "CNAME",
			Name:   m.FQDN,
			Target: managerKey + "." + base,
		})
	}
	return records, nil
}
