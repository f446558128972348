// Package placement evaluates deploy expressions against the machine list,
// producing the machine→services relation the translators consume.
package placement

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/diyhub/homelabctl/internal/config"
)

// Warning records a service whose deploy expression matched nothing. It is
// non-fatal: the service is excluded from that target and reported.
type Warning struct {
	Service string
	Target  string
	Reason  string
}

func (w Warning) String() string {
	return fmt.Sprintf("service %q: deploy target %q: %s", w.Service, w.Target, w.Reason)
}

// TargetSet is the resolved many-to-many relation between machines and the
// enabled services assigned to them.
type TargetSet struct {
	byMachine map[string][]string
	machines  []string
	warnings  []Warning
}

// Resolve computes the target set for every enabled service. any/random
// resolve deterministically to the first machine (driver first, then
// lexical), never true randomness, so repeated generation is idempotent.
func Resolve(cfg *config.Config) *TargetSet {
	ts := &TargetSet{
		byMachine: make(map[string][]string),
		machines:  cfg.MachineKeys(),
	}
	for _, m := range ts.machines {
		ts.byMachine[m] = nil
	}

	for _, key := range cfg.ServiceKeys() {
		svc := cfg.Services[key]
		if !svc.Enabled {
			continue
		}
		machines := ts.machinesFor(cfg, key, svc.Target)
		for _, m := range machines {
			ts.byMachine[m] = append(ts.byMachine[m], key)
		}
	}
	return ts
}

func (ts *TargetSet) machinesFor(cfg *config.Config, key string, t config.DeployTarget) []string {
	switch t.Kind {
	case config.TargetAll:
		return ts.machines
	case config.TargetMachine:
		if _, ok := cfg.Machines[t.Machine]; ok {
			return []string{t.Machine}
		}
		ts.warn(key, t.Machine, "no such machine, service excluded")
		return nil
	case config.TargetRole:
		var out []string
		for _, m := range ts.machines {
			if cfg.Machines[m].Role == t.Role {
				out = append(out, m)
			}
		}
		if len(out) == 0 {
			ts.warn(key, t.Role, "no machine has this role, service excluded")
		}
		return out
	default: // TargetAny
		if len(ts.machines) == 0 {
			ts.warn(key, t.String(), "no machines configured, service excluded")
			return nil
		}
		return ts.machines[:1]
	}
}

func (ts *TargetSet) warn(service, target, reason string) {
	w := Warning{Service: service, Target: target, Reason: reason}
	ts.warnings = append(ts.warnings, w)
	log.Warn().Str("service", service).Str("target", target).Msg(reason)
}

// ServicesOn returns the service keys assigned to a machine, sorted.
func (ts *TargetSet) ServicesOn(machine string) []string {
	out := append([]string{}, ts.byMachine[machine]...)
	sort.Strings(out)
	return out
}

// AllServices returns every assigned service key exactly once, sorted.
func (ts *TargetSet) AllServices() []string {
	seen := map[string]bool{}
	for _, svcs := range ts.byMachine {
		for _, s := range svcs {
			seen[s] = true
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Machines returns the machine iteration order: driver first, then lexical.
func (ts *TargetSet) Machines() []string { return ts.machines }

// Warnings returns every unknown-target warning gathered during resolution.
func (ts *TargetSet) Warnings() []Warning { return ts.warnings }
