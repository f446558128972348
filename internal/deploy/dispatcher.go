// Package deploy walks the machine list and pushes generated artifacts
// through the container-runtime capability, one machine at a time.
package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/diyhub/homelabctl/internal/config"
	"github.com/diyhub/homelabctl/internal/placement"
	"github.com/diyhub/homelabctl/internal/runtime"
)

type Step string

const (
	StepPing   Step = "ping"
	StepCopy   Step = "copy"
	StepApply  Step = "apply"
	StepVerify Step = "verify"
)

type StepStatus int

const (
	StatusOK StepStatus = iota
	StatusFailed
	StatusSkipped
	StatusNotRun
)

type StepResult struct {
	Step   Step
	Status StepStatus
	Reason string // set for skips
	Err    error
}

type MachineResult struct {
	Machine string
	Steps   []StepResult
}

// Failed reports whether any step failed or the machine never completed its
// apply. An interrupted machine is never reported as success.
func (m *MachineResult) Failed() bool {
	applied := false
	for _, s := range m.Steps {
		if s.Status == StatusFailed {
			return true
		}
		if s.Step == StepApply && (s.Status == StatusOK || s.Status == StatusSkipped) {
			applied = true
		}
	}
	return !applied
}

// Summary is the per-machine outcome of one deployment run.
type Summary struct {
	Results []MachineResult
}

func (s *Summary) FailedMachines() []string {
	var out []string
	for i := range s.Results {
		if s.Results[i].Failed() {
			out = append(out, s.Results[i].Machine)
		}
	}
	return out
}

// Dispatcher runs the deployment loop. remote serves ordinary machines over
// SSH; local, when non-nil, serves the driver machine whose artifacts are
// already on disk.
type Dispatcher struct {
	remote    runtime.Runtime
	local     runtime.Runtime
	bundleDir string
	remoteDir string
}

func NewDispatcher(remote, local runtime.Runtime, bundleDir string) *Dispatcher {
	// the bundle dir doubles as the driver's apply path; when the driver
	// is reached over SSH the session starts in the remote login
	// directory, so a relative path would resolve against the wrong tree
	if abs, err := filepath.Abs(bundleDir); err == nil {
		bundleDir = abs
	}
	return &Dispatcher{
		remote:    remote,
		local:     local,
		bundleDir: bundleDir,
		remoteDir: "homelab",
	}
}

// Deploy processes each machine in scope sequentially. One machine's failure
// never aborts the others; every failure stays attributable to one machine
// and one step. A cancelled context marks the current and all remaining
// machines failed rather than silently successful.
func (d *Dispatcher) Deploy(ctx context.Context, cfg *config.Config, ts *placement.TargetSet, targets []string) *Summary {
	machines := targets
	if len(machines) == 0 {
		machines = ts.Machines()
	}

	sum := &Summary{}
	for _, m := range machines {
		if err := ctx.Err(); err != nil {
			sum.Results = append(sum.Results, MachineResult{
				Machine: m,
				Steps:   []StepResult{{Step: StepPing, Status: StatusFailed, Err: fmt.Errorf("interrupted before start: %w", err)}},
			})
			continue
		}
		sum.Results = append(sum.Results, d.deployMachine(ctx, cfg, ts, m))
	}
	return sum
}

func (d *Dispatcher) deployMachine(ctx context.Context, cfg *config.Config, ts *placement.TargetSet, machine string) MachineResult {
	res := MachineResult{Machine: machine}
	mc, ok := cfg.Machines[machine]
	if !ok {
		res.Steps = append(res.Steps, StepResult{
			Step: StepPing, Status: StatusFailed, Err: fmt.Errorf("unknown machine %q", machine),
		})
		return res
	}

	rt := d.remote
	isDriver := mc.Driver
	if isDriver && d.local != nil {
		rt = d.local
	}
	applyDir := d.remoteDir
	if isDriver {
		applyDir = filepath.Join(d.bundleDir, "compose", machine)
	}

	run := func(step Step, fn func() error) bool {
		if err := ctx.Err(); err != nil {
			res.Steps = append(res.Steps, StepResult{Step: step, Status: StatusFailed, Err: fmt.Errorf("interrupted: %w", err)})
			return false
		}
		if err := fn(); err != nil {
			log.Error().Err(err).Str("machine", machine).Str("step", string(step)).Msg("deployment step failed")
			res.Steps = append(res.Steps, StepResult{Step: step, Status: StatusFailed, Err: err})
			return false
		}
		res.Steps = append(res.Steps, StepResult{Step: step, Status: StatusOK})
		return true
	}

	if !run(StepPing, func() error { return rt.Ping(ctx, machine) }) {
		return res
	}

	if isDriver {
		// explicit, named exception: the driver generated the artifacts, a
		// copy to itself would be a no-op
		res.Steps = append(res.Steps, StepResult{
			Step: StepCopy, Status: StatusSkipped,
			Reason: "driver machine, artifacts already local",
		})
	} else {
		files, err := d.bundleFiles(machine)
		if err != nil {
			res.Steps = append(res.Steps, StepResult{Step: StepCopy, Status: StatusFailed, Err: err})
			return res
		}
		if !run(StepCopy, func() error { return rt.CopyBundle(ctx, machine, files) }) {
			return res
		}
	}

	if !run(StepApply, func() error { return rt.Apply(ctx, machine, applyDir) }) {
		return res
	}

	run(StepVerify, func() error { return rt.Verify(ctx, machine, ts.ServicesOn(machine)) })
	return res
}

// bundleFiles maps one machine's artifact bundle to its remote layout.
func (d *Dispatcher) bundleFiles(machine string) (runtime.FileSet, error) {
	files := runtime.FileSet{}

	composeFile := filepath.Join(d.bundleDir, "compose", machine, "docker-compose.yml")
	if _, err := os.Stat(composeFile); err != nil {
		return nil, fmt.Errorf("no generated compose file for %q, run generate first: %w", machine, err)
	}
	files[composeFile] = d.remoteDir + "/docker-compose.yml"

	domains := filepath.Join(d.bundleDir, "domains.env")
	if _, err := os.Stat(domains); err == nil {
		files[domains] = d.remoteDir + "/domains.env"
	}

	nginxDir := filepath.Join(d.bundleDir, "nginx")
	_ = filepath.WalkDir(nginxDir, func(path string, e os.DirEntry, err error) error {
		if err != nil || e.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(nginxDir, path)
		if relErr != nil {
			return nil
		}
		files[path] = d.remoteDir + "/nginx/" + filepath.ToSlash(rel)
		return nil
	})
	return files, nil
}
