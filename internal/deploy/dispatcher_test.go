package deploy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diyhub/homelabctl/internal/config"
	"github.com/diyhub/homelabctl/internal/placement"
	"github.com/diyhub/homelabctl/internal/runtime"
)

// fakeRuntime records calls and fails on demand.
type fakeRuntime struct {
	pings    []string
	copies   []string
	applies  []string
	applyDir map[string]string
	verifies []string

	failPing  map[string]error
	failApply map[string]error
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		applyDir:  map[string]string{},
		failPing:  map[string]error{},
		failApply: map[string]error{},
	}
}

func (f *fakeRuntime) Ping(_ context.Context, machine string) error {
	f.pings = append(f.pings, machine)
	return f.failPing[machine]
}

func (f *fakeRuntime) CopyBundle(_ context.Context, machine string, _ runtime.FileSet) error {
	f.copies = append(f.copies, machine)
	return nil
}

func (f *fakeRuntime) Apply(_ context.Context, machine, dir string) error {
	f.applies = append(f.applies, machine)
	f.applyDir[machine] = dir
	return f.failApply[machine]
}

func (f *fakeRuntime) Verify(_ context.Context, machine string, _ []string) error {
	f.verifies = append(f.verifies, machine)
	return nil
}

func deployFixture(t *testing.T) (*config.Config, *placement.TargetSet, string) {
	t.Helper()
	cfg := &config.Config{
		Machines: map[string]*config.Machine{
			"driver":  {IP: "192.168.1.100", Driver: true},
			"node-01": {IP: "192.168.1.101"},
			"node-02": {IP: "192.168.1.102"},
		},
		Services: map[string]*config.Service{
			"app": {Image: "img", Enabled: true, Target: config.DeployTarget{Kind: config.TargetAll}},
		},
	}
	ts := placement.Resolve(cfg)

	bundle := t.TempDir()
	for _, m := range []string{"driver", "node-01", "node-02"} {
		dir := filepath.Join(bundle, "compose", m)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte("services: {}\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(bundle, "domains.env"), []byte("BASE_DOMAIN=test.local\n"), 0o644))
	return cfg, ts, bundle
}

func stepStatus(t *testing.T, res MachineResult, step Step) StepStatus {
	t.Helper()
	for _, s := range res.Steps {
		if s.Step == step {
			return s.Status
		}
	}
	return StatusNotRun
}

func TestDeployAllMachines(t *testing.T) {
	cfg, ts, bundle := deployFixture(t)
	remote := newFakeRuntime()
	local := newFakeRuntime()

	sum := NewDispatcher(remote, local, bundle).Deploy(context.Background(), cfg, ts, nil)

	require.Len(t, sum.Results, 3)
	assert.Empty(t, sum.FailedMachines())

	// the driver goes through the local runtime, the rest over the remote one
	assert.Equal(t, []string{"driver"}, local.pings)
	assert.ElementsMatch(t, []string{"node-01", "node-02"}, remote.pings)

	// copy is skipped for the driver, with a named reason
	driver := sum.Results[0]
	require.Equal(t, "driver", driver.Machine)
	assert.Equal(t, StatusSkipped, stepStatus(t, driver, StepCopy))
	assert.Empty(t, local.copies)
	assert.ElementsMatch(t, []string{"node-01", "node-02"}, remote.copies)

	// the driver applies against the local bundle, remotes against the
	// uploaded directory
	assert.Equal(t, filepath.Join(bundle, "compose", "driver"), local.applyDir["driver"])
	assert.Equal(t, "homelab", remote.applyDir["node-01"])
}

func TestDeployPartialFailure(t *testing.T) {
	cfg, ts, bundle := deployFixture(t)
	remote := newFakeRuntime()
	remote.failApply["node-01"] = errors.New("compose up exited 1")
	local := newFakeRuntime()

	sum := NewDispatcher(remote, local, bundle).Deploy(context.Background(), cfg, ts, nil)

	assert.Equal(t, []string{"node-01"}, sum.FailedMachines())

	// the failing machine stops after apply, the others still complete
	assert.NotContains(t, remote.verifies, "node-01")
	assert.Contains(t, remote.verifies, "node-02")
	assert.Contains(t, local.verifies, "driver")
}

func TestDeployUnreachableMachine(t *testing.T) {
	cfg, ts, bundle := deployFixture(t)
	remote := newFakeRuntime()
	remote.failPing["node-02"] = errors.New("connection refused")
	local := newFakeRuntime()

	sum := NewDispatcher(remote, local, bundle).Deploy(context.Background(), cfg, ts, nil)

	assert.Equal(t, []string{"node-02"}, sum.FailedMachines())
	assert.NotContains(t, remote.copies, "node-02")
}

func TestDeployExplicitTargets(t *testing.T) {
	cfg, ts, bundle := deployFixture(t)
	remote := newFakeRuntime()
	local := newFakeRuntime()

	sum := NewDispatcher(remote, local, bundle).Deploy(context.Background(), cfg, ts, []string{"node-01"})

	require.Len(t, sum.Results, 1)
	assert.Equal(t, "node-01", sum.Results[0].Machine)
	assert.Empty(t, local.pings)
}

func TestDeployMissingBundle(t *testing.T) {
	cfg, ts, _ := deployFixture(t)
	remote := newFakeRuntime()

	sum := NewDispatcher(remote, nil, t.TempDir()).Deploy(context.Background(), cfg, ts, []string{"node-01"})

	require.Len(t, sum.Results, 1)
	res := sum.Results[0]
	assert.True(t, res.Failed())
	assert.Equal(t, StatusFailed, stepStatus(t, res, StepCopy))
	assert.Empty(t, remote.applies)
}

func TestDeployCancelledContext(t *testing.T) {
	cfg, ts, bundle := deployFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	remote := newFakeRuntime()
	sum := NewDispatcher(remote, nil, bundle).Deploy(ctx, cfg, ts, nil)

	// interrupted machines are failures, never silent successes
	require.Len(t, sum.Results, 3)
	assert.Len(t, sum.FailedMachines(), 3)
	assert.Empty(t, remote.applies)
}

func TestDeployDriverWithoutLocalRuntime(t *testing.T) {
	cfg, ts, bundle := deployFixture(t)
	remote := newFakeRuntime()

	sum := NewDispatcher(remote, nil, bundle).Deploy(context.Background(), cfg, ts, []string{"driver"})

	require.Len(t, sum.Results, 1)
	assert.False(t, sum.Results[0].Failed())
	// no local runtime available, the driver is reached over SSH like any
	// other machine but keeps its local apply directory
	assert.Equal(t, []string{"driver"}, remote.pings)
	assert.Equal(t, filepath.Join(bundle, "compose", "driver"), remote.applyDir["driver"])
}

func TestDeployRelativeBundleDirBecomesAbsolute(t *testing.T) {
	cfg, ts, bundle := deployFixture(t)
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(filepath.Dir(bundle)))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	remote := newFakeRuntime()

	rel := filepath.Base(bundle)
	sum := NewDispatcher(remote, nil, rel).Deploy(context.Background(), cfg, ts, []string{"driver"})

	require.Len(t, sum.Results, 1)
	assert.False(t, sum.Results[0].Failed())
	// the driver's apply path must survive being run from a remote login
	// directory, so a relative --output is anchored at dispatch time
	got := remote.applyDir["driver"]
	assert.True(t, filepath.IsAbs(got), "apply dir %q must be absolute", got)
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, rel, "compose", "driver"), got)
}

func TestMachineResultFailedWithoutApply(t *testing.T) {
	res := MachineResult{Steps: []StepResult{{Step: StepPing, Status: StatusOK}}}
	assert.True(t, res.Failed())
}
