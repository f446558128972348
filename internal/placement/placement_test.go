package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diyhub/homelabctl/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Machines: map[string]*config.Machine{
			"driver":  {IP: "192.168.1.100", Role: "manager", Driver: true},
			"node-01": {IP: "192.168.1.101", Role: "worker"},
			"node-02": {IP: "192.168.1.102", Role: "worker"},
		},
		Services: map[string]*config.Service{
			"everywhere": {Image: "img", Enabled: true, Target: config.DeployTarget{Kind: config.TargetAll}},
			"pinned":     {Image: "img", Enabled: true, Target: config.DeployTarget{Kind: config.TargetMachine, Machine: "node-01"}},
			"floating":   {Image: "img", Enabled: true, Target: config.DeployTarget{Kind: config.TargetAny}},
			"workers":    {Image: "img", Enabled: true, Target: config.DeployTarget{Kind: config.TargetRole, Role: "worker"}},
			"disabled":   {Image: "img", Enabled: false, Target: config.DeployTarget{Kind: config.TargetAll}},
		},
	}
}

func TestResolve(t *testing.T) {
	ts := Resolve(testConfig())

	assert.Equal(t, []string{"driver", "node-01", "node-02"}, ts.Machines())

	// deploy: all lands on every machine
	for _, m := range ts.Machines() {
		assert.Contains(t, ts.ServicesOn(m), "everywhere")
	}

	// a pinned service only lands on its machine
	assert.Contains(t, ts.ServicesOn("node-01"), "pinned")
	assert.NotContains(t, ts.ServicesOn("driver"), "pinned")
	assert.NotContains(t, ts.ServicesOn("node-02"), "pinned")

	// any resolves to the first machine, which is the driver
	assert.Contains(t, ts.ServicesOn("driver"), "floating")
	assert.NotContains(t, ts.ServicesOn("node-01"), "floating")

	// role targets match every machine with the role
	assert.Contains(t, ts.ServicesOn("node-01"), "workers")
	assert.Contains(t, ts.ServicesOn("node-02"), "workers")
	assert.NotContains(t, ts.ServicesOn("driver"), "workers")

	// disabled services are never placed
	assert.NotContains(t, ts.AllServices(), "disabled")
	assert.Empty(t, ts.Warnings())
}

func TestResolveUnknownMachineWarns(t *testing.T) {
	cfg := testConfig()
	cfg.Services["lost"] = &config.Service{
		Image: "img", Enabled: true,
		Target: config.DeployTarget{Kind: config.TargetMachine, Machine: "node-99"},
	}
	ts := Resolve(cfg)

	require.Len(t, ts.Warnings(), 1)
	w := ts.Warnings()[0]
	assert.Equal(t, "lost", w.Service)
	assert.Equal(t, "node-99", w.Target)
	// the service is excluded, nothing else is affected
	assert.NotContains(t, ts.AllServices(), "lost")
	assert.Contains(t, ts.AllServices(), "everywhere")
}

func TestResolveNoMachines(t *testing.T) {
	cfg := &config.Config{
		Services: map[string]*config.Service{
			"floating": {Image: "img", Enabled: true, Target: config.DeployTarget{Kind: config.TargetAny}},
		},
	}
	ts := Resolve(cfg)
	assert.Empty(t, ts.AllServices())
	require.Len(t, ts.Warnings(), 1)
	assert.Equal(t, "floating", ts.Warnings()[0].Service)
}

func TestAnyPrefersLexicalFirstWithoutDriver(t *testing.T) {
	cfg := &config.Config{
		Machines: map[string]*config.Machine{
			"beta":  {IP: "10.0.0.2"},
			"alpha": {IP: "10.0.0.1"},
		},
		Services: map[string]*config.Service{
			"floating": {Image: "img", Enabled: true, Target: config.DeployTarget{Kind: config.TargetAny}},
		},
	}
	ts := Resolve(cfg)
	assert.Equal(t, []string{"floating"}, ts.ServicesOn("alpha"))
	assert.Empty(t, ts.ServicesOn("beta"))
}
