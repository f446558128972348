package swarmstack

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
		},
		Services: map[string]*config.Service{
			"pinned": {
				Image: "mariadb:11", Port: 3306, Enabled: true,
				Target: config.DeployTarget{Kind: config.TargetMachine, Machine: "driver"},
			},
			"everywhere": {
				Image: "agent:latest", Enabled: true,
				Target: config.DeployTarget{Kind: config.TargetAll},
			},
			"scaled": {
				Image: "web:latest", Port: 8080, Enabled: true, Replicas: 3,
				Secrets: []string{"web_api_key"},
				Resources: config.Resources{
					Limits: config.CPUAndMem{CPUs: "0.50", Memory: "256M"},
				},
				Target: config.DeployTarget{Kind: config.TargetRole, Role: "worker"},
			},
			"floating": {
				Image: "job:latest", Enabled: true,
				Target: config.DeployTarget{Kind: config.TargetAny},
			},
			"disabled": {
				Image: "old:latest", Enabled: false,
				Target: config.DeployTarget{Kind: config.TargetAll},
			},
		},
	}
}

func TestTranslatePlacement(t *testing.T) {
	st, err := Translate(testConfig())
	require.NoError(t, err)

	assert.Equal(t, "3.8", st.Version)
	assert.NotContains(t, st.Services, "disabled")

	pinned := st.Services["pinned"].Deploy
	assert.Equal(t, "replicated", pinned.Mode)
	require.NotNil(t, pinned.Placement)
	assert.Equal(t, []string{"node.hostname == driver"}, pinned.Placement.Constraints)
	require.NotNil(t, pinned.Replicas)
	assert.Equal(t, 1, *pinned.Replicas)

	everywhere := st.Services["everywhere"].Deploy
	assert.Equal(t, "global", everywhere.Mode)
	assert.Nil(t, everywhere.Placement)
	assert.Nil(t, everywhere.Replicas)

	scaled := st.Services["scaled"].Deploy
	assert.Equal(t, "replicated", scaled.Mode)
	assert.Equal(t, []string{"node.role == worker"}, scaled.Placement.Constraints)
	require.NotNil(t, scaled.Replicas)
	assert.Equal(t, 3, *scaled.Replicas)

	floating := st.Services["floating"].Deploy
	assert.Equal(t, "replicated", floating.Mode)
	assert.Nil(t, floating.Placement)
}

func TestTranslateDefaultsAndResources(t *testing.T) {
	st, err := Translate(testConfig())
	require.NoError(t, err)

	for key, sp := range st.Services {
		require.NotNil(t, sp.Deploy.UpdateConfig, key)
		assert.Equal(t, 1, sp.Deploy.UpdateConfig.Parallelism, key)
		assert.Equal(t, "10s", sp.Deploy.UpdateConfig.Delay, key)
		require.NotNil(t, sp.Deploy.RestartPolicy, key)
		assert.Equal(t, "on-failure", sp.Deploy.RestartPolicy.Condition, key)
	}

	scaled := st.Services["scaled"]
	require.NotNil(t, scaled.Deploy.Resources)
	require.NotNil(t, scaled.Deploy.Resources.Limits)
	assert.Equal(t, "0.50", scaled.Deploy.Resources.Limits.CPUs)
	assert.Equal(t, "256M", scaled.Deploy.Resources.Limits.Memory)
	assert.Nil(t, scaled.Deploy.Resources.Reservations)

	assert.Nil(t, st.Services["pinned"].Deploy.Resources)
}

func TestTranslateExternalSecrets(t *testing.T) {
	st, err := Translate(testConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"web_api_key"}, st.Services["scaled"].Secrets)
	require.Contains(t, st.Secrets, "web_api_key")
	assert.True(t, st.Secrets["web_api_key"].External)
}

func TestMarshalValidates(t *testing.T) {
	st, err := Translate(testConfig())
	require.NoError(t, err)

	data, err := Marshal(st)
	require.NoError(t, err)
	require.NoError(t, Validate(data))

	// deterministic output
	again, err := Marshal(st)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}
