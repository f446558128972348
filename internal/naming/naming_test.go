package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diyhub/homelabctl/internal/config"
)

func TestNormalizeEnvName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"actual", "ACTUAL"},
		{"multi-word-service", "MULTI_WORD_SERVICE"},
		{"svc.2", "SVC_2"},
		{"ALREADY_NORMAL", "ALREADY_NORMAL"},
	}
	for _, tt := range tests {
		got := NormalizeEnvName(tt.in)
		assert.Equal(t, tt.want, got)
		// idempotent
		assert.Equal(t, got, NormalizeEnvName(got))
	}
}

func TestExpandDomain(t *testing.T) {
	base := "test.local"
	assert.Equal(t, "actual.test.local",
		ExpandDomain(&config.Service{}, "actual", base))
	assert.Equal(t, "photos.test.local",
		ExpandDomain(&config.Service{Domain: "photos"}, "photoprism", base))
	assert.Equal(t, "photos.example.com",
		ExpandDomain(&config.Service{Domain: "photos.example.com"}, "photoprism", base))
}

func TestResolve(t *testing.T) {
	cfg := &config.Config{
		Defaults: config.Defaults{BaseDomain: "test.local"},
		Services: map[string]*config.Service{
			"actual":  {Image: "img", Port: 5006, Domain: "actual"},
			"mariadb": {Image: "img", Port: 3306}, // not web-exposed
		},
	}
	d, err := Resolve(cfg)
	require.NoError(t, err)

	m, ok := d.Lookup("actual")
	require.True(t, ok)
	assert.Equal(t, "DOMAIN_ACTUAL", m.EnvName)
	assert.Equal(t, "actual.test.local", m.FQDN)

	_, ok = d.Lookup("mariadb")
	assert.False(t, ok)
	assert.Equal(t, []string{"actual"}, d.Keys())
}

func TestResolveRequiresBaseDomain(t *testing.T) {
	// without a base domain, grafana.<base> cannot be formed; the error
	// must surface here instead of a "DOMAIN_GRAFANA=grafana." artifact
	cfg := &config.Config{
		Services: map[string]*config.Service{
			"grafana": {Image: "img", Port: 3000, Enabled: true},
			"mariadb": {Image: "img", Port: 3306, Enabled: true},
		},
	}
	_, err := Resolve(cfg)
	var berr *MissingBaseDomainError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, []string{"grafana"}, berr.Services)
}

func TestResolveAbsoluteDomainsNeedNoBase(t *testing.T) {
	cfg := &config.Config{
		Services: map[string]*config.Service{
			"grafana": {Image: "img", Port: 3000, Domain: "grafana.example.com", Enabled: true},
		},
	}
	d, err := Resolve(cfg)
	require.NoError(t, err)
	m, ok := d.Lookup("grafana")
	require.True(t, ok)
	assert.Equal(t, "grafana.example.com", m.FQDN)
}

func TestResolveDuplicateDomain(t *testing.T) {
	cfg := &config.Config{
		Defaults: config.Defaults{BaseDomain: "test.local"},
		Services: map[string]*config.Service{
			"grafana": {Image: "img", Port: 3000, Domain: "app"},
			"uptime":  {Image: "img", Port: 3000, Domain: "app"},
		},
	}
	_, err := Resolve(cfg)
	var derr *DuplicateDomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "app.test.local", derr.Domain)
	assert.Equal(t, []string{"grafana", "uptime"}, derr.Services)
}

func TestEnvFile(t *testing.T) {
	cfg := &config.Config{
		Defaults: config.Defaults{BaseDomain: "test.local"},
		Services: map[string]*config.Service{
			"actual":     {Image: "img", Port: 5006, Domain: "actual"},
			"photoprism": {Image: "img", Port: 8080},
		},
	}
	d, err := Resolve(cfg)
	require.NoError(t, err)

	want := "BASE_DOMAIN=test.local\n" +
		"DOMAIN_ACTUAL=actual.test.local\n" +
		"DOMAIN_PHOTOPRISM=photoprism.test.local\n"
	assert.Equal(t, want, string(d.EnvFile()))
}
