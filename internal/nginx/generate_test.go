package nginx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diyhub/homelabctl/internal/config"
	"github.com/diyhub/homelabctl/internal/naming"
)

func resolvedDomains(t *testing.T, cfg *config.Config) naming.Domains {
	t.Helper()
	d, err := naming.Resolve(cfg)
	require.NoError(t, err)
	return d
}

func webConfig() *config.Config {
	no := false
	return &config.Config{
		Defaults: config.Defaults{BaseDomain: "test.local"},
		Services: map[string]*config.Service{
			"grafana": {Image: "img", Port: 3000, Enabled: true},
			"mariadb": {Image: "img", Port: 3306, Enabled: true},
			"optout":  {Image: "img", Port: 8080, Enabled: true, Web: &no},
		},
	}
}

func TestGenerateDefaultBlock(t *testing.T) {
	cfg := webConfig()
	d := resolvedDomains(t, cfg)
	g := NewGenerator()

	body, err := g.Generate("grafana", cfg.Services["grafana"], d)
	require.NoError(t, err)
	require.NotNil(t, body)

	conf := string(body)
	assert.Contains(t, conf, "server_name ${DOMAIN_GRAFANA};")
	assert.Contains(t, conf, "return 301 https://$host$request_uri;")
	assert.Contains(t, conf, "include /etc/nginx/conf.d/ssl.inc;")
	assert.Contains(t, conf, "proxy_pass http://grafana:3000;")
	assert.Contains(t, conf, "proxy_set_header X-Forwarded-Proto $scheme;")
}

func TestGenerateSkipsNonWebServices(t *testing.T) {
	cfg := webConfig()
	d := resolvedDomains(t, cfg)
	g := NewGenerator()

	for _, key := range []string{"mariadb", "optout"} {
		body, err := g.Generate(key, cfg.Services[key], d)
		require.NoError(t, err, key)
		assert.Nil(t, body, key)
	}
}

func TestGenerateSkipsHandAuthoredTemplates(t *testing.T) {
	cfg := webConfig()
	cfg.Services["grafana"].TemplateFile = "nginx/grafana.conf"
	d := resolvedDomains(t, cfg)

	body, err := NewGenerator().Generate("grafana", cfg.Services["grafana"], d)
	require.NoError(t, err)
	assert.Nil(t, body)
}

func TestGenerateAdditionalConfig(t *testing.T) {
	cfg := webConfig()
	cfg.Services["grafana"].AdditionalConfig = strings.Join([]string{
		"location / {",
		"    proxy_pass http://grafana:3000;",
		"    proxy_set_header Host ${DOMAIN_GRAFANA};",
		"}",
	}, "\n")
	d := resolvedDomains(t, cfg)

	body, err := NewGenerator().Generate("grafana", cfg.Services["grafana"], d)
	require.NoError(t, err)

	conf := string(body)
	// the fragment is preserved verbatim, indented into the ssl server block
	assert.Contains(t, conf, "    proxy_set_header Host ${DOMAIN_GRAFANA};")
	assert.Contains(t, conf, "include /etc/nginx/conf.d/ssl.inc;")
}

func TestGenerateRejectsUnknownPlaceholder(t *testing.T) {
	cfg := webConfig()
	cfg.Services["grafana"].AdditionalConfig = "proxy_set_header Host ${DOMAIN_GHOST};"
	d := resolvedDomains(t, cfg)

	_, err := NewGenerator().Generate("grafana", cfg.Services["grafana"], d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOMAIN_GHOST")
}

func TestGenerateIgnoresNginxRuntimeVariables(t *testing.T) {
	cfg := webConfig()
	// $host and ${lowercase} are nginx's own, not ours
	cfg.Services["grafana"].AdditionalConfig = "proxy_set_header X-Real-IP $remote_addr;"
	d := resolvedDomains(t, cfg)

	_, err := NewGenerator().Generate("grafana", cfg.Services["grafana"], d)
	require.NoError(t, err)
}

func TestGenerateAll(t *testing.T) {
	cfg := webConfig()
	d := resolvedDomains(t, cfg)

	fragments, top, err := NewGenerator().GenerateAll(cfg, d)
	require.NoError(t, err)

	require.Contains(t, fragments, "grafana.conf")
	assert.NotContains(t, fragments, "mariadb.conf")
	assert.NotContains(t, fragments, "optout.conf")
	assert.Contains(t, string(top), "include /etc/nginx/conf.d/services/grafana.conf;")
}
