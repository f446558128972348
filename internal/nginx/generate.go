// Package nginx emits reverse-proxy server blocks for web-exposed services.
package nginx

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog/log"

	"github.com/diyhub/homelabctl/internal/config"
	"github.com/diyhub/homelabctl/internal/naming"
	"github.com/diyhub/homelabctl/internal/render"
)

// placeholderRe matches our ${UPPER_SNAKE} env placeholders and nothing
// else, so nginx's own ${lowercase} variables pass through untouched.
var placeholderRe = regexp2.MustCompile(`\$\{([A-Z][A-Z0-9_]*)\}`, regexp2.None)

type Generator struct {
	engine *render.Engine
}

func NewGenerator() *Generator {
	return &Generator{engine: render.NewEngine()}
}

// Generate produces the server block for one service, or nil when the
// service brings its own hand-authored template file. Decision order:
// external template_file wins, then an additional_config fragment merged
// with the standard redirect+SSL scaffold, then the default proxy block.
func (g *Generator) Generate(key string, svc *config.Service, domains naming.Domains) ([]byte, error) {
	if !svc.WebExposed() {
		return nil, nil
	}
	if svc.TemplateFile != "" {
		log.Debug().Str("service", key).Str("template_file", svc.TemplateFile).
			Msg("hand-authored template, skipping generation")
		return nil, nil
	}

	mapping, ok := domains.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("service %q: no resolved domain", key)
	}

	data := map[string]any{
		"Key":     key,
		"Port":    svc.ProxyPort(),
		"EnvName": mapping.EnvName,
	}

	tpl := defaultTemplate
	if svc.AdditionalConfig != "" {
		if err := g.checkPlaceholders(key, svc.AdditionalConfig, domains); err != nil {
			return nil, err
		}
		data["Fragment"] = strings.TrimRight(svc.AdditionalConfig, "\n")
		tpl = customTemplate
	}

	out, err := g.engine.RenderString(key, tpl, data)
	if err != nil {
		return nil, fmt.Errorf("service %q: render nginx block: %w", key, err)
	}
	return []byte(out), nil
}

// GenerateAll returns every fragment keyed by file name, plus the top-level
// config that includes them.
func (g *Generator) GenerateAll(cfg *config.Config, domains naming.Domains) (map[string][]byte, []byte, error) {
	fragments := map[string][]byte{}
	var includes []string

	for _, key := range cfg.ServiceKeys() {
		svc := cfg.Services[key]
		if !svc.Enabled {
			continue
		}
		body, err := g.Generate(key, svc, domains)
		if err != nil {
			return nil, nil, err
		}
		if body == nil {
			continue
		}
		name := key + ".conf"
		fragments[name] = body
		includes = append(includes, name)
	}

	top, err := g.engine.RenderString("top-level", topLevelTemplate, map[string]any{
		"Includes": includes,
	})
	if err != nil {
		return nil, nil, err
	}
	return fragments, []byte(top), nil
}

// checkPlaceholders verifies every ${VAR} in a hand-written fragment resolves
// to BASE_DOMAIN or a known domain variable, so broken references are caught
// at generation time instead of at envsubst time on the target machine.
func (g *Generator) checkPlaceholders(key, fragment string, domains naming.Domains) error {
	known := map[string]bool{"BASE_DOMAIN": true}
	for _, k := range domains.Keys() {
		m, _ := domains.Lookup(k)
		known[m.EnvName] = true
	}

	m, err := placeholderRe.FindStringMatch(fragment)
	for err == nil && m != nil {
		name := m.Groups()[1].Capture.String()
		if !known[name] {
			return fmt.Errorf("service %q: additional_config references unknown variable %s", key, name)
		}
		m, err = placeholderRe.FindNextMatch(m)
	}
	if err != nil {
		return fmt.Errorf("service %q: scan additional_config: %w", key, err)
	}
	return nil
}
