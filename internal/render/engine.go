// Package render is the template engine behind nginx config generation.
package render

import (
	"bytes"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

type Engine struct {
	funcs template.FuncMap
}

// NewEngine returns an engine with the sprig text FuncMap plus local helpers.
func NewEngine() *Engine {
	fm := sprig.TxtFuncMap()
	for name, fn := range localFuncs() {
		fm[name] = fn
	}
	return &Engine{funcs: fm}
}

func (e *Engine) RenderString(name, tpl string, data map[string]any) (string, error) {
	t, err := template.New(name).Funcs(e.funcs).Parse(tpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *Engine) RenderFile(path string, data map[string]any) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := e.RenderString(path, string(b), data)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}
