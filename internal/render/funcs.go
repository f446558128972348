package render

import "text/template"

// localFuncs are helpers the nginx templates use on top of sprig.
func localFuncs() template.FuncMap {
	return template.FuncMap{
		// envRef emits a shell-style placeholder that stays literal in the
		// generated file and is expanded by the consumer's envsubst pass.
		"envRef": func(name string) string {
			return "${" + name + "}"
		},
	}
}
