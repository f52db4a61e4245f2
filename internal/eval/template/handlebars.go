package template

import (
	"fmt"
	"strings"

	"github.com/aescanero/dago-templater/internal/eval/filters"
	"github.com/aescanero/dago-templater/internal/eval/sandbox"
	"github.com/aymerick/raymond"
)

// compileHandlebars parses handlebars source and binds the helpers
func (e *Environment) compileHandlebars(name, src string) (*Template, error) {
	tpl, err := raymond.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompile, name, err)
	}

	tpl.RegisterHelpers(e.helpers())

	return &Template{name: name, env: e, hbs: tpl}, nil
}

// execHandlebars renders a handlebars template over the sandboxed context
func (e *Environment) execHandlebars(t *Template, ctx map[string]any) (string, error) {
	out, err := t.hbs.Exec(sandbox.ViewContext(ctx, e.policy))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrEvaluate, t.name, err)
	}
	return out, nil
}

// helpers returns the filters as single argument helpers together with the
// string helpers
func (e *Environment) helpers() map[string]any {
	helpers := map[string]any{
		"uppercase": strings.ToUpper,
		"lowercase": strings.ToLower,
		"trim":      strings.TrimSpace,
		"default": func(value any, fallback any) any {
			if value == nil || value == "" {
				return fallback
			}
			return value
		},
		"join": func(items []any, sep string) string {
			parts := make([]string, len(items))
			for i, v := range items {
				parts[i] = Stringify(v)
			}
			return strings.Join(parts, sep)
		},
	}

	for name, f := range e.filters {
		helpers[name] = filterHelper(name, f)
	}
	return helpers
}

// filterHelper adapts a filter to a handlebars helper. raymond turns a
// panicking error into the error returned by Exec.
func filterHelper(name string, f filters.Func) func(any) any {
	return func(value any) any {
		out, err := f(value)
		if err != nil {
			panic(fmt.Errorf("filter %s: %w", name, err))
		}
		return out
	}
}
