package template

import (
	"github.com/aymerick/raymond"
	"github.com/nikolalohinski/gonja/v2/exec"
)

// Template is a compiled template bound to the environment that compiled it
type Template struct {
	name string
	env  *Environment

	text *exec.Template

	// native is set in native mode when the source is a single expression
	native *exec.Template

	hbs *raymond.Template
}

// Name returns the file name of a file template, or "<string>"
func (t *Template) Name() string {
	return t.name
}

// Render evaluates the template against ctx using the environment's mode.
// In ModeNative a template consisting of exactly one expression returns the
// expression's value unchanged; everything else renders to a string.
func (t *Template) Render(ctx map[string]any) (any, error) {
	if t.native != nil {
		return t.env.execNative(t, ctx)
	}
	return t.RenderString(ctx)
}

// RenderString evaluates the template against ctx and always returns text
func (t *Template) RenderString(ctx map[string]any) (string, error) {
	if t.hbs != nil {
		return t.env.execHandlebars(t, ctx)
	}
	return t.env.execJinja(t, ctx)
}
