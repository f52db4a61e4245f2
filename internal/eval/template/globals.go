package template

import (
	"github.com/Masterminds/sprig"
)

// hostFuncs read the process environment and are never exposed to templates
var hostFuncs = []string{"env", "expandenv"}

// DefaultGlobals returns the functions available to every Jinja
// template: sprig's generic function map without the functions that read
// the host environment.
func DefaultGlobals() map[string]any {
	funcs := sprig.GenericFuncMap()
	for _, name := range hostFuncs {
		delete(funcs, name)
	}

	globals := make(map[string]any, len(funcs))
	for name, fn := range funcs {
		globals[name] = fn
	}
	return globals
}
