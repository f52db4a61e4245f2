package template

import (
	"fmt"
	"io"
	"strings"

	"github.com/aescanero/dago-templater/internal/eval/filters"
	"github.com/aescanero/dago-templater/internal/eval/loader"
	"github.com/nikolalohinski/gonja/v2/builtins"
	"github.com/nikolalohinski/gonja/v2/config"
	"github.com/nikolalohinski/gonja/v2/exec"
	"github.com/nikolalohinski/gonja/v2/loaders"
)

// nativeCapture names the function that receives the value of a native
// mode expression
const nativeCapture = "__native_value__"

// jinjaConfig returns the delimiters and undefined handling for every
// compiled template
func jinjaConfig() *config.Config {
	return &config.Config{
		BlockStartString:    "{%",
		BlockEndString:      "%}",
		VariableStartString: "{{",
		VariableEndString:   "}}",
		CommentStartString:  "{#",
		CommentEndString:    "#}",
		AutoEscape:          false,
		StrictUndefined:     true,
		TrimBlocks:          false,
		LeftStripBlocks:     false,
	}
}

// newJinjaEnvironment registers the filters on top of gonja's builtins
func newJinjaEnvironment(registry map[string]filters.Func) *exec.Environment {
	custom := make(map[string]exec.FilterFunction, len(registry))
	for name, f := range registry {
		custom[name] = wrapFilter(f)
	}

	// a fresh set keeps the shared builtin set untouched
	set := exec.NewFilterSet(map[string]exec.FilterFunction{}).
		Update(builtins.Filters).
		Update(exec.NewFilterSet(custom))

	return &exec.Environment{
		Filters:           set,
		Tests:             builtins.Tests,
		ControlStructures: builtins.ControlStructures,
		Methods:           builtins.Methods,
		Context:           builtins.GlobalFunctions,
	}
}

// wrapFilter adapts a filter to gonja's FilterFunction signature
func wrapFilter(f filters.Func) exec.FilterFunction {
	return func(_ *exec.Evaluator, in *exec.Value, params *exec.VarArgs) *exec.Value {
		var args []any
		if params != nil {
			for _, arg := range params.Args {
				args = append(args, arg.Interface())
			}
		}

		out, err := f(in.Interface(), args...)
		if err != nil {
			return exec.AsValue(err)
		}
		return exec.AsValue(out)
	}
}

// compileJinja parses src. In native mode a template that is a single
// output block is compiled a second time with its expression handed to
// the capture function.
func (e *Environment) compileJinja(name, src string) (*Template, error) {
	text, err := exec.NewTemplate(name, jinjaConfig(), e.sourceLoader(name, src), e.jinja)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompile, name, err)
	}

	tpl := &Template{name: name, env: e, text: text}
	if e.mode != ModeNative {
		return tpl, nil
	}

	body, ok := singleExpression(src)
	if !ok {
		return tpl, nil
	}

	wrapped := "{{ " + nativeCapture + "((" + body + ")) }}"
	native, err := exec.NewTemplate(name, jinjaConfig(), e.sourceLoader(name, wrapped), e.jinja)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompile, name, err)
	}
	tpl.native = native

	return tpl, nil
}

// execJinja renders t to text
func (e *Environment) execJinja(t *Template, ctx map[string]any) (string, error) {
	out, err := t.text.ExecuteToString(exec.NewContext(e.variables(ctx)))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrEvaluate, t.name, err)
	}
	return out, nil
}

// execNative evaluates the single expression of t and returns its value
func (e *Environment) execNative(t *Template, ctx map[string]any) (any, error) {
	var value any

	vars := e.variables(ctx)
	vars[nativeCapture] = func(_ *exec.Evaluator, params *exec.VarArgs) *exec.Value {
		if params != nil && len(params.Args) > 0 {
			value = params.Args[0].Interface()
		}
		return exec.AsValue("")
	}

	if _, err := t.native.ExecuteToString(exec.NewContext(vars)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEvaluate, t.name, err)
	}
	return value, nil
}

// singleExpression returns the expression of a template made of exactly one
// {{ }} block with nothing around it
func singleExpression(src string) (string, bool) {
	if !strings.HasPrefix(src, "{{") || !strings.HasSuffix(src, "}}") || len(src) < 4 {
		return "", false
	}

	inner := src[2 : len(src)-2]
	for _, delim := range []string{"{{", "}}", "{%", "%}", "{#", "#}"} {
		if strings.Contains(inner, delim) {
			return "", false
		}
	}

	inner = strings.TrimPrefix(strings.TrimPrefix(inner, "-"), "+")
	inner = strings.TrimSuffix(strings.TrimSuffix(inner, "-"), "+")
	body := strings.TrimSpace(inner)
	if body == "" {
		return "", false
	}
	return body, true
}

// sourceLoader serves src under name and resolves every other template
// (include, import, extends) through the environment's loader
func (e *Environment) sourceLoader(name, src string) loaders.Loader {
	return &jinjaLoader{name: name, source: src, base: e.loader}
}

type jinjaLoader struct {
	name   string
	source string
	base   loader.Loader
}

// Read implements loaders.Loader
func (l *jinjaLoader) Read(path string) (io.Reader, error) {
	if path == l.name {
		return strings.NewReader(l.source), nil
	}
	if l.base == nil {
		return nil, fmt.Errorf("%w: %s (no loader configured)", ErrTemplateNotFound, path)
	}

	src, err := l.base.GetSource(path)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(src), nil
}

// Resolve implements loaders.Loader
func (l *jinjaLoader) Resolve(path string) (string, error) {
	return path, nil
}

// Inherit implements loaders.Loader
func (l *jinjaLoader) Inherit(string) (loaders.Loader, error) {
	return l, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
