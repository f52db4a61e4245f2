package template

import (
	"fmt"
	"strings"

	"github.com/aescanero/dago-templater/internal/eval/filters"
	"github.com/aescanero/dago-templater/internal/eval/loader"
	"github.com/aescanero/dago-templater/internal/eval/sandbox"
	lru "github.com/hashicorp/golang-lru"
	"github.com/nikolalohinski/gonja/v2/exec"
)

// Mode selects how a template's result is produced
type Mode int

const (
	// ModeString renders every template to text
	ModeString Mode = iota

	// ModeNative returns the native value of single expression templates
	ModeNative
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeString:
		return "string"
	case ModeNative:
		return "native"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Dialect selects the template language
type Dialect string

const (
	// DialectJinja renders Jinja syntax with gonja
	DialectJinja Dialect = "jinja"

	// DialectHandlebars renders with raymond
	DialectHandlebars Dialect = "handlebars"
)

// ParseDialect maps a configuration value to a Dialect
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(s))) {
	case "", DialectJinja:
		return DialectJinja, nil
	case DialectHandlebars:
		return DialectHandlebars, nil
	default:
		return "", fmt.Errorf("unknown template dialect: %s", s)
	}
}

// Options configures an Environment
type Options struct {
	Mode    Mode
	Dialect Dialect

	// Loader resolves file templates. Without one, file templates are not found.
	Loader loader.Loader

	// Policy guards attribute access. Defaults to sandbox.DefaultPolicy().
	Policy sandbox.Policy

	// Filters are added to, and may replace, the date filters and the
	// dialect's own builtin filters
	Filters map[string]filters.Func

	// Globals are visible to every template below the render context.
	// nil selects DefaultGlobals(); pass an empty map for none.
	Globals map[string]any

	// CacheSize bounds the compiled inline template cache; 0 disables it
	CacheSize int
}

// Environment compiles and evaluates templates. It is immutable after
// construction apart from its internally synchronised compile cache.
type Environment struct {
	mode    Mode
	dialect Dialect
	loader  loader.Loader
	policy  sandbox.Policy
	filters map[string]filters.Func
	globals map[string]any
	cache   *lru.Cache

	jinja *exec.Environment
}

// NewEnvironment creates an environment
func NewEnvironment(opts Options) (*Environment, error) {
	if opts.Dialect == "" {
		opts.Dialect = DialectJinja
	}
	if opts.Dialect != DialectJinja && opts.Dialect != DialectHandlebars {
		return nil, fmt.Errorf("unknown template dialect: %s", opts.Dialect)
	}
	if opts.Mode != ModeString && opts.Mode != ModeNative {
		return nil, fmt.Errorf("unknown render mode: %s", opts.Mode)
	}
	if opts.Policy == nil {
		opts.Policy = sandbox.DefaultPolicy()
	}
	if opts.Globals == nil {
		opts.Globals = DefaultGlobals()
	}

	registry := filters.Builtins()
	for name, f := range opts.Filters {
		if !isIdentifier(name) {
			return nil, fmt.Errorf("invalid filter name: %q", name)
		}
		if f == nil {
			return nil, fmt.Errorf("filter %s is nil", name)
		}
		registry[name] = f
	}

	env := &Environment{
		mode:    opts.Mode,
		dialect: opts.Dialect,
		loader:  opts.Loader,
		policy:  opts.Policy,
		filters: registry,
		globals: opts.Globals,
	}
	if env.dialect == DialectJinja {
		env.jinja = newJinjaEnvironment(registry)
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New(opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create template cache: %w", err)
		}
		env.cache = cache
	}

	return env, nil
}

// NewSandboxedEnvironment returns a string mode environment with the default
// policy and no loader. It is used when no owning workflow supplies one.
func NewSandboxedEnvironment() *Environment {
	env, err := NewEnvironment(Options{Mode: ModeString})
	if err != nil {
		panic(fmt.Sprintf("failed to create sandboxed environment: %v", err))
	}
	return env
}

// Mode returns the render mode
func (e *Environment) Mode() Mode {
	return e.mode
}

// Dialect returns the template language
func (e *Environment) Dialect() Dialect {
	return e.dialect
}

// FromString compiles inline template source
func (e *Environment) FromString(src string) (*Template, error) {
	key := string(e.dialect) + "\x00" + src
	if e.cache != nil {
		if tpl, ok := e.cache.Get(key); ok {
			return tpl.(*Template), nil
		}
	}

	tpl, err := e.compile("<string>", src)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.Add(key, tpl)
	}
	return tpl, nil
}

// GetTemplate loads a file template through the loader and compiles it.
// File templates are compiled on every call so edits are always seen.
func (e *Environment) GetTemplate(name string) (*Template, error) {
	src, err := e.GetSource(name)
	if err != nil {
		return nil, err
	}
	return e.compile(name, src)
}

// GetSource returns the raw text of a file template
func (e *Environment) GetSource(name string) (string, error) {
	if e.loader == nil {
		return "", fmt.Errorf("%w: %s (no loader configured)", ErrTemplateNotFound, name)
	}
	return e.loader.GetSource(name)
}

// Load compiles source as a file template when it ends with one of
// extensions, and as inline template text otherwise.
func (e *Environment) Load(source string, extensions []string) (*Template, error) {
	if HasExtension(source, extensions) {
		return e.GetTemplate(source)
	}
	return e.FromString(source)
}

// HasExtension reports whether s ends with any of the suffixes
func HasExtension(s string, extensions []string) bool {
	for _, ext := range extensions {
		if ext != "" && strings.HasSuffix(s, ext) {
			return true
		}
	}
	return false
}

// compile dispatches on the dialect
func (e *Environment) compile(name, src string) (*Template, error) {
	switch e.dialect {
	case DialectHandlebars:
		return e.compileHandlebars(name, src)
	default:
		return e.compileJinja(name, src)
	}
}

// variables layers the sandboxed view of the render context over the
// globals
func (e *Environment) variables(ctx map[string]any) map[string]any {
	vars := make(map[string]any, len(e.globals)+len(ctx)+1)
	for k, v := range e.globals {
		vars[k] = v
	}
	for k, v := range sandbox.ViewContext(ctx, e.policy) {
		vars[k] = v
	}
	return vars
}
