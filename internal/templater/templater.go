package templater

import (
	"fmt"
	"reflect"

	"github.com/aescanero/dago-templater/internal/eval/template"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// sandboxedKey is the environment cache key used when the owner supplies
// no environment of its own
const sandboxedKey = "sandboxed"

var environments = template.NewCache()

// Templater renders the template fields of one owner
type Templater struct {
	owner  TemplateFieldOwner
	logger *zap.Logger
}

// New creates a templater for owner
func New(owner TemplateFieldOwner, logger *zap.Logger) *Templater {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Templater{
		owner:  owner,
		logger: logger,
	}
}

// Owner returns the object whose fields are rendered
func (t *Templater) Owner() TemplateFieldOwner {
	return t.owner
}

// TemplateEnvironment returns the owner's environment when it provides one,
// and a shared string mode sandboxed environment otherwise.
func (t *Templater) TemplateEnvironment() (*template.Environment, error) {
	if p, ok := t.owner.(EnvironmentProvider); ok {
		if env := p.TemplateEnvironment(); env != nil {
			return env, nil
		}
	}

	return environments.Get(sandboxedKey, func() (*template.Environment, error) {
		return template.NewSandboxedEnvironment(), nil
	})
}

// RenderTemplateFields renders every declared field of the owner in order
// and writes back results that are not empty. A failing field is logged and
// left unchanged; the remaining fields are still rendered and all failures
// are returned together.
func (t *Templater) RenderTemplateFields(ctx Context, env *template.Environment) error {
	if env == nil {
		var err error
		if env, err = t.TemplateEnvironment(); err != nil {
			return err
		}
	}

	var errs error
	for _, name := range t.owner.TemplateFields() {
		visited := NewVisited(t.owner)

		if err := t.renderField(t.owner, name, ctx, env, visited); err != nil {
			t.logger.Error("failed to render template field",
				zap.String("field", name),
				zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}

		t.logger.Debug("rendered template field",
			zap.String("field", name),
			zap.Int("visited", visited.Len()))
	}

	return errs
}

// ResolveTemplateFiles replaces field values naming template files with the
// files' contents, for string fields and for string elements of slice
// fields. Lookup failures are logged and leave the value as it was. The
// owner's PrepareTemplate hook runs afterwards and its error is returned.
func (t *Templater) ResolveTemplateFiles() error {
	if exts := t.owner.TemplateExt(); len(exts) > 0 {
		t.resolveFiles(exts)
	}

	if p, ok := t.owner.(TemplatePreparer); ok {
		if err := p.PrepareTemplate(); err != nil {
			return fmt.Errorf("failed to prepare template: %w", err)
		}
	}
	return nil
}

func (t *Templater) resolveFiles(exts []string) {
	env, err := t.TemplateEnvironment()
	if err != nil {
		t.logger.Warn("failed to get template environment", zap.Error(err))
		return
	}

	for _, name := range t.owner.TemplateFields() {
		value, err := GetField(t.owner, name)
		if err != nil {
			t.logger.Warn("failed to read template field",
				zap.String("field", name),
				zap.Error(err))
			continue
		}
		if value == nil {
			continue
		}

		rv := reflect.ValueOf(value)
		switch rv.Kind() {
		case reflect.String:
			if !template.HasExtension(rv.String(), exts) {
				continue
			}
			src, err := env.GetSource(rv.String())
			if err != nil {
				t.logger.Warn("failed to resolve template field",
					zap.String("field", name),
					zap.Error(err))
				continue
			}
			if err := SetField(t.owner, name, reflect.ValueOf(src).Convert(rv.Type()).Interface()); err != nil {
				t.logger.Warn("failed to resolve template field",
					zap.String("field", name),
					zap.Error(err))
			}
		case reflect.Slice:
			t.resolveElements(env, rv, exts)
		}
	}
}

// resolveElements replaces file names inside a slice in place
func (t *Templater) resolveElements(env *template.Environment, rv reflect.Value, exts []string) {
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i)

		item := elem
		if item.Kind() == reflect.Interface {
			item = item.Elem()
		}
		if item.Kind() != reflect.String || !template.HasExtension(item.String(), exts) {
			continue
		}

		src, err := env.GetSource(item.String())
		if err != nil {
			t.logger.Warn("failed to get template source",
				zap.String("template", item.String()),
				zap.Error(err))
			continue
		}

		if elem.Kind() == reflect.Interface {
			elem.Set(reflect.ValueOf(src).Convert(item.Type()))
		} else {
			elem.Set(reflect.ValueOf(src).Convert(elem.Type()))
		}
	}
}
