package task

import (
	"fmt"
	"io"

	"github.com/aescanero/dago-templater/internal/eval/template"
	"github.com/aescanero/dago-templater/internal/templater"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// document is the YAML form of a task
type document struct {
	TemplateFields []string              `yaml:"template_fields"`
	TemplateExt    []string              `yaml:"template_ext"`
	Fields         *templater.OrderedMap `yaml:"fields"`
	Context        *templater.OrderedMap `yaml:"context"`
}

// Task is a template field owner backed by an ordered set of fields
type Task struct {
	templateFields []string
	templateExt    []string
	fields         *templater.OrderedMap
	context        templater.Context
	env            *template.Environment
}

// Decode reads a task document. Without template_fields every field is a
// template field.
func Decode(r io.Reader) (*Task, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty task document")
		}
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}

	if doc.Fields == nil {
		doc.Fields = templater.NewOrderedMap()
	}
	if len(doc.TemplateFields) == 0 {
		doc.TemplateFields = doc.Fields.Keys()
	}

	for _, name := range doc.TemplateFields {
		if _, ok := doc.Fields.Get(name); !ok {
			return nil, fmt.Errorf("template field %s is not defined in fields", name)
		}
	}

	return &Task{
		templateFields: doc.TemplateFields,
		templateExt:    doc.TemplateExt,
		fields:         doc.Fields,
		context:        toContext(doc.Context),
	}, nil
}

// LoadFile reads a task document from fsys
func LoadFile(fsys afero.Fs, path string) (*Task, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open task %s: %w", path, err)
	}
	defer f.Close()

	t, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// TemplateFields implements templater.TemplateFielder
func (t *Task) TemplateFields() []string {
	return t.templateFields
}

// TemplateExt implements templater.TemplateFieldOwner
func (t *Task) TemplateExt() []string {
	return t.templateExt
}

// SetTemplateExt replaces the template file suffixes
func (t *Task) SetTemplateExt(exts []string) {
	t.templateExt = exts
}

// GetField implements templater.FieldAccessor
func (t *Task) GetField(name string) (any, error) {
	v, ok := t.fields.Get(name)
	if !ok {
		return nil, fmt.Errorf("task has no field %s", name)
	}
	return v, nil
}

// SetField implements templater.FieldAccessor
func (t *Task) SetField(name string, value any) error {
	if _, ok := t.fields.Get(name); !ok {
		return fmt.Errorf("task has no field %s", name)
	}
	t.fields.Set(name, value)
	return nil
}

// SetEnvironment sets the environment used to render the task
func (t *Task) SetEnvironment(env *template.Environment) {
	t.env = env
}

// TemplateEnvironment implements templater.EnvironmentProvider
func (t *Task) TemplateEnvironment() *template.Environment {
	return t.env
}

// Fields returns the task's fields
func (t *Task) Fields() *templater.OrderedMap {
	return t.fields
}

// Context returns the render context declared by the document
func (t *Task) Context() templater.Context {
	out := make(templater.Context, len(t.context))
	for k, v := range t.context {
		out[k] = v
	}
	return out
}

// Encode writes the fields as YAML in their original order
func (t *Task) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t.fields); err != nil {
		return fmt.Errorf("failed to encode task fields: %w", err)
	}
	return enc.Close()
}

// DecodeContext reads a YAML mapping of context variables
func DecodeContext(r io.Reader) (templater.Context, error) {
	m := templater.NewOrderedMap()
	if err := yaml.NewDecoder(r).Decode(m); err != nil {
		if err == io.EOF {
			return templater.Context{}, nil
		}
		return nil, fmt.Errorf("failed to decode context: %w", err)
	}
	return toContext(m), nil
}

// toContext converts decoded context values to plain maps so that
// expressions can reach nested keys
func toContext(m *templater.OrderedMap) templater.Context {
	ctx := make(templater.Context, m.Len())
	if m == nil {
		return ctx
	}
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		ctx[k] = plain(v)
	}
	return ctx
}

func plain(v any) any {
	switch x := v.(type) {
	case *templater.OrderedMap:
		out := make(map[string]any, x.Len())
		for _, k := range x.Keys() {
			item, _ := x.Get(k)
			out[k] = plain(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = plain(item)
		}
		return out
	default:
		return v
	}
}
