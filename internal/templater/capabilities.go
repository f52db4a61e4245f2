package templater

import "github.com/aescanero/dago-templater/internal/eval/template"

// Resolvable values compute their own rendered form. The result is used as
// is and not rendered any further.
type Resolvable interface {
	Resolve(ctx Context) (any, error)
}

// TemplateFielder exposes the names of the fields holding templates, in the
// order they are rendered.
type TemplateFielder interface {
	TemplateFields() []string
}

// TemplateFieldOwner is a top level object whose fields are rendered. Its
// extensions decide which string values name template files.
type TemplateFieldOwner interface {
	TemplateFielder
	TemplateExt() []string
}

// FieldAccessor replaces reflection based field access
type FieldAccessor interface {
	GetField(name string) (any, error)
	SetField(name string, value any) error
}

// TemplatePreparer is called after template files are resolved and before
// fields are rendered.
type TemplatePreparer interface {
	PrepareTemplate() error
}

// EnvironmentProvider supplies the environment of an owning workflow.
// Returning nil selects the shared sandboxed environment.
type EnvironmentProvider interface {
	TemplateEnvironment() *template.Environment
}

// StructuredPath is a path value that serializes to a mapping with a "path"
// entry. Only that entry is rendered.
type StructuredPath interface {
	Serialize() map[string]any
	SerializationVersion() int
	Deserialize(data map[string]any, version int) (any, error)
}
