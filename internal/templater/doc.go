// Package templater renders the template fields of arbitrary object graphs.
//
// An owner declares which of its fields hold templates and which string
// suffixes mark a value as a template file:
//
//	type Query struct {
//	    SQL    string         `template:"sql"`
//	    Params map[string]any `template:"params"`
//	}
//
//	func (q *Query) TemplateFields() []string { return []string{"sql", "params"} }
//	func (q *Query) TemplateExt() []string    { return []string{".sql"} }
//
//	q := &Query{SQL: "select.sql", Params: map[string]any{"day": "{{ logical_date | ds }}"}}
//	t := templater.New(q, logger)
//	if err := t.ResolveTemplateFiles(); err != nil {
//	    return err
//	}
//	if err := t.RenderTemplateFields(ctx, env); err != nil {
//	    return err
//	}
//
// Rendering walks every value reachable from the declared fields. Strings
// are templates, containers are rebuilt around their rendered elements,
// values implementing Resolvable resolve themselves and nested objects
// implementing TemplateFielder have their own fields rendered in place.
// Pointer objects are visited at most once per field, so cyclic graphs
// terminate.
//
// Wrap a value in LiteralValue to keep it out of rendering altogether.
package templater
