package templater

import (
	"fmt"
	"reflect"

	"github.com/aescanero/dago-templater/internal/eval/template"
	"go.uber.org/multierr"
)

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// RenderTemplate renders value against ctx. Strings are templates; the
// elements of containers are rendered recursively; objects exposing
// template fields are rendered in place. visited may be nil, in which case
// a fresh set is used.
func (t *Templater) RenderTemplate(value any, ctx Context, env *template.Environment, visited *Visited) (any, error) {
	if visited == nil {
		visited = NewVisited()
	}
	if visited.Contains(value) {
		return value, nil
	}

	if env == nil {
		var err error
		if env, err = t.TemplateEnvironment(); err != nil {
			return nil, err
		}
	}

	switch kind := KindOf(value); kind {
	case KindText:
		return t.renderText(value, ctx, env)
	case KindStructuredPath:
		return renderStructuredPath(value.(StructuredPath), ctx, env)
	case KindResolvable:
		return value.(Resolvable).Resolve(ctx)
	case KindTuple:
		elems, err := t.renderElements(value.(Tuple), ctx, env, visited)
		if err != nil {
			return nil, err
		}
		return Tuple(elems), nil
	case KindLabeledSequence:
		seq := value.(LabeledSequence)
		elems, err := t.renderElements(seq.Elements(), ctx, env, visited)
		if err != nil {
			return nil, err
		}
		return seq.Rebuild(elems)
	case KindSequence:
		return t.renderSequence(value, ctx, env, visited)
	case KindMapping:
		if m, ok := value.(*OrderedMap); ok {
			return t.renderOrderedMap(m, ctx, env, visited)
		}
		return t.renderMap(value, ctx, env, visited)
	case KindSet:
		return t.renderSet(value.(Set), ctx, env, visited)
	default:
		return t.renderObject(value, ctx, env, visited)
	}
}

// renderText loads value as a file template when it carries one of the
// owner's extensions and as inline template text otherwise
func (t *Templater) renderText(value any, ctx Context, env *template.Environment) (any, error) {
	rv := reflect.ValueOf(value)
	src := rv.String()

	tpl, err := env.Load(src, t.owner.TemplateExt())
	if err != nil {
		return nil, err
	}

	out, err := tpl.Render(ctx)
	if err != nil {
		return nil, err
	}

	// keep named string types
	if s, ok := out.(string); ok && rv.Type() != reflect.TypeOf(s) {
		return reflect.ValueOf(s).Convert(rv.Type()).Interface(), nil
	}
	return out, nil
}

// renderStructuredPath renders the "path" entry of the serialized value as
// text and deserializes the result
func renderStructuredPath(p StructuredPath, ctx Context, env *template.Environment) (any, error) {
	data := p.Serialize()

	path, ok := data["path"].(string)
	if !ok {
		return nil, fmt.Errorf("structured path %T has no textual path entry", p)
	}

	tpl, err := env.FromString(path)
	if err != nil {
		return nil, err
	}
	rendered, err := tpl.RenderString(ctx)
	if err != nil {
		return nil, err
	}

	data["path"] = rendered
	return p.Deserialize(data, p.SerializationVersion())
}

func (t *Templater) renderElements(elems []any, ctx Context, env *template.Environment, visited *Visited) ([]any, error) {
	out := make([]any, len(elems))
	for i, e := range elems {
		r, err := t.RenderTemplate(e, ctx, env, visited)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = r
	}
	return out, nil
}

// renderSequence rebuilds a slice or array. The original type is kept when
// every rendered element still fits it; otherwise the result is a []any.
func (t *Templater) renderSequence(value any, ctx Context, env *template.Environment, visited *Visited) (any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return value, nil
	}

	elems := make([]any, rv.Len())
	for i := range elems {
		elems[i] = rv.Index(i).Interface()
	}

	rendered, err := t.renderElements(elems, ctx, env, visited)
	if err != nil {
		return nil, err
	}

	elemType := rv.Type().Elem()
	for _, r := range rendered {
		if !fits(r, elemType) {
			return rendered, nil
		}
	}

	var out reflect.Value
	if rv.Kind() == reflect.Array {
		out = reflect.New(rv.Type()).Elem()
	} else {
		out = reflect.MakeSlice(rv.Type(), len(rendered), len(rendered))
	}
	for i, r := range rendered {
		out.Index(i).Set(valueOf(r, elemType))
	}
	return out.Interface(), nil
}

// renderMap rebuilds a Go map with the same keys. Keys are never rendered.
func (t *Templater) renderMap(value any, ctx Context, env *template.Environment, visited *Visited) (any, error) {
	rv := reflect.ValueOf(value)
	if rv.IsNil() {
		return value, nil
	}

	type entry struct {
		key   reflect.Value
		value any
	}
	entries := make([]entry, 0, rv.Len())
	elemType := rv.Type().Elem()
	same := true

	iter := rv.MapRange()
	for iter.Next() {
		r, err := t.RenderTemplate(iter.Value().Interface(), ctx, env, visited)
		if err != nil {
			return nil, fmt.Errorf("key %v: %w", iter.Key().Interface(), err)
		}
		if !fits(r, elemType) {
			same = false
		}
		entries = append(entries, entry{key: iter.Key(), value: r})
	}

	mapType := rv.Type()
	if !same {
		mapType = reflect.MapOf(mapType.Key(), anyType)
	}

	out := reflect.MakeMapWithSize(mapType, len(entries))
	for _, e := range entries {
		out.SetMapIndex(e.key, valueOf(e.value, mapType.Elem()))
	}
	return out.Interface(), nil
}

func (t *Templater) renderOrderedMap(m *OrderedMap, ctx Context, env *template.Environment, visited *Visited) (any, error) {
	if m == nil {
		return m, nil
	}

	out := NewOrderedMap()
	for _, k := range m.keys {
		r, err := t.RenderTemplate(m.values[k], ctx, env, visited)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k, err)
		}
		out.Set(k, r)
	}
	return out, nil
}

// renderSet renders every element. Elements that render to equal values
// collapse into one.
func (t *Templater) renderSet(s Set, ctx Context, env *template.Environment, visited *Visited) (any, error) {
	out := make(Set, len(s))
	for e := range s {
		r, err := t.RenderTemplate(e, ctx, env, visited)
		if err != nil {
			return nil, fmt.Errorf("set element %v: %w", e, err)
		}
		if err := out.Add(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// renderObject marks value visited and renders its own template fields.
// A struct held by value is rendered on a copy, which is returned.
func (t *Templater) renderObject(value any, ctx Context, env *template.Environment, visited *Visited) (any, error) {
	visited.Add(value)

	fielder, ok := value.(TemplateFielder)
	if !ok {
		return value, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return value, nil
	}
	if rv.Kind() == reflect.Struct {
		cp := reflect.New(rv.Type())
		cp.Elem().Set(rv)
		if err := t.renderNestedFields(cp.Interface(), fielder.TemplateFields(), ctx, env, visited); err != nil {
			return nil, err
		}
		return cp.Elem().Interface(), nil
	}

	if err := t.renderNestedFields(value, fielder.TemplateFields(), ctx, env, visited); err != nil {
		return nil, err
	}
	return value, nil
}

// renderNestedFields renders the fields of a nested object with the
// caller's visited set
func (t *Templater) renderNestedFields(parent any, fields []string, ctx Context, env *template.Environment, visited *Visited) error {
	var errs error
	for _, name := range fields {
		if err := t.renderField(parent, name, ctx, env, visited); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%T: %w", parent, err))
		}
	}
	return errs
}

// renderField renders one field and writes back a truthy result
func (t *Templater) renderField(parent any, name string, ctx Context, env *template.Environment, visited *Visited) error {
	value, err := GetField(parent, name)
	if err != nil {
		return err
	}

	out, err := t.RenderTemplate(value, ctx, env, visited)
	if err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}

	if !IsTruthy(out) {
		return nil
	}
	return SetField(parent, name, out)
}

// fits reports whether v can be stored in a location of type typ
func fits(v any, typ reflect.Type) bool {
	if v == nil {
		switch typ.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return true
		}
		return false
	}
	return reflect.TypeOf(v).AssignableTo(typ)
}

func valueOf(v any, typ reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(typ)
	}
	return reflect.ValueOf(v)
}

// IsTruthy reports whether v counts as a present value. nil, false, zero
// numbers and empty strings or containers do not.
func IsTruthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case *OrderedMap:
		return x.Len() > 0
	case LabeledSequence:
		return len(x.Elements()) > 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Complex64, reflect.Complex128:
		return rv.Complex() != 0
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	default:
		return true
	}
}
