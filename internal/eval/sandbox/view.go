package sandbox

import (
	"fmt"
	"reflect"
)

var (
	stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	mapAnyType   = reflect.TypeOf(map[string]any(nil))
)

// View returns v as a template may see it under policy. Mapping keys the
// policy rejects are removed. Structs exposing a rejected field or method,
// and structs that are more than a plain value, become maps of their
// allowed exported fields. Strings, numbers and value types such as
// time.Time are returned as they are. Cyclic graphs are preserved.
func View(v any, policy Policy) any {
	if v == nil {
		return nil
	}
	w := &viewer{policy: policy, seen: make(map[visit]reflect.Value)}
	out := w.view(reflect.ValueOf(v))
	if !out.IsValid() {
		return nil
	}
	return out.Interface()
}

// ViewContext applies View to every value of ctx. Top level names are
// variables rather than attributes and are kept.
func ViewContext(ctx map[string]any, policy Policy) map[string]any {
	w := &viewer{policy: policy, seen: make(map[visit]reflect.Value)}
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		if v == nil {
			out[k] = nil
			continue
		}
		if rv := w.view(reflect.ValueOf(v)); rv.IsValid() {
			out[k] = rv.Interface()
		} else {
			out[k] = nil
		}
	}
	return out
}

// visit identifies a map, slice or struct pointer already being viewed
type visit struct {
	typ reflect.Type
	ptr uintptr
	len int
}

type viewer struct {
	policy Policy
	seen   map[visit]reflect.Value
}

func (w *viewer) view(rv reflect.Value) reflect.Value {
	if !rv.IsValid() {
		return rv
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return rv
		}
		return w.view(rv.Elem())
	case reflect.Map:
		return w.viewMap(rv)
	case reflect.Slice:
		return w.viewSlice(rv)
	case reflect.Array:
		return w.viewArray(rv)
	case reflect.Struct:
		if w.opaque(rv.Type()) {
			return rv
		}
		out := reflect.MakeMap(mapAnyType)
		w.fillStruct(out, rv)
		return out
	case reflect.Pointer:
		if rv.IsNil() || rv.Elem().Kind() != reflect.Struct || w.opaque(rv.Type()) {
			return rv
		}
		key := visit{typ: rv.Type(), ptr: rv.Pointer()}
		if out, ok := w.seen[key]; ok {
			return out
		}
		out := reflect.MakeMap(mapAnyType)
		w.seen[key] = out
		w.fillStruct(out, rv.Elem())
		return out
	default:
		return rv
	}
}

func (w *viewer) viewMap(rv reflect.Value) reflect.Value {
	if rv.IsNil() {
		return rv
	}

	key := visit{typ: rv.Type(), ptr: rv.Pointer()}
	if out, ok := w.seen[key]; ok {
		return out
	}

	typ := w.viewType(rv.Type())
	out := reflect.MakeMapWithSize(typ, rv.Len())
	w.seen[key] = out

	stringKeys := rv.Type().Key().Kind() == reflect.String
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()
		if stringKeys && !w.policy.IsSafeAttribute(k.String()) {
			continue
		}
		out.SetMapIndex(k, w.convert(w.view(iter.Value()), typ.Elem()))
	}
	return out
}

func (w *viewer) viewSlice(rv reflect.Value) reflect.Value {
	typ := w.viewType(rv.Type())
	if rv.IsNil() || typ == rv.Type() && scalar(rv.Type().Elem()) {
		return rv
	}

	key := visit{typ: rv.Type(), ptr: rv.Pointer(), len: rv.Len()}
	if out, ok := w.seen[key]; ok {
		return out
	}

	out := reflect.MakeSlice(typ, rv.Len(), rv.Len())
	w.seen[key] = out
	for i := 0; i < rv.Len(); i++ {
		out.Index(i).Set(w.convert(w.view(rv.Index(i)), typ.Elem()))
	}
	return out
}

func (w *viewer) viewArray(rv reflect.Value) reflect.Value {
	typ := w.viewType(rv.Type())
	if typ == rv.Type() && scalar(rv.Type().Elem()) {
		return rv
	}

	out := reflect.New(typ).Elem()
	for i := 0; i < rv.Len(); i++ {
		out.Index(i).Set(w.convert(w.view(rv.Index(i)), typ.Elem()))
	}
	return out
}

// fillStruct copies the allowed exported fields of rv into out
func (w *viewer) fillStruct(out, rv reflect.Value) {
	typ := rv.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() || !w.policy.IsSafeAttribute(f.Name) {
			continue
		}
		if v := w.view(rv.Field(i)); v.IsValid() {
			out.SetMapIndex(reflect.ValueOf(f.Name), v)
		} else {
			out.SetMapIndex(reflect.ValueOf(f.Name), reflect.Zero(anyType))
		}
	}
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// convert makes v storable in a location of type typ
func (w *viewer) convert(v reflect.Value, typ reflect.Type) reflect.Value {
	if !v.IsValid() {
		return reflect.Zero(typ)
	}
	if v.Type().AssignableTo(typ) {
		return v
	}
	if v.Type().ConvertibleTo(typ) {
		return v.Convert(typ)
	}
	return reflect.Zero(typ)
}

// viewType is the type a value of static type typ has once viewed
func (w *viewer) viewType(typ reflect.Type) reflect.Type {
	switch typ.Kind() {
	case reflect.Map:
		elem := w.viewType(typ.Elem())
		if elem == typ.Elem() {
			return typ
		}
		return reflect.MapOf(typ.Key(), elem)
	case reflect.Slice:
		elem := w.viewType(typ.Elem())
		if elem == typ.Elem() {
			return typ
		}
		return reflect.SliceOf(elem)
	case reflect.Array:
		elem := w.viewType(typ.Elem())
		if elem == typ.Elem() {
			return typ
		}
		return reflect.ArrayOf(typ.Len(), elem)
	case reflect.Struct:
		if w.opaque(typ) {
			return typ
		}
		return mapAnyType
	case reflect.Pointer:
		if typ.Elem().Kind() != reflect.Struct || w.opaque(typ) {
			return typ
		}
		return mapAnyType
	default:
		return typ
	}
}

// opaque reports whether values of typ are shown as they are: value types
// that print themselves or carry no exported fields, and whose exported
// names all pass the policy.
func (w *viewer) opaque(typ reflect.Type) bool {
	st := typ
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}

	exported := 0
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.IsExported() {
			continue
		}
		exported++
		if !w.policy.IsSafeAttribute(f.Name) {
			return false
		}
	}

	for _, t := range []reflect.Type{st, reflect.PointerTo(st)} {
		for i := 0; i < t.NumMethod(); i++ {
			if !w.policy.IsSafeAttribute(t.Method(i).Name) {
				return false
			}
		}
	}

	return exported == 0 || st.Implements(stringerType) || reflect.PointerTo(st).Implements(stringerType)
}

// scalar reports whether values of typ hold no attributes
func scalar(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}
