package templater

import (
	"fmt"
	"reflect"

	"github.com/spf13/cast"
)

// tagName is the struct tag naming a template field
const tagName = "template"

// GetField reads the template field name of obj
func GetField(obj any, name string) (any, error) {
	if a, ok := obj.(FieldAccessor); ok {
		return a.GetField(name)
	}

	fv, err := lookupField(obj, name)
	if err != nil {
		return nil, err
	}
	return fv.Interface(), nil
}

// SetField writes value to the template field name of obj. The value is
// converted to the field's type when it is not directly assignable.
func SetField(obj any, name string, value any) error {
	if a, ok := obj.(FieldAccessor); ok {
		return a.SetField(name, value)
	}

	fv, err := lookupField(obj, name)
	if err != nil {
		return err
	}

	v, err := coerce(value, fv.Type())
	if err != nil {
		return fmt.Errorf("field %s of %T: %w", name, obj, err)
	}
	fv.Set(v)
	return nil
}

// lookupField finds a settable struct field by tag, then by Go name
func lookupField(obj any, name string) (reflect.Value, error) {
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("cannot access field %s of %T: not a struct pointer", name, obj)
	}

	elem := rv.Elem()
	typ := elem.Type()

	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.IsExported() && f.Tag.Get(tagName) == name {
			return elem.Field(i), nil
		}
	}

	if f, ok := typ.FieldByName(name); ok && f.IsExported() && len(f.Index) == 1 {
		return elem.Field(f.Index[0]), nil
	}

	return reflect.Value{}, fmt.Errorf("%T has no template field %s", obj, name)
}

// coerce converts value to typ
func coerce(value any, typ reflect.Type) (reflect.Value, error) {
	if value == nil {
		switch typ.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return reflect.Zero(typ), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot assign nil to %s", typ)
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(typ) {
		return rv, nil
	}

	switch typ.Kind() {
	case reflect.String:
		s, err := cast.ToStringE(value)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(s).Convert(typ), nil
	case reflect.Bool:
		b, err := cast.ToBoolE(value)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b).Convert(typ), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(value)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(n).Convert(typ), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(value)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(n).Convert(typ), nil
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(f).Convert(typ), nil
	case reflect.Slice:
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			break
		}
		out := reflect.MakeSlice(typ, rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := coerce(rv.Index(i).Interface(), typ.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			out.Index(i).Set(elem)
		}
		return out, nil
	}

	return reflect.Value{}, fmt.Errorf("cannot assign %T to %s", value, typ)
}
