package templater

import "reflect"

// Reference names a field of another owner that a value depends on
type Reference struct {
	Owner any
	Field string
}

// LiteralValue holds a value that is returned as is, even when it contains
// template syntax.
type LiteralValue struct {
	Value any
}

// Literal wraps v
func Literal(v any) LiteralValue {
	return LiteralValue{Value: v}
}

// Resolve returns the wrapped value
func (l LiteralValue) Resolve(Context) (any, error) {
	return l.Value, nil
}

// IterReferences returns nothing; a literal depends on no other field
func (l LiteralValue) IterReferences() []Reference {
	return nil
}

// Equal reports whether both literals wrap equal values
func (l LiteralValue) Equal(other LiteralValue) bool {
	return reflect.DeepEqual(l.Value, other.Value)
}

// MarshalYAML encodes the wrapped value
func (l LiteralValue) MarshalYAML() (any, error) {
	return l.Value, nil
}
