package templater

import (
	"fmt"
	"reflect"
)

// Kind is the shape a value is rendered as
type Kind int

const (
	// KindText is a string, rendered as a template
	KindText Kind = iota

	// KindStructuredPath is a StructuredPath; only its path is rendered
	KindStructuredPath

	// KindResolvable is a Resolvable
	KindResolvable

	// KindTuple is a Tuple
	KindTuple

	// KindLabeledSequence is a LabeledSequence
	KindLabeledSequence

	// KindSequence is a slice or array
	KindSequence

	// KindMapping is a map or *OrderedMap
	KindMapping

	// KindSet is a Set
	KindSet

	// KindOpaque is anything else, including objects with template fields
	KindOpaque
)

var kindNames = [...]string{
	KindText:            "text",
	KindStructuredPath:  "structured path",
	KindResolvable:      "resolvable",
	KindTuple:           "tuple",
	KindLabeledSequence: "labeled sequence",
	KindSequence:        "sequence",
	KindMapping:         "mapping",
	KindSet:             "set",
	KindOpaque:          "opaque",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// KindOf classifies v. When v matches several kinds the earliest in
// declaration order wins, so a path value that also resolves itself is a
// KindStructuredPath.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindOpaque
	case string:
		return KindText
	case StructuredPath:
		return KindStructuredPath
	case Resolvable:
		return KindResolvable
	case Tuple:
		return KindTuple
	case LabeledSequence:
		return KindLabeledSequence
	case *OrderedMap:
		return KindMapping
	case Set:
		return KindSet
	case []byte:
		return KindOpaque
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.String:
		return KindText
	case reflect.Slice, reflect.Array:
		return KindSequence
	case reflect.Map:
		return KindMapping
	default:
		return KindOpaque
	}
}

// Tuple is a fixed length sequence
type Tuple []any

// LabeledSequence is a fixed length sequence whose positions carry labels.
// Rebuild returns a value of the same concrete type holding elements.
type LabeledSequence interface {
	Labels() []string
	Elements() []any
	Rebuild(elements []any) (LabeledSequence, error)
}

// NamedTuple is the general purpose LabeledSequence
type NamedTuple struct {
	typeName string
	labels   []string
	values   []any
}

// NewNamedTuple creates a named tuple with one value per label
func NewNamedTuple(typeName string, labels []string, values ...any) (NamedTuple, error) {
	if len(labels) != len(values) {
		return NamedTuple{}, fmt.Errorf("%s expects %d values, got %d", typeName, len(labels), len(values))
	}

	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		if seen[label] {
			return NamedTuple{}, fmt.Errorf("%s: duplicate label %q", typeName, label)
		}
		seen[label] = true
	}

	return NamedTuple{
		typeName: typeName,
		labels:   append([]string(nil), labels...),
		values:   append([]any(nil), values...),
	}, nil
}

// TypeName returns the tuple's type name
func (n NamedTuple) TypeName() string {
	return n.typeName
}

// Labels implements LabeledSequence
func (n NamedTuple) Labels() []string {
	return append([]string(nil), n.labels...)
}

// Elements implements LabeledSequence
func (n NamedTuple) Elements() []any {
	return append([]any(nil), n.values...)
}

// Get returns the value labelled label
func (n NamedTuple) Get(label string) (any, bool) {
	for i, l := range n.labels {
		if l == label {
			return n.values[i], true
		}
	}
	return nil, false
}

// Rebuild implements LabeledSequence
func (n NamedTuple) Rebuild(elements []any) (LabeledSequence, error) {
	return NewNamedTuple(n.typeName, n.labels, elements...)
}

// Set is an unordered collection of unique comparable values
type Set map[any]struct{}

// NewSet creates a set holding elems
func NewSet(elems ...any) Set {
	s := make(Set, len(elems))
	for _, e := range elems {
		s[e] = struct{}{}
	}
	return s
}

// Add inserts e. Values that are not comparable are rejected.
func (s Set) Add(e any) error {
	if e != nil && !reflect.ValueOf(e).Comparable() {
		return fmt.Errorf("set element of type %T is not comparable", e)
	}
	s[e] = struct{}{}
	return nil
}

// Contains reports whether e is in the set
func (s Set) Contains(e any) bool {
	_, ok := s[e]
	return ok
}
