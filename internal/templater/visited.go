package templater

import "reflect"

// identity is the handle of a pointer object
type identity struct {
	typ reflect.Type
	ptr uintptr
}

func identityOf(v any) (identity, bool) {
	if v == nil {
		return identity{}, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return identity{}, false
	}
	return identity{typ: rv.Type(), ptr: rv.Pointer()}, true
}

// Visited records the objects already rendered during one field render.
// Only non-nil pointers have an identity; every other value is ignored.
type Visited struct {
	seen map[identity]struct{}
}

// NewVisited creates a set holding seed
func NewVisited(seed ...any) *Visited {
	v := &Visited{seen: make(map[identity]struct{})}
	for _, s := range seed {
		v.Add(s)
	}
	return v
}

// Add records v and reports whether it was added
func (v *Visited) Add(x any) bool {
	id, ok := identityOf(x)
	if !ok {
		return false
	}
	if _, dup := v.seen[id]; dup {
		return false
	}
	v.seen[id] = struct{}{}
	return true
}

// Contains reports whether x has been recorded
func (v *Visited) Contains(x any) bool {
	id, ok := identityOf(x)
	if !ok {
		return false
	}
	_, found := v.seen[id]
	return found
}

// Len returns the number of recorded objects
func (v *Visited) Len() int {
	return len(v.seen)
}
