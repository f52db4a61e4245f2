package sandbox

import "strings"

// Policy reports whether an attribute may be accessed from within a template.
type Policy interface {
	IsSafeAttribute(name string) bool
}

// PolicyFunc adapts a function to Policy
type PolicyFunc func(name string) bool

// IsSafeAttribute calls f(name)
func (f PolicyFunc) IsSafeAttribute(name string) bool {
	return f(name)
}

// IsInternalAttribute reports whether name uses the double underscore convention.
func IsInternalAttribute(name string) bool {
	return strings.HasPrefix(name, "__")
}

// DefaultPolicy blocks internal attributes and allows everything else,
// including single underscore names.
func DefaultPolicy() Policy {
	return PolicyFunc(func(name string) bool {
		return !IsInternalAttribute(name)
	})
}
