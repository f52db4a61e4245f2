package template

import (
	"fmt"

	"github.com/spf13/cast"
)

// Stringify converts an evaluated value to its text form. nil renders as
// the empty string.
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}
