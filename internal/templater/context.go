package templater

// Context maps variable names to the values templates are evaluated against.
// The renderer never modifies it.
type Context map[string]any
