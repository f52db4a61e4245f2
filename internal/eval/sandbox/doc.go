// Package sandbox decides which attribute names templates may reach.
//
// The default policy blocks internal names (a double underscore prefix) and
// lets single underscore names through, so templates can read fields that are
// non-public but intentionally exposed by domain code.
//
// A policy can also be written as a CEL or expr-lang expression over the
// variable name:
//
//	policy, err := sandbox.NewCELPolicy(`!name.startsWith("__") && name != "password"`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	policy.IsSafeAttribute("password") // false
//
// Policies are enforced on the data a template evaluates against. View
// returns a value with every rejected mapping key and struct field removed,
// so no expression, filter or function reached from a template can read
// them, however the name is spelled or computed.
package sandbox
