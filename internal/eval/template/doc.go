// Package template provides the evaluation environments used to render
// template fields.
//
// An Environment compiles template sources and evaluates them against a
// variable context. It carries the filter registry, the sandbox policy that
// guards attribute access, a loader for file templates and a rendering mode:
//
//   - ModeString - every template renders to text
//   - ModeNative - a template made of a single expression yields the
//     expression's own value (an int stays an int); anything else renders to
//     text exactly as in ModeString
//
// The default dialect is Jinja, rendered by gonja, with the date filters
// registered next to gonja's builtin ones:
//
//	env, err := template.NewEnvironment(template.Options{Mode: template.ModeNative})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tpl, err := env.FromString("{{ retries + 1 }}")
//	out, err := tpl.Render(map[string]any{"retries": 2}) // 3
//
//	tpl, err = env.FromString("day={{ logical_date | ds_nodash }}")
//	out, err = tpl.Render(ctx) // "day=20240601"
//
// Variables missing from the context are evaluation errors. Templates only
// see the context through sandbox.View, so attributes the policy rejects
// cannot be reached by any expression.
//
// The handlebars dialect renders with raymond and exposes filters as helpers:
//
//	{{ds logical_date}}
//	{{uppercase owner}}
//
// Environments are safe for concurrent use once constructed. A Cache keeps
// environments by caller chosen keys.
package template
