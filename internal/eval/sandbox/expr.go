package sandbox

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprPolicy evaluates an expr-lang boolean expression for each attribute
// name. Internal attributes are always rejected, whatever the expression says.
type ExprPolicy struct {
	expression string
	program    *vm.Program
	cache      map[string]bool
	mu         sync.RWMutex
}

// NewExprPolicy compiles expression, which sees the attribute as the string
// variable `name` and must yield a bool.
func NewExprPolicy(expression string) (*ExprPolicy, error) {
	program, err := expr.Compile(expression,
		expr.Env(map[string]any{"name": ""}),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	return &ExprPolicy{
		expression: expression,
		program:    program,
		cache:      make(map[string]bool),
	}, nil
}

// IsSafeAttribute implements Policy. Evaluation errors deny access.
func (p *ExprPolicy) IsSafeAttribute(name string) bool {
	if IsInternalAttribute(name) {
		return false
	}

	p.mu.RLock()
	allowed, ok := p.cache[name]
	p.mu.RUnlock()
	if ok {
		return allowed
	}

	out, err := expr.Run(p.program, map[string]any{"name": name})
	if err == nil {
		allowed, _ = out.(bool)
	}

	p.mu.Lock()
	p.cache[name] = allowed
	p.mu.Unlock()

	return allowed
}

// String returns the policy expression
func (p *ExprPolicy) String() string {
	return p.expression
}

// Policy languages accepted by Parse
const (
	LanguageCEL  = "cel"
	LanguageExpr = "expr"
)

// Parse builds a policy from an expression in the given language. An empty
// expression selects DefaultPolicy.
func Parse(language, expression string) (Policy, error) {
	if expression == "" {
		return DefaultPolicy(), nil
	}

	var (
		policy Policy
		err    error
	)
	switch language {
	case "", LanguageCEL:
		policy, err = NewCELPolicy(expression)
	case LanguageExpr:
		policy, err = NewExprPolicy(expression)
	default:
		return nil, fmt.Errorf("unknown policy language: %s", language)
	}
	if err != nil {
		return nil, err
	}
	return policy, nil
}
