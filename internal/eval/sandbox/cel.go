package sandbox

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// CELPolicy evaluates a CEL boolean expression for each attribute name.
// Internal attributes are always rejected, whatever the expression says.
type CELPolicy struct {
	expression string
	program    cel.Program
	cache      map[string]bool
	mu         sync.RWMutex
}

// NewCELPolicy compiles expression, which sees the attribute as the string
// variable `name` and must yield a bool.
func NewCELPolicy(expression string) (*CELPolicy, error) {
	env, err := cel.NewEnv(cel.Variable("name", cel.StringType))
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("parse error: %w", issues.Err())
	}
	if ast.OutputType().String() != cel.BoolType.String() {
		return nil, fmt.Errorf("policy must evaluate to bool, got %s", ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program generation error: %w", err)
	}

	return &CELPolicy{
		expression: expression,
		program:    program,
		cache:      make(map[string]bool),
	}, nil
}

// IsSafeAttribute implements Policy. Evaluation errors deny access.
func (p *CELPolicy) IsSafeAttribute(name string) bool {
	if IsInternalAttribute(name) {
		return false
	}

	p.mu.RLock()
	allowed, ok := p.cache[name]
	p.mu.RUnlock()
	if ok {
		return allowed
	}

	out, _, err := p.program.Eval(map[string]interface{}{"name": name})
	if err == nil {
		allowed, _ = out.Value().(bool)
	}

	p.mu.Lock()
	p.cache[name] = allowed
	p.mu.Unlock()

	return allowed
}

// String returns the policy expression
func (p *CELPolicy) String() string {
	return p.expression
}
