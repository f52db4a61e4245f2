package template

import (
	"errors"

	"github.com/aescanero/dago-templater/internal/eval/loader"
)

var (
	// ErrCompile marks malformed template sources
	ErrCompile = errors.New("template compile error")

	// ErrEvaluate marks failures while evaluating a compiled template,
	// including undefined variables and blocked attribute access
	ErrEvaluate = errors.New("template evaluation error")

	// ErrTemplateNotFound is returned when a file template cannot be located
	ErrTemplateNotFound = loader.ErrTemplateNotFound
)
