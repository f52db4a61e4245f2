package loader

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTemplateNotFound is returned when no loader knows the requested name.
var ErrTemplateNotFound = errors.New("template not found")

// Loader returns the raw source of a named template.
type Loader interface {
	GetSource(name string) (string, error)
}

// SplitName breaks a template name into clean path segments. Leading slashes
// are ignored and ".." segments are rejected so that names cannot escape the
// loader root.
func SplitName(name string) ([]string, error) {
	var pieces []string
	for _, piece := range strings.Split(name, "/") {
		switch piece {
		case "", ".":
			continue
		case "..":
			return nil, fmt.Errorf("%w: %q escapes the search path", ErrTemplateNotFound, name)
		}
		pieces = append(pieces, piece)
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: empty template name", ErrTemplateNotFound)
	}
	return pieces, nil
}

// MapLoader serves templates from memory
type MapLoader map[string]string

// GetSource implements Loader
func (m MapLoader) GetSource(name string) (string, error) {
	src, ok := m[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return src, nil
}

// ChainLoader tries each loader in turn and returns the first hit. Errors
// other than ErrTemplateNotFound stop the search.
type ChainLoader []Loader

// GetSource implements Loader
func (c ChainLoader) GetSource(name string) (string, error) {
	for _, l := range c {
		src, err := l.GetSource(name)
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, ErrTemplateNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}
