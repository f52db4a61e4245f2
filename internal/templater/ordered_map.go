package templater

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// OrderedMap is a string keyed mapping that remembers insertion order
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// NewOrderedMap creates an empty map
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]any)}
}

// Set stores v under k. A new key goes to the end; an existing key keeps its
// position.
func (m *OrderedMap) Set(k string, v any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
}

// Get returns the value stored under k
func (m *OrderedMap) Get(k string) (any, bool) {
	v, ok := m.values[k]
	return v, ok
}

// Delete removes k
func (m *OrderedMap) Delete(k string) {
	if _, ok := m.values[k]; !ok {
		return
	}
	delete(m.values, k)
	for i, key := range m.keys {
		if key == k {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order
func (m *OrderedMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of entries
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// UnmarshalYAML decodes a mapping node keeping its key order. Nested
// mappings become *OrderedMap as well and values tagged !literal become
// LiteralValue.
func (m *OrderedMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}

	*m = OrderedMap{values: make(map[string]any, len(node.Content)/2)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return fmt.Errorf("line %d: %w", node.Content[i].Line, err)
		}

		value, err := decodeNode(node.Content[i+1])
		if err != nil {
			return err
		}
		m.Set(key, value)
	}

	return nil
}

// MarshalYAML encodes the entries in insertion order
func (m *OrderedMap) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range m.keys {
		var key, value yaml.Node
		if err := key.Encode(k); err != nil {
			return nil, err
		}
		if err := value.Encode(m.values[k]); err != nil {
			return nil, fmt.Errorf("key %s: %w", k, err)
		}
		node.Content = append(node.Content, &key, &value)
	}
	return node, nil
}

const timestampTag = "!!timestamp"

// LiteralTag marks a YAML value that is decoded as a LiteralValue
const LiteralTag = "!literal"

func decodeNode(node *yaml.Node) (any, error) {
	if node.Tag == LiteralTag {
		inner := *node
		inner.Tag = ""
		inner.Style &^= yaml.TaggedStyle
		v, err := decodeNode(&inner)
		if err != nil {
			return nil, err
		}
		return Literal(v), nil
	}

	switch node.Kind {
	case yaml.AliasNode:
		return decodeNode(node.Alias)
	case yaml.MappingNode:
		m := NewOrderedMap()
		if err := m.UnmarshalYAML(node); err != nil {
			return nil, err
		}
		return m, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := decodeNode(child)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		// yaml.v3 decodes timestamps into interfaces as strings; an explicit
		// tag asks for a time
		if node.Style&yaml.TaggedStyle != 0 && node.ShortTag() == timestampTag {
			var ts time.Time
			if err := node.Decode(&ts); err != nil {
				return nil, fmt.Errorf("line %d: %w", node.Line, err)
			}
			return ts, nil
		}

		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return v, nil
	}
}
