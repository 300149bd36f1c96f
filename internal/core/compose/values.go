package compose

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// VarMap - environment, labels and build args
// =============================================================================

// VarMap is a set of KEY=value pairs written either as a sequence of
// "KEY=value" strings or as a mapping:
//
//	environment:        environment:
//	  - FOO=foo           FOO: foo
//	  - BAR               BAR:
//
// A nil value means the key is set without a value (passed through from the
// host at run time). Serialization always uses the mapping form with sorted
// keys.
type VarMap map[string]*RawOr[string]

// NewVarMap builds a VarMap of literal values.
func NewVarMap(vars map[string]string) VarMap {
	m := make(VarMap, len(vars))
	for k, v := range vars {
		val := Value(v)
		m[k] = &val
	}
	return m
}

// Keys returns the keys in sorted order.
func (m VarMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve interpolates every raw value.
func (m VarMap) Resolve(lookup Lookup) (VarMap, error) {
	if m == nil {
		return nil, nil
	}
	out := make(VarMap, len(m))
	for k, v := range m {
		resolved, err := resolveOptional(v, lookup)
		if err != nil {
			return nil, err
		}
		out[k] = resolved
	}
	return out, nil
}

// Equal compares keys and values semantically.
func (m VarMap) Equal(other VarMap) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		o, ok := other[k]
		if !ok || (v == nil) != (o == nil) {
			return false
		}
		if v != nil && !v.Equal(*o) {
			return false
		}
	}
	return true
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *VarMap) UnmarshalYAML(node *yaml.Node) error {
	n := resolveNode(node)
	if n == nil {
		return &ShapeError{Expected: "a mapping or a sequence", Got: "nothing"}
	}
	out := make(VarMap)

	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, err := scalarValue(n.Content[i])
			if err != nil {
				return err
			}
			valNode := resolveNode(n.Content[i+1])
			if isNull(valNode) {
				out[key] = nil
				continue
			}
			if valNode.Kind != yaml.ScalarNode {
				return &ShapeError{Expected: "a string", Got: kindName(valNode), Line: valNode.Line, Column: valNode.Column}
			}
			var v RawOr[string]
			if err := v.UnmarshalYAML(valNode); err != nil {
				return err
			}
			out[key] = &v
		}
	case yaml.SequenceNode:
		for _, item := range n.Content {
			entry, err := scalarValue(item)
			if err != nil {
				return err
			}
			key, value, hasValue := strings.Cut(entry, "=")
			if key == "" {
				return NewParseError("KEY=value entry", entry, nil)
			}
			if !hasValue {
				out[key] = nil
				continue
			}
			v, err := ParseRawOr[string](value)
			if err != nil {
				return err
			}
			out[key] = &v
		}
	default:
		return &ShapeError{Expected: "a mapping or a sequence", Got: kindName(n), Line: n.Line, Column: n.Column}
	}

	*m = out
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (m VarMap) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.Keys() {
		valNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		if v := m[k]; v != nil {
			valNode = &yaml.Node{}
			if err := valNode.Encode(*v); err != nil {
				return nil, err
			}
		}
		node.Content = append(node.Content, stringNode(k), valNode)
	}
	return node, nil
}

// =============================================================================
// StringList - env_file and friends
// =============================================================================

// StringList is a list of strings that may be written as a single bare
// string. One entry serializes back to the bare string.
type StringList []RawOr[string]

// Resolve interpolates every raw entry.
func (l StringList) Resolve(lookup Lookup) (StringList, error) {
	return resolveSlice(l, lookup)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	n := resolveNode(node)
	if n == nil {
		return &ShapeError{Expected: "a string or a sequence", Got: "nothing"}
	}
	switch n.Kind {
	case yaml.ScalarNode:
		var v RawOr[string]
		if err := v.UnmarshalYAML(n); err != nil {
			return err
		}
		*l = StringList{v}
		return nil
	case yaml.SequenceNode:
		out := make(StringList, 0, len(n.Content))
		for _, item := range n.Content {
			if _, err := scalarValue(item); err != nil {
				return err
			}
			var v RawOr[string]
			if err := v.UnmarshalYAML(item); err != nil {
				return err
			}
			out = append(out, v)
		}
		*l = out
		return nil
	default:
		return &ShapeError{Expected: "a string or a sequence", Got: kindName(n), Line: n.Line, Column: n.Column}
	}
}

// MarshalYAML implements yaml.Marshaler.
func (l StringList) MarshalYAML() (any, error) {
	if len(l) == 1 {
		return l[0], nil
	}
	return []RawOr[string](l), nil
}

// =============================================================================
// Resolution Helpers
// =============================================================================

func resolveOptional[T any](v *RawOr[T], lookup Lookup) (*RawOr[T], error) {
	if v == nil {
		return nil, nil
	}
	resolved, err := v.Resolve(lookup)
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

func resolveSlice[T any, S ~[]RawOr[T]](vs S, lookup Lookup) (S, error) {
	if vs == nil {
		return nil, nil
	}
	out := make(S, len(vs))
	for i, v := range vs {
		resolved, err := v.Resolve(lookup)
		if err != nil {
			return nil, err
		}
		out[i] = resolved
	}
	return out, nil
}
