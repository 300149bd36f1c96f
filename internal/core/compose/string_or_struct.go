package compose

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// String-or-Struct Capabilities
// =============================================================================

// ScalarParser is implemented by types that can be written as a bare string.
type ScalarParser interface {
	ParseScalar(s string) error
}

// MappingParser is implemented by types that can be written as a mapping.
// Implementations decode their fields one by one, usually by decoding the
// node into a method-less copy of themselves.
type MappingParser interface {
	ParseMapping(node *yaml.Node) error
}

// ScalarFormer reports the shorthand string of a value. ok is false when the
// value cannot be written as a string without losing information.
type ScalarFormer interface {
	ScalarForm() (s string, ok bool, err error)
}

// MappingFormer returns a value that yaml encodes as the full mapping form.
type MappingFormer interface {
	MappingForm() (any, error)
}

// StringOrStructFormer is the write side of a string-or-struct type.
type StringOrStructFormer interface {
	ScalarFormer
	MappingFormer
}

// stringOrStruct constrains PT to be a pointer to T with both parse rules.
type stringOrStruct[T any] interface {
	*T
	ScalarParser
	MappingParser
}

// =============================================================================
// Decoding
// =============================================================================

// DecodeStringOrStruct builds a T from either a scalar or a mapping node.
// Scalars go through T's ParseScalar, mappings through T's ParseMapping. Any
// other shape is a *ShapeError.
func DecodeStringOrStruct[T any, PT stringOrStruct[T]](node *yaml.Node) (T, error) {
	var out T
	node = resolveNode(node)
	if node == nil {
		return out, &ShapeError{Got: "nothing"}
	}

	switch {
	case isNull(node):
		return out, shapeError(node)
	case node.Kind == yaml.ScalarNode:
		if err := PT(&out).ParseScalar(node.Value); err != nil {
			return out, err
		}
	case node.Kind == yaml.MappingNode:
		if err := PT(&out).ParseMapping(node); err != nil {
			return out, err
		}
	default:
		return out, shapeError(node)
	}
	return out, nil
}

// DecodeOptionalStringOrStruct is DecodeStringOrStruct that also accepts an
// absent or null node, returning nil for it.
func DecodeOptionalStringOrStruct[T any, PT stringOrStruct[T]](node *yaml.Node) (*T, error) {
	node = resolveNode(node)
	if node == nil || isNull(node) {
		return nil, nil
	}
	v, err := DecodeStringOrStruct[T, PT](node)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// =============================================================================
// Encoding
// =============================================================================

// EncodeStringOrStruct emits v as a scalar when it has a lossless shorthand
// and as a mapping otherwise.
func EncodeStringOrStruct(v StringOrStructFormer) (*yaml.Node, error) {
	s, ok, err := v.ScalarForm()
	if err != nil {
		return nil, err
	}
	if ok {
		return stringNode(s), nil
	}

	full, err := v.MappingForm()
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := node.Encode(full); err != nil {
		return nil, err
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("mapping form of %T encoded as %s", v, kindName(&node))
	}
	return &node, nil
}

// EncodeOptionalStringOrStruct is EncodeStringOrStruct that emits a null
// node for a nil value.
func EncodeOptionalStringOrStruct[T any, PT interface {
	*T
	StringOrStructFormer
}](v *T) (*yaml.Node, error) {
	if v == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	return EncodeStringOrStruct(PT(v))
}

// =============================================================================
// Node Helpers
// =============================================================================

// resolveNode follows documents and aliases down to the node they stand for.
func resolveNode(node *yaml.Node) *yaml.Node {
	for node != nil {
		switch {
		case node.Kind == yaml.DocumentNode && len(node.Content) == 1:
			node = node.Content[0]
		case node.Kind == yaml.AliasNode:
			node = node.Alias
		default:
			return node
		}
	}
	return nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}

func shapeError(node *yaml.Node) *ShapeError {
	return &ShapeError{
		Got:    kindName(node),
		Line:   node.Line,
		Column: node.Column,
	}
}

func kindName(node *yaml.Node) string {
	switch node.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	case yaml.ScalarNode:
		if isNull(node) {
			return "null"
		}
		return "scalar"
	default:
		return "unknown node"
	}
}

// scalarValue returns the text of a scalar node or a *ShapeError.
func scalarValue(node *yaml.Node) (string, error) {
	node = resolveNode(node)
	if node == nil {
		return "", &ShapeError{Expected: "a string", Got: "nothing"}
	}
	if node.Kind != yaml.ScalarNode || isNull(node) {
		return "", &ShapeError{Expected: "a string", Got: kindName(node), Line: node.Line, Column: node.Column}
	}
	return node.Value, nil
}

// oldBools are strings YAML 1.1 readers take as booleans.
var oldBools = map[string]bool{
	"y": true, "Y": true, "yes": true, "Yes": true, "YES": true,
	"n": true, "N": true, "no": true, "No": true, "NO": true,
	"on": true, "On": true, "ON": true, "off": true, "Off": true, "OFF": true,
}

// base60Regex matches YAML 1.1 sexagesimal numbers such as 22:22, which
// older readers turn into integers.
var base60Regex = regexp.MustCompile(`^[-+]?[0-9][0-9_]*(?::[0-5]?[0-9])+(?:\.[0-9_]*)?$`)

// stringNode builds a string scalar. The encoder quotes values that would
// otherwise read back as another type; YAML 1.1 booleans and sexagesimal
// numbers are quoted too.
func stringNode(s string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if oldBools[s] || base60Regex.MatchString(s) {
		node.Style = yaml.DoubleQuotedStyle
	}
	return node
}
