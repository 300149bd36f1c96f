package compose

import (
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// RawOr - Raw-or-Resolved Values
// =============================================================================

// Kind tells which case of a RawOr is populated.
type Kind int

const (
	// KindValue holds an already-typed value.
	KindValue Kind = iota
	// KindRaw holds original text that still needs interpolation.
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindRaw:
		return "raw"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// RawOr holds either a typed value or the raw text of a field that contains
// interpolation syntax such as ${VAR}. Raw text is kept exactly as written so
// that it survives serialization unchanged; resolving it is an explicit step
// (see Resolve).
//
// The zero RawOr is the zero value of T.
type RawOr[T any] struct {
	kind  Kind
	raw   string
	value T
}

// Value wraps an already-known value.
//
// A string value whose text matches IsDeferred, such as "$HOME", is written
// out verbatim and reads back as Raw, which is not Equal to the value. Keep
// such text Raw, or resolve it before serializing.
func Value[T any](v T) RawOr[T] {
	return RawOr[T]{kind: KindValue, value: v}
}

// Raw wraps unparsed text. The text is kept as-is even if it holds no
// interpolation syntax.
func Raw[T any](text string) RawOr[T] {
	return RawOr[T]{kind: KindRaw, raw: text}
}

// ParseRawOr applies the deferral policy to text: deferred text stays raw,
// anything else is parsed as a scalar of T.
func ParseRawOr[T any](text string) (RawOr[T], error) {
	if IsDeferred(text) {
		return Raw[T](text), nil
	}
	return parseScalarAs[T](text)
}

// Kind reports which case r holds.
func (r RawOr[T]) Kind() Kind {
	return r.kind
}

// IsRaw reports whether r still holds unresolved text.
func (r RawOr[T]) IsRaw() bool {
	return r.kind == KindRaw
}

// Value returns the resolved value, or ErrUnresolved for raw text.
func (r RawOr[T]) Value() (T, error) {
	var zero T
	switch r.kind {
	case KindValue:
		return r.value, nil
	case KindRaw:
		return zero, fmt.Errorf("%w: %q", ErrUnresolved, r.raw)
	default:
		return zero, fmt.Errorf("unknown RawOr kind %v", r.kind)
	}
}

// MustValue is Value for callers that have already resolved r.
func (r RawOr[T]) MustValue() T {
	v, err := r.Value()
	if err != nil {
		panic(err)
	}
	return v
}

// Text returns the raw text, or the value rendered through T's scalar form.
// Values that render as a mapping or sequence return ErrNoScalarForm.
func (r RawOr[T]) Text() (string, error) {
	switch r.kind {
	case KindRaw:
		return r.raw, nil
	case KindValue:
		var node yaml.Node
		if err := node.Encode(r.value); err != nil {
			return "", err
		}
		n := resolveNode(&node)
		if n == nil || n.Kind != yaml.ScalarNode || isNull(n) {
			return "", fmt.Errorf("%w: %T", ErrNoScalarForm, r.value)
		}
		return n.Value, nil
	default:
		return "", fmt.Errorf("unknown RawOr kind %v", r.kind)
	}
}

// Equal compares by semantic value: two raw texts are equal when identical,
// two values when T considers them equal. A raw text never equals a value,
// even one it would resolve to.
func (r RawOr[T]) Equal(other RawOr[T]) bool {
	if r.kind != other.kind {
		return false
	}
	switch r.kind {
	case KindRaw:
		return r.raw == other.raw
	case KindValue:
		return valuesEqual(r.value, other.value)
	default:
		return false
	}
}

// Resolve interpolates raw text against lookup and parses the result as T.
// Values are returned unchanged unless T has a Resolve method of its own for
// fields that may still be raw.
func (r RawOr[T]) Resolve(lookup Lookup) (RawOr[T], error) {
	switch r.kind {
	case KindValue:
		if res, ok := any(r.value).(interface {
			Resolve(Lookup) (T, error)
		}); ok {
			v, err := res.Resolve(lookup)
			if err != nil {
				return r, err
			}
			return Value(v), nil
		}
		return r, nil
	case KindRaw:
		text, err := Interpolate(r.raw, lookup)
		if err != nil {
			return r, fmt.Errorf("%w: %w", ErrUnresolved, err)
		}
		return parseScalarAs[T](text)
	default:
		return r, fmt.Errorf("unknown RawOr kind %v", r.kind)
	}
}

// IsZero reports whether r holds the zero value of T. yaml omitempty uses it.
func (r RawOr[T]) IsZero() bool {
	return r.kind == KindValue && reflect.ValueOf(&r.value).Elem().IsZero()
}

func (r RawOr[T]) String() string {
	s, err := r.Text()
	if err != nil {
		return fmt.Sprintf("%v", r.value)
	}
	return s
}

// =============================================================================
// YAML
// =============================================================================

// UnmarshalYAML keeps deferred scalars raw and hands everything else to T.
func (r *RawOr[T]) UnmarshalYAML(node *yaml.Node) error {
	n := resolveNode(node)
	if n != nil && n.Kind == yaml.ScalarNode && !isNull(n) && IsDeferred(n.Value) {
		*r = Raw[T](n.Value)
		return nil
	}

	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}
	*r = Value(v)
	return nil
}

// MarshalYAML emits raw text untouched and values through T's own rule.
func (r RawOr[T]) MarshalYAML() (any, error) {
	switch r.kind {
	case KindRaw:
		return stringNode(r.raw), nil
	case KindValue:
		return r.value, nil
	default:
		return nil, fmt.Errorf("unknown RawOr kind %v", r.kind)
	}
}

// =============================================================================
// Helpers
// =============================================================================

// parseScalarAs decodes text as a plain scalar of T. Text that YAML would
// read as null is forced to a string so "null" stays "null".
func parseScalarAs[T any](text string) (RawOr[T], error) {
	node := &yaml.Node{Kind: yaml.ScalarNode, Value: text}
	if node.ShortTag() == "!!null" {
		node.Tag = "!!str"
	}
	var v T
	if err := node.Decode(&v); err != nil {
		return RawOr[T]{}, err
	}
	return Value(v), nil
}

func valuesEqual[T any](a, b T) bool {
	if eq, ok := any(a).(interface{ Equal(T) bool }); ok {
		return eq.Equal(b)
	}
	return reflect.DeepEqual(a, b)
}
