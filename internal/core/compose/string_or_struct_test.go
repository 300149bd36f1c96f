package compose

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// cacheSpec is a small string-or-struct type used to exercise the engine
// independently of the compose schema.
type cacheSpec struct {
	Name string `yaml:"name"`
	Size int    `yaml:"size,omitempty"`
}

func (c *cacheSpec) ParseScalar(s string) error {
	if s == "" {
		return NewParseError("cache", s, nil)
	}
	*c = cacheSpec{Name: s}
	return nil
}

func (c *cacheSpec) ParseMapping(node *yaml.Node) error {
	type plain cacheSpec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = cacheSpec(p)
	return nil
}

func (c cacheSpec) ScalarForm() (string, bool, error) {
	if c.Size != 0 {
		return "", false, nil
	}
	return c.Name, true, nil
}

func (c cacheSpec) MappingForm() (any, error) {
	type plain cacheSpec
	return plain(c), nil
}

func yamlNode(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	return &doc
}

// =============================================================================
// Decoding Tests
// =============================================================================

func TestDecodeStringOrStruct(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want cacheSpec
	}{
		{name: "scalar", src: "redis", want: cacheSpec{Name: "redis"}},
		{name: "quoted scalar", src: `"redis"`, want: cacheSpec{Name: "redis"}},
		{name: "mapping", src: "name: redis\nsize: 3\n", want: cacheSpec{Name: "redis", Size: 3}},
		{name: "mapping without optional field", src: "name: redis\n", want: cacheSpec{Name: "redis"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeStringOrStruct[cacheSpec](yamlNode(t, tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeStringOrStruct_ShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		got  string
	}{
		{name: "sequence", src: "[a, b]", got: "sequence"},
		{name: "block sequence", src: "- a\n- b\n", got: "sequence"},
		{name: "null", src: "null", got: "null"},
		{name: "tilde", src: "~", got: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeStringOrStruct[cacheSpec](yamlNode(t, tt.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnexpectedShape)

			var shapeErr *ShapeError
			require.True(t, errors.As(err, &shapeErr))
			assert.Equal(t, tt.got, shapeErr.Got)
			assert.Equal(t, 1, shapeErr.Line)
			assert.Contains(t, err.Error(), "expected a string or a mapping")
		})
	}
}

func TestDecodeStringOrStruct_NilNode(t *testing.T) {
	_, err := DecodeStringOrStruct[cacheSpec](nil)
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}

func TestDecodeStringOrStruct_ScalarErrorPassesThrough(t *testing.T) {
	_, err := DecodeStringOrStruct[cacheSpec](yamlNode(t, `""`))
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "cache", parseErr.Kind)
}

func TestDecodeStringOrStruct_MappingErrorPassesThrough(t *testing.T) {
	_, err := DecodeStringOrStruct[cacheSpec](yamlNode(t, "name: redis\nsize: huge\n"))
	require.Error(t, err)

	var typeErr *yaml.TypeError
	assert.True(t, errors.As(err, &typeErr))
}

func TestDecodeStringOrStruct_FollowsAliases(t *testing.T) {
	doc := yamlNode(t, "base: &base\n  name: redis\n  size: 2\ncopy: *base\n")
	root := doc.Content[0]
	require.Equal(t, yaml.AliasNode, root.Content[3].Kind)

	got, err := DecodeStringOrStruct[cacheSpec](root.Content[3])
	require.NoError(t, err)
	assert.Equal(t, cacheSpec{Name: "redis", Size: 2}, got)
}

func TestDecodeOptionalStringOrStruct(t *testing.T) {
	got, err := DecodeOptionalStringOrStruct[cacheSpec](yamlNode(t, "null"))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = DecodeOptionalStringOrStruct[cacheSpec](nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = DecodeOptionalStringOrStruct[cacheSpec](yamlNode(t, "redis"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cacheSpec{Name: "redis"}, *got)

	_, err = DecodeOptionalStringOrStruct[cacheSpec](yamlNode(t, "[redis]"))
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}

// =============================================================================
// Encoding Tests
// =============================================================================

func TestEncodeStringOrStruct(t *testing.T) {
	node, err := EncodeStringOrStruct(cacheSpec{Name: "redis"})
	require.NoError(t, err)
	assert.Equal(t, yaml.ScalarNode, node.Kind)
	assert.Equal(t, "redis", node.Value)

	node, err = EncodeStringOrStruct(cacheSpec{Name: "redis", Size: 3})
	require.NoError(t, err)
	assert.Equal(t, yaml.MappingNode, node.Kind)

	out, err := yaml.Marshal(node)
	require.NoError(t, err)
	assert.Equal(t, "name: redis\nsize: 3\n", string(out))
}

func TestEncodeStringOrStruct_RoundTrip(t *testing.T) {
	values := []cacheSpec{
		{Name: "redis"},
		{Name: "redis", Size: 3},
		{Name: "true"},
		{Name: "123"},
	}
	for _, v := range values {
		node, err := EncodeStringOrStruct(v)
		require.NoError(t, err)

		out, err := yaml.Marshal(node)
		require.NoError(t, err)

		back, err := DecodeStringOrStruct[cacheSpec](yamlNode(t, string(out)))
		require.NoError(t, err)
		assert.Equal(t, v, back, "round trip of %s", out)
	}
}

func TestEncodeOptionalStringOrStruct(t *testing.T) {
	node, err := EncodeOptionalStringOrStruct[cacheSpec](nil)
	require.NoError(t, err)
	assert.True(t, isNull(node))

	node, err = EncodeOptionalStringOrStruct(&cacheSpec{Name: "redis"})
	require.NoError(t, err)
	assert.Equal(t, "redis", node.Value)
}

func TestStringNode_QuotesAmbiguousScalars(t *testing.T) {
	for _, s := range []string{"yes", "off", "true", "null", "1.5", "42"} {
		out, err := yaml.Marshal(stringNode(s))
		require.NoError(t, err)

		var back string
		require.NoError(t, yaml.Unmarshal(out, &back))
		assert.Equal(t, s, back)
		assert.Contains(t, string(out), `"`, "%q must be quoted", s)
	}
}
