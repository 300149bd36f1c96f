package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDeferred(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "", want: false},
		{input: "plain", want: false},
		{input: "price: 5", want: false},
		{input: "${FOO}", want: true},
		{input: "$FOO", want: true},
		{input: "nginx:${TAG}", want: true},
		{input: "${FOO:-default}", want: true},
		{input: "${FOO:?required}", want: true},
		{input: "pa$$word", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDeferred(tt.input))
		})
	}
}

func TestInterpolate(t *testing.T) {
	lookup := MapLookup(map[string]string{"TAG": "1.25", "EMPTY": ""})

	tests := []struct {
		input string
		want  string
	}{
		{input: "nginx:${TAG}", want: "nginx:1.25"},
		{input: "nginx:$TAG", want: "nginx:1.25"},
		{input: "${UNSET}", want: ""},
		{input: "${UNSET:-fallback}", want: "fallback"},
		{input: "${EMPTY:-fallback}", want: "fallback"},
		{input: "${EMPTY-fallback}", want: ""},
		{input: "$$TAG", want: "$TAG"},
		{input: "no variables", want: "no variables"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Interpolate(tt.input, lookup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpolate_Required(t *testing.T) {
	_, err := Interpolate("${DB_PASSWORD:?database password is required}", MapLookup(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database password is required")
}

func TestInterpolate_NilLookup(t *testing.T) {
	got, err := Interpolate("a${B}c", nil)
	require.NoError(t, err)
	assert.Equal(t, "ac", got)
}

func TestChainLookup(t *testing.T) {
	first := MapLookup(map[string]string{"A": "first"})
	second := MapLookup(map[string]string{"A": "second", "B": "second"})
	lookup := ChainLookup(nil, first, second)

	v, ok := lookup("A")
	assert.True(t, ok)
	assert.Equal(t, "first", v)

	v, ok = lookup("B")
	assert.True(t, ok)
	assert.Equal(t, "second", v)

	_, ok = lookup("C")
	assert.False(t, ok)
}

func TestEnvLookup(t *testing.T) {
	t.Setenv("DCOMPOSE_TEST_VAR", "from-env")

	v, ok := EnvLookup()("DCOMPOSE_TEST_VAR")
	assert.True(t, ok)
	assert.Equal(t, "from-env", v)
}

// =============================================================================
// ExtractVariables Tests
// =============================================================================

const composeWithVariables = `
version: "2"
services:
  web:
    image: "nginx:${TAG}"
    environment:
      DB_PASSWORD: ${DB_PASSWORD:?required}
      LITERAL: "$$NOT_A_VARIABLE"
    ports:
      - "${HTTP_PORT:-8080}:80"
  db:
    image: postgres
    environment:
      - POSTGRES_PASSWORD=${DB_PASSWORD}
`

func TestExtractVariables(t *testing.T) {
	vars, err := ExtractVariables([]byte(composeWithVariables))
	require.NoError(t, err)
	assert.Equal(t, []string{"DB_PASSWORD", "HTTP_PORT", "TAG"}, vars)
}

func TestExtractVariables_NoVariables(t *testing.T) {
	vars, err := ExtractVariables([]byte("version: \"2\"\nservices:\n  web:\n    image: nginx\n"))
	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestExtractVariables_Errors(t *testing.T) {
	_, err := ExtractVariables(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = ExtractVariables([]byte("services: [unclosed\n"))
	assert.ErrorIs(t, err, ErrInvalidYAML)
}
