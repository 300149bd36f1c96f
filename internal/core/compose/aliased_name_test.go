package compose

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Parsing Tests
// =============================================================================

func TestParseAliasedName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    AliasedName
		wantErr bool
	}{
		{name: "name only", input: "foo", want: AliasedName{Name: "foo"}},
		{name: "name and alias", input: "foo:bar", want: AliasedName{Name: "foo", Alias: "bar"}},
		{name: "too many colons", input: "foo:bar:baz", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "empty alias", input: "foo:", wantErr: true},
		{name: "empty name", input: ":bar", wantErr: true},
		{name: "lone colon", input: ":", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAliasedName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidValue)

				var parseErr *ParseError
				require.True(t, errors.As(err, &parseErr))
				assert.Equal(t, "aliased name", parseErr.Kind)
				assert.Equal(t, tt.input, parseErr.Input)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// Formatting Tests
// =============================================================================

func TestAliasedName_Format(t *testing.T) {
	plain, err := NewAliasedName("foo", "")
	require.NoError(t, err)
	s, err := plain.Format()
	require.NoError(t, err)
	assert.Equal(t, "foo", s)

	aliased, err := NewAliasedName("foo", "bar")
	require.NoError(t, err)
	s, err = aliased.Format()
	require.NoError(t, err)
	assert.Equal(t, "foo:bar", s)
}

func TestNewAliasedName_RejectsSeparator(t *testing.T) {
	_, err := NewAliasedName("foo:bar", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewAliasedName("foo", "b:ar")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewAliasedName("", "bar")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAliasedName_FormatRevalidatesMutatedValue(t *testing.T) {
	a, err := NewAliasedName("foo", "bar")
	require.NoError(t, err)

	a.Alias = "b:a:r"
	_, err = a.Format()
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "aliased name", validationErr.Kind)

	_, err = yaml.Marshal(a)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAliasedName_LocalName(t *testing.T) {
	assert.Equal(t, "db", AliasedName{Name: "db"}.LocalName())
	assert.Equal(t, "database", AliasedName{Name: "db", Alias: "database"}.LocalName())
}

// =============================================================================
// YAML Tests
// =============================================================================

func TestAliasedName_YAMLRoundTrip(t *testing.T) {
	var doc struct {
		Links []AliasedName `yaml:"links"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("links:\n  - db\n  - cache:redis\n"), &doc))
	assert.Equal(t, []AliasedName{
		{Name: "db"},
		{Name: "cache", Alias: "redis"},
	}, doc.Links)

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, "links:\n    - db\n    - cache:redis\n", string(out))
}

func TestAliasedName_YAMLRejectsMapping(t *testing.T) {
	var a AliasedName
	err := yaml.Unmarshal([]byte("name: db\n"), &a)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}
