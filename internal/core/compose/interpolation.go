package compose

import (
	"os"
	"sort"
	"strings"

	"github.com/compose-spec/compose-go/v2/template"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Variable Lookup
// =============================================================================

// Lookup returns the value of a variable and whether it is set.
type Lookup func(name string) (string, bool)

// MapLookup looks variables up in vars.
func MapLookup(vars map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

// EnvLookup looks variables up in the process environment.
func EnvLookup() Lookup {
	return os.LookupEnv
}

// ChainLookup tries each lookup in order; the first that knows a variable wins.
func ChainLookup(lookups ...Lookup) Lookup {
	return func(name string) (string, bool) {
		for _, lookup := range lookups {
			if lookup == nil {
				continue
			}
			if v, ok := lookup(name); ok {
				return v, true
			}
		}
		return "", false
	}
}

// =============================================================================
// Deferral Policy
// =============================================================================

// IsDeferred decides whether a scalar must be kept raw instead of parsed.
// It is true when s contains any compose interpolation syntax: $VAR, ${VAR},
// ${VAR:-default} and friends, and also the $$ escape, since the text of an
// escaped value differs from its interpolated value.
func IsDeferred(s string) bool {
	if !strings.Contains(s, "$") {
		return false
	}
	return template.DefaultPattern.MatchString(s)
}

// Interpolate substitutes variables in s using compose semantics. Unset
// variables without a default become empty strings; ${VAR:?msg} fails when
// VAR is unset or empty.
func Interpolate(s string, lookup Lookup) (string, error) {
	if lookup == nil {
		lookup = MapLookup(nil)
	}
	return template.SubstituteWithOptions(s, template.Mapping(lookup), template.WithoutLogging)
}

// =============================================================================
// Variable Extraction
// =============================================================================

// ExtractVariables returns the sorted, unique names of the variables
// referenced anywhere in a compose document, before any interpolation.
func ExtractVariables(content []byte) ([]string, error) {
	if strings.TrimSpace(string(content)) == "" {
		return nil, ErrEmptyInput
	}

	var dict map[string]any
	if err := yaml.Unmarshal(content, &dict); err != nil {
		return nil, &ParseError{Kind: "compose file", Input: firstLine(content), Err: ErrInvalidYAML}
	}

	found := template.ExtractVariables(dict, template.DefaultPattern)
	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func firstLine(content []byte) string {
	s := strings.TrimSpace(string(content))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
