package compose

import (
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// aliasedNameRegex matches "name" or "name:alias".
// Groups:
//   - Group 1: Name (required, no colons)
//   - Group 2: Alias (optional, no colons)
var aliasedNameRegex = regexp.MustCompile(`^([^:]+)(?::([^:]+))?$`)

// AliasedName is the name of an external resource and an optional alias it
// is known by inside the container, as used by links and external_links.
// An empty Alias means the resource is known by its own name.
type AliasedName struct {
	Name  string
	Alias string
}

// NewAliasedName creates an AliasedName from a name and optional alias.
func NewAliasedName(name, alias string) (AliasedName, error) {
	a := AliasedName{Name: name, Alias: alias}
	if err := a.Validate(); err != nil {
		return AliasedName{}, err
	}
	return a, nil
}

// ParseAliasedName parses "name" or "name:alias".
//
// Examples:
//
//	ParseAliasedName("db")         // {Name: "db"}
//	ParseAliasedName("db:primary") // {Name: "db", Alias: "primary"}
//	ParseAliasedName("a:b:c")      // error
func ParseAliasedName(s string) (AliasedName, error) {
	m := aliasedNameRegex.FindStringSubmatch(s)
	if m == nil {
		return AliasedName{}, NewParseError("aliased name", s, nil)
	}
	return AliasedName{Name: m[1], Alias: m[2]}, nil
}

// Validate checks that the name is set and neither part holds a colon.
// Fields are exported, so this runs again before every Format.
func (a AliasedName) Validate() error {
	switch {
	case a.Name == "":
		return NewValidationError("aliased name", a.debugString(), "name is empty")
	case strings.Contains(a.Name, ":"):
		return NewValidationError("aliased name", a.debugString(), "name contains ':'")
	case strings.Contains(a.Alias, ":"):
		return NewValidationError("aliased name", a.debugString(), "alias contains ':'")
	}
	return nil
}

// Format returns "name" or "name:alias".
func (a AliasedName) Format() (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	if a.Alias == "" {
		return a.Name, nil
	}
	return a.Name + ":" + a.Alias, nil
}

// LocalName is the name the resource is known by inside the container.
func (a AliasedName) LocalName() string {
	if a.Alias != "" {
		return a.Alias
	}
	return a.Name
}

func (a AliasedName) String() string {
	s, err := a.Format()
	if err != nil {
		return a.debugString()
	}
	return s
}

func (a AliasedName) debugString() string {
	return "{name: " + strconv.Quote(a.Name) + ", alias: " + strconv.Quote(a.Alias) + "}"
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *AliasedName) UnmarshalYAML(node *yaml.Node) error {
	s, err := scalarValue(node)
	if err != nil {
		return err
	}
	parsed, err := ParseAliasedName(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (a AliasedName) MarshalYAML() (any, error) {
	s, err := a.Format()
	if err != nil {
		return nil, err
	}
	return stringNode(s), nil
}
