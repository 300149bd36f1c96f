package compose

import (
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

// gitURLPrefixes are the context prefixes Docker treats as git repositories.
var gitURLPrefixes = []string{"git://", "git@", "github.com/"}

// Context is a build context: a directory or a git repository URL.
type Context struct {
	value string
	isURL bool
}

// NewContext classifies s as a directory or a URL. It does not validate.
func NewContext(s string) Context {
	return Context{value: s, isURL: looksLikeURL(s)}
}

// ParseContext parses a build context, rejecting empty values and URLs that
// do not parse.
func ParseContext(s string) (Context, error) {
	if s == "" {
		return Context{}, NewParseError("build context", s, nil)
	}
	ctx := NewContext(s)
	if ctx.isURL && strings.Contains(s, "://") {
		if _, err := url.Parse(s); err != nil {
			return Context{}, NewParseError("build context", s, err)
		}
	}
	return ctx, nil
}

func looksLikeURL(s string) bool {
	for _, prefix := range gitURLPrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// IsURL reports whether the context is a remote repository.
func (c Context) IsURL() bool {
	return c.isURL
}

// IsZero reports whether the context is unset.
func (c Context) IsZero() bool {
	return c.value == ""
}

func (c Context) String() string {
	return c.value
}

// Equal implements semantic equality.
func (c Context) Equal(other Context) bool {
	return c == other
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Context) UnmarshalYAML(node *yaml.Node) error {
	s, err := scalarValue(node)
	if err != nil {
		return err
	}
	parsed, err := ParseContext(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Context) MarshalYAML() (any, error) {
	return stringNode(c.value), nil
}
