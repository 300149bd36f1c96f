package compose

import (
	"github.com/distribution/reference"
	"gopkg.in/yaml.v3"
)

// Image is a container image reference. Equivalent spellings such as
// "nginx" and "docker.io/library/nginx" compare equal; serialization uses the
// short, familiar form.
type Image struct {
	ref reference.Named
}

// ParseImage parses and normalizes an image reference.
func ParseImage(s string) (Image, error) {
	ref, err := reference.ParseNormalizedNamed(s)
	if err != nil {
		return Image{}, NewParseError("image", s, err)
	}
	return Image{ref: ref}, nil
}

// MustParseImage is ParseImage for known-good literals.
func MustParseImage(s string) Image {
	img, err := ParseImage(s)
	if err != nil {
		panic(err)
	}
	return img
}

// Name returns the repository in familiar form, e.g. "nginx".
func (i Image) Name() string {
	if i.ref == nil {
		return ""
	}
	return reference.FamiliarName(i.ref)
}

// Tag returns the tag, or "" when none was given.
func (i Image) Tag() string {
	if tagged, ok := i.ref.(reference.Tagged); ok {
		return tagged.Tag()
	}
	return ""
}

// Digest returns the digest, or "" when none was given.
func (i Image) Digest() string {
	if digested, ok := i.ref.(reference.Digested); ok {
		return digested.Digest().String()
	}
	return ""
}

// FullName returns the fully-qualified reference, e.g.
// "docker.io/library/nginx:latest".
func (i Image) FullName() string {
	if i.ref == nil {
		return ""
	}
	return i.ref.String()
}

func (i Image) String() string {
	if i.ref == nil {
		return ""
	}
	return reference.FamiliarString(i.ref)
}

// Equal compares normalized references.
func (i Image) Equal(other Image) bool {
	return i.FullName() == other.FullName()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (i *Image) UnmarshalYAML(node *yaml.Node) error {
	s, err := scalarValue(node)
	if err != nil {
		return err
	}
	parsed, err := ParseImage(s)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (i Image) MarshalYAML() (any, error) {
	return stringNode(i.String()), nil
}
