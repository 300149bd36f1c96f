package compose

import (
	"gopkg.in/yaml.v3"
)

// Build is the build: section of a service. It may be written as a bare
// context path or as a mapping:
//
//	build: ./app
//
//	build:
//	  context: ./app
//	  dockerfile: Dockerfile-alt
//
// Both spellings decode into the same struct.
type Build struct {
	Context    RawOr[Context] `yaml:"context"`
	Dockerfile *RawOr[string] `yaml:"dockerfile,omitempty"`
	Args       VarMap         `yaml:"args,omitempty"`
}

// NewBuild returns a Build with only a context.
func NewBuild(context string) Build {
	return Build{Context: Value(NewContext(context))}
}

// ParseScalar reads the shorthand form: the string is the context.
func (b *Build) ParseScalar(s string) error {
	ctx, err := ParseRawOr[Context](s)
	if err != nil {
		return err
	}
	*b = Build{Context: ctx}
	return nil
}

// ParseMapping reads the full form. context is required.
func (b *Build) ParseMapping(node *yaml.Node) error {
	type plain Build
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if ctx, err := p.Context.Value(); err == nil && ctx.IsZero() {
		return NewValidationError("build", "mapping", "context is required")
	}
	*b = Build(p)
	return nil
}

// ScalarForm returns the context when it is the only field set.
func (b Build) ScalarForm() (string, bool, error) {
	if b.Dockerfile != nil || len(b.Args) > 0 {
		return "", false, nil
	}
	s, err := b.Context.Text()
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// MappingForm returns the full form.
func (b Build) MappingForm() (any, error) {
	type plain Build
	return plain(b), nil
}

// Resolve interpolates every raw field.
func (b Build) Resolve(lookup Lookup) (Build, error) {
	var err error
	if b.Context, err = b.Context.Resolve(lookup); err != nil {
		return b, err
	}
	if b.Dockerfile, err = resolveOptional(b.Dockerfile, lookup); err != nil {
		return b, err
	}
	if b.Args, err = b.Args.Resolve(lookup); err != nil {
		return b, err
	}
	return b, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Build) UnmarshalYAML(node *yaml.Node) error {
	v, err := DecodeStringOrStruct[Build](node)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (b Build) MarshalYAML() (any, error) {
	return EncodeStringOrStruct(b)
}
