package compose

import (
	"fmt"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// File - Top-Level Document
// =============================================================================

// versionRegex matches the supported file format versions: 2 and 2.x.
var versionRegex = regexp.MustCompile(`^2(\.[0-9]+)?$`)

// File is a docker-compose.yml file in format version 2.
type File struct {
	Version  string              `yaml:"version"`
	Services map[string]*Service `yaml:"services,omitempty"`
	Networks map[string]*Network `yaml:"networks,omitempty"`
	Volumes  map[string]*Volume  `yaml:"volumes,omitempty"`
}

// NewFile returns an empty version "2" file.
func NewFile() *File {
	return &File{
		Version:  "2",
		Services: make(map[string]*Service),
	}
}

// ServiceNames returns the service names in sorted order.
func (f *File) ServiceNames() []string {
	names := make([]string, 0, len(f.Services))
	for name := range f.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnmarshalYAML checks the version before decoding anything else.
func (f *File) UnmarshalYAML(node *yaml.Node) error {
	n := resolveNode(node)
	if n == nil || n.Kind != yaml.MappingNode {
		got := "nothing"
		if n != nil {
			got = kindName(n)
		}
		return &ShapeError{Expected: "a mapping", Got: got}
	}

	version := ""
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == "version" {
			v, err := scalarValue(n.Content[i+1])
			if err != nil {
				return err
			}
			version = v
		}
	}
	if !versionRegex.MatchString(version) {
		return NewParseError("version", version, ErrUnsupportedVersion)
	}

	type plain File
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	p.Version = version
	*f = File(p)
	return nil
}

// Resolve returns a copy of the file with every service interpolated.
func (f *File) Resolve(lookup Lookup) (*File, error) {
	out := *f
	out.Services = make(map[string]*Service, len(f.Services))
	for _, name := range f.ServiceNames() {
		svc := f.Services[name]
		if svc == nil {
			out.Services[name] = nil
			continue
		}
		resolved, err := svc.Resolve(lookup)
		if err != nil {
			return nil, fmt.Errorf("service %q: %w", name, err)
		}
		out.Services[name] = &resolved
	}
	return &out, nil
}

// =============================================================================
// Network Types
// =============================================================================

// Network represents a network definition.
type Network struct {
	Driver     string            `yaml:"driver,omitempty"`
	DriverOpts map[string]string `yaml:"driver_opts,omitempty"`
	External   bool              `yaml:"external,omitempty"`
	Internal   bool              `yaml:"internal,omitempty"`
	Labels     VarMap            `yaml:"labels,omitempty"`
}

// =============================================================================
// Volume Types
// =============================================================================

// Volume represents a named volume definition.
type Volume struct {
	Driver     string            `yaml:"driver,omitempty"`
	DriverOpts map[string]string `yaml:"driver_opts,omitempty"`
	External   bool              `yaml:"external,omitempty"`
	Labels     VarMap            `yaml:"labels,omitempty"`
}
