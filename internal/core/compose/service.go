package compose

import (
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Service
// =============================================================================

// Service is a single entry of the services: section. Fields that may hold
// interpolation syntax are RawOr values; call Resolve to substitute them.
type Service struct {
	Build         *Build                `yaml:"build,omitempty"`
	Image         *RawOr[Image]         `yaml:"image,omitempty"`
	ContainerName *RawOr[string]        `yaml:"container_name,omitempty"`
	Restart       *RawOr[RestartPolicy] `yaml:"restart,omitempty"`
	Environment   VarMap                `yaml:"environment,omitempty"`
	EnvFile       StringList            `yaml:"env_file,omitempty"`
	Labels        VarMap                `yaml:"labels,omitempty"`
	Links         []RawOr[AliasedName]  `yaml:"links,omitempty"`
	ExternalLinks []RawOr[AliasedName]  `yaml:"external_links,omitempty"`
	Ports         []RawOr[Port]         `yaml:"ports,omitempty"`
	Volumes       []RawOr[VolumeMount]  `yaml:"volumes,omitempty"`
	DependsOn     []string              `yaml:"depends_on,omitempty"`
	Networks      ServiceNetworks       `yaml:"networks,omitempty"`
	MemLimit      *RawOr[MemorySize]    `yaml:"mem_limit,omitempty"`
	MemswapLimit  *RawOr[MemorySize]    `yaml:"memswap_limit,omitempty"`
	ShmSize       *RawOr[MemorySize]    `yaml:"shm_size,omitempty"`
}

// Resolve returns a copy of the service with every raw field interpolated.
func (s Service) Resolve(lookup Lookup) (Service, error) {
	var err error
	if s.Build != nil {
		b, err := s.Build.Resolve(lookup)
		if err != nil {
			return s, err
		}
		s.Build = &b
	}
	if s.Image, err = resolveOptional(s.Image, lookup); err != nil {
		return s, err
	}
	if s.ContainerName, err = resolveOptional(s.ContainerName, lookup); err != nil {
		return s, err
	}
	if s.Restart, err = resolveOptional(s.Restart, lookup); err != nil {
		return s, err
	}
	if s.Environment, err = s.Environment.Resolve(lookup); err != nil {
		return s, err
	}
	if s.EnvFile, err = s.EnvFile.Resolve(lookup); err != nil {
		return s, err
	}
	if s.Labels, err = s.Labels.Resolve(lookup); err != nil {
		return s, err
	}
	if s.Links, err = resolveSlice(s.Links, lookup); err != nil {
		return s, err
	}
	if s.ExternalLinks, err = resolveSlice(s.ExternalLinks, lookup); err != nil {
		return s, err
	}
	if s.Ports, err = resolveSlice(s.Ports, lookup); err != nil {
		return s, err
	}
	if s.Volumes, err = resolveSlice(s.Volumes, lookup); err != nil {
		return s, err
	}
	if s.Networks, err = s.Networks.Resolve(lookup); err != nil {
		return s, err
	}
	if s.MemLimit, err = resolveOptional(s.MemLimit, lookup); err != nil {
		return s, err
	}
	if s.MemswapLimit, err = resolveOptional(s.MemswapLimit, lookup); err != nil {
		return s, err
	}
	if s.ShmSize, err = resolveOptional(s.ShmSize, lookup); err != nil {
		return s, err
	}
	return s, nil
}

// MergedEnvironment loads every env_file (relative paths are taken from
// baseDir) in order and overlays the environment: section on top, the way
// the Docker engine builds a container's environment. env_file paths must
// already be resolved.
func (s Service) MergedEnvironment(baseDir string) (VarMap, error) {
	merged := make(VarMap)
	for _, entry := range s.EnvFile {
		path, err := entry.Value()
		if err != nil {
			return nil, err
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		env, err := LoadEnvFile(path)
		if err != nil {
			return nil, err
		}
		for k, v := range env.Environment() {
			merged[k] = v
		}
	}
	for k, v := range s.Environment {
		merged[k] = v
	}
	return merged, nil
}

// LinkNames returns the names the service's links are known by inside its
// containers.
func (s Service) LinkNames() ([]string, error) {
	names := make([]string, 0, len(s.Links))
	for _, link := range s.Links {
		name, err := link.Value()
		if err != nil {
			return nil, err
		}
		names = append(names, name.LocalName())
	}
	return names, nil
}

// =============================================================================
// ServiceNetworks
// =============================================================================

// ServiceNetwork holds per-service settings for one network.
type ServiceNetwork struct {
	Aliases     []RawOr[string] `yaml:"aliases,omitempty"`
	IPv4Address string          `yaml:"ipv4_address,omitempty"`
	IPv6Address string          `yaml:"ipv6_address,omitempty"`
}

// ServiceNetworks lists the networks a service joins, written as a sequence
// of names or as a mapping of name to settings. A nil entry has no settings.
// When no entry has settings the sequence form is emitted.
type ServiceNetworks map[string]*ServiceNetwork

// Names returns the network names in sorted order.
func (n ServiceNetworks) Names() []string {
	names := make([]string, 0, len(n))
	for name := range n {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve interpolates raw aliases.
func (n ServiceNetworks) Resolve(lookup Lookup) (ServiceNetworks, error) {
	if n == nil {
		return nil, nil
	}
	out := make(ServiceNetworks, len(n))
	for name, settings := range n {
		if settings == nil {
			out[name] = nil
			continue
		}
		resolved := *settings
		aliases, err := resolveSlice(settings.Aliases, lookup)
		if err != nil {
			return nil, err
		}
		resolved.Aliases = aliases
		out[name] = &resolved
	}
	return out, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *ServiceNetworks) UnmarshalYAML(node *yaml.Node) error {
	v := resolveNode(node)
	if v == nil {
		return &ShapeError{Expected: "a sequence or a mapping", Got: "nothing"}
	}
	out := make(ServiceNetworks)
	switch v.Kind {
	case yaml.SequenceNode:
		for _, item := range v.Content {
			name, err := scalarValue(item)
			if err != nil {
				return err
			}
			out[name] = nil
		}
	case yaml.MappingNode:
		settings := make(map[string]*ServiceNetwork)
		if err := v.Decode(&settings); err != nil {
			return err
		}
		for name, s := range settings {
			out[name] = s
		}
	default:
		return &ShapeError{Expected: "a sequence or a mapping", Got: kindName(v), Line: v.Line, Column: v.Column}
	}
	*n = out
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (n ServiceNetworks) MarshalYAML() (any, error) {
	for _, settings := range n {
		if settings != nil {
			return map[string]*ServiceNetwork(n), nil
		}
	}
	return n.Names(), nil
}
