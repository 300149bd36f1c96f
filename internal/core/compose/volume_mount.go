package compose

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// VolumeMountType represents the type of volume mount.
type VolumeMountType string

const (
	VolumeMountTypeBind   VolumeMountType = "bind"
	VolumeMountTypeVolume VolumeMountType = "volume"
	VolumeMountTypeTmpfs  VolumeMountType = "tmpfs"
)

// VolumeMount is an entry of a service's volumes: list, written either in
// the short syntax "[source:]target[:mode]" or as a mapping (file format
// 2.3):
//
//	volumes:
//	  - ./data:/var/lib/data:ro
//	  - type: bind
//	    source: ./data
//	    target: /var/lib/data
//	    read_only: true
//
// Both entries above decode to the same value.
//
// Source and Target of the long syntax may hold interpolation syntax. When
// type is omitted and source is still raw, Type stays empty until Resolve
// can infer it.
type VolumeMount struct {
	Type        VolumeMountType `yaml:"type,omitempty"`
	Source      RawOr[string]   `yaml:"source,omitempty"`
	Target      RawOr[string]   `yaml:"target"`
	ReadOnly    bool            `yaml:"read_only,omitempty"`
	Consistency string          `yaml:"consistency,omitempty"`
	Bind        *BindOptions    `yaml:"bind,omitempty"`
	Volume      *VolumeOptions  `yaml:"volume,omitempty"`
}

// BindOptions are options specific to bind mounts.
type BindOptions struct {
	Propagation string `yaml:"propagation,omitempty"`
	SELinux     string `yaml:"selinux,omitempty"`
}

// VolumeOptions are options specific to named volumes.
type VolumeOptions struct {
	NoCopy bool `yaml:"nocopy,omitempty"`
}

var (
	consistencyModes = map[string]bool{"consistent": true, "cached": true, "delegated": true}
	propagationModes = map[string]bool{
		"shared": true, "rshared": true, "slave": true, "rslave": true, "private": true, "rprivate": true,
	}
)

// inferMountType guesses the mount type from its source: paths are bind
// mounts, anything else names a volume. A raw source gives no answer.
func inferMountType(src RawOr[string]) VolumeMountType {
	if src.IsRaw() {
		return ""
	}
	source := src.MustValue()
	if strings.HasPrefix(source, ".") || strings.HasPrefix(source, "/") || strings.HasPrefix(source, "~") {
		return VolumeMountTypeBind
	}
	return VolumeMountTypeVolume
}

// ParseVolumeMount parses the short syntax.
func ParseVolumeMount(s string) (VolumeMount, error) {
	var v VolumeMount
	if err := v.ParseScalar(s); err != nil {
		return VolumeMount{}, err
	}
	return v, nil
}

// ParseScalar reads "[source:]target[:mode]".
func (v *VolumeMount) ParseScalar(s string) error {
	var source, target, modes string
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		target = parts[0]
	case 2:
		if isModeList(parts[1]) {
			target, modes = parts[0], parts[1]
		} else {
			source, target = parts[0], parts[1]
		}
	case 3:
		source, target, modes = parts[0], parts[1], parts[2]
		if source == "" {
			return NewParseError("volume", s, nil)
		}
	default:
		return NewParseError("volume", s, nil)
	}
	if !strings.HasPrefix(target, "/") {
		return NewParseError("volume", s, nil)
	}

	out := VolumeMount{
		Type:   inferMountType(Value(source)),
		Source: Value(source),
		Target: Value(target),
	}
	if modes != "" {
		for _, mode := range strings.Split(modes, ",") {
			if !out.applyMode(mode) {
				return NewParseError("volume", s, nil)
			}
		}
	}
	*v = out
	return nil
}

// applyMode sets the field behind one short-syntax mode flag.
func (v *VolumeMount) applyMode(mode string) bool {
	switch {
	case mode == "ro":
		v.ReadOnly = true
	case mode == "rw":
		v.ReadOnly = false
	case consistencyModes[mode]:
		v.Consistency = mode
	case mode == "z" || mode == "Z":
		if v.Type != VolumeMountTypeBind {
			return false
		}
		v.bindOptions().SELinux = mode
	case propagationModes[mode]:
		if v.Type != VolumeMountTypeBind {
			return false
		}
		v.bindOptions().Propagation = mode
	case mode == "nocopy":
		if v.Type != VolumeMountTypeVolume {
			return false
		}
		v.Volume = &VolumeOptions{NoCopy: true}
	default:
		return false
	}
	return true
}

func (v *VolumeMount) bindOptions() *BindOptions {
	if v.Bind == nil {
		v.Bind = &BindOptions{}
	}
	return v.Bind
}

func isModeList(s string) bool {
	if s == "" {
		return false
	}
	probe := VolumeMount{Type: VolumeMountTypeBind}
	for _, mode := range strings.Split(s, ",") {
		if mode == "nocopy" {
			continue
		}
		if !probe.applyMode(mode) {
			return false
		}
	}
	return true
}

// ParseMapping reads the long syntax. type defaults to the one implied by
// source.
func (v *VolumeMount) ParseMapping(node *yaml.Node) error {
	type plain VolumeMount
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if p.Type == "" {
		// stays empty while source is raw
		p.Type = inferMountType(p.Source)
	}
	switch p.Type {
	case VolumeMountTypeBind, VolumeMountTypeVolume, VolumeMountTypeTmpfs, "":
	default:
		return NewValidationError("volume", string(p.Type), "unknown mount type")
	}
	if !p.Target.IsRaw() && p.Target.MustValue() == "" {
		return NewValidationError("volume", p.Source.String(), "target is required")
	}
	*v = VolumeMount(p)
	return nil
}

// Resolve interpolates Source and Target and infers a missing Type from the
// resolved source.
func (v VolumeMount) Resolve(lookup Lookup) (VolumeMount, error) {
	var err error
	if v.Source, err = v.Source.Resolve(lookup); err != nil {
		return v, err
	}
	if v.Target, err = v.Target.Resolve(lookup); err != nil {
		return v, err
	}
	if v.Type == "" {
		v.Type = inferMountType(v.Source)
	}

	source := v.Source.MustValue()
	switch {
	case v.Target.MustValue() == "":
		return v, NewValidationError("volume", source, "target is required")
	case v.Type != VolumeMountTypeBind && v.Bind != nil && *v.Bind != (BindOptions{}):
		return v, NewValidationError("volume", source, "bind options on a "+string(v.Type)+" mount")
	case v.Type != VolumeMountTypeVolume && v.Volume != nil && v.Volume.NoCopy:
		return v, NewValidationError("volume", source, "nocopy on a "+string(v.Type)+" mount")
	}
	return v, nil
}

// ScalarForm returns the short syntax when it can express every field.
func (v VolumeMount) ScalarForm() (string, bool, error) {
	if v.Source.IsRaw() || v.Target.IsRaw() {
		return "", false, nil
	}
	source, target := v.Source.MustValue(), v.Target.MustValue()
	if v.Type == VolumeMountTypeTmpfs || v.Type != inferMountType(v.Source) {
		return "", false, nil
	}
	if strings.Contains(source, ":") || strings.Contains(target, ":") || !strings.HasPrefix(target, "/") {
		return "", false, nil
	}
	if v.Type != VolumeMountTypeBind && v.Bind != nil && *v.Bind != (BindOptions{}) {
		return "", false, nil
	}
	if v.Type != VolumeMountTypeVolume && v.Volume != nil && v.Volume.NoCopy {
		return "", false, nil
	}

	var modes []string
	if v.ReadOnly {
		modes = append(modes, "ro")
	}
	if v.Consistency != "" {
		if !consistencyModes[v.Consistency] {
			return "", false, nil
		}
		modes = append(modes, v.Consistency)
	}
	if v.Bind != nil {
		if v.Bind.SELinux != "" {
			modes = append(modes, v.Bind.SELinux)
		}
		if v.Bind.Propagation != "" {
			modes = append(modes, v.Bind.Propagation)
		}
	}
	if v.Volume != nil && v.Volume.NoCopy {
		modes = append(modes, "nocopy")
	}

	s := target
	if source != "" {
		s = source + ":" + s
	}
	if len(modes) > 0 {
		s += ":" + strings.Join(modes, ",")
	}
	// A shorthand holding interpolation syntax would read back raw.
	if IsDeferred(s) {
		return "", false, nil
	}

	// Only emit shorthand that reads back to the same value.
	back, err := ParseVolumeMount(s)
	if err != nil || !back.Equal(v) {
		return "", false, nil
	}
	return s, true, nil
}

// MappingForm returns the long syntax.
func (v VolumeMount) MappingForm() (any, error) {
	type plain VolumeMount
	return plain(v), nil
}

// Equal compares mounts, treating empty option blocks as absent.
func (v VolumeMount) Equal(other VolumeMount) bool {
	a, b := v.normalized(), other.normalized()
	if a.Type != b.Type || !a.Source.Equal(b.Source) || !a.Target.Equal(b.Target) ||
		a.ReadOnly != b.ReadOnly || a.Consistency != b.Consistency {
		return false
	}
	if (a.Bind == nil) != (b.Bind == nil) || (a.Bind != nil && *a.Bind != *b.Bind) {
		return false
	}
	return (a.Volume == nil) == (b.Volume == nil)
}

func (v VolumeMount) normalized() VolumeMount {
	if v.Bind != nil && *v.Bind == (BindOptions{}) {
		v.Bind = nil
	}
	if v.Volume != nil && !v.Volume.NoCopy {
		v.Volume = nil
	}
	return v
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *VolumeMount) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := DecodeStringOrStruct[VolumeMount](node)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (v VolumeMount) MarshalYAML() (any, error) {
	return EncodeStringOrStruct(v)
}
