package compose

import (
	"strconv"

	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"
)

// MemorySize is a byte count written as a plain number or with a unit
// suffix ("512m", "1g", "64k"), as used by mem_limit and shm_size.
type MemorySize int64

var memoryUnits = []struct {
	suffix string
	size   int64
}{
	{"g", units.GiB},
	{"m", units.MiB},
	{"k", units.KiB},
}

// ParseMemorySize parses a size the way the Docker CLI does.
func ParseMemorySize(s string) (MemorySize, error) {
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, NewParseError("memory size", s, err)
	}
	if n < 0 {
		return 0, NewParseError("memory size", s, nil)
	}
	return MemorySize(n), nil
}

// String uses the largest unit that divides the size exactly, or plain
// bytes.
func (m MemorySize) String() string {
	for _, u := range memoryUnits {
		if m != 0 && int64(m)%u.size == 0 {
			return strconv.FormatInt(int64(m)/u.size, 10) + u.suffix
		}
	}
	return strconv.FormatInt(int64(m), 10)
}

// HumanSize renders the size for display, e.g. "512MiB".
func (m MemorySize) HumanSize() string {
	return units.BytesSize(float64(m))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *MemorySize) UnmarshalYAML(node *yaml.Node) error {
	s, err := scalarValue(node)
	if err != nil {
		return err
	}
	parsed, err := ParseMemorySize(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (m MemorySize) MarshalYAML() (any, error) {
	s := m.String()
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int64(m), nil
	}
	return stringNode(s), nil
}
