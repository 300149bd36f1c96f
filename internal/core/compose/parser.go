package compose

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Parser Functions
// =============================================================================

// Parse decodes a compose file. Every polymorphic field is normalized; the
// first error met while walking the document is returned.
func Parse(content []byte) (*File, error) {
	if strings.TrimSpace(string(content)) == "" {
		return nil, ErrEmptyInput
	}

	var f File
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, classifyError(err)
	}
	return &f, nil
}

// LoadFile reads and parses a compose file from disk. Failures are *IOError
// values carrying the path.
func LoadFile(path string) (*File, error) {
	content, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	f, err := Parse(content)
	if err != nil {
		return nil, &IOError{Op: "parse", Path: path, Err: err}
	}
	return f, nil
}

// ReadFile returns the content of path. Failures are *IOError values whose
// Op tells a file that could not be opened from one that could not be read.
func ReadFile(path string) ([]byte, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer fh.Close()

	content, err := io.ReadAll(fh)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return content, nil
}

// Marshal serializes f with two-space indentation. Map keys are sorted and
// shorthand forms are used wherever they lose nothing, so equal files always
// produce identical bytes.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// classifyError keeps the package's own errors and wraps anything else
// coming from the YAML layer as ErrInvalidYAML.
func classifyError(err error) error {
	var (
		parseErr      *ParseError
		shapeErr      *ShapeError
		validationErr *ValidationError
	)
	switch {
	case errors.As(err, &parseErr), errors.As(err, &shapeErr), errors.As(err, &validationErr):
		return err
	case errors.Is(err, ErrUnresolved):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
}
