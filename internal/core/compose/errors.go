// Package compose reads and writes docker-compose version 2 files.
//
// The compose format allows several spellings for the same value: a bare
// string or a full mapping, a name or a name:alias pair, a literal or a value
// still holding an unresolved ${VARIABLE} reference. This package normalizes
// all of them into one strongly-typed representation and serializes it back
// deterministically. It is part of the functional core: nothing here logs and
// the only I/O is the explicitly requested loading of files.
package compose

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Input validation errors
	ErrEmptyInput = errors.New("compose file is empty")

	// YAML parsing errors
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// Token grammar errors (aliased names, env file lines, ports, ...)
	ErrInvalidValue = errors.New("invalid value")

	// Semantic invariant violations
	ErrValidation = errors.New("validation failed")

	// Polymorphic field errors
	ErrUnexpectedShape = errors.New("unexpected YAML node shape")

	// Raw-or-resolved value errors
	ErrUnresolved   = errors.New("value contains unresolved interpolation")
	ErrNoScalarForm = errors.New("value has no string form")

	// File format errors
	ErrUnsupportedVersion = errors.New("unsupported compose file version")

	// Service graph errors
	ErrCircularDependency = errors.New("circular dependency detected")
)

// ParseError reports input text that does not match the grammar of Kind.
type ParseError struct {
	Kind  string // e.g., "aliased name", "env file line"
	Input string
	Line  int // 1-based line number, 0 when unknown
	Err   error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("invalid %s: %q", e.Kind, e.Input)
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	if e.Err != nil && e.Err != ErrInvalidValue {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes every ParseError match ErrInvalidValue.
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidValue
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(kind, input string, err error) *ParseError {
	if err == nil {
		err = ErrInvalidValue
	}
	return &ParseError{
		Kind:  kind,
		Input: input,
		Err:   err,
	}
}

// ValidationError reports a well-formed value that breaks an invariant.
type ValidationError struct {
	Kind   string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %s: %s", e.Kind, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(kind, value, reason string) *ValidationError {
	return &ValidationError{
		Kind:   kind,
		Value:  value,
		Reason: reason,
	}
}

// IOError reports a failed file access. Op is "open", "read" or "parse";
// for "parse" Err holds the underlying *ParseError.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ShapeError reports a YAML node whose shape does not fit the target type,
// such as a sequence where a string or a mapping was required.
type ShapeError struct {
	Expected string // defaults to "a string or a mapping"
	Got      string // "sequence", "null", ...
	Line     int
	Column   int
}

func (e *ShapeError) Error() string {
	expected := e.Expected
	if expected == "" {
		expected = "a string or a mapping"
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %d: expected %s, got %s", e.Line, e.Column, expected, e.Got)
	}
	return fmt.Sprintf("expected %s, got %s", expected, e.Got)
}

func (e *ShapeError) Unwrap() error {
	return ErrUnexpectedShape
}
