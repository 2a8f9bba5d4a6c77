package striptease

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrInvalidFormat = errors.New("striptease: invalid numeric format")
	ErrNilToken      = errors.New("striptease: nil token")
	ErrNilSchema     = errors.New("striptease: nil schema")
	ErrBadValue      = errors.New("striptease: unsupported value type")
)

// MissingFieldError is returned by encode when a field the schema needs is
// absent from the value map, or by decode when a Dynamic length field has not
// been decoded.
type MissingFieldError struct {
	Field string
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("striptease: missing field %q", e.Field)
}

// RangeOverflowError is returned when a value does not fit the width,
// signedness or precision of its token.
type RangeOverflowError struct {
	Field  string
	Format Format
	Value  Value
}

func (e RangeOverflowError) Error() string {
	return fmt.Sprintf("striptease: field %q: value %v overflows %s", e.Field, e.Value, e.Format)
}

// LengthMismatchError is returned when a sequence's supplied length disagrees
// with a Static length specifier.
type LengthMismatchError struct {
	Field string
	Want  int
	Got   int
}

func (e LengthMismatchError) Error() string {
	return fmt.Sprintf("striptease: field %q: length %d, want %d", e.Field, e.Got, e.Want)
}

// BufferUnderrunError is returned when decode needs more bytes than remain.
type BufferUnderrunError struct {
	Field string
	Need  int
	Have  int
}

func (e BufferUnderrunError) Error() string {
	return fmt.Sprintf("striptease: field %q: need %d bytes, have %d", e.Field, e.Need, e.Have)
}

// OrderDependencyError is a schema defect: a Dynamic length refers to a field
// that is not an integer declared earlier in the same struct.
type OrderDependencyError struct {
	Struct      string
	Field       string
	LengthField string
}

func (e OrderDependencyError) Error() string {
	return fmt.Sprintf("striptease: struct %q: field %q depends on %q, which is not an integer declared before it",
		e.Struct, e.Field, e.LengthField)
}

// DuplicateFieldError is a schema defect: two tokens share a field name.
type DuplicateFieldError struct {
	Struct string
	Field  string
}

func (e DuplicateFieldError) Error() string {
	return fmt.Sprintf("striptease: struct %q: duplicate field %q", e.Struct, e.Field)
}

// TypeMismatchError is returned when a field holds a value of the wrong kind.
type TypeMismatchError struct {
	Field string
	Want  string
	Got   Kind
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("striptease: field %q: got %s, want %s", e.Field, e.Got, e.Want)
}

// ChecksumMismatchError is returned by decode when a checksum trailer does
// not match the bytes it covers.
type ChecksumMismatchError struct {
	Field string
	Want  uint64
	Got   uint64
}

func (e ChecksumMismatchError) Error() string {
	return fmt.Sprintf("striptease: checksum %q: got %#x, want %#x", e.Field, e.Got, e.Want)
}

// SchemaError reports any other malformed schema.
type SchemaError struct {
	Struct string
	Reason string
}

func (e SchemaError) Error() string {
	if e.Struct == "" {
		return "striptease: " + e.Reason
	}
	return fmt.Sprintf("striptease: struct %q: %s", e.Struct, e.Reason)
}
