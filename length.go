package striptease

import (
	"fmt"
	"strconv"
)

// LengthKind tags a LengthSpec.
type LengthKind uint8

const (
	// LengthStatic is a count fixed when the schema is built.
	LengthStatic LengthKind = iota
	// LengthDynamic is a count read from an earlier integer field.
	LengthDynamic
	// LengthConsumer takes whatever is left.
	LengthConsumer
)

// LengthSpec determines how many elements (Array) or bytes (String) a
// sequence holds.
type LengthSpec struct {
	kind  LengthKind
	count int
	field string
}

// Static is a count known when the schema is built.
func Static(n int) LengthSpec { return LengthSpec{kind: LengthStatic, count: n} }

// Dynamic takes the count from the integer stored under field. The field
// must be declared before the sequence in the same struct.
func Dynamic(field string) LengthSpec { return LengthSpec{kind: LengthDynamic, field: field} }

// Consumer takes all remaining bytes on decode and the whole value on encode.
// A consuming sequence must be the last token of its struct.
func Consumer() LengthSpec { return LengthSpec{kind: LengthConsumer} }

func (l LengthSpec) Kind() LengthKind { return l.kind }

// Count is the Static count, or 0.
func (l LengthSpec) Count() int { return l.count }

// Field is the Dynamic length field, or "".
func (l LengthSpec) Field() string { return l.field }

func (l LengthSpec) String() string {
	switch l.kind {
	case LengthStatic:
		return strconv.Itoa(l.count)
	case LengthDynamic:
		return l.field
	}
	return ""
}

// resolve returns the Dynamic count stored in values.
func (l LengthSpec) resolve(owner string, values Values) (int, error) {
	v, ok := values[l.field]
	if !ok {
		return 0, MissingFieldError{Field: l.field}
	}
	if !v.isInteger() {
		return 0, TypeMismatchError{Field: l.field, Want: "integer length", Got: v.kind}
	}
	n, ok := v.Int()
	if !ok || n < 0 || n > int64(maxInt) {
		return 0, fmt.Errorf("striptease: field %q: invalid length %v in %q", owner, v, l.field)
	}
	return int(n), nil
}

const maxInt = int(^uint(0) >> 1)
