package striptease

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the tag of a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindUint
	KindFloat
	KindList
	KindBytes
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindInt:     "int",
	KindUint:    "uint",
	KindFloat:   "float",
	KindList:    "list",
	KindBytes:   "bytes",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a single entry of a value map: a signed or unsigned integer, a
// float, an ordered list of numbers, or raw bytes. The zero Value is invalid.
type Value struct {
	kind Kind
	bits uint64
	list []Value
	raw  []byte
}

func Int(v int64) Value     { return Value{kind: KindInt, bits: uint64(v)} }
func Uint(v uint64) Value   { return Value{kind: KindUint, bits: v} }
func Float(v float64) Value { return Value{kind: KindFloat, bits: math.Float64bits(v)} }

// List returns a list value holding vs. The slice is retained.
func List(vs ...Value) Value { return Value{kind: KindList, list: vs} }

// Bytes returns a raw byte value. The slice is retained.
func Bytes(b []byte) Value { return Value{kind: KindBytes, raw: b} }

// Text returns a raw byte value holding the bytes of s.
func Text(s string) Value { return Value{kind: KindBytes, raw: []byte(s)} }

func Ints(vs ...int64) Value {
	l := make([]Value, len(vs))
	for i, v := range vs {
		l[i] = Int(v)
	}
	return List(l...)
}

func Uints(vs ...uint64) Value {
	l := make([]Value, len(vs))
	for i, v := range vs {
		l[i] = Uint(v)
	}
	return List(l...)
}

func Floats(vs ...float64) Value {
	l := make([]Value, len(vs))
	for i, v := range vs {
		l[i] = Float(v)
	}
	return List(l...)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Int returns v as an int64. ok is false if v is not an integer or does not
// fit.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case KindInt:
		return int64(v.bits), true
	case KindUint:
		if v.bits > math.MaxInt64 {
			return 0, false
		}
		return int64(v.bits), true
	}
	return 0, false
}

// Uint returns v as a uint64. ok is false if v is not an integer or is
// negative.
func (v Value) Uint() (uint64, bool) {
	switch v.kind {
	case KindUint:
		return v.bits, true
	case KindInt:
		if int64(v.bits) < 0 {
			return 0, false
		}
		return v.bits, true
	}
	return 0, false
}

// Float returns v as a float64. Integers are converted.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return math.Float64frombits(v.bits), true
	case KindInt:
		return float64(int64(v.bits)), true
	case KindUint:
		return float64(v.bits), true
	}
	return 0, false
}

func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return v.raw, true
}

// Len is the element count of a list or the byte count of a bytes value, and
// 0 for anything else.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindBytes:
		return len(v.raw)
	}
	return 0
}

// exactFloat returns v as a float64 and reports whether the conversion was
// exact. ok is false for non-numeric values.
func (v Value) exactFloat() (x float64, ok bool) {
	switch v.kind {
	case KindFloat:
		return math.Float64frombits(v.bits), true
	case KindInt:
		i := int64(v.bits)
		x = float64(i)
		return x, x >= -(1<<63) && x < 1<<63 && int64(x) == i
	case KindUint:
		x = float64(v.bits)
		return x, x < 1<<64 && uint64(x) == v.bits
	}
	return 0, false
}

func (v Value) isInteger() bool { return v.kind == KindInt || v.kind == KindUint }

func (v Value) negative() bool { return v.kind == KindInt && int64(v.bits) < 0 }

// Equal reports whether v and o hold the same value. Numbers compare by
// numeric value whichever of Int, Uint or Float built them, and NaN equals
// NaN.
func (v Value) Equal(o Value) bool {
	if v.isInteger() && o.isInteger() {
		return v.negative() == o.negative() && v.bits == o.bits
	}
	if v.isInteger() && o.kind == KindFloat {
		x, exact := v.exactFloat()
		return exact && x == math.Float64frombits(o.bits)
	}
	if v.kind == KindFloat && o.isInteger() {
		return o.Equal(v)
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindFloat:
		a, b := math.Float64frombits(v.bits), math.Float64frombits(o.bits)
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindBytes:
		return bytes.Equal(v.raw, o.raw)
	}
	return true
}

// Interface returns v as a plain Go value: int64, uint64, float64, []any or
// []byte.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return int64(v.bits)
	case KindUint:
		return v.bits
	case KindFloat:
		return math.Float64frombits(v.bits)
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	case KindBytes:
		return v.raw
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(int64(v.bits), 10)
	case KindUint:
		return strconv.FormatUint(v.bits, 10)
	case KindFloat:
		return strconv.FormatFloat(math.Float64frombits(v.bits), 'g', -1, 64)
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindBytes:
		return fmt.Sprintf("%q", v.raw)
	}
	return "<invalid>"
}

// ValueOf converts a Go value into a Value. It accepts Value, the sized and
// unsized integer and float types, []byte, string, slices of numbers, []any
// and []Value.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Uint(uint64(t)), nil
	case uint8:
		return Uint(uint64(t)), nil
	case uint16:
		return Uint(uint64(t)), nil
	case uint32:
		return Uint(uint64(t)), nil
	case uint64:
		return Uint(t), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case []byte:
		return Bytes(t), nil
	case string:
		return Text(t), nil
	case []Value:
		return List(t...), nil
	case []int:
		return listOf(t, func(e int) Value { return Int(int64(e)) }), nil
	case []int8:
		return listOf(t, func(e int8) Value { return Int(int64(e)) }), nil
	case []int16:
		return listOf(t, func(e int16) Value { return Int(int64(e)) }), nil
	case []int32:
		return listOf(t, func(e int32) Value { return Int(int64(e)) }), nil
	case []int64:
		return Ints(t...), nil
	case []uint:
		return listOf(t, func(e uint) Value { return Uint(uint64(e)) }), nil
	case []uint16:
		return listOf(t, func(e uint16) Value { return Uint(uint64(e)) }), nil
	case []uint32:
		return listOf(t, func(e uint32) Value { return Uint(uint64(e)) }), nil
	case []uint64:
		return Uints(t...), nil
	case []float32:
		return listOf(t, func(e float32) Value { return Float(float64(e)) }), nil
	case []float64:
		return Floats(t...), nil
	case []any:
		l := make([]Value, len(t))
		for i, e := range t {
			v, err := ValueOf(e)
			if err != nil {
				return Value{}, err
			}
			l[i] = v
		}
		return List(l...), nil
	}
	return Value{}, fmt.Errorf("%w: %T", ErrBadValue, x)
}

func listOf[T any](s []T, conv func(T) Value) Value {
	l := make([]Value, len(s))
	for i, e := range s {
		l[i] = conv(e)
	}
	return List(l...)
}

// Values is the flat name to value table threaded through one encode or
// decode call. Nested structs share the map of their parent.
type Values map[string]Value

// Set stores ValueOf(x) under name.
func (vs Values) Set(name string, x any) error {
	v, err := ValueOf(x)
	if err != nil {
		return fmt.Errorf("%w (field %q)", err, name)
	}
	vs[name] = v
	return nil
}

func (vs Values) Int(name string) (int64, bool)    { return vs[name].Int() }
func (vs Values) Uint(name string) (uint64, bool)  { return vs[name].Uint() }
func (vs Values) Float(name string) (float64, bool) { return vs[name].Float() }
func (vs Values) List(name string) ([]Value, bool) { return vs[name].List() }
func (vs Values) Bytes(name string) ([]byte, bool) { return vs[name].Bytes() }

// Clone returns a shallow copy of vs. A nil map clones to an empty one.
func (vs Values) Clone() Values {
	out := make(Values, len(vs))
	for k, v := range vs {
		out[k] = v
	}
	return out
}

// Equal reports whether vs and o hold the same names with equal values.
func (vs Values) Equal(o Values) bool {
	if len(vs) != len(o) {
		return false
	}
	for k, v := range vs {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
