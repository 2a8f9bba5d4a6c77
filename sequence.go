package striptease

import "strconv"

type seqKind uint8

const (
	seqArray seqKind = iota
	seqString
)

// Sequence repeats a Number (Array) or holds raw bytes (String). Its length
// is governed by a LengthSpec: for an Array it counts elements, for a String
// it counts bytes.
type Sequence struct {
	name    string
	kind    seqKind
	elem    *Number
	length  LengthSpec
	reverse bool
}

// Array returns a sequence of elem values named after elem.
func Array(spec LengthSpec, elem *Number) *Sequence {
	s := &Sequence{kind: seqArray, elem: elem, length: spec}
	if elem != nil {
		s.name = elem.name
	}
	return s
}

// String returns a raw byte sequence stored under name.
func String(name string, spec LengthSpec) *Sequence {
	return &Sequence{name: name, kind: seqString, length: spec}
}

func (s *Sequence) Name() string { return s.name }

// Spec returns the sequence's length specifier.
func (s *Sequence) Spec() LengthSpec { return s.length }

// Reversed returns a copy of s that is written back to front. Decoding
// restores the supplied order, so values round trip unchanged.
func (s *Sequence) Reversed() *Sequence {
	c := *s
	c.reverse = true
	return &c
}

func (s *Sequence) unit() int {
	if s.kind == seqArray && s.elem != nil {
		return s.elem.format.Width
	}
	return 1
}

func (s *Sequence) consumes() bool { return s.length.kind == LengthConsumer }

func (s *Sequence) Length(values Values) (int, bool) {
	switch s.length.kind {
	case LengthStatic:
		return s.length.count * s.unit(), true
	case LengthDynamic:
		n, err := s.length.resolve(s.name, values)
		if err != nil {
			return 0, false
		}
		return n * s.unit(), true
	}
	v, ok := values[s.name]
	if !ok {
		return 0, false
	}
	return v.Len() * s.unit(), true
}

func (s *Sequence) value(values Values) (Value, error) {
	v, ok := values[s.name]
	if !ok {
		return Value{}, MissingFieldError{Field: s.name}
	}
	switch {
	case s.kind == seqArray && v.kind != KindList:
		return Value{}, TypeMismatchError{Field: s.name, Want: "list of " + s.elem.format.String(), Got: v.kind}
	case s.kind == seqString && v.kind != KindBytes:
		return Value{}, TypeMismatchError{Field: s.name, Want: "bytes", Got: v.kind}
	}
	return v, nil
}

func (s *Sequence) encode(dst []byte, values Values) ([]byte, error) {
	v, err := s.value(values)
	if err != nil {
		return nil, err
	}

	n := v.Len()
	switch s.length.kind {
	case LengthStatic:
		if n != s.length.count {
			return nil, LengthMismatchError{Field: s.name, Want: s.length.count, Got: n}
		}
	case LengthDynamic:
		want, err := s.length.resolve(s.name, values)
		if err != nil {
			return nil, err
		}
		if n != want {
			return nil, LengthMismatchError{Field: s.name, Want: want, Got: n}
		}
	}

	if s.kind == seqString {
		if !s.reverse {
			return append(dst, v.raw...), nil
		}
		for i := n - 1; i >= 0; i-- {
			dst = append(dst, v.raw[i])
		}
		return dst, nil
	}

	for i := 0; i < n; i++ {
		idx := i
		if s.reverse {
			idx = n - 1 - i
		}
		e := v.list[idx]
		if err := s.elem.check(s.name+"["+strconv.Itoa(idx)+"]", e); err != nil {
			return nil, err
		}
		dst = s.elem.format.put(dst, e)
	}
	return dst, nil
}

func (s *Sequence) decode(buf []byte, values Values) ([]byte, error) {
	unit := s.unit()

	var n int
	switch s.length.kind {
	case LengthStatic:
		n = s.length.count
	case LengthDynamic:
		var err error
		if n, err = s.length.resolve(s.name, values); err != nil {
			return nil, err
		}
	default:
		if rem := len(buf) % unit; rem != 0 {
			return nil, BufferUnderrunError{Field: s.name, Need: len(buf) + unit - rem, Have: len(buf)}
		}
		n = len(buf) / unit
	}

	if n > len(buf)/unit {
		need := maxInt
		if n <= maxInt/unit {
			need = n * unit
		}
		return nil, BufferUnderrunError{Field: s.name, Need: need, Have: len(buf)}
	}
	size := n * unit

	if s.kind == seqString {
		raw := make([]byte, n)
		if s.reverse {
			for i := 0; i < n; i++ {
				raw[i] = buf[n-1-i]
			}
		} else {
			copy(raw, buf[:n])
		}
		values[s.name] = Bytes(raw)
		return buf[size:], nil
	}

	list := make([]Value, n)
	for i := 0; i < n; i++ {
		idx := i
		if s.reverse {
			idx = n - 1 - i
		}
		list[idx] = s.elem.format.get(buf[i*unit:])
	}
	values[s.name] = List(list...)
	return buf[size:], nil
}
