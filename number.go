package striptease

// Number is a leaf token holding one integer or float.
type Number struct {
	name   string
	format Format
}

// NewNumber returns a Number token for format f stored under name.
func NewNumber(name string, f Format) (*Number, error) {
	if !f.valid() {
		return nil, ErrInvalidFormat
	}
	return &Number{name: name, format: f}, nil
}

func mustNumber(name string, f Format) *Number {
	n, err := NewNumber(name, f)
	if err != nil {
		panic(err)
	}
	return n
}

// Shorthands parallel to the C99 fixed width types.

func Uint8(name string) *Number  { return mustNumber(name, Format{Unsigned, 1}) }
func Uint16(name string) *Number { return mustNumber(name, Format{Unsigned, 2}) }
func Uint32(name string) *Number { return mustNumber(name, Format{Unsigned, 4}) }
func Uint64(name string) *Number { return mustNumber(name, Format{Unsigned, 8}) }
func Int8(name string) *Number   { return mustNumber(name, Format{Signed, 1}) }
func Int16(name string) *Number  { return mustNumber(name, Format{Signed, 2}) }
func Int32(name string) *Number  { return mustNumber(name, Format{Signed, 4}) }
func Int64(name string) *Number  { return mustNumber(name, Format{Signed, 8}) }

// Single is an IEEE 754 single precision float.
func Single(name string) *Number { return mustNumber(name, Format{IEEE754, 4}) }

// Double is an IEEE 754 double precision float.
func Double(name string) *Number { return mustNumber(name, Format{IEEE754, 8}) }

func (n *Number) Name() string { return n.name }

func (n *Number) Format() Format { return n.format }

func (n *Number) Length(Values) (int, bool) { return n.format.Width, true }

// N returns a fixed length array of count elements of n, so that
// Uint16("x").N(4) reads like uint16_t x[4].
func (n *Number) N(count int) *Sequence { return Array(Static(count), n) }

// Of returns an array of n whose length is given by spec.
func (n *Number) Of(spec LengthSpec) *Sequence { return Array(spec, n) }

func (n *Number) check(field string, v Value) error {
	if n.format.IsInteger() {
		if !v.isInteger() {
			return TypeMismatchError{Field: field, Want: n.format.String(), Got: v.kind}
		}
	} else if v.kind != KindFloat && !v.isInteger() {
		return TypeMismatchError{Field: field, Want: n.format.String(), Got: v.kind}
	}
	if !n.format.fits(v) {
		return RangeOverflowError{Field: field, Format: n.format, Value: v}
	}
	return nil
}

func (n *Number) encode(dst []byte, values Values) ([]byte, error) {
	v, ok := values[n.name]
	if !ok {
		return nil, MissingFieldError{Field: n.name}
	}
	if err := n.check(n.name, v); err != nil {
		return nil, err
	}
	return n.format.put(dst, v), nil
}

func (n *Number) decode(buf []byte, values Values) ([]byte, error) {
	w := n.format.Width
	if len(buf) < w {
		return nil, BufferUnderrunError{Field: n.name, Need: w, Have: len(buf)}
	}
	values[n.name] = n.format.get(buf)
	return buf[w:], nil
}
