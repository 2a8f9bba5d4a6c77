package striptease

// Token is a schema node. Every token can encode its fields from a value map
// and decode them back, and most know their encoded length. Tokens are
// immutable once built and may be shared between goroutines.
//
// The set of tokens is closed: *Number, *Padding, *Sequence, *Struct and
// *Checksum.
type Token interface {
	// Name is the field the token reads and writes, or "" for tokens
	// without a field of their own.
	Name() string

	// Length returns the encoded length in bytes. ok is false if the
	// length depends on values that are not present.
	Length(values Values) (n int, ok bool)

	// encode appends the encoding of the token's fields to dst.
	encode(dst []byte, values Values) ([]byte, error)

	// decode consumes the token's prefix of buf, stores the decoded fields
	// and returns what is left.
	decode(buf []byte, values Values) ([]byte, error)
}

// Padding is fixed size filler with no field.
type Padding struct {
	n int
}

// NewPadding returns a token that writes n zero bytes and skips n bytes. A
// negative n is rejected when the token is added to a Struct.
func NewPadding(n int) *Padding { return &Padding{n: n} }

func (p *Padding) Name() string { return "" }

func (p *Padding) Length(Values) (int, bool) { return p.n, true }

func (p *Padding) encode(dst []byte, _ Values) ([]byte, error) {
	for i := 0; i < p.n; i++ {
		dst = append(dst, 0)
	}
	return dst, nil
}

func (p *Padding) decode(buf []byte, _ Values) ([]byte, error) {
	if len(buf) < p.n {
		return nil, BufferUnderrunError{Field: "<padding>", Need: p.n, Have: len(buf)}
	}
	return buf[p.n:], nil
}
