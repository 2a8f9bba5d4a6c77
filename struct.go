package striptease

// Struct is an ordered composite of tokens, and itself a token, so structs
// nest. Nested structs read and write the same flat value map as their
// parent; field names must be unique across the whole schema.
//
// A Struct is built once by NewStruct and never changes afterwards. The same
// Struct may encode and decode concurrently from any number of goroutines as
// long as each call has its own Values.
type Struct struct {
	name     string
	tokens   []Token
	fields   []string
	ints     map[string]bool
	dynamic  []*Sequence
	consumes bool
}

// NewStruct builds a struct from tokens in wire order. It fails if a field
// name repeats, if a Dynamic length refers to anything but an integer field
// declared before it, or if a consuming sequence is followed by more tokens.
func NewStruct(name string, tokens ...Token) (*Struct, error) {
	s := &Struct{
		name:   name,
		tokens: append([]Token(nil), tokens...),
		ints:   make(map[string]bool),
	}
	seen := make(map[string]bool)

	for i, t := range s.tokens {
		if t == nil {
			return nil, SchemaError{Struct: name, Reason: ErrNilToken.Error()}
		}
		if s.consumes {
			return nil, SchemaError{Struct: name, Reason: "consuming field " + s.fields[len(s.fields)-1] + " must be the last token"}
		}
		if err := s.add(t, seen); err != nil {
			return nil, err
		}
		s.consumes = consumes(s.tokens[i])
	}

	log().Debug().Str("struct", name).Int("fields", len(s.fields)).Msg("striptease: struct built")
	return s, nil
}

// MustStruct is like NewStruct but panics on a malformed schema. It is meant
// for package level schema variables.
func MustStruct(name string, tokens ...Token) *Struct {
	s, err := NewStruct(name, tokens...)
	if err != nil {
		panic(err)
	}
	return s
}

// add validates t against the fields declared so far and records its own.
func (s *Struct) add(t Token, seen map[string]bool) error {
	declare := func(field string, integer bool) error {
		if field == "" {
			return SchemaError{Struct: s.name, Reason: "unnamed field"}
		}
		if seen[field] {
			return DuplicateFieldError{Struct: s.name, Field: field}
		}
		seen[field] = true
		s.fields = append(s.fields, field)
		if integer {
			s.ints[field] = true
		}
		return nil
	}

	switch t := t.(type) {
	case *Number:
		return declare(t.name, t.format.IsInteger())
	case *Padding:
		if t.n < 0 {
			return SchemaError{Struct: s.name, Reason: "negative padding"}
		}
		return nil
	case *Sequence:
		if t.kind == seqArray && t.elem == nil {
			return SchemaError{Struct: s.name, Reason: "array without element type"}
		}
		switch t.length.kind {
		case LengthStatic:
			if t.length.count < 0 {
				return SchemaError{Struct: s.name, Reason: "negative length for " + t.name}
			}
		case LengthDynamic:
			if !s.ints[t.length.field] {
				return OrderDependencyError{Struct: s.name, Field: t.name, LengthField: t.length.field}
			}
			s.dynamic = append(s.dynamic, t)
		}
		return declare(t.name, false)
	case *Struct:
		for _, f := range t.fields {
			if err := declare(f, t.ints[f]); err != nil {
				return err
			}
		}
		return nil
	case *Checksum:
		if err := s.add(t.child, seen); err != nil {
			return err
		}
		return declare(t.name, false)
	}
	return SchemaError{Struct: s.name, Reason: "unknown token"}
}

func consumes(t Token) bool {
	switch t := t.(type) {
	case *Sequence:
		return t.consumes()
	case *Struct:
		return t.consumes
	case *Checksum:
		return consumes(t.child)
	}
	return false
}

func (s *Struct) Name() string { return s.name }

// Fields returns the field names of the schema in wire order, including
// those of nested structs.
func (s *Struct) Fields() []string {
	return append([]string(nil), s.fields...)
}

func (s *Struct) Length(values Values) (int, bool) {
	total := 0
	for _, t := range s.tokens {
		n, ok := t.Length(values)
		if !ok {
			return 0, false
		}
		total += n
	}
	return total, true
}

// Encode encodes values. Length fields of Dynamic sequences are computed
// from their data and written into values, overriding anything supplied. On
// error values is left untouched.
func (s *Struct) Encode(values Values) ([]byte, error) {
	return s.AppendEncode(nil, values)
}

// AppendEncode is like Encode but appends to dst.
func (s *Struct) AppendEncode(dst []byte, values Values) ([]byte, error) {
	work := values.Clone()
	out, err := s.encode(dst, work)
	if err != nil {
		log().Debug().Str("struct", s.name).Err(err).Msg("striptease: encode failed")
		return nil, err
	}
	if values != nil {
		for k, v := range work {
			values[k] = v
		}
	}
	return out, nil
}

// Decode decodes the prefix of buf described by s into values and returns
// the remaining bytes. On error values is left untouched.
func (s *Struct) Decode(buf []byte, values Values) ([]byte, error) {
	work := values.Clone()
	rest, err := s.decode(buf, work)
	if err != nil {
		log().Debug().Str("struct", s.name).Err(err).Msg("striptease: decode failed")
		return nil, err
	}
	if values != nil {
		for k, v := range work {
			values[k] = v
		}
	}
	return rest, nil
}

// resolveLengths writes the element count of every Dynamic sequence into its
// length field. It runs before anything is emitted, so a length field may
// precede its data on the wire.
func (s *Struct) resolveLengths(values Values) error {
	for _, seq := range s.dynamic {
		v, err := seq.value(values)
		if err != nil {
			return err
		}
		values[seq.length.field] = Uint(uint64(v.Len()))
	}
	return nil
}

func (s *Struct) encode(dst []byte, values Values) ([]byte, error) {
	if err := s.resolveLengths(values); err != nil {
		return nil, err
	}
	var err error
	for _, t := range s.tokens {
		if dst, err = t.encode(dst, values); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func (s *Struct) decode(buf []byte, values Values) ([]byte, error) {
	var err error
	for _, t := range s.tokens {
		if buf, err = t.decode(buf, values); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// Encode encodes values with schema.
func Encode(schema *Struct, values Values) ([]byte, error) {
	if schema == nil {
		return nil, ErrNilSchema
	}
	return schema.Encode(values)
}

// Decode decodes buf with schema, starting from a copy of initial, which may
// be nil. It returns the bytes schema did not account for and the decoded
// values. initial is never modified.
func Decode(schema *Struct, buf []byte, initial Values) ([]byte, Values, error) {
	if schema == nil {
		return nil, nil, ErrNilSchema
	}
	work := initial.Clone()
	rest, err := schema.decode(buf, work)
	if err != nil {
		log().Debug().Str("struct", schema.name).Err(err).Msg("striptease: decode failed")
		return nil, nil, err
	}
	return rest, work, nil
}
