// Package schemafile builds striptease schemas from YAML documents.
//
// A document lists structs in wire order and, optionally, the message types
// that use them:
//
//	structs:
//	  header:
//	    - {name: id, type: uint8}
//	    - {name: len, type: uint8}
//	    - {name: data, type: uint8, length: {dynamic: len}}
//	    - {pad: 2}
//	    - {checksum: crc, algorithm: crc32, fields: [{name: blob, type: bytes, length: 4}]}
//	  wrapped:
//	    - {struct: header}
//	    - {name: rest, type: bytes, length: consumer}
//	messages:
//	  - {id: 1, name: wrapped_message, struct: wrapped}
//
// A struct may only refer to structs defined above it.
package schemafile

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Prakti/striptease"
	"github.com/Prakti/striptease/message"
)

// Errors
var (
	ErrUnknownStruct    = errors.New("schemafile: unknown struct")
	ErrDuplicateStruct  = errors.New("schemafile: duplicate struct")
	ErrUnknownFieldType = errors.New("schemafile: unknown field type")
	ErrUnknownAlgorithm = errors.New("schemafile: unknown checksum algorithm")
	ErrBadEntry         = errors.New("schemafile: malformed entry")
)

// File is a parsed schema document.
type File struct {
	structs  map[string]*striptease.Struct
	order    []string
	messages []MessageDef
}

// MessageDef binds a message type tag to a struct.
type MessageDef struct {
	ID     uint8  `yaml:"id"`
	Name   string `yaml:"name"`
	Struct string `yaml:"struct"`
}

type document struct {
	Structs  yaml.Node    `yaml:"structs"`
	Messages []MessageDef `yaml:"messages"`
}

type entry struct {
	Name    string     `yaml:"name"`
	Type    string     `yaml:"type"`
	Length  *lengthDef `yaml:"length"`
	Reverse bool       `yaml:"reverse"`

	Pad *int `yaml:"pad"`

	Struct string `yaml:"struct"`

	Checksum  string  `yaml:"checksum"`
	Algorithm string  `yaml:"algorithm"`
	Key       string  `yaml:"key"`
	Fields    []entry `yaml:"fields"`
}

// lengthDef is an integer, the word consumer, {static: n} or
// {dynamic: field}.
type lengthDef struct {
	spec striptease.LengthSpec
}

func (l *lengthDef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "consumer" {
			l.spec = striptease.Consumer()
			return nil
		}
		var n int
		if err := value.Decode(&n); err != nil {
			return fmt.Errorf("%w: line %d: length %q", ErrBadEntry, value.Line, value.Value)
		}
		l.spec = striptease.Static(n)
		return nil
	case yaml.MappingNode:
		var m struct {
			Static  *int   `yaml:"static"`
			Dynamic string `yaml:"dynamic"`
		}
		if err := value.Decode(&m); err != nil {
			return err
		}
		switch {
		case m.Static != nil && m.Dynamic == "":
			l.spec = striptease.Static(*m.Static)
		case m.Static == nil && m.Dynamic != "":
			l.spec = striptease.Dynamic(m.Dynamic)
		default:
			return fmt.Errorf("%w: line %d: length needs exactly one of static or dynamic", ErrBadEntry, value.Line)
		}
		return nil
	}
	return fmt.Errorf("%w: line %d: unsupported length", ErrBadEntry, value.Line)
}

// Load reads and parses the document at path.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse builds every struct in data.
func Parse(data []byte) (*File, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schemafile: %w", err)
	}

	f := &File{structs: make(map[string]*striptease.Struct)}
	if doc.Structs.Kind != 0 && doc.Structs.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: structs must be a mapping", ErrBadEntry, doc.Structs.Line)
	}

	// yaml.Node keeps the mapping in document order
	for i := 0; i+1 < len(doc.Structs.Content); i += 2 {
		key, value := doc.Structs.Content[i], doc.Structs.Content[i+1]
		name := key.Value
		if _, ok := f.structs[name]; ok {
			return nil, fmt.Errorf("%w: %q at line %d", ErrDuplicateStruct, name, key.Line)
		}

		var entries []entry
		if err := value.Decode(&entries); err != nil {
			return nil, fmt.Errorf("schemafile: struct %q: %w", name, err)
		}
		s, err := f.build(name, entries)
		if err != nil {
			return nil, fmt.Errorf("schemafile: struct %q: %w", name, err)
		}
		f.structs[name] = s
		f.order = append(f.order, name)
	}

	for _, m := range doc.Messages {
		if _, ok := f.structs[m.Struct]; !ok {
			return nil, fmt.Errorf("%w: %q for message %q", ErrUnknownStruct, m.Struct, m.Name)
		}
	}
	f.messages = doc.Messages
	return f, nil
}

func (f *File) build(name string, entries []entry) (*striptease.Struct, error) {
	tokens := make([]striptease.Token, 0, len(entries))
	for _, e := range entries {
		t, err := f.token(name, e)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return striptease.NewStruct(name, tokens...)
}

func (f *File) token(owner string, e entry) (striptease.Token, error) {
	switch {
	case e.Pad != nil:
		return striptease.NewPadding(*e.Pad), nil

	case e.Struct != "":
		s, ok := f.structs[e.Struct]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStruct, e.Struct)
		}
		return s, nil

	case e.Checksum != "":
		alg, err := algorithm(e.Algorithm, e.Key)
		if err != nil {
			return nil, err
		}
		var child striptease.Token
		if len(e.Fields) == 1 {
			// a lone field may refer to length fields of the enclosing struct
			child, err = f.token(owner, e.Fields[0])
		} else {
			child, err = f.build(owner+"."+e.Checksum, e.Fields)
		}
		if err != nil {
			return nil, err
		}
		return striptease.NewChecksum(e.Checksum, alg, child)
	}

	if e.Name == "" {
		return nil, fmt.Errorf("%w: entry without name, pad, struct or checksum", ErrBadEntry)
	}

	typ := strings.ToLower(e.Type)
	if typ == "bytes" || typ == "string" {
		if e.Length == nil {
			return nil, fmt.Errorf("%w: %s field %q needs a length", ErrBadEntry, typ, e.Name)
		}
		seq := striptease.String(e.Name, e.Length.spec)
		if e.Reverse {
			seq = seq.Reversed()
		}
		return seq, nil
	}

	format, ok := formats[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q for field %q", ErrUnknownFieldType, e.Type, e.Name)
	}
	n, err := striptease.NewNumber(e.Name, format)
	if err != nil {
		return nil, err
	}
	if e.Length == nil {
		if e.Reverse {
			return nil, fmt.Errorf("%w: reverse on scalar field %q", ErrBadEntry, e.Name)
		}
		return n, nil
	}
	seq := n.Of(e.Length.spec)
	if e.Reverse {
		seq = seq.Reversed()
	}
	return seq, nil
}

var formats = map[string]striptease.Format{
	"uint8":   {Class: striptease.Unsigned, Width: 1},
	"uint16":  {Class: striptease.Unsigned, Width: 2},
	"uint32":  {Class: striptease.Unsigned, Width: 4},
	"uint64":  {Class: striptease.Unsigned, Width: 8},
	"int8":    {Class: striptease.Signed, Width: 1},
	"int16":   {Class: striptease.Signed, Width: 2},
	"int32":   {Class: striptease.Signed, Width: 4},
	"int64":   {Class: striptease.Signed, Width: 8},
	"single":  {Class: striptease.IEEE754, Width: 4},
	"float32": {Class: striptease.IEEE754, Width: 4},
	"double":  {Class: striptease.IEEE754, Width: 8},
	"float64": {Class: striptease.IEEE754, Width: 8},
}

func algorithm(name, key string) (striptease.Algorithm, error) {
	switch strings.ToLower(name) {
	case "xor8":
		return striptease.XOR(1), nil
	case "xor16":
		return striptease.XOR(2), nil
	case "xor32":
		return striptease.XOR(4), nil
	case "xor64":
		return striptease.XOR(8), nil
	case "crc32":
		return striptease.CRC32(), nil
	case "crc32c":
		return striptease.CRC32C(), nil
	case "blake3":
		return striptease.BLAKE3(), nil
	case "siphash":
		raw, err := hex.DecodeString(key)
		if err != nil || len(raw) != 16 {
			return nil, fmt.Errorf("%w: siphash needs a 32 digit hex key", ErrBadEntry)
		}
		var k [16]byte
		copy(k[:], raw)
		return striptease.SipHash(k), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Struct returns the struct called name.
func (f *File) Struct(name string) (*striptease.Struct, error) {
	s, ok := f.structs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStruct, name)
	}
	return s, nil
}

// Structs returns the struct names in document order.
func (f *File) Structs() []string {
	return append([]string(nil), f.order...)
}

func (f *File) Messages() []MessageDef {
	return append([]MessageDef(nil), f.messages...)
}

// Registry registers every message of the document in a new registry.
func (f *File) Registry() (*message.Registry, error) {
	r := message.NewRegistry()
	for _, m := range f.messages {
		if err := r.Register(m.ID, m.Name, f.structs[m.Struct]); err != nil {
			return nil, err
		}
	}
	return r, nil
}
