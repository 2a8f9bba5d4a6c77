// Package message dispatches encoded structs by a one byte type tag.
//
// Every message on the wire is a three byte header followed by its payload:
//
//	msg_id uint8 | length uint16 | payload [length]byte
//
// The payload is encoded with the schema registered under msg_id.
package message

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Prakti/striptease"
)

// Errors
var (
	ErrDuplicateType  = errors.New("message: duplicate message type")
	ErrUnknownType    = errors.New("message: unknown message type")
	ErrLengthMismatch = errors.New("message: payload length mismatch")
)

// Header is the envelope schema preceding every payload.
var Header = striptease.MustStruct("message_header",
	striptease.Uint8("msg_id"),
	striptease.Uint16("length"),
)

// HeaderLen is the encoded size of Header.
const HeaderLen = 3

// MaxPayload is the largest payload the length field can describe.
const MaxPayload = 0xFFFF

// Type is a registered message type.
type Type struct {
	ID     uint8
	Name   string
	Schema *striptease.Struct
}

// Message is a decoded message.
type Message struct {
	ID     uint8
	Name   string
	Values striptease.Values
}

// Registry maps type tags to schemas. Registration and lookup may happen
// from any goroutine.
type Registry struct {
	mu     sync.RWMutex
	byID   map[uint8]Type
	byName map[string]uint8
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[uint8]Type),
		byName: make(map[string]uint8),
	}
}

// Register adds schema under id and name. Both must be unused.
func (r *Registry) Register(id uint8, name string, schema *striptease.Struct) error {
	if schema == nil {
		return striptease.ErrNilSchema
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.byID[id]; ok {
		return fmt.Errorf("%w: id 0x%02X already assigned to %s", ErrDuplicateType, id, t.Name)
	}
	if other, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: name %q already assigned to id 0x%02X", ErrDuplicateType, name, other)
	}
	r.byID[id] = Type{ID: id, Name: name, Schema: schema}
	r.byName[name] = id
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(id uint8, name string, schema *striptease.Struct) {
	if err := r.Register(id, name, schema); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(id uint8) (Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	return t, ok
}

func (r *Registry) LookupName(name string) (Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return Type{}, false
	}
	return r.byID[id], true
}

// Types returns all registered types ordered by id.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Type, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Encode encodes values with the schema registered under id and prepends the
// header. Computed length fields are written back into values.
func (r *Registry) Encode(id uint8, values striptease.Values) ([]byte, error) {
	t, ok := r.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownType, id)
	}
	return t.encode(values)
}

// EncodeName is like Encode but selects the type by name.
func (r *Registry) EncodeName(name string, values striptease.Values) ([]byte, error) {
	t, ok := r.LookupName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return t.encode(values)
}

// EncodeMessage encodes m.Values as type m.ID.
func (r *Registry) EncodeMessage(m Message) ([]byte, error) {
	return r.Encode(m.ID, m.Values)
}

func (t Type) encode(values striptease.Values) ([]byte, error) {
	buf := make([]byte, HeaderLen, 64)
	buf, err := t.Schema.AppendEncode(buf, values)
	if err != nil {
		return nil, fmt.Errorf("message: %s: %w", t.Name, err)
	}

	// the header is written last, over the placeholder, so that the payload
	// length is known
	_, err = Header.AppendEncode(buf[:0], striptease.Values{
		"msg_id": striptease.Uint(uint64(t.ID)),
		"length": striptease.Uint(uint64(len(buf) - HeaderLen)),
	})
	if err != nil {
		return nil, fmt.Errorf("message: %s: %w", t.Name, err)
	}
	return buf, nil
}

// Decode reads the header from buf, dispatches on msg_id and decodes the
// payload. buf must hold exactly one message.
func (r *Registry) Decode(buf []byte) (Message, error) {
	payload, hv, err := striptease.Decode(Header, buf, nil)
	if err != nil {
		return Message{}, fmt.Errorf("message: header: %w", err)
	}
	id, _ := hv.Uint("msg_id")
	length, _ := hv.Uint("length")

	t, ok := r.Lookup(uint8(id))
	if !ok {
		return Message{}, fmt.Errorf("%w: 0x%02X", ErrUnknownType, id)
	}
	if uint64(len(payload)) != length {
		return Message{}, fmt.Errorf("%w: packet length is %d, %d expected", ErrLengthMismatch, len(payload), length)
	}

	rest, values, err := striptease.Decode(t.Schema, payload, nil)
	if err != nil {
		return Message{}, fmt.Errorf("message: %s: %w", t.Name, err)
	}
	if len(rest) != 0 {
		return Message{}, fmt.Errorf("%w: %s leaves %d trailing bytes", ErrLengthMismatch, t.Name, len(rest))
	}
	return Message{ID: t.ID, Name: t.Name, Values: values}, nil
}
