package message

import (
	"bytes"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prakti/striptease"
)

var storeRequest = striptease.MustStruct("store_request",
	striptease.Uint8("trans"),
	striptease.Uint8("nlen"),
	striptease.String("name", striptease.Dynamic("nlen")),
	striptease.Uint16("dlen"),
	striptease.String("data", striptease.Dynamic("dlen")),
)

var fetchRequest = striptease.MustStruct("fetch_request",
	striptease.Uint8("trans"),
	striptease.Uint8("nlen"),
	striptease.String("name", striptease.Dynamic("nlen")),
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register(0x01, "store_request", storeRequest))
	require.NoError(t, r.Register(0x03, "fetch_request", fetchRequest))
	return r
}

func TestEncodeDecodeDispatch(t *testing.T) {
	r := newTestRegistry(t)

	values := striptease.Values{
		"trans": striptease.Uint(7),
		"name":  striptease.Text("foo"),
		"data":  striptease.Text("[1, 2, 3]"),
	}
	b, err := r.Encode(0x01, values)
	require.NoError(t, err)

	want := []byte{0x01, 0x00, 0x10, 7, 3, 'f', 'o', 'o', 0x00, 0x09}
	want = append(want, "[1, 2, 3]"...)
	assert.Equal(t, want, b)

	m, err := r.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x01), m.ID)
	assert.Equal(t, "store_request", m.Name)
	if diff := cmp.Diff(values, m.Values); diff != "" {
		t.Errorf("decoded values differ (-want +got):\n%s", diff)
	}

	b2, err := r.EncodeMessage(m)
	require.NoError(t, err)
	assert.Equal(t, b, b2)

	b3, err := r.EncodeName("fetch_request", striptease.Values{"trans": striptease.Uint(8), "name": striptease.Text("foo")})
	require.NoError(t, err)
	m, err = r.Decode(b3)
	require.NoError(t, err)
	assert.Equal(t, "fetch_request", m.Name)
}

func TestDuplicateRegistration(t *testing.T) {
	r := newTestRegistry(t)

	err := r.Register(0x01, "other", fetchRequest)
	assert.ErrorIs(t, err, ErrDuplicateType)
	err = r.Register(0x09, "fetch_request", fetchRequest)
	assert.ErrorIs(t, err, ErrDuplicateType)
	assert.ErrorIs(t, r.Register(0x0A, "nil", nil), striptease.ErrNilSchema)

	assert.Panics(t, func() { r.MustRegister(0x03, "again", fetchRequest) })
	assert.Len(t, r.Types(), 2)
}

func TestLookup(t *testing.T) {
	r := newTestRegistry(t)

	typ, ok := r.Lookup(0x03)
	require.True(t, ok)
	assert.Equal(t, "fetch_request", typ.Name)
	assert.Same(t, fetchRequest, typ.Schema)

	typ, ok = r.LookupName("store_request")
	require.True(t, ok)
	assert.Equal(t, uint8(0x01), typ.ID)

	_, ok = r.Lookup(0x02)
	assert.False(t, ok)
	_, ok = r.LookupName("nope")
	assert.False(t, ok)

	types := r.Types()
	require.Len(t, types, 2)
	assert.Equal(t, uint8(0x01), types[0].ID)
	assert.Equal(t, uint8(0x03), types[1].ID)
}

func TestDecodeErrors(t *testing.T) {
	r := newTestRegistry(t)
	good, err := r.Encode(0x03, striptease.Values{"trans": striptease.Uint(1), "name": striptease.Text("ab")})
	require.NoError(t, err)

	_, err = r.Decode(append([]byte{0x02}, good[1:]...))
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = r.Decode(good[:len(good)-1])
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = r.Decode(append(append([]byte(nil), good...), 0))
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = r.Decode(good[:2])
	var underrun striptease.BufferUnderrunError
	assert.ErrorAs(t, err, &underrun)

	// header length agrees but the payload claims a longer name
	bad := append([]byte(nil), good...)
	bad[4] = 9
	_, err = r.Decode(bad)
	assert.ErrorAs(t, err, &underrun)

	_, err = r.Encode(0x42, striptease.Values{})
	assert.ErrorIs(t, err, ErrUnknownType)
	_, err = r.EncodeName("nope", striptease.Values{})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestPayloadTooLong(t *testing.T) {
	r := NewRegistry()
	blob := striptease.MustStruct("blob", striptease.String("data", striptease.Consumer()))
	require.NoError(t, r.Register(9, "blob", blob))

	_, err := r.Encode(9, striptease.Values{"data": striptease.Bytes(make([]byte, MaxPayload))})
	require.NoError(t, err)

	_, err = r.Encode(9, striptease.Values{"data": striptease.Bytes(make([]byte, MaxPayload+1))})
	var overflow striptease.RangeOverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, "length", overflow.Field)
}

func TestConcurrentRegistry(t *testing.T) {
	r := newTestRegistry(t)
	values := striptease.Values{"trans": striptease.Uint(1), "name": striptease.Text("x")}
	want, err := r.Encode(0x03, values.Clone())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				_ = r.Register(uint8(0x10+i), "late", fetchRequest)
			}
			b, err := r.Encode(0x03, values.Clone())
			if assert.NoError(t, err) {
				assert.True(t, bytes.Equal(want, b))
			}
			_, err = r.Decode(b)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}
