package striptease

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayElementsKeepSuppliedOrder(t *testing.T) {
	s := MustStruct("ordered", Uint8("n"), Uint16("xs").Of(Dynamic("n")))

	b, err := s.Encode(Values{"xs": Uints(1, 2, 3)})
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 0, 1, 0, 2, 0, 3}, b)
}

func TestReversedSequences(t *testing.T) {
	s := MustStruct("rev", Uint16("xs").N(3).Reversed(), String("s", Static(3)).Reversed())

	values := Values{"xs": Uints(1, 2, 3), "s": Text("abc")}
	b, err := s.Encode(values)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 3, 0, 2, 0, 1, 'c', 'b', 'a'}, b)

	_, got, err := Decode(s, b, nil)
	require.NoError(t, err)
	assert.True(t, values.Equal(got))
}

func TestReversedDoesNotMutateReceiver(t *testing.T) {
	fwd := String("s", Consumer())
	rev := fwd.Reversed()
	assert.NotSame(t, fwd, rev)

	b, err := fwd.encode(nil, Values{"s": Text("ab")})
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), b)
}

func TestStaticStringLengthMismatch(t *testing.T) {
	s := MustStruct("fixed", String("name", Static(4)))

	for _, v := range []string{"abc", "abcde"} {
		_, err := s.Encode(Values{"name": Text(v)})
		var mismatch LengthMismatchError
		require.ErrorAs(t, err, &mismatch, v)
		assert.Equal(t, 4, mismatch.Want)
		assert.Equal(t, len(v), mismatch.Got)
	}
}

func TestConsumerArrayPartialElement(t *testing.T) {
	s := MustStruct("tail", Uint32("xs").Of(Consumer()))

	_, _, err := Decode(s, []byte{0, 0, 0, 1, 0, 0}, nil)
	var underrun BufferUnderrunError
	require.ErrorAs(t, err, &underrun)
	assert.Equal(t, BufferUnderrunError{Field: "xs", Need: 8, Have: 6}, underrun)
}

func TestConsumerEmptyBuffer(t *testing.T) {
	s := MustStruct("tail", String("rest", Consumer()))

	rest, values, err := Decode(s, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, rest)
	got, ok := values.Bytes("rest")
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestDynamicLengthBeyondBuffer(t *testing.T) {
	s := MustStruct("short", Uint16("n"), String("data", Dynamic("n")))

	_, _, err := Decode(s, []byte{0xFF, 0xFF, 'a', 'b'}, nil)
	var underrun BufferUnderrunError
	require.ErrorAs(t, err, &underrun)
	assert.Equal(t, BufferUnderrunError{Field: "data", Need: 0xFFFF, Have: 2}, underrun)
}

func TestDynamicLengthHugeCount(t *testing.T) {
	s := MustStruct("huge", Uint64("n"), Uint64("xs").Of(Dynamic("n")))

	buf := []byte{0x7F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 1, 2, 3}
	_, _, err := Decode(s, buf, nil)
	var underrun BufferUnderrunError
	require.ErrorAs(t, err, &underrun)
	assert.Equal(t, 3, underrun.Have)
}

func TestDynamicLengthFieldWrongKind(t *testing.T) {
	seq := String("data", Dynamic("n"))

	_, err := seq.decode([]byte("abc"), Values{"n": Text("3")})
	var mismatch TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "n", mismatch.Field)

	_, err = seq.decode([]byte("abc"), Values{})
	var missing MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "n", missing.Field)
}

func TestSequenceTypeMismatch(t *testing.T) {
	_, err := Uint8("xs").N(1).encode(nil, Values{"xs": Text("a")})
	var mismatch TypeMismatchError
	require.ErrorAs(t, err, &mismatch)

	_, err = String("s", Static(1)).encode(nil, Values{"s": Uints(1)})
	require.ErrorAs(t, err, &mismatch)
}

func TestArrayElementOverflowNamesIndex(t *testing.T) {
	_, err := Int8("xs").N(3).encode(nil, Values{"xs": Ints(1, 200, 3)})
	var overflow RangeOverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, "xs[1]", overflow.Field)
}

func TestSequenceLength(t *testing.T) {
	consumer := Uint16("xs").Of(Consumer())
	_, ok := consumer.Length(Values{})
	assert.False(t, ok)

	n, ok := consumer.Length(Values{"xs": Uints(1, 2, 3)})
	require.True(t, ok)
	assert.Equal(t, 6, n)

	n, ok = String("s", Dynamic("n")).Length(Values{"n": Uint(9)})
	require.True(t, ok)
	assert.Equal(t, 9, n)
}
