package striptease

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueEqual(t *testing.T) {
	tests := []struct {
		a, b  Value
		equal bool
	}{
		{Int(5), Uint(5), true},
		{Int(-1), Uint(math.MaxUint64), false},
		{Int(5), Float(5), true},
		{Uint(5), Float(5.5), false},
		{Int(-1), Float(-1), true},
		{Uint(1<<53 + 1), Float(1 << 53), false},
		{Uint(math.MaxUint64), Float(math.MaxUint64), false},
		{Int(0), Float(math.NaN()), false},
		{Float(math.NaN()), Float(math.NaN()), true},
		{Float(0), Float(math.Copysign(0, -1)), true},
		{Ints(1, 2), Uints(1, 2), true},
		{Ints(1, 2), Ints(1, 2, 3), false},
		{Text("ab"), Bytes([]byte{'a', 'b'}), true},
		{Text("ab"), Ints('a', 'b'), false},
		{Value{}, Value{}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.equal, tt.a.Equal(tt.b), "%v == %v", tt.a, tt.b)
		assert.Equal(t, tt.equal, tt.b.Equal(tt.a), "%v == %v", tt.b, tt.a)
	}
}

func TestValueAccessors(t *testing.T) {
	i, ok := Uint(math.MaxUint64).Int()
	assert.False(t, ok)
	assert.Zero(t, i)

	u, ok := Int(-3).Uint()
	assert.False(t, ok)
	assert.Zero(t, u)

	f, ok := Int(-3).Float()
	require.True(t, ok)
	assert.Equal(t, -3.0, f)

	_, ok = Text("x").Float()
	assert.False(t, ok)

	assert.Equal(t, 3, Uints(1, 2, 3).Len())
	assert.Equal(t, 0, Int(1).Len())
	assert.False(t, Value{}.IsValid())
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		in   any
		want Value
	}{
		{7, Int(7)},
		{int8(-7), Int(-7)},
		{uint16(7), Uint(7)},
		{uint64(math.MaxUint64), Uint(math.MaxUint64)},
		{float32(0.5), Float(0.5)},
		{"moep", Text("moep")},
		{[]byte{1, 2}, Bytes([]byte{1, 2})},
		{[]int{1, -2}, Ints(1, -2)},
		{[]uint32{1, 2}, Uints(1, 2)},
		{[]float64{0.25}, Floats(0.25)},
		{[]any{1, uint8(2)}, Ints(1, 2)},
		{Int(9), Int(9)},
	}
	for _, tt := range tests {
		got, err := ValueOf(tt.in)
		require.NoError(t, err, "%T", tt.in)
		assert.True(t, tt.want.Equal(got), "%T: got %v want %v", tt.in, got, tt.want)
	}

	_, err := ValueOf(struct{}{})
	assert.ErrorIs(t, err, ErrBadValue)
	_, err = ValueOf([]any{1, true})
	assert.ErrorIs(t, err, ErrBadValue)
}

func TestValuesHelpers(t *testing.T) {
	vs := Values{}
	require.NoError(t, vs.Set("n", 3))
	require.NoError(t, vs.Set("name", "moo"))
	assert.Error(t, vs.Set("bad", map[string]int{}))

	n, ok := vs.Int("n")
	require.True(t, ok)
	assert.Equal(t, int64(3), n)
	b, ok := vs.Bytes("name")
	require.True(t, ok)
	assert.Equal(t, []byte("moo"), b)
	_, ok = vs.List("name")
	assert.False(t, ok)

	c := vs.Clone()
	c["n"] = Int(4)
	assert.True(t, vs["n"].Equal(Int(3)))
	assert.False(t, vs.Equal(c))

	assert.NotNil(t, Values(nil).Clone())
}

func TestValueInterfaceAndString(t *testing.T) {
	assert.Equal(t, []any{int64(1), uint64(2), 0.5}, List(Int(1), Uint(2), Float(0.5)).Interface())
	assert.Equal(t, []byte("x"), Text("x").Interface())
	assert.Nil(t, Value{}.Interface())

	assert.Equal(t, "[1 -2]", Ints(1, -2).String())
	assert.Equal(t, `"ab"`, Text("ab").String())
	assert.Equal(t, "uint", KindUint.String())
}
