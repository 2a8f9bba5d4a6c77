package striptease

import (
	"encoding/binary"
	"math"
	"strconv"
)

// Class selects how a numeric field is interpreted.
type Class uint8

const (
	Unsigned Class = iota
	Signed
	IEEE754
)

// Format is a fixed width scalar encoding. Byte order is always big-endian.
type Format struct {
	Class Class
	Width int
}

func (f Format) valid() bool {
	switch f.Class {
	case Unsigned, Signed:
		return f.Width == 1 || f.Width == 2 || f.Width == 4 || f.Width == 8
	case IEEE754:
		return f.Width == 4 || f.Width == 8
	}
	return false
}

func (f Format) String() string {
	bits := strconv.Itoa(f.Width * 8)
	switch f.Class {
	case Unsigned:
		return "uint" + bits
	case Signed:
		return "int" + bits
	case IEEE754:
		return "float" + bits
	}
	return "format(" + strconv.Itoa(int(f.Class)) + "," + strconv.Itoa(f.Width) + ")"
}

// IsInteger reports whether f encodes an integer.
func (f Format) IsInteger() bool { return f.Class != IEEE754 }

// fits reports whether v can be packed into f and read back unchanged.
func (f Format) fits(v Value) bool {
	switch f.Class {
	case Unsigned:
		u, ok := v.Uint()
		if !ok {
			return false
		}
		return f.Width == 8 || u < 1<<(uint(f.Width)*8)
	case Signed:
		i, ok := v.Int()
		if !ok {
			return false
		}
		if f.Width == 8 {
			return true
		}
		limit := int64(1) << (uint(f.Width)*8 - 1)
		return i >= -limit && i < limit
	case IEEE754:
		x, exact := v.exactFloat()
		if !exact {
			return false
		}
		if f.Width == 4 && !math.IsInf(x, 0) && !math.IsNaN(x) {
			return math.Abs(x) <= math.MaxFloat32 && float64(float32(x)) == x
		}
		return true
	}
	return false
}

// put appends the encoding of v to dst. v must fit f.
func (f Format) put(dst []byte, v Value) []byte {
	var bits uint64
	switch f.Class {
	case Unsigned:
		bits, _ = v.Uint()
	case Signed:
		i, _ := v.Int()
		bits = uint64(i)
	case IEEE754:
		x, _ := v.Float()
		switch {
		case f.Width == 8 && v.kind == KindFloat:
			bits = v.bits
		case f.Width == 8:
			bits = math.Float64bits(x)
		case math.IsNaN(x):
			bits = uint64(narrowNaN(v.bits))
		default:
			bits = uint64(math.Float32bits(float32(x)))
		}
	}
	switch f.Width {
	case 1:
		return append(dst, byte(bits))
	case 2:
		return binary.BigEndian.AppendUint16(dst, uint16(bits))
	case 4:
		return binary.BigEndian.AppendUint32(dst, uint32(bits))
	default:
		return binary.BigEndian.AppendUint64(dst, bits)
	}
}

// get unpacks the first f.Width bytes of b.
func (f Format) get(b []byte) Value {
	var bits uint64
	switch f.Width {
	case 1:
		bits = uint64(b[0])
	case 2:
		bits = uint64(binary.BigEndian.Uint16(b))
	case 4:
		bits = uint64(binary.BigEndian.Uint32(b))
	default:
		bits = binary.BigEndian.Uint64(b)
	}
	switch f.Class {
	case Signed:
		shift := uint(64 - f.Width*8)
		return Int(int64(bits<<shift) >> shift)
	case IEEE754:
		if f.Width == 4 {
			if b := uint32(bits); b&0x7F800000 == 0x7F800000 && b&0x7FFFFF != 0 {
				return Value{kind: KindFloat, bits: widenNaN(b)}
			}
			return Float(float64(math.Float32frombits(uint32(bits))))
		}
		return Float(math.Float64frombits(bits))
	}
	return Uint(bits)
}

// widenNaN and narrowNaN move a NaN between widths by shifting its payload,
// so signaling NaNs survive a decode and encode of a float32 field.
func widenNaN(b uint32) uint64 {
	return uint64(b>>31)<<63 | 0x7FF<<52 | uint64(b&0x7FFFFF)<<29
}

func narrowNaN(b uint64) uint32 {
	payload := uint32(b>>29) & 0x7FFFFF
	if payload == 0 {
		payload = 0x400000
	}
	return uint32(b>>63)<<31 | 0xFF<<23 | payload
}
