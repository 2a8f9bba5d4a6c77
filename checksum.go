package striptease

import (
	"encoding/binary"
	"hash/crc32"
	"strconv"

	"github.com/dchest/siphash"
	"github.com/zeebo/blake3"
)

// Algorithm computes the trailer value of a Checksum token.
type Algorithm interface {
	Name() string
	// Size is the trailer width in bytes: 1, 2, 4 or 8.
	Size() int
	Sum(p []byte) uint64
}

// Checksum wraps a child token and follows its bytes with a big-endian
// checksum over them. The checksum value is stored under the Checksum's own
// name on both encode and decode.
type Checksum struct {
	name   string
	alg    Algorithm
	child  Token
	format Format
}

// NewChecksum returns a checksum token over child.
func NewChecksum(name string, alg Algorithm, child Token) (*Checksum, error) {
	if child == nil {
		return nil, ErrNilToken
	}
	if alg == nil {
		return nil, SchemaError{Reason: "checksum " + strconv.Quote(name) + " has no algorithm"}
	}
	f := Format{Class: Unsigned, Width: alg.Size()}
	if !f.valid() {
		return nil, ErrInvalidFormat
	}
	return &Checksum{name: name, alg: alg, child: child, format: f}, nil
}

func (c *Checksum) Name() string { return c.name }

func (c *Checksum) Algorithm() Algorithm { return c.alg }

func (c *Checksum) Length(values Values) (int, bool) {
	n, ok := c.child.Length(values)
	if !ok {
		return 0, false
	}
	return n + c.format.Width, true
}

func (c *Checksum) mask(sum uint64) uint64 {
	if c.format.Width == 8 {
		return sum
	}
	return sum & (1<<(uint(c.format.Width)*8) - 1)
}

func (c *Checksum) encode(dst []byte, values Values) ([]byte, error) {
	start := len(dst)
	dst, err := c.child.encode(dst, values)
	if err != nil {
		return nil, err
	}
	sum := Uint(c.mask(c.alg.Sum(dst[start:])))
	values[c.name] = sum
	return c.format.put(dst, sum), nil
}

func (c *Checksum) decode(buf []byte, values Values) ([]byte, error) {
	size := c.format.Width
	scratch := values.Clone()

	var body, after []byte
	if consumes(c.child) {
		if len(buf) < size {
			return nil, BufferUnderrunError{Field: c.name, Need: size, Have: len(buf)}
		}
		region := buf[:len(buf)-size]
		rest, err := c.child.decode(region, scratch)
		if err != nil {
			return nil, err
		}
		body = region[:len(region)-len(rest)]
	} else {
		rest, err := c.child.decode(buf, scratch)
		if err != nil {
			return nil, err
		}
		body = buf[:len(buf)-len(rest)]
	}
	after = buf[len(body):]

	if len(after) < size {
		return nil, BufferUnderrunError{Field: c.name, Need: size, Have: len(after)}
	}
	got, _ := c.format.get(after).Uint()
	want := c.mask(c.alg.Sum(body))
	if got != want {
		return nil, ChecksumMismatchError{Field: c.name, Want: want, Got: got}
	}

	for k, v := range scratch {
		values[k] = v
	}
	values[c.name] = Uint(got)
	return after[size:], nil
}

type xorSum int

// XOR is the parity checksum: starting from all ones, every width-byte chunk
// of the input is summed bytewise and folded in with xor.
func XOR(width int) Algorithm { return xorSum(width) }

func (x xorSum) Name() string { return "xor" + strconv.Itoa(int(x)*8) }
func (x xorSum) Size() int    { return int(x) }

func (x xorSum) Sum(p []byte) uint64 {
	w := int(x)
	if w <= 0 {
		return 0
	}
	sum := ^uint64(0)
	for len(p) > 0 {
		n := w
		if n > len(p) {
			n = len(p)
		}
		var chunk uint64
		for _, b := range p[:n] {
			chunk += uint64(b)
		}
		sum ^= chunk
		p = p[n:]
	}
	return sum
}

type crcSum struct {
	name  string
	table *crc32.Table
}

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRC32 is the IEEE CRC-32 used by Ethernet and zlib.
func CRC32() Algorithm { return crcSum{name: "crc32", table: crc32.IEEETable} }

// CRC32C is the Castagnoli CRC-32 used by iSCSI and SCTP.
func CRC32C() Algorithm { return crcSum{name: "crc32c", table: castagnoli} }

func (c crcSum) Name() string        { return c.name }
func (c crcSum) Size() int           { return 4 }
func (c crcSum) Sum(p []byte) uint64 { return uint64(crc32.Checksum(p, c.table)) }

type sipSum struct {
	k0, k1 uint64
}

// SipHash is the keyed SipHash-2-4 MAC. It guards against tampering by
// anyone who does not know key, not just against corruption.
func SipHash(key [16]byte) Algorithm {
	return sipSum{
		k0: binary.LittleEndian.Uint64(key[:8]),
		k1: binary.LittleEndian.Uint64(key[8:]),
	}
}

func (s sipSum) Name() string        { return "siphash" }
func (s sipSum) Size() int           { return 8 }
func (s sipSum) Sum(p []byte) uint64 { return siphash.Hash(s.k0, s.k1, p) }

type blake3Sum struct{}

// BLAKE3 is the first eight bytes of the BLAKE3 digest.
func BLAKE3() Algorithm { return blake3Sum{} }

func (blake3Sum) Name() string { return "blake3" }
func (blake3Sum) Size() int    { return 8 }

func (blake3Sum) Sum(p []byte) uint64 {
	digest := blake3.Sum256(p)
	return binary.BigEndian.Uint64(digest[:8])
}
