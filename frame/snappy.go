package frame

import "github.com/golang/snappy"

// SnappyCompressor compresses a payload using the Snappy block format.
type SnappyCompressor struct{}

func (c SnappyCompressor) compress(b []byte) ([]byte, error) {
	return snappy.Encode(nil, b), nil
}

func (c SnappyCompressor) decompress(b []byte, max int) ([]byte, error) {
	n, err := snappy.DecodedLen(b)
	if err != nil {
		return nil, err
	}
	if n > max {
		return nil, ErrPayloadTooLarge
	}
	return snappy.Decode(nil, b)
}
