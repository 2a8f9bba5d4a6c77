package frame

import (
	"bytes"
	"io"
	"strconv"
	"strings"
)

// Codec selects the compression applied to a frame's payload.
type Codec uint8

const (
	None Codec = iota
	Snappy
	Zstd
	Zlib
	LZ4
)

var codecNames = [...]string{
	None:   "none",
	Snappy: "snappy",
	Zstd:   "zstd",
	Zlib:   "zlib",
	LZ4:    "lz4",
}

func (c Codec) valid() bool { return int(c) < len(codecNames) }

func (c Codec) String() string {
	if c.valid() {
		return codecNames[c]
	}
	return "codec(" + strconv.Itoa(int(c)) + ")"
}

// ParseCodec returns the codec called name. The empty string is None.
func ParseCodec(name string) (Codec, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return None, nil
	}
	for i, n := range codecNames {
		if n == name {
			return Codec(i), nil
		}
	}
	return 0, ErrUnknownCodec
}

// compressor turns a payload into the bytes carried by a frame and back.
// decompress fails with ErrPayloadTooLarge once the output exceeds max.
type compressor interface {
	compress(src []byte) ([]byte, error)
	decompress(src []byte, max int) ([]byte, error)
}

// compressor returns the implementation of c. level 0 picks the codec's
// default.
func (c Codec) compressor(level int) (compressor, error) {
	switch c {
	case None:
		return noCompressor{}, nil
	case Snappy:
		return SnappyCompressor{}, nil
	case Zstd:
		return ZstdCompressor{Level: level}, nil
	case Zlib:
		if level == 0 {
			level = ZlibDefaultCompression
		}
		return ZlibCompressor{Level: level}, nil
	case LZ4:
		return LZ4Compressor{Level: level}, nil
	}
	return nil, ErrUnknownCodec
}

type noCompressor struct{}

func (noCompressor) compress(src []byte) ([]byte, error) { return src, nil }

func (noCompressor) decompress(src []byte, max int) ([]byte, error) {
	if len(src) > max {
		return nil, ErrPayloadTooLarge
	}
	return src, nil
}

// readAllLimited drains r, failing once more than max bytes come out.
func readAllLimited(r io.Reader, sizeHint, max int) ([]byte, error) {
	if sizeHint > max {
		sizeHint = max
	}
	dec := bytes.NewBuffer(make([]byte, 0, sizeHint))
	if _, err := dec.ReadFrom(io.LimitReader(r, int64(max)+1)); err != nil {
		return nil, err
	}
	if dec.Len() > max {
		return nil, ErrPayloadTooLarge
	}
	return dec.Bytes(), nil
}
