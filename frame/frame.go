package frame

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/Prakti/striptease"
)

const (
	Magic   = 0x5354 // "ST"
	Version = 1

	// HeaderLen is the encoded size of the fixed header.
	HeaderLen = 8
)

var header = striptease.MustStruct("frame_header",
	striptease.Uint16("magic"),
	striptease.Uint8("version"),
	striptease.Uint8("codec"),
	striptease.Uint32("length"),
)

// Frame is one decoded wire message. Payload is already decompressed.
type Frame struct {
	Codec   Codec
	Payload []byte
}

// Limits constrains frame memory use. MaxPayloadBytes bounds both the bytes
// on the wire and the decompressed payload.
type Limits struct {
	MaxPayloadBytes uint64
}

func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes: 8 * 1024 * 1024,
	}
}

func (l Limits) max() int {
	if l.MaxPayloadBytes > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(l.MaxPayloadBytes)
}

// AppendFrame appends the framed, compressed payload to dst.
func AppendFrame(dst []byte, codec Codec, level int, payload []byte, limits Limits) ([]byte, error) {
	if uint64(len(payload)) > limits.MaxPayloadBytes {
		return nil, ErrPayloadTooLarge
	}
	c, err := codec.compressor(level)
	if err != nil {
		return nil, err
	}
	body, err := c.compress(payload)
	if err != nil {
		return nil, fmt.Errorf("frame: %s compress: %w", codec, err)
	}
	if uint64(len(body)) > limits.MaxPayloadBytes || uint64(len(body)) > math.MaxUint32 {
		return nil, ErrPayloadTooLarge
	}

	dst, err = header.AppendEncode(dst, striptease.Values{
		"magic":   striptease.Uint(Magic),
		"version": striptease.Uint(Version),
		"codec":   striptease.Uint(uint64(codec)),
		"length":  striptease.Uint(uint64(len(body))),
	})
	if err != nil {
		return nil, err
	}
	return append(dst, body...), nil
}

// WriteFrame compresses payload with codec at its default level and writes
// one frame to w.
func WriteFrame(w io.Writer, codec Codec, payload []byte, limits Limits) error {
	b, err := AppendFrame(nil, codec, 0, payload, limits)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ReadFrame reads one frame from r and decompresses its payload. It returns
// io.EOF if r is exhausted before the first header byte.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var hb [HeaderLen]byte
	if n, err := io.ReadFull(r, hb[:]); err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}

	codec, length, err := DecodeHeader(hb[:])
	if err != nil {
		return Frame{}, err
	}
	if length > limits.MaxPayloadBytes {
		return Frame{}, ErrPayloadTooLarge
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrTruncated
		}
		return Frame{}, err
	}

	c, err := codec.compressor(0)
	if err != nil {
		return Frame{}, err
	}
	payload, err := c.decompress(body, limits.max())
	if err != nil {
		if errors.Is(err, ErrPayloadTooLarge) {
			return Frame{}, err
		}
		return Frame{}, fmt.Errorf("frame: %s decompress: %w", codec, err)
	}
	return Frame{Codec: codec, Payload: payload}, nil
}

// DecodeHeader validates a fixed header and returns its codec and the length
// of the payload on the wire.
func DecodeHeader(b []byte) (Codec, uint64, error) {
	if len(b) < HeaderLen {
		return 0, 0, ErrShortHeader
	}
	_, values, err := striptease.Decode(header, b[:HeaderLen], nil)
	if err != nil {
		return 0, 0, fmt.Errorf("frame: header: %w", err)
	}
	if magic, _ := values.Uint("magic"); magic != Magic {
		return 0, 0, ErrBadMagic
	}
	if v, _ := values.Uint("version"); v != Version {
		return 0, 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	c, _ := values.Uint("codec")
	codec := Codec(c)
	if !codec.valid() {
		return 0, 0, fmt.Errorf("%w: %d", ErrUnknownCodec, c)
	}
	length, _ := values.Uint("length")
	return codec, length, nil
}

// Writer writes frames to an underlying stream. It is safe for concurrent
// use; each frame is written with a single Write call.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	buf    []byte
	Codec  Codec
	Level  int
	Limits Limits
}

func NewWriter(w io.Writer, codec Codec) *Writer {
	return &Writer{w: w, Codec: codec, Limits: DefaultLimits()}
}

func (w *Writer) WriteFrame(payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, err := AppendFrame(w.buf[:0], w.Codec, w.Level, payload, w.Limits)
	if err != nil {
		return err
	}
	w.buf = b
	_, err = w.w.Write(b)
	return err
}

// Reader reads frames from an underlying stream. Frames may use any codec.
type Reader struct {
	r      io.Reader
	Limits Limits
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, Limits: DefaultLimits()}
}

func (r *Reader) ReadFrame() (Frame, error) {
	return ReadFrame(r.r, r.Limits)
}
