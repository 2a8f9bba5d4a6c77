//go:build !clibs
// +build !clibs

package frame

import (
	"bytes"
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var zstdEncoders sync.Map // level -> *zstd.Encoder

func zstdEncode(buf []byte, level int) ([]byte, error) {
	enc, ok := zstdEncoders.Load(level)
	if !ok {
		e, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		if err != nil {
			return nil, err
		}
		enc, _ = zstdEncoders.LoadOrStore(level, e)
	}
	return enc.(*zstd.Encoder).EncodeAll(buf, nil), nil
}

// zstdWindow is the largest window a frame may declare when at most max bytes
// are wanted. Encoders round the window up to a power of two of the content
// size, hence the slack.
func zstdWindow(max int) uint64 {
	w := 2 * uint64(max)
	switch {
	case w < zstd.MinWindowSize:
		w = zstd.MinWindowSize
	case w > zstd.MaxWindowSize:
		w = zstd.MaxWindowSize
	}
	return w
}

var zstdDecoders sync.Map // max window -> *sync.Pool of *zstd.Decoder

// zstdDecode streams buf through a synchronous decoder, so no more than the
// window plus max bytes are ever held.
func zstdDecode(buf []byte, max int) ([]byte, error) {
	window := zstdWindow(max)
	p, _ := zstdDecoders.LoadOrStore(window, new(sync.Pool))
	pool := p.(*sync.Pool)

	dec, _ := pool.Get().(*zstd.Decoder)
	if dec == nil {
		var err error
		dec, err = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(true),
			zstd.WithDecoderMaxWindow(window),
		)
		if err != nil {
			return nil, err
		}
	}
	defer func() {
		dec.Reset(nil)
		pool.Put(dec)
	}()

	err := dec.Reset(bytes.NewReader(buf))
	var out []byte
	if err == nil {
		out, err = readAllLimited(dec, 2*len(buf), max)
	}
	if errors.Is(err, zstd.ErrWindowSizeExceeded) || errors.Is(err, zstd.ErrDecoderSizeExceeded) {
		return nil, ErrPayloadTooLarge
	}
	return out, err
}
