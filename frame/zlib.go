package frame

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// ZlibCompressor compresses a payload using the zlib format.
type ZlibCompressor struct {
	Level int // compression level
}

const (
	ZlibNoCompression      = zlib.NoCompression
	ZlibBestSpeed          = zlib.BestSpeed
	ZlibBestCompression    = zlib.BestCompression
	ZlibDefaultCompression = zlib.DefaultCompression
)

var zlibWriterPools = make(map[int]*sync.Pool)

func init() {
	// -1 => 9
	for i := zlib.DefaultCompression; i <= zlib.BestCompression; i++ {
		level := i
		zlibWriterPools[i] = &sync.Pool{
			New: func() interface{} {
				zw, _ := zlib.NewWriterLevel(nil, level)
				return zw
			},
		}
	}
}

func (c ZlibCompressor) compress(buf []byte) ([]byte, error) {
	pool := zlibWriterPools[c.Level]
	if pool == nil {
		return nil, fmt.Errorf("unknown zlib level %d", c.Level)
	}

	var comp bytes.Buffer
	zw := pool.Get().(*zlib.Writer)
	defer pool.Put(zw)
	zw.Reset(&comp)

	if _, err := zw.Write(buf); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return comp.Bytes(), nil
}

func (c ZlibCompressor) decompress(buf []byte, max int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	return readAllLimited(zr, 2*len(buf), max)
}
