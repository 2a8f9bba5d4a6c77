package frame

import (
	"bytes"

	"github.com/pierrec/lz4/v4"
)

// LZ4Compressor compresses a payload using the LZ4 frame format. Level 0 is
// the fast compressor, 1 to 9 select the high compression levels.
type LZ4Compressor struct {
	Level int
}

var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1, lz4.Level2, lz4.Level3,
	lz4.Level4, lz4.Level5, lz4.Level6,
	lz4.Level7, lz4.Level8, lz4.Level9,
}

func (c LZ4Compressor) compress(buf []byte) ([]byte, error) {
	if c.Level < 0 || c.Level >= len(lz4Levels) {
		c.Level = 0
	}

	var comp bytes.Buffer
	zw := lz4.NewWriter(&comp)
	if err := zw.Apply(lz4.CompressionLevelOption(lz4Levels[c.Level])); err != nil {
		return nil, err
	}
	if _, err := zw.Write(buf); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return comp.Bytes(), nil
}

func (c LZ4Compressor) decompress(buf []byte, max int) ([]byte, error) {
	return readAllLimited(lz4.NewReader(bytes.NewReader(buf)), 2*len(buf), max)
}
