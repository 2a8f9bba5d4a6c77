//go:build clibs
// +build clibs

package frame

import (
	"bytes"

	"github.com/DataDog/zstd"
)

func zstdEncode(buf []byte, level int) ([]byte, error) {
	return zstd.CompressLevel(nil, buf, level)
}

// zstdDecode streams buf through libzstd. The window itself is bounded by the
// library's own limit, not by max.
func zstdDecode(buf []byte, max int) ([]byte, error) {
	r := zstd.NewReader(bytes.NewReader(buf))
	defer r.Close()
	return readAllLimited(r, 2*len(buf), max)
}
