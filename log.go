package striptease

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

var logger atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	logger.Store(&nop)
}

// SetLogger installs l as the package logger. The default discards
// everything. Schema construction and failed encode/decode calls are logged
// at debug level.
func SetLogger(l zerolog.Logger) {
	logger.Store(&l)
}

func log() *zerolog.Logger { return logger.Load() }
