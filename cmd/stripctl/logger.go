package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Prakti/striptease"
)

// initLogger writes human readable logs to w and installs the logger both
// globally and as the striptease library logger.
func initLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).Level(lvl).With().Timestamp().Str("app", "stripctl").Logger()
	log.Logger = logger
	striptease.SetLogger(logger)
	return logger, nil
}
