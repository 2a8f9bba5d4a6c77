package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/Prakti/striptease/frame"
)

// stripctl config.toml keys.
type fileConfig struct {
	Schema          string `toml:"schema"`
	Struct          string `toml:"struct"`
	Format          string `toml:"format"`
	Hex             bool   `toml:"hex"`
	MaxPayloadBytes uint64 `toml:"max_payload_bytes"`
	LogLevel        string `toml:"log_level"`
	Codec           string `toml:"codec"`
}

// Config is the resolved stripctl configuration: defaults, overlaid by the
// config file, overlaid by flags.
type Config struct {
	Schema          string
	Struct          string
	Format          string
	Hex             bool
	MaxPayloadBytes uint64
	LogLevel        string
	Codec           string
}

var formats = []string{"spew", "yaml", "json", "cbor"}

func defaultConfig() Config {
	return Config{
		Format:          "spew",
		MaxPayloadBytes: frame.DefaultLimits().MaxPayloadBytes,
		LogLevel:        "info",
		Codec:           "none",
	}
}

// loadConfig overlays the keys present in the TOML file at path onto the
// defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load stripctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load stripctl config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("schema") {
		cfg.Schema = strings.TrimSpace(raw.Schema)
	}
	if meta.IsDefined("struct") {
		cfg.Struct = strings.TrimSpace(raw.Struct)
	}
	if meta.IsDefined("format") {
		cfg.Format = strings.TrimSpace(raw.Format)
	}
	if meta.IsDefined("hex") {
		cfg.Hex = raw.Hex
	}
	if meta.IsDefined("max_payload_bytes") {
		cfg.MaxPayloadBytes = raw.MaxPayloadBytes
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("codec") {
		cfg.Codec = strings.TrimSpace(raw.Codec)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("load stripctl config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if !validFormat(c.Format) {
		return fmt.Errorf("unsupported format %q (expected one of %s)", c.Format, strings.Join(formats, ", "))
	}
	if _, err := frame.ParseCodec(c.Codec); err != nil {
		return fmt.Errorf("codec %q: %w", c.Codec, err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	if c.MaxPayloadBytes == 0 {
		return fmt.Errorf("max_payload_bytes must be positive")
	}
	return nil
}

func validFormat(f string) bool {
	for _, known := range formats {
		if f == known {
			return true
		}
	}
	return false
}

func (c Config) limits() frame.Limits {
	return frame.Limits{MaxPayloadBytes: c.MaxPayloadBytes}
}
