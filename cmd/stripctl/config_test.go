package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	path := writeFile(t, "stripctl.toml", `
schema = " proto.yaml "
struct = "header"
format = "json"
hex = true
log_level = "debug"
codec = "zstd"
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "proto.yaml", cfg.Schema)
	assert.Equal(t, "header", cfg.Struct)
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.Hex)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "zstd", cfg.Codec)
	// not in the file
	assert.Equal(t, defaultConfig().MaxPayloadBytes, cfg.MaxPayloadBytes)
}

func TestLoadConfigEmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := loadConfig(writeFile(t, "empty.toml", ""))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	for name, content := range map[string]string{
		"format":  `format = "xml"`,
		"codec":   `codec = "brotli"`,
		"level":   `log_level = "loud"`,
		"limit":   `max_payload_bytes = 0`,
		"unknown": `colour = "blue"`,
		"syntax":  `schema = `,
	} {
		_, err := loadConfig(writeFile(t, name+".toml", content))
		assert.Error(t, err, name)
	}

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
