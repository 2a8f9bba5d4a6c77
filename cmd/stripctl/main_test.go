package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testSchema = `
structs:
  packet:
    - {name: id, type: uint8}
    - {name: len, type: uint8}
    - {name: data, type: uint8, length: {dynamic: len}}
  note:
    - {name: text, type: bytes, length: consumer}
messages:
  - {id: 1, name: packet, struct: packet}
`

func runCmd(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestEncodeDecodeStruct(t *testing.T) {
	schema := writeFile(t, "schema.yaml", testSchema)

	out, stderr, code := runCmd(t, "id: 100\ndata: [1, 2, 3]\n", "encode", "--schema", schema, "--struct", "packet", "--hex")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "6403010203\n", out)

	out, stderr, code = runCmd(t, "64 03 01 02 03", "decode", "-s", schema, "--struct", "packet", "-x", "--format", "yaml")
	require.Equal(t, 0, code, stderr)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, 100, got["id"])
	assert.Equal(t, 3, got["len"])
	assert.Equal(t, []any{1, 2, 3}, got["data"])
}

func TestDecodeFormats(t *testing.T) {
	schema := writeFile(t, "schema.yaml", testSchema)
	args := []string{"decode", "--schema", schema, "--struct", "note", "--hex"}

	out, stderr, code := runCmd(t, "6869", append(args, "--format", "json")...)
	require.Equal(t, 0, code, stderr)
	var js map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &js))
	assert.Equal(t, "hi", js["text"])

	out, stderr, code = runCmd(t, "6869", append(args, "--format", "cbor")...)
	require.Equal(t, 0, code, stderr)
	raw, err := hex.DecodeString(strings.TrimSpace(out))
	require.NoError(t, err)
	var cb map[string]any
	require.NoError(t, cbor.Unmarshal(raw, &cb))
	assert.Equal(t, []byte("hi"), cb["text"])

	out, stderr, code = runCmd(t, "6869", append(args, "--format", "spew")...)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "text")
	assert.Contains(t, out, "hi")
}

func TestBinaryTextRoundTripsThroughYAML(t *testing.T) {
	schema := writeFile(t, "schema.yaml", testSchema)

	out, stderr, code := runCmd(t, "ff00fe", "decode", "--schema", schema, "--struct", "note", "--hex", "--format", "yaml")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "!!binary")

	out, stderr, code = runCmd(t, out, "encode", "--schema", schema, "--struct", "note", "--hex")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "ff00fe\n", out)
}

func TestMessagesAndFrames(t *testing.T) {
	schema := writeFile(t, "schema.yaml", testSchema)

	out, stderr, code := runCmd(t, "id: 7\ndata: [9]\n", "encode", "--schema", schema, "--message", "packet", "--hex")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "010003070109\n", out)

	framed, stderr, code := runCmd(t, "id: 7\ndata: [9]\n", "encode", "--schema", schema, "--message", "packet", "--hex", "--frame", "--codec", "zstd")
	require.Equal(t, 0, code, stderr)

	out, stderr, code = runCmd(t, framed, "decode", "--schema", schema, "--hex", "--frame", "--format", "json")
	require.Equal(t, 0, code, stderr)
	var js map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &js))
	assert.Equal(t, float64(7), js["id"])
	assert.Equal(t, []any{float64(9)}, js["data"])
}

func TestMinimize(t *testing.T) {
	schema := writeFile(t, "schema.yaml", testSchema)

	// len claims 5 bytes of data, only 3 follow
	out, stderr, code := runCmd(t, "6405010203", "minimize", "--schema", schema, "--struct", "packet", "--hex")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "striptease.BufferUnderrunError")
	assert.Contains(t, out, "stdin: 5 -> ")

	_, _, code = runCmd(t, "6403010203", "minimize", "--schema", schema, "--struct", "packet", "--hex")
	assert.Equal(t, 1, code)
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	schema := writeFile(t, "schema.yaml", testSchema)
	config := writeFile(t, "stripctl.toml", "schema = \""+schema+"\"\nstruct = \"packet\"\nformat = \"yaml\"\nhex = true\n")

	out, stderr, code := runCmd(t, "6401aa", "decode", "--config", config, "--format", "json")
	require.Equal(t, 0, code, stderr)
	var js map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &js))
	assert.Equal(t, float64(100), js["id"])
}

func TestUsageErrors(t *testing.T) {
	_, stderr, code := runCmd(t, "")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage")

	_, _, code = runCmd(t, "", "explode")
	assert.Equal(t, 2, code)

	_, stderr, code = runCmd(t, "", "decode")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "no schema")

	_, _, code = runCmd(t, "", "decode", "--schema", "x.yaml", "--format", "xml")
	assert.Equal(t, 2, code)

	schema := writeFile(t, "schema.yaml", testSchema)
	_, _, code = runCmd(t, "zz", "decode", "--schema", schema, "--struct", "packet", "--hex")
	assert.Equal(t, 1, code)

	_, _, code = runCmd(t, "", "decode", "--schema", schema, "--struct", "nope")
	assert.Equal(t, 1, code)

	_, _, code = runCmd(t, "", "decode", "--help")
	assert.Equal(t, 0, code)
}
