package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/davecgh/go-spew/spew"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/Prakti/striptease"
)

var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

var cborMode cbor.EncMode

func init() {
	var err error
	cborMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("stripctl: CBOR encoder initialization failed: " + err.Error())
	}
}

// writeValues prints values to w in format.
func writeValues(w io.Writer, format string, values striptease.Values) error {
	switch format {
	case "spew":
		spewConfig.Fdump(w, plainValues(values, keepBytes))
		return nil

	case "yaml":
		// yaml.v3 emits strings that are not valid UTF-8 as !!binary, which
		// reads back as the same bytes
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plainValues(values, bytesAsString)); err != nil {
			return err
		}
		return enc.Close()

	case "json":
		b, err := json.MarshalIndent(plainValues(values, textOrBytes), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err

	case "cbor":
		b, err := cborMode.Marshal(plainValues(values, keepBytes))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, hex.EncodeToString(b))
		return err
	}
	return fmt.Errorf("unsupported format %q", format)
}

func plainValues(values striptease.Values, bytesFn func([]byte) any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = plain(v, bytesFn)
	}
	return out
}

func plain(v striptease.Value, bytesFn func([]byte) any) any {
	if l, ok := v.List(); ok {
		out := make([]any, len(l))
		for i, e := range l {
			out[i] = plain(e, bytesFn)
		}
		return out
	}
	if b, ok := v.Bytes(); ok {
		return bytesFn(b)
	}
	return v.Interface()
}

func keepBytes(b []byte) any { return b }

func bytesAsString(b []byte) any { return string(b) }

// textOrBytes keeps JSON output readable: valid UTF-8 becomes a string and
// anything else is base64 encoded by encoding/json.
func textOrBytes(b []byte) any {
	if utf8.Valid(b) {
		return string(b)
	}
	return b
}

// readValues parses a YAML mapping of field names to values.
func readValues(data []byte) (striptease.Values, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("values: %w", err)
	}
	values := make(striptease.Values, len(raw))
	for k, x := range raw {
		if err := values.Set(k, x); err != nil {
			return nil, fmt.Errorf("values: %w", err)
		}
	}
	return values, nil
}
