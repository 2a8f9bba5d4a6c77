// stripctl decodes, encodes and minimizes binary data described by a
// striptease YAML schema.
//
//	stripctl decode --schema proto.yaml --struct header --hex dump.txt
//	stripctl encode --schema proto.yaml --message store_request values.yaml
//	stripctl minimize --schema proto.yaml --struct header crash.bin
package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgryski/go-ddmin"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/Prakti/striptease"
	"github.com/Prakti/striptease/frame"
	"github.com/Prakti/striptease/message"
	"github.com/Prakti/striptease/schemafile"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

const usage = `usage: stripctl <command> [flags] [file...]

commands:
  decode     decode binary input and print its values
  encode     encode a YAML values document
  minimize   shrink an input that fails to decode

Run "stripctl <command> --help" for the flags of a command.
`

// invocation is one parsed command line.
type invocation struct {
	cmd     string
	cfg     Config
	message string
	framed  bool
	files   []string
	log     zerolog.Logger

	schema   *striptease.Struct
	registry *message.Registry

	stdin  io.Reader
	stdout io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(stderr, usage)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	var exec func(*invocation) error
	switch args[0] {
	case "decode":
		exec = decodeCmd
	case "encode":
		exec = encodeCmd
	case "minimize":
		exec = minimizeCmd
	default:
		fmt.Fprintf(stderr, "stripctl: unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	inv, err := parse(args[0], args[1:], stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "stripctl: %v\n", err)
		return 2
	}
	inv.stdin, inv.stdout = stdin, stdout

	inv.log, err = initLogger(stderr, inv.cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "stripctl: %v\n", err)
		return 2
	}

	if err := inv.loadSchema(); err != nil {
		inv.log.Error().Err(err).Msg("load schema")
		return 1
	}
	if err := exec(inv); err != nil {
		inv.log.Error().Err(err).Str("cmd", inv.cmd).Msg("failed")
		return 1
	}
	return 0
}

func parse(cmd string, args []string, stderr io.Writer) (*invocation, error) {
	inv := &invocation{cmd: cmd}

	var (
		configPath string
		flagCfg    = defaultConfig()
	)
	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&configPath, "config", "c", "", "TOML config file")
	fs.StringVarP(&flagCfg.Schema, "schema", "s", flagCfg.Schema, "YAML schema file")
	fs.StringVar(&flagCfg.Struct, "struct", flagCfg.Struct, "struct to use from the schema")
	fs.StringVarP(&inv.message, "message", "m", "", "message type to use instead of a struct")
	fs.StringVarP(&flagCfg.Format, "format", "f", flagCfg.Format, "output format: "+strings.Join(formats, ", "))
	fs.BoolVarP(&flagCfg.Hex, "hex", "x", flagCfg.Hex, "binary input and output is hex text")
	fs.BoolVar(&inv.framed, "frame", false, "binary data is wrapped in a frame")
	fs.StringVar(&flagCfg.Codec, "codec", flagCfg.Codec, "compression for written frames")
	fs.Uint64Var(&flagCfg.MaxPayloadBytes, "max-payload-bytes", flagCfg.MaxPayloadBytes, "frame payload limit")
	fs.StringVar(&flagCfg.LogLevel, "log-level", flagCfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	inv.files = fs.Args()

	cfg := defaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = loadConfig(configPath); err != nil {
			return nil, err
		}
	}

	// flags win over the config file
	if fs.Changed("schema") {
		cfg.Schema = flagCfg.Schema
	}
	if fs.Changed("struct") {
		cfg.Struct = flagCfg.Struct
	}
	if fs.Changed("format") {
		cfg.Format = flagCfg.Format
	}
	if fs.Changed("hex") {
		cfg.Hex = flagCfg.Hex
	}
	if fs.Changed("codec") {
		cfg.Codec = flagCfg.Codec
	}
	if fs.Changed("max-payload-bytes") {
		cfg.MaxPayloadBytes = flagCfg.MaxPayloadBytes
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = flagCfg.LogLevel
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Schema == "" {
		return nil, errors.New("no schema given (--schema or schema in the config file)")
	}
	if cfg.Struct == "" && inv.message == "" && cmd == "encode" {
		return nil, errors.New("encode needs --struct or --message")
	}

	inv.cfg = cfg
	return inv, nil
}

func (inv *invocation) loadSchema() error {
	f, err := schemafile.Load(inv.cfg.Schema)
	if err != nil {
		return err
	}
	if inv.cfg.Struct != "" {
		inv.schema, err = f.Struct(inv.cfg.Struct)
		return err
	}
	inv.registry, err = f.Registry()
	return err
}

// inputs returns the contents of every file argument, or of stdin if there
// are none.
func (inv *invocation) inputs() ([]namedInput, error) {
	if len(inv.files) == 0 {
		b, err := io.ReadAll(inv.stdin)
		if err != nil {
			return nil, err
		}
		return []namedInput{{"stdin", b}}, nil
	}
	out := make([]namedInput, 0, len(inv.files))
	for _, name := range inv.files {
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		out = append(out, namedInput{name, b})
	}
	return out, nil
}

type namedInput struct {
	name string
	data []byte
}

// binary turns raw input into bytes, decoding hex text if configured.
func (inv *invocation) binary(in []byte) ([]byte, error) {
	if !inv.cfg.Hex {
		return in, nil
	}
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':':
			return -1
		}
		return r
	}, string(in))
	clean = strings.TrimPrefix(clean, "0x")
	return hex.DecodeString(clean)
}

// decode decodes one input, unwrapping a frame first if asked to. The
// returned name is the message type, or the struct name.
func (inv *invocation) decode(b []byte) (string, striptease.Values, []byte, error) {
	if inv.framed {
		f, err := frame.ReadFrame(bytes.NewReader(b), inv.cfg.limits())
		if err != nil {
			return "", nil, nil, err
		}
		b = f.Payload
	}
	if inv.schema != nil {
		rest, values, err := striptease.Decode(inv.schema, b, nil)
		return inv.schema.Name(), values, rest, err
	}
	m, err := inv.registry.Decode(b)
	if err != nil {
		return "", nil, nil, err
	}
	return m.Name, m.Values, nil, nil
}

func decodeCmd(inv *invocation) error {
	ins, err := inv.inputs()
	if err != nil {
		return err
	}
	for _, in := range ins {
		b, err := inv.binary(in.data)
		if err != nil {
			return fmt.Errorf("%s: %w", in.name, err)
		}
		name, values, rest, err := inv.decode(b)
		if err != nil {
			return fmt.Errorf("%s: %w", in.name, err)
		}
		if len(rest) > 0 {
			inv.log.Warn().Str("input", in.name).Int("bytes", len(rest)).Msg("trailing bytes not covered by the schema")
		}
		inv.log.Debug().Str("input", in.name).Str("type", name).Msg("decoded")
		if err := writeValues(inv.stdout, inv.cfg.Format, values); err != nil {
			return err
		}
	}
	return nil
}

func encodeCmd(inv *invocation) error {
	ins, err := inv.inputs()
	if err != nil {
		return err
	}
	codec, err := frame.ParseCodec(inv.cfg.Codec)
	if err != nil {
		return err
	}

	for _, in := range ins {
		values, err := readValues(in.data)
		if err != nil {
			return fmt.Errorf("%s: %w", in.name, err)
		}

		var b []byte
		switch {
		case inv.message != "":
			if inv.registry == nil {
				return errors.New("--message cannot be combined with --struct")
			}
			b, err = inv.registry.EncodeName(inv.message, values)
		default:
			b, err = inv.schema.Encode(values)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", in.name, err)
		}

		if inv.framed {
			if b, err = frame.AppendFrame(nil, codec, 0, b, inv.cfg.limits()); err != nil {
				return err
			}
		}
		if inv.cfg.Hex {
			_, err = fmt.Fprintln(inv.stdout, hex.EncodeToString(b))
		} else {
			_, err = inv.stdout.Write(b)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func minimizeCmd(inv *invocation) error {
	ins, err := inv.inputs()
	if err != nil {
		return err
	}
	for _, in := range ins {
		b, err := inv.binary(in.data)
		if err != nil {
			return fmt.Errorf("%s: %w", in.name, err)
		}
		_, _, _, decErr := inv.decode(b)
		if decErr == nil {
			return fmt.Errorf("%s: input decodes without error", in.name)
		}
		want := failureKind(decErr)
		inv.log.Info().Str("input", in.name).Str("failure", want).Int("bytes", len(b)).Msg("minimizing")

		small := b
		if len(b) > 1 {
			small = ddmin.Minimize(b, func(d []byte) ddmin.Result {
				_, _, _, err := inv.decode(d)
				switch {
				case err == nil:
					return ddmin.Pass
				case failureKind(err) == want:
					return ddmin.Fail
				}
				return ddmin.Unresolved
			})
		}

		_, _, _, smallErr := inv.decode(small)
		fmt.Fprintf(inv.stdout, "%s: %d -> %d bytes, %s: %v\n%s\n",
			in.name, len(b), len(small), want, smallErr, hex.EncodeToString(small))
	}
	return nil
}

// failureKind names the innermost error of err's chain by type, and by text
// for plain sentinel errors.
func failureKind(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	kind := fmt.Sprintf("%T", err)
	if kind == "*errors.errorString" {
		kind += ": " + err.Error()
	}
	return kind
}
