package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/am43ctl/internal/config"
	"github.com/danmuck/am43ctl/internal/inspect"
	"github.com/danmuck/am43ctl/internal/logging"
	"github.com/danmuck/am43ctl/internal/observability"
)

const usage = `usage: am43ctl <command> [flags]

commands:
  decode [-json] <hex>...        decode envelopes given as hex
  encode -f messages.toml [-json] encode every [[message]] in a file
  types                          print the dispatch table
  serve [-config am43.toml]      run the inspection HTTP API
  config -output path [-kind tool|message] [-force]
                                 write a starter config
  config -validate -input path   validate a tool config
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	logging.ConfigureRuntime()

	var err error
	switch args[0] {
	case "decode":
		err = runDecode(args[1:], stdout)
	case "encode":
		err = runEncode(args[1:], stdout)
	case "types":
		err = writeJSON(stdout, inspect.NewService(nil, nil).Routes())
	case "serve":
		err = runServe(args[1:])
	case "config":
		err = runConfig(args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "am43ctl: unknown command %q\n\n%s", args[0], usage)
		return 2
	}
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "am43ctl: %v\n", err)
		return 1
	}
	return 0
}

func runDecode(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print full JSON reports")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("decode: no hex input")
	}
	svc := inspect.NewService(nil, nil)
	var failed int
	for _, in := range fs.Args() {
		report, err := svc.DecodeHex(in)
		if err != nil {
			failed++
			fmt.Fprintf(stdout, "%s\terror: %v\n", in, err)
			continue
		}
		if *asJSON {
			if err := writeJSON(stdout, report); err != nil {
				return err
			}
			continue
		}
		payload, err := json.Marshal(report.Payload)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s\t%s %s %s %s\n", report.Hex, report.Direction, report.Type, report.Shape, payload)
	}
	if failed > 0 {
		return fmt.Errorf("decode: %d of %d inputs failed", failed, fs.NArg())
	}
	return nil
}

func runEncode(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	file := fs.String("f", "", "message file (TOML)")
	asJSON := fs.Bool("json", false, "print full JSON reports")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*file) == "" {
		return fmt.Errorf("encode: -f is required")
	}
	reports, err := inspect.NewService(nil, nil).EncodeFile(*file)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(stdout, reports)
	}
	for _, r := range reports {
		fmt.Fprintf(stdout, "%s\t%s %s\n", r.Hex, r.Direction, r.Type)
	}
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	path := fs.String("config", "", "tool config path (defaults built in)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg := config.Default()
	if *path != "" {
		loaded, err := config.Load(*path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	logCfg := cfg.Log.Logging()
	logging.ApplyEnvOverrides(&logCfg)
	logger := observability.InitLogger("am43ctl", logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	srv := inspect.NewServer(inspect.NewService(nil, &logger), cfg.Server)
	return srv.Run(ctx)
}

func runConfig(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	kind := fs.String("kind", "tool", "config kind: tool|message")
	output := fs.String("output", "am43.toml", "output path for config template")
	validate := fs.Bool("validate", false, "validate an existing tool config")
	input := fs.String("input", "am43.toml", "config path for validation")
	force := fs.Bool("force", false, "overwrite existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *validate {
		if _, err := config.Load(*input); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Validated config at %s\n", *input)
		return nil
	}
	if err := config.WriteTemplate(*output, *kind, *force); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s config template to %s\n", *kind, *output)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
