// msbindump prints the structure of legacy Microsoft binary streams:
// PowerPoint and Office drawing record trees, BIFF record lists, Visio
// chunk streams and Outlook message property streams. It also evaluates
// spreadsheet formulas against inline cells or a BIFF workbook stream.
//
// Inputs are single streams already extracted from their compound file.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

var version = "dev"

type command struct {
	name    string
	summary string
	run     func(env *env, args []string) error
}

var commands = []command{
	{"records", "dump an 8-byte-header record tree (PowerPoint, Escher)", runRecords},
	{"biff", "list the records of a BIFF workbook stream", runBiff},
	{"chunks", "list the chunks of a Visio stream", runChunks},
	{"count", "histogram of record or chunk types", runCount},
	{"eval", "evaluate formulas", runEval},
	{"recalc", "re-evaluate the formulas of a BIFF stream against their cached results", runRecalc},
	{"msg", "group the property streams of an extracted Outlook message", runMsg},
}

// env carries what every subcommand needs: parsed global settings, the
// standard streams and the logger.
type env struct {
	cfg    config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// usageError makes run exit with status 2.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("msbindump", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)

	configPath := fs.String("config", "", "JSONC configuration file")
	format := fs.StringP("format", "o", "", "output format: text, json, yaml or cbor")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn or error")
	logFormat := fs.String("log-format", "", "log format: text or json")
	showVersion := fs.BoolP("version", "v", false, "show version")
	fs.Usage = func() { fmt.Fprint(stderr, usageText(fs)) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *showVersion {
		fmt.Fprintln(stdout, version)
		return 0
	}

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		cfg = loaded
	}
	if *format != "" {
		cfg.Format = *format
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFormat != "" {
		cfg.LogFormat = *logFormat
	}
	if err := cfg.validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	logger, err := newLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	rest := fs.Args()
	if len(rest) < 1 {
		fs.Usage()
		return 2
	}
	e := &env{cfg: cfg, stdin: stdin, stdout: stdout, stderr: stderr, logger: logger}
	for _, c := range commands {
		if c.name != rest[0] {
			continue
		}
		if err := c.run(e, rest[1:]); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				return 0
			}
			fmt.Fprintf(stderr, "msbindump %s: %v\n", c.name, err)
			var ue *usageError
			if errors.As(err, &ue) {
				return 2
			}
			return 1
		}
		return 0
	}
	fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
	fs.Usage()
	return 2
}

func usageText(fs *pflag.FlagSet) string {
	var b strings.Builder
	b.WriteString("Usage:\n\n msbindump [global flags] <command> [flags] <input>\n\nCommands:\n\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-8s %s\n", c.name, c.summary)
	}
	b.WriteString("\nGlobal flags:\n\n")
	b.WriteString(fs.FlagUsages())
	b.WriteString("\nUse '-' as the input to read from STDIN. Run 'msbindump <command> -h' for command flags.\n")
	return b.String()
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lv}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q", format)
}

// newFlagSet returns the flag set of a subcommand.
func (e *env) newFlagSet(name, args string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("msbindump "+name, pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage: msbindump %s [flags] %s\n\n%s", name, args, fs.FlagUsages())
	}
	return fs
}
