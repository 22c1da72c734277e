// splitkb runs one half of a split keyboard on a development machine.
//
// Without switch hardware the matrix is driven by a scan trace, the
// serial line between halves is a pair of named pipes, and the USB HID
// interface is emulated in a directory read by splitkb-monitor.
//
// Usage:
//
//	splitkb fifo  [options]               create link and USB pipes
//	splitkb run   [options] <trace>       run a half from a scan trace
//	splitkb check [options]               validate configuration and keymap
//	splitkb trace info <trace>            describe a trace
//	splitkb trace compile <script> <out>  build a trace from a text script
//	splitkb trace convert <in> <out>      rewrite a trace with new compression
//
// Common options:
//
//	-v, --verbose       Enable verbose (debug) logging
//	    --log-level L   Minimum log level: debug, info, warn or error (default: info)
//	    --json          Use JSON log format (default when stderr is piped)
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/ardnew/splitkb/pkg"
)

// component identifies this executable for structured logging.
const component = pkg.ComponentFirmware

// errUsage marks command line mistakes; main prints usage for them.
var errUsage = errors.New("usage")

type command struct {
	name    string
	summary string
	run     func(args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"fifo", "create link and USB pipes", runFifo},
		{"run", "run a half from a scan trace", runHalf},
		{"check", "validate configuration and keymap", runCheck},
		{"trace", "inspect, compile or convert scan traces", runTrace},
	}
}

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "splitkb: %v\n", err)
		if errors.Is(err, errUsage) {
			printUsage()
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func dispatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command: %w", errUsage)
	}
	if args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage()
		return nil
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: splitkb <command> [options] [args]")
	fmt.Fprintln(os.Stderr)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Run 'splitkb <command> --help' for command options.")
}

// logFlags are accepted by every command.
type logFlags struct {
	verbose bool
	json    bool
	level   string
}

func (l *logFlags) add(fs *pflag.FlagSet) {
	fs.BoolVarP(&l.verbose, "verbose", "v", false, "enable verbose (debug) logging")
	fs.StringVar(&l.level, "log-level", "info", "minimum log level: debug, info, warn or error")
	fs.BoolVar(&l.json, "json", false, "use JSON log format (default when stderr is not a terminal)")
}

func (l *logFlags) apply() error {
	level, err := pkg.ParseLogLevel(l.level)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	if l.verbose {
		level = slog.LevelDebug
	}
	pkg.SetLogLevel(level)
	if l.json || !term.IsTerminal(int(os.Stderr.Fd())) {
		pkg.SetLogFormat(pkg.LogFormatJSON)
	}
	return nil
}

// newFlagSet returns a flag set for the named command with the logging
// flags registered.
func newFlagSet(name, usage string, l *logFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("splitkb "+name, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: splitkb %s %s\n\nOptions:\n", name, usage)
		fs.PrintDefaults()
	}
	l.add(fs)
	return fs
}

// parse parses args and checks the positional argument count.
func parse(fs *pflag.FlagSet, l *logFlags, args []string, nargs int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if err := l.apply(); err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() != nargs {
		return nil, fmt.Errorf("%s takes %d argument(s), got %d: %w",
			fs.Name(), nargs, fs.NArg(), errUsage)
	}
	return fs.Args(), nil
}
