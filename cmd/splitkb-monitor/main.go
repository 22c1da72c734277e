// splitkb-monitor plays the USB host for a simulated keyboard half.
//
// It opens the emulated HID interface made by 'splitkb fifo', checks the
// published report descriptor, configures the device and prints every
// report it receives.
//
// Usage:
//
//	splitkb-monitor [options] <usb-dir>
//
// Options:
//
//	-v, --verbose     Enable verbose (debug) logging
//	    --json        Use JSON log format
//	-n, --count N     Number of reports to read before exiting (default: unlimited)
//	-t, --text        Print the text typed instead of each report
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/ardnew/splitkb/pkg"
	"github.com/ardnew/splitkb/report"
	usbfifo "github.com/ardnew/splitkb/usb/fifo"
)

// component identifies this executable for structured logging.
const component = pkg.ComponentUSB

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "splitkb-monitor: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		verbose bool
		jsonLog bool
		count   int
		text    bool
	)
	fs := pflag.NewFlagSet("splitkb-monitor", pflag.ContinueOnError)
	fs.BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug) logging")
	fs.BoolVar(&jsonLog, "json", false, "use JSON log format (default when stderr is not a terminal)")
	fs.IntVarP(&count, "count", "n", 0, "number of reports to read before exiting (0: unlimited)")
	fs.BoolVarP(&text, "text", "t", false, "print the text typed instead of each report")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: splitkb-monitor [options] <usb-dir>\n\nOptions:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("missing USB directory argument")
	}
	dir := fs.Arg(0)

	if verbose {
		pkg.SetLogLevel(slog.LevelDebug)
	} else {
		pkg.SetLogLevel(slog.LevelInfo)
	}
	if jsonLog || !term.IsTerminal(int(os.Stderr.Fd())) {
		pkg.SetLogFormat(pkg.LogFormatJSON)
	}

	h, err := usbfifo.OpenHost(dir)
	if err != nil {
		return err
	}
	defer h.Close()
	pkg.LogInfo(component, "keyboard found", "dir", dir, "descriptorBytes", len(h.Descriptor()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := h.Configure(true); err != nil {
		return err
	}
	defer func() {
		if err := h.Configure(false); err != nil {
			pkg.LogWarn(component, "deconfigure failed", "error", err)
		}
	}()

	out := reportPrinter(os.Stdout)
	if text {
		out = textPrinter(os.Stdout)
	}

	for n := 1; count == 0 || n <= count; n++ {
		r, err := h.ReadReport(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				pkg.LogInfo(component, "shutting down", "reports", n-1)
				return nil
			}
			return err
		}
		pkg.LogDebug(component, "report", "num", n, "raw", r.String())
		out(r)
	}
	if text {
		fmt.Fprintln(os.Stdout)
	}
	pkg.LogInfo(component, "report limit reached", "count", count)
	return nil
}

// reportPrinter prints one line per report naming the keys held.
func reportPrinter(w io.Writer) func(report.KeyboardReport) {
	n := 0
	return func(r report.KeyboardReport) {
		n++
		fmt.Fprintf(w, "%4d  %s  %s\n", n, r.String(), describe(r))
	}
}

// textPrinter prints the characters typed by each newly pressed key.
func textPrinter(w io.Writer) func(report.KeyboardReport) {
	var prev report.KeyboardReport
	return func(r report.KeyboardReport) {
		w.Write(typed(&prev, &r))
		prev = r
	}
}
