package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ardnew/splitkb/trace"
)

func runTrace(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("trace needs a subcommand (info, compile, convert): %w", errUsage)
	}
	switch args[0] {
	case "info":
		return runTraceInfo(args[1:])
	case "compile":
		return runTraceCompile(args[1:])
	case "convert":
		return runTraceConvert(args[1:])
	}
	return fmt.Errorf("unknown trace subcommand %q: %w", args[0], errUsage)
}

func runTraceInfo(args []string) error {
	var (
		lf      logFlags
		records bool
	)
	fs := newFlagSet("trace info", "[options] <trace>", &lf)
	fs.BoolVarP(&records, "records", "r", false, "print every record")
	rest, err := parse(fs, &lf, args, 1)
	if err != nil {
		return err
	}

	f, err := os.Open(rest[0])
	if err != nil {
		return err
	}
	defer f.Close()
	r, err := trace.NewReader(f)
	if err != nil {
		return err
	}
	defer r.Close()
	return describeTrace(os.Stdout, r, records)
}

// describeTrace prints r's header and a summary of its records.
func describeTrace(w io.Writer, r *trace.Reader, records bool) error {
	h := r.Header()
	fmt.Fprintf(w, "side:        %s\n", h.Side)
	fmt.Fprintf(w, "matrix:      %dx%d\n", h.Rows, h.Cols)
	fmt.Fprintf(w, "tick rate:   %d Hz\n", h.TickRate)
	fmt.Fprintf(w, "compression: %s\n", r.Compression())

	var count int
	var last uint64
	for rec, err := range r.Records() {
		if err != nil {
			return err
		}
		count++
		last = rec.Tick
		if records {
			g := rec.Grid(int(h.Rows), int(h.Cols))
			fmt.Fprintf(w, "\ntick %d\n%s\n", rec.Tick, g.String())
		}
	}
	fmt.Fprintf(w, "records:     %d\n", count)
	fmt.Fprintf(w, "last tick:   %d", last)
	if h.TickRate > 0 {
		fmt.Fprintf(w, " (%v)", time.Duration(last)*time.Second/time.Duration(h.TickRate))
	}
	fmt.Fprintln(w)
	return nil
}

func runTraceCompile(args []string) error {
	var (
		lf          logFlags
		hf          halfFlags
		compression string
	)
	fs := newFlagSet("trace compile", "[options] <script> <trace>", &lf)
	hf.add(fs)
	fs.StringVar(&compression, "compression", "zstd", "trace compression: none, zstd or lz4")
	rest, err := parse(fs, &lf, args, 2)
	if err != nil {
		return err
	}
	cfg, _, err := hf.load()
	if err != nil {
		return err
	}

	in, err := os.Open(rest[0])
	if err != nil {
		return err
	}
	defer in.Close()

	w, closeTrace, err := createTrace(rest[1], compression, cfg)
	if err != nil {
		return err
	}
	defer closeTrace()
	if err := compileScript(in, w); err != nil {
		return fmt.Errorf("%s: %w", rest[0], err)
	}
	return nil
}

func runTraceConvert(args []string) error {
	var (
		lf          logFlags
		compression string
	)
	fs := newFlagSet("trace convert", "[options] <in> <out>", &lf)
	fs.StringVar(&compression, "compression", "zstd", "output compression: none, zstd or lz4")
	rest, err := parse(fs, &lf, args, 2)
	if err != nil {
		return err
	}
	c, err := trace.ParseCompression(compression)
	if err != nil {
		return fmt.Errorf("--compression: %w", err)
	}

	in, err := os.Open(rest[0])
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(rest[1])
	if err != nil {
		return err
	}
	n, err := convertTrace(out, in, c)
	if err = errors.Join(err, out.Close()); err != nil {
		return err
	}
	fmt.Printf("%s: %d records, %s\n", rest[1], n, c)
	return nil
}

// convertTrace copies the trace in src to dst with compression c.
func convertTrace(dst io.Writer, src io.Reader, c trace.Compression) (int, error) {
	r, err := trace.NewReader(src)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	h := r.Header()
	w, err := trace.NewWriter(dst, c, h)
	if err != nil {
		return 0, err
	}
	for rec, err := range r.Records() {
		if err != nil {
			return w.Count(), err
		}
		g := rec.Grid(int(h.Rows), int(h.Cols))
		if err := w.Write(rec.Tick, &g); err != nil {
			return w.Count(), err
		}
	}
	return w.Count(), w.Close()
}
