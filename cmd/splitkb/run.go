package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ardnew/splitkb/config"
	"github.com/ardnew/splitkb/firmware"
	"github.com/ardnew/splitkb/layout"
	linkfifo "github.com/ardnew/splitkb/link/fifo"
	"github.com/ardnew/splitkb/matrix"
	"github.com/ardnew/splitkb/pkg"
	"github.com/ardnew/splitkb/pkg/prof"
	"github.com/ardnew/splitkb/trace"
	usbfifo "github.com/ardnew/splitkb/usb/fifo"
)

// usbPollPeriod is how often the USB interface is serviced, standing in
// for the USB interrupt.
const usbPollPeriod = time.Millisecond

func runHalf(args []string) error {
	var (
		lf          logFlags
		hf          halfFlags
		linkDir     string
		usbDir      string
		record      string
		compression string
		linger      time.Duration
		profile     string
	)
	fs := newFlagSet("run", "[options] <trace>", &lf)
	hf.add(fs)
	fs.StringVar(&linkDir, "link", "", "serial line directory made by 'splitkb fifo' (default: no peer)")
	fs.StringVar(&usbDir, "usb", "", "USB interface directory made by 'splitkb fifo' (required)")
	fs.StringVar(&record, "record", "", "write the scans fed to the half to this trace")
	fs.StringVar(&compression, "compression", "zstd", "compression for --record: none, zstd or lz4")
	fs.DurationVar(&linger, "linger", -1, "stop this long after the trace ends (default: run until interrupted)")
	fs.StringVar(&profile, "profile", "", "write CPU, heap, goroutine, block and mutex profiles to this directory")
	rest, err := parse(fs, &lf, args, 1)
	if err != nil {
		return err
	}
	if usbDir == "" {
		return fmt.Errorf("--usb is required: %w", errUsage)
	}

	cfg, km, err := hf.load()
	if err != nil {
		return err
	}

	player, err := openTrace(rest[0], cfg)
	if err != nil {
		return err
	}
	var scanner matrix.Scanner = player
	if record != "" {
		w, closeRecord, err := createTrace(record, compression, cfg)
		if err != nil {
			return err
		}
		defer closeRecord()
		scanner = trace.NewRecorder(player, w)
	}

	dev, err := usbfifo.OpenDevice(usbDir)
	if err != nil {
		return err
	}
	defer dev.Close()

	deps := firmware.Deps{
		Scanner:  scanner,
		Keymap:   km,
		USB:      dev,
		OnCustom: onCustom,
	}
	var port *linkfifo.Port
	if linkDir != "" {
		if port, err = linkfifo.Open(linkDir, cfg.Side); err != nil {
			return err
		}
		defer port.Close()
		deps.Link = port
	}

	kb, err := firmware.New(cfg, deps)
	if err != nil {
		return err
	}

	if profile != "" {
		session, err := prof.Start(profile)
		if err != nil {
			return err
		}
		defer func() {
			if err := session.Stop(); err != nil {
				pkg.LogError(component, "profiles not saved", "dir", profile, "error", err)
				return
			}
			pkg.LogInfo(component, "profiles saved", "dir", profile)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if port != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := port.Serve(ctx, kb.ReceiveByte); err != nil && !errors.Is(err, context.Canceled) {
				pkg.LogError(component, "link receive stopped", "error", err)
				cancel()
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		pollUSB(ctx, kb)
	}()

	pkg.LogInfo(component, "half running",
		"side", cfg.Side.String(),
		"trace", rest[0],
		"ticks", player.End(),
		"period", cfg.TickPeriod())

	err = runTicks(ctx, kb, cfg, player, linger)
	cancel()
	wg.Wait()

	s := kb.Stats()
	pkg.LogInfo(component, "half stopped",
		"ticks", s.Ticks,
		"scanErrors", s.ScanErrors,
		"events", s.LocalEvents,
		"forwarded", s.Forwarded,
		"reports", s.Reports,
		"reportErrors", s.ReportErrors,
		"linkDropped", kb.LinkDropped())

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runTicks drives kb at the configured rate. With linger >= 0 it returns
// once the trace has been replayed and linger has passed.
func runTicks(ctx context.Context, kb *firmware.Keyboard, cfg *config.Config, p *trace.Player, linger time.Duration) error {
	if linger < 0 {
		return kb.Run(ctx, cfg.TickPeriod())
	}

	ticker := time.NewTicker(cfg.TickPeriod())
	defer ticker.Stop()

	var deadline time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := kb.Tick(ctx); err != nil {
				return err
			}
			if deadline.IsZero() && p.Done() && p.Tick() > p.End() {
				deadline = now.Add(linger)
				pkg.LogDebug(component, "trace replayed", "tick", p.Tick())
			}
			if !deadline.IsZero() && !now.Before(deadline) {
				return nil
			}
		}
	}
}

func pollUSB(ctx context.Context, kb *firmware.Keyboard) {
	ticker := time.NewTicker(usbPollPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if kb.PollUSB() {
				pkg.LogDebug(component, "usb configuration changed")
			}
		}
	}
}

// onCustom logs custom actions. The hardware firmware enters its
// bootloader on release; a simulated half has nowhere to go.
func onCustom(ce layout.CustomEvent) {
	switch ce.Kind {
	case layout.CustomPress:
		pkg.LogInfo(component, "custom action pressed", "value", ce.Value)
	case layout.CustomRelease:
		pkg.LogInfo(component, "custom action released", "value", ce.Value)
	}
}

// openTrace loads a trace for cfg's matrix.
func openTrace(path string, cfg *config.Config) (*trace.Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := trace.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer r.Close()

	h := r.Header()
	if int(h.Rows) != cfg.Matrix.Rows || int(h.Cols) != cfg.Matrix.Cols {
		return nil, fmt.Errorf("%s: trace is %dx%d, matrix is %dx%d: %w",
			path, h.Rows, h.Cols, cfg.Matrix.Rows, cfg.Matrix.Cols, pkg.ErrTrace)
	}
	if h.Side != cfg.Side {
		pkg.LogWarn(component, "trace recorded on the other half",
			"trace", h.Side.String(), "running", cfg.Side.String())
	}
	if h.TickRate != 0 && int(h.TickRate) != cfg.TickRate {
		pkg.LogWarn(component, "trace tick rate differs",
			"trace", h.TickRate, "running", cfg.TickRate)
	}
	return trace.NewPlayer(r)
}

// createTrace creates a trace for cfg's matrix. The returned function
// flushes and closes it.
func createTrace(path, compression string, cfg *config.Config) (*trace.Writer, func(), error) {
	c, err := trace.ParseCompression(compression)
	if err != nil {
		return nil, nil, fmt.Errorf("--compression: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	w, err := trace.NewWriter(f, c, trace.Header{
		Rows:     uint8(cfg.Matrix.Rows),
		Cols:     uint8(cfg.Matrix.Cols),
		TickRate: uint32(cfg.TickRate),
		Side:     cfg.Side,
	})
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return w, func() {
		if err := errors.Join(w.Close(), f.Close()); err != nil {
			pkg.LogError(component, "trace not saved", "path", path, "error", err)
			return
		}
		pkg.LogInfo(component, "trace saved", "path", path, "records", w.Count())
	}, nil
}
