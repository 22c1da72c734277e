package firmware

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ardnew/splitkb/config"
	"github.com/ardnew/splitkb/debounce"
	"github.com/ardnew/splitkb/event"
	"github.com/ardnew/splitkb/keymap"
	"github.com/ardnew/splitkb/layout"
	"github.com/ardnew/splitkb/link"
	"github.com/ardnew/splitkb/matrix"
	"github.com/ardnew/splitkb/pkg"
	"github.com/ardnew/splitkb/report"
	"github.com/ardnew/splitkb/usb"
)

// Deps are the collaborators of a keyboard half.
type Deps struct {
	// Scanner reads the half's switch matrix. Required.
	Scanner matrix.Scanner

	// Keymap is the layout table. Nil selects the configured keymap.
	Keymap *keymap.Keymap

	// Link is the serial line to the peer half. Nil runs the half alone;
	// events that would be forwarded are discarded.
	Link io.ByteWriter

	// USB is the HID interface. Required.
	USB usb.Transport

	// OnCustom is called with each custom action edge. Hardware builds
	// enter the bootloader on release.
	OnCustom func(layout.CustomEvent)
}

type usbState struct {
	transport usb.Transport
	sender    *usb.Sender
}

// Keyboard is one keyboard half.
type Keyboard struct {
	cfg *config.Config

	// Tick context only.
	scanner     matrix.Scanner
	debouncer   *debounce.Debouncer
	raw         matrix.Grid
	tx          *link.Transmitter
	mirror      link.Mirror
	mirrorLocal bool
	report      report.KeyboardReport
	onCustom    func(layout.CustomEvent)
	stats       Stats

	// Serial receive context only.
	receiver *link.Receiver

	layout *pkg.Exclusive[*layout.Layout]
	usb    *pkg.Exclusive[usbState]

	mutex   sync.Mutex
	running bool
}

// Stats counts tick outcomes.
type Stats struct {
	Ticks         uint64
	ScanErrors    uint64
	LocalEvents   uint64
	Forwarded     uint64
	ForwardErrors uint64
	Reports       uint64
	ReportErrors  uint64
	Overflows     uint64
}

// New creates a keyboard half from cfg.
func New(cfg *config.Config, deps Deps) (*Keyboard, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Scanner == nil || deps.USB == nil {
		return nil, fmt.Errorf("scanner and usb are required: %w", pkg.ErrInvalidParameter)
	}

	km := deps.Keymap
	if km == nil {
		var err error
		if km, err = cfg.LoadKeymap(); err != nil {
			return nil, err
		}
	}
	if km.Layers.Rows() < cfg.Matrix.Rows || km.Layers.Cols() != cfg.LayoutCols {
		return nil, fmt.Errorf("keymap is %dx%d, half needs %d rows in %d columns: %w",
			km.Layers.Rows(), km.Layers.Cols(), cfg.Matrix.Rows, cfg.LayoutCols, pkg.ErrInvalidParameter)
	}
	l, err := km.NewLayout()
	if err != nil {
		return nil, err
	}

	k := &Keyboard{
		cfg:         cfg,
		scanner:     deps.Scanner,
		debouncer:   debounce.New(cfg.Matrix.Rows, cfg.Matrix.Cols, cfg.Matrix.Debounce),
		raw:         matrix.NewGrid(cfg.Matrix.Rows, cfg.Matrix.Cols),
		mirror:      cfg.Mirror(),
		mirrorLocal: cfg.MirrorLocal(),
		onCustom:    deps.OnCustom,
		receiver:    link.NewReceiver(cfg.LinkCodec()),
		layout:      pkg.NewExclusive(l),
		usb: pkg.NewExclusive(usbState{
			transport: deps.USB,
			sender:    usb.NewSender(deps.USB, cfg.USB.MaxRetries, cfg.USB.SuppressDuplicates),
		}),
	}
	if deps.Link != nil {
		k.tx = link.NewTransmitter(deps.Link, cfg.Link.MaxRetries)
	}

	pkg.LogInfo(pkg.ComponentFirmware, "keyboard half created",
		"side", cfg.Side.String(),
		"rows", cfg.Matrix.Rows,
		"cols", cfg.Matrix.Cols,
		"layers", km.Layers.Count(),
		"linked", k.tx != nil)
	return k, nil
}

// Tick runs one scan, debounce and layout cycle, and on the primary sends
// the resulting report. Faults are logged and absorbed; the only error
// returned is ctx's.
func (k *Keyboard) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k.stats.Ticks++

	var primary bool
	k.usb.Lock(func(u *usbState) { primary = u.transport.Configured() })

	if err := k.scanner.Scan(&k.raw); err != nil {
		k.stats.ScanErrors++
		pkg.LogWarn(pkg.ComponentMatrix, "scan skipped", "tick", k.stats.Ticks, "error", err)
	} else {
		for ev := range k.debouncer.Events(&k.raw) {
			k.route(ev, primary)
		}
	}

	var custom layout.CustomEvent
	k.layout.Lock(func(l **layout.Layout) { custom = (*l).Tick() })
	if custom.Kind != layout.CustomNone && k.onCustom != nil {
		k.onCustom(custom)
	}

	if !primary {
		return nil
	}

	var dropped int
	k.layout.Lock(func(l **layout.Layout) {
		dropped = report.BuildInto(&k.report, (*l).Keycodes())
	})
	if dropped > 0 {
		k.stats.Overflows++
		if pkg.LogEnabled(slog.LevelDebug) {
			pkg.LogDebug(pkg.ComponentReport, "keycodes beyond boot report capacity dropped",
				"dropped", dropped)
		}
	}

	var err error
	k.usb.Lock(func(u *usbState) { err = u.sender.Send(&k.report) })
	if err != nil {
		k.stats.ReportErrors++
	} else {
		k.stats.Reports++
	}
	return nil
}

func (k *Keyboard) route(ev event.Event, primary bool) {
	k.stats.LocalEvents++
	if primary {
		if k.mirrorLocal {
			ev = ev.Transform(k.mirror.Transform)
		}
		k.layout.Lock(func(l **layout.Layout) { (*l).Event(ev) })
		return
	}

	if k.tx == nil {
		pkg.LogDebug(pkg.ComponentFirmware, "no link, event discarded", "event", ev.String())
		return
	}
	if err := k.tx.Send(ev); err != nil {
		k.stats.ForwardErrors++
		return
	}
	k.stats.Forwarded++
}

// ReceiveByte handles one byte from the peer half. It must not be called
// concurrently with itself.
func (k *Keyboard) ReceiveByte(b byte) {
	ev, ok := k.receiver.Feed(b)
	if !ok {
		return
	}
	k.layout.Lock(func(l **layout.Layout) { (*l).Event(ev) })
}

// PollUSB services the USB transport. When the configured state changes
// the last delivered report is forgotten so the next tick reports the
// current state.
func (k *Keyboard) PollUSB() bool {
	var changed bool
	k.usb.Lock(func(u *usbState) {
		if changed = u.transport.Poll(); changed {
			u.sender.Reset()
		}
	})
	return changed
}

// Run calls Tick every period until ctx is done, and returns ctx's error.
// Only one Run may be active at a time.
func (k *Keyboard) Run(ctx context.Context, period time.Duration) error {
	k.mutex.Lock()
	if k.running {
		k.mutex.Unlock()
		return pkg.ErrAlreadyRunning
	}
	k.running = true
	k.mutex.Unlock()

	defer func() {
		k.mutex.Lock()
		k.running = false
		k.mutex.Unlock()
	}()

	pkg.LogDebug(pkg.ComponentFirmware, "tick loop started", "period", period)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			pkg.LogDebug(pkg.ComponentFirmware, "tick loop stopped")
			return ctx.Err()
		case <-ticker.C:
			k.Tick(ctx)
		}
	}
}

// Stats returns tick counters. Call it from the tick context or after Run
// has returned.
func (k *Keyboard) Stats() Stats { return k.stats }

// LinkDropped returns the number of received frames that failed to decode.
func (k *Keyboard) LinkDropped() uint32 { return k.receiver.Dropped() }

// CurrentLayer returns the highest-priority active layer.
func (k *Keyboard) CurrentLayer() uint8 {
	var layer uint8
	k.layout.Lock(func(l **layout.Layout) { layer = (*l).CurrentLayer() })
	return layer
}

// Report returns the last report built. Call it from the tick context.
func (k *Keyboard) Report() report.KeyboardReport { return k.report }
