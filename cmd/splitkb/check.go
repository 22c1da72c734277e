package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ardnew/splitkb/config"
	"github.com/ardnew/splitkb/keymap"
)

func runCheck(args []string) error {
	var (
		lf logFlags
		hf halfFlags
	)
	fs := newFlagSet("check", "[options]", &lf)
	hf.add(fs)
	if _, err := parse(fs, &lf, args, 0); err != nil {
		return err
	}

	cfg, km, err := hf.load()
	if err != nil {
		return err
	}
	if km.Layers.Rows() < cfg.Matrix.Rows || km.Layers.Cols() != cfg.LayoutCols {
		return fmt.Errorf("keymap is %dx%d, configuration needs %d rows in %d columns",
			km.Layers.Rows(), km.Layers.Cols(), cfg.Matrix.Rows, cfg.LayoutCols)
	}
	describe(os.Stdout, cfg, km)
	return nil
}

// describe prints a summary of a validated half.
func describe(w io.Writer, cfg *config.Config, km *keymap.Keymap) {
	source := cfg.Keymap
	if source == "" {
		source = "built-in"
	}
	fmt.Fprintf(w, "side:      %s (peer %s)\n", cfg.Side, cfg.Side.Peer())
	fmt.Fprintf(w, "matrix:    %dx%d, debounce %d ticks, layout %d columns\n",
		cfg.Matrix.Rows, cfg.Matrix.Cols, cfg.Matrix.Debounce, cfg.LayoutCols)
	fmt.Fprintf(w, "tick:      %v\n", cfg.TickPeriod())
	fmt.Fprintf(w, "hold-tap:  %s, timeout %d ticks, tap-hold interval %d ticks\n",
		cfg.HoldTap.Policy, cfg.Ticks(cfg.HoldTap.Timeout), cfg.Ticks(cfg.HoldTap.TapHoldInterval))
	fmt.Fprintf(w, "mirroring: received %t, local when primary %t\n",
		cfg.LinkCodec().Mirrored(), cfg.MirrorLocal())
	fmt.Fprintf(w, "keymap:    %s, %d layers of %dx%d\n",
		source, km.Layers.Count(), km.Layers.Rows(), km.Layers.Cols())
	if len(km.TriStates) > 0 {
		var ts []string
		for _, t := range km.TriStates {
			ts = append(ts, fmt.Sprintf("(%d,%d)->%d", t.A, t.B, t.Layer))
		}
		fmt.Fprintf(w, "tri-state: %s\n", strings.Join(ts, " "))
	}
}
