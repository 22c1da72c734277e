package keymap

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ardnew/splitkb/event"
	"github.com/ardnew/splitkb/layout"
	"github.com/ardnew/splitkb/pkg"
	"github.com/ardnew/splitkb/report"
)

func at(row, col uint8) event.Coordinate {
	return event.Coordinate{Row: row, Col: col}
}

func TestDefault(t *testing.T) {
	km, err := Default(DefaultOptions())
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if got := km.Layers.Count(); got != 5 {
		t.Errorf("Count() = %d, want 5", got)
	}
	if km.Layers.Rows() != DefaultRows || km.Layers.Cols() != DefaultCols {
		t.Errorf("dimensions = %dx%d, want %dx%d",
			km.Layers.Rows(), km.Layers.Cols(), DefaultRows, DefaultCols)
	}
	if want := []layout.TriState{{A: 1, B: 2, Layer: 3}}; !slices.Equal(km.TriStates, want) {
		t.Errorf("TriStates = %v, want %v", km.TriStates, want)
	}

	tests := []struct {
		name  string
		layer uint8
		c     event.Coordinate
		want  layout.Action
	}{
		{"base J", 0, at(0, 0), layout.Key(report.KeyJ)},
		{"base minus", 0, at(0, 11), layout.Key(report.KeyMinus)},
		{"layer 1 key", 0, at(1, 0), layout.MomentaryLayer(1)},
		{"base semicolon", 0, at(2, 5), layout.Key(report.KeySemicolon)},
		{"symbol alt-E", 1, at(0, 1), layout.Modified(report.ModRightAlt, report.KeyE)},
		{"symbol shift-1", 1, at(0, 6), layout.Modified(report.ModLeftShift, report.Key1)},
		{"tri-state key", 1, at(3, 3), layout.MomentaryLayer(3)},
		{"custom", 3, at(0, 0), layout.Custom(0)},
		{"qwertz switch", 3, at(3, 8), layout.DefaultLayer(4)},
		{"base switch", 4, at(3, 8), layout.DefaultLayer(0)},
		{"transparent", 2, at(3, 0), layout.Transparent},
		{"noop", 2, at(0, 6), layout.NoOp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := km.Layers.Action(tt.layer, tt.c); got != tt.want {
				t.Errorf("Action(%d, %v) = %v, want %v", tt.layer, tt.c, got, tt.want)
			}
		})
	}

	ht := km.Layers.Action(0, at(3, 7))
	if ht.Kind != layout.ActionHoldTap {
		t.Fatalf("Action(0, (3,7)) = %v, want hold-tap", ht)
	}
	want := layout.HoldTapAction{
		Timeout:         200,
		TapHoldInterval: 200,
		Config:          layout.HoldTapDefault,
		Hold:            layout.Key(report.KeyLeftShift),
		Tap:             layout.Key(report.KeySpace),
	}
	if *ht.HoldTap != want {
		t.Errorf("SHIFT_SP = %+v, want %+v", *ht.HoldTap, want)
	}
}

func TestDefaultOptionsApplied(t *testing.T) {
	opts := Options{Timeout: 3, TapHoldInterval: 0, Config: layout.HoldTapPermissiveHold}
	km, err := Default(opts)
	if err != nil {
		t.Fatal(err)
	}
	ht := km.Layers.Action(3, at(1, 4)).HoldTap
	if ht == nil {
		t.Fatal("PPN is not a hold-tap")
	}
	if ht.Timeout != 3 || ht.TapHoldInterval != 0 || ht.Config != layout.HoldTapPermissiveHold {
		t.Errorf("PPN timing = %+v, want options %+v", *ht, opts)
	}
	if ht.Tap != layout.Key(report.KeyMediaPlayPause) {
		t.Errorf("PPN tap = %v", ht.Tap)
	}
}

func TestDefaultLayoutFunctionLayer(t *testing.T) {
	km, err := Default(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	l, err := km.NewLayout()
	if err != nil {
		t.Fatalf("NewLayout() error = %v", err)
	}

	// Holding the left layer key, the right thumb key reaches layer 3.
	for _, ev := range []event.Event{event.Press(1, 0), event.Press(3, 8), event.Press(0, 6)} {
		l.Event(ev)
		l.Tick()
	}
	if got := l.CurrentLayer(); got != 3 {
		t.Fatalf("CurrentLayer() = %d, want 3", got)
	}
	if got, want := slices.Collect(l.Keycodes()), []report.Keycode{report.KeyF12}; !slices.Equal(got, want) {
		t.Errorf("Keycodes() = %v, want %v", got, want)
	}
}

func TestParseAction(t *testing.T) {
	opts := DefaultOptions()
	tests := []struct {
		tok  string
		want layout.Action
	}{
		{"A", layout.Key(report.KeyA)},
		{"lshift", layout.Key(report.KeyLeftShift)},
		{";", layout.Key(report.KeySemicolon)},
		{"t", layout.Transparent},
		{"n", layout.NoOp},
		{"(2)", layout.MomentaryLayer(2)},
		{"~1", layout.ToggleLayer(1)},
		{"@4", layout.DefaultLayer(4)},
		{"s(Kb1)", layout.Modified(report.ModLeftShift, report.Key1)},
		{"a(Q)", layout.Modified(report.ModRightAlt, report.KeyQ)},
		{"m(LCtrl,LAlt,Delete)", layout.Modified(report.ModLeftCtrl|report.ModLeftAlt, report.KeyDelete)},
		{"custom(0x10)", layout.Custom(16)},
	}
	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			got, err := ParseAction(tt.tok, opts)
			if err != nil {
				t.Fatalf("ParseAction(%q) error = %v", tt.tok, err)
			}
			if got != tt.want {
				t.Errorf("ParseAction(%q) = %v, want %v", tt.tok, got, tt.want)
			}
		})
	}

	got, err := ParseAction("ht((1),Space)", opts)
	if err != nil {
		t.Fatalf("ParseAction(ht) error = %v", err)
	}
	if got.Kind != layout.ActionHoldTap || got.HoldTap.Hold != layout.MomentaryLayer(1) ||
		got.HoldTap.Tap != layout.Key(report.KeySpace) || got.HoldTap.Timeout != opts.Timeout {
		t.Errorf("ParseAction(ht) = %+v", got)
	}
}

func TestParseActionErrors(t *testing.T) {
	for _, tok := range []string{
		"Nope",
		"(x)",
		"~300",
		"s(A,B)",
		"m(A,B)",
		"ht(A)",
		"ht(ht(A,B),C)",
		"custom(70000)",
		"foo(A)",
		"{SHIFT_SP}",
	} {
		t.Run(tok, func(t *testing.T) {
			if _, err := ParseAction(tok, DefaultOptions()); !errors.Is(err, pkg.ErrKeymap) {
				t.Errorf("ParseAction(%q) error = %v, want %v", tok, err, pkg.ErrKeymap)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "layers: [[\n"},
		{"no layers", "tristate: []\n"},
		{"ragged", "layers:\n  - ['A B', 'C']\n"},
		{"bad token", "layers:\n  - ['A Zork']\n"},
		{"bad tristate", "tristate: [[0, 1]]\nlayers:\n  - ['A']\n"},
		{"tristate range", "tristate: [[0, 1, 7]]\nlayers:\n  - ['A']\n  - ['B']\n"},
		{"bad policy", "holdtap: {config: sometimes}\nlayers:\n  - ['A']\n"},
		{"bad named", "holdtaps:\n  X: {hold: Zork, tap: A}\nlayers:\n  - ['{X}']\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml), DefaultOptions()); !errors.Is(err, pkg.ErrKeymap) {
				t.Errorf("Parse() error = %v, want %v", err, pkg.ErrKeymap)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	const doc = `
holdtap:
  timeout: 50
  config: hold-on-other-key-press
holdtaps:
  CTL: {hold: LCtrl, tap: Escape, timeout: 10}
layers:
  - ['{CTL}  ht(LShift,A)  (1)']
  - ['t      B             t']
`
	path := filepath.Join(t.TempDir(), "keymap.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	km, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if km.Layers.Count() != 2 || km.Layers.Rows() != 1 || km.Layers.Cols() != 3 {
		t.Fatalf("table = %dx%dx%d", km.Layers.Count(), km.Layers.Rows(), km.Layers.Cols())
	}

	named := km.Layers.Action(0, at(0, 0)).HoldTap
	if named.Timeout != 10 || named.Config != layout.HoldTapHoldOnOtherKeyPress {
		t.Errorf("named hold-tap = %+v", *named)
	}
	inline := km.Layers.Action(0, at(0, 1)).HoldTap
	if inline.Timeout != 50 || inline.TapHoldInterval != 200 {
		t.Errorf("inline hold-tap = %+v", *inline)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), DefaultOptions()); err == nil {
		t.Error("Load(missing) succeeded")
	}
}
