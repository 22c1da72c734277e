package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ardnew/splitkb/event"
	"github.com/ardnew/splitkb/layout"
	"github.com/ardnew/splitkb/link"
	"github.com/ardnew/splitkb/pkg"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Matrix.Rows != 4 || cfg.Matrix.Cols != 6 || cfg.LayoutCols != 12 {
		t.Errorf("grid = %dx%d in %d columns, want 4x6 in 12",
			cfg.Matrix.Rows, cfg.Matrix.Cols, cfg.LayoutCols)
	}
	if cfg.Matrix.Debounce != 5 {
		t.Errorf("Debounce = %d, want 5", cfg.Matrix.Debounce)
	}
	if cfg.Link.Baud != 38400 {
		t.Errorf("Baud = %d, want 38400", cfg.Link.Baud)
	}
	if !cfg.USB.SuppressDuplicates {
		t.Error("SuppressDuplicates = false, want true")
	}
	if got := cfg.TickPeriod(); got != time.Millisecond {
		t.Errorf("TickPeriod() = %v, want 1ms", got)
	}

	opts, err := cfg.KeymapOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Timeout != 200 || opts.TapHoldInterval != 200 || opts.Config != layout.HoldTapDefault {
		t.Errorf("KeymapOptions() = %+v", opts)
	}

	km, err := cfg.LoadKeymap()
	if err != nil {
		t.Fatalf("LoadKeymap() error = %v", err)
	}
	if km.Layers.Cols() != cfg.LayoutCols {
		t.Errorf("keymap columns = %d, want %d", km.Layers.Cols(), cfg.LayoutCols)
	}
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
side: right
matrix:
  debounce: 3
tick_rate: 500
hold_tap:
  timeout: 150ms
  policy: permissive-hold
usb:
  suppress_duplicates: false
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Side != pkg.SideRight {
		t.Errorf("Side = %v, want right", cfg.Side)
	}
	if cfg.Matrix.Debounce != 3 || cfg.Matrix.Rows != 4 {
		t.Errorf("Matrix = %+v, want debounce 3 and default rows", cfg.Matrix)
	}
	if cfg.USB.SuppressDuplicates {
		t.Error("SuppressDuplicates = true, want false")
	}

	opts, err := cfg.KeymapOptions()
	if err != nil {
		t.Fatal(err)
	}
	// 150ms at 500 Hz is 75 ticks; 200ms is 100.
	if opts.Timeout != 75 || opts.TapHoldInterval != 100 || opts.Config != layout.HoldTapPermissiveHold {
		t.Errorf("KeymapOptions() = %+v", opts)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Parse(nil) = %+v, want defaults", cfg)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "colour: red\n", "colour"},
		{"bad side", "side: middle\n", "middle"},
		{"rows", "matrix: {rows: 0}\n", "matrix.rows"},
		{"cols", "matrix: {cols: 40}\n", "matrix.cols"},
		{"debounce", "matrix: {debounce: 0}\n", "matrix.debounce"},
		{"layout cols", "layout_cols: 3\n", "layout_cols"},
		{"tick rate", "tick_rate: 0\n", "tick_rate"},
		{"policy", "hold_tap: {policy: never}\n", "hold_tap.policy"},
		{"baud", "link: {baud: 0}\n", "link.baud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, pkg.ErrInvalidParameter) {
				t.Fatalf("Parse() error = %v, want %v", err, pkg.ErrInvalidParameter)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %q, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.TickRate = 0
	cfg.Link.Baud = 0
	err := cfg.Validate()
	for _, want := range []string{"tick_rate", "link.baud"} {
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %v, want mention of %q", err, want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "half.yaml")
	if err := os.WriteFile(path, []byte("side: right\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Side != pkg.SideRight {
		t.Errorf("Side = %v, want right", cfg.Side)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load(missing) succeeded")
	}
}

func TestMirroring(t *testing.T) {
	left := Default()
	right := Default()
	right.Side = pkg.SideRight

	if !left.LinkCodec().Mirrored() {
		t.Error("left half does not mirror received frames")
	}
	if right.LinkCodec().Mirrored() {
		t.Error("right half mirrors received frames")
	}
	if left.MirrorLocal() || !right.MirrorLocal() {
		t.Errorf("MirrorLocal() = %v/%v, want false/true", left.MirrorLocal(), right.MirrorLocal())
	}

	// A right-half event is reflected once whichever half is primary.
	press := event.Press(2, 1)
	frame := link.Encode(press)
	viaLeft, err := left.LinkCodec().Decode(frame[:])
	if err != nil {
		t.Fatal(err)
	}
	local := press.Transform(right.Mirror().Transform)
	if viaLeft != local {
		t.Errorf("left decode = %v, right local = %v, want equal", viaLeft, local)
	}
	if want := event.Press(2, 10); local != want {
		t.Errorf("mirrored = %v, want %v", local, want)
	}
}

func TestTicksSaturate(t *testing.T) {
	cfg := Default()
	if got := cfg.Ticks(time.Hour); got != 0xFFFF {
		t.Errorf("Ticks(1h) = %d, want 65535", got)
	}
	if got := cfg.Ticks(-time.Second); got != 0 {
		t.Errorf("Ticks(-1s) = %d, want 0", got)
	}
}
