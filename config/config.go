// Package config holds the per-half build configuration.
//
// On hardware the configuration is the value returned by [Default], fixed
// when the image is built. The simulator also accepts a YAML file whose
// fields override the defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ardnew/splitkb/keymap"
	"github.com/ardnew/splitkb/link"
	"github.com/ardnew/splitkb/matrix"
	"github.com/ardnew/splitkb/pkg"
)

// Config is the configuration of one keyboard half.
type Config struct {
	// Side is the physical half this image runs on.
	Side pkg.Side `yaml:"side"`

	// Matrix describes the half's switch grid.
	Matrix MatrixConfig `yaml:"matrix"`

	// LayoutCols is the column count of the shared logical grid both
	// halves map into. Right-half columns are mirrored about
	// LayoutCols-1.
	LayoutCols int `yaml:"layout_cols"`

	// TickRate is the scan and layout tick frequency in Hz.
	TickRate int `yaml:"tick_rate"`

	// HoldTap supplies timing for hold-tap keys that do not set their own.
	HoldTap HoldTapConfig `yaml:"hold_tap"`

	// Link configures the inter-half serial line.
	Link LinkConfig `yaml:"link"`

	// USB configures report delivery.
	USB USBConfig `yaml:"usb"`

	// Keymap is a keymap file path. Empty selects the built-in keymap.
	Keymap string `yaml:"keymap,omitempty"`
}

// MatrixConfig describes a switch grid.
type MatrixConfig struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`

	// Debounce is the number of consecutive agreeing samples required to
	// commit a state change.
	Debounce uint8 `yaml:"debounce"`

	// ActiveLow selects pull-up wiring: a closed switch reads low.
	ActiveLow bool `yaml:"active_low"`
}

// HoldTapConfig is hold-tap timing in wall-clock units.
type HoldTapConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	TapHoldInterval time.Duration `yaml:"tap_hold_interval"`

	// Policy is one of "default", "hold-on-other-key-press" or
	// "permissive-hold".
	Policy string `yaml:"policy"`
}

// LinkConfig configures the inter-half serial line.
type LinkConfig struct {
	Baud       int `yaml:"baud"`
	MaxRetries int `yaml:"max_retries"`
}

// USBConfig configures report delivery.
type USBConfig struct {
	MaxRetries int `yaml:"max_retries"`

	// SuppressDuplicates skips sending a report identical to the last one
	// delivered.
	SuppressDuplicates bool `yaml:"suppress_duplicates"`
}

// Default returns the configuration of the left half of the reference
// hardware.
func Default() *Config {
	return &Config{
		Side: pkg.SideLeft,
		Matrix: MatrixConfig{
			Rows:      keymap.DefaultRows,
			Cols:      keymap.DefaultCols / 2,
			Debounce:  5,
			ActiveLow: true,
		},
		LayoutCols: keymap.DefaultCols,
		TickRate:   1000,
		HoldTap: HoldTapConfig{
			Timeout:         200 * time.Millisecond,
			TapHoldInterval: 200 * time.Millisecond,
			Policy:          "default",
		},
		Link: LinkConfig{
			Baud:       38400,
			MaxRetries: link.DefaultMaxRetries,
		},
		USB: USBConfig{
			MaxRetries:         link.DefaultMaxRetries,
			SuppressDuplicates: true,
		},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w: %w", pkg.ErrInvalidParameter, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors. All problems are reported
// together.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format+": %w", append(args, pkg.ErrInvalidParameter)...))
	}

	if c.Side != pkg.SideLeft && c.Side != pkg.SideRight {
		invalid("side %d", int(c.Side))
	}
	if c.Matrix.Rows < 1 || c.Matrix.Rows > matrix.MaxRows {
		invalid("matrix.rows %d not in [1, %d]", c.Matrix.Rows, matrix.MaxRows)
	}
	if c.Matrix.Cols < 1 || c.Matrix.Cols > matrix.MaxCols {
		invalid("matrix.cols %d not in [1, %d]", c.Matrix.Cols, matrix.MaxCols)
	}
	if c.Matrix.Debounce == 0 {
		invalid("matrix.debounce must be positive")
	}
	if c.LayoutCols < c.Matrix.Cols || c.LayoutCols > 256 {
		invalid("layout_cols %d not in [%d, 256]", c.LayoutCols, c.Matrix.Cols)
	}
	if c.TickRate < 1 {
		invalid("tick_rate %d must be positive", c.TickRate)
	}
	if c.HoldTap.Timeout <= 0 {
		invalid("hold_tap.timeout %v must be positive", c.HoldTap.Timeout)
	}
	if c.HoldTap.TapHoldInterval < 0 {
		invalid("hold_tap.tap_hold_interval %v is negative", c.HoldTap.TapHoldInterval)
	}
	if _, err := keymap.ParseHoldTapConfig(c.HoldTap.Policy); err != nil {
		invalid("hold_tap.policy %q", c.HoldTap.Policy)
	}
	if c.Link.Baud < 1 {
		invalid("link.baud %d must be positive", c.Link.Baud)
	}
	if c.Link.MaxRetries < 1 {
		invalid("link.max_retries %d must be positive", c.Link.MaxRetries)
	}
	if c.USB.MaxRetries < 1 {
		invalid("usb.max_retries %d must be positive", c.USB.MaxRetries)
	}
	return errors.Join(errs...)
}

// TickPeriod returns the interval between ticks.
func (c *Config) TickPeriod() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// Ticks converts d to a whole number of ticks, saturating at the uint16
// range used by hold-tap timing.
func (c *Config) Ticks(d time.Duration) uint16 {
	n := d * time.Duration(c.TickRate) / time.Second
	return uint16(min(max(n, 0), 0xFFFF))
}

// KeymapOptions returns hold-tap defaults in ticks.
func (c *Config) KeymapOptions() (keymap.Options, error) {
	policy, err := keymap.ParseHoldTapConfig(c.HoldTap.Policy)
	if err != nil {
		return keymap.Options{}, err
	}
	return keymap.Options{
		Timeout:         c.Ticks(c.HoldTap.Timeout),
		TapHoldInterval: c.Ticks(c.HoldTap.TapHoldInterval),
		Config:          policy,
	}, nil
}

// LoadKeymap loads the configured keymap, or the built-in one.
func (c *Config) LoadKeymap() (*keymap.Keymap, error) {
	opts, err := c.KeymapOptions()
	if err != nil {
		return nil, err
	}
	if c.Keymap == "" {
		return keymap.Default(opts)
	}
	return keymap.Load(c.Keymap, opts)
}

// Mirror returns the column reflection into the logical grid.
func (c *Config) Mirror() link.Mirror {
	return link.Mirror{MaxCol: uint8(c.LayoutCols - 1)}
}

// LinkCodec returns the codec for frames arriving from the peer half. The
// left half receives right-half coordinates and reflects them.
func (c *Config) LinkCodec() link.Codec {
	if c.Side == pkg.SideLeft {
		return link.NewMirroredCodec(c.Mirror().MaxCol)
	}
	return link.NewCodec()
}

// MirrorLocal reports whether this half reflects its own events before
// resolving them, which is the case for the right half while it is the
// primary.
func (c *Config) MirrorLocal() bool {
	return c.Side == pkg.SideRight
}
