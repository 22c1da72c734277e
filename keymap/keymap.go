package keymap

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ardnew/splitkb/layout"
	"github.com/ardnew/splitkb/pkg"
	"github.com/ardnew/splitkb/report"
)

//go:embed default.yaml
var defaultKeymap []byte

// Dimensions of the built-in keymap.
const (
	DefaultRows = 4
	DefaultCols = 12
)

// Options supply hold-tap timing for hold-taps that do not set their own.
type Options struct {
	Timeout         uint16
	TapHoldInterval uint16
	Config          layout.HoldTapConfig
}

// DefaultOptions returns 200-tick timeout and tap-hold interval with the
// default interrupt policy.
func DefaultOptions() Options {
	return Options{
		Timeout:         200,
		TapHoldInterval: 200,
		Config:          layout.HoldTapDefault,
	}
}

// Keymap is a parsed layout table and its tri-state layer definitions.
type Keymap struct {
	Layers    *layout.Layers
	TriStates []layout.TriState
}

// NewLayout returns a fresh engine over the keymap.
func (k *Keymap) NewLayout() (*layout.Layout, error) {
	l := layout.New(k.Layers)
	for _, ts := range k.TriStates {
		if err := l.AddTriStateLayer(ts.A, ts.B, ts.Layer); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Default returns the built-in keymap.
func Default(opts Options) (*Keymap, error) {
	return Parse(defaultKeymap, opts)
}

// Load reads and parses the keymap file at path.
func Load(path string, opts Options) (*Keymap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keymap: %w", err)
	}
	km, err := Parse(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	pkg.LogInfo(pkg.ComponentKeymap, "keymap loaded",
		"path", path,
		"layers", km.Layers.Count(),
		"rows", km.Layers.Rows(),
		"cols", km.Layers.Cols())
	return km, nil
}

type fileHoldTap struct {
	Hold            string  `yaml:"hold"`
	Tap             string  `yaml:"tap"`
	Timeout         *uint16 `yaml:"timeout,omitempty"`
	TapHoldInterval *uint16 `yaml:"tap_hold_interval,omitempty"`
	Config          string  `yaml:"config,omitempty"`
}

type fileKeymap struct {
	HoldTap  fileHoldTap            `yaml:"holdtap"`
	HoldTaps map[string]fileHoldTap `yaml:"holdtaps"`
	TriState [][]uint8              `yaml:"tristate"`
	Layers   [][]string             `yaml:"layers"`
}

// Parse decodes a YAML keymap.
func Parse(data []byte, opts Options) (*Keymap, error) {
	var f fileKeymap
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode keymap: %w: %w", pkg.ErrKeymap, err)
	}

	p := &parser{opts: opts, named: make(map[string]*layout.HoldTapAction)}
	if err := p.applyDefaults(f.HoldTap); err != nil {
		return nil, err
	}
	for name, ht := range f.HoldTaps {
		action, err := p.holdTap(ht)
		if err != nil {
			return nil, fmt.Errorf("hold-tap %s: %w", name, err)
		}
		p.named[name] = action
	}

	layers := make([][][]layout.Action, len(f.Layers))
	for l, rows := range f.Layers {
		layers[l] = make([][]layout.Action, len(rows))
		for r, row := range rows {
			for c, tok := range strings.Fields(row) {
				a, err := p.action(tok)
				if err != nil {
					return nil, fmt.Errorf("layer %d row %d column %d: %w", l, r, c, err)
				}
				layers[l][r] = append(layers[l][r], a)
			}
		}
	}
	table, err := layout.NewLayers(layers)
	if err != nil {
		return nil, err
	}

	km := &Keymap{Layers: table}
	for i, ts := range f.TriState {
		if len(ts) != 3 {
			return nil, fmt.Errorf("tristate %d: want [a, b, layer]: %w", i, pkg.ErrKeymap)
		}
		km.TriStates = append(km.TriStates, layout.TriState{A: ts[0], B: ts[1], Layer: ts[2]})
	}
	// Validate tri-states against the table now rather than at NewLayout.
	if _, err := km.NewLayout(); err != nil {
		return nil, fmt.Errorf("tristate: %w: %w", pkg.ErrKeymap, err)
	}
	return km, nil
}

// ParseAction parses a single action token using opts for hold-tap timing.
// Named hold-tap references are not available.
func ParseAction(tok string, opts Options) (layout.Action, error) {
	p := &parser{opts: opts}
	return p.action(tok)
}

// ParseHoldTapConfig parses a hold-tap policy name as printed by
// layout.HoldTapConfig.String.
func ParseHoldTapConfig(s string) (layout.HoldTapConfig, error) {
	for _, c := range []layout.HoldTapConfig{
		layout.HoldTapDefault,
		layout.HoldTapHoldOnOtherKeyPress,
		layout.HoldTapPermissiveHold,
	} {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("hold-tap config %q: %w", s, pkg.ErrKeymap)
}

type parser struct {
	opts  Options
	named map[string]*layout.HoldTapAction
}

func (p *parser) applyDefaults(d fileHoldTap) error {
	if d.Timeout != nil {
		p.opts.Timeout = *d.Timeout
	}
	if d.TapHoldInterval != nil {
		p.opts.TapHoldInterval = *d.TapHoldInterval
	}
	if d.Config != "" {
		cfg, err := ParseHoldTapConfig(d.Config)
		if err != nil {
			return err
		}
		p.opts.Config = cfg
	}
	return nil
}

func (p *parser) holdTap(f fileHoldTap) (*layout.HoldTapAction, error) {
	ht := &layout.HoldTapAction{
		Timeout:         p.opts.Timeout,
		TapHoldInterval: p.opts.TapHoldInterval,
		Config:          p.opts.Config,
	}
	if f.Timeout != nil {
		ht.Timeout = *f.Timeout
	}
	if f.TapHoldInterval != nil {
		ht.TapHoldInterval = *f.TapHoldInterval
	}
	if f.Config != "" {
		cfg, err := ParseHoldTapConfig(f.Config)
		if err != nil {
			return nil, err
		}
		ht.Config = cfg
	}
	var err error
	if ht.Hold, err = p.simple(f.Hold); err != nil {
		return nil, fmt.Errorf("hold: %w", err)
	}
	if ht.Tap, err = p.simple(f.Tap); err != nil {
		return nil, fmt.Errorf("tap: %w", err)
	}
	return ht, nil
}

// simple parses a token that must not be a hold-tap.
func (p *parser) simple(tok string) (layout.Action, error) {
	a, err := p.action(tok)
	if err != nil {
		return a, err
	}
	if a.Kind == layout.ActionHoldTap {
		return a, fmt.Errorf("nested hold-tap %q: %w", tok, pkg.ErrKeymap)
	}
	return a, nil
}

func (p *parser) action(tok string) (layout.Action, error) {
	switch {
	case tok == "t":
		return layout.Transparent, nil
	case tok == "n":
		return layout.NoOp, nil

	case len(tok) > 2 && tok[0] == '(' && tok[len(tok)-1] == ')':
		id, err := parseLayer(tok[1 : len(tok)-1])
		return layout.MomentaryLayer(id), err
	case len(tok) > 1 && tok[0] == '~':
		id, err := parseLayer(tok[1:])
		return layout.ToggleLayer(id), err
	case len(tok) > 1 && tok[0] == '@':
		id, err := parseLayer(tok[1:])
		return layout.DefaultLayer(id), err

	case len(tok) > 2 && tok[0] == '{' && tok[len(tok)-1] == '}':
		name := tok[1 : len(tok)-1]
		ht, ok := p.named[name]
		if !ok {
			return layout.NoOp, fmt.Errorf("undefined hold-tap %q: %w", name, pkg.ErrKeymap)
		}
		return layout.HoldTap(ht), nil
	}

	if fn, args, ok := call(tok); ok {
		return p.call(tok, fn, args)
	}

	k, ok := report.ParseKeycode(tok)
	if !ok {
		return layout.NoOp, fmt.Errorf("unknown keycode %q: %w", tok, pkg.ErrKeymap)
	}
	return layout.Key(k), nil
}

func (p *parser) call(tok, fn string, args []string) (layout.Action, error) {
	fn = strings.ToLower(fn)
	switch fn {
	case "s", "a":
		if len(args) != 1 {
			break
		}
		k, err := keycode(args[0])
		if err != nil {
			return layout.NoOp, err
		}
		if fn == "s" {
			return layout.Modified(report.ModLeftShift, k), nil
		}
		return layout.Modified(report.ModRightAlt, k), nil

	case "m":
		if len(args) < 2 {
			break
		}
		var mods uint8
		for _, arg := range args[:len(args)-1] {
			k, err := keycode(arg)
			if err != nil {
				return layout.NoOp, err
			}
			if !k.IsModifier() {
				return layout.NoOp, fmt.Errorf("%q is not a modifier: %w", arg, pkg.ErrKeymap)
			}
			mods |= k.ModifierBit()
		}
		k, err := keycode(args[len(args)-1])
		if err != nil {
			return layout.NoOp, err
		}
		return layout.Modified(mods, k), nil

	case "ht":
		if len(args) != 2 {
			break
		}
		ht, err := p.holdTap(fileHoldTap{Hold: args[0], Tap: args[1]})
		if err != nil {
			return layout.NoOp, err
		}
		return layout.HoldTap(ht), nil

	case "custom":
		if len(args) != 1 {
			break
		}
		v, err := strconv.ParseUint(args[0], 0, 16)
		if err != nil {
			return layout.NoOp, fmt.Errorf("custom value %q: %w", args[0], pkg.ErrKeymap)
		}
		return layout.Custom(uint16(v)), nil

	default:
		return layout.NoOp, fmt.Errorf("unknown action %q: %w", tok, pkg.ErrKeymap)
	}
	return layout.NoOp, fmt.Errorf("wrong argument count in %q: %w", tok, pkg.ErrKeymap)
}

func keycode(tok string) (report.Keycode, error) {
	k, ok := report.ParseKeycode(tok)
	if !ok {
		return 0, fmt.Errorf("unknown keycode %q: %w", tok, pkg.ErrKeymap)
	}
	return k, nil
}

func parseLayer(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("layer %q: %w", s, pkg.ErrKeymap)
	}
	return uint8(v), nil
}

// call splits "fn(a,b)" into its name and top-level arguments.
func call(tok string) (string, []string, bool) {
	open := strings.IndexByte(tok, '(')
	if open <= 0 || tok[len(tok)-1] != ')' {
		return "", nil, false
	}
	fn, body := tok[:open], tok[open+1:len(tok)-1]

	var args []string
	depth, start := 0, 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, body[start:i])
				start = i + 1
			}
		}
	}
	args = append(args, body[start:])
	return fn, args, true
}
