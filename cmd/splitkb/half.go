package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/ardnew/splitkb/config"
	"github.com/ardnew/splitkb/keymap"
	"github.com/ardnew/splitkb/pkg"
)

// halfFlags select the configuration of one half.
type halfFlags struct {
	config string
	keymap string
	side   string
}

func (h *halfFlags) add(fs *pflag.FlagSet) {
	fs.StringVarP(&h.config, "config", "c", "", "YAML configuration file (default: built-in)")
	fs.StringVarP(&h.keymap, "keymap", "k", "", "YAML keymap file, overriding the configuration")
	fs.StringVarP(&h.side, "side", "s", "", "half to run, left or right, overriding the configuration")
}

// load returns the validated configuration with command line overrides
// applied, and the keymap it selects.
func (h *halfFlags) load() (*config.Config, *keymap.Keymap, error) {
	cfg := config.Default()
	if h.config != "" {
		var err error
		if cfg, err = config.Load(h.config); err != nil {
			return nil, nil, err
		}
	}
	if h.side != "" {
		side, err := pkg.ParseSide(h.side)
		if err != nil {
			return nil, nil, fmt.Errorf("--side: %w", err)
		}
		cfg.Side = side
	}
	if h.keymap != "" {
		cfg.Keymap = h.keymap
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	km, err := cfg.LoadKeymap()
	if err != nil {
		return nil, nil, err
	}
	return cfg, km, nil
}
