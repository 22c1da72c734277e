package layout

import (
	"fmt"

	"github.com/ardnew/splitkb/event"
	"github.com/ardnew/splitkb/pkg"
)

// MaxLayers bounds the number of layers in a table. Layer ids are uint8 and
// the layer stack is fixed-size, so tables stay small.
const MaxLayers = 32

// Layers is an immutable table of actions indexed by (layer, row, col).
// It is built once, at startup, and only read afterwards.
type Layers struct {
	count   int
	rows    int
	cols    int
	actions []Action
}

// NewLayers builds a table from layer-major literal data. Every layer must
// have the same dimensions. Hold-tap actions are checked for nested
// hold-taps and layer references are checked against the table size.
func NewLayers(layers [][][]Action) (*Layers, error) {
	if len(layers) == 0 || len(layers) > MaxLayers {
		return nil, fmt.Errorf("layer count %d: %w", len(layers), pkg.ErrKeymap)
	}
	rows := len(layers[0])
	if rows == 0 {
		return nil, fmt.Errorf("layer 0 has no rows: %w", pkg.ErrKeymap)
	}
	cols := len(layers[0][0])
	if cols == 0 {
		return nil, fmt.Errorf("layer 0 has no columns: %w", pkg.ErrKeymap)
	}

	t := &Layers{
		count:   len(layers),
		rows:    rows,
		cols:    cols,
		actions: make([]Action, 0, len(layers)*rows*cols),
	}
	for l, layer := range layers {
		if len(layer) != rows {
			return nil, fmt.Errorf("layer %d has %d rows, want %d: %w", l, len(layer), rows, pkg.ErrKeymap)
		}
		for r, row := range layer {
			if len(row) != cols {
				return nil, fmt.Errorf("layer %d row %d has %d columns, want %d: %w", l, r, len(row), cols, pkg.ErrKeymap)
			}
			for c, a := range row {
				if err := t.check(a); err != nil {
					return nil, fmt.Errorf("layer %d (%d,%d): %w", l, r, c, err)
				}
				t.actions = append(t.actions, a)
			}
		}
	}
	return t, nil
}

func (t *Layers) check(a Action) error {
	switch a.Kind {
	case ActionMomentaryLayer, ActionToggleLayer, ActionDefaultLayer:
		if int(a.Layer) >= t.count {
			return fmt.Errorf("layer %d does not exist: %w", a.Layer, pkg.ErrKeymap)
		}
	case ActionHoldTap:
		if a.HoldTap == nil {
			return fmt.Errorf("hold-tap without actions: %w", pkg.ErrKeymap)
		}
		if a.HoldTap.Hold.Kind == ActionHoldTap || a.HoldTap.Tap.Kind == ActionHoldTap {
			return fmt.Errorf("nested hold-tap: %w", pkg.ErrKeymap)
		}
		if err := t.check(a.HoldTap.Hold); err != nil {
			return err
		}
		return t.check(a.HoldTap.Tap)
	}
	return nil
}

// Count returns the number of layers.
func (t *Layers) Count() int { return t.count }

// Rows returns the number of rows per layer.
func (t *Layers) Rows() int { return t.rows }

// Cols returns the number of columns per layer.
func (t *Layers) Cols() int { return t.cols }

// Contains reports whether c addresses a position in the table.
func (t *Layers) Contains(c event.Coordinate) bool {
	return int(c.Row) < t.rows && int(c.Col) < t.cols
}

// Action returns the binding at (layer, c). Out-of-range lookups return
// NoOp.
func (t *Layers) Action(layer uint8, c event.Coordinate) Action {
	if int(layer) >= t.count || !t.Contains(c) {
		return NoOp
	}
	return t.actions[(int(layer)*t.rows+int(c.Row))*t.cols+int(c.Col)]
}
