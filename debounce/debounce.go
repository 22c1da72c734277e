// Package debounce turns successive raw switch grids into stable press and
// release events.
//
// Each position has a saturating counter. While the raw sample differs from
// the committed state the counter advances; any sample that agrees with the
// committed state resets it. When the counter reaches the threshold N the
// committed state flips and one event is emitted, so a transition costs N
// tick periods of latency and any bounce shorter than N ticks is rejected.
package debounce

import (
	"iter"
	"log/slog"

	"github.com/ardnew/splitkb/event"
	"github.com/ardnew/splitkb/matrix"
	"github.com/ardnew/splitkb/pkg"
)

// DefaultThreshold is the number of agreeing samples needed to commit a
// transition.
const DefaultThreshold = 5

// Debouncer owns the debounce state for one half's grid.
type Debouncer struct {
	threshold uint8
	committed matrix.Grid
	counters  [matrix.MaxRows][matrix.MaxCols]uint8

	// Events produced by the most recent update, in (row, col) order.
	events  [matrix.MaxRows * matrix.MaxCols]event.Event
	nevents int
}

// New creates a debouncer for a rows x cols grid with every position
// released. A threshold of zero is treated as one.
func New(rows, cols int, threshold uint8) *Debouncer {
	return &Debouncer{
		threshold: max(threshold, 1),
		committed: matrix.NewGrid(rows, cols),
	}
}

// Threshold returns the number of agreeing samples required per transition.
func (d *Debouncer) Threshold() uint8 { return d.threshold }

// State returns the committed (debounced) grid.
func (d *Debouncer) State() matrix.Grid { return d.committed }

// Events folds one raw sample into the debounce state and returns the
// transitions it committed, ordered by ascending (row, col).
//
// The state advances when Events is called; the returned sequence only
// replays this call's transitions and is invalidated by the next call.
func (d *Debouncer) Events(raw *matrix.Grid) iter.Seq[event.Event] {
	d.update(raw)
	return func(yield func(event.Event) bool) {
		for i := 0; i < d.nevents; i++ {
			if !yield(d.events[i]) {
				return
			}
		}
	}
}

func (d *Debouncer) update(raw *matrix.Grid) {
	d.nevents = 0
	rows, cols := d.committed.Rows(), d.committed.Cols()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			sample := raw.Get(r, c)
			if sample == d.committed.Get(r, c) {
				d.counters[r][c] = 0
				continue
			}
			if d.counters[r][c] < d.threshold {
				d.counters[r][c]++
			}
			if d.counters[r][c] < d.threshold {
				continue
			}
			d.counters[r][c] = 0
			d.committed.Set(r, c, sample)
			ev := event.Release(uint8(r), uint8(c))
			if sample {
				ev = event.Press(uint8(r), uint8(c))
			}
			d.events[d.nevents] = ev
			d.nevents++
		}
	}
	if d.nevents > 0 && pkg.LogEnabled(slog.LevelDebug) {
		pkg.LogDebug(pkg.ComponentDebounce, "transitions committed", "count", d.nevents)
	}
}
