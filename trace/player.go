package trace

import (
	"github.com/ardnew/splitkb/matrix"
	"github.com/ardnew/splitkb/pkg"
)

// Player replays records as a matrix.Scanner. Each Scan is one tick; the
// grid of the latest record at or before the current tick is returned.
// After the last record the final grid repeats.
type Player struct {
	records []Record
	next    int
	tick    uint64
	grid    matrix.Grid
}

// NewPlayer reads every remaining record from r.
func NewPlayer(r *Reader) (*Player, error) {
	h := r.Header()
	p := &Player{grid: matrix.NewGrid(int(h.Rows), int(h.Cols))}
	for rec, err := range r.Records() {
		if err != nil {
			return nil, err
		}
		p.records = append(p.records, rec)
	}
	pkg.LogDebug(pkg.ComponentTrace, "trace loaded",
		"records", len(p.records),
		"rows", h.Rows,
		"cols", h.Cols)
	return p, nil
}

// NewPlayerOf replays grids already in memory. Records must be in tick
// order.
func NewPlayerOf(rows, cols int, records ...Record) *Player {
	return &Player{records: records, grid: matrix.NewGrid(rows, cols)}
}

// Scan implements matrix.Scanner.
func (p *Player) Scan(grid *matrix.Grid) error {
	for p.next < len(p.records) && p.records[p.next].Tick <= p.tick {
		p.grid = p.records[p.next].Grid(p.grid.Rows(), p.grid.Cols())
		p.next++
	}
	p.tick++
	*grid = p.grid
	return nil
}

// Tick returns the number of scans performed.
func (p *Player) Tick() uint64 { return p.tick }

// Done reports whether every record has been replayed.
func (p *Player) Done() bool { return p.next == len(p.records) }

// End returns the tick of the last record.
func (p *Player) End() uint64 {
	if len(p.records) == 0 {
		return 0
	}
	return p.records[len(p.records)-1].Tick
}

// Recorder passes scans through from a live scanner and writes each
// successful one to a trace.
type Recorder struct {
	scanner matrix.Scanner
	w       *Writer
	tick    uint64
}

// NewRecorder wraps s, recording to w.
func NewRecorder(s matrix.Scanner, w *Writer) *Recorder {
	return &Recorder{scanner: s, w: w}
}

// Scan implements matrix.Scanner. Failed scans are not recorded, but
// still advance the tick. A write failure is logged and does not fail the
// scan.
func (r *Recorder) Scan(grid *matrix.Grid) error {
	tick := r.tick
	r.tick++
	if err := r.scanner.Scan(grid); err != nil {
		return err
	}
	if err := r.w.Write(tick, grid); err != nil {
		pkg.LogWarn(pkg.ComponentTrace, "trace write failed", "tick", tick, "error", err)
	}
	return nil
}
