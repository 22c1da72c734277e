package matrix

import (
	"strings"

	"github.com/ardnew/splitkb/event"
)

// Grid capacity. Every grid is allocated at this size; Rows and Cols limit
// the region in use.
const (
	MaxRows = 8
	MaxCols = 16
)

// Grid is a raw snapshot of switch state, true meaning electrically active.
// It is a value type so a scan can fill a scratch copy and commit it only
// when every cell was read.
type Grid struct {
	rows, cols uint8
	cells      [MaxRows][MaxCols]bool
}

// NewGrid returns an all-inactive grid. Dimensions are clamped to
// MaxRows and MaxCols.
func NewGrid(rows, cols int) Grid {
	return Grid{rows: clamp(rows, MaxRows), cols: clamp(cols, MaxCols)}
}

// GridOf builds a grid from literal rows, as used in tests and traces.
// Each row may have a different length; the widest row sets Cols.
func GridOf(rows ...[]bool) Grid {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	g := NewGrid(len(rows), width)
	for i, r := range rows {
		for j, v := range r {
			g.Set(i, j, v)
		}
	}
	return g
}

func clamp(v, hi int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > hi:
		return uint8(hi)
	default:
		return uint8(v)
	}
}

// Rows returns the number of rows in use.
func (g *Grid) Rows() int { return int(g.rows) }

// Cols returns the number of columns in use.
func (g *Grid) Cols() int { return int(g.cols) }

// Contains reports whether c lies within the grid.
func (g *Grid) Contains(c event.Coordinate) bool {
	return c.Row < g.rows && c.Col < g.cols
}

// Get returns the state at (row, col). Positions outside the grid are false.
func (g *Grid) Get(row, col int) bool {
	if row < 0 || col < 0 || row >= int(g.rows) || col >= int(g.cols) {
		return false
	}
	return g.cells[row][col]
}

// Set stores the state at (row, col). Positions outside the grid are ignored.
func (g *Grid) Set(row, col int, active bool) {
	if row < 0 || col < 0 || row >= int(g.rows) || col >= int(g.cols) {
		return
	}
	g.cells[row][col] = active
}

// Reset marks every position inactive.
func (g *Grid) Reset() {
	g.cells = [MaxRows][MaxCols]bool{}
}

// Equal reports whether both grids have the same shape and state.
func (g *Grid) Equal(o *Grid) bool {
	return g.rows == o.rows && g.cols == o.cols && g.cells == o.cells
}

// Row returns row r packed into a bitmask, bit c set for an active column.
func (g *Grid) Row(r int) uint16 {
	var bits uint16
	for c := 0; c < int(g.cols); c++ {
		if g.Get(r, c) {
			bits |= 1 << c
		}
	}
	return bits
}

// SetRow unpacks a bitmask produced by Row into row r.
func (g *Grid) SetRow(r int, bits uint16) {
	for c := 0; c < int(g.cols); c++ {
		g.Set(r, c, bits&(1<<c) != 0)
	}
}

// String renders the grid one row per line, '#' for active and '.' for idle.
func (g *Grid) String() string {
	var sb strings.Builder
	for r := 0; r < int(g.rows); r++ {
		for c := 0; c < int(g.cols); c++ {
			if g.cells[r][c] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		if r < int(g.rows)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
