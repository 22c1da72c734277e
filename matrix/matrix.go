package matrix

import (
	"fmt"

	"github.com/ardnew/splitkb/pkg"
)

// Pin is one switch input line.
type Pin interface {
	// Get returns true if the line reads electrically high.
	Get() (bool, error)
}

// PinFunc adapts a function to the Pin interface.
type PinFunc func() (bool, error)

// Get calls f.
func (f PinFunc) Get() (bool, error) { return f() }

// Scanner produces a raw grid once per tick.
type Scanner interface {
	// Scan fills grid with the instantaneous switch state. On error grid is
	// left untouched.
	Scan(grid *Grid) error
}

// DirectPinMatrix scans switches wired one-to-one to input pins, with no
// diode matrix. A nil pin marks an unwired position, which always reads
// inactive.
type DirectPinMatrix struct {
	pins      [MaxRows][MaxCols]Pin
	rows      int
	cols      int
	activeLow bool
}

// NewDirectPinMatrix creates a matrix from a row-major pin table.
//
// With activeLow set the inputs are assumed pulled up and a switch closes to
// ground, so a low level reads as pressed.
func NewDirectPinMatrix(pins [][]Pin, activeLow bool) (*DirectPinMatrix, error) {
	if len(pins) == 0 || len(pins) > MaxRows {
		return nil, fmt.Errorf("matrix rows %d: %w", len(pins), pkg.ErrInvalidParameter)
	}
	m := &DirectPinMatrix{rows: len(pins), activeLow: activeLow}
	for r, row := range pins {
		if len(row) > MaxCols {
			return nil, fmt.Errorf("matrix row %d has %d columns: %w", r, len(row), pkg.ErrInvalidParameter)
		}
		m.cols = max(m.cols, len(row))
		copy(m.pins[r][:], row)
	}
	return m, nil
}

// Rows returns the number of rows.
func (m *DirectPinMatrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *DirectPinMatrix) Cols() int { return m.cols }

// Scan reads every wired pin. A read failure aborts the scan and leaves grid
// unchanged so a half-read grid is never observed.
func (m *DirectPinMatrix) Scan(grid *Grid) error {
	scratch := NewGrid(m.rows, m.cols)
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			pin := m.pins[r][c]
			if pin == nil {
				continue
			}
			high, err := pin.Get()
			if err != nil {
				return fmt.Errorf("read (%d,%d): %w: %w", r, c, pkg.ErrScan, err)
			}
			scratch.Set(r, c, high != m.activeLow)
		}
	}
	*grid = scratch
	return nil
}

// Compile-time interface check
var _ Scanner = (*DirectPinMatrix)(nil)
