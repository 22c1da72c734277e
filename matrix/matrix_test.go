package matrix

import (
	"errors"
	"testing"

	"github.com/ardnew/splitkb/event"
	"github.com/ardnew/splitkb/pkg"
)

// level is a Pin with a settable electrical level.
type level struct {
	high bool
	err  error
}

func (l *level) Get() (bool, error) { return l.high, l.err }

func TestGrid_GetSet(t *testing.T) {
	g := NewGrid(2, 3)
	g.Set(1, 2, true)
	g.Set(5, 5, true) // out of range, ignored

	tests := []struct {
		row, col int
		want     bool
	}{
		{1, 2, true},
		{0, 0, false},
		{5, 5, false},
		{-1, 0, false},
	}

	for _, tt := range tests {
		if got := g.Get(tt.row, tt.col); got != tt.want {
			t.Errorf("Get(%d, %d) = %v, want %v", tt.row, tt.col, got, tt.want)
		}
	}

	if !g.Contains(event.Coordinate{Row: 1, Col: 2}) {
		t.Error("Contains((1,2)) = false, want true")
	}
	if g.Contains(event.Coordinate{Row: 2, Col: 0}) {
		t.Error("Contains((2,0)) = true, want false")
	}
}

func TestNewGridClamps(t *testing.T) {
	g := NewGrid(100, -1)
	if g.Rows() != MaxRows || g.Cols() != 0 {
		t.Errorf("NewGrid(100, -1) = %dx%d, want %dx0", g.Rows(), g.Cols(), MaxRows)
	}
}

func TestGridOf(t *testing.T) {
	g := GridOf([]bool{false, true}, []bool{false, false})
	if g.Rows() != 2 || g.Cols() != 2 {
		t.Fatalf("GridOf() shape = %dx%d, want 2x2", g.Rows(), g.Cols())
	}
	if got := g.String(); got != ".#\n.." {
		t.Errorf("String() = %q, want %q", got, ".#\n..")
	}
}

func TestGrid_RowBits(t *testing.T) {
	g := NewGrid(1, 12)
	g.SetRow(0, 0b1000_0000_0101)
	if !g.Get(0, 0) || g.Get(0, 1) || !g.Get(0, 2) || !g.Get(0, 11) {
		t.Errorf("SetRow() produced %s", g.String())
	}
	if got := g.Row(0); got != 0b1000_0000_0101 {
		t.Errorf("Row(0) = %b, want %b", got, 0b1000_0000_0101)
	}
}

func TestGrid_Equal(t *testing.T) {
	a := GridOf([]bool{true, false})
	b := GridOf([]bool{true, false})
	c := GridOf([]bool{true}, []bool{false})
	if !a.Equal(&b) {
		t.Error("Equal() = false for identical grids")
	}
	if a.Equal(&c) {
		t.Error("Equal() = true for different shapes")
	}
	b.Reset()
	if a.Equal(&b) {
		t.Error("Equal() = true after Reset")
	}
}

func TestDirectPinMatrix_Scan(t *testing.T) {
	// Pulled-up inputs: low means pressed.
	p00 := &level{high: true}
	p01 := &level{high: false}
	p11 := &level{high: true}

	m, err := NewDirectPinMatrix([][]Pin{
		{p00, p01},
		{nil, p11},
	}, true)
	if err != nil {
		t.Fatalf("NewDirectPinMatrix() error = %v", err)
	}

	var g Grid
	if err := m.Scan(&g); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := GridOf([]bool{false, true}, []bool{false, false})
	if !g.Equal(&want) {
		t.Errorf("Scan() =\n%s\nwant\n%s", g.String(), want.String())
	}
}

func TestDirectPinMatrix_ActiveHigh(t *testing.T) {
	m, err := NewDirectPinMatrix([][]Pin{{PinFunc(func() (bool, error) { return true, nil })}}, false)
	if err != nil {
		t.Fatalf("NewDirectPinMatrix() error = %v", err)
	}
	var g Grid
	if err := m.Scan(&g); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !g.Get(0, 0) {
		t.Error("active-high pin not reported pressed")
	}
}

func TestDirectPinMatrix_ScanErrorKeepsGrid(t *testing.T) {
	bad := &level{err: errors.New("bus fault")}
	m, err := NewDirectPinMatrix([][]Pin{{&level{high: false}, bad}}, true)
	if err != nil {
		t.Fatalf("NewDirectPinMatrix() error = %v", err)
	}

	previous := GridOf([]bool{false, true})
	g := previous
	err = m.Scan(&g)
	if !errors.Is(err, pkg.ErrScan) {
		t.Fatalf("Scan() error = %v, want %v", err, pkg.ErrScan)
	}
	if !g.Equal(&previous) {
		t.Errorf("grid modified by failed scan:\n%s", g.String())
	}
}

func TestNewDirectPinMatrix_Invalid(t *testing.T) {
	tests := []struct {
		name string
		pins [][]Pin
	}{
		{"empty", nil},
		{"too many rows", make([][]Pin, MaxRows+1)},
		{"too many cols", [][]Pin{make([]Pin, MaxCols+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDirectPinMatrix(tt.pins, true); !errors.Is(err, pkg.ErrInvalidParameter) {
				t.Errorf("NewDirectPinMatrix() error = %v, want %v", err, pkg.ErrInvalidParameter)
			}
		})
	}
}
