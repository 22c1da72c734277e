// Package event defines the key transitions that flow between the
// scanner, the half link and the layout engine.
package event

import "fmt"

// Coordinate identifies one physical switch position in the shared logical
// grid. Both halves address switches in the same space once mirroring has
// been applied.
type Coordinate struct {
	Row uint8
	Col uint8
}

// Less orders coordinates by row, then column.
func (c Coordinate) Less(o Coordinate) bool {
	if c.Row != o.Row {
		return c.Row < o.Row
	}
	return c.Col < o.Col
}

// String returns "(row,col)".
func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Kind distinguishes press and release transitions.
type Kind uint8

// Event kinds.
const (
	KindPress Kind = iota + 1
	KindRelease
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindPress:
		return "press"
	case KindRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Event is a debounced switch transition.
type Event struct {
	Kind  Kind
	Coord Coordinate
}

// Press returns a press event at (row, col).
func Press(row, col uint8) Event {
	return Event{Kind: KindPress, Coord: Coordinate{Row: row, Col: col}}
}

// Release returns a release event at (row, col).
func Release(row, col uint8) Event {
	return Event{Kind: KindRelease, Coord: Coordinate{Row: row, Col: col}}
}

// IsPress reports whether e is a press.
func (e Event) IsPress() bool { return e.Kind == KindPress }

// IsRelease reports whether e is a release.
func (e Event) IsRelease() bool { return e.Kind == KindRelease }

// Transform returns e with its coordinate mapped by fn.
func (e Event) Transform(fn func(Coordinate) Coordinate) Event {
	e.Coord = fn(e.Coord)
	return e
}

// String returns e formatted as "press(row,col)".
func (e Event) String() string {
	return e.Kind.String() + e.Coord.String()
}
