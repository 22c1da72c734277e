package link

import (
	"fmt"

	"github.com/ardnew/splitkb/event"
	"github.com/ardnew/splitkb/pkg"
)

// FrameSize is the length of one half-link frame: [tag, row, col, terminator].
const FrameSize = 4

// Frame bytes.
const (
	TagPress   byte = 'P'
	TagRelease byte = 'R'
	Terminator byte = '\n'
)

// Encode serializes e into one frame.
func Encode(e event.Event) [FrameSize]byte {
	var frame [FrameSize]byte
	EncodeTo(frame[:], e)
	return frame
}

// EncodeTo writes the frame for e into buf.
// Returns the number of bytes written, or 0 if buf is too small.
func EncodeTo(buf []byte, e event.Event) int {
	if len(buf) < FrameSize {
		return 0
	}
	buf[0] = TagPress
	if e.IsRelease() {
		buf[0] = TagRelease
	}
	buf[1] = e.Coord.Row
	buf[2] = e.Coord.Col
	buf[3] = Terminator
	return FrameSize
}

// Mirror reflects columns so a half whose physical columns run in reverse
// lands in the shared logical grid: col' = MaxCol - col.
type Mirror struct {
	MaxCol uint8
}

// Apply returns c reflected. Columns beyond MaxCol have no reflection and
// are returned unchanged with ok false.
func (m Mirror) Apply(c event.Coordinate) (event.Coordinate, bool) {
	if c.Col > m.MaxCol {
		return c, false
	}
	return event.Coordinate{Row: c.Row, Col: m.MaxCol - c.Col}, true
}

// Transform is Apply without the range check, for use with
// event.Event.Transform on coordinates already known to be in range.
func (m Mirror) Transform(c event.Coordinate) event.Coordinate {
	out, _ := m.Apply(c)
	return out
}

// Codec decodes frames for one half. A mirrored codec reflects the column
// of every decoded event; the choice is fixed when the firmware is built.
type Codec struct {
	mirror   Mirror
	mirrored bool
}

// NewCodec returns a codec that decodes coordinates unchanged.
func NewCodec() Codec {
	return Codec{}
}

// NewMirroredCodec returns a codec that reflects decoded columns about maxCol.
func NewMirroredCodec(maxCol uint8) Codec {
	return Codec{mirror: Mirror{MaxCol: maxCol}, mirrored: true}
}

// Mirrored reports whether decoded events are reflected.
func (c Codec) Mirrored() bool { return c.mirrored }

// Decode parses one frame.
func (c Codec) Decode(frame []byte) (event.Event, error) {
	if len(frame) != FrameSize {
		return event.Event{}, newFrameError(frame, pkg.ErrFrameLength)
	}
	if frame[3] != Terminator {
		return event.Event{}, newFrameError(frame, pkg.ErrFrameTerminator)
	}

	var ev event.Event
	switch frame[0] {
	case TagPress:
		ev = event.Press(frame[1], frame[2])
	case TagRelease:
		ev = event.Release(frame[1], frame[2])
	default:
		return event.Event{}, newFrameError(frame, pkg.ErrFrameTag)
	}

	if c.mirrored {
		coord, ok := c.mirror.Apply(ev.Coord)
		if !ok {
			return event.Event{}, newFrameError(frame, pkg.ErrCoordinate)
		}
		ev.Coord = coord
	}
	return ev, nil
}

// FrameError reports a frame that could not be decoded.
type FrameError struct {
	Frame [FrameSize]byte
	Len   int
	Err   error
}

func newFrameError(frame []byte, err error) *FrameError {
	fe := &FrameError{Len: len(frame), Err: err}
	copy(fe.Frame[:], frame)
	return fe
}

// Error implements error.
func (e *FrameError) Error() string {
	n := min(e.Len, FrameSize)
	return fmt.Sprintf("decode frame % x: %v", e.Frame[:n], e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *FrameError) Unwrap() error { return e.Err }
