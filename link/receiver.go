package link

import (
	"sync/atomic"

	"github.com/ardnew/splitkb/event"
	"github.com/ardnew/splitkb/pkg"
)

// Receiver reassembles frames from the serial byte stream. Bytes shift
// through a FrameSize window; whenever the newest byte is the terminator
// the window is decoded. A window that fails to decode is skipped and
// shifting continues, which resynchronizes on the next real terminator.
//
// Row or column values equal to the terminator byte cause a spurious
// decode attempt one byte early; it fails on the tag and the true frame
// decodes when its terminator arrives.
type Receiver struct {
	codec   Codec
	window  [FrameSize]byte
	dropped atomic.Uint32
}

// NewReceiver creates a receiver decoding with codec.
func NewReceiver(codec Codec) *Receiver {
	return &Receiver{codec: codec}
}

// Feed shifts b into the window. It returns the decoded event and true when
// b completed a valid frame.
func (r *Receiver) Feed(b byte) (event.Event, bool) {
	copy(r.window[:], r.window[1:])
	r.window[FrameSize-1] = b

	if b != Terminator {
		return event.Event{}, false
	}

	ev, err := r.codec.Decode(r.window[:])
	if err != nil {
		r.dropped.Add(1)
		pkg.LogDebug(pkg.ComponentLink, "frame dropped", "error", err)
		return event.Event{}, false
	}

	r.window = [FrameSize]byte{}
	return ev, true
}

// Dropped returns the number of terminator-aligned windows that failed to
// decode.
func (r *Receiver) Dropped() uint32 {
	return r.dropped.Load()
}
