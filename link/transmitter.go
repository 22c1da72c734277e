package link

import (
	"errors"
	"fmt"
	"io"

	"github.com/ardnew/splitkb/event"
	"github.com/ardnew/splitkb/pkg"
)

// DefaultMaxRetries bounds how many times a busy byte write is retried.
const DefaultMaxRetries = 10000

// Transmitter writes frames to the serial line. A write that reports
// pkg.ErrBusy (hardware FIFO full) is retried; the line rate guarantees the
// FIFO drains, and the retry bound keeps a dead line from hanging the tick.
type Transmitter struct {
	w          io.ByteWriter
	maxRetries int
	frame      [FrameSize]byte
}

// NewTransmitter creates a transmitter over w. A maxRetries of zero or less
// selects DefaultMaxRetries.
func NewTransmitter(w io.ByteWriter, maxRetries int) *Transmitter {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Transmitter{w: w, maxRetries: maxRetries}
}

// Send encodes e and writes the whole frame. There is no acknowledgment; a
// frame lost on the wire is a missed key event.
func (t *Transmitter) Send(e event.Event) error {
	EncodeTo(t.frame[:], e)
	for i, b := range t.frame {
		if err := t.writeByte(b); err != nil {
			pkg.LogWarn(pkg.ComponentLink, "frame send failed",
				"event", e.String(),
				"byte", i,
				"error", err)
			return fmt.Errorf("send %v: %w", e, err)
		}
	}
	return nil
}

func (t *Transmitter) writeByte(b byte) error {
	for range t.maxRetries {
		err := t.w.WriteByte(b)
		if err == nil {
			return nil
		}
		if !errors.Is(err, pkg.ErrBusy) {
			return err
		}
	}
	return pkg.ErrRetryExhausted
}
