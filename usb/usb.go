// Package usb is the boundary between the keyboard core and a USB HID
// device stack.
//
// The core needs two things from the stack: whether a host has configured
// the device, and a way to queue an 8-byte boot keyboard report on the
// interrupt IN endpoint. [Transport] captures exactly that; enumeration,
// descriptors and endpoint servicing stay behind it. [Sender] adds the
// report delivery policy: bounded retry while the endpoint is busy, and
// suppression of reports identical to the last one delivered.
package usb

import (
	"errors"
	"fmt"

	"github.com/ardnew/splitkb/pkg"
	"github.com/ardnew/splitkb/report"
)

// Transport is a USB HID keyboard interface.
type Transport interface {
	// Poll services pending bus activity. It reports whether the
	// configured state changed.
	Poll() bool

	// Configured reports whether a host has configured the device.
	Configured() bool

	// WriteReport queues a report on the interrupt IN endpoint. It returns
	// pkg.ErrBusy while the previous report is still pending and
	// pkg.ErrNotConfigured before configuration.
	WriteReport(data []byte) error
}

// DefaultMaxRetries bounds busy retries of one report.
const DefaultMaxRetries = 10000

// Sender delivers keyboard reports over a Transport.
type Sender struct {
	transport  Transport
	maxRetries int
	suppress   bool

	last     [report.KeyboardReportSize]byte
	haveLast bool

	sent       uint32
	suppressed uint32
	dropped    uint32
}

// NewSender creates a sender. A maxRetries of zero or less selects
// DefaultMaxRetries. With suppress set, a report equal to the last one
// delivered is not sent again.
func NewSender(t Transport, maxRetries int, suppress bool) *Sender {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Sender{transport: t, maxRetries: maxRetries, suppress: suppress}
}

// Send delivers r. A report that could not be delivered is not remembered,
// so the next Send with the same content tries again.
func (s *Sender) Send(r *report.KeyboardReport) error {
	data := r.Bytes()
	if s.suppress && s.haveLast && data == s.last {
		s.suppressed++
		return nil
	}

	var err error
	for range s.maxRetries {
		err = s.transport.WriteReport(data[:])
		if !errors.Is(err, pkg.ErrBusy) {
			break
		}
	}
	switch {
	case err == nil:
	case errors.Is(err, pkg.ErrBusy):
		err = pkg.ErrRetryExhausted
		fallthrough
	default:
		s.dropped++
		pkg.LogWarn(pkg.ComponentUSB, "report dropped",
			"report", r.String(),
			"error", err)
		return fmt.Errorf("send report: %w", err)
	}

	s.last, s.haveLast = data, true
	s.sent++
	pkg.LogDebug(pkg.ComponentUSB, "report sent", "report", r.String())
	return nil
}

// Reset forgets the last delivered report. Call it when the host
// reconfigures the device, so the current state is sent again.
func (s *Sender) Reset() {
	s.haveLast = false
}

// Stats returns counts of reports sent, suppressed as duplicates, and
// dropped after failure.
func (s *Sender) Stats() (sent, suppressed, dropped uint32) {
	return s.sent, s.suppressed, s.dropped
}
