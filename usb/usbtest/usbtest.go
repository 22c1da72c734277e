// Package usbtest provides an in-memory usb.Transport for tests and
// simulation.
package usbtest

import (
	"sync"

	"github.com/ardnew/splitkb/pkg"
	"github.com/ardnew/splitkb/report"
)

// Transport records reports in memory. Its zero value is an unconfigured
// device.
type Transport struct {
	mutex      sync.Mutex
	configured bool
	changed    bool
	busy       int
	reports    []report.KeyboardReport
	polls      int
}

// SetConfigured changes the configured state, as a host would.
func (t *Transport) SetConfigured(on bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.configured != on {
		t.configured, t.changed = on, true
	}
}

// SetBusy makes the next n writes fail with pkg.ErrBusy.
func (t *Transport) SetBusy(n int) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.busy = n
}

// Poll implements usb.Transport.
func (t *Transport) Poll() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.polls++
	changed := t.changed
	t.changed = false
	return changed
}

// Configured implements usb.Transport.
func (t *Transport) Configured() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.configured
}

// WriteReport implements usb.Transport.
func (t *Transport) WriteReport(data []byte) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if !t.configured {
		return pkg.ErrNotConfigured
	}
	if t.busy > 0 {
		t.busy--
		return pkg.ErrBusy
	}
	var r report.KeyboardReport
	if !r.Unmarshal(data) {
		return pkg.ErrBufferTooSmall
	}
	t.reports = append(t.reports, r)
	return nil
}

// Reports returns a copy of every report written.
func (t *Transport) Reports() []report.KeyboardReport {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return append([]report.KeyboardReport(nil), t.reports...)
}

// Last returns the most recent report, if any.
func (t *Transport) Last() (report.KeyboardReport, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if len(t.reports) == 0 {
		return report.KeyboardReport{}, false
	}
	return t.reports[len(t.reports)-1], true
}

// Polls returns the number of Poll calls.
func (t *Transport) Polls() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.polls
}
