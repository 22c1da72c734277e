package usb_test

import (
	"errors"
	"testing"

	"github.com/ardnew/splitkb/pkg"
	"github.com/ardnew/splitkb/report"
	"github.com/ardnew/splitkb/usb"
	"github.com/ardnew/splitkb/usb/usbtest"
)

func keyReport(keys ...report.Keycode) *report.KeyboardReport {
	r := report.Build(func(yield func(report.Keycode) bool) {
		for _, k := range keys {
			if !yield(k) {
				return
			}
		}
	})
	return &r
}

func TestSenderSuppressesDuplicates(t *testing.T) {
	tests := []struct {
		name     string
		suppress bool
		want     int
	}{
		{"suppress", true, 3},
		{"send all", false, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &usbtest.Transport{}
			tr.SetConfigured(true)
			s := usb.NewSender(tr, 0, tt.suppress)

			for _, r := range []*report.KeyboardReport{
				keyReport(), keyReport(), keyReport(report.KeyA), keyReport(report.KeyA), keyReport(),
			} {
				if err := s.Send(r); err != nil {
					t.Fatalf("Send() error = %v", err)
				}
			}
			if got := len(tr.Reports()); got != tt.want {
				t.Errorf("reports written = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSenderRetriesBusy(t *testing.T) {
	tr := &usbtest.Transport{}
	tr.SetConfigured(true)
	tr.SetBusy(3)
	s := usb.NewSender(tr, 4, true)

	if err := s.Send(keyReport(report.KeyB)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	last, ok := tr.Last()
	if !ok || !last.HasKey(report.KeyB) {
		t.Errorf("Last() = %v, %v, want report with B", last, ok)
	}
}

func TestSenderRetryExhausted(t *testing.T) {
	tr := &usbtest.Transport{}
	tr.SetConfigured(true)
	tr.SetBusy(10)
	s := usb.NewSender(tr, 4, true)

	r := keyReport(report.KeyC)
	if err := s.Send(r); !errors.Is(err, pkg.ErrRetryExhausted) {
		t.Fatalf("Send() error = %v, want %v", err, pkg.ErrRetryExhausted)
	}
	// The failed report is not remembered, so an identical one is retried.
	tr.SetBusy(0)
	if err := s.Send(r); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := len(tr.Reports()); got != 1 {
		t.Errorf("reports written = %d, want 1", got)
	}
	sent, suppressed, dropped := s.Stats()
	if sent != 1 || suppressed != 0 || dropped != 1 {
		t.Errorf("Stats() = %d, %d, %d, want 1, 0, 1", sent, suppressed, dropped)
	}
}

func TestSenderNotConfigured(t *testing.T) {
	tr := &usbtest.Transport{}
	s := usb.NewSender(tr, 4, true)
	if err := s.Send(keyReport()); !errors.Is(err, pkg.ErrNotConfigured) {
		t.Errorf("Send() error = %v, want %v", err, pkg.ErrNotConfigured)
	}
}

func TestSenderReset(t *testing.T) {
	tr := &usbtest.Transport{}
	tr.SetConfigured(true)
	s := usb.NewSender(tr, 0, true)

	s.Send(keyReport(report.KeyA))
	s.Send(keyReport(report.KeyA))
	s.Reset()
	s.Send(keyReport(report.KeyA))
	if got := len(tr.Reports()); got != 2 {
		t.Errorf("reports written = %d, want 2", got)
	}
}

func TestTransportPollReportsChange(t *testing.T) {
	tr := &usbtest.Transport{}
	if tr.Poll() {
		t.Error("Poll() = true before any change")
	}
	tr.SetConfigured(true)
	if !tr.Poll() {
		t.Error("Poll() = false after configuration")
	}
	if tr.Poll() {
		t.Error("Poll() = true twice for one change")
	}
}
