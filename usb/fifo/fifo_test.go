//go:build unix

package fifo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ardnew/splitkb/pkg"
	"github.com/ardnew/splitkb/report"
	"github.com/ardnew/splitkb/usb"
)

var _ usb.Transport = (*Device)(nil)

func openPair(t *testing.T) (*Device, *Host) {
	t.Helper()
	dir := t.TempDir()
	if err := Create(dir); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	dev, err := OpenDevice(dir)
	if err != nil {
		t.Fatalf("OpenDevice() error = %v", err)
	}
	t.Cleanup(func() { dev.Close() })
	host, err := OpenHost(dir)
	if err != nil {
		t.Fatalf("OpenHost() error = %v", err)
	}
	t.Cleanup(func() { host.Close() })
	return dev, host
}

func TestReportDelivery(t *testing.T) {
	dev, host := openPair(t)

	var r report.KeyboardReport
	r.Modifiers = report.ModLeftShift
	r.SetKey(report.KeyA)
	data := r.Bytes()

	if err := dev.WriteReport(data[:]); !errors.Is(err, pkg.ErrNotConfigured) {
		t.Fatalf("WriteReport() before configuration error = %v, want %v", err, pkg.ErrNotConfigured)
	}

	if err := host.Configure(true); err != nil {
		t.Fatal(err)
	}
	if !dev.Poll() {
		t.Fatal("Poll() = false after host configured")
	}
	if !dev.Configured() {
		t.Fatal("Configured() = false")
	}
	if dev.Poll() {
		t.Error("Poll() = true with no new signal")
	}

	if err := dev.WriteReport(data[:]); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := host.ReadReport(ctx)
	if err != nil {
		t.Fatalf("ReadReport() error = %v", err)
	}
	if got != r {
		t.Errorf("ReadReport() = %v, want %v", got, r)
	}

	if err := host.Configure(false); err != nil {
		t.Fatal(err)
	}
	if !dev.Poll() || dev.Configured() {
		t.Error("device still configured after deconfigure")
	}
}

func TestLatestSignalWins(t *testing.T) {
	dev, host := openPair(t)
	host.Configure(true)
	host.Configure(false)
	host.Configure(true)
	dev.Poll()
	if !dev.Configured() {
		t.Error("Configured() = false, want true from the last signal")
	}
}

func TestReadReportTimeout(t *testing.T) {
	_, host := openPair(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := host.ReadReport(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ReadReport() error = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestWriteReportLength(t *testing.T) {
	dev, host := openPair(t)
	host.Configure(true)
	dev.Poll()
	if err := dev.WriteReport([]byte{1, 2, 3}); !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("WriteReport(short) error = %v, want %v", err, pkg.ErrInvalidParameter)
	}
}

func TestOpenHostWithoutDevice(t *testing.T) {
	dir := t.TempDir()
	if err := Create(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenHost(dir); err == nil {
		t.Error("OpenHost() succeeded without a published descriptor")
	}
}

func TestClosedDevice(t *testing.T) {
	dev, host := openPair(t)
	host.Configure(true)
	dev.Poll()
	if err := dev.Close(); err != nil {
		t.Fatal(err)
	}
	if err := dev.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	var data [report.KeyboardReportSize]byte
	if err := dev.WriteReport(data[:]); !errors.Is(err, pkg.ErrNotRunning) {
		t.Errorf("WriteReport() after Close error = %v, want %v", err, pkg.ErrNotRunning)
	}
}
