//go:build unix

package fifo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ardnew/splitkb/pkg"
	"github.com/ardnew/splitkb/report"
)

// File names within the device directory.
const (
	fileDescriptor = "report_descriptor"
	fifoReports    = "reports"
	fifoConnection = "connection"
)

// Connection signal bytes.
const (
	sigDeconfigure = 0x00
	sigConfigure   = 0x01
)

// PollInterval is how often the host checks for reports.
const PollInterval = time.Millisecond

const openFlags = unix.O_RDWR | unix.O_NONBLOCK | unix.O_CLOEXEC

// Create makes the device directory and its FIFOs. Existing FIFOs are
// replaced.
func Create(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create device dir: %w", err)
	}
	for _, name := range []string{fifoReports, fifoConnection} {
		path := filepath.Join(dir, name)
		os.Remove(path)
		if err := unix.Mkfifo(path, 0o666); err != nil {
			return fmt.Errorf("mkfifo %s: %w", name, err)
		}
	}
	return nil
}

func openFIFO(dir, name string) (int, error) {
	fd, err := unix.Open(filepath.Join(dir, name), openFlags, 0)
	if err != nil {
		return -1, fmt.Errorf("open %s: %w", name, err)
	}
	return fd, nil
}

// Device is the keyboard end. It implements usb.Transport.
type Device struct {
	dir        string
	reports    int
	connection int
	configured atomic.Bool
	mutex      sync.Mutex
	open       bool
}

// OpenDevice publishes the keyboard report descriptor in dir and opens the
// device end of the FIFOs made by Create.
func OpenDevice(dir string) (*Device, error) {
	path := filepath.Join(dir, fileDescriptor)
	if err := os.WriteFile(path, report.KeyboardReportDescriptor, 0o644); err != nil {
		return nil, fmt.Errorf("write report descriptor: %w", err)
	}
	reports, err := openFIFO(dir, fifoReports)
	if err != nil {
		return nil, err
	}
	connection, err := openFIFO(dir, fifoConnection)
	if err != nil {
		unix.Close(reports)
		return nil, err
	}

	pkg.LogInfo(pkg.ComponentUSB, "fifo device opened", "dir", dir)
	return &Device{dir: dir, reports: reports, connection: connection, open: true}, nil
}

// Poll drains pending configuration signals and reports whether the
// configured state changed.
func (d *Device) Poll() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if !d.open {
		return false
	}

	was := d.configured.Load()
	now := was
	var buf [16]byte
	for {
		n, err := unix.Read(d.connection, buf[:])
		if n <= 0 || err != nil {
			break
		}
		// Only the latest signal matters.
		now = buf[n-1] == sigConfigure
	}
	if now == was {
		return false
	}
	d.configured.Store(now)
	pkg.LogInfo(pkg.ComponentUSB, "configuration changed", "configured", now)
	return true
}

// Configured reports whether the host has configured the device.
func (d *Device) Configured() bool {
	return d.configured.Load()
}

// WriteReport writes one report. It returns pkg.ErrBusy when the pipe is
// full, which is what a host that stopped reading looks like.
func (d *Device) WriteReport(data []byte) error {
	if len(data) != report.KeyboardReportSize {
		return fmt.Errorf("report of %d bytes: %w", len(data), pkg.ErrInvalidParameter)
	}
	if !d.configured.Load() {
		return pkg.ErrNotConfigured
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()
	if !d.open {
		return pkg.ErrNotRunning
	}
	n, err := unix.Write(d.reports, data)
	if errors.Is(err, unix.EAGAIN) || (err == nil && n == 0) {
		return pkg.ErrBusy
	}
	return err
}

// Close closes the device end.
func (d *Device) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if !d.open {
		return nil
	}
	d.open = false
	return errors.Join(unix.Close(d.reports), unix.Close(d.connection))
}

// Host is the monitor end.
type Host struct {
	reports    int
	connection int
	descriptor []byte
	buf        [report.KeyboardReportSize]byte
	nbuf       int
	closed     atomic.Bool
}

// OpenHost opens the host end of a device directory. It fails if the
// device has not published a boot keyboard report descriptor.
func OpenHost(dir string) (*Host, error) {
	desc, err := os.ReadFile(filepath.Join(dir, fileDescriptor))
	if err != nil {
		return nil, fmt.Errorf("read report descriptor: %w", err)
	}
	if !report.IsKeyboardDescriptor(desc) {
		return nil, fmt.Errorf("report descriptor is not a keyboard: %w", pkg.ErrInvalidParameter)
	}
	reports, err := openFIFO(dir, fifoReports)
	if err != nil {
		return nil, err
	}
	connection, err := openFIFO(dir, fifoConnection)
	if err != nil {
		unix.Close(reports)
		return nil, err
	}
	return &Host{reports: reports, connection: connection, descriptor: desc}, nil
}

// Descriptor returns the device's report descriptor.
func (h *Host) Descriptor() []byte { return h.descriptor }

// Configure configures or deconfigures the device.
func (h *Host) Configure(on bool) error {
	sig := [1]byte{sigDeconfigure}
	if on {
		sig[0] = sigConfigure
	}
	if _, err := unix.Write(h.connection, sig[:]); err != nil {
		return fmt.Errorf("signal configuration: %w", err)
	}
	return nil
}

// ReadReport waits for the next report or for ctx to end.
func (h *Host) ReadReport(ctx context.Context) (report.KeyboardReport, error) {
	var r report.KeyboardReport
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		if h.closed.Load() {
			return r, pkg.ErrNotRunning
		}
		n, err := unix.Read(h.reports, h.buf[h.nbuf:])
		switch {
		case errors.Is(err, unix.EAGAIN):
		case err != nil:
			return r, fmt.Errorf("read report: %w", err)
		default:
			h.nbuf += n
		}
		if h.nbuf == report.KeyboardReportSize {
			h.nbuf = 0
			r.Unmarshal(h.buf[:])
			return r, nil
		}

		select {
		case <-ctx.Done():
			return r, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close closes the host end.
func (h *Host) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	return errors.Join(unix.Close(h.reports), unix.Close(h.connection))
}
