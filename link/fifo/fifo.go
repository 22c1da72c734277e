//go:build unix

package fifo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ardnew/splitkb/pkg"
)

// PollInterval is how often Serve checks for received bytes.
const PollInterval = time.Millisecond

// pipeName returns the FIFO carrying bytes sent by side.
func pipeName(side pkg.Side) string {
	return side.String() + "_tx"
}

// Create makes the two direction FIFOs under dir. Existing files are
// replaced.
func Create(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create link dir: %w", err)
	}
	for _, side := range []pkg.Side{pkg.SideLeft, pkg.SideRight} {
		path := filepath.Join(dir, pipeName(side))
		os.Remove(path)
		if err := unix.Mkfifo(path, 0o666); err != nil {
			return fmt.Errorf("mkfifo %s: %w", pipeName(side), err)
		}
	}
	return nil
}

// Port is one half's end of the emulated serial line. Writes go to this
// side's FIFO; reads come from the peer's. Both descriptors are
// non-blocking so WriteByte and ReadByte behave like a UART data register.
type Port struct {
	side  pkg.Side
	tx    int
	rx    int
	mutex sync.Mutex
	open  bool
}

// Open opens side's end of the line created by Create.
func Open(dir string, side pkg.Side) (*Port, error) {
	// O_RDWR keeps a writer attached so reads never report EOF.
	tx, err := unix.Open(filepath.Join(dir, pipeName(side)), unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", pipeName(side), err)
	}
	rx, err := unix.Open(filepath.Join(dir, pipeName(side.Peer())), unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		unix.Close(tx)
		return nil, fmt.Errorf("open %s: %w", pipeName(side.Peer()), err)
	}

	pkg.LogInfo(pkg.ComponentLink, "fifo link opened", "dir", dir, "side", side.String())
	return &Port{side: side, tx: tx, rx: rx, open: true}, nil
}

// Side returns the half that owns this port.
func (p *Port) Side() pkg.Side { return p.side }

// WriteByte writes one byte. It returns pkg.ErrBusy when the pipe buffer is
// full.
func (p *Port) WriteByte(b byte) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !p.open {
		return pkg.ErrNotRunning
	}

	buf := [1]byte{b}
	n, err := unix.Write(p.tx, buf[:])
	if errors.Is(err, unix.EAGAIN) || (err == nil && n == 0) {
		return pkg.ErrBusy
	}
	return err
}

// ReadByte reads one byte. It returns pkg.ErrBusy when nothing is waiting.
func (p *Port) ReadByte() (byte, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !p.open {
		return 0, pkg.ErrNotRunning
	}

	var buf [1]byte
	n, err := unix.Read(p.rx, buf[:])
	if errors.Is(err, unix.EAGAIN) || (err == nil && n == 0) {
		return 0, pkg.ErrBusy
	}
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Serve delivers every received byte to handler, in order, until ctx is
// done. It stands in for the serial receive interrupt.
func (p *Port) Serve(ctx context.Context, handler func(b byte)) error {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		for {
			b, err := p.ReadByte()
			if errors.Is(err, pkg.ErrBusy) {
				break
			}
			if err != nil {
				return err
			}
			handler(b)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close closes both descriptors.
func (p *Port) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !p.open {
		return nil
	}
	p.open = false
	return errors.Join(unix.Close(p.tx), unix.Close(p.rx))
}
