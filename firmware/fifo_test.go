//go:build unix

package firmware_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ardnew/splitkb/config"
	"github.com/ardnew/splitkb/firmware"
	"github.com/ardnew/splitkb/keymap"
	linkfifo "github.com/ardnew/splitkb/link/fifo"
	"github.com/ardnew/splitkb/matrix"
	"github.com/ardnew/splitkb/pkg"
	"github.com/ardnew/splitkb/report"
	usbfifo "github.com/ardnew/splitkb/usb/fifo"
	"github.com/ardnew/splitkb/usb/usbtest"
)

type staticScanner matrix.Grid

func (s *staticScanner) Scan(g *matrix.Grid) error {
	*g = matrix.Grid(*s)
	return nil
}

// TestSplitHalvesOverFifos runs both halves against named pipes: the right
// half forwards a key over the link and the left half reports it to the
// host.
func TestSplitHalvesOverFifos(t *testing.T) {
	dir := t.TempDir()
	linkDir, usbDir := filepath.Join(dir, "link"), filepath.Join(dir, "usb")
	if err := linkfifo.Create(linkDir); err != nil {
		t.Fatal(err)
	}
	if err := usbfifo.Create(usbDir); err != nil {
		t.Fatal(err)
	}

	dev, err := usbfifo.OpenDevice(usbDir)
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()
	host, err := usbfifo.OpenHost(usbDir)
	if err != nil {
		t.Fatal(err)
	}
	defer host.Close()

	leftPort, err := linkfifo.Open(linkDir, pkg.SideLeft)
	if err != nil {
		t.Fatal(err)
	}
	defer leftPort.Close()
	rightPort, err := linkfifo.Open(linkDir, pkg.SideRight)
	if err != nil {
		t.Fatal(err)
	}
	defer rightPort.Close()

	km, err := keymap.Parse([]byte("layers:\n  - ['A B C D']\n"), keymap.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	half := func(side pkg.Side) *config.Config {
		cfg := config.Default()
		cfg.Side = side
		cfg.Matrix.Rows, cfg.Matrix.Cols, cfg.LayoutCols = 1, 2, 4
		return cfg
	}

	idle := staticScanner(matrix.NewGrid(1, 2))
	left, err := firmware.New(half(pkg.SideLeft), firmware.Deps{
		Scanner: &idle, Keymap: km, Link: leftPort, USB: dev,
	})
	if err != nil {
		t.Fatal(err)
	}
	// Right physical column 0 is logical column 3.
	pressed := staticScanner(matrix.GridOf([]bool{true, false}))
	right, err := firmware.New(half(pkg.SideRight), firmware.Deps{
		Scanner: &pressed, Keymap: km, Link: rightPort, USB: &usbtest.Transport{},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := host.Configure(true); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	run := func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("half stopped: %v", err)
			}
		}()
	}
	run(func() error { return leftPort.Serve(ctx, left.ReceiveByte) })
	run(func() error {
		for ctx.Err() == nil {
			left.PollUSB()
			time.Sleep(time.Millisecond)
		}
		return ctx.Err()
	})
	run(func() error { return left.Run(ctx, time.Millisecond) })
	run(func() error { return right.Run(ctx, time.Millisecond) })

	for {
		r, err := host.ReadReport(ctx)
		if err != nil {
			t.Fatalf("ReadReport() error = %v before key D arrived", err)
		}
		if r.HasKey(report.KeyD) {
			break
		}
	}
	cancel()
	wg.Wait()

	if s := right.Stats(); s.Forwarded != 1 || s.Reports != 0 {
		t.Errorf("right Stats() = %+v, want one forwarded event and no reports", s)
	}
}
