package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ardnew/splitkb/matrix"
	"github.com/ardnew/splitkb/pkg"
	"github.com/ardnew/splitkb/trace"
)

// compileScript reads a text scan script and writes it to w as records.
//
// Each non-blank line is "<tick> press|release <row> <col>"; '#' starts a
// comment. Ticks must not decrease. Lines sharing a tick take effect
// together.
func compileScript(r io.Reader, w *trace.Writer) error {
	h := w.Header()
	grid := matrix.NewGrid(int(h.Rows), int(h.Cols))
	if err := w.Write(0, &grid); err != nil {
		return err
	}

	var (
		tick    uint64
		pending bool
		line    int
	)
	flush := func() error {
		if !pending {
			return nil
		}
		pending = false
		return w.Write(tick, &grid)
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line++
		text, _, _ := strings.Cut(sc.Text(), "#")
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		t, active, row, col, err := parseScriptLine(fields)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if t < tick {
			return fmt.Errorf("line %d: tick %d after %d: %w", line, t, tick, pkg.ErrInvalidParameter)
		}
		if row >= grid.Rows() || col >= grid.Cols() {
			return fmt.Errorf("line %d: switch (%d, %d) outside %dx%d matrix: %w",
				line, row, col, grid.Rows(), grid.Cols(), pkg.ErrCoordinate)
		}
		if t != tick {
			if err := flush(); err != nil {
				return err
			}
			tick = t
		}
		grid.Set(row, col, active)
		pending = true
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return flush()
}

func parseScriptLine(fields []string) (tick uint64, active bool, row, col int, err error) {
	if len(fields) != 4 {
		return 0, false, 0, 0, fmt.Errorf("want <tick> press|release <row> <col>: %w", pkg.ErrInvalidParameter)
	}
	if tick, err = strconv.ParseUint(fields[0], 10, 64); err != nil {
		return 0, false, 0, 0, fmt.Errorf("tick %q: %w", fields[0], pkg.ErrInvalidParameter)
	}
	switch strings.ToLower(fields[1]) {
	case "press", "p":
		active = true
	case "release", "r":
	default:
		return 0, false, 0, 0, fmt.Errorf("action %q: %w", fields[1], pkg.ErrInvalidParameter)
	}
	r, err := strconv.ParseUint(fields[2], 10, 8)
	if err != nil {
		return 0, false, 0, 0, fmt.Errorf("row %q: %w", fields[2], pkg.ErrInvalidParameter)
	}
	c, err := strconv.ParseUint(fields[3], 10, 8)
	if err != nil {
		return 0, false, 0, 0, fmt.Errorf("col %q: %w", fields[3], pkg.ErrInvalidParameter)
	}
	return tick, active, int(r), int(c), nil
}
