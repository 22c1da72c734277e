// Package pkg provides shared utilities for the splitkb firmware.
//
// This package contains common functionality used by every stage of the
// keyboard pipeline, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error values for scan, link and configuration faults
//   - [Exclusive], a lock-guarded owner for state shared between contexts
//
// # Logging
//
// The logging subsystem wraps [log/slog] with firmware component context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentLink, "frame received", "event", ev)
//
// # Errors
//
// Errors are sentinel values compared with [errors.Is]:
//
//	if errors.Is(err, pkg.ErrFrameTag) {
//	    // Resynchronize and wait for the next terminator
//	}
package pkg
