package pkg

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Component identifies a firmware subsystem for log filtering.
type Component string

// Firmware component identifiers.
const (
	ComponentMatrix   Component = "matrix"
	ComponentDebounce Component = "debounce"
	ComponentLink     Component = "link"
	ComponentLayout   Component = "layout"
	ComponentReport   Component = "report"
	ComponentUSB      Component = "usb"
	ComponentFirmware Component = "firmware"
	ComponentKeymap   Component = "keymap"
	ComponentTrace    Component = "trace"
)

// LogFormat specifies the output format for logging.
type LogFormat int

// Log format options.
const (
	LogFormatText LogFormat = iota // key=value (default)
	LogFormatJSON                  // one JSON object per line
)

var (
	// level is shared by every logger made here, so SetLogLevel takes
	// effect without rebuilding handlers.
	level = new(slog.LevelVar)

	mutex   sync.RWMutex
	current *slog.Logger
)

func init() {
	level.Set(slog.LevelWarn)
	current = NewLogger(os.Stderr, LogFormatText)
}

// NewLogger returns a logger writing format to w at the shared level.
func NewLogger(w io.Writer, format LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SetLogLevel sets the minimum level for all firmware logging.
func SetLogLevel(l slog.Level) { level.Set(l) }

// LogLevel returns the minimum level for firmware logging.
func LogLevel() slog.Level { return level.Level() }

// ParseLogLevel parses debug, info, warn or error, case-insensitively.
func ParseLogLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, ErrInvalidParameter)
	}
	return l, nil
}

// SetLogger replaces the firmware logger. The logger's own handler decides
// which levels it emits.
func SetLogger(l *slog.Logger) {
	mutex.Lock()
	defer mutex.Unlock()
	current = l
}

// SetLogOutput directs firmware logging to w in format.
func SetLogOutput(w io.Writer, format LogFormat) {
	SetLogger(NewLogger(w, format))
}

// SetLogFormat directs firmware logging to os.Stderr in format.
func SetLogFormat(format LogFormat) {
	SetLogOutput(os.Stderr, format)
}

func logger() *slog.Logger {
	mutex.RLock()
	defer mutex.RUnlock()
	return current
}

// LogEnabled reports whether a record at l would be emitted.
// Tick-rate callers check this before building attributes so the scan path
// stays free of allocations when debug logging is off.
func LogEnabled(l slog.Level) bool {
	return logger().Enabled(context.Background(), l)
}

func logAt(l slog.Level, component Component, msg string, args []any) {
	lg := logger()
	if !lg.Enabled(context.Background(), l) {
		return
	}
	lg.Log(context.Background(), l, msg, append([]any{"component", string(component)}, args...)...)
}

// LogDebug logs at debug level, tagged with component.
func LogDebug(component Component, msg string, args ...any) {
	logAt(slog.LevelDebug, component, msg, args)
}

// LogInfo logs at info level, tagged with component.
func LogInfo(component Component, msg string, args ...any) {
	logAt(slog.LevelInfo, component, msg, args)
}

// LogWarn logs at warn level, tagged with component.
func LogWarn(component Component, msg string, args ...any) {
	logAt(slog.LevelWarn, component, msg, args)
}

// LogError logs at error level, tagged with component.
func LogError(component Component, msg string, args ...any) {
	logAt(slog.LevelError, component, msg, args)
}
