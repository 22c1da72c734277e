package pkg

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// capture directs logging to a buffer at lvl for the rest of the test.
func capture(t *testing.T, format LogFormat, lvl slog.Level) *bytes.Buffer {
	t.Helper()
	prevLogger, prevLevel := logger(), LogLevel()
	t.Cleanup(func() {
		SetLogger(prevLogger)
		SetLogLevel(prevLevel)
	})
	var buf bytes.Buffer
	SetLogOutput(&buf, format)
	SetLogLevel(lvl)
	return &buf
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name      string
		log       func(Component, string, ...any)
		component Component
		at        slog.Level
		emitted   bool
	}{
		{"debug shown", LogDebug, ComponentMatrix, slog.LevelDebug, true},
		{"debug hidden", LogDebug, ComponentDebounce, slog.LevelInfo, false},
		{"info shown", LogInfo, ComponentLayout, slog.LevelInfo, true},
		{"info hidden", LogInfo, ComponentLayout, slog.LevelWarn, false},
		{"warn shown", LogWarn, ComponentLink, slog.LevelWarn, true},
		{"error shown", LogError, ComponentUSB, slog.LevelWarn, true},
		{"error hidden", LogError, ComponentUSB, slog.LevelError + 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, LogFormatText, tt.at)
			tt.log(tt.component, "scan done", "tick", 7)

			out := buf.String()
			if !tt.emitted {
				if out != "" {
					t.Errorf("emitted %q at level %v", out, tt.at)
				}
				return
			}
			for _, want := range []string{"scan done", "component=" + string(tt.component), "tick=7"} {
				if !strings.Contains(out, want) {
					t.Errorf("output %q missing %q", out, want)
				}
			}
		})
	}
}

func TestLogEnabled(t *testing.T) {
	capture(t, LogFormatText, slog.LevelWarn)
	if LogEnabled(slog.LevelDebug) {
		t.Error("LogEnabled(debug) = true at warn level")
	}
	if !LogEnabled(slog.LevelError) {
		t.Error("LogEnabled(error) = false at warn level")
	}
	SetLogLevel(slog.LevelDebug)
	if !LogEnabled(slog.LevelDebug) {
		t.Error("LogEnabled(debug) = false after SetLogLevel(debug)")
	}
}

func TestLogJSON(t *testing.T) {
	buf := capture(t, LogFormatJSON, slog.LevelInfo)
	LogInfo(ComponentTrace, "trace saved", "records", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output %q is not JSON: %v", buf.String(), err)
	}
	if rec["msg"] != "trace saved" || rec["component"] != "trace" || rec["records"] != float64(3) {
		t.Errorf("record = %v", rec)
	}
}

func TestSetLogger(t *testing.T) {
	capture(t, LogFormatText, slog.LevelInfo)
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	LogInfo(ComponentKeymap, "keymap loaded")
	if !strings.Contains(buf.String(), "keymap loaded") {
		t.Errorf("custom logger not used: %q", buf.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		err  error
	}{
		{"debug", slog.LevelDebug, nil},
		{"INFO", slog.LevelInfo, nil},
		{" warn ", slog.LevelWarn, nil},
		{"error", slog.LevelError, nil},
		{"loud", 0, ErrInvalidParameter},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if !errors.Is(err, tt.err) || got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, %v, want %v, %v", tt.in, got, err, tt.want, tt.err)
		}
	}
}
