package main

import (
	"bytes"
	"iter"
	"slices"
	"testing"

	"github.com/ardnew/splitkb/report"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		r    report.KeyboardReport
		want string
	}{
		{report.KeyboardReport{}, "(none)"},
		{report.Build(keys(report.KeyLeftShift, report.KeyA)), "LShift+A"},
		{report.Build(keys(report.KeyRightAlt, report.KeyLeftCtrl, report.KeyE, report.Key1)), "LCtrl+RAlt+E+Kb1"},
		{report.Build(keys(report.KeyMediaPlayPause)), "MediaPlayPause"},
	}
	for _, tt := range tests {
		if got := describe(tt.r); got != tt.want {
			t.Errorf("describe(%v) = %q, want %q", tt.r, got, tt.want)
		}
	}
}

func TestTyped(t *testing.T) {
	// Each step is the report after the previous one.
	steps := []struct {
		keys []report.Keycode
		want string
	}{
		{[]report.Keycode{report.KeyH}, "h"},
		{[]report.Keycode{report.KeyH, report.KeyI}, "i"},
		{nil, ""},
		{[]report.Keycode{report.KeyLeftShift, report.Key1}, "!"},
		{[]report.Keycode{report.KeyLeftShift}, ""},
		{[]report.Keycode{report.KeyRightShift, report.KeySlash}, "?"},
		{[]report.Keycode{report.KeyF1}, ""},
		{[]report.Keycode{report.KeySpace, report.Key0}, " 0"},
	}
	var prev report.KeyboardReport
	for i, s := range steps {
		cur := report.Build(keys(s.keys...))
		if got := typed(&prev, &cur); !bytes.Equal(got, []byte(s.want)) {
			t.Errorf("step %d: typed() = %q, want %q", i, got, s.want)
		}
		prev = cur
	}
}

func TestTextPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := textPrinter(&buf)
	for _, k := range []report.Keycode{report.KeyO, 0, report.KeyK} {
		var r report.KeyboardReport
		if k != 0 {
			r = report.Build(keys(k))
		}
		p(r)
	}
	if got := buf.String(); got != "ok" {
		t.Errorf("text = %q, want %q", got, "ok")
	}
}

func keys(ks ...report.Keycode) iter.Seq[report.Keycode] {
	return slices.Values(ks)
}
