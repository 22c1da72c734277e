// Package report builds USB boot keyboard reports.
//
// A boot report is 8 bytes: a modifier bitmask, a reserved byte and six
// keycode slots. [Build] projects the layout engine's active keycodes onto
// that format. It is pure and total: modifiers become bits, other keycodes
// fill slots in the order the engine yields them, and anything past the
// sixth slot is silently dropped since a boot report cannot express it.
//
//	r := report.Build(layout.Keycodes())
//	buf := r.Bytes()
package report
