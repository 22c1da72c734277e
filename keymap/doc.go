// Package keymap loads layout tables.
//
// A keymap is a YAML document whose layers are written one row per string,
// with whitespace-separated action tokens:
//
//	A, Kb1, LShift, ;   keycode (see report.ParseKeycode)
//	t                   transparent
//	n                   no action
//	(1)                 momentary layer 1
//	~1                  toggle layer 1
//	@1                  make layer 1 the default layer
//	s(Kb1)              Kb1 with left shift
//	a(E)                E with right alt
//	m(LCtrl,LAlt,Delete) keycode with any set of modifiers
//	ht(LShift,Space)    hold-tap with the keymap's default timing
//	{NAME}              hold-tap defined under holdtaps
//	custom(0)           custom action
//
// The built-in [Default] keymap is the five-layer 4x12 split layout.
package keymap
