package main

import (
	"strings"

	"github.com/ardnew/splitkb/report"
)

var modifierNames = [8]string{"LCtrl", "LShift", "LAlt", "LGui", "RCtrl", "RShift", "RAlt", "RGui"}

// describe names the modifiers and keys held in r, joined by '+'.
func describe(r report.KeyboardReport) string {
	var names []string
	for bit, name := range modifierNames {
		if r.Modifiers&(1<<bit) != 0 {
			names = append(names, name)
		}
	}
	for _, k := range r.Keys {
		if k != 0 {
			names = append(names, report.Keycode(k).String())
		}
	}
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, "+")
}

// typed returns the characters produced by keys held in cur but not in
// prev. Keys without a printable character are skipped.
func typed(prev, cur *report.KeyboardReport) []byte {
	shift := cur.Modifiers&(report.ModLeftShift|report.ModRightShift) != 0
	var out []byte
	for _, k := range cur.Keys {
		if k == 0 || prev.HasKey(report.Keycode(k)) {
			continue
		}
		if ch := keycodeToChar(report.Keycode(k), shift); ch != 0 {
			out = append(out, ch)
		}
	}
	return out
}

// keycodeToChar converts a keycode to the character a US layout types.
func keycodeToChar(kc report.Keycode, shift bool) byte {
	if kc >= report.KeyA && kc <= report.KeyZ {
		ch := 'a' + byte(kc-report.KeyA)
		if shift {
			ch -= 'a' - 'A'
		}
		return ch
	}
	if kc >= report.Key1 && kc <= report.Key9 {
		if shift {
			return "!@#$%^&*("[kc-report.Key1]
		}
		return '1' + byte(kc-report.Key1)
	}

	plain, shifted := punctuation(kc)
	if shift {
		return shifted
	}
	return plain
}

func punctuation(kc report.Keycode) (plain, shifted byte) {
	switch kc {
	case report.Key0:
		return '0', ')'
	case report.KeySpace:
		return ' ', ' '
	case report.KeyEnter:
		return '\n', '\n'
	case report.KeyTab:
		return '\t', '\t'
	case report.KeyMinus:
		return '-', '_'
	case report.KeyEqual:
		return '=', '+'
	case report.KeyLeftBrace:
		return '[', '{'
	case report.KeyRightBrace:
		return ']', '}'
	case report.KeyBackslash:
		return '\\', '|'
	case report.KeySemicolon:
		return ';', ':'
	case report.KeyQuote:
		return '\'', '"'
	case report.KeyGrave:
		return '`', '~'
	case report.KeyComma:
		return ',', '<'
	case report.KeyDot:
		return '.', '>'
	case report.KeySlash:
		return '/', '?'
	}
	return 0, 0
}
