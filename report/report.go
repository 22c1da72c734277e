package report

import (
	"fmt"
	"iter"
)

// KeyboardReportDescriptor is a standard 8-byte boot keyboard report
// descriptor.
// Report format: [modifiers, reserved, key1, key2, key3, key4, key5, key6]
var KeyboardReportDescriptor = []byte{
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x06, // Usage (Keyboard)
	0xA1, 0x01, // Collection (Application)
	0x05, 0x07, //   Usage Page (Keyboard/Keypad)
	0x19, 0xE0, //   Usage Minimum (Left Control)
	0x29, 0xE7, //   Usage Maximum (Right GUI)
	0x15, 0x00, //   Logical Minimum (0)
	0x25, 0x01, //   Logical Maximum (1)
	0x75, 0x01, //   Report Size (1)
	0x95, 0x08, //   Report Count (8)
	0x81, 0x02, //   Input (Data, Variable, Absolute) - Modifier byte
	0x95, 0x01, //   Report Count (1)
	0x75, 0x08, //   Report Size (8)
	0x81, 0x01, //   Input (Constant) - Reserved byte
	0x95, 0x05, //   Report Count (5)
	0x75, 0x01, //   Report Size (1)
	0x05, 0x08, //   Usage Page (LEDs)
	0x19, 0x01, //   Usage Minimum (Num Lock)
	0x29, 0x05, //   Usage Maximum (Kana)
	0x91, 0x02, //   Output (Data, Variable, Absolute) - LED report
	0x95, 0x01, //   Report Count (1)
	0x75, 0x03, //   Report Size (3)
	0x91, 0x01, //   Output (Constant) - Padding
	0x95, 0x06, //   Report Count (6)
	0x75, 0x08, //   Report Size (8)
	0x15, 0x00, //   Logical Minimum (0)
	0x26, 0xFF, 0x00, // Logical Maximum (255)
	0x05, 0x07, //   Usage Page (Keyboard/Keypad)
	0x19, 0x00, //   Usage Minimum (0)
	0x2A, 0xFF, 0x00, // Usage Maximum (255)
	0x81, 0x00, //   Input (Data, Array) - Key array
	0xC0, // End Collection
}

// IsKeyboardDescriptor reports whether desc opens a Generic Desktop
// Keyboard application collection.
func IsKeyboardDescriptor(desc []byte) bool {
	return len(desc) >= 6 &&
		desc[0] == 0x05 && desc[1] == 0x01 &&
		desc[2] == 0x09 && desc[3] == 0x06 &&
		desc[4] == 0xA1 && desc[5] == 0x01
}

// KeyboardReportSize is the size of a keyboard report in bytes.
const KeyboardReportSize = 8

// KeySlots is the number of simultaneous non-modifier keycodes a boot
// report can carry.
const KeySlots = 6

// KeyboardReport is an 8-byte keyboard input report.
type KeyboardReport struct {
	Modifiers uint8           // Modifier key state
	Reserved  uint8           // Reserved (always 0)
	Keys      [KeySlots]uint8 // Up to 6 simultaneous key codes
}

// MarshalTo writes the keyboard report to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (r *KeyboardReport) MarshalTo(buf []byte) int {
	if len(buf) < KeyboardReportSize {
		return 0
	}
	buf[0] = r.Modifiers
	buf[1] = r.Reserved
	copy(buf[2:KeyboardReportSize], r.Keys[:])
	return KeyboardReportSize
}

// Bytes returns the report as its wire payload.
func (r *KeyboardReport) Bytes() [KeyboardReportSize]byte {
	var buf [KeyboardReportSize]byte
	r.MarshalTo(buf[:])
	return buf
}

// Unmarshal parses an 8-byte payload into r.
// Returns false if data is too short.
func (r *KeyboardReport) Unmarshal(data []byte) bool {
	if len(data) < KeyboardReportSize {
		return false
	}
	r.Modifiers = data[0]
	r.Reserved = data[1]
	copy(r.Keys[:], data[2:KeyboardReportSize])
	return true
}

// Clear resets the keyboard report to all keys released.
func (r *KeyboardReport) Clear() {
	*r = KeyboardReport{}
}

// SetKey sets a key in the key array.
// Returns false if no slot is available.
func (r *KeyboardReport) SetKey(key Keycode) bool {
	for i := range r.Keys {
		if r.Keys[i] == 0 {
			r.Keys[i] = uint8(key)
			return true
		}
		if r.Keys[i] == uint8(key) {
			return true // Already set
		}
	}
	return false
}

// HasKey reports whether key occupies a slot.
func (r *KeyboardReport) HasKey(key Keycode) bool {
	for _, k := range r.Keys {
		if k == uint8(key) && k != 0 {
			return true
		}
	}
	return false
}

// String formats the report for logs and the monitor.
func (r KeyboardReport) String() string {
	return fmt.Sprintf("mods=%08b keys=[% x]", r.Modifiers, r.Keys[:])
}

// BuildInto rebuilds r from the active keycodes. Modifier usages set their
// bit in the modifier byte; other keycodes fill the slots in iteration
// order. Keycodes beyond KeySlots do not fit a boot report and are dropped;
// the number dropped is returned.
func BuildInto(r *KeyboardReport, keys iter.Seq[Keycode]) int {
	r.Clear()
	dropped := 0
	for k := range keys {
		switch {
		case k == KeyNone:
		case k.IsModifier():
			r.Modifiers |= k.ModifierBit()
		case !r.SetKey(k):
			dropped++
		}
	}
	return dropped
}

// Build returns the report for the active keycodes. See BuildInto for the
// overflow policy.
func Build(keys iter.Seq[Keycode]) KeyboardReport {
	var r KeyboardReport
	BuildInto(&r, keys)
	return r
}
