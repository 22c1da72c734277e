package layout

import (
	"fmt"
	"strings"

	"github.com/ardnew/splitkb/report"
)

// ActionKind tags the variant held by an Action.
type ActionKind uint8

// Action kinds. The zero value is ActionNoOp.
const (
	ActionNoOp ActionKind = iota
	ActionTransparent
	ActionKeycode
	ActionModified
	ActionMomentaryLayer
	ActionToggleLayer
	ActionDefaultLayer
	ActionHoldTap
	ActionCustom
)

// String returns a string representation of the kind.
func (k ActionKind) String() string {
	switch k {
	case ActionNoOp:
		return "noop"
	case ActionTransparent:
		return "transparent"
	case ActionKeycode:
		return "keycode"
	case ActionModified:
		return "modified"
	case ActionMomentaryLayer:
		return "momentary"
	case ActionToggleLayer:
		return "toggle"
	case ActionDefaultLayer:
		return "default"
	case ActionHoldTap:
		return "holdtap"
	case ActionCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Action is what a coordinate does on a given layer. Only the fields
// relevant to Kind are meaningful.
type Action struct {
	Kind    ActionKind
	Key     report.Keycode // Keycode, Modified
	Mods    uint8          // Modified: report modifier bits held with Key
	Layer   uint8          // MomentaryLayer, ToggleLayer, DefaultLayer
	Custom  uint16         // Custom payload
	HoldTap *HoldTapAction // HoldTap
}

// Common actions.
var (
	NoOp        = Action{Kind: ActionNoOp}
	Transparent = Action{Kind: ActionTransparent}
)

// Key returns an action that holds keycode k.
func Key(k report.Keycode) Action {
	return Action{Kind: ActionKeycode, Key: k}
}

// Modified returns an action that holds k together with the modifier bits
// in mods, as one chord.
func Modified(mods uint8, k report.Keycode) Action {
	return Action{Kind: ActionModified, Key: k, Mods: mods}
}

// MomentaryLayer returns an action that activates layer id while held.
func MomentaryLayer(id uint8) Action {
	return Action{Kind: ActionMomentaryLayer, Layer: id}
}

// ToggleLayer returns an action that flips layer id on each press.
func ToggleLayer(id uint8) Action {
	return Action{Kind: ActionToggleLayer, Layer: id}
}

// DefaultLayer returns an action that makes id the base layer.
func DefaultLayer(id uint8) Action {
	return Action{Kind: ActionDefaultLayer, Layer: id}
}

// HoldTap returns an action disambiguated by how long the key is held.
func HoldTap(ht *HoldTapAction) Action {
	return Action{Kind: ActionHoldTap, HoldTap: ht}
}

// Custom returns an action with no HID effect whose press and release are
// reported to the caller of Layout.Tick.
func Custom(value uint16) Action {
	return Action{Kind: ActionCustom, Custom: value}
}

// String formats the action in the keymap token syntax.
func (a Action) String() string {
	switch a.Kind {
	case ActionNoOp:
		return "n"
	case ActionTransparent:
		return "t"
	case ActionKeycode:
		return a.Key.String()
	case ActionModified:
		var parts []string
		for bit := 0; bit < 8; bit++ {
			if a.Mods&(1<<bit) != 0 {
				parts = append(parts, (report.KeyLeftCtrl + report.Keycode(bit)).String())
			}
		}
		parts = append(parts, a.Key.String())
		return "m(" + strings.Join(parts, ",") + ")"
	case ActionMomentaryLayer:
		return fmt.Sprintf("(%d)", a.Layer)
	case ActionToggleLayer:
		return fmt.Sprintf("~%d", a.Layer)
	case ActionDefaultLayer:
		return fmt.Sprintf("@%d", a.Layer)
	case ActionHoldTap:
		if a.HoldTap == nil {
			return "ht()"
		}
		return fmt.Sprintf("ht(%v,%v)", a.HoldTap.Hold, a.HoldTap.Tap)
	case ActionCustom:
		return fmt.Sprintf("custom(%d)", a.Custom)
	default:
		return "?"
	}
}

// HoldTapConfig selects what, besides the timeout and the key's own
// release, resolves a pending hold-tap.
type HoldTapConfig uint8

// Hold-tap interrupt policies.
const (
	// HoldTapDefault resolves only on timeout (hold) or release (tap).
	HoldTapDefault HoldTapConfig = iota
	// HoldTapHoldOnOtherKeyPress resolves to hold as soon as another key
	// is pressed.
	HoldTapHoldOnOtherKeyPress
	// HoldTapPermissiveHold resolves to hold when another key is pressed
	// and released while pending.
	HoldTapPermissiveHold
)

// String returns a string representation of the policy.
func (c HoldTapConfig) String() string {
	switch c {
	case HoldTapDefault:
		return "default"
	case HoldTapHoldOnOtherKeyPress:
		return "hold-on-other-key-press"
	case HoldTapPermissiveHold:
		return "permissive-hold"
	default:
		return "unknown"
	}
}

// HoldTapAction binds two actions to one key.
type HoldTapAction struct {
	// Timeout is the number of ticks after which a still-held key resolves
	// to Hold.
	Timeout uint16

	// TapHoldInterval is the window, in ticks, after a tap during which
	// pressing the same key again resolves immediately to Tap. This lets
	// the tap keycode auto-repeat. Zero disables it.
	TapHoldInterval uint16

	// Config is the interrupt policy.
	Config HoldTapConfig

	// Hold and Tap are the resolved actions. They must not themselves be
	// hold-taps.
	Hold Action
	Tap  Action
}
