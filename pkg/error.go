package pkg

import (
	"errors"
	"fmt"
)

// Hardware and transport errors.
var (
	// ErrScan indicates a switch read failed part way through a scan.
	ErrScan = errors.New("matrix scan failed")

	// ErrBusy indicates a transmit FIFO or endpoint cannot accept data yet.
	ErrBusy = errors.New("resource busy")

	// ErrNotConfigured indicates the USB device has not been configured by a host.
	ErrNotConfigured = errors.New("device not configured")

	// ErrNotRunning indicates the component has not been initialized.
	ErrNotRunning = errors.New("not running")

	// ErrAlreadyRunning indicates the component was already initialized.
	ErrAlreadyRunning = errors.New("already running")

	// ErrRetryExhausted indicates a bounded write retry gave up.
	ErrRetryExhausted = errors.New("write retries exhausted")
)

// Half-link framing errors.
var (
	// ErrFrameLength indicates a frame is not exactly FrameSize bytes.
	ErrFrameLength = errors.New("invalid frame length")

	// ErrFrameTag indicates a frame tag other than Press or Release.
	ErrFrameTag = errors.New("invalid frame tag")

	// ErrFrameTerminator indicates the terminator is missing from the last byte.
	ErrFrameTerminator = errors.New("missing frame terminator")
)

// Configuration and data errors.
var (
	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrCoordinate indicates a coordinate outside the configured grid.
	ErrCoordinate = errors.New("coordinate out of range")

	// ErrKeymap indicates a malformed keymap definition.
	ErrKeymap = errors.New("invalid keymap")

	// ErrTrace indicates a malformed scan recording.
	ErrTrace = errors.New("invalid trace")

	// ErrBufferTooSmall indicates the provided buffer is too small.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrNoResources indicates a fixed-capacity table is full.
	ErrNoResources = errors.New("no resources available")
)

// Role identifies which half is attached to the USB host.
type Role int

// Role values.
const (
	RoleSecondary Role = iota // Relays events over the half link
	RolePrimary               // Resolves events and sends HID reports
)

// String returns a string representation of the role.
func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// Side identifies a physical keyboard half.
type Side int

// Side values.
const (
	SideLeft Side = iota
	SideRight
)

// String returns a string representation of the side.
func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "unknown"
	}
}

// Peer returns the opposite half.
func (s Side) Peer() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

// ParseSide parses "left" or "right".
func ParseSide(s string) (Side, error) {
	switch s {
	case "left":
		return SideLeft, nil
	case "right":
		return SideRight, nil
	default:
		return 0, fmt.Errorf("side %q: %w", s, ErrInvalidParameter)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	if s != SideLeft && s != SideRight {
		return nil, fmt.Errorf("side %d: %w", int(s), ErrInvalidParameter)
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(text []byte) error {
	v, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
