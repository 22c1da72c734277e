//go:build tinygo

package matrix

import "machine"

// MachinePin adapts a TinyGo machine.Pin to the Pin interface.
type MachinePin struct {
	machine.Pin
}

// InputPullup configures p as a pulled-up input and wraps it. Use with an
// active-low DirectPinMatrix.
func InputPullup(p machine.Pin) MachinePin {
	p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return MachinePin{Pin: p}
}

// Get returns the pin level. GPIO reads cannot fail on the supported targets.
func (p MachinePin) Get() (bool, error) {
	return p.Pin.Get(), nil
}
