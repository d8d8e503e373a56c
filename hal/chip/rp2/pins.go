// Package rp2 binds the HAL to the RP2040. The chip is reached through the
// Chip interface: TinyGo's machine package on target, Sim on the host.
package rp2

import "motionhal-go/hal/pins"

// Pin is a GPIO number.
type Pin uint8

const NoPin Pin = 0xFF

// NumPins is the user GPIO count of the QFN-56 package.
const NumPins = 30

const (
	GP0 Pin = iota
	GP1
	GP2
	GP3
	GP4
	GP5
	GP6
	GP7
	GP8
	GP9
	GP10
	GP11
	GP12
	GP13
	GP14
	GP15
	GP16
	GP17
	GP18
	GP19
	GP20
	GP21
	GP22
	GP23
	GP24
	GP25
	GP26
	GP27
	GP28
	GP29
)

func (p Pin) IsNull() bool { return p == NoPin || p >= NumPins }

// Physical converts to the chip-neutral form.
func (p Pin) Physical() pins.Physical {
	if p.IsNull() {
		return pins.Physical{}
	}
	return pins.Physical{Port: pins.Bankless, Bit: uint8(p)}
}

// PinOf converts a chip-neutral pad back to a Pin.
func PinOf(p pins.Physical) Pin {
	if p.Port != pins.Bankless || p.Bit >= NumPins {
		return NoPin
	}
	return Pin(p.Bit)
}

func (p Pin) String() string { return p.Physical().String() }
