package sam3x

import "motionhal-go/hal/pins"

// Pin is a physical pad: port index * 32 + bit.
type Pin uint8

// NoPin marks an unwired signal.
const NoPin Pin = 0xFF

const (
	// NumPins8C covers ports A and B, the SAM3X8C (100-pin) package.
	NumPins8C = 2 * 32
	// NumPins8E covers ports A to D, the SAM3X8E (144-pin) package.
	NumPins8E = 4 * 32
)

const (
	PA0 Pin = iota
	PA1
	PA2
	PA3
	PA4
	PA5
	PA6
	PA7
	PA8
	PA9
	PA10
	PA11
	PA12
	PA13
	PA14
	PA15
	PA16
	PA17
	PA18
	PA19
	PA20
	PA21
	PA22
	PA23
	PA24
	PA25
	PA26
	PA27
	PA28
	PA29
)

const (
	PB0 Pin = iota + 32
	PB1
	PB2
	PB3
	PB4
	PB5
	PB6
	PB7
	PB8
	PB9
	PB10
	PB11
	PB12
	PB13
	PB14
	PB15
	PB16
	PB17
	PB18
	PB19
	PB20
	PB21
	PB22
	PB23
	PB24
	PB25
	PB26
	PB27
	PB28
	PB29
	PB30
	PB31
)

const (
	PC0 Pin = iota + 64
	PC1
	PC2
	PC3
	PC4
	PC5
	PC6
	PC7
	PC8
	PC9
	PC10
	PC11
	PC12
	PC13
	PC14
	PC15
	PC16
	PC17
	PC18
	PC19
	PC20
	PC21
	PC22
	PC23
	PC24
	PC25
	PC26
	PC27
	PC28
	PC29
	PC30
)

const (
	PD0 Pin = iota + 96
	PD1
	PD2
	PD3
	PD4
	PD5
	PD6
	PD7
	PD8
	PD9
	PD10
)

func (p Pin) Port() int    { return int(p) / 32 }
func (p Pin) Bit() uint8   { return uint8(p) % 32 }
func (p Pin) Mask() uint32 { return 1 << p.Bit() }
func (p Pin) IsNull() bool { return p == NoPin }

// PIOBase returns the register block of the pin's port.
func (p Pin) PIOBase() uintptr { return BasePIOA + uintptr(p.Port())*pioStride }

// PIOID returns the PMC peripheral identifier of the pin's port.
func (p Pin) PIOID() uint8 { return IDPIOA + uint8(p.Port()) }

// Physical converts to the chip-neutral form.
func (p Pin) Physical() pins.Physical {
	if p.IsNull() {
		return pins.Physical{}
	}
	return pins.Physical{Port: pins.Port('A' + p.Port()), Bit: p.Bit()}
}

// PinOf converts a chip-neutral pad back to a Pin. Pads outside ports A to
// D give NoPin.
func PinOf(p pins.Physical) Pin {
	if p.Port < 'A' || p.Port > 'D' || p.Bit > 31 {
		return NoPin
	}
	return Pin(int(p.Port-'A')*32 + int(p.Bit))
}

func (p Pin) String() string {
	if p.IsNull() {
		return "NC"
	}
	return p.Physical().String()
}
