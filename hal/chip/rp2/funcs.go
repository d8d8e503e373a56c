package rp2

import (
	"motionhal-go/hal/pins"

	"periph.io/x/conn/v3/pin"
)

// Interrupt numbers of the blocks the HAL drives.
const (
	IRQUART0   = 20
	IRQUART1   = 21
	IRQADCFIFO = 22
	IRQI2C0    = 23
	IRQI2C1    = 24
)

// UARTBlock describes one PL011 instance on a chosen pad pair.
type UARTBlock struct {
	Name   string
	Index  int
	IRQ    int
	TX, RX Pin
}

// UARTs lists the default pad pair of each instance.
var UARTs = [2]UARTBlock{
	{"UART0", 0, IRQUART0, GP0, GP1},
	{"UART1", 1, IRQUART1, GP4, GP5},
}

// I2CBlock describes one I2C instance on a chosen pad pair.
type I2CBlock struct {
	Name     string
	Index    int
	SDA, SCL Pin
}

// ADCPins maps converter input to pad; input 4 is the temperature sensor.
var ADCPins = [4]Pin{GP26, GP27, GP28, GP29}

// ADCMaxCount is the full-scale reading.
const ADCMaxCount = 4095

// ClockHz is the peripheral clock the UART divisor is taken from.
const ClockHz = 125_000_000

// Funcs lists the personalities of p. Function select is a fixed function of
// the GPIO number, so the table is computed.
func Funcs(p Pin) []pin.Func {
	if p.IsNull() {
		return nil
	}
	out := append([]pin.Func(nil), pins.GPIO...)
	n := int(p)

	// UART: TX, RX, CTS, RTS repeat every 4 pins. GP0-3 are UART0, then
	// the instance flips every 8 pins.
	uart := ((n + 4) / 8) % 2
	switch n % 4 {
	case 0:
		out = append(out, pins.Func("UART", uart, "TX"))
	case 1:
		out = append(out, pins.Func("UART", uart, "RX"))
	}

	// I2C: SDA on even, SCL on odd, instances alternate every 2 pins.
	i2c := (n / 2) % 2
	if n%2 == 0 {
		out = append(out, pins.Func("I2C", i2c, "SDA"))
	} else {
		out = append(out, pins.Func("I2C", i2c, "SCL"))
	}

	// PWM: slice (n/2)%8, channel A on even pins.
	ch := "A"
	if n%2 == 1 {
		ch = "B"
	}
	out = append(out, pins.Func("PWM", (n/2)%8, ch))

	for i, ap := range ADCPins {
		if ap == p {
			out = append(out, pins.Func("ADC", i, ""))
		}
	}
	return out
}

// Table resolves a board's role array, indexed by Pin.
func Table(board string, roles []pins.Role) *pins.Table {
	return pins.NewTable(board, pins.Collect(roles, func(i int) (pins.Physical, []pin.Func) {
		p := Pin(i)
		return p.Physical(), Funcs(p)
	}))
}
