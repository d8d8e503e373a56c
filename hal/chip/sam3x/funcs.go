package sam3x

import (
	"motionhal-go/hal/pins"

	"periph.io/x/conn/v3/pin"
)

// Periph selects the PIO multiplexer input for a pad.
type Periph uint8

const (
	PeriphA Periph = iota
	PeriphB
)

// Signal pads of the blocks the drivers in this module use.
const (
	UARTRX = PA8
	UARTTX = PA9

	USART0RX = PA10
	USART0TX = PA11
	USART1RX = PA12
	USART1TX = PA13
	USART2RX = PB21
	USART2TX = PB20
	USART3RX = PD5
	USART3TX = PD4

	TWI0SDA = PA17
	TWI0SCL = PA18
	TWI1SDA = PB12
	TWI1SCL = PB13

	SPI0MISO  = PA25
	SPI0MOSI  = PA26
	SPI0SCK   = PA27
	SPI0NPCS0 = PA28
	SPI0NPCS1 = PA29
)

// mux is one alternate function of a pad.
type mux struct {
	periph Periph
	fn     pin.Func
}

var altFuncs = map[Pin][]mux{
	UARTRX:    {{PeriphA, pins.Func("UART", -1, "RX")}},
	UARTTX:    {{PeriphA, pins.Func("UART", -1, "TX")}},
	USART0RX:  {{PeriphA, pins.Func("USART", 0, "RX")}},
	USART0TX:  {{PeriphA, pins.Func("USART", 0, "TX")}},
	USART1RX:  {{PeriphA, pins.Func("USART", 1, "RX")}},
	USART1TX:  {{PeriphA, pins.Func("USART", 1, "TX")}},
	USART2RX:  {{PeriphA, pins.Func("USART", 2, "RX")}},
	USART2TX:  {{PeriphA, pins.Func("USART", 2, "TX")}},
	USART3RX:  {{PeriphB, pins.Func("USART", 3, "RX")}},
	USART3TX:  {{PeriphB, pins.Func("USART", 3, "TX")}},
	TWI0SDA:   {{PeriphA, pins.Func("TWI", 0, "SDA")}},
	TWI0SCL:   {{PeriphA, pins.Func("TWI", 0, "SCL")}},
	TWI1SDA:   {{PeriphA, pins.Func("TWI", 1, "SDA")}},
	TWI1SCL:   {{PeriphA, pins.Func("TWI", 1, "SCL")}},
	SPI0MISO:  {{PeriphA, pins.Func("SPI", 0, "MISO")}},
	SPI0MOSI:  {{PeriphA, pins.Func("SPI", 0, "MOSI")}},
	SPI0SCK:   {{PeriphA, pins.Func("SPI", 0, "CLK")}},
	SPI0NPCS0: {{PeriphA, pins.Func("SPI", 0, "CS0")}},
	SPI0NPCS1: {{PeriphA, pins.Func("SPI", 0, "CS1")}},
}

// ADCChannelCount is the number of external inputs (AD0..AD14); AD15 is the
// internal temperature sensor.
const ADCChannelCount = 15

// ADCPins maps channel number to pad. Index with a constant so that a
// channel the chip lacks fails to build.
var ADCPins = [ADCChannelCount]Pin{
	0:  PA2,
	1:  PA3,
	2:  PA4,
	3:  PA6,
	4:  PA22,
	5:  PA23,
	6:  PA24,
	7:  PA16,
	8:  PB12,
	9:  PB13,
	10: PB17,
	11: PB18,
	12: PB19,
	13: PB20,
	14: PB21,
}

// Funcs lists the personalities of p: GPIO, its multiplexed peripheral
// signals and its analog input if any.
func Funcs(p Pin) []pin.Func {
	if p.IsNull() {
		return nil
	}
	out := append([]pin.Func(nil), pins.GPIO...)
	for _, m := range altFuncs[p] {
		out = append(out, m.fn)
	}
	for ch, ap := range ADCPins {
		if ap == p {
			out = append(out, pins.Func("AD", ch, ""))
		}
	}
	return out
}

// PeriphFor reports which multiplexer input carries f on p.
func PeriphFor(p Pin, f pin.Func) (Periph, bool) {
	for _, m := range altFuncs[p] {
		if m.fn == f {
			return m.periph, true
		}
	}
	return 0, false
}

// Table resolves a board's role array, indexed by Pin, into a pin identity
// table.
func Table(board string, roles []pins.Role) *pins.Table {
	return pins.NewTable(board, pins.Collect(roles, func(i int) (pins.Physical, []pin.Func) {
		p := Pin(i)
		return p.Physical(), Funcs(p)
	}))
}
