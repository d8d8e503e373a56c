//go:build tinygo && rp2040

package rp2

import (
	"machine"

	"motionhal-go/errcode"
	"motionhal-go/hal/serial"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"periph.io/x/conn/v3/gpio"
	"tinygo.org/x/drivers"
)

// Machine drives the real chip.
type Machine struct {
	adc machineADC
}

func NewMachine() *Machine { return &Machine{} }

func (m *Machine) ConfigurePin(p Pin, out bool, pull gpio.Pull) error {
	mode := machine.PinInput
	switch {
	case out:
		mode = machine.PinOutput
	case pull == gpio.PullUp:
		mode = machine.PinInputPullup
	case pull == gpio.PullDown:
		mode = machine.PinInputPulldown
	}
	machine.Pin(p).Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (m *Machine) SetPin(p Pin, level gpio.Level) { machine.Pin(p).Set(bool(level)) }
func (m *Machine) GetPin(p Pin) gpio.Level        { return gpio.Level(machine.Pin(p).Get()) }

func (m *Machine) UART(index int) UARTPort {
	if index == 1 {
		return machineUART{uartx.UART1}
	}
	return machineUART{uartx.UART0}
}

func (m *Machine) ADC() ADCPort { return &m.adc }

func (m *Machine) I2C(blk I2CBlock, hz uint32) (drivers.I2C, error) {
	bus := machine.I2C0
	if blk.Index == 1 {
		bus = machine.I2C1
	}
	if err := bus.Configure(machine.I2CConfig{
		SDA:       machine.Pin(blk.SDA),
		SCL:       machine.Pin(blk.SCL),
		Frequency: hz,
	}); err != nil {
		return nil, errcode.Wrap(errcode.Error, "rp2.i2c", err)
	}
	return bus, nil
}

type machineUART struct{ u *uartx.UART }

func (m machineUART) Configure(tx, rx Pin, baud uint32) error {
	return m.u.Configure(uartx.UARTConfig{BaudRate: baud, TX: machine.Pin(tx), RX: machine.Pin(rx)})
}

func (m machineUART) SetBaudRate(baud uint32) { m.u.SetBaudRate(baud) }

func (m machineUART) SetFormat(dataBits, stopBits uint8, parity serial.Parity) error {
	var par uartx.UARTParity
	switch parity {
	case serial.ParityEven:
		par = uartx.ParityEven
	case serial.ParityOdd:
		par = uartx.ParityOdd
	default:
		par = uartx.ParityNone
	}
	return m.u.SetFormat(dataBits, stopBits, par)
}

func (m machineUART) Write(b []byte) (int, error) { return m.u.Write(b) }

type machineADC struct {
	init bool
	ch   [len(ADCPins)]machine.ADC
}

func (a *machineADC) Configure(ch int) error {
	if !a.init {
		machine.InitADC()
		a.init = true
	}
	a.ch[ch] = machine.ADC{Pin: machine.Pin(ADCPins[ch])}
	a.ch[ch].Configure(machine.ADCConfig{})
	return nil
}

// Read scales machine's 16-bit result back to the converter's 12 bits.
func (a *machineADC) Read(ch int) uint16 { return a.ch[ch].Get() >> 4 }

var _ Chip = (*Machine)(nil)
