package rp2

import (
	"motionhal-go/hal/serial"

	"periph.io/x/conn/v3/gpio"
	"tinygo.org/x/drivers"
)

// Chip is the RP2040 as the HAL drives it.
type Chip interface {
	ConfigurePin(p Pin, out bool, pull gpio.Pull) error
	SetPin(p Pin, level gpio.Level)
	GetPin(p Pin) gpio.Level

	UART(index int) UARTPort
	ADC() ADCPort
	I2C(blk I2CBlock, hz uint32) (drivers.I2C, error)
}

// UARTPort is a buffered UART driver.
type UARTPort interface {
	Configure(tx, rx Pin, baud uint32) error
	SetBaudRate(baud uint32)
	SetFormat(dataBits, stopBits uint8, parity serial.Parity) error
	Write(b []byte) (int, error)
}

// ADCPort reads one 12-bit conversion per call.
type ADCPort interface {
	Configure(ch int) error
	Read(ch int) uint16
}
