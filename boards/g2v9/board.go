// Package g2v9 describes the G2v9 controller: a SAM3X8C with four fully
// wired driver sockets (enable, microstep select and current reference),
// nine inputs, eight outputs and a 24C32 settings EEPROM on TWI1.
package g2v9

import (
	"motionhal-go/boards/internal/sam3xwire"
	"motionhal-go/errcode"
	"motionhal-go/hal"
	"motionhal-go/hal/chip/sam3x"
	"motionhal-go/hal/eeprom"
	"motionhal-go/hal/pins"
	"motionhal-go/hal/stepper"
	"motionhal-go/persistence"
)

const Name = "g2v9"

// Motors is the socket count.
const Motors = 4

const (
	HostBaud  = 115200
	DebugBaud = 250000
)

// EEPROM layout: persistent values start at StoreBase.
const (
	EEPROMHz   = 400_000
	StoreBase  = 0
	StoreCount = 256
)

// Logical pins.
const (
	Socket1Step pins.Logical = iota + 1
	Socket1Dir
	Socket1Enable
	Socket1MS0
	Socket1MS1
	Socket1MS2
	Socket1Vref

	Socket2Step
	Socket2Dir
	Socket2Enable
	Socket2MS0
	Socket2MS1
	Socket2MS2
	Socket2Vref

	Socket3Step
	Socket3Dir
	Socket3Enable
	Socket3MS0
	Socket3MS1
	Socket3MS2
	Socket3Vref

	Socket4Step
	Socket4Dir
	Socket4Enable
	Socket4MS0
	Socket4MS1
	Socket4MS2
	Socket4Vref

	Input1
	Input2
	Input3
	Input4
	Input5
	Input6
	Input7
	Input8
	Input9

	Output1
	Output2
	Output3
	Output4
	Output5
	Output6
	Output7
	Output8

	ADC0
	ADC1
	HostRX
	HostTX
	DebugRX
	DebugTX
	EEPROMSDA
	EEPROMSCL
	LEDIndicator

	SpindlePWM
	SpindleEnable
	SpindleDir
	Coolant

	SPIMISO
	SPIMOSI
	SPISCK
	SPICS0
	Socket5Vref
)

// roles is indexed by pad. Outputs 1 to 4 double as spindle and coolant
// signals.
var roles = [sam3x.NumPins8C]pins.Role{
	sam3x.PA0:  {Logical: Socket1Step, Name: "socket1_step"},
	sam3x.PA1:  {Logical: Socket1Dir, Name: "socket1_dir"},
	sam3x.PA5:  {Logical: Socket1Enable, Name: "socket1_enable"},
	sam3x.PA7:  {Logical: Socket1MS0, Name: "socket1_ms0"},
	sam3x.PA12: {Logical: Socket1MS1, Name: "socket1_ms1"},
	sam3x.PA13: {Logical: Socket1MS2, Name: "socket1_ms2"},
	sam3x.PA14: {Logical: Socket1Vref, Name: "socket1_vref"},

	sam3x.PA15: {Logical: Socket2Step, Name: "socket2_step"},
	sam3x.PA17: {Logical: Socket2Dir, Name: "socket2_dir"},
	sam3x.PA18: {Logical: Socket2Enable, Name: "socket2_enable"},
	sam3x.PA19: {Logical: Socket2MS0, Name: "socket2_ms0"},
	sam3x.PA20: {Logical: Socket2MS1, Name: "socket2_ms1"},
	sam3x.PA21: {Logical: Socket2MS2, Name: "socket2_ms2"},
	sam3x.PB25: {Logical: Socket2Vref, Name: "socket2_vref"},

	sam3x.PB0: {Logical: Socket3Step, Name: "socket3_step"},
	sam3x.PB1: {Logical: Socket3Dir, Name: "socket3_dir"},
	sam3x.PB2: {Logical: Socket3Enable, Name: "socket3_enable"},
	sam3x.PB3: {Logical: Socket3MS0, Name: "socket3_ms0"},
	sam3x.PB4: {Logical: Socket3MS1, Name: "socket3_ms1"},
	sam3x.PB5: {Logical: Socket3MS2, Name: "socket3_ms2"},
	sam3x.PB6: {Logical: Socket3Vref, Name: "socket3_vref"},

	sam3x.PB7:  {Logical: Socket4Step, Name: "socket4_step"},
	sam3x.PB8:  {Logical: Socket4Dir, Name: "socket4_dir"},
	sam3x.PB9:  {Logical: Socket4Enable, Name: "socket4_enable"},
	sam3x.PB10: {Logical: Socket4MS0, Name: "socket4_ms0"},
	sam3x.PB11: {Logical: Socket4MS1, Name: "socket4_ms1"},
	sam3x.PB14: {Logical: Socket4MS2, Name: "socket4_ms2"},
	sam3x.PB15: {Logical: Socket4Vref, Name: "socket4_vref"},

	sam3x.PB16: {Logical: Input1, Name: "input1"},
	sam3x.PB22: {Logical: Input2, Name: "input2"},
	sam3x.PB23: {Logical: Input3, Name: "input3"},
	sam3x.PB24: {Logical: Input4, Name: "input4"},
	sam3x.PB26: {Logical: Input5, Name: "input5"},
	sam3x.PB28: {Logical: Input6, Name: "input6"},
	sam3x.PB29: {Logical: Input7, Name: "input7"},
	sam3x.PB30: {Logical: Input8, Name: "input8"},
	sam3x.PB31: {Logical: Input9, Name: "input9"},

	sam3x.PA4:  {Logical: Output1, Name: "output1",
		Aliases: []pins.Alias{{Logical: SpindlePWM, Name: "spindle_pwm"}}},
	sam3x.PA6:  {Logical: Output2, Name: "output2",
		Aliases: []pins.Alias{{Logical: SpindleEnable, Name: "spindle_enable"}}},
	sam3x.PA16: {Logical: Output3, Name: "output3",
		Aliases: []pins.Alias{{Logical: SpindleDir, Name: "spindle_dir"}}},
	sam3x.PA22: {Logical: Output4, Name: "output4",
		Aliases: []pins.Alias{{Logical: Coolant, Name: "coolant"}}},
	sam3x.PA23: {Logical: Output5, Name: "output5"},
	sam3x.PA24: {Logical: Output6, Name: "output6"},
	sam3x.PB17: {Logical: Output7, Name: "output7"},
	sam3x.PB18: {Logical: Output8, Name: "output8"},

	sam3x.PA2:      {Logical: ADC0, Name: "adc0"},
	sam3x.PA3:      {Logical: ADC1, Name: "adc1"},
	sam3x.USART0RX: {Logical: HostRX, Name: "host_rx"},
	sam3x.USART0TX: {Logical: HostTX, Name: "host_tx"},
	sam3x.UARTRX:   {Logical: DebugRX, Name: "debug_rx"},
	sam3x.UARTTX:   {Logical: DebugTX, Name: "debug_tx"},
	sam3x.TWI1SDA:  {Logical: EEPROMSDA, Name: "eeprom_sda"},
	sam3x.TWI1SCL:  {Logical: EEPROMSCL, Name: "eeprom_scl"},
	sam3x.PB27:     {Logical: LEDIndicator, Name: "led_indicator"},

	// Expansion header. The fifth socket only carries its reference.
	sam3x.SPI0MISO:  {Logical: SPIMISO, Name: "spi_miso"},
	sam3x.SPI0MOSI:  {Logical: SPIMOSI, Name: "spi_mosi"},
	sam3x.SPI0SCK:   {Logical: SPISCK, Name: "spi_sck"},
	sam3x.SPI0NPCS0: {Logical: SPICS0, Name: "spi_cs0"},
	sam3x.PB19:      {Logical: Socket5Vref, Name: "socket5_vref"},
}

func socket(n int) sam3xwire.Socket {
	p := "socket" + string(rune('0'+n)) + "_"
	return sam3xwire.Socket{
		Step: p + "step", Dir: p + "dir", Enable: p + "enable",
		MS0: p + "ms0", MS1: p + "ms1", MS2: p + "ms2",
		Vref: p + "vref",
	}
}

// Sockets lists the driver sockets in motor order.
var Sockets = [...]sam3xwire.Socket{socket(1), socket(2), socket(3), socket(4)}

// A socket table that does not match Motors gives a negative array length
// here and fails to compile.
var (
	_ [len(Sockets) - Motors]struct{}
	_ [Motors - len(Sockets)]struct{}
)

var AnalogInputs = []string{"adc0", "adc1"}

// Settings are the per-socket defaults: A4983-class drivers with an
// active-low enable and eighth stepping.
var Settings = [Motors]stepper.Settings{
	stepper.DefaultSettings(),
	stepper.DefaultSettings(),
	stepper.DefaultSettings(),
	stepper.DefaultSettings(),
}

var Board = hal.Board{
	Name:     Name,
	Chip:     "SAM3X8C",
	Pins:     sam3x.Table(Name, roles[:]),
	Motors:   Motors,
	Settings: Settings[:],
	Wire:     wire,
}

func init() { hal.RegisterBoard(Board) }

func wire(r *hal.Registry) error {
	if r.Bus() == nil {
		return errcode.New(errcode.BoardNotConfigured, "g2v9.wire", "no register bus")
	}
	for i, s := range Sockets {
		if err := sam3xwire.StepDir(r, s, Settings[i]); err != nil {
			return err
		}
	}
	if _, err := sam3xwire.Serial(r, "host", sam3x.USART0); err != nil {
		return err
	}
	if _, err := sam3xwire.Serial(r, "debug", sam3x.UART0); err != nil {
		return err
	}
	if _, err := sam3xwire.Analog(r, AnalogInputs...); err != nil {
		return err
	}
	twi, err := sam3xwire.TWI(r, "eeprom", sam3x.TWI1, EEPROMHz)
	if err != nil {
		return err
	}
	dev := eeprom.New(twi, eeprom.Config{})
	r.SetStore(persistence.NewNVM(dev, StoreBase, StoreCount,
		persistence.WithMotionGuard(r.Moving)))
	return nil
}
