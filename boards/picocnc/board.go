// Package picocnc describes a four-axis controller built on a Raspberry Pi
// Pico: step, dir and enable per socket, six limit inputs, three analog
// inputs and a settings EEPROM on I2C0.
package picocnc

import (
	"motionhal-go/errcode"
	"motionhal-go/hal"
	"motionhal-go/hal/analog"
	"motionhal-go/hal/chip/rp2"
	"motionhal-go/hal/eeprom"
	"motionhal-go/hal/pins"
	"motionhal-go/hal/serial"
	"motionhal-go/hal/stepper"
	"motionhal-go/persistence"
)

const Name = "picocnc"

const Motors = 4

const (
	HostBaud   = 115200
	EEPROMHz   = 400_000
	StoreCount = 128
)

// Logical pins.
const (
	HostTX pins.Logical = iota + 1
	HostRX

	Socket1Step
	Socket1Dir
	Socket1Enable
	Socket2Step
	Socket2Dir
	Socket2Enable
	Socket3Step
	Socket3Dir
	Socket3Enable
	Socket4Step
	Socket4Dir
	Socket4Enable

	Input1
	Input2
	Input3
	Input4
	Input5
	Input6

	EEPROMSDA
	EEPROMSCL
	SpindlePWM
	LED
	ADC0
	ADC1
	ADC2
)

var roles = [rp2.NumPins]pins.Role{
	rp2.GP0: {Logical: HostTX, Name: "host_tx"},
	rp2.GP1: {Logical: HostRX, Name: "host_rx"},

	rp2.GP2:  {Logical: Socket1Step, Name: "socket1_step"},
	rp2.GP3:  {Logical: Socket1Dir, Name: "socket1_dir"},
	rp2.GP4:  {Logical: Socket1Enable, Name: "socket1_enable"},
	rp2.GP5:  {Logical: Socket2Step, Name: "socket2_step"},
	rp2.GP6:  {Logical: Socket2Dir, Name: "socket2_dir"},
	rp2.GP7:  {Logical: Socket2Enable, Name: "socket2_enable"},
	rp2.GP8:  {Logical: Socket3Step, Name: "socket3_step"},
	rp2.GP9:  {Logical: Socket3Dir, Name: "socket3_dir"},
	rp2.GP10: {Logical: Socket3Enable, Name: "socket3_enable"},
	rp2.GP11: {Logical: Socket4Step, Name: "socket4_step"},
	rp2.GP12: {Logical: Socket4Dir, Name: "socket4_dir"},
	rp2.GP13: {Logical: Socket4Enable, Name: "socket4_enable"},

	rp2.GP14: {Logical: Input1, Name: "input1"},
	rp2.GP15: {Logical: Input2, Name: "input2"},
	rp2.GP16: {Logical: Input3, Name: "input3"},
	rp2.GP17: {Logical: Input4, Name: "input4"},
	rp2.GP18: {Logical: Input5, Name: "input5"},
	rp2.GP19: {Logical: Input6, Name: "input6"},

	rp2.GP20: {Logical: EEPROMSDA, Name: "eeprom_sda"},
	rp2.GP21: {Logical: EEPROMSCL, Name: "eeprom_scl"},
	rp2.GP22: {Logical: SpindlePWM, Name: "spindle_pwm"},
	rp2.GP25: {Logical: LED, Name: "led"},
	rp2.GP26: {Logical: ADC0, Name: "adc0"},
	rp2.GP27: {Logical: ADC1, Name: "adc1"},
	rp2.GP28: {Logical: ADC2, Name: "adc2"},
}

// Socket names the roles of one socket.
type Socket struct{ Step, Dir, Enable string }

var Sockets = [...]Socket{
	{"socket1_step", "socket1_dir", "socket1_enable"},
	{"socket2_step", "socket2_dir", "socket2_enable"},
	{"socket3_step", "socket3_dir", "socket3_enable"},
	{"socket4_step", "socket4_dir", "socket4_enable"},
}

// A socket table that does not match Motors gives a negative array length
// here and fails to compile.
var (
	_ [len(Sockets) - Motors]struct{}
	_ [Motors - len(Sockets)]struct{}
)

var AnalogInputs = []string{"adc0", "adc1", "adc2"}

// HostUART is UART0 on GP0/GP1.
var HostUART = rp2.UARTs[0]

// EEPROMBus is I2C0 on GP20/GP21.
var EEPROMBus = rp2.I2CBlock{Name: "I2C0", Index: 0, SDA: rp2.GP20, SCL: rp2.GP21}

// Settings: DRV8825 carriers strap microstepping in hardware.
var Settings = func() (out [Motors]stepper.Settings) {
	for i := range out {
		s := stepper.DefaultSettings()
		s.Microsteps = 0
		out[i] = s
	}
	return out
}()

var Board = hal.Board{
	Name:     Name,
	Chip:     "RP2040",
	Pins:     rp2.Table(Name, roles[:]),
	Motors:   Motors,
	Settings: Settings[:],
	Wire:     wire,
}

func init() { hal.RegisterBoard(Board) }

func line(r *hal.Registry, c rp2.Chip, role string) (*rp2.Line, error) {
	e, ok := r.Pins().ByName(role)
	if !ok {
		return nil, errcode.New(errcode.UnknownPin, "picocnc.line", role)
	}
	return rp2.NewLine(c, rp2.PinOf(e.Physical)), nil
}

func wire(r *hal.Registry) error {
	c, ok := r.Chip().(rp2.Chip)
	if !ok {
		return errcode.New(errcode.BoardNotConfigured, "picocnc.wire", "no rp2 chip")
	}
	for i, s := range Sockets {
		var w stepper.Wiring[*rp2.Line]
		var pads []pins.Physical
		for _, f := range []struct {
			role string
			dst  **rp2.Line
		}{{s.Step, &w.Step}, {s.Dir, &w.Dir}, {s.Enable, &w.Enable}} {
			l, err := line(r, c, f.role)
			if err != nil {
				return err
			}
			*f.dst = l
			pads = append(pads, l.Pad())
		}
		set := Settings[i]
		if err := r.AddMotor(stepper.NewStepDir(w, set.StepPolarity, set.EnablePolarity), pads...); err != nil {
			return err
		}
	}

	if err := wireSerial(r, c); err != nil {
		return err
	}
	if err := wireAnalog(r, c); err != nil {
		return err
	}
	return wireStore(r, c)
}

func wireSerial(r *hal.Registry, c rp2.Chip) error {
	if err := r.ClaimPeripheral("host", HostUART.Name); err != nil {
		return err
	}
	if err := r.ClaimSignal("host", HostUART.TX.Physical(), pins.Func(HostUART.Name, -1, "TX")); err != nil {
		return err
	}
	if err := r.ClaimSignal("host", HostUART.RX.Physical(), pins.Func(HostUART.Name, -1, "RX")); err != nil {
		return err
	}
	u := rp2.NewUART(c, HostUART)
	p := serial.New(u)
	u.OnInterrupt(p.HandleIRQ)
	if err := r.Handle(u.IRQ(), p.HandleIRQ); err != nil {
		return err
	}
	r.AddSerial("host", p)
	return nil
}

func wireAnalog(r *hal.Registry, c rp2.Chip) error {
	if err := r.ClaimPeripheral("adc", "ADC"); err != nil {
		return err
	}
	adc := rp2.NewADC(c)
	conv := analog.NewConverter(adc)
	adc.OnInterrupt(conv.HandleIRQ)
	if err := r.Handle(adc.IRQ(), conv.HandleIRQ); err != nil {
		return err
	}
	for i, role := range AnalogInputs {
		e, ok := r.Pins().ByName(role)
		if !ok {
			return errcode.New(errcode.UnknownPin, "picocnc.analog", role)
		}
		if err := r.ClaimSignal(role, e.Physical, pins.Func("ADC", i, "")); err != nil {
			return err
		}
		ch, err := conv.Channel(rp2.ADCChannels[i])
		if err != nil {
			return err
		}
		r.AddAnalog(role, ch)
	}
	return nil
}

func wireStore(r *hal.Registry, c rp2.Chip) error {
	if err := r.ClaimPeripheral("eeprom", EEPROMBus.Name); err != nil {
		return err
	}
	if err := r.ClaimSignal("eeprom", EEPROMBus.SDA.Physical(), pins.Func(EEPROMBus.Name, -1, "SDA")); err != nil {
		return err
	}
	if err := r.ClaimSignal("eeprom", EEPROMBus.SCL.Physical(), pins.Func(EEPROMBus.Name, -1, "SCL")); err != nil {
		return err
	}
	bus, err := c.I2C(EEPROMBus, EEPROMHz)
	if err != nil {
		return err
	}
	r.SetStore(persistence.NewNVM(eeprom.New(bus, eeprom.Config{}), 0, StoreCount,
		persistence.WithMotionGuard(r.Moving)))
	return nil
}
