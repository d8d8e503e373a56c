// Package sam3xwire holds the wiring steps shared by SAM3X boards: driver
// sockets, serial ports, the ADC and the TWI bus, each resolved through the
// board's pin table and claimed in the registry.
package sam3xwire

import (
	"fmt"

	"motionhal-go/errcode"
	"motionhal-go/hal"
	"motionhal-go/hal/analog"
	"motionhal-go/hal/chip/sam3x"
	"motionhal-go/hal/pins"
	"motionhal-go/hal/serial"
	"motionhal-go/hal/stepper"
)

// Socket names the pin-table roles of one driver socket. Empty names are
// unwired.
type Socket struct {
	Step, Dir, Enable string
	MS0, MS1, MS2     string
	Vref              string
}

// Line resolves role to a PIO line. An empty role gives a null line.
func Line(r *hal.Registry, role string) (*sam3x.Line, error) {
	if role == "" {
		return sam3x.NewLine(r.Bus(), sam3x.NoPin), nil
	}
	e, ok := r.Pins().ByName(role)
	if !ok {
		return nil, errcode.New(errcode.UnknownPin, "sam3x.line", role)
	}
	p := sam3x.PinOf(e.Physical)
	if p.IsNull() {
		return nil, errcode.New(errcode.UnknownPin, "sam3x.line", role+" is not a PIO pad")
	}
	return sam3x.NewLine(r.Bus(), p), nil
}

func lines(r *hal.Registry, roles ...string) ([]*sam3x.Line, []pins.Physical, error) {
	ls := make([]*sam3x.Line, len(roles))
	var pads []pins.Physical
	for i, role := range roles {
		l, err := Line(r, role)
		if err != nil {
			return nil, nil, err
		}
		ls[i] = l
		if !l.IsNull() {
			pads = append(pads, l.Pad())
		}
	}
	return ls, pads, nil
}

// StepDir adds the next motor as a step/dir driver on s.
func StepDir(r *hal.Registry, s Socket, set stepper.Settings, opts ...stepper.Option) error {
	if s.Step == "" || s.Dir == "" {
		return errcode.New(errcode.InvalidParams, "sam3x.stepdir", "socket needs step and dir roles")
	}
	ls, pads, err := lines(r, s.Step, s.Dir, s.Enable, s.MS0, s.MS1, s.MS2, s.Vref)
	if err != nil {
		return err
	}
	w := stepper.Wiring[*sam3x.Line]{
		Step: ls[0], Dir: ls[1], Enable: ls[2],
		MS0: ls[3], MS1: ls[4], MS2: ls[5],
		Vref: ls[6],
	}
	return r.AddMotor(stepper.NewStepDir(w, set.StepPolarity, set.EnablePolarity, opts...), pads...)
}

// Laser adds the next motor as a laser tool firing on fire with its supply
// switched by enable.
func Laser(r *hal.Registry, fire, enable string, set stepper.Settings) error {
	ls, pads, err := lines(r, fire, enable)
	if err != nil {
		return err
	}
	return r.AddMotor(stepper.NewLaser(ls[0], ls[1], set.StepPolarity, set.EnablePolarity), pads...)
}

// Serial claims serial block n and its pads for owner, routes its interrupt
// and registers the port under owner.
func Serial(r *hal.Registry, owner string, n sam3x.Serial, opts ...serial.Option) (*serial.Port, error) {
	blk := sam3x.Serials[n]
	if err := r.ClaimPeripheral(owner, blk.Name); err != nil {
		return nil, err
	}
	if err := claimSignals(r, owner, blk.Name, signal{blk.RX, "RX"}, signal{blk.TX, "TX"}); err != nil {
		return nil, err
	}
	u := sam3x.NewUSART(r.Bus(), blk)
	p := serial.New(u, opts...)
	if err := r.Handle(u.IRQ(), p.HandleIRQ); err != nil {
		return nil, err
	}
	r.AddSerial(owner, p)
	return p, nil
}

type signal struct {
	pad  sam3x.Pin
	name string
}

// claimSignals claims the pads carrying block's signals. The board table
// must put a role on every one of them.
func claimSignals(r *hal.Registry, owner, block string, sigs ...signal) error {
	for _, s := range sigs {
		if err := r.ClaimSignal(owner, s.pad.Physical(), pins.Func(block, -1, s.name)); err != nil {
			return err
		}
	}
	return nil
}

// Analog claims the ADC and adds one channel per role. Each role must sit
// on an analog-capable pad.
func Analog(r *hal.Registry, roles ...string) (*analog.Converter, error) {
	if err := r.ClaimPeripheral("adc", "ADC"); err != nil {
		return nil, err
	}
	adc := sam3x.NewADC(r.Bus())
	conv := analog.NewConverter(adc)
	if err := r.Handle(adc.IRQ(), conv.HandleIRQ); err != nil {
		return nil, err
	}
	for _, role := range roles {
		e, ok := r.Pins().ByName(role)
		if !ok {
			return nil, errcode.New(errcode.UnknownPin, "sam3x.analog", role)
		}
		ch := adcChannel(sam3x.PinOf(e.Physical))
		if ch < 0 {
			return nil, errcode.New(errcode.InvalidChannel, "sam3x.analog", fmt.Sprintf("%s on %s has no converter input", role, e.Physical))
		}
		if err := r.ClaimPins(role, e.Physical); err != nil {
			return nil, err
		}
		c, err := conv.Channel(sam3x.ADCChannels[ch])
		if err != nil {
			return nil, err
		}
		r.AddAnalog(role, c)
	}
	return conv, nil
}

func adcChannel(p sam3x.Pin) int {
	for ch, ap := range sam3x.ADCPins {
		if ap == p {
			return ch
		}
	}
	return -1
}

// TWI claims block n and its pads for owner and returns a configured
// master.
func TWI(r *hal.Registry, owner string, n sam3x.I2C, freqHz uint32) (*sam3x.TWI, error) {
	blk := sam3x.TWIs[n]
	if err := r.ClaimPeripheral(owner, blk.Name); err != nil {
		return nil, err
	}
	if err := claimSignals(r, owner, blk.Name, signal{blk.SDA, "SDA"}, signal{blk.SCL, "SCL"}); err != nil {
		return nil, err
	}
	t := sam3x.NewTWI(r.Bus(), blk)
	if err := t.Configure(freqHz); err != nil {
		return nil, err
	}
	return t, nil
}
