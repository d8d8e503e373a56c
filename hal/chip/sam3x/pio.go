package sam3x

import (
	"motionhal-go/errcode"
	"motionhal-go/hal/line"
	"motionhal-go/hal/mmio"
	"motionhal-go/hal/pins"

	"periph.io/x/conn/v3/gpio"
)

// Options are PIO input conditioning flags.
type Options uint8

const (
	OptPullUp Options = 1 << iota
	OptWiredAnd
	OptDeglitch
	OptDebounce
)

// Line is one PIO-controlled pad. A Line on NoPin is a null line.
type Line struct {
	pio Common
	pin Pin
}

// NewLine binds p on bus. NoPin yields a null line.
func NewLine(bus mmio.Bus, p Pin) *Line {
	l := &Line{pin: p}
	if !p.IsNull() {
		l.pio = Common{Bus: bus, ID: p.PIOID(), Base: p.PIOBase()}
	}
	return l
}

func (l *Line) Pin() Pin           { return l.pin }
func (l *Line) IsNull() bool       { return l == nil || l.pin.IsNull() }
func (l *Line) Pad() pins.Physical {
	if l == nil {
		return pins.Physical{}
	}
	return l.pin.Physical()
}

func (l *Line) write(off uintptr) { l.pio.Reg(off).Set(l.pin.Mask()) }

// ConfigureOutput latches the initial level, then hands the pad to the PIO
// as an output.
func (l *Line) ConfigureOutput(initial gpio.Level) error {
	if l.IsNull() {
		return nil
	}
	l.Set(initial)
	l.write(pioOER)
	l.write(pioPER)
	return nil
}

// ConfigureInput clocks the port (inputs are sampled), releases the output
// driver and applies pull.
func (l *Line) ConfigureInput(pull gpio.Pull) error {
	if l.IsNull() {
		return nil
	}
	switch pull {
	case gpio.PullUp:
		l.write(pioPUER)
	case gpio.Float:
		l.write(pioPUDR)
	case gpio.PullDown:
		return errcode.New(errcode.Unsupported, "sam3x.pio", l.pin.String()+" has no pull-down")
	}
	l.pio.EnableClock()
	l.write(pioODR)
	l.write(pioPER)
	return nil
}

// SetOptions applies pull-up, multi-drive and input filter settings.
func (l *Line) SetOptions(o Options) {
	if l.IsNull() {
		return
	}
	if o&OptPullUp != 0 {
		l.write(pioPUER)
	} else {
		l.write(pioPUDR)
	}
	if o&OptWiredAnd != 0 {
		l.write(pioMDER)
	} else {
		l.write(pioMDDR)
	}
	switch {
	case o&OptDeglitch != 0:
		l.write(pioIFER)
		l.write(pioSCIFSR)
	case o&OptDebounce != 0:
		l.write(pioIFER)
		l.write(pioDIFSR)
	default:
		l.write(pioIFDR)
	}
}

// SetPeripheral hands the pad to peripheral function p.
func (l *Line) SetPeripheral(p Periph) {
	if l.IsNull() {
		return
	}
	if p == PeriphB {
		l.pio.Reg(pioABSR).SetBits(l.pin.Mask())
	} else {
		l.pio.Reg(pioABSR).ClearBits(l.pin.Mask())
	}
	l.write(pioPDR)
}

func (l *Line) Set(level gpio.Level) {
	if l.IsNull() {
		return
	}
	if level {
		l.write(pioSODR)
	} else {
		l.write(pioCODR)
	}
}

func (l *Line) Get() gpio.Level {
	if l.IsNull() {
		return gpio.Low
	}
	return gpio.Level(l.pio.Reg(pioPDSR).HasBits(l.pin.Mask()))
}

// OutputLevel is the level the PIO drives, which may differ from the pad.
func (l *Line) OutputLevel() gpio.Level {
	if l.IsNull() {
		return gpio.Low
	}
	return gpio.Level(l.pio.Reg(pioODSR).HasBits(l.pin.Mask()))
}

func (l *Line) Toggle() { l.Set(!l.OutputLevel()) }

// IsOutput reads OSR.
func (l *Line) IsOutput() bool {
	return !l.IsNull() && l.pio.Reg(pioOSR).HasBits(l.pin.Mask())
}

var _ line.Line = (*Line)(nil)
