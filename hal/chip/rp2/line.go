package rp2

import (
	"motionhal-go/hal/line"
	"motionhal-go/hal/pins"

	"periph.io/x/conn/v3/gpio"
)

// Line is one GPIO. A Line on NoPin is a null line.
type Line struct {
	chip  Chip
	pin   Pin
	out   bool
	level gpio.Level
}

func NewLine(c Chip, p Pin) *Line { return &Line{chip: c, pin: p} }

func (l *Line) Pin() Pin     { return l.pin }
func (l *Line) IsNull() bool { return l == nil || l.pin.IsNull() }
func (l *Line) Pad() pins.Physical {
	if l == nil {
		return pins.Physical{}
	}
	return l.pin.Physical()
}

// ConfigureOutput latches the level before enabling the driver.
func (l *Line) ConfigureOutput(initial gpio.Level) error {
	if l.IsNull() {
		return nil
	}
	l.chip.SetPin(l.pin, initial)
	if err := l.chip.ConfigurePin(l.pin, true, gpio.PullNoChange); err != nil {
		return err
	}
	l.out, l.level = true, initial
	return nil
}

func (l *Line) ConfigureInput(pull gpio.Pull) error {
	if l.IsNull() {
		return nil
	}
	l.out = false
	return l.chip.ConfigurePin(l.pin, false, pull)
}

func (l *Line) Set(level gpio.Level) {
	if l.IsNull() {
		return
	}
	l.level = level
	l.chip.SetPin(l.pin, level)
}

// Get reads the pad. Outputs read back the driven level.
func (l *Line) Get() gpio.Level {
	if l.IsNull() {
		return gpio.Low
	}
	if l.out {
		return l.level
	}
	return l.chip.GetPin(l.pin)
}

func (l *Line) IsOutput() bool { return l.out }

var _ line.Line = (*Line)(nil)
