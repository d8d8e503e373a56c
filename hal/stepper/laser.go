package stepper

import (
	"time"

	"motionhal-go/errcode"
	"motionhal-go/hal/line"

	"go.uber.org/multierr"
)

// LaserMode selects how the fire line follows motion.
type LaserMode uint8

const (
	// LaserStatic holds the fire line at the power level while enabled.
	LaserStatic LaserMode = iota
	// LaserMotion fires once per step pulse, so output tracks travel.
	LaserMotion
)

// Laser is a laser tool occupying a motor slot. Enable gates the supply,
// Fire pulses the beam.
type Laser[L line.Line] struct {
	fire, enable L
	firePol      line.Polarity
	enablePol    line.Polarity

	lmode LaserMode
	mode  PowerMode
	state PowerState
	level float32
}

func NewLaser[L line.Line](fire, enable L, firePol, enablePol line.Polarity) *Laser[L] {
	return &Laser[L]{fire: fire, enable: enable, firePol: firePol, enablePol: enablePol, mode: Disabled}
}

// Init leaves the beam off and the supply disabled.
func (l *Laser[L]) Init() error {
	var err error
	if !unwired(l.enable) {
		err = multierr.Append(err, l.enable.ConfigureOutput(l.enablePol.Inactive()))
	}
	if !unwired(l.fire) {
		err = multierr.Append(err, l.fire.ConfigureOutput(l.firePol.Inactive()))
	}
	l.state = Off
	return err
}

func (l *Laser[L]) SetLaserMode(m LaserMode) {
	l.lmode = m
	l.fireOff()
	if m == LaserStatic && l.state != Off {
		l.fireLevel()
	}
}

func (l *Laser[L]) LaserMode() LaserMode { return l.lmode }

func (l *Laser[L]) CanStep() bool { return !unwired(l.fire) }

func (l *Laser[L]) StepStart() {
	if l.lmode == LaserMotion && l.state != Off && !unwired(l.fire) {
		line.Assert(l.fire, l.firePol)
	}
}

func (l *Laser[L]) StepEnd() {
	if l.lmode == LaserMotion {
		l.fireOff()
	}
}

func (l *Laser[L]) SetDirection(Direction) {}

func (l *Laser[L]) SetMicrosteps(uint16) error {
	return errcode.New(errcode.Unsupported, "laser.microsteps", "laser has no microstep select")
}

func (l *Laser[L]) fireOff() {
	if !unwired(l.fire) {
		line.Deassert(l.fire, l.firePol)
	}
}

func (l *Laser[L]) fireLevel() {
	if unwired(l.fire) {
		return
	}
	f := l.level
	if l.firePol == line.ActiveLow {
		f = 1 - f
	}
	_ = line.WriteFraction(l.fire, f)
}

func (l *Laser[L]) Enable() {
	if l.mode == Disabled || l.state == Running {
		return
	}
	l.state = Running
	if !unwired(l.enable) {
		line.Assert(l.enable, l.enablePol)
	}
	if l.lmode == LaserStatic {
		l.fireLevel()
	}
}

func (l *Laser[L]) Disable() {
	if l.mode == AlwaysPowered {
		return
	}
	l.fireOff()
	if !unwired(l.enable) {
		line.Deassert(l.enable, l.enablePol)
	}
	l.state = Off
}

func (l *Laser[L]) EnableWithTimeout(time.Duration) { l.Enable() }

// MotionStopped stops the beam. The supply stays up.
func (l *Laser[L]) MotionStopped() { l.fireOff() }

func (l *Laser[L]) PeriodicCheck() {}

func (l *Laser[L]) SetPowerMode(m PowerMode) {
	l.mode = m
	switch m {
	case AlwaysPowered:
		l.Enable()
	case Disabled:
		l.Disable()
	}
}

func (l *Laser[L]) PowerMode() PowerMode { return l.mode }

// SetPowerLevels sets the beam power. The idle level is ignored.
func (l *Laser[L]) SetPowerLevels(active, _ float32) {
	l.level = active
	if l.lmode == LaserStatic && l.state != Off {
		l.fireLevel()
	}
}

func (l *Laser[L]) PowerLevel() float32 { return l.level }

func (l *Laser[L]) SetActivityTimeout(time.Duration) {}

func (l *Laser[L]) StepPolarity() line.Polarity { return l.firePol }

func (l *Laser[L]) SetStepPolarity(p line.Polarity) {
	l.firePol = p
	l.fireOff()
}

func (l *Laser[L]) EnablePolarity() line.Polarity { return l.enablePol }

func (l *Laser[L]) SetEnablePolarity(p line.Polarity) {
	l.enablePol = p
	if unwired(l.enable) {
		return
	}
	if l.state == Off {
		line.Deassert(l.enable, p)
	} else {
		line.Assert(l.enable, p)
	}
}

func (l *Laser[L]) Enabled() bool     { return l.state != Off }
func (l *Laser[L]) State() PowerState { return l.state }

var _ Stepper = (*Laser[line.Line])(nil)
