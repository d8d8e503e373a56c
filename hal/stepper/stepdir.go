package stepper

import (
	"time"

	"motionhal-go/errcode"
	"motionhal-go/hal/line"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
)

// VrefScale maps a power level in [0,1] onto the driver's reference input:
// 2.25 V full scale on a 3.3 V output.
const VrefScale = 2.25 / 3.3

// Wiring is the set of lines behind one socket. Unwired signals are null
// lines.
type Wiring[L line.Line] struct {
	Step, Dir, Enable L
	MS0, MS1, MS2     L
	Vref              L
}

// unwired reports a null line or a zero interface value.
func unwired[L line.Line](l L) bool { return any(l) == nil || l.IsNull() }

// StepDir is a step/direction driver. It is not safe for concurrent use;
// callers serialise with the step interrupt.
type StepDir[L line.Line] struct {
	w         Wiring[L]
	stepPol   line.Polarity
	enablePol line.Polarity
	clk       clock.Clock

	mode     PowerMode
	state    PowerState
	active   float32
	idle     float32
	level    float32
	timeout  time.Duration
	deadline time.Time
}

type Option func(*options)

type options struct {
	clk clock.Clock
}

// WithClock replaces the wall clock used for the activity timeout.
func WithClock(c clock.Clock) Option { return func(o *options) { o.clk = c } }

// NewStepDir builds a device on w. Lines are not touched until Init.
func NewStepDir[L line.Line](w Wiring[L], stepPol, enablePol line.Polarity, opts ...Option) *StepDir[L] {
	o := options{clk: clock.New()}
	for _, fn := range opts {
		fn(&o)
	}
	return &StepDir[L]{
		w:         w,
		stepPol:   stepPol,
		enablePol: enablePol,
		clk:       o.clk,
		mode:      Disabled,
		timeout:   DefaultActivityTimeout,
	}
}

func (s *StepDir[L]) Wiring() Wiring[L] { return s.w }

// Init drives every line to a known level: step idle, direction CW,
// microstep selects low, vref at zero and enable inactive.
func (s *StepDir[L]) Init() error {
	var err error
	out := func(l L, lv gpio.Level) {
		if !unwired(l) {
			err = multierr.Append(err, l.ConfigureOutput(lv))
		}
	}
	out(s.w.Enable, s.enablePol.Inactive())
	out(s.w.Step, s.stepPol.Inactive())
	out(s.w.Dir, gpio.Low)
	out(s.w.MS0, gpio.Low)
	out(s.w.MS1, gpio.Low)
	out(s.w.MS2, gpio.Low)
	out(s.w.Vref, gpio.Low)
	s.releaseEnable()
	s.state = Off
	s.deadline = time.Time{}
	return err
}

func (s *StepDir[L]) CanStep() bool { return !unwired(s.w.Step) }

func (s *StepDir[L]) StepStart() {
	if !unwired(s.w.Step) {
		line.Assert(s.w.Step, s.stepPol)
	}
}

func (s *StepDir[L]) StepEnd() {
	if !unwired(s.w.Step) {
		line.Deassert(s.w.Step, s.stepPol)
	}
}

func (s *StepDir[L]) SetDirection(d Direction) {
	if unwired(s.w.Dir) {
		return
	}
	s.w.Dir.Set(gpio.Level(d == CCW))
}

// SetMicrosteps encodes n on MS2:MS1:MS0. Sockets without select lines
// accept any valid n and do nothing.
func (s *StepDir[L]) SetMicrosteps(n uint16) error {
	var code uint8
	switch n {
	case 1:
		code = 0
	case 2:
		code = 1
	case 4:
		code = 2
	case 8:
		code = 3
	case 16:
		code = 4
	case 32:
		code = 5
	default:
		return errcode.New(errcode.InvalidParams, "stepper.microsteps", "want 1, 2, 4, 8, 16 or 32")
	}
	for i, l := range [...]L{s.w.MS0, s.w.MS1, s.w.MS2} {
		if !unwired(l) {
			l.Set(gpio.Level(code>>i&1 != 0))
		}
	}
	return nil
}

func (s *StepDir[L]) assertEnable() {
	if !unwired(s.w.Enable) {
		line.Assert(s.w.Enable, s.enablePol)
	}
}

func (s *StepDir[L]) releaseEnable() {
	if !unwired(s.w.Enable) {
		line.Deassert(s.w.Enable, s.enablePol)
	}
}

// Enable energises the motor unless the mode is Disabled or it is already
// running.
func (s *StepDir[L]) Enable() {
	if s.mode == Disabled || s.state == Running {
		return
	}
	s.state = Running
	s.updatePowerLevel()
	s.assertEnable()
}

// Disable de-energises the motor unless the mode is AlwaysPowered.
func (s *StepDir[L]) Disable() {
	if s.mode == AlwaysPowered {
		return
	}
	s.releaseEnable()
	s.deadline = time.Time{}
	s.state = Off
}

// EnableWithTimeout energises the motor and starts the countdown to
// power-down. A zero d uses the activity timeout.
func (s *StepDir[L]) EnableWithTimeout(d time.Duration) {
	if s.mode == Disabled || s.state == Running {
		return
	}
	if d <= 0 {
		d = s.timeout
	}
	s.state = TimeoutCountdown
	if s.mode == PoweredInCycle || s.mode == PowerReducedWhenIdle {
		s.deadline = s.clk.Now().Add(d)
	}
	s.assertEnable()
}

// MotionStopped is called when the step generator goes quiet.
func (s *StepDir[L]) MotionStopped() {
	switch s.mode {
	case PoweredInCycle:
		s.Enable()
	case PowerReducedWhenIdle:
		s.state = TimeoutStart
	case PoweredOnlyWhenMoving:
		if s.state == Running {
			s.state = TimeoutStart
		}
	}
}

// PeriodicCheck advances the power-down sequence. Call it from the main
// loop.
func (s *StepDir[L]) PeriodicCheck() {
	if s.state == TimeoutStart && s.mode != AlwaysPowered {
		if s.mode == PoweredOnlyWhenMoving {
			s.Disable()
			return
		}
		s.state = TimeoutCountdown
		if s.mode == PoweredInCycle || s.mode == PowerReducedWhenIdle {
			s.deadline = s.clk.Now().Add(s.timeout)
		}
	}
	if s.state == TimeoutCountdown && s.past() {
		if s.mode == PowerReducedWhenIdle {
			s.state = Idle
			s.updatePowerLevel()
		} else {
			s.Disable()
		}
	}
}

func (s *StepDir[L]) past() bool {
	return !s.deadline.IsZero() && !s.clk.Now().Before(s.deadline)
}

func (s *StepDir[L]) SetPowerMode(m PowerMode) {
	s.mode = m
	switch m {
	case AlwaysPowered:
		s.Enable()
	case Disabled:
		s.Disable()
	}
}

func (s *StepDir[L]) PowerMode() PowerMode { return s.mode }

func (s *StepDir[L]) SetPowerLevels(active, idle float32) {
	s.active, s.idle = active, idle
	s.updatePowerLevel()
}

func (s *StepDir[L]) PowerLevel() float32 { return s.level }

func (s *StepDir[L]) updatePowerLevel() {
	if s.state == Idle {
		s.level = s.idle
	} else {
		s.level = s.active
	}
	if !unwired(s.w.Vref) {
		_ = line.WriteFraction(s.w.Vref, s.level*VrefScale)
	}
}

func (s *StepDir[L]) SetActivityTimeout(d time.Duration) { s.timeout = d }
func (s *StepDir[L]) ActivityTimeout() time.Duration     { return s.timeout }

func (s *StepDir[L]) StepPolarity() line.Polarity { return s.stepPol }

// SetStepPolarity takes effect at once: the step line is returned to its
// new idle level.
func (s *StepDir[L]) SetStepPolarity(p line.Polarity) {
	s.stepPol = p
	s.StepEnd()
}

func (s *StepDir[L]) EnablePolarity() line.Polarity { return s.enablePol }

// SetEnablePolarity re-drives the enable line for the new polarity.
func (s *StepDir[L]) SetEnablePolarity(p line.Polarity) {
	s.enablePol = p
	if s.state == Off {
		s.releaseEnable()
	} else {
		s.assertEnable()
	}
	s.MotionStopped()
}

func (s *StepDir[L]) Enabled() bool     { return s.state != Off }
func (s *StepDir[L]) State() PowerState { return s.state }

var _ Stepper = (*StepDir[line.Line])(nil)
