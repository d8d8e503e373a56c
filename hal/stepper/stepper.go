// Package stepper composes raw output lines into motor-socket devices: a
// step/direction driver with microstep select and a reference-voltage output,
// and a laser tool that can stand in a motor slot.
package stepper

import (
	"time"

	"motionhal-go/hal/line"
)

// Direction of rotation.
type Direction uint8

const (
	CW Direction = iota
	CCW
)

func (d Direction) String() string {
	if d == CCW {
		return "ccw"
	}
	return "cw"
}

// PowerMode is the configured energising policy.
type PowerMode uint8

const (
	Disabled PowerMode = iota
	AlwaysPowered
	PoweredInCycle
	PoweredOnlyWhenMoving
	PowerReducedWhenIdle
)

var powerModeNames = [...]string{"disabled", "always", "in-cycle", "when-moving", "reduced-idle"}

func (m PowerMode) String() string {
	if int(m) < len(powerModeNames) {
		return powerModeNames[m]
	}
	return "unknown"
}

// ParsePowerMode accepts the names String returns.
func ParsePowerMode(s string) (PowerMode, bool) {
	for i, n := range powerModeNames {
		if n == s {
			return PowerMode(i), true
		}
	}
	return 0, false
}

// PowerState is where the device sits in its power sequence.
type PowerState uint8

const (
	Off PowerState = iota
	Idle
	Running
	TimeoutStart
	TimeoutCountdown
)

func (s PowerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case TimeoutStart:
		return "timeout-start"
	case TimeoutCountdown:
		return "timeout-countdown"
	default:
		return "off"
	}
}

// Stepper is the capability set a board's motor table stores. Step, enable
// and direction calls are made from the step interrupt and only touch lines.
type Stepper interface {
	// Init configures every line and leaves the device disabled.
	Init() error
	CanStep() bool

	StepStart()
	StepEnd()
	SetDirection(d Direction)
	SetMicrosteps(n uint16) error

	Enable()
	Disable()
	EnableWithTimeout(d time.Duration)
	MotionStopped()
	PeriodicCheck()

	SetPowerMode(m PowerMode)
	PowerMode() PowerMode
	SetPowerLevels(active, idle float32)
	PowerLevel() float32
	SetActivityTimeout(d time.Duration)

	StepPolarity() line.Polarity
	SetStepPolarity(p line.Polarity)
	EnablePolarity() line.Polarity
	SetEnablePolarity(p line.Polarity)

	// Enabled reports whether the driver is energised.
	Enabled() bool
	State() PowerState
}

// DefaultActivityTimeout is how long a motor stays energised after motion.
const DefaultActivityTimeout = 2 * time.Second

// Settings are the per-socket values a board supplies.
type Settings struct {
	StepPolarity    line.Polarity
	EnablePolarity  line.Polarity
	PowerMode       PowerMode
	ActiveLevel     float32
	IdleLevel       float32
	Microsteps      uint16
	ActivityTimeout time.Duration
}

// DefaultSettings matches the stock driver boards: active-high step,
// active-low enable, powered during the machining cycle.
func DefaultSettings() Settings {
	return Settings{
		StepPolarity:    line.ActiveHigh,
		EnablePolarity:  line.ActiveLow,
		PowerMode:       PoweredInCycle,
		ActiveLevel:     0.4,
		IdleLevel:       0.05,
		Microsteps:      8,
		ActivityTimeout: DefaultActivityTimeout,
	}
}

// Apply pushes s into st, except for the power mode, which is applied when
// the motor is armed. The device should already be initialised.
func Apply(st Stepper, s Settings) error {
	st.SetStepPolarity(s.StepPolarity)
	st.SetEnablePolarity(s.EnablePolarity)
	st.SetActivityTimeout(s.ActivityTimeout)
	st.SetPowerLevels(s.ActiveLevel, s.IdleLevel)
	var err error
	if s.Microsteps != 0 {
		err = st.SetMicrosteps(s.Microsteps)
	}
	return err
}
