// Package line is the single digital output or input that composite devices
// are assembled from.
package line

import (
	"motionhal-go/hal/pins"

	"periph.io/x/conn/v3/gpio"
)

// Line is one pad driven as GPIO.
type Line interface {
	ConfigureOutput(initial gpio.Level) error
	ConfigureInput(pull gpio.Pull) error
	Set(level gpio.Level)
	Get() gpio.Level
	// IsNull reports a placeholder for a signal the board does not wire.
	IsNull() bool
	Pad() pins.Physical
}

// Analog is implemented by lines that can hold a duty-cycle level.
type Analog interface {
	SetFraction(f float32) error
}

// Polarity says which level means "active".
type Polarity uint8

const (
	ActiveHigh Polarity = iota
	ActiveLow
)

func (p Polarity) String() string {
	if p == ActiveLow {
		return "active-low"
	}
	return "active-high"
}

// ParsePolarity accepts the names String returns.
func ParsePolarity(s string) (Polarity, bool) {
	switch s {
	case "active-high":
		return ActiveHigh, true
	case "active-low":
		return ActiveLow, true
	}
	return 0, false
}

// Active returns the level that asserts a signal with this polarity.
func (p Polarity) Active() gpio.Level { return gpio.Level(p == ActiveHigh) }

// Inactive returns the level that deasserts a signal with this polarity.
func (p Polarity) Inactive() gpio.Level { return !p.Active() }

// Assert drives l to its active level.
func Assert(l Line, p Polarity) { l.Set(p.Active()) }

// Deassert drives l to its inactive level.
func Deassert(l Line, p Polarity) { l.Set(p.Inactive()) }

// Asserted reports whether l reads at its active level.
func Asserted(l Line, p Polarity) bool { return l.Get() == p.Active() }

// WriteFraction sets a level in [0,1]. Lines without duty output go high at
// half scale and above.
func WriteFraction(l Line, f float32) error {
	if l.IsNull() {
		return nil
	}
	if a, ok := l.(Analog); ok {
		return a.SetFraction(f)
	}
	l.Set(gpio.Level(f >= 0.5))
	return nil
}

// Null stands in for an unwired signal. Writes are dropped, reads are Low.
type Null struct{}

func (Null) ConfigureOutput(gpio.Level) error { return nil }
func (Null) ConfigureInput(gpio.Pull) error   { return nil }
func (Null) Set(gpio.Level)                   {}
func (Null) Get() gpio.Level                  { return gpio.Low }
func (Null) IsNull() bool                     { return true }
func (Null) Pad() pins.Physical               { return pins.Physical{} }

var _ Line = Null{}
