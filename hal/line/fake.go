package line

import (
	"sync"

	"motionhal-go/hal/pins"

	"periph.io/x/conn/v3/gpio"
)

// Fake is a host Line that records every level it is driven to.
type Fake struct {
	mu         sync.RWMutex
	pad        pins.Physical
	level      gpio.Level
	modeOut    bool
	configured bool
	pull       gpio.Pull
	fraction   float32
	history    []gpio.Level
	failConfig error
}

func NewFake(pad pins.Physical) *Fake { return &Fake{pad: pad, pull: gpio.PullNoChange} }

func (f *Fake) ConfigureOutput(initial gpio.Level) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failConfig != nil {
		return f.failConfig
	}
	f.modeOut = true
	f.configured = true
	f.level = initial
	f.history = append(f.history, initial)
	return nil
}

func (f *Fake) ConfigureInput(pull gpio.Pull) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failConfig != nil {
		return f.failConfig
	}
	f.modeOut = false
	f.configured = true
	f.pull = pull
	return nil
}

func (f *Fake) Set(level gpio.Level) {
	f.mu.Lock()
	f.level = level
	f.history = append(f.history, level)
	f.mu.Unlock()
}

func (f *Fake) Get() gpio.Level {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.level
}

func (f *Fake) SetFraction(v float32) error {
	f.mu.Lock()
	f.fraction = v
	f.mu.Unlock()
	return nil
}

func (f *Fake) IsNull() bool       { return false }
func (f *Fake) Pad() pins.Physical { return f.pad }

// Drive sets the level seen by Get, as an external signal would.
func (f *Fake) Drive(level gpio.Level) {
	f.mu.Lock()
	f.level = level
	f.mu.Unlock()
}

// FailConfigure makes the next configure calls return err.
func (f *Fake) FailConfigure(err error) {
	f.mu.Lock()
	f.failConfig = err
	f.mu.Unlock()
}

func (f *Fake) IsOutput() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.configured && f.modeOut
}

func (f *Fake) Pull() gpio.Pull {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.pull
}

func (f *Fake) Fraction() float32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fraction
}

// History returns every level driven since creation or the last Reset.
func (f *Fake) History() []gpio.Level {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]gpio.Level(nil), f.history...)
}

func (f *Fake) ResetHistory() {
	f.mu.Lock()
	f.history = nil
	f.mu.Unlock()
}

// FakeBank hands out stable *Fake lines per pad.
type FakeBank struct {
	mu    sync.Mutex
	lines map[pins.Physical]*Fake
}

func (b *FakeBank) Line(p pins.Physical) *Fake {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lines == nil {
		b.lines = make(map[pins.Physical]*Fake)
	}
	l, ok := b.lines[p]
	if !ok {
		l = NewFake(p)
		b.lines[p] = l
	}
	return l
}

var (
	_ Line   = (*Fake)(nil)
	_ Analog = (*Fake)(nil)
)
