// Package analog drives single-ended converter channels with a calibrated
// voltage window.
package analog

import (
	"context"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"motionhal-go/errcode"
	"motionhal-go/hal/pins"
	"motionhal-go/x/mathx"

	"periph.io/x/conn/v3/physic"
)

// Interrupt selects converter events routed to the interrupt line.
type Interrupt uint8

const (
	IRQEndOfConversion Interrupt = 1 << iota
	IRQDataReady
	IRQOverrun
)

// ChannelSpec names one converter input.
type ChannelSpec struct {
	Number int
	Pad    pins.Physical
}

// Hardware is the register-level converter shared by all channels.
type Hardware interface {
	Channels() int
	MaxCount() uint16
	// Gains lists supported programmable gains, ascending.
	Gains() []uint8
	// HasOffset reports support for centring the window on vref/2.
	HasOffset() bool
	// Setup clocks and configures the converter once.
	Setup()
	ConfigurePin(ch int) error
	EnableChannel(ch int, on bool)
	SetGain(ch int, gain uint8, offset bool) error
	SetInterrupts(ch int, irq Interrupt)
	Start()
	Done(ch int) bool
	Read(ch int) uint16
	// Acknowledge clears block-wide status once finished channels are read.
	Acknowledge()
}

// Window is the voltage span a gain and offset setting maps onto
// [0, MaxCount].
type Window struct {
	Gain   uint8
	Offset bool
	Lo, Hi float64 // volts
}

func windowFor(vref float64, gain uint8, offset bool) Window {
	g := float64(gain)
	if offset {
		half := vref / 2
		return Window{Gain: gain, Offset: true, Lo: half - half/g, Hi: half + half/g}
	}
	return Window{Gain: gain, Lo: 0, Hi: vref / g}
}

func (w Window) Contains(lo, hi float64) bool { return lo >= w.Lo && hi <= w.Hi }
func (w Window) Span() float64                { return w.Hi - w.Lo }

// MaxChannels bounds the inputs one converter can serve.
const MaxChannels = 16

// Converter owns the shared block and its channels.
type Converter struct {
	hw    Hardware
	mu    sync.Mutex // guards setup and channel creation
	setup bool
	// channels is read by HandleIRQ without locking.
	channels [MaxChannels]atomic.Pointer[Channel]
}

func NewConverter(hw Hardware) *Converter {
	return &Converter{hw: hw}
}

// Channel returns the single handle for spec.Number.
func (c *Converter) Channel(spec ChannelSpec) (*Channel, error) {
	if spec.Number < 0 || spec.Number >= c.hw.Channels() || spec.Number >= MaxChannels {
		return nil, errcode.New(errcode.InvalidChannel, "analog.channel", "no such input")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch := c.channels[spec.Number].Load(); ch != nil {
		return ch, nil
	}
	ch := &Channel{conv: c, spec: spec, vref: DefaultVref}
	ch.win = windowFor(DefaultVref.volts(), 1, false)
	ch.lo, ch.hi = ch.win.Lo, ch.win.Hi
	c.channels[spec.Number].Store(ch)
	return ch, nil
}

func (c *Converter) ensureSetup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.setup {
		c.hw.Setup()
		c.setup = true
	}
}

// HandleIRQ latches finished conversions on every sampling channel. It
// neither locks nor allocates.
func (c *Converter) HandleIRQ() {
	for i := range c.channels {
		if ch := c.channels[i].Load(); ch != nil {
			ch.poll()
		}
	}
	c.hw.Acknowledge()
}

// State is a channel's position in its sampling cycle.
type State uint8

const (
	Uninitialised State = iota
	Idle
	Sampling
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sampling:
		return "sampling"
	default:
		return "uninitialised"
	}
}

// Volts wraps physic.ElectricPotential for float conversion.
type Volts physic.ElectricPotential

func (v Volts) volts() float64 { return float64(v) / float64(physic.Volt) }

// DefaultVref is the analog reference on the supported boards.
const DefaultVref = Volts(3300 * physic.MilliVolt)

// Options configure a channel at Init.
type Options struct {
	Gain       uint8 // 0 means 1
	Offset     bool
	Interrupts Interrupt
}

// latchValid marks a latched count.
const latchValid = 1 << 16

// Channel is one analog input.
type Channel struct {
	conv *Converter
	spec ChannelSpec

	// state and latch are shared with the interrupt handler.
	state atomic.Uint32
	latch atomic.Uint32

	// mu serialises configuration. poll never takes it.
	mu     sync.Mutex
	vref   Volts
	win    Window
	lo, hi float64 // calibrated range, volts
	irq    Interrupt
}

func (c *Channel) Spec() ChannelSpec { return c.spec }

func (c *Channel) State() State { return State(c.state.Load()) }

func (c *Channel) setState(s State) { c.state.Store(uint32(s)) }

// Init enables the channel and hands its pad to the converter. A live
// channel must be closed first.
func (c *Channel) Init(o Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != Uninitialised {
		return errcode.New(errcode.AlreadyInitialised, "analog.init", "channel is live")
	}
	hw := c.conv.hw
	gain := o.Gain
	if gain == 0 {
		gain = 1
	}
	if !slices.Contains(hw.Gains(), gain) || (o.Offset && !hw.HasOffset()) {
		return errcode.New(errcode.InvalidParams, "analog.init", "gain or offset not supported")
	}
	c.conv.ensureSetup()
	if err := hw.ConfigurePin(c.spec.Number); err != nil {
		return err
	}
	if err := hw.SetGain(c.spec.Number, gain, o.Offset); err != nil {
		return err
	}
	hw.SetInterrupts(c.spec.Number, o.Interrupts)
	hw.EnableChannel(c.spec.Number, true)
	c.win = windowFor(c.vref.volts(), gain, o.Offset)
	c.lo, c.hi = c.win.Lo, c.win.Hi
	c.irq = o.Interrupts
	c.latch.Store(0)
	c.setState(Idle)
	return nil
}

// Close disables the channel and returns it to uninitialised. A finished
// conversion is discarded; one still in flight makes Close fail with
// ChannelBusy.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.poll()
	switch c.State() {
	case Uninitialised:
		return nil
	case Sampling:
		return errcode.New(errcode.ChannelBusy, "analog.close", "conversion in flight")
	}
	c.conv.hw.SetInterrupts(c.spec.Number, 0)
	c.conv.hw.EnableChannel(c.spec.Number, false)
	c.latch.Store(0)
	c.setState(Uninitialised)
	return nil
}

// StartSampling triggers a conversion.
func (c *Channel) StartSampling() error {
	c.mu.Lock()
	switch c.State() {
	case Uninitialised:
		c.mu.Unlock()
		return errcode.New(errcode.NotInitialised, "analog.start", "channel not initialised")
	case Sampling:
		c.mu.Unlock()
		return errcode.New(errcode.ChannelBusy, "analog.start", "conversion in flight")
	}
	c.setState(Sampling)
	c.mu.Unlock()
	c.conv.hw.Start()
	return nil
}

// poll moves a finished conversion into the latch. It runs in interrupt
// context, so it touches only registers and atomics.
func (c *Channel) poll() bool {
	if c.State() != Sampling || !c.conv.hw.Done(c.spec.Number) {
		return false
	}
	c.latch.Store(latchValid | uint32(c.conv.hw.Read(c.spec.Number)))
	return c.state.CompareAndSwap(uint32(Sampling), uint32(Idle))
}

// Raw returns the latest conversion.
func (c *Channel) Raw() (uint16, error) {
	c.poll()
	switch c.State() {
	case Uninitialised:
		return 0, errcode.New(errcode.NotInitialised, "analog.raw", "channel not initialised")
	case Sampling:
		return 0, errcode.New(errcode.NotReady, "analog.raw", "conversion pending")
	}
	l := c.latch.Load()
	if l&latchValid == 0 {
		return 0, errcode.New(errcode.NotReady, "analog.raw", "no conversion yet")
	}
	return uint16(l), nil
}

// Sample starts a conversion and waits for it.
func (c *Channel) Sample(ctx context.Context) (uint16, error) {
	if err := c.StartSampling(); err != nil {
		return 0, err
	}
	// An interrupt may latch the result before the first poll.
	for !c.poll() && c.State() == Sampling {
		if err := ctx.Err(); err != nil {
			return 0, errcode.Wrap(errcode.Timeout, "analog.sample", err)
		}
	}
	return c.Raw()
}

// Value converts the latest conversion to volts.
func (c *Channel) Value() (physic.ElectricPotential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := c.Raw()
	if err != nil {
		return 0, err
	}
	return toPotential(c.countToVolts(raw)), nil
}

// SetVoltageRange selects gain and offset so that [min,max] fits the
// converter window with at least idealSteps counts, or else with the finest
// window that still holds it. The latched count belongs to the old window
// and is dropped.
func (c *Channel) SetVoltageRange(vref, min, max physic.ElectricPotential, idealSteps float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.State() {
	case Uninitialised:
		return errcode.New(errcode.NotInitialised, "analog.range", "channel not initialised")
	case Sampling:
		return errcode.New(errcode.ChannelBusy, "analog.range", "conversion in flight")
	}
	vr, lo, hi := Volts(vref).volts(), Volts(min).volts(), Volts(max).volts()
	if vr <= 0 || lo < 0 || hi > vr || lo >= hi {
		return errcode.New(errcode.OutOfRange, "analog.range", "range outside [0, vref]")
	}
	hw := c.conv.hw
	var best *Window
	for _, w := range candidates(vr, hw.Gains(), hw.HasOffset()) {
		if !w.Contains(lo, hi) {
			continue
		}
		best = &w
		if (hi-lo)/w.Span()*float64(hw.MaxCount()) >= idealSteps {
			break
		}
	}
	if best == nil {
		return errcode.New(errcode.OutOfRange, "analog.range", "no window holds range")
	}
	if err := hw.SetGain(c.spec.Number, best.Gain, best.Offset); err != nil {
		return err
	}
	c.vref = Volts(vref)
	c.win = *best
	c.lo, c.hi = lo, hi
	c.latch.Store(0)
	return nil
}

// candidates orders windows from widest to narrowest.
func candidates(vref float64, gains []uint8, offset bool) []Window {
	var ws []Window
	for _, g := range gains {
		ws = append(ws, windowFor(vref, g, false))
		if offset && g > 1 {
			ws = append(ws, windowFor(vref, g, true))
		}
	}
	return ws
}

// Window is the active converter window.
func (c *Channel) Window() Window {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.win
}

// Bottom is the count for the configured minimum.
func (c *Channel) Bottom() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voltsToCount(c.lo)
}

// Top is the count for the configured maximum.
func (c *Channel) Top() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voltsToCount(c.hi)
}

func (c *Channel) BottomVoltage() physic.ElectricPotential {
	c.mu.Lock()
	defer c.mu.Unlock()
	return toPotential(c.countToVolts(c.voltsToCount(c.lo)))
}

func (c *Channel) TopVoltage() physic.ElectricPotential {
	c.mu.Lock()
	defer c.mu.Unlock()
	return toPotential(c.countToVolts(c.voltsToCount(c.hi)))
}

// SetInterrupts changes the interrupt routing while idle.
func (c *Channel) SetInterrupts(irq Interrupt) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.State() {
	case Uninitialised:
		return errcode.New(errcode.NotInitialised, "analog.irq", "channel not initialised")
	case Sampling:
		return errcode.New(errcode.ChannelBusy, "analog.irq", "conversion in flight")
	}
	c.conv.hw.SetInterrupts(c.spec.Number, irq)
	c.irq = irq
	return nil
}

func (c *Channel) Interrupts() Interrupt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.irq
}

func (c *Channel) maxCount() float64 { return float64(c.conv.hw.MaxCount()) }

func (c *Channel) voltsToCount(v float64) uint16 {
	f := mathx.Clamp(mathx.InvLerp(c.win.Lo, c.win.Hi, v), 0, 1)
	return uint16(math.Round(f * c.maxCount()))
}

func (c *Channel) countToVolts(n uint16) float64 {
	return mathx.Lerp(c.win.Lo, c.win.Hi, float64(n)/c.maxCount())
}

func toPotential(v float64) physic.ElectricPotential {
	return physic.ElectricPotential(math.Round(v * float64(physic.Volt)))
}

