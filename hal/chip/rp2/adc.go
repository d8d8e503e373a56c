package rp2

import (
	"sync"

	"motionhal-go/errcode"
	"motionhal-go/hal/analog"
)

// ADC implements analog.Hardware. The converter has one gain and no
// offset; a start converts every enabled input in turn.
type ADC struct {
	port ADCPort
	irq  func()

	mu      sync.Mutex
	enabled uint8
	irqMask uint8
	done    uint8
	results [len(ADCPins)]uint16
}

func NewADC(c Chip) *ADC { return &ADC{port: c.ADC()} }

// ADCChannels describes each external input.
var ADCChannels = func() (out [len(ADCPins)]analog.ChannelSpec) {
	for ch, p := range ADCPins {
		out[ch] = analog.ChannelSpec{Number: ch, Pad: p.Physical()}
	}
	return out
}()

func (a *ADC) IRQ() int { return IRQADCFIFO }

// OnInterrupt sets the conversion-complete interrupt body.
func (a *ADC) OnInterrupt(fn func()) { a.irq = fn }

func (a *ADC) Channels() int    { return len(ADCPins) }
func (a *ADC) MaxCount() uint16 { return ADCMaxCount }
func (a *ADC) Gains() []uint8   { return []uint8{1} }
func (a *ADC) HasOffset() bool  { return false }
func (a *ADC) Setup()           {}

func (a *ADC) ConfigurePin(ch int) error {
	if ch < 0 || ch >= len(ADCPins) {
		return errcode.New(errcode.InvalidChannel, "rp2.adc", "no such input")
	}
	return a.port.Configure(ch)
}

func (a *ADC) EnableChannel(ch int, on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if on {
		a.enabled |= 1 << ch
	} else {
		a.enabled &^= 1 << ch
		a.done &^= 1 << ch
	}
}

func (a *ADC) SetGain(_ int, gain uint8, offset bool) error {
	if gain != 1 || offset {
		return errcode.New(errcode.InvalidParams, "rp2.adc", "fixed gain converter")
	}
	return nil
}

func (a *ADC) SetInterrupts(ch int, irq analog.Interrupt) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if irq&(analog.IRQEndOfConversion|analog.IRQDataReady) != 0 {
		a.irqMask |= 1 << ch
	} else {
		a.irqMask &^= 1 << ch
	}
}

// Start runs a round-robin pass and raises the interrupt if an input asked
// for it.
func (a *ADC) Start() {
	a.mu.Lock()
	for ch := range a.results {
		if a.enabled&(1<<ch) != 0 {
			a.results[ch] = a.port.Read(ch) & ADCMaxCount
			a.done |= 1 << ch
		}
	}
	fire := a.irq != nil && a.done&a.irqMask != 0
	a.mu.Unlock()
	if fire {
		a.irq()
	}
}

func (a *ADC) Done(ch int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done&(1<<ch) != 0
}

func (a *ADC) Read(ch int) uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.done &^= 1 << ch
	return a.results[ch]
}

func (a *ADC) Acknowledge() {}

var _ analog.Hardware = (*ADC)(nil)
