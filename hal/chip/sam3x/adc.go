package sam3x

import (
	"sync"

	"motionhal-go/errcode"
	"motionhal-go/hal/analog"
	"motionhal-go/hal/mmio"
)

// ADCConverter implements analog.Hardware on the 12-bit ADC.
type ADCConverter struct {
	Common
	mu       sync.Mutex
	global   [2]uint32 // channels wanting DRDY, GOVRE
	channels [ADCChannelCount]*Line
}

func NewADC(bus mmio.Bus) *ADCConverter {
	a := &ADCConverter{Common: Common{Bus: bus, ID: IDADC, Base: BaseADC}}
	for ch, p := range ADCPins {
		a.channels[ch] = NewLine(bus, p)
	}
	return a
}

// Analog inputs.
const (
	AD0 = iota
	AD1
	AD2
	AD3
	AD4
	AD5
	AD6
	AD7
	AD8
	AD9
	AD10
	AD11
	AD12
	AD13
	AD14
)

// ADCChannels describes each input. Index it with a constant so that a
// channel the chip lacks fails to build.
var ADCChannels = func() (out [ADCChannelCount]analog.ChannelSpec) {
	for ch, p := range ADCPins {
		out[ch] = analog.ChannelSpec{Number: ch, Pad: p.Physical()}
	}
	return out
}()

func (a *ADCConverter) Channels() int    { return ADCChannelCount }
func (a *ADCConverter) MaxCount() uint16 { return 4095 }
func (a *ADCConverter) Gains() []uint8   { return []uint8{1, 2, 4} }
func (a *ADCConverter) HasOffset() bool  { return true }

// Setup resets the block and programs a 21 MHz ADC clock with per-channel
// analog settings.
func (a *ADCConverter) Setup() {
	a.EnableClock()
	a.Reg(adcCR).Set(adcCRSWRST)
	a.Reg(adcIDR).Set(0xFFFFFFFF)
	a.Reg(adcCHDR).Set(0xFFFF)
	const anach = 1 << 23
	mr := uint32(1)<<adcMRPrescalShift |
		uint32(8)<<adcMRStartupShift |
		uint32(3)<<adcMRSettlingShift |
		anach |
		uint32(15)<<adcMRTrackShift |
		uint32(1)<<adcMRTransferShift
	a.Reg(adcMR).Set(mr)
}

func (a *ADCConverter) ConfigurePin(ch int) error {
	if ch < 0 || ch >= ADCChannelCount {
		return errcode.New(errcode.InvalidChannel, "sam3x.adc", "no such input")
	}
	l := a.channels[ch]
	l.pio.EnableClock()
	l.write(pioPUDR)
	l.write(pioODR)
	return nil
}

func (a *ADCConverter) EnableChannel(ch int, on bool) {
	if on {
		a.Reg(adcCHER).Set(1 << ch)
	} else {
		a.Reg(adcCHDR).Set(1 << ch)
	}
}

// SetGain programs CGR (two bits per channel) and the COR offset bit.
func (a *ADCConverter) SetGain(ch int, gain uint8, offset bool) error {
	var code uint32
	switch gain {
	case 1:
		code = 0
	case 2:
		code = 2
	case 4:
		code = 3
	default:
		return errcode.New(errcode.InvalidParams, "sam3x.adc", "gain")
	}
	shift := uint(2 * ch)
	a.Reg(adcCGR).ReplaceBits(code<<shift, 3<<shift)
	if offset {
		a.Reg(adcCOR).SetBits(1 << ch)
	} else {
		a.Reg(adcCOR).ClearBits(1 << ch)
	}
	return nil
}

func (a *ADCConverter) SetInterrupts(ch int, irq analog.Interrupt) {
	a.mu.Lock()
	defer a.mu.Unlock()
	bit := uint32(1) << ch
	if irq&analog.IRQEndOfConversion != 0 {
		a.Reg(adcIER).Set(bit)
	} else {
		a.Reg(adcIDR).Set(bit)
	}
	for i, want := range []analog.Interrupt{analog.IRQDataReady, analog.IRQOverrun} {
		before := a.global[i]
		if irq&want != 0 {
			a.global[i] |= bit
		} else {
			a.global[i] &^= bit
		}
		flag := uint32(adcISRDRDY)
		if i == 1 {
			flag = adcISRGOVRE
		}
		switch {
		case before == 0 && a.global[i] != 0:
			a.Reg(adcIER).Set(flag)
		case before != 0 && a.global[i] == 0:
			a.Reg(adcIDR).Set(flag)
		}
	}
}

func (a *ADCConverter) Start()           { a.Reg(adcCR).Set(adcCRSTART) }
func (a *ADCConverter) Done(ch int) bool { return a.Reg(adcISR).HasBits(1 << ch) }

func (a *ADCConverter) Read(ch int) uint16 {
	return uint16(a.Reg(adcCDR0+uintptr(4*ch)).Get() & 0x0FFF)
}

// Acknowledge reads LCDR and ISR, which clears DRDY and GOVRE.
func (a *ADCConverter) Acknowledge() {
	a.Reg(adcLCDR).Get()
	a.Reg(adcISR).Get()
}

var _ analog.Hardware = (*ADCConverter)(nil)
