package sam3x

import (
	"math"
	"sync"
	"sync/atomic"

	"motionhal-go/hal/mmio"
	"motionhal-go/x/mathx"

	"tinygo.org/x/drivers"
)

// Sim is a register-level model of the blocks this package drives, for host
// tests and dry runs. It models PIO set/clear/status registers, PMC clock
// gates, USART transmit with a capture buffer, single-shot ADC conversions of
// injected voltages, TWI transfers against attached I2C devices, and the
// interrupt lines of those blocks.
type Sim struct {
	*mmio.Sim

	mu       sync.Mutex
	handlers map[int]func()
	inputs   [4]uint32
	txEn     [serialCount]bool
	txStall  [serialCount]bool
	txOut    [serialCount][]byte
	analogIn [ADCChannelCount]float64
	adcStall bool
	vref     float64
	twi      [twiCount]simTWI
	raising  atomic.Bool
}

type simTWI struct {
	dev     drivers.I2C
	active  bool
	reading bool
	stopped bool
	nack    bool
	txbuf   []byte
	rxbuf   [256]byte
	rxpos   int
}

func NewSim() *Sim {
	s := &Sim{Sim: mmio.NewSim(), handlers: map[int]func(){}, vref: 3.3}
	s.installPMC()
	for port := 0; port < 4; port++ {
		s.installPIO(port)
	}
	for i := range Serials {
		s.installSerial(Serial(i))
	}
	s.installADC()
	for i := range TWIs {
		s.installTWI(I2C(i))
	}
	s.AfterStore(func(*mmio.Sim) { s.raise() })
	return s
}

// Attach routes interrupt line irq to fn.
func (s *Sim) Attach(irq int, fn func()) {
	s.mu.Lock()
	s.handlers[irq] = fn
	s.mu.Unlock()
	s.raise()
}

// Dispatcher routes interrupt lines. *hal.Registry satisfies it.
type Dispatcher interface {
	IRQs() []int
	Dispatch(irq int) bool
}

// AttachAll routes every line d handles.
func (s *Sim) AttachAll(d Dispatcher) {
	for _, irq := range d.IRQs() {
		s.Attach(irq, func() { d.Dispatch(irq) })
	}
}

// DriveInput sets the external level of a pad.
func (s *Sim) DriveInput(p Pin, high bool) {
	s.mu.Lock()
	if high {
		s.inputs[p.Port()] |= p.Mask()
	} else {
		s.inputs[p.Port()] &^= p.Mask()
	}
	s.mu.Unlock()
}

// StallTX holds transmit-ready low on a serial block, as a stuck line would.
func (s *Sim) StallTX(n Serial, stall bool) {
	s.mu.Lock()
	s.txStall[n] = stall
	s.mu.Unlock()
	s.raise()
}

// Transmitted returns the bytes written to a serial block's THR.
func (s *Sim) Transmitted(n Serial) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.txOut[n]...)
}

// SetAnalog sets the voltage presented to ADC input ch.
func (s *Sim) SetAnalog(ch int, volts float64) {
	s.mu.Lock()
	s.analogIn[ch] = volts
	s.mu.Unlock()
}

// StallADC stops conversions from completing.
func (s *Sim) StallADC(stall bool) {
	s.mu.Lock()
	s.adcStall = stall
	s.mu.Unlock()
}

// AttachI2C places dev on a TWI bus. The model forwards whole transfers.
func (s *Sim) AttachI2C(n I2C, dev drivers.I2C) {
	s.mu.Lock()
	s.twi[n].dev = dev
	s.mu.Unlock()
}

// Pending reports whether an interrupt line is asserted.
func (s *Sim) Pending(irq int) bool {
	for i, blk := range Serials {
		if int(blk.ID) == irq {
			return s.serialPending(Serial(i))
		}
	}
	if irq == int(IDADC) {
		return s.Peek(BaseADC+adcISR)&s.Peek(BaseADC+adcIMR) != 0
	}
	return false
}

// raise runs attached handlers while their lines are asserted. Stores made
// by a handler do not re-enter it.
func (s *Sim) raise() {
	if !s.raising.CompareAndSwap(false, true) {
		return
	}
	defer s.raising.Store(false)
	for guard := 0; guard < 1024; guard++ {
		s.mu.Lock()
		hs := make(map[int]func(), len(s.handlers))
		for k, v := range s.handlers {
			hs[k] = v
		}
		s.mu.Unlock()
		fired := false
		for irq, fn := range hs {
			if s.Pending(irq) {
				fn()
				fired = true
			}
		}
		if !fired {
			return
		}
	}
}

// set/clear/status triplet: writing set or clr updates status.
func (s *Sim) triplet(set, clr, status uintptr) {
	s.OnStore(set, func(m *mmio.Sim, _ uintptr, v uint32) (uint32, bool) {
		m.Modify(status, func(x uint32) uint32 { return x | v })
		return 0, false
	})
	s.OnStore(clr, func(m *mmio.Sim, _ uintptr, v uint32) (uint32, bool) {
		m.Modify(status, func(x uint32) uint32 { return x &^ v })
		return 0, false
	})
}

func (s *Sim) installPMC() {
	s.triplet(BasePMC+pmcPCER0, BasePMC+pmcPCDR0, BasePMC+pmcPCSR0)
	s.triplet(BasePMC+pmcPCER1, BasePMC+pmcPCDR1, BasePMC+pmcPCSR1)
}

func (s *Sim) installPIO(port int) {
	b := BasePIOA + uintptr(port)*pioStride
	s.triplet(b+pioPER, b+pioPDR, b+pioPSR)
	s.triplet(b+pioOER, b+pioODR, b+pioOSR)
	s.triplet(b+pioIFER, b+pioIFDR, b+pioIFSR)
	s.triplet(b+pioSODR, b+pioCODR, b+pioODSR)
	s.triplet(b+pioIER, b+pioIDR, b+pioIMR)
	s.triplet(b+pioMDER, b+pioMDDR, b+pioMDSR)
	s.triplet(b+pioOWER, b+pioOWDR, b+pioOWSR)
	s.triplet(b+pioDIFSR, b+pioSCIFSR, b+pioIFDGSR)
	// PUSR reads 0 where the pull-up is enabled.
	s.triplet(b+pioPUDR, b+pioPUER, b+pioPUSR)
	s.OnStore(b+pioODSR, func(m *mmio.Sim, addr uintptr, v uint32) (uint32, bool) {
		ow := m.Peek(b + pioOWSR)
		return m.Peek(addr)&^ow | v&ow, true
	})
	s.OnLoad(b+pioPDSR, func(m *mmio.Sim, _ uintptr, _ uint32) uint32 {
		s.mu.Lock()
		in := s.inputs[port]
		s.mu.Unlock()
		osr := m.Peek(b + pioOSR)
		return m.Peek(b+pioODSR)&osr | in&^osr
	})
}

func (s *Sim) installSerial(n Serial) {
	b := Serials[n].Base
	s.triplet(b+usIER, b+usIDR, b+usIMR)
	s.OnStore(b+usCR, func(_ *mmio.Sim, _ uintptr, v uint32) (uint32, bool) {
		s.mu.Lock()
		switch {
		case v&(usCRTXDIS|usCRRSTTX) != 0:
			s.txEn[n] = false
		case v&usCRTXEN != 0:
			s.txEn[n] = true
		}
		s.mu.Unlock()
		return 0, false
	})
	s.OnLoad(b+usCSR, func(*mmio.Sim, uintptr, uint32) uint32 {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.txEn[n] || s.txStall[n] {
			return 0
		}
		return usCSRTXRDY | usCSRTXEMPTY
	})
	s.OnStore(b+usTHR, func(_ *mmio.Sim, _ uintptr, v uint32) (uint32, bool) {
		s.mu.Lock()
		if s.txEn[n] {
			s.txOut[n] = append(s.txOut[n], byte(v))
		}
		s.mu.Unlock()
		return 0, false
	})
}

func (s *Sim) serialPending(n Serial) bool {
	b := Serials[n].Base
	return s.Load(b+usCSR)&s.Peek(b+usIMR) != 0
}

func (s *Sim) installADC() {
	b := BaseADC
	s.triplet(b+adcCHER, b+adcCHDR, b+adcCHSR)
	s.triplet(b+adcIER, b+adcIDR, b+adcIMR)
	s.OnStore(b+adcCR, func(m *mmio.Sim, _ uintptr, v uint32) (uint32, bool) {
		if v&adcCRSWRST != 0 {
			for _, r := range []uintptr{adcMR, adcCHSR, adcIMR, adcISR, adcCGR, adcCOR} {
				m.Poke(b+r, 0)
			}
		}
		if v&adcCRSTART != 0 {
			s.convert(m)
		}
		return 0, false
	})
	s.OnLoad(b+adcLCDR, func(m *mmio.Sim, _ uintptr, cur uint32) uint32 {
		m.Modify(b+adcISR, func(x uint32) uint32 { return x &^ adcISRDRDY })
		return cur
	})
	for ch := 0; ch < ADCChannelCount; ch++ {
		bit := uint32(1) << ch
		s.OnLoad(b+adcCDR0+uintptr(4*ch), func(m *mmio.Sim, _ uintptr, cur uint32) uint32 {
			m.Modify(b+adcISR, func(x uint32) uint32 { return x &^ bit })
			return cur
		})
	}
}

func (s *Sim) convert(m *mmio.Sim) {
	s.mu.Lock()
	stall := s.adcStall
	in := s.analogIn
	vref := s.vref
	s.mu.Unlock()
	if stall {
		return
	}
	b := BaseADC
	chsr := m.Peek(b + adcCHSR)
	cgr := m.Peek(b + adcCGR)
	cor := m.Peek(b + adcCOR)
	var done uint32
	var last uint32
	for ch := 0; ch < ADCChannelCount; ch++ {
		if chsr&(1<<ch) == 0 {
			continue
		}
		gain := [4]float64{1, 1, 2, 4}[cgr>>(2*ch)&3]
		lo, hi := 0.0, vref/gain
		if cor&(1<<ch) != 0 {
			half := vref / 2
			lo, hi = half-half/gain, half+half/gain
		}
		f := mathx.Clamp(mathx.InvLerp(lo, hi, in[ch]), 0, 1)
		count := uint32(math.Round(f * 4095))
		m.Poke(b+adcCDR0+uintptr(4*ch), count)
		done |= 1 << ch
		last = uint32(ch)<<12 | count
	}
	if done == 0 {
		return
	}
	m.Poke(b+adcLCDR, last)
	m.Modify(b+adcISR, func(x uint32) uint32 { return x | done | adcISRDRDY })
}

func (s *Sim) installTWI(n I2C) {
	b := TWIs[n].Base
	s.OnStore(b+twiTHR, func(m *mmio.Sim, _ uintptr, v uint32) (uint32, bool) {
		s.mu.Lock()
		t := &s.twi[n]
		if !t.active {
			t.active, t.reading, t.stopped, t.txbuf = true, false, false, t.txbuf[:0]
			if t.dev == nil || t.dev.Tx(s.twiAddr(m, n), nil, nil) != nil {
				t.nack = true
			}
		}
		t.txbuf = append(t.txbuf, byte(v))
		s.mu.Unlock()
		return 0, false
	})
	s.OnStore(b+twiCR, func(m *mmio.Sim, _ uintptr, v uint32) (uint32, bool) {
		s.mu.Lock()
		defer s.mu.Unlock()
		t := &s.twi[n]
		if v&twiCRSWRST != 0 {
			*t = simTWI{dev: t.dev}
		}
		if v&twiCRSTART != 0 && m.Peek(b+twiMMR)&twiMMRMREAD != 0 {
			t.active, t.reading, t.stopped, t.rxpos = true, true, false, 0
			iadr := s.twiIADR(m, n)
			if t.dev == nil || t.dev.Tx(s.twiAddr(m, n), iadr, t.rxbuf[:]) != nil {
				t.nack = true
			}
		}
		if v&twiCRSTOP != 0 && t.active {
			if !t.reading && !t.nack && t.dev != nil {
				if t.dev.Tx(s.twiAddr(m, n), t.txbuf, nil) != nil {
					t.nack = true
				}
			}
			t.stopped = true
		}
		return 0, false
	})
	s.OnLoad(b+twiSR, func(*mmio.Sim, uintptr, uint32) uint32 {
		s.mu.Lock()
		defer s.mu.Unlock()
		t := &s.twi[n]
		var sr uint32
		if t.nack {
			sr |= twiSRNACK
			t.nack = false
			t.active = false
		}
		if !t.active || t.stopped {
			sr |= twiSRTXCOMP
			if t.stopped && (!t.reading || t.rxpos > 0) {
				t.active = false
			}
		}
		if t.active && !t.reading {
			sr |= twiSRTXRDY
		}
		if t.active && t.reading {
			sr |= twiSRRXRDY
		}
		return sr
	})
	s.OnLoad(b+twiRHR, func(*mmio.Sim, uintptr, uint32) uint32 {
		s.mu.Lock()
		defer s.mu.Unlock()
		t := &s.twi[n]
		if t.rxpos >= len(t.rxbuf) {
			return 0xFF
		}
		v := t.rxbuf[t.rxpos]
		t.rxpos++
		return uint32(v)
	})
}

func (s *Sim) twiAddr(m *mmio.Sim, n I2C) uint16 {
	return uint16(m.Peek(TWIs[n].Base+twiMMR)>>twiMMRDADRShift) & 0x7F
}

func (s *Sim) twiIADR(m *mmio.Sim, n I2C) []byte {
	b := TWIs[n].Base
	size := int(m.Peek(b+twiMMR)>>twiMMRIADRSZShift) & 3
	ia := m.Peek(b + twiIADR)
	out := make([]byte, size)
	for i := size - 1; i >= 0; i-- {
		out[i] = byte(ia)
		ia >>= 8
	}
	return out
}
