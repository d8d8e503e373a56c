package rp2

import (
	"errors"
	"sync"

	"motionhal-go/errcode"
	"motionhal-go/hal/serial"

	"periph.io/x/conn/v3/gpio"
	"tinygo.org/x/drivers"
)

var (
	// ErrNoDevice is returned by a simulated I2C bus with nothing attached.
	ErrNoDevice = errors.New("rp2: no device on bus")
	// ErrTxFull is returned by a simulated UART that has been filled.
	ErrTxFull = errors.New("rp2: uart transmit buffer full")
)

// Sim is an in-memory RP2040 for host tools and tests.
type Sim struct {
	mu     sync.Mutex
	out    uint32
	level  uint32
	input  uint32
	pulls  [NumPins]gpio.Pull
	uarts  [2]simUART
	volts  [len(ADCPins)]float64
	adcCfg uint8
	i2c    [2]drivers.I2C
	i2cHz  [2]uint32
}

type simUART struct {
	s          *Sim
	tx, rx     Pin
	baud       uint32
	data, stop uint8
	parity     serial.Parity
	sent       []byte
	full       bool
}

func NewSim() *Sim {
	s := &Sim{}
	for i := range s.uarts {
		s.uarts[i].s = s
	}
	return s
}

func (s *Sim) ConfigurePin(p Pin, out bool, pull gpio.Pull) error {
	if p.IsNull() {
		return errcode.New(errcode.UnknownPin, "rp2.pin", p.String())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if out {
		s.out |= 1 << p
	} else {
		s.out &^= 1 << p
	}
	s.pulls[p] = pull
	return nil
}

func (s *Sim) SetPin(p Pin, level gpio.Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if level {
		s.level |= 1 << p
	} else {
		s.level &^= 1 << p
	}
}

// GetPin reads an input: the driven level if set, else its pull.
func (s *Sim) GetPin(p Pin) gpio.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out&(1<<p) != 0 {
		return s.level&(1<<p) != 0
	}
	if s.input&(1<<p) != 0 {
		return gpio.High
	}
	return s.pulls[p] == gpio.PullUp
}

// Output reports whether p drives and at what level.
func (s *Sim) Output(p Pin) (bool, gpio.Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out&(1<<p) != 0, s.level&(1<<p) != 0
}

// DriveInput presents a level on p from outside.
func (s *Sim) DriveInput(p Pin, high bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if high {
		s.input |= 1 << p
	} else {
		s.input &^= 1 << p
	}
}

func (s *Sim) UART(index int) UARTPort { return &s.uarts[index] }

// Transmitted returns what a UART has sent.
func (s *Sim) Transmitted(index int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.uarts[index].sent...)
}

// FillUART makes a UART refuse writes until called again with false.
func (s *Sim) FillUART(index int, full bool) {
	s.mu.Lock()
	s.uarts[index].full = full
	s.mu.Unlock()
}

// UARTBaud returns a UART's configured rate.
func (s *Sim) UARTBaud(index int) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uarts[index].baud
}

func (u *simUART) Configure(tx, rx Pin, baud uint32) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	u.tx, u.rx = tx, rx
	if baud != 0 {
		u.baud = baud
	}
	return nil
}

func (u *simUART) SetBaudRate(baud uint32) {
	u.s.mu.Lock()
	u.baud = baud
	u.s.mu.Unlock()
}

func (u *simUART) SetFormat(dataBits, stopBits uint8, parity serial.Parity) error {
	if dataBits < 5 || dataBits > 8 || stopBits < 1 || stopBits > 2 {
		return errcode.New(errcode.InvalidParams, "rp2.uart", "frame")
	}
	u.s.mu.Lock()
	u.data, u.stop, u.parity = dataBits, stopBits, parity
	u.s.mu.Unlock()
	return nil
}

func (u *simUART) Write(b []byte) (int, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if u.full {
		return 0, ErrTxFull
	}
	u.sent = append(u.sent, b...)
	return len(b), nil
}

func (s *Sim) ADC() ADCPort { return (*simADC)(s) }

// SetAnalog sets the voltage on converter input ch against a 3.3 V
// reference.
func (s *Sim) SetAnalog(ch int, volts float64) {
	s.mu.Lock()
	s.volts[ch] = volts
	s.mu.Unlock()
}

type simADC Sim

func (a *simADC) Configure(ch int) error {
	a.mu.Lock()
	a.adcCfg |= 1 << ch
	a.mu.Unlock()
	return nil
}

func (a *simADC) Read(ch int) uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.adcCfg&(1<<ch) == 0 {
		return 0
	}
	v := a.volts[ch] / 3.3 * ADCMaxCount
	switch {
	case v <= 0:
		return 0
	case v >= ADCMaxCount:
		return ADCMaxCount
	}
	return uint16(v + 0.5)
}

// AttachI2C places dev on bus index.
func (s *Sim) AttachI2C(index int, dev drivers.I2C) {
	s.mu.Lock()
	s.i2c[index] = dev
	s.mu.Unlock()
}

// I2CHz returns the configured bus rate.
func (s *Sim) I2CHz(index int) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.i2cHz[index]
}

func (s *Sim) I2C(blk I2CBlock, hz uint32) (drivers.I2C, error) {
	if hz == 0 {
		return nil, errcode.New(errcode.InvalidParams, "rp2.i2c", "bus frequency")
	}
	s.mu.Lock()
	s.i2cHz[blk.Index] = hz
	s.mu.Unlock()
	return simI2C{s: s, index: blk.Index}, nil
}

type simI2C struct {
	s     *Sim
	index int
}

func (b simI2C) Tx(addr uint16, w, r []byte) error {
	b.s.mu.Lock()
	dev := b.s.i2c[b.index]
	b.s.mu.Unlock()
	if dev == nil {
		return ErrNoDevice
	}
	return dev.Tx(addr, w, r)
}

var _ Chip = (*Sim)(nil)
