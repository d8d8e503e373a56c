package rp2

import (
	"sync/atomic"

	"motionhal-go/hal/serial"
)

// UART implements serial.Hardware over a buffered driver. The driver
// accepts bytes at once, so the transmit interrupt is raised in software
// whenever it is unmasked.
type UART struct {
	blk  UARTBlock
	port UARTPort
	irq  func()

	enabled atomic.Bool
	armed   atomic.Bool
	inIRQ   atomic.Bool
	dropped atomic.Uint32
	one     [1]byte
}

func NewUART(c Chip, blk UARTBlock) *UART {
	return &UART{blk: blk, port: c.UART(blk.Index)}
}

func (u *UART) Block() UARTBlock { return u.blk }
func (u *UART) IRQ() int         { return u.blk.IRQ }
func (u *UART) ClockHz() uint32  { return ClockHz }

// OnInterrupt sets the transmit interrupt body.
func (u *UART) OnInterrupt(fn func()) { u.irq = fn }

func (u *UART) ConfigurePins() error { return u.port.Configure(u.blk.TX, u.blk.RX, 0) }

func (u *UART) Reset() {
	u.enabled.Store(false)
	u.armed.Store(false)
}

func (u *UART) SetFormat(f serial.Format) error {
	return u.port.SetFormat(f.DataBits, f.StopBits, f.Parity)
}

// SetDivisor programs the rate the divisor stands for; the driver derives
// its own fractional divisor from it.
func (u *UART) SetDivisor(cd uint32) {
	if cd == 0 {
		return
	}
	u.port.SetBaudRate(serial.ActualBaud(ClockHz, cd))
}

func (u *UART) Enable()  { u.enabled.Store(true) }
func (u *UART) Disable() { u.enabled.Store(false) }

func (u *UART) TxReady() bool { return u.enabled.Load() }

// PutByte hands b to the driver. A byte the driver refuses is counted in
// Dropped.
func (u *UART) PutByte(b byte) {
	u.one[0] = b
	if n, err := u.port.Write(u.one[:]); err != nil || n != 1 {
		u.dropped.Add(1)
	}
}

// Dropped is the number of bytes the driver refused.
func (u *UART) Dropped() uint32 { return u.dropped.Load() }

func (u *UART) SetTxInterrupt(on bool) {
	u.armed.Store(on)
	if on {
		u.raise()
	}
}

// raise runs the handler until it masks the interrupt. A store from inside
// the handler does not re-enter it.
func (u *UART) raise() {
	for u.irq != nil && u.armed.Load() && u.TxReady() {
		if !u.inIRQ.CompareAndSwap(false, true) {
			return
		}
		u.irq()
		u.inIRQ.Store(false)
	}
}

var _ serial.Hardware = (*UART)(nil)
