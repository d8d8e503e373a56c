// Package serial drives a UART-class transmitter through an
// interrupt-drained queue.
package serial

import (
	"context"
	"time"

	"motionhal-go/errcode"
	"motionhal-go/x/mathx"
	"motionhal-go/x/shmring"
)

// Parity of a frame.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

// Format is the character frame.
type Format struct {
	DataBits uint8
	Parity   Parity
	StopBits uint8
}

// Frame8N1 is the only frame the motion controller uses.
var Frame8N1 = Format{DataBits: 8, Parity: ParityNone, StopBits: 1}

// MaxDivisor is the widest clock divisor the baud generator holds.
const MaxDivisor = 0xFFFF

// Hardware is the register-level half of a port.
type Hardware interface {
	ClockHz() uint32
	// ConfigurePins hands the TX and RX pads to the peripheral.
	ConfigurePins() error
	// Reset stops and resets both directions and masks interrupts.
	Reset()
	SetFormat(f Format) error
	SetDivisor(cd uint32)
	Enable()
	Disable()
	TxReady() bool
	PutByte(b byte)
	// SetTxInterrupt unmasks or masks the transmit-ready interrupt.
	SetTxInterrupt(on bool)
}

// Divisor returns clock/(16*baud), truncated.
func Divisor(clockHz, baud uint32) (uint32, error) {
	if baud == 0 {
		return 0, errcode.New(errcode.InvalidBaud, "serial.divisor", "baud must be positive")
	}
	cd := uint64(clockHz) / (16 * uint64(baud))
	switch {
	case cd == 0:
		return 0, errcode.New(errcode.BaudTooHigh, "serial.divisor", "rate exceeds clock/16")
	case cd > MaxDivisor:
		return 0, errcode.New(errcode.DivisorOverflow, "serial.divisor", "rate below clock/(16*65535)")
	}
	return uint32(cd), nil
}

// ActualBaud is the bit rate a divisor realises.
func ActualBaud(clockHz, cd uint32) uint32 {
	return mathx.RoundDiv(clockHz, 16*cd)
}

const (
	DefaultQueueSize    = 256
	DefaultWriteTimeout = time.Second
	// MaxBaudError is the largest relative rate error a link tolerates.
	MaxBaudError = 0.02
)

// Port is a transmit path whose bytes are moved to the peripheral by
// HandleIRQ.
type Port struct {
	hw      Hardware
	tx      *shmring.Ring
	timeout time.Duration

	baud    uint32
	divisor uint32
	format  Format
	ready   bool

	drained chan struct{}
}

type Option func(*Port)

// WithQueueSize sets the transmit queue length (a power of two).
func WithQueueSize(n int) Option { return func(p *Port) { p.tx = shmring.New(n) } }

// WithWriteTimeout bounds Write.
func WithWriteTimeout(d time.Duration) Option { return func(p *Port) { p.timeout = d } }

func New(hw Hardware, opts ...Option) *Port {
	p := &Port{
		hw:      hw,
		timeout: DefaultWriteTimeout,
		drained: make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(p)
	}
	if p.tx == nil {
		p.tx = shmring.New(DefaultQueueSize)
	}
	return p
}

// Init configures pins, the 8N1 frame and the baud divisor, then enables
// the port. Nothing is touched when baud is unusable.
func (p *Port) Init(baud uint32) error {
	cd, err := Divisor(p.hw.ClockHz(), baud)
	if err != nil {
		return err
	}
	if err := p.hw.ConfigurePins(); err != nil {
		return errcode.Wrap(errcode.Error, "serial.init", err)
	}
	p.hw.Reset()
	if err := p.hw.SetFormat(Frame8N1); err != nil {
		return err
	}
	p.hw.SetDivisor(cd)
	p.tx.Discard()
	p.baud, p.divisor, p.format = baud, cd, Frame8N1
	p.ready = true
	p.Enable()
	return nil
}

func (p *Port) Enable()  { p.hw.Enable() }
func (p *Port) Disable() { p.hw.Disable() }

func (p *Port) Baud() uint32       { return p.baud }
func (p *Port) Divisor() uint32    { return p.divisor }
func (p *Port) Format() Format     { return p.format }
func (p *Port) ActualBaud() uint32 { return ActualBaud(p.hw.ClockHz(), p.divisor) }

// BaudError is the relative error of the realised rate against the
// requested one.
func (p *Port) BaudError() float64 {
	return mathx.RelErr(float64(p.ActualBaud()), float64(p.baud))
}

// Queued is the number of bytes waiting for the transmitter.
func (p *Port) Queued() int { return p.tx.Available() }

// Ticket identifies the end of a submitted buffer.
type Ticket struct {
	p   *Port
	end uint32
}

// Done reports whether every byte up to the ticket has left the queue.
func (t Ticket) Done() bool { return int32(t.p.tx.Consumed()-t.end) >= 0 }

// Wait blocks until Done or ctx ends, in which case it returns
// errcode.Timeout.
func (t Ticket) Wait(ctx context.Context) error {
	for !t.Done() {
		select {
		case <-t.p.drained:
		case <-ctx.Done():
			if t.Done() {
				return nil
			}
			return errcode.Wrap(errcode.Timeout, "serial.wait", ctx.Err())
		}
	}
	return nil
}

// Submit queues b and returns at once. The whole buffer is queued or none of
// it (errcode.Busy).
func (p *Port) Submit(b []byte) (Ticket, error) {
	if !p.ready {
		return Ticket{}, errcode.New(errcode.NotInitialised, "serial.submit", "port not initialised")
	}
	if len(b) > p.tx.Space() {
		return Ticket{}, errcode.New(errcode.Busy, "serial.submit", "transmit queue full")
	}
	p.tx.TryWriteFrom(b)
	t := Ticket{p: p, end: p.tx.Produced()}
	p.hw.SetTxInterrupt(true)
	return t, nil
}

// Write queues b, waiting for space as needed, and returns once the last
// byte has been handed to the transmitter or the write timeout passes.
func (p *Port) Write(b []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return p.WriteContext(ctx, b)
}

// WriteContext is Write bounded by ctx.
func (p *Port) WriteContext(ctx context.Context, b []byte) (int, error) {
	if !p.ready {
		return 0, errcode.New(errcode.NotInitialised, "serial.write", "port not initialised")
	}
	n := 0
	for n < len(b) {
		k := p.tx.TryWriteFrom(b[n:])
		if k > 0 {
			n += k
			p.hw.SetTxInterrupt(true)
			continue
		}
		select {
		case <-p.tx.Writable():
		case <-p.drained:
		case <-ctx.Done():
			return n, errcode.Wrap(errcode.Timeout, "serial.write", ctx.Err())
		}
	}
	t := Ticket{p: p, end: p.tx.Produced()}
	return n, t.Wait(ctx)
}

// Flush waits for the queue to empty.
func (p *Port) Flush(ctx context.Context) error {
	return Ticket{p: p, end: p.tx.Produced()}.Wait(ctx)
}

// WriteBytePolled spins on transmit-ready and writes one byte, bypassing the
// queue. For use before interrupts run.
func (p *Port) WriteBytePolled(ctx context.Context, b byte) error {
	for !p.hw.TxReady() {
		if err := ctx.Err(); err != nil {
			return errcode.Wrap(errcode.Timeout, "serial.putc", err)
		}
	}
	p.hw.PutByte(b)
	return nil
}

// HandleIRQ is the transmit-ready interrupt body: feed the transmitter
// while it accepts bytes, mask the interrupt once the queue is empty.
func (p *Port) HandleIRQ() {
	for p.hw.TxReady() {
		b, ok := p.tx.PopByte()
		if !ok {
			p.hw.SetTxInterrupt(false)
			break
		}
		p.hw.PutByte(b)
	}
	select {
	case p.drained <- struct{}{}:
	default:
	}
}
