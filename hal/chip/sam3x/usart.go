package sam3x

import (
	"motionhal-go/errcode"
	"motionhal-go/hal/mmio"
	"motionhal-go/hal/serial"
)

// Serial selects a USART or the debug UART.
type Serial int

const (
	USART0 Serial = iota
	USART1
	USART2
	USART3
	UART0
	serialCount
)

// SerialBlock describes one serial peripheral instance.
type SerialBlock struct {
	Name   string
	ID     uint8
	Base   uintptr
	RX, TX Pin
	Periph Periph
}

// Serials is indexed by Serial. A constant index the chip lacks fails to
// build.
var Serials = [serialCount]SerialBlock{
	USART0: {"USART0", IDUSART0, BaseUSART0, USART0RX, USART0TX, PeriphA},
	USART1: {"USART1", IDUSART1, BaseUSART1, USART1RX, USART1TX, PeriphA},
	USART2: {"USART2", IDUSART2, BaseUSART2, USART2RX, USART2TX, PeriphA},
	USART3: {"USART3", IDUSART3, BaseUSART3, USART3RX, USART3TX, PeriphB},
	UART0:  {"UART", IDUART, BaseUART, UARTRX, UARTTX, PeriphA},
}

// USART implements serial.Hardware on a SAM3X USART or UART.
type USART struct {
	Common
	blk    SerialBlock
	rx, tx *Line
}

func NewUSART(bus mmio.Bus, blk SerialBlock) *USART {
	return &USART{
		Common: Common{Bus: bus, ID: blk.ID, Base: blk.Base},
		blk:    blk,
		rx:     NewLine(bus, blk.RX),
		tx:     NewLine(bus, blk.TX),
	}
}

func (u *USART) Block() SerialBlock { return u.blk }
func (u *USART) ClockHz() uint32    { return MasterClockHz }

func (u *USART) ConfigurePins() error {
	u.EnableClock()
	u.rx.SetPeripheral(u.blk.Periph)
	u.tx.SetPeripheral(u.blk.Periph)
	return nil
}

func (u *USART) Reset() {
	u.Reg(usIDR).Set(0xFFFFFFFF)
	u.Reg(usCR).Set(usCRRSTRX | usCRRSTTX | usCRRXDIS | usCRTXDIS | usCRRSTSTA)
}

func (u *USART) SetFormat(f serial.Format) error {
	var mr uint32 = usMRModeNormal
	switch f.DataBits {
	case 8:
		mr |= usMRCHRL8
	case 7:
		mr |= usMRCHRL7
	default:
		return errcode.New(errcode.InvalidParams, "sam3x.usart", "data bits")
	}
	switch f.Parity {
	case serial.ParityNone:
		mr |= usMRPARNone
	case serial.ParityEven:
		mr |= usMRPAREven
	case serial.ParityOdd:
		mr |= usMRPAROdd
	}
	switch f.StopBits {
	case 1:
		mr |= usMRNBSTOP1
	case 2:
		mr |= usMRNBSTOP2
	default:
		return errcode.New(errcode.InvalidParams, "sam3x.usart", "stop bits")
	}
	u.Reg(usMR).Set(mr)
	return nil
}

func (u *USART) SetDivisor(cd uint32) { u.Reg(usBRGR).Set(cd & usBRGRCDMask) }

func (u *USART) Enable()  { u.Reg(usCR).Set(usCRRXEN | usCRTXEN) }
func (u *USART) Disable() { u.Reg(usCR).Set(usCRRXDIS | usCRTXDIS) }

func (u *USART) TxReady() bool  { return u.Reg(usCSR).HasBits(usCSRTXRDY) }
func (u *USART) PutByte(b byte) { u.Reg(usTHR).Set(uint32(b)) }

func (u *USART) SetTxInterrupt(on bool) {
	if on {
		u.Reg(usIER).Set(usCSRTXRDY)
	} else {
		u.Reg(usIDR).Set(usCSRTXRDY)
	}
}

var _ serial.Hardware = (*USART)(nil)
