package sam3x

import (
	"errors"

	"motionhal-go/errcode"
	"motionhal-go/hal/mmio"

	"tinygo.org/x/drivers"
)

// ErrNack reports that the addressed device did not acknowledge.
var ErrNack = errors.New("i2c: no acknowledge")

// I2C selects a TWI block.
type I2C int

const (
	TWI0 I2C = iota
	TWI1
	twiCount
)

// TWIBlock describes one TWI instance.
type TWIBlock struct {
	Name     string
	ID       uint8
	Base     uintptr
	SDA, SCL Pin
}

var TWIs = [twiCount]TWIBlock{
	TWI0: {"TWI0", IDTWI0, BaseTWI0, TWI0SDA, TWI0SCL},
	TWI1: {"TWI1", IDTWI1, BaseTWI1, TWI1SDA, TWI1SCL},
}

// twiSpin bounds every status wait.
const twiSpin = 100_000

// TWI is a polled I2C master implementing drivers.I2C.
type TWI struct {
	Common
	blk  TWIBlock
	sda  *Line
	scl  *Line
	spin int
}

func NewTWI(bus mmio.Bus, blk TWIBlock) *TWI {
	return &TWI{
		Common: Common{Bus: bus, ID: blk.ID, Base: blk.Base},
		blk:    blk,
		sda:    NewLine(bus, blk.SDA),
		scl:    NewLine(bus, blk.SCL),
		spin:   twiSpin,
	}
}

func (t *TWI) Block() TWIBlock { return t.blk }

// Configure resets the block into master mode at freqHz.
func (t *TWI) Configure(freqHz uint32) error {
	cwgr, ok := twiClockWaveform(MasterClockHz, freqHz)
	if !ok {
		return errcode.New(errcode.InvalidParams, "sam3x.twi", "bus frequency")
	}
	t.EnableClock()
	t.sda.SetPeripheral(PeriphA)
	t.scl.SetPeripheral(PeriphA)
	t.Reg(twiCR).Set(twiCRSWRST)
	t.Reg(twiCR).Set(twiCRMSDIS | twiCRSVDIS)
	t.Reg(twiCWGR).Set(cwgr)
	t.Reg(twiCR).Set(twiCRMSEN)
	return nil
}

// twiClockWaveform finds CLDIV = CHDIV and CKDIV such that each half period
// is (CLDIV * 2^CKDIV + 4) master clocks.
func twiClockWaveform(mck, freq uint32) (uint32, bool) {
	if freq == 0 {
		return 0, false
	}
	half := mck / (2 * freq)
	if half <= 4 {
		return 0, false
	}
	for ckdiv := uint32(0); ckdiv < 8; ckdiv++ {
		div := (half - 4) >> ckdiv
		if div <= 0xFF {
			return div | div<<8 | ckdiv<<16, true
		}
	}
	return 0, false
}

func (t *TWI) wait(mask uint32) error {
	for i := 0; i < t.spin; i++ {
		sr := t.Reg(twiSR).Get()
		if sr&twiSRNACK != 0 {
			return errcode.Wrap(errcode.Busy, "sam3x.twi", ErrNack)
		}
		if sr&mask != 0 {
			return nil
		}
	}
	return errcode.New(errcode.Timeout, "sam3x.twi", "status wait")
}

// Tx writes w then reads into r. A write followed by a read uses w as the
// internal address, so w is limited to three bytes in that case.
func (t *TWI) Tx(addr uint16, w, r []byte) error {
	switch {
	case len(r) == 0:
		return t.write(addr, w)
	case len(w) > 3:
		return errcode.New(errcode.Unsupported, "sam3x.twi", "internal address longer than 3 bytes")
	default:
		return t.read(addr, w, r)
	}
}

func (t *TWI) write(addr uint16, w []byte) error {
	if len(w) == 0 {
		return nil
	}
	t.Reg(twiMMR).Set(uint32(addr&0x7F) << twiMMRDADRShift)
	t.Reg(twiIADR).Set(0)
	for _, b := range w {
		t.Reg(twiTHR).Set(uint32(b))
		if err := t.wait(twiSRTXRDY); err != nil {
			return err
		}
	}
	t.Reg(twiCR).Set(twiCRSTOP)
	return t.wait(twiSRTXCOMP)
}

func (t *TWI) read(addr uint16, iadr, r []byte) error {
	var ia uint32
	for _, b := range iadr {
		ia = ia<<8 | uint32(b)
	}
	t.Reg(twiMMR).Set(uint32(addr&0x7F)<<twiMMRDADRShift | twiMMRMREAD | uint32(len(iadr))<<twiMMRIADRSZShift)
	t.Reg(twiIADR).Set(ia)
	if len(r) == 1 {
		t.Reg(twiCR).Set(twiCRSTART | twiCRSTOP)
	} else {
		t.Reg(twiCR).Set(twiCRSTART)
	}
	for i := range r {
		if i == len(r)-1 && len(r) > 1 {
			t.Reg(twiCR).Set(twiCRSTOP)
		}
		if err := t.wait(twiSRRXRDY); err != nil {
			return err
		}
		r[i] = byte(t.Reg(twiRHR).Get())
	}
	return t.wait(twiSRTXCOMP)
}

var _ drivers.I2C = (*TWI)(nil)
