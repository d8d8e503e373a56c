// Package eeprom drives 24Cxx-style serial EEPROMs with two-byte memory
// addressing.
package eeprom

import (
	"motionhal-go/errcode"
	"motionhal-go/x/mathx"

	"tinygo.org/x/drivers"
)

const (
	DefaultAddress  = 0x50
	DefaultSize     = 4096 // 24C32
	DefaultPageSize = 32
	DefaultMaxRead  = 128
	DefaultPolls    = 200
)

type Config struct {
	Address  uint16
	Size     int
	PageSize int
	// MaxRead bounds one sequential read transaction.
	MaxRead int
	// Polls bounds acknowledge polling after a page write.
	Polls int
}

type Device struct {
	bus drivers.I2C
	cfg Config
}

func New(bus drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = DefaultAddress
	}
	if cfg.Size <= 0 {
		cfg.Size = DefaultSize
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxRead <= 0 {
		cfg.MaxRead = DefaultMaxRead
	}
	if cfg.Polls <= 0 {
		cfg.Polls = DefaultPolls
	}
	return &Device{bus: bus, cfg: cfg}
}

func (d *Device) Size() int { return d.cfg.Size }

func (d *Device) check(op string, n int, off int64) error {
	if off < 0 || off+int64(n) > int64(d.cfg.Size) {
		return errcode.New(errcode.OutOfRange, op, "beyond device size")
	}
	return nil
}

// ReadAt reads len(p) bytes starting at off.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	if err := d.check("eeprom.read", len(p), off); err != nil {
		return 0, err
	}
	n := 0
	for n < len(p) {
		k := mathx.Min(len(p)-n, d.cfg.MaxRead)
		a := uint16(off) + uint16(n)
		if err := d.bus.Tx(d.cfg.Address, []byte{byte(a >> 8), byte(a)}, p[n:n+k]); err != nil {
			return n, errcode.Wrap(errcode.StorageFailure, "eeprom.read", err)
		}
		n += k
	}
	return n, nil
}

// WriteAt writes p at off, splitting at page boundaries and waiting out
// each write cycle.
func (d *Device) WriteAt(p []byte, off int64) (int, error) {
	if err := d.check("eeprom.write", len(p), off); err != nil {
		return 0, err
	}
	n := 0
	buf := make([]byte, 2+d.cfg.PageSize)
	for n < len(p) {
		a := int(off) + n
		room := d.cfg.PageSize - a%d.cfg.PageSize
		k := mathx.Min(len(p)-n, room)
		buf[0], buf[1] = byte(a>>8), byte(a)
		copy(buf[2:], p[n:n+k])
		if err := d.bus.Tx(d.cfg.Address, buf[:2+k], nil); err != nil {
			return n, errcode.Wrap(errcode.StorageFailure, "eeprom.write", err)
		}
		if err := d.settle(uint16(a)); err != nil {
			return n, err
		}
		n += k
	}
	return n, nil
}

// settle polls with an address-only write until the device acknowledges.
func (d *Device) settle(a uint16) error {
	w := []byte{byte(a >> 8), byte(a)}
	for i := 0; i < d.cfg.Polls; i++ {
		if d.bus.Tx(d.cfg.Address, w, nil) == nil {
			return nil
		}
	}
	return errcode.New(errcode.Timeout, "eeprom.settle", "write cycle did not finish")
}
