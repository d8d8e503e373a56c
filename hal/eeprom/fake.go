package eeprom

import (
	"errors"
	"sync"
)

// ErrNack is what Fake returns while busy or when addressed wrongly.
var ErrNack = errors.New("eeprom: no acknowledge")

// Fake is an in-memory 24Cxx on a drivers.I2C interface. Page writes wrap
// within the page as the silicon does, and the part stays busy for
// BusyPolls transactions after each write.
type Fake struct {
	mu        sync.Mutex
	Addr      uint16
	Mem       []byte
	PageSize  int
	BusyPolls int
	busy      int
	ptr       int
	writes    int
	fail      error
}

func NewFake(size, page int) *Fake {
	m := make([]byte, size)
	for i := range m {
		m[i] = 0xFF
	}
	return &Fake{Addr: DefaultAddress, Mem: m, PageSize: page, BusyPolls: 2}
}

func (f *Fake) Tx(addr uint16, w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	if addr != f.Addr {
		return ErrNack
	}
	if f.busy > 0 {
		f.busy--
		return ErrNack
	}
	if len(w) >= 2 {
		f.ptr = (int(w[0])<<8 | int(w[1])) % len(f.Mem)
		if data := w[2:]; len(data) > 0 {
			base := f.ptr - f.ptr%f.PageSize
			off := f.ptr % f.PageSize
			for _, b := range data {
				f.Mem[base+off] = b
				off = (off + 1) % f.PageSize
			}
			f.writes++
			f.busy = f.BusyPolls
		}
	}
	for i := range r {
		r[i] = f.Mem[f.ptr]
		f.ptr = (f.ptr + 1) % len(f.Mem)
	}
	return nil
}

// PageWrites counts write cycles.
func (f *Fake) PageWrites() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// Fail makes every transaction return err until called with nil.
func (f *Fake) Fail(err error) {
	f.mu.Lock()
	f.fail = err
	f.mu.Unlock()
}
