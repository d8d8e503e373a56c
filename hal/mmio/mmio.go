// Package mmio is the register access seam between drivers and hardware.
package mmio

// Bus reads and writes 32-bit memory-mapped registers.
type Bus interface {
	Load(addr uintptr) uint32
	Store(addr uintptr, v uint32)
}

// Reg is one register on a bus.
type Reg struct {
	Bus  Bus
	Addr uintptr
}

func (r Reg) Get() uint32           { return r.Bus.Load(r.Addr) }
func (r Reg) Set(v uint32)          { r.Bus.Store(r.Addr, v) }
func (r Reg) HasBits(m uint32) bool { return r.Bus.Load(r.Addr)&m == m }

// SetBits performs a read-modify-write that sets m.
func (r Reg) SetBits(m uint32) { r.Bus.Store(r.Addr, r.Bus.Load(r.Addr)|m) }

// ClearBits performs a read-modify-write that clears m.
func (r Reg) ClearBits(m uint32) { r.Bus.Store(r.Addr, r.Bus.Load(r.Addr)&^m) }

// ReplaceBits writes v into the field selected by m.
func (r Reg) ReplaceBits(v, m uint32) {
	r.Bus.Store(r.Addr, r.Bus.Load(r.Addr)&^m|v&m)
}
