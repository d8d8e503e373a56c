package sam3x

import "motionhal-go/hal/mmio"

// Common is the part every peripheral driver shares: where its registers
// live, how its clock is gated and which interrupt line it raises.
type Common struct {
	Bus  mmio.Bus
	ID   uint8
	Base uintptr
}

// Reg returns the register at offset off in this block.
func (c Common) Reg(off uintptr) mmio.Reg { return mmio.Reg{Bus: c.Bus, Addr: c.Base + off} }

// IRQ is the NVIC line, equal to the peripheral ID on this family.
func (c Common) IRQ() int { return int(c.ID) }

func (c Common) EnableClock()  { pmcWrite(c.Bus, c.ID, pmcPCER0, pmcPCER1) }
func (c Common) DisableClock() { pmcWrite(c.Bus, c.ID, pmcPCDR0, pmcPCDR1) }

// ClockEnabled reads the PMC status bit for this block.
func (c Common) ClockEnabled() bool {
	reg, bit := pmcSlot(c.ID, pmcPCSR0, pmcPCSR1)
	return c.Bus.Load(BasePMC+reg)&(1<<bit) != 0
}

// IDs 0..31 live in the *0 registers, 32..63 in the *1 registers.
func pmcSlot(id uint8, r0, r1 uintptr) (uintptr, uint8) {
	if id < 32 {
		return r0, id
	}
	return r1, id - 32
}

func pmcWrite(bus mmio.Bus, id uint8, r0, r1 uintptr) {
	reg, bit := pmcSlot(id, r0, r1)
	bus.Store(BasePMC+reg, 1<<bit)
}
