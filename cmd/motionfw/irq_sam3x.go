//go:build tinygo && sam3x

package main

import (
	"runtime/interrupt"

	"motionhal-go/hal"
	"motionhal-go/hal/chip/sam3x"
)

var irqs *hal.Registry

// Handler IDs must be constants for the interrupt table.
func attachIRQs(r *hal.Registry) {
	irqs = r
	for _, it := range []interrupt.Interrupt{
		interrupt.New(int(sam3x.IDUART), func(interrupt.Interrupt) { irqs.Dispatch(int(sam3x.IDUART)) }),
		interrupt.New(int(sam3x.IDUSART0), func(interrupt.Interrupt) { irqs.Dispatch(int(sam3x.IDUSART0)) }),
		interrupt.New(int(sam3x.IDUSART1), func(interrupt.Interrupt) { irqs.Dispatch(int(sam3x.IDUSART1)) }),
		interrupt.New(int(sam3x.IDADC), func(interrupt.Interrupt) { irqs.Dispatch(int(sam3x.IDADC)) }),
	} {
		it.Enable()
	}
	for _, irq := range r.IRQs() {
		switch irq {
		case int(sam3x.IDUART), int(sam3x.IDUSART0), int(sam3x.IDUSART1), int(sam3x.IDADC):
		default:
			println("irq", irq, "has a handler but no vector")
		}
	}
}
