//go:build tinygo && cortexm

package mmio

import (
	"runtime/volatile"
	"unsafe"
)

// Volatile is the on-target bus.
type Volatile struct{}

func (Volatile) Load(addr uintptr) uint32 {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(addr)))
}

func (Volatile) Store(addr uintptr, v uint32) {
	volatile.StoreUint32((*uint32)(unsafe.Pointer(addr)), v)
}
