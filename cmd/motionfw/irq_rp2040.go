//go:build tinygo && rp2040

package main

import "motionhal-go/hal"

// uartx and the ADC driver raise their handlers in software on this chip.
func attachIRQs(*hal.Registry) {}
