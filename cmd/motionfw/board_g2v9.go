//go:build tinygo && g2v9

package main

import (
	"motionhal-go/boards/g2v9"
	"motionhal-go/hal"
	"motionhal-go/hal/mmio"
)

var board = g2v9.Board

const hostBaud = g2v9.HostBaud

func options() []hal.Option { return []hal.Option{hal.WithBus(mmio.Volatile{})} }
