//go:build tinygo && sbv300

package main

import (
	"motionhal-go/boards/sbv300"
	"motionhal-go/hal"
	"motionhal-go/hal/mmio"
)

var board = sbv300.Board

const hostBaud = sbv300.HostBaud

func options() []hal.Option { return []hal.Option{hal.WithBus(mmio.Volatile{})} }
