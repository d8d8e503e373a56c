//go:build tinygo && picocnc

package main

import (
	"motionhal-go/boards/picocnc"
	"motionhal-go/hal"
	"motionhal-go/hal/chip/rp2"
)

var board = picocnc.Board

const hostBaud = picocnc.HostBaud

func options() []hal.Option { return []hal.Option{hal.WithChip(rp2.NewMachine())} }
