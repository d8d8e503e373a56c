//go:build tinygo

// Command motionfw is the controller firmware. Exactly one board tag
// (sbv300, g2v9 or picocnc) selects the wiring.
package main

import (
	"time"

	"motionhal-go/hal"
	"motionhal-go/hal/serial"
	"motionhal-go/internal/status"
)

const (
	checkPeriod  = 100 * time.Millisecond
	reportPeriod = 1 * time.Second
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot", board.Name, board.Chip)

	r, err := hal.New(board, options()...)
	if err != nil {
		fail("wire", err)
	}
	attachIRQs(r)

	if err := r.BoardStepperInit(); err != nil {
		fail("stepper init", err)
	}
	println("motors", len(r.Motors()), "disabled")

	host, ok := r.Serial("host")
	if !ok {
		fail("serial", nil)
	}
	if err := host.Init(hostBaud); err != nil {
		fail("host serial", err)
	}
	println("host", host.ActualBaud(), "baud")
	if host.BaudError() > serial.MaxBaudError {
		println("warn: host baud error", int(host.BaudError()*1000), "permille")
	}

	buf := make([]byte, 0, 160)
	tick := time.NewTicker(checkPeriod)
	defer tick.Stop()

	next := time.Now().Add(reportPeriod)
	for now := range tick.C {
		for _, m := range r.Motors() {
			m.PeriodicCheck()
		}
		if now.Before(next) {
			continue
		}
		next = now.Add(reportPeriod)
		buf = status.Append(buf[:0], r)
		if _, err := host.Submit(buf); err != nil {
			println("status dropped:", err.Error())
		}
	}
}

// fail reports the failed stage and parks.
func fail(stage string, err error) {
	msg := "unknown"
	if err != nil {
		msg = err.Error()
	}
	println("FATAL", stage+":", msg)
	for {
		time.Sleep(time.Second)
	}
}
