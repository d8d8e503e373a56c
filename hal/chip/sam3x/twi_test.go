package sam3x

import (
	"bytes"
	"errors"
	"testing"

	"motionhal-go/errcode"
	"motionhal-go/hal/eeprom"
)

func TestTWI_EEPROMRoundTrip(t *testing.T) {
	s := NewSim()
	mem := eeprom.NewFake(4096, 32)
	s.AttachI2C(TWI1, mem)

	bus := NewTWI(s, TWIs[TWI1])
	if err := bus.Configure(400_000); err != nil {
		t.Fatal(err)
	}
	if got := s.Peek(BaseTWI1 + twiCWGR); got != 101|101<<8 {
		t.Fatalf("CWGR=%#x", got)
	}

	dev := eeprom.New(bus, eeprom.Config{})
	data := bytes.Repeat([]byte{0xA5, 0x3C}, 20)
	if _, err := dev.WriteAt(data, 20); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(mem.Mem[20:60], data) {
		t.Fatalf("memory %x", mem.Mem[20:60])
	}
	got := make([]byte, len(data))
	if _, err := dev.ReadAt(got, 20); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("read %x", got)
	}
	one := make([]byte, 1)
	if _, err := dev.ReadAt(one, 21); err != nil || one[0] != 0x3C {
		t.Fatalf("single byte=%x err=%v", one, err)
	}
}

func TestTWI_NackAndLimits(t *testing.T) {
	s := NewSim()
	s.AttachI2C(TWI0, eeprom.NewFake(256, 16))
	bus := NewTWI(s, TWIs[TWI0])
	if err := bus.Configure(100_000); err != nil {
		t.Fatal(err)
	}
	err := bus.Tx(0x51, []byte{0, 0}, nil)
	if errcode.Of(err) != errcode.Busy || !errors.Is(err, ErrNack) {
		t.Fatalf("err=%v", err)
	}
	if err := bus.Tx(0x50, []byte{1, 2, 3, 4}, make([]byte, 1)); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("long iadr err=%v", err)
	}
	if err := bus.Configure(0); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("zero freq err=%v", err)
	}
}
