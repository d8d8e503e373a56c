package picocnc

import (
	"context"
	"testing"

	"motionhal-go/errcode"
	"motionhal-go/hal"
	"motionhal-go/hal/analog"
	"motionhal-go/hal/chip/rp2"
	"motionhal-go/hal/eeprom"
	"motionhal-go/persistence"

	"periph.io/x/conn/v3/gpio"
)

func newBoard(t *testing.T) (*rp2.Sim, *hal.Registry) {
	t.Helper()
	sim := rp2.NewSim()
	r, err := hal.New(Board, hal.WithChip(sim))
	if err != nil {
		t.Fatal(err)
	}
	return sim, r
}

func TestWire_NeedsChip(t *testing.T) {
	_, err := hal.New(Board)
	if errcode.Of(err) != errcode.BoardNotConfigured {
		t.Fatalf("err=%v", err)
	}
}

func TestPins_Table(t *testing.T) {
	if err := Board.Pins.Validate(); err != nil {
		t.Fatal(err)
	}
	e, ok := Board.Pins.Resolve(Socket4Dir)
	if !ok || rp2.PinOf(e.Physical) != rp2.GP12 {
		t.Fatalf("socket4_dir on %v", e.Physical)
	}
	// GP12 can carry UART0 TX, but the board uses it as a direction line.
	if !e.Supports("UART0_TX") {
		t.Fatal("GP12 should list UART0_TX")
	}
}

func TestBoardStepperInit_EnablesStayHigh(t *testing.T) {
	sim, r := newBoard(t)
	if err := r.BoardStepperInit(); err != nil {
		t.Fatal(err)
	}
	for i, s := range Sockets {
		e, _ := Board.Pins.ByName(s.Enable)
		drives, lvl := sim.Output(rp2.PinOf(e.Physical))
		if !drives || lvl != gpio.High {
			t.Fatalf("socket %d enable drives=%v level=%v", i+1, drives, lvl)
		}
	}
	if owner, _ := r.PinOwner(rp2.GP12.Physical()); owner != "motor4" {
		t.Fatalf("GP12 owner %q", owner)
	}
	if err := r.EnableMotor(3); err != nil {
		t.Fatal(err)
	}
	if _, lvl := sim.Output(rp2.GP13); lvl != gpio.Low {
		t.Fatal("socket 4 enable should be low once enabled")
	}
}

func TestHostSerial(t *testing.T) {
	sim, r := newBoard(t)
	p, _ := r.Serial("host")
	if err := p.Init(HostBaud); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Write([]byte("ok\n")); err != nil {
		t.Fatal(err)
	}
	if got := string(sim.Transmitted(0)); got != "ok\n" {
		t.Fatalf("sent %q", got)
	}
	if !r.Dispatch(rp2.IRQUART0) {
		t.Fatal("UART0 interrupt not routed")
	}
}

func TestAnalog(t *testing.T) {
	sim, r := newBoard(t)
	ch, ok := r.Analog("adc2")
	if !ok {
		t.Fatal("no adc2")
	}
	if err := ch.Init(analog.Options{}); err != nil {
		t.Fatal(err)
	}
	sim.SetAnalog(2, 0)
	raw, err := ch.Sample(context.Background())
	if err != nil || raw != 0 {
		t.Fatalf("raw=%d err=%v", raw, err)
	}
}

func TestPersistence_EEPROM(t *testing.T) {
	sim, r := newBoard(t)
	dev := eeprom.NewFake(eeprom.DefaultSize, eeprom.DefaultPageSize)
	sim.AttachI2C(0, dev)
	if sim.I2CHz(0) != EEPROMHz {
		t.Fatalf("bus at %d Hz", sim.I2CHz(0))
	}
	ctx := context.Background()
	if err := r.WritePersistentValue(ctx, persistence.Entry{Index: StoreCount - 1, Value: 0.125}); err != nil {
		t.Fatal(err)
	}
	e := persistence.Entry{Index: StoreCount - 1}
	if err := r.ReadPersistentValue(ctx, &e); err != nil || e.Value != 0.125 {
		t.Fatalf("read %v err=%v", e.Value, err)
	}
	if err := r.WritePersistentValue(ctx, persistence.Entry{Index: StoreCount}); errcode.Of(err) != errcode.OutOfRange {
		t.Fatalf("err=%v", err)
	}
}
