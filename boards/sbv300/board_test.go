package sbv300

import (
	"context"
	"testing"

	"motionhal-go/boards/internal/sam3xwire"
	"motionhal-go/errcode"
	"motionhal-go/hal"
	"motionhal-go/hal/analog"
	"motionhal-go/hal/chip/sam3x"
	"motionhal-go/hal/pins"
	"motionhal-go/hal/stepper"
	"motionhal-go/persistence"

	"periph.io/x/conn/v3/gpio"
)

func newBoard(t *testing.T) (*sam3x.Sim, *hal.Registry) {
	t.Helper()
	sim := sam3x.NewSim()
	r, err := hal.New(Board, hal.WithBus(sim))
	if err != nil {
		t.Fatal(err)
	}
	sim.AttachAll(r)
	return sim, r
}

func TestBoard_Registered(t *testing.T) {
	b, ok := hal.LookupBoard(Name)
	if !ok {
		t.Fatal("sbv300 not in catalogue")
	}
	if b.Motors != 6 || len(b.Settings) != 6 {
		t.Fatalf("motors=%d settings=%d", b.Motors, len(b.Settings))
	}
}

func TestPins_ResolveAndValidate(t *testing.T) {
	tbl := Board.Pins
	if err := tbl.Validate(); err != nil {
		t.Fatal(err)
	}
	for l, want := range map[pins.Logical]sam3x.Pin{
		Socket1Step: sam3x.PC28,
		Socket6Dir:  sam3x.PB0,
		Input12:     sam3x.PA17,
		ADC3:        sam3x.PB12,
		LaserFire:   sam3x.PA12,
		HostTX:      sam3x.USART0TX,
	} {
		e, ok := tbl.Resolve(l)
		if !ok {
			t.Fatalf("logical %d unresolved", l)
		}
		if sam3x.PinOf(e.Physical) != want {
			t.Fatalf("%s on %s want %s", e.Name, e.Physical, want)
		}
	}
	out15, _ := tbl.ByName("output15")
	fire, _ := tbl.ByName("laser_fire")
	if !out15.Shared || !fire.Shared || out15.Physical != fire.Physical {
		t.Fatal("laser_fire should share output15's pad")
	}
	if _, ok := tbl.ByName("adc5"); ok {
		t.Fatal("unexpected adc5")
	}
}

func TestSockets_EveryMotorIsWired(t *testing.T) {
	for i, s := range Sockets {
		for _, role := range []string{s.Step, s.Dir} {
			if _, ok := Board.Pins.ByName(role); !ok {
				t.Fatalf("socket %d role %q not in the pin table", i+1, role)
			}
		}
	}
	_, r := newBoard(t)
	if err := sam3xwire.StepDir(r, sam3xwire.Socket{}, Settings[0]); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("empty socket err=%v", err)
	}
	if n := len(r.Motors()); n != Motors {
		t.Fatalf("motors=%d", n)
	}
}

func TestBoardStepperInit_SixMotorsDisabled(t *testing.T) {
	sim, r := newBoard(t)
	if err := r.BoardStepperInit(); err != nil {
		t.Fatal(err)
	}
	ms := r.Motors()
	if len(ms) != Motors {
		t.Fatalf("motors=%d", len(ms))
	}
	for i, m := range ms {
		if m.Enabled() || m.State() != stepper.Off {
			t.Fatalf("motor %d state %s", i+1, m.State())
		}
	}
	for i, s := range Sockets {
		if HasLaser && i == Motors-1 {
			continue
		}
		e, _ := Board.Pins.ByName(s.Step)
		l := sam3x.NewLine(sim, sam3x.PinOf(e.Physical))
		if !l.IsOutput() || l.OutputLevel() != gpio.Low {
			t.Fatalf("socket %d step not idle low output", i+1)
		}
		if owner, _ := r.PinOwner(e.Physical); owner == "" {
			t.Fatalf("socket %d step unclaimed", i+1)
		}
	}
	if !r.Initialised() {
		t.Fatal("registry should be armed")
	}
	if err := r.EnableMotor(0); err != nil {
		t.Fatal(err)
	}
	if !ms[0].Enabled() {
		t.Fatal("motor 1 should be enabled")
	}
	r.DisableAll()
	if ms[0].Enabled() {
		t.Fatal("DisableAll left motor 1 enabled")
	}
}

func TestBoard_ClaimsBlocks(t *testing.T) {
	_, r := newBoard(t)
	if err := r.ClaimPeripheral("other", "USART0"); errcode.Of(err) != errcode.PeripheralInUse {
		t.Fatalf("USART0 claim err=%v", err)
	}
	if err := r.ClaimPeripheral("other", "ADC"); errcode.Of(err) != errcode.PeripheralInUse {
		t.Fatalf("ADC claim err=%v", err)
	}
	if owner, _ := r.PinOwner(sam3x.USART0RX.Physical()); owner != "host" {
		t.Fatalf("PA10 owner %q", owner)
	}
	if owner, _ := r.PinOwner(sam3x.PB12.Physical()); owner != "adc3" {
		t.Fatalf("PB12 owner %q", owner)
	}
}

func TestHostSerial_Writes(t *testing.T) {
	sim, r := newBoard(t)
	p, ok := r.Serial("host")
	if !ok {
		t.Fatal("no host port")
	}
	if err := p.Init(HostBaud); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Write([]byte("ok\n")); err != nil {
		t.Fatal(err)
	}
	if err := p.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := string(sim.Transmitted(sam3x.USART0)); got != "ok\n" {
		t.Fatalf("sent %q", got)
	}
}

func TestAnalogInputs_Sample(t *testing.T) {
	sim, r := newBoard(t)
	if got := r.AnalogNames(); len(got) != len(AnalogInputs) {
		t.Fatalf("analog=%v", got)
	}
	ch, _ := r.Analog("adc1")
	if ch.Spec().Number != sam3x.AD7 {
		t.Fatalf("adc1 on AD%d", ch.Spec().Number)
	}
	if err := ch.Init(analog.Options{}); err != nil {
		t.Fatal(err)
	}
	sim.SetAnalog(sam3x.AD7, 3.3)
	raw, err := ch.Sample(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if raw != 4095 {
		t.Fatalf("raw=%d", raw)
	}
}

func TestPersistence_HeldOffWhileMoving(t *testing.T) {
	_, r := newBoard(t)
	ctx := context.Background()
	if err := r.BoardStepperInit(); err != nil {
		t.Fatal(err)
	}
	if err := r.WritePersistentValue(ctx, persistence.Entry{Index: 3, Value: 12.5}); err != nil {
		t.Fatal(err)
	}
	e := persistence.Entry{Index: 3}
	if err := r.ReadPersistentValue(ctx, &e); err != nil || e.Value != 12.5 {
		t.Fatalf("read %v err=%v", e.Value, err)
	}
	if err := r.EnableMotor(1); err != nil {
		t.Fatal(err)
	}
	err := r.WritePersistentValue(ctx, persistence.Entry{Index: 3, Value: 1})
	if errcode.Of(err) != errcode.Busy {
		t.Fatalf("write while moving err=%v", err)
	}
	if err := r.WritePersistentValue(ctx, persistence.Entry{Index: StoreCount, Value: 1}); err == nil {
		t.Fatal("index past the store should fail")
	}
}
