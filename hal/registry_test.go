package hal

import (
	"context"
	"errors"
	"testing"

	"motionhal-go/errcode"
	"motionhal-go/hal/line"
	"motionhal-go/hal/pins"
	"motionhal-go/hal/stepper"
	"motionhal-go/persistence"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func pad(port byte, bit uint8) pins.Physical { return pins.Physical{Port: pins.Port(port), Bit: bit} }

// testBoard wires two step/dir sockets on fake lines.
func testBoard(bank *line.FakeBank) Board {
	table := pins.NewTable("test", []pins.Entry{
		{Logical: 1, Name: "m1_step", Physical: pad('A', 0), Funcs: pins.GPIO},
		{Logical: 2, Name: "m1_dir", Physical: pad('A', 1), Funcs: pins.GPIO},
		{Logical: 3, Name: "m1_enable", Physical: pad('A', 2), Funcs: pins.GPIO},
		{Logical: 4, Name: "m2_step", Physical: pad('B', 0), Funcs: pins.GPIO},
		{Logical: 5, Name: "m2_dir", Physical: pad('B', 1), Funcs: pins.GPIO},
	})
	set := stepper.DefaultSettings()
	return Board{
		Name:     "test",
		Chip:     "fake",
		Pins:     table,
		Motors:   2,
		Settings: []stepper.Settings{set, set},
		Wire: func(r *Registry) error {
			for _, m := range [][]string{{"m1_step", "m1_dir", "m1_enable"}, {"m2_step", "m2_dir"}} {
				w := stepper.Wiring[line.Line]{Step: line.Null{}, Dir: line.Null{}, Enable: line.Null{}}
				var pads []pins.Physical
				for i, role := range m {
					e, _ := r.Pins().ByName(role)
					l := bank.Line(e.Physical)
					pads = append(pads, e.Physical)
					switch i {
					case 0:
						w.Step = l
					case 1:
						w.Dir = l
					case 2:
						w.Enable = l
					}
				}
				if err := r.AddMotor(stepper.NewStepDir(w, line.ActiveHigh, line.ActiveLow), pads...); err != nil {
					return err
				}
			}
			r.SetStore(persistence.NewNVM(persistence.NewMemory(64), 0, 8,
				persistence.WithMotionGuard(r.Moving)))
			return nil
		},
	}
}

func TestBoardStepperInit_LeavesAllDisabled(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var bank line.FakeBank
	r, err := New(testBoard(&bank), WithLogger(zap.New(core).Sugar()))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.EnableMotor(0); errcode.Of(err) != errcode.Interlock {
		t.Fatalf("enable before init err=%v", err)
	}
	if err := r.BoardStepperInit(); err != nil {
		t.Fatal(err)
	}
	for i, m := range r.Motors() {
		if m.Enabled() {
			t.Fatalf("motor %d enabled after init", i+1)
		}
	}
	if got := bank.Line(pad('A', 2)).Get(); got != line.ActiveLow.Inactive() {
		t.Fatalf("m1 enable=%v", got)
	}
	if n := logs.FilterMessage("motor initialised").Len(); n != 2 {
		t.Fatalf("logged %d motor inits", n)
	}
	if logs.FilterMessage("motors initialised").Len() != 1 {
		t.Fatal("missing summary log")
	}

	if err := r.EnableMotor(1); err != nil {
		t.Fatal(err)
	}
	if !r.Moving() {
		t.Fatal("enabled motor should count as moving")
	}
	err = r.WritePersistentValue(context.Background(), persistence.Entry{Index: 0, Value: 1})
	if errcode.Of(err) != errcode.Busy {
		t.Fatalf("write while moving err=%v", err)
	}
	r.DisableAll()
	if err := r.WritePersistentValue(context.Background(), persistence.Entry{Index: 0, Value: 1}); err != nil {
		t.Fatal(err)
	}
	if err := r.EnableMotor(2); errcode.Of(err) != errcode.OutOfRange {
		t.Fatalf("socket 3 err=%v", err)
	}
}

func TestBoardStepperInit_AggregatesFailures(t *testing.T) {
	var bank line.FakeBank
	r, err := New(testBoard(&bank))
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("stuck")
	bank.Line(pad('A', 0)).FailConfigure(boom)
	bank.Line(pad('B', 1)).FailConfigure(boom)

	err = r.BoardStepperInit()
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	if r.Initialised() {
		t.Fatal("failed init must keep the interlock closed")
	}
	if err := r.EnableMotor(0); errcode.Of(err) != errcode.Interlock {
		t.Fatalf("err=%v", err)
	}
}

func TestClaims(t *testing.T) {
	var bank line.FakeBank
	r, err := New(testBoard(&bank))
	if err != nil {
		t.Fatal(err)
	}
	if owner, _ := r.PinOwner(pad('B', 0)); owner != "motor2" {
		t.Fatalf("owner=%q", owner)
	}
	if err := r.ClaimPins("spindle", pad('A', 1)); errcode.Of(err) != errcode.PinInUse {
		t.Fatalf("err=%v", err)
	}
	if err := r.ClaimPins("nc", pins.Physical{}, pins.Physical{}); err != nil {
		t.Fatalf("unwired pads must not collide: %v", err)
	}
	if _, err := r.ClaimRoles("x", "nope"); errcode.Of(err) != errcode.UnknownPin {
		t.Fatalf("err=%v", err)
	}
	if err := r.ClaimPeripheral("host", "USART0"); err != nil {
		t.Fatal(err)
	}
	if err := r.ClaimPeripheral("aux", "USART0"); errcode.Of(err) != errcode.PeripheralInUse {
		t.Fatalf("err=%v", err)
	}

	hits := 0
	if err := r.Handle(17, func() { hits++ }); err != nil {
		t.Fatal(err)
	}
	if err := r.Handle(17, func() {}); errcode.Of(err) != errcode.PeripheralInUse {
		t.Fatalf("err=%v", err)
	}
	if !r.Dispatch(17) || r.Dispatch(18) || hits != 1 {
		t.Fatalf("hits=%d", hits)
	}
}

func TestNew_RejectsMiswiredBoards(t *testing.T) {
	var bank line.FakeBank
	b := testBoard(&bank)
	b.Motors = 3
	b.Settings = append(b.Settings, stepper.DefaultSettings())
	if _, err := New(b); errcode.Of(err) != errcode.BoardNotConfigured {
		t.Fatalf("err=%v", err)
	}

	b = testBoard(&bank)
	b.Pins = pins.NewTable("dup", []pins.Entry{
		{Logical: 1, Name: "a", Physical: pad('A', 0)},
		{Logical: 2, Name: "b", Physical: pad('A', 0)},
	})
	if _, err := New(b); errcode.Of(err) != errcode.PinInUse {
		t.Fatalf("err=%v", err)
	}
}

func TestBoardCatalogue(t *testing.T) {
	var bank line.FakeBank
	b := testBoard(&bank)
	b.Name = "catalogue-test"
	RegisterBoard(b)
	if got, ok := LookupBoard("catalogue-test"); !ok || got.Motors != 2 {
		t.Fatal("lookup failed")
	}
	defer func() {
		if recover() == nil {
			t.Fatal("duplicate registration should panic")
		}
	}()
	RegisterBoard(b)
}
