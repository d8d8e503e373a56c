package sam3x

import (
	"testing"

	"motionhal-go/errcode"
	"motionhal-go/hal/mmio"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
)

func TestLine_ConfigureOutput_LatchesLevelFirst(t *testing.T) {
	s := NewSim()
	l := NewLine(s, PC28)
	b := BasePIOC
	m := PC28.Mask()

	s.Trace()
	if err := l.ConfigureOutput(gpio.High); err != nil {
		t.Fatal(err)
	}
	want := []mmio.Access{{Addr: b + pioSODR, Value: m}, {Addr: b + pioOER, Value: m}, {Addr: b + pioPER, Value: m}}
	if diff := cmp.Diff(want, s.Stores()); diff != "" {
		t.Fatalf("store order (-want +got):\n%s", diff)
	}
	if !l.IsOutput() || l.Get() != gpio.High {
		t.Fatalf("output=%v level=%v", l.IsOutput(), l.Get())
	}
	l.Toggle()
	if l.OutputLevel() != gpio.Low {
		t.Fatal("toggle should drive low")
	}
}

func TestLine_Input_ReadsPadAndPull(t *testing.T) {
	s := NewSim()
	l := NewLine(s, PB26)
	if err := l.ConfigureInput(gpio.PullUp); err != nil {
		t.Fatal(err)
	}
	if s.Peek(BasePIOB+pioPUSR)&PB26.Mask() != 0 {
		t.Fatal("PUSR bit should read 0 with pull-up enabled")
	}
	if !(Common{Bus: s, ID: IDPIOB}).ClockEnabled() {
		t.Fatal("input port must be clocked")
	}
	s.DriveInput(PB26, true)
	if l.Get() != gpio.High {
		t.Fatal("expected high")
	}
	s.DriveInput(PB26, false)
	if l.Get() != gpio.Low {
		t.Fatal("expected low")
	}
	if err := l.ConfigureInput(gpio.PullDown); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("pull-down err=%v", err)
	}
}

func TestLine_Null_TouchesNothing(t *testing.T) {
	s := NewSim()
	l := NewLine(s, NoPin)
	s.Trace()
	_ = l.ConfigureOutput(gpio.High)
	l.Set(gpio.High)
	l.SetOptions(OptPullUp)
	l.SetPeripheral(PeriphB)
	if len(s.Stores()) != 0 || !l.IsNull() || l.Get() != gpio.Low {
		t.Fatalf("null line stored %v", s.Stores())
	}
}

func TestLine_SetPeripheralB(t *testing.T) {
	s := NewSim()
	l := NewLine(s, USART3TX)
	l.SetPeripheral(PeriphB)
	if s.Peek(BasePIOD+pioABSR)&USART3TX.Mask() == 0 {
		t.Fatal("ABSR bit not set")
	}
	l.SetPeripheral(PeriphA)
	if s.Peek(BasePIOD+pioABSR)&USART3TX.Mask() != 0 {
		t.Fatal("ABSR bit not cleared")
	}
}

func TestCommon_ClockGateAboveID31(t *testing.T) {
	s := NewSim()
	c := Common{Bus: s, ID: IDADC, Base: BaseADC}
	c.EnableClock()
	if s.Peek(BasePMC+pmcPCSR1) != 1<<(IDADC-32) || s.Peek(BasePMC+pmcPCSR0) != 0 {
		t.Fatalf("PCSR0=%#x PCSR1=%#x", s.Peek(BasePMC+pmcPCSR0), s.Peek(BasePMC+pmcPCSR1))
	}
	if !c.ClockEnabled() || c.IRQ() != 37 {
		t.Fatal("clock or irq mismatch")
	}
	c.DisableClock()
	if c.ClockEnabled() {
		t.Fatal("clock still enabled")
	}
}

func TestFuncs_ListsMuxAndAnalog(t *testing.T) {
	fs := Funcs(PA16)
	if len(fs) != 3 || fs[2] != "AD7" {
		t.Fatalf("PA16 funcs=%v", fs)
	}
	if p, ok := PeriphFor(USART3TX, "USART3_TX"); !ok || p != PeriphB {
		t.Fatalf("USART3_TX periph=%v ok=%v", p, ok)
	}
	if Funcs(NoPin) != nil {
		t.Fatal("null pin has no functions")
	}
}
