package line

import (
	"testing"

	"motionhal-go/hal/pins"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
)

func TestPolarityLevels(t *testing.T) {
	if ActiveHigh.Active() != gpio.High || ActiveHigh.Inactive() != gpio.Low {
		t.Fatal("active-high levels")
	}
	if ActiveLow.Active() != gpio.Low || ActiveLow.Inactive() != gpio.High {
		t.Fatal("active-low levels")
	}
}

func TestParsePolarity(t *testing.T) {
	for _, p := range []Polarity{ActiveHigh, ActiveLow} {
		got, ok := ParsePolarity(p.String())
		if !ok || got != p {
			t.Fatalf("%s parsed as %s", p, got)
		}
	}
	if _, ok := ParsePolarity("low"); ok {
		t.Fatal("short name accepted")
	}
}

func TestAssertDeassert(t *testing.T) {
	f := NewFake(pins.Physical{Port: 'A', Bit: 22})
	if err := f.ConfigureOutput(ActiveLow.Inactive()); err != nil {
		t.Fatal(err)
	}
	Assert(f, ActiveLow)
	if !Asserted(f, ActiveLow) {
		t.Fatal("expected asserted")
	}
	Deassert(f, ActiveLow)
	want := []gpio.Level{gpio.High, gpio.Low, gpio.High}
	if diff := cmp.Diff(want, f.History()); diff != "" {
		t.Fatalf("history (-want +got):\n%s", diff)
	}
}

func TestNullIgnoresWrites(t *testing.T) {
	var n Line = Null{}
	n.Set(gpio.High)
	if n.Get() != gpio.Low || !n.IsNull() {
		t.Fatal("null line should read low and report null")
	}
	if err := WriteFraction(n, 1); err != nil {
		t.Fatal(err)
	}
}

func TestWriteFraction(t *testing.T) {
	f := NewFake(pins.Physical{Port: 'B', Bit: 17})
	if err := WriteFraction(f, 0.25); err != nil {
		t.Fatal(err)
	}
	if f.Fraction() != 0.25 {
		t.Fatalf("fraction=%v", f.Fraction())
	}

	d := digitalOnly{Fake: NewFake(pins.Physical{Port: 'B', Bit: 18})}
	_ = WriteFraction(d, 0.7)
	if d.Get() != gpio.High {
		t.Fatal("digital fallback should go high at 0.7")
	}
	_ = WriteFraction(d, 0.2)
	if d.Get() != gpio.Low {
		t.Fatal("digital fallback should go low at 0.2")
	}
}

// digitalOnly hides SetFraction.
type digitalOnly struct{ *Fake }

func (digitalOnly) SetFraction() {}

func TestFakeBankStable(t *testing.T) {
	var b FakeBank
	p := pins.Physical{Port: 'C', Bit: 28}
	if b.Line(p) != b.Line(p) {
		t.Fatal("bank should return the same line per pad")
	}
}
