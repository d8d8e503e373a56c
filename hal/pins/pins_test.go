package pins

import (
	"testing"

	"motionhal-go/errcode"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"
)

var (
	txFunc = Func("USART", 0, "TX")
	ad7    = Func("AD", 7, "")
)

func sampleRoles() []Role {
	roles := make([]Role, 8)
	roles[1] = Role{Logical: 12, Name: "socket1.step"}
	roles[3] = Role{Logical: 1, Name: "serial.tx"}
	roles[6] = Role{Logical: 54, Name: "adc.vin", Aliases: []Alias{{Logical: 55, Name: "adc.vin.debug"}}}
	return roles
}

func samplePhys(i int) (Physical, []pin.Func) {
	funcs := append([]pin.Func(nil), GPIO...)
	switch i {
	case 3:
		funcs = append(funcs, txFunc)
	case 6:
		funcs = append(funcs, ad7)
	}
	return Physical{Port: 'A', Bit: uint8(i)}, funcs
}

func TestFuncNames(t *testing.T) {
	if txFunc != "USART0_TX" || ad7 != "AD7" || Func("UART", -1, "RX") != "UART_RX" {
		t.Fatalf("names: %q %q", txFunc, ad7)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	tbl := NewTable("demo", Collect(sampleRoles(), samplePhys))
	if err := tbl.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	for i := 0; i < 3; i++ {
		e, ok := tbl.Resolve(12)
		if !ok || e.Physical != (Physical{'A', 1}) || e.Name != "socket1.step" {
			t.Fatalf("resolve 12 -> %+v %v", e, ok)
		}
	}
	if _, ok := tbl.Resolve(99); ok {
		t.Fatal("unknown logical resolved")
	}
	if _, err := tbl.Physical(99); errcode.Of(err) != errcode.UnknownPin {
		t.Fatalf("Physical(99) err=%v", err)
	}
	if e, ok := tbl.ByName("serial.tx"); !ok || e.Logical != 1 {
		t.Fatalf("ByName -> %+v %v", e, ok)
	}
}

func TestServing(t *testing.T) {
	tbl := NewTable("demo", Collect(sampleRoles(), samplePhys))
	if diff := cmp.Diff([]Logical{1}, tbl.Serving(txFunc)); diff != "" {
		t.Fatalf("serving tx (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Logical{54, 55}, tbl.Serving(ad7)); diff != "" {
		t.Fatalf("serving ad7 (-want +got):\n%s", diff)
	}
	if got := len(tbl.Serving(gpio.OUT)); got != 4 {
		t.Fatalf("gpio out serving %d entries", got)
	}
}

func TestValidateRejectsCollisions(t *testing.T) {
	cases := map[string][]Entry{
		"logical": {
			{Logical: 1, Name: "a", Physical: Physical{'A', 1}},
			{Logical: 1, Name: "b", Physical: Physical{'A', 2}},
		},
		"physical": {
			{Logical: 1, Name: "a", Physical: Physical{'B', 3}},
			{Logical: 2, Name: "b", Physical: Physical{'B', 3}},
		},
		"name": {
			{Logical: 1, Name: "a", Physical: Physical{'A', 1}},
			{Logical: 2, Name: "a", Physical: Physical{'A', 2}},
		},
	}
	for name, es := range cases {
		if err := NewTable("bad", es).Validate(); errcode.Of(err) != errcode.PinInUse {
			t.Errorf("%s: err=%v", name, err)
		}
	}
}

func TestPhysicalString(t *testing.T) {
	if s := (Physical{'C', 28}).String(); s != "PC28" {
		t.Fatalf("got %q", s)
	}
	if s := (Physical{Bankless, 5}).String(); s != "GP5" {
		t.Fatalf("got %q", s)
	}
	if s := (Physical{}).String(); s != "NC" {
		t.Fatalf("got %q", s)
	}
}
