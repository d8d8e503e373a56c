package status

import (
	"context"
	"strings"
	"testing"

	"motionhal-go/boards/sbv300"
	"motionhal-go/hal"
	"motionhal-go/hal/analog"
	"motionhal-go/hal/chip/sam3x"
	"motionhal-go/persistence"
)

func TestAppend_Sbv300(t *testing.T) {
	sim := sam3x.NewSim()
	r, err := hal.New(sbv300.Board, hal.WithBus(sim))
	if err != nil {
		t.Fatal(err)
	}
	sim.AttachAll(r)

	got := string(Append(nil, r))
	want := "sbv300 armed=0 m1=off m2=off m3=off m4=off m5=off m6=off adc1=- adc2=- adc3=- adc4=- nvm=0\n"
	if got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}

	if err := r.BoardStepperInit(); err != nil {
		t.Fatal(err)
	}
	ch, _ := r.Analog("adc1")
	if err := ch.Init(analog.Options{}); err != nil {
		t.Fatal(err)
	}
	sim.SetAnalog(sam3x.AD7, 3.3)
	if _, err := ch.Sample(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := r.WritePersistentValue(context.Background(), persistence.Entry{Index: 0, Value: 2}); err != nil {
		t.Fatal(err)
	}

	got = string(Append([]byte("> "), r))
	for _, part := range []string{"> sbv300 armed=1 ", " adc1=3.300V ", " adc2=- ", " nvm=1\n"} {
		if !strings.Contains(got, part) {
			t.Errorf("%q lacks %q", got, part)
		}
	}
}
