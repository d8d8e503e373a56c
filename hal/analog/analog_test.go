package analog

import (
	"context"
	"testing"
	"time"

	"motionhal-go/errcode"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/physic"
)

// fixedHW converts instantly and returns a constant count. It has one gain
// and no offset, like a plain SAR converter.
type fixedHW struct {
	count   uint16
	gains   []uint8
	started int
	acks    int
}

func (f *fixedHW) Channels() int                  { return 4 }
func (f *fixedHW) MaxCount() uint16               { return 4095 }
func (f *fixedHW) Gains() []uint8                 { return f.gains }
func (f *fixedHW) HasOffset() bool                { return false }
func (f *fixedHW) Setup()                         {}
func (f *fixedHW) ConfigurePin(int) error         { return nil }
func (f *fixedHW) EnableChannel(int, bool)        {}
func (f *fixedHW) SetGain(int, uint8, bool) error { return nil }
func (f *fixedHW) SetInterrupts(int, Interrupt)   {}
func (f *fixedHW) Start()                         { f.started++ }
func (f *fixedHW) Done(int) bool                  { return true }
func (f *fixedHW) Read(int) uint16                { return f.count }
func (f *fixedHW) Acknowledge()                   { f.acks++ }

func TestCandidates_WidestFirst(t *testing.T) {
	got := candidates(3.3, []uint8{1, 2, 4}, true)
	want := []Window{
		{Gain: 1, Lo: 0, Hi: 3.3},
		{Gain: 2, Lo: 0, Hi: 1.65},
		{Gain: 2, Offset: true, Lo: 0.825, Hi: 2.475},
		{Gain: 4, Lo: 0, Hi: 0.825},
		{Gain: 4, Offset: true, Lo: 1.2375, Hi: 2.0625},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("windows (-want +got):\n%s", diff)
	}
}

func TestSingleGainConverter(t *testing.T) {
	hw := &fixedHW{count: 1024, gains: []uint8{1}}
	conv := NewConverter(hw)
	ch, err := conv.Channel(ChannelSpec{Number: 3})
	if err != nil {
		t.Fatal(err)
	}
	if err := ch.Init(Options{Offset: true}); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("offset on plain converter err=%v", err)
	}
	if err := ch.Init(Options{}); err != nil {
		t.Fatal(err)
	}
	// Below the ideal resolution, the only window that holds the range wins.
	if err := ch.SetVoltageRange(3300*physic.MilliVolt, physic.Volt, 1100*physic.MilliVolt, 1000); err != nil {
		t.Fatal(err)
	}
	if w := ch.Window(); w.Gain != 1 || w.Offset {
		t.Fatalf("window=%+v", w)
	}
	raw, err := ch.Sample(context.Background())
	if err != nil || raw != 1024 || hw.started != 1 {
		t.Fatalf("raw=%d err=%v starts=%d", raw, err, hw.started)
	}
	if ch.Bottom() > ch.Top() {
		t.Fatal("bottom above top")
	}
	conv.HandleIRQ()
	if hw.acks != 1 {
		t.Fatalf("acks=%d", hw.acks)
	}
	if err := ch.SetVoltageRange(3300*physic.MilliVolt, 2*physic.Volt, physic.Volt, 10); errcode.Of(err) != errcode.OutOfRange {
		t.Fatalf("inverted range err=%v", err)
	}
}

func TestHandleIRQ_LatchesWhileConfigLocked(t *testing.T) {
	hw := &fixedHW{count: 77, gains: []uint8{1}}
	conv := NewConverter(hw)
	ch, err := conv.Channel(ChannelSpec{Number: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := ch.Init(Options{Interrupts: IRQEndOfConversion}); err != nil {
		t.Fatal(err)
	}
	if err := ch.StartSampling(); err != nil {
		t.Fatal(err)
	}

	// The main loop may be inside Value when the interrupt fires.
	ch.mu.Lock()
	done := make(chan struct{})
	go func() {
		conv.HandleIRQ()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler blocked on the channel lock")
	}
	ch.mu.Unlock()

	if ch.State() != Idle {
		t.Fatalf("state=%s", ch.State())
	}
	if raw, err := ch.Raw(); err != nil || raw != 77 {
		t.Fatalf("raw=%d err=%v", raw, err)
	}
	if n := testing.AllocsPerRun(100, conv.HandleIRQ); n != 0 {
		t.Fatalf("handler allocates %v times", n)
	}
}

func TestCountToVolts_MonotonicOverFullScale(t *testing.T) {
	hw := &fixedHW{gains: []uint8{1, 2, 4}}
	ch, err := NewConverter(hw).Channel(ChannelSpec{Number: 0})
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range candidates(DefaultVref.volts(), hw.gains, true) {
		ch.win = w
		prev := ch.countToVolts(0)
		if got := ch.voltsToCount(prev); got != 0 {
			t.Fatalf("%+v: count 0 round-trips to %d", w, got)
		}
		for n := 1; n <= int(hw.MaxCount()); n++ {
			v := ch.countToVolts(uint16(n))
			if v <= prev {
				t.Fatalf("%+v: count %d gives %v, not above %v", w, n, v, prev)
			}
			if back := int(ch.voltsToCount(v)); back < n-1 || back > n+1 {
				t.Fatalf("%+v: count %d round-trips to %d", w, n, back)
			}
			prev = v
		}
	}
}

func TestClose_RefusesConversionInFlight(t *testing.T) {
	hw := &pendingHW{fixedHW: fixedHW{count: 9, gains: []uint8{1}}}
	ch, err := NewConverter(hw).Channel(ChannelSpec{Number: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := ch.Init(Options{}); err != nil {
		t.Fatal(err)
	}
	if err := ch.StartSampling(); err != nil {
		t.Fatal(err)
	}
	if err := ch.Close(); errcode.Of(err) != errcode.ChannelBusy {
		t.Fatalf("close while sampling err=%v", err)
	}
	if ch.State() != Sampling {
		t.Fatalf("state=%s", ch.State())
	}
	hw.done = true
	if err := ch.Close(); err != nil {
		t.Fatal(err)
	}
	if err := ch.Init(Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := ch.Raw(); errcode.Of(err) != errcode.NotReady {
		t.Fatalf("discarded conversion came back: err=%v", err)
	}
}

// pendingHW holds conversions until done is set.
type pendingHW struct {
	fixedHW
	done bool
}

func (p *pendingHW) Done(int) bool { return p.done }
