package mmio

import "testing"

func TestRegBitOps(t *testing.T) {
	s := NewSim()
	r := Reg{Bus: s, Addr: 0x1000}
	r.Set(0xF0)
	r.SetBits(0x01)
	r.ClearBits(0x10)
	if got := r.Get(); got != 0xE1 {
		t.Fatalf("got %#x want 0xe1", got)
	}
	r.ReplaceBits(0x5<<8, 0xF<<8)
	if got := r.Get(); got != 0x5E1 {
		t.Fatalf("got %#x want 0x5e1", got)
	}
	if !r.HasBits(0x501) || r.HasBits(0x2) {
		t.Fatal("HasBits mismatch")
	}
}

func TestSimHooks(t *testing.T) {
	s := NewSim()
	const set, data = 0x30, 0x38
	s.OnStore(set, func(s *Sim, _ uintptr, v uint32) (uint32, bool) {
		s.Modify(data, func(d uint32) uint32 { return d | v })
		return 0, false
	})
	s.OnLoad(0x40, func(s *Sim, _ uintptr, _ uint32) uint32 { return s.Peek(data) << 1 })

	var raised int
	s.AfterStore(func(*Sim) { raised++ })

	s.Trace()
	s.Store(set, 0x3)
	if s.Peek(set) != 0 {
		t.Fatal("write-only register should not keep its value")
	}
	if s.Load(data) != 0x3 || s.Load(0x40) != 0x6 {
		t.Fatalf("data=%#x derived=%#x", s.Load(data), s.Load(0x40))
	}
	if raised != 1 {
		t.Fatalf("after hooks ran %d times", raised)
	}
	if st := s.Stores(); len(st) != 1 || st[0] != (Access{set, 0x3}) {
		t.Fatalf("trace=%v", st)
	}
}
