package mmio

import (
	"sync"
	"sync/atomic"
)

// StoreHook intercepts a store. It receives the value written and returns the
// value to keep in the backing cell, and whether to keep it at all.
type StoreHook func(s *Sim, addr uintptr, v uint32) (keep uint32, ok bool)

// LoadHook computes the value returned by a load.
type LoadHook func(s *Sim, addr uintptr, cur uint32) uint32

// Sim is a host register file. Chip packages install hooks that model
// set/clear registers, status flags and side effects.
type Sim struct {
	mu     sync.Mutex
	cells  map[uintptr]uint32
	stores map[uintptr]StoreHook
	loads  map[uintptr]LoadHook
	log    []Access
	trace  bool
	after  []func(*Sim)
	depth  atomic.Int32
}

// Access is one traced store.
type Access struct {
	Addr  uintptr
	Value uint32
}

func NewSim() *Sim {
	return &Sim{
		cells:  map[uintptr]uint32{},
		stores: map[uintptr]StoreHook{},
		loads:  map[uintptr]LoadHook{},
	}
}

func (s *Sim) OnStore(addr uintptr, h StoreHook) { s.stores[addr] = h }
func (s *Sim) OnLoad(addr uintptr, h LoadHook)   { s.loads[addr] = h }

// AfterStore registers fn to run after every top-level store, outside the
// register lock. Used to raise simulated interrupts.
func (s *Sim) AfterStore(fn func(*Sim)) { s.after = append(s.after, fn) }

// Trace starts recording stores.
func (s *Sim) Trace() {
	s.mu.Lock()
	s.trace = true
	s.log = s.log[:0]
	s.mu.Unlock()
}

// Stores returns the stores recorded since Trace.
func (s *Sim) Stores() []Access {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Access(nil), s.log...)
}

func (s *Sim) Load(addr uintptr) uint32 {
	s.mu.Lock()
	v := s.cells[addr]
	h := s.loads[addr]
	s.mu.Unlock()
	if h != nil {
		v = h(s, addr, v)
	}
	return v
}

func (s *Sim) Store(addr uintptr, v uint32) {
	s.mu.Lock()
	if s.trace {
		s.log = append(s.log, Access{addr, v})
	}
	h := s.stores[addr]
	s.mu.Unlock()

	keep, ok := v, true
	if h != nil {
		keep, ok = h(s, addr, v)
	}
	if ok {
		s.Poke(addr, keep)
	}

	if s.depth.Add(1) == 1 {
		for _, fn := range s.after {
			fn(s)
		}
	}
	s.depth.Add(-1)
}

// Peek reads a cell without hooks.
func (s *Sim) Peek(addr uintptr) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cells[addr]
}

// Poke writes a cell without hooks or tracing.
func (s *Sim) Poke(addr uintptr, v uint32) {
	s.mu.Lock()
	s.cells[addr] = v
	s.mu.Unlock()
}

// Modify applies fn to a cell atomically, without hooks.
func (s *Sim) Modify(addr uintptr, fn func(uint32) uint32) {
	s.mu.Lock()
	s.cells[addr] = fn(s.cells[addr])
	s.mu.Unlock()
}
