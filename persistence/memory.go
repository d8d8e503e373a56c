package persistence

import (
	"sync"

	"motionhal-go/errcode"
)

// Memory is a RAM-backed Backend for boards without a storage part and for
// tests. It starts erased (0xFF).
type Memory struct {
	mu   sync.Mutex
	buf  []byte
	fail error
}

func NewMemory(size int) *Memory {
	m := &Memory{buf: make([]byte, size)}
	for i := range m.buf {
		m.buf[i] = 0xFF
	}
	return m
}

func (m *Memory) bounds(n int, off int64) error {
	if m.fail != nil {
		return m.fail
	}
	if off < 0 || off+int64(n) > int64(len(m.buf)) {
		return errcode.New(errcode.OutOfRange, "memory", "beyond backing size")
	}
	return nil
}

func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.bounds(len(p), off); err != nil {
		return 0, err
	}
	return copy(p, m.buf[off:]), nil
}

func (m *Memory) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.bounds(len(p), off); err != nil {
		return 0, err
	}
	return copy(m.buf[off:], p), nil
}

// Fail makes every access return err until called with nil.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}
