package shmring

import "sync/atomic"

// Ring is a single-producer, single-consumer byte ring shared between the
// main context and an interrupt handler. Indices are monotonic; the buffer
// length is a power of two.
type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index
	wr   atomic.Uint32 // producer index

	readable chan struct{} // 0 -> >0 available edge
	writable chan struct{} // full -> not full edge
}

// New allocates a ring of size bytes. size must be a power of two >= 2.
func New(size int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("shmring: size must be power of two >= 2")
	}
	return &Ring{
		buf:      make([]byte, size),
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
		writable: make(chan struct{}, 1),
	}
}

func (r *Ring) size() uint32 { return uint32(len(r.buf)) }

func (r *Ring) Cap() int { return len(r.buf) }

func (r *Ring) Space() int {
	return int(r.size() - (r.wr.Load() - r.rd.Load()))
}

func (r *Ring) Available() int {
	return int(r.wr.Load() - r.rd.Load())
}

// Producer side

// TryWriteFrom copies as much of src as fits and returns the count.
func (r *Ring) TryWriteFrom(src []byte) (n int) {
	if len(src) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load()
	before := wr - rd
	space := int(r.size() - before)
	if space <= 0 {
		return 0
	}
	n = min(len(src), space)

	wrIdx := wr & r.mask
	first := min(int(r.size()-wrIdx), n)
	copy(r.buf[wrIdx:wrIdx+uint32(first)], src[:first])
	if second := n - first; second > 0 {
		copy(r.buf[:second], src[first:n])
	}
	r.wr.Store(wr + uint32(n)) // release

	if before == 0 {
		notify(r.readable)
	}
	return n
}

// Consumer side

// TryReadInto copies up to len(dst) queued bytes and returns the count.
func (r *Ring) TryReadInto(dst []byte) (n int) {
	if len(dst) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load() // acquire
	avail := int(wr - rd)
	if avail <= 0 {
		return 0
	}
	n = min(len(dst), avail)

	rdIdx := rd & r.mask
	first := min(int(r.size()-rdIdx), n)
	copy(dst[:first], r.buf[rdIdx:rdIdx+uint32(first)])
	if second := n - first; second > 0 {
		copy(dst[first:n], r.buf[:second])
	}
	r.rd.Store(rd + uint32(n)) // release

	if wr-rd == r.size() {
		notify(r.writable)
	}
	return n
}

// PopByte removes one byte. Safe to call from an interrupt handler.
func (r *Ring) PopByte() (byte, bool) {
	rd := r.rd.Load()
	wr := r.wr.Load()
	if wr == rd {
		return 0, false
	}
	b := r.buf[rd&r.mask]
	r.rd.Store(rd + 1)
	if wr-rd == r.size() {
		notify(r.writable)
	}
	return b, true
}

// Consumed returns the monotonic count of bytes read so far.
func (r *Ring) Consumed() uint32 { return r.rd.Load() }

// Produced returns the monotonic count of bytes written so far.
func (r *Ring) Produced() uint32 { return r.wr.Load() }

// Discard drops every queued byte. Consumer side only.
func (r *Ring) Discard() {
	r.rd.Store(r.wr.Load())
	notify(r.writable)
}

func (r *Ring) Readable() <-chan struct{} { return r.readable }
func (r *Ring) Writable() <-chan struct{} { return r.writable }

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
