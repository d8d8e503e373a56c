package shmring

import "testing"

func TestOrderAcrossWrapWithPartialProgress(t *testing.T) {
	r := New(64)

	const N = 2000
	src := make([]byte, N)
	for i := range src {
		src[i] = byte(i)
	}

	p := src
	dst := make([]byte, 0, N)
	for len(dst) < N {
		// producer accepts at most 7 bytes per step
		if len(p) > 0 {
			step := min(7, len(p))
			p = p[r.TryWriteFrom(p[:step]):]
		}
		// consumer alternates bulk reads and single-byte pops
		if len(dst)%2 == 0 {
			var tmp [5]byte
			n := r.TryReadInto(tmp[:])
			dst = append(dst, tmp[:n]...)
		} else if b, ok := r.PopByte(); ok {
			dst = append(dst, b)
		}
	}

	for i := 0; i < N; i++ {
		if dst[i] != src[i] {
			t.Fatalf("mismatch at %d: got=%d want=%d", i, dst[i], src[i])
		}
	}
	if r.Consumed() != N || r.Produced() != N {
		t.Fatalf("counters rd=%d wr=%d", r.Consumed(), r.Produced())
	}
}

func TestReadableWritableEdges(t *testing.T) {
	r := New(4)
	select {
	case <-r.Readable():
		t.Fatal("unexpected Readable on empty ring")
	default:
	}
	if n := r.TryWriteFrom([]byte{1, 2, 3, 4, 5}); n != 4 {
		t.Fatalf("write 5 into 4 -> %d", n)
	}
	select {
	case <-r.Readable():
	default:
		t.Fatal("expected Readable")
	}
	if r.Space() != 0 {
		t.Fatalf("space=%d", r.Space())
	}
	if _, ok := r.PopByte(); !ok {
		t.Fatal("pop from full ring")
	}
	select {
	case <-r.Writable():
	default:
		t.Fatal("expected Writable after leaving full")
	}
}

func TestDiscard(t *testing.T) {
	r := New(8)
	r.TryWriteFrom([]byte("abc"))
	r.Discard()
	if r.Available() != 0 {
		t.Fatalf("available=%d", r.Available())
	}
	if _, ok := r.PopByte(); ok {
		t.Fatal("pop after discard")
	}
}

func TestNewRejectsOddSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	New(6)
}
