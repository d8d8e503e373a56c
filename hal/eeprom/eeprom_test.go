package eeprom

import (
	"bytes"
	"errors"
	"testing"

	"motionhal-go/errcode"

	"tinygo.org/x/drivers"
)

var _ drivers.I2C = (*Fake)(nil)

func TestWriteSplitsAtPageBoundary(t *testing.T) {
	f := NewFake(256, 16)
	d := New(f, Config{Size: 256, PageSize: 16})

	data := []byte("0123456789abcdefghij") // 20 bytes from offset 10: pages 0, 1, 2
	if n, err := d.WriteAt(data, 10); err != nil || n != len(data) {
		t.Fatalf("WriteAt n=%d err=%v", n, err)
	}
	if got := f.PageWrites(); got != 3 {
		t.Fatalf("page writes=%d want 3", got)
	}
	if !bytes.Equal(f.Mem[10:30], data) {
		t.Fatalf("memory=%q", f.Mem[10:30])
	}

	got := make([]byte, len(data))
	if _, err := d.ReadAt(got, 10); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("read back %q", got)
	}
}

func TestReadChunksLongTransfers(t *testing.T) {
	f := NewFake(1024, 32)
	for i := range f.Mem {
		f.Mem[i] = byte(i)
	}
	d := New(f, Config{Size: 1024, MaxRead: 100})
	got := make([]byte, 300)
	if _, err := d.ReadAt(got, 500); err != nil {
		t.Fatal(err)
	}
	for i, b := range got {
		if b != byte(500+i) {
			t.Fatalf("byte %d=%d", i, b)
		}
	}
}

func TestBoundsAndFailures(t *testing.T) {
	f := NewFake(64, 8)
	d := New(f, Config{Size: 64, PageSize: 8})
	if _, err := d.WriteAt([]byte{1, 2}, 63); errcode.Of(err) != errcode.OutOfRange {
		t.Fatalf("overflow err=%v", err)
	}
	if _, err := d.ReadAt(make([]byte, 1), -1); errcode.Of(err) != errcode.OutOfRange {
		t.Fatalf("negative err=%v", err)
	}

	cause := errors.New("bus stuck")
	f.Fail(cause)
	_, err := d.WriteAt([]byte{1}, 0)
	if errcode.Of(err) != errcode.StorageFailure || !errors.Is(err, cause) {
		t.Fatalf("err=%v", err)
	}
}

func TestSettleGivesUp(t *testing.T) {
	f := NewFake(64, 8)
	f.BusyPolls = 50
	d := New(f, Config{Size: 64, PageSize: 8, Polls: 10})
	if _, err := d.WriteAt([]byte{7}, 0); errcode.Of(err) != errcode.Timeout {
		t.Fatalf("err=%v", err)
	}
}
