// Package persistence keeps numbered float settings in non-volatile storage.
package persistence

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"math"
	"sync/atomic"

	"motionhal-go/errcode"
)

// ValueLen is the stored size of one value: a little-endian float32.
const ValueLen = 4

// Entry is one slot of the value table.
type Entry struct {
	Index int
	Value float32
}

// Store reads and writes entries.
type Store interface {
	Read(ctx context.Context, e *Entry) error
	Write(ctx context.Context, e Entry) error
}

// Backend is byte-addressed non-volatile memory.
type Backend interface {
	io.ReaderAt
	io.WriterAt
}

// NVM lays Count values out from Base, one every ValueLen bytes.
type NVM struct {
	dev    Backend
	base   int64
	count  int
	moving func() bool
	writes atomic.Uint32
}

type Option func(*NVM)

// WithMotionGuard refuses writes with errcode.Busy while moving reports
// true, since a page write stalls the bus for milliseconds.
func WithMotionGuard(moving func() bool) Option { return func(n *NVM) { n.moving = moving } }

func NewNVM(dev Backend, base int64, count int, opts ...Option) *NVM {
	n := &NVM{dev: dev, base: base, count: count}
	for _, o := range opts {
		o(n)
	}
	return n
}

func (n *NVM) Count() int { return n.count }

// Writes counts physical writes since construction.
func (n *NVM) Writes() uint32 { return n.writes.Load() }

// Addr is where index lives.
func (n *NVM) Addr(index int) int64 { return n.base + int64(index)*ValueLen }

func (n *NVM) check(op string, index int) error {
	if index < 0 || index >= n.count {
		return errcode.New(errcode.OutOfRange, op, "index outside value table")
	}
	return nil
}

func (n *NVM) load(op string, index int) ([ValueLen]byte, error) {
	var buf [ValueLen]byte
	if _, err := n.dev.ReadAt(buf[:], n.Addr(index)); err != nil {
		return buf, errcode.Wrap(errcode.StorageFailure, op, err)
	}
	return buf, nil
}

// Read fills e.Value from slot e.Index.
func (n *NVM) Read(ctx context.Context, e *Entry) error {
	if err := ctx.Err(); err != nil {
		return errcode.Wrap(errcode.Timeout, "persist.read", err)
	}
	if err := n.check("persist.read", e.Index); err != nil {
		return err
	}
	buf, err := n.load("persist.read", e.Index)
	if err != nil {
		return err
	}
	e.Value = math.Float32frombits(binary.LittleEndian.Uint32(buf[:]))
	return nil
}

// Write stores e.Value at slot e.Index. Storage is left alone when it
// already holds the value.
func (n *NVM) Write(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return errcode.Wrap(errcode.Timeout, "persist.write", err)
	}
	if err := n.check("persist.write", e.Index); err != nil {
		return err
	}
	if n.moving != nil && n.moving() {
		return errcode.New(errcode.Busy, "persist.write", "machine in motion")
	}
	var want [ValueLen]byte
	binary.LittleEndian.PutUint32(want[:], math.Float32bits(e.Value))
	have, err := n.load("persist.write", e.Index)
	if err != nil {
		return err
	}
	if bytes.Equal(have[:], want[:]) {
		return nil
	}
	if _, err := n.dev.WriteAt(want[:], n.Addr(e.Index)); err != nil {
		return errcode.Wrap(errcode.StorageFailure, "persist.write", err)
	}
	n.writes.Add(1)
	return nil
}

var _ Store = (*NVM)(nil)
