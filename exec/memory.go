// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"encoding/binary"
	"errors"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"

	"github.com/gowasm/corewasm/wasm"
	"github.com/gowasm/corewasm/waitlist"
)

// wasmPageSize is the WebAssembly linear memory page granularity:
// https://github.com/WebAssembly/design/blob/main/Semantics.md#linear-memory
const wasmPageSize = 65536

var byteOrder = binary.LittleEndian

// ErrSharedMemoryNeedsMax is returned by NewMemory for a shared memory
// declared without a maximum: the threads proposal requires one, and
// this implementation relies on it to reserve the full address range
// up front.
var ErrSharedMemoryNeedsMax = errors.New("exec: shared memory requires a declared maximum")

// Memory is a bounds-checked, growable linear memory, always backed by
// an anonymous mmap region rather than a plain Go slice.
//
// A non-shared memory maps exactly its current size and remaps on
// Grow, so the backing slice's identity changes (callers holding a
// cached slice must refetch it, see Grow's moved result). A shared
// memory instead reserves its declared maximum up front and Grow only
// bumps the logical page count: the backing address range never moves,
// which is what lets concurrent Executors keep raw pointers into it
// across another Executor's grow.
type Memory struct {
	data   mmap.MMap
	pages  uint32 // logical size; read/written atomically for shared memories
	shared bool
	hasMax bool
	max    uint32

	// waiters is only allocated for a shared memory: atomics
	// wait/notify are a validation error against a non-shared one
	// (see validate.ErrSharedMemoryRequired), so non-shared memories
	// never need a table at all.
	waiters *waitlist.Table
}

// NewMemory allocates a Memory sized to limits.Initial pages.
func NewMemory(limits wasm.ResizableLimits) (*Memory, error) {
	m := &Memory{shared: limits.Shared, hasMax: limits.HasMax, max: limits.Maximum}
	if limits.Shared {
		if !limits.HasMax {
			return nil, ErrSharedMemoryNeedsMax
		}
		m.waiters = waitlist.NewTable()
		region, err := mapPages(limits.Maximum)
		if err != nil {
			return nil, err
		}
		m.data = region
		m.pages = limits.Initial
		return m, nil
	}
	if err := m.remap(limits.Initial); err != nil {
		return nil, err
	}
	return m, nil
}

func mapPages(pages uint32) (mmap.MMap, error) {
	size := int(pages) * wasmPageSize
	if size == 0 {
		size = 1 // mmap.MapRegion rejects a zero-length mapping
	}
	return mmap.MapRegion(nil, size, mmap.RDWR, mmap.ANON, 0)
}

// Waiters returns this memory's atomics waitlist table, or nil if the
// memory was not declared shared.
func (m *Memory) Waiters() *waitlist.Table {
	return m.waiters
}

func (m *Memory) remap(pages uint32) error {
	region, err := mapPages(pages)
	if err != nil {
		return err
	}
	if m.data != nil {
		copy(region, m.data)
		m.data.Unmap()
	}
	m.data = region
	m.pages = pages
	return nil
}

// Pages reports the current size in 64KiB pages.
func (m *Memory) Pages() uint32 {
	if m.shared {
		return atomic.LoadUint32(&m.pages)
	}
	return m.pages
}

// Grow adds delta pages, returning the previous page count and
// whether the backing storage moved (the movedp result of toywasm's
// host pointer API). A non-shared grow always remaps, so any raw byte
// slice a host function cached from Bytes before it must be
// refetched; a shared grow never moves (the maximum was reserved at
// allocation) and is atomic with respect to concurrent observers.
func (m *Memory) Grow(delta uint32) (old uint32, moved bool, ok bool) {
	if m.shared {
		for {
			old = atomic.LoadUint32(&m.pages)
			newPages := uint64(old) + uint64(delta)
			if newPages > uint64(m.max) {
				return old, false, false
			}
			if atomic.CompareAndSwapUint32(&m.pages, old, uint32(newPages)) {
				return old, false, true
			}
		}
	}
	old = m.pages
	newPages := uint64(old) + uint64(delta)
	if newPages > 1<<16 || (m.hasMax && newPages > uint64(m.max)) {
		return old, false, false
	}
	if err := m.remap(uint32(newPages)); err != nil {
		return old, false, false
	}
	return old, true, true
}

// Bytes returns the backing slice covering the memory's current
// logical size. For a non-shared memory its identity is only valid
// until the next Grow; a shared memory's never moves.
func (m *Memory) Bytes() []byte {
	return m.data[:uint64(m.Pages())*wasmPageSize]
}

// Shared reports whether this memory was declared shared, making
// atomic wait/notify valid against it.
func (m *Memory) Shared() bool {
	return m.shared
}

// Close releases the mmap backing this memory. Instantiate calls this
// on every Memory it already allocated if a later step of the same
// instantiation fails.
func (m *Memory) Close() error {
	if m.data == nil {
		return nil
	}
	return m.data.Unmap()
}

func (m *Memory) bounds(addr uint64, width uint32) error {
	size := uint64(m.Pages()) * wasmPageSize
	if addr+uint64(width) > size {
		return trap(TrapOutOfBoundsMemoryAccess, "address %d width %d exceeds memory size %d", addr, width, size)
	}
	return nil
}

func effectiveAddress(offset uint32, base int32) uint64 {
	return uint64(offset) + uint64(uint32(base))
}

func (m *Memory) load32(addr uint64) (uint32, error) {
	if err := m.bounds(addr, 4); err != nil {
		return 0, err
	}
	return byteOrder.Uint32(m.data[addr:]), nil
}

func (m *Memory) load64(addr uint64) (uint64, error) {
	if err := m.bounds(addr, 8); err != nil {
		return 0, err
	}
	return byteOrder.Uint64(m.data[addr:]), nil
}

func (m *Memory) load8(addr uint64) (byte, error) {
	if err := m.bounds(addr, 1); err != nil {
		return 0, err
	}
	return m.data[addr], nil
}

func (m *Memory) load16(addr uint64) (uint16, error) {
	if err := m.bounds(addr, 2); err != nil {
		return 0, err
	}
	return byteOrder.Uint16(m.data[addr:]), nil
}

func (m *Memory) store32(addr uint64, v uint32) error {
	if err := m.bounds(addr, 4); err != nil {
		return err
	}
	byteOrder.PutUint32(m.data[addr:], v)
	return nil
}

func (m *Memory) store64(addr uint64, v uint64) error {
	if err := m.bounds(addr, 8); err != nil {
		return err
	}
	byteOrder.PutUint64(m.data[addr:], v)
	return nil
}

func (m *Memory) store8(addr uint64, v byte) error {
	if err := m.bounds(addr, 1); err != nil {
		return err
	}
	m.data[addr] = v
	return nil
}

func (m *Memory) store16(addr uint64, v uint16) error {
	if err := m.bounds(addr, 2); err != nil {
		return err
	}
	byteOrder.PutUint16(m.data[addr:], v)
	return nil
}

// Fill implements memory.fill: set len bytes starting at addr to b.
func (m *Memory) Fill(addr uint64, b byte, length uint64) error {
	if err := m.bounds(addr, uint32(length)); err != nil {
		return err
	}
	region := m.data[addr : addr+length]
	for i := range region {
		region[i] = b
	}
	return nil
}

// Copy implements memory.copy: may overlap, so it must behave like
// Go's builtin copy (memmove semantics) rather than a naive loop.
func (m *Memory) Copy(dst, src, length uint64) error {
	if err := m.bounds(dst, uint32(length)); err != nil {
		return err
	}
	if err := m.bounds(src, uint32(length)); err != nil {
		return err
	}
	copy(m.data[dst:dst+length], m.data[src:src+length])
	return nil
}

// Init implements memory.init: copy length bytes of a passive data
// segment's content into memory starting at dst.
func (m *Memory) Init(dst uint64, segment []byte, segOffset, length uint64) error {
	if segOffset+length > uint64(len(segment)) {
		return trap(TrapOutOfBoundsDataAccess, "segment offset %d length %d exceeds segment size %d", segOffset, length, len(segment))
	}
	if err := m.bounds(dst, uint32(length)); err != nil {
		return err
	}
	copy(m.data[dst:dst+length], segment[segOffset:segOffset+length])
	return nil
}
