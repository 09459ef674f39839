// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import "github.com/gowasm/corewasm/wasm"

// Table is a growable array of references, indexed by call_indirect
// and the table.* instruction family. Entries hold a function index
// into the owning Instance's FuncIndexSpace, or RefNull.
type Table struct {
	elemType wasm.ElemType
	entries  []uint64
	hasMax   bool
	max      uint32
}

func NewTable(t wasm.TableType) *Table {
	entries := make([]uint64, t.Limits.Initial)
	for i := range entries {
		entries[i] = wasm.RefNull
	}
	return &Table{elemType: t.ElemType, entries: entries, hasMax: t.Limits.HasMax, max: t.Limits.Maximum}
}

func (t *Table) Size() uint32 { return uint32(len(t.entries)) }

func (t *Table) Grow(delta uint32, fill uint64) (old uint32, ok bool) {
	old = t.Size()
	newSize := uint64(old) + uint64(delta)
	if t.hasMax && newSize > uint64(t.max) {
		return old, false
	}
	grown := make([]uint64, newSize)
	copy(grown, t.entries)
	for i := old; i < uint32(newSize); i++ {
		grown[i] = fill
	}
	t.entries = grown
	return old, true
}

func (t *Table) Get(i uint32) (uint64, error) {
	if i >= t.Size() {
		return 0, trap(TrapOutOfBoundsTableAccess, "index %d exceeds table size %d", i, t.Size())
	}
	return t.entries[i], nil
}

// RawGet returns the raw entry at i without trapping, for callers
// (call_indirect) that need to report a different trap kind on their
// own bounds failure than the generic table.get instruction does.
func (t *Table) RawGet(i uint32) (uint64, bool) {
	if i >= t.Size() {
		return 0, false
	}
	return t.entries[i], true
}

func (t *Table) Set(i uint32, v uint64) error {
	if i >= t.Size() {
		return trap(TrapOutOfBoundsTableAccess, "index %d exceeds table size %d", i, t.Size())
	}
	t.entries[i] = v
	return nil
}

func (t *Table) Fill(i uint32, v uint64, length uint32) error {
	if uint64(i)+uint64(length) > uint64(t.Size()) {
		return trap(TrapOutOfBoundsTableAccess, "fill range [%d,%d) exceeds table size %d", i, uint64(i)+uint64(length), t.Size())
	}
	for j := uint32(0); j < length; j++ {
		t.entries[i+j] = v
	}
	return nil
}

func (t *Table) Copy(dst, src, length uint32) error {
	if uint64(dst)+uint64(length) > uint64(t.Size()) || uint64(src)+uint64(length) > uint64(t.Size()) {
		return trap(TrapOutOfBoundsTableAccess, "copy out of bounds")
	}
	copy(t.entries[dst:dst+length], t.entries[src:src+length])
	return nil
}

// Init copies a range of an element segment's function indices into
// the table starting at dst.
func (t *Table) Init(dst uint32, segment []uint32, segOffset, length uint32) error {
	if uint64(segOffset)+uint64(length) > uint64(len(segment)) {
		return trap(TrapOutOfBoundsElementAccess, "segment range out of bounds")
	}
	if uint64(dst)+uint64(length) > uint64(t.Size()) {
		return trap(TrapOutOfBoundsTableAccess, "table range out of bounds")
	}
	for i := uint32(0); i < length; i++ {
		t.entries[dst+i] = uint64(segment[segOffset+i])
	}
	return nil
}
