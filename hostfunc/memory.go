// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostfunc

import (
	"encoding/binary"
	"fmt"

	"github.com/gowasm/corewasm/exec"
)

// Memory is the view a host function gets of one of its calling
// instance's linear memories. A host function that caches a raw byte
// slice across a call that might grow memory (its own memory.grow, or
// a reentrant Wasm call) can detect staleness through BytesMoved
// instead of reading through a dangling slice.
type Memory struct {
	mem *exec.Memory
}

// MemoryAt returns the idx'th memory of inst, or an error if inst has
// no such memory.
func MemoryAt(inst *exec.Instance, idx int) (Memory, error) {
	if idx < 0 || idx >= len(inst.Mems) {
		return Memory{}, fmt.Errorf("hostfunc: instance has no memory %d", idx)
	}
	return Memory{mem: inst.Mems[idx]}, nil
}

// Bytes returns the memory's current backing slice. Per exec.Memory's
// own contract its identity is only valid until the next Grow; a host
// function that calls back into Wasm (or grows memory itself) between
// taking this slice and using it must call Bytes again, or use
// BytesMoved to detect whether it needs to.
func (m Memory) Bytes() []byte {
	return m.mem.Bytes()
}

// BytesMoved re-fetches the memory's current backing slice and
// reports whether it differs from prev (by address, not content), so a
// host function can refresh a cached pointer exactly when it must
// rather than unconditionally on every call.
func (m Memory) BytesMoved(prev []byte) (cur []byte, moved bool) {
	cur = m.mem.Bytes()
	if len(prev) == 0 || len(cur) == 0 {
		return cur, len(prev) != len(cur)
	}
	return cur, &prev[0] != &cur[0]
}

// Read copies length bytes starting at addr out of memory.
func (m Memory) Read(addr, length uint32) ([]byte, error) {
	b := m.Bytes()
	end := uint64(addr) + uint64(length)
	if end > uint64(len(b)) {
		return nil, fmt.Errorf("hostfunc: read [%d,%d) exceeds memory size %d", addr, end, len(b))
	}
	out := make([]byte, length)
	copy(out, b[addr:end])
	return out, nil
}

// ReadString reads length bytes at addr and returns them as a string,
// the common case for a WASI-style (ptr, len) argument pair.
func (m Memory) ReadString(addr, length uint32) (string, error) {
	b, err := m.Read(addr, length)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Write copies data into memory starting at addr.
func (m Memory) Write(addr uint32, data []byte) error {
	b := m.Bytes()
	end := uint64(addr) + uint64(len(data))
	if end > uint64(len(b)) {
		return fmt.Errorf("hostfunc: write [%d,%d) exceeds memory size %d", addr, end, len(b))
	}
	copy(b[addr:], data)
	return nil
}

// PutUint32 writes v as little-endian at addr, the layout every
// WASI struct-return and errno slot uses.
func (m Memory) PutUint32(addr uint32, v uint32) error {
	b := m.Bytes()
	if uint64(addr)+4 > uint64(len(b)) {
		return fmt.Errorf("hostfunc: write u32 at %d exceeds memory size %d", addr, len(b))
	}
	binary.LittleEndian.PutUint32(b[addr:], v)
	return nil
}

// Uint32 reads a little-endian u32 at addr.
func (m Memory) Uint32(addr uint32) (uint32, error) {
	b := m.Bytes()
	if uint64(addr)+4 > uint64(len(b)) {
		return 0, fmt.Errorf("hostfunc: read u32 at %d exceeds memory size %d", addr, len(b))
	}
	return binary.LittleEndian.Uint32(b[addr:]), nil
}
