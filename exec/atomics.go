// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/gowasm/corewasm/waitlist"
)

// atomics32 returns a pointer suitable for sync/atomic's 32-bit
// operations at addr, after bounds- and alignment-checking it. A
// misaligned atomic access (effective address not a multiple of the
// access width) traps per the threads proposal, the same as an
// out-of-bounds one; it carries the untyped/misc trap code since it
// has no dedicated one of its own.
func (m *Memory) atomics32(addr uint64) (*uint32, error) {
	if err := m.bounds(addr, 4); err != nil {
		return nil, err
	}
	if addr%4 != 0 {
		return nil, trap(TrapMisc, "unaligned atomic access at %d", addr)
	}
	return (*uint32)(unsafe.Pointer(&m.data[addr])), nil
}

func (m *Memory) atomics64(addr uint64) (*uint64, error) {
	if err := m.bounds(addr, 8); err != nil {
		return nil, err
	}
	if addr%8 != 0 {
		return nil, trap(TrapMisc, "unaligned atomic access at %d", addr)
	}
	return (*uint64)(unsafe.Pointer(&m.data[addr])), nil
}

// AtomicLoad32/64 and AtomicStore32/64 implement the atomic.load and
// atomic.store instruction families: ordinary loads/stores would be
// observably fine on most architectures, but going through
// sync/atomic keeps this implementation honest about the seq-cst
// ordering the threads proposal requires between Executors sharing a
// Memory.
func (m *Memory) AtomicLoad32(addr uint64) (uint32, error) {
	p, err := m.atomics32(addr)
	if err != nil {
		return 0, err
	}
	return atomic.LoadUint32(p), nil
}

func (m *Memory) AtomicStore32(addr uint64, v uint32) error {
	p, err := m.atomics32(addr)
	if err != nil {
		return err
	}
	atomic.StoreUint32(p, v)
	return nil
}

func (m *Memory) AtomicLoad64(addr uint64) (uint64, error) {
	p, err := m.atomics64(addr)
	if err != nil {
		return 0, err
	}
	return atomic.LoadUint64(p), nil
}

func (m *Memory) AtomicStore64(addr uint64, v uint64) error {
	p, err := m.atomics64(addr)
	if err != nil {
		return err
	}
	atomic.StoreUint64(p, v)
	return nil
}

// AtomicAdd32/64 implement i32/i64.atomic.rmw.add: add v to the
// current value and return what was there before, atomically.
func (m *Memory) AtomicAdd32(addr uint64, v uint32) (uint32, error) {
	p, err := m.atomics32(addr)
	if err != nil {
		return 0, err
	}
	return atomic.AddUint32(p, v) - v, nil
}

func (m *Memory) AtomicAdd64(addr uint64, v uint64) (uint64, error) {
	p, err := m.atomics64(addr)
	if err != nil {
		return 0, err
	}
	return atomic.AddUint64(p, v) - v, nil
}

// AtomicCmpxchg32/64 implement i32/i64.atomic.rmw.cmpxchg: if the
// current value equals expect, replace it with replacement. Either
// way, return the value that was there before the attempt, the same
// contract as the Wasm instruction (distinct from CompareAndSwap's
// boolean success result).
func (m *Memory) AtomicCmpxchg32(addr uint64, expect, replacement uint32) (uint32, error) {
	p, err := m.atomics32(addr)
	if err != nil {
		return 0, err
	}
	for {
		cur := atomic.LoadUint32(p)
		if cur != expect {
			return cur, nil
		}
		if atomic.CompareAndSwapUint32(p, cur, replacement) {
			return cur, nil
		}
	}
}

func (m *Memory) AtomicCmpxchg64(addr uint64, expect, replacement uint64) (uint64, error) {
	p, err := m.atomics64(addr)
	if err != nil {
		return 0, err
	}
	for {
		cur := atomic.LoadUint64(p)
		if cur != expect {
			return cur, nil
		}
		if atomic.CompareAndSwapUint64(p, cur, replacement) {
			return cur, nil
		}
	}
}

// waitDeadline converts a Wasm atomic-wait timeout (nanoseconds, or -1
// for "wait forever") into the absolute deadline waitlist.Wait expects.
func waitDeadline(timeoutNs int64) time.Duration {
	if timeoutNs < 0 {
		return 0
	}
	return waitlist.Now() + time.Duration(timeoutNs)
}

// Wasm result codes for memory.atomic.wait: 0 on wake, 1 if the
// expected value didn't match at the time of the call, 2 on timeout.
const (
	atomicWaitOK       = 0
	atomicWaitNotEqual = 1
	atomicWaitTimedOut = 2
)

// atomicWait32/64 implement memory.atomic.wait32/wait64: compare the
// current value against expected, and if it matches, block on mem's
// waitlist until a matching notify or the deadline.
func (ctx *ExecContext) atomicWait32(mem *Memory, addr uint64, expected uint32, timeoutNs int64) (uint32, error) {
	cur, err := mem.AtomicLoad32(addr)
	if err != nil {
		return 0, err
	}
	if cur != expected {
		return atomicWaitNotEqual, nil
	}
	return ctx.doWait(mem, addr, timeoutNs)
}

func (ctx *ExecContext) atomicWait64(mem *Memory, addr uint64, expected uint64, timeoutNs int64) (uint32, error) {
	cur, err := mem.AtomicLoad64(addr)
	if err != nil {
		return 0, err
	}
	if cur != expected {
		return atomicWaitNotEqual, nil
	}
	return ctx.doWait(mem, addr, timeoutNs)
}

func (ctx *ExecContext) doWait(mem *Memory, addr uint64, timeoutNs int64) (uint32, error) {
	if mem.Waiters() == nil {
		return 0, trap(TrapMisc, "atomic wait against a non-shared memory")
	}
	// A waitlist error (e.g. waitlist.ErrOverflow) is a host/system
	// failure, not a Wasm trap: propagate it as-is so callers can't
	// confuse the two.
	res, err := mem.Waiters().Wait(uint32(addr), waitDeadline(timeoutNs))
	if err != nil {
		return 0, err
	}
	if res == waitlist.ResultTimedOut {
		return atomicWaitTimedOut, nil
	}
	return atomicWaitOK, nil
}

func (ctx *ExecContext) atomicNotify(mem *Memory, addr uint64, count uint32) (uint32, error) {
	if mem.Waiters() == nil {
		return 0, nil
	}
	return mem.Waiters().Notify(uint32(addr), count), nil
}
