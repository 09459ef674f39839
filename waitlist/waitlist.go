// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package waitlist implements the FIFO waiter lists backing the
// threads proposal's memory.atomic.wait/memory.atomic.notify
// instructions. One Table belongs to each shared memory; within a
// Table, waiters are grouped by the 32-bit address (ident) the wait
// targets.
package waitlist

import (
	"errors"
	"sync"
	"time"
)

// maxWaitersPerIdent caps a single address's waiter list; Wait
// reports overflow rather than enqueueing past it.
const maxWaitersPerIdent = 1<<32 - 1

// ErrOverflow is returned by Wait when ident's list already holds
// maxWaitersPerIdent waiters.
var ErrOverflow = errors.New("waitlist: too many waiters for this address")

// Result is the outcome of a Wait call.
type Result int

const (
	// ResultOK means a matching Notify woke this waiter.
	ResultOK Result = iota
	// ResultTimedOut means the deadline passed before any Notify did.
	ResultTimedOut
)

func (r Result) String() string {
	if r == ResultTimedOut {
		return "timed-out"
	}
	return "ok"
}

type waiter struct {
	cond  *sync.Cond
	woken bool
}

type waiterList struct {
	waiters []*waiter
}

// Table is the complete set of per-address waiter lists for one
// shared memory, guarded by a single mutex. A finer-grained locking
// scheme (e.g. one mutex per ident) is possible but not required for
// correctness: wait/notify are not on any hot path that would make a
// single global lock per memory a bottleneck.
type Table struct {
	mu    sync.Mutex
	lists map[uint32]*waiterList
}

// NewTable allocates an empty waitlist table for one shared memory.
func NewTable() *Table {
	return &Table{lists: make(map[uint32]*waiterList)}
}

// Now returns the current absolute monotonic time, used to compute
// Wait's deadline parameter the same way the caller computed its own
// "now" when it read an i64 timeout from Wasm bytecode.
func Now() time.Duration {
	return monotonicNow()
}

// Wait blocks the calling goroutine until Notify wakes it or deadline
// (an absolute monotonic timestamp as returned by Now, or the zero
// value for "wait forever") passes: enqueue at the tail of ident's
// list, block on a per-waiter condition variable, and loop on spurious
// wakeups.
func (t *Table) Wait(ident uint32, deadline time.Duration) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.lists[ident]
	if !ok {
		l = &waiterList{}
		t.lists[ident] = l
	}
	if len(l.waiters) >= maxWaitersPerIdent {
		return ResultOK, ErrOverflow
	}

	w := &waiter{cond: sync.NewCond(&t.mu)}
	l.waiters = append(l.waiters, w)

	var timer *time.Timer
	if deadline != 0 {
		remaining := deadline - monotonicNow()
		if remaining <= 0 {
			t.removeWaiterLocked(ident, l, w)
			return ResultTimedOut, nil
		}
		timer = time.AfterFunc(remaining, func() {
			t.mu.Lock()
			w.cond.Broadcast()
			t.mu.Unlock()
		})
	}

	for !w.woken {
		w.cond.Wait()
		if deadline != 0 && !w.woken && monotonicNow() >= deadline {
			break
		}
	}
	if timer != nil {
		timer.Stop()
	}

	if !w.woken {
		t.removeWaiterLocked(ident, l, w)
		return ResultTimedOut, nil
	}
	return ResultOK, nil
}

// removeWaiterLocked drops w from l, and l from the table if it is
// now empty. Called with t.mu held. Safe to call even if Notify has
// concurrently already dequeued w (it's simply not found, a no-op):
// this is why dequeue-on-notify rather than dequeue-on-timeout avoids
// the use-after-free race the design notes describe.
func (t *Table) removeWaiterLocked(ident uint32, l *waiterList, w *waiter) {
	for i, other := range l.waiters {
		if other == w {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			break
		}
	}
	if len(l.waiters) == 0 {
		delete(t.lists, ident)
	}
}

// Notify wakes up to count waiters blocked on ident, earliest first,
// and returns how many were woken.
func (t *Table) Notify(ident uint32, count uint32) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.lists[ident]
	if !ok {
		return 0
	}
	n := count
	if uint32(len(l.waiters)) < n {
		n = uint32(len(l.waiters))
	}
	woken := l.waiters[:n]
	l.waiters = l.waiters[n:]
	for _, w := range woken {
		w.woken = true
		w.cond.Broadcast()
	}
	if len(l.waiters) == 0 {
		delete(t.lists, ident)
	}
	return n
}
