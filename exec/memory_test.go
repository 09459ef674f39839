// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"testing"

	"github.com/gowasm/corewasm/wasm"
	ops "github.com/gowasm/corewasm/wasm/operators"
)

func TestSharedMemoryGrowKeepsBackingStable(t *testing.T) {
	m, err := NewMemory(wasm.ResizableLimits{Initial: 1, HasMax: true, Maximum: 4, Shared: true})
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	defer m.Close()

	before := m.Bytes()
	old, moved, ok := m.Grow(2)
	if !ok || old != 1 {
		t.Fatalf("Grow(2) = (%d, %v, %v), want (1, false, true)", old, moved, ok)
	}
	if moved {
		t.Fatal("a shared grow must not move the backing storage")
	}
	after := m.Bytes()
	if &before[0] != &after[0] {
		t.Fatal("backing slice address changed across a shared grow")
	}
	if m.Pages() != 3 || len(after) != 3*wasmPageSize {
		t.Fatalf("pages = %d, len = %d; want 3 pages", m.Pages(), len(after))
	}

	if _, _, ok := m.Grow(2); ok {
		t.Fatal("growing past the declared maximum should fail")
	}
}

func TestSharedMemoryRequiresMax(t *testing.T) {
	if _, err := NewMemory(wasm.ResizableLimits{Initial: 1, Shared: true}); err != ErrSharedMemoryNeedsMax {
		t.Fatalf("expected ErrSharedMemoryNeedsMax, got %v", err)
	}
}

// memory.grow returns the previous page count, or -1 once the maximum
// is reached.
func TestGrowMemoryInstruction(t *testing.T) {
	sig := wasm.FuncType{Results: wasm.ResultType{wasm.ValueTypeI32}}
	mod := &wasm.Module{
		Types:    []wasm.FuncType{sig},
		Memories: []wasm.MemoryType{{Limits: wasm.ResizableLimits{Initial: 1, HasMax: true, Maximum: 2}}},
	}
	mod.FuncIndexSpace = []wasm.Function{fn(0,
		ops.I32Const, 0x01,
		ops.GrowMemory, 0x00,
		ops.End,
	)}
	inst := buildInstance(t, mod)
	ctx := NewExecContext(inst)

	results, err := ctx.Invoke("f0")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if results[0] != 1 {
		t.Fatalf("first grow returned %d, want the previous page count 1", results[0])
	}
	if got := inst.Mems[0].Pages(); got != 2 {
		t.Fatalf("pages after grow = %d, want 2", got)
	}

	results, err = ctx.Invoke("f0")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if int32(uint32(results[0])) != -1 {
		t.Fatalf("grow past max returned %d, want -1", int32(uint32(results[0])))
	}
}
