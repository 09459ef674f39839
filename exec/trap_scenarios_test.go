// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"testing"

	"github.com/gowasm/corewasm/wasm"
	ops "github.com/gowasm/corewasm/wasm/operators"
)

func wantTrapKind(t *testing.T, err error, want TrapKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected a trap, execution succeeded")
	}
	tr, ok := err.(Trap)
	if !ok {
		t.Fatalf("expected a Trap, got %T: %v", err, err)
	}
	if tr.Kind != want {
		t.Fatalf("trap kind = %v, want %v", tr.Kind, want)
	}
}

// i32.const 1; i32.const 0; i32.div_s traps with a division-by-zero.
func TestDivByZeroTraps(t *testing.T) {
	sig := wasm.FuncType{Results: wasm.ResultType{wasm.ValueTypeI32}}
	code := []byte{
		ops.I32Const, 0x01,
		ops.I32Const, 0x00,
		ops.I32DivS,
		ops.End,
	}
	_, err := runFunc0(t, sig, code)
	wantTrapKind(t, err, TrapDivByZero)
}

// i32.const 0x80000000; i32.const -1; i32.div_s overflows: the one
// signed division whose quotient doesn't fit.
func TestIntMinDivNegOneOverflows(t *testing.T) {
	sig := wasm.FuncType{Results: wasm.ResultType{wasm.ValueTypeI32}}
	code := []byte{
		ops.I32Const, 0x80, 0x80, 0x80, 0x80, 0x78, // -2147483648, sign-extended LEB128
		ops.I32Const, 0x7f, // -1
		ops.I32DivS,
		ops.End,
	}
	_, err := runFunc0(t, sig, code)
	wantTrapKind(t, err, TrapIntegerOverflow)
}

func TestI64DivByZeroTraps(t *testing.T) {
	sig := wasm.FuncType{Results: wasm.ResultType{wasm.ValueTypeI64}}
	code := []byte{
		ops.I64Const, 0x01,
		ops.I64Const, 0x00,
		ops.I64DivS,
		ops.End,
	}
	_, err := runFunc0(t, sig, code)
	wantTrapKind(t, err, TrapDivByZero)
}

// (block (result i32) i32.const 7) leaves its result on the stack.
func TestBlockTypingProducesResult(t *testing.T) {
	sig := wasm.FuncType{Results: wasm.ResultType{wasm.ValueTypeI32}}
	code := []byte{
		ops.Block, 0x7f, // inline i32 result
		ops.I32Const, 0x07,
		ops.End, // closes block
		ops.End, // closes function
	}
	results, err := runFunc0(t, sig, code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || int32(uint32(results[0])) != 7 {
		t.Fatalf("results = %v, want [7]", results)
	}
}

// (block (result i32) unreachable) validates
// and, when actually invoked, traps as UNREACHABLE rather than failing
// to typecheck the block's declared i32 result.
func TestUnreachablePolymorphismExecutes(t *testing.T) {
	sig := wasm.FuncType{Results: wasm.ResultType{wasm.ValueTypeI32}}
	code := []byte{
		ops.Block, 0x7f,
		ops.Unreachable,
		ops.End,
		ops.End,
	}
	_, err := runFunc0(t, sig, code)
	wantTrapKind(t, err, TrapUnreachable)
}

func TestI32RemSMinByNegOneIsZeroNotOverflow(t *testing.T) {
	sig := wasm.FuncType{Results: wasm.ResultType{wasm.ValueTypeI32}}
	code := []byte{
		ops.I32Const, 0x80, 0x80, 0x80, 0x80, 0x78,
		ops.I32Const, 0x7f,
		ops.I32RemS,
		ops.End,
	}
	results, err := runFunc0(t, sig, code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0] != 0 {
		t.Fatalf("i32.rem_s(MIN, -1) = %d, want 0", int32(uint32(results[0])))
	}
}

func TestFloatToIntTruncNaNTraps(t *testing.T) {
	sig := wasm.FuncType{Results: wasm.ResultType{wasm.ValueTypeI32}}
	code := []byte{
		ops.F64Const, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xf8, 0x7f, // NaN
		ops.I32TruncSF64,
		ops.End,
	}
	_, err := runFunc0(t, sig, code)
	wantTrapKind(t, err, TrapInvalidConversionToInteger)
}

func TestMemoryOutOfBoundsTraps(t *testing.T) {
	sig := wasm.FuncType{Results: wasm.ResultType{wasm.ValueTypeI32}}
	mod := &wasm.Module{
		Types:    []wasm.FuncType{sig},
		Memories: []wasm.MemoryType{{Limits: wasm.ResizableLimits{Initial: 1}}},
	}
	mod.FuncIndexSpace = []wasm.Function{fn(0,
		ops.I32Const, 0x80, 0x80, 0x04, // address 65536 (one page), out of bounds for a 1-page memory
		ops.I32Load, 0x02, 0x00,
		ops.End,
	)}
	inst := buildInstance(t, mod)
	ctx := NewExecContext(inst)
	_, err := ctx.Invoke("f0")
	wantTrapKind(t, err, TrapOutOfBoundsMemoryAccess)
}

func TestCallIndirectNullRefTraps(t *testing.T) {
	sig := wasm.FuncType{}
	mod := &wasm.Module{
		Types:  []wasm.FuncType{sig},
		Tables: []wasm.TableType{{ElemType: wasm.ElemType(wasm.ValueTypeFuncRef), Limits: wasm.ResizableLimits{Initial: 1}}},
	}
	mod.FuncIndexSpace = []wasm.Function{fn(0,
		ops.I32Const, 0x00,
		ops.CallIndirect, 0x00, 0x00,
		ops.End,
	)}
	inst := buildInstance(t, mod)
	ctx := NewExecContext(inst)
	_, err := ctx.Invoke("f0")
	wantTrapKind(t, err, TrapCallIndirectNullElement)
}
