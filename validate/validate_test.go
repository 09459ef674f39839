// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package validate

import (
	"testing"

	"github.com/gowasm/corewasm/wasm"
	ops "github.com/gowasm/corewasm/wasm/operators"
)

func fn(typeIdx uint32, code ...byte) *wasm.Function {
	return &wasm.Function{
		TypeIndex: typeIdx,
		ImportIdx: -1,
		Body:      &wasm.FunctionBody{Code: wasm.Expression{Code: code}},
	}
}

func TestValidateAddFunction(t *testing.T) {
	mod := &wasm.Module{
		Types: []wasm.FuncType{
			{Params: wasm.ResultType{wasm.ValueTypeI32, wasm.ValueTypeI32}, Results: wasm.ResultType{wasm.ValueTypeI32}},
		},
	}
	mod.FuncIndexSpace = []wasm.Function{*fn(0,
		ops.GetLocal, 0x00,
		ops.GetLocal, 0x01,
		ops.I32Add,
		ops.End,
	)}

	if err := Validate(mod); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateTypeMismatch(t *testing.T) {
	mod := &wasm.Module{
		Types: []wasm.FuncType{
			{Results: wasm.ResultType{wasm.ValueTypeI32}},
		},
	}
	mod.FuncIndexSpace = []wasm.Function{*fn(0,
		ops.F32Const, 0x00, 0x00, 0x00, 0x00,
		ops.End,
	)}

	err := Validate(mod)
	if err == nil {
		t.Fatal("expected a validation error for a mismatched return type")
	}
}

func TestValidateUnreachablePolymorphism(t *testing.T) {
	mod := &wasm.Module{
		Types: []wasm.FuncType{
			{Results: wasm.ResultType{wasm.ValueTypeI32}},
		},
	}
	// unreachable followed by an i32.add whose operands don't exist on
	// the stack: still valid, since the enclosing frame is marked
	// unreachable and operand types become "anytype" from then on.
	mod.FuncIndexSpace = []wasm.Function{*fn(0,
		ops.Unreachable,
		ops.I32Add,
		ops.End,
	)}

	if err := Validate(mod); err != nil {
		t.Fatalf("unexpected validation error in unreachable code: %v", err)
	}
}

func TestValidateBlockProducesJumpTable(t *testing.T) {
	mod := &wasm.Module{Types: []wasm.FuncType{{}}}
	mod.FuncIndexSpace = []wasm.Function{*fn(0,
		ops.Block, 0x40, // empty block type
		ops.Nop,
		ops.End,
		ops.End,
	)}

	if err := Validate(mod); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	jt := mod.FuncIndexSpace[0].Body.Code.Info.JumpTable
	target, ok := jt[0]
	if !ok {
		t.Fatalf("expected a jump table entry for the block opening at pc 0, got %v", jt)
	}
	if target.TargetPC == 0 {
		t.Fatalf("expected a non-zero target pc for the block's end, got %+v", target)
	}
}

func TestValidateBranchOutOfRange(t *testing.T) {
	mod := &wasm.Module{Types: []wasm.FuncType{{}}}
	mod.FuncIndexSpace = []wasm.Function{*fn(0,
		ops.Br, 0x05,
		ops.End,
	)}

	if err := Validate(mod); err == nil {
		t.Fatal("expected an error for a branch with no matching enclosing frame")
	}
}

func TestValidateAtomicWaitRequiresSharedMemory(t *testing.T) {
	mod := &wasm.Module{
		Types:    []wasm.FuncType{{}},
		Memories: []wasm.MemoryType{{Limits: wasm.ResizableLimits{Initial: 1}}},
	}
	mod.FuncIndexSpace = []wasm.Function{*fn(0,
		ops.I32Const, 0x00,
		ops.I32Const, 0x00,
		ops.I64Const, 0x00,
		ops.MemoryAtomicWait32, 0x02, 0x00,
		ops.Drop,
		ops.End,
	)}

	var vErr Error
	err := Validate(mod)
	if err == nil {
		t.Fatal("expected an error for an atomic wait on non-shared memory")
	}
	if ok := asError(err, &vErr); !ok || vErr.Err != ErrSharedMemoryRequired {
		t.Fatalf("expected ErrSharedMemoryRequired, got %v", err)
	}
}

// The jump table's target is the PC immediately after the matching
// end, and its arity is the label type's cell width.
func TestValidateJumpTableTargetAndArity(t *testing.T) {
	mod := &wasm.Module{Types: []wasm.FuncType{{Results: wasm.ResultType{wasm.ValueTypeI32}}}}
	mod.FuncIndexSpace = []wasm.Function{*fn(0,
		ops.Block, 0x7f, // pc 0: block (result i32)
		ops.I32Const, 0x07,
		ops.End, // pc 4, so the block's branch target is pc 5
		ops.End,
	)}

	if err := Validate(mod); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	target := mod.FuncIndexSpace[0].Body.Code.Info.JumpTable[0]
	if target.TargetPC != 5 {
		t.Fatalf("target pc = %d, want 5 (just past the block's end)", target.TargetPC)
	}
	if target.Arity != 1 {
		t.Fatalf("arity = %d, want 1 cell for an i32 result", target.Arity)
	}
}

func TestValidateSetImmutableGlobalFails(t *testing.T) {
	mod := &wasm.Module{Types: []wasm.FuncType{{}}}
	mod.GlobalIndexSpace = []wasm.GlobalDef{
		{Type: wasm.GlobalType{Type: wasm.ValueTypeI32}}, // not mutable
	}
	mod.FuncIndexSpace = []wasm.Function{*fn(0,
		ops.I32Const, 0x01,
		ops.SetGlobal, 0x00,
		ops.End,
	)}

	var vErr Error
	err := Validate(mod)
	if err == nil {
		t.Fatal("expected an error for global.set on an immutable global")
	}
	if ok := asError(err, &vErr); !ok || vErr.Err != ErrImmutableGlobal {
		t.Fatalf("expected ErrImmutableGlobal, got %v", err)
	}
}

func TestValidateMemoryInitRequiresDataCount(t *testing.T) {
	mod := &wasm.Module{
		Types:    []wasm.FuncType{{}},
		Memories: []wasm.MemoryType{{Limits: wasm.ResizableLimits{Initial: 1}}},
		Data:     []wasm.DataSegment{{Data: []byte{1, 2, 3}}},
	}
	mod.FuncIndexSpace = []wasm.Function{*fn(0,
		ops.I32Const, 0x00,
		ops.I32Const, 0x00,
		ops.I32Const, 0x03,
		ops.MemoryInit, 0x00, 0x00,
		ops.End,
	)}

	var vErr Error
	err := Validate(mod)
	if err == nil {
		t.Fatal("expected an error for memory.init without a data-count section")
	}
	if ok := asError(err, &vErr); !ok || vErr.Err != ErrDataCountRequired {
		t.Fatalf("expected ErrDataCountRequired, got %v", err)
	}

	mod.HasDataCount = true
	mod.FuncIndexSpace[0].Body.Code.Info = nil
	if err := Validate(mod); err != nil {
		t.Fatalf("unexpected validation error with a data-count section: %v", err)
	}
}

func asError(err error, target *Error) bool {
	e, ok := err.(Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
