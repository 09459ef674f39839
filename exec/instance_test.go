// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"testing"

	"github.com/gowasm/corewasm/validate"
	"github.com/gowasm/corewasm/wasm"
	ops "github.com/gowasm/corewasm/wasm/operators"
)

// moduleWithImportedDouble builds a two-function module: imported
// "env"."double" (i32 -> i32) at index 0, and a local function at
// index 1 that calls it and adds one. It declares no exports; tests
// that invoke the local function add an "f1" export themselves.
func moduleWithImportedDouble() *wasm.Module {
	sig := wasm.FuncType{Params: wasm.ResultType{wasm.ValueTypeI32}, Results: wasm.ResultType{wasm.ValueTypeI32}}
	mod := &wasm.Module{
		Types: []wasm.FuncType{sig},
		Imports: []wasm.ImportEntry{
			{ModuleName: "env", FieldName: "double", Kind: wasm.ExternalFunction, Descriptor: wasm.FuncImport{TypeIndex: 0}},
		},
	}
	mod.FuncIndexSpace = []wasm.Function{
		{TypeIndex: 0, ImportIdx: 0},
		fn(0,
			ops.GetLocal, 0x00,
			ops.Call, 0x00,
			ops.I32Const, 0x01,
			ops.I32Add,
			ops.End,
		),
	}
	return mod
}

func TestInstantiateResolvesFuncImport(t *testing.T) {
	mod := moduleWithImportedDouble()
	if err := validate.Validate(mod); err != nil {
		t.Fatalf("validate: %v", err)
	}
	mod.Exports = []wasm.ExportEntry{{FieldName: "f1", Kind: wasm.ExternalFunction, Index: 1}}

	imports := NewImportObject()
	imports.AddFunc("env", "double", mod.Types[0], func(ctx *ExecContext, inst *Instance, args []uint64) ([]uint64, error) {
		return []uint64{args[0] * 2}, nil
	})

	inst, err := Instantiate(mod, imports)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	defer inst.Close()

	ctx := NewExecContext(inst)
	results, err := ctx.Invoke("f1", 20)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if results[0] != 41 {
		t.Fatalf("f1(20) = %d, want 41", results[0])
	}
}

func TestInstantiateMissingImportFails(t *testing.T) {
	mod := moduleWithImportedDouble()
	if err := validate.Validate(mod); err != nil {
		t.Fatalf("validate: %v", err)
	}
	_, err := Instantiate(mod, NewImportObject())
	if _, ok := err.(NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}

func TestInstantiateImportTypeMismatchFails(t *testing.T) {
	mod := moduleWithImportedDouble()
	if err := validate.Validate(mod); err != nil {
		t.Fatalf("validate: %v", err)
	}
	imports := NewImportObject()
	wrongSig := wasm.FuncType{Results: wasm.ResultType{wasm.ValueTypeI64}}
	imports.AddFunc("env", "double", wrongSig, func(ctx *ExecContext, inst *Instance, args []uint64) ([]uint64, error) {
		return nil, nil
	})
	_, err := Instantiate(mod, imports)
	if _, ok := err.(TypeMismatchError); !ok {
		t.Fatalf("expected TypeMismatchError, got %T: %v", err, err)
	}
}

func TestInstantiateRunsStartFunction(t *testing.T) {
	startIdx := uint32(0)
	mod := &wasm.Module{
		Types:    []wasm.FuncType{{}},
		Memories: []wasm.MemoryType{{Limits: wasm.ResizableLimits{Initial: 1}}},
		Start:    &startIdx,
	}
	mod.FuncIndexSpace = []wasm.Function{fn(0,
		ops.I32Const, 0x00,
		ops.I32Const, 0x2a,
		ops.I32Store, 0x02, 0x00,
		ops.End,
	)}
	if err := validate.Validate(mod); err != nil {
		t.Fatalf("validate: %v", err)
	}
	inst, err := Instantiate(mod, nil)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	defer inst.Close()

	if got := byteOrder.Uint32(inst.Mems[0].Bytes()[0:4]); got != 42 {
		t.Fatalf("memory[0:4] = %d, want 42 (start function should have run)", got)
	}
}

func TestInstantiateActiveElementSegment(t *testing.T) {
	sig := wasm.FuncType{Results: wasm.ResultType{wasm.ValueTypeI32}}
	mod := &wasm.Module{
		Types:  []wasm.FuncType{sig},
		Tables: []wasm.TableType{{ElemType: wasm.ElemType(wasm.ValueTypeFuncRef), Limits: wasm.ResizableLimits{Initial: 2}}},
		Elements: []wasm.ElementSegment{
			{
				TableIndex: 0,
				Active:     true,
				Offset:     wasm.Expression{Code: []byte{ops.I32Const, 0x00, ops.End}},
				Funcs:      []uint32{0},
			},
		},
	}
	mod.FuncIndexSpace = []wasm.Function{fn(0, ops.I32Const, 0x2a, ops.End)}
	mod.Exports = []wasm.ExportEntry{{FieldName: "call0", Kind: wasm.ExternalFunction, Index: 0}}

	if err := validate.Validate(mod); err != nil {
		t.Fatalf("validate: %v", err)
	}
	inst, err := Instantiate(mod, nil)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	defer inst.Close()

	raw, ok := inst.Tables[0].RawGet(0)
	if !ok || raw != 0 {
		t.Fatalf("table[0] = %v, %v; want function index 0", raw, ok)
	}
	if _, ok := inst.Tables[0].RawGet(1); !ok {
		t.Fatalf("table[1] should still be present (null)")
	}
}

func TestInstantiateActiveDataSegment(t *testing.T) {
	mod := &wasm.Module{
		Types:    []wasm.FuncType{{}},
		Memories: []wasm.MemoryType{{Limits: wasm.ResizableLimits{Initial: 1}}},
		Data: []wasm.DataSegment{
			{
				MemIndex: 0,
				Active:   true,
				Offset:   wasm.Expression{Code: []byte{ops.I32Const, 0x10, ops.End}},
				Data:     []byte{1, 2, 3, 4},
			},
		},
	}
	mod.FuncIndexSpace = []wasm.Function{fn(0, ops.End)}

	if err := validate.Validate(mod); err != nil {
		t.Fatalf("validate: %v", err)
	}
	inst, err := Instantiate(mod, nil)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	defer inst.Close()

	got := inst.Mems[0].Bytes()[0x10:0x14]
	want := []byte{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("data segment not copied: got %v, want %v", got, want)
		}
	}
}

func TestInstantiateOutOfBoundsDataSegmentFails(t *testing.T) {
	mod := &wasm.Module{
		Types:    []wasm.FuncType{{}},
		Memories: []wasm.MemoryType{{Limits: wasm.ResizableLimits{Initial: 1}}},
		Data: []wasm.DataSegment{
			{
				MemIndex: 0,
				Active:   true,
				Offset:   wasm.Expression{Code: []byte{ops.I32Const, 0x80, 0x80, 0x04, ops.End}}, // one page in
				Data:     []byte{1, 2, 3, 4},
			},
		},
	}
	mod.FuncIndexSpace = []wasm.Function{fn(0, ops.End)}
	if err := validate.Validate(mod); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if _, err := Instantiate(mod, nil); err == nil {
		t.Fatal("expected instantiation to fail for an out-of-bounds data segment")
	}
}

func TestInstantiateGlobalFromImmutableImportedGlobal(t *testing.T) {
	mod := &wasm.Module{
		Types: []wasm.FuncType{{}},
		Imports: []wasm.ImportEntry{
			{ModuleName: "env", FieldName: "base", Kind: wasm.ExternalGlobal, Descriptor: wasm.GlobalImport{Type: wasm.GlobalType{Type: wasm.ValueTypeI32}}},
		},
	}
	mod.GlobalIndexSpace = []wasm.GlobalDef{
		{}, // slot 0: the imported global, filled in by resolveImports
		{Type: wasm.GlobalType{Type: wasm.ValueTypeI32}, Init: wasm.Expression{Code: []byte{ops.GetGlobal, 0x00, ops.End}}},
	}
	mod.FuncIndexSpace = []wasm.Function{fn(0, ops.End)}
	if err := validate.Validate(mod); err != nil {
		t.Fatalf("validate: %v", err)
	}

	imports := NewImportObject()
	imports.AddGlobal("env", "base", &GlobalInst{Type: wasm.GlobalType{Type: wasm.ValueTypeI32}, Val: wasm.I32Val(7)})

	inst, err := Instantiate(mod, imports)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	defer inst.Close()

	if got := inst.Globals[1].Val.I32(); got != 7 {
		t.Fatalf("globals[1] = %d, want 7", got)
	}
}
