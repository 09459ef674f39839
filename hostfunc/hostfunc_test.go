// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostfunc

import (
	"testing"

	"github.com/gowasm/corewasm/exec"
	"github.com/gowasm/corewasm/validate"
	"github.com/gowasm/corewasm/wasm"
	ops "github.com/gowasm/corewasm/wasm/operators"
)

// moduleCallingHost builds a module that imports "env"."write32" (i32
// addr, i32 val) -> () and a local function, exported as "store", that
// forwards its two params to it.
func moduleCallingHost() *wasm.Module {
	hostSig := wasm.FuncType{Params: wasm.ResultType{wasm.ValueTypeI32, wasm.ValueTypeI32}}
	mod := &wasm.Module{
		Types:    []wasm.FuncType{hostSig},
		Memories: []wasm.MemoryType{{Limits: wasm.ResizableLimits{Initial: 1}}},
		Imports: []wasm.ImportEntry{
			{ModuleName: "env", FieldName: "write32", Kind: wasm.ExternalFunction, Descriptor: wasm.FuncImport{TypeIndex: 0}},
		},
	}
	mod.FuncIndexSpace = []wasm.Function{
		{TypeIndex: 0, ImportIdx: 0},
		{
			TypeIndex: 0, ImportIdx: -1,
			Body: &wasm.FunctionBody{Code: wasm.Expression{Code: []byte{
				ops.GetLocal, 0x00,
				ops.GetLocal, 0x01,
				ops.Call, 0x00,
				ops.End,
			}}},
		},
	}
	mod.Exports = []wasm.ExportEntry{{FieldName: "store", Kind: wasm.ExternalFunction, Index: 1}}
	return mod
}

func TestHostFuncWritesGuestMemory(t *testing.T) {
	mod := moduleCallingHost()
	if err := validate.Validate(mod); err != nil {
		t.Fatalf("validate: %v", err)
	}

	env := NewModule("env")
	env.AddFunc("write32", mod.Types[0], func(ctx *exec.ExecContext, inst *exec.Instance, args []uint64) ([]uint64, error) {
		mem, err := MemoryAt(inst, 0)
		if err != nil {
			return nil, err
		}
		if err := mem.PutUint32(uint32(args[0]), uint32(args[1])); err != nil {
			return nil, err
		}
		return nil, nil
	})

	inst, err := exec.Instantiate(mod, NewImportObject(env))
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	defer inst.Close()

	ctx := exec.NewExecContext(inst)
	if _, err := ctx.Invoke("store", 0x10, 0xdeadbeef); err != nil {
		t.Fatalf("invoke: %v", err)
	}

	mem, err := MemoryAt(inst, 0)
	if err != nil {
		t.Fatalf("MemoryAt: %v", err)
	}
	got, err := mem.Uint32(0x10)
	if err != nil {
		t.Fatalf("Uint32: %v", err)
	}
	if got != 0xdeadbeef {
		t.Fatalf("memory[0x10] = %#x, want 0xdeadbeef", got)
	}
}

func TestHostFuncVoluntaryExitTrap(t *testing.T) {
	sig := wasm.FuncType{Params: wasm.ResultType{wasm.ValueTypeI32}}
	mod := &wasm.Module{
		Types: []wasm.FuncType{sig},
		Imports: []wasm.ImportEntry{
			{ModuleName: "wasi_snapshot_preview1", FieldName: "proc_exit", Kind: wasm.ExternalFunction, Descriptor: wasm.FuncImport{TypeIndex: 0}},
		},
	}
	mod.FuncIndexSpace = []wasm.Function{
		{TypeIndex: 0, ImportIdx: 0},
		{
			TypeIndex: 0, ImportIdx: -1,
			Body: &wasm.FunctionBody{Code: wasm.Expression{Code: []byte{
				ops.GetLocal, 0x00,
				ops.Call, 0x00,
				ops.End,
			}}},
		},
	}
	mod.Exports = []wasm.ExportEntry{{FieldName: "run", Kind: wasm.ExternalFunction, Index: 1}}
	if err := validate.Validate(mod); err != nil {
		t.Fatalf("validate: %v", err)
	}

	wasi := NewModule("wasi_snapshot_preview1")
	wasi.AddFunc("proc_exit", mod.Types[0], func(ctx *exec.ExecContext, inst *exec.Instance, args []uint64) ([]uint64, error) {
		return nil, exec.Exit(int(int32(uint32(args[0]))))
	})

	inst, err := exec.Instantiate(mod, NewImportObject(wasi))
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	defer inst.Close()

	ctx := exec.NewExecContext(inst)
	_, err = ctx.Invoke("run", 7)
	tr, ok := err.(exec.Trap)
	if !ok {
		t.Fatalf("expected an exec.Trap, got %T: %v", err, err)
	}
	if tr.Kind != exec.TrapVoluntaryExit || tr.ExitCode != 7 {
		t.Fatalf("trap = %+v, want VOLUNTARY_EXIT with code 7", tr)
	}
}

func TestMemoryBytesMovedDetectsGrow(t *testing.T) {
	mod := &wasm.Module{
		Types:    []wasm.FuncType{{}},
		Memories: []wasm.MemoryType{{Limits: wasm.ResizableLimits{Initial: 1}}},
	}
	mod.FuncIndexSpace = []wasm.Function{{TypeIndex: 0, ImportIdx: -1, Body: &wasm.FunctionBody{Code: wasm.Expression{Code: []byte{ops.End}}}}}
	if err := validate.Validate(mod); err != nil {
		t.Fatalf("validate: %v", err)
	}
	inst, err := exec.Instantiate(mod, nil)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	defer inst.Close()

	mem, _ := MemoryAt(inst, 0)
	before := mem.Bytes()
	if _, ok, grown := inst.Mems[0].Grow(1); !grown || !ok {
		t.Fatalf("grow failed: ok=%v grown=%v", ok, grown)
	}
	after, moved := mem.BytesMoved(before)
	if !moved {
		t.Fatal("expected BytesMoved to report the backing slice moved after Grow")
	}
	if len(after) != len(before)+65536 {
		t.Fatalf("len(after) = %d, want %d", len(after), len(before)+65536)
	}
}
