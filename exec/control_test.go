// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"context"
	"testing"

	"github.com/gowasm/corewasm/cluster"
	"github.com/gowasm/corewasm/validate"
	"github.com/gowasm/corewasm/wasm"
	ops "github.com/gowasm/corewasm/wasm/operators"
)

// TestLoopBranchesBackward drives the br/br_if/loop machinery end to
// end: double the argument by looping it down to zero, adding 2 per
// iteration into a declared local.
func TestLoopBranchesBackward(t *testing.T) {
	sig := wasm.FuncType{Params: wasm.ResultType{wasm.ValueTypeI32}, Results: wasm.ResultType{wasm.ValueTypeI32}}
	mod := &wasm.Module{Types: []wasm.FuncType{sig}}
	mod.FuncIndexSpace = []wasm.Function{{
		TypeIndex: 0,
		ImportIdx: -1,
		Body: &wasm.FunctionBody{
			Locals: []wasm.LocalEntry{{Count: 1, Type: wasm.ValueTypeI32}},
			Code: wasm.Expression{Code: []byte{
				ops.Block, 0x40,
				ops.Loop, 0x40,
				ops.GetLocal, 0x00,
				ops.I32Eqz,
				ops.BrIf, 0x01, // counter hit zero: leave the block
				ops.GetLocal, 0x01,
				ops.I32Const, 0x02,
				ops.I32Add,
				ops.SetLocal, 0x01,
				ops.GetLocal, 0x00,
				ops.I32Const, 0x01,
				ops.I32Sub,
				ops.SetLocal, 0x00,
				ops.Br, 0x00, // back to the loop head
				ops.End,
				ops.End,
				ops.GetLocal, 0x01,
				ops.End,
			}},
		},
	}}
	inst := buildInstance(t, mod)
	ctx := NewExecContext(inst)

	results, err := ctx.Invoke("f0", 5)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if results[0] != 10 {
		t.Fatalf("f0(5) = %d, want 10", results[0])
	}
}

func TestBrTableSelectsTarget(t *testing.T) {
	sig := wasm.FuncType{Params: wasm.ResultType{wasm.ValueTypeI32}, Results: wasm.ResultType{wasm.ValueTypeI32}}
	// Nested empty blocks, one per case, inside an i32-result block:
	// br_table picks the exit level, and each landing site pushes its
	// own constant before branching out to the result block's end.
	code := []byte{
		ops.Block, 0x7f, // result i32
		ops.Block, 0x40,
		ops.Block, 0x40,
		ops.Block, 0x40,
		ops.GetLocal, 0x00,
		ops.BrTable, 0x02, 0x00, 0x01, 0x02, // targets [0 1], default 2
		ops.End,
		ops.I32Const, 0x0a, // arg == 0
		ops.Br, 0x02,
		ops.End,
		ops.I32Const, 0x14, // arg == 1
		ops.Br, 0x01,
		ops.End,
		ops.I32Const, 0x1e, // default
		ops.End,
		ops.End,
	}
	for arg, want := range map[uint64]uint64{0: 10, 1: 20, 2: 30} {
		results, err := runFunc0(t, sig, code, arg)
		if err != nil {
			t.Fatalf("invoke(%d): %v", arg, err)
		}
		if results[0] != want {
			t.Fatalf("f0(%d) = %d, want %d", arg, results[0], want)
		}
	}
}

// An interrupted cluster makes Invoke return ErrRestart before the
// next instruction runs; after Reset, invoking again on the same
// ExecContext runs the function from its start.
func TestClusterInterruptSuspendsExecution(t *testing.T) {
	sig := wasm.FuncType{Results: wasm.ResultType{wasm.ValueTypeI32}}
	mod := &wasm.Module{Types: []wasm.FuncType{sig}}
	mod.FuncIndexSpace = []wasm.Function{fn(0, ops.I32Const, 0x07, ops.End)}

	c := cluster.New(context.Background(), 0)
	inst := buildInstance(t, mod, WithCluster(c))
	ctx := NewExecContext(inst, WithCluster(c))

	c.Interrupt()
	if _, err := ctx.Invoke("f0"); err != ErrRestart {
		t.Fatalf("expected ErrRestart while interrupted, got %v", err)
	}

	c.Reset()
	results, err := ctx.Invoke("f0")
	if err != nil {
		t.Fatalf("invoke after Reset: %v", err)
	}
	if results[0] != 7 {
		t.Fatalf("f0() = %d, want 7", results[0])
	}
}

// A host function that calls RequestRestart makes the executor unwind
// with ErrRestart instead of completing, the schedule_call_from_hostfunc
// path.
func TestHostFuncRequestRestart(t *testing.T) {
	hostSig := wasm.FuncType{}
	mod := &wasm.Module{
		Types: []wasm.FuncType{hostSig},
		Imports: []wasm.ImportEntry{
			{ModuleName: "env", FieldName: "yield", Kind: wasm.ExternalFunction, Descriptor: wasm.FuncImport{TypeIndex: 0}},
		},
	}
	mod.FuncIndexSpace = []wasm.Function{
		{TypeIndex: 0, ImportIdx: 0},
		fn(0, ops.Call, 0x00, ops.End),
	}
	mod.Exports = []wasm.ExportEntry{{FieldName: "run", Kind: wasm.ExternalFunction, Index: 1}}
	imports := NewImportObject()
	imports.AddFunc("env", "yield", hostSig, func(ctx *ExecContext, inst *Instance, args []uint64) ([]uint64, error) {
		ctx.RequestRestart()
		return nil, nil
	})

	if err := validate.Validate(mod); err != nil {
		t.Fatalf("validate: %v", err)
	}
	inst, err := Instantiate(mod, imports)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	defer inst.Close()

	ctx := NewExecContext(inst)
	if _, err := ctx.Invoke("run"); err != ErrRestart {
		t.Fatalf("expected ErrRestart after the host yield, got %v", err)
	}
}

func TestCallDepthTraps(t *testing.T) {
	mod := &wasm.Module{Types: []wasm.FuncType{{}}}
	mod.FuncIndexSpace = []wasm.Function{fn(0, ops.Call, 0x00, ops.End)} // calls itself forever
	inst := buildInstance(t, mod, WithMaxFrames(64))
	ctx := NewExecContext(inst, WithMaxFrames(64))

	_, err := ctx.Invoke("f0")
	wantTrapKind(t, err, TrapTooManyFrames)
}
