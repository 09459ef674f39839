// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package validate typechecks a parsed wasm.Module one function at a
// time, and as a byproduct of walking each function body once,
// computes the PC-indexed jump table the executor uses to resolve
// branches without re-scanning the instruction stream at runtime.
package validate

import (
	"bytes"
	"io"

	"github.com/gowasm/corewasm/wasm"
	ops "github.com/gowasm/corewasm/wasm/operators"
)

func verifyBody(mod *wasm.Module, fn *wasm.Function) (*vm, error) {
	var sig wasm.FuncType
	if fn.TypeIndex < uint32(len(mod.Types)) {
		sig = mod.Types[fn.TypeIndex]
	}

	body := fn.Body
	v := &vm{
		stack:      make([]operand, 0, 8),
		code:       bytes.NewReader(body.Code.Code),
		origLength: len(body.Code.Code),
		sig:        sig,
		types:      mod.Types,
		jumpTable:  make(map[uint32]wasm.JumpTarget),
		// The implicit outer frame representing the function body
		// itself: its end types are the function's declared results, so
		// the final end typechecks them via the same popFrame path
		// every ordinary block goes through; a branch to it carries
		// those results too.
		ctrlFrames: []frame{{op: ops.Call, labelTypes: sig.Results, endTypes: sig.Results}},
	}

	locals := wasm.LocalTypes(sig, body)

	// Memory/table index space 0 may be module-defined or imported;
	// either satisfies the instructions that need one to exist.
	hasMem, memShared := false, false
	if mt, ok := mod.GetMemory(0); ok {
		hasMem, memShared = true, mt.Limits.Shared
	}
	hasTable := false
	if _, ok := mod.GetTable(0); ok {
		hasTable = true
	}
	for _, imp := range mod.Imports {
		switch d := imp.Descriptor.(type) {
		case wasm.MemoryImport:
			if !hasMem {
				hasMem, memShared = true, d.Type.Limits.Shared
			}
		case wasm.TableImport:
			hasTable = true
		}
	}

	for {
		openPC := v.pc()
		op, err := v.code.ReadByte()
		if err == io.EOF {
			break
		} else if err != nil {
			return v, err
		}

		opStruct, err := ops.New(op)
		if err != nil {
			return v, err
		}

		logger.Printf("pc=%d op=%s unreachable=%v", openPC, opStruct.Name, v.topFrameUnreachable())

		if !opStruct.Polymorphic {
			if err := v.adjustStack(opStruct); err != nil {
				return v, err
			}
		}

		switch op {
		case ops.Block, ops.If:
			bt, err := v.fetchBlockType()
			if err != nil {
				return v, err
			}
			ft, err := bt.Signature(v.types)
			if err != nil {
				return v, err
			}
			if op == ops.If {
				if err := popExpect(v, wasm.ValueTypeI32); err != nil {
					return v, err
				}
			}
			if err := popParams(v, ft.Params); err != nil {
				return v, err
			}
			// pushFrame must record the stack height with the params
			// already popped, not after pushing them back: they are
			// ordinary operands of the block's own body, not floor
			// beneath it, so the frame's floor excludes them.
			v.pushFrame(op, ft.Params, ft.Results, ft.Results, openPC)
			for _, t := range ft.Params {
				v.pushOperand(t)
			}

		case ops.Loop:
			bt, err := v.fetchBlockType()
			if err != nil {
				return v, err
			}
			ft, err := bt.Signature(v.types)
			if err != nil {
				return v, err
			}
			if err := popParams(v, ft.Params); err != nil {
				return v, err
			}
			// A branch to a loop re-enters at its start, carrying its
			// parameters (not its results) across the jump. As with
			// block/if above, the frame's floor is recorded before its
			// params are pushed back.
			v.pushFrame(op, ft.Params, ft.Params, ft.Results, openPC)
			v.jumpTable[openPC] = wasm.JumpTarget{TargetPC: v.pc(), Arity: wasm.ResultType(ft.Params).Cells()}
			for _, t := range ft.Params {
				v.pushOperand(t)
			}

		case ops.Else:
			f, err := v.popFrame()
			if err != nil {
				return v, err
			}
			if f == nil || f.op != ops.If {
				return v, UnmatchedOpError(op)
			}
			target := v.jumpTable[f.pc]
			target.ElseAddr = openPC + 1
			v.jumpTable[f.pc] = target
			// The else branch starts from the same operand-stack shape
			// the true branch did: the if's start types come back.
			v.pushFrame(op, f.startTypes, f.endTypes, f.endTypes, f.pc)
			for _, t := range f.startTypes {
				v.pushOperand(t)
			}

		case ops.End:
			f, err := v.popFrame()
			if err != nil {
				return v, err
			}
			switch {
			case f == nil:
				return v, UnmatchedOpError(op)
			case f.op == ops.If && !wasm.ResultType(f.startTypes).Equal(wasm.ResultType(f.endTypes)):
				// An if without an else skips its body entirely when the
				// condition is false, so it only typechecks when its
				// start and end types agree.
				t := f.startTypes
				if len(f.endTypes) > 0 {
					t = f.endTypes
				}
				return v, UnmatchedIfValueErr(t[0])
			}
			endPC := v.pc()
			if f.op != ops.Loop && f.op != ops.Call {
				target := v.jumpTable[f.pc]
				target.TargetPC = endPC
				target.Arity = wasm.ResultType(f.endTypes).Cells()
				if f.op == ops.If && target.ElseAddr == 0 {
					target.ElseAddr = endPC
				}
				v.jumpTable[f.pc] = target
			}
			if f.op == ops.Call {
				// The function body's own terminating end: popFrame
				// already checked the operand stack against the
				// declared result types, so the body is done.
				body.Code.Info = &wasm.ExecInfo{JumpTable: v.jumpTable, MaxDepth: v.maxDepth}
				return v, nil
			}
			for _, t := range f.endTypes {
				v.pushOperand(t)
			}

		case ops.Br:
			depth, err := v.fetchVarUint()
			if err != nil {
				return v, err
			}
			if int(depth) >= len(v.ctrlFrames) {
				return v, InvalidLabelError(depth)
			}
			f := v.getFrameFromDepth(int(depth))
			if err := popLabelTypes(v, f); err != nil {
				return v, err
			}
			v.setUnreachable()

		case ops.BrIf:
			depth, err := v.fetchVarUint()
			if err != nil {
				return v, err
			}
			if int(depth) >= len(v.ctrlFrames) {
				return v, InvalidLabelError(depth)
			}
			if err := popExpect(v, wasm.ValueTypeI32); err != nil {
				return v, err
			}
			f := v.getFrameFromDepth(int(depth))
			if err := popLabelTypes(v, f); err != nil {
				return v, err
			}
			for _, t := range f.labelTypes {
				v.pushOperand(t)
			}

		case ops.BrTable:
			if err := popExpect(v, wasm.ValueTypeI32); err != nil {
				return v, err
			}
			count, err := v.fetchVarUint()
			if err != nil {
				return v, err
			}
			targets := make([]uint32, count)
			for i := range targets {
				d, err := v.fetchVarUint()
				if err != nil {
					return v, err
				}
				if int(d) >= len(v.ctrlFrames) {
					return v, InvalidLabelError(d)
				}
				targets[i] = d
			}
			def, err := v.fetchVarUint()
			if err != nil {
				return v, err
			}
			if int(def) >= len(v.ctrlFrames) {
				return v, InvalidLabelError(def)
			}
			defFrame := v.getFrameFromDepth(int(def))
			for _, t := range targets {
				if err := defFrame.matchingLabelTypes(v.getFrameFromDepth(int(t))); err != nil {
					return v, err
				}
			}
			if err := popLabelTypes(v, defFrame); err != nil {
				return v, err
			}
			v.setUnreachable()

		case ops.Return:
			if err := popParams(v, v.sig.Results); err != nil {
				return v, err
			}
			v.setUnreachable()

		case ops.Unreachable:
			v.setUnreachable()

		case ops.I32Const:
			if _, err := v.fetchVarInt(); err != nil {
				return v, err
			}
		case ops.I64Const:
			if _, err := v.fetchVarInt64(); err != nil {
				return v, err
			}
		case ops.F32Const:
			if _, err := v.fetchUint32(); err != nil {
				return v, err
			}
		case ops.F64Const:
			if _, err := v.fetchUint64(); err != nil {
				return v, err
			}

		case ops.GetLocal, ops.SetLocal, ops.TeeLocal:
			i, err := v.fetchVarUint()
			if err != nil {
				return v, err
			}
			if int(i) >= len(locals) {
				return v, InvalidLocalIndexError(i)
			}
			t := locals[i]
			switch op {
			case ops.GetLocal:
				v.pushOperand(t)
			default:
				o, err := v.popOperand()
				if err != nil {
					return v, err
				}
				if !o.Equal(t) {
					return v, InvalidTypeError{t, o.Type}
				}
				if op == ops.TeeLocal {
					v.pushOperand(t)
				}
			}

		case ops.GetGlobal, ops.SetGlobal:
			i, err := v.fetchVarUint()
			if err != nil {
				return v, err
			}
			g := mod.GetGlobal(int(i))
			if g == nil {
				return v, wasm.InvalidGlobalIndexError(i)
			}
			if op == ops.GetGlobal {
				v.pushOperand(g.Type.Type)
			} else {
				if !g.Type.Mutable {
					return v, ErrImmutableGlobal
				}
				if err := popExpect(v, g.Type.Type); err != nil {
					return v, err
				}
			}

		case ops.I32Load, ops.I64Load, ops.F32Load, ops.F64Load,
			ops.I32Load8s, ops.I32Load8u, ops.I32Load16s, ops.I32Load16u,
			ops.I64Load8s, ops.I64Load8u, ops.I64Load16s, ops.I64Load16u, ops.I64Load32s, ops.I64Load32u,
			ops.I32Store, ops.I64Store, ops.F32Store, ops.F64Store,
			ops.I32Store8, ops.I32Store16, ops.I64Store8, ops.I64Store16, ops.I64Store32,
			ops.I32AtomicLoad, ops.I64AtomicLoad, ops.I32AtomicStore, ops.I64AtomicStore,
			ops.I32AtomicRmwAdd, ops.I64AtomicRmwAdd, ops.I32AtomicRmwCmpxchg, ops.I64AtomicRmwCmpxchg:
			if !hasMem {
				return v, InvalidTableIndexError{"memory", 0}
			}
			if err := validateAlignment(v, op, opStruct.Name); err != nil {
				return v, err
			}

		case ops.MemoryAtomicWait32, ops.MemoryAtomicWait64, ops.MemoryAtomicNotify:
			if !memShared {
				return v, ErrSharedMemoryRequired
			}
			if err := validateAlignment(v, op, opStruct.Name); err != nil {
				return v, err
			}

		case ops.AtomicFence:
			// no immediate, no operands

		case ops.CurrentMemory, ops.GrowMemory:
			idx, err := v.fetchByte()
			if err != nil {
				return v, err
			}
			if idx != 0x00 {
				return v, InvalidTableIndexError{"memory", uint32(idx)}
			}
			if !hasMem {
				return v, InvalidTableIndexError{"memory", 0}
			}

		case ops.TableSize:
			idx, err := v.fetchByte()
			if err != nil {
				return v, err
			}
			if idx != 0x00 {
				return v, InvalidTableIndexError{"table", uint32(idx)}
			}
			if !hasTable {
				return v, InvalidTableIndexError{"table", 0}
			}

		case ops.MemoryInit, ops.DataDrop:
			// Both refer to a data segment by index, which a module may
			// only do when it declared a data-count section: without
			// one, segment indices can't be checked before the data
			// section has been decoded.
			if !mod.HasDataCount {
				return v, ErrDataCountRequired
			}
			segIdx, err := v.fetchVarUint()
			if err != nil {
				return v, err
			}
			if int(segIdx) >= len(mod.Data) {
				return v, InvalidTableIndexError{"data segment", segIdx}
			}
			if op == ops.MemoryInit {
				idx, err := v.fetchByte()
				if err != nil {
					return v, err
				}
				if idx != 0x00 {
					return v, InvalidTableIndexError{"memory", uint32(idx)}
				}
				if !hasMem {
					return v, InvalidTableIndexError{"memory", 0}
				}
			}

		case ops.MemoryCopy, ops.MemoryFill:
			n := 1
			if op == ops.MemoryCopy {
				n = 2
			}
			for ; n > 0; n-- {
				idx, err := v.fetchByte()
				if err != nil {
					return v, err
				}
				if idx != 0x00 {
					return v, InvalidTableIndexError{"memory", uint32(idx)}
				}
			}
			if !hasMem {
				return v, InvalidTableIndexError{"memory", 0}
			}

		case ops.TableInit, ops.ElemDrop, ops.TableCopy:
			first, err := v.fetchVarUint()
			if err != nil {
				return v, err
			}
			switch op {
			case ops.TableInit, ops.ElemDrop:
				if int(first) >= len(mod.Elements) {
					return v, InvalidTableIndexError{"element segment", first}
				}
			default: // table.copy: first immediate is the destination table
				if first != 0 {
					return v, InvalidTableIndexError{"table", first}
				}
			}
			if op != ops.ElemDrop {
				tblIdx, err := v.fetchVarUint()
				if err != nil {
					return v, err
				}
				if tblIdx != 0 {
					return v, InvalidTableIndexError{"table", tblIdx}
				}
				if !hasTable {
					return v, InvalidTableIndexError{"table", 0}
				}
			}

		case ops.Call:
			i, err := v.fetchVarUint()
			if err != nil {
				return v, err
			}
			ft, err := mod.FuncType(int(i))
			if err != nil {
				return v, err
			}
			if err := popParams(v, ft.Params); err != nil {
				return v, err
			}
			for _, t := range ft.Results {
				v.pushOperand(t)
			}

		case ops.CallIndirect:
			i, err := v.fetchVarUint()
			if err != nil {
				return v, err
			}
			tableIdx, err := v.fetchByte()
			if err != nil {
				return v, err
			}
			if tableIdx != 0x00 {
				return v, InvalidTableIndexError{"table", uint32(tableIdx)}
			}
			if !hasTable {
				return v, InvalidTableIndexError{"table", 0}
			}
			if int(i) >= len(mod.Types) {
				return v, wasm.InvalidTypeIndexError(i)
			}
			ft := mod.Types[i]

			o, err := v.popOperand()
			if err != nil {
				return v, err
			}
			if !o.Equal(wasm.ValueTypeI32) {
				return v, InvalidTypeError{wasm.ValueTypeI32, o.Type}
			}
			if err := popParams(v, ft.Params); err != nil {
				return v, err
			}
			for _, t := range ft.Results {
				v.pushOperand(t)
			}

		case ops.Drop:
			if _, err := v.popOperand(); err != nil {
				return v, err
			}

		case ops.Select:
			cond, err := v.popOperand()
			if err != nil {
				return v, err
			}
			if !cond.Equal(wasm.ValueTypeI32) {
				return v, InvalidTypeError{wasm.ValueTypeI32, cond.Type}
			}
			a, err := v.popOperand()
			if err != nil {
				return v, err
			}
			b, err := v.popOperand()
			if err != nil {
				return v, err
			}
			if !a.Equal(b.Type) {
				return v, InvalidTypeError{b.Type, a.Type}
			}
			v.pushOperand(b.Type)

		case ops.RefFunc:
			i, err := v.fetchVarUint()
			if err != nil {
				return v, err
			}
			if int(i) >= len(mod.FuncIndexSpace) {
				return v, wasm.InvalidFunctionIndexError(i)
			}

		case ops.RefIsNull:
			o, err := v.popOperand()
			if err != nil {
				return v, err
			}
			if !o.Type.IsReference() && o.Type != unknownType {
				return v, InvalidTypeError{wasm.ValueTypeFuncRef, o.Type}
			}
			v.pushOperand(wasm.ValueTypeI32)

		case ops.TableGet, ops.TableSet, ops.TableGrow, ops.TableFill:
			idx, err := v.fetchVarUint()
			if err != nil {
				return v, err
			}
			if idx != 0 {
				return v, InvalidTableIndexError{"table", idx}
			}
			if !hasTable {
				return v, InvalidTableIndexError{"table", 0}
			}
			// The single MVP table holds funcrefs, so the reference
			// operand every one of these carries is typed as funcref.
			switch op {
			case ops.TableGet:
				if err := popExpect(v, wasm.ValueTypeI32); err != nil {
					return v, err
				}
				v.pushOperand(wasm.ValueTypeFuncRef)
			case ops.TableSet:
				if err := popExpect(v, wasm.ValueTypeFuncRef); err != nil {
					return v, err
				}
				if err := popExpect(v, wasm.ValueTypeI32); err != nil {
					return v, err
				}
			case ops.TableGrow:
				if err := popExpect(v, wasm.ValueTypeI32); err != nil {
					return v, err
				}
				if err := popExpect(v, wasm.ValueTypeFuncRef); err != nil {
					return v, err
				}
				v.pushOperand(wasm.ValueTypeI32)
			case ops.TableFill:
				if err := popExpect(v, wasm.ValueTypeI32); err != nil {
					return v, err
				}
				if err := popExpect(v, wasm.ValueTypeFuncRef); err != nil {
					return v, err
				}
				if err := popExpect(v, wasm.ValueTypeI32); err != nil {
					return v, err
				}
			}
		}
	}

	return v, errMissingFunctionEnd
}

func popLabelTypes(v *vm, f *frame) error {
	for i := len(f.labelTypes) - 1; i >= 0; i-- {
		o, err := v.popOperand()
		if err != nil {
			return err
		}
		if !o.Equal(f.labelTypes[i]) {
			return InvalidTypeError{f.labelTypes[i], o.Type}
		}
	}
	return nil
}

func popExpect(v *vm, want wasm.ValueType) error {
	o, err := v.popOperand()
	if err != nil {
		return err
	}
	if !o.Equal(want) {
		return InvalidTypeError{want, o.Type}
	}
	return nil
}

func popParams(v *vm, params []wasm.ValueType) error {
	for i := len(params) - 1; i >= 0; i-- {
		o, err := v.popOperand()
		if err != nil {
			return err
		}
		if !o.Equal(params[i]) {
			return InvalidTypeError{params[i], o.Type}
		}
	}
	return nil
}

func validateAlignment(v *vm, op byte, name string) error {
	align, err := v.fetchVarUint()
	if err != nil {
		return err
	}
	if _, err := v.fetchVarUint(); err != nil { // offset
		return err
	}
	var max uint32
	switch op {
	case ops.I32Load8s, ops.I32Load8u, ops.I64Load8s, ops.I64Load8u, ops.I32Store8, ops.I64Store8:
		max = 0
	case ops.I32Load16s, ops.I32Load16u, ops.I64Load16s, ops.I64Load16u, ops.I32Store16, ops.I64Store16:
		max = 1
	case ops.I32Load, ops.I64Load32s, ops.I64Load32u, ops.F32Load, ops.I32Store, ops.I64Store32, ops.F32Store,
		ops.I32AtomicLoad, ops.I32AtomicStore, ops.I32AtomicRmwAdd, ops.I32AtomicRmwCmpxchg, ops.MemoryAtomicNotify, ops.MemoryAtomicWait32:
		max = 2
	case ops.I64Load, ops.F64Load, ops.I64Store, ops.F64Store, ops.I64AtomicLoad, ops.I64AtomicStore,
		ops.I64AtomicRmwAdd, ops.MemoryAtomicWait64, ops.I64AtomicRmwCmpxchg:
		max = 3
	}
	if align > max {
		return InvalidImmediateError{OpName: name, ImmType: "naturally aligned"}
	}
	return nil
}

// Validate typechecks every function body in mod, annotating each with
// the jump table the executor needs. It reports the first error
// encountered.
func Validate(mod *wasm.Module) error {
	for i := mod.NumImportedFuncs(); i < len(mod.FuncIndexSpace); i++ {
		fn := &mod.FuncIndexSpace[i]
		logger.Printf("validating function %d (%q)", i, fn.Name)
		v, err := verifyBody(mod, fn)
		if err != nil {
			return Error{int(v.pc()), i, err}
		}
	}
	return nil
}
