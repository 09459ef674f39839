// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"github.com/gowasm/corewasm/wasm"
	ops "github.com/gowasm/corewasm/wasm/operators"
)

// run drives f's instruction stream to completion, leaving f's
// results on ctx.stack: fetch one opcode, dispatch to its handler, and
// either fall through to the next instruction or act on a control-flow
// event (branch, call already handled inline, or a trap/restart that
// unwinds the whole call).
func (ctx *ExecContext) run(f *callFrame) error {
	for !f.atEnd() {
		if err := ctx.checkInterrupt(); err != nil {
			return err
		}
		// One instruction pushes at most a handful of values, so a
		// per-instruction check bounds the stack as tightly as a
		// per-push one would without threading an error through every
		// push site.
		if len(ctx.stack) > ctx.opts.maxStackCells {
			return trap(TrapTooManyStackValues, "exceeded %d operand stack slots", ctx.opts.maxStackCells)
		}

		openPC := f.pc()
		op, err := f.fetchByte()
		if err != nil {
			return err
		}

		if err := ctx.exec1(f, op, openPC); err != nil {
			return err
		}
		if len(f.labels) == 0 {
			// A `return` or a branch all the way out of the function
			// rewound pc to the end of the body (see newCallFrame); the
			// next f.atEnd() check stops the loop.
			return nil
		}
	}
	return nil
}

// exec1 executes a single instruction already read from f's stream
// into op (at position openPC). Instruction immediates are read as a
// side effect here, mirroring exactly the byte layout validate.go
// consumed for the same opcode — the two packages must never diverge
// on how many bytes an immediate occupies.
func (ctx *ExecContext) exec1(f *callFrame, op byte, openPC uint32) error {
	mod := ctx.inst.Module

	switch op {
	case ops.Unreachable:
		return trap(TrapUnreachable, "unreachable executed")

	case ops.Nop:

	case ops.Block:
		ft, err := f.fetchBlockSignature(mod)
		if err != nil {
			return err
		}
		ctx.pushLabel(f, ft, f.jumpTarget(openPC), false)

	case ops.Loop:
		ft, err := f.fetchBlockSignature(mod)
		if err != nil {
			return err
		}
		ctx.pushLabel(f, ft, f.jumpTarget(openPC), true)

	case ops.If:
		ft, err := f.fetchBlockSignature(mod)
		if err != nil {
			return err
		}
		jt := f.jumpTarget(openPC)
		cond := ctx.pop()
		if cond != 0 {
			ctx.pushLabel(f, ft, jt, false)
			break
		}
		if jt.ElseAddr == 0 || jt.ElseAddr == jt.TargetPC {
			// No else clause: the params are already the results
			// (validate requires Params == Results in that case), so
			// skip straight past the matching end with no label pushed.
			f.seek(jt.TargetPC)
			break
		}
		f.seek(jt.ElseAddr)
		ctx.pushLabel(f, ft, jt, false)

	case ops.Else:
		// Reached by falling off the end of the true branch: the
		// result values are already on the stack in the right shape,
		// so this behaves like an unconditional jump to the matching
		// end, closing exactly the label the `if` pushed.
		l := f.labels[len(f.labels)-1]
		f.seek(l.targetPC)
		f.labels = f.labels[:len(f.labels)-1]

	case ops.End:
		if len(f.labels) > 1 {
			f.labels = f.labels[:len(f.labels)-1]
		}
		// len(f.labels) == 1 is the function body's own closing end:
		// nothing to pop, the loop's atEnd check ends the call.

	case ops.Br:
		depth, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		ctx.branch(f, int(depth))

	case ops.BrIf:
		depth, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		if ctx.pop() != 0 {
			ctx.branch(f, int(depth))
		}

	case ops.BrTable:
		count, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		targets := make([]uint32, count)
		for i := range targets {
			d, err := f.fetchVarUint()
			if err != nil {
				return err
			}
			targets[i] = d
		}
		def, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		idx := uint32(int32(ctx.pop()))
		depth := def
		if idx < uint32(len(targets)) {
			depth = targets[idx]
		}
		ctx.branch(f, int(depth))

	case ops.Return:
		ctx.branch(f, len(f.labels)-1)

	case ops.Call:
		idx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		if int(idx) >= len(ctx.inst.Funcs) {
			return wasm.InvalidFunctionIndexError(idx)
		}
		fn := ctx.inst.Funcs[idx]
		return ctx.doCall(fn)

	case ops.CallIndirect:
		typeIdx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		if _, err := f.fetchByte(); err != nil { // table index, always 0
			return err
		}
		if int(typeIdx) >= len(mod.Types) {
			return wasm.InvalidTypeIndexError(typeIdx)
		}
		if len(ctx.inst.Tables) == 0 {
			return trap(TrapCallIndirectOutOfBounds, "no table in this instance")
		}
		elemIdx := uint32(int32(ctx.pop()))
		t := ctx.inst.Tables[0]
		raw, ok := t.RawGet(elemIdx)
		if !ok {
			return trap(TrapCallIndirectOutOfBounds, "index %d exceeds table size %d", elemIdx, t.Size())
		}
		if raw == wasm.RefNull {
			return trap(TrapCallIndirectNullElement, "call_indirect through a null reference")
		}
		if raw >= uint64(len(ctx.inst.Funcs)) {
			return trap(TrapCallIndirectOutOfBounds, "table entry %d is not a valid function index", raw)
		}
		fn := ctx.inst.Funcs[raw]
		if !fn.Type.Equal(mod.Types[typeIdx]) {
			return trap(TrapCallIndirectSignatureMismatch, "want %v, table holds %v", mod.Types[typeIdx], fn.Type)
		}
		return ctx.doCall(fn)

	case ops.Drop:
		ctx.pop()

	case ops.Select:
		cond := ctx.pop()
		valFalse := ctx.pop()
		valTrue := ctx.pop()
		if cond != 0 {
			ctx.push(valTrue)
		} else {
			ctx.push(valFalse)
		}

	case ops.GetLocal:
		idx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		ctx.push(f.locals[idx])

	case ops.SetLocal:
		idx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		f.locals[idx] = ctx.pop()

	case ops.TeeLocal:
		idx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		v := ctx.pop()
		f.locals[idx] = v
		ctx.push(v)

	case ops.GetGlobal:
		idx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		ctx.push(ctx.inst.Globals[idx].Val.Lo)

	case ops.SetGlobal:
		idx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		ctx.inst.Globals[idx].Val.Lo = ctx.pop()

	case ops.I32Const:
		v, err := f.fetchVarInt()
		if err != nil {
			return err
		}
		ctx.push(uint64(uint32(v)))

	case ops.I64Const:
		v, err := f.fetchVarInt64()
		if err != nil {
			return err
		}
		ctx.push(uint64(v))

	case ops.F32Const:
		v, err := f.fetchUint32()
		if err != nil {
			return err
		}
		ctx.push(uint64(v))

	case ops.F64Const:
		v, err := f.fetchUint64()
		if err != nil {
			return err
		}
		ctx.push(v)

	case ops.RefNull:
		ctx.push(wasm.RefNull)

	case ops.RefIsNull:
		if ctx.pop() == wasm.RefNull {
			ctx.push(1)
		} else {
			ctx.push(0)
		}

	case ops.RefFunc:
		idx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		ctx.push(uint64(idx))

	default:
		return ctx.execNumericOrMemory(f, op)
	}
	return nil
}

// doCall invokes fn, popping its arguments off ctx.stack and pushing
// its results. Splitting this out of exec1 keeps both call sites
// (call and call_indirect) identical once the callee is resolved.
func (ctx *ExecContext) doCall(fn *FuncInst) error {
	args := ctx.popN(len(fn.Type.Params))
	results, err := ctx.call(fn, args)
	if err != nil {
		return err
	}
	ctx.pushN(results)
	return nil
}

// execNumericOrMemory handles every remaining opcode: numeric
// operators, memory/table access, bulk-memory, and atomics. It is
// split out of exec1 purely to keep that function's switch from
// growing unmanageably long; there is no semantic boundary between
// the two beyond instruction category.
func (ctx *ExecContext) execNumericOrMemory(f *callFrame, op byte) error {
	switch {
	case isLoadStoreOp(op):
		return ctx.execMemoryAccess(f, op)
	case isMemoryTableMiscOp(op):
		return ctx.execMiscOp(f, op)
	case isAtomicOp(op):
		return ctx.execAtomicOp(f, op)
	default:
		return ctx.execNumeric(op)
	}
}
