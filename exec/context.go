// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"bytes"
	"io"

	"github.com/gowasm/corewasm/wasm"
	"github.com/gowasm/corewasm/wasm/leb128"
)

// label is one entry of a frame's runtime control-flow stack: the
// branch target a br/br_if/br_table to this depth resolves to, and
// enough bookkeeping to rewind the operand stack across the jump. It
// mirrors validate's frame, but at runtime arity is counted in values
// (one operand-stack slot per value) rather than cells, since
// ExecContext's stack is not cell-packed.
type label struct {
	targetPC    uint32
	elseAddr    uint32
	arity       int
	isLoop      bool
	stackHeight int // operand stack height, relative to the frame's base, below the label's params
}

// callFrame is one activation of a Wasm function. Its instruction
// cursor is a *bytes.Reader over the function's code, the same
// mechanism validate/vm.go uses, so pc() and jumps (via Seek) read the
// same way in both packages.
type callFrame struct {
	fn     *FuncInst
	code   []byte
	r      *bytes.Reader
	locals []uint64
	labels []label
	base   int // ctx.stack height when this frame was entered
}

func newCallFrame(fn *FuncInst, locals []uint64, base int) *callFrame {
	code := fn.Def.Body.Code.Code
	return &callFrame{
		fn:     fn,
		code:   code,
		r:      bytes.NewReader(code),
		locals: locals,
		base:   base,
		// The outermost label represents the function body itself:
		// branching to it (an explicit return, or falling off the end)
		// rewinds to the body's own results and targets one past the
		// last byte, so run's atEnd loop condition stops it cleanly.
		labels: []label{{arity: len(fn.Type.Results), targetPC: uint32(len(code))}},
	}
}

func (f *callFrame) pc() uint32 {
	return uint32(len(f.code) - f.r.Len())
}

func (f *callFrame) seek(pc uint32) {
	f.r.Reset(f.code[pc:])
}

func (f *callFrame) atEnd() bool {
	return f.r.Len() == 0
}

func (f *callFrame) fetchByte() (byte, error) { return f.r.ReadByte() }

func (f *callFrame) fetchVarUint() (uint32, error) { return leb128.ReadVarUint32(f.r) }

func (f *callFrame) fetchVarInt() (int32, error) { return leb128.ReadVarint32(f.r) }

func (f *callFrame) fetchVarInt64() (int64, error) { return leb128.ReadVarint64(f.r) }

func (f *callFrame) fetchUint32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(f.r, buf[:]); err != nil {
		return 0, err
	}
	return byteOrder.Uint32(buf[:]), nil
}

func (f *callFrame) fetchUint64() (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(f.r, buf[:]); err != nil {
		return 0, err
	}
	return byteOrder.Uint64(buf[:]), nil
}

// fetchMemarg reads the align/offset immediate pair every load/store
// (and atomic load/store/rmw) instruction carries. Alignment has
// already been range-checked at validation time; the executor only
// needs the offset.
func (f *callFrame) fetchMemarg() (offset uint32, err error) {
	if _, err = f.fetchVarUint(); err != nil { // align, unused at runtime
		return 0, err
	}
	return f.fetchVarUint()
}

// fetchBlockSignature decodes a block/loop/if's block-type immediate,
// resolving it against mod's type section. Re-decoding it here (the
// validator already did, to build the jump table) keeps the jump
// table itself minimal: it only needs to carry TargetPC/ElseAddr.
func (f *callFrame) fetchBlockSignature(mod *wasm.Module) (wasm.FuncType, error) {
	v, err := f.fetchVarInt()
	if err != nil {
		return wasm.FuncType{}, err
	}
	var bt wasm.BlockType
	switch {
	case v == -0x40:
		bt = wasm.BlockType{Empty: true}
	case v < 0:
		bt = wasm.BlockType{Inline: wasm.ValueType(v), TypeIndex: -1}
	default:
		bt = wasm.BlockType{TypeIndex: v}
	}
	return bt.Signature(mod.Types)
}

// jumpTarget looks up the jump table entry the validator computed for
// the control opcode at pc (the PC of the block/loop/if/else itself).
func (f *callFrame) jumpTarget(pc uint32) wasm.JumpTarget {
	return f.fn.Def.Body.Code.Info.JumpTable[pc]
}

// ExecContext drives execution of calls into an Instance. It is not
// safe for concurrent use: callers running the same Instance from
// multiple goroutines (e.g. one cluster worker per Executor) must each
// use their own ExecContext.
type ExecContext struct {
	inst *Instance

	stack  []uint64
	frames []*callFrame

	opts instOptions

	restartRequested bool
}

// ErrRestart is the restart signal: the per-instruction interrupt
// check (and a host function that calls RequestRestart) return it
// instead of a Trap, telling the caller execution was interrupted
// rather than that it failed. It unwinds exactly like a Trap from the
// interpreter's point of view: the call's frames are discarded and
// the interrupted PC is not kept, so the caller continues by invoking
// the function again from its start. It is never reported to a
// Wasm-level catch/report sink, since it isn't one of the module's own
// trap codes.
var ErrRestart = errRestart{}

type errRestart struct{}

func (errRestart) Error() string { return "exec: execution interrupted, restart needed" }

// RequestRestart lets a host function ask the executor to unwind with
// ErrRestart instead of returning normally, mirroring
// schedule_call_from_hostfunc: used when a host call itself needs to
// suspend cooperatively.
func (ctx *ExecContext) RequestRestart() {
	ctx.restartRequested = true
}

// checkInterrupt polls the attached cluster's interrupt flag, if any,
// once per instruction. A set flag aborts the current call with
// ErrRestart before the next instruction runs. Execution does not
// resume at the interrupted instruction: the call unwinds, and a later
// Invoke on this ExecContext starts the function over.
func (ctx *ExecContext) checkInterrupt() error {
	if ctx.restartRequested {
		ctx.restartRequested = false
		return ErrRestart
	}
	if ctx.opts.cluster != nil && ctx.opts.cluster.Interrupted() {
		return ErrRestart
	}
	return nil
}

// NewExecContext creates an executor bound to inst.
func NewExecContext(inst *Instance, opts ...Option) *ExecContext {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &ExecContext{inst: inst, opts: o, stack: make([]uint64, 0, 64)}
}

// InvokeIndex calls the function at the given index in the instance's
// function index space.
func (ctx *ExecContext) InvokeIndex(index int, args []uint64) ([]uint64, error) {
	if index < 0 || index >= len(ctx.inst.Funcs) {
		return nil, wasm.InvalidFunctionIndexError(index)
	}
	return ctx.call(ctx.inst.Funcs[index], args)
}

// Invoke calls an exported function by name.
func (ctx *ExecContext) Invoke(name string, args ...uint64) ([]uint64, error) {
	fn, err := ctx.inst.ExportedFunc(name)
	if err != nil {
		return nil, err
	}
	return ctx.call(fn, args)
}

// call dispatches to a host function directly, or pushes a new
// callFrame and runs the interpreter loop for a Wasm function. Nested
// Wasm-to-Wasm calls recurse through this same function, so Go's call
// stack depth tracks Wasm call depth one-to-one; maxFrames bounds it
// before that becomes a problem.
func (ctx *ExecContext) call(fn *FuncInst, args []uint64) (results []uint64, err error) {
	if fn.IsHost() {
		return fn.Host(ctx, ctx.inst, args)
	}
	if len(ctx.frames) >= ctx.opts.maxFrames {
		return nil, trap(TrapTooManyFrames, "exceeded %d nested calls", ctx.opts.maxFrames)
	}

	locals := make([]uint64, len(wasm.LocalTypes(fn.Type, fn.Def.Body)))
	copy(locals, args)

	f := newCallFrame(fn, locals, len(ctx.stack))
	ctx.frames = append(ctx.frames, f)
	defer func() { ctx.frames = ctx.frames[:len(ctx.frames)-1] }()

	if err := ctx.run(f); err != nil {
		return nil, err
	}

	n := len(fn.Type.Results)
	results = make([]uint64, n)
	copy(results, ctx.stack[len(ctx.stack)-n:])
	ctx.stack = ctx.stack[:f.base]
	return results, nil
}

func (ctx *ExecContext) push(v uint64) {
	ctx.stack = append(ctx.stack, v)
}

func (ctx *ExecContext) pop() uint64 {
	n := len(ctx.stack) - 1
	v := ctx.stack[n]
	ctx.stack = ctx.stack[:n]
	return v
}

func (ctx *ExecContext) popN(n int) []uint64 {
	vs := make([]uint64, n)
	copy(vs, ctx.stack[len(ctx.stack)-n:])
	ctx.stack = ctx.stack[:len(ctx.stack)-n]
	return vs
}

func (ctx *ExecContext) pushN(vs []uint64) {
	ctx.stack = append(ctx.stack, vs...)
}

func (ctx *ExecContext) height(f *callFrame) int {
	return len(ctx.stack) - f.base
}

// pushLabel records a new control-flow label for a block/loop/if whose
// params (count len(ft.Params)) are already the top of the operand
// stack. stackHeight is recorded excluding those params, matching the
// fixed validation floor convention: the label's own params are valid
// operands within it, not part of the floor beneath it.
func (ctx *ExecContext) pushLabel(f *callFrame, ft wasm.FuncType, jt wasm.JumpTarget, isLoop bool) {
	arity := len(ft.Results)
	if isLoop {
		arity = len(ft.Params)
	}
	f.labels = append(f.labels, label{
		targetPC:    jt.TargetPC,
		elseAddr:    jt.ElseAddr,
		arity:       arity,
		isLoop:      isLoop,
		stackHeight: ctx.height(f) - len(ft.Params),
	})
}

// branch implements the stack-rewind/jump logic shared by br, br_if,
// br_table, and return: preserve the top target.arity values,
// truncate the operand stack down to the label's height, replay the
// preserved values, and move pc. A loop label is never removed (a
// branch to a loop re-enters it, dropping only labels nested inside
// the loop); any other label, along with everything nested inside it,
// is popped, since branching to it exits that construct.
func (ctx *ExecContext) branch(f *callFrame, depth int) {
	idx := len(f.labels) - 1 - depth
	l := f.labels[idx]

	top := ctx.popN(l.arity)
	ctx.stack = ctx.stack[:f.base+l.stackHeight]
	ctx.pushN(top)

	f.seek(l.targetPC)
	if l.isLoop {
		f.labels = f.labels[:idx+1]
	} else {
		f.labels = f.labels[:idx]
	}
}
