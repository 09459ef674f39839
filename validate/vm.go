// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package validate

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/gowasm/corewasm/wasm"
	"github.com/gowasm/corewasm/wasm/leb128"
	ops "github.com/gowasm/corewasm/wasm/operators"
)

// vm is a minimal virtual machine used only for typechecking a
// function body: it tracks the operand-type stack and the control
// frame stack, and as a side effect builds the jump table the
// executor needs to resolve br/br_if/br_table/if-else at runtime.
type vm struct {
	origLength int
	code       *bytes.Reader

	stack      []operand
	ctrlFrames []frame

	sig   wasm.FuncType
	types []wasm.FuncType

	jumpTable map[uint32]wasm.JumpTarget
	maxDepth  int
}

// frame represents one structured control instruction (or the
// function itself, for the outermost frame).
type frame struct {
	pc          uint32           // pc of the instruction that opened this frame
	startTypes  []wasm.ValueType // operand types on entry (the block's params)
	labelTypes  []wasm.ValueType // types a branch to this frame must carry
	endTypes    []wasm.ValueType // types this frame leaves on the stack once closed
	stackHeight int

	op          byte
	unreachable bool
}

func (f *frame) matchingLabelTypes(in *frame) error {
	if len(f.labelTypes) != len(in.labelTypes) {
		return fmt.Errorf("label type len mismatch: %d != %d", len(f.labelTypes), len(in.labelTypes))
	}
	for i := range f.labelTypes {
		if !(operand{f.labelTypes[i]}).Equal(in.labelTypes[i]) {
			return InvalidTypeError{f.labelTypes[i], in.labelTypes[i]}
		}
	}
	return nil
}

func (vm *vm) fetchVarUint() (uint32, error) { return leb128.ReadVarUint32(vm.code) }
func (vm *vm) fetchVarInt() (int32, error)   { return leb128.ReadVarint32(vm.code) }
func (vm *vm) fetchVarInt64() (int64, error) { return leb128.ReadVarint64(vm.code) }
func (vm *vm) fetchByte() (byte, error)      { return vm.code.ReadByte() }

func (vm *vm) fetchUint32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(vm.code, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (vm *vm) fetchUint64() (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(vm.code, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// fetchBlockType reads a block type immediate: a signed LEB128 that is
// either the empty marker (-0x40), a single inline value type (the
// small negative ValueType constants), or a non-negative module type
// index for a full, possibly multi-value, signature.
func (vm *vm) fetchBlockType() (wasm.BlockType, error) {
	v, err := vm.fetchVarInt()
	if err != nil {
		return wasm.BlockType{}, err
	}
	switch {
	case v == -0x40:
		return wasm.BlockType{Empty: true}, nil
	case v < 0:
		return wasm.BlockType{Inline: wasm.ValueType(v), TypeIndex: -1}, nil
	default:
		return wasm.BlockType{TypeIndex: v}, nil
	}
}

func (vm *vm) pushFrame(op byte, startTypes, labelTypes, endTypes []wasm.ValueType, openPC uint32) {
	vm.ctrlFrames = append(vm.ctrlFrames, frame{
		pc:          openPC,
		stackHeight: len(vm.stack),
		startTypes:  startTypes,
		labelTypes:  labelTypes,
		endTypes:    endTypes,
		op:          op,
	})
	logger.Printf("pushed frame %+v", vm.topFrame())
}

func (vm *vm) getFrameFromDepth(depth int) *frame {
	if depth >= len(vm.ctrlFrames) {
		return nil
	}
	return &vm.ctrlFrames[len(vm.ctrlFrames)-1-depth]
}

func (vm *vm) popFrame() (*frame, error) {
	top := vm.topFrame()
	if top == nil {
		return nil, errors.New("validate: missing frame")
	}
	for i := len(top.endTypes) - 1; i >= 0; i-- {
		ret := top.endTypes[i]
		op, err := vm.popOperand()
		if err != nil {
			return nil, err
		}
		if !op.Equal(ret) {
			return nil, InvalidTypeError{ret, op.Type}
		}
	}
	if len(vm.stack) != top.stackHeight {
		return nil, UnbalancedStackErr(vm.stack[len(vm.stack)-1].Type)
	}
	vm.ctrlFrames = vm.ctrlFrames[:len(vm.ctrlFrames)-1]
	return top, nil
}

func (vm *vm) topFrame() *frame {
	if len(vm.ctrlFrames) == 0 {
		return nil
	}
	return &vm.ctrlFrames[len(vm.ctrlFrames)-1]
}

func (vm *vm) topFrameUnreachable() bool {
	return vm.topFrame().unreachable
}

// popOperand returns the operand stack's top entry. Under an
// unreachable frame, popping past the frame's floor yields an
// unknownType operand instead of underflowing: dead code downstream of
// unreachable/br/return is still validated for shape, not for type.
func (vm *vm) popOperand() (op operand, err error) {
	if len(vm.stack) == vm.topFrame().stackHeight {
		if vm.topFrameUnreachable() {
			return operand{unknownType}, nil
		}
		return op, ErrStackUnderflow
	}
	nl := len(vm.stack) - 1
	op = vm.stack[nl]
	vm.stack = vm.stack[:nl]
	return op, nil
}

func (vm *vm) pushOperand(t wasm.ValueType) {
	vm.stack = append(vm.stack, operand{t})
	if len(vm.stack) > vm.maxDepth {
		vm.maxDepth = len(vm.stack)
	}
}

func (vm *vm) adjustStack(op ops.Op) error {
	for _, t := range op.Args {
		o, err := vm.popOperand()
		if err != nil {
			return err
		}
		if !o.Equal(t) {
			return InvalidTypeError{t, o.Type}
		}
	}
	if op.Returns != noReturn {
		vm.pushOperand(op.Returns)
	}
	return nil
}

func (vm *vm) setUnreachable() {
	f := vm.topFrame()
	f.unreachable = true
	vm.stack = vm.stack[:f.stackHeight]
}

func (vm *vm) pc() uint32 {
	return uint32(vm.origLength - vm.code.Len())
}
