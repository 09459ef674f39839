// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package validate

import (
	"errors"
	"fmt"

	"github.com/gowasm/corewasm/wasm"
	ops "github.com/gowasm/corewasm/wasm/operators"
)

// Error wraps a validation error with the location it was found at.
type Error struct {
	Offset   int // byte offset in the function body where the error occurs
	Function int // index into the function index space
	Err      error
}

func (e Error) Error() string {
	return fmt.Sprintf("error while validating function %d at offset %d: %v", e.Function, e.Offset, e.Err)
}

func (e Error) Unwrap() error { return e.Err }

// ErrStackUnderflow is returned if an instruction consumes a value but
// there are no values on the stack.
var ErrStackUnderflow = errors.New("validate: stack underflow")

// errMissingFunctionEnd is returned when a function body's instruction
// stream runs out before its terminating end has been seen.
var errMissingFunctionEnd = errors.New("validate: function body missing terminating end")

// ErrImmutableGlobal is returned for a global.set targeting a global
// declared immutable.
var ErrImmutableGlobal = errors.New("validate: global.set on an immutable global")

// ErrDataCountRequired is returned when memory.init or data.drop is
// used by a module that carries no data-count section.
var ErrDataCountRequired = errors.New("validate: memory.init/data.drop require a data-count section")

// InvalidImmediateError is returned if the immediate value provided is
// invalid for the given instruction.
type InvalidImmediateError struct {
	ImmType string
	OpName  string
}

func (e InvalidImmediateError) Error() string {
	return fmt.Sprintf("invalid immediate for op %s (should be %s)", e.OpName, e.ImmType)
}

// UnmatchedOpError is returned if a block has no matching end, or an
// else appears outside of an if block.
type UnmatchedOpError byte

func (e UnmatchedOpError) Error() string {
	n, _ := ops.New(byte(e))
	return fmt.Sprintf("encountered unmatched %s", n.Name)
}

// InvalidLabelError is returned when a branch targets a nesting depth
// that doesn't exist.
type InvalidLabelError uint32

func (e InvalidLabelError) Error() string {
	return fmt.Sprintf("invalid nesting depth %d", uint32(e))
}

// UnmatchedIfValueErr is returned if an if block without an else
// produces a result.
type UnmatchedIfValueErr wasm.ValueType

func (e UnmatchedIfValueErr) Error() string {
	return fmt.Sprintf("if block returns value of type %v but no else present", wasm.ValueType(e))
}

// InvalidTableIndexError is returned for an index immediate that names
// no existing entry: a non-zero memory/table index (multiple
// tables/memories are not part of this module's scope beyond index 0
// plus the shared-memory atomics case), memory/table index 0 when the
// module has none, or an out-of-range data or element segment index.
type InvalidTableIndexError struct {
	Kind  string
	Index uint32
}

func (e InvalidTableIndexError) Error() string {
	return fmt.Sprintf("invalid index %d for %s", e.Index, e.Kind)
}

// InvalidLocalIndexError is returned if a local variable index doesn't
// exist.
type InvalidLocalIndexError uint32

func (e InvalidLocalIndexError) Error() string {
	return fmt.Sprintf("invalid index for local variable %d", uint32(e))
}

// InvalidTypeError is returned on a mismatch between the type(s) an
// operator accepts and the value found on the stack.
type InvalidTypeError struct {
	Wanted wasm.ValueType
	Got    wasm.ValueType
}

func valueTypeStr(v wasm.ValueType) string {
	switch v {
	case noReturn:
		return "void"
	case unknownType:
		return "anytype"
	default:
		return v.String()
	}
}

func (e InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid type, got: %v, wanted: %v", valueTypeStr(e.Got), valueTypeStr(e.Wanted))
}

// UnbalancedStackErr is returned if the operand stack holds more than
// a block's (or the function's) results at its end.
type UnbalancedStackErr wasm.ValueType

func (e UnbalancedStackErr) Error() string {
	return fmt.Sprintf("unbalanced stack (top of stack is %s)", valueTypeStr(wasm.ValueType(e)))
}

// ErrSharedMemoryRequired is returned when an atomic wait/notify
// instruction is validated against a module whose memory 0 is not
// declared shared.
var ErrSharedMemoryRequired = errors.New("validate: atomic wait/notify requires shared memory")
