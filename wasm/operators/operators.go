// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package operators is the opcode table for corewasm's internal,
// dense instruction encoding: one byte per operator, arguments and
// results already resolved to wasm.ValueType. An external decoder is
// responsible for collapsing the real WebAssembly binary encoding
// (including the 0xFC/0xFD/0xFE multi-byte prefixes for bulk-memory,
// SIMD and threads opcodes) into this flat space before a Module
// reaches the validator or executor; see the package doc on
// wasm.Module.
package operators

import (
	"fmt"
	"strings"

	"github.com/gowasm/corewasm/wasm"
)

// noReturn is the sentinel wasm.ValueType used for operators that do
// not push a value. It reuses the binary format's "empty block type"
// encoding (-0x40), which no real value type encodes to; the validator
// relies on the same constant when deciding whether an operator's
// result should be pushed onto its type stack.
const noReturn = wasm.ValueType(-0x40)

// Op describes one operator: its opcode, a human-readable name, the
// operand types it pops (in pop order — the first entry must match
// the current stack top) and the single value type it pushes, if any.
//
// Polymorphic is true for control, parametric and local/global access
// operators whose stack effect can't be expressed as a fixed
// pop/push list: the validator special-cases these directly instead
// of calling adjustStack.
type Op struct {
	Code        byte
	Name        string
	Args        []wasm.ValueType
	Returns     wasm.ValueType
	Polymorphic bool
}

// IsValid reports whether this Op was registered (as opposed to being
// the zero value returned for an unknown opcode).
func (o Op) IsValid() bool {
	return o.Name != ""
}

var ops [256]Op

func newOp(code byte, name string, args []wasm.ValueType, returns wasm.ValueType) byte {
	ops[code] = Op{Code: code, Name: name, Args: args, Returns: returns}
	return code
}

func newPolymorphicOp(code byte, name string) byte {
	ops[code] = Op{Code: code, Name: name, Returns: noReturn, Polymorphic: true}
	return code
}

// newConversionOp registers a numeric conversion operator whose
// argument and return types are derived from its canonical name,
// "<dest>.<mnemonic>/<src>" (e.g. "i32.wrap/i64", "i32.trunc_s/f32").
func newConversionOp(code byte, name string) byte {
	args, returns := conversionSignature(name)
	return newOp(code, name, args, returns)
}

func conversionSignature(name string) ([]wasm.ValueType, wasm.ValueType) {
	parts := strings.SplitN(name, "/", 2)
	dest := parts[0]
	if i := strings.IndexByte(dest, '.'); i >= 0 {
		dest = dest[:i]
	}
	src := parts[1]
	return []wasm.ValueType{typeByName(src)}, typeByName(dest)
}

func typeByName(s string) wasm.ValueType {
	switch s {
	case "i32":
		return wasm.ValueTypeI32
	case "i64":
		return wasm.ValueTypeI64
	case "f32":
		return wasm.ValueTypeF32
	case "f64":
		return wasm.ValueTypeF64
	default:
		return noReturn
	}
}

// UnknownOpcodeError is returned by New for a byte with no registered
// operator.
type UnknownOpcodeError byte

func (e UnknownOpcodeError) Error() string {
	return fmt.Sprintf("operators: unknown opcode %#x", byte(e))
}

// New looks up the Op for an opcode byte.
func New(b byte) (Op, error) {
	op := ops[b]
	if !op.IsValid() {
		return op, UnknownOpcodeError(b)
	}
	return op, nil
}

var (
	Unreachable  = newPolymorphicOp(0x00, "unreachable")
	Nop          = newOp(0x01, "nop", nil, noReturn)
	Block        = newPolymorphicOp(0x02, "block")
	Loop         = newPolymorphicOp(0x03, "loop")
	If           = newPolymorphicOp(0x04, "if")
	Else         = newPolymorphicOp(0x05, "else")
	End          = newPolymorphicOp(0x0b, "end")
	Br           = newPolymorphicOp(0x0c, "br")
	BrIf         = newPolymorphicOp(0x0d, "br_if")
	BrTable      = newPolymorphicOp(0x0e, "br_table")
	Return       = newPolymorphicOp(0x0f, "return")
	Call         = newPolymorphicOp(0x10, "call")
	CallIndirect = newPolymorphicOp(0x11, "call_indirect")

	Drop   = newPolymorphicOp(0x1a, "drop")
	Select = newPolymorphicOp(0x1b, "select")

	GetLocal  = newPolymorphicOp(0x20, "local.get")
	SetLocal  = newPolymorphicOp(0x21, "local.set")
	TeeLocal  = newPolymorphicOp(0x22, "local.tee")
	GetGlobal = newPolymorphicOp(0x23, "global.get")
	SetGlobal = newPolymorphicOp(0x24, "global.set")
)
