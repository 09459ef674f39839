// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wasm holds the data model a validated WebAssembly module is
// built from: value types, result types, function types, and the
// per-section entries (tables, memories, globals, imports, exports)
// that make up a parsed Module.
//
// Decoding a binary .wasm file into this representation is explicitly
// out of scope here (see the package doc on Module); values of these
// types are assumed to have already been produced by such a decoder.
package wasm

import "fmt"

// ValueType represents the type of a valid value in Wasm.
type ValueType int8

const (
	ValueTypeI32       ValueType = -0x01
	ValueTypeI64       ValueType = -0x02
	ValueTypeF32       ValueType = -0x03
	ValueTypeF64       ValueType = -0x04
	ValueTypeV128      ValueType = -0x05
	ValueTypeFuncRef   ValueType = -0x10
	ValueTypeExternRef ValueType = -0x11
)

var valueTypeStrMap = map[ValueType]string{
	ValueTypeI32:       "i32",
	ValueTypeI64:       "i64",
	ValueTypeF32:       "f32",
	ValueTypeF64:       "f64",
	ValueTypeV128:      "v128",
	ValueTypeFuncRef:   "funcref",
	ValueTypeExternRef: "externref",
}

func (t ValueType) String() string {
	str, ok := valueTypeStrMap[t]
	if !ok {
		str = fmt.Sprintf("<unknown value_type %d>", int8(t))
	}
	return str
}

// Cells reports how many 32-bit storage cells a value of this type
// occupies on the operand/local stack. I64 and F64 take two cells,
// V128 takes four; everything else (including reference types, which
// are stored as a single tagged cell) takes one.
func (t ValueType) Cells() uint32 {
	switch t {
	case ValueTypeI64, ValueTypeF64:
		return 2
	case ValueTypeV128:
		return 4
	default:
		return 1
	}
}

// IsReference reports whether t is one of the reference types.
func (t ValueType) IsReference() bool {
	return t == ValueTypeFuncRef || t == ValueTypeExternRef
}

// ResultType is an ordered sequence of ValueType, used for both a
// function's parameter list and its results, and for block/label
// signatures during validation.
type ResultType []ValueType

// Cells returns the total cell width of the result type.
func (rt ResultType) Cells() uint32 {
	var n uint32
	for _, t := range rt {
		n += t.Cells()
	}
	return n
}

// CellIndex returns the cell offset of the i-th value within rt, i.e.
// the sum of the cell widths of every value preceding it. This is the
// `cellidx` function of the data model: with values packed into a
// flat []uint32 (one slot per cell), CellIndex(rt, i) is where the
// i-th logical value begins.
func (rt ResultType) CellIndex(i int) uint32 {
	var n uint32
	for j := 0; j < i; j++ {
		n += rt[j].Cells()
	}
	return n
}

// Equal reports whether rt and other describe the same sequence of
// value types.
func (rt ResultType) Equal(other ResultType) bool {
	if len(rt) != len(other) {
		return false
	}
	for i := range rt {
		if rt[i] != other[i] {
			return false
		}
	}
	return true
}

func (rt ResultType) String() string {
	return fmt.Sprintf("%v", []ValueType(rt))
}

// FuncType is the signature of a function: an ordered parameter list
// and an ordered result list.
type FuncType struct {
	Params  ResultType
	Results ResultType
}

func (f FuncType) String() string {
	return fmt.Sprintf("<func %v -> %v>", f.Params, f.Results)
}

// Equal reports whether f and other have identical parameter and
// result lists.
func (f FuncType) Equal(other FuncType) bool {
	return f.Params.Equal(other.Params) && f.Results.Equal(other.Results)
}

// BlockType is the signature of a structured block: either the empty
// type, a single inline ValueType, or an index into the module's type
// section for a multi-value signature.
type BlockType struct {
	// Empty is true for a block with no parameters and no results.
	Empty bool
	// Inline is valid when Empty is false and TypeIndex < 0: a single
	// result value type encoded directly in the instruction stream.
	Inline ValueType
	// TypeIndex, when >= 0, indexes Module.Types for the full
	// (possibly multi-value) signature.
	TypeIndex int32
}

// Signature resolves a BlockType to a concrete FuncType given the
// enclosing module's type section.
func (b BlockType) Signature(types []FuncType) (FuncType, error) {
	if b.Empty {
		return FuncType{}, nil
	}
	if b.TypeIndex >= 0 {
		if int(b.TypeIndex) >= len(types) {
			return FuncType{}, InvalidTypeIndexError(b.TypeIndex)
		}
		return types[b.TypeIndex], nil
	}
	return FuncType{Results: ResultType{b.Inline}}, nil
}

// InvalidTypeIndexError is returned when a BlockType or call references
// a type index outside of the module's type section.
type InvalidTypeIndexError int32

func (e InvalidTypeIndexError) Error() string {
	return fmt.Sprintf("wasm: invalid type index: %d", int32(e))
}

// ElemType describes the type of a table's elements.
type ElemType ValueType

func (t ElemType) String() string {
	return ValueType(t).String()
}

// External describes the kind of the entry being imported or exported.
type External uint8

const (
	ExternalFunction External = 0
	ExternalTable    External = 1
	ExternalMemory   External = 2
	ExternalGlobal   External = 3
)

func (e External) String() string {
	switch e {
	case ExternalFunction:
		return "function"
	case ExternalTable:
		return "table"
	case ExternalMemory:
		return "memory"
	case ExternalGlobal:
		return "global"
	default:
		return "<unknown external_kind>"
	}
}

// ResizableLimits describes the limit of a table or linear memory.
type ResizableLimits struct {
	Initial uint32
	Maximum uint32 // valid only if HasMax
	HasMax  bool
	Shared  bool // threads proposal: memory is declared shared
}

// GlobalType describes the type and mutability of a declared global.
type GlobalType struct {
	Type    ValueType
	Mutable bool
}

// TableType describes a table: its element type and size limits.
type TableType struct {
	ElemType ElemType
	Limits   ResizableLimits
}

// MemoryType describes a linear memory's size limits and whether it
// is shared (accessible, and atomically operable on, from more than
// one Executor concurrently).
type MemoryType struct {
	Limits ResizableLimits
}
