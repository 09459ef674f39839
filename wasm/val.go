// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import "math"

// RefNull is the sentinel value of a null function/extern reference.
const RefNull uint64 = math.MaxUint64

// Val is a tagged union over ValueType. Numeric values are stored bit
// for bit in Lo (and, for v128, Hi); reference types store their
// index (or RefNull) in Lo.
type Val struct {
	Type ValueType
	Lo   uint64
	Hi   uint64 // only meaningful for ValueTypeV128
}

func I32Val(v int32) Val { return Val{Type: ValueTypeI32, Lo: uint64(uint32(v))} }

func I64Val(v int64) Val { return Val{Type: ValueTypeI64, Lo: uint64(v)} }

func F32Val(v float32) Val { return Val{Type: ValueTypeF32, Lo: uint64(math.Float32bits(v))} }

func F64Val(v float64) Val { return Val{Type: ValueTypeF64, Lo: math.Float64bits(v)} }

func (v Val) I32() int32 { return int32(uint32(v.Lo)) }

func (v Val) I64() int64 { return int64(v.Lo) }

func (v Val) F32() float32 { return math.Float32frombits(uint32(v.Lo)) }

func (v Val) F64() float64 { return math.Float64frombits(v.Lo) }

func (v Val) IsNullRef() bool { return v.Type.IsReference() && v.Lo == RefNull }

// ToCells packs v into consecutive 32-bit cells, writing Type.Cells()
// of them starting at dst[0].
func (v Val) ToCells(dst []uint32) {
	switch v.Type {
	case ValueTypeI64, ValueTypeF64:
		dst[0] = uint32(v.Lo)
		dst[1] = uint32(v.Lo >> 32)
	case ValueTypeV128:
		dst[0] = uint32(v.Lo)
		dst[1] = uint32(v.Lo >> 32)
		dst[2] = uint32(v.Hi)
		dst[3] = uint32(v.Hi >> 32)
	default:
		dst[0] = uint32(v.Lo)
	}
}

// ValFromCells is the inverse of ToCells: it reconstructs a Val of the
// given type from its packed cell representation.
func ValFromCells(t ValueType, cells []uint32) Val {
	switch t {
	case ValueTypeI64, ValueTypeF64:
		return Val{Type: t, Lo: uint64(cells[0]) | uint64(cells[1])<<32}
	case ValueTypeV128:
		return Val{
			Type: t,
			Lo:   uint64(cells[0]) | uint64(cells[1])<<32,
			Hi:   uint64(cells[2]) | uint64(cells[3])<<32,
		}
	default:
		return Val{Type: t, Lo: uint64(cells[0])}
	}
}
