// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package operators

import (
	"github.com/gowasm/corewasm/wasm"
)

var (
	I32Load    = newOp(0x28, "i32.load", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeI32)
	I64Load    = newOp(0x29, "i64.load", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeI64)
	F32Load    = newOp(0x2a, "f32.load", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeF32)
	F64Load    = newOp(0x2b, "f64.load", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeF64)
	I32Load8s  = newOp(0x2c, "i32.load8_s", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeI32)
	I32Load8u  = newOp(0x2d, "i32.load8_u", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeI32)
	I32Load16s = newOp(0x2e, "i32.load16_s", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeI32)
	I32Load16u = newOp(0x2f, "i32.load16_u", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeI32)
	I64Load8s  = newOp(0x30, "i64.load8_s", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeI64)
	I64Load8u  = newOp(0x31, "i64.load8_u", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeI64)
	I64Load16s = newOp(0x32, "i64.load16_s", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeI64)
	I64Load16u = newOp(0x33, "i64.load16_u", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeI64)
	I64Load32s = newOp(0x34, "i64.load32_s", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeI64)
	I64Load32u = newOp(0x35, "i64.load32_u", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeI64)

	// Store operands are popped value-then-address: the value sits on
	// top of the address on the operand stack.
	I32Store   = newOp(0x36, "i32.store", []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, noReturn)
	I64Store   = newOp(0x37, "i64.store", []wasm.ValueType{wasm.ValueTypeI64, wasm.ValueTypeI32}, noReturn)
	F32Store   = newOp(0x38, "f32.store", []wasm.ValueType{wasm.ValueTypeF32, wasm.ValueTypeI32}, noReturn)
	F64Store   = newOp(0x39, "f64.store", []wasm.ValueType{wasm.ValueTypeF64, wasm.ValueTypeI32}, noReturn)
	I32Store8  = newOp(0x3a, "i32.store8", []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, noReturn)
	I32Store16 = newOp(0x3b, "i32.store16", []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, noReturn)
	I64Store8  = newOp(0x3c, "i64.store8", []wasm.ValueType{wasm.ValueTypeI64, wasm.ValueTypeI32}, noReturn)
	I64Store16 = newOp(0x3d, "i64.store16", []wasm.ValueType{wasm.ValueTypeI64, wasm.ValueTypeI32}, noReturn)
	I64Store32 = newOp(0x3e, "i64.store32", []wasm.ValueType{wasm.ValueTypeI64, wasm.ValueTypeI32}, noReturn)

	CurrentMemory = newOp(0x3f, "memory.size", nil, wasm.ValueTypeI32)
	GrowMemory    = newOp(0x40, "memory.grow", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeI32)
)

// Bulk-memory and reference-type operators. The real encoding prefixes
// these with 0xFC; the external decoder maps them into this dense
// range instead (see the operators package doc).
var (
	// ref.null produces a funcref here: with a single funcref table per
	// module (the MVP shape this runtime handles), the heap-type
	// immediate the real encoding carries collapses to one case.
	RefNull   = newOp(0xd0, "ref.null", nil, wasm.ValueTypeFuncRef)
	RefIsNull = newPolymorphicOp(0xd1, "ref.is_null")
	RefFunc   = newOp(0xd2, "ref.func", nil, wasm.ValueTypeFuncRef)

	MemoryInit = newOp(0xd3, "memory.init", []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32, wasm.ValueTypeI32}, noReturn)
	DataDrop   = newOp(0xd4, "data.drop", nil, noReturn)
	MemoryCopy = newOp(0xd5, "memory.copy", []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32, wasm.ValueTypeI32}, noReturn)
	MemoryFill = newOp(0xd6, "memory.fill", []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32, wasm.ValueTypeI32}, noReturn)

	TableInit = newOp(0xd7, "table.init", []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32, wasm.ValueTypeI32}, noReturn)
	ElemDrop  = newOp(0xd8, "elem.drop", nil, noReturn)
	TableCopy = newOp(0xd9, "table.copy", []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32, wasm.ValueTypeI32}, noReturn)
	TableGrow = newPolymorphicOp(0xda, "table.grow") // arg type depends on the table's element type
	TableSize = newOp(0xdb, "table.size", nil, wasm.ValueTypeI32)
	TableFill = newPolymorphicOp(0xdc, "table.fill")
	TableGet  = newPolymorphicOp(0xdd, "table.get")
	TableSet  = newPolymorphicOp(0xde, "table.set")
)

// Threads-proposal atomic operators. The real encoding prefixes these
// with 0xFE; see the bulk-memory comment above for why corewasm's
// internal table flattens the prefix away.
var (
	AtomicFence = newOp(0xe0, "atomic.fence", nil, noReturn)

	I32AtomicLoad = newOp(0xe1, "i32.atomic.load", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeI32)
	I64AtomicLoad = newOp(0xe2, "i64.atomic.load", []wasm.ValueType{wasm.ValueTypeI32}, wasm.ValueTypeI64)

	I32AtomicStore = newOp(0xe3, "i32.atomic.store", []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, noReturn)
	I64AtomicStore = newOp(0xe4, "i64.atomic.store", []wasm.ValueType{wasm.ValueTypeI64, wasm.ValueTypeI32}, noReturn)

	// Read-modify-write atomics: only add and cmpxchg are defined, each
	// as its own constant with its own case in the executor's atomic
	// dispatch. sub/and/or/xor/xchg have no operator here.
	I32AtomicRmwAdd     = newOp(0xe5, "i32.atomic.rmw.add", []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, wasm.ValueTypeI32)
	I64AtomicRmwAdd     = newOp(0xe6, "i64.atomic.rmw.add", []wasm.ValueType{wasm.ValueTypeI64, wasm.ValueTypeI32}, wasm.ValueTypeI64)
	I32AtomicRmwCmpxchg = newOp(0xea, "i32.atomic.rmw.cmpxchg", []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32, wasm.ValueTypeI32}, wasm.ValueTypeI32)
	I64AtomicRmwCmpxchg = newOp(0xeb, "i64.atomic.rmw.cmpxchg", []wasm.ValueType{wasm.ValueTypeI64, wasm.ValueTypeI64, wasm.ValueTypeI32}, wasm.ValueTypeI64)

	MemoryAtomicWait32 = newOp(0xe7, "memory.atomic.wait32",
		[]wasm.ValueType{wasm.ValueTypeI64, wasm.ValueTypeI32, wasm.ValueTypeI32}, wasm.ValueTypeI32)
	MemoryAtomicWait64 = newOp(0xe8, "memory.atomic.wait64",
		[]wasm.ValueType{wasm.ValueTypeI64, wasm.ValueTypeI64, wasm.ValueTypeI32}, wasm.ValueTypeI32)
	MemoryAtomicNotify = newOp(0xe9, "memory.atomic.notify",
		[]wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, wasm.ValueTypeI32)
)
