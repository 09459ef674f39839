// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package operators

import (
	"github.com/gowasm/corewasm/wasm"
)

var (
	I32Const = newOp(0x41, "i32.const", nil, wasm.ValueTypeI32)
	I64Const = newOp(0x42, "i64.const", nil, wasm.ValueTypeI64)
	F32Const = newOp(0x43, "f32.const", nil, wasm.ValueTypeF32)
	F64Const = newOp(0x44, "f64.const", nil, wasm.ValueTypeF64)
)

func binOp(code byte, name string, t wasm.ValueType) byte {
	return newOp(code, name, []wasm.ValueType{t, t}, t)
}

func relOp(code byte, name string, t wasm.ValueType) byte {
	return newOp(code, name, []wasm.ValueType{t, t}, wasm.ValueTypeI32)
}

func unOp(code byte, name string, t wasm.ValueType) byte {
	return newOp(code, name, []wasm.ValueType{t}, t)
}

func testOp(code byte, name string, t wasm.ValueType) byte {
	return newOp(code, name, []wasm.ValueType{t}, wasm.ValueTypeI32)
}

var (
	I32Eqz = testOp(0x45, "i32.eqz", wasm.ValueTypeI32)
	I32Eq  = relOp(0x46, "i32.eq", wasm.ValueTypeI32)
	I32Ne  = relOp(0x47, "i32.ne", wasm.ValueTypeI32)
	I32LtS = relOp(0x48, "i32.lt_s", wasm.ValueTypeI32)
	I32LtU = relOp(0x49, "i32.lt_u", wasm.ValueTypeI32)
	I32GtS = relOp(0x4a, "i32.gt_s", wasm.ValueTypeI32)
	I32GtU = relOp(0x4b, "i32.gt_u", wasm.ValueTypeI32)
	I32LeS = relOp(0x4c, "i32.le_s", wasm.ValueTypeI32)
	I32LeU = relOp(0x4d, "i32.le_u", wasm.ValueTypeI32)
	I32GeS = relOp(0x4e, "i32.ge_s", wasm.ValueTypeI32)
	I32GeU = relOp(0x4f, "i32.ge_u", wasm.ValueTypeI32)

	I64Eqz = testOp(0x50, "i64.eqz", wasm.ValueTypeI64)
	I64Eq  = relOp(0x51, "i64.eq", wasm.ValueTypeI64)
	I64Ne  = relOp(0x52, "i64.ne", wasm.ValueTypeI64)
	I64LtS = relOp(0x53, "i64.lt_s", wasm.ValueTypeI64)
	I64LtU = relOp(0x54, "i64.lt_u", wasm.ValueTypeI64)
	I64GtS = relOp(0x55, "i64.gt_s", wasm.ValueTypeI64)
	I64GtU = relOp(0x56, "i64.gt_u", wasm.ValueTypeI64)
	I64LeS = relOp(0x57, "i64.le_s", wasm.ValueTypeI64)
	I64LeU = relOp(0x58, "i64.le_u", wasm.ValueTypeI64)
	I64GeS = relOp(0x59, "i64.ge_s", wasm.ValueTypeI64)
	I64GeU = relOp(0x5a, "i64.ge_u", wasm.ValueTypeI64)

	F32Eq = relOp(0x5b, "f32.eq", wasm.ValueTypeF32)
	F32Ne = relOp(0x5c, "f32.ne", wasm.ValueTypeF32)
	F32Lt = relOp(0x5d, "f32.lt", wasm.ValueTypeF32)
	F32Gt = relOp(0x5e, "f32.gt", wasm.ValueTypeF32)
	F32Le = relOp(0x5f, "f32.le", wasm.ValueTypeF32)
	F32Ge = relOp(0x60, "f32.ge", wasm.ValueTypeF32)

	F64Eq = relOp(0x61, "f64.eq", wasm.ValueTypeF64)
	F64Ne = relOp(0x62, "f64.ne", wasm.ValueTypeF64)
	F64Lt = relOp(0x63, "f64.lt", wasm.ValueTypeF64)
	F64Gt = relOp(0x64, "f64.gt", wasm.ValueTypeF64)
	F64Le = relOp(0x65, "f64.le", wasm.ValueTypeF64)
	F64Ge = relOp(0x66, "f64.ge", wasm.ValueTypeF64)

	I32Clz    = unOp(0x67, "i32.clz", wasm.ValueTypeI32)
	I32Ctz    = unOp(0x68, "i32.ctz", wasm.ValueTypeI32)
	I32Popcnt = unOp(0x69, "i32.popcnt", wasm.ValueTypeI32)
	I32Add    = binOp(0x6a, "i32.add", wasm.ValueTypeI32)
	I32Sub    = binOp(0x6b, "i32.sub", wasm.ValueTypeI32)
	I32Mul    = binOp(0x6c, "i32.mul", wasm.ValueTypeI32)
	I32DivS   = binOp(0x6d, "i32.div_s", wasm.ValueTypeI32)
	I32DivU   = binOp(0x6e, "i32.div_u", wasm.ValueTypeI32)
	I32RemS   = binOp(0x6f, "i32.rem_s", wasm.ValueTypeI32)
	I32RemU   = binOp(0x70, "i32.rem_u", wasm.ValueTypeI32)
	I32And    = binOp(0x71, "i32.and", wasm.ValueTypeI32)
	I32Or     = binOp(0x72, "i32.or", wasm.ValueTypeI32)
	I32Xor    = binOp(0x73, "i32.xor", wasm.ValueTypeI32)
	I32Shl    = binOp(0x74, "i32.shl", wasm.ValueTypeI32)
	I32ShrS   = binOp(0x75, "i32.shr_s", wasm.ValueTypeI32)
	I32ShrU   = binOp(0x76, "i32.shr_u", wasm.ValueTypeI32)
	I32Rotl   = binOp(0x77, "i32.rotl", wasm.ValueTypeI32)
	I32Rotr   = binOp(0x78, "i32.rotr", wasm.ValueTypeI32)

	I64Clz    = unOp(0x79, "i64.clz", wasm.ValueTypeI64)
	I64Ctz    = unOp(0x7a, "i64.ctz", wasm.ValueTypeI64)
	I64Popcnt = unOp(0x7b, "i64.popcnt", wasm.ValueTypeI64)
	I64Add    = binOp(0x7c, "i64.add", wasm.ValueTypeI64)
	I64Sub    = binOp(0x7d, "i64.sub", wasm.ValueTypeI64)
	I64Mul    = binOp(0x7e, "i64.mul", wasm.ValueTypeI64)
	I64DivS   = binOp(0x7f, "i64.div_s", wasm.ValueTypeI64)
	I64DivU   = binOp(0x80, "i64.div_u", wasm.ValueTypeI64)
	I64RemS   = binOp(0x81, "i64.rem_s", wasm.ValueTypeI64)
	I64RemU   = binOp(0x82, "i64.rem_u", wasm.ValueTypeI64)
	I64And    = binOp(0x83, "i64.and", wasm.ValueTypeI64)
	I64Or     = binOp(0x84, "i64.or", wasm.ValueTypeI64)
	I64Xor    = binOp(0x85, "i64.xor", wasm.ValueTypeI64)
	I64Shl    = binOp(0x86, "i64.shl", wasm.ValueTypeI64)
	I64ShrS   = binOp(0x87, "i64.shr_s", wasm.ValueTypeI64)
	I64ShrU   = binOp(0x88, "i64.shr_u", wasm.ValueTypeI64)
	I64Rotl   = binOp(0x89, "i64.rotl", wasm.ValueTypeI64)
	I64Rotr   = binOp(0x8a, "i64.rotr", wasm.ValueTypeI64)

	F32Abs      = unOp(0x8b, "f32.abs", wasm.ValueTypeF32)
	F32Neg      = unOp(0x8c, "f32.neg", wasm.ValueTypeF32)
	F32Ceil     = unOp(0x8d, "f32.ceil", wasm.ValueTypeF32)
	F32Floor    = unOp(0x8e, "f32.floor", wasm.ValueTypeF32)
	F32Trunc    = unOp(0x8f, "f32.trunc", wasm.ValueTypeF32)
	F32Nearest  = unOp(0x90, "f32.nearest", wasm.ValueTypeF32)
	F32Sqrt     = unOp(0x91, "f32.sqrt", wasm.ValueTypeF32)
	F32Add      = binOp(0x92, "f32.add", wasm.ValueTypeF32)
	F32Sub      = binOp(0x93, "f32.sub", wasm.ValueTypeF32)
	F32Mul      = binOp(0x94, "f32.mul", wasm.ValueTypeF32)
	F32Div      = binOp(0x95, "f32.div", wasm.ValueTypeF32)
	F32Min      = binOp(0x96, "f32.min", wasm.ValueTypeF32)
	F32Max      = binOp(0x97, "f32.max", wasm.ValueTypeF32)
	F32Copysign = binOp(0x98, "f32.copysign", wasm.ValueTypeF32)

	F64Abs      = unOp(0x99, "f64.abs", wasm.ValueTypeF64)
	F64Neg      = unOp(0x9a, "f64.neg", wasm.ValueTypeF64)
	F64Ceil     = unOp(0x9b, "f64.ceil", wasm.ValueTypeF64)
	F64Floor    = unOp(0x9c, "f64.floor", wasm.ValueTypeF64)
	F64Trunc    = unOp(0x9d, "f64.trunc", wasm.ValueTypeF64)
	F64Nearest  = unOp(0x9e, "f64.nearest", wasm.ValueTypeF64)
	F64Sqrt     = unOp(0x9f, "f64.sqrt", wasm.ValueTypeF64)
	F64Add      = binOp(0xa0, "f64.add", wasm.ValueTypeF64)
	F64Sub      = binOp(0xa1, "f64.sub", wasm.ValueTypeF64)
	F64Mul      = binOp(0xa2, "f64.mul", wasm.ValueTypeF64)
	F64Div      = binOp(0xa3, "f64.div", wasm.ValueTypeF64)
	F64Min      = binOp(0xa4, "f64.min", wasm.ValueTypeF64)
	F64Max      = binOp(0xa5, "f64.max", wasm.ValueTypeF64)
	F64Copysign = binOp(0xa6, "f64.copysign", wasm.ValueTypeF64)

	I32WrapI64    = newConversionOp(0xa7, "i32.wrap/i64")
	I32TruncSF32  = newConversionOp(0xa8, "i32.trunc_s/f32")
	I32TruncUF32  = newConversionOp(0xa9, "i32.trunc_u/f32")
	I32TruncSF64  = newConversionOp(0xaa, "i32.trunc_s/f64")
	I32TruncUF64  = newConversionOp(0xab, "i32.trunc_u/f64")
	I64ExtendSI32 = newConversionOp(0xac, "i64.extend_s/i32")
	I64ExtendUI32 = newConversionOp(0xad, "i64.extend_u/i32")
	I64TruncSF32  = newConversionOp(0xae, "i64.trunc_s/f32")
	I64TruncUF32  = newConversionOp(0xaf, "i64.trunc_u/f32")
	I64TruncSF64  = newConversionOp(0xb0, "i64.trunc_s/f64")
	I64TruncUF64  = newConversionOp(0xb1, "i64.trunc_u/f64")
	F32ConvertSI32 = newConversionOp(0xb2, "f32.convert_s/i32")
	F32ConvertUI32 = newConversionOp(0xb3, "f32.convert_u/i32")
	F32ConvertSI64 = newConversionOp(0xb4, "f32.convert_s/i64")
	F32ConvertUI64 = newConversionOp(0xb5, "f32.convert_u/i64")
	F32DemoteF64   = newConversionOp(0xb6, "f32.demote/f64")
	F64ConvertSI32 = newConversionOp(0xb7, "f64.convert_s/i32")
	F64ConvertUI32 = newConversionOp(0xb8, "f64.convert_u/i32")
	F64ConvertSI64 = newConversionOp(0xb9, "f64.convert_s/i64")
	F64ConvertUI64 = newConversionOp(0xba, "f64.convert_u/i64")
	F64PromoteF32  = newConversionOp(0xbb, "f64.promote/f32")

	I32ReinterpretF32 = newConversionOp(0xbc, "i32.reinterpret/f32")
	I64ReinterpretF64 = newConversionOp(0xbd, "i64.reinterpret/f64")
	F32ReinterpretI32 = newConversionOp(0xbe, "f32.reinterpret/i32")
	F64ReinterpretI64 = newConversionOp(0xbf, "f64.reinterpret/i64")

	I32Extend8S  = unOp(0xc0, "i32.extend8_s", wasm.ValueTypeI32)
	I32Extend16S = unOp(0xc1, "i32.extend16_s", wasm.ValueTypeI32)
	I64Extend8S  = unOp(0xc2, "i64.extend8_s", wasm.ValueTypeI64)
	I64Extend16S = unOp(0xc3, "i64.extend16_s", wasm.ValueTypeI64)
	I64Extend32S = unOp(0xc4, "i64.extend32_s", wasm.ValueTypeI64)

	I32TruncSatSF32 = newConversionOp(0xc5, "i32.trunc_sat_s/f32")
	I32TruncSatUF32 = newConversionOp(0xc6, "i32.trunc_sat_u/f32")
	I32TruncSatSF64 = newConversionOp(0xc7, "i32.trunc_sat_s/f64")
	I32TruncSatUF64 = newConversionOp(0xc8, "i32.trunc_sat_u/f64")
	I64TruncSatSF32 = newConversionOp(0xc9, "i64.trunc_sat_s/f32")
	I64TruncSatUF32 = newConversionOp(0xca, "i64.trunc_sat_u/f32")
	I64TruncSatSF64 = newConversionOp(0xcb, "i64.trunc_sat_s/f64")
	I64TruncSatUF64 = newConversionOp(0xcc, "i64.trunc_sat_u/f64")
)
