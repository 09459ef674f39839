// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"math"
	"math/bits"

	ops "github.com/gowasm/corewasm/wasm/operators"
)

func i32(v uint64) int32 { return int32(uint32(v)) }

func i64(v uint64) int64 { return int64(v) }

func u32(v uint64) uint32 { return uint32(v) }

func f32(v uint64) float32 { return math.Float32frombits(uint32(v)) }

func f64(v uint64) float64 { return math.Float64frombits(v) }

func fromI32(v int32) uint64 { return uint64(uint32(v)) }

func fromU32(v uint32) uint64 { return uint64(v) }

func fromI64(v int64) uint64 { return uint64(v) }

func fromF32(v float32) uint64 { return uint64(math.Float32bits(v)) }

func fromF64(v float64) uint64 { return math.Float64bits(v) }
func fromBool(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// execNumeric implements every comparison, arithmetic, and conversion
// operator: the part of the instruction set that only ever touches
// ctx.stack, never memory or control flow.
func (ctx *ExecContext) execNumeric(op byte) error {
	switch op {
	// --- i32 tests/comparisons ---
	case ops.I32Eqz:
		ctx.push(fromBool(i32(ctx.pop()) == 0))
	case ops.I32Eq:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(i32(a) == i32(b)))
	case ops.I32Ne:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(i32(a) != i32(b)))
	case ops.I32LtS:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(i32(a) < i32(b)))
	case ops.I32LtU:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(u32(a) < u32(b)))
	case ops.I32GtS:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(i32(a) > i32(b)))
	case ops.I32GtU:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(u32(a) > u32(b)))
	case ops.I32LeS:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(i32(a) <= i32(b)))
	case ops.I32LeU:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(u32(a) <= u32(b)))
	case ops.I32GeS:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(i32(a) >= i32(b)))
	case ops.I32GeU:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(u32(a) >= u32(b)))

	// --- i64 tests/comparisons ---
	case ops.I64Eqz:
		ctx.push(fromBool(i64(ctx.pop()) == 0))
	case ops.I64Eq:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(i64(a) == i64(b)))
	case ops.I64Ne:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(i64(a) != i64(b)))
	case ops.I64LtS:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(i64(a) < i64(b)))
	case ops.I64LtU:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(a < b))
	case ops.I64GtS:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(i64(a) > i64(b)))
	case ops.I64GtU:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(a > b))
	case ops.I64LeS:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(i64(a) <= i64(b)))
	case ops.I64LeU:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(a <= b))
	case ops.I64GeS:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(i64(a) >= i64(b)))
	case ops.I64GeU:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(a >= b))

	// --- f32/f64 comparisons ---
	case ops.F32Eq:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(f32(a) == f32(b)))
	case ops.F32Ne:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(f32(a) != f32(b)))
	case ops.F32Lt:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(f32(a) < f32(b)))
	case ops.F32Gt:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(f32(a) > f32(b)))
	case ops.F32Le:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(f32(a) <= f32(b)))
	case ops.F32Ge:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(f32(a) >= f32(b)))
	case ops.F64Eq:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(f64(a) == f64(b)))
	case ops.F64Ne:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(f64(a) != f64(b)))
	case ops.F64Lt:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(f64(a) < f64(b)))
	case ops.F64Gt:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(f64(a) > f64(b)))
	case ops.F64Le:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(f64(a) <= f64(b)))
	case ops.F64Ge:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromBool(f64(a) >= f64(b)))

	// --- i32 arithmetic ---
	case ops.I32Clz:
		ctx.push(fromU32(uint32(bits.LeadingZeros32(u32(ctx.pop())))))
	case ops.I32Ctz:
		ctx.push(fromU32(uint32(bits.TrailingZeros32(u32(ctx.pop())))))
	case ops.I32Popcnt:
		ctx.push(fromU32(uint32(bits.OnesCount32(u32(ctx.pop())))))
	case ops.I32Add:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromU32(u32(a) + u32(b)))
	case ops.I32Sub:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromU32(u32(a) - u32(b)))
	case ops.I32Mul:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromU32(u32(a) * u32(b)))
	case ops.I32DivS:
		b, a := ctx.pop(), ctx.pop()
		bs, as := i32(b), i32(a)
		if bs == 0 {
			return trap(TrapDivByZero, "i32.div_s by zero")
		}
		if as == math.MinInt32 && bs == -1 {
			return trap(TrapIntegerOverflow, "i32.div_s overflow")
		}
		ctx.push(fromI32(as / bs))
	case ops.I32DivU:
		b, a := ctx.pop(), ctx.pop()
		if u32(b) == 0 {
			return trap(TrapDivByZero, "i32.div_u by zero")
		}
		ctx.push(fromU32(u32(a) / u32(b)))
	case ops.I32RemS:
		b, a := ctx.pop(), ctx.pop()
		bs, as := i32(b), i32(a)
		if bs == 0 {
			return trap(TrapDivByZero, "i32.rem_s by zero")
		}
		if as == math.MinInt32 && bs == -1 {
			ctx.push(0)
			break
		}
		ctx.push(fromI32(as % bs))
	case ops.I32RemU:
		b, a := ctx.pop(), ctx.pop()
		if u32(b) == 0 {
			return trap(TrapDivByZero, "i32.rem_u by zero")
		}
		ctx.push(fromU32(u32(a) % u32(b)))
	case ops.I32And:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromU32(u32(a) & u32(b)))
	case ops.I32Or:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromU32(u32(a) | u32(b)))
	case ops.I32Xor:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromU32(u32(a) ^ u32(b)))
	case ops.I32Shl:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromU32(u32(a) << (u32(b) & 31)))
	case ops.I32ShrS:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromI32(i32(a) >> (u32(b) & 31)))
	case ops.I32ShrU:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromU32(u32(a) >> (u32(b) & 31)))
	case ops.I32Rotl:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromU32(rotl32(u32(a), u32(b))))
	case ops.I32Rotr:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromU32(rotr32(u32(a), u32(b))))

	// --- i64 arithmetic ---
	case ops.I64Clz:
		ctx.push(fromI64(int64(bits.LeadingZeros64(ctx.pop()))))
	case ops.I64Ctz:
		ctx.push(fromI64(int64(bits.TrailingZeros64(ctx.pop()))))
	case ops.I64Popcnt:
		ctx.push(fromI64(int64(bits.OnesCount64(ctx.pop()))))
	case ops.I64Add:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(a + b)
	case ops.I64Sub:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(a - b)
	case ops.I64Mul:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(a * b)
	case ops.I64DivS:
		b, a := ctx.pop(), ctx.pop()
		bs, as := i64(b), i64(a)
		if bs == 0 {
			return trap(TrapDivByZero, "i64.div_s by zero")
		}
		if as == math.MinInt64 && bs == -1 {
			return trap(TrapIntegerOverflow, "i64.div_s overflow")
		}
		ctx.push(fromI64(as / bs))
	case ops.I64DivU:
		b, a := ctx.pop(), ctx.pop()
		if b == 0 {
			return trap(TrapDivByZero, "i64.div_u by zero")
		}
		ctx.push(a / b)
	case ops.I64RemS:
		b, a := ctx.pop(), ctx.pop()
		bs, as := i64(b), i64(a)
		if bs == 0 {
			return trap(TrapDivByZero, "i64.rem_s by zero")
		}
		if as == math.MinInt64 && bs == -1 {
			ctx.push(0)
			break
		}
		ctx.push(fromI64(as % bs))
	case ops.I64RemU:
		b, a := ctx.pop(), ctx.pop()
		if b == 0 {
			return trap(TrapDivByZero, "i64.rem_u by zero")
		}
		ctx.push(a % b)
	case ops.I64And:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(a & b)
	case ops.I64Or:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(a | b)
	case ops.I64Xor:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(a ^ b)
	case ops.I64Shl:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(a << (b & 63))
	case ops.I64ShrS:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromI64(i64(a) >> (b & 63)))
	case ops.I64ShrU:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(a >> (b & 63))
	case ops.I64Rotl:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(rotl64(a, b))
	case ops.I64Rotr:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(rotr64(a, b))

	// --- f32 arithmetic ---
	case ops.F32Abs:
		ctx.push(fromF32(float32(math.Abs(float64(f32(ctx.pop()))))))
	case ops.F32Neg:
		ctx.push(fromF32(-f32(ctx.pop())))
	case ops.F32Ceil:
		ctx.push(fromF32(float32(math.Ceil(float64(f32(ctx.pop()))))))
	case ops.F32Floor:
		ctx.push(fromF32(float32(math.Floor(float64(f32(ctx.pop()))))))
	case ops.F32Trunc:
		ctx.push(fromF32(float32(math.Trunc(float64(f32(ctx.pop()))))))
	case ops.F32Nearest:
		ctx.push(fromF32(float32(math.RoundToEven(float64(f32(ctx.pop()))))))
	case ops.F32Sqrt:
		ctx.push(fromF32(float32(math.Sqrt(float64(f32(ctx.pop()))))))
	case ops.F32Add:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromF32(f32(a) + f32(b)))
	case ops.F32Sub:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromF32(f32(a) - f32(b)))
	case ops.F32Mul:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromF32(f32(a) * f32(b)))
	case ops.F32Div:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromF32(f32(a) / f32(b)))
	case ops.F32Min:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromF32(wasmF32Min(f32(a), f32(b))))
	case ops.F32Max:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromF32(wasmF32Max(f32(a), f32(b))))
	case ops.F32Copysign:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromF32(float32(math.Copysign(float64(f32(a)), float64(f32(b))))))

	// --- f64 arithmetic ---
	case ops.F64Abs:
		ctx.push(fromF64(math.Abs(f64(ctx.pop()))))
	case ops.F64Neg:
		ctx.push(fromF64(-f64(ctx.pop())))
	case ops.F64Ceil:
		ctx.push(fromF64(math.Ceil(f64(ctx.pop()))))
	case ops.F64Floor:
		ctx.push(fromF64(math.Floor(f64(ctx.pop()))))
	case ops.F64Trunc:
		ctx.push(fromF64(math.Trunc(f64(ctx.pop()))))
	case ops.F64Nearest:
		ctx.push(fromF64(math.RoundToEven(f64(ctx.pop()))))
	case ops.F64Sqrt:
		ctx.push(fromF64(math.Sqrt(f64(ctx.pop()))))
	case ops.F64Add:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromF64(f64(a) + f64(b)))
	case ops.F64Sub:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromF64(f64(a) - f64(b)))
	case ops.F64Mul:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromF64(f64(a) * f64(b)))
	case ops.F64Div:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromF64(f64(a) / f64(b)))
	case ops.F64Min:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromF64(wasmF64Min(f64(a), f64(b))))
	case ops.F64Max:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromF64(wasmF64Max(f64(a), f64(b))))
	case ops.F64Copysign:
		b, a := ctx.pop(), ctx.pop()
		ctx.push(fromF64(math.Copysign(f64(a), f64(b))))

	// --- conversions ---
	case ops.I32WrapI64:
		ctx.push(fromU32(uint32(ctx.pop())))
	case ops.I32TruncSF32:
		v, err := truncToI32S(float64(f32(ctx.pop())))
		if err != nil {
			return err
		}
		ctx.push(fromI32(v))
	case ops.I32TruncUF32:
		v, err := truncToI32U(float64(f32(ctx.pop())))
		if err != nil {
			return err
		}
		ctx.push(fromU32(v))
	case ops.I32TruncSF64:
		v, err := truncToI32S(f64(ctx.pop()))
		if err != nil {
			return err
		}
		ctx.push(fromI32(v))
	case ops.I32TruncUF64:
		v, err := truncToI32U(f64(ctx.pop()))
		if err != nil {
			return err
		}
		ctx.push(fromU32(v))
	case ops.I64ExtendSI32:
		ctx.push(fromI64(int64(i32(ctx.pop()))))
	case ops.I64ExtendUI32:
		ctx.push(fromI64(int64(u32(ctx.pop()))))
	case ops.I64TruncSF32:
		v, err := truncToI64S(float64(f32(ctx.pop())))
		if err != nil {
			return err
		}
		ctx.push(fromI64(v))
	case ops.I64TruncUF32:
		v, err := truncToI64U(float64(f32(ctx.pop())))
		if err != nil {
			return err
		}
		ctx.push(v)
	case ops.I64TruncSF64:
		v, err := truncToI64S(f64(ctx.pop()))
		if err != nil {
			return err
		}
		ctx.push(fromI64(v))
	case ops.I64TruncUF64:
		v, err := truncToI64U(f64(ctx.pop()))
		if err != nil {
			return err
		}
		ctx.push(v)
	case ops.F32ConvertSI32:
		ctx.push(fromF32(float32(i32(ctx.pop()))))
	case ops.F32ConvertUI32:
		ctx.push(fromF32(float32(u32(ctx.pop()))))
	case ops.F32ConvertSI64:
		ctx.push(fromF32(float32(i64(ctx.pop()))))
	case ops.F32ConvertUI64:
		ctx.push(fromF32(float32(ctx.pop())))
	case ops.F32DemoteF64:
		ctx.push(fromF32(float32(f64(ctx.pop()))))
	case ops.F64ConvertSI32:
		ctx.push(fromF64(float64(i32(ctx.pop()))))
	case ops.F64ConvertUI32:
		ctx.push(fromF64(float64(u32(ctx.pop()))))
	case ops.F64ConvertSI64:
		ctx.push(fromF64(float64(i64(ctx.pop()))))
	case ops.F64ConvertUI64:
		ctx.push(fromF64(float64(ctx.pop())))
	case ops.F64PromoteF32:
		ctx.push(fromF64(float64(f32(ctx.pop()))))

	case ops.I32ReinterpretF32:
		ctx.push(ctx.pop() & 0xffffffff)
	case ops.I64ReinterpretF64:
		// bit patterns already match: no-op beyond the type label.
	case ops.F32ReinterpretI32:
		ctx.push(ctx.pop() & 0xffffffff)
	case ops.F64ReinterpretI64:
		// bit patterns already match: no-op beyond the type label.

	case ops.I32Extend8S:
		ctx.push(fromI32(int32(int8(u32(ctx.pop())))))
	case ops.I32Extend16S:
		ctx.push(fromI32(int32(int16(u32(ctx.pop())))))
	case ops.I64Extend8S:
		ctx.push(fromI64(int64(int8(ctx.pop()))))
	case ops.I64Extend16S:
		ctx.push(fromI64(int64(int16(ctx.pop()))))
	case ops.I64Extend32S:
		ctx.push(fromI64(int64(int32(ctx.pop()))))

	case ops.I32TruncSatSF32:
		ctx.push(fromI32(truncSatToI32S(float64(f32(ctx.pop())))))
	case ops.I32TruncSatUF32:
		ctx.push(fromU32(truncSatToI32U(float64(f32(ctx.pop())))))
	case ops.I32TruncSatSF64:
		ctx.push(fromI32(truncSatToI32S(f64(ctx.pop()))))
	case ops.I32TruncSatUF64:
		ctx.push(fromU32(truncSatToI32U(f64(ctx.pop()))))
	case ops.I64TruncSatSF32:
		ctx.push(fromI64(truncSatToI64S(float64(f32(ctx.pop())))))
	case ops.I64TruncSatUF32:
		ctx.push(truncSatToI64U(float64(f32(ctx.pop()))))
	case ops.I64TruncSatSF64:
		ctx.push(fromI64(truncSatToI64S(f64(ctx.pop()))))
	case ops.I64TruncSatUF64:
		ctx.push(truncSatToI64U(f64(ctx.pop())))

	default:
		panic("exec: unhandled opcode, should have been rejected at validation time")
	}
	return nil
}
