// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import "math"

// truncToI32S converts f to a signed 32-bit integer per Wasm's
// trunc_s semantics: NaN or a magnitude outside [-2^31, 2^31) traps
// with InvalidConversionToInteger rather than wrapping or saturating.
func truncToI32S(f float64) (int32, error) {
	if math.IsNaN(f) {
		return 0, trap(TrapInvalidConversionToInteger, "cannot convert NaN to integer")
	}
	t := math.Trunc(f)
	if t < -2147483648 || t >= 2147483648 {
		return 0, trap(TrapInvalidConversionToInteger, "value %v out of range for i32", f)
	}
	return int32(t), nil
}

func truncToI32U(f float64) (uint32, error) {
	if math.IsNaN(f) {
		return 0, trap(TrapInvalidConversionToInteger, "cannot convert NaN to integer")
	}
	t := math.Trunc(f)
	if t < 0 || t >= 4294967296 {
		return 0, trap(TrapInvalidConversionToInteger, "value %v out of range for u32", f)
	}
	return uint32(t), nil
}

func truncToI64S(f float64) (int64, error) {
	if math.IsNaN(f) {
		return 0, trap(TrapInvalidConversionToInteger, "cannot convert NaN to integer")
	}
	t := math.Trunc(f)
	if t < -9223372036854775808 || t >= 9223372036854775808 {
		return 0, trap(TrapInvalidConversionToInteger, "value %v out of range for i64", f)
	}
	return int64(t), nil
}

func truncToI64U(f float64) (uint64, error) {
	if math.IsNaN(f) {
		return 0, trap(TrapInvalidConversionToInteger, "cannot convert NaN to integer")
	}
	t := math.Trunc(f)
	if t < 0 || t >= 18446744073709551616 {
		return 0, trap(TrapInvalidConversionToInteger, "value %v out of range for u64", f)
	}
	return uint64(t), nil
}

// Saturating conversions (the trunc_sat operator family) never trap:
// NaN becomes 0, and out-of-range magnitudes clamp to the
// destination type's min/max instead.
func truncSatToI32S(f float64) int32 {
	if math.IsNaN(f) {
		return 0
	}
	t := math.Trunc(f)
	switch {
	case t < -2147483648:
		return math.MinInt32
	case t >= 2147483648:
		return math.MaxInt32
	default:
		return int32(t)
	}
}

func truncSatToI32U(f float64) uint32 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	t := math.Trunc(f)
	if t >= 4294967295 {
		return math.MaxUint32
	}
	return uint32(t)
}

func truncSatToI64S(f float64) int64 {
	if math.IsNaN(f) {
		return 0
	}
	t := math.Trunc(f)
	switch {
	case t < -9223372036854775808:
		return math.MinInt64
	case t >= 9223372036854775808:
		return math.MaxInt64
	default:
		return int64(t)
	}
}

func truncSatToI64U(f float64) uint64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	t := math.Trunc(f)
	if t >= 18446744073709551615 {
		return math.MaxUint64
	}
	return uint64(t)
}

func rotl32(v uint32, n uint32) uint32 {
	n &= 31
	return v<<n | v>>(32-n)
}

func rotr32(v uint32, n uint32) uint32 {
	n &= 31
	return v>>n | v<<(32-n)
}

func rotl64(v uint64, n uint64) uint64 {
	n &= 63
	return v<<n | v>>(64-n)
}

func rotr64(v uint64, n uint64) uint64 {
	n &= 63
	return v>>n | v<<(64-n)
}

// wasmF32Min/Max and wasmF64Min/Max hand-roll the float min/max
// operators, which Wasm defines slightly differently from Go: any NaN
// operand yields NaN, and -0 orders below +0. NaN payloads are left to
// Go's math package (IEEE-754 requires *a* NaN survive, not a
// bit-exact one); the other float operators, copysign included, use
// the standard library directly.
func wasmF32Min(a, b float32) float32 {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return float32(math.NaN())
	}
	if a == 0 && b == 0 {
		if math.Signbit(float64(a)) {
			return a
		}
		return b
	}
	if a < b {
		return a
	}
	return b
}

func wasmF32Max(a, b float32) float32 {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return float32(math.NaN())
	}
	if a == 0 && b == 0 {
		if math.Signbit(float64(a)) {
			return b
		}
		return a
	}
	if a > b {
		return a
	}
	return b
}

func wasmF64Min(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if math.Signbit(a) {
			return a
		}
		return b
	}
	if a < b {
		return a
	}
	return b
}

func wasmF64Max(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if math.Signbit(a) {
			return b
		}
		return a
	}
	if a > b {
		return a
	}
	return b
}
