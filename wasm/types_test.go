// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import "testing"

func TestResultTypeCellIndex(t *testing.T) {
	rt := ResultType{ValueTypeI32, ValueTypeI64, ValueTypeF64, ValueTypeI32}
	if got := rt.Cells(); got != 6 {
		t.Fatalf("Cells() = %d, want 6", got)
	}
	wantIdx := []uint32{0, 1, 3, 5}
	for i, want := range wantIdx {
		if got := rt.CellIndex(i); got != want {
			t.Fatalf("CellIndex(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestValCellsRoundTrip(t *testing.T) {
	vals := []Val{
		I32Val(-7),
		I64Val(1 << 40),
		F64Val(3.5),
	}
	for _, v := range vals {
		cells := make([]uint32, v.Type.Cells())
		v.ToCells(cells)
		if got := ValFromCells(v.Type, cells); got != v {
			t.Fatalf("round trip of %+v produced %+v", v, got)
		}
	}
}

func TestBlockTypeSignature(t *testing.T) {
	types := []FuncType{
		{Params: ResultType{ValueTypeI32}, Results: ResultType{ValueTypeI32, ValueTypeI32}},
	}

	if ft, err := (BlockType{Empty: true}).Signature(types); err != nil || len(ft.Params) != 0 || len(ft.Results) != 0 {
		t.Fatalf("empty block type: %v, %v", ft, err)
	}
	ft, err := (BlockType{Inline: ValueTypeF64, TypeIndex: -1}).Signature(types)
	if err != nil || len(ft.Results) != 1 || ft.Results[0] != ValueTypeF64 {
		t.Fatalf("inline block type: %v, %v", ft, err)
	}
	ft, err = (BlockType{TypeIndex: 0}).Signature(types)
	if err != nil || !ft.Equal(types[0]) {
		t.Fatalf("indexed block type: %v, %v", ft, err)
	}
	if _, err := (BlockType{TypeIndex: 3}).Signature(types); err == nil {
		t.Fatal("expected an error for an out-of-range type index")
	}
}
