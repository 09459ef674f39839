// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"testing"

	"github.com/gowasm/corewasm/validate"
	"github.com/gowasm/corewasm/wasm"
)

// fn builds a FuncIndexSpace entry for a module-defined (non-imported)
// function with the given type index and raw opcode bytes.
func fn(typeIdx uint32, code ...byte) wasm.Function {
	return wasm.Function{
		TypeIndex: typeIdx,
		ImportIdx: -1,
		Body:      &wasm.FunctionBody{Code: wasm.Expression{Code: code}},
	}
}

// buildInstance validates mod, exports every one of its own (non-imported)
// functions as "f0", "f1", ... in index order, and instantiates it with
// no imports. It fails the test immediately on any error, so callers can
// focus their test bodies on the scenario under test.
func buildInstance(t *testing.T, mod *wasm.Module, opts ...Option) *Instance {
	t.Helper()
	if err := validate.Validate(mod); err != nil {
		t.Fatalf("validate: %v", err)
	}
	for i := range mod.FuncIndexSpace {
		mod.Exports = append(mod.Exports, wasm.ExportEntry{
			FieldName: exportName(i), Kind: wasm.ExternalFunction, Index: uint32(i),
		})
	}
	inst, err := Instantiate(mod, nil, opts...)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	t.Cleanup(func() { inst.Close() })
	return inst
}

func exportName(i int) string {
	names := []string{"f0", "f1", "f2", "f3", "f4", "f5"}
	if i < len(names) {
		return names[i]
	}
	return "fN"
}

// runFunc0 is the common case: a module with a single function of the
// given signature and body, invoked with args; it returns the results
// and error for the caller to check.
func runFunc0(t *testing.T, sig wasm.FuncType, code []byte, args ...uint64) ([]uint64, error) {
	t.Helper()
	mod := &wasm.Module{Types: []wasm.FuncType{sig}}
	mod.FuncIndexSpace = []wasm.Function{fn(0, code...)}
	inst := buildInstance(t, mod)
	ctx := NewExecContext(inst)
	return ctx.Invoke("f0", args...)
}
