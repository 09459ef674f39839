// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package validate

import (
	"github.com/gowasm/corewasm/wasm"
)

const (
	unknownType = wasm.ValueType(0)
	noReturn    = wasm.ValueType(-0x40)
)

// operand is a typechecker-time stand-in for a stack value. unknownType
// marks a value produced under an unreachable frame: it matches any
// type, so the rest of the (dead) code can still be validated for
// structural well-formedness without the actual type being known.
type operand struct {
	Type wasm.ValueType
}

// Equal returns true if the operand and given type are equivalent for
// typechecking purposes.
func (p operand) Equal(t wasm.ValueType) bool {
	if p.Type == unknownType || t == unknownType {
		return true
	}
	return p.Type == t
}
