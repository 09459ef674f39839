// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hostfunc is the host-function bridge's registration
// surface: the contract a host function must satisfy and the
// ImportObject builder host embedders use to make a set of named
// functions available to Instantiate. The actual WASI /
// dynamic-linker bridge bodies live with their embedders; this
// package only owns the seam between them and the executor.
package hostfunc

import (
	"fmt"

	"github.com/gowasm/corewasm/exec"
	"github.com/gowasm/corewasm/wasm"
)

// Func is the Go shape of a host function: it receives the calling
// ExecContext (so it can read/write the calling instance's memory or
// request a restart) and the Instance it was imported into, and
// returns result cells, or a non-nil error (typically an exec.Trap
// built with exec.Exit). Any error is returned from Invoke unchanged;
// an error that is not an exec.Trap is not converted into one.
type Func = exec.HostFunc

// Spec pairs a host function with the signature Instantiate must
// match it against when resolving an import.
type Spec struct {
	Type wasm.FuncType
	Fn   Func
}

// Module is a named group of host functions, the unit host embedders
// register together (mirroring a WASI "module name" like "wasi_snapshot_preview1").
type Module struct {
	Name  string
	Funcs map[string]Spec
}

// NewModule returns an empty, named Module ready to be populated with
// AddFunc.
func NewModule(name string) *Module {
	return &Module{Name: name, Funcs: make(map[string]Spec)}
}

// AddFunc registers fn under name within this module.
func (m *Module) AddFunc(name string, ft wasm.FuncType, fn Func) *Module {
	m.Funcs[name] = Spec{Type: ft, Fn: fn}
	return m
}

// NewImportObject builds an exec.ImportObject exposing every function
// of every given Module, ready to pass to exec.Instantiate. This is
// the registration surface only: callers still construct their own
// Modules (WASI, a dynamic-linker shim, test doubles) out of Funcs.
func NewImportObject(modules ...*Module) *exec.ImportObject {
	io := exec.NewImportObject()
	for _, m := range modules {
		for name, spec := range m.Funcs {
			logger.Printf("registering host func %s.%s: %v", m.Name, name, spec.Type)
			io.AddFunc(m.Name, name, spec.Type, spec.Fn)
		}
	}
	return io
}

// UnsupportedImportError is returned by a bridge Module builder
// (not by this package) when a guest module imports a function name
// the bridge doesn't implement; defined here so every bridge reports
// this the same shape.
type UnsupportedImportError struct {
	Module, Name string
}

func (e UnsupportedImportError) Error() string {
	return fmt.Sprintf("hostfunc: unsupported import %s.%s", e.Module, e.Name)
}
