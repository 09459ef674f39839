// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gowasm/corewasm/wasm"
	"github.com/gowasm/corewasm/wasm/leb128"
	ops "github.com/gowasm/corewasm/wasm/operators"
)

// GlobalInst is a global variable's runtime storage: a value plus the
// mutability it was declared with.
type GlobalInst struct {
	Type wasm.GlobalType
	Val  wasm.Val
}

// HostFunc is the shape every host-provided function must implement.
// It receives the calling ExecContext (so it can read/write the
// calling instance's memory or request a restart) and the instance it
// was imported into, and returns result cells or traps by returning a
// Trap.
type HostFunc func(ctx *ExecContext, inst *Instance, params []uint64) ([]uint64, error)

// FuncInst is an entry in an Instance's function index space: either a
// Wasm function body bound to this Instance, or a host function.
type FuncInst struct {
	Type wasm.FuncType

	// Instance and Def are set for a local/imported Wasm function;
	// Host is set for a host function. Exactly one of Def/Host is
	// non-nil. Instance is a non-owning back-reference, breaking the
	// Instance <-> FuncInst cycle: FuncInst does not keep its Instance
	// alive, the Instance's own Funcs slice does.
	Instance *Instance
	Def      *wasm.Function
	Host     HostFunc
}

// IsHost reports whether this is a host function.
func (f *FuncInst) IsHost() bool {
	return f.Host != nil
}

// Instance is a module's runtime state: resolved imports plus
// allocated memories/tables/globals/functions. Unlike Module, which
// is immutable and shared across every Instance built from it,
// Instance is exclusively owned by its creator except where an entry
// in one of its index spaces is an imported (non-owning) reference.
type Instance struct {
	Module *wasm.Module

	Funcs   []*FuncInst
	Tables  []*Table
	Mems    []*Memory
	Globals []*GlobalInst

	// owned records, per index space, which entries this Instance
	// allocated itself (as opposed to received as an import): only
	// owned entries are released on a failed instantiation or when
	// Close is called.
	ownedTables []*Table
	ownedMems   []*Memory

	// droppedData/droppedElem track data.drop/elem.drop per segment.
	// Module.Data/Elements are shared across every Instance built from
	// the same Module, so "dropped" cannot live there; it is per
	// Instance state, parallel by index to mod.Data/mod.Elements.
	droppedData []bool
	droppedElem []bool

	exports map[string]wasm.ExportEntry
}

// Close releases every memory this Instance itself allocated (not
// ones it received as imports, whose owner is the importer).
func (inst *Instance) Close() error {
	var firstErr error
	for i := len(inst.ownedMems) - 1; i >= 0; i-- {
		if err := inst.ownedMems[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Export resolves an exported name to its index-space entry.
func (inst *Instance) Export(name string) (wasm.ExportEntry, bool) {
	e, ok := inst.exports[name]
	return e, ok
}

// ExportedFunc resolves an exported function by name.
func (inst *Instance) ExportedFunc(name string) (*FuncInst, error) {
	e, ok := inst.Export(name)
	if !ok || e.Kind != wasm.ExternalFunction {
		return nil, fmt.Errorf("exec: no exported function %q", name)
	}
	if int(e.Index) >= len(inst.Funcs) {
		return nil, wasm.InvalidFunctionIndexError(e.Index)
	}
	return inst.Funcs[e.Index], nil
}

// importEntry is one contribution an ImportObject makes: exactly one
// of the typed fields is set, matching the Kind it was registered
// under.
type importEntry struct {
	moduleName, name string
	kind             wasm.External
	fn               *FuncInst
	table            *Table
	mem              *Memory
	global           *GlobalInst
}

// ImportObject is the set of host- or other-module-provided entries
// available to Instantiate. Its lifetime must enclose every Instance
// built from it, since an Instance holds non-owning references into
// it for any entry it imports (see Module's ownership note in the
// data model).
type ImportObject struct {
	entries []importEntry
}

// NewImportObject returns an empty ImportObject ready to be populated
// with AddFunc/AddTable/AddMemory/AddGlobal.
func NewImportObject() *ImportObject {
	return &ImportObject{}
}

// AddFunc registers a host function under (moduleName, name).
func (io *ImportObject) AddFunc(moduleName, name string, ft wasm.FuncType, fn HostFunc) {
	io.entries = append(io.entries, importEntry{
		moduleName: moduleName, name: name, kind: wasm.ExternalFunction,
		fn: &FuncInst{Type: ft, Host: fn},
	})
}

// AddTable registers an existing Table under (moduleName, name).
func (io *ImportObject) AddTable(moduleName, name string, t *Table) {
	io.entries = append(io.entries, importEntry{moduleName: moduleName, name: name, kind: wasm.ExternalTable, table: t})
}

// AddMemory registers an existing Memory under (moduleName, name).
func (io *ImportObject) AddMemory(moduleName, name string, m *Memory) {
	io.entries = append(io.entries, importEntry{moduleName: moduleName, name: name, kind: wasm.ExternalMemory, mem: m})
}

// AddGlobal registers an existing GlobalInst under (moduleName, name).
func (io *ImportObject) AddGlobal(moduleName, name string, g *GlobalInst) {
	io.entries = append(io.entries, importEntry{moduleName: moduleName, name: name, kind: wasm.ExternalGlobal, global: g})
}

func (io *ImportObject) lookup(moduleName, name string) (importEntry, bool) {
	for _, e := range io.entries {
		if e.moduleName == moduleName && e.name == name {
			return e, true
		}
	}
	return importEntry{}, false
}

// NotFoundError is returned by Instantiate when an import has no
// matching entry in the supplied ImportObject.
type NotFoundError struct{ Module, Name string }

func (e NotFoundError) Error() string {
	return fmt.Sprintf("exec: import not found: %s.%s", e.Module, e.Name)
}

// TypeMismatchError is returned by Instantiate when an import exists
// but its kind or type doesn't match the module's declared import.
type TypeMismatchError struct{ Module, Name string }

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("exec: import type mismatch: %s.%s", e.Module, e.Name)
}

// Option configures Instantiate/NewExecContext.
type Option func(*instOptions)

type instOptions struct {
	maxFrames     int
	maxStackCells int
	cluster       Cluster
}

const (
	defaultMaxFrames     = 1 << 16
	defaultMaxStackCells = 1 << 20
)

func defaultOptions() instOptions {
	return instOptions{maxFrames: defaultMaxFrames, maxStackCells: defaultMaxStackCells}
}

// WithMaxFrames caps the executor's call-frame depth; exceeding it
// traps with TrapTooManyFrames instead of exhausting the Go stack.
func WithMaxFrames(n int) Option {
	return func(o *instOptions) { o.maxFrames = n }
}

// WithMaxStackCells caps the executor's operand stack depth; exceeding
// it traps with TrapTooManyStackValues.
func WithMaxStackCells(n int) Option {
	return func(o *instOptions) { o.maxStackCells = n }
}

// Cluster is the minimal view of a cluster supervisor the executor
// needs: whether cooperative execution should suspend, polled once
// per instruction (or a batched equivalent).
type Cluster interface {
	Interrupted() bool
}

// WithCluster attaches a cluster supervisor whose interrupt flag
// check_interrupt polls before each instruction.
func WithCluster(c Cluster) Option {
	return func(o *instOptions) { o.cluster = c }
}

// Instantiate resolves mod's imports against imports, allocates its
// memories/tables/globals, runs its element/data segments and start
// function, and returns the resulting Instance. On any failure it
// releases whatever it had already allocated, in reverse order, and
// returns a nil Instance.
func Instantiate(mod *wasm.Module, imports *ImportObject, opts ...Option) (*Instance, error) {
	if imports == nil {
		imports = NewImportObject()
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	inst := &Instance{
		Module:      mod,
		exports:     make(map[string]wasm.ExportEntry, len(mod.Exports)),
		droppedData: make([]bool, len(mod.Data)),
		droppedElem: make([]bool, len(mod.Elements)),
	}

	if err := resolveImports(mod, imports, inst); err != nil {
		inst.Close()
		return nil, err
	}

	for _, tt := range mod.Tables {
		t := NewTable(tt)
		inst.Tables = append(inst.Tables, t)
		inst.ownedTables = append(inst.ownedTables, t)
	}
	for _, mt := range mod.Memories {
		m, err := NewMemory(mt.Limits)
		if err != nil {
			inst.Close()
			return nil, err
		}
		inst.Mems = append(inst.Mems, m)
		inst.ownedMems = append(inst.ownedMems, m)
	}

	for i := mod.NumImportedFuncs(); i < len(mod.FuncIndexSpace); i++ {
		fn := &mod.FuncIndexSpace[i]
		ft, err := mod.FuncType(i)
		if err != nil {
			inst.Close()
			return nil, err
		}
		inst.Funcs = append(inst.Funcs, &FuncInst{Type: ft, Instance: inst, Def: fn})
	}

	numImportedGlobals := len(inst.Globals)
	for i := numImportedGlobals; i < len(mod.GlobalIndexSpace); i++ {
		def := mod.GlobalIndexSpace[i]
		v, err := evalConstExpr(inst, def.Init, def.Type.Type)
		if err != nil {
			inst.Close()
			return nil, err
		}
		inst.Globals = append(inst.Globals, &GlobalInst{Type: def.Type, Val: v})
	}

	for segIdx, seg := range mod.Elements {
		if !seg.Active {
			continue
		}
		offVal, err := evalConstExpr(inst, seg.Offset, wasm.ValueTypeI32)
		if err != nil {
			inst.Close()
			return nil, err
		}
		if int(seg.TableIndex) >= len(inst.Tables) {
			inst.Close()
			return nil, wasm.InvalidTypeIndexError(seg.TableIndex)
		}
		t := inst.Tables[seg.TableIndex]
		if err := t.Init(uint32(offVal.I32()), seg.Funcs, 0, uint32(len(seg.Funcs))); err != nil {
			inst.Close()
			return nil, err
		}
		// An active segment behaves as if dropped once copied: a later
		// table.init against it sees an empty segment.
		inst.droppedElem[segIdx] = true
	}

	for segIdx, seg := range mod.Data {
		if !seg.Active {
			continue
		}
		offVal, err := evalConstExpr(inst, seg.Offset, wasm.ValueTypeI32)
		if err != nil {
			inst.Close()
			return nil, err
		}
		if int(seg.MemIndex) >= len(inst.Mems) {
			inst.Close()
			return nil, wasm.InvalidTypeIndexError(seg.MemIndex)
		}
		m := inst.Mems[seg.MemIndex]
		if err := m.Init(uint64(uint32(offVal.I32())), seg.Data, 0, uint64(len(seg.Data))); err != nil {
			inst.Close()
			return nil, err
		}
		inst.droppedData[segIdx] = true
	}

	for _, exp := range mod.Exports {
		inst.exports[exp.FieldName] = exp
	}

	if mod.Start != nil {
		ctx := NewExecContext(inst, opts...)
		if _, err := ctx.InvokeIndex(int(*mod.Start), nil); err != nil {
			inst.Close()
			return nil, err
		}
	}

	return inst, nil
}

// InvalidConstExprError is returned by evalConstExpr when an
// initializer expression uses an opcode outside the restricted set a
// const expr is allowed to carry: i32/i64/f32/f64.const, ref.null,
// ref.func, or global.get of an immutable imported global.
type InvalidConstExprError byte

func (e InvalidConstExprError) Error() string {
	return fmt.Sprintf("exec: opcode %#x is not valid in a constant expression", byte(e))
}

// evalConstExpr interprets a global/element/data segment's offset or
// initializer expression. It accepts only const-pushing opcodes and
// global.get of an immutable imported global, terminated by end;
// nothing else may appear.
func evalConstExpr(inst *Instance, expr wasm.Expression, want wasm.ValueType) (wasm.Val, error) {
	code := bytes.NewReader(expr.Code)
	var result wasm.Val
	var have bool

	for {
		b, err := code.ReadByte()
		if err == io.EOF || b == ops.End {
			break
		}
		if err != nil {
			return wasm.Val{}, err
		}
		if have {
			return wasm.Val{}, InvalidConstExprError(b)
		}
		switch b {
		case ops.I32Const:
			v, err := leb128.ReadVarint32(code)
			if err != nil {
				return wasm.Val{}, err
			}
			result, have = wasm.I32Val(v), true
		case ops.I64Const:
			v, err := leb128.ReadVarint64(code)
			if err != nil {
				return wasm.Val{}, err
			}
			result, have = wasm.I64Val(v), true
		case ops.F32Const:
			var buf [4]byte
			if _, err := io.ReadFull(code, buf[:]); err != nil {
				return wasm.Val{}, err
			}
			result, have = wasm.Val{Type: wasm.ValueTypeF32, Lo: uint64(binary.LittleEndian.Uint32(buf[:]))}, true
		case ops.F64Const:
			var buf [8]byte
			if _, err := io.ReadFull(code, buf[:]); err != nil {
				return wasm.Val{}, err
			}
			result, have = wasm.Val{Type: wasm.ValueTypeF64, Lo: binary.LittleEndian.Uint64(buf[:])}, true
		case ops.RefNull:
			result, have = wasm.Val{Type: want, Lo: wasm.RefNull}, true
		case ops.RefFunc:
			i, err := leb128.ReadVarUint32(code)
			if err != nil {
				return wasm.Val{}, err
			}
			result, have = wasm.Val{Type: wasm.ValueTypeFuncRef, Lo: uint64(i)}, true
		case ops.GetGlobal:
			i, err := leb128.ReadVarUint32(code)
			if err != nil {
				return wasm.Val{}, err
			}
			if int(i) >= len(inst.Globals) {
				return wasm.Val{}, wasm.InvalidGlobalIndexError(i)
			}
			imported := 0
			for _, imp := range inst.Module.Imports {
				if imp.Kind == wasm.ExternalGlobal {
					imported++
				}
			}
			if int(i) >= imported || inst.Globals[i].Type.Mutable {
				return wasm.Val{}, InvalidConstExprError(b)
			}
			result, have = inst.Globals[i].Val, true
		default:
			return wasm.Val{}, InvalidConstExprError(b)
		}
	}
	if !have {
		return wasm.Val{Type: want}, nil
	}
	return result, nil
}

func resolveImports(mod *wasm.Module, imports *ImportObject, inst *Instance) error {
	for _, imp := range mod.Imports {
		entry, ok := imports.lookup(imp.ModuleName, imp.FieldName)
		if !ok {
			return NotFoundError{imp.ModuleName, imp.FieldName}
		}
		if entry.kind != imp.Kind {
			return TypeMismatchError{imp.ModuleName, imp.FieldName}
		}
		switch d := imp.Descriptor.(type) {
		case wasm.FuncImport:
			if entry.fn == nil || int(d.TypeIndex) >= len(mod.Types) || !entry.fn.Type.Equal(mod.Types[d.TypeIndex]) {
				return TypeMismatchError{imp.ModuleName, imp.FieldName}
			}
			inst.Funcs = append(inst.Funcs, entry.fn)
		case wasm.TableImport:
			if entry.table == nil {
				return TypeMismatchError{imp.ModuleName, imp.FieldName}
			}
			inst.Tables = append(inst.Tables, entry.table)
		case wasm.MemoryImport:
			if entry.mem == nil {
				return TypeMismatchError{imp.ModuleName, imp.FieldName}
			}
			inst.Mems = append(inst.Mems, entry.mem)
		case wasm.GlobalImport:
			if entry.global == nil || entry.global.Type != d.Type {
				return TypeMismatchError{imp.ModuleName, imp.FieldName}
			}
			inst.Globals = append(inst.Globals, entry.global)
		}
	}
	return nil
}
