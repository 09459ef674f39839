// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import "fmt"

// Expression is a pre-parsed instruction sequence together with the
// jump table the validator annotates it with. Module owns the
// underlying bytes and the jump table; their lifetime extends beyond
// every Instance built from this Module.
type Expression struct {
	Code []byte
	Info *ExecInfo
}

// JumpTarget is one resolved entry of a jump table: the PC to
// continue execution at, and the operand-stack arity (in cells) that
// must be preserved across the jump. ElseAddr is only meaningful for
// an `if` opcode's frame-defining entry, pointing past its matching
// `else` (or `end`, if there is none).
type JumpTarget struct {
	TargetPC uint32
	ElseAddr uint32
	Arity    uint32
}

// ExecInfo is what the validator computes for a function body: a jump
// table keyed by the PC of each block/loop/if opcode (an if's else
// and end share the if's entry), plus the maximum operand-stack depth
// reached. The table is a Go map, so its entries are neither dense nor
// kept in PC order. The executor does not read MaxDepth; it sizes its
// operand stack on its own.
type ExecInfo struct {
	JumpTable map[uint32]JumpTarget
	MaxDepth  int
}

// LocalEntry is a run of local variables declared with the same type,
// as WebAssembly's local declarations are run-length encoded.
type LocalEntry struct {
	Count uint32
	Type  ValueType
}

// FunctionBody is a function's local declarations plus its validated
// expression.
type FunctionBody struct {
	Locals []LocalEntry
	Code   Expression
}

// NumLocals returns the number of declared locals (not counting
// parameters).
func (b *FunctionBody) NumLocals() int {
	var n int
	for _, e := range b.Locals {
		n += int(e.Count)
	}
	return n
}

// LocalTypes returns the flattened, parameter-prefixed list of local
// types for a function of the given signature: this is what the
// validator and the executor both index into for get_local/set_local.
func LocalTypes(sig FuncType, body *FunctionBody) []ValueType {
	types := make([]ValueType, 0, len(sig.Params)+body.NumLocals())
	types = append(types, sig.Params...)
	for _, e := range body.Locals {
		for i := uint32(0); i < e.Count; i++ {
			types = append(types, e.Type)
		}
	}
	return types
}

// Function is an entry in the function index space: either a local
// function (TypeIndex + Body set) or an imported one (ImportIdx >= 0,
// indexing Module.Imports).
type Function struct {
	Name      string
	TypeIndex uint32
	Body      *FunctionBody // nil for imported functions
	ImportIdx int           // >= 0 for imported functions, -1 otherwise
}

// IsImported reports whether this function index space entry refers
// to an imported function rather than a function defined in this
// module.
func (f *Function) IsImported() bool {
	return f.ImportIdx >= 0
}

// Import describes one of the four kinds an ImportEntry.Descriptor can
// hold.
type Import interface{ isImport() }

type FuncImport struct{ TypeIndex uint32 }
type TableImport struct{ Type TableType }
type MemoryImport struct{ Type MemoryType }
type GlobalImport struct{ Type GlobalType }

func (FuncImport) isImport()   {}
func (TableImport) isImport()  {}
func (MemoryImport) isImport() {}
func (GlobalImport) isImport() {}

// ImportEntry describes one import statement.
type ImportEntry struct {
	ModuleName string
	FieldName  string
	Kind       External
	Descriptor Import
}

// ExportEntry describes one export statement: Index is into the
// relevant index space for Kind.
type ExportEntry struct {
	FieldName string
	Kind      External
	Index     uint32
}

// GlobalDef is a module-defined global: its type and a constant
// initializer expression (see the const-expression evaluator).
type GlobalDef struct {
	Type GlobalType
	Init Expression
}

// ElementSegment initializes a range of a table with function
// indices. A segment with Active == false is "passive": not copied at
// instantiation time, only usable via table.init.
type ElementSegment struct {
	TableIndex uint32
	Active     bool
	Offset     Expression // const expr, valid when Active
	ElemType   ElemType
	Funcs      []uint32 // function indices (MVP elem segments only hold funcref)
}

// DataSegment initializes a range of memory with bytes. A segment with
// Active == false is "passive": usable only via memory.init.
type DataSegment struct {
	MemIndex uint32
	Active   bool
	Offset   Expression // const expr, valid when Active
	Data     []byte
}

// Module is the immutable, parsed-but-unvalidated (until Validate is
// called for each function) representation of a WebAssembly module.
// Producing a Module from a binary .wasm file is the job of an
// external decoder; this package only defines the shape such a
// decoder must produce and the operations the validator/instance
// builder/executor perform on it.
type Module struct {
	Types        []FuncType
	Imports      []ImportEntry
	Tables       []TableType
	Memories     []MemoryType
	Exports      []ExportEntry
	Start        *uint32 // function index, nil if absent
	Elements     []ElementSegment
	Data         []DataSegment
	HasDataCount bool // true if a data-count section was present

	// FuncIndexSpace holds every function reachable by index: first
	// the imported functions (in import order), then this module's
	// own functions (in code-section order).
	FuncIndexSpace []Function
	// GlobalIndexSpace holds every global reachable by index: first
	// imported globals, then this module's own.
	GlobalIndexSpace []GlobalDef
}

// NumImportedFuncs returns how many entries at the front of
// FuncIndexSpace are imports.
func (m *Module) NumImportedFuncs() int {
	var n int
	for _, e := range m.Imports {
		if e.Kind == ExternalFunction {
			n++
		}
	}
	return n
}

// GetFunction returns the function at the given index, or nil if the
// index is out of range.
func (m *Module) GetFunction(i int) *Function {
	if i < 0 || i >= len(m.FuncIndexSpace) {
		return nil
	}
	return &m.FuncIndexSpace[i]
}

// FuncType resolves a function's signature by index.
func (m *Module) FuncType(i int) (FuncType, error) {
	fn := m.GetFunction(i)
	if fn == nil {
		return FuncType{}, InvalidFunctionIndexError(i)
	}
	if int(fn.TypeIndex) >= len(m.Types) {
		return FuncType{}, InvalidTypeIndexError(fn.TypeIndex)
	}
	return m.Types[fn.TypeIndex], nil
}

// GetGlobal returns the global definition at the given index, or nil.
func (m *Module) GetGlobal(i int) *GlobalDef {
	if i < 0 || i >= len(m.GlobalIndexSpace) {
		return nil
	}
	return &m.GlobalIndexSpace[i]
}

// GetTable returns the table type at the given module-defined table
// index (imports are not part of this slice; the instance builder
// tracks imported tables separately).
func (m *Module) GetTable(i int) (TableType, bool) {
	if i < 0 || i >= len(m.Tables) {
		return TableType{}, false
	}
	return m.Tables[i], true
}

// GetMemory returns the memory type at the given module-defined
// memory index.
func (m *Module) GetMemory(i int) (MemoryType, bool) {
	if i < 0 || i >= len(m.Memories) {
		return MemoryType{}, false
	}
	return m.Memories[i], true
}

// InvalidFunctionIndexError is returned when a function index is out
// of range of the function index space.
type InvalidFunctionIndexError int

func (e InvalidFunctionIndexError) Error() string {
	return fmt.Sprintf("wasm: invalid function index: %d", int(e))
}

// InvalidGlobalIndexError is returned when a global index is out of
// range of the global index space.
type InvalidGlobalIndexError uint32

func (e InvalidGlobalIndexError) Error() string {
	return fmt.Sprintf("wasm: invalid global index: %d", uint32(e))
}
