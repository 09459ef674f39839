// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	ops "github.com/gowasm/corewasm/wasm/operators"
)

func isLoadStoreOp(op byte) bool {
	switch op {
	case ops.I32Load, ops.I64Load, ops.F32Load, ops.F64Load,
		ops.I32Load8s, ops.I32Load8u, ops.I32Load16s, ops.I32Load16u,
		ops.I64Load8s, ops.I64Load8u, ops.I64Load16s, ops.I64Load16u, ops.I64Load32s, ops.I64Load32u,
		ops.I32Store, ops.I64Store, ops.F32Store, ops.F64Store,
		ops.I32Store8, ops.I32Store16, ops.I64Store8, ops.I64Store16, ops.I64Store32:
		return true
	}
	return false
}

func isAtomicOp(op byte) bool {
	switch op {
	case ops.AtomicFence, ops.I32AtomicLoad, ops.I64AtomicLoad, ops.I32AtomicStore, ops.I64AtomicStore,
		ops.I32AtomicRmwAdd, ops.I64AtomicRmwAdd, ops.I32AtomicRmwCmpxchg, ops.I64AtomicRmwCmpxchg,
		ops.MemoryAtomicWait32, ops.MemoryAtomicWait64, ops.MemoryAtomicNotify:
		return true
	}
	return false
}

func isMemoryTableMiscOp(op byte) bool {
	switch op {
	case ops.CurrentMemory, ops.GrowMemory, ops.MemoryInit, ops.DataDrop, ops.MemoryCopy, ops.MemoryFill,
		ops.TableInit, ops.ElemDrop, ops.TableCopy, ops.TableGrow, ops.TableSize, ops.TableFill,
		ops.TableGet, ops.TableSet:
		return true
	}
	return false
}

// execMemoryAccess implements the plain (non-atomic) load/store
// instruction family against memory 0.
func (ctx *ExecContext) execMemoryAccess(f *callFrame, op byte) error {
	offset, err := f.fetchMemarg()
	if err != nil {
		return err
	}
	if len(ctx.inst.Mems) == 0 {
		return trap(TrapOutOfBoundsMemoryAccess, "no memory in this instance")
	}
	mem := ctx.inst.Mems[0]

	switch op {
	case ops.I32Load, ops.I64Load, ops.F32Load, ops.F64Load,
		ops.I32Load8s, ops.I32Load8u, ops.I32Load16s, ops.I32Load16u,
		ops.I64Load8s, ops.I64Load8u, ops.I64Load16s, ops.I64Load16u, ops.I64Load32s, ops.I64Load32u:
		addr := effectiveAddress(offset, int32(ctx.pop()))
		v, err := loadValue(mem, op, addr)
		if err != nil {
			return err
		}
		ctx.push(v)

	default:
		// Address is pushed before the value, so it sits deeper on the
		// stack: pop value first, then address.
		value := ctx.pop()
		addr := effectiveAddress(offset, int32(ctx.pop()))
		return storeValue(mem, op, addr, value)
	}
	return nil
}

func loadValue(mem *Memory, op byte, addr uint64) (uint64, error) {
	switch op {
	case ops.I32Load, ops.F32Load:
		v, err := mem.load32(addr)
		return uint64(v), err
	case ops.I64Load, ops.F64Load:
		return mem.load64(addr)
	case ops.I32Load8s:
		v, err := mem.load8(addr)
		return uint64(uint32(int32(int8(v)))), err
	case ops.I32Load8u:
		v, err := mem.load8(addr)
		return uint64(v), err
	case ops.I32Load16s:
		v, err := mem.load16(addr)
		return uint64(uint32(int32(int16(v)))), err
	case ops.I32Load16u:
		v, err := mem.load16(addr)
		return uint64(v), err
	case ops.I64Load8s:
		v, err := mem.load8(addr)
		return uint64(int64(int8(v))), err
	case ops.I64Load8u:
		v, err := mem.load8(addr)
		return uint64(v), err
	case ops.I64Load16s:
		v, err := mem.load16(addr)
		return uint64(int64(int16(v))), err
	case ops.I64Load16u:
		v, err := mem.load16(addr)
		return uint64(v), err
	case ops.I64Load32s:
		v, err := mem.load32(addr)
		return uint64(int64(int32(v))), err
	case ops.I64Load32u:
		v, err := mem.load32(addr)
		return uint64(v), err
	}
	panic("exec: unreachable load op")
}

func storeValue(mem *Memory, op byte, addr, value uint64) error {
	switch op {
	case ops.I32Store, ops.F32Store, ops.I32Store8, ops.I32Store16:
		switch op {
		case ops.I32Store8:
			return mem.store8(addr, byte(value))
		case ops.I32Store16:
			return mem.store16(addr, uint16(value))
		default:
			return mem.store32(addr, uint32(value))
		}
	case ops.I64Store, ops.F64Store, ops.I64Store8, ops.I64Store16, ops.I64Store32:
		switch op {
		case ops.I64Store8:
			return mem.store8(addr, byte(value))
		case ops.I64Store16:
			return mem.store16(addr, uint16(value))
		case ops.I64Store32:
			return mem.store32(addr, uint32(value))
		default:
			return mem.store64(addr, value)
		}
	}
	panic("exec: unreachable store op")
}

// execMiscOp implements memory.size/grow, the bulk-memory operator
// family (memory.init/copy/fill, data.drop), and the table operator
// family (table.init/copy/fill/grow/size/get/set, elem.drop).
func (ctx *ExecContext) execMiscOp(f *callFrame, op byte) error {
	switch op {
	case ops.CurrentMemory:
		if _, err := f.fetchByte(); err != nil {
			return err
		}
		ctx.push(uint64(ctx.inst.Mems[0].Pages()))

	case ops.GrowMemory:
		if _, err := f.fetchByte(); err != nil {
			return err
		}
		delta := uint32(ctx.pop())
		old, _, ok := ctx.inst.Mems[0].Grow(delta)
		if !ok {
			ctx.push(uint64(uint32(0xffffffff)))
		} else {
			ctx.push(uint64(old))
		}

	case ops.MemoryInit:
		segIdx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		memIdx, err := f.fetchByte()
		if err != nil {
			return err
		}
		length := uint64(uint32(ctx.pop()))
		src := uint64(uint32(ctx.pop()))
		dst := uint64(uint32(ctx.pop()))
		seg := ctx.inst.Module.Data[segIdx]
		data := seg.Data
		if ctx.inst.droppedData[segIdx] {
			data = nil
		}
		return ctx.inst.Mems[memIdx].Init(dst, data, src, length)

	case ops.DataDrop:
		segIdx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		ctx.inst.droppedData[segIdx] = true

	case ops.MemoryCopy:
		dstIdx, err := f.fetchByte()
		if err != nil {
			return err
		}
		srcIdx, err := f.fetchByte()
		if err != nil {
			return err
		}
		length := uint64(uint32(ctx.pop()))
		src := uint64(uint32(ctx.pop()))
		dst := uint64(uint32(ctx.pop()))
		if dstIdx != srcIdx {
			return ctx.crossMemCopy(dstIdx, srcIdx, dst, src, length)
		}
		return ctx.inst.Mems[dstIdx].Copy(dst, src, length)

	case ops.MemoryFill:
		memIdx, err := f.fetchByte()
		if err != nil {
			return err
		}
		length := uint64(uint32(ctx.pop()))
		value := byte(ctx.pop())
		dst := uint64(uint32(ctx.pop()))
		return ctx.inst.Mems[memIdx].Fill(dst, value, length)

	case ops.TableInit:
		elemIdx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		tableIdx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		length := uint32(ctx.pop())
		src := uint32(ctx.pop())
		dst := uint32(ctx.pop())
		seg := ctx.inst.Module.Elements[elemIdx]
		funcs := seg.Funcs
		if ctx.inst.droppedElem[elemIdx] {
			funcs = nil
		}
		return ctx.inst.Tables[tableIdx].Init(dst, funcs, src, length)

	case ops.ElemDrop:
		elemIdx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		ctx.inst.droppedElem[elemIdx] = true

	case ops.TableCopy:
		dstIdx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		srcIdx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		length := uint32(ctx.pop())
		src := uint32(ctx.pop())
		dst := uint32(ctx.pop())
		if dstIdx != srcIdx {
			return trap(TrapOutOfBoundsTableAccess, "table.copy across distinct tables is not supported")
		}
		return ctx.inst.Tables[dstIdx].Copy(dst, src, length)

	case ops.TableGrow:
		tableIdx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		delta := uint32(ctx.pop())
		fill := ctx.pop()
		old, ok := ctx.inst.Tables[tableIdx].Grow(delta, fill)
		if !ok {
			ctx.push(uint64(uint32(0xffffffff)))
		} else {
			ctx.push(uint64(old))
		}

	case ops.TableSize:
		tableIdx, err := f.fetchByte()
		if err != nil {
			return err
		}
		ctx.push(uint64(ctx.inst.Tables[tableIdx].Size()))

	case ops.TableFill:
		tableIdx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		length := uint32(ctx.pop())
		value := ctx.pop()
		dst := uint32(ctx.pop())
		return ctx.inst.Tables[tableIdx].Fill(dst, value, length)

	case ops.TableGet:
		tableIdx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		idx := uint32(ctx.pop())
		v, err := ctx.inst.Tables[tableIdx].Get(idx)
		if err != nil {
			return err
		}
		ctx.push(v)

	case ops.TableSet:
		tableIdx, err := f.fetchVarUint()
		if err != nil {
			return err
		}
		v := ctx.pop()
		idx := uint32(ctx.pop())
		return ctx.inst.Tables[tableIdx].Set(idx, v)
	}
	return nil
}

// crossMemCopy handles memory.copy between two distinct memory
// indices. An MVP module only ever allocates one memory per instance
// in practice, but the instruction's encoding always
// carries two indices, so this is kept as a fallback for a
// multi-memory instance built by a future decoder.
func (ctx *ExecContext) crossMemCopy(dstIdx, srcIdx byte, dst, src, length uint64) error {
	srcMem := ctx.inst.Mems[srcIdx]
	dstMem := ctx.inst.Mems[dstIdx]
	if err := srcMem.bounds(src, uint32(length)); err != nil {
		return err
	}
	if err := dstMem.bounds(dst, uint32(length)); err != nil {
		return err
	}
	copy(dstMem.data[dst:dst+length], srcMem.data[src:src+length])
	return nil
}

// execAtomicOp implements the threads-proposal atomic operator
// family: fence, atomic load/store, the add/cmpxchg representatives
// of the read-modify-write matrix, and wait/notify.
func (ctx *ExecContext) execAtomicOp(f *callFrame, op byte) error {
	if op == ops.AtomicFence {
		return nil
	}

	offset, err := f.fetchMemarg()
	if err != nil {
		return err
	}
	mem := ctx.inst.Mems[0]

	switch op {
	case ops.I32AtomicLoad:
		addr := effectiveAddress(offset, int32(ctx.pop()))
		v, err := mem.AtomicLoad32(addr)
		if err != nil {
			return err
		}
		ctx.push(uint64(v))

	case ops.I64AtomicLoad:
		addr := effectiveAddress(offset, int32(ctx.pop()))
		v, err := mem.AtomicLoad64(addr)
		if err != nil {
			return err
		}
		ctx.push(v)

	case ops.I32AtomicStore:
		value := uint32(ctx.pop())
		addr := effectiveAddress(offset, int32(ctx.pop()))
		return mem.AtomicStore32(addr, value)

	case ops.I64AtomicStore:
		value := ctx.pop()
		addr := effectiveAddress(offset, int32(ctx.pop()))
		return mem.AtomicStore64(addr, value)

	case ops.I32AtomicRmwAdd:
		value := uint32(ctx.pop())
		addr := effectiveAddress(offset, int32(ctx.pop()))
		old, err := mem.AtomicAdd32(addr, value)
		if err != nil {
			return err
		}
		ctx.push(uint64(old))

	case ops.I64AtomicRmwAdd:
		value := ctx.pop()
		addr := effectiveAddress(offset, int32(ctx.pop()))
		old, err := mem.AtomicAdd64(addr, value)
		if err != nil {
			return err
		}
		ctx.push(old)

	case ops.I32AtomicRmwCmpxchg:
		replacement := uint32(ctx.pop())
		expect := uint32(ctx.pop())
		addr := effectiveAddress(offset, int32(ctx.pop()))
		old, err := mem.AtomicCmpxchg32(addr, expect, replacement)
		if err != nil {
			return err
		}
		ctx.push(uint64(old))

	case ops.I64AtomicRmwCmpxchg:
		replacement := ctx.pop()
		expect := ctx.pop()
		addr := effectiveAddress(offset, int32(ctx.pop()))
		old, err := mem.AtomicCmpxchg64(addr, expect, replacement)
		if err != nil {
			return err
		}
		ctx.push(old)

	case ops.MemoryAtomicWait32:
		timeout := int64(ctx.pop())
		expected := uint32(ctx.pop())
		addr := effectiveAddress(offset, int32(ctx.pop()))
		res, err := ctx.atomicWait32(mem, addr, expected, timeout)
		if err != nil {
			return err
		}
		ctx.push(uint64(res))

	case ops.MemoryAtomicWait64:
		timeout := int64(ctx.pop())
		expected := ctx.pop()
		addr := effectiveAddress(offset, int32(ctx.pop()))
		res, err := ctx.atomicWait64(mem, addr, expected, timeout)
		if err != nil {
			return err
		}
		ctx.push(uint64(res))

	case ops.MemoryAtomicNotify:
		count := uint32(ctx.pop())
		addr := effectiveAddress(offset, int32(ctx.pop()))
		n, err := ctx.atomicNotify(mem, addr, count)
		if err != nil {
			return err
		}
		ctx.push(uint64(n))
	}
	return nil
}
