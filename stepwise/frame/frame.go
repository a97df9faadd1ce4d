// Package frame models stack frames and the relation between the frame
// before a step and the frame after it.
package frame

import (
	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
)

// Comparison describes how a new top frame relates to an older one.
type Comparison int

const (
	CompareInvalid Comparison = iota
	CompareUnknown
	CompareEqual
	// CompareSameParent means a sibling call: same depth, different function.
	CompareSameParent
	// CompareYounger means we stepped into a deeper frame.
	CompareYounger
	// CompareOlder means we stepped out to a shallower frame.
	CompareOlder
)

func (c Comparison) String() string {
	switch c {
	case CompareUnknown:
		return "unknown"
	case CompareEqual:
		return "equal"
	case CompareSameParent:
		return "same-parent"
	case CompareYounger:
		return "younger"
	case CompareOlder:
		return "older"
	default:
		return "invalid"
	}
}

// ID identifies a frame across steps: the call-stack depth it sits at and
// the entry address of the function executing in it.
type ID struct {
	Depth         int
	FunctionEntry addr.Address
}

// Compare relates the frame identified by after to the one identified by
// before, from the point of view of the new (after) frame.
func Compare(before, after ID) Comparison {
	switch {
	case after.Depth > before.Depth:
		return CompareYounger
	case after.Depth < before.Depth:
		return CompareOlder
	case after.FunctionEntry == before.FunctionEntry:
		return CompareEqual
	default:
		return CompareSameParent
	}
}

// Registers is the register context a frame exposes.
type Registers interface {
	PC() addr.Address
	Register(n int) (uint16, bool)
	SetRegister(n int, value uint16) bool
}

// Memory is the memory view a frame exposes.
type Memory interface {
	ReadWord(a addr.Address) (uint16, bool)
	WriteWord(a addr.Address, value uint16) bool
}

// StackFrame is one frame of a thread's call stack. Index 0 is the
// youngest (currently executing) frame.
type StackFrame struct {
	index int
	id    ID
	pc    addr.Address
	table *symbol.Table
	regs  Registers
	mem   Memory
}

// New builds a stack frame backed by the given symbol table and machine
// state. regs and mem may be nil for frames that cannot expose them.
func New(index int, id ID, pc addr.Address, table *symbol.Table, regs Registers, mem Memory) *StackFrame {
	return &StackFrame{index: index, id: id, pc: pc, table: table, regs: regs, mem: mem}
}

// Index returns the frame's position in the call stack, 0 being youngest.
func (f *StackFrame) Index() int {
	if f == nil {
		return 0
	}
	return f.index
}

// PC returns the address the frame is executing (or will resume) at.
func (f *StackFrame) PC() addr.Address {
	if f == nil {
		return addr.Invalid
	}
	return f.pc
}

// ID returns the frame's identity for cross-step comparisons.
func (f *StackFrame) ID() ID {
	if f == nil {
		return ID{FunctionEntry: addr.Invalid}
	}
	return f.id
}

// SymbolContext resolves the requested context items for the frame's PC.
func (f *StackFrame) SymbolContext(what symbol.ContextItem) symbol.Context {
	if f == nil {
		return symbol.Context{LineEntry: symbol.LineEntry{Range: addr.Range{Start: addr.Invalid}}}
	}
	return f.table.Resolve(f.pc, what)
}

// HasDebugInformation reports whether line info covers the frame's PC.
func (f *StackFrame) HasDebugInformation() bool {
	if f == nil {
		return false
	}
	return f.table.HasLineInfo(f.pc)
}

// Registers returns the frame's register context, nil if unavailable.
func (f *StackFrame) Registers() Registers {
	if f == nil {
		return nil
	}
	return f.regs
}

// Memory returns the frame's memory view, nil if unavailable.
func (f *StackFrame) Memory() Memory {
	if f == nil {
		return nil
	}
	return f.mem
}
