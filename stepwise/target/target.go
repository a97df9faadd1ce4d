// Package target ties a debuggee process to its symbol table and serializes
// externally initiated operations on it behind a per-target API lock.
package target

import (
	"github.com/stepwisedbg/go-stepwise/stepwise/frame"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
)

// Process is the live machine state a target fronts: registers and memory.
type Process interface {
	frame.Registers
	frame.Memory
}

// Target is one debuggee: an architecture triple, a symbol table and the
// process being inspected. All operations that derive state from the target
// must hold its API lock; the lock is recursive so re-entrant target calls
// made while formatting or emulating do not self-deadlock.
type Target struct {
	arch    string
	table   *symbol.Table
	process Process
	api     recursiveMutex
}

// New creates a target for the given architecture triple.
func New(arch string, table *symbol.Table, process Process) *Target {
	return &Target{arch: arch, table: table, process: process}
}

// Arch returns the target's architecture triple.
func (t *Target) Arch() string {
	if t == nil {
		return ""
	}
	return t.arch
}

// Symbols returns the target's symbol table, nil-safe.
func (t *Target) Symbols() *symbol.Table {
	if t == nil {
		return nil
	}
	return t.table
}

// Process returns the target's process, nil if it has gone away.
func (t *Target) Process() Process {
	if t == nil {
		return nil
	}
	return t.process
}

// LockAPI acquires the target's recursive API lock.
func (t *Target) LockAPI() {
	t.api.Lock()
}

// UnlockAPI releases one acquisition of the API lock.
func (t *Target) UnlockAPI() {
	t.api.Unlock()
}

// ExecutionContext carries the state a computation runs against. Any of the
// fields may be nil; consumers fall back to neutral behavior.
type ExecutionContext struct {
	Target  *Target
	Process Process
	Frame   *frame.StackFrame
}

// CalculateExecutionContext seeds a context with the target and its process.
func (t *Target) CalculateExecutionContext() *ExecutionContext {
	if t == nil {
		return &ExecutionContext{}
	}
	return &ExecutionContext{Target: t, Process: t.process}
}
