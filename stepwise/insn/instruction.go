// Package insn defines the decoded-instruction contract and the shareable
// handle that exposes single instructions to external consumers.
package insn

import (
	"io"
	"strings"
	"sync"

	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/frame"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
	"github.com/stepwisedbg/go-stepwise/stepwise/target"
)

// EmulationCallbacks route an emulated instruction's register and memory
// traffic. The baton is carried verbatim on every call.
type EmulationCallbacks struct {
	ReadRegister  func(baton any, n int) (uint16, bool)
	WriteRegister func(baton any, n int, value uint16) bool
	ReadMemory    func(baton any, a addr.Address) (uint16, bool)
	WriteMemory   func(baton any, a addr.Address, value uint16) bool
}

// Instruction is one decoded machine instruction. Content is immutable;
// formatted string fields are computed against a caller-supplied execution
// context and may be cached inside the implementation.
type Instruction interface {
	Address() addr.Address
	Mnemonic(ctx *target.ExecutionContext) string
	Operands(ctx *target.ExecutionContext) string
	Comment(ctx *target.ExecutionContext) string
	Data() []byte
	ByteSize() int
	DoesBranch() bool
	HasDelaySlot() bool
	AddressClass() addr.Class
	// Module returns the symbol table of the module the instruction was
	// decoded from, nil when unknown.
	Module() *symbol.Table
	// Emulate executes the instruction's semantics through the callbacks.
	// An empty arch means the instruction's native architecture.
	Emulate(arch string, options uint32, baton any, cb EmulationCallbacks) bool
	// DumpEmulation emulates in isolation against the requested
	// architecture triple, tracing the resulting state.
	DumpEmulation(arch string) bool
	// TestEmulation drives the instruction's emulation self-test from a
	// test file, reporting to w.
	TestEmulation(w io.Writer, path string) bool
}

// FrameCallbacks returns callbacks that route register and memory traffic
// to the stack frame passed as the baton.
func FrameCallbacks() EmulationCallbacks {
	return EmulationCallbacks{
		ReadRegister: func(baton any, n int) (uint16, bool) {
			fr, _ := baton.(*frame.StackFrame)
			if regs := fr.Registers(); regs != nil {
				return regs.Register(n)
			}
			return 0, false
		},
		WriteRegister: func(baton any, n int, value uint16) bool {
			fr, _ := baton.(*frame.StackFrame)
			if regs := fr.Registers(); regs != nil {
				return regs.SetRegister(n, value)
			}
			return false
		},
		ReadMemory: func(baton any, a addr.Address) (uint16, bool) {
			fr, _ := baton.(*frame.StackFrame)
			if mem := fr.Memory(); mem != nil {
				return mem.ReadWord(a)
			}
			return 0, false
		},
		WriteMemory: func(baton any, a addr.Address, value uint16) bool {
			fr, _ := baton.(*frame.StackFrame)
			if mem := fr.Memory(); mem != nil {
				return mem.WriteWord(a, value)
			}
			return false
		},
	}
}

// EmulationTester runs an architecture's emulation self-test.
type EmulationTester func(w io.Writer, test *EmulationTest) bool

var (
	testersMu sync.RWMutex
	testers   = map[string]EmulationTester{}
)

// RegisterEmulationTester installs the self-tester for an architecture.
// The key is the first component of the triple ("lc3" for lc3-unknown-none).
func RegisterEmulationTester(arch string, fn EmulationTester) {
	testersMu.Lock()
	defer testersMu.Unlock()
	testers[archKey(arch)] = fn
}

// LookupEmulationTester finds the self-tester for an architecture triple.
func LookupEmulationTester(arch string) EmulationTester {
	testersMu.RLock()
	defer testersMu.RUnlock()
	return testers[archKey(arch)]
}

func archKey(triple string) string {
	if i := strings.IndexByte(triple, '-'); i >= 0 {
		return triple[:i]
	}
	return triple
}
