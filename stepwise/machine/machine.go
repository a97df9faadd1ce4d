// Package machine implements the reference 16-bit machine the debugger
// steps: a word-addressed memory, eight general registers, and an LC-3
// style instruction set with decode and emulation entry points.
package machine

import (
	"fmt"

	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/insn"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
	"github.com/stepwisedbg/go-stepwise/stepwise/target"
)

// Arch is the architecture triple the machine reports.
const Arch = "lc3-unknown-none"

// Machine is the live machine state. It implements the process interface
// the target and stack frames read registers and memory through.
type Machine struct {
	mem    [1 << 16]uint16
	regs   [NumGPR]uint16
	pc     uint16
	psr    uint16
	halted bool
	table  *symbol.Table
}

var _ target.Process = (*Machine)(nil)

// New returns a reset machine.
func New() *Machine {
	return &Machine{psr: FlagZero}
}

// SetSymbols attaches the symbol table instructions decode against.
func (m *Machine) SetSymbols(table *symbol.Table) {
	m.table = table
}

// Symbols returns the attached symbol table, possibly nil.
func (m *Machine) Symbols() *symbol.Table {
	return m.table
}

// LoadWords copies a code/data image into memory at origin.
func (m *Machine) LoadWords(origin uint16, words []uint16) {
	copy(m.mem[origin:], words)
}

// SetPC moves execution to the given address.
func (m *Machine) SetPC(a addr.Address) {
	if a.IsValid() {
		m.pc = uint16(a)
	}
}

// PC returns the current program counter.
func (m *Machine) PC() addr.Address {
	return addr.Address(m.pc)
}

// Halted reports whether a halt trap has executed.
func (m *Machine) Halted() bool {
	return m.halted
}

// Register reads a register by emulation numbering.
func (m *Machine) Register(n int) (uint16, bool) {
	switch {
	case n >= 0 && n < NumGPR:
		return m.regs[n], true
	case n == RegPC:
		return m.pc, true
	case n == RegPSR:
		return m.psr, true
	case n == RegHalt:
		if m.halted {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// SetRegister writes a register by emulation numbering.
func (m *Machine) SetRegister(n int, value uint16) bool {
	switch {
	case n >= 0 && n < NumGPR:
		m.regs[n] = value
	case n == RegPC:
		m.pc = value
	case n == RegPSR:
		m.psr = value
	case n == RegHalt:
		m.halted = value != 0
	default:
		return false
	}
	return true
}

// ReadWord reads one memory word.
func (m *Machine) ReadWord(a addr.Address) (uint16, bool) {
	if !a.IsValid() || uint32(a) >= uint32(len(m.mem)) {
		return 0, false
	}
	return m.mem[uint16(a)], true
}

// WriteWord writes one memory word.
func (m *Machine) WriteWord(a addr.Address, value uint16) bool {
	if !a.IsValid() || uint32(a) >= uint32(len(m.mem)) {
		return false
	}
	m.mem[uint16(a)] = value
	return true
}

// DecodeAt decodes the instruction at the given address.
func (m *Machine) DecodeAt(a addr.Address) (*Instruction, bool) {
	word, ok := m.ReadWord(a)
	if !ok {
		return nil, false
	}
	return Decode(word, a, m.table), true
}

// liveCallbacks routes emulation traffic to the machine passed as baton.
func liveCallbacks() insn.EmulationCallbacks {
	return insn.EmulationCallbacks{
		ReadRegister: func(baton any, n int) (uint16, bool) {
			mc, ok := baton.(*Machine)
			if !ok {
				return 0, false
			}
			return mc.Register(n)
		},
		WriteRegister: func(baton any, n int, value uint16) bool {
			mc, ok := baton.(*Machine)
			if !ok {
				return false
			}
			return mc.SetRegister(n, value)
		},
		ReadMemory: func(baton any, a addr.Address) (uint16, bool) {
			mc, ok := baton.(*Machine)
			if !ok {
				return 0, false
			}
			return mc.ReadWord(a)
		},
		WriteMemory: func(baton any, a addr.Address, value uint16) bool {
			mc, ok := baton.(*Machine)
			if !ok {
				return false
			}
			return mc.WriteWord(a, value)
		},
	}
}

// Step executes a single instruction, returning the instruction that ran.
func (m *Machine) Step() (*Instruction, error) {
	if m.halted {
		return nil, fmt.Errorf("machine is halted")
	}
	inst, ok := m.DecodeAt(m.PC())
	if !ok {
		return nil, fmt.Errorf("pc %s outside memory", m.PC())
	}
	if !inst.Emulate("", EmulateDefault, m, liveCallbacks()) {
		return inst, fmt.Errorf("illegal instruction 0x%04x at %s", inst.word, inst.pc)
	}
	return inst, nil
}
