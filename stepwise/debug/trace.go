// Package debug carries the read-only snapshots display backends render:
// machine state, the resolved call stack, and a disassembly window around
// the current program counter.
package debug

import (
	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/disasm"
	"github.com/stepwisedbg/go-stepwise/stepwise/machine"
)

// MachineState is the register file at a stop.
type MachineState struct {
	GPR    [machine.NumGPR]uint16
	PC     uint16
	PSR    uint16
	Halted bool
}

// FrameInfo is one resolved stack frame. Function, File and Line are empty
// when the frame has no symbol or line info.
type FrameInfo struct {
	Index    int
	PC       addr.Address
	Function string
	File     string
	Line     uint32
}

// TraceData is everything a backend needs to draw one stop.
type TraceData struct {
	State   MachineState
	Frames  []FrameInfo
	Listing []disasm.Line
	PC      addr.Address
	Stops   int
}

// Provider hands out trace snapshots; backends hold one instead of the
// session itself.
type Provider interface {
	ExtractTraceData() *TraceData
}

// Window disassembles a window of instructions around pc: back instructions
// before it and count total. Instructions are fixed width, so the window is
// plain address arithmetic.
func Window(m *machine.Machine, pc addr.Address, back, count int) []disasm.Line {
	if m == nil || !pc.IsValid() || count <= 0 {
		return nil
	}
	start := int(pc) - back
	if start < 0 {
		start = 0
	}
	lines := make([]disasm.Line, 0, count)
	for i := 0; i < count; i++ {
		a := addr.Address(start + i)
		inst, ok := m.DecodeAt(a)
		if !ok {
			break
		}
		lines = append(lines, disasm.Line{
			Address:  a,
			Mnemonic: inst.Mnemonic(nil),
			Operands: inst.Operands(nil),
			Comment:  inst.Comment(nil),
		})
	}
	return lines
}
