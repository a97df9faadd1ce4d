package machine

import (
	"fmt"
	"sort"

	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/bit"
	"github.com/stepwisedbg/go-stepwise/stepwise/insn"
	"github.com/stepwisedbg/go-stepwise/stepwise/logging"
)

// Register numbering used by emulation callbacks. r0-r7 are the general
// registers; the rest are pseudo-registers.
const (
	NumGPR  = 8
	RegPC   = 8
	RegPSR  = 9
	RegHalt = 10 // non-zero once a halt trap executed
)

// Condition flags in the PSR's low bits.
const (
	FlagPositive uint16 = 1 << 0
	FlagZero     uint16 = 1 << 1
	FlagNegative uint16 = 1 << 2
)

// Emulation options.
const (
	EmulateDefault uint32 = 0
	// EmulateIgnoreConditions takes conditional branches unconditionally.
	EmulateIgnoreConditions uint32 = 1 << 0
)

// emulator routes one instruction's state traffic through callbacks,
// latching the first failure.
type emulator struct {
	baton any
	cb    insn.EmulationCallbacks
	ok    bool
}

func (e *emulator) reg(n int) uint16 {
	v, ok := e.cb.ReadRegister(e.baton, n)
	if !ok {
		e.ok = false
	}
	return v
}

func (e *emulator) setReg(n int, v uint16) {
	if !e.cb.WriteRegister(e.baton, n, v) {
		e.ok = false
	}
}

func (e *emulator) read(a uint16) uint16 {
	v, ok := e.cb.ReadMemory(e.baton, addr.Address(a))
	if !ok {
		e.ok = false
	}
	return v
}

func (e *emulator) write(a, v uint16) {
	if !e.cb.WriteMemory(e.baton, addr.Address(a), v) {
		e.ok = false
	}
}

func (e *emulator) setcc(v uint16) {
	psr := e.reg(RegPSR) &^ (FlagPositive | FlagZero | FlagNegative)
	switch {
	case v == 0:
		psr |= FlagZero
	case v>>15 == 1:
		psr |= FlagNegative
	default:
		psr |= FlagPositive
	}
	e.setReg(RegPSR, psr)
}

// Emulate executes the instruction's semantics through the callbacks,
// including the PC update. It returns false for a non-native arch, a
// failed callback, or an instruction with no defined semantics.
func (i *Instruction) Emulate(arch string, options uint32, baton any, cb insn.EmulationCallbacks) bool {
	if !nativeArch(arch) {
		return false
	}
	if cb.ReadRegister == nil || cb.WriteRegister == nil ||
		cb.ReadMemory == nil || cb.WriteMemory == nil {
		return false
	}

	e := &emulator{baton: baton, cb: cb, ok: true}
	word := i.word
	next := uint16(i.pc) + 1
	e.setReg(RegPC, next)

	dr := int(bit.ExtractBits16(word, 11, 9))
	sr1 := int(bit.ExtractBits16(word, 8, 6))

	switch i.opcode() {
	case opADD:
		var operand uint16
		if bit.IsSet16(5, word) {
			operand = bit.SignExtend(word&0x1F, 5)
		} else {
			operand = e.reg(int(word & 0x7))
		}
		result := e.reg(sr1) + operand
		e.setReg(dr, result)
		e.setcc(result)

	case opAND:
		var operand uint16
		if bit.IsSet16(5, word) {
			operand = bit.SignExtend(word&0x1F, 5)
		} else {
			operand = e.reg(int(word & 0x7))
		}
		result := e.reg(sr1) & operand
		e.setReg(dr, result)
		e.setcc(result)

	case opNOT:
		result := ^e.reg(sr1)
		e.setReg(dr, result)
		e.setcc(result)

	case opBR:
		cond := bit.ExtractBits16(word, 11, 9)
		taken := cond == 0 || cond&(e.reg(RegPSR)&0x7) > 0
		if options&EmulateIgnoreConditions != 0 {
			taken = true
		}
		if taken {
			e.setReg(RegPC, next+bit.SignExtend(word&0x1FF, 9))
		}

	case opJMP:
		e.setReg(RegPC, e.reg(sr1))

	case opJSR:
		e.setReg(7, next)
		if bit.IsSet16(11, word) {
			e.setReg(RegPC, next+bit.SignExtend(word&0x7FF, 11))
		} else {
			e.setReg(RegPC, e.reg(sr1))
		}

	case opLD:
		result := e.read(next + bit.SignExtend(word&0x1FF, 9))
		e.setReg(dr, result)
		e.setcc(result)

	case opLDI:
		result := e.read(e.read(next + bit.SignExtend(word&0x1FF, 9)))
		e.setReg(dr, result)
		e.setcc(result)

	case opLDR:
		result := e.read(e.reg(sr1) + bit.SignExtend(word&0x3F, 6))
		e.setReg(dr, result)
		e.setcc(result)

	case opLEA:
		result := next + bit.SignExtend(word&0x1FF, 9)
		e.setReg(dr, result)
		e.setcc(result)

	case opST:
		e.write(next+bit.SignExtend(word&0x1FF, 9), e.reg(dr))

	case opSTI:
		e.write(e.read(next+bit.SignExtend(word&0x1FF, 9)), e.reg(dr))

	case opSTR:
		e.write(e.reg(sr1)+bit.SignExtend(word&0x3F, 6), e.reg(dr))

	case opTRAP:
		vect := bit.ZeroExtend(word, 8)
		if vect == trapHalt {
			e.setReg(RegHalt, 1)
		} else {
			e.setReg(7, next)
			e.setReg(RegPC, e.read(vect))
		}

	default:
		// RTI needs a supervisor stack this machine does not model; RES
		// is reserved.
		return false
	}

	return e.ok
}

// DumpEmulation emulates the instruction in isolation against a scratch
// state for the requested architecture, tracing the resulting registers.
func (i *Instruction) DumpEmulation(arch string) bool {
	if arch == "" || !nativeArch(arch) {
		return false
	}
	pc := i.pc
	if !pc.IsValid() {
		pc = 0x3000
	}
	state := newScratchState()
	state.regs[RegPC] = uint16(pc)
	state.mem[uint32(pc)] = i.word

	ok := i.Emulate(arch, EmulateDefault, state, scratchCallbacks())
	if log := logging.Emulate(); log != nil {
		log.Debug("dump emulation",
			"arch", arch,
			"instruction", i.Mnemonic(nil)+" "+i.Operands(nil),
			"ok", ok,
			"registers", state.describeRegisters())
	}
	return ok
}

// scratchState is an isolated register file and sparse memory used by
// emulation dumps and self-tests.
type scratchState struct {
	regs map[int]uint16
	mem  map[uint32]uint16
}

func newScratchState() *scratchState {
	return &scratchState{regs: map[int]uint16{}, mem: map[uint32]uint16{}}
}

func (s *scratchState) describeRegisters() string {
	keys := make([]int, 0, len(s.regs))
	for n := range s.regs {
		keys = append(keys, n)
	}
	sort.Ints(keys)
	out := ""
	for _, n := range keys {
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%s=0x%04x", registerName(n), s.regs[n])
	}
	return out
}

func scratchCallbacks() insn.EmulationCallbacks {
	return insn.EmulationCallbacks{
		ReadRegister: func(baton any, n int) (uint16, bool) {
			s, ok := baton.(*scratchState)
			if !ok {
				return 0, false
			}
			return s.regs[n], true
		},
		WriteRegister: func(baton any, n int, value uint16) bool {
			s, ok := baton.(*scratchState)
			if !ok {
				return false
			}
			s.regs[n] = value
			return true
		},
		ReadMemory: func(baton any, a addr.Address) (uint16, bool) {
			s, ok := baton.(*scratchState)
			if !ok || !a.IsValid() {
				return 0, false
			}
			return s.mem[uint32(a)], true
		},
		WriteMemory: func(baton any, a addr.Address, value uint16) bool {
			s, ok := baton.(*scratchState)
			if !ok || !a.IsValid() {
				return false
			}
			s.mem[uint32(a)] = value
			return true
		},
	}
}

func registerName(n int) string {
	switch {
	case n >= 0 && n < NumGPR:
		return fmt.Sprintf("r%d", n)
	case n == RegPC:
		return "pc"
	case n == RegPSR:
		return "psr"
	case n == RegHalt:
		return "halt"
	default:
		return fmt.Sprintf("reg%d", n)
	}
}
