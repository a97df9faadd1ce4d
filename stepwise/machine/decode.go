package machine

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/bit"
	"github.com/stepwisedbg/go-stepwise/stepwise/insn"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
	"github.com/stepwisedbg/go-stepwise/stepwise/target"
)

const (
	opBR   uint16 = 0b0000
	opADD  uint16 = 0b0001
	opLD   uint16 = 0b0010
	opST   uint16 = 0b0011
	opJSR  uint16 = 0b0100
	opAND  uint16 = 0b0101
	opLDR  uint16 = 0b0110
	opSTR  uint16 = 0b0111
	opRTI  uint16 = 0b1000
	opNOT  uint16 = 0b1001
	opLDI  uint16 = 0b1010
	opSTI  uint16 = 0b1011
	opJMP  uint16 = 0b1100
	opRES  uint16 = 0b1101
	opLEA  uint16 = 0b1110
	opTRAP uint16 = 0b1111
)

const trapHalt uint16 = 0x25

// Instruction is one decoded word of machine code. The word and address
// never change after decoding; formatted fields are computed lazily and
// cached.
type Instruction struct {
	word  uint16
	pc    addr.Address
	table *symbol.Table

	once     sync.Once
	mnemonic string
	operands string
}

var _ insn.Instruction = (*Instruction)(nil)

// Decode decodes the instruction word sitting at pc. table provides symbol
// context for comments and may be nil.
func Decode(word uint16, pc addr.Address, table *symbol.Table) *Instruction {
	return &Instruction{word: word, pc: pc, table: table}
}

func (i *Instruction) opcode() uint16 {
	return i.word >> 12
}

// Address returns the address the instruction was decoded at.
func (i *Instruction) Address() addr.Address {
	return i.pc
}

// Data returns the instruction's raw bytes, big-endian.
func (i *Instruction) Data() []byte {
	return []byte{bit.High(i.word), bit.Low(i.word)}
}

// ByteSize returns the encoded size in bytes.
func (i *Instruction) ByteSize() int {
	return 2
}

// AddressClass classifies the instruction's address.
func (i *Instruction) AddressClass() addr.Class {
	if !i.pc.IsValid() {
		return addr.ClassInvalid
	}
	return addr.ClassCode
}

// Module returns the symbol table the instruction was decoded against.
func (i *Instruction) Module() *symbol.Table {
	return i.table
}

// DoesBranch reports whether the instruction can change control flow.
func (i *Instruction) DoesBranch() bool {
	switch i.opcode() {
	case opBR, opJMP, opJSR, opTRAP, opRTI:
		return true
	}
	return false
}

// HasDelaySlot is always false: the ISA has no delay slots.
func (i *Instruction) HasDelaySlot() bool {
	return false
}

// IsCall reports whether the instruction pushes a new frame.
func (i *Instruction) IsCall() bool {
	switch i.opcode() {
	case opJSR:
		return true
	case opTRAP:
		return bit.ZeroExtend(i.word, 8) != trapHalt
	}
	return false
}

// IsReturn reports whether the instruction pops the current frame.
// RET is JMP through r7.
func (i *Instruction) IsReturn() bool {
	switch i.opcode() {
	case opJMP:
		return bit.ExtractBits16(i.word, 8, 6) == 7
	case opRTI:
		return true
	}
	return false
}

// branchTarget returns the statically known control-flow destination, or
// an invalid address for register-indirect flow.
func (i *Instruction) branchTarget() addr.Address {
	next := uint16(i.pc) + 1
	switch i.opcode() {
	case opBR:
		return addr.Address(next + bit.SignExtend(i.word&0x1FF, 9))
	case opJSR:
		if bit.IsSet16(11, i.word) {
			return addr.Address(next + bit.SignExtend(i.word&0x7FF, 11))
		}
	}
	return addr.Invalid
}

// Mnemonic returns the instruction mnemonic. The context is unused for
// this ISA but kept so callers can treat all instructions uniformly.
func (i *Instruction) Mnemonic(ctx *target.ExecutionContext) string {
	i.format()
	return i.mnemonic
}

// Operands returns the operand text.
func (i *Instruction) Operands(ctx *target.ExecutionContext) string {
	i.format()
	return i.operands
}

// Comment annotates statically known branch targets with the symbol they
// land in, preferring the context's target table over the decode table.
func (i *Instruction) Comment(ctx *target.ExecutionContext) string {
	dest := i.branchTarget()
	if !dest.IsValid() {
		return ""
	}
	table := i.table
	if ctx != nil && ctx.Target != nil && ctx.Target.Symbols() != nil {
		table = ctx.Target.Symbols()
	}
	if sym := table.SymbolFor(dest); sym != nil {
		off := uint32(dest) - uint32(sym.Addr)
		if off == 0 {
			return fmt.Sprintf("-> %s <%s>", dest, sym.Name)
		}
		return fmt.Sprintf("-> %s <%s+%d>", dest, sym.Name, off)
	}
	return fmt.Sprintf("-> %s", dest)
}

func (i *Instruction) format() {
	i.once.Do(func() {
		i.mnemonic, i.operands = formatWord(i.word, uint16(i.pc))
	})
}

func formatWord(word, pc uint16) (mnemonic, operands string) {
	dr := bit.ExtractBits16(word, 11, 9)
	sr1 := bit.ExtractBits16(word, 8, 6)

	switch word >> 12 {
	case opADD, opAND:
		mnemonic = "add"
		if word>>12 == opAND {
			mnemonic = "and"
		}
		if bit.IsSet16(5, word) {
			imm5 := int16(bit.SignExtend(word&0x1F, 5))
			operands = fmt.Sprintf("r%d, r%d, #%d", dr, sr1, imm5)
		} else {
			operands = fmt.Sprintf("r%d, r%d, r%d", dr, sr1, word&0x7)
		}
	case opNOT:
		mnemonic = "not"
		operands = fmt.Sprintf("r%d, r%d", dr, sr1)
	case opBR:
		mnemonic = "br"
		// All conditions (or none) means unconditional, rendered plain.
		if cond := bit.ExtractBits16(word, 11, 9); cond != 0 && cond != 0b111 {
			if bit.IsSet16(11, word) {
				mnemonic += "n"
			}
			if bit.IsSet16(10, word) {
				mnemonic += "z"
			}
			if bit.IsSet16(9, word) {
				mnemonic += "p"
			}
		}
		dest := pc + 1 + bit.SignExtend(word&0x1FF, 9)
		operands = fmt.Sprintf("0x%04x", dest)
	case opJMP:
		if bit.ExtractBits16(word, 8, 6) == 7 {
			mnemonic = "ret"
		} else {
			mnemonic = "jmp"
			operands = fmt.Sprintf("r%d", sr1)
		}
	case opJSR:
		if bit.IsSet16(11, word) {
			mnemonic = "jsr"
			dest := pc + 1 + bit.SignExtend(word&0x7FF, 11)
			operands = fmt.Sprintf("0x%04x", dest)
		} else {
			mnemonic = "jsrr"
			operands = fmt.Sprintf("r%d", sr1)
		}
	case opLD, opLDI, opLEA, opST, opSTI:
		switch word >> 12 {
		case opLD:
			mnemonic = "ld"
		case opLDI:
			mnemonic = "ldi"
		case opLEA:
			mnemonic = "lea"
		case opST:
			mnemonic = "st"
		case opSTI:
			mnemonic = "sti"
		}
		dest := pc + 1 + bit.SignExtend(word&0x1FF, 9)
		operands = fmt.Sprintf("r%d, 0x%04x", dr, dest)
	case opLDR, opSTR:
		mnemonic = "ldr"
		if word>>12 == opSTR {
			mnemonic = "str"
		}
		off6 := int16(bit.SignExtend(word&0x3F, 6))
		operands = fmt.Sprintf("r%d, r%d, #%d", dr, sr1, off6)
	case opRTI:
		mnemonic = "rti"
	case opTRAP:
		vect := bit.ZeroExtend(word, 8)
		if vect == trapHalt {
			mnemonic = "halt"
		} else {
			mnemonic = "trap"
			operands = fmt.Sprintf("x%02x", vect)
		}
	default:
		mnemonic = ".word"
		operands = fmt.Sprintf("0x%04x", word)
	}
	return mnemonic, operands
}

// nativeArch reports whether the triple names this ISA; empty means native.
func nativeArch(triple string) bool {
	return triple == "" || strings.HasPrefix(triple, "lc3")
}

// TestEmulation runs the emulation self-test in path against this
// instruction's architecture, reporting to w.
func (i *Instruction) TestEmulation(w io.Writer, path string) bool {
	test, err := insn.LoadEmulationTest(path)
	if err != nil {
		if w != nil {
			fmt.Fprintf(w, "error: %v\n", err)
		}
		return false
	}
	if !nativeArch(test.Arch) {
		if w != nil {
			fmt.Fprintf(w, "error: test arch %q does not match lc3\n", test.Arch)
		}
		return false
	}
	return RunEmulationTest(w, test)
}
