package insn

import (
	"fmt"
	"io"

	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
	"github.com/stepwisedbg/go-stepwise/stepwise/target"
)

// PseudoInstruction stands in for a real decoded instruction when a handle
// is asked to run emulation self-tests while unpopulated. It never formats
// or emulates anything itself; the self-test dispatches on the arch named
// in the test file.
type PseudoInstruction struct{}

// NewPseudoInstruction returns the sentinel self-test instruction.
func NewPseudoInstruction() *PseudoInstruction {
	return &PseudoInstruction{}
}

func (p *PseudoInstruction) Address() addr.Address                          { return addr.Invalid }
func (p *PseudoInstruction) Mnemonic(ctx *target.ExecutionContext) string   { return "" }
func (p *PseudoInstruction) Operands(ctx *target.ExecutionContext) string   { return "" }
func (p *PseudoInstruction) Comment(ctx *target.ExecutionContext) string    { return "" }
func (p *PseudoInstruction) Data() []byte                                   { return nil }
func (p *PseudoInstruction) ByteSize() int                                  { return 0 }
func (p *PseudoInstruction) DoesBranch() bool                               { return false }
func (p *PseudoInstruction) HasDelaySlot() bool                             { return false }
func (p *PseudoInstruction) AddressClass() addr.Class                       { return addr.ClassInvalid }
func (p *PseudoInstruction) Module() *symbol.Table                          { return nil }

func (p *PseudoInstruction) Emulate(arch string, options uint32, baton any, cb EmulationCallbacks) bool {
	return false
}

func (p *PseudoInstruction) DumpEmulation(arch string) bool {
	return false
}

// TestEmulation loads the test file and hands it to the self-tester
// registered for the arch the file names.
func (p *PseudoInstruction) TestEmulation(w io.Writer, path string) bool {
	test, err := LoadEmulationTest(path)
	if err != nil {
		if w != nil {
			fmt.Fprintf(w, "error: %v\n", err)
		}
		return false
	}
	tester := LookupEmulationTester(test.Arch)
	if tester == nil {
		if w != nil {
			fmt.Fprintf(w, "error: no emulation self-tester for arch %q\n", test.Arch)
		}
		return false
	}
	return tester(w, test)
}
