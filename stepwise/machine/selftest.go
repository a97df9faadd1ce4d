package machine

import (
	"fmt"
	"io"

	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/insn"
)

func init() {
	insn.RegisterEmulationTester(Arch, RunEmulationTest)
}

var testRegisterNumbers = map[string]int{
	"r0": 0, "r1": 1, "r2": 2, "r3": 3,
	"r4": 4, "r5": 5, "r6": 6, "r7": 7,
	"pc": RegPC, "psr": RegPSR, "halt": RegHalt,
}

// RunEmulationTest emulates the test's opcode from its before state and
// compares every register and memory word the after state names. Results
// go to w; the return value is the overall verdict.
func RunEmulationTest(w io.Writer, test *insn.EmulationTest) bool {
	report := func(format string, args ...any) {
		if w != nil {
			fmt.Fprintf(w, format+"\n", args...)
		}
	}

	state := newScratchState()
	for name, value := range test.Before.Registers {
		n, ok := testRegisterNumbers[name]
		if !ok {
			report("error: unknown register %q", name)
			return false
		}
		state.regs[n] = value
	}
	mem, err := test.Before.MemoryWords()
	if err != nil {
		report("error: %v", err)
		return false
	}
	for a, value := range mem {
		state.mem[a] = value
	}

	pc := addr.Address(test.Address)
	inst := Decode(test.Opcode, pc, nil)
	report("emulating %s %s at %s", inst.Mnemonic(nil), inst.Operands(nil), pc)

	if !inst.Emulate(test.Arch, EmulateDefault, state, scratchCallbacks()) {
		report("FAIL: emulation refused opcode 0x%04x", test.Opcode)
		return false
	}

	passed := true
	for name, want := range test.After.Registers {
		n, ok := testRegisterNumbers[name]
		if !ok {
			report("error: unknown register %q", name)
			return false
		}
		if got := state.regs[n]; got != want {
			report("FAIL: %s = 0x%04x, want 0x%04x", name, got, want)
			passed = false
		}
	}
	wantMem, err := test.After.MemoryWords()
	if err != nil {
		report("error: %v", err)
		return false
	}
	for a, want := range wantMem {
		if got := state.mem[a]; got != want {
			report("FAIL: [0x%04x] = 0x%04x, want 0x%04x", a, got, want)
			passed = false
		}
	}

	if passed {
		report("PASS: opcode 0x%04x", test.Opcode)
	}
	return passed
}
