package insn

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/disasm"
	"github.com/stepwisedbg/go-stepwise/stepwise/frame"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
	"github.com/stepwisedbg/go-stepwise/stepwise/target"
)

// Handle is a nullable, shareable reference to one decoded instruction.
// Every operation is a no-op returning a neutral value when the handle is
// empty. Operations that consult target-derived state serialize on the
// target's API lock for exactly the duration of the call.
type Handle struct {
	mu   sync.Mutex
	inst Instruction
}

// NewHandle wraps an instruction; inst may be nil for an empty handle.
func NewHandle(inst Instruction) *Handle {
	return &Handle{inst: inst}
}

func (h *Handle) get() Instruction {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inst
}

// Reset swaps the underlying instruction; nil empties the handle.
func (h *Handle) Reset(inst Instruction) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inst = inst
}

// IsValid reports whether the handle refers to an instruction.
func (h *Handle) IsValid() bool {
	return h.get() != nil
}

// Address returns the instruction's address, Invalid when empty.
func (h *Handle) Address() addr.Address {
	if inst := h.get(); inst != nil {
		return inst.Address()
	}
	return addr.Invalid
}

// withTargetContext runs fn with an execution context derived from t while
// holding t's API lock. With a nil target no lock is taken and fn sees a
// null context.
func withTargetContext[T any](t *target.Target, fn func(ctx *target.ExecutionContext) T) T {
	if t == nil {
		return fn(&target.ExecutionContext{})
	}
	t.LockAPI()
	defer t.UnlockAPI()
	return fn(t.CalculateExecutionContext())
}

// Mnemonic returns the instruction mnemonic, formatted against the target.
func (h *Handle) Mnemonic(t *target.Target) string {
	inst := h.get()
	if inst == nil {
		return ""
	}
	return withTargetContext(t, inst.Mnemonic)
}

// Operands returns the instruction operand text.
func (h *Handle) Operands(t *target.Target) string {
	inst := h.get()
	if inst == nil {
		return ""
	}
	return withTargetContext(t, inst.Operands)
}

// Comment returns the instruction comment text.
func (h *Handle) Comment(t *target.Target) string {
	inst := h.get()
	if inst == nil {
		return ""
	}
	return withTargetContext(t, inst.Comment)
}

// ByteSize returns the encoded size of the instruction, 0 when empty.
func (h *Handle) ByteSize() int {
	if inst := h.get(); inst != nil {
		return inst.ByteSize()
	}
	return 0
}

// Data returns a copy of the instruction's raw bytes, nil when empty.
func (h *Handle) Data(t *target.Target) []byte {
	inst := h.get()
	if inst == nil {
		return nil
	}
	data := inst.Data()
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// DoesBranch reports whether the instruction can change control flow.
func (h *Handle) DoesBranch() bool {
	if inst := h.get(); inst != nil {
		return inst.DoesBranch()
	}
	return false
}

// HasDelaySlot reports whether the instruction has a delay slot.
func (h *Handle) HasDelaySlot() bool {
	if inst := h.get(); inst != nil {
		return inst.HasDelaySlot()
	}
	return false
}

// AddressClass classifies the instruction's address.
func (h *Handle) AddressClass() addr.Class {
	if inst := h.get(); inst != nil {
		return inst.AddressClass()
	}
	return addr.ClassInvalid
}

// Description writes "<addr>: <disasm>" with resolved symbol context to w.
// It reports whether anything was emitted.
func (h *Handle) Description(w io.Writer) bool {
	inst := h.get()
	if inst == nil || w == nil {
		return false
	}
	line := disasm.Line{
		Address:  inst.Address(),
		Mnemonic: inst.Mnemonic(&target.ExecutionContext{}),
		Operands: inst.Operands(&target.ExecutionContext{}),
		Comment:  inst.Comment(&target.ExecutionContext{}),
	}
	var sc *symbol.Context
	if table := inst.Module(); table != nil {
		resolved := table.Resolve(inst.Address(), symbol.ContextEverything)
		sc = &resolved
	}
	format, err := disasm.ParseFormat(disasm.DefaultFormat)
	if err != nil {
		return false
	}
	_, err = io.WriteString(w, disasm.Describe(line, sc, format))
	return err == nil
}

// Print writes the description to a raw file sink, buffered.
func (h *Handle) Print(out *os.File) {
	if out == nil {
		return
	}
	w := bufio.NewWriter(out)
	if h.Description(w) {
		w.WriteString("\n")
	}
	w.Flush()
}

// EmulateWithFrame emulates the instruction against the frame's register
// and memory state.
func (h *Handle) EmulateWithFrame(fr *frame.StackFrame, options uint32) bool {
	inst := h.get()
	if inst == nil || fr == nil {
		return false
	}
	if fr.Registers() == nil || fr.Memory() == nil {
		return false
	}
	return inst.Emulate("", options, fr, FrameCallbacks())
}

// DumpEmulation emulates in isolation against the requested architecture.
func (h *Handle) DumpEmulation(triple string) bool {
	inst := h.get()
	if inst == nil || triple == "" {
		return false
	}
	return inst.DumpEmulation(triple)
}

// TestEmulation drives the underlying instruction's self-test. An empty
// handle is populated with a pseudo-instruction first.
func (h *Handle) TestEmulation(w io.Writer, path string) bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	if h.inst == nil {
		h.inst = NewPseudoInstruction()
	}
	inst := h.inst
	h.mu.Unlock()
	return inst.TestEmulation(w, path)
}
