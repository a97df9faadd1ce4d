// Package thread drives one machine as a debuggable thread: it tracks the
// call stack across steps, owns the plan stack, and implements the plan
// factory entry points the stepping engine queues follow-up work through.
package thread

import (
	"github.com/pkg/errors"

	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/frame"
	"github.com/stepwisedbg/go-stepwise/stepwise/logging"
	"github.com/stepwisedbg/go-stepwise/stepwise/machine"
	"github.com/stepwisedbg/go-stepwise/stepwise/step"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
)

// callRecord is one live call: where it went and where it returns to.
type callRecord struct {
	entry    addr.Address
	returnTo addr.Address
}

// Thread is a single thread of execution over a machine.
type Thread struct {
	machine *machine.Machine
	table   *symbol.Table
	entry   addr.Address
	calls   []callRecord
	plans   []step.ThreadPlan

	avoidNoDebug bool
}

var _ step.Thread = (*Thread)(nil)

// New wraps a machine positioned at its entry point.
func New(m *machine.Machine, table *symbol.Table) *Thread {
	t := &Thread{machine: m, table: table, entry: m.PC()}
	if sym := table.SymbolFor(m.PC()); sym != nil {
		t.entry = sym.Addr
	}
	return t
}

// SetAvoidNoDebugByDefault sets what lazily resolved avoidance flags
// collapse to for plans queued on this thread.
func (t *Thread) SetAvoidNoDebugByDefault(avoid bool) {
	t.avoidNoDebug = avoid
}

// Machine returns the underlying machine.
func (t *Thread) Machine() *machine.Machine {
	return t.machine
}

// PC returns the thread's current program counter.
func (t *Thread) PC() addr.Address {
	return t.machine.PC()
}

// StackDepth returns the number of live frames.
func (t *Thread) StackDepth() int {
	return len(t.calls) + 1
}

// FrameAtIndex returns the frame at idx, 0 being the youngest, or nil when
// idx is out of range. Only the youngest frame exposes registers and memory.
func (t *Thread) FrameAtIndex(idx int) *frame.StackFrame {
	depth := t.StackDepth()
	if idx < 0 || idx >= depth {
		return nil
	}
	pc := t.machine.PC()
	entry := t.entry
	if idx == 0 {
		if n := len(t.calls); n > 0 {
			entry = t.calls[n-1].entry
		}
		id := frame.ID{Depth: depth, FunctionEntry: entry}
		return frame.New(0, id, pc, t.table, t.machine, t.machine)
	}
	// Older frames resume at the call's return address and execute the
	// function the next-older record called into.
	call := t.calls[len(t.calls)-idx]
	pc = call.returnTo
	if len(t.calls) > idx {
		entry = t.calls[len(t.calls)-idx-1].entry
	}
	id := frame.ID{Depth: depth - idx, FunctionEntry: entry}
	return frame.New(idx, id, pc, t.table, nil, nil)
}

// StepInstruction executes one instruction and keeps the call stack model
// in sync with the control flow it caused.
func (t *Thread) StepInstruction() (*machine.Instruction, error) {
	inst, err := t.machine.Step()
	if err != nil {
		return inst, err
	}
	switch {
	case inst.IsCall():
		t.calls = append(t.calls, callRecord{
			entry:    t.machine.PC(),
			returnTo: inst.Address() + 1,
		})
	case inst.IsReturn() && len(t.calls) > 0:
		t.calls = t.calls[:len(t.calls)-1]
	}
	return inst, nil
}

// CurrentPlan returns the innermost active plan, nil when the stack is empty.
func (t *Thread) CurrentPlan() step.ThreadPlan {
	if len(t.plans) == 0 {
		return nil
	}
	return t.plans[len(t.plans)-1]
}

// PushPlan makes p the innermost active plan.
func (t *Thread) PushPlan(p step.ThreadPlan) {
	t.plans = append(t.plans, p)
}

// DiscardPlans drops every active plan.
func (t *Thread) DiscardPlans() {
	t.plans = nil
}

func (t *Thread) popPlan() {
	if len(t.plans) > 0 {
		t.plans = t.plans[:len(t.plans)-1]
	}
}

// QueueStepInRange creates a range-stepping plan and pushes it.
func (t *Thread) QueueStepInRange(stopOthers bool, r addr.Range, sc symbol.Context,
	parent step.ThreadPlan, mode step.RunMode,
	stepInAvoidsNoDebug, stepOutAvoidsNoDebug step.LazyBool) step.ThreadPlan {
	p := step.NewStepInRange(t, stopOthers, r, sc, parent, mode,
		stepInAvoidsNoDebug.Resolve(t.avoidNoDebug),
		stepOutAvoidsNoDebug.Resolve(t.avoidNoDebug))
	t.PushPlan(p)
	return p
}

// QueueStepOutNoShouldStop creates a silent step-out plan and pushes it.
func (t *Thread) QueueStepOutNoShouldStop(abortOtherPlans bool, addrContext *symbol.Context,
	firstInstruction bool, stopOthers bool, stopVote, runVote step.Vote,
	frameIndex int, continueToNextBranch bool) step.ThreadPlan {
	p := step.NewStepOutNoShouldStop(t, abortOtherPlans, addrContext,
		firstInstruction, stopOthers, stopVote, runVote, frameIndex,
		continueToNextBranch)
	t.PushPlan(p)
	return p
}

// QueueStepLine queues a plan that steps one source line from the current
// position, stepping into calls that lead to code with line info.
func (t *Thread) QueueStepLine() step.ThreadPlan {
	fr := t.FrameAtIndex(0)
	sc := fr.SymbolContext(symbol.ContextEverything)
	r := sc.LineEntry.Range
	if !sc.LineEntry.IsValid() {
		r = addr.Range{Start: t.PC(), Size: 1}
	}
	return t.QueueStepInRange(false, r, sc, nil, step.OnlyDuringStepping,
		step.LazyCalculate, step.LazyCalculate)
}

// ResolveStop walks the plan stack after a completed step. Complete plans
// pop; a popped plan that wanted to stop, or an empty stack, stops the
// thread, otherwise the parent plan takes over at the current location.
func (t *Thread) ResolveStop() bool {
	for {
		plan := t.CurrentPlan()
		if plan == nil {
			return true
		}
		stop := plan.ShouldStop()
		if !plan.IsPlanComplete() {
			return stop
		}
		t.popPlan()
		if log := logging.Step(); log != nil {
			log.Debug("plan complete", "plan", plan.Name(), "stop", stop, "pc", t.PC())
		}
		if stop {
			return true
		}
		if t.CurrentPlan() == nil {
			return false
		}
	}
}

// StepUntilStop steps instructions until a plan decides to stop or the
// machine halts. maxSteps of zero or less means no limit.
func (t *Thread) StepUntilStop(maxSteps int) error {
	for i := 0; maxSteps <= 0 || i < maxSteps; i++ {
		if _, err := t.StepInstruction(); err != nil {
			return err
		}
		if t.machine.Halted() {
			t.DiscardPlans()
			return nil
		}
		if t.ResolveStop() {
			return nil
		}
	}
	return errors.Errorf("no stop point within %d steps", maxSteps)
}
