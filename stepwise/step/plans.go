package step

import (
	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/frame"
	"github.com/stepwisedbg/go-stepwise/stepwise/logging"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
)

// StepInRange steps instruction by instruction while the PC stays inside a
// range within the starting frame. Leaving the range or the frame hands the
// new location to the should-stop-here engine, which either lets the plan
// finish or queues a subordinate plan to move past it.
type StepInRange struct {
	planBase
	*StopHere

	r       addr.Range
	sc      symbol.Context
	parent  ThreadPlan
	mode    RunMode
	startID frame.ID
	started bool
	done    bool
}

// NewStepInRange builds a range-stepping plan rooted at the thread's current
// top frame. The avoidance arguments arrive already resolved.
func NewStepInRange(thread Thread, stopOthers bool, r addr.Range, sc symbol.Context,
	parent ThreadPlan, mode RunMode, stepInAvoidNoDebug, stepOutAvoidNoDebug bool) *StepInRange {
	p := &StepInRange{
		planBase: planBase{name: "step-in-range", thread: thread, stopOthers: stopOthers},
		r:        r,
		sc:       sc,
		parent:   parent,
		mode:     mode,
	}
	p.StopHere = NewStopHere(p)
	if stepInAvoidNoDebug {
		p.Flags().Set(FlagStepInAvoidNoDebug)
	}
	if stepOutAvoidNoDebug {
		p.Flags().Set(FlagStepOutAvoidNoDebug)
	}
	if fr := thread.FrameAtIndex(0); fr != nil {
		p.startID = fr.ID()
		p.started = true
	}
	return p
}

// Range returns the address range the plan steps through.
func (p *StepInRange) Range() addr.Range {
	return p.r
}

// RunMode returns which threads run while the plan is active.
func (p *StepInRange) RunMode() RunMode {
	return p.mode
}

// ShouldStop evaluates the plan after a completed step. While the PC stays
// in range within the starting frame it keeps stepping; once it leaves, the
// should-stop-here engine decides whether this is a place worth stopping.
func (p *StepInRange) ShouldStop() bool {
	fr := p.thread.FrameAtIndex(0)
	if fr == nil || !p.started {
		p.done = true
		return true
	}
	cur := fr.ID()
	if cur == p.startID && p.r.Contains(fr.PC()) {
		return false
	}

	op := frame.Compare(p.startID, cur)
	if sub := p.CheckShouldStopHereAndQueueStepOut(op); sub != nil {
		if log := logging.Step(); log != nil {
			log.Debug("continuing with subordinate plan", "plan", sub.Name(), "pc", fr.PC())
		}
		return false
	}
	p.done = true
	return true
}

// IsPlanComplete reports whether the plan has decided to stop.
func (p *StepInRange) IsPlanComplete() bool {
	return p.done
}

// StepOutNoShouldStop steps until the frame at frameIndex (and everything
// younger) has returned. It never consults the should-stop-here engine and
// never asks to stop; a parent plan resumes when it completes.
type StepOutNoShouldStop struct {
	planBase

	addrContext          *symbol.Context
	firstInstruction     bool
	stopVote             Vote
	runVote              Vote
	continueToNextBranch bool
	targetDepth          int
	done                 bool
}

// NewStepOutNoShouldStop builds a step-out plan for the frame at frameIndex,
// counted from the youngest frame.
func NewStepOutNoShouldStop(thread Thread, abortOtherPlans bool, addrContext *symbol.Context,
	firstInstruction bool, stopOthers bool, stopVote, runVote Vote,
	frameIndex int, continueToNextBranch bool) *StepOutNoShouldStop {
	_ = abortOtherPlans
	return &StepOutNoShouldStop{
		planBase:             planBase{name: "step-out-no-should-stop", thread: thread, stopOthers: stopOthers},
		addrContext:          addrContext,
		firstInstruction:     firstInstruction,
		stopVote:             stopVote,
		runVote:              runVote,
		continueToNextBranch: continueToNextBranch,
		targetDepth:          thread.StackDepth() - 1 - frameIndex,
	}
}

// StopVote returns the plan's opinion on reporting a stop to the user.
func (p *StepOutNoShouldStop) StopVote() Vote {
	return p.stopVote
}

// RunVote returns the plan's opinion on reporting a resume to the user.
func (p *StepOutNoShouldStop) RunVote() Vote {
	return p.runVote
}

// ShouldStop never stops the user; the plan completes silently when the
// stack has unwound past the target frame.
func (p *StepOutNoShouldStop) ShouldStop() bool {
	if p.thread.StackDepth() <= p.targetDepth || p.targetDepth < 1 {
		p.done = true
		if log := logging.Step(); log != nil {
			log.Debug("step out complete", "pc", p.thread.PC(), "depth", p.thread.StackDepth())
		}
	}
	return false
}

// IsPlanComplete reports whether the stack has unwound past the target.
func (p *StepOutNoShouldStop) IsPlanComplete() bool {
	return p.done
}
