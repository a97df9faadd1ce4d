// Package step implements source-level stepping: the thread-plan contract,
// the concrete step plans, and the should-stop-here policy engine that
// decides whether a completed low-level step is a meaningful place to give
// control back to the user.
package step

import (
	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/frame"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
)

// LazyBool is a tri-state: yes, no, or resolve against a default later.
type LazyBool int

const (
	LazyCalculate LazyBool = -1
	LazyNo        LazyBool = 0
	LazyYes       LazyBool = 1
)

// Resolve collapses the tri-state against a default.
func (l LazyBool) Resolve(def bool) bool {
	switch l {
	case LazyYes:
		return true
	case LazyNo:
		return false
	default:
		return def
	}
}

// Vote is a plan's opinion on reporting a stop or run to the user.
type Vote int

const (
	VoteNo Vote = iota
	VoteNoOpinion
	VoteYes
)

// RunMode controls which threads run while a plan is active.
type RunMode int

const (
	OnlyThisThread RunMode = iota
	AllThreads
	OnlyDuringStepping
)

// Thread is the slice of a thread the step plans and the policy engine
// need: the current position, frames, and the plan factory entry points
// that create and queue follow-up plans.
type Thread interface {
	PC() addr.Address
	StackDepth() int
	FrameAtIndex(idx int) *frame.StackFrame

	// QueueStepInRange queues a plan stepping while the PC stays inside r.
	QueueStepInRange(stopOthers bool, r addr.Range, sc symbol.Context,
		parent ThreadPlan, mode RunMode,
		stepInAvoidsNoDebug, stepOutAvoidsNoDebug LazyBool) ThreadPlan

	// QueueStepOutNoShouldStop queues a plan stepping out of the frame at
	// frameIndex without re-entering the should-stop-here machinery.
	QueueStepOutNoShouldStop(abortOtherPlans bool, addrContext *symbol.Context,
		firstInstruction bool, stopOthers bool, stopVote, runVote Vote,
		frameIndex int, continueToNextBranch bool) ThreadPlan
}

// ThreadPlan is one entry of a thread's plan stack. ShouldStop is resolved
// after every completed low-level step; a complete plan is popped and its
// parent resumes.
type ThreadPlan interface {
	Name() string
	Thread() Thread
	ShouldStop() bool
	IsPlanComplete() bool
	StopOthers() bool
}

// planBase carries what every plan has.
type planBase struct {
	name       string
	thread     Thread
	stopOthers bool
}

func (p *planBase) Name() string {
	return p.name
}

func (p *planBase) Thread() Thread {
	return p.thread
}

func (p *planBase) StopOthers() bool {
	return p.stopOthers
}
