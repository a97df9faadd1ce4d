package step

import (
	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/frame"
	"github.com/stepwisedbg/go-stepwise/stepwise/logging"
)

// Flags is the avoidance bitset consulted by the should-stop-here policy.
type Flags uint32

const (
	FlagNone Flags = 0
	// FlagStepInAvoidNoDebug suppresses stops in frames without line info
	// reached by stepping in (or sideways into a sibling call).
	FlagStepInAvoidNoDebug Flags = 1 << iota
	// FlagStepOutAvoidNoDebug suppresses stops in frames without line info
	// reached by stepping out.
	FlagStepOutAvoidNoDebug
)

// Test reports whether any of the given bits are set.
func (f Flags) Test(which Flags) bool {
	return f&which != 0
}

// Set turns the given bits on.
func (f *Flags) Set(which Flags) {
	*f |= which
}

// Clear turns the given bits off.
func (f *Flags) Clear(which Flags) {
	*f &^= which
}

// ShouldStopHereCallback decides whether the owning plan's current stop
// location is acceptable to present to the user.
type ShouldStopHereCallback func(current ThreadPlan, flags Flags, op frame.Comparison, baton any) bool

// StepFromHereCallback produces the plan that moves the thread away from an
// unacceptable stop location. A nil result means stop anyway.
type StepFromHereCallback func(current ThreadPlan, flags Flags, op frame.Comparison, baton any) ThreadPlan

// Callbacks pairs the stop decision with its remediation. The two are
// installed and replaced together so a plan never mixes one policy's
// decision with another's remediation.
type Callbacks struct {
	ShouldStopHere ShouldStopHereCallback
	StepFromHere   StepFromHereCallback
}

// DefaultCallbacks returns the standard avoidance policy.
func DefaultCallbacks() Callbacks {
	return Callbacks{
		ShouldStopHere: DefaultShouldStopHere,
		StepFromHere:   DefaultStepFromHere,
	}
}

// StopHere is the should-stop-here engine a step plan embeds. It owns the
// callback pair, the opaque baton handed through to the callbacks, and the
// avoidance flags.
type StopHere struct {
	owner     ThreadPlan
	callbacks Callbacks
	baton     any
	flags     Flags
}

// NewStopHere returns an engine for owner running the default policy.
func NewStopHere(owner ThreadPlan) *StopHere {
	return &StopHere{owner: owner, callbacks: DefaultCallbacks()}
}

// NewStopHereWithCallbacks returns an engine for owner running the given
// policy. A nil cbs installs the defaults.
func NewStopHereWithCallbacks(owner ThreadPlan, cbs *Callbacks, baton any) *StopHere {
	s := NewStopHere(owner)
	s.SetCallbacks(cbs, baton)
	return s
}

// SetCallbacks replaces both callbacks and the baton as a unit. A nil cbs
// restores the default policy.
func (s *StopHere) SetCallbacks(cbs *Callbacks, baton any) {
	if cbs != nil {
		s.callbacks = *cbs
	} else {
		s.callbacks = DefaultCallbacks()
	}
	s.baton = baton
}

// Flags returns read/write access to the avoidance bitset.
func (s *StopHere) Flags() *Flags {
	return &s.flags
}

// CheckShouldStopHereAndQueueStepOut asks the decision callback whether the
// current location is acceptable and, when it is not, asks the remediation
// callback for a plan that moves past it. A nil result means stop here.
func (s *StopHere) CheckShouldStopHereAndQueueStepOut(op frame.Comparison) ThreadPlan {
	if s.invokeShouldStopHere(op) {
		return nil
	}
	return s.queueStepOutFromHere(op)
}

func (s *StopHere) invokeShouldStopHere(op frame.Comparison) bool {
	if s.callbacks.ShouldStopHere == nil {
		return true
	}
	shouldStop := s.callbacks.ShouldStopHere(s.owner, s.flags, op, s.baton)
	if log := logging.Step(); log != nil {
		pc := addr.Invalid
		if s.owner != nil && s.owner.Thread() != nil {
			pc = s.owner.Thread().PC()
		}
		log.Debug("should-stop-here callback", "stop", shouldStop, "pc", pc, "op", op)
	}
	return shouldStop
}

func (s *StopHere) queueStepOutFromHere(op frame.Comparison) ThreadPlan {
	if s.callbacks.StepFromHere == nil {
		return nil
	}
	return s.callbacks.StepFromHere(s.owner, s.flags, op, s.baton)
}
