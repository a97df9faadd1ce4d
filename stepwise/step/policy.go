package step

import (
	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/frame"
	"github.com/stepwisedbg/go-stepwise/stepwise/logging"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
)

// DefaultShouldStopHere is the standard stop decision. It refuses to stop
// in frames without line info when the matching avoidance flag is set for
// the direction the step took, and in code mapped to line 0.
func DefaultShouldStopHere(current ThreadPlan, flags Flags, op frame.Comparison, baton any) bool {
	if current == nil || current.Thread() == nil {
		return true
	}
	fr := current.Thread().FrameAtIndex(0)
	if fr == nil {
		return true
	}

	shouldStop := true
	if (op == frame.CompareOlder && flags.Test(FlagStepOutAvoidNoDebug)) ||
		(op == frame.CompareYounger && flags.Test(FlagStepInAvoidNoDebug)) ||
		(op == frame.CompareSameParent && flags.Test(FlagStepInAvoidNoDebug)) {
		if !fr.HasDebugInformation() {
			if log := logging.Step(); log != nil {
				log.Debug("no debug info at stop location, continuing", "pc", fr.PC(), "op", op)
			}
			shouldStop = false
		}
	}

	// Line 0 marks code the compiler could not attribute to source.
	sc := fr.SymbolContext(symbol.ContextLineEntry)
	if sc.LineEntry.IsValid() && sc.LineEntry.Line == 0 {
		if log := logging.Step(); log != nil {
			log.Debug("stopped in line-0 code, continuing", "pc", fr.PC())
		}
		shouldStop = false
	}
	return shouldStop
}

// DefaultStepFromHere is the standard remediation. Line-0 code is stepped
// through with a range plan over the line-0 span, unless the whole function
// is line 0, in which case (and in every other case) the thread steps out
// of the youngest frame.
func DefaultStepFromHere(current ThreadPlan, flags Flags, op frame.Comparison, baton any) ThreadPlan {
	const stopOthers = false
	const frameIndex = 0

	if current == nil || current.Thread() == nil {
		return nil
	}
	thread := current.Thread()
	fr := thread.FrameAtIndex(0)
	if fr == nil {
		return nil
	}

	sc := fr.SymbolContext(symbol.ContextLineEntry | symbol.ContextSymbol)
	if sc.LineEntry.IsValid() && sc.LineEntry.Line == 0 {
		r := sc.LineEntry.Range
		justStepOut := false
		if sc.Symbol.ValueIsAddress() && sc.Symbol.Size > 0 {
			symbolEnd := sc.Symbol.Addr + addr.Address(sc.Symbol.Size-1)
			if r.Contains(sc.Symbol.Addr) && r.Contains(symbolEnd) {
				// The whole function is line 0; nothing in it to stop at.
				if log := logging.Step(); log != nil {
					log.Debug("function is all line-0 code, stepping out", "symbol", sc.Symbol.Name)
				}
				justStepOut = true
			}
		}
		if !justStepOut {
			if log := logging.Step(); log != nil {
				log.Debug("queueing step through line-0 range", "range", r)
			}
			return thread.QueueStepInRange(stopOthers, r, sc, nil,
				OnlyDuringStepping, LazyCalculate, LazyNo)
		}
	}

	if log := logging.Step(); log != nil {
		log.Debug("queueing step out", "pc", fr.PC(), "op", op)
	}
	return thread.QueueStepOutNoShouldStop(false, nil, true, stopOthers,
		VoteNo, VoteNoOpinion, frameIndex, true)
}
