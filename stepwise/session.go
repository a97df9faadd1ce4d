// Package stepwise ties a loaded program image, the machine running it, and
// the stepping engine into a debugging session.
package stepwise

import (
	"github.com/pkg/errors"

	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/backend"
	"github.com/stepwisedbg/go-stepwise/stepwise/debug"
	"github.com/stepwisedbg/go-stepwise/stepwise/image"
	"github.com/stepwisedbg/go-stepwise/stepwise/insn"
	"github.com/stepwisedbg/go-stepwise/stepwise/machine"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
	"github.com/stepwisedbg/go-stepwise/stepwise/target"
	"github.com/stepwisedbg/go-stepwise/stepwise/thread"
)

// Listing window rendered around the PC at each stop.
const (
	listingBack  = 4
	listingCount = 12
)

// DefaultMaxSteps bounds a single stepping operation.
const DefaultMaxSteps = 100000

// Config holds session options.
type Config struct {
	// AvoidNoDebug makes lazily resolved avoidance flags default to
	// skipping frames without line info.
	AvoidNoDebug bool
	// MaxSteps caps the instructions one stepping operation may execute.
	// Zero means DefaultMaxSteps.
	MaxSteps int
}

// Session is one debugging session over a loaded image.
type Session struct {
	cfg    Config
	img    *image.Image
	mach   *machine.Machine
	table  *symbol.Table
	target *target.Target
	thread *thread.Thread
	stops  int
}

// New builds a session for an already loaded image.
func New(img *image.Image, cfg Config) *Session {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	table := img.Table()
	m := machine.New()
	m.SetSymbols(table)
	m.LoadWords(uint16(img.Origin), img.Code)
	m.SetPC(addr.Address(img.Entry))

	th := thread.New(m, table)
	th.SetAvoidNoDebugByDefault(cfg.AvoidNoDebug)

	arch := img.Arch
	if arch == "" {
		arch = machine.Arch
	}
	return &Session{
		cfg:    cfg,
		img:    img,
		mach:   m,
		table:  table,
		target: target.New(arch, table, m),
		thread: th,
	}
}

// NewWithFile loads an image file and builds a session for it.
func NewWithFile(path string, cfg Config) (*Session, error) {
	img, err := image.Load(path)
	if err != nil {
		return nil, errors.Wrap(err, "loading session image")
	}
	return New(img, cfg), nil
}

// Target returns the session's target.
func (s *Session) Target() *target.Target {
	return s.target
}

// Thread returns the session's single thread.
func (s *Session) Thread() *thread.Thread {
	return s.thread
}

// Machine returns the machine being stepped.
func (s *Session) Machine() *machine.Machine {
	return s.mach
}

// Halted reports whether the program has executed its halt trap.
func (s *Session) Halted() bool {
	return s.mach.Halted()
}

// Stops returns how many stops the session has reported so far.
func (s *Session) Stops() int {
	return s.stops
}

// CurrentInstruction returns a handle on the instruction at the PC. The
// handle is empty when the PC points outside memory.
func (s *Session) CurrentInstruction() *insn.Handle {
	s.target.LockAPI()
	defer s.target.UnlockAPI()
	inst, ok := s.mach.DecodeAt(s.mach.PC())
	if !ok {
		return insn.NewHandle(nil)
	}
	return insn.NewHandle(inst)
}

// StepInstruction executes exactly one instruction.
func (s *Session) StepInstruction() (*insn.Handle, error) {
	s.target.LockAPI()
	defer s.target.UnlockAPI()
	inst, err := s.thread.StepInstruction()
	s.stops++
	if inst == nil {
		return insn.NewHandle(nil), err
	}
	return insn.NewHandle(inst), err
}

// StepLine steps one source line, honoring the session's avoidance policy.
func (s *Session) StepLine() error {
	s.target.LockAPI()
	defer s.target.UnlockAPI()
	s.thread.QueueStepLine()
	if err := s.thread.StepUntilStop(s.cfg.MaxSteps); err != nil {
		return err
	}
	s.stops++
	return nil
}

// Trace steps the program line by line, reporting each stop to b, until the
// machine halts, the backend quits, or maxStops is reached (zero or less
// means no cap). Init and Cleanup of b are the caller's business.
func (s *Session) Trace(b backend.Backend, maxStops int) error {
	for i := 0; maxStops <= 0 || i < maxStops; i++ {
		if s.Halted() {
			break
		}
		if err := s.StepLine(); err != nil {
			return err
		}
		quit, err := b.Update(s.ExtractTraceData())
		if err != nil {
			return err
		}
		if quit {
			break
		}
	}
	return nil
}

// ExtractTraceData snapshots the session for display.
func (s *Session) ExtractTraceData() *debug.TraceData {
	s.target.LockAPI()
	defer s.target.UnlockAPI()

	data := &debug.TraceData{
		PC:    s.mach.PC(),
		Stops: s.stops,
	}
	for i := 0; i < machine.NumGPR; i++ {
		data.State.GPR[i], _ = s.mach.Register(i)
	}
	data.State.PC = uint16(s.mach.PC())
	data.State.PSR, _ = s.mach.Register(machine.RegPSR)
	data.State.Halted = s.mach.Halted()

	for i := 0; i < s.thread.StackDepth(); i++ {
		fr := s.thread.FrameAtIndex(i)
		if fr == nil {
			break
		}
		sc := fr.SymbolContext(symbol.ContextEverything)
		info := debug.FrameInfo{Index: i, PC: fr.PC()}
		if sc.Symbol != nil {
			info.Function = sc.Symbol.Name
		}
		if sc.LineEntry.IsValid() {
			info.File = sc.LineEntry.File
			info.Line = sc.LineEntry.Line
		}
		data.Frames = append(data.Frames, info)
	}

	data.Listing = debug.Window(s.mach, s.mach.PC(), listingBack, listingCount)
	return data
}
