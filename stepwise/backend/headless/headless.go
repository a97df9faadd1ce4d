// Package headless renders trace stops as plain text, for batch runs and
// tests.
package headless

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/stepwisedbg/go-stepwise/stepwise/backend"
	"github.com/stepwisedbg/go-stepwise/stepwise/debug"
	"github.com/stepwisedbg/go-stepwise/stepwise/disasm"
)

// Backend implements the backend interface for non-interactive runs.
type Backend struct {
	config backend.Config
	out    io.Writer
}

// New creates a headless backend writing to out; nil means stdout.
func New(out io.Writer) *Backend {
	if out == nil {
		out = os.Stdout
	}
	return &Backend{out: out}
}

func (h *Backend) Init(config backend.Config) error {
	h.config = config
	slog.Info("Running headless", "title", config.Title)
	return nil
}

// Update prints one stop: the register summary, the call stack, and the
// disassembly window with the current instruction marked.
func (h *Backend) Update(data *debug.TraceData) (bool, error) {
	if data == nil {
		return false, nil
	}
	fmt.Fprintf(h.out, "stop %d at %s\n", data.Stops, data.PC)
	fmt.Fprintf(h.out, "  r0=%04x r1=%04x r2=%04x r3=%04x r4=%04x r5=%04x r6=%04x r7=%04x psr=%04x\n",
		data.State.GPR[0], data.State.GPR[1], data.State.GPR[2], data.State.GPR[3],
		data.State.GPR[4], data.State.GPR[5], data.State.GPR[6], data.State.GPR[7],
		data.State.PSR)
	for _, fr := range data.Frames {
		if fr.Function != "" && fr.Line > 0 {
			fmt.Fprintf(h.out, "  #%d %s %s (%s:%d)\n", fr.Index, fr.PC, fr.Function, fr.File, fr.Line)
		} else if fr.Function != "" {
			fmt.Fprintf(h.out, "  #%d %s %s\n", fr.Index, fr.PC, fr.Function)
		} else {
			fmt.Fprintf(h.out, "  #%d %s\n", fr.Index, fr.PC)
		}
	}
	for _, line := range data.Listing {
		fmt.Fprintln(h.out, disasm.FormatLine(line, line.Address == data.PC))
	}
	if data.State.Halted {
		fmt.Fprintln(h.out, "machine halted")
	}
	return false, nil
}

func (h *Backend) Cleanup() error {
	return nil
}
