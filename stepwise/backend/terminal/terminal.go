// Package terminal renders trace stops in a tcell screen: register panel,
// call stack, and a disassembly window following the program counter. The
// only input it handles is quitting the view.
package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/stepwisedbg/go-stepwise/stepwise/backend"
	"github.com/stepwisedbg/go-stepwise/stepwise/debug"
	"github.com/stepwisedbg/go-stepwise/stepwise/disasm"
)

const (
	registerHeight = 4
	stackHeight    = 6
	minTermWidth   = 48
	minTermHeight  = 16
	stopTime       = 250 * time.Millisecond
)

// Backend implements the backend interface using tcell.
type Backend struct {
	screen  tcell.Screen
	config  backend.Config
	quit    atomic.Bool
	sigDone chan struct{}
}

// New creates a terminal backend.
func New() *Backend {
	return &Backend{sigDone: make(chan struct{})}
}

// Init sets up the tcell screen and signal handling.
func (t *Backend) Init(config backend.Config) error {
	t.config = config

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}
	t.screen = screen
	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	go t.handleSignals()
	slog.Info("Terminal backend initialized", "title", config.Title)
	return nil
}

// Update renders one stop and polls for quit keys. Stops are paced so the
// trace is watchable.
func (t *Backend) Update(data *debug.TraceData) (bool, error) {
	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
	if t.quit.Load() {
		return true, nil
	}
	if data != nil {
		t.render(data)
		t.screen.Show()
	}
	time.Sleep(stopTime)
	return t.quit.Load(), nil
}

// Cleanup restores the terminal.
func (t *Backend) Cleanup() error {
	close(t.sigDone)
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

func (t *Backend) handleSignals() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	select {
	case <-signals:
		t.quit.Store(true)
	case <-t.sigDone:
	}
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		t.quit.Store(true)
	case tcell.KeyRune:
		if ev.Rune() == 'q' {
			t.quit.Store(true)
		}
	}
}

func (t *Backend) render(data *debug.TraceData) {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, style)
		return
	}

	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	t.drawText(1, 0, termWidth, fmt.Sprintf(" %s  stop %d ", t.config.Title, data.Stops), titleStyle)

	y := 1
	y = t.drawRegisters(y, termWidth, data)
	y = t.drawStack(y, termWidth, termHeight, data)
	t.drawListing(y, termWidth, termHeight, data)

	helpStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	t.drawText(0, termHeight-1, termWidth, " q/ESC=quit ", helpStyle)
}

func (t *Backend) drawRegisters(startY, width int, data *debug.TraceData) int {
	style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	s := data.State

	status := "running"
	if s.Halted {
		status = "halted"
	}
	lines := []string{
		fmt.Sprintf("r0: 0x%04X  r1: 0x%04X  r2: 0x%04X  r3: 0x%04X", s.GPR[0], s.GPR[1], s.GPR[2], s.GPR[3]),
		fmt.Sprintf("r4: 0x%04X  r5: 0x%04X  r6: 0x%04X  r7: 0x%04X", s.GPR[4], s.GPR[5], s.GPR[6], s.GPR[7]),
		fmt.Sprintf("pc: 0x%04X  psr: 0x%04X  %s", s.PC, s.PSR, status),
	}
	for i, line := range lines {
		t.drawText(1, startY+i, width, line, style)
	}
	return startY + registerHeight
}

func (t *Backend) drawStack(startY, width, termHeight int, data *debug.TraceData) int {
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	t.drawText(1, startY, width, "stack:", style)
	row := startY + 1
	for _, fr := range data.Frames {
		if row >= startY+stackHeight-1 || row >= termHeight-1 {
			break
		}
		line := fmt.Sprintf(" #%d %s", fr.Index, fr.PC)
		if fr.Function != "" {
			line += " " + fr.Function
		}
		if fr.Line > 0 {
			line += fmt.Sprintf(" (%s:%d)", fr.File, fr.Line)
		}
		t.drawText(1, row, width, line, style)
		row++
	}
	return startY + stackHeight
}

func (t *Backend) drawListing(startY, width, termHeight int, data *debug.TraceData) {
	style := tcell.StyleDefault.Foreground(tcell.ColorSilver)
	currentStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)

	for i, line := range data.Listing {
		y := startY + i
		if y >= termHeight-1 {
			break
		}
		isCurrent := line.Address == data.PC
		useStyle := style
		if isCurrent {
			useStyle = currentStyle
		}
		t.drawText(1, y, width, disasm.FormatLine(line, isCurrent), useStyle)
	}
}

func (t *Backend) drawText(x, y, width int, text string, style tcell.Style) {
	for i, ch := range text {
		if x+i >= width {
			break
		}
		t.screen.SetContent(x+i, y, ch, nil, style)
	}
}
