package thread

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/machine"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
)

// testProgram lays out main calling three flavors of function: helper has
// full line info, __stub has none, wrapped opens with a line-0 prologue.
//
//	0x3000 main     and r0, r0, #0   line 0
//	0x3001          add r0, r0, #1   line 5
//	0x3002          jsr helper       line 6
//	0x3003          jsr __stub       line 7
//	0x3004          jsr wrapped      line 8
//	0x3005          add r0, r0, #1   line 9
//	0x3006          halt             line 10
//	0x3007 helper   add r0, r0, #1   line 12
//	0x3008          ret              line 13
//	0x3009 __stub   add r0, r0, #1
//	0x300a          ret
//	0x300b wrapped  and r1, r1, #0   line 0
//	0x300c          add r1, r1, #1   line 16
//	0x300d          ret              line 17
func testProgram() (*machine.Machine, *symbol.Table) {
	table := symbol.NewTable("demo",
		[]symbol.Symbol{
			{Name: "main", Addr: 0x3000, Size: 7},
			{Name: "helper", Addr: 0x3007, Size: 2},
			{Name: "__stub", Addr: 0x3009, Size: 2},
			{Name: "wrapped", Addr: 0x300b, Size: 3},
		},
		[]symbol.LineEntry{
			{File: "main.src", Line: 0, Range: addr.Range{Start: 0x3000, Size: 1}},
			{File: "main.src", Line: 5, Range: addr.Range{Start: 0x3001, Size: 1}},
			{File: "main.src", Line: 6, Range: addr.Range{Start: 0x3002, Size: 1}},
			{File: "main.src", Line: 7, Range: addr.Range{Start: 0x3003, Size: 1}},
			{File: "main.src", Line: 8, Range: addr.Range{Start: 0x3004, Size: 1}},
			{File: "main.src", Line: 9, Range: addr.Range{Start: 0x3005, Size: 1}},
			{File: "main.src", Line: 10, Range: addr.Range{Start: 0x3006, Size: 1}},
			{File: "main.src", Line: 12, Range: addr.Range{Start: 0x3007, Size: 1}},
			{File: "main.src", Line: 13, Range: addr.Range{Start: 0x3008, Size: 1}},
			{File: "main.src", Line: 0, Range: addr.Range{Start: 0x300b, Size: 1}},
			{File: "main.src", Line: 16, Range: addr.Range{Start: 0x300c, Size: 1}},
			{File: "main.src", Line: 17, Range: addr.Range{Start: 0x300d, Size: 1}},
		})

	m := machine.New()
	m.SetSymbols(table)
	m.LoadWords(0x3000, []uint16{
		0x5020, // and r0, r0, #0
		0x1021, // add r0, r0, #1
		0x4804, // jsr 0x3007
		0x4805, // jsr 0x3009
		0x4806, // jsr 0x300b
		0x1021, // add r0, r0, #1
		0xF025, // halt
		0x1021, // add r0, r0, #1
		0xC1C0, // ret
		0x1021, // add r0, r0, #1
		0xC1C0, // ret
		0x5260, // and r1, r1, #0
		0x1261, // add r1, r1, #1
		0xC1C0, // ret
	})
	m.SetPC(0x3000)
	return m, table
}

func newTestThread(pc addr.Address, avoid bool) *Thread {
	m, table := testProgram()
	m.SetPC(pc)
	t := New(m, table)
	t.SetAvoidNoDebugByDefault(avoid)
	return t
}

func TestStepInstructionTracksCalls(t *testing.T) {
	th := newTestThread(0x3002, false)
	assert.Equal(t, 1, th.StackDepth())

	inst, err := th.StepInstruction() // jsr helper
	assert.NoError(t, err)
	assert.True(t, inst.IsCall())
	assert.Equal(t, 2, th.StackDepth())

	top := th.FrameAtIndex(0)
	assert.Equal(t, addr.Address(0x3007), top.PC())
	assert.Equal(t, addr.Address(0x3007), top.ID().FunctionEntry)

	caller := th.FrameAtIndex(1)
	assert.Equal(t, addr.Address(0x3003), caller.PC(), "caller resumes after the jsr")
	assert.Equal(t, addr.Address(0x3000), caller.ID().FunctionEntry)
	assert.Nil(t, th.FrameAtIndex(2))

	_, err = th.StepInstruction() // add inside helper
	assert.NoError(t, err)
	inst, err = th.StepInstruction() // ret
	assert.NoError(t, err)
	assert.True(t, inst.IsReturn())
	assert.Equal(t, 1, th.StackDepth())
	assert.Equal(t, addr.Address(0x3003), th.PC())
}

func TestStepLineAdvancesToNextLine(t *testing.T) {
	th := newTestThread(0x3001, false)
	th.QueueStepLine()
	assert.NoError(t, th.StepUntilStop(100))
	assert.Equal(t, addr.Address(0x3002), th.PC())
	assert.Nil(t, th.CurrentPlan(), "plan stack drains at the stop")
}

func TestStepLineIntoFunctionWithDebugInfo(t *testing.T) {
	th := newTestThread(0x3002, true)
	th.QueueStepLine()
	assert.NoError(t, th.StepUntilStop(100))
	assert.Equal(t, addr.Address(0x3007), th.PC(), "stops at helper's first line")
	assert.Equal(t, 2, th.StackDepth())
}

func TestStepLineSkipsStubWhenAvoiding(t *testing.T) {
	th := newTestThread(0x3003, true)
	th.QueueStepLine()
	assert.NoError(t, th.StepUntilStop(100))
	assert.Equal(t, addr.Address(0x3004), th.PC(), "steps through the stub and out")
	assert.Equal(t, 1, th.StackDepth())
}

func TestStepLineStopsInStubWithoutAvoidance(t *testing.T) {
	th := newTestThread(0x3003, false)
	th.QueueStepLine()
	assert.NoError(t, th.StepUntilStop(100))
	assert.Equal(t, addr.Address(0x3009), th.PC(), "stops at the stub entry")
	assert.Equal(t, 2, th.StackDepth())
}

func TestStepLineSkipsLineZeroPrologue(t *testing.T) {
	th := newTestThread(0x3004, true)
	th.QueueStepLine()
	assert.NoError(t, th.StepUntilStop(100))
	assert.Equal(t, addr.Address(0x300c), th.PC(), "lands past wrapped's prologue")
	assert.Equal(t, 2, th.StackDepth())
}

func TestStepLineThroughHalt(t *testing.T) {
	th := newTestThread(0x3006, false)
	th.QueueStepLine()
	assert.NoError(t, th.StepUntilStop(100))
	assert.True(t, th.Machine().Halted())
	assert.Nil(t, th.CurrentPlan())
}

func TestStepUntilStopRunsOutOfBudget(t *testing.T) {
	table := symbol.NewTable("loop",
		[]symbol.Symbol{{Name: "spin", Addr: 0x3000, Size: 1}},
		[]symbol.LineEntry{{File: "loop.src", Line: 3, Range: addr.Range{Start: 0x3000, Size: 1}}})
	m := machine.New()
	m.SetSymbols(table)
	m.LoadWords(0x3000, []uint16{0x0FFF}) // br to itself
	m.SetPC(0x3000)

	th := New(m, table)
	th.QueueStepLine()
	err := th.StepUntilStop(10)
	assert.ErrorContains(t, err, "no stop point")
}
