package insn

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/frame"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
	"github.com/stepwisedbg/go-stepwise/stepwise/target"
)

// fakeInstruction records the contexts and batons it was handed.
type fakeInstruction struct {
	addr     addr.Address
	mnemonic string
	operands string
	comment  string
	table    *symbol.Table

	lastCtx     *target.ExecutionContext
	emulated    bool
	lastBaton   any
	emulateArch string
}

func (f *fakeInstruction) Address() addr.Address { return f.addr }

func (f *fakeInstruction) Mnemonic(ctx *target.ExecutionContext) string {
	f.lastCtx = ctx
	return f.mnemonic
}

func (f *fakeInstruction) Operands(ctx *target.ExecutionContext) string {
	f.lastCtx = ctx
	return f.operands
}

func (f *fakeInstruction) Comment(ctx *target.ExecutionContext) string {
	f.lastCtx = ctx
	return f.comment
}

func (f *fakeInstruction) Data() []byte             { return []byte{0x12, 0x34} }
func (f *fakeInstruction) ByteSize() int            { return 2 }
func (f *fakeInstruction) DoesBranch() bool         { return true }
func (f *fakeInstruction) HasDelaySlot() bool       { return false }
func (f *fakeInstruction) AddressClass() addr.Class { return addr.ClassCode }
func (f *fakeInstruction) Module() *symbol.Table    { return f.table }

func (f *fakeInstruction) Emulate(arch string, options uint32, baton any, cb EmulationCallbacks) bool {
	f.emulated = true
	f.lastBaton = baton
	f.emulateArch = arch
	return true
}

func (f *fakeInstruction) DumpEmulation(arch string) bool           { return arch == "fake" }
func (f *fakeInstruction) TestEmulation(w io.Writer, p string) bool { return false }

// fakeState is a minimal register file and memory for frame tests.
type fakeState struct {
	regs map[int]uint16
	mem  map[addr.Address]uint16
}

func newFakeState() *fakeState {
	return &fakeState{regs: map[int]uint16{}, mem: map[addr.Address]uint16{}}
}

func (s *fakeState) PC() addr.Address { return addr.Address(s.regs[8]) }

func (s *fakeState) Register(n int) (uint16, bool) { return s.regs[n], true }

func (s *fakeState) SetRegister(n int, value uint16) bool {
	s.regs[n] = value
	return true
}

func (s *fakeState) ReadWord(a addr.Address) (uint16, bool) { return s.mem[a], true }

func (s *fakeState) WriteWord(a addr.Address, value uint16) bool {
	s.mem[a] = value
	return true
}

func TestEmptyHandleIsNeutral(t *testing.T) {
	h := NewHandle(nil)

	assert.False(t, h.IsValid())
	assert.Equal(t, addr.Invalid, h.Address())
	assert.Equal(t, "", h.Mnemonic(nil))
	assert.Equal(t, "", h.Operands(nil))
	assert.Equal(t, "", h.Comment(nil))
	assert.Equal(t, 0, h.ByteSize())
	assert.Nil(t, h.Data(nil))
	assert.False(t, h.DoesBranch())
	assert.False(t, h.HasDelaySlot())
	assert.Equal(t, addr.ClassInvalid, h.AddressClass())

	var out bytes.Buffer
	assert.False(t, h.Description(&out))
	assert.Equal(t, "", out.String())
	assert.False(t, h.EmulateWithFrame(nil, 0))
	assert.False(t, h.DumpEmulation("fake"))
}

func TestHandleReset(t *testing.T) {
	h := NewHandle(nil)
	h.Reset(&fakeInstruction{addr: 0x3000})
	assert.True(t, h.IsValid())
	assert.Equal(t, addr.Address(0x3000), h.Address())

	h.Reset(nil)
	assert.False(t, h.IsValid())
}

func TestHandleFormatsAgainstTarget(t *testing.T) {
	inst := &fakeInstruction{addr: 0x3000, mnemonic: "add"}
	h := NewHandle(inst)
	tgt := target.New("fake-unknown-none", nil, nil)

	assert.Equal(t, "add", h.Mnemonic(tgt))
	assert.NotNil(t, inst.lastCtx)
	assert.Same(t, tgt, inst.lastCtx.Target, "context carries the target")

	// A nil target still formats, against a null context.
	assert.Equal(t, "add", h.Mnemonic(nil))
	assert.Nil(t, inst.lastCtx.Target)
}

func TestHandleDataIsACopy(t *testing.T) {
	h := NewHandle(&fakeInstruction{addr: 0x3000})
	data := h.Data(nil)
	assert.Equal(t, []byte{0x12, 0x34}, data)
	data[0] = 0xFF
	assert.Equal(t, []byte{0x12, 0x34}, h.Data(nil))
}

func TestHandleDescription(t *testing.T) {
	table := symbol.NewTable("demo",
		[]symbol.Symbol{{Name: "main", Addr: 0x3000, Size: 8}}, nil)

	inst := &fakeInstruction{addr: 0x3002, mnemonic: "add", operands: "r0, r1, r2", table: table}
	h := NewHandle(inst)

	var out bytes.Buffer
	assert.True(t, h.Description(&out))
	assert.Equal(t, "0x3002: add      r0, r1, r2 ; <main+2>", out.String())

	// An explicit comment wins over the symbol annotation.
	inst.comment = "-> 0x3003"
	out.Reset()
	assert.True(t, h.Description(&out))
	assert.Equal(t, "0x3002: add      r0, r1, r2 ; -> 0x3003", out.String())
}

func TestHandleEmulateWithFrame(t *testing.T) {
	inst := &fakeInstruction{addr: 0x3000}
	h := NewHandle(inst)

	state := newFakeState()
	fr := frame.New(0, frame.ID{Depth: 1, FunctionEntry: 0x3000}, 0x3000, nil, state, state)

	assert.True(t, h.EmulateWithFrame(fr, 0))
	assert.True(t, inst.emulated)
	assert.Same(t, fr, inst.lastBaton, "the frame rides along as the baton")
	assert.Equal(t, "", inst.emulateArch, "native arch requested")

	// Frames without machine state cannot be emulated against.
	bare := frame.New(1, frame.ID{Depth: 1}, 0x3000, nil, nil, nil)
	assert.False(t, h.EmulateWithFrame(bare, 0))
}

func TestFrameCallbacksRouteToFrame(t *testing.T) {
	state := newFakeState()
	state.regs[3] = 7
	state.mem[0x4000] = 0xBEEF
	fr := frame.New(0, frame.ID{Depth: 1}, 0x3000, nil, state, state)

	cb := FrameCallbacks()
	v, ok := cb.ReadRegister(fr, 3)
	assert.True(t, ok)
	assert.Equal(t, uint16(7), v)

	assert.True(t, cb.WriteRegister(fr, 3, 9))
	assert.Equal(t, uint16(9), state.regs[3])

	w, ok := cb.ReadMemory(fr, 0x4000)
	assert.True(t, ok)
	assert.Equal(t, uint16(0xBEEF), w)

	assert.True(t, cb.WriteMemory(fr, 0x4000, 1))
	assert.Equal(t, uint16(1), state.mem[0x4000])
}

func TestEmptyHandleTestEmulation(t *testing.T) {
	called := false
	RegisterEmulationTester("fake", func(w io.Writer, test *EmulationTest) bool {
		called = true
		return true
	})

	path := filepath.Join(t.TempDir(), "test.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("arch: fake-unknown-none\n"), 0o644))

	h := NewHandle(nil)
	var out bytes.Buffer
	assert.True(t, h.TestEmulation(&out, path))
	assert.True(t, called)
	assert.True(t, h.IsValid(), "self-test populates an empty handle")

	// Unknown arch reports an error instead of dispatching.
	path2 := filepath.Join(t.TempDir(), "bad.yaml")
	assert.NoError(t, os.WriteFile(path2, []byte("arch: nosuch-arch\n"), 0o644))
	out.Reset()
	assert.False(t, h.TestEmulation(&out, path2))
	assert.Contains(t, out.String(), "no emulation self-tester")
}
