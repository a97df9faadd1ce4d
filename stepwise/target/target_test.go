package target

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
)

func TestAPILockReentry(t *testing.T) {
	tgt := New("lc3-unknown-none", nil, nil)

	tgt.LockAPI()
	// Re-entry from the same goroutine must not deadlock.
	tgt.LockAPI()
	tgt.UnlockAPI()
	tgt.UnlockAPI()

	// Lock must be free again afterwards.
	done := make(chan struct{})
	go func() {
		tgt.LockAPI()
		tgt.UnlockAPI()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock was not released after matching unlocks")
	}
}

func TestAPILockExcludesOtherGoroutines(t *testing.T) {
	tgt := New("lc3-unknown-none", nil, nil)

	var mu sync.Mutex
	var order []int

	tgt.LockAPI()
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		tgt.LockAPI()
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		tgt.UnlockAPI()
		close(done)
	}()

	<-started
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	tgt.UnlockAPI()
	<-done

	assert.Equal(t, []int{1, 2}, order, "holder runs before the blocked goroutine")
}

func TestCalculateExecutionContext(t *testing.T) {
	table := symbol.NewTable("demo", nil, nil)
	tgt := New("lc3-unknown-none", table, nil)

	ctx := tgt.CalculateExecutionContext()
	assert.Equal(t, tgt, ctx.Target)
	assert.Nil(t, ctx.Process)
	assert.Nil(t, ctx.Frame)

	var nilTarget *Target
	ctx = nilTarget.CalculateExecutionContext()
	assert.Nil(t, ctx.Target)
	assert.Equal(t, "", nilTarget.Arch())
	assert.Nil(t, nilTarget.Symbols())
}

func TestNilTableLookups(t *testing.T) {
	var table *symbol.Table
	assert.Nil(t, table.SymbolFor(0x3000))
	assert.False(t, table.HasLineInfo(0x3000))
	sc := table.Resolve(0x3000, symbol.ContextEverything)
	assert.False(t, sc.LineEntry.IsValid())
	assert.Equal(t, addr.Invalid, sc.LineEntry.Range.Start)
}
