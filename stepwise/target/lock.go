package target

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// recursiveMutex is an exclusive lock with an explicit re-entry count.
// The owning goroutine may re-acquire it; other goroutines block until the
// matching number of Unlock calls has been made.
type recursiveMutex struct {
	mu    sync.Mutex
	owner atomic.Uint64 // goroutine id, 0 when unowned
	depth int           // only touched by the owner
}

func (m *recursiveMutex) Lock() {
	id := goroutineID()
	if m.owner.Load() == id {
		m.depth++
		return
	}
	m.mu.Lock()
	m.owner.Store(id)
	m.depth = 1
}

func (m *recursiveMutex) Unlock() {
	if m.owner.Load() != goroutineID() {
		panic("target: API lock unlocked by non-owning goroutine")
	}
	m.depth--
	if m.depth == 0 {
		m.owner.Store(0)
		m.mu.Unlock()
	}
}

// goroutineID extracts the current goroutine's id from its stack header.
// Goroutine ids start at 1, so 0 is free to mean "unowned".
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Header looks like "goroutine 123 [running]:".
	header := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	id, err := strconv.ParseUint(header[:strings.IndexByte(header, ' ')], 10, 64)
	if err != nil {
		panic("target: cannot parse goroutine id: " + err.Error())
	}
	return id
}
