// Package symbol holds the symbol and line-table model the stepping engine
// queries: which function contains an address, which source line (if any)
// covers it, and the address ranges both span.
package symbol

import (
	"sort"

	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
)

// Symbol is a named span of code, usually a function.
type Symbol struct {
	Name string
	Addr addr.Address
	Size uint32
}

// ValueIsAddress reports whether the symbol has a resolvable start address.
func (s *Symbol) ValueIsAddress() bool {
	return s != nil && s.Addr.IsValid()
}

// Range returns the address span covered by the symbol.
func (s *Symbol) Range() addr.Range {
	if s == nil {
		return addr.Range{Start: addr.Invalid}
	}
	return addr.Range{Start: s.Addr, Size: s.Size}
}

// LineEntry maps an address range to a source location. Line 0 marks code
// with no source correspondence (prologues, compiler-synthesized thunks).
type LineEntry struct {
	File  string
	Line  uint32
	Range addr.Range
}

// IsValid reports whether the entry covers any addresses.
func (le LineEntry) IsValid() bool {
	return le.Range.Start.IsValid() && le.Range.Size > 0
}

// ContextItem selects which parts of a Context a resolution should fill in.
type ContextItem uint32

const (
	ContextLineEntry ContextItem = 1 << iota
	ContextSymbol
	ContextFunction
	ContextCompileUnit
	ContextModule

	ContextEverything = ContextLineEntry | ContextSymbol | ContextFunction |
		ContextCompileUnit | ContextModule
)

// Context is the result of resolving an address against a table.
// Unresolved parts are left at their zero values.
type Context struct {
	Module      string
	CompileUnit string
	Function    *Symbol
	Symbol      *Symbol
	LineEntry   LineEntry
}

// Table is a per-module symbol and line table, queried by address.
type Table struct {
	module  string
	symbols []Symbol
	lines   []LineEntry
}

// NewTable builds a table from the given symbols and line entries.
// The inputs are copied and sorted by start address.
func NewTable(module string, symbols []Symbol, lines []LineEntry) *Table {
	t := &Table{
		module:  module,
		symbols: append([]Symbol(nil), symbols...),
		lines:   append([]LineEntry(nil), lines...),
	}
	sort.Slice(t.symbols, func(i, j int) bool {
		return t.symbols[i].Addr < t.symbols[j].Addr
	})
	sort.Slice(t.lines, func(i, j int) bool {
		return t.lines[i].Range.Start < t.lines[j].Range.Start
	})
	return t
}

// Module returns the module name the table describes.
func (t *Table) Module() string {
	if t == nil {
		return ""
	}
	return t.module
}

// SymbolFor returns the symbol whose range contains a, or nil.
func (t *Table) SymbolFor(a addr.Address) *Symbol {
	if t == nil || !a.IsValid() {
		return nil
	}
	i := sort.Search(len(t.symbols), func(i int) bool {
		return t.symbols[i].Addr > a
	})
	if i == 0 {
		return nil
	}
	s := &t.symbols[i-1]
	if s.Range().Contains(a) {
		return s
	}
	return nil
}

// LineEntryFor returns the line entry whose range contains a.
func (t *Table) LineEntryFor(a addr.Address) (LineEntry, bool) {
	if t == nil || !a.IsValid() {
		return LineEntry{Range: addr.Range{Start: addr.Invalid}}, false
	}
	i := sort.Search(len(t.lines), func(i int) bool {
		return t.lines[i].Range.Start > a
	})
	if i == 0 {
		return LineEntry{Range: addr.Range{Start: addr.Invalid}}, false
	}
	le := t.lines[i-1]
	if le.Range.Contains(a) {
		return le, true
	}
	return LineEntry{Range: addr.Range{Start: addr.Invalid}}, false
}

// HasLineInfo reports whether any line entry covers a. Frames over code
// without line info are treated as having no debug information.
func (t *Table) HasLineInfo(a addr.Address) bool {
	_, ok := t.LineEntryFor(a)
	return ok
}

// Resolve fills in the requested context items for the given address.
func (t *Table) Resolve(a addr.Address, what ContextItem) Context {
	var sc Context
	if t == nil || !a.IsValid() {
		sc.LineEntry.Range.Start = addr.Invalid
		return sc
	}
	if what&ContextModule != 0 {
		sc.Module = t.module
	}
	if what&(ContextLineEntry|ContextCompileUnit) != 0 {
		if le, ok := t.LineEntryFor(a); ok {
			sc.LineEntry = le
			if what&ContextCompileUnit != 0 {
				sc.CompileUnit = le.File
			}
		} else {
			sc.LineEntry.Range.Start = addr.Invalid
		}
	} else {
		sc.LineEntry.Range.Start = addr.Invalid
	}
	if what&(ContextSymbol|ContextFunction) != 0 {
		sym := t.SymbolFor(a)
		if what&ContextSymbol != 0 {
			sc.Symbol = sym
		}
		// A symbol only counts as a function when line info backs it.
		if what&ContextFunction != 0 && sym != nil && t.HasLineInfo(a) {
			sc.Function = sym
		}
	}
	return sc
}
