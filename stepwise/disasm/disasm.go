// Package disasm renders decoded instructions as text: the default
// mnemonic-operands-comment layout plus the small "${addr}: " description
// template used when printing instructions with symbol context.
package disasm

import (
	"fmt"
	"strings"

	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
)

const mnemonicWidth = 8

// Line is a single disassembled instruction ready for display.
type Line struct {
	Address  addr.Address
	Mnemonic string
	Operands string
	Comment  string
}

// Text renders the instruction in the default column layout.
func (l Line) Text() string {
	var sb strings.Builder
	if l.Operands == "" {
		sb.WriteString(l.Mnemonic)
	} else {
		fmt.Fprintf(&sb, "%-*s %s", mnemonicWidth, l.Mnemonic, l.Operands)
	}
	if l.Comment != "" {
		sb.WriteString(" ; ")
		sb.WriteString(l.Comment)
	}
	return sb.String()
}

// FormatLine renders a line for trace views, marking the current PC.
func FormatLine(l Line, isCurrent bool) string {
	prefix := "  "
	if isCurrent {
		prefix = "> "
	}
	return fmt.Sprintf("%s%s: %s", prefix, l.Address, l.Text())
}

// Format is a parsed description template. The only substitution token is
// ${addr}, which expands to the instruction's address.
type Format struct {
	prefix  string
	suffix  string
	hasAddr bool
}

// DefaultFormat is the template instruction descriptions are rendered with.
const DefaultFormat = "${addr}: "

// ParseFormat parses a description template.
func ParseFormat(template string) (Format, error) {
	const token = "${addr}"
	i := strings.Index(template, token)
	if i < 0 {
		return Format{prefix: template}, nil
	}
	rest := template[i+len(token):]
	if strings.Contains(rest, "${") {
		return Format{}, fmt.Errorf("disasm: unsupported token in template %q", template)
	}
	return Format{prefix: template[:i], suffix: rest, hasAddr: true}, nil
}

// Render expands the template for the given address.
func (f Format) Render(a addr.Address) string {
	if !f.hasAddr {
		return f.prefix
	}
	return f.prefix + a.String() + f.suffix
}

// Describe renders the full description of an instruction: the template
// expansion followed by the default instruction text. Symbol context is
// best-effort; with none available the raw address still prints.
func Describe(l Line, sc *symbol.Context, f Format) string {
	text := f.Render(l.Address) + l.Text()
	if sc != nil && sc.Symbol != nil && l.Comment == "" {
		off := uint32(l.Address) - uint32(sc.Symbol.Addr)
		if off == 0 {
			text += fmt.Sprintf(" ; <%s>", sc.Symbol.Name)
		} else {
			text += fmt.Sprintf(" ; <%s+%d>", sc.Symbol.Name, off)
		}
	}
	return text
}
