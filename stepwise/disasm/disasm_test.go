package disasm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
)

func TestLineText(t *testing.T) {
	tests := []struct {
		name string
		line Line
		want string
	}{
		{"mnemonic only", Line{Mnemonic: "ret"}, "ret"},
		{"with operands", Line{Mnemonic: "add", Operands: "r0, r1, r2"}, "add      r0, r1, r2"},
		{"with comment", Line{Mnemonic: "jsr", Operands: "0x3003", Comment: "-> 0x3003 <helper>"},
			"jsr      0x3003 ; -> 0x3003 <helper>"},
		{"comment without operands", Line{Mnemonic: "halt", Comment: "stops the clock"},
			"halt ; stops the clock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.line.Text())
		})
	}
}

func TestFormatLine(t *testing.T) {
	l := Line{Address: 0x3000, Mnemonic: "add", Operands: "r0, r0, #1"}
	assert.Equal(t, "> 0x3000: add      r0, r0, #1", FormatLine(l, true))
	assert.Equal(t, "  0x3000: add      r0, r0, #1", FormatLine(l, false))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(DefaultFormat)
	assert.NoError(t, err)
	assert.Equal(t, "0x3000: ", f.Render(0x3000))

	f, err = ParseFormat("[${addr}] ")
	assert.NoError(t, err)
	assert.Equal(t, "[0x3000] ", f.Render(0x3000))

	f, err = ParseFormat("plain ")
	assert.NoError(t, err)
	assert.Equal(t, "plain ", f.Render(0x3000), "templates without the token are literal")

	_, err = ParseFormat("${addr}: ${mnemonic}")
	assert.Error(t, err, "only the address token is supported")
}

func TestDescribe(t *testing.T) {
	f, err := ParseFormat(DefaultFormat)
	assert.NoError(t, err)

	l := Line{Address: 0x3002, Mnemonic: "add", Operands: "r0, r0, #1"}
	assert.Equal(t, "0x3002: add      r0, r0, #1", Describe(l, nil, f))

	sym := &symbol.Symbol{Name: "main", Addr: 0x3000, Size: 8}
	sc := &symbol.Context{Symbol: sym}
	assert.Equal(t, "0x3002: add      r0, r0, #1 ; <main+2>", Describe(l, sc, f))

	l.Address = 0x3000
	assert.Equal(t, "0x3000: add      r0, r0, #1 ; <main>", Describe(l, sc, f))

	// An instruction comment suppresses the symbol annotation.
	l.Comment = "-> 0x3003"
	assert.Equal(t, "0x3000: add      r0, r0, #1 ; -> 0x3003", Describe(l, sc, f))
}
