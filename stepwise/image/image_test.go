package image

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeImage(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeImage(t, `
name: demo
arch: lc3-unknown-none
origin: 0x3000
entry: 0x3001
code: [0x5020, 0x1021, 0xF025]
symbols:
  - {name: main, addr: 0x3000, size: 3}
lines:
  - {file: main.src, line: 0, addr: 0x3000, size: 1}
  - {file: main.src, line: 5, addr: 0x3001, size: 2}
`)

	img, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "demo", img.Name)
	assert.Equal(t, uint32(0x3000), img.Origin)
	assert.Equal(t, uint32(0x3001), img.Entry)
	assert.Equal(t, []uint16{0x5020, 0x1021, 0xF025}, img.Code)

	table := img.Table()
	sym := table.SymbolFor(0x3001)
	assert.NotNil(t, sym)
	assert.Equal(t, "main", sym.Name)

	le, ok := table.LineEntryFor(0x3000)
	assert.True(t, ok)
	assert.Equal(t, uint32(0), le.Line)
}

func TestLoadDefaults(t *testing.T) {
	path := writeImage(t, `
origin: 0x3000
code: [0xF025]
`)
	img, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x3000), img.Entry, "entry defaults to origin")
	assert.Equal(t, path, img.Name, "name defaults to the path")
}

func TestLoadRejectsBadImages(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeImage(t, "origin: 0x3000\ncode: []\n")
	_, err = Load(path)
	assert.ErrorContains(t, err, "no code")

	path = writeImage(t, "origin: 0x3000\nentry: 0x4000\ncode: [0xF025]\n")
	_, err = Load(path)
	assert.ErrorContains(t, err, "outside code")
}
