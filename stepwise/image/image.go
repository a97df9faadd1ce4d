// Package image loads program images: code words plus the symbol and line
// tables the debugger resolves against. Images are YAML so fixtures and
// demo programs stay readable next to their source listings.
package image

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stepwisedbg/go-stepwise/stepwise/addr"
	"github.com/stepwisedbg/go-stepwise/stepwise/symbol"
)

// SymbolSpec is one symbol record in an image file.
type SymbolSpec struct {
	Name string `yaml:"name"`
	Addr uint32 `yaml:"addr"`
	Size uint32 `yaml:"size"`
}

// LineSpec is one line-table record in an image file. Line 0 marks code
// with no source correspondence.
type LineSpec struct {
	File string `yaml:"file"`
	Line uint32 `yaml:"line"`
	Addr uint32 `yaml:"addr"`
	Size uint32 `yaml:"size"`
}

// Image is a loaded program: where it sits, what runs first, and what the
// toolchain recorded about it.
type Image struct {
	Name    string       `yaml:"name"`
	Arch    string       `yaml:"arch"`
	Origin  uint32       `yaml:"origin"`
	Entry   uint32       `yaml:"entry"`
	Code    []uint16     `yaml:"code"`
	Symbols []SymbolSpec `yaml:"symbols"`
	Lines   []LineSpec   `yaml:"lines"`
}

// Load reads and validates an image file.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading image")
	}
	var img Image
	if err := yaml.Unmarshal(data, &img); err != nil {
		return nil, errors.Wrapf(err, "parsing image %s", path)
	}
	if img.Name == "" {
		img.Name = path
	}
	if len(img.Code) == 0 {
		return nil, errors.Errorf("image %s has no code", path)
	}
	if img.Entry == 0 {
		img.Entry = img.Origin
	}
	span := addr.Range{Start: addr.Address(img.Origin), Size: uint32(len(img.Code))}
	if !span.Contains(addr.Address(img.Entry)) {
		return nil, errors.Errorf("image %s entry %#x outside code %s", path, img.Entry, span)
	}
	return &img, nil
}

// Table builds the symbol table the image describes.
func (img *Image) Table() *symbol.Table {
	symbols := make([]symbol.Symbol, 0, len(img.Symbols))
	for _, s := range img.Symbols {
		symbols = append(symbols, symbol.Symbol{
			Name: s.Name,
			Addr: addr.Address(s.Addr),
			Size: s.Size,
		})
	}
	lines := make([]symbol.LineEntry, 0, len(img.Lines))
	for _, l := range img.Lines {
		lines = append(lines, symbol.LineEntry{
			File:  l.File,
			Line:  l.Line,
			Range: addr.Range{Start: addr.Address(l.Addr), Size: l.Size},
		})
	}
	return symbol.NewTable(img.Name, symbols, lines)
}
