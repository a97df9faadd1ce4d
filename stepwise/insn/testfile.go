package insn

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EmulationTestState is one machine state in an emulation self-test:
// register values by name and memory words by address.
type EmulationTestState struct {
	Registers map[string]uint16 `yaml:"registers"`
	Memory    map[string]uint16 `yaml:"memory"`
}

// MemoryWords parses the hex-keyed memory map into addresses.
func (s *EmulationTestState) MemoryWords() (map[uint32]uint16, error) {
	out := make(map[uint32]uint16, len(s.Memory))
	for key, value := range s.Memory {
		a, err := strconv.ParseUint(key, 0, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "bad memory address %q", key)
		}
		out[uint32(a)] = value
	}
	return out, nil
}

// EmulationTest is a self-test file: one opcode emulated from a before
// state, compared against an expected after state.
type EmulationTest struct {
	Arch    string             `yaml:"arch"`
	Address uint32             `yaml:"address"`
	Opcode  uint16             `yaml:"opcode"`
	Before  EmulationTestState `yaml:"before"`
	After   EmulationTestState `yaml:"after"`
}

// LoadEmulationTest reads and parses a self-test file.
func LoadEmulationTest(path string) (*EmulationTest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading emulation test")
	}
	var test EmulationTest
	if err := yaml.Unmarshal(data, &test); err != nil {
		return nil, errors.Wrapf(err, "parsing emulation test %s", path)
	}
	if test.Arch == "" {
		return nil, errors.Errorf("emulation test %s does not name an arch", path)
	}
	return &test, nil
}
