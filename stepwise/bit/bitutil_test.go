package bit

import (
	"testing"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		high, low uint8
		expected  uint16
	}{
		{0xAB, 0xCD, 0xABCD},
		{0x00, 0x00, 0x0000},
		{0xFF, 0xFF, 0xFFFF},
		{0x12, 0x34, 0x1234},
	}

	for _, tt := range tests {
		result := Combine(tt.high, tt.low)
		if result != tt.expected {
			t.Errorf("Combine(%X, %X) = %X; want %X", tt.high, tt.low, result, tt.expected)
		}
	}
}

func TestLowHigh(t *testing.T) {
	tests := []struct {
		value     uint16
		low, high uint8
	}{
		{0xABCD, 0xCD, 0xAB},
		{0x0000, 0x00, 0x00},
		{0xFFFF, 0xFF, 0xFF},
		{0x1234, 0x34, 0x12},
	}

	for _, tt := range tests {
		if result := Low(tt.value); result != tt.low {
			t.Errorf("Low(%X) = %X; want %X", tt.value, result, tt.low)
		}
		if result := High(tt.value); result != tt.high {
			t.Errorf("High(%X) = %X; want %X", tt.value, result, tt.high)
		}
	}
}

func TestIsSet16(t *testing.T) {
	tests := []struct {
		value    uint16
		index    uint
		expected bool
	}{
		{0b1010_1010_1010_1010, 0, false},
		{0b1010_1010_1010_1010, 1, true},
		{0b1010_1010_1010_1010, 14, false},
		{0b1010_1010_1010_1010, 15, true},
	}

	for _, tt := range tests {
		result := IsSet16(tt.index, tt.value)
		if result != tt.expected {
			t.Errorf("IsSet16(%d, %016b) = %v; want %v", tt.index, tt.value, result, tt.expected)
		}
	}
}

func TestExtractBits16(t *testing.T) {
	tests := []struct {
		value            uint16
		highBit, lowBit  uint
		expected         uint16
	}{
		{0b1101_0110_0000_0000, 15, 12, 0b1101},
		{0b0001_0010_1100_0011, 11, 9, 0b001},
		{0b0001_0010_1100_0011, 8, 6, 0b011},
		{0xFFFF, 15, 0, 0xFFFF},
		{0x1234, 3, 0, 0x4},
	}

	for _, tt := range tests {
		result := ExtractBits16(tt.value, tt.highBit, tt.lowBit)
		if result != tt.expected {
			t.Errorf("ExtractBits16(%016b, %d, %d) = %b; want %b",
				tt.value, tt.highBit, tt.lowBit, result, tt.expected)
		}
	}
}

func TestSignExtend(t *testing.T) {
	tests := []struct {
		value    uint16
		bitcount uint
		expected uint16
	}{
		{0x1F, 5, 0xFFFF}, // -1 in imm5
		{0x0F, 5, 0x000F},
		{0x10, 5, 0xFFF0}, // -16 in imm5
		{0x1FF, 9, 0xFFFF},
		{0x0FF, 9, 0x00FF},
	}

	for _, tt := range tests {
		result := SignExtend(tt.value, tt.bitcount)
		if result != tt.expected {
			t.Errorf("SignExtend(%X, %d) = %X; want %X", tt.value, tt.bitcount, result, tt.expected)
		}
	}
}

func TestZeroExtend(t *testing.T) {
	tests := []struct {
		value    uint16
		bitcount uint
		expected uint16
	}{
		{0xFF, 8, 0x00FF},
		{0x1FF, 8, 0x00FF},
		{0x25, 8, 0x0025},
	}

	for _, tt := range tests {
		result := ZeroExtend(tt.value, tt.bitcount)
		if result != tt.expected {
			t.Errorf("ZeroExtend(%X, %d) = %X; want %X", tt.value, tt.bitcount, result, tt.expected)
		}
	}
}
