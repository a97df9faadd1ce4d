package bit

// Combine combines two 8 bit values into a single 16 bit value.
// The high byte will be the most significant one.
func Combine(high, low uint8) uint16 {
	return (uint16(high) << 8) | uint16(low)
}

// Low returns the low (LSB) part of a 16 bit number.
func Low(value uint16) uint8 {
	return uint8(value)
}

// High returns the high (MSB) part of a 16 bit number.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// IsSet16 will check if the bit at the specified index is set to 1 or not.
func IsSet16(index uint, value uint16) bool {
	return ((value >> index) & 1) == 1
}

// ExtractBits16 extracts bits from highBit to lowBit (inclusive).
// Example: ExtractBits16(0b1101_0110_0000_0000, 15, 12) -> 0b1101
func ExtractBits16(value uint16, highBit, lowBit uint) uint16 {
	width := highBit - lowBit + 1
	mask := uint16((1 << width) - 1)
	return (value >> lowBit) & mask
}

// SignExtend extends the sign bit of a bitcount-wide field to 16 bits.
func SignExtend(value uint16, bitcount uint) uint16 {
	if (value>>(bitcount-1))&0x1 == 1 {
		value |= 0xFFFF << bitcount
	}
	return value
}

// ZeroExtend widens a bitcount-wide field to 16 bits with zero fill.
func ZeroExtend(value uint16, bitcount uint) uint16 {
	mask := uint16((1 << bitcount) - 1)
	return value & mask
}
