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

// IsSet will check if the bit at the specified index is set to 1 or not.
func IsSet(index, value uint8) bool {
	return ((value >> index) & 1) == 1
}

// ExtractBits extracts bits from highBit to lowBit (inclusive).
// Example: ExtractBits(0b11010110, 6, 5) -> 0b10 (extracts bits 6 and 5)
func ExtractBits(value uint8, highBit, lowBit uint8) uint8 {
	width := highBit - lowBit + 1
	mask := uint8((1 << width) - 1)
	return (value >> lowBit) & mask
}

// LowNibble returns bits 3-0 of value.
func LowNibble(value uint8) uint8 {
	return value & 0x0F
}

// HighNibble returns bits 7-4 of value, shifted down.
func HighNibble(value uint8) uint8 {
	return value >> 4
}
