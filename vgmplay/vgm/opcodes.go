package vgm

// Command stream opcodes understood by the player.
// Reference: https://vgmrips.net/wiki/VGM_Specification
const (
	OpPSGWrite  byte = 0x50 // 0x50 dd: write dd to the SN76489
	OpWait      byte = 0x61 // 0x61 nn nn: wait n samples, little-endian
	OpWaitNTSC  byte = 0x62 // wait 735 samples (1/60 s)
	OpWaitPAL   byte = 0x63 // wait 882 samples (1/50 s)
	OpEnd       byte = 0x66 // end of sound data
	OpShortWait byte = 0x70 // 0x7n: wait n+1 samples
)

// Sample counts for the fixed waits.
const (
	NTSCFrameSamples = 735
	PALFrameSamples  = 882
)

// IsShortWait reports whether op belongs to the 0x70-0x7F short wait family.
func IsShortWait(op byte) bool {
	return op&0xF0 == OpShortWait
}

// ShortWaitSamples returns the number of samples a 0x7n opcode waits for.
func ShortWaitSamples(op byte) int {
	return int(op&0x0F) + 1
}

// IsSupported reports whether the player executes op.
func IsSupported(op byte) bool {
	switch op {
	case OpPSGWrite, OpWait, OpWaitNTSC, OpWaitPAL, OpEnd:
		return true
	}
	return IsShortWait(op)
}

// OperandCount returns the number of operand bytes following op.
// known is false when the format does not define a length for op.
// Reserved ranges are included so listings can stay aligned past commands
// the player does not execute.
func OperandCount(op byte) (n int, known bool) {
	switch {
	case IsShortWait(op), op == OpWaitNTSC, op == OpWaitPAL, op == OpEnd:
		return 0, true
	case op == OpPSGWrite:
		return 1, true
	case op == OpWait:
		return 2, true
	case op >= 0x80 && op <= 0x8F:
		// YM2612 DAC write + wait
		return 0, true
	case op >= 0x30 && op <= 0x3F, op == 0x4F, op == 0x94:
		return 1, true
	case op == 0x90, op == 0x91, op == 0x95:
		return 4, true
	case op == 0x92:
		return 5, true
	case op == 0x93:
		return 10, true
	case op == 0x68:
		return 11, true
	case op >= 0x40 && op <= 0x4E:
		return 2, true
	case op >= 0x51 && op <= 0x5F:
		return 2, true
	case op >= 0xA0 && op <= 0xBF:
		return 2, true
	case op >= 0xC0 && op <= 0xDF:
		return 3, true
	case op >= 0xE0:
		return 4, true
	}
	return 0, false
}

// Mnemonic returns a short name for op.
func Mnemonic(op byte) string {
	switch {
	case op == OpPSGWrite:
		return "PSG"
	case op == OpWait:
		return "WAIT"
	case op == OpWaitNTSC:
		return "WAIT735"
	case op == OpWaitPAL:
		return "WAIT882"
	case op == OpEnd:
		return "END"
	case IsShortWait(op):
		return "WAITN"
	}
	if _, known := OperandCount(op); known {
		return "RSVD"
	}
	return "???"
}
