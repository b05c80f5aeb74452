package disasm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/valerio/go-vgmplay/vgmplay/chip"
	"github.com/valerio/go-vgmplay/vgmplay/vgm"
)

// Line is a single disassembled command.
type Line struct {
	Offset      int
	Bytes       []byte
	Instruction string
	Length      int
	// Truncated is set when the command's operands run past the end of the stream.
	Truncated bool
}

// DisassembleAt disassembles the command at off. Offsets past the end yield
// a zero-length line.
func DisassembleAt(s *vgm.Stream, off int) Line {
	op, err := s.At(off)
	if err != nil {
		return Line{Offset: off, Instruction: "<end>"}
	}

	n, known := vgm.OperandCount(op)
	if !known {
		return Line{Offset: off, Bytes: []byte{op}, Instruction: fmt.Sprintf("??? 0x%02X", op), Length: 1}
	}

	raw, err := s.Slice(off, n+1)
	if err != nil {
		rest, _ := s.Slice(off, s.Len()-off)
		return Line{
			Offset:      off,
			Bytes:       rest,
			Instruction: vgm.Mnemonic(op) + " ??",
			Length:      len(rest),
			Truncated:   true,
		}
	}

	return Line{
		Offset:      off,
		Bytes:       raw,
		Instruction: format(op, raw[1:]),
		Length:      len(raw),
	}
}

func format(op byte, operands []byte) string {
	switch {
	case op == vgm.OpPSGWrite:
		return fmt.Sprintf("PSG 0x%02X  ; %s", operands[0], chip.DecodeCommand(operands[0]))
	case op == vgm.OpWait:
		return fmt.Sprintf("WAIT %d", int(operands[0])|int(operands[1])<<8)
	case vgm.IsShortWait(op):
		return fmt.Sprintf("WAITN %d", vgm.ShortWaitSamples(op))
	case len(operands) == 0:
		return vgm.Mnemonic(op)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s 0x%02X", vgm.Mnemonic(op), op)
	for _, b := range operands {
		fmt.Fprintf(&sb, " %02X", b)
	}
	return sb.String()
}

// DisassembleRange disassembles up to count commands starting at start.
func DisassembleRange(s *vgm.Stream, start, count int) []Line {
	lines := make([]Line, 0, count)
	off := start
	for i := 0; i < count && off < s.Len(); i++ {
		line := DisassembleAt(s, off)
		lines = append(lines, line)
		off += line.Length
	}
	return lines
}

// Index holds the start offset of every command in a stream, found by
// decoding forward from offset 0.
type Index struct {
	stream *vgm.Stream
	starts []int
}

func NewIndex(s *vgm.Stream) *Index {
	idx := &Index{stream: s}
	for off := 0; off < s.Len(); {
		idx.starts = append(idx.starts, off)
		off += DisassembleAt(s, off).Length
	}
	return idx
}

// Len returns the number of commands in the stream.
func (idx *Index) Len() int {
	return len(idx.starts)
}

// Around returns up to before commands preceding cursor, the command at
// cursor and up to after commands following it. A cursor that does not sit
// on a command boundary is disassembled from where it points.
func (idx *Index) Around(cursor, before, after int) []Line {
	i := sort.SearchInts(idx.starts, cursor)
	if i == len(idx.starts) || idx.starts[i] != cursor {
		return DisassembleRange(idx.stream, cursor, after+1)
	}

	first := max(i-before, 0)
	return DisassembleRange(idx.stream, idx.starts[first], i-first+after+1)
}

// DisassembleAround is a one-shot Index(s).Around.
func DisassembleAround(s *vgm.Stream, cursor, before, after int) []Line {
	return NewIndex(s).Around(cursor, before, after)
}

// FormatLine formats a line for display, marking the current command.
func FormatLine(line Line, current bool) string {
	prefix := " "
	if current {
		prefix = "→"
	}

	hex := make([]string, 0, len(line.Bytes))
	for _, b := range line.Bytes {
		hex = append(hex, fmt.Sprintf("%02X", b))
	}
	return fmt.Sprintf("%s0x%04X: %-14s %s", prefix, line.Offset, strings.Join(hex, " "), line.Instruction)
}
