package vgm

import (
	"errors"
	"fmt"

	"github.com/valerio/go-vgmplay/vgmplay/bit"
)

// ErrUnexpectedEnd is returned when a read runs past the end of a stream.
var ErrUnexpectedEnd = errors.New("vgm: unexpected end of command stream")

// Stream is a read-only command stream with bounds-checked access.
// The backing slice is never modified.
type Stream struct {
	data []byte
}

// NewStream wraps data. The caller must not modify data while the stream is in use.
func NewStream(data []byte) *Stream {
	return &Stream{data: data}
}

// Len returns the number of bytes in the stream.
func (s *Stream) Len() int {
	return len(s.data)
}

// At returns the byte at offset off.
func (s *Stream) At(off int) (byte, error) {
	if off < 0 || off >= len(s.data) {
		return 0, fmt.Errorf("%w: read at 0x%04X, length 0x%04X", ErrUnexpectedEnd, off, len(s.data))
	}
	return s.data[off], nil
}

// Uint16At returns the little-endian 16 bit value stored at off and off+1.
func (s *Stream) Uint16At(off int) (uint16, error) {
	lo, err := s.At(off)
	if err != nil {
		return 0, err
	}
	hi, err := s.At(off + 1)
	if err != nil {
		return 0, err
	}
	return bit.Combine(hi, lo), nil
}

// Slice returns n bytes starting at off. The result aliases the stream.
func (s *Stream) Slice(off, n int) ([]byte, error) {
	if n < 0 || off < 0 || off+n > len(s.data) {
		return nil, fmt.Errorf("%w: %d bytes at 0x%04X, length 0x%04X", ErrUnexpectedEnd, n, off, len(s.data))
	}
	return s.data[off : off+n : off+n], nil
}
