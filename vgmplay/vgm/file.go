package vgm

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/valerio/go-vgmplay/vgmplay/timing"
)

// Header field offsets.
// Reference: https://vgmrips.net/wiki/VGM_Specification#Header
const (
	offIdent        = 0x00
	offEOF          = 0x04
	offVersion      = 0x08
	offSN76489Clock = 0x0C
	offGD3          = 0x14
	offTotalSamples = 0x18
	offLoop         = 0x1C
	offLoopSamples  = 0x20
	offRate         = 0x24
	offSNFeedback   = 0x28
	offSNShiftWidth = 0x2A
	offDataOffset   = 0x34

	minHeaderSize   = 0x40
	legacyDataStart = 0x40
	dataOffsetSince = 0x150
)

var (
	vgmMagic  = []byte("Vgm ")
	gzipMagic = []byte{0x1F, 0x8B}
)

// ErrInvalidHeader is returned for files that carry the VGM magic but a broken header.
var ErrInvalidHeader = errors.New("vgm: invalid header")

// Header holds the subset of the VGM header the player cares about.
type Header struct {
	EOFOffset    uint32
	VersionBCD   uint32
	SN76489Clock uint32
	GD3Offset    uint32 // absolute, 0 when absent
	TotalSamples uint32
	LoopOffset   uint32 // absolute, 0 when absent
	LoopSamples  uint32
	Rate         uint32
	SNFeedback   uint16
	SNShiftWidth uint8
	DataOffset   uint32 // absolute offset of the first command
}

// Version formats the BCD version number, e.g. 0x00000150 -> "1.50".
func (h *Header) Version() string {
	major := (h.VersionBCD>>12&0xF)*10 + (h.VersionBCD >> 8 & 0xF)
	minor := h.VersionBCD & 0xFF
	return fmt.Sprintf("%d.%02X", major, minor)
}

// Duration returns the total playback length declared by the header.
func (h *Header) Duration() time.Duration {
	return time.Duration(h.TotalSamples) * time.Second / timing.SampleRate
}

// File is a loaded command stream with its optional metadata.
type File struct {
	Header   *Header // nil for raw command streams
	Tags     *GD3    // nil when the file has no GD3 block
	Commands *Stream
}

// Load reads a VGM, VGZ or raw command stream from path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	file, err := ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return file, nil
}

// ReadFrom reads the whole of r and parses it.
func ReadFrom(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes data. Gzip-compressed input is inflated first. Data starting with
// the "Vgm " magic is parsed as a VGM file; anything else is taken as a bare
// command stream with the header already stripped.
func Parse(data []byte) (*File, error) {
	if bytes.HasPrefix(data, gzipMagic) {
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		data, err = io.ReadAll(gz)
		if err != nil {
			return nil, fmt.Errorf("failed to inflate gzip stream: %w", err)
		}
	}

	if !bytes.HasPrefix(data, vgmMagic) {
		slog.Debug("No VGM header, using raw command stream", "bytes", len(data))
		return &File{Commands: NewStream(data)}, nil
	}

	header, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	file := &File{
		Header:   header,
		Commands: NewStream(data[header.DataOffset:]),
	}

	if header.GD3Offset != 0 {
		tags, err := ParseGD3(data[header.GD3Offset:])
		if err != nil {
			// Tags are informational only.
			slog.Warn("Ignoring unreadable GD3 tags", "offset", fmt.Sprintf("0x%X", header.GD3Offset), "error", err)
		} else {
			file.Tags = tags
		}
	}

	slog.Debug("Parsed VGM header",
		"version", header.Version(),
		"sn76489_clock", header.SN76489Clock,
		"total_samples", header.TotalSamples,
		"data_offset", fmt.Sprintf("0x%X", header.DataOffset))

	return file, nil
}

func parseHeader(data []byte) (*Header, error) {
	if len(data) < minHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrInvalidHeader, len(data), minHeaderSize)
	}

	le := binary.LittleEndian
	h := &Header{
		EOFOffset:    le.Uint32(data[offEOF:]) + offEOF,
		VersionBCD:   le.Uint32(data[offVersion:]),
		SN76489Clock: le.Uint32(data[offSN76489Clock:]),
		TotalSamples: le.Uint32(data[offTotalSamples:]),
		LoopSamples:  le.Uint32(data[offLoopSamples:]),
		Rate:         le.Uint32(data[offRate:]),
		SNFeedback:   le.Uint16(data[offSNFeedback:]),
		SNShiftWidth: data[offSNShiftWidth],
	}

	if rel := le.Uint32(data[offGD3:]); rel != 0 {
		abs, ok := absOffset(rel, offGD3, len(data)-1)
		if !ok {
			return nil, fmt.Errorf("%w: GD3 offset 0x%X out of range", ErrInvalidHeader, uint64(rel)+offGD3)
		}
		h.GD3Offset = abs
	}
	if rel := le.Uint32(data[offLoop:]); rel != 0 {
		// informational only, an out-of-range loop point is kept as 0
		h.LoopOffset, _ = absOffset(rel, offLoop, len(data)-1)
	}

	h.DataOffset = legacyDataStart
	if h.VersionBCD >= dataOffsetSince {
		if rel := le.Uint32(data[offDataOffset:]); rel != 0 {
			abs, ok := absOffset(rel, offDataOffset, len(data))
			if !ok || abs < minHeaderSize {
				return nil, fmt.Errorf("%w: data offset 0x%X out of range", ErrInvalidHeader, uint64(rel)+offDataOffset)
			}
			h.DataOffset = abs
		}
	}
	if int(h.DataOffset) > len(data) {
		return nil, fmt.Errorf("%w: data offset 0x%X out of range", ErrInvalidHeader, h.DataOffset)
	}

	return h, nil
}

// absOffset resolves a header-relative offset stored at field without
// wrapping, and reports whether it lies within [0, limit].
func absOffset(rel uint32, field int, limit int) (uint32, bool) {
	abs := uint64(rel) + uint64(field)
	if abs > uint64(limit) {
		return 0, false
	}
	return uint32(abs), true
}
