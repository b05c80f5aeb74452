package vgm

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

// buildVGM creates a v1.50 file with data at 0x40, commands, then an optional GD3 block.
func buildVGM(t *testing.T, commands []byte, tags []string) []byte {
	t.Helper()

	header := make([]byte, 0x40)
	copy(header, "Vgm ")
	binary.LittleEndian.PutUint32(header[offVersion:], 0x150)
	binary.LittleEndian.PutUint32(header[offSN76489Clock:], 3579545)
	binary.LittleEndian.PutUint32(header[offTotalSamples:], 44100)
	binary.LittleEndian.PutUint32(header[offDataOffset:], 0x40-offDataOffset)
	binary.LittleEndian.PutUint16(header[offSNFeedback:], 0x0009)
	header[offSNShiftWidth] = 16

	data := append(header, commands...)

	if tags != nil {
		binary.LittleEndian.PutUint32(data[offGD3:], uint32(len(data)-offGD3))
		data = append(data, buildGD3(t, tags)...)
	}

	binary.LittleEndian.PutUint32(data[offEOF:], uint32(len(data)-offEOF))
	return data
}

func buildGD3(t *testing.T, tags []string) []byte {
	t.Helper()

	var text string
	for _, tag := range tags {
		text += tag + "\x00"
	}
	body, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)

	block := make([]byte, 12)
	copy(block, "Gd3 ")
	binary.LittleEndian.PutUint32(block[4:], 0x100)
	binary.LittleEndian.PutUint32(block[8:], uint32(len(body)))
	return append(block, body...)
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(data)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

var sampleTags = []string{
	"Green Hill Zone", "", "Sonic the Hedgehog", "", "Sega Master System", "",
	"Masato Nakamura", "", "1991", "ripper", "notes",
}

func TestParse_VGM(t *testing.T) {
	commands := []byte{0x50, 0x8F, 0x7F, 0x66}
	f, err := Parse(buildVGM(t, commands, sampleTags))
	require.NoError(t, err)

	require.NotNil(t, f.Header)
	assert.Equal(t, "1.50", f.Header.Version())
	assert.Equal(t, uint32(3579545), f.Header.SN76489Clock)
	assert.Equal(t, uint32(0x40), f.Header.DataOffset)
	assert.Equal(t, uint16(0x0009), f.Header.SNFeedback)
	assert.Equal(t, uint8(16), f.Header.SNShiftWidth)
	assert.Equal(t, time.Second, f.Header.Duration())

	got, err := f.Commands.Slice(0, f.Commands.Len())
	require.NoError(t, err)
	// the GD3 block follows the commands
	assert.Equal(t, commands, got[:len(commands)])

	require.NotNil(t, f.Tags)
	assert.Equal(t, "Green Hill Zone", f.Tags.TrackEN)
	assert.Equal(t, "Masato Nakamura", f.Tags.Author())
	assert.Equal(t, "Green Hill Zone - Sonic the Hedgehog", f.Tags.Title())
	assert.Equal(t, "notes", f.Tags.Notes)
}

func TestParse_VGZ(t *testing.T) {
	commands := []byte{0x62, 0x63, 0x66}
	f, err := Parse(gzipBytes(t, buildVGM(t, commands, nil)))
	require.NoError(t, err)

	require.NotNil(t, f.Header)
	assert.Nil(t, f.Tags)
	assert.Equal(t, len(commands), f.Commands.Len())
}

func TestParse_RawStream(t *testing.T) {
	raw := []byte{0x61, 0x10, 0x27, 0x66}
	f, err := Parse(raw)
	require.NoError(t, err)

	assert.Nil(t, f.Header)
	assert.Nil(t, f.Tags)
	assert.Equal(t, 4, f.Commands.Len())
}

func TestParse_LegacyVersionIgnoresDataOffset(t *testing.T) {
	data := buildVGM(t, []byte{0x66}, nil)
	binary.LittleEndian.PutUint32(data[offVersion:], 0x110)
	binary.LittleEndian.PutUint32(data[offDataOffset:], 0xFFFF)

	f, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(legacyDataStart), f.Header.DataOffset)
	assert.Equal(t, "1.10", f.Header.Version())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data func(t *testing.T) []byte
	}{
		{
			name: "short header",
			data: func(t *testing.T) []byte { return []byte("Vgm \x00\x00") },
		},
		{
			name: "data offset out of range",
			data: func(t *testing.T) []byte {
				d := buildVGM(t, []byte{0x66}, nil)
				binary.LittleEndian.PutUint32(d[offDataOffset:], 0x1000)
				return d
			},
		},
		{
			name: "gd3 offset out of range",
			data: func(t *testing.T) []byte {
				d := buildVGM(t, []byte{0x66}, nil)
				binary.LittleEndian.PutUint32(d[offGD3:], 0x1000)
				return d
			},
		},
		{
			// 0xFFFFFFCC + 0x34 wraps to 0 in 32 bits
			name: "data offset wraps around",
			data: func(t *testing.T) []byte {
				d := buildVGM(t, []byte{0x66}, nil)
				binary.LittleEndian.PutUint32(d[offDataOffset:], 0xFFFFFFCC)
				return d
			},
		},
		{
			name: "gd3 offset wraps around",
			data: func(t *testing.T) []byte {
				d := buildVGM(t, []byte{0x66}, nil)
				binary.LittleEndian.PutUint32(d[offGD3:], 0xFFFFFFF0)
				return d
			},
		},
		{
			name: "data offset inside header",
			data: func(t *testing.T) []byte {
				d := buildVGM(t, []byte{0x66}, nil)
				binary.LittleEndian.PutUint32(d[offDataOffset:], 0x04)
				return d
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data(t))
			assert.ErrorIs(t, err, ErrInvalidHeader)
		})
	}
}

func TestParse_BrokenGD3IsIgnored(t *testing.T) {
	data := buildVGM(t, []byte{0x66}, sampleTags)
	gd3 := binary.LittleEndian.Uint32(data[offGD3:]) + offGD3
	copy(data[gd3:], "XXXX")

	f, err := Parse(data)
	require.NoError(t, err)
	assert.Nil(t, f.Tags)
}

func TestParseGD3_Truncated(t *testing.T) {
	block := buildGD3(t, sampleTags)
	_, err := ParseGD3(block[:len(block)-4])
	assert.ErrorIs(t, err, ErrInvalidGD3)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.vgz")
	require.NoError(t, os.WriteFile(path, gzipBytes(t, buildVGM(t, []byte{0x66}, sampleTags)), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Sonic the Hedgehog", f.Tags.GameEN)

	_, err = Load(filepath.Join(t.TempDir(), "missing.vgm"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
