package vgm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

var gd3Magic = []byte("Gd3 ")

// ErrInvalidGD3 is returned for malformed GD3 tag blocks.
var ErrInvalidGD3 = errors.New("vgm: invalid GD3 block")

// GD3 holds the track metadata that may follow the command data.
// Reference: https://vgmrips.net/wiki/GD3_Specification
type GD3 struct {
	TrackEN    string
	TrackJP    string
	GameEN     string
	GameJP     string
	SystemEN   string
	SystemJP   string
	AuthorEN   string
	AuthorJP   string
	ReleasedOn string
	RippedBy   string
	Notes      string
}

// Title returns a single display line, preferring the English fields.
func (g *GD3) Title() string {
	track := firstNonEmpty(g.TrackEN, g.TrackJP)
	game := firstNonEmpty(g.GameEN, g.GameJP)
	switch {
	case track != "" && game != "":
		return track + " - " + game
	case track != "":
		return track
	default:
		return game
	}
}

// Author returns the composer, preferring the English field.
func (g *GD3) Author() string {
	return firstNonEmpty(g.AuthorEN, g.AuthorJP)
}

// ParseGD3 decodes a GD3 block starting at the beginning of data.
func ParseGD3(data []byte) (*GD3, error) {
	if len(data) < 12 || !bytes.HasPrefix(data, gd3Magic) {
		return nil, fmt.Errorf("%w: missing magic", ErrInvalidGD3)
	}
	size := int(binary.LittleEndian.Uint32(data[8:12]))
	body := data[12:]
	if size > len(body) {
		return nil, fmt.Errorf("%w: declared %d bytes, have %d", ErrInvalidGD3, size, len(body))
	}
	body = body[:size]

	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGD3, err)
	}

	fields := strings.Split(string(decoded), "\x00")
	get := func(i int) string {
		if i < len(fields) {
			return strings.TrimSpace(fields[i])
		}
		return ""
	}

	return &GD3{
		TrackEN:    get(0),
		TrackJP:    get(1),
		GameEN:     get(2),
		GameJP:     get(3),
		SystemEN:   get(4),
		SystemJP:   get(5),
		AuthorEN:   get(6),
		AuthorJP:   get(7),
		ReleasedOn: get(8),
		RippedBy:   get(9),
		Notes:      get(10),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
