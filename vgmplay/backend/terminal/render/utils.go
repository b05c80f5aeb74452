package render

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/valerio/go-vgmplay/vgmplay/chip"
)

// MeterBar draws a channel's loudness as width cells: filled for the
// attenuation steps above silence, shaded for the rest.
func MeterBar(attenuation uint8, width int) string {
	if width <= 0 {
		return ""
	}
	level := int(chip.MaxAttenuation) - int(min(attenuation, chip.MaxAttenuation))
	filled := level * width / int(chip.MaxAttenuation)

	runes := make([]rune, width)
	for i := range runes {
		if i < filled {
			runes[i] = '█'
		} else {
			runes[i] = '░'
		}
	}
	return string(runes)
}

// ProgressBar draws fraction (0..1) as a bar of width cells.
func ProgressBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	fraction = max(0, min(fraction, 1))
	filled := int(fraction * float64(width))

	runes := make([]rune, width)
	for i := range runes {
		if i < filled {
			runes[i] = '━'
		} else {
			runes[i] = '─'
		}
	}
	return string(runes)
}

// ChannelName returns the display label of a 0-based channel index.
func ChannelName(ch int) string {
	if ch == chip.NoiseChannel {
		return "NOISE"
	}
	return fmt.Sprintf("TONE%d", ch+1)
}

// FormatClock formats d as m:ss.
func FormatClock(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Truncate shortens s to at most width runes, marking the cut with "...".
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
