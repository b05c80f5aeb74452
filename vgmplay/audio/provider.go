package audio

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/valerio/go-vgmplay/vgmplay/chip"
)

// ErrUnavailable is returned when the binary was built without audio output.
var ErrUnavailable = errors.New("audio: output not available in this build")

// Provider is a source of mono samples with per-channel debug controls.
type Provider interface {
	// ReadSamples fills dst with samples in [-1, 1] and returns how many were written.
	ReadSamples(dst []float32) int

	// Audio debugging controls, channels are 1-based.

	ToggleChannel(channel int)
	SoloChannel(channel int)
	UnmuteAll()
	ChannelStatus() (ch1, ch2, ch3, ch4 bool)
}

var _ Provider = (*chip.SN76489)(nil)

// pcmReader renders a Provider as little-endian float32 PCM.
type pcmReader struct {
	provider Provider
	buf      []float32
}

func (r *pcmReader) Read(p []byte) (int, error) {
	n := len(p) / 4
	if cap(r.buf) < n {
		r.buf = make([]float32, n)
	}
	samples := r.buf[:n]

	got := r.provider.ReadSamples(samples)
	for i := got; i < n; i++ {
		samples[i] = 0
	}
	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return n * 4, nil
}
