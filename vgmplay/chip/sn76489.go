package chip

import (
	"sync"
)

const (
	// Channels is the number of voices: three tone generators and one noise generator.
	Channels = 4
	// NoiseChannel is the index of the noise generator.
	NoiseChannel = 3
	// MaxAttenuation silences a channel.
	MaxAttenuation = 0x0F

	// DefaultClock matches the 4 MHz oscillator module driving the chip.
	DefaultClock = 4000000
	// NTSCClock is the clock found in most Sega and BBC Micro VGM rips.
	NTSCClock = 3579545

	// Sega variant: 16-bit shift register, white noise taps bits 0 and 3.
	DefaultNoiseFeedback = 0x0009
	DefaultNoiseWidth    = 16

	// BBC Micro and TI variant.
	BBCNoiseFeedback = 0x0003
	BBCNoiseWidth    = 15
)

// volumeTable converts a 4-bit attenuation to linear amplitude, 2 dB per step.
var volumeTable = [16]float32{
	1.0, 0.794, 0.631, 0.501, 0.398, 0.316, 0.251, 0.200,
	0.158, 0.126, 0.100, 0.079, 0.063, 0.050, 0.040, 0.0,
}

// NoiseMode is the feedback type of the noise generator.
type NoiseMode uint8

const (
	NoisePeriodic NoiseMode = iota
	NoiseWhite
)

func (m NoiseMode) String() string {
	if m == NoiseWhite {
		return "white"
	}
	return "periodic"
}

// Channel is a read-only view of one voice.
type Channel struct {
	Divider     uint16  // 10-bit tone divider (tone channels)
	Frequency   float64 // output frequency in Hz, 0 when the divider is 0
	Attenuation uint8   // 0 = loudest, 15 = off
	NoiseMode   NoiseMode
	NoiseRate   uint8 // 0-2 fixed clock dividers, 3 = follow channel 2
	Muted       bool  // local mute, the chip is unaffected
}

// Audible reports whether the channel produces sound.
func (c Channel) Audible() bool {
	return c.Attenuation < MaxAttenuation && !c.Muted
}

// SN76489 models the programmable sound generator: its register file, the
// latch/data write protocol and enough of the tone and noise generators to
// render audio.
// Reference: https://www.smspower.org/Development/SN76489
type SN76489 struct {
	mu sync.Mutex

	clock      int
	sampleRate int

	tone        [3]uint16
	attenuation [Channels]uint8
	noise       uint8 // NF1 NF0 FB

	latchedChannel  uint8
	latchedRegister Register

	// generator state
	counter     [Channels]uint16
	output      [Channels]bool
	lfsr        uint16
	lfsrTaps    uint16
	lfsrWidth   uint8
	clockAcc    float64
	clocksPerSm float64

	muted  [Channels]bool
	writes uint64
}

type Option func(*SN76489)

// WithClock sets the input clock in Hz.
func WithClock(hz int) Option {
	return func(s *SN76489) {
		if hz > 0 {
			s.clock = hz
		}
	}
}

// WithSampleRate sets the output sample rate used by Sample and ReadSamples.
func WithSampleRate(hz int) Option {
	return func(s *SN76489) {
		if hz > 0 {
			s.sampleRate = hz
		}
	}
}

// WithNoise sets the white noise feedback taps and the shift register width,
// as found in the VGM header. Zero values keep the defaults.
func WithNoise(feedback uint16, width uint8) Option {
	return func(s *SN76489) {
		if feedback != 0 {
			s.lfsrTaps = feedback
		}
		if width >= 2 && width <= 16 {
			s.lfsrWidth = width
		}
	}
}

func New(opts ...Option) *SN76489 {
	s := &SN76489{
		clock:      DefaultClock,
		sampleRate: 44100,
		lfsrTaps:   DefaultNoiseFeedback,
		lfsrWidth:  DefaultNoiseWidth,
	}
	for _, opt := range opts {
		opt(s)
	}
	// The tone and noise counters tick once every 16 input clocks.
	s.clocksPerSm = float64(s.clock) / 16 / float64(s.sampleRate)
	s.Reset()
	return s
}

// NoiseShiftRegister returns the white noise feedback taps and the register width.
func (s *SN76489) NoiseShiftRegister() (feedback uint16, width uint8) {
	return s.lfsrTaps, s.lfsrWidth
}

// Reset restores power-on state with every channel silent.
// Local mute settings are kept.
func (s *SN76489) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tone = [3]uint16{}
	s.counter = [Channels]uint16{}
	s.output = [Channels]bool{}
	s.noise = 0
	s.latchedChannel = 0
	s.latchedRegister = RegisterTone
	s.lfsr = s.lfsrSeed()
	s.clockAcc = 0
	s.writes = 0
	for i := range s.attenuation {
		s.attenuation[i] = MaxAttenuation
	}
}

// Write handles a byte presented on the data port.
func (s *SN76489) Write(value byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++
	cmd := DecodeCommand(value)

	if cmd.Latch {
		s.latchedChannel = cmd.Channel
		s.latchedRegister = cmd.Register

		switch {
		case cmd.Register == RegisterAttenuation:
			s.attenuation[cmd.Channel] = cmd.Data
		case cmd.Channel == NoiseChannel:
			s.noise = cmd.Data & 0x07
			s.lfsr = s.lfsrSeed()
		default:
			s.tone[cmd.Channel] = s.tone[cmd.Channel]&0x3F0 | uint16(cmd.Data)
		}
		return
	}

	switch {
	case s.latchedRegister == RegisterAttenuation:
		s.attenuation[s.latchedChannel] = cmd.Data & 0x0F
	case s.latchedChannel == NoiseChannel:
		// data bytes do not reach the noise register
	default:
		s.tone[s.latchedChannel] = s.tone[s.latchedChannel]&0x00F | uint16(cmd.Data)<<4
	}
}

// Writes returns the number of bytes written since the last reset.
func (s *SN76489) Writes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Snapshot returns the state of every channel.
func (s *SN76489) Snapshot() [Channels]Channel {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out [Channels]Channel
	for i := range out {
		out[i].Attenuation = s.attenuation[i]
		out[i].Muted = s.muted[i]
	}
	for i, div := range s.tone {
		out[i].Divider = div
		out[i].Frequency = s.toneFrequency(div)
	}
	out[NoiseChannel].NoiseRate = s.noise & 0x03
	if s.noise&0x04 != 0 {
		out[NoiseChannel].NoiseMode = NoiseWhite
	}
	out[NoiseChannel].Frequency = s.noiseFrequency()
	return out
}

func (s *SN76489) toneFrequency(div uint16) float64 {
	if div == 0 {
		return 0
	}
	return float64(s.clock) / (32 * float64(div))
}

func (s *SN76489) noiseFrequency() float64 {
	rate := s.noise & 0x03
	if rate == 3 {
		return s.toneFrequency(s.tone[2])
	}
	return float64(s.clock) / float64(uint(512)<<rate)
}
