package chip

import "math/bits"

// Sample advances the generators by one output sample and returns the mix in [-1, 1].
func (s *SN76489) Sample() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleLocked()
}

// ReadSamples fills dst with consecutive samples and returns len(dst).
func (s *SN76489) ReadSamples(dst []float32) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range dst {
		dst[i] = s.sampleLocked()
	}
	return len(dst)
}

func (s *SN76489) sampleLocked() float32 {
	s.clockAcc += s.clocksPerSm
	for s.clockAcc >= 1 {
		s.clockAcc--
		s.tick()
	}

	var mixed float32
	for ch := 0; ch < Channels; ch++ {
		if s.muted[ch] {
			continue
		}
		amp := volumeTable[s.attenuation[ch]]
		if s.output[ch] {
			mixed += amp
		} else {
			mixed -= amp
		}
	}
	return mixed / Channels
}

// tick advances every generator by one internal clock (input clock / 16).
func (s *SN76489) tick() {
	for ch, div := range s.tone {
		if div <= 1 {
			// dividers 0 and 1 hold the output high
			s.output[ch] = true
			continue
		}
		if s.counter[ch] > 0 {
			s.counter[ch]--
		}
		if s.counter[ch] == 0 {
			s.counter[ch] = div
			s.output[ch] = !s.output[ch]
		}
	}

	if s.counter[NoiseChannel] > 0 {
		s.counter[NoiseChannel]--
	}
	if s.counter[NoiseChannel] == 0 {
		s.counter[NoiseChannel] = s.noiseReload()
		s.shiftNoise()
	}
}

func (s *SN76489) noiseReload() uint16 {
	rate := s.noise & 0x03
	if rate == 3 {
		if s.tone[2] == 0 {
			return 1
		}
		return s.tone[2]
	}
	return 0x10 << rate
}

func (s *SN76489) shiftNoise() {
	s.output[NoiseChannel] = s.lfsr&1 != 0

	var feedback uint16
	if s.noise&0x04 != 0 {
		feedback = uint16(bits.OnesCount16(s.lfsr&s.lfsrTaps) & 1)
	} else {
		feedback = s.lfsr & 1
	}
	s.lfsr = s.lfsr>>1 | feedback<<(s.lfsrWidth-1)
}

// lfsrSeed is the shift register value after a noise register write.
func (s *SN76489) lfsrSeed() uint16 {
	return 1 << (s.lfsrWidth - 1)
}

// MuteChannel sets the local mute of a channel (1-4).
func (s *SN76489) MuteChannel(channel int, muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if channel >= 1 && channel <= Channels {
		s.muted[channel-1] = muted
	}
}

// ToggleChannel toggles the local mute of a channel (1-4).
func (s *SN76489) ToggleChannel(channel int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if channel >= 1 && channel <= Channels {
		s.muted[channel-1] = !s.muted[channel-1]
	}
}

// SoloChannel mutes all channels except the specified one (1-4).
func (s *SN76489) SoloChannel(channel int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.muted {
		s.muted[i] = i != channel-1
	}
}

// UnmuteAll clears every local mute.
func (s *SN76489) UnmuteAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = [Channels]bool{}
}

// ChannelStatus reports which channels are unmuted.
func (s *SN76489) ChannelStatus() (ch1, ch2, ch3, ch4 bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.muted[0], !s.muted[1], !s.muted[2], !s.muted[3]
}
