package backend

import (
	"time"

	"github.com/valerio/go-vgmplay/vgmplay/audio"
	"github.com/valerio/go-vgmplay/vgmplay/chip"
	"github.com/valerio/go-vgmplay/vgmplay/player"
	"github.com/valerio/go-vgmplay/vgmplay/timing"
	"github.com/valerio/go-vgmplay/vgmplay/vgm"
)

// Backend is a frontend that follows playback. Backends are responsible for:
// - Presenting the player status (progress, channel state, disassembly)
// - Translating user input into mixer controls and quit requests
//
// Update is called periodically from the UI goroutine, never from the
// playback goroutine.
type Backend interface {
	// Init configures the backend. It must be called before Update.
	Init(config Config) error

	// Update processes pending input and presents status.
	Update(status Status) error

	// Cleanup releases resources when shutting down.
	Cleanup() error
}

// Config holds configuration for backends.
type Config struct {
	Title    string
	Tags     *vgm.GD3       // nil for raw streams
	Duration time.Duration  // from the file header, 0 when unknown
	Stream   *vgm.Stream    // for disassembly
	Mixer    audio.Provider // channel mute/solo controls, may be nil
	// ShowDebug enables the disassembly pane. Backends may ignore it.
	ShowDebug bool
	Callbacks Callbacks
}

// Callbacks allows backends to communicate with the player.
type Callbacks struct {
	OnQuit func() // user requested shutdown
}

// Status is what a backend presents on each update.
type Status struct {
	Player   player.Status
	Channels [chip.Channels]chip.Channel
}

// NewStatus combines interpreter status with the chip model's channel
// state. model may be nil when nothing mirrors the writes.
func NewStatus(p player.Status, model *chip.SN76489) Status {
	st := Status{Player: p}
	if model != nil {
		st.Channels = model.Snapshot()
	}
	return st
}

// Elapsed returns the stream time played so far.
func (s Status) Elapsed() time.Duration {
	return timing.ExactSamples(int(s.Player.SamplesWaited))
}

// Progress returns the cursor position as a fraction of the stream length.
func (s Status) Progress() float64 {
	if s.Player.Len == 0 {
		return 0
	}
	if s.Player.State == player.Stopped && s.Player.Passes > 0 {
		return 1
	}
	return float64(s.Player.Cursor) / float64(s.Player.Len)
}
