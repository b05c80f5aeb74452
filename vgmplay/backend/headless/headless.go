package headless

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-vgmplay/vgmplay/backend"
	"github.com/valerio/go-vgmplay/vgmplay/player"
)

// Backend logs playback progress instead of drawing anything. It is used
// when stdout is not a terminal and in tests.
type Backend struct {
	config   backend.Config
	updates  int
	interval int
	done     bool
	logger   *slog.Logger
}

// New creates a backend that logs progress every interval updates.
func New(interval int) *Backend {
	if interval <= 0 {
		interval = 1
	}
	return &Backend{
		interval: interval,
		logger:   slog.Default(),
	}
}

func (h *Backend) Init(config backend.Config) error {
	h.config = config
	h.logger = slog.Default()

	attrs := []any{"title", config.Title}
	if config.Tags != nil {
		attrs = append(attrs, "track", config.Tags.Title(), "author", config.Tags.Author())
	}
	if config.Duration > 0 {
		attrs = append(attrs, "duration", config.Duration)
	}
	h.logger.Info("Running headless mode", attrs...)
	return nil
}

// Update logs progress periodically and once more when playback stops.
func (h *Backend) Update(status backend.Status) error {
	h.updates++

	st := status.Player
	if st.State == player.Stopped && st.Passes > 0 {
		if !h.done {
			h.done = true
			h.logger.Info("Playback completed",
				"opcodes", st.Opcodes,
				"writes", st.Writes,
				"elapsed", status.Elapsed())
		}
		return nil
	}

	if h.updates%h.interval == 0 {
		h.logger.Info("Playback progress",
			"cursor", fmt.Sprintf("0x%04X", st.Cursor),
			"percent", fmt.Sprintf("%.1f", status.Progress()*100),
			"writes", st.Writes,
			"elapsed", status.Elapsed())
	}
	return nil
}

func (h *Backend) Cleanup() error {
	return nil
}
