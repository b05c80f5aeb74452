package bus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/valerio/go-vgmplay/vgmplay/chip"
)

// LogSink is a Device that logs every PSG write, decoded into its latch/data
// fields. Handy for running a stream without hardware.
type LogSink struct {
	logger *slog.Logger
	level  slog.Level
	count  uint64

	// latched channel for data bytes, so they can be attributed
	channel  uint8
	register chip.Register
}

type LogSinkOption func(*LogSink)

// WithLogger routes output to logger instead of slog.Default().
func WithLogger(logger *slog.Logger) LogSinkOption {
	return func(s *LogSink) { s.logger = logger }
}

// WithLevel sets the level writes are logged at (default Debug).
func WithLevel(level slog.Level) LogSinkOption {
	return func(s *LogSink) { s.level = level }
}

func NewLogSink(opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		logger: slog.Default(),
		level:  slog.LevelDebug,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LogSink) Write(value byte) {
	s.count++
	cmd := chip.DecodeCommand(value)
	if cmd.Latch {
		s.channel = cmd.Channel
		s.register = cmd.Register
	}

	s.logger.Log(context.Background(), s.level, "PSG write",
		"n", s.count,
		"value", fmt.Sprintf("0x%02X", value),
		"kind", kind(cmd),
		"channel", s.channel,
		"register", s.register.String(),
		"data", fmt.Sprintf("0x%02X", cmd.Data))
}

// Count returns the number of writes logged so far.
func (s *LogSink) Count() uint64 {
	return s.count
}

func kind(cmd chip.Command) string {
	if cmd.Latch {
		return "latch"
	}
	return "data"
}
