package psg

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/valerio/go-vgmplay/vgmplay/bus"
	"github.com/valerio/go-vgmplay/vgmplay/chip"
	"github.com/valerio/go-vgmplay/vgmplay/timing"
)

// SilenceSequence sets all four channels to full attenuation, in order.
var SilenceSequence = [chip.Channels]byte{
	chip.MuteCommand(0),
	chip.MuteCommand(1),
	chip.MuteCommand(2),
	chip.MuteCommand(3),
}

// Writer sends bytes to an SN76489 sitting behind a 74HC595 shift register.
// It is the only component that touches the bus.
type Writer struct {
	bus      *bus.Bus
	delay    timing.Delayer
	hold     time.Duration
	monitors bus.Tee
	logger   *slog.Logger
}

type Option func(*Writer)

// WithMonitor mirrors every completed write to d, e.g. a chip model for display.
func WithMonitor(d bus.Device) Option {
	return func(w *Writer) { w.monitors = append(w.monitors, d) }
}

// WithHold overrides how long write-enable is held low (default one sample).
func WithHold(d time.Duration) Option {
	return func(w *Writer) { w.hold = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) { w.logger = logger }
}

func NewWriter(b *bus.Bus, delay timing.Delayer, opts ...Option) *Writer {
	w := &Writer{
		bus:    b,
		delay:  delay,
		hold:   timing.SampleTime,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Init drives the latch and write-enable lines to their idle levels.
func (w *Writer) Init() error {
	if err := w.bus.Latch.Set(w.bus.LatchIdle()); err != nil {
		return fmt.Errorf("failed to idle latch line: %w", err)
	}
	if err := w.bus.WriteEnable.Set(bus.High); err != nil {
		return fmt.Errorf("failed to idle write-enable line: %w", err)
	}
	return nil
}

// LatchByte shifts b into the shift register and latches it onto the
// register's parallel outputs.
func (w *Writer) LatchByte(b byte) error {
	if err := w.bus.Latch.Set(w.bus.LatchActive); err != nil {
		return fmt.Errorf("failed to select shift register: %w", err)
	}
	if err := w.bus.Transport.Transfer(b); err != nil {
		return fmt.Errorf("failed to transfer 0x%02X: %w", b, err)
	}
	if err := w.bus.Latch.Set(w.bus.LatchIdle()); err != nil {
		return fmt.Errorf("failed to release shift register: %w", err)
	}
	return nil
}

// SendByte performs a complete PSG write: latch b, then pulse the active-low
// write-enable for the hold time so the chip accepts it.
func (w *Writer) SendByte(ctx context.Context, b byte) error {
	if err := w.bus.WriteEnable.Set(bus.High); err != nil {
		return fmt.Errorf("failed to raise write-enable: %w", err)
	}
	if err := w.LatchByte(b); err != nil {
		return err
	}
	if err := w.bus.WriteEnable.Set(bus.Low); err != nil {
		return fmt.Errorf("failed to assert write-enable: %w", err)
	}

	// Write-enable is released even when ctx ends the hold early.
	holdErr := w.holdWriteEnable(ctx)

	if err := w.bus.WriteEnable.Set(bus.High); err != nil {
		return fmt.Errorf("failed to release write-enable: %w", err)
	}
	w.monitors.Write(b)
	return holdErr
}

// holdWriteEnable keeps write-enable low for at least the hold time,
// measured from now when the delayer supports it.
func (w *Writer) holdWriteEnable(ctx context.Context) error {
	if h, ok := w.delay.(timing.Holder); ok {
		return h.Hold(ctx, w.hold)
	}
	return w.delay.Delay(ctx, w.hold)
}

// SilenceAllChannels sets every channel to full attenuation with four
// separate timed writes.
func (w *Writer) SilenceAllChannels(ctx context.Context) error {
	for _, b := range SilenceSequence {
		if err := w.SendByte(ctx, b); err != nil {
			return err
		}
	}
	w.logger.Debug("Silenced all channels")
	return nil
}
