package player

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/valerio/go-vgmplay/vgmplay/timing"
)

// Hardware is the writer as seen by the driver, which also owns line setup.
type Hardware interface {
	Writer
	Init() error
}

// Options collects the user-facing playback settings.
type Options struct {
	UnknownOpcode UnknownOpcodePolicy
	EndPause      time.Duration
	Settle        time.Duration
}

// DefaultOptions returns the stock timings and the fail-fast opcode policy.
func DefaultOptions() Options {
	return Options{
		UnknownOpcode: PolicyFail,
		EndPause:      timing.EndPause,
		Settle:        timing.SettlePause,
	}
}

// InterpreterOptions converts o into interpreter options.
func (o Options) InterpreterOptions() []Option {
	return []Option{
		WithUnknownOpcodePolicy(o.UnknownOpcode),
		WithEndPause(o.EndPause),
	}
}

// Driver runs a complete playback session: line setup, an initial mute and
// settle, one pass through the stream and a final mute.
type Driver struct {
	hw         Hardware
	interp     *Interpreter
	delay      timing.Delayer
	settle     time.Duration
	onComplete func()
	logger     *slog.Logger
}

type DriverOption func(*Driver)

// WithSettle sets the pause between the initial mute and the first command.
func WithSettle(d time.Duration) DriverOption {
	return func(dr *Driver) { dr.settle = d }
}

// WithCompletion registers fn to run once playback finishes successfully.
func WithCompletion(fn func()) DriverOption {
	return func(dr *Driver) { dr.onComplete = fn }
}

func WithDriverLogger(logger *slog.Logger) DriverOption {
	return func(dr *Driver) { dr.logger = logger }
}

func NewDriver(hw Hardware, interp *Interpreter, delay timing.Delayer, opts ...DriverOption) *Driver {
	d := &Driver{
		hw:     hw,
		interp: interp,
		delay:  delay,
		settle: timing.SettlePause,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Interpreter returns the interpreter the driver runs.
func (d *Driver) Interpreter() *Interpreter {
	return d.interp
}

// Play performs the session. The final mute is issued even when playback
// fails or ctx is cancelled; the completion callback only runs on success.
func (d *Driver) Play(ctx context.Context) error {
	if err := d.hw.Init(); err != nil {
		return fmt.Errorf("failed to initialize PSG lines: %w", err)
	}

	err := d.play(ctx)
	if muteErr := d.hw.SilenceAllChannels(context.WithoutCancel(ctx)); muteErr != nil {
		if err == nil {
			err = fmt.Errorf("failed to silence channels after playback: %w", muteErr)
		} else {
			d.logger.Error("Failed to silence channels after playback", "error", muteErr)
		}
	}
	if err != nil {
		return err
	}

	st := d.interp.Status()
	d.logger.Info("Playback finished",
		"opcodes", st.Opcodes,
		"writes", st.Writes,
		"duration", timing.ExactSamples(int(st.SamplesWaited)))
	if d.onComplete != nil {
		d.onComplete()
	}
	return nil
}

func (d *Driver) play(ctx context.Context) error {
	if err := d.hw.SilenceAllChannels(ctx); err != nil {
		return fmt.Errorf("failed to silence channels before playback: %w", err)
	}
	if err := d.delay.Delay(ctx, d.settle); err != nil {
		return err
	}
	d.logger.Info("Playback started", "bytes", d.interp.Status().Len)
	return d.interp.Run(ctx)
}
