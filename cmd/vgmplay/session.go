package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/valerio/go-vgmplay/vgmplay/audio"
	"github.com/valerio/go-vgmplay/vgmplay/backend"
	"github.com/valerio/go-vgmplay/vgmplay/backend/headless"
	"github.com/valerio/go-vgmplay/vgmplay/backend/terminal"
	"github.com/valerio/go-vgmplay/vgmplay/bus"
	"github.com/valerio/go-vgmplay/vgmplay/bus/spidev"
	"github.com/valerio/go-vgmplay/vgmplay/chip"
	"github.com/valerio/go-vgmplay/vgmplay/player"
	"github.com/valerio/go-vgmplay/vgmplay/psg"
	"github.com/valerio/go-vgmplay/vgmplay/timing"
	"github.com/valerio/go-vgmplay/vgmplay/vgm"
)

const (
	uiInterval = 50 * time.Millisecond
	// headless progress every 5 seconds
	headlessLogEvery = int(5 * time.Second / uiInterval)
)

func runPlayer(c *cli.Context) error {
	opts, err := optionsFromContext(c, term.IsTerminal(int(os.Stdout.Fd())))
	if err != nil {
		cli.ShowAppHelp(c)
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: opts.logLevel})))

	file, err := vgm.Load(opts.path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := chip.New(chipOptions(file.Header, opts.psgClock)...)
	feedback, width := model.NoiseShiftRegister()
	slog.Debug("Configured chip model", "clock", psgClock(file.Header, opts.psgClock), "noise_feedback", fmt.Sprintf("0x%04X", feedback), "noise_width", width)

	ui := newBackend(opts.ui)
	cfg := backend.Config{
		Title:     opts.path,
		Tags:      file.Tags,
		Stream:    file.Commands,
		Mixer:     model,
		ShowDebug: opts.debug,
		Callbacks: backend.Callbacks{OnQuit: cancel},
	}
	if file.Header != nil {
		cfg.Duration = file.Header.Duration()
	}
	if err := ui.Init(cfg); err != nil {
		return err
	}

	completed, err := play(ctx, opts, file, model, ui)
	if cleanupErr := ui.Cleanup(); cleanupErr != nil {
		slog.Warn("Failed to clean up frontend", "error", cleanupErr)
	}

	switch {
	case errors.Is(err, context.Canceled):
		slog.Info("Playback interrupted")
		return nil
	case err != nil:
		return err
	}
	if completed {
		fmt.Println("** DONE ** :)")
	}
	return nil
}

func newBackend(kind uiKind) backend.Backend {
	if kind == uiTerminal {
		return terminal.New()
	}
	return headless.New(headlessLogEvery)
}

// play runs the driver on its own goroutine and feeds the frontend until it returns.
func play(ctx context.Context, opts options, file *vgm.File, model *chip.SN76489, ui backend.Backend) (bool, error) {
	logger := slog.Default()

	b, writerOpts, closer, err := openBus(opts, model)
	if err != nil {
		return false, err
	}
	defer closer.Close()

	if opts.output == outputEmulated && !opts.fast {
		out, err := audio.NewOutput(model, timing.SampleRate)
		if err != nil {
			logger.Warn("Audio output unavailable, playing silently", "error", err)
		} else {
			out.Start()
			defer out.Close()
		}
	}

	var delay timing.Delayer = timing.NewSleeper(timing.WithLogger(logger))
	if opts.fast {
		delay = timing.NewNoOp()
	}

	writer := psg.NewWriter(b, delay, append(writerOpts, psg.WithLogger(logger))...)
	interp := player.New(file.Commands, writer, delay,
		append(opts.player.InterpreterOptions(), player.WithLogger(logger))...)

	completed := false
	driver := player.NewDriver(writer, interp, delay,
		player.WithSettle(opts.player.Settle),
		player.WithCompletion(func() { completed = true }),
		player.WithDriverLogger(logger))

	errc := make(chan error, 1)
	go func() { errc <- driver.Play(ctx) }()

	ticker := time.NewTicker(uiInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-errc:
			if uiErr := ui.Update(backend.NewStatus(interp.Status(), model)); uiErr != nil {
				logger.Warn("Frontend update failed", "error", uiErr)
			}
			return completed, err
		case <-ticker.C:
			if err := ui.Update(backend.NewStatus(interp.Status(), model)); err != nil {
				logger.Warn("Frontend update failed", "error", err)
			}
		}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openBus builds the hardware handles for the selected output. The chip
// model always sees every write so the frontend can show channel state.
func openBus(opts options, model *chip.SN76489) (*bus.Bus, []psg.Option, io.Closer, error) {
	boardOpts := []bus.BoardOption{bus.WithLatchActive(opts.spi.LatchActive)}

	switch opts.output {
	case outputSPI:
		b, closer, err := spidev.OpenBus(opts.spi)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open PSG board: %w", err)
		}
		slog.Info("Driving PSG over SPI",
			"device", opts.spi.Device,
			"speed_hz", opts.spi.SpeedHz,
			"latch_gpio", opts.spi.LatchGPIO,
			"we_gpio", opts.spi.WriteEnableGPIO)
		return b, []psg.Option{psg.WithMonitor(model)}, closer, nil

	case outputLog:
		sink := bus.NewLogSink(bus.WithLevel(slog.LevelInfo))
		return bus.NewBoard(bus.Tee{sink, model}, boardOpts...).Bus(), nil, nopCloser{}, nil

	default:
		return bus.NewBoard(model, boardOpts...).Bus(), nil, nopCloser{}, nil
	}
}
