package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli"

	"github.com/valerio/go-vgmplay/vgmplay/bus"
	"github.com/valerio/go-vgmplay/vgmplay/bus/spidev"
	"github.com/valerio/go-vgmplay/vgmplay/chip"
	"github.com/valerio/go-vgmplay/vgmplay/player"
	"github.com/valerio/go-vgmplay/vgmplay/vgm"
)

type outputKind string

const (
	outputEmulated outputKind = "emulated"
	outputSPI      outputKind = "spidev"
	outputLog      outputKind = "log"
	outputNone     outputKind = "none"
)

type uiKind string

const (
	uiAuto     uiKind = "auto"
	uiTerminal uiKind = "terminal"
	uiHeadless uiKind = "headless"
)

// options is the parsed command line.
type options struct {
	path     string
	output   outputKind
	ui       uiKind
	debug    bool
	logLevel slog.Level
	psgClock int
	fast     bool
	player   player.Options
	spi      spidev.Config
}

func parseOutput(s string) (outputKind, error) {
	switch k := outputKind(strings.ToLower(s)); k {
	case outputEmulated, outputSPI, outputLog, outputNone:
		return k, nil
	}
	return "", fmt.Errorf("unknown output %q (want emulated, spidev, log or none)", s)
}

// parseUI resolves "auto" to terminal when stdout is a tty.
func parseUI(s string, isTTY bool) (uiKind, error) {
	switch k := uiKind(strings.ToLower(s)); k {
	case uiTerminal, uiHeadless:
		return k, nil
	case uiAuto:
		if isTTY {
			return uiTerminal, nil
		}
		return uiHeadless, nil
	}
	return "", fmt.Errorf("unknown ui %q (want terminal, headless or auto)", s)
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func parseLineLevel(s string) (bus.Level, error) {
	switch strings.ToLower(s) {
	case "high", "1":
		return bus.High, nil
	case "low", "0":
		return bus.Low, nil
	}
	return bus.High, fmt.Errorf("invalid line level %q (want high or low)", s)
}

// psgClock prefers the clock declared in the file header. Bit 31 flags a
// second chip and bit 30 a T6W28, neither of which changes the clock.
func psgClock(h *vgm.Header, fallback int) int {
	if h == nil {
		return fallback
	}
	if clock := int(h.SN76489Clock & 0x3FFFFFFF); clock != 0 {
		return clock
	}
	return fallback
}

// chipOptions configures the emulated chip from the file header: its clock
// and, for v1.10+ files, the noise shift register.
func chipOptions(h *vgm.Header, fallbackClock int) []chip.Option {
	opts := []chip.Option{chip.WithClock(psgClock(h, fallbackClock))}
	if h != nil {
		opts = append(opts, chip.WithNoise(h.SNFeedback, h.SNShiftWidth))
	}
	return opts
}

func optionsFromContext(c *cli.Context, isTTY bool) (options, error) {
	var opts options
	var err error

	opts.path = c.Args().First()
	if opts.path == "" {
		return opts, errors.New("no VGM file provided")
	}
	if opts.output, err = parseOutput(c.String("output")); err != nil {
		return opts, err
	}
	if opts.ui, err = parseUI(c.String("ui"), isTTY); err != nil {
		return opts, err
	}
	if opts.logLevel, err = parseLogLevel(c.String("log-level")); err != nil {
		return opts, err
	}

	opts.debug = c.Bool("debug")
	opts.fast = c.Bool("fast")
	opts.psgClock = c.Int("psg-clock")

	opts.player = player.DefaultOptions()
	if opts.player.UnknownOpcode, err = player.ParsePolicy(c.String("unknown-opcode")); err != nil {
		return opts, err
	}
	opts.player.Settle = c.Duration("settle")
	opts.player.EndPause = c.Duration("end-pause")
	if opts.player.Settle < 0 || opts.player.EndPause < 0 {
		return opts, errors.New("pauses must not be negative")
	}

	opts.spi = spidev.DefaultConfig()
	opts.spi.Device = c.String("spi-device")
	opts.spi.SpeedHz = uint32(c.Int("spi-speed"))
	opts.spi.LatchGPIO = c.Int("latch-gpio")
	opts.spi.WriteEnableGPIO = c.Int("we-gpio")
	if opts.spi.LatchActive, err = parseLineLevel(c.String("latch-active")); err != nil {
		return opts, err
	}
	return opts, nil
}
