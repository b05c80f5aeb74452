package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/valerio/go-vgmplay/vgmplay/bus/spidev"
	"github.com/valerio/go-vgmplay/vgmplay/chip"
	"github.com/valerio/go-vgmplay/vgmplay/timing"
)

func main() {
	app := newApp()
	app.Action = runPlayer

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running player", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "vgmplay"
	app.Description = "Plays SN76489 VGM streams on real hardware or an emulated chip"
	app.Usage = "vgmplay [options] <VGM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "output",
			Value:  string(outputEmulated),
			Usage:  "Where PSG writes go: emulated, spidev, log or none",
			EnvVar: "VGMPLAY_OUTPUT",
		},
		cli.StringFlag{
			Name:   "ui",
			Value:  string(uiAuto),
			Usage:  "Frontend: terminal, headless or auto (terminal when stdout is a tty)",
			EnvVar: "VGMPLAY_UI",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Show the command disassembly pane in the terminal UI",
		},
		cli.StringFlag{
			Name:   "unknown-opcode",
			Value:  "fail",
			Usage:  "What to do with unhandled opcodes: fail or skip",
			EnvVar: "VGMPLAY_UNKNOWN_OPCODE",
		},
		cli.DurationFlag{
			Name:  "settle",
			Value: timing.SettlePause,
			Usage: "Pause between the initial mute and the first command",
		},
		cli.DurationFlag{
			Name:  "end-pause",
			Value: timing.EndPause,
			Usage: "Pause after the end-of-stream mute",
		},
		cli.IntFlag{
			Name:  "psg-clock",
			Value: chip.DefaultClock,
			Usage: "PSG clock in Hz for the emulated chip, when the file does not declare one",
		},
		cli.BoolFlag{
			Name:  "fast",
			Usage: "Skip all waits (dump the stream as fast as possible)",
		},
		cli.StringFlag{
			Name:   "spi-device",
			Value:  spidev.DefaultDevice,
			Usage:  "spidev device node for --output spidev",
			EnvVar: "VGMPLAY_SPI_DEVICE",
		},
		cli.IntFlag{
			Name:   "spi-speed",
			Value:  spidev.DefaultSpeedHz,
			Usage:  "SPI clock in Hz",
			EnvVar: "VGMPLAY_SPI_SPEED",
		},
		cli.IntFlag{
			Name:   "latch-gpio",
			Value:  spidev.DefaultConfig().LatchGPIO,
			Usage:  "GPIO number of the shift register latch (chip select)",
			EnvVar: "VGMPLAY_LATCH_GPIO",
		},
		cli.StringFlag{
			Name:   "latch-active",
			Value:  "high",
			Usage:  "Level that selects the shift register: high or low",
			EnvVar: "VGMPLAY_LATCH_ACTIVE",
		},
		cli.IntFlag{
			Name:   "we-gpio",
			Value:  spidev.DefaultConfig().WriteEnableGPIO,
			Usage:  "GPIO number of the PSG write-enable line",
			EnvVar: "VGMPLAY_WE_GPIO",
		},
		cli.StringFlag{
			Name:   "log-level",
			Value:  "info",
			Usage:  "Log level: debug, info, warn or error",
			EnvVar: "VGMPLAY_LOG_LEVEL",
		},
	}
	return app
}
