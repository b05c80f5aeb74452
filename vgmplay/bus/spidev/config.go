// Package spidev drives the PSG board from a Linux host: the shift register
// hangs off a spidev device and the latch and write-enable lines are sysfs GPIOs.
package spidev

import (
	"errors"
	"fmt"
	"io"

	"github.com/valerio/go-vgmplay/vgmplay/bus"
)

const (
	DefaultDevice   = "/dev/spidev0.0"
	DefaultSpeedHz  = 1000000
	DefaultMode     = 3
	DefaultBits     = 8
	DefaultGPIORoot = "/sys/class/gpio"
)

// Config describes how the board is wired to the host.
type Config struct {
	Device      string
	SpeedHz     uint32
	Mode        uint8
	BitsPerWord uint8

	LatchGPIO       int
	WriteEnableGPIO int
	LatchActive     bus.Level

	// GPIORoot is the sysfs GPIO directory.
	GPIORoot string
}

func DefaultConfig() Config {
	return Config{
		Device:          DefaultDevice,
		SpeedHz:         DefaultSpeedHz,
		Mode:            DefaultMode,
		BitsPerWord:     DefaultBits,
		LatchGPIO:       8,
		WriteEnableGPIO: 25,
		LatchActive:     bus.High,
		GPIORoot:        DefaultGPIORoot,
	}
}

// OpenBus opens the SPI port and both GPIO lines. Closing the returned
// closer releases all of them.
func OpenBus(cfg Config) (*bus.Bus, io.Closer, error) {
	if cfg.GPIORoot == "" {
		cfg.GPIORoot = DefaultGPIORoot
	}

	port, err := Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	latch, err := OpenLine(cfg.GPIORoot, cfg.LatchGPIO)
	if err != nil {
		port.Close()
		return nil, nil, fmt.Errorf("latch line: %w", err)
	}
	we, err := OpenLine(cfg.GPIORoot, cfg.WriteEnableGPIO)
	if err != nil {
		port.Close()
		latch.Close()
		return nil, nil, fmt.Errorf("write-enable line: %w", err)
	}

	b := &bus.Bus{
		Transport:   port,
		Latch:       latch,
		WriteEnable: we,
		LatchActive: cfg.LatchActive,
	}
	return b, closers{port, latch, we}, nil
}

type closers []io.Closer

func (c closers) Close() error {
	var errs []error
	for _, cl := range c {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
