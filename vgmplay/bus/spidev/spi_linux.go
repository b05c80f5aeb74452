//go:build linux

package spidev

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/valerio/go-vgmplay/vgmplay/bus"
)

// spidev ioctl requests, _IOW('k', nr, size).
const (
	spiIOCMagic = 'k'

	spiIOCWrMode        = 1<<30 | 1<<16 | spiIOCMagic<<8 | 1
	spiIOCWrBitsPerWord = 1<<30 | 1<<16 | spiIOCMagic<<8 | 3
	spiIOCWrMaxSpeedHz  = 1<<30 | 4<<16 | spiIOCMagic<<8 | 4
)

// Port is an open spidev device used as a write-only byte transport.
type Port struct {
	fd   int
	path string
	buf  [1]byte
}

var _ bus.Transport = (*Port)(nil)

// Open opens and configures the SPI device named in cfg.
func Open(cfg Config) (*Port, error) {
	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Device, err)
	}
	p := &Port{fd: fd, path: cfg.Device}

	mode := cfg.Mode
	bits := cfg.BitsPerWord
	speed := cfg.SpeedHz
	settings := []struct {
		name string
		req  uintptr
		arg  unsafe.Pointer
	}{
		{"mode", spiIOCWrMode, unsafe.Pointer(&mode)},
		{"bits per word", spiIOCWrBitsPerWord, unsafe.Pointer(&bits)},
		{"max speed", spiIOCWrMaxSpeedHz, unsafe.Pointer(&speed)},
	}
	for _, s := range settings {
		if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), s.req, uintptr(s.arg)); errno != 0 {
			unix.Close(fd)
			return nil, fmt.Errorf("failed to set SPI %s on %s: %w", s.name, cfg.Device, errno)
		}
	}
	return p, nil
}

func (p *Port) Transfer(value byte) error {
	p.buf[0] = value
	n, err := unix.Write(p.fd, p.buf[:])
	if err != nil {
		return fmt.Errorf("%s: %w", p.path, err)
	}
	if n != 1 {
		return fmt.Errorf("%s: short write", p.path)
	}
	return nil
}

func (p *Port) Close() error {
	return unix.Close(p.fd)
}
