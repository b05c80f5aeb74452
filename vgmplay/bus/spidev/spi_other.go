//go:build !linux

package spidev

import (
	"errors"

	"github.com/valerio/go-vgmplay/vgmplay/bus"
)

var ErrUnsupported = errors.New("spidev: only available on linux")

// Port is unavailable outside linux.
type Port struct{}

var _ bus.Transport = (*Port)(nil)

func Open(Config) (*Port, error) {
	return nil, ErrUnsupported
}

func (p *Port) Transfer(byte) error { return ErrUnsupported }

func (p *Port) Close() error { return nil }
