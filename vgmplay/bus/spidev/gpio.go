package spidev

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/valerio/go-vgmplay/vgmplay/bus"
)

// Line is a sysfs GPIO configured as an output.
type Line struct {
	pin   int
	value *os.File
}

var _ bus.Line = (*Line)(nil)

// OpenLine exports pin under root if needed and configures it as an output.
func OpenLine(root string, pin int) (*Line, error) {
	dir := filepath.Join(root, "gpio"+strconv.Itoa(pin))

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(filepath.Join(root, "export"), []byte(strconv.Itoa(pin)), 0); err != nil {
			return nil, fmt.Errorf("failed to export gpio %d: %w", pin, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "direction"), []byte("out"), 0); err != nil {
		return nil, fmt.Errorf("failed to set gpio %d direction: %w", pin, err)
	}

	f, err := os.OpenFile(filepath.Join(dir, "value"), os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open gpio %d: %w", pin, err)
	}
	return &Line{pin: pin, value: f}, nil
}

func (l *Line) Set(level bus.Level) error {
	v := []byte("0")
	if level == bus.High {
		v = []byte("1")
	}
	if _, err := l.value.WriteAt(v, 0); err != nil {
		return fmt.Errorf("gpio %d: %w", l.pin, err)
	}
	return nil
}

func (l *Line) Close() error {
	return l.value.Close()
}
