package chip

import (
	"fmt"

	"github.com/valerio/go-vgmplay/vgmplay/bit"
)

// Register identifies what a latch byte addresses.
type Register uint8

const (
	RegisterTone Register = iota // tone divider, or noise control on channel 3
	RegisterAttenuation
)

func (r Register) String() string {
	if r == RegisterAttenuation {
		return "attenuation"
	}
	return "tone"
}

// Command is a decoded write to the SN76489 data port.
//
//	latch byte: 1 CC T DDDD  (channel, type, low data)
//	data byte:  0 X DDDDDD   (high bits for the latched tone register)
type Command struct {
	Latch    bool
	Channel  uint8    // only meaningful for latch bytes
	Register Register // only meaningful for latch bytes
	Data     uint8
}

// DecodeCommand splits a data-port byte into its fields.
func DecodeCommand(value byte) Command {
	if !bit.IsSet(7, value) {
		return Command{Data: bit.ExtractBits(value, 5, 0)}
	}
	return Command{
		Latch:    true,
		Channel:  bit.ExtractBits(value, 6, 5),
		Register: Register(bit.ExtractBits(value, 4, 4)),
		Data:     bit.LowNibble(value),
	}
}

func (c Command) String() string {
	if !c.Latch {
		return fmt.Sprintf("data 0x%02X", c.Data)
	}
	return fmt.Sprintf("latch ch%d %s 0x%X", c.Channel, c.Register, c.Data)
}

// MuteCommand returns the latch byte that sets channel ch to full attenuation.
func MuteCommand(ch int) byte {
	if ch < 0 || ch >= Channels {
		panic("chip: invalid channel")
	}
	return 0x80 | byte(ch)<<5 | 0x10 | MaxAttenuation
}
