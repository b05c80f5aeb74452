package bus

// Level is the logic level of a digital line.
type Level uint8

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// Invert returns the opposite level.
func (l Level) Invert() Level {
	if l == High {
		return Low
	}
	return High
}

// Line is a single digital output, such as a chip-select or write-enable pin.
type Line interface {
	Set(level Level) error
}

// Transport shifts one byte out over the serial bus.
type Transport interface {
	Transfer(value byte) error
}

// Device receives bytes presented on the PSG data bus.
type Device interface {
	Write(value byte)
}

// LineFunc adapts a function to the Line interface.
type LineFunc func(level Level) error

func (f LineFunc) Set(level Level) error {
	return f(level)
}

// NopLine is a Line that ignores every transition.
var NopLine Line = LineFunc(func(Level) error { return nil })

// Bus groups the hardware handles needed to write to the PSG: the serial
// transport feeding the 74HC595, its latch (chip-select) line and the PSG's
// active-low write-enable line.
type Bus struct {
	Transport   Transport
	Latch       Line
	WriteEnable Line

	// LatchActive is the level that selects the shift register. The line
	// idles at the opposite level.
	LatchActive Level
}

// LatchIdle returns the idle level of the latch line.
func (b *Bus) LatchIdle() Level {
	return b.LatchActive.Invert()
}

// Tee fans a write out to several devices in order.
type Tee []Device

func (t Tee) Write(value byte) {
	for _, d := range t {
		d.Write(value)
	}
}
