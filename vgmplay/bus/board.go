package bus

import "sync"

// Board emulates the external circuit: a 74HC595 shift register whose
// parallel outputs drive the data bus of an SN76489.
//
// Bytes shifted in by Transfer are copied to the storage register when the
// latch line returns from active to idle. The attached Device receives the
// storage register when write-enable goes from high to low.
type Board struct {
	mu          sync.Mutex
	device      Device
	latchActive Level

	shift   byte
	storage byte
	latch   Level
	we      Level
	writes  uint64
}

type BoardOption func(*Board)

// WithLatchActive sets the level that selects the shift register (default High).
func WithLatchActive(level Level) BoardOption {
	return func(b *Board) { b.latchActive = level }
}

// NewBoard creates a board feeding device, which may be nil.
func NewBoard(device Device, opts ...BoardOption) *Board {
	b := &Board{
		device:      device,
		latchActive: High,
		we:          High,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.latch = b.latchActive.Invert()
	return b
}

// Bus returns hardware handles wired to this board.
func (b *Board) Bus() *Bus {
	return &Bus{
		Transport:   b,
		Latch:       LineFunc(b.setLatch),
		WriteEnable: LineFunc(b.setWriteEnable),
		LatchActive: b.latchActive,
	}
}

func (b *Board) Transfer(value byte) error {
	b.mu.Lock()
	b.shift = value
	b.mu.Unlock()
	return nil
}

func (b *Board) setLatch(level Level) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.latch == b.latchActive && level != b.latchActive {
		b.storage = b.shift
	}
	b.latch = level
	return nil
}

func (b *Board) setWriteEnable(level Level) error {
	b.mu.Lock()
	falling := b.we == High && level == Low
	b.we = level
	value := b.storage
	if falling {
		b.writes++
	}
	b.mu.Unlock()

	if falling && b.device != nil {
		b.device.Write(value)
	}
	return nil
}

// Output returns the byte currently on the shift register's parallel outputs.
func (b *Board) Output() byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.storage
}

// Writes returns the number of write-enable pulses seen so far.
func (b *Board) Writes() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}
