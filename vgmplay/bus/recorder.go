package bus

import (
	"fmt"
	"sync"
)

type EventKind int

const (
	EventTransfer EventKind = iota
	EventLatch
	EventWriteEnable
)

func (k EventKind) String() string {
	switch k {
	case EventTransfer:
		return "transfer"
	case EventLatch:
		return "latch"
	case EventWriteEnable:
		return "we"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is a single bus transaction observed by a Recorder.
type Event struct {
	Kind  EventKind
	Level Level // for line events
	Value byte  // for transfers
}

func (e Event) String() string {
	if e.Kind == EventTransfer {
		return fmt.Sprintf("transfer 0x%02X", e.Value)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Level)
}

// Recorder logs every transfer and line transition and forwards them to an
// internal Board, so both the raw protocol and the resulting PSG writes can
// be inspected.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	writes []byte
	board  *Board
}

func NewRecorder(opts ...BoardOption) *Recorder {
	r := &Recorder{}
	r.board = NewBoard(DeviceFunc(r.recordWrite), opts...)
	return r
}

// Bus returns hardware handles that record into r.
func (r *Recorder) Bus() *Bus {
	inner := r.board.Bus()
	return &Bus{
		Transport: TransportFunc(func(v byte) error {
			r.record(Event{Kind: EventTransfer, Value: v})
			return inner.Transport.Transfer(v)
		}),
		Latch: LineFunc(func(l Level) error {
			r.record(Event{Kind: EventLatch, Level: l})
			return inner.Latch.Set(l)
		}),
		WriteEnable: LineFunc(func(l Level) error {
			r.record(Event{Kind: EventWriteEnable, Level: l})
			return inner.WriteEnable.Set(l)
		}),
		LatchActive: inner.LatchActive,
	}
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) recordWrite(v byte) {
	r.mu.Lock()
	r.writes = append(r.writes, v)
	r.mu.Unlock()
}

// Events returns a copy of all recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Writes returns the bytes the PSG accepted, in order.
func (r *Recorder) Writes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.writes...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.writes = nil
	r.mu.Unlock()
}

// DeviceFunc adapts a function to the Device interface.
type DeviceFunc func(value byte)

func (f DeviceFunc) Write(value byte) {
	f(value)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(value byte) error

func (f TransportFunc) Transfer(value byte) error {
	return f(value)
}
