package player

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/valerio/go-vgmplay/vgmplay/timing"
	"github.com/valerio/go-vgmplay/vgmplay/vgm"
)

// Writer is the part of the hardware writer the interpreter drives.
type Writer interface {
	SendByte(ctx context.Context, b byte) error
	SilenceAllChannels(ctx context.Context) error
}

// State is the interpreter's run state.
type State int32

const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	if s == Stopped {
		return "stopped"
	}
	return "running"
}

// UnknownOpcodePolicy decides what happens when the cursor lands on an
// opcode the player does not handle.
type UnknownOpcodePolicy int

const (
	// PolicyFail stops the step with an *OpcodeError and leaves the cursor in place.
	PolicyFail UnknownOpcodePolicy = iota
	// PolicySkip logs a warning and advances past the opcode byte.
	PolicySkip
)

func (p UnknownOpcodePolicy) String() string {
	if p == PolicySkip {
		return "skip"
	}
	return "fail"
}

// ParsePolicy parses "fail" or "skip".
func ParsePolicy(s string) (UnknownOpcodePolicy, error) {
	switch strings.ToLower(s) {
	case "fail", "":
		return PolicyFail, nil
	case "skip":
		return PolicySkip, nil
	}
	return PolicyFail, fmt.Errorf("unknown opcode policy %q (want fail or skip)", s)
}

// OpcodeError reports an unhandled opcode.
type OpcodeError struct {
	Offset int
	Opcode byte
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("unhandled opcode 0x%02X at offset 0x%04X", e.Opcode, e.Offset)
}

// Status is a point-in-time view of the interpreter, safe to take from any goroutine.
type Status struct {
	Cursor        int
	Len           int
	State         State
	Opcodes       uint64 // opcodes executed
	Writes        uint64 // PSG writes issued by 0x50
	SamplesWaited uint64
	Passes        uint64 // times the end opcode was reached
}

// Interpreter walks a command stream and executes it against a Writer.
// Step and Run must be called from a single goroutine; Status, Cursor and
// State may be read concurrently.
type Interpreter struct {
	stream   *vgm.Stream
	writer   Writer
	delay    timing.Delayer
	policy   UnknownOpcodePolicy
	endPause time.Duration
	logger   *slog.Logger

	cursor  atomic.Int64
	state   atomic.Int32
	opcodes atomic.Uint64
	writes  atomic.Uint64
	samples atomic.Uint64
	passes  atomic.Uint64
}

type Option func(*Interpreter)

func WithUnknownOpcodePolicy(p UnknownOpcodePolicy) Option {
	return func(i *Interpreter) { i.policy = p }
}

// WithEndPause sets the pause after the end-of-stream mute (default 2s).
func WithEndPause(d time.Duration) Option {
	return func(i *Interpreter) { i.endPause = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) { i.logger = logger }
}

// New creates an interpreter positioned at the start of stream, in the Running state.
func New(stream *vgm.Stream, writer Writer, delay timing.Delayer, opts ...Option) *Interpreter {
	i := &Interpreter{
		stream:   stream,
		writer:   writer,
		delay:    delay,
		policy:   PolicyFail,
		endPause: timing.EndPause,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Interpreter) Cursor() int {
	return int(i.cursor.Load())
}

func (i *Interpreter) State() State {
	return State(i.state.Load())
}

// Reset moves the cursor back to the start and re-arms the interpreter.
// Counters are kept.
func (i *Interpreter) Reset() {
	i.cursor.Store(0)
	i.state.Store(int32(Running))
}

func (i *Interpreter) Status() Status {
	return Status{
		Cursor:        i.Cursor(),
		Len:           i.stream.Len(),
		State:         i.State(),
		Opcodes:       i.opcodes.Load(),
		Writes:        i.writes.Load(),
		SamplesWaited: i.samples.Load(),
		Passes:        i.passes.Load(),
	}
}

func (i *Interpreter) setCursor(off int) {
	i.cursor.Store(int64(off))
}

// Run executes opcodes until the end-of-stream opcode stops the interpreter.
// A stopped interpreter is re-armed first, so Run can be called again to play
// the stream another time.
func (i *Interpreter) Run(ctx context.Context) error {
	if i.State() == Stopped {
		i.state.Store(int32(Running))
	}
	for i.State() == Running {
		if err := i.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Step decodes and executes the opcode under the cursor. Operands are read
// before the cursor moves, so a truncated command fails without side effects.
func (i *Interpreter) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	off := i.Cursor()
	op, err := i.stream.At(off)
	if err != nil {
		return fmt.Errorf("failed to read opcode: %w", err)
	}

	switch {
	case vgm.IsShortWait(op):
		i.executed()
		i.setCursor(off + 1)
		return i.waitSamples(ctx, vgm.ShortWaitSamples(op))

	case op == vgm.OpPSGWrite:
		value, err := i.stream.At(off + 1)
		if err != nil {
			return fmt.Errorf("failed to read PSG write operand: %w", err)
		}
		if err := i.writer.SendByte(ctx, value); err != nil {
			return fmt.Errorf("PSG write at 0x%04X: %w", off, err)
		}
		i.executed()
		i.writes.Add(1)
		i.setCursor(off + 2)
		return nil

	case op == vgm.OpWait:
		n, err := i.stream.Uint16At(off + 1)
		if err != nil {
			return fmt.Errorf("failed to read wait operand: %w", err)
		}
		i.executed()
		i.setCursor(off + 3)
		return i.waitSamples(ctx, int(n))

	case op == vgm.OpWaitNTSC:
		i.executed()
		i.setCursor(off + 1)
		i.samples.Add(vgm.NTSCFrameSamples)
		return i.delay.Delay(ctx, timing.NTSCFrameWait)

	case op == vgm.OpWaitPAL:
		i.executed()
		i.setCursor(off + 1)
		i.samples.Add(vgm.PALFrameSamples)
		return i.delay.Delay(ctx, timing.PALFrameWait)

	case op == vgm.OpEnd:
		i.executed()
		return i.end(ctx, off)
	}

	return i.unknown(off, op)
}

func (i *Interpreter) executed() {
	i.opcodes.Add(1)
}

func (i *Interpreter) waitSamples(ctx context.Context, n int) error {
	i.samples.Add(uint64(n))
	return i.delay.Delay(ctx, timing.Samples(n))
}

func (i *Interpreter) end(ctx context.Context, off int) error {
	i.setCursor(0)
	i.state.Store(int32(Stopped))
	i.passes.Add(1)
	i.logger.Debug("End of stream", "offset", fmt.Sprintf("0x%04X", off))

	if err := i.writer.SilenceAllChannels(ctx); err != nil {
		return fmt.Errorf("failed to silence channels at end of stream: %w", err)
	}
	return i.delay.Delay(ctx, i.endPause)
}

func (i *Interpreter) unknown(off int, op byte) error {
	if i.policy == PolicySkip {
		i.logger.Warn("Skipping unhandled opcode",
			"opcode", fmt.Sprintf("0x%02X", op),
			"offset", fmt.Sprintf("0x%04X", off))
		i.setCursor(off + 1)
		return nil
	}
	return &OpcodeError{Offset: off, Opcode: op}
}
