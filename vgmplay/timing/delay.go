package timing

import (
	"context"
	"time"
)

// Delayer blocks for a requested duration. It is the only way the player
// spends wall-clock time, so tests can swap in a recording double.
type Delayer interface {
	// Delay blocks for d, or until ctx is done, in which case ctx.Err() is returned.
	Delay(ctx context.Context, d time.Duration) error
}

// Holder is implemented by delayers that can also guarantee a minimum
// wall-clock duration measured from the call, independent of any schedule.
type Holder interface {
	Hold(ctx context.Context, d time.Duration) error
}

// VGM streams are clocked at 44.1 kHz regardless of the chip clock.
const (
	SampleRate = 44100

	// SampleTime is one sample period rounded to the microsecond.
	// The exact value is 22.675 us, so long waits run about 1.4% slow.
	SampleTime = 23 * time.Microsecond

	// NTSCFrameWait stands in for 735 samples. 735 * SampleTime would be
	// 16.905 ms and the exact period 16.667 ms; 17 ms is within 2% of both.
	NTSCFrameWait = 17 * time.Millisecond

	// PALFrameWait stands in for 882 samples. 882 * SampleTime would be
	// 20.286 ms and the exact period is 20 ms.
	PALFrameWait = 20 * time.Millisecond

	// EndPause lets the last notes decay after the end-of-stream opcode.
	EndPause = 2 * time.Second

	// SettlePause follows the initial mute before the first command.
	SettlePause = 500 * time.Millisecond
)

// Samples converts a sample count to wall-clock time using SampleTime.
func Samples(n int) time.Duration {
	return time.Duration(n) * SampleTime
}

// ExactSamples converts a sample count using the exact 44.1 kHz period.
func ExactSamples(n int) time.Duration {
	return time.Duration(n) * time.Second / SampleRate
}

// NewNoOp returns a delayer that returns immediately (fast-forward).
func NewNoOp() Delayer {
	return noOp{}
}

type noOp struct{}

func (noOp) Delay(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
