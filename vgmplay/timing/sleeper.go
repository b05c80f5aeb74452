package timing

import (
	"context"
	"log/slog"
	"time"
)

const (
	// Remaining waits shorter than this are spun instead of slept.
	spinThreshold = 2 * time.Millisecond
	// When the schedule falls further behind than this, it restarts from now.
	maxLag = 5 * time.Millisecond
)

// Sleeper paces delays against an absolute schedule. Each Delay extends a
// running deadline instead of measuring from "now", so the overhead of
// thousands of 23us waits does not accumulate. Long waits sleep and spin
// for the final stretch; short ones only spin.
//
// Hold is the exception: it is a minimum measured from the call and never
// consults or moves the schedule.
type Sleeper struct {
	deadline time.Time
	now      func() time.Time
	resyncs  int64
	logger   *slog.Logger
}

type SleeperOption func(*Sleeper)

func WithLogger(logger *slog.Logger) SleeperOption {
	return func(s *Sleeper) { s.logger = logger }
}

func NewSleeper(opts ...SleeperOption) *Sleeper {
	s := &Sleeper{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sleeper) Delay(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now()
	if s.deadline.IsZero() {
		s.deadline = now
	} else if lag := now.Sub(s.deadline); lag > maxLag {
		s.resyncs++
		s.logger.Debug("Delay schedule behind, resyncing", "lag_us", lag.Microseconds(), "resyncs", s.resyncs)
		s.deadline = now
	}
	s.deadline = s.deadline.Add(d)

	if !s.deadline.After(now) {
		return nil
	}
	if !s.waitUntil(ctx, s.deadline) {
		s.Reset()
	}
	return ctx.Err()
}

// Hold blocks for at least d from now. The schedule used by Delay is left
// untouched, so a late caller still gets the full duration.
func (s *Sleeper) Hold(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.waitUntil(ctx, s.now().Add(d))
	return ctx.Err()
}

// waitUntil sleeps most of the way to end and spins the rest. It returns
// false when ctx ends during the sleep.
func (s *Sleeper) waitUntil(ctx context.Context, end time.Time) bool {
	if wait := end.Sub(s.now()); wait > spinThreshold {
		timer := time.NewTimer(wait - spinThreshold/2)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}

	for s.now().Before(end) {
		// busy-wait for the remainder, higher accuracy.
	}
	return true
}

// Reset drops the schedule; the next Delay starts from the current time.
func (s *Sleeper) Reset() {
	s.deadline = time.Time{}
}
