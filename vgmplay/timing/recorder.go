package timing

import (
	"context"
	"sync"
	"time"
)

// Recorder is a Delayer that records requested durations instead of sleeping.
type Recorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Delay(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return nil
}

// Delays returns a copy of the recorded durations in call order.
func (r *Recorder) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.delays))
	copy(out, r.delays)
	return out
}

// Total returns the sum of all recorded durations.
func (r *Recorder) Total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total time.Duration
	for _, d := range r.delays {
		total += d
	}
	return total
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.delays = r.delays[:0]
	r.mu.Unlock()
}
