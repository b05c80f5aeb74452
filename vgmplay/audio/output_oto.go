//go:build !headless

package audio

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Output plays a Provider through the system's default audio device.
type Output struct {
	mu      sync.Mutex
	ctx     *oto.Context
	player  *oto.Player
	started bool
}

// NewOutput opens the audio device. Only one Output may exist per process.
func NewOutput(provider Provider, sampleRate int) (*Output, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	<-ready

	return &Output{
		ctx:    ctx,
		player: ctx.NewPlayer(&pcmReader{provider: provider}),
	}, nil
}

func (o *Output) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.started && o.player != nil {
		o.player.Play()
		o.started = true
	}
}

func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	o.started = false
	return err
}
