package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-vgmplay/vgmplay/bus"
	"github.com/valerio/go-vgmplay/vgmplay/chip"
	"github.com/valerio/go-vgmplay/vgmplay/psg"
	"github.com/valerio/go-vgmplay/vgmplay/timing"
	"github.com/valerio/go-vgmplay/vgmplay/vgm"
)

func TestDriver_Sequence(t *testing.T) {
	w := &fakeWriter{}
	delays := timing.NewRecorder()
	interp := New(vgm.NewStream([]byte{0x50, 0x8F, 0x66}), w, delays)

	done := 0
	d := NewDriver(w, interp, delays, WithCompletion(func() { done++ }))
	require.NoError(t, d.Play(context.Background()))

	assert.Equal(t, []string{"init", "silence", "send", "silence", "silence"}, w.calls)
	assert.Equal(t, []time.Duration{timing.SettlePause, timing.EndPause}, delays.Delays())
	assert.Equal(t, 1, done)
	assert.Same(t, interp, d.Interpreter())
}

func TestDriver_Wired(t *testing.T) {
	rec := bus.NewRecorder()
	model := chip.New()
	delays := timing.NewRecorder()
	w := psg.NewWriter(rec.Bus(), delays, psg.WithMonitor(model))
	interp := New(vgm.NewStream([]byte{0x50, 0x90, 0x7F, 0x66}), w, delays)

	d := NewDriver(w, interp, delays, WithSettle(time.Millisecond))
	require.NoError(t, d.Play(context.Background()))

	mutes := []byte{0x9F, 0xBF, 0xDF, 0xFF}
	var want []byte
	want = append(want, mutes...)
	want = append(want, 0x90)
	want = append(want, mutes...)
	want = append(want, mutes...)
	assert.Equal(t, want, rec.Writes())

	events := rec.Events()
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, bus.Event{Kind: bus.EventLatch, Level: bus.Low}, events[0], "chip select idled first")
	assert.Equal(t, bus.Event{Kind: bus.EventWriteEnable, Level: bus.High}, events[1])

	assert.Equal(t, time.Millisecond, delays.Delays()[4], "settle follows the four initial mute holds")

	for i, ch := range model.Snapshot() {
		assert.False(t, ch.Audible(), "channel %d left sounding", i)
	}
}

func TestDriver_FailureStillMutes(t *testing.T) {
	w := &fakeWriter{}
	delays := timing.NewRecorder()
	interp := New(vgm.NewStream([]byte{0x50, 0x8F, 0x67}), w, delays)

	completed := false
	d := NewDriver(w, interp, delays, WithCompletion(func() { completed = true }))

	err := d.Play(context.Background())
	var opErr *OpcodeError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, []string{"init", "silence", "send", "silence"}, w.calls)
	assert.False(t, completed)
}

func TestDriver_CancelledStillMutes(t *testing.T) {
	w := &fakeWriter{}
	delays := timing.NewRecorder()
	interp := New(vgm.NewStream([]byte{0x66}), w, delays)
	d := NewDriver(w, interp, delays)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, d.Play(ctx), context.Canceled)
	assert.Equal(t, []string{"init", "silence"}, w.calls, "only the final mute runs")
}

func TestDriver_InitError(t *testing.T) {
	errGPIO := errors.New("gpio busy")
	w := &fakeWriter{err: errGPIO}
	delays := timing.NewRecorder()
	d := NewDriver(w, New(vgm.NewStream([]byte{0x66}), w, delays), delays)

	assert.ErrorIs(t, d.Play(context.Background()), errGPIO)
	assert.Equal(t, []string{"init"}, w.calls)
}

func TestOptions(t *testing.T) {
	o := DefaultOptions()
	assert.Equal(t, PolicyFail, o.UnknownOpcode)
	assert.Equal(t, 2*time.Second, o.EndPause)
	assert.Equal(t, 500*time.Millisecond, o.Settle)

	o.UnknownOpcode = PolicySkip
	o.EndPause = 0
	w := &fakeWriter{}
	delays := timing.NewRecorder()
	p := New(vgm.NewStream([]byte{0x67, 0x66}), w, delays, o.InterpreterOptions()...)

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []time.Duration{0}, delays.Delays())
}
