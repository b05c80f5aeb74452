package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-vgmplay/vgmplay/bus"
	"github.com/valerio/go-vgmplay/vgmplay/psg"
	"github.com/valerio/go-vgmplay/vgmplay/timing"
	"github.com/valerio/go-vgmplay/vgmplay/vgm"
)

// fakeWriter records calls in order.
type fakeWriter struct {
	calls []string
	sent  []byte
	err   error
}

func (w *fakeWriter) Init() error {
	w.calls = append(w.calls, "init")
	return w.err
}

func (w *fakeWriter) SendByte(ctx context.Context, b byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.calls = append(w.calls, "send")
	w.sent = append(w.sent, b)
	return w.err
}

func (w *fakeWriter) SilenceAllChannels(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.calls = append(w.calls, "silence")
	return w.err
}

func (w *fakeWriter) silences() int {
	n := 0
	for _, c := range w.calls {
		if c == "silence" {
			n++
		}
	}
	return n
}

var _ Hardware = (*fakeWriter)(nil)
var _ Hardware = (*psg.Writer)(nil)

func newFake(data ...byte) (*Interpreter, *fakeWriter, *timing.Recorder) {
	w := &fakeWriter{}
	delays := timing.NewRecorder()
	return New(vgm.NewStream(data), w, delays), w, delays
}

// newWired runs the interpreter against the real writer on a recording bus.
func newWired(data []byte, opts ...Option) (*Interpreter, *psg.Writer, *bus.Recorder, *timing.Recorder) {
	rec := bus.NewRecorder()
	delays := timing.NewRecorder()
	w := psg.NewWriter(rec.Bus(), delays)
	return New(vgm.NewStream(data), w, delays, opts...), w, rec, delays
}

func TestInterpreter_Initial(t *testing.T) {
	p, _, _ := newFake(0x66)
	assert.Equal(t, 0, p.Cursor())
	assert.Equal(t, Running, p.State())
}

func TestInterpreter_ShortWait(t *testing.T) {
	for k := 0; k < 16; k++ {
		p, w, delays := newFake(vgm.OpShortWait+byte(k), vgm.OpEnd)

		require.NoError(t, p.Step(context.Background()))
		assert.Equal(t, 1, p.Cursor(), "opcode 0x%02X", 0x70+k)
		assert.Equal(t, []time.Duration{timing.Samples(k + 1)}, delays.Delays(), "opcode 0x%02X", 0x70+k)
		assert.Equal(t, Running, p.State())
		assert.Empty(t, w.sent)
	}
}

func TestInterpreter_PSGWrite(t *testing.T) {
	for _, d := range []byte{0x00, 0x8F, 0x9F, 0xFF} {
		p, w, delays := newFake(vgm.OpPSGWrite, d, vgm.OpEnd)

		require.NoError(t, p.Step(context.Background()))
		assert.Equal(t, []byte{d}, w.sent)
		assert.Equal(t, 2, p.Cursor())
		assert.Empty(t, delays.Delays())
	}
}

func TestInterpreter_WaitRoundTrip(t *testing.T) {
	for n := 0; n <= 0xFFFF; n++ {
		p, _, delays := newFake(vgm.OpWait, byte(n), byte(n>>8))

		require.NoError(t, p.Step(context.Background()))
		if p.Cursor() != 3 {
			t.Fatalf("wait %d: cursor = %d, want 3", n, p.Cursor())
		}
		if got := delays.Delays(); len(got) != 1 || got[0] != timing.Samples(n) {
			t.Fatalf("wait %d: delays = %v, want [%v]", n, got, timing.Samples(n))
		}
	}
}

func TestInterpreter_FrameWaits(t *testing.T) {
	tests := []struct {
		name    string
		op      byte
		want    time.Duration
		samples uint64
	}{
		{"ntsc", vgm.OpWaitNTSC, 17 * time.Millisecond, 735},
		{"pal", vgm.OpWaitPAL, 20 * time.Millisecond, 882},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, delays := newFake(tt.op)
			require.NoError(t, p.Step(context.Background()))
			assert.Equal(t, 1, p.Cursor())
			assert.Equal(t, []time.Duration{tt.want}, delays.Delays())
			assert.Equal(t, tt.samples, p.Status().SamplesWaited)
		})
	}
}

func TestInterpreter_End(t *testing.T) {
	p, w, delays := newFake(vgm.OpPSGWrite, 0x8F, vgm.OpEnd)

	require.NoError(t, p.Step(context.Background()))
	require.NoError(t, p.Step(context.Background()))

	assert.Equal(t, 0, p.Cursor())
	assert.Equal(t, Stopped, p.State())
	assert.Equal(t, []string{"send", "silence"}, w.calls)
	assert.Equal(t, []time.Duration{timing.EndPause}, delays.Delays())
}

func TestInterpreter_EndPauseOption(t *testing.T) {
	w := &fakeWriter{}
	delays := timing.NewRecorder()
	p := New(vgm.NewStream([]byte{vgm.OpEnd}), w, delays, WithEndPause(time.Millisecond))

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []time.Duration{time.Millisecond}, delays.Delays())
}

func TestInterpreter_Scenarios(t *testing.T) {
	hold := timing.SampleTime
	mutes := []byte{0x9F, 0xBF, 0xDF, 0xFF}

	tests := []struct {
		name       string
		data       []byte
		wantWrites []byte
		wantDelays []time.Duration
	}{
		{
			name:       "write then short wait",
			data:       []byte{0x50, 0x8F, 0x7F, 0x66},
			wantWrites: append([]byte{0x8F}, mutes...),
			wantDelays: []time.Duration{hold, timing.Samples(16), hold, hold, hold, hold, timing.EndPause},
		},
		{
			name:       "16-bit wait",
			data:       []byte{0x61, 0x10, 0x27, 0x66},
			wantWrites: mutes,
			wantDelays: []time.Duration{timing.Samples(10000), hold, hold, hold, hold, timing.EndPause},
		},
		{
			name:       "frame waits",
			data:       []byte{0x62, 0x63, 0x66},
			wantWrites: mutes,
			wantDelays: []time.Duration{17 * time.Millisecond, 20 * time.Millisecond, hold, hold, hold, hold, timing.EndPause},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, rec, delays := newWired(tt.data)

			require.NoError(t, p.Run(context.Background()))
			assert.Equal(t, tt.wantWrites, rec.Writes())
			assert.Equal(t, tt.wantDelays, delays.Delays())
			assert.Equal(t, 0, p.Cursor())
			assert.Equal(t, Stopped, p.State())
		})
	}
}

func TestInterpreter_WaitDuration(t *testing.T) {
	p, _, _, delays := newWired([]byte{0x61, 0x10, 0x27, 0x66})
	require.NoError(t, p.Run(context.Background()))

	first := delays.Delays()[0]
	assert.InDelta(t, float64(230*time.Millisecond), float64(first), float64(time.Millisecond))
}

func TestInterpreter_RunTwiceIsIdempotent(t *testing.T) {
	data := []byte{0x50, 0x8F, 0x50, 0x06, 0x7F, 0x61, 0x10, 0x27, 0x62, 0x50, 0x9F, 0x66}
	p, _, rec, delays := newWired(data)

	require.NoError(t, p.Run(context.Background()))
	firstWrites := rec.Writes()
	firstEvents := rec.Events()
	firstDelays := delays.Delays()

	rec.Reset()
	delays.Reset()

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, firstWrites, rec.Writes())
	assert.Equal(t, firstEvents, rec.Events())
	assert.Equal(t, firstDelays, delays.Delays())
	assert.Equal(t, uint64(2), p.Status().Passes)
}

func TestInterpreter_Truncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty stream", nil},
		{"write without operand", []byte{0x50}},
		{"wait without operands", []byte{0x61}},
		{"wait with one operand", []byte{0x61, 0x10}},
		{"no end opcode", []byte{0x7F}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, w, _ := newFake(tt.data...)

			err := p.Run(context.Background())
			require.ErrorIs(t, err, vgm.ErrUnexpectedEnd)
			assert.Empty(t, w.sent)
			assert.Equal(t, Running, p.State())
		})
	}
}

func TestInterpreter_TruncatedKeepsCursor(t *testing.T) {
	p, _, _ := newFake(0x7F, 0x61, 0x10)

	require.NoError(t, p.Step(context.Background()))
	require.ErrorIs(t, p.Step(context.Background()), vgm.ErrUnexpectedEnd)
	assert.Equal(t, 1, p.Cursor())
}

func TestInterpreter_UnknownOpcodeFails(t *testing.T) {
	p, w, delays := newFake(0x7F, 0x67, 0x66)

	err := p.Run(context.Background())

	var opErr *OpcodeError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, 1, opErr.Offset)
	assert.Equal(t, byte(0x67), opErr.Opcode)
	assert.Equal(t, "unhandled opcode 0x67 at offset 0x0001", opErr.Error())

	assert.Equal(t, 1, p.Cursor(), "cursor stays on the bad opcode")
	assert.Equal(t, Running, p.State())
	assert.Empty(t, w.calls)
	assert.Len(t, delays.Delays(), 1)
}

func TestInterpreter_UnknownOpcodeSkip(t *testing.T) {
	w := &fakeWriter{}
	delays := timing.NewRecorder()
	p := New(vgm.NewStream([]byte{0x67, 0x4F, 0x66}), w, delays, WithUnknownOpcodePolicy(PolicySkip))

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, Stopped, p.State())
	assert.Equal(t, 1, w.silences())
	assert.Equal(t, uint64(1), p.Status().Opcodes, "skipped bytes are not executed")
}

func TestInterpreter_Cancelled(t *testing.T) {
	p, w, _ := newFake(0x50, 0x8F, 0x66)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Run(ctx), context.Canceled)
	assert.Equal(t, 0, p.Cursor())
	assert.Empty(t, w.calls)
}

func TestInterpreter_WriterError(t *testing.T) {
	errFault := errors.New("bus fault")
	p, w, _ := newFake(0x50, 0x8F, 0x66)
	w.err = errFault

	assert.ErrorIs(t, p.Step(context.Background()), errFault)
	assert.Equal(t, 0, p.Cursor())
	assert.Equal(t, uint64(0), p.Status().Writes)
}

func TestInterpreter_ResetAndStatus(t *testing.T) {
	p, _, _ := newFake(0x50, 0x8F, 0x70, 0x62, 0x66)
	ctx := context.Background()

	require.NoError(t, p.Step(ctx))
	require.NoError(t, p.Step(ctx))
	require.NoError(t, p.Step(ctx))

	st := p.Status()
	assert.Equal(t, Status{
		Cursor:        4,
		Len:           5,
		State:         Running,
		Opcodes:       3,
		Writes:        1,
		SamplesWaited: 1 + 735,
	}, st)

	p.Reset()
	assert.Equal(t, 0, p.Cursor())
	assert.Equal(t, Running, p.State())
	assert.Equal(t, uint64(3), p.Status().Opcodes, "counters survive reset")
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    UnknownOpcodePolicy
		wantErr bool
	}{
		{"fail", PolicyFail, false},
		{"", PolicyFail, false},
		{"SKIP", PolicySkip, false},
		{"ignore", PolicyFail, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) UnknownOpcodePolicy {
	t.Helper()
	p, err := ParsePolicy(s)
	require.NoError(t, err)
	return p
}
