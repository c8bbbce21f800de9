package control

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/braillechain/go/internal/models"
)

type recordingActions struct {
	calls []string
}

func (r *recordingActions) Submit(context.Context)      { r.calls = append(r.calls, "submit") }
func (r *recordingActions) CursorLeft(context.Context)  { r.calls = append(r.calls, "left") }
func (r *recordingActions) CursorRight(context.Context) { r.calls = append(r.calls, "right") }
func (r *recordingActions) Delete(context.Context)      { r.calls = append(r.calls, "delete") }
func (r *recordingActions) Quit(context.Context)        { r.calls = append(r.calls, "quit") }
func (r *recordingActions) Restart(context.Context)     { r.calls = append(r.calls, "restart") }

func poll(signal models.ControlSignal) *models.BufferState {
	return &models.BufferState{ControlSignal: signal}
}

func pollSeq(signal models.ControlSignal, seq uint64) *models.BufferState {
	return &models.BufferState{ControlSignal: signal, SignalSeq: &seq}
}

func TestEverySignalDispatches(t *testing.T) {
	actions := &recordingActions{}
	d := NewDispatcher(actions)
	ctx := context.Background()

	for _, s := range []models.ControlSignal{
		models.ControlSignalSubmit,
		models.ControlSignalCursorLeft,
		models.ControlSignalCursorRight,
		models.ControlSignalDelete,
		models.ControlSignalRestart,
		models.ControlSignalQuit,
	} {
		d.Observe(ctx, poll(s))
	}

	assert.Equal(t, []string{"submit", "left", "right", "delete", "restart", "quit"}, actions.calls)
}

func TestRepeatedSignalFiresOnce(t *testing.T) {
	actions := &recordingActions{}
	d := NewDispatcher(actions)
	ctx := context.Background()

	assert.True(t, d.Observe(ctx, poll(models.ControlSignalSubmit)))
	assert.False(t, d.Observe(ctx, poll(models.ControlSignalSubmit)))
	assert.False(t, d.Observe(ctx, poll(models.ControlSignalSubmit)))
	assert.False(t, d.Observe(ctx, poll(models.ControlSignalNone)))
	assert.True(t, d.Observe(ctx, poll(models.ControlSignalSubmit)))

	assert.Equal(t, []string{"submit", "submit"}, actions.calls)
}

func TestNoneNeverDispatches(t *testing.T) {
	actions := &recordingActions{}
	d := NewDispatcher(actions)

	for i := 0; i < 3; i++ {
		d.Observe(context.Background(), poll(models.ControlSignalNone))
	}
	d.Observe(context.Background(), poll(""))
	assert.Empty(t, actions.calls)
}

func TestSequenceNumbersDistinguishRepeats(t *testing.T) {
	actions := &recordingActions{}
	d := NewDispatcher(actions)
	ctx := context.Background()

	d.Observe(ctx, pollSeq(models.ControlSignalCursorLeft, 1))
	d.Observe(ctx, pollSeq(models.ControlSignalCursorLeft, 1))
	d.Observe(ctx, pollSeq(models.ControlSignalCursorLeft, 2))
	d.Observe(ctx, pollSeq(models.ControlSignalNone, 3))

	assert.Equal(t, []string{"left", "left"}, actions.calls)
}

func TestResetForgetsLastSignal(t *testing.T) {
	actions := &recordingActions{}
	d := NewDispatcher(actions)
	ctx := context.Background()

	d.Observe(ctx, poll(models.ControlSignalDelete))
	d.Reset()
	d.Observe(ctx, poll(models.ControlSignalDelete))

	assert.Equal(t, []string{"delete", "delete"}, actions.calls)
}

func TestHeldSignalDispatchesOncePerRun(t *testing.T) {
	names := map[models.ControlSignal]string{
		models.ControlSignalSubmit:      "submit",
		models.ControlSignalCursorLeft:  "left",
		models.ControlSignalCursorRight: "right",
		models.ControlSignalDelete:      "delete",
		models.ControlSignalRestart:     "restart",
		models.ControlSignalQuit:        "quit",
	}
	signals := []models.ControlSignal{models.ControlSignalNone}
	for s := range names {
		signals = append(signals, s)
	}

	rng := rand.New(rand.NewSource(11))
	for round := 0; round < 50; round++ {
		actions := &recordingActions{}
		d := NewDispatcher(actions)
		ctx := context.Background()

		var want []string
		prev := models.ControlSignalNone
		for i := 0; i < 200; i++ {
			signal := prev
			// mostly hold the previous value so runs span several polls
			if rng.Intn(3) == 0 {
				signal = signals[rng.Intn(len(signals))]
			}
			if !signal.IsNone() && signal != prev {
				want = append(want, names[signal])
			}
			d.Observe(ctx, poll(signal))
			prev = signal
		}
		require.Equal(t, want, actions.calls, "round %d", round)
	}
}
