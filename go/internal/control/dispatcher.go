// Package control turns polled control signals into game actions.
package control

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/braillechain/go/internal/models"
)

// Actions is what the dispatcher drives.
type Actions interface {
	Submit(ctx context.Context)
	CursorLeft(ctx context.Context)
	CursorRight(ctx context.Context)
	Delete(ctx context.Context)
	Quit(ctx context.Context)
	Restart(ctx context.Context)
}

// Dispatcher fires each signal once per occurrence. Without a sequence
// number from the service an occurrence is a transition away from the last
// seen signal; with one it is a new sequence number.
type Dispatcher struct {
	actions Actions

	mu         sync.Mutex
	lastSignal models.ControlSignal
	lastSeq    *uint64
}

func NewDispatcher(actions Actions) *Dispatcher {
	return &Dispatcher{
		actions:    actions,
		lastSignal: models.ControlSignalNone,
	}
}

// Observe records the signal carried by state and dispatches it if it is
// a new occurrence. It reports whether an action fired.
func (d *Dispatcher) Observe(ctx context.Context, state *models.BufferState) bool {
	signal := state.ControlSignal
	if !d.edge(signal, state.SignalSeq) {
		return false
	}
	d.dispatch(ctx, signal)
	return true
}

func (d *Dispatcher) edge(signal models.ControlSignal, seq *uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.lastSignal
	d.lastSignal = signal

	if seq != nil {
		fresh := d.lastSeq == nil || *d.lastSeq != *seq
		s := *seq
		d.lastSeq = &s
		return fresh && !signal.IsNone()
	}
	if signal.IsNone() {
		return false
	}
	return signal != prev
}

func (d *Dispatcher) dispatch(ctx context.Context, signal models.ControlSignal) {
	log.Debug().Str("signal", string(signal)).Msg("dispatching control signal")

	switch signal {
	case models.ControlSignalSubmit:
		d.actions.Submit(ctx)
	case models.ControlSignalCursorLeft:
		d.actions.CursorLeft(ctx)
	case models.ControlSignalCursorRight:
		d.actions.CursorRight(ctx)
	case models.ControlSignalDelete:
		d.actions.Delete(ctx)
	case models.ControlSignalQuit:
		d.actions.Quit(ctx)
	case models.ControlSignalRestart:
		d.actions.Restart(ctx)
	default:
		log.Warn().Str("signal", string(signal)).Msg("unhandled control signal")
	}
}

// Reset forgets the last seen signal.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastSignal = models.ControlSignalNone
	d.lastSeq = nil
}
