// Package navigation tracks which on-screen target has focus.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// FocusContext names a set of focusable targets.
type FocusContext string

const (
	ContextPrimary         FocusContext = "PRIMARY"
	ContextRoundOverDialog FocusContext = "ROUND_OVER_DIALOG"
)

type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

var (
	ErrNoTargets      = errors.New("focus context has no targets")
	ErrUnknownContext = errors.New("unknown focus context")
	ErrSessionEnded   = errors.New("session ended")
)

// Target is one focusable element. Activate runs when the target is
// activated while focused.
type Target struct {
	ID       string
	Label    string
	Activate func(ctx context.Context)
}

// TargetView is a target as rendered.
type TargetView struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// State is a snapshot of the machine.
type State struct {
	Context FocusContext `json:"context"`
	Index   int          `json:"index"`
	Targets []TargetView `json:"targets"`
	Ended   bool         `json:"ended"`
}

type Announcer interface {
	Announce(message, languageTag string)
}

// Machine holds the active focus context and the focused index within it.
// The index always addresses a target of the active context.
type Machine struct {
	announcer   Announcer
	languageTag string

	mu       sync.Mutex
	contexts map[FocusContext][]Target
	current  FocusContext
	index    int
	ended    bool
	observer func(State)
}

func NewMachine(announcer Announcer, languageTag string) *Machine {
	return &Machine{
		announcer:   announcer,
		languageTag: languageTag,
		contexts:    make(map[FocusContext][]Target),
	}
}

// Define registers the ordered targets of a context.
func (m *Machine) Define(c FocusContext, targets []Target) error {
	if len(targets) == 0 {
		return fmt.Errorf("define %s: %w", c, ErrNoTargets)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contexts[c] = append([]Target(nil), targets...)
	return nil
}

// SetObserver registers fn to be called after every focus change.
func (m *Machine) SetObserver(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = fn
}

// Enter switches to c, focuses its first target and announces it.
func (m *Machine) Enter(c FocusContext) error {
	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return ErrSessionEnded
	}
	targets, ok := m.contexts[c]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownContext, c)
	}
	m.current = c
	m.index = 0
	m.announcer.Announce(targets[0].Label, m.languageTag)
	state, observer := m.stateLocked(), m.observer
	m.mu.Unlock()

	log.Info().Str("context", string(c)).Msg("focus context entered")
	if observer != nil {
		observer(state)
	}
	return nil
}

// Move shifts focus one target in dir, wrapping at both ends, and announces
// the newly focused label.
func (m *Machine) Move(dir Direction) {
	m.mu.Lock()
	targets, ok := m.contexts[m.current]
	if m.ended || !ok {
		m.mu.Unlock()
		return
	}
	n := len(targets)
	switch dir {
	case DirectionLeft:
		m.index = (m.index - 1 + n) % n
	case DirectionRight:
		m.index = (m.index + 1) % n
	default:
		m.mu.Unlock()
		log.Warn().Str("direction", string(dir)).Msg("unknown focus direction")
		return
	}
	m.announcer.Announce(targets[m.index].Label, m.languageTag)
	state, observer := m.stateLocked(), m.observer
	m.mu.Unlock()

	if observer != nil {
		observer(state)
	}
}

// Activate runs the focused target's handler.
func (m *Machine) Activate(ctx context.Context) {
	m.mu.Lock()
	targets, ok := m.contexts[m.current]
	if m.ended || !ok {
		m.mu.Unlock()
		return
	}
	target := targets[m.index]
	m.mu.Unlock()

	log.Debug().Str("target", target.ID).Msg("activating target")
	if target.Activate != nil {
		target.Activate(ctx)
	}
}

// Selected returns the focused target.
func (m *Machine) Selected() (Target, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	targets, ok := m.contexts[m.current]
	if !ok {
		return Target{}, false
	}
	return targets[m.index], true
}

func (m *Machine) Current() FocusContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// End stops the machine. Later moves and activations are ignored.
func (m *Machine) End() {
	m.mu.Lock()
	m.ended = true
	state, observer := m.stateLocked(), m.observer
	m.mu.Unlock()

	if observer != nil {
		observer(state)
	}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Machine) stateLocked() State {
	state := State{Context: m.current, Index: m.index, Ended: m.ended}
	for i, t := range m.contexts[m.current] {
		state.Targets = append(state.Targets, TargetView{ID: t.ID, Label: t.Label, Selected: i == m.index})
	}
	return state
}
