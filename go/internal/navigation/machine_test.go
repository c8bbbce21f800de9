package navigation

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnnouncer struct {
	messages []string
}

func (a *fakeAnnouncer) Announce(message, _ string) {
	a.messages = append(a.messages, message)
}

func newTestMachine(t *testing.T) (*Machine, *fakeAnnouncer, *[]string) {
	t.Helper()
	announcer := &fakeAnnouncer{}
	m := NewMachine(announcer, "en-US")
	activated := &[]string{}
	record := func(id string) func(context.Context) {
		return func(context.Context) { *activated = append(*activated, id) }
	}

	require.NoError(t, m.Define(ContextPrimary, []Target{
		{ID: "input", Label: "Input", Activate: record("input")},
		{ID: "menu", Label: "Back to Menu", Activate: record("menu")},
	}))
	require.NoError(t, m.Define(ContextRoundOverDialog, []Target{
		{ID: "retry", Label: "Retry", Activate: record("retry")},
		{ID: "cancel", Label: "Cancel", Activate: record("cancel")},
	}))
	return m, announcer, activated
}

func selectedCount(s State) int {
	n := 0
	for _, t := range s.Targets {
		if t.Selected {
			n++
		}
	}
	return n
}

func TestEnterFocusesFirstTargetAndAnnounces(t *testing.T) {
	m, announcer, _ := newTestMachine(t)

	require.NoError(t, m.Enter(ContextPrimary))
	state := m.State()
	assert.Equal(t, ContextPrimary, state.Context)
	assert.Equal(t, 0, state.Index)
	assert.Equal(t, []string{"Input"}, announcer.messages)
}

func TestMoveWrapsAround(t *testing.T) {
	m, announcer, _ := newTestMachine(t)
	require.NoError(t, m.Enter(ContextPrimary))

	m.Move(DirectionLeft)
	assert.Equal(t, 1, m.State().Index)
	m.Move(DirectionRight)
	assert.Equal(t, 0, m.State().Index)
	m.Move(DirectionRight)
	m.Move(DirectionRight)
	assert.Equal(t, 0, m.State().Index)

	assert.Equal(t, []string{"Input", "Back to Menu", "Input", "Back to Menu", "Input"}, announcer.messages)
}

func TestSwitchingContextResetsIndex(t *testing.T) {
	m, _, _ := newTestMachine(t)
	require.NoError(t, m.Enter(ContextPrimary))
	m.Move(DirectionRight)

	require.NoError(t, m.Enter(ContextRoundOverDialog))
	state := m.State()
	assert.Equal(t, 0, state.Index)
	assert.Equal(t, "retry", state.Targets[0].ID)
	assert.True(t, state.Targets[0].Selected)
}

func TestActivateRunsFocusedHandler(t *testing.T) {
	m, _, activated := newTestMachine(t)
	require.NoError(t, m.Enter(ContextRoundOverDialog))

	m.Move(DirectionRight)
	m.Activate(context.Background())
	assert.Equal(t, []string{"cancel"}, *activated)
}

func TestIndexStaysInRangeWithOneSelected(t *testing.T) {
	m, _, _ := newTestMachine(t)
	require.NoError(t, m.Enter(ContextPrimary))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		switch rng.Intn(4) {
		case 0:
			m.Move(DirectionLeft)
		case 1:
			m.Move(DirectionRight)
		case 2:
			require.NoError(t, m.Enter(ContextRoundOverDialog))
		case 3:
			require.NoError(t, m.Enter(ContextPrimary))
		}
		state := m.State()
		require.GreaterOrEqual(t, state.Index, 0)
		require.Less(t, state.Index, len(state.Targets))
		require.Equal(t, 1, selectedCount(state))
	}
}

func TestEndedMachineIgnoresInput(t *testing.T) {
	m, _, activated := newTestMachine(t)
	require.NoError(t, m.Enter(ContextPrimary))

	m.End()
	m.Move(DirectionRight)
	m.Activate(context.Background())

	assert.ErrorIs(t, m.Enter(ContextPrimary), ErrSessionEnded)
	assert.Equal(t, 0, m.State().Index)
	assert.True(t, m.State().Ended)
	assert.Empty(t, *activated)
}

func TestDefineRejectsEmptyTargets(t *testing.T) {
	m := NewMachine(&fakeAnnouncer{}, "en-US")
	assert.ErrorIs(t, m.Define(ContextPrimary, nil), ErrNoTargets)
	assert.ErrorIs(t, m.Enter(ContextPrimary), ErrUnknownContext)
}
