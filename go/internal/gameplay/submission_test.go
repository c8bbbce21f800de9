package gameplay

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/braillechain/go/clients/keyboard_client"
	"github.com/mcdev12/braillechain/go/internal/locale"
	"github.com/mcdev12/braillechain/go/internal/models"
)

type fakeAnnouncer struct {
	mu       sync.Mutex
	messages []string
}

func (a *fakeAnnouncer) Announce(message, _ string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
}

func (a *fakeAnnouncer) Messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}

type scriptedSubmitter struct {
	mu      sync.Mutex
	results []*keyboard_client.SubmitResult
	errs    []error
	calls   int
}

func (s *scriptedSubmitter) SubmitWord(context.Context, []models.Cell) (*keyboard_client.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	return s.results[i], s.errs[i]
}

func (s *scriptedSubmitter) push(res *keyboard_client.SubmitResult, err error) {
	s.results = append(s.results, res)
	s.errs = append(s.errs, err)
}

func (s *scriptedSubmitter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func english(t *testing.T) locale.Locale {
	t.Helper()
	table, err := locale.Builtin()
	require.NoError(t, err)
	loc, err := table.Get("en-US")
	require.NoError(t, err)
	return loc
}

func word(text string) models.Transcription {
	return models.NewTextTranscription(text, len(text))
}

func rejected(reason string) *keyboard_client.SubmitResult {
	return &keyboard_client.SubmitResult{Error: reason}
}

func submitAndWait(s *Submission, tr models.Transcription) {
	s.Submit(context.Background(), nil, tr)
	s.Wait()
}

func TestAcceptedWordWithReply(t *testing.T) {
	client := &scriptedSubmitter{}
	client.push(&keyboard_client.SubmitResult{Accepted: true, Message: "Valid word", OpponentWord: "tiger"}, nil)
	announcer := &fakeAnnouncer{}
	s := NewSubmission(client, announcer, english(t))

	var outcomes []Outcome
	s.OnOutcome(func(o Outcome) { outcomes = append(outcomes, o) })
	submitAndWait(s, word("cat"))

	state := s.State()
	assert.Equal(t, 2, state.TotalExchanges)
	assert.Equal(t, models.Exchange{UserWord: "cat", OpponentWord: "tiger"}, state.LastExchange)
	assert.False(t, state.RoundOver)
	assert.Equal(t, []string{"You entered: cat. Next word: tiger."}, announcer.Messages())
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeAccepted, outcomes[0].Kind)
	assert.Equal(t, "Valid word", s.Snapshot().Result)
}

func TestAcceptedWordWithoutReplyEndsRound(t *testing.T) {
	client := &scriptedSubmitter{}
	client.push(&keyboard_client.SubmitResult{Accepted: true, GameOver: true}, nil)
	announcer := &fakeAnnouncer{}
	loc := english(t)
	s := NewSubmission(client, announcer, loc)

	submitAndWait(s, word("zebra"))

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.State.TotalExchanges)
	assert.Empty(t, snap.State.LastExchange.OpponentWord)
	assert.True(t, snap.State.RoundOver)
	assert.Equal(t, models.RoundOverReasonNoReply, snap.RoundOverReason)
	assert.Equal(t, loc.Messages.OpponentExhausted, snap.Status)
}

func TestAcceptedWordWithoutReplyOrGameOverKeepsRound(t *testing.T) {
	client := &scriptedSubmitter{}
	client.push(&keyboard_client.SubmitResult{Accepted: true, Message: "Valid word"}, nil)
	announcer := &fakeAnnouncer{}
	s := NewSubmission(client, announcer, english(t))

	submitAndWait(s, word("cat"))

	snap := s.Snapshot()
	assert.False(t, snap.State.RoundOver)
	assert.Equal(t, 1, snap.State.TotalExchanges)
	assert.Equal(t, models.Exchange{UserWord: "cat"}, snap.State.LastExchange)
	assert.Empty(t, snap.Status)
	assert.Equal(t, []string{"You entered: cat."}, announcer.Messages())
}

func TestThreeCountedRejectionsEndRound(t *testing.T) {
	client := &scriptedSubmitter{}
	for i := 0; i < 3; i++ {
		client.push(rejected("Word must start with 't'."), nil)
	}
	s := NewSubmission(client, &fakeAnnouncer{}, english(t))

	submitAndWait(s, word("dog"))
	submitAndWait(s, word("cow"))
	state := s.State()
	assert.Equal(t, 2, state.IncorrectAttempts)
	assert.False(t, state.RoundOver)

	submitAndWait(s, word("pig"))
	state = s.State()
	assert.Equal(t, 3, state.IncorrectAttempts)
	assert.True(t, state.RoundOver)
	assert.Equal(t, models.RoundOverReasonAttempts, s.Snapshot().RoundOverReason)

	// Further submissions are ignored once the round is over.
	s.Submit(context.Background(), nil, word("tap"))
	s.Wait()
	assert.Equal(t, 3, client.Calls())
}

func TestShortRejectedWordIsNotCounted(t *testing.T) {
	client := &scriptedSubmitter{}
	client.push(rejected("Too short."), nil)
	announcer := &fakeAnnouncer{}
	s := NewSubmission(client, announcer, english(t))

	var outcome Outcome
	s.OnOutcome(func(o Outcome) { outcome = o })
	submitAndWait(s, word("at"))

	assert.Equal(t, 0, s.State().IncorrectAttempts)
	assert.False(t, outcome.Counted)
	assert.Equal(t, []string{"Too short."}, announcer.Messages())
}

func TestKoreanMinimumLengthCountsSyllables(t *testing.T) {
	table, err := locale.Builtin()
	require.NoError(t, err)
	ko, err := table.Get("ko-KR")
	require.NoError(t, err)

	client := &scriptedSubmitter{}
	client.push(rejected("x"), nil)
	client.push(rejected("x"), nil)
	s := NewSubmission(client, &fakeAnnouncer{}, ko)

	submitAndWait(s, models.NewUnitTranscription([]string{"사"}, 1))
	assert.Equal(t, 0, s.State().IncorrectAttempts)
	submitAndWait(s, models.NewUnitTranscription([]string{"사", "과"}, 2))
	assert.Equal(t, 1, s.State().IncorrectAttempts)
}

func TestTransportFailureDoesNotCount(t *testing.T) {
	client := &scriptedSubmitter{}
	client.push(nil, errors.New("connection refused"))
	announcer := &fakeAnnouncer{}
	loc := english(t)
	s := NewSubmission(client, announcer, loc)

	submitAndWait(s, word("cat"))

	assert.Equal(t, models.SessionState{}, s.State())
	assert.Equal(t, []string{loc.Messages.SubmitFailed}, announcer.Messages())
}

func TestEmptySubmissionCuedOncePerIdlePeriod(t *testing.T) {
	client := &scriptedSubmitter{}
	announcer := &fakeAnnouncer{}
	loc := english(t)
	s := NewSubmission(client, announcer, loc)

	submitAndWait(s, models.Transcription{})
	submitAndWait(s, models.Transcription{})
	assert.Equal(t, []string{loc.Messages.NothingToSubmit}, announcer.Messages())

	s.NoteInput()
	submitAndWait(s, models.Transcription{})
	assert.Len(t, announcer.Messages(), 2)
	assert.Equal(t, 0, client.Calls())
}

func TestResetTwiceYieldsZeroState(t *testing.T) {
	client := &scriptedSubmitter{}
	client.push(rejected("nope"), nil)
	s := NewSubmission(client, &fakeAnnouncer{}, english(t))
	submitAndWait(s, word("dog"))
	require.Equal(t, 1, s.State().IncorrectAttempts)

	s.Reset()
	assert.Equal(t, Snapshot{}, s.Snapshot())
	s.Reset()
	assert.Equal(t, Snapshot{}, s.Snapshot())
}

type blockingSubmitter struct {
	release chan struct{}
}

func (b *blockingSubmitter) SubmitWord(context.Context, []models.Cell) (*keyboard_client.SubmitResult, error) {
	<-b.release
	return &keyboard_client.SubmitResult{Accepted: true, OpponentWord: "tiger"}, nil
}

func TestReplyAfterResetIsDropped(t *testing.T) {
	client := &blockingSubmitter{release: make(chan struct{})}
	announcer := &fakeAnnouncer{}
	s := NewSubmission(client, announcer, english(t))

	s.Submit(context.Background(), nil, word("cat"))
	assert.True(t, s.Snapshot().InFlight)

	s.Reset()
	close(client.release)
	s.Wait()

	assert.Equal(t, models.SessionState{}, s.State())
	assert.Empty(t, announcer.Messages())
}
