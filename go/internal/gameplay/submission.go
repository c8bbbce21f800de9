// Package gameplay owns the round's score state and submits words.
package gameplay

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/braillechain/go/clients/keyboard_client"
	"github.com/mcdev12/braillechain/go/internal/locale"
	"github.com/mcdev12/braillechain/go/internal/models"
)

type Submitter interface {
	SubmitWord(ctx context.Context, buffer []models.Cell) (*keyboard_client.SubmitResult, error)
}

type Announcer interface {
	Announce(message, languageTag string)
}

// OutcomeKind classifies a finished submission.
type OutcomeKind string

const (
	OutcomeAccepted OutcomeKind = "ACCEPTED"
	OutcomeRejected OutcomeKind = "REJECTED"
	OutcomeFailed   OutcomeKind = "FAILED"
)

// Outcome describes a submission once its reply has been applied.
type Outcome struct {
	Kind   OutcomeKind
	Word   string
	Reason string
	// Message is what was announced for the reply.
	Message string
	// Counted is set when a rejection counted as an incorrect attempt.
	Counted         bool
	OpponentWord    string
	State           models.SessionState
	RoundOverReason models.RoundOverReason
}

// Snapshot is the submission state as rendered.
type Snapshot struct {
	State           models.SessionState    `json:"state"`
	RoundOverReason models.RoundOverReason `json:"round_over_reason,omitempty"`
	// Result is the last server message or error.
	Result string `json:"result"`
	// Status is the last status line, such as the round-over prompt.
	Status   string `json:"status"`
	InFlight bool   `json:"in_flight"`
}

// Submission owns SessionState. State only changes when a submission reply
// or a reset is applied.
type Submission struct {
	client    Submitter
	announcer Announcer
	locale    locale.Locale

	mu         sync.Mutex
	state      models.SessionState
	reason     models.RoundOverReason
	result     string
	status     string
	generation uint64
	inFlight   bool
	emptyCued  bool
	onOutcome  func(Outcome)
	wg         sync.WaitGroup
}

func NewSubmission(client Submitter, announcer Announcer, loc locale.Locale) *Submission {
	return &Submission{
		client:    client,
		announcer: announcer,
		locale:    loc,
	}
}

// OnOutcome registers fn to be called after each applied submission reply.
func (s *Submission) OnOutcome(fn func(Outcome)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onOutcome = fn
}

// Submit sends the current transcription as the user's word. It returns
// without waiting for the reply. An empty transcription is cued once until
// input is seen again.
func (s *Submission) Submit(ctx context.Context, buffer []models.Cell, tr models.Transcription) {
	word := strings.TrimSpace(tr.Text())

	s.mu.Lock()
	if s.state.RoundOver {
		s.mu.Unlock()
		log.Debug().Msg("ignoring submit, round is over")
		return
	}
	if s.inFlight {
		s.mu.Unlock()
		log.Debug().Msg("ignoring submit, previous submission in flight")
		return
	}
	if word == "" {
		if !s.emptyCued {
			s.emptyCued = true
			s.status = s.locale.Messages.NothingToSubmit
			s.announcer.Announce(s.status, s.locale.LanguageTag)
		}
		s.mu.Unlock()
		return
	}
	s.emptyCued = false
	s.inFlight = true
	gen := s.generation
	s.mu.Unlock()

	log.Info().Str("word", word).Msg("submitting word")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res, err := s.client.SubmitWord(ctx, buffer)
		s.apply(gen, word, tr.Len(), res, err)
	}()
}

func (s *Submission) apply(gen uint64, word string, length int, res *keyboard_client.SubmitResult, err error) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		log.Debug().Str("word", word).Msg("dropping stale submission reply")
		return
	}
	s.inFlight = false

	var out Outcome
	switch {
	case err != nil:
		log.Error().Err(err).Str("word", word).Msg("word submission failed")
		out = s.failedLocked(word, err)
	case !res.Accepted:
		out = s.rejectedLocked(word, length, res.Error)
	default:
		out = s.acceptedLocked(word, res)
	}
	out.State = s.state
	out.RoundOverReason = s.reason
	onOutcome := s.onOutcome
	s.mu.Unlock()

	if onOutcome != nil {
		onOutcome(out)
	}
}

func (s *Submission) failedLocked(word string, err error) Outcome {
	s.result = s.locale.Messages.SubmitFailed
	s.announcer.Announce(s.result, s.locale.LanguageTag)
	return Outcome{Kind: OutcomeFailed, Word: word, Reason: err.Error(), Message: s.result}
}

func (s *Submission) rejectedLocked(word string, length int, reason string) Outcome {
	s.result = reason
	counted := length >= s.locale.MinWordLength
	if counted {
		s.state.IncorrectAttempts++
	}

	message := reason
	if s.state.IncorrectAttempts >= models.MaxIncorrectAttempts {
		s.state.IncorrectAttempts = models.MaxIncorrectAttempts
		s.endRoundLocked(models.RoundOverReasonAttempts, s.locale.Messages.AttemptsExhausted)
		message = JoinMessages(reason, s.status)
	}
	s.announcer.Announce(message, s.locale.LanguageTag)

	log.Info().
		Str("word", word).
		Str("reason", reason).
		Bool("counted", counted).
		Int("incorrect_attempts", s.state.IncorrectAttempts).
		Msg("word rejected")
	return Outcome{Kind: OutcomeRejected, Word: word, Reason: reason, Counted: counted, Message: message}
}

func (s *Submission) acceptedLocked(word string, res *keyboard_client.SubmitResult) Outcome {
	s.emptyCued = false
	s.result = res.Message
	s.state.LastExchange = models.Exchange{UserWord: word}
	s.state.TotalExchanges++
	message := s.locale.AcceptedMessage(word)

	if res.OpponentWord != "" {
		s.state.LastExchange.OpponentWord = res.OpponentWord
		s.state.TotalExchanges++
		message = JoinMessages(message, s.locale.OpponentMessage(res.OpponentWord))
	}
	if res.GameOver {
		s.endRoundLocked(models.RoundOverReasonNoReply, s.locale.Messages.OpponentExhausted)
		message = JoinMessages(message, s.status)
	}
	s.announcer.Announce(message, s.locale.LanguageTag)

	log.Info().
		Str("word", word).
		Str("opponent_word", res.OpponentWord).
		Int("total_exchanges", s.state.TotalExchanges).
		Msg("word accepted")
	return Outcome{Kind: OutcomeAccepted, Word: word, OpponentWord: res.OpponentWord, Message: message}
}

func (s *Submission) endRoundLocked(reason models.RoundOverReason, status string) {
	s.state.RoundOver = true
	s.reason = reason
	s.status = status
	log.Info().Str("reason", string(reason)).Msg("round over")
}

// NoteInput re-arms the empty-submission cue.
func (s *Submission) NoteInput() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emptyCued = false
}

// Invalidate drops the reply of any submission still in flight.
func (s *Submission) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.inFlight = false
}

// Reset zeroes the session state and drops any in-flight reply.
func (s *Submission) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.inFlight = false
	s.emptyCued = false
	s.state = models.SessionState{}
	s.reason = models.RoundOverReasonNone
	s.result = ""
	s.status = ""
}

// SetResult replaces the displayed result line.
func (s *Submission) SetResult(result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
}

func (s *Submission) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Submission) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:           s.state,
		RoundOverReason: s.reason,
		Result:          s.result,
		Status:          s.status,
		InFlight:        s.inFlight,
	}
}

// Wait blocks until every outstanding submission has finished.
func (s *Submission) Wait() {
	s.wg.Wait()
}

// JoinMessages joins non-blank messages into one utterance.
func JoinMessages(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
