// Package game composes the client components around one poll cycle.
package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/braillechain/go/clients/keyboard_client"
	"github.com/mcdev12/braillechain/go/internal/control"
	"github.com/mcdev12/braillechain/go/internal/events"
	"github.com/mcdev12/braillechain/go/internal/gameplay"
	"github.com/mcdev12/braillechain/go/internal/locale"
	"github.com/mcdev12/braillechain/go/internal/models"
	"github.com/mcdev12/braillechain/go/internal/navigation"
	"github.com/mcdev12/braillechain/go/internal/transcription"
)

// KeyboardService is the remote service the controller drives.
type KeyboardService interface {
	Translate(ctx context.Context, buffer []models.Cell) (*keyboard_client.TranslateResult, error)
	SubmitWord(ctx context.Context, buffer []models.Cell) (*keyboard_client.SubmitResult, error)
	Reset(ctx context.Context) (string, error)
}

// Speaker is the single-slot speech announcer.
type Speaker interface {
	Announce(message, languageTag string)
	Cancel()
}

// Navigator moves the user to another screen.
type Navigator interface {
	GoTo(ctx context.Context, route string) error
}

// Target IDs
const (
	TargetTranscription = "transcription"
	TargetBackToMenu    = "back_to_menu"
	TargetRetry         = "retry"
	TargetCancel        = "cancel"
)

type Config struct {
	MenuRoute string
}

func DefaultConfig() Config {
	return Config{
		MenuRoute: "/word_chain_menu",
	}
}

// Controller owns one game session.
type Controller struct {
	service   KeyboardService
	speaker   Speaker
	navigator Navigator
	publisher events.Publisher
	locale    locale.Locale
	config    Config

	transcriber *transcription.Sync
	dispatcher  *control.Dispatcher
	nav         *navigation.Machine
	submission  *gameplay.Submission

	mu         sync.Mutex
	sessionID  uuid.UUID
	buffer     []models.Cell
	cursor     int
	resolving  bool
	restarting bool
	ended      bool
	onQuit     []func()
	observers  []func(View)
	wg         sync.WaitGroup
}

func NewController(
	service KeyboardService,
	speaker Speaker,
	navigator Navigator,
	publisher events.Publisher,
	loc locale.Locale,
	cfg Config,
) (*Controller, error) {
	if publisher == nil {
		publisher = events.NewNoOpPublisher()
	}
	c := &Controller{
		service:   service,
		speaker:   speaker,
		navigator: navigator,
		publisher: publisher,
		locale:    loc,
		config:    cfg,
		sessionID: uuid.New(),
	}
	c.transcriber = transcription.NewSync(service, speaker, loc.LanguageTag)
	c.dispatcher = control.NewDispatcher(c)
	c.nav = navigation.NewMachine(speaker, loc.LanguageTag)
	c.submission = gameplay.NewSubmission(service, speaker, loc)

	if err := c.nav.Define(navigation.ContextPrimary, []navigation.Target{
		{ID: TargetTranscription, Label: loc.Labels.Transcription, Activate: c.readTranscription},
		{ID: TargetBackToMenu, Label: loc.Labels.BackToMenu, Activate: c.Quit},
	}); err != nil {
		return nil, fmt.Errorf("failed to define primary targets: %w", err)
	}
	if err := c.nav.Define(navigation.ContextRoundOverDialog, []navigation.Target{
		{ID: TargetRetry, Label: loc.Labels.Retry, Activate: c.Restart},
		{ID: TargetCancel, Label: loc.Labels.Cancel, Activate: c.Quit},
	}); err != nil {
		return nil, fmt.Errorf("failed to define dialog targets: %w", err)
	}

	c.transcriber.SetObserver(func(models.Transcription) { c.notify() })
	c.nav.SetObserver(func(navigation.State) { c.notify() })
	c.submission.OnOutcome(c.handleOutcome)
	return c, nil
}

// Subscribe registers fn to receive a view after every visible change.
// fn must not block.
func (c *Controller) Subscribe(fn func(View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// OnQuit registers fn to run once the session has ended.
func (c *Controller) OnQuit(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onQuit = append(c.onQuit, fn)
}

func (c *Controller) SessionID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Start resets the server-side game and opens the primary context. A
// failed reset is announced and the session starts anyway.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		return navigation.ErrSessionEnded
	}
	c.mu.Unlock()

	_, resetErr := c.service.Reset(ctx)

	c.submission.Reset()
	c.transcriber.Clear()
	c.dispatcher.Reset()
	if err := c.nav.Enter(navigation.ContextPrimary); err != nil {
		return fmt.Errorf("failed to enter primary context: %w", err)
	}

	if resetErr != nil {
		log.Error().Err(resetErr).Msg("failed to reset game on start")
		c.submission.SetResult(c.locale.Messages.StartFailed)
		c.speaker.Announce(gameplay.JoinMessages(c.locale.Messages.StartFailed, c.locale.Labels.Transcription), c.locale.LanguageTag)
	}

	c.publish(ctx, events.EventTypeSessionStarted, events.SessionStartedPayload{
		Locale:    c.locale.Name,
		StartedAt: time.Now().UTC(),
	})
	log.Info().Str("session_id", c.SessionID().String()).Str("locale", c.locale.Name).Msg("game session started")
	c.notify()
	return nil
}

// HandleBufferState runs one poll cycle.
func (c *Controller) HandleBufferState(ctx context.Context, state *models.BufferState) {
	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		return
	}
	c.buffer = append(c.buffer[:0:0], state.InputBuffer...)
	c.cursor = state.CursorPosition
	c.mu.Unlock()

	if len(state.InputBuffer) > 0 {
		c.submission.NoteInput()
		c.transcriber.Request(ctx, state.InputBuffer, state.CursorPosition)
	} else {
		c.transcriber.Clear()
	}

	c.dispatcher.Observe(ctx, state)

	if state.QuitRequested {
		c.Quit(ctx)
	}
	if state.RestartRequested {
		c.Restart(ctx)
	}
}

// Submit handles the device's submit key. While the round-over dialog is
// open it activates the focused dialog target instead.
func (c *Controller) Submit(ctx context.Context) {
	if c.nav.Current() == navigation.ContextRoundOverDialog {
		c.nav.Activate(ctx)
		return
	}
	c.mu.Lock()
	buffer, cursor := c.buffer, c.cursor
	c.mu.Unlock()
	if tr, ok := c.transcriber.CurrentFor(buffer); ok {
		c.submission.Submit(ctx, buffer, tr)
		return
	}

	// The poll that delivered buffer has not had its translation applied
	// yet, so translate it here rather than submit the older text.
	c.mu.Lock()
	if c.resolving {
		c.mu.Unlock()
		return
	}
	c.resolving = true
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		tr, err := c.transcriber.Resolve(ctx, buffer, cursor)
		if err != nil {
			log.Error().Err(err).Msg("failed to translate buffer for submission")
			tr = c.transcriber.Current()
		}

		c.mu.Lock()
		c.resolving = false
		skip := c.ended || c.restarting
		c.mu.Unlock()
		if skip {
			return
		}
		c.submission.Submit(ctx, buffer, tr)
	}()
}

func (c *Controller) CursorLeft(ctx context.Context) {
	if c.nav.Current() == navigation.ContextRoundOverDialog {
		c.nav.Move(navigation.DirectionLeft)
		return
	}
	c.speaker.Announce(c.locale.Messages.CursorLeft, c.locale.LanguageTag)
}

func (c *Controller) CursorRight(ctx context.Context) {
	if c.nav.Current() == navigation.ContextRoundOverDialog {
		c.nav.Move(navigation.DirectionRight)
		return
	}
	c.speaker.Announce(c.locale.Messages.CursorRight, c.locale.LanguageTag)
}

func (c *Controller) Delete(ctx context.Context) {
	c.speaker.Announce(c.locale.Messages.Deleted, c.locale.LanguageTag)
}

// Navigate moves focus in the active context.
func (c *Controller) Navigate(dir navigation.Direction) {
	c.nav.Move(dir)
}

// Activate runs the focused target.
func (c *Controller) Activate(ctx context.Context) {
	c.nav.Activate(ctx)
}

// Escape leaves the game.
func (c *Controller) Escape(ctx context.Context) {
	c.Quit(ctx)
}

// Restart resets the server-side game and zeroes the session once the
// reset succeeds. Requests made while a reset is outstanding are ignored.
func (c *Controller) Restart(ctx context.Context) {
	c.mu.Lock()
	if c.ended || c.restarting {
		c.mu.Unlock()
		return
	}
	c.restarting = true
	c.mu.Unlock()

	log.Info().Msg("restarting game")
	c.speaker.Cancel()
	c.submission.Invalidate()
	c.transcriber.Invalidate()
	c.notify()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_, err := c.service.Reset(ctx)
		c.finishRestart(ctx, err)
	}()
}

func (c *Controller) finishRestart(ctx context.Context, err error) {
	c.mu.Lock()
	c.restarting = false
	ended := c.ended
	c.mu.Unlock()
	if ended {
		return
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to restart game")
		c.submission.SetResult(c.locale.Messages.RestartFailed)
		c.speaker.Announce(c.locale.Messages.RestartFailed, c.locale.LanguageTag)
		c.notify()
		return
	}

	c.submission.Reset()
	c.transcriber.Clear()
	if err := c.nav.Enter(navigation.ContextPrimary); err != nil {
		log.Warn().Err(err).Msg("failed to return to primary context")
	}
	c.speaker.Announce(gameplay.JoinMessages(c.locale.Messages.Restarted, c.locale.Labels.Transcription), c.locale.LanguageTag)

	c.publish(ctx, events.EventTypeSessionReset, events.SessionResetPayload{ResetAt: time.Now().UTC()})
	log.Info().Msg("game restarted")
	c.notify()
}

// Quit ends the session, silences speech and navigates back to the menu.
// Only the first call has any effect.
func (c *Controller) Quit(ctx context.Context) {
	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		return
	}
	c.ended = true
	onQuit := append([]func(){}, c.onQuit...)
	c.mu.Unlock()

	log.Info().Msg("quitting game")
	c.speaker.Cancel()
	c.submission.Invalidate()
	c.transcriber.Invalidate()
	c.nav.End()
	c.speaker.Announce(c.locale.Messages.Quitting, c.locale.LanguageTag)

	if err := c.navigator.GoTo(ctx, c.config.MenuRoute); err != nil {
		log.Error().Err(err).Str("route", c.config.MenuRoute).Msg("failed to navigate to menu")
	}

	c.publish(ctx, events.EventTypeSessionQuit, events.SessionQuitPayload{
		TotalExchanges: c.submission.State().TotalExchanges,
		QuitAt:         time.Now().UTC(),
	})
	c.notify()

	for _, fn := range onQuit {
		fn()
	}
}

func (c *Controller) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ended
}

// Wait blocks until every outstanding network continuation has run.
func (c *Controller) Wait() {
	c.wg.Wait()
	c.transcriber.Wait()
	c.submission.Wait()
}

func (c *Controller) readTranscription(context.Context) {
	tr := c.transcriber.Current()
	text := tr.Text()
	if text == "" {
		text = c.locale.Labels.Transcription
	}
	c.speaker.Announce(text, c.locale.LanguageTag)
}

func (c *Controller) handleOutcome(o gameplay.Outcome) {
	ctx := context.Background()
	switch o.Kind {
	case gameplay.OutcomeAccepted:
		c.publish(ctx, events.EventTypeWordAccepted, events.WordAcceptedPayload{
			UserWord:       o.Word,
			OpponentWord:   o.OpponentWord,
			TotalExchanges: o.State.TotalExchanges,
			AcceptedAt:     time.Now().UTC(),
		})
	case gameplay.OutcomeRejected:
		c.publish(ctx, events.EventTypeWordRejected, events.WordRejectedPayload{
			Word:              o.Word,
			Reason:            o.Reason,
			Counted:           o.Counted,
			IncorrectAttempts: o.State.IncorrectAttempts,
			RejectedAt:        time.Now().UTC(),
		})
	}

	if o.State.RoundOver {
		c.publish(ctx, events.EventTypeRoundOver, events.RoundOverPayload{
			Reason:            string(o.RoundOverReason),
			IncorrectAttempts: o.State.IncorrectAttempts,
			TotalExchanges:    o.State.TotalExchanges,
			EndedAt:           time.Now().UTC(),
		})
		if err := c.nav.Enter(navigation.ContextRoundOverDialog); err != nil {
			log.Warn().Err(err).Msg("failed to open round-over dialog")
			return
		}
		// Entering the dialog announced its first label; keep the outcome audible.
		c.speaker.Announce(gameplay.JoinMessages(o.Message, c.locale.Labels.Retry), c.locale.LanguageTag)
	}
	c.notify()
}

func (c *Controller) publish(ctx context.Context, eventType string, payload any) {
	event, err := events.NewEvent(c.SessionID(), eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to build event")
		return
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
