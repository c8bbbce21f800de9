package speech

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Config holds configuration for the announcer.
type Config struct {
	// SettleDelay separates cancelling the previous utterance from starting
	// the next one so the engine does not drop the new request.
	SettleDelay time.Duration
}

// DefaultConfig returns default announcer configuration
func DefaultConfig() Config {
	return Config{
		SettleDelay: 100 * time.Millisecond,
	}
}

// Announcer is a single-slot serializer in front of an Engine. A new
// announcement always preempts an older one that has not been delivered.
type Announcer struct {
	engine Engine
	clock  clockwork.Clock
	config Config

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	token   uint64
	pending *pendingUtterance
	closed  bool
}

type pendingUtterance struct {
	timer clockwork.Timer
	stop  chan struct{}
}

// NewAnnouncer creates an announcer using the real clock.
func NewAnnouncer(engine Engine, config Config) *Announcer {
	return NewAnnouncerWithClock(engine, config, clockwork.NewRealClock())
}

// NewAnnouncerWithClock creates an announcer driven by clock.
func NewAnnouncerWithClock(engine Engine, config Config, clock clockwork.Clock) *Announcer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Announcer{
		engine: engine,
		clock:  clock,
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Announce cancels any undelivered utterance and schedules message to be
// spoken in languageTag after the settle delay.
func (a *Announcer) Announce(message, languageTag string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	a.preemptLocked()
	a.token++
	token := a.token
	u := Utterance{Text: message, LanguageTag: languageTag}

	if a.config.SettleDelay <= 0 {
		a.speakLocked(u)
		return
	}

	p := &pendingUtterance{
		timer: a.clock.NewTimer(a.config.SettleDelay),
		stop:  make(chan struct{}),
	}
	a.pending = p
	go a.deliver(token, u, p)

	log.Debug().
		Str("text", message).
		Str("lang", languageTag).
		Uint64("token", token).
		Msg("announcement scheduled")
}

// Cancel drops any undelivered utterance and silences the engine.
func (a *Announcer) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.preemptLocked()
	a.token++
}

// Close cancels pending speech and stops accepting announcements.
func (a *Announcer) Close() {
	a.mu.Lock()
	if !a.closed {
		a.preemptLocked()
		a.closed = true
	}
	a.mu.Unlock()
	a.cancel()
}

func (a *Announcer) deliver(token uint64, u Utterance, p *pendingUtterance) {
	select {
	case <-p.timer.Chan():
	case <-p.stop:
		return
	case <-a.ctx.Done():
		p.timer.Stop()
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	// A newer announcement may have won the lock between the timer firing and now.
	if token != a.token || a.closed {
		return
	}
	a.pending = nil
	a.speakLocked(u)
}

func (a *Announcer) speakLocked(u Utterance) {
	if err := a.engine.Speak(a.ctx, u); err != nil {
		log.Error().
			Err(err).
			Str("engine", a.engine.Name()).
			Str("text", u.Text).
			Msg("failed to speak")
	}
}

// preemptLocked stops the pending timer and tells the engine to go quiet.
func (a *Announcer) preemptLocked() {
	if a.pending != nil {
		stopAndDrainTimer(a.pending.timer)
		close(a.pending.stop)
		a.pending = nil
	}
	if err := a.engine.Cancel(); err != nil {
		log.Warn().Err(err).Str("engine", a.engine.Name()).Msg("failed to cancel speech")
	}
}

func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
