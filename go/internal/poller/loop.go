// Package poller reads the keyboard service's buffer state on a fixed
// interval.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/braillechain/go/internal/models"
)

type Config struct {
	Interval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval: 500 * time.Millisecond,
	}
}

type BufferReader interface {
	GetBufferState(ctx context.Context) (*models.BufferState, error)
}

// Handler consumes one successful poll.
type Handler interface {
	HandleBufferState(ctx context.Context, state *models.BufferState)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, state *models.BufferState)

func (f HandlerFunc) HandleBufferState(ctx context.Context, state *models.BufferState) {
	f(ctx, state)
}

// Loop issues one poll cycle per tick. Cycles run on their own goroutines
// so a slow service never delays the next tick. Each cycle is numbered when
// issued and a reply is dropped once a later-issued cycle was delivered.
type Loop struct {
	reader  BufferReader
	handler Handler
	clock   clockwork.Clock
	config  Config

	mu        sync.Mutex
	running   bool
	stopChan  chan struct{}
	wg        sync.WaitGroup
	cycles    sync.WaitGroup
	stats     Stats
	issued    uint64
	delivered uint64

	// deliverMu serializes handler calls with the delivered check.
	deliverMu sync.Mutex
}

// Stats counts poll outcomes since the loop was created.
type Stats struct {
	Polls               uint64    `json:"polls"`
	Failures            uint64    `json:"failures"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastPollTime        time.Time `json:"last_poll_time"`
}

func NewLoop(reader BufferReader, handler Handler, cfg Config) *Loop {
	return NewLoopWithClock(reader, handler, cfg, clockwork.NewRealClock())
}

func NewLoopWithClock(reader BufferReader, handler Handler, cfg Config, clock clockwork.Clock) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Loop{
		reader:  reader,
		handler: handler,
		clock:   clock,
		config:  cfg,
	}
}

func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("poll loop already running")
	}
	l.running = true
	l.stopChan = make(chan struct{})
	stop := l.stopChan
	l.mu.Unlock()

	l.wg.Add(1)
	go l.run(ctx, stop)

	log.Info().Dur("interval", l.config.Interval).Msg("poll loop started")
	return nil
}

// Stop halts the ticker and waits for in-flight cycles to finish. It is
// safe to call from inside a cycle.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return fmt.Errorf("poll loop not running")
	}
	l.running = false
	close(l.stopChan)
	l.mu.Unlock()

	l.wg.Wait()
	log.Info().Msg("poll loop stopped")
	return nil
}

// Wait blocks until every started cycle has finished.
func (l *Loop) Wait() {
	l.cycles.Wait()
}

func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) run(ctx context.Context, stop <-chan struct{}) {
	defer l.wg.Done()

	ticker := l.clock.NewTicker(l.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.Chan():
			l.mu.Lock()
			l.issued++
			seq := l.issued
			l.mu.Unlock()

			l.cycles.Add(1)
			go func() {
				defer l.cycles.Done()
				l.cycle(ctx, seq)
			}()
		}
	}
}

func (l *Loop) cycle(ctx context.Context, seq uint64) {
	state, err := l.reader.GetBufferState(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		l.mu.Lock()
		l.stats.Failures++
		l.stats.ConsecutiveFailures++
		failures := l.stats.ConsecutiveFailures
		l.mu.Unlock()
		log.Error().Err(err).Int("consecutive_failures", failures).Msg("failed to poll buffer state")
		return
	}

	l.mu.Lock()
	l.stats.Polls++
	l.stats.ConsecutiveFailures = 0
	l.stats.LastPollTime = l.clock.Now()
	l.mu.Unlock()

	l.deliverMu.Lock()
	defer l.deliverMu.Unlock()

	l.mu.Lock()
	running := l.running
	delivered := l.delivered
	if running && seq > delivered {
		l.delivered = seq
	}
	l.mu.Unlock()
	if !running {
		return
	}
	if seq <= delivered {
		log.Debug().Uint64("seq", seq).Uint64("delivered", delivered).Msg("dropping stale poll reply")
		return
	}
	l.handler.HandleBufferState(ctx, state)
}
