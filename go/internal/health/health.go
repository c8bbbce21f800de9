// Package health reports whether the client is still talking to the
// keyboard service and its event broker.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/braillechain/go/internal/poller"
)

type Status struct {
	Healthy             bool      `json:"healthy"`
	PollerRunning       bool      `json:"poller_running"`
	Polls               uint64    `json:"polls"`
	PollFailures        uint64    `json:"poll_failures"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastPollTime        time.Time `json:"last_poll_time"`
	NATSConfigured      bool      `json:"nats_configured"`
	NATSConnected       bool      `json:"nats_connected"`
	DisplayConnections  int       `json:"display_connections"`
	Errors              []string  `json:"errors"`
}

type HealthChecker interface {
	Check(ctx context.Context) Status
}

// LoopStats is the view of the poll loop the checker needs.
type LoopStats interface {
	Running() bool
	Stats() poller.Stats
}

// Connectivity is implemented by event publishers with a live connection.
type Connectivity interface {
	Connected() bool
}

type Config struct {
	// MaxConsecutiveFailures is how many failed polls in a row make the
	// client unhealthy.
	MaxConsecutiveFailures int
	// StaleAfter is how long without a successful poll before unhealthy.
	StaleAfter time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxConsecutiveFailures: 5,
		StaleAfter:             10 * time.Second,
	}
}

type Checker struct {
	loop        LoopStats
	events      Connectivity
	connections func() int
	config      Config
	clock       clockwork.Clock
}

// NewChecker builds a checker. events and connections may be nil.
func NewChecker(loop LoopStats, events Connectivity, connections func() int, config Config) *Checker {
	return NewCheckerWithClock(loop, events, connections, config, clockwork.NewRealClock())
}

func NewCheckerWithClock(loop LoopStats, events Connectivity, connections func() int, config Config, clock clockwork.Clock) *Checker {
	return &Checker{
		loop:        loop,
		events:      events,
		connections: connections,
		config:      config,
		clock:       clock,
	}
}

func (c *Checker) Check(ctx context.Context) Status {
	status := Status{
		Healthy: true,
		Errors:  []string{},
	}

	stats := c.loop.Stats()
	status.PollerRunning = c.loop.Running()
	status.Polls = stats.Polls
	status.PollFailures = stats.Failures
	status.ConsecutiveFailures = stats.ConsecutiveFailures
	status.LastPollTime = stats.LastPollTime

	if !status.PollerRunning {
		status.Healthy = false
		status.Errors = append(status.Errors, "poll loop not active")
	}
	if c.config.MaxConsecutiveFailures > 0 && stats.ConsecutiveFailures >= c.config.MaxConsecutiveFailures {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("keyboard service unreachable: %d consecutive failed polls", stats.ConsecutiveFailures))
	}
	if status.PollerRunning && !stats.LastPollTime.IsZero() && c.config.StaleAfter > 0 {
		if since := c.clock.Since(stats.LastPollTime); since > c.config.StaleAfter {
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("no successful poll for %s", since))
		}
	}

	if c.events != nil {
		status.NATSConfigured = true
		status.NATSConnected = c.events.Connected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	if c.connections != nil {
		status.DisplayConnections = c.connections()
	}
	return status
}

// ServeHTTP writes the status as JSON, with 503 when unhealthy.
func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := c.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to encode health status")
	}
}
