// Package gateway is the display surface of the game: it pushes render
// snapshots, speech and navigation to WebSocket clients and feeds their
// keyboard commands back into the session.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/braillechain/go/internal/game"
	"github.com/mcdev12/braillechain/go/internal/navigation"
	"github.com/mcdev12/braillechain/go/internal/speech"
)

// Session is the game session driven from display clients
type Session interface {
	StateProvider
	Navigate(dir navigation.Direction)
	Activate(ctx context.Context)
	Escape(ctx context.Context)
}

// Service is the display gateway: it serves WebSocket clients, speaks
// through them and navigates them.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler

	mu     sync.RWMutex
	bound  Session
	extras []extraRoute
}

type extraRoute struct {
	pattern string
	handler http.Handler
}

// Config holds configuration for the display gateway
type Config struct {
	ConnectionConfig ConnectionConfig
}

// DefaultConfig returns default configuration for the display gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService creates a new display gateway
func NewService(config Config) *Service {
	s := &Service{
		connectionManager: NewConnectionManager(config.ConnectionConfig),
	}
	s.wsHandler = NewWebSocketHandler(s.connectionManager)
	s.stateHandler = NewStateHandler(s)
	s.connectionManager.SetClientHandler(s)
	s.connectionManager.SetGreeting(s.greeting)
	return s
}

// Bind attaches the session whose state is served and which receives
// client commands.
func (s *Service) Bind(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bound = session
}

func (s *Service) session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bound
}

// Start processes broadcasts until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting display gateway")
	s.connectionManager.Start(ctx)
	log.Info().Msg("display gateway stopped")
	return nil
}

// RegisterRoutes registers the WebSocket and state HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)

	s.mu.RLock()
	for _, r := range s.extras {
		mux.Handle(r.pattern, r.handler)
	}
	s.mu.RUnlock()
	log.Info().Msg("display gateway routes registered")
}

// Handle adds a route served next to the gateway's own. It must be called
// before RegisterRoutes.
func (s *Service) Handle(pattern string, handler http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extras = append(s.extras, extraRoute{pattern: pattern, handler: handler})
}

// GetStats returns statistics about the gateway
func (s *Service) GetStats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}

// PublishView pushes a render snapshot to every display
func (s *Service) PublishView(view game.View) {
	s.broadcast(MessageTypeView, view)
}

// HandleClientMessage routes a display client's command into the session
func (s *Service) HandleClientMessage(ctx context.Context, msg ClientMessage) {
	session := s.session()
	if session == nil {
		return
	}

	switch msg.Type {
	case ClientMessageNavigate:
		dir := navigation.Direction(msg.Direction)
		if dir != navigation.DirectionLeft && dir != navigation.DirectionRight {
			log.Warn().Str("direction", msg.Direction).Msg("ignoring navigate with unknown direction")
			return
		}
		session.Navigate(dir)
	case ClientMessageActivate:
		session.Activate(ctx)
	case ClientMessageEscape:
		session.Escape(ctx)
	default:
		log.Warn().Str("type", string(msg.Type)).Msg("ignoring unknown client message")
	}
}

func (s *Service) Name() string { return "gateway" }

// Speak asks connected displays to speak u
func (s *Service) Speak(_ context.Context, u speech.Utterance) error {
	return s.broadcast(MessageTypeSpeak, u)
}

// Cancel asks connected displays to stop speaking
func (s *Service) Cancel() error {
	return s.broadcast(MessageTypeCancel, nil)
}

// GoTo asks connected displays to load route
func (s *Service) GoTo(_ context.Context, route string) error {
	return s.broadcast(MessageTypeNavigate, NavigatePayload{Route: route})
}

func (s *Service) broadcast(msgType MessageType, data any) error {
	msg, err := NewMessage(msgType, data)
	if err != nil {
		log.Error().Err(err).Msg("failed to build gateway message")
		return fmt.Errorf("broadcast %s: %w", msgType, err)
	}
	s.connectionManager.Broadcast(msg)
	return nil
}

func (s *Service) greeting() (*Message, error) {
	session := s.session()
	if session == nil {
		return nil, fmt.Errorf("no session bound")
	}
	return NewMessage(MessageTypeView, session.View())
}
