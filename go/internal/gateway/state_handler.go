package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/braillechain/go/internal/game"
)

// StateProvider supplies the current render snapshot
type StateProvider interface {
	View() game.View
}

// StateHandler handles HTTP requests for the game state
type StateHandler struct {
	service *Service
}

// NewStateHandler creates a new state handler
func NewStateHandler(service *Service) *StateHandler {
	return &StateHandler{
		service: service,
	}
}

// HandleGetState handles GET /api/state
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := h.service.session()
	if session == nil {
		http.Error(w, "No active session", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(session.View()); err != nil {
		log.Error().Err(err).Msg("failed to encode state response")
	}
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", h.HandleGetState)
}
