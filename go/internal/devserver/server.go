// Package devserver is an in-memory keyboard service for local runs and
// integration tests. It serves the same routes as the device service,
// consumes control signals the way the device service does and validates
// words with a pluggable Validator.
package devserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/braillechain/go/clients/keyboard_client"
	"github.com/mcdev12/braillechain/go/internal/locale"
	"github.com/mcdev12/braillechain/go/internal/models"
)

// Wire key names
const (
	KeyEnter         = "Enter"
	KeyLeft          = "Left"
	KeyRight         = "Right"
	KeyBack          = "Back"
	KeyCtrl          = "Ctrl"
	KeyCtrlBackspace = "Ctrl+Backspace"
	KeyCtrlEnter     = "Ctrl+Enter"
)

type Config struct {
	Profile   locale.Endpoints
	Validator Validator
	// SignalSeq numbers reported signals so clients can tell repeats apart.
	SignalSeq bool
}

type queuedSignal struct {
	name string
	seq  uint64
}

type Server struct {
	config Config

	mu      sync.Mutex
	buffer  []models.Cell
	cursor  int
	queue   []queuedSignal
	nextSeq uint64
	history []string
}

func NewServer(config Config) *Server {
	if config.Validator == nil {
		config.Validator = NewWordChain(3)
	}
	return &Server{config: config}
}

// NewServerForLocale serves loc's endpoint profile with a word-chain
// validator using loc's minimum word length.
func NewServerForLocale(loc locale.Locale, signalSeq bool) *Server {
	return NewServer(Config{
		Profile:   loc.Endpoints,
		Validator: NewWordChain(loc.MinWordLength),
		SignalSeq: signalSeq,
	})
}

// Type inserts cells at the cursor.
func (s *Server) Type(cells ...models.Cell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]models.Cell, 0, len(s.buffer)+len(cells))
	buf = append(buf, s.buffer[:s.cursor]...)
	buf = append(buf, cells...)
	buf = append(buf, s.buffer[s.cursor:]...)
	s.buffer = buf
	s.cursor += len(cells)
}

func (s *Server) TypeWord(word string) {
	s.Type(Encode(word)...)
}

// Press queues a control key.
func (s *Server) Press(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	s.queue = append(s.queue, queuedSignal{name: key, seq: s.nextSeq})
}

func (s *Server) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history...)
}

// Buffer returns a copy of the cell buffer and the cursor.
func (s *Server) Buffer() ([]models.Cell, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Cell(nil), s.buffer...), s.cursor
}

// Pending returns the number of queued control keys.
func (s *Server) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	prefix := s.config.Profile.Prefix
	mux.HandleFunc("GET "+prefix+keyboard_client.BufferStateEndpoint, s.handleBufferState)
	mux.HandleFunc("POST "+prefix+keyboard_client.TranslateEndpoint, s.handleTranslate)
	mux.HandleFunc("POST "+prefix+keyboard_client.SubmitWordEndpoint, s.handleSubmit)
	mux.HandleFunc("POST "+prefix+keyboard_client.ResetEndpoint, s.handleReset)
}

type bufferStateResponse struct {
	InputBuffer    []models.Cell `json:"input_buffer"`
	CursorPosition int           `json:"cursor_position"`
	ControlSignal  *string       `json:"control_signal"`
	QuitGame       bool          `json:"quit_game"`
	RestartGame    bool          `json:"restart_game"`
	SignalSeq      *uint64       `json:"signal_seq,omitempty"`
}

// handleBufferState reports the head of the signal queue and applies it.
// Enter stays queued until a submission consumes it, unless the buffer is
// empty and there is nothing to submit.
func (s *Server) handleBufferState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var resp bufferStateResponse
	if len(s.queue) > 0 {
		head := s.queue[0]
		name := head.name
		resp.ControlSignal = &name
		if s.config.SignalSeq {
			seq := head.seq
			resp.SignalSeq = &seq
		}

		consume := true
		switch name {
		case KeyLeft:
			if s.cursor > 0 {
				s.cursor--
			}
		case KeyRight:
			if s.cursor < len(s.buffer) {
				s.cursor++
			}
		case KeyBack:
			if s.cursor > 0 {
				s.buffer = append(s.buffer[:s.cursor-1], s.buffer[s.cursor:]...)
				s.cursor--
			}
		case KeyCtrlBackspace:
			resp.QuitGame = true
		case KeyCtrlEnter:
			resp.RestartGame = true
		case KeyEnter:
			consume = len(s.buffer) == 0
		case KeyCtrl:
		default:
			log.Warn().Str("control_signal", name).Msg("unhandled control signal")
		}
		if consume {
			s.queue = s.queue[1:]
		}
	}
	resp.InputBuffer = append(make([]models.Cell, 0, len(s.buffer)), s.buffer...)
	resp.CursorPosition = s.cursor
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

type bufferRequest struct {
	InputBuffer []models.Cell `json:"input_buffer"`
}

// requestBuffer returns the buffer a request operates on: the posted one
// when the profile sends buffers, the server's own otherwise.
func (s *Server) requestBuffer(r *http.Request) ([]models.Cell, error) {
	if !s.config.Profile.SendBuffer {
		buffer, _ := s.Buffer()
		return buffer, nil
	}
	var req bufferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return req.InputBuffer, nil
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	buffer, err := s.requestBuffer(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	_, cursor := s.Buffer()
	text := Decode(buffer)
	writeJSON(w, http.StatusOK, map[string]any{
		"translated_text": text,
		"cursor_position": min(cursor, len([]rune(text))),
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	buffer, err := s.requestBuffer(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var signal string
	if len(s.queue) > 0 {
		signal = s.queue[0].name
		s.queue = s.queue[1:]
	}
	if signal != KeyEnter {
		writeError(w, http.StatusBadRequest, "No Enter signal detected.")
		return
	}

	word := Decode(buffer)
	if word == "" {
		writeError(w, http.StatusBadRequest, "Braille translation failed.")
		return
	}
	s.buffer = nil
	s.cursor = 0

	if err := s.config.Validator.Check(word, s.history); err != nil {
		log.Info().Str("word", word).Err(err).Msg("invalid word submitted")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.history = append(s.history, word)

	resp := map[string]any{"message": "Valid word", "computer_word": nil}
	if next, ok := s.config.Validator.NextWord(s.history); ok {
		s.history = append(s.history, next)
		resp["computer_word"] = next
	} else {
		resp["game_over"] = true
	}
	resp["history"] = append([]string(nil), s.history...)
	log.Info().Str("word", word).Interface("computer_word", resp["computer_word"]).Msg("valid word submitted")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.buffer = nil
	s.cursor = 0
	s.queue = nil
	s.history = nil
	s.mu.Unlock()

	log.Info().Msg("game reset")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Game has been reset."})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
