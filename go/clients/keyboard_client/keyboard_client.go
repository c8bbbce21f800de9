package keyboard_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/braillechain/go/clients"
	"github.com/mcdev12/braillechain/go/internal/locale"
	"github.com/mcdev12/braillechain/go/internal/models"
)

// KeyboardClient talks to the braille keyboard service for one locale.
type KeyboardClient struct {
	*clients.BaseClient
	profile locale.Endpoints
}

func NewKeyboardClient(baseURL string, profile locale.Endpoints) *KeyboardClient {
	return &KeyboardClient{
		BaseClient: clients.NewBaseClient(strings.TrimRight(baseURL, "/")),
		profile:    profile,
	}
}

// NewKeyboardClientWithTimeout is NewKeyboardClient with a transport timeout.
func NewKeyboardClientWithTimeout(baseURL string, profile locale.Endpoints, timeout time.Duration) *KeyboardClient {
	c := NewKeyboardClient(baseURL, profile)
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

func (c *KeyboardClient) route(endpoint string) string {
	return c.profile.Prefix + endpoint
}

// GetBufferState polls the current cell buffer, cursor and control signal.
func (c *KeyboardClient) GetBufferState(ctx context.Context) (*models.BufferState, error) {
	body, err := c.Get(ctx, c.route(BufferStateEndpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to get buffer state: %w", err)
	}

	var resp bufferStateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode buffer state: %w", err)
	}

	state := &models.BufferState{
		InputBuffer:      resp.InputBuffer,
		ControlSignal:    models.ControlSignalNone,
		QuitRequested:    resp.QuitGame,
		RestartRequested: resp.RestartGame,
		SignalSeq:        resp.SignalSeq,
	}
	if resp.CursorPosition != nil {
		state.CursorPosition = *resp.CursorPosition
	}
	if resp.ControlSignal != nil {
		signal, ok := models.ParseControlSignal(*resp.ControlSignal)
		if !ok {
			log.Warn().Str("control_signal", *resp.ControlSignal).Msg("unknown control signal, treating as none")
		}
		state.ControlSignal = signal
	}
	return state, nil
}

// Translate asks the service to transcribe buffer.
func (c *KeyboardClient) Translate(ctx context.Context, buffer []models.Cell) (*TranslateResult, error) {
	body, err := c.PostJSON(ctx, c.route(TranslateEndpoint), c.bufferPayload(buffer))
	if err != nil {
		return nil, fmt.Errorf("failed to translate buffer: %w", err)
	}

	var resp translateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode translation: %w", err)
	}
	return &TranslateResult{
		Text:      resp.TranslatedText,
		Syllables: resp.TranslatedSyllables,
		Cursor:    resp.CursorPosition,
	}, nil
}

// SubmitWord submits the current buffer as the user's word. A 4xx reply
// carrying an error message is a rejection, not a failure.
func (c *KeyboardClient) SubmitWord(ctx context.Context, buffer []models.Cell) (*SubmitResult, error) {
	body, err := c.PostJSON(ctx, c.route(SubmitWordEndpoint), c.bufferPayload(buffer))
	if err != nil {
		if rejection, ok := decodeRejection(err); ok {
			return rejection, nil
		}
		return nil, fmt.Errorf("failed to submit word: %w", err)
	}

	var resp submitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode submission result: %w", err)
	}
	if resp.Error != "" {
		return &SubmitResult{Error: resp.Error}, nil
	}

	result := &SubmitResult{
		Accepted: true,
		Message:  resp.Message,
		GameOver: resp.GameOver,
	}
	if resp.ComputerWord != nil {
		result.OpponentWord = strings.TrimSpace(*resp.ComputerWord)
	}
	return result, nil
}

// Reset clears the server-side word history and cell buffer.
func (c *KeyboardClient) Reset(ctx context.Context) (string, error) {
	body, err := c.PostJSON(ctx, c.route(ResetEndpoint), struct{}{})
	if err != nil {
		return "", fmt.Errorf("failed to reset game: %w", err)
	}

	var resp resetResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to decode reset result: %w", err)
		}
	}
	return resp.Message, nil
}

func (c *KeyboardClient) bufferPayload(buffer []models.Cell) any {
	if !c.profile.SendBuffer {
		return struct{}{}
	}
	if buffer == nil {
		buffer = []models.Cell{}
	}
	return bufferRequest{InputBuffer: buffer}
}

func decodeRejection(err error) (*SubmitResult, bool) {
	apiErr, ok := clients.AsAPIError(err)
	if !ok || apiErr.StatusCode < http.StatusBadRequest || apiErr.StatusCode >= http.StatusInternalServerError {
		return nil, false
	}
	var resp submitResponse
	if jsonErr := json.Unmarshal(apiErr.Body, &resp); jsonErr != nil || resp.Error == "" {
		return nil, false
	}
	return &SubmitResult{Error: resp.Error}, true
}
