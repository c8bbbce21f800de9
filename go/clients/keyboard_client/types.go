package keyboard_client

import (
	"github.com/mcdev12/braillechain/go/internal/models"
)

// Wire shapes. Pointer fields distinguish "absent" from zero values.

type bufferStateResponse struct {
	InputBuffer    []models.Cell `json:"input_buffer"`
	ControlSignal  *string       `json:"control_signal"`
	CursorPosition *int          `json:"cursor_position"`
	QuitGame       bool          `json:"quit_game"`
	RestartGame    bool          `json:"restart_game"`
	SignalSeq      *uint64       `json:"signal_seq"`
}

type bufferRequest struct {
	InputBuffer []models.Cell `json:"input_buffer"`
}

type translateResponse struct {
	TranslatedText      *string  `json:"translated_text"`
	TranslatedSyllables []string `json:"translated_syllables"`
	CursorPosition      *int     `json:"cursor_position"`
}

type submitResponse struct {
	Message      string  `json:"message"`
	Error        string  `json:"error"`
	ComputerWord *string `json:"computer_word"`
	GameOver     bool    `json:"game_over"`
}

type resetResponse struct {
	Message string `json:"message"`
}

// TranslateResult is the decoded reply of the translate endpoint.
type TranslateResult struct {
	Text      *string
	Syllables []string
	Cursor    *int
}

// Transcription builds the normalized transcription carried by the reply.
// fallbackCursor is used when the reply omits the cursor. ok is false when
// the reply carries neither text nor syllables.
func (r TranslateResult) Transcription(fallbackCursor int) (models.Transcription, bool) {
	cursor := fallbackCursor
	if r.Cursor != nil {
		cursor = *r.Cursor
	}
	switch {
	case r.Syllables != nil:
		return models.NewUnitTranscription(r.Syllables, cursor), true
	case r.Text != nil:
		return models.NewTextTranscription(*r.Text, cursor), true
	default:
		return models.Transcription{}, false
	}
}

// SubmitResult is the outcome of a word submission.
type SubmitResult struct {
	Accepted bool
	// Message is the server's confirmation text for an accepted word.
	Message string
	// Error is the rejection reason.
	Error string
	// OpponentWord is empty when the opponent had no reply.
	OpponentWord string
	GameOver     bool
}
