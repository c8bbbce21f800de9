package events

import (
	"time"
)

// Event types published by the game controller
const (
	EventTypeSessionStarted = "SessionStarted"
	EventTypeWordAccepted   = "WordAccepted"
	EventTypeWordRejected   = "WordRejected"
	EventTypeRoundOver      = "RoundOver"
	EventTypeSessionReset   = "SessionReset"
	EventTypeSessionQuit    = "SessionQuit"
)

// SessionStartedPayload is the payload for a SessionStarted event
type SessionStartedPayload struct {
	Locale    string    `json:"locale"`
	StartedAt time.Time `json:"started_at"`
}

// WordAcceptedPayload is the payload for a WordAccepted event
type WordAcceptedPayload struct {
	UserWord       string    `json:"user_word"`
	OpponentWord   string    `json:"opponent_word,omitempty"`
	TotalExchanges int       `json:"total_exchanges"`
	AcceptedAt     time.Time `json:"accepted_at"`
}

// WordRejectedPayload is the payload for a WordRejected event
type WordRejectedPayload struct {
	Word              string    `json:"word"`
	Reason            string    `json:"reason"`
	Counted           bool      `json:"counted"`
	IncorrectAttempts int       `json:"incorrect_attempts"`
	RejectedAt        time.Time `json:"rejected_at"`
}

// RoundOverPayload is the payload for a RoundOver event
type RoundOverPayload struct {
	Reason            string    `json:"reason"`
	IncorrectAttempts int       `json:"incorrect_attempts"`
	TotalExchanges    int       `json:"total_exchanges"`
	EndedAt           time.Time `json:"ended_at"`
}

// SessionResetPayload is the payload for a SessionReset event
type SessionResetPayload struct {
	ResetAt time.Time `json:"reset_at"`
}

// SessionQuitPayload is the payload for a SessionQuit event
type SessionQuitPayload struct {
	TotalExchanges int       `json:"total_exchanges"`
	QuitAt         time.Time `json:"quit_at"`
}
