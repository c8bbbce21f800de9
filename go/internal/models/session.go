package models

// MaxIncorrectAttempts is the number of counted rejections that ends a round.
const MaxIncorrectAttempts = 3

// Exchange is the most recent user word and the opponent's reply to it.
type Exchange struct {
	UserWord     string `json:"user_word"`
	OpponentWord string `json:"opponent_word"`
}

// SessionState holds the client-owned score counters for one round.
type SessionState struct {
	IncorrectAttempts int      `json:"incorrect_attempts"`
	TotalExchanges    int      `json:"total_exchanges"`
	LastExchange      Exchange `json:"last_exchange"`
	RoundOver         bool     `json:"round_over"`
}

// RoundOverReason explains why a round ended.
type RoundOverReason string

const (
	RoundOverReasonNone     RoundOverReason = ""
	RoundOverReasonAttempts RoundOverReason = "ATTEMPTS_EXHAUSTED"
	RoundOverReasonNoReply  RoundOverReason = "OPPONENT_EXHAUSTED"
)
