package speech

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Utterance is one message to speak in a given language.
type Utterance struct {
	Text        string `json:"text"`
	LanguageTag string `json:"lang"`
}

// Engine is a text-to-speech backend. Speak starts delivering the utterance
// and returns without waiting for playback to finish. Cancel stops whatever
// the engine is currently saying.
type Engine interface {
	Name() string
	Speak(ctx context.Context, u Utterance) error
	Cancel() error
}

// LogEngine only logs what would be spoken. It is the fallback when no audio
// backend is configured.
type LogEngine struct{}

func NewLogEngine() *LogEngine {
	return &LogEngine{}
}

func (e *LogEngine) Name() string { return "log" }

func (e *LogEngine) Speak(_ context.Context, u Utterance) error {
	log.Info().
		Str("lang", u.LanguageTag).
		Str("text", u.Text).
		Msg("speak")
	return nil
}

func (e *LogEngine) Cancel() error {
	log.Debug().Msg("speech cancelled")
	return nil
}
