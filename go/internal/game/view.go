package game

import (
	"github.com/mcdev12/braillechain/go/internal/models"
	"github.com/mcdev12/braillechain/go/internal/navigation"
)

// TranscriptionView is the transcription as rendered.
type TranscriptionView struct {
	Text     string          `json:"text"`
	Cursor   int             `json:"cursor"`
	Segments models.Segments `json:"segments"`
}

// View is the full render snapshot of a session.
type View struct {
	SessionID       string                 `json:"session_id"`
	Locale          string                 `json:"locale"`
	LanguageTag     string                 `json:"language_tag"`
	Transcription   TranscriptionView      `json:"transcription"`
	State           models.SessionState    `json:"state"`
	RoundOverReason models.RoundOverReason `json:"round_over_reason,omitempty"`
	Score           string                 `json:"score"`
	Result          string                 `json:"result"`
	Status          string                 `json:"status"`
	Focus           navigation.State       `json:"focus"`
	Submitting      bool                   `json:"submitting"`
	Restarting      bool                   `json:"restarting"`
	Ended           bool                   `json:"ended"`
}

// View builds the current snapshot.
func (c *Controller) View() View {
	tr := c.transcriber.Current()
	sub := c.submission.Snapshot()

	c.mu.Lock()
	sessionID := c.sessionID
	restarting := c.restarting
	ended := c.ended
	c.mu.Unlock()

	return View{
		SessionID:   sessionID.String(),
		Locale:      c.locale.Name,
		LanguageTag: c.locale.LanguageTag,
		Transcription: TranscriptionView{
			Text:     tr.Text(),
			Cursor:   tr.Cursor,
			Segments: tr.Segments(),
		},
		State:           sub.State,
		RoundOverReason: sub.RoundOverReason,
		Score:           c.locale.ScoreLine(sub.State.IncorrectAttempts, sub.State.TotalExchanges),
		Result:          sub.Result,
		Status:          sub.Status,
		Focus:           c.nav.State(),
		Submitting:      sub.InFlight,
		Restarting:      restarting,
		Ended:           ended,
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	observers := append([]func(View){}, c.observers...)
	c.mu.Unlock()
	if len(observers) == 0 {
		return
	}

	view := c.View()
	for _, fn := range observers {
		fn(view)
	}
}
