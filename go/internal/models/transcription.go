package models

import (
	"slices"
	"strings"
	"unicode"
)

// Transcription is the translated cell buffer split into orthographic units
// (one rune per unit for plain text, one syllable block per unit when the
// service reports syllables) together with the caret position.
type Transcription struct {
	Units  []string `json:"units"`
	Cursor int      `json:"cursor"`
}

// Segments is the rendering split of a transcription around the caret.
type Segments struct {
	Before      string `json:"before"`
	Highlighted string `json:"highlighted"`
	After       string `json:"after"`
}

// NewTextTranscription normalizes text and clamps cursor into [0, len].
func NewTextTranscription(text string, cursor int) Transcription {
	normalized := NormalizeText(text)
	units := make([]string, 0, len(normalized))
	for _, r := range normalized {
		units = append(units, string(r))
	}
	return Transcription{Units: units, Cursor: clampCursor(cursor, len(units))}
}

// NewUnitTranscription normalizes each unit, drops empty ones and collapses
// separator units, then clamps cursor into [0, len].
func NewUnitTranscription(units []string, cursor int) Transcription {
	cleaned := normalizeUnits(units)
	return Transcription{Units: cleaned, Cursor: clampCursor(cursor, len(cleaned))}
}

// Text returns the display text.
func (t Transcription) Text() string {
	return strings.Join(t.Units, "")
}

// Len returns the number of units.
func (t Transcription) Len() int {
	return len(t.Units)
}

func (t Transcription) IsEmpty() bool {
	return len(t.Units) == 0
}

// caretIndex is the unit under the caret. A caret past the last unit rests
// on the last unit.
func (t Transcription) caretIndex() int {
	if len(t.Units) == 0 {
		return -1
	}
	if t.Cursor >= len(t.Units) {
		return len(t.Units) - 1
	}
	return t.Cursor
}

// CaretUnit returns the unit under the caret, or "" for an empty transcription.
func (t Transcription) CaretUnit() string {
	idx := t.caretIndex()
	if idx < 0 {
		return ""
	}
	return t.Units[idx]
}

// Segments splits the text into the parts before, under and after the caret.
func (t Transcription) Segments() Segments {
	idx := t.caretIndex()
	if idx < 0 {
		return Segments{}
	}
	return Segments{
		Before:      strings.Join(t.Units[:idx], ""),
		Highlighted: t.Units[idx],
		After:       strings.Join(t.Units[idx+1:], ""),
	}
}

func (t Transcription) Equal(other Transcription) bool {
	return t.Cursor == other.Cursor && slices.Equal(t.Units, other.Units)
}

// NormalizeText strips control and newline characters, collapses runs of
// whitespace into a single space and trims both ends.
func NormalizeText(s string) string {
	var b strings.Builder
	pendingSpace := false
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			continue
		case unicode.IsSpace(r):
			pendingSpace = true
			continue
		case unicode.IsControl(r) || unicode.Is(unicode.Cf, r):
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func normalizeUnits(units []string) []string {
	out := make([]string, 0, len(units))
	pendingSpace := false
	for _, u := range units {
		n := NormalizeText(u)
		if n == "" {
			if strings.IndexFunc(u, isSeparator) >= 0 {
				pendingSpace = true
			}
			continue
		}
		if pendingSpace && len(out) > 0 {
			out = append(out, " ")
		}
		pendingSpace = false
		out = append(out, n)
	}
	return out
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) && r != '\n' && r != '\r'
}

func clampCursor(cursor, length int) int {
	if cursor < 0 {
		return 0
	}
	if cursor > length {
		return length
	}
	return cursor
}
