package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Cell is one raw braille cell as reported by the keyboard. The hardware
// keyboard reports cells as 6-bit strings ("101000"); the mock keyboard
// reports integers. Both decode into the same value.
type Cell uint8

func (c *Cell) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if n < 0 || n > 0xFF {
			return fmt.Errorf("cell value out of range: %d", n)
		}
		*c = Cell(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cell must be an integer or a bit string: %s", string(data))
	}
	s = strings.TrimSpace(s)
	v, err := strconv.ParseUint(s, 2, 8)
	if err != nil {
		return fmt.Errorf("invalid cell bit string %q: %w", s, err)
	}
	*c = Cell(v)
	return nil
}

// MarshalJSON writes the cell in the hardware bit-string form.
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("%06b", uint8(c)))
}

// BufferState is one poll of the keyboard service.
type BufferState struct {
	InputBuffer      []Cell        `json:"input_buffer"`
	ControlSignal    ControlSignal `json:"control_signal"`
	CursorPosition   int           `json:"cursor_position"`
	QuitRequested    bool          `json:"quit_game"`
	RestartRequested bool          `json:"restart_game"`
	// SignalSeq is set when the service numbers signal occurrences.
	SignalSeq *uint64 `json:"signal_seq,omitempty"`
}
