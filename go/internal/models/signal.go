package models

// ControlSignal is a discrete device action reported by the keyboard service.
type ControlSignal string

const (
	ControlSignalNone        ControlSignal = "NONE"
	ControlSignalSubmit      ControlSignal = "SUBMIT"
	ControlSignalCursorLeft  ControlSignal = "CURSOR_LEFT"
	ControlSignalCursorRight ControlSignal = "CURSOR_RIGHT"
	ControlSignalDelete      ControlSignal = "DELETE"
	ControlSignalQuit        ControlSignal = "QUIT"
	ControlSignalRestart     ControlSignal = "RESTART"
)

// wireSignals maps the key names sent by the keyboard service.
var wireSignals = map[string]ControlSignal{
	"Enter":          ControlSignalSubmit,
	"Left":           ControlSignalCursorLeft,
	"Right":          ControlSignalCursorRight,
	"Back":           ControlSignalDelete,
	"Ctrl+Backspace": ControlSignalQuit,
	"Ctrl+Enter":     ControlSignalRestart,
	"Ctrl":           ControlSignalNone,
}

// ParseControlSignal converts a wire key name into a ControlSignal.
// The second return value is false for names that are not recognized;
// those map to ControlSignalNone.
func ParseControlSignal(raw string) (ControlSignal, bool) {
	if raw == "" {
		return ControlSignalNone, true
	}
	signal, ok := wireSignals[raw]
	if !ok {
		return ControlSignalNone, false
	}
	return signal, true
}

// IsNone reports whether the signal carries no action.
func (s ControlSignal) IsNone() bool {
	return s == "" || s == ControlSignalNone
}
