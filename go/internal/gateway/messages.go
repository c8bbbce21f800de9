package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType is the type of a message sent to display clients
type MessageType string

const (
	MessageTypeView     MessageType = "view"
	MessageTypeSpeak    MessageType = "speak"
	MessageTypeCancel   MessageType = "cancel"
	MessageTypeNavigate MessageType = "navigate"
)

// Message is the envelope for everything sent to display clients
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage marshals data into a message envelope
func NewMessage(msgType MessageType, data any) (*Message, error) {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Timestamp: time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s message: %w", msgType, err)
		}
		msg.Data = raw
	}
	return msg, nil
}

// NavigatePayload asks the display to load another screen
type NavigatePayload struct {
	Route string `json:"route"`
}

// ClientMessageType is the type of a command sent by a display client
type ClientMessageType string

const (
	ClientMessageNavigate ClientMessageType = "navigate"
	ClientMessageActivate ClientMessageType = "activate"
	ClientMessageEscape   ClientMessageType = "escape"
)

// ClientMessage is a command from a display client's keyboard
type ClientMessage struct {
	Type      ClientMessageType `json:"type"`
	Direction string            `json:"direction,omitempty"`
}
