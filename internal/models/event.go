package models

import "github.com/google/uuid"

// Event types pushed over live connections.
const (
	EventNewMessage  = "new_message"
	EventMessageRead = "message_read"
	EventPresence    = "presence"
)

// Event is the wire envelope for all live pushes. Exactly one payload field
// is set, selected by Type.
type Event struct {
	Type      string            `json:"type"`
	Message   *DecryptedMessage `json:"message,omitempty"`
	MessageID *uuid.UUID        `json:"message_id,omitempty"`
	Online    []uuid.UUID       `json:"online,omitempty"`
}
