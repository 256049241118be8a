package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is the stored form of a direct message. The body is kept encrypted
// at rest; ciphertext, nonce and auth tag are either all present (textual
// content) or all absent (attachment-only message).
type Message struct {
	ID            uuid.UUID `json:"id"`
	SenderID      uuid.UUID `json:"sender_id"`
	RecipientID   uuid.UUID `json:"recipient_id"`
	Ciphertext    []byte    `json:"-"`
	Nonce         []byte    `json:"-"`
	AuthTag       []byte    `json:"-"`
	AttachmentURL *string   `json:"attachment_url,omitempty"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasContent reports whether the message carries an encrypted text body.
func (m *Message) HasContent() bool {
	return len(m.Ciphertext) > 0
}

// DecryptedMessage is the client-facing form of a message: same record with
// the body decrypted. Ciphertext never leaves the service.
type DecryptedMessage struct {
	ID            uuid.UUID `json:"id"`
	SenderID      uuid.UUID `json:"sender_id"`
	RecipientID   uuid.UUID `json:"recipient_id"`
	Content       *string   `json:"content,omitempty"`
	AttachmentURL *string   `json:"attachment_url,omitempty"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}
