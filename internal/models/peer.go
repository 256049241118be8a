package models

import (
	"time"

	"github.com/google/uuid"
)

// Peer is the identity summary of an accepted connection, as supplied by the
// social-graph collaborator. This core never decides who may message whom.
type Peer struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
}

// ChatPreview is one row of the aggregated chat list: a peer plus the most
// recent message exchanged with them, if any.
type ChatPreview struct {
	Peer          Peer       `json:"peer"`
	Preview       *string    `json:"preview"`
	LastMessageAt *time.Time `json:"last_message_at"`
	Online        bool       `json:"online"`
	LastSeen      *time.Time `json:"last_seen,omitempty"`
}
