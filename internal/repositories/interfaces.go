package repositories

import (
	"context"
	"time"

	"github.com/campuslink/chatcore/internal/models"
	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	Conversation(ctx context.Context, userA, userB uuid.UUID) ([]*models.Message, error)
	LatestPerPeer(ctx context.Context, userID uuid.UUID, peerIDs []uuid.UUID) (map[uuid.UUID]*models.Message, error)
	MarkRead(ctx context.Context, id uuid.UUID) (*models.Message, error)
}

// PeerRepository is the read-only view onto the social graph. The messaging
// core trusts the accepted set completely and adds no authorization of its own.
type PeerRepository interface {
	ListAccepted(ctx context.Context, userID uuid.UUID) ([]models.Peer, error)
}

type LastSeenRepository interface {
	Touch(ctx context.Context, userID uuid.UUID) error
	GetBulk(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]time.Time, error)
}
