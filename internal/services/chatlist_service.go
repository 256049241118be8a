package services

import (
	"context"
	"sort"
	"time"

	"github.com/campuslink/chatcore/internal/crypto"
	"github.com/campuslink/chatcore/internal/models"
	"github.com/campuslink/chatcore/internal/presence"
	"github.com/campuslink/chatcore/internal/repositories"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ChatListService assembles the per-peer conversation list: one row per
// accepted peer, carrying the decrypted preview of the most recent message
// exchanged with them. Peers appear even without history; they reflect
// "connected", not "has chatted".
type ChatListService struct {
	peers    repositories.PeerRepository
	messages repositories.MessageRepository
	lastSeen repositories.LastSeenRepository
	registry *presence.Registry
	codec    *crypto.Codec
	log      *logrus.Logger
}

func NewChatListService(
	peers repositories.PeerRepository,
	messages repositories.MessageRepository,
	lastSeen repositories.LastSeenRepository,
	registry *presence.Registry,
	codec *crypto.Codec,
	log *logrus.Logger,
) *ChatListService {
	return &ChatListService{
		peers:    peers,
		messages: messages,
		lastSeen: lastSeen,
		registry: registry,
		codec:    codec,
		log:      log,
	}
}

func (s *ChatListService) ChatList(ctx context.Context, userID uuid.UUID) ([]models.ChatPreview, error) {
	peers, err := s.peers.ListAccepted(ctx, userID)
	if err != nil {
		return nil, err
	}

	peerIDs := make([]uuid.UUID, len(peers))
	for i, peer := range peers {
		peerIDs[i] = peer.ID
	}

	latest, err := s.messages.LatestPerPeer(ctx, userID, peerIDs)
	if err != nil {
		return nil, err
	}

	// Last-seen is a supplement; a redis hiccup degrades it, never the list.
	seen := map[uuid.UUID]time.Time{}
	if s.lastSeen != nil {
		seen, err = s.lastSeen.GetBulk(ctx, peerIDs)
		if err != nil {
			s.log.WithError(err).Warn("failed to load last-seen times for chat list")
			seen = map[uuid.UUID]time.Time{}
		}
	}

	previews := make([]models.ChatPreview, 0, len(peers))
	for _, peer := range peers {
		preview := models.ChatPreview{Peer: peer}

		if _, online := s.registry.Lookup(peer.ID); online {
			preview.Online = true
		}
		if ts, ok := seen[peer.ID]; ok {
			lastSeen := ts
			preview.LastSeen = &lastSeen
		}

		if message, ok := latest[peer.ID]; ok {
			text := s.previewText(message)
			preview.Preview = &text
			createdAt := message.CreatedAt
			preview.LastMessageAt = &createdAt
		}

		previews = append(previews, preview)
	}

	// Most recent conversation first; peers with no history sort last. The
	// sort is stable, so historyless peers keep the directory's name order.
	sort.SliceStable(previews, func(i, j int) bool {
		a, b := previews[i].LastMessageAt, previews[j].LastMessageAt
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})

	return previews, nil
}

// previewText renders the most recent message for list display. A corrupt
// envelope must not break the list: it is logged and masked.
func (s *ChatListService) previewText(message *models.Message) string {
	if !message.HasContent() {
		return PlaceholderAttachment
	}

	plaintext, err := s.codec.Open(&crypto.Envelope{
		Ciphertext: message.Ciphertext,
		Nonce:      message.Nonce,
		AuthTag:    message.AuthTag,
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"message_id": message.ID,
			"error":      err,
		}).Error("chat list preview failed integrity check, masking with placeholder")
		return PlaceholderUndecryptable
	}
	return plaintext
}
