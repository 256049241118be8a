package realtime

import (
	"context"
	"net/http"

	"github.com/campuslink/chatcore/internal/models"
	"github.com/campuslink/chatcore/internal/presence"
	"github.com/campuslink/chatcore/internal/repositories"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Hub owns the live-connection lifecycle: websocket handshake, presence
// registration, roster broadcast and targeted event delivery. Everything it
// does is best-effort; stored state never depends on it.
type Hub struct {
	registry *presence.Registry
	lastSeen repositories.LastSeenRepository
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

func NewHub(registry *presence.Registry, lastSeen repositories.LastSeenRepository, log *logrus.Logger) *Hub {
	return &Hub{
		registry: registry,
		lastSeen: lastSeen,
		upgrader: websocket.Upgrader{
			// Browser clients connect cross-origin from the campus frontends
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// ServeWS is the live-connection handshake. The client supplies its user id
// as a query parameter; without one the socket is served but never registered,
// so it receives no targeted events.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := newClient(conn)
	defer conn.Close()

	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	registered := err == nil && userID != uuid.Nil
	if registered {
		if replaced := h.registry.Register(userID, client); replaced != nil {
			// Last connection wins; shut the stale socket so its reader exits
			replaced.Close()
		}
		h.touchLastSeen(r.Context(), userID)
		h.BroadcastRoster()
		h.log.WithField("user_id", userID).Debug("live connection registered")
	}

	// The protocol is push-only; the read loop exists to detect disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	if gone, ok := h.registry.Unregister(client); ok {
		h.touchLastSeen(context.Background(), gone)
		h.BroadcastRoster()
		h.log.WithField("user_id", gone).Debug("live connection closed")
	}
}

// NotifyNewMessage delivers a decrypted one-shot copy of a freshly persisted
// message to whichever of sender and recipient is online, then refreshes
// everyone's roster view.
func (h *Hub) NotifyNewMessage(message *models.DecryptedMessage) {
	event := models.Event{Type: models.EventNewMessage, Message: message}
	h.sendTo(message.SenderID, event)
	h.sendTo(message.RecipientID, event)
	h.BroadcastRoster()
}

// NotifyMessageRead tells the original sender their message was read, if
// they are currently online. Offline senders get nothing; the stored flag is
// the durable record.
func (h *Hub) NotifyMessageRead(senderID, messageID uuid.UUID) {
	id := messageID
	h.sendTo(senderID, models.Event{Type: models.EventMessageRead, MessageID: &id})
}

// BroadcastRoster pushes the current online-user list to every registered
// connection. Coarse but cheap; each connect and disconnect refreshes all.
func (h *Hub) BroadcastRoster() {
	roster := h.registry.Roster()
	event := models.Event{Type: models.EventPresence, Online: roster}
	for _, userID := range roster {
		h.sendTo(userID, event)
	}
}

func (h *Hub) sendTo(userID uuid.UUID, event models.Event) {
	conn, ok := h.registry.Lookup(userID)
	if !ok {
		return
	}
	if err := conn.SendEvent(event); err != nil {
		h.log.WithFields(logrus.Fields{
			"user_id": userID,
			"type":    event.Type,
			"error":   err,
		}).Warn("failed to push live event")
	}
}

func (h *Hub) touchLastSeen(ctx context.Context, userID uuid.UUID) {
	if h.lastSeen == nil {
		return
	}
	if err := h.lastSeen.Touch(ctx, userID); err != nil {
		h.log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Warn("failed to record last seen")
	}
}
