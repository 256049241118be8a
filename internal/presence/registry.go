package presence

import (
	"sync"

	"github.com/campuslink/chatcore/internal/models"
	"github.com/google/uuid"
)

// Conn is a live, addressable client connection. The registry treats it as an
// opaque handle; equality is identity.
type Conn interface {
	SendEvent(event models.Event) error
	Close() error
}

// Registry is the process-wide map from user id to their one live connection.
// It holds no business data, is rebuilt empty on restart, and only answers
// "is a live channel currently reachable" — never account validity.
type Registry struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID]Conn
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[uuid.UUID]Conn)}
}

// Register upserts the connection for a user. At most one handle per user:
// a reconnect replaces the previous handle, which is returned so the caller
// can close it. Returns nil when the user had no prior connection.
func (r *Registry) Register(userID uuid.UUID, conn Conn) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced := r.byUser[userID]
	r.byUser[userID] = conn
	return replaced
}

// Lookup returns the user's live connection, if any.
func (r *Registry) Lookup(userID uuid.UUID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.byUser[userID]
	return conn, ok
}

// Unregister removes whichever entry currently holds this exact handle.
// Disconnects are reported by handle, not user id, so this scans by value.
// If no entry matches (the user already reconnected with a newer handle)
// it is a no-op and the newer entry stays.
func (r *Registry) Unregister(conn Conn) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, current := range r.byUser {
		if current == conn {
			delete(r.byUser, userID)
			return userID, true
		}
	}
	return uuid.Nil, false
}

// Roster returns a snapshot of currently-registered user ids.
func (r *Registry) Roster() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roster := make([]uuid.UUID, 0, len(r.byUser))
	for userID := range r.byUser {
		roster = append(roster, userID)
	}
	return roster
}
