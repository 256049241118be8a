package presence

import (
	"testing"

	"github.com/campuslink/chatcore/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is a minimal Conn for registry tests.
type fakeConn struct {
	closed bool
}

func (f *fakeConn) SendEvent(models.Event) error { return nil }
func (f *fakeConn) Close() error                 { f.closed = true; return nil }

func TestRegistry_RegisterAndLookup(t *testing.T) {
	registry := NewRegistry()
	userID := uuid.New()
	conn := &fakeConn{}

	replaced := registry.Register(userID, conn)
	assert.Nil(t, replaced, "first registration should not replace anything")

	got, ok := registry.Lookup(userID)
	require.True(t, ok)
	assert.Same(t, conn, got)

	_, ok = registry.Lookup(uuid.New())
	assert.False(t, ok, "unknown user should not be present")
}

// TestRegistry_SingleEntryPerUser verifies that registering the same user
// twice leaves exactly one active entry, the newest.
func TestRegistry_SingleEntryPerUser(t *testing.T) {
	registry := NewRegistry()
	userID := uuid.New()
	oldConn := &fakeConn{}
	newConn := &fakeConn{}

	registry.Register(userID, oldConn)
	replaced := registry.Register(userID, newConn)

	assert.Same(t, oldConn, replaced, "second registration should hand back the old handle")

	got, ok := registry.Lookup(userID)
	require.True(t, ok)
	assert.Same(t, newConn, got, "lookup should return the newest connection")
	assert.Len(t, registry.Roster(), 1, "user should have exactly one entry")
}

func TestRegistry_UnregisterByHandle(t *testing.T) {
	registry := NewRegistry()
	userID := uuid.New()
	conn := &fakeConn{}

	registry.Register(userID, conn)

	gotUser, ok := registry.Unregister(conn)
	require.True(t, ok)
	assert.Equal(t, userID, gotUser)

	_, ok = registry.Lookup(userID)
	assert.False(t, ok, "user should be gone after unregister")
}

// TestRegistry_StaleUnregisterIsNoOp covers the reconnect race: unregistering
// an already-replaced handle must not remove the newer entry.
func TestRegistry_StaleUnregisterIsNoOp(t *testing.T) {
	registry := NewRegistry()
	userID := uuid.New()
	staleConn := &fakeConn{}
	newConn := &fakeConn{}

	registry.Register(userID, staleConn)
	registry.Register(userID, newConn)

	_, ok := registry.Unregister(staleConn)
	assert.False(t, ok, "stale handle should no longer match any entry")

	got, ok := registry.Lookup(userID)
	require.True(t, ok)
	assert.Same(t, newConn, got, "newer entry must survive the stale unregister")
}

func TestRegistry_Roster(t *testing.T) {
	registry := NewRegistry()

	assert.Empty(t, registry.Roster())

	userA := uuid.New()
	userB := uuid.New()
	registry.Register(userA, &fakeConn{})
	registry.Register(userB, &fakeConn{})

	roster := registry.Roster()
	assert.Len(t, roster, 2)
	assert.Contains(t, roster, userA)
	assert.Contains(t, roster, userB)
}
