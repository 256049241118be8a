package config

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/chatcore")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MESSAGE_KEY", hex.EncodeToString([]byte(strings.Repeat("k", 32))))
}

func TestLoadConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_EXPIRY", "2h")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Len(t, cfg.MessageKey, 32)
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "")
	t.Setenv("JWT_EXPIRY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
}

// TestLoadConfig_MissingMessageKey: the process must refuse to start without
// a valid key rather than silently corrupt stored messages.
func TestLoadConfig_MissingMessageKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MESSAGE_KEY", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_MalformedMessageKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MESSAGE_KEY", "too-short")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_MissingRequiredFields(t *testing.T) {
	for _, missing := range []string{"DATABASE_URL", "REDIS_URL", "JWT_SECRET"} {
		t.Run(missing, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(missing, "")

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
