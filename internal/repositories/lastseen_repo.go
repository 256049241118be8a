package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lastSeenKeyPrefix = "lastseen:"

// RedisLastSeenRepository records when a user was last reachable over a live
// connection. Unlike the in-process registry it survives restarts, so the
// chat list can show recency for users who are currently offline.
type RedisLastSeenRepository struct {
	client *redis.Client
}

func NewRedisLastSeenRepository(client *redis.Client) *RedisLastSeenRepository {
	return &RedisLastSeenRepository{client: client}
}

// Touch stamps the user as seen now. Called on connect and disconnect.
func (r *RedisLastSeenRepository) Touch(ctx context.Context, userID uuid.UUID) error {
	key := lastSeenKey(userID)
	value := time.Now().UTC().Format(time.RFC3339Nano)

	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set last seen: %w", err)
	}
	return nil
}

// GetBulk retrieves last-seen times for multiple users in a single round trip.
// Users with no recorded value are simply absent from the result.
func (r *RedisLastSeenRepository) GetBulk(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	seen := make(map[uuid.UUID]time.Time)
	if len(userIDs) == 0 {
		return seen, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = lastSeenKey(id)
	}

	results, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bulk last seen: %w", err)
	}

	for i, result := range results {
		if result == nil {
			continue
		}
		data, ok := result.(string)
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, data)
		if err != nil {
			// Unparseable value, treat as never seen
			continue
		}
		seen[userIDs[i]] = ts
	}

	return seen, nil
}

// Helper: build Redis key for last seen
func lastSeenKey(userID uuid.UUID) string {
	return lastSeenKeyPrefix + userID.String()
}
