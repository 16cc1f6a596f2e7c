package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/shaman-chat/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionListPrefix = "sessions:"
	sessionListTTL    = 5 * time.Minute
)

// SessionListCache keeps each user's rendered session list in Redis
type SessionListCache struct {
	client *Client
}

// NewSessionListCache creates a new session list cache
func NewSessionListCache(client *Client) *SessionListCache {
	return &SessionListCache{client: client}
}

func sessionListKey(userID uuid.UUID) string {
	return sessionListPrefix + userID.String()
}

// Get returns the cached list, or nil on a cache miss
func (c *SessionListCache) Get(ctx context.Context, userID uuid.UUID) ([]domain.SessionSummary, error) {
	data, err := c.client.rdb.Get(ctx, sessionListKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session list cache: %w", err)
	}

	var sessions []domain.SessionSummary
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session list: %w", err)
	}
	return sessions, nil
}

// Set caches the list for a user
func (c *SessionListCache) Set(ctx context.Context, userID uuid.UUID, sessions []domain.SessionSummary) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal session list: %w", err)
	}
	return c.client.rdb.Set(ctx, sessionListKey(userID), data, sessionListTTL).Err()
}

// Invalidate drops the cached list for a user
func (c *SessionListCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.client.rdb.Del(ctx, sessionListKey(userID)).Err()
}

// FlushAll removes every cached session list
func (c *SessionListCache) FlushAll(ctx context.Context) (int64, error) {
	pattern := sessionListPrefix + "*"
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			count, err := c.client.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += count
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}
