package presence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"social-service/internal/models"
)

// Tracker maintains the ephemeral online set. An entry lives only as
// long as its key TTL keeps being refreshed; a crashed client simply
// expires. Nothing is persisted.
type Tracker interface {
	Track(ctx context.Context, userID int) error
	Refresh(ctx context.Context, userID int) error
	Untrack(ctx context.Context, userID int) error
	Snapshot(ctx context.Context) ([]models.PresenceEntry, error)
}

// RedisTracker stores one key per online user with a TTL.
type RedisTracker struct {
	client *redis.Client
	prefix string
	keyTTL time.Duration
	logger *zap.Logger
}

// NewRedisTracker constructs a RedisTracker.
func NewRedisTracker(client *redis.Client, prefix string, keyTTL time.Duration, logger *zap.Logger) *RedisTracker {
	return &RedisTracker{client: client, prefix: prefix, keyTTL: keyTTL, logger: logger}
}

func (t *RedisTracker) keyFor(userID int) string {
	return fmt.Sprintf("%s:user:%d", t.prefix, userID)
}

// Track announces the user as online. The value is the online-since
// timestamp; re-tracking an already-online user keeps the original value.
func (t *RedisTracker) Track(ctx context.Context, userID int) error {
	key := t.keyFor(userID)
	since := time.Now().UTC().Format(time.RFC3339)

	ok, err := t.client.SetNX(ctx, key, since, t.keyTTL).Result()
	if err != nil {
		return fmt.Errorf("track user %d: %w", userID, err)
	}
	if !ok {
		// Second session of the same user; just extend the TTL.
		if err := t.client.Expire(ctx, key, t.keyTTL).Err(); err != nil {
			return fmt.Errorf("track user %d: %w", userID, err)
		}
	}
	return nil
}

// Refresh extends the TTL from the heartbeat loop. A sibling session's
// teardown may have deleted the key out from under us (two tabs share
// one key); when the EXPIRE finds nothing, re-announce instead of
// letting the user silently drop offline.
func (t *RedisTracker) Refresh(ctx context.Context, userID int) error {
	key := t.keyFor(userID)
	ok, err := t.client.Expire(ctx, key, t.keyTTL).Result()
	if err != nil {
		return fmt.Errorf("refresh user %d: %w", userID, err)
	}
	if !ok {
		since := time.Now().UTC().Format(time.RFC3339)
		if err := t.client.SetNX(ctx, key, since, t.keyTTL).Err(); err != nil {
			return fmt.Errorf("refresh user %d: %w", userID, err)
		}
	}
	return nil
}

// Untrack removes the user's announcement on teardown.
func (t *RedisTracker) Untrack(ctx context.Context, userID int) error {
	return t.client.Del(ctx, t.keyFor(userID)).Err()
}

// Snapshot scans the live keys and returns the full online set. The set
// is always derived from the store, never accumulated locally, so stale
// entries from crashed clients age out by TTL.
func (t *RedisTracker) Snapshot(ctx context.Context) ([]models.PresenceEntry, error) {
	pattern := t.prefix + ":user:*"
	var entries []models.PresenceEntry

	iter := t.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		userID, err := t.userIDFromKey(key)
		if err != nil {
			t.logger.Warn("unexpected presence key", zap.String("key", key))
			continue
		}
		since, err := t.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, fmt.Errorf("presence snapshot: %w", err)
		}
		entries = append(entries, models.PresenceEntry{UserID: userID, OnlineSince: since})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("presence snapshot: %w", err)
	}
	return entries, nil
}

func (t *RedisTracker) userIDFromKey(key string) (int, error) {
	raw := strings.TrimPrefix(key, t.prefix+":user:")
	return strconv.Atoi(raw)
}
