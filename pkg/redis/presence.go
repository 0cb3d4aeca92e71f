package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceCache mirrors user online state into Redis so that presence
// lookups do not hit MySQL. The database row remains the source of truth;
// entries here expire on their own if a session close is never recorded.
type PresenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPresenceCache creates a PresenceCache with the given entry TTL
func NewPresenceCache(client *redis.Client, ttl time.Duration) *PresenceCache {
	return &PresenceCache{client: client, ttl: ttl}
}

func presenceKey(userID string) string {
	return fmt.Sprintf("presence:online:%s", userID)
}

// SetOnline marks a user online, refreshing the TTL
func (p *PresenceCache) SetOnline(ctx context.Context, userID string) error {
	return p.client.Set(ctx, presenceKey(userID), time.Now().UTC().Format(time.RFC3339), p.ttl).Err()
}

// SetOffline removes the online marker
func (p *PresenceCache) SetOffline(ctx context.Context, userID string) error {
	return p.client.Del(ctx, presenceKey(userID)).Err()
}

// IsOnline reports whether the user has an unexpired online marker
func (p *PresenceCache) IsOnline(ctx context.Context, userID string) (bool, error) {
	_, err := p.client.Get(ctx, presenceKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
