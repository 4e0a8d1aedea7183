package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
)

// RoleCache caches resolved roles under role:<email>. Keying by identity is
// what keeps role state from leaking across account switches: user B can
// never read user A's entry, and invalidation is a single DEL.
type RoleCache struct {
	client *redis.Client
}

// NewRoleCache creates a RoleCache wrapping the given Redis client.
func NewRoleCache(client *redis.Client) *RoleCache {
	return &RoleCache{client: client}
}

// Get returns the cached role for the identity, with ok=false on a miss.
func (c *RoleCache) Get(ctx context.Context, email string) (domain.Role, bool, error) {
	raw, err := c.client.Get(ctx, c.key(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.RoleUnknown, false, nil
		}
		return domain.RoleUnknown, false, fmt.Errorf("role cache get: %w", err)
	}

	role := domain.Role(raw)
	if !role.Valid() {
		// A corrupt entry must not elevate anyone; treat it as a miss.
		return domain.RoleUnknown, false, nil
	}
	return role, true, nil
}

// Set stores the role with the given TTL.
func (c *RoleCache) Set(ctx context.Context, email string, role domain.Role, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(email), string(role), ttl).Err(); err != nil {
		return fmt.Errorf("role cache set: %w", err)
	}
	return nil
}

// Delete drops the cached role for the identity.
func (c *RoleCache) Delete(ctx context.Context, email string) error {
	if err := c.client.Del(ctx, c.key(email)).Err(); err != nil {
		return fmt.Errorf("role cache delete: %w", err)
	}
	return nil
}

func (c *RoleCache) key(email string) string {
	return "role:" + email
}
