package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultProfileTTL bounds how long a login stays mapped to a stale profile id.
const DefaultProfileTTL = 5 * time.Minute

// ProfileKey is the cache key for a login: profile:login:{login}.
func ProfileKey(login string) string {
	return "profile:login:" + login
}

// CacheStore caches login to profile id lookups.
type CacheStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

func NewCacheStore(client goredis.UniversalClient, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &CacheStore{client: client, ttl: ttl}
}

// GetProfileID reports ok=false on a cache miss.
func (c *CacheStore) GetProfileID(ctx context.Context, login string) (int64, bool, error) {
	id, err := c.client.Get(ctx, ProfileKey(login)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (c *CacheStore) SetProfileID(ctx context.Context, login string, id int64) error {
	return c.client.Set(ctx, ProfileKey(login), id, c.ttl).Err()
}
