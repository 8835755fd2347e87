package health

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/avatarctic/webutil/internal/core/ports"
)

// storeHealthChecker reports whether the cache's backing store can be read.
type storeHealthChecker struct{ store ports.BlobStore }

func (s *storeHealthChecker) Name() string { return "store:" + s.store.Name() }
func (s *storeHealthChecker) Check(ctx context.Context) error {
	_, err := s.store.Read(ctx)
	return err
}

// redisHealthChecker wraps the redis client for health checks.
type redisHealthChecker struct{ client redis.Cmdable }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// NewStoreHealthChecker creates a health checker for a cache backing store.
func NewStoreHealthChecker(store ports.BlobStore) ports.HealthChecker {
	return &storeHealthChecker{store: store}
}

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client redis.Cmdable) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}
