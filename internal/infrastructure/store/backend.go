package store

import (
	"errors"
	"fmt"

	goredis "github.com/go-redis/redis/v8"

	config "github.com/avatarctic/webutil/configs"
	"github.com/avatarctic/webutil/internal/core/ports"
	"github.com/avatarctic/webutil/internal/infrastructure/redis"
)

// ErrNoRedisClient is returned when the redis backend is selected without a client.
var ErrNoRedisClient = errors.New("store: redis backend needs a client")

// FromConfig opens the backing store selected by cfg.Backend. rdb is only
// used by the redis backend.
func FromConfig(cfg config.CacheConfig, rdb goredis.Cmdable) (ports.BlobStore, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.File), nil
	case config.BackendShm:
		size := cfg.Size
		if size == 0 {
			size = DefaultSegmentSize
		}
		s, err := NewSharedMemoryStore(cfg.Salt, size)
		if err != nil {
			return nil, fmt.Errorf("failed to open shared memory store: %w", err)
		}
		return s, nil
	case config.BackendRedis:
		if rdb == nil {
			return nil, ErrNoRedisClient
		}
		return redis.NewBlobStore(rdb, cfg.RedisKey), nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}
