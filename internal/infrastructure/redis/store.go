package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/avatarctic/webutil/internal/core/ports"
)

// DefaultKey is the Redis key used when none is configured.
const DefaultKey = "webutil:cache"

// BlobStore implements ports.BlobStore as a single Redis string.
type BlobStore struct {
	r   redis.Cmdable
	key string
}

var _ ports.BlobStore = (*BlobStore)(nil)

// NewBlobStore creates a Redis-backed blob store. The client stays owned by
// the caller; Close does not close it.
func NewBlobStore(r redis.Cmdable, key string) *BlobStore {
	if key == "" {
		key = DefaultKey
	}
	return &BlobStore{r: r, key: key}
}

func (s *BlobStore) Name() string { return "redis" }

// Read implements BlobStore.Read.
func (s *BlobStore) Read(ctx context.Context) ([]byte, error) {
	val, err := s.r.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return val, nil
}

// Write implements BlobStore.Write. The blob never expires on the Redis
// side; entry expiry lives inside the blob.
func (s *BlobStore) Write(ctx context.Context, blob []byte) error {
	if err := s.r.Set(ctx, s.key, blob, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *BlobStore) Close() error { return nil }
