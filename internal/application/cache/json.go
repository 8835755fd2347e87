package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avatarctic/webutil/internal/core/ports"
)

// GetJSON reads key from c and decodes it into a T. Misses, lookup errors
// and undecodable values all report ok=false.
func GetJSON[T any](ctx context.Context, c ports.Cache, key string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// SetJSON encodes v as JSON and stores it under key.
func SetJSON(ctx context.Context, c ports.Cache, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return c.Set(ctx, key, b, ttl)
}
