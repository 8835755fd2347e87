package repositories

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/avatarctic/webutil/internal/core/ports"
)

func windowKey(keyPrefix, subject string, windowStart time.Time) string {
	return fmt.Sprintf("%s:%s:%d", keyPrefix, subject, windowStart.Unix())
}

// RateLimitRedisRepository implements rate limiting counter storage with Redis.
type RateLimitRedisRepository struct {
	r redis.Cmdable
}

func NewRateLimitRedisRepository(r redis.Cmdable) *RateLimitRedisRepository {
	return &RateLimitRedisRepository{r: r}
}

// IncrementWindow increments a per-subject counter for a fixed window.
func (repo *RateLimitRedisRepository) IncrementWindow(ctx context.Context, subject string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
	windowStart := time.Now().Truncate(window)
	key := windowKey(keyPrefix, subject, windowStart)
	pipe := repo.r.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, windowStart, err
	}
	return int(incr.Val()), windowStart, nil
}

// RateLimitCacheRepository keeps counters in the expiring cache. The
// increment is atomic within this process only.
type RateLimitCacheRepository struct {
	mu    sync.Mutex
	cache ports.Cache
	now   func() time.Time
}

func NewRateLimitCacheRepository(c ports.Cache) *RateLimitCacheRepository {
	return &RateLimitCacheRepository{cache: c, now: time.Now}
}

func (repo *RateLimitCacheRepository) IncrementWindow(ctx context.Context, subject string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
	windowStart := repo.now().Truncate(window)
	key := windowKey(keyPrefix, subject, windowStart)

	repo.mu.Lock()
	defer repo.mu.Unlock()

	count := 0
	raw, ok, err := repo.cache.Get(ctx, key)
	if err != nil {
		return 0, windowStart, err
	}
	if ok {
		// an unparsable counter restarts the window
		count, _ = strconv.Atoi(string(raw))
	}
	count++
	if err := repo.cache.Set(ctx, key, []byte(strconv.Itoa(count)), ttl); err != nil {
		return 0, windowStart, err
	}
	return count, windowStart, nil
}
