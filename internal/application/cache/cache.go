package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	cachedomain "github.com/avatarctic/webutil/internal/core/domain/cache"
	"github.com/avatarctic/webutil/internal/core/ports"
)

// Options configures a Cache. The zero value is usable.
type Options struct {
	Logger  *logrus.Logger
	Metrics *Metrics
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

// Cache is a concurrency-safe expiring key/value cache.
// It implements ports.Cache.
type Cache struct {
	mu    sync.RWMutex
	store ports.BlobStore
	table cachedomain.Table

	logger  *logrus.Logger
	metrics *Metrics
	now     func() time.Time
	loads   singleflight.Group

	hydrateErr error
	closed     bool
}

var _ ports.Cache = (*Cache)(nil)

// Open creates a cache over store and hydrates it. Hydration failures never
// fail Open; they leave the table empty and are reported by HydrateErr.
func Open(ctx context.Context, store ports.BlobStore, opts Options) (*Cache, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	c := &Cache{
		store:   store,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     now,
	}
	c.hydrate(ctx)
	return c, nil
}

func (c *Cache) hydrate(ctx context.Context) {
	blob, err := c.store.Read(ctx)
	var tbl cachedomain.Table
	if err == nil {
		tbl, err = cachedomain.Decode(blob)
	}
	if err != nil {
		c.hydrateErr = err
		c.table = cachedomain.Table{}
		c.metrics.hydrateFailed(c.store.Name())
		if c.logger != nil {
			c.logger.WithField("store", c.store.Name()).WithError(err).Warn("cache hydrate failed; starting empty")
		}
		return
	}
	c.table = tbl
	c.metrics.setEntries(len(tbl))
	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{"store": c.store.Name(), "entries": len(tbl)}).Debug("cache hydrated")
	}
}

// HydrateErr returns the error that made Open start with an empty table, if any.
func (c *Cache) HydrateErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hydrateErr
}

// Get returns the value for key if present and not expired.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, false, ErrClosed
	}
	v, ok := c.table.Lookup(key, c.now())
	if ok {
		c.metrics.hit()
	} else {
		c.metrics.miss()
	}
	return v, ok, nil
}

// Set stores value under key until ttl elapses and flushes the compacted
// table to the backing store. When the flush fails the previous table stays
// in effect and an error wrapping ErrFlush is returned.
//
// ttl semantics:
//   - ttl == 0 writes nothing and returns ErrZeroTTL
//   - ttl < 0 stores an already expired entry, which removes key on flush
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		return ErrZeroTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	now := c.now()
	next := c.table.Compact(now)
	if e := cachedomain.NewEntry(value, now, ttl); e.Live(now) {
		next[key] = e
	} else {
		delete(next, key)
	}
	return c.commitLocked(ctx, next)
}

// Delete removes key and flushes the compacted table.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	next := c.table.Compact(c.now())
	delete(next, key)
	return c.commitLocked(ctx, next)
}

// commitLocked persists next and makes it the live table. Header-last
// ordering inside the stores means a failed write leaves the old blob intact.
func (c *Cache) commitLocked(ctx context.Context, next cachedomain.Table) error {
	blob, err := cachedomain.Encode(next)
	if err == nil {
		err = c.store.Write(ctx, blob)
	}
	if err != nil {
		c.metrics.flushFailed(c.store.Name())
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{"store": c.store.Name(), "entries": len(next)}).WithError(err).Error("cache flush failed; keeping previous table")
		}
		return fmt.Errorf("%w (%s): %w", ErrFlush, c.store.Name(), err)
	}
	c.table = next
	c.metrics.wrote(len(next))
	return nil
}

// Remember returns the cached value for key, or calls load and caches its
// result for ttl. Concurrent callers for the same key share one load.
// A failure to cache the loaded value is logged, not returned.
func (c *Cache) Remember(ctx context.Context, key string, ttl time.Duration, load func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok, err := c.Get(ctx, key); err != nil {
		return nil, err
	} else if ok {
		return v, nil
	}

	res, err, _ := c.loads.Do(key, func() (any, error) {
		if v, ok, err := c.Get(ctx, key); err == nil && ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, v, ttl); err != nil && !errors.Is(err, ErrZeroTTL) && c.logger != nil {
			c.logger.WithField("key", key).WithError(err).Warn("failed to cache loaded value")
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	v, ok := res.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight result")
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Len returns the number of entries held in memory, including expired
// entries that no write has compacted yet.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.table)
}

// StoreName reports which backend the cache persists to.
func (c *Cache) StoreName() string {
	return c.store.Name()
}

// Close releases the backing store. It is safe to call more than once.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.store.Close()
}
