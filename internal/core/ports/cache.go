package ports

import (
	"context"
	"time"
)

// Cache defines a minimal key-value cache contract.
// Implementations degrade to cache-miss semantics when their backing store
// misbehaves, so callers can always fall back to the source of truth.
type Cache interface {
	// Get returns the raw bytes for key. ok=false if absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for key for ttl. A zero ttl writes nothing.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the key; absence is not an error.
	Delete(ctx context.Context, key string) error
}

// BlobStore persists the serialized cache table as a single opaque blob.
// Every Write replaces the whole blob.
type BlobStore interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Read returns the last blob written, or nil when nothing was stored yet.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the stored blob.
	Write(ctx context.Context, blob []byte) error
	Close() error
}
