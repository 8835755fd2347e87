package cache

import "errors"

var (
	// ErrClosed is returned by operations on a closed Cache.
	ErrClosed = errors.New("cache is closed")
	// ErrZeroTTL is returned by Set when ttl is zero; nothing is written.
	ErrZeroTTL = errors.New("cache: zero ttl, nothing written")
	// ErrFlush wraps failures to persist the table to the backing store.
	ErrFlush = errors.New("cache: flush to backing store failed")
	// ErrNilStore is returned by Open without a backing store.
	ErrNilStore = errors.New("cache: nil backing store")
)
