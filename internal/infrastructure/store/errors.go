package store

import "errors"

var (
	// ErrPayloadTooLarge is returned when a blob does not fit the segment.
	ErrPayloadTooLarge = errors.New("store: payload exceeds segment capacity")
	// ErrCorrupt is returned when a segment header cannot be trusted.
	ErrCorrupt = errors.New("store: corrupt segment header")
	// ErrUnsupported is returned where shared memory is not available.
	ErrUnsupported = errors.New("store: shared memory not supported on this platform")
	// ErrClosed is returned by stores used after Close.
	ErrClosed = errors.New("store: closed")
)
