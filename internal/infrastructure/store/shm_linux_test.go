//go:build linux

package store_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avatarctic/webutil/internal/application/cache"
	"github.com/avatarctic/webutil/internal/infrastructure/store"
)

// openSegment attaches a private test segment, skipping when the kernel
// refuses System V shared memory (common in sandboxes).
func openSegment(t *testing.T, size int) (*store.SharedMemoryStore, string) {
	t.Helper()
	salt := fmt.Sprintf("%s-%d", t.Name(), time.Now().UnixNano())
	s, err := store.NewSharedMemoryStore(salt, size)
	require.NoError(t, err)
	if _, err := s.Read(context.Background()); err != nil {
		t.Skipf("shared memory unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Remove()
		_ = s.Close()
	})
	return s, salt
}

func TestNewSharedMemoryStore_RejectsTinySize(t *testing.T) {
	_, err := store.NewSharedMemoryStore("salt", store.HeaderSize)
	require.Error(t, err)
}

func TestSharedMemoryStore_RoundTrip(t *testing.T) {
	s, _ := openSegment(t, 4096)
	ctx := context.Background()

	b, err := s.Read(ctx)
	require.NoError(t, err)
	require.Nil(t, b)

	require.NoError(t, s.Write(ctx, []byte("payload")))
	b, err = s.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), b)
}

func TestSharedMemoryStore_OversizeWriteKeepsPriorState(t *testing.T) {
	s, salt := openSegment(t, 1024)
	ctx := context.Background()

	c, err := cache.Open(ctx, s, cache.Options{})
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "small", []byte("ok"), time.Minute))

	err = c.Set(ctx, "big", bytes.Repeat([]byte("x"), 2048), time.Minute)
	require.ErrorIs(t, err, cache.ErrFlush)
	require.ErrorIs(t, err, store.ErrPayloadTooLarge)

	// A second attachment of the same segment hydrates the last valid table.
	second, err := store.NewSharedMemoryStore(salt, 1024)
	require.NoError(t, err)
	reader, err := cache.Open(ctx, second, cache.Options{})
	require.NoError(t, err)
	defer reader.Close()
	require.NoError(t, reader.HydrateErr())
	v, ok, err := reader.Get(ctx, "small")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("ok"), v)
	_, ok, _ = reader.Get(ctx, "big")
	require.False(t, ok)
}

func TestSharedMemoryStore_ClosedRejectsUse(t *testing.T) {
	s, _ := openSegment(t, 1024)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, err := s.Read(context.Background())
	require.ErrorIs(t, err, store.ErrClosed)
}
