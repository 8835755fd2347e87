//go:build !linux

package store

import (
	"context"

	"github.com/avatarctic/webutil/internal/core/ports"
)

// SharedMemoryStore is unavailable outside Linux.
type SharedMemoryStore struct{}

var _ ports.BlobStore = (*SharedMemoryStore)(nil)

func NewSharedMemoryStore(salt string, size int) (*SharedMemoryStore, error) {
	return nil, ErrUnsupported
}

func (s *SharedMemoryStore) Name() string { return "shm" }

func (s *SharedMemoryStore) Key() int { return 0 }

func (s *SharedMemoryStore) Read(context.Context) ([]byte, error) { return nil, ErrUnsupported }

func (s *SharedMemoryStore) Write(context.Context, []byte) error { return ErrUnsupported }

func (s *SharedMemoryStore) Close() error { return nil }

func (s *SharedMemoryStore) Remove() error { return ErrUnsupported }
