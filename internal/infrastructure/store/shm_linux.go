//go:build linux

package store

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/avatarctic/webutil/internal/core/ports"
)

// SharedMemoryStore keeps the blob in a fixed-size System V shared memory
// segment. The segment is attached lazily so an unavailable segment only
// surfaces as Read/Write errors.
type SharedMemoryStore struct {
	mu       sync.Mutex
	key      int
	size     int
	lockPath string

	id     int
	seg    segment
	closed bool
}

var _ ports.BlobStore = (*SharedMemoryStore)(nil)

// NewSharedMemoryStore returns a store for the segment derived from salt,
// created with size bytes if it does not exist yet.
func NewSharedMemoryStore(salt string, size int) (*SharedMemoryStore, error) {
	if size <= 0 {
		size = DefaultSegmentSize
	}
	if size <= HeaderSize {
		return nil, fmt.Errorf("segment size %d must exceed header size %d", size, HeaderSize)
	}
	key := SegmentKey(salt)
	return &SharedMemoryStore{
		key:      key,
		size:     size,
		lockPath: segmentLockPath(key),
		id:       -1,
	}, nil
}

func (s *SharedMemoryStore) Name() string { return "shm" }

// Key returns the IPC key of the segment.
func (s *SharedMemoryStore) Key() int { return s.key }

func (s *SharedMemoryStore) attachLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.seg != nil {
		return nil
	}
	id, err := unix.SysvShmGet(s.key, s.size, unix.IPC_CREAT|0o600)
	if err != nil {
		return fmt.Errorf("shmget key=%#x size=%d: %w", uint32(s.key), s.size, err)
	}
	mem, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		return fmt.Errorf("shmat id=%d: %w", id, err)
	}
	s.id = id
	s.seg = segment(mem)
	return nil
}

func (s *SharedMemoryStore) Read(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.attachLocked(); err != nil {
		return nil, err
	}
	if unlock, err := lockFile(s.lockPath, false); err == nil {
		defer unlock()
	}
	return s.seg.read()
}

func (s *SharedMemoryStore) Write(ctx context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.attachLocked(); err != nil {
		return err
	}
	unlock, err := lockFile(s.lockPath, true)
	if err != nil {
		return err
	}
	defer unlock()
	return s.seg.write(blob)
}

// Close detaches the segment. The segment itself outlives the process.
func (s *SharedMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.seg == nil {
		return nil
	}
	err := unix.SysvShmDetach(s.seg)
	s.seg = nil
	return err
}

// Remove marks the segment for destruction once every process detaches.
func (s *SharedMemoryStore) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id
	if id < 0 {
		got, err := unix.SysvShmGet(s.key, 0, 0)
		if err != nil {
			return fmt.Errorf("shmget key=%#x: %w", uint32(s.key), err)
		}
		id = got
	}
	if _, err := unix.SysvShmCtl(id, unix.IPC_RMID, nil); err != nil {
		return fmt.Errorf("shmctl rmid id=%d: %w", id, err)
	}
	return nil
}
