package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/avatarctic/webutil/internal/core/ports"
)

// DefaultFile is used when no cache file is configured.
const DefaultFile = "cache.bin"

// FileStore keeps the blob in a flat file that is rewritten atomically on
// every write. An advisory lock on <path>.lock serializes processes.
type FileStore struct {
	mu       sync.Mutex
	path     string
	lockPath string
}

var _ ports.BlobStore = (*FileStore)(nil)

// NewFileStore returns a store for path, defaulting to DefaultFile.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFile
	}
	return &FileStore{path: path, lockPath: path + ".lock"}
}

func (s *FileStore) Name() string { return "file" }

// Path returns the file the blob is written to.
func (s *FileStore) Path() string { return s.path }

// Read returns the file contents, or nil if the file does not exist.
func (s *FileStore) Read(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Reading without the lock beats not reading at all, e.g. on a read-only mount.
	if unlock, err := lockFile(s.lockPath, false); err == nil {
		defer unlock()
	}

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	return b, nil
}

// Write replaces the file through a temporary file and rename.
func (s *FileStore) Write(ctx context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := lockFile(s.lockPath, true)
	if err != nil {
		return err
	}
	defer unlock()

	dir, base := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
