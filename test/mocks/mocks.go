package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/avatarctic/webutil/internal/core/ports"
)

// BlobStoreMock is a lightweight mock for ports.BlobStore
type BlobStoreMock struct {
	NameFn  func() string
	ReadFn  func(ctx context.Context) ([]byte, error)
	WriteFn func(ctx context.Context, blob []byte) error
	CloseFn func() error
}

func (m *BlobStoreMock) Name() string {
	if m.NameFn != nil {
		return m.NameFn()
	}
	return "mock"
}
func (m *BlobStoreMock) Read(ctx context.Context) ([]byte, error) {
	if m.ReadFn != nil {
		return m.ReadFn(ctx)
	}
	return nil, nil
}
func (m *BlobStoreMock) Write(ctx context.Context, blob []byte) error {
	if m.WriteFn != nil {
		return m.WriteFn(ctx, blob)
	}
	return nil
}
func (m *BlobStoreMock) Close() error {
	if m.CloseFn != nil {
		return m.CloseFn()
	}
	return nil
}

// MemoryStore keeps the blob in memory and counts writes. Set Fail to make
// the next writes return that error.
type MemoryStore struct {
	mu     sync.Mutex
	blob   []byte
	Writes int
	Closed int
	Fail   error
}

var _ ports.BlobStore = (*MemoryStore)(nil)

func NewMemoryStore(initial []byte) *MemoryStore {
	return &MemoryStore{blob: initial}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Read(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob == nil {
		return nil, nil
	}
	out := make([]byte, len(s.blob))
	copy(out, s.blob)
	return out, nil
}

func (s *MemoryStore) Write(ctx context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	s.blob = append([]byte(nil), blob...)
	s.Writes++
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed++
	return nil
}

// Blob returns a copy of the last blob written.
func (s *MemoryStore) Blob() []byte {
	b, _ := s.Read(context.Background())
	return b
}

// CacheMock is a lightweight mock for ports.Cache
type CacheMock struct {
	GetFn    func(ctx context.Context, key string) ([]byte, bool, error)
	SetFn    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFn func(ctx context.Context, key string) error
}

func (m *CacheMock) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	return nil, false, nil
}
func (m *CacheMock) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, key, value, ttl)
	}
	return nil
}
func (m *CacheMock) Delete(ctx context.Context, key string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, key)
	}
	return nil
}

// SessionServiceMock is a lightweight mock for ports.SessionService
type SessionServiceMock struct {
	StartFn   func(ctx context.Context) (string, error)
	ValuesFn  func(ctx context.Context, id string) (map[string]string, error)
	GetFn     func(ctx context.Context, id, name string) (string, bool, error)
	PutFn     func(ctx context.Context, id, name, value string) error
	DestroyFn func(ctx context.Context, id string) error
}

func (m *SessionServiceMock) Start(ctx context.Context) (string, error) {
	if m.StartFn != nil {
		return m.StartFn(ctx)
	}
	return "session-id", nil
}
func (m *SessionServiceMock) Values(ctx context.Context, id string) (map[string]string, error) {
	if m.ValuesFn != nil {
		return m.ValuesFn(ctx, id)
	}
	return map[string]string{}, nil
}
func (m *SessionServiceMock) Get(ctx context.Context, id, name string) (string, bool, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id, name)
	}
	return "", false, nil
}
func (m *SessionServiceMock) Put(ctx context.Context, id, name, value string) error {
	if m.PutFn != nil {
		return m.PutFn(ctx, id, name, value)
	}
	return nil
}
func (m *SessionServiceMock) Destroy(ctx context.Context, id string) error {
	if m.DestroyFn != nil {
		return m.DestroyFn(ctx, id)
	}
	return nil
}
