package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/webutil/internal/application/cache"
	"github.com/avatarctic/webutil/internal/core/ports"
)

const (
	sessionKeyPrefix = "session:"
	sessionLockCount = 64
)

// ErrInvalidSession is returned for session IDs this service did not issue,
// or whose session has expired or been destroyed.
var ErrInvalidSession = errors.New("invalid session id")

// SessionService stores session values in the cache as one JSON map per
// session, refreshing the TTL on every write. Start records the session so
// IDs chosen by clients are rejected.
type SessionService struct {
	cache  ports.Cache
	ttl    time.Duration
	logger *logrus.Logger

	// writes to one session are serialized by its stripe
	locks [sessionLockCount]sync.Mutex
}

func NewSessionService(c ports.Cache, ttl time.Duration, logger *logrus.Logger) ports.SessionService {
	return &SessionService{cache: c, ttl: ttl, logger: logger}
}

func sessionKey(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidSession, id)
	}
	return sessionKeyPrefix + id, nil
}

func (s *SessionService) lock(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.locks[h.Sum32()%sessionLockCount]
}

func (s *SessionService) Start(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := cache.SetJSON(ctx, s.cache, sessionKeyPrefix+id, map[string]string{}, s.ttl); err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}
	return id, nil
}

func (s *SessionService) Values(ctx context.Context, id string) (map[string]string, error) {
	key, err := sessionKey(id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id, key)
}

func (s *SessionService) load(ctx context.Context, id, key string) (map[string]string, error) {
	v, ok := cache.GetJSON[map[string]string](ctx, s.cache, key)
	if !ok || *v == nil {
		return nil, fmt.Errorf("%w: %q not active", ErrInvalidSession, id)
	}
	return *v, nil
}

func (s *SessionService) Get(ctx context.Context, id, name string) (string, bool, error) {
	values, err := s.Values(ctx, id)
	if err != nil {
		return "", false, err
	}
	v, ok := values[name]
	return v, ok, nil
}

func (s *SessionService) Put(ctx context.Context, id, name, value string) error {
	key, err := sessionKey(id)
	if err != nil {
		return err
	}
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	values, err := s.load(ctx, id, key)
	if err != nil {
		return err
	}
	if value == "" {
		delete(values, name)
	} else {
		values[name] = value
	}

	if err := cache.SetJSON(ctx, s.cache, key, values, s.ttl); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"session": id, "name": name}).WithError(err).Error("failed to persist session")
		}
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (s *SessionService) Destroy(ctx context.Context, id string) error {
	key, err := sessionKey(id)
	if err != nil {
		return err
	}
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	if err := s.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	if s.logger != nil {
		s.logger.WithField("session", id).Debug("session destroyed")
	}
	return nil
}
