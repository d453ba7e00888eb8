package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deskline/helpdesk/internal/domain"
)

// ErrSessionNotFound is returned for unknown, expired or revoked sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps the server side record of issued tokens.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

type redisSessionStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisSessionStore keeps sessions as keys expiring with the token.
func NewRedisSessionStore(client *redis.Client, prefix string) SessionStore {
	return &redisSessionStore{client: client, prefix: prefix, now: time.Now}
}

type sessionPayload struct {
	UserID    string    `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *redisSessionStore) key(id string) string {
	return s.prefix + "session:" + id
}

func (s *redisSessionStore) Save(ctx context.Context, session domain.Session) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	payload, err := json.Marshal(sessionPayload{UserID: session.UserID, IssuedAt: session.IssuedAt, ExpiresAt: session.ExpiresAt})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.ID), payload, ttl).Err()
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return &domain.Session{ID: id, UserID: payload.UserID, IssuedAt: payload.IssuedAt, ExpiresAt: payload.ExpiresAt}, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	now      func() time.Time
}

// NewMemorySessionStore returns an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: map[string]domain.Session{}, now: time.Now}
}

func (s *MemorySessionStore) Save(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.now().Before(session.ExpiresAt) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
