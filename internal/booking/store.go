package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "booking:session:"

// SessionStore persists wizard sessions between HTTP calls.
type SessionStore interface {
	Get(ctx context.Context, visitorID string) (*Session, error)
	Put(ctx context.Context, session *Session) error
	Delete(ctx context.Context, visitorID string) error
}

// MemoryStore keeps sessions in process memory, for tests and single-node
// local runs.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (s *MemoryStore) Get(ctx context.Context, visitorID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[visitorID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copy := *sess
	return &copy, nil
}

func (s *MemoryStore) Put(ctx context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *session
	s.sessions[session.VisitorID] = &copy
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, visitorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, visitorID)
	return nil
}

// RedisStore persists sessions in Redis with a TTL, so an abandoned wizard
// expires on its own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a session store on top of an existing Redis client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("booking: redis client required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, visitorID string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+visitorID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("booking: session get: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("booking: session decode: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Put(ctx context.Context, session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("booking: session encode: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.VisitorID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("booking: session put: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, visitorID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+visitorID).Err(); err != nil {
		return fmt.Errorf("booking: session delete: %w", err)
	}
	return nil
}

var (
	_ SessionStore = (*MemoryStore)(nil)
	_ SessionStore = (*RedisStore)(nil)
)
