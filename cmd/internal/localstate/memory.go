package localstate

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a dev-only fallback when Redis is not configured.
type MemoryStore struct {
	mu     sync.Mutex
	scopes map[string]map[string]memEntry
}

type memEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// NewMemoryStore constructs an in-memory Store implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scopes: make(map[string]map[string]memEntry)}
}

// Set writes one value with TTL.
func (s *MemoryStore) Set(ctx context.Context, scope, key, value string, ttl time.Duration) error {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.scopes[scope]
	if m == nil {
		m = make(map[string]memEntry)
		s.scopes[scope] = m
	}
	m[key] = memEntry{value: value, expiresAt: exp}
	return nil
}

// Get reads one value, honoring expiry lazily.
func (s *MemoryStore) Get(ctx context.Context, scope, key string) (string, bool, error) {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(key) == "" {
		return "", false, ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.scopes[scope]
	if m == nil {
		return "", false, nil
	}
	e, ok := m[key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(m, key)
		return "", false, nil
	}
	return e.value, true, nil
}

// Delete removes one key.
func (s *MemoryStore) Delete(ctx context.Context, scope, key string) error {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if m := s.scopes[scope]; m != nil {
		delete(m, key)
	}
	return nil
}

// ClearAll removes every key in the scope.
func (s *MemoryStore) ClearAll(ctx context.Context, scope string) error {
	if strings.TrimSpace(scope) == "" {
		return ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.scopes, scope)
	return nil
}

// Len reports the number of live keys in a scope (test helper).
func (s *MemoryStore) Len(scope string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scopes[scope])
}
