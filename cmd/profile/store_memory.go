package profile

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a dev-only fallback when the database is not configured.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]Profile
}

// NewMemoryStore constructs an in-memory Store implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Profile)}
}

// Upsert inserts or overwrites the row keyed by in.ID.
func (s *MemoryStore) Upsert(ctx context.Context, in UpsertInput) (Profile, error) {
	const op = "profile.Upsert"

	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return Profile{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "empty id"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.rows[id]
	if !ok {
		p = Profile{ID: id, CreatedAt: now}
	}
	p.Email = strings.TrimSpace(in.Email)
	p.UpdatedAt = now
	s.rows[id] = p
	return p, nil
}

// GetByID fetches one mirrored user row.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (Profile, error) {
	const op = "profile.GetByID"

	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.rows[strings.TrimSpace(id)]
	if !ok {
		return Profile{}, NotFoundError{Op: op, Resource: "user"}
	}
	return p, nil
}
