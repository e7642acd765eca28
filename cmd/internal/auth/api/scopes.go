package authapi

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nimbus/cmd/internal/auth/facade"
	"nimbus/cmd/internal/auth/mirror"
	"nimbus/cmd/internal/localstate"
	"nimbus/cmd/internal/remote"
	"nimbus/cmd/profile"
)

// Scope bundles the per-visitor auth machinery: one backend client, one
// session mirror fed by its change stream, and the facade bound to both.
type Scope struct {
	Facade *facade.Facade
	Mirror *mirror.Mirror
}

// ScopeFactory builds the machinery for a new visitor.
type ScopeFactory func(ctx context.Context, visitorID string) (*Scope, error)

// NewScopeFactory returns the production factory: a real backend client per
// visitor, its mirror started immediately, the facade bound to the shared
// profile and localstate stores.
func NewScopeFactory(log *slog.Logger, rcfg remote.Config, fcfg facade.Config, profiles profile.Store, state localstate.Store) ScopeFactory {
	return func(ctx context.Context, visitorID string) (*Scope, error) {
		client, err := remote.NewClient(rcfg, log)
		if err != nil {
			return nil, err
		}
		m := mirror.New(log, mirror.SourceFromClient(client), profiles)
		// The change stream must outlive the request that created the scope;
		// it is stopped by Mirror.Close (hub eviction or shutdown), never by
		// the creating request's cancellation.
		m.Start(context.WithoutCancel(ctx))
		f := facade.New(log, fcfg, client, m, state, visitorID)
		return &Scope{Facade: f, Mirror: m}, nil
	}
}

type scopeEntry struct {
	scope    *Scope
	lastSeen time.Time
}

// Scopes owns the in-memory visitor scopes and hands out stable handles.
// Scopes idle past the TTL are evicted opportunistically on creation of a
// new scope; eviction closes the mirror's event subscription.
type Scopes struct {
	log     *slog.Logger
	factory ScopeFactory
	idleTTL time.Duration

	mu     sync.Mutex
	scopes map[string]*scopeEntry
}

// NewScopes constructs a Scopes hub. idleTTL <= 0 falls back to 30 minutes.
func NewScopes(log *slog.Logger, factory ScopeFactory, idleTTL time.Duration) *Scopes {
	if log == nil {
		log = slog.Default()
	}
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Scopes{
		log:     log,
		factory: factory,
		idleTTL: idleTTL,
		scopes:  make(map[string]*scopeEntry),
	}
}

// GetOrCreate returns a stable scope handle for the visitor, building one on
// first sight.
func (s *Scopes) GetOrCreate(ctx context.Context, visitorID string) (*Scope, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.scopes[visitorID]; ok {
		e.lastSeen = now
		return e.scope, nil
	}

	s.evictIdleLocked(now)

	sc, err := s.factory(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	s.scopes[visitorID] = &scopeEntry{scope: sc, lastSeen: now}
	s.log.Info("auth.scope.create", "visitor_id", visitorID)
	return sc, nil
}

// EvictIdle removes every scope not seen since now minus the idle TTL and
// reports how many were evicted.
func (s *Scopes) EvictIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictIdleLocked(now)
}

func (s *Scopes) evictIdleLocked(now time.Time) int {
	cut := now.Add(-s.idleTTL)
	evicted := 0
	for id, e := range s.scopes {
		if e.lastSeen.After(cut) {
			continue
		}
		if e.scope != nil && e.scope.Mirror != nil {
			e.scope.Mirror.Close()
		}
		delete(s.scopes, id)
		evicted++
		s.log.Info("auth.scope.evict", "visitor_id", id)
	}
	return evicted
}

// Len reports the number of live scopes.
func (s *Scopes) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scopes)
}

// CloseAll tears down every scope's event subscription.
func (s *Scopes) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.scopes {
		if e.scope != nil && e.scope.Mirror != nil {
			e.scope.Mirror.Close()
		}
		delete(s.scopes, id)
	}
}
