package mirror

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"nimbus/cmd/internal/metrics"
	"nimbus/cmd/internal/remote"
	"nimbus/cmd/profile"
)

const defaultUpsertTimeout = 5 * time.Second

// User is the local projection of the session's identity.
// Present if and only if the most recently observed session was non-nil.
type User struct {
	ID       string
	Email    string
	Username *string
}

// Mirror owns the local user projection and loading flag for one scope.
//
// State is mutated only from the subscription handler and the initial-fetch
// path; reads take a snapshot under the same mutex. The profile upsert runs
// fire-and-forget: it is never awaited, never retried, and its failure never
// alters the projection.
type Mirror struct {
	log      *slog.Logger
	src      Source
	profiles profile.Store

	upsertTimeout time.Duration

	mu      sync.Mutex
	user    *User
	loading bool
	sub     Subscription

	closeOnce sync.Once
}

// New constructs a Mirror in the loading state.
// profiles may be nil when no user-row store is configured.
func New(log *slog.Logger, src Source, profiles profile.Store) *Mirror {
	if log == nil {
		log = slog.Default()
	}
	return &Mirror{
		log:           log,
		src:           src,
		profiles:      profiles,
		upsertTimeout: defaultUpsertTimeout,
		loading:       true,
	}
}

// Start registers exactly one change subscription and issues the one initial
// session fetch. Fetch failures are logged and treated as signed out; a
// subscription failure is logged and leaves the Mirror working from the
// initial fetch alone (no retry by contract).
//
// ctx must outlive the scope; cancel it or call Close to stop the stream.
func (m *Mirror) Start(ctx context.Context) {
	sub, err := m.src.Subscribe(ctx, m.handleEvent)
	if err != nil {
		m.log.Error("mirror.subscribe.fail", "err", err)
	} else {
		m.mu.Lock()
		m.sub = sub
		m.mu.Unlock()
	}

	s, err := m.src.GetSession(ctx)
	if err != nil {
		m.log.Error("mirror.session.fetch.fail", "err", err)
		s = nil
	}
	m.apply(s)
}

// Close unregisters the change subscription. Idempotent.
func (m *Mirror) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		sub := m.sub
		m.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
	})
}

// CurrentUser returns the projected user; ok is false when signed out.
func (m *Mirror) CurrentUser() (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return User{}, false
	}
	return *m.user, true
}

// Loading reports whether the first session check is still outstanding.
// Once false it never turns true again for this Mirror.
func (m *Mirror) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// ClearUser drops the projection immediately (sign-out fast path; the
// SIGNED_OUT notification confirms it later).
func (m *Mirror) ClearUser() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
}

// handleEvent processes one change notification. Events arrive serially;
// the last write wins.
func (m *Mirror) handleEvent(ev remote.AuthEvent) {
	metrics.MirrorEvents.WithLabelValues(string(ev.Type)).Inc()
	m.apply(ev.Session)
}

func (m *Mirror) apply(s *remote.Session) {
	if s == nil {
		m.mu.Lock()
		m.user = nil
		m.loading = false
		m.mu.Unlock()
		return
	}

	u := userFromSession(s)

	m.mu.Lock()
	m.user = &u
	m.loading = false
	m.mu.Unlock()

	if m.profiles != nil {
		go m.upsertProfile(u)
	}
}

// upsertProfile mirrors the user row, best effort. Failures are logged and
// counted, never retried or surfaced.
func (m *Mirror) upsertProfile(u User) {
	ctx, cancel := context.WithTimeout(context.Background(), m.upsertTimeout)
	defer cancel()

	if _, err := m.profiles.Upsert(ctx, profile.UpsertInput{
		ID:    u.ID,
		Email: u.Email,
		Now:   time.Now().UTC(),
	}); err != nil {
		metrics.ProfileUpsertFailures.Inc()
		m.log.Error("mirror.profile.upsert.fail", "err", err, "user_id", u.ID)
	}
}

func userFromSession(s *remote.Session) User {
	u := User{
		ID:    s.User.ID,
		Email: s.User.Email,
	}
	if raw, ok := s.User.Metadata["username"]; ok {
		if name, ok := raw.(string); ok {
			name = strings.TrimSpace(name)
			if name != "" {
				u.Username = &name
			}
		}
	}
	return u
}
