package mirror

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nimbus/cmd/internal/remote"
	"nimbus/cmd/profile"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	session  *remote.Session
	fetchErr error
	subErr   error

	mu      sync.Mutex
	handler remote.EventHandler
	unsubs  int32
}

func (f *fakeSource) GetSession(context.Context) (*remote.Session, error) {
	return f.session, f.fetchErr
}

func (f *fakeSource) Subscribe(_ context.Context, h remote.EventHandler) (Subscription, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
	return fakeSub{src: f}, nil
}

func (f *fakeSource) emit(ev remote.AuthEvent) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

type fakeSub struct{ src *fakeSource }

func (s fakeSub) Unsubscribe() { atomic.AddInt32(&s.src.unsubs, 1) }

// blockingStore parks every Upsert until released.
type blockingStore struct {
	started  chan struct{}
	release  chan struct{}
	failWith error

	mu    sync.Mutex
	calls []profile.UpsertInput
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (s *blockingStore) Upsert(ctx context.Context, in profile.UpsertInput) (profile.Profile, error) {
	s.started <- struct{}{}
	select {
	case <-s.release:
	case <-ctx.Done():
		return profile.Profile{}, ctx.Err()
	}
	s.mu.Lock()
	s.calls = append(s.calls, in)
	s.mu.Unlock()
	if s.failWith != nil {
		return profile.Profile{}, s.failWith
	}
	return profile.Profile{ID: in.ID, Email: in.Email}, nil
}

func (s *blockingStore) GetByID(context.Context, string) (profile.Profile, error) {
	return profile.Profile{}, profile.NotFoundError{Op: "test"}
}

func sessionFor(id, email string) *remote.Session {
	return &remote.Session{
		AccessToken: "tok",
		User:        remote.User{ID: id, Email: email},
	}
}

func TestMirror_UserFollowsLastNotification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		events   []*remote.Session
		wantUser string // "" means absent
	}{
		{name: "signed in", events: []*remote.Session{sessionFor("u1", "a@b.test")}, wantUser: "u1"},
		{name: "in then out", events: []*remote.Session{sessionFor("u1", "a@b.test"), nil}, wantUser: ""},
		{name: "out then in", events: []*remote.Session{nil, sessionFor("u2", "c@d.test")}, wantUser: "u2"},
		{name: "refresh overwrites", events: []*remote.Session{sessionFor("u1", "a@b.test"), sessionFor("u1", "renamed@b.test")}, wantUser: "u1"},
		{name: "nothing", events: nil, wantUser: ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			src := &fakeSource{}
			m := New(discardLogger(), src, nil)
			m.Start(context.Background())

			for _, s := range tc.events {
				ev := remote.AuthEvent{Type: remote.EventSignedIn, Session: s}
				if s == nil {
					ev.Type = remote.EventSignedOut
				}
				src.emit(ev)
			}

			u, ok := m.CurrentUser()
			if tc.wantUser == "" {
				if ok {
					t.Fatalf("expected absent user, got %+v", u)
				}
				return
			}
			if !ok || u.ID != tc.wantUser {
				t.Fatalf("user=%+v ok=%v want id=%q", u, ok, tc.wantUser)
			}
		})
	}
}

func TestMirror_LoadingClearsExactlyOnce(t *testing.T) {
	t.Parallel()

	src := &fakeSource{session: sessionFor("u1", "a@b.test")}
	m := New(discardLogger(), src, nil)

	if !m.Loading() {
		t.Fatalf("expected loading before Start")
	}
	m.Start(context.Background())
	if m.Loading() {
		t.Fatalf("loading after initial fetch resolved")
	}

	// No subsequent notification may revive the flag.
	src.emit(remote.AuthEvent{Type: remote.EventSignedOut})
	src.emit(remote.AuthEvent{Type: remote.EventSignedIn, Session: sessionFor("u2", "x@y.test")})
	if m.Loading() {
		t.Fatalf("loading reverted to true")
	}
}

func TestMirror_FetchErrorTreatedAsSignedOut(t *testing.T) {
	t.Parallel()

	src := &fakeSource{fetchErr: errors.New("backend down")}
	m := New(discardLogger(), src, nil)
	m.Start(context.Background())

	if m.Loading() {
		t.Fatalf("fetch error must still clear loading")
	}
	if _, ok := m.CurrentUser(); ok {
		t.Fatalf("fetch error must leave user absent")
	}
}

func TestMirror_UpsertFailureDoesNotAlterUser(t *testing.T) {
	t.Parallel()

	store := newBlockingStore()
	store.failWith = errors.New("users table gone")
	close(store.release) // upserts fail immediately

	src := &fakeSource{}
	m := New(discardLogger(), src, store)
	m.Start(context.Background())

	src.emit(remote.AuthEvent{Type: remote.EventSignedIn, Session: sessionFor("u1", "a@b.test")})

	select {
	case <-store.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("upsert never attempted")
	}
	// Give the failing goroutine a beat to (wrongly) clobber state.
	time.Sleep(20 * time.Millisecond)

	u, ok := m.CurrentUser()
	if !ok || u.ID != "u1" {
		t.Fatalf("user altered by upsert failure: %+v ok=%v", u, ok)
	}
}

func TestMirror_RapidSignInThenOut_LastWriteWins(t *testing.T) {
	t.Parallel()

	store := newBlockingStore() // first upsert stays in flight

	src := &fakeSource{}
	m := New(discardLogger(), src, store)
	m.Start(context.Background())

	src.emit(remote.AuthEvent{Type: remote.EventSignedIn, Session: sessionFor("u1", "a@b.test")})
	src.emit(remote.AuthEvent{Type: remote.EventSignedOut})

	if _, ok := m.CurrentUser(); ok {
		t.Fatalf("user present after trailing sign-out")
	}

	// Releasing the slow upsert later must not resurrect the user.
	close(store.release)
	time.Sleep(20 * time.Millisecond)
	if _, ok := m.CurrentUser(); ok {
		t.Fatalf("completed upsert resurrected the user")
	}
}

func TestMirror_CloseUnsubscribesExactlyOnce(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := New(discardLogger(), src, nil)
	m.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Close()
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&src.unsubs); n != 1 {
		t.Fatalf("unsubscribed %d times, want 1", n)
	}
}

func TestMirror_SubscribeFailureStillSeeds(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		session: sessionFor("u1", "a@b.test"),
		subErr:  errors.New("dial refused"),
	}
	m := New(discardLogger(), src, nil)
	m.Start(context.Background())

	u, ok := m.CurrentUser()
	if !ok || u.ID != "u1" {
		t.Fatalf("seed fetch ignored after subscribe failure: %+v ok=%v", u, ok)
	}
	m.Close() // must not panic with nil subscription
}

func TestMirror_UsernameFromMetadata(t *testing.T) {
	t.Parallel()

	s := sessionFor("u1", "a@b.test")
	s.User.Metadata = map[string]any{"username": " ada "}

	src := &fakeSource{session: s}
	m := New(discardLogger(), src, nil)
	m.Start(context.Background())

	u, ok := m.CurrentUser()
	if !ok || u.Username == nil || *u.Username != "ada" {
		t.Fatalf("username projection wrong: %+v", u)
	}
}
