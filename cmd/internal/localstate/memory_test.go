package localstate

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "v1", "theme", "dark", 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := s.Get(ctx, "v1", "theme")
	if err != nil || !ok || got != "dark" {
		t.Fatalf("get=%q ok=%v err=%v", got, ok, err)
	}

	if err := s.Delete(ctx, "v1", "theme"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "v1", "theme"); ok {
		t.Fatalf("key survived delete")
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "v1", "oauth_state", "nonce", 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, ok, _ := s.Get(ctx, "v1", "oauth_state"); ok {
		t.Fatalf("expired key still readable")
	}
}

func TestMemoryStore_ClearAllIsScoped(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Set(ctx, "v1", "a", "1", 0)
	_ = s.Set(ctx, "v1", "b", "2", 0)
	_ = s.Set(ctx, "v2", "a", "3", 0)

	if err := s.ClearAll(ctx, "v1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n := s.Len("v1"); n != 0 {
		t.Fatalf("scope v1 has %d keys after ClearAll", n)
	}
	if got, ok, _ := s.Get(ctx, "v2", "a"); !ok || got != "3" {
		t.Fatalf("unrelated scope touched: got=%q ok=%v", got, ok)
	}
}

func TestMemoryStore_RejectsEmptyScopeOrKey(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "", "k", "v", 0); err != ErrInvalidKey {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if err := s.ClearAll(ctx, "  "); err != ErrInvalidKey {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
