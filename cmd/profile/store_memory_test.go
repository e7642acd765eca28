package profile

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_UpsertIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()
	t0 := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	p1, err := s.Upsert(ctx, UpsertInput{ID: "u1", Email: "a@b.test", Now: t0})
	if err != nil {
		t.Fatalf("upsert 1: %v", err)
	}
	if !p1.CreatedAt.Equal(t0) {
		t.Fatalf("created_at=%v want %v", p1.CreatedAt, t0)
	}

	t1 := t0.Add(time.Hour)
	p2, err := s.Upsert(ctx, UpsertInput{ID: "u1", Email: "new@b.test", Now: t1})
	if err != nil {
		t.Fatalf("upsert 2: %v", err)
	}
	if p2.Email != "new@b.test" {
		t.Fatalf("email not overwritten: %q", p2.Email)
	}
	if !p2.CreatedAt.Equal(t0) {
		t.Fatalf("created_at changed on conflict: %v", p2.CreatedAt)
	}
	if !p2.UpdatedAt.Equal(t1) {
		t.Fatalf("updated_at=%v want %v", p2.UpdatedAt, t1)
	}

	got, err := s.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "new@b.test" {
		t.Fatalf("got=%+v", got)
	}
}

func TestMemoryStore_UpsertRejectsEmptyID(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	_, err := s.Upsert(context.Background(), UpsertInput{ID: "  ", Email: "a@b.test"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestMemoryStore_GetByIDNotFound(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	_, err := s.GetByID(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
