package profile

import (
	"context"
	"time"
)

// Profile is one mirrored user row.
type Profile struct {
	ID        string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpsertInput carries the fields written on every sign-in notification.
type UpsertInput struct {
	ID    string
	Email string
	Now   time.Time
}

// Store persists mirrored user rows.
//
// Upsert is idempotent under repeated application with an identical ID:
// an existing row is overwritten, never duplicated.
type Store interface {
	Upsert(ctx context.Context, in UpsertInput) (Profile, error)
	GetByID(ctx context.Context, id string) (Profile, error)
}
