package profile

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements profile persistence over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must NOT close it.
// Schema/table identifiers are safely quoted to avoid SQL injection via identifiers.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the profile store (default "nimbus").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("profile: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("profile: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with safe defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "nimbus",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("profile: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) usersTable() string {
	return fmt.Sprintf("%q.users", s.schema)
}

// Upsert inserts or overwrites the row keyed by in.ID.
func (s *PostgresStore) Upsert(ctx context.Context, in UpsertInput) (Profile, error) {
	const op = "profile.Upsert"

	if s == nil || s.pool == nil {
		return Profile{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		return Profile{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "empty id"}
	}
	email := strings.TrimSpace(in.Email)

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	q := fmt.Sprintf(`
		INSERT INTO %s (id, email, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email, updated_at = EXCLUDED.updated_at
		RETURNING id, email, created_at, updated_at
	`, s.usersTable())

	var p Profile
	err := s.pool.QueryRow(ctx, q, id, email, now).
		Scan(&p.ID, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// GetByID fetches one mirrored user row.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (Profile, error) {
	const op = "profile.GetByID"

	if s == nil || s.pool == nil {
		return Profile{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Profile{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "empty id"}
	}

	q := fmt.Sprintf(`
		SELECT id, email, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, s.usersTable())

	var p Profile
	err := s.pool.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, NotFoundError{Op: op, Resource: "user"}
		}
		return Profile{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}
