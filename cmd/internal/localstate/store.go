// Package localstate is the per-visitor persisted key/value store.
//
// It is the server-side analog of browser local storage: small string values
// namespaced by visitor scope, each with a TTL. Sign-out clears an entire
// scope at once.
package localstate

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidKey is returned for empty scopes or keys.
var ErrInvalidKey = errors.New("localstate: invalid scope or key")

// Store persists per-scope key/value state.
type Store interface {
	// Set writes one value. ttl <= 0 means no expiry.
	Set(ctx context.Context, scope, key, value string, ttl time.Duration) error

	// Get reads one value; the bool reports presence.
	Get(ctx context.Context, scope, key string) (string, bool, error)

	// Delete removes one key (no error when absent).
	Delete(ctx context.Context, scope, key string) error

	// ClearAll removes every key in the scope.
	ClearAll(ctx context.Context, scope string) error
}
