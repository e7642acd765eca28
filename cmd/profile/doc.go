// Package profile persists the local projection of backend users.
//
// The backend owns identity; this store only mirrors {id, email} rows so that
// site features (and analytics joins) have a queryable users table. Writes are
// idempotent upserts keyed by the backend user id: conflicting ids overwrite,
// never duplicate.
package profile
