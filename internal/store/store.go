// Package store defines the record storage abstraction shared by the
// filesystem and S3 backends.
package store

import "context"

// Store is a flat key-value object store holding one text blob per
// record id. List returns bare record ids in no particular order; the
// caller owns sorting. Get and Delete fail with a StorageError wrapping
// apperr.ErrNotFound when the id is absent.
type Store interface {
	Put(ctx context.Context, id, content string) error
	List(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error

	// Ping verifies the backend is reachable. Used by readiness checks.
	Ping(ctx context.Context) error
}
