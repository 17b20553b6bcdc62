// Package apperr provides structured error types for the textpaste server.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrAuthFailure  = errors.New("authentication failed")
	ErrNotFound     = errors.New("record not found")
	ErrConfig       = errors.New("configuration error")
)

// StorageError represents a failure from the storage backend.
type StorageError struct {
	Backend string // "fs" or "s3"
	Op      string // "put", "list", "get", "delete", "ping"
	Key     string // record id, empty for list/ping
	Err     error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s storage %s %q: %v", e.Backend, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s storage %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps a backend failure with its operation context.
func NewStorageError(backend, op, key string, err error) *StorageError {
	return &StorageError{Backend: backend, Op: op, Key: key, Err: err}
}
