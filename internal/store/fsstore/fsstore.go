// Package fsstore implements record storage on a local directory, one
// file per record.
package fsstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chaiyot-k/textpaste/internal/apperr"
)

const backend = "fs"

// Store keeps records as files directly under Dir. Record ids are
// validated by the record service before they reach this layer.
type Store struct {
	dir string
}

// New creates the records directory if needed and returns the store.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.NewStorageError(backend, "init", "", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Put(ctx context.Context, id, content string) error {
	if err := ctx.Err(); err != nil {
		return apperr.NewStorageError(backend, "put", id, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, id), []byte(content), 0o644); err != nil {
		return apperr.NewStorageError(backend, "put", id, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.NewStorageError(backend, "list", "", err)
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperr.NewStorageError(backend, "list", "", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ids = append(ids, e.Name())
	}
	return ids, nil
}

func (s *Store) Get(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.NewStorageError(backend, "get", id, err)
	}
	b, err := os.ReadFile(filepath.Join(s.dir, id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperr.NewStorageError(backend, "get", id, apperr.ErrNotFound)
		}
		return "", apperr.NewStorageError(backend, "get", id, err)
	}
	return string(b), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return apperr.NewStorageError(backend, "delete", id, err)
	}
	if err := os.Remove(filepath.Join(s.dir, id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperr.NewStorageError(backend, "delete", id, apperr.ErrNotFound)
		}
		return apperr.NewStorageError(backend, "delete", id, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return apperr.NewStorageError(backend, "ping", "", err)
	}
	if _, err := os.Stat(s.dir); err != nil {
		return apperr.NewStorageError(backend, "ping", "", err)
	}
	return nil
}
