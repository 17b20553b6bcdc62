package fsstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaiyot-k/textpaste/internal/apperr"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "records"))
	require.NoError(t, err)
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	content := "hello\nworld — สวัสดี 🙂"
	require.NoError(t, s.Put(ctx, "2026-02-23T10-00-00-record.txt", content))

	got, err := s.Get(ctx, "2026-02-23T10-00-00-record.txt")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestGet_NotFound(t *testing.T) {
	s := newStore(t)

	_, err := s.Get(context.Background(), "2026-02-23T10-00-00-record.txt")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestList(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "2026-02-23T10-00-00-record.txt", "a"))
	require.NoError(t, s.Put(ctx, "2026-02-24T11-00-00-record.txt", "b"))

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"2026-02-23T10-00-00-record.txt",
		"2026-02-24T11-00-00-record.txt",
	}, ids)
}

func TestList_Empty(t *testing.T) {
	s := newStore(t)

	ids, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "2026-02-23T10-00-00-record.txt", "a"))
	require.NoError(t, s.Delete(ctx, "2026-02-23T10-00-00-record.txt"))

	_, err := s.Get(ctx, "2026-02-23T10-00-00-record.txt")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// Second delete reports not found.
	assert.ErrorIs(t, s.Delete(ctx, "2026-02-23T10-00-00-record.txt"), apperr.ErrNotFound)
}

func TestPut_SameSecondOverwrites(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "2026-02-23T10-00-00-record.txt", "first"))
	require.NoError(t, s.Put(ctx, "2026-02-23T10-00-00-record.txt", "second"))

	got, err := s.Get(ctx, "2026-02-23T10-00-00-record.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestPing(t *testing.T) {
	s := newStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestCancelledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, s.Put(ctx, "x", "y"))
	_, err := s.List(ctx)
	assert.Error(t, err)
}
