package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageError_Error(t *testing.T) {
	err := NewStorageError("s3", "get", "2026-02-23T10-00-00-record.txt", errors.New("timeout"))
	assert.Contains(t, err.Error(), "s3")
	assert.Contains(t, err.Error(), "get")
	assert.Contains(t, err.Error(), "2026-02-23T10-00-00-record.txt")
	assert.Contains(t, err.Error(), "timeout")
}

func TestStorageError_NoKey(t *testing.T) {
	err := NewStorageError("fs", "list", "", errors.New("permission denied"))
	assert.Contains(t, err.Error(), "fs storage list")
	assert.NotContains(t, err.Error(), `""`)
}

func TestStorageError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewStorageError("s3", "put", "k", inner)
	assert.ErrorIs(t, err, inner)
}

func TestSentinelErrors(t *testing.T) {
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrAuthFailure))
}
