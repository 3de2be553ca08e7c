package fileutil

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json")

	err := WriteAtomic(path, 0o644, func(w io.Writer) error {
		_, err := io.WriteString(w, "first")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestWriteAtomic_FailureKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	boom := errors.New("boom")
	err := WriteAtomic(path, 0o644, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be cleaned up")
}

func TestWithLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "记录.xlsx")

	called := false
	err := WithLock(context.Background(), path, func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	// Released: another holder can take it immediately.
	other := flock.New(path + LockSuffix)
	locked, err := other.TryLock()
	require.NoError(t, err)
	assert.True(t, locked)
	require.NoError(t, other.Unlock())
}

func TestWithLock_ReleasedOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "记录.xlsx")
	boom := errors.New("boom")

	err := WithLock(context.Background(), path, func() error { return boom })
	assert.ErrorIs(t, err, boom)

	other := flock.New(path + LockSuffix)
	locked, err := other.TryLock()
	require.NoError(t, err)
	assert.True(t, locked)
	require.NoError(t, other.Unlock())
}

func TestWithLock_ContextEndsWhileBusy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "记录.xlsx")

	holder := flock.New(path + LockSuffix)
	locked, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer holder.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	called := false
	err = WithLock(ctx, path, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLockNotAcquired)
	assert.False(t, called)
}

func TestWithLock_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "记录.xlsx")

	called := false
	err := WithLock(context.Background(), path, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.NotErrorIs(t, err, ErrLockNotAcquired)
	assert.False(t, called)
}
