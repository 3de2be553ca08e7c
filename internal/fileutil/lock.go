// Package fileutil holds the file discipline shared by every on-disk format:
// advisory locking and replace-by-rename writes.
package fileutil

import (
	"context"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// LockRetryDelay is the interval between attempts to take a busy lock.
const LockRetryDelay = 50 * time.Millisecond

// LockSuffix is appended to a data file path to form its lock file path.
const LockSuffix = ".lock"

// ErrLockNotAcquired is returned when the lock could not be taken before the
// context ended. I/O failures on the lock file are returned as they are.
var ErrLockNotAcquired = errors.New("file lock not acquired")

// WithLock runs fn while holding the exclusive advisory lock of path. The lock
// lives in a sibling "<path>.lock" file and is released on every return path.
func WithLock(ctx context.Context, path string, fn func() error) (err error) {
	lock := flock.New(path + LockSuffix)

	locked, err := lock.TryLockContext(ctx, LockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrapf(ErrLockNotAcquired, "%s: %v", path, err)
		}
		return errors.Wrapf(err, "lock %s", path)
	}
	if !locked {
		return errors.Wrap(ErrLockNotAcquired, path)
	}

	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil && err == nil {
			err = errors.Wrapf(unlockErr, "unlock %s", path)
		}
	}()

	return fn()
}
