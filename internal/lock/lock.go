// Package lock serialises regenerate runs on one project with an advisory
// file lock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// FileName is the lock file created at the project root.
const FileName = ".dirctx.lock"

// ErrLocked is returned when another run holds the lock past the timeout.
var ErrLocked = errors.New("another dirctx run holds the project lock")

const retryDelay = 50 * time.Millisecond

// Lock is a held run lock.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the lock at path. With a zero timeout it tries once;
// otherwise it retries until the timeout elapses or ctx is done.
func Acquire(ctx context.Context, path string, timeout time.Duration) (*Lock, error) {
	fl := flock.New(path)

	if timeout <= 0 {
		locked, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("locking %s: %w", path, err)
		}
		if !locked {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return &Lock{fl: fl}, nil
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := fl.TryLockContext(tctx, retryDelay)
	if locked {
		return &Lock{fl: fl}, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	return nil, fmt.Errorf("%w: %s (waited %s)", ErrLocked, path, timeout)
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.fl.Path()
}

// Release unlocks. The lock file is left in place so that a concurrent
// waiter never locks an unlinked inode.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
