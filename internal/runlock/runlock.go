// Package runlock guards the download pipeline against concurrent runs.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning reports that another process holds the run lock.
var ErrAlreadyRunning = errors.New("another download run is already in progress")

// Lock is an advisory file lock shared by all pipeline invocations.
type Lock struct {
	path string
	lock *flock.Flock
}

// New builds a lock at path without acquiring it.
func New(path string) *Lock {
	return &Lock{path: path, lock: flock.New(path)}
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock without blocking. A held lock yields
// ErrAlreadyRunning so callers can report it as a clean refusal.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("prepare lock directory: %w", err)
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	return nil
}

// Release drops the lock. Safe to call when the lock was never taken.
func (l *Lock) Release() error {
	return l.lock.Unlock()
}
