package runlock_test

import (
	"errors"
	"path/filepath"
	"testing"

	"plume/internal/runlock"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "plume.lock")
	lock := runlock.New(path)

	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if err := lock.Acquire(); err != nil {
		t.Fatalf("reacquire after release failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
}

func TestSecondHolderIsRefused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plume.lock")

	first := runlock.New(path)
	if err := first.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer first.Release()

	second := runlock.New(path)
	err := second.Acquire()
	if !errors.Is(err, runlock.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestReleaseWithoutAcquire(t *testing.T) {
	lock := runlock.New(filepath.Join(t.TempDir(), "plume.lock"))
	if err := lock.Release(); err != nil {
		t.Fatalf("Release without Acquire must be a no-op: %v", err)
	}
}
