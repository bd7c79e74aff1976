package tracker_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"plume/internal/tracker"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	tr := tracker.New(filepath.Join(t.TempDir(), "download-tracker.txt"))
	done, err := tr.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(done) != 0 {
		t.Fatalf("expected empty set, got %d entries", len(done))
	}
}

func TestMarkDoneThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "download-tracker.txt")
	tr := tracker.New(path)

	for _, id := range []int64{42, 7, 42} {
		if err := tr.MarkDone(id); err != nil {
			t.Fatalf("MarkDone(%d) failed: %v", id, err)
		}
	}

	done, err := tr.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(done) != 2 {
		t.Fatalf("expected duplicate collapse to 2 entries, got %d", len(done))
	}
	for _, id := range []int64{42, 7} {
		if _, ok := done[id]; !ok {
			t.Fatalf("expected %d in set", id)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read tracker: %v", err)
	}
	if string(data) != "42\n7\n42\n" {
		t.Fatalf("unexpected file contents: %q", data)
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "download-tracker.txt")
	if err := os.WriteFile(path, []byte("42\n\nnot-a-number\n 7 \n"), 0o644); err != nil {
		t.Fatalf("write tracker: %v", err)
	}

	done, err := tracker.New(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(done) != 2 {
		t.Fatalf("expected 2 valid entries, got %d", len(done))
	}
}

func TestLoadAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "download-tracker.txt")

	first := tracker.New(path)
	if err := first.MarkDone(42); err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}

	// a fresh tracker simulates a process restart
	second := tracker.New(path)
	done, err := second.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := done[42]; !ok {
		t.Fatal("expected sensor 42 to survive restart")
	}

	if err := second.MarkDone(43); err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read tracker: %v", err)
	}
	if strings.Count(string(data), "\n") != 2 {
		t.Fatalf("expected two lines, got %q", data)
	}
}
