// Package tracker records which sensors have had their full time-series
// range downloaded, making batch runs resumable across process restarts.
//
// The log is a newline-delimited file of sensor ids, append-only. A
// sensor id is appended only after both of its channels completed, so a
// crash mid-sensor re-attempts the whole sensor next run; the per-day
// file cache makes that cheap. The file itself never deduplicates;
// callers load it into a membership set at startup.
package tracker

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// Tracker is an append-only completed-sensor log.
type Tracker struct {
	path string
}

// New returns a tracker backed by the given file path. The file is
// created lazily on the first MarkDone.
func New(path string) *Tracker {
	return &Tracker{path: path}
}

// Path returns the tracker file location.
func (t *Tracker) Path() string {
	return t.path
}

// Load reads the entire log into a membership set. A missing file is an
// empty set, not an error. Malformed lines are skipped.
func (t *Tracker) Load() (map[int64]struct{}, error) {
	done := make(map[int64]struct{})

	file, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return done, nil
		}
		return nil, fmt.Errorf("open tracker: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			continue
		}
		done[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tracker: %w", err)
	}
	return done, nil
}

// MarkDone durably appends a sensor id to the log. It must be called only
// after every day of both channels has been fetched or legitimately
// skipped.
func (t *Tracker) MarkDone(id int64) error {
	file, err := os.OpenFile(t.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open tracker for append: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(strconv.FormatInt(id, 10) + "\n"); err != nil {
		return fmt.Errorf("append tracker entry: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync tracker: %w", err)
	}
	return nil
}
