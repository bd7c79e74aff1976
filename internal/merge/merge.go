// Package merge folds per-day feed CSV fragments into one combined file.
package merge

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"plume/internal/config"
	"plume/internal/logging"
)

// Summary reports what one merge pass did.
type Summary struct {
	Merged  int
	Removed int
	Rows    int64
}

// Merger combines downloaded day files into the configured output file.
type Merger struct {
	dir      string
	output   string
	minBytes int64
	logger   *slog.Logger
}

// New builds a merger from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Merger {
	return &Merger{
		dir:      cfg.Paths.ReadingsDir,
		output:   cfg.MergedPath(),
		minBytes: cfg.Feeds.MinBytes,
		logger:   logging.NewComponentLogger(logger, "merge"),
	}
}

// Run appends every day fragment to the combined file and removes the
// fragment afterwards. Each data row gains a leading column holding the
// feed channel id parsed from the fragment's filename, so rows from
// different sensors stay distinguishable in the combined file. The
// header line of each fragment is dropped. Undersized fragments are
// deleted without merging. Running twice is safe: merged fragments are
// gone, and the combined file only ever grows.
func (m *Merger) Run() (Summary, error) {
	summary := Summary{}

	fragments, err := filepath.Glob(filepath.Join(m.dir, "feed-*.csv"))
	if err != nil {
		return summary, fmt.Errorf("list day fragments: %w", err)
	}
	if len(fragments) == 0 {
		m.logger.Info("no day fragments to merge")
		return summary, nil
	}

	out, err := os.OpenFile(m.output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return summary, fmt.Errorf("open combined file: %w", err)
	}
	defer out.Close()

	writer := bufio.NewWriter(out)
	for _, fragment := range fragments {
		info, err := os.Stat(fragment)
		if err != nil {
			return summary, fmt.Errorf("stat fragment: %w", err)
		}
		if info.Size() < m.minBytes {
			if err := os.Remove(fragment); err != nil {
				return summary, fmt.Errorf("remove undersized fragment: %w", err)
			}
			summary.Removed++
			m.logger.Info("removed undersized fragment",
				logging.String("file", filepath.Base(fragment)),
				logging.Int64("bytes", info.Size()))
			continue
		}

		rows, err := m.appendFragment(writer, fragment)
		if err != nil {
			return summary, err
		}
		if err := writer.Flush(); err != nil {
			return summary, fmt.Errorf("flush combined file: %w", err)
		}
		if err := os.Remove(fragment); err != nil {
			return summary, fmt.Errorf("remove merged fragment: %w", err)
		}
		summary.Merged++
		summary.Rows += rows
	}

	if err := writer.Flush(); err != nil {
		return summary, fmt.Errorf("flush combined file: %w", err)
	}
	m.logger.Info("merge complete",
		logging.Int("merged", summary.Merged),
		logging.Int("removed", summary.Removed),
		logging.Int64("rows", summary.Rows))
	return summary, nil
}

func (m *Merger) appendFragment(w *bufio.Writer, path string) (int64, error) {
	channel, err := channelFromName(filepath.Base(path))
	if err != nil {
		return 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open fragment: %w", err)
	}
	defer f.Close()

	var rows int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	first := true
	for scanner.Scan() {
		if first {
			// drop the per-fragment header
			first = false
			continue
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if _, err := w.WriteString(channel + "," + line + "\n"); err != nil {
			return rows, fmt.Errorf("write combined row: %w", err)
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return rows, fmt.Errorf("read fragment %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// channelFromName extracts the feed channel id from a fragment name of
// the form feed-<channel>-<instance>-<date>.csv.
func channelFromName(name string) (string, error) {
	parts := strings.SplitN(name, "-", 4)
	if len(parts) < 4 || parts[0] != "feed" || parts[1] == "" {
		return "", fmt.Errorf("unrecognized fragment name %q", name)
	}
	return parts[1], nil
}
