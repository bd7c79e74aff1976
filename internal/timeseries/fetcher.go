// Package timeseries downloads per-day CSV extracts from the remote feed
// API, using file existence as a durable cache so interrupted batch runs
// can be re-driven cheaply.
package timeseries

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"plume/internal/config"
	"plume/internal/logging"
)

// HTTPDoer describes the HTTP client used by the fetcher.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Outcome describes what a FetchDay call did.
type Outcome int

const (
	// OutcomeCached means the day's file already existed; no request was made.
	OutcomeCached Outcome = iota
	// OutcomeDownloaded means a new file was written and kept.
	OutcomeDownloaded
	// OutcomeDiscarded means the response was too small to be real data
	// and the file was deleted so the day retries next run.
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCached:
		return "cached"
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Fetcher retrieves one channel-day of CSV data per call.
type Fetcher struct {
	baseURL     string
	dir         string
	minBytes    int64
	client      HTTPDoer
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger
}

// New constructs a fetcher from configuration. A nil client selects
// http.DefaultClient.
func New(cfg *config.Config, client HTTPDoer, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		baseURL:     cfg.Feeds.BaseURL,
		dir:         cfg.Paths.ReadingsDir,
		minBytes:    cfg.Feeds.MinBytes,
		client:      client,
		timeout:     time.Duration(cfg.Feeds.RequestTimeout) * time.Second,
		maxAttempts: cfg.Feeds.RetryAttempts,
		backoff:     time.Duration(cfg.Feeds.RetryBackoffMS) * time.Millisecond,
		logger:      logging.NewComponentLogger(logger, "timeseries"),
	}
}

// FilePath returns the deterministic cache location for one channel-day.
func (f *Fetcher) FilePath(channelID, instance string, day time.Time) string {
	name := fmt.Sprintf("feed-%s-%s-%s.csv", channelID, instance, day.Format("2006-01-02"))
	return filepath.Join(f.dir, name)
}

// FetchDay downloads one calendar day of one channel's CSV extract. The
// file's existence on disk short-circuits the call, which is what makes
// re-running a crashed batch cheap. Responses smaller than the configured
// minimum are deleted rather than cached as empty results.
func (f *Fetcher) FetchDay(ctx context.Context, channelID, apiKey string, day time.Time, instance string) (Outcome, error) {
	path := f.FilePath(channelID, instance, day)
	if _, err := os.Stat(path); err == nil {
		f.logger.Debug("cache hit",
			logging.String("channel", channelID),
			logging.String("instance", instance),
			logging.String("day", day.Format("2006-01-02")))
		return OutcomeCached, nil
	}

	body, err := f.get(ctx, channelID, apiKey, day)
	if err != nil {
		return OutcomeDiscarded, err
	}

	if err := os.WriteFile(path, body, 0o644); err != nil {
		return OutcomeDiscarded, fmt.Errorf("write day file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return OutcomeDiscarded, fmt.Errorf("stat day file: %w", err)
	}
	if info.Size() < f.minBytes {
		if err := os.Remove(path); err != nil {
			return OutcomeDiscarded, fmt.Errorf("remove undersized day file: %w", err)
		}
		f.logger.Debug("discarded empty extract",
			logging.String("channel", channelID),
			logging.String("day", day.Format("2006-01-02")),
			logging.Int64("bytes", info.Size()))
		return OutcomeDiscarded, nil
	}

	return OutcomeDownloaded, nil
}

func (f *Fetcher) get(ctx context.Context, channelID, apiKey string, day time.Time) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/channels/%s/feed.csv", f.baseURL, url.PathEscape(channelID))

	values := url.Values{}
	values.Set("api_key", apiKey)
	values.Set("offset", "0")
	values.Set("average", "")
	values.Set("round", "2")
	values.Set("start", day.Format("2006-01-02")+" 00:00:00")
	values.Set("end", day.Format("2006-01-02")+" 23:59:59")

	var lastErr error
	delay := f.backoff
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		body, retryable, err := f.attempt(ctx, endpoint+"?"+values.Encode())
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable || attempt == f.maxAttempts {
			break
		}
		f.logger.Debug("feed request failed, backing off",
			logging.String("channel", channelID),
			logging.Int("attempt", attempt),
			logging.Error(err))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		delay *= 2
	}
	return nil, fmt.Errorf("fetch channel %s day %s: %w", channelID, day.Format("2006-01-02"), lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string) (body []byte, retryable bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode >= http.StatusInternalServerError,
			fmt.Errorf("feed returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read feed body: %w", err)
	}
	return data, false, nil
}
