package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"plume/internal/config"
	"plume/internal/logging"
)

// ErrRegistryUnavailable marks a failure to obtain the registry snapshot.
// There is no partial registry to reconcile against, so callers must
// abort the sync.
var ErrRegistryUnavailable = errors.New("registry unavailable")

// HTTPDoer describes the HTTP client used by the registry client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RawRecord is one sensor entry of the registry snapshot, in the remote
// service's field naming.
type RawRecord struct {
	ID           int64    `json:"ID"`
	ParentID     *int64   `json:"ParentID"`
	Label        string   `json:"Label"`
	Latitude     *float64 `json:"Lat"`
	Longitude    *float64 `json:"Lon"`
	LocationType string   `json:"DEVICE_LOCATIONTYPE"`
	// Hidden arrives as the strings "true"/"false".
	Hidden           string `json:"Hidden"`
	Type             string `json:"Type"`
	LastSeen         int64  `json:"LastSeen"`
	PrimaryFeedID    string `json:"THINGSPEAK_PRIMARY_ID"`
	PrimaryFeedKey   string `json:"THINGSPEAK_PRIMARY_ID_READ_KEY"`
	SecondaryFeedID  string `json:"THINGSPEAK_SECONDARY_ID"`
	SecondaryFeedKey string `json:"THINGSPEAK_SECONDARY_ID_READ_KEY"`
}

// Detail is the optional per-sensor detail record. Every field may be
// absent; absence is not an error.
type Detail struct {
	Version string `json:"Version"`
	Uptime  int64  `json:"Uptime"`
	RSSI    *int64 `json:"RSSI"`
	// Created is the registration time as an epoch timestamp; zero when
	// unreported.
	Created int64 `json:"Created"`
}

type registryPayload struct {
	Results []RawRecord `json:"results"`
}

type detailPayload struct {
	Results []Detail `json:"results"`
}

// Client talks to the remote sensor registry.
type Client struct {
	registryURL string
	detailURL   string
	client      HTTPDoer
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger
}

// NewClient constructs a registry client from configuration. A nil doer
// selects http.DefaultClient.
func NewClient(cfg *config.Config, client HTTPDoer, logger *slog.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		registryURL: cfg.Registry.URL,
		detailURL:   cfg.Registry.DetailURL,
		client:      client,
		timeout:     time.Duration(cfg.Registry.RequestTimeout) * time.Second,
		maxAttempts: cfg.Registry.RetryAttempts,
		backoff:     time.Duration(cfg.Registry.RetryBackoffMS) * time.Millisecond,
		logger:      logging.NewComponentLogger(logger, "registry"),
	}
}

// FetchRegistry retrieves the full sensor registry snapshot.
func (c *Client) FetchRegistry(ctx context.Context) ([]RawRecord, error) {
	var payload registryPayload
	if err := c.getJSON(ctx, c.registryURL, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}
	return payload.Results, nil
}

// FetchDetail retrieves the detail record for one sensor. A missing
// record is a valid response and yields a zero Detail.
func (c *Client) FetchDetail(ctx context.Context, id int64) (Detail, error) {
	url := c.detailURL + "?show=" + strconv.FormatInt(id, 10)
	var payload detailPayload
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return Detail{}, err
	}
	if len(payload.Results) == 0 {
		return Detail{}, nil
	}
	return payload.Results[0], nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	var lastErr error
	delay := c.backoff
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		retryable, err := c.attempt(ctx, url, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable || attempt == c.maxAttempts {
			break
		}
		c.logger.Debug("registry request failed, backing off",
			logging.String("url", url),
			logging.Int("attempt", attempt),
			logging.Error(err))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return lastErr
}

func (c *Client) attempt(ctx context.Context, url string, out any) (retryable bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("build registry request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return true, fmt.Errorf("registry request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode >= http.StatusInternalServerError,
			fmt.Errorf("registry returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode registry payload: %w", err)
	}
	return false, nil
}
