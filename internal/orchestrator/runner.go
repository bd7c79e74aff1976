package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"plume/internal/config"
	"plume/internal/daterange"
	"plume/internal/geo"
	"plume/internal/logging"
	"plume/internal/preflight"
	"plume/internal/runlock"
	"plume/internal/sensor"
	"plume/internal/store"
	"plume/internal/timeseries"
	"plume/internal/tracker"
)

// ErrBoxTooLarge reports a bounding box wider than the configured limit.
var ErrBoxTooLarge = errors.New("bounding box exceeds the configured span limit")

// ErrPreflightFailed reports that a readiness check refused the run.
var ErrPreflightFailed = errors.New("preflight checks failed")

// Runner executes download runs.
type Runner struct {
	cfg     *config.Config
	store   *store.Store
	fetcher *timeseries.Fetcher
	tracker *tracker.Tracker
	lock    *runlock.Lock
	logger  *slog.Logger
	now     func() time.Time
}

// Options carries the per-run parameters of one invocation.
type Options struct {
	Box          geo.Box
	LookbackDays int
	// ForceLargeArea skips the bounding-box span guard.
	ForceLargeArea bool
}

// Summary reports what one run did.
type Summary struct {
	Sensors    int
	Completed  int
	Skipped    int
	Failed     int
	Downloaded int
	Cached     int
	Discarded  int
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithNow overrides the clock used to anchor lookback windows.
func WithNow(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// New builds a runner over the given store and fetcher.
func New(cfg *config.Config, st *store.Store, fetcher *timeseries.Fetcher, logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:     cfg,
		store:   st,
		fetcher: fetcher,
		tracker: tracker.New(cfg.TrackerPath()),
		lock:    runlock.New(cfg.LockPath()),
		logger:  logging.NewComponentLogger(logger, "download"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run walks every settled sensor inside opts.Box and downloads its feed
// history day by day. Sensors already recorded in the tracker are
// skipped, so an interrupted run resumes where it stopped. A sensor is
// marked done only after every day of every feed succeeded; partial
// sensors are retried wholesale on the next run, where cached day files
// make the repeat cheap.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	summary := Summary{}

	if !opts.ForceLargeArea && opts.Box.SpanExceeds(r.cfg.Download.BoxLimitDegrees) {
		return summary, fmt.Errorf("%w: limit %.1f degrees", ErrBoxTooLarge, r.cfg.Download.BoxLimitDegrees)
	}

	if results := preflight.RunAll(ctx, r.cfg); !preflight.AllPassed(results) {
		for _, res := range results {
			if !res.Passed {
				r.logger.Error("preflight check failed",
					logging.String("check", res.Name),
					logging.String("detail", res.Detail))
			}
		}
		return summary, ErrPreflightFailed
	}

	if err := r.lock.Acquire(); err != nil {
		return summary, err
	}
	defer func() { _ = r.lock.Release() }()

	runLogger := r.logger.With(logging.String(logging.FieldRunID, uuid.NewString()))

	done, err := r.tracker.Load()
	if err != nil {
		return summary, err
	}

	sensors, err := r.store.ProcessedInBox(ctx, opts.Box)
	if err != nil {
		return summary, err
	}
	summary.Sensors = len(sensors)
	runLogger.Info("starting download run",
		logging.Int("sensors", len(sensors)),
		logging.Int("already_done", len(done)),
		logging.Int("lookback_days", opts.LookbackDays))

	for _, sn := range sensors {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if _, ok := done[sn.ID]; ok {
			summary.Skipped++
			runLogger.Debug("sensor already downloaded", logging.Int64("sensor_id", sn.ID))
			continue
		}
		if !opts.Box.Contains(sn.Latitude, sn.Longitude) {
			summary.Skipped++
			continue
		}
		if sn.CreatedDate == nil || sn.LastSeen == nil {
			// likely a degraded sync; left untracked so a later
			// sync plus run can fill it in
			summary.Skipped++
			runLogger.Warn("sensor is missing lifetime dates, skipping",
				logging.Int64("sensor_id", sn.ID))
			continue
		}

		if err := r.downloadSensor(ctx, runLogger, sn, opts.LookbackDays, &summary); err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			summary.Failed++
			runLogger.Error("sensor download failed, will retry next run",
				logging.Int64("sensor_id", sn.ID),
				logging.Error(err))
			continue
		}
		if err := r.tracker.MarkDone(sn.ID); err != nil {
			return summary, err
		}
		summary.Completed++
	}

	runLogger.Info("download run complete",
		logging.Int("completed", summary.Completed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("downloaded", summary.Downloaded),
		logging.Int("cached", summary.Cached))
	return summary, nil
}

func (r *Runner) downloadSensor(ctx context.Context, logger *slog.Logger, sn *sensor.Sensor, lookbackDays int, summary *Summary) error {
	start, end := daterange.Window(r.now(), lookbackDays, *sn.CreatedDate, *sn.LastSeen)
	days := daterange.Days(start, end)
	feeds := sn.Feeds()
	logger.Info("downloading sensor history",
		logging.Int64("sensor_id", sn.ID),
		logging.String("name", sn.Name),
		logging.Int("days", len(days)),
		logging.Int("feeds", len(feeds)))

	for _, feed := range feeds {
		for _, day := range days {
			outcome, err := r.fetcher.FetchDay(ctx, feed.ID, feed.Key, day, feed.Instance)
			if err != nil {
				return fmt.Errorf("feed %s day %s: %w", feed.ID, day.Format("2006-01-02"), err)
			}
			switch outcome {
			case timeseries.OutcomeDownloaded:
				summary.Downloaded++
			case timeseries.OutcomeCached:
				summary.Cached++
			case timeseries.OutcomeDiscarded:
				summary.Discarded++
			}
		}
	}
	return nil
}
