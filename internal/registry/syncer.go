package registry

import (
	"context"
	"log/slog"
	"time"

	"plume/internal/config"
	"plume/internal/logging"
	"plume/internal/sensor"
	"plume/internal/store"
)

// Syncer reconciles registry snapshots into the sensor store.
type Syncer struct {
	store       *store.Store
	client      *Client
	throttle    time.Duration
	commitEvery int
	logger      *slog.Logger
}

// SyncSummary reports what one sync pass did.
type SyncSummary struct {
	Records    int
	Upserted   int
	Settled    int
	NoLocation int
	Commits    int
}

// NewSyncer constructs a syncer from configuration.
func NewSyncer(cfg *config.Config, st *store.Store, client *Client, logger *slog.Logger) *Syncer {
	return &Syncer{
		store:       st,
		client:      client,
		throttle:    time.Duration(cfg.Registry.ThrottleMS) * time.Millisecond,
		commitEvery: cfg.Registry.CommitEvery,
		logger:      logging.NewComponentLogger(logger, "sync"),
	}
}

// Sync fetches the full registry and reconciles it into the store.
// Failure to fetch the registry is fatal; per-sensor detail failures
// degrade to unknown fields.
func (s *Syncer) Sync(ctx context.Context) (SyncSummary, error) {
	records, err := s.client.FetchRegistry(ctx)
	if err != nil {
		return SyncSummary{}, err
	}
	s.logger.Info("fetched registry snapshot", logging.Int("records", len(records)))
	return s.Reconcile(ctx, records)
}

// Reconcile applies one registry snapshot, in the order received. Every
// commitEvery upserts the accumulated batch is committed so a crash
// loses a bounded amount of work.
func (s *Syncer) Reconcile(ctx context.Context, records []RawRecord) (SyncSummary, error) {
	summary := SyncSummary{}

	batch, err := s.store.BeginBatch(ctx)
	if err != nil {
		return summary, err
	}
	defer func() { _ = batch.Rollback() }()

	pending := 0
	for _, record := range records {
		if err := sleepCtx(ctx, s.throttle); err != nil {
			return summary, err
		}
		summary.Records++

		existing, err := s.store.GetByID(ctx, record.ID)
		if err != nil {
			return summary, err
		}
		if existing != nil && existing.Processed {
			// settled; repeated full-registry syncs stay cheap
			summary.Settled++
			s.logger.Debug("skipping settled sensor", logging.Int64("sensor_id", record.ID))
			continue
		}

		if record.Latitude == nil || record.Longitude == nil {
			summary.NoLocation++
			s.logger.Info("skipping sensor without location",
				logging.Int64("sensor_id", record.ID),
				logging.String("label", record.Label),
				logging.String("hidden", record.Hidden))
			continue
		}

		detail := s.fetchDetail(ctx, record.ID)
		if err := batch.Upsert(ctx, buildSensor(record, detail)); err != nil {
			return summary, err
		}
		summary.Upserted++
		pending++

		if pending >= s.commitEvery {
			if err := batch.Commit(); err != nil {
				return summary, err
			}
			summary.Commits++
			pending = 0
			s.logger.Info("committed sync progress",
				logging.Int("records", summary.Records),
				logging.Int("upserted", summary.Upserted),
				logging.Int64("last_sensor_id", record.ID))
			if batch, err = s.store.BeginBatch(ctx); err != nil {
				return summary, err
			}
		}
	}

	if pending > 0 {
		if err := batch.Commit(); err != nil {
			return summary, err
		}
		summary.Commits++
	}

	s.logger.Info("sync complete",
		logging.Int("records", summary.Records),
		logging.Int("upserted", summary.Upserted),
		logging.Int("settled_skipped", summary.Settled),
		logging.Int("no_location", summary.NoLocation))
	return summary, nil
}

// fetchDetail degrades gracefully: any failure is recorded as unknown
// fields rather than aborting the sync.
func (s *Syncer) fetchDetail(ctx context.Context, id int64) Detail {
	detail, err := s.client.FetchDetail(ctx, id)
	if err != nil {
		s.logger.Warn("detail lookup failed, recording unknown fields",
			logging.Int64("sensor_id", id),
			logging.Error(err))
		return Detail{}
	}
	return detail
}

func buildSensor(record RawRecord, detail Detail) *sensor.Sensor {
	sn := &sensor.Sensor{
		ID:               record.ID,
		ParentID:         record.ParentID,
		Name:             record.Label,
		LocationType:     record.LocationType,
		Hidden:           record.Hidden == "true",
		Type:             record.Type,
		Latitude:         record.Latitude,
		Longitude:        record.Longitude,
		PrimaryFeedID:    record.PrimaryFeedID,
		PrimaryFeedKey:   record.PrimaryFeedKey,
		SecondaryFeedID:  record.SecondaryFeedID,
		SecondaryFeedKey: record.SecondaryFeedKey,
		FirmwareVersion:  detail.Version,
	}
	if sn.LocationType == "" {
		sn.LocationType = "unknown"
	}
	if sn.FirmwareVersion == "" {
		sn.FirmwareVersion = "unknown"
	}
	if record.LastSeen > 0 {
		lastSeen := time.Unix(record.LastSeen, 0).UTC()
		sn.LastSeen = &lastSeen
	}
	if detail.Created > 0 {
		created := time.Unix(detail.Created, 0).UTC()
		sn.CreatedDate = &created
	}
	if detail.RSSI != nil {
		v := *detail.RSSI
		sn.SignalStrength = &v
	}
	return sn
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
