package testsupport

import (
	"context"
	"testing"
	"time"

	"plume/internal/config"
	"plume/internal/sensor"
	"plume/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedSensor upserts and optionally settles a sensor for tests.
func SeedSensor(t testing.TB, st *store.Store, sn *sensor.Sensor) {
	t.Helper()

	ctx := context.Background()
	batch, err := st.BeginBatch(ctx)
	if err != nil {
		t.Fatalf("BeginBatch: %v", err)
	}
	if err := batch.Upsert(ctx, sn); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := batch.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if sn.Processed {
		if _, err := st.MarkProcessed(ctx, sn.ID); err != nil {
			t.Fatalf("MarkProcessed: %v", err)
		}
	}
}

// NewSensor builds a sensor with plausible defaults for tests.
func NewSensor(id int64, lat, lon float64) *sensor.Sensor {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	lastSeen := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	return &sensor.Sensor{
		ID:               id,
		Name:             "Test Sensor",
		LocationType:     "outside",
		Latitude:         &lat,
		Longitude:        &lon,
		CreatedDate:      &created,
		LastSeen:         &lastSeen,
		PrimaryFeedID:    "100001",
		PrimaryFeedKey:   "PRIMARYKEY",
		SecondaryFeedID:  "100002",
		SecondaryFeedKey: "SECONDARYKEY",
	}
}
