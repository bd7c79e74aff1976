package orchestrator_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"plume/internal/config"
	"plume/internal/geo"
	"plume/internal/logging"
	"plume/internal/orchestrator"
	"plume/internal/sensor"
	"plume/internal/store"
	"plume/internal/testsupport"
	"plume/internal/timeseries"
)

type fakeDoer struct {
	calls  int
	body   string
	err    error
	failID string
}

func (d *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	if d.failID != "" && strings.Contains(req.URL.Path, "/"+d.failID+"/") {
		return nil, errors.New("connection reset")
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader([]byte(d.body))),
	}, nil
}

func feedBody() string {
	return "created_at,entry_id,pm1,pm25,pm10\n" + strings.Repeat("2024-01-03 00:10:00,1,4.2,9.1,10.3\n", 10)
}

var testBox = geo.Box{MinLat: 33.9, MaxLat: 34.1, MinLon: -118.6, MaxLon: -118.3}

func fixedNow() time.Time {
	return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
}

func newRunner(t *testing.T, doer timeseries.HTTPDoer) (*orchestrator.Runner, *config.Config, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	st := testsupport.MustOpenStore(t, cfg)
	fetcher := timeseries.New(cfg, doer, logging.NewNop())
	runner := orchestrator.New(cfg, st, fetcher, logging.NewNop(), orchestrator.WithNow(fixedNow))
	return runner, cfg, st
}

func seedSettled(t *testing.T, st *store.Store, id int64, lat, lon float64) *sensor.Sensor {
	t.Helper()
	sn := testsupport.NewSensor(id, lat, lon)
	sn.Processed = true
	testsupport.SeedSensor(t, st, sn)
	return sn
}

func TestRunDownloadsEachDayPerFeed(t *testing.T) {
	doer := &fakeDoer{body: feedBody()}
	runner, cfg, st := newRunner(t, doer)
	seedSettled(t, st, 7, 34.0, -118.4)

	summary, err := runner.Run(context.Background(), orchestrator.Options{Box: testBox})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Completed != 1 {
		t.Fatalf("expected 1 completed sensor, got %+v", summary)
	}
	// Created 2024-01-01, last seen 2024-01-05: four whole days, two feeds.
	if summary.Downloaded != 8 {
		t.Fatalf("expected 8 day files, got %+v", summary)
	}

	entries, err := os.ReadDir(cfg.Paths.ReadingsDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 8 {
		t.Fatalf("expected 8 files on disk, got %d", len(entries))
	}

	data, err := os.ReadFile(cfg.TrackerPath())
	if err != nil {
		t.Fatalf("tracker file must exist: %v", err)
	}
	if string(data) != "7\n" {
		t.Fatalf("tracker must record the sensor exactly once, got %q", data)
	}
}

func TestRunSkipsTrackedSensors(t *testing.T) {
	doer := &fakeDoer{body: feedBody()}
	runner, cfg, st := newRunner(t, doer)
	seedSettled(t, st, 7, 34.0, -118.4)

	if err := os.WriteFile(cfg.TrackerPath(), []byte("7\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	summary, err := runner.Run(context.Background(), orchestrator.Options{Box: testBox})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Skipped != 1 || summary.Completed != 0 {
		t.Fatalf("tracked sensor must be skipped, got %+v", summary)
	}
	if doer.calls != 0 {
		t.Fatalf("tracked sensors must not trigger requests, got %d", doer.calls)
	}
}

func TestRunRefusesWideBox(t *testing.T) {
	doer := &fakeDoer{body: feedBody()}
	runner, _, _ := newRunner(t, doer)

	wide := geo.Box{MinLat: 30.0, MaxLat: 40.0, MinLon: -120.0, MaxLon: -110.0}
	_, err := runner.Run(context.Background(), orchestrator.Options{Box: wide})
	if !errors.Is(err, orchestrator.ErrBoxTooLarge) {
		t.Fatalf("expected ErrBoxTooLarge, got %v", err)
	}

	if _, err := runner.Run(context.Background(), orchestrator.Options{Box: wide, ForceLargeArea: true}); err != nil {
		t.Fatalf("forced run must proceed: %v", err)
	}
}

func TestRunResumesAfterPartialFailure(t *testing.T) {
	// The secondary feed fails persistently on the first run.
	doer := &fakeDoer{body: feedBody(), failID: "100002"}
	runner, cfg, st := newRunner(t, doer)
	seedSettled(t, st, 7, 34.0, -118.4)

	summary, err := runner.Run(context.Background(), orchestrator.Options{Box: testBox})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Failed != 1 || summary.Completed != 0 {
		t.Fatalf("sensor with a failing feed must not complete, got %+v", summary)
	}
	if _, err := os.Stat(cfg.TrackerPath()); !os.IsNotExist(err) {
		t.Fatal("failed sensors must not be recorded in the tracker")
	}

	doer.failID = ""
	summary, err = runner.Run(context.Background(), orchestrator.Options{Box: testBox})
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if summary.Completed != 1 {
		t.Fatalf("retry must complete the sensor, got %+v", summary)
	}
	if summary.Cached != 4 {
		t.Fatalf("primary day files must be served from cache, got %+v", summary)
	}
	if summary.Downloaded != 4 {
		t.Fatalf("secondary day files must be fetched, got %+v", summary)
	}
}

func TestRunIgnoresSensorsOutsideBox(t *testing.T) {
	doer := &fakeDoer{body: feedBody()}
	runner, _, st := newRunner(t, doer)
	seedSettled(t, st, 7, 34.0, -118.4)
	seedSettled(t, st, 8, 40.0, -118.4)

	summary, err := runner.Run(context.Background(), orchestrator.Options{Box: testBox})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Sensors != 1 || summary.Completed != 1 {
		t.Fatalf("only the in-box sensor must be considered, got %+v", summary)
	}
}

func TestRunUnsettledSensorsAreInvisible(t *testing.T) {
	doer := &fakeDoer{body: feedBody()}
	runner, _, st := newRunner(t, doer)
	sn := testsupport.NewSensor(7, 34.0, -118.4)
	testsupport.SeedSensor(t, st, sn)

	summary, err := runner.Run(context.Background(), orchestrator.Options{Box: testBox})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Sensors != 0 {
		t.Fatalf("unsettled sensors must not be downloaded, got %+v", summary)
	}
	if doer.calls != 0 {
		t.Fatalf("expected no requests, got %d", doer.calls)
	}
}
