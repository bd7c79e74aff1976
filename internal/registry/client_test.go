package registry_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"plume/internal/logging"
	"plume/internal/registry"
	"plume/internal/testsupport"
)

type fakeDoer struct {
	calls     int
	status    int
	body      string
	err       error
	failFirst int
}

func (d *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	if d.calls <= d.failFirst {
		return nil, errors.New("connection reset")
	}
	status := d.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(d.body))),
	}, nil
}

const registryBody = `{"results":[
  {"ID":7,"Label":"Backyard","Lat":34.05,"Lon":-118.44,"DEVICE_LOCATIONTYPE":"outside",
   "Hidden":"false","Type":"PMS5003+PMS5003+BME280","LastSeen":1704412800,
   "THINGSPEAK_PRIMARY_ID":"100001","THINGSPEAK_PRIMARY_ID_READ_KEY":"PKEY",
   "THINGSPEAK_SECONDARY_ID":"100002","THINGSPEAK_SECONDARY_ID_READ_KEY":"SKEY"},
  {"ID":8,"ParentID":7,"Label":"Backyard B","Lat":34.05,"Lon":-118.44,"Hidden":"true"}
]}`

func newClient(t *testing.T, doer registry.HTTPDoer) *registry.Client {
	t.Helper()
	return registry.NewClient(testsupport.NewConfig(t), doer, logging.NewNop())
}

func TestFetchRegistryDecodesRecords(t *testing.T) {
	doer := &fakeDoer{body: registryBody}
	c := newClient(t, doer)

	records, err := c.FetchRegistry(context.Background())
	if err != nil {
		t.Fatalf("FetchRegistry failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	first := records[0]
	if first.ID != 7 || first.Label != "Backyard" {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if first.Latitude == nil || *first.Latitude != 34.05 {
		t.Fatal("latitude must decode")
	}
	if first.PrimaryFeedID != "100001" || first.SecondaryFeedKey != "SKEY" {
		t.Fatal("feed fields must decode")
	}
	if records[1].ParentID == nil || *records[1].ParentID != 7 {
		t.Fatal("parent id must decode")
	}
	if records[1].Latitude == nil {
		t.Fatal("child latitude must decode")
	}
}

func TestFetchRegistryRetriesTransportErrors(t *testing.T) {
	doer := &fakeDoer{body: registryBody, failFirst: 2}
	c := newClient(t, doer)

	if _, err := c.FetchRegistry(context.Background()); err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	if doer.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", doer.calls)
	}
}

func TestFetchRegistryWrapsUnavailable(t *testing.T) {
	doer := &fakeDoer{err: errors.New("no route to host")}
	c := newClient(t, doer)

	_, err := c.FetchRegistry(context.Background())
	if !errors.Is(err, registry.ErrRegistryUnavailable) {
		t.Fatalf("expected ErrRegistryUnavailable, got %v", err)
	}
}

func TestFetchRegistryDoesNotRetryClientErrors(t *testing.T) {
	doer := &fakeDoer{status: http.StatusForbidden}
	c := newClient(t, doer)

	if _, err := c.FetchRegistry(context.Background()); err == nil {
		t.Fatal("expected error for 403")
	}
	if doer.calls != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", doer.calls)
	}
}

func TestFetchDetailBuildsShowQuery(t *testing.T) {
	var gotURL string
	doer := &captureDoer{body: `{"results":[{"Version":"7.02","Uptime":12345,"RSSI":-67,"Created":1686000000}]}`, url: &gotURL}
	cfg := testsupport.NewConfig(t)
	c := registry.NewClient(cfg, doer, logging.NewNop())

	detail, err := c.FetchDetail(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchDetail failed: %v", err)
	}
	if !strings.HasSuffix(gotURL, "?show=42") {
		t.Fatalf("expected show query, got %s", gotURL)
	}
	if detail.Version != "7.02" {
		t.Fatalf("unexpected version %q", detail.Version)
	}
	if detail.RSSI == nil || *detail.RSSI != -67 {
		t.Fatal("rssi must decode")
	}
	if detail.Created != 1686000000 {
		t.Fatalf("unexpected created %d", detail.Created)
	}
}

func TestFetchDetailEmptyResults(t *testing.T) {
	doer := &fakeDoer{body: `{"results":[]}`}
	c := newClient(t, doer)

	detail, err := c.FetchDetail(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchDetail failed: %v", err)
	}
	if detail != (registry.Detail{}) {
		t.Fatalf("expected zero detail, got %+v", detail)
	}
}

type captureDoer struct {
	body string
	url  *string
}

func (d *captureDoer) Do(req *http.Request) (*http.Response, error) {
	*d.url = req.URL.String()
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader([]byte(d.body))),
	}, nil
}
