package sensor_test

import (
	"testing"

	"plume/internal/sensor"
)

func TestFeedsOrderAndOmission(t *testing.T) {
	sn := sensor.Sensor{
		PrimaryFeedID:    "100001",
		PrimaryFeedKey:   "AAAA",
		SecondaryFeedID:  "100002",
		SecondaryFeedKey: "BBBB",
	}
	feeds := sn.Feeds()
	if len(feeds) != 2 {
		t.Fatalf("expected 2 feeds, got %d", len(feeds))
	}
	if feeds[0].Instance != sensor.ChannelPrimary || feeds[0].ID != "100001" || feeds[0].Key != "AAAA" {
		t.Fatalf("unexpected primary feed: %+v", feeds[0])
	}
	if feeds[1].Instance != sensor.ChannelSecondary || feeds[1].ID != "100002" || feeds[1].Key != "BBBB" {
		t.Fatalf("unexpected secondary feed: %+v", feeds[1])
	}
}

func TestFeedsPrimaryOnly(t *testing.T) {
	sn := sensor.Sensor{PrimaryFeedID: "100001"}
	feeds := sn.Feeds()
	if len(feeds) != 1 {
		t.Fatalf("expected 1 feed, got %d", len(feeds))
	}
	if feeds[0].Instance != sensor.ChannelPrimary {
		t.Fatalf("unexpected instance: %q", feeds[0].Instance)
	}
}

func TestFeedsNone(t *testing.T) {
	var sn sensor.Sensor
	if feeds := sn.Feeds(); len(feeds) != 0 {
		t.Fatalf("expected no feeds, got %+v", feeds)
	}
}
