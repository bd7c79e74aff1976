// Package sensor defines the sensor metadata model shared by the store,
// the registry sync, and the download orchestrator.
package sensor

import "time"

// Channel credential instances. Each physical sensor exposes two
// independently keyed feeds.
const (
	ChannelPrimary   = "primary"
	ChannelSecondary = "secondary"
)

// Sensor is one row of the sensor_info table.
type Sensor struct {
	ID       int64
	ParentID *int64
	Name     string
	// LocationType is the registry's free-text placement label
	// ("outside", "inside", ...), "unknown" when absent.
	LocationType string
	Hidden       bool
	Type         string

	Latitude  *float64
	Longitude *float64

	// CreatedDate is when the sensor registered on the remote service;
	// nil when the detail endpoint did not report it.
	CreatedDate *time.Time
	// LastSeen is the most recent timestamp the registry reports data
	// for; it bounds time-series downloads.
	LastSeen *time.Time

	PrimaryFeedID    string
	PrimaryFeedKey   string
	SecondaryFeedID  string
	SecondaryFeedKey string

	FirmwareVersion string
	SignalStrength  *int64

	// Processed marks a settled sensor: its metadata is final and the
	// registry sync must never rewrite it.
	Processed bool
}

// Feed is one channel's credential pair.
type Feed struct {
	Instance string
	ID       string
	Key      string
}

// Feeds returns the sensor's channel credentials in download order.
// Channels with no feed id are omitted; some registry entries carry only
// a primary channel.
func (s *Sensor) Feeds() []Feed {
	feeds := make([]Feed, 0, 2)
	if s.PrimaryFeedID != "" {
		feeds = append(feeds, Feed{Instance: ChannelPrimary, ID: s.PrimaryFeedID, Key: s.PrimaryFeedKey})
	}
	if s.SecondaryFeedID != "" {
		feeds = append(feeds, Feed{Instance: ChannelSecondary, ID: s.SecondaryFeedID, Key: s.SecondaryFeedKey})
	}
	return feeds
}
