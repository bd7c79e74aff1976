// Package daterange centralizes the mapping from lookback mode and sensor
// lifetime to the concrete set of days a download run covers.
package daterange

import "time"

// Window computes the download range for one sensor. A lookbackDays of
// zero selects full-history mode, starting at the sensor's registration
// date; a positive value starts the window lookbackDays before now. The
// range always ends at the sensor's last-seen date.
func Window(now time.Time, lookbackDays int, created, lastSeen time.Time) (start, end time.Time) {
	if lookbackDays > 0 {
		return now.AddDate(0, 0, -lookbackDays), lastSeen
	}
	return created, lastSeen
}

// Days expands a range into per-day steps: one entry per whole 24-hour
// period between start and end, each carrying start's time of day. The
// end day itself is excluded, matching the feed API's day-granularity
// extracts where the final partial day is picked up by a later run.
func Days(start, end time.Time) []time.Time {
	if !end.After(start) {
		return nil
	}
	count := int(end.Sub(start).Hours() / 24)
	days := make([]time.Time, 0, count)
	for n := 0; n < count; n++ {
		days = append(days, start.AddDate(0, 0, n))
	}
	return days
}
