// Package geo provides the bounding-box predicate used to scope sensor
// selection to a study area.
package geo

import "math"

// Box is a latitude/longitude rectangle with inclusive bounds.
type Box struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether the point lies inside the box. A point with a
// missing coordinate has no geographic value and is never contained.
func (b Box) Contains(lat, lon *float64) bool {
	if lat == nil || lon == nil {
		return false
	}
	return *lat >= b.MinLat && *lat <= b.MaxLat &&
		*lon >= b.MinLon && *lon <= b.MaxLon
}

// SpanExceeds reports whether either side of the box spans more decimal
// degrees than limit. A span of exactly limit is allowed.
func (b Box) SpanExceeds(limit float64) bool {
	return math.Abs(b.MinLat-b.MaxLat) > limit || math.Abs(b.MinLon-b.MaxLon) > limit
}
