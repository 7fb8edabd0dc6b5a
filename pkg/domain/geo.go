package domain

import "math"

// Default viewport deltas applied when a region is centred on a picked point.
const (
	DefaultLatitudeDelta  = 0.0922
	DefaultLongitudeDelta = 0.0421
)

// DefaultRegion is shown by the picker when a draft has no location yet.
var DefaultRegion = Region{
	Latitude:       37.7749,
	Longitude:      -122.4194,
	LatitudeDelta:  DefaultLatitudeDelta,
	LongitudeDelta: DefaultLongitudeDelta,
}

// Coordinate is a single latitude/longitude point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies on the globe.
func (c Coordinate) Valid() bool {
	return !math.IsNaN(c.Latitude) && !math.IsNaN(c.Longitude) &&
		c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Region is a map viewport: a centre point plus the visible span in degrees.
type Region struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitudeDelta"`
	LongitudeDelta float64 `json:"longitudeDelta"`
}

// Center returns the viewport centre.
func (r Region) Center() Coordinate {
	return Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
}

// Valid reports whether the viewport has a valid centre and a non-negative span.
func (r Region) Valid() bool {
	return r.Center().Valid() && r.LatitudeDelta >= 0 && r.LongitudeDelta >= 0
}

// Contains reports whether c lies within the viewport. Longitude spans that
// cross the antimeridian wrap around.
func (r Region) Contains(c Coordinate) bool {
	if math.Abs(c.Latitude-r.Latitude) > r.LatitudeDelta/2 {
		return false
	}
	dLon := math.Abs(c.Longitude - r.Longitude)
	if dLon > 180 {
		dLon = 360 - dLon
	}
	return dLon <= r.LongitudeDelta/2
}

// RegionAround centres a default-sized viewport on c.
func RegionAround(c Coordinate) Region {
	return Region{
		Latitude:       c.Latitude,
		Longitude:      c.Longitude,
		LatitudeDelta:  DefaultLatitudeDelta,
		LongitudeDelta: DefaultLongitudeDelta,
	}
}
