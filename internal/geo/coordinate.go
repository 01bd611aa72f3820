// Package geo provides coordinate types, great-circle distance and geohash
// encoding for venue locations.
package geo

import "math"

// Coordinate is a WGS 84 point. It is a value type; copy it freely.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Valid reports whether both components are finite and inside
// [-90,90] x [-180,180].
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// NewCoordinate builds a coordinate from optional components, returning nil
// unless both are present and form a valid point.
func NewCoordinate(lat, lng *float64) *Coordinate {
	if lat == nil || lng == nil {
		return nil
	}
	c := Coordinate{Lat: *lat, Lng: *lng}
	if !c.Valid() {
		return nil
	}
	return &c
}
