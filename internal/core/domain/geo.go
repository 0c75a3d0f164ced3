package domain

import "math"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ProjectedPoint is a planar coordinate in meters produced by a map projection.
type ProjectedPoint struct {
	Easting  float64 `json:"easting"`
	Northing float64 `json:"northing"`
}

// Finite reports whether both components are real numbers. Far outside the
// zone the series overflows and yields NaN or ±Inf.
func (p ProjectedPoint) Finite() bool {
	return !math.IsNaN(p.Easting) && !math.IsInf(p.Easting, 0) &&
		!math.IsNaN(p.Northing) && !math.IsInf(p.Northing, 0)
}
