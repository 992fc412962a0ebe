// Package geo implements the geofence check for the gate: great-circle
// distance between the caller and the fixed gate coordinate.
package geo

import (
	"errors"
	"math"
)

// ErrInvalidCoordinate is returned for NaN or infinite inputs.
var ErrInvalidCoordinate = errors.New("coordinate is not a finite number")

// earthRadiusMeters is the spherical-earth radius used by the haversine
// formula.
const earthRadiusMeters = 6371000

// DistanceMeters returns the great-circle distance between two
// latitude/longitude points, computed with the haversine formula.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) (float64, error) {
	for _, v := range []float64{lat1, lon1, lat2, lon2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, ErrInvalidCoordinate
		}
	}

	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1*math.Pi/180)*
			math.Cos(lat2*math.Pi/180)*
			math.Pow(math.Sin(dLon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c, nil
}

// WithinRange reports whether distance is inside the geofence. The boundary
// is inclusive: a point exactly at maxMeters passes.
func WithinRange(distance, maxMeters float64) bool {
	return distance <= maxMeters
}
