// Package geo provides the spherical geometry used to place and space junctions.
//
// Distances are great-circle distances on a mean-radius Earth, computed with the
// S2 geometry library. Bearings are initial (forward) azimuths in degrees.
package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the Earth's mean radius in meters.
const EarthRadiusMeters = 6371000.0

// LatLng is a WGS84 coordinate in degrees, shaped like the routing service's
// location objects.
type LatLng struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// IsZero reports whether the coordinate was never set.
func (p LatLng) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}

func (p LatLng) s2() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lng)
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b LatLng) float64 {
	return a.s2().Distance(b.s2()).Radians() * EarthRadiusMeters
}

// Bearing returns the initial bearing from a toward b in degrees, normalized to [0, 360).
// 0 is north, 90 is east.
func Bearing(a, b LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	lonDiff := (b.Lng - a.Lng) * math.Pi / 180

	y := math.Sin(lonDiff) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(lonDiff)

	deg := math.Atan2(y, x) * 180 / math.Pi
	deg = math.Mod(deg+360, 360)
	if deg >= 360 {
		deg = 0
	}
	return deg
}
