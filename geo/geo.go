package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// EarthRadiusKm is the mean Earth radius used by every distance in this module.
// It deliberately differs from orb.EarthRadius (WGS84 equatorial, 6378137 m).
const EarthRadiusKm = 6371.0

// degToRad converts degrees to radians.
const degToRad = math.Pi / 180.0

// HaversineKm returns the great-circle distance between a and b in kilometres.
//
// HaversineKm(p, p) == 0 and HaversineKm(a, b) == HaversineKm(b, a).
func HaversineKm(a, b orb.Point) float64 {
	lat1 := a.Lat() * degToRad
	lat2 := b.Lat() * degToRad
	dLat := (b.Lat() - a.Lat()) * degToRad
	dLon := (b.Lon() - a.Lon()) * degToRad

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// HaversineM is HaversineKm scaled to metres.
func HaversineM(a, b orb.Point) float64 {
	return HaversineKm(a, b) * 1000
}

// Midpoint returns the arithmetic mean of two coordinates. It is the
// "edge center" used by the damage model, not the great-circle midpoint.
func Midpoint(a, b orb.Point) orb.Point {
	return orb.Point{(a.Lon() + b.Lon()) / 2, (a.Lat() + b.Lat()) / 2}
}

// SearchBound returns a bounding box that contains every point within
// radiusM metres of center. Callers refine candidates with HaversineM.
func SearchBound(center orb.Point, radiusM float64) orb.Bound {
	// orb/geo works on its own radius; pad a little so the box never
	// undershoots the 6371 km sphere used for the exact check.
	return orbgeo.NewBoundAroundPoint(center, radiusM*1.01)
}

// Point builds an orb.Point from latitude and longitude in degrees.
func Point(lat, lon float64) orb.Point {
	return orb.Point{lon, lat}
}

// Finite reports whether both coordinates are finite numbers.
func Finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) && !math.IsInf(p[0], 0) && !math.IsInf(p[1], 0)
}
