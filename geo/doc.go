// Package geo provides the small set of geodesic helpers shared by the
// damage model, the path cost model and the episode simulator.
//
// Coordinates are orb.Point values in (lon, lat) order, the convention of
// github.com/paulmach/orb. Distances are great-circle (haversine) distances
// on a sphere of radius EarthRadiusKm.
//
// Inputs are assumed finite; NaN or Inf coordinates are rejected at the
// network-loading boundary (see network.ErrBadCoordinate) and are not
// handled here.
package geo
