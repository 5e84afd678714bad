package damage_test

import "github.com/paulmach/orb"

func geoPoint(lat, lon float64) orb.Point { return orb.Point{lon, lat} }
