package damage

import (
	"github.com/paulmach/orb"

	"github.com/tariktoplu/Opti-LogistiX/network"
)

// band is one fixed presentation ring.
type band struct {
	id      string
	radiusM float64
	level   Level
	score   float64
}

var bands = [...]band{
	{"Z0_CRITICAL", 500, Critical, 0.9},
	{"Z1_SEVERE", 1500, Severe, 0.6},
	{"Z2_MODERATE", 3000, Moderate, 0.3},
}

// Bands returns the three fixed zones centred on epicenter, innermost
// first: 500 m critical (0.9), 1500 m severe (0.6), 3000 m moderate (0.3).
func Bands(epicenter orb.Point) []Zone {
	out := make([]Zone, len(bands))
	for i, b := range bands {
		out[i] = Zone{
			ID:        b.id,
			CenterLat: epicenter.Lat(),
			CenterLon: epicenter.Lon(),
			RadiusM:   b.radiusM,
			Level:     b.level,
			Score:     b.score,
		}
	}
	return out
}

// ZoneSummary reports the observed damage inside one zone.
type ZoneSummary struct {
	ZoneID     string  `json:"zone_id"`
	Level      Level   `json:"damage_level"`
	RadiusM    float64 `json:"radius_m"`
	Edges      int     `json:"edges"`
	Damaged    int     `json:"damaged"`
	MeanDamage float64 `json:"mean_damage"`
	MaxDamage  float64 `json:"max_damage"`
}

// Aggregate summarises damage per zone. An edge belongs to a zone when its
// midpoint lies within the zone radius; zones overlap, so inner edges are
// counted in every enclosing ring.
func Aggregate(idx *network.SpatialIndex, zones []Zone, damage network.DamageMap) []ZoneSummary {
	out := make([]ZoneSummary, 0, len(zones))
	for _, z := range zones {
		s := ZoneSummary{ZoneID: z.ID, Level: z.Level, RadiusM: z.RadiusM}
		var sum float64
		for _, e := range idx.EdgesWithin(orb.Point{z.CenterLon, z.CenterLat}, z.RadiusM) {
			s.Edges++
			d := damage.Get(e.ID())
			if d > 0 {
				s.Damaged++
			}
			sum += d
			s.MaxDamage = max(s.MaxDamage, d)
		}
		if s.Edges > 0 {
			s.MeanDamage = sum / float64(s.Edges)
		}
		out = append(out, s)
	}
	return out
}
