package scenario

import (
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/paulmach/orb"

	"github.com/tariktoplu/Opti-LogistiX/damage"
	"github.com/tariktoplu/Opti-LogistiX/network"
)

// Sentinel errors for scenario operations.
var (
	// ErrBadMagnitude indicates a magnitude outside [MinMagnitude, MaxMagnitude].
	ErrBadMagnitude = errors.New("scenario: magnitude out of range")

	// ErrMalformedScenario indicates a persisted scenario failed the schema.
	ErrMalformedScenario = errors.New("scenario: malformed scenario")

	// ErrUnknownPreset indicates GeneratePreset got a name matching no preset.
	ErrUnknownPreset = errors.New("scenario: unknown preset")

	// ErrNoOutputDir indicates SaveToOutputDir on a generator without a directory.
	ErrNoOutputDir = errors.New("scenario: output directory not configured")
)

// Magnitude bounds accepted by Generate and Load.
const (
	MinMagnitude = 4.0
	MaxMagnitude = 9.0
)

// Earthquake is the only disaster type produced by the generator.
const Earthquake = "earthquake"

// Scenario is one simulated disaster. Treat it as read-only once created;
// Damage returns a private copy of the damage map.
type Scenario struct {
	ID              string            `json:"scenario_id"`
	DisasterType    string            `json:"disaster_type"`
	Magnitude       float64           `json:"magnitude"`
	EpicenterLat    float64           `json:"epicenter_lat"`
	EpicenterLon    float64           `json:"epicenter_lon"`
	Timestamp       time.Time         `json:"timestamp"`
	DamageZones     []damage.Zone     `json:"damage_zones"`
	EdgeDamages     network.DamageMap `json:"edge_damages"`
	AffectedRoads   int               `json:"affected_roads"`
	AffectedBridges int               `json:"affected_bridges"`
}

// Epicenter returns the epicenter as an orb.Point.
func (s *Scenario) Epicenter() orb.Point {
	return orb.Point{s.EpicenterLon, s.EpicenterLat}
}

// Damage returns a copy of the per-edge damage map.
func (s *Scenario) Damage() network.DamageMap {
	return s.EdgeDamages.Clone()
}

// Equal reports whether s and o describe the same scenario field by field.
// Timestamps compare as instants.
func (s *Scenario) Equal(o *Scenario) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.ID == o.ID &&
		s.DisasterType == o.DisasterType &&
		s.Magnitude == o.Magnitude &&
		s.EpicenterLat == o.EpicenterLat &&
		s.EpicenterLon == o.EpicenterLon &&
		s.Timestamp.Equal(o.Timestamp) &&
		slices.Equal(s.DamageZones, o.DamageZones) &&
		maps.Equal(s.EdgeDamages, o.EdgeDamages) &&
		s.AffectedRoads == o.AffectedRoads &&
		s.AffectedBridges == o.AffectedBridges
}

// Apply installs the scenario's damage map on n in a single swap.
func Apply(n *network.Network, s *Scenario) error {
	return n.InstallDamage(s.EdgeDamages)
}

// rateStep is one magnitude breakpoint of the base damage table.
type rateStep struct {
	upTo float64
	rate float64
}

var rateTable = [...]rateStep{
	{5.0, 0.05},
	{5.5, 0.10},
	{6.0, 0.20},
	{6.5, 0.35},
	{7.0, 0.50},
	{7.5, 0.70},
	{8.0, 0.85},
}

// rateAbove applies above the last breakpoint.
const rateAbove = 0.9

// BaseDamageRate returns the rate of the first breakpoint ≥ magnitude,
// scanning upward, or 0.9 past the table.
func BaseDamageRate(magnitude float64) float64 {
	for _, s := range rateTable {
		if magnitude <= s.upTo {
			return s.rate
		}
	}
	return rateAbove
}
