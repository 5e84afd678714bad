// Package cost defines the edge weight and heuristic shared by every exact
// route search.
//
// An edge costs its free-flow travel time in minutes, inflated by damage:
//
//	cost = (length_m/1000 / speed_kmh × 60) × (1 + damage × risk_weight)
//
// The heuristic is the straight-line travel time at free flow. It never
// exceeds the cost of a real path as long as every edge is at least as long
// as the great-circle distance between its endpoints, which keeps A* optimal.
package cost

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/tariktoplu/Opti-LogistiX/geo"
	"github.com/tariktoplu/Opti-LogistiX/network"
)

var (
	// ErrBadSpeed indicates a non-positive or non-finite vehicle speed.
	ErrBadSpeed = errors.New("cost: vehicle speed must be positive")

	// ErrBadRiskWeight indicates a negative or non-finite risk weight.
	ErrBadRiskWeight = errors.New("cost: risk weight must be non-negative")
)

// Defaults used by the routing engine.
const (
	DefaultSpeedKmh   = 50.0
	DefaultRiskWeight = 2.0
)

// TravelMinutes is the free-flow time to cover lengthM at speedKmh.
func TravelMinutes(lengthM, speedKmh float64) float64 {
	return lengthM / 1000 / speedKmh * 60
}

// EdgeCost is the damage-weighted traversal time in minutes.
func EdgeCost(lengthM, damage, speedKmh, riskWeight float64) float64 {
	return TravelMinutes(lengthM, speedKmh) * (1 + damage*riskWeight)
}

// Heuristic is the straight-line free-flow time from u to v in minutes.
func Heuristic(u, v orb.Point, speedKmh float64) float64 {
	return geo.HaversineKm(u, v) / speedKmh * 60
}

// Model binds a vehicle speed and a risk weight.
type Model struct {
	SpeedKmh   float64
	RiskWeight float64
}

// DefaultModel returns 50 km/h and risk weight 2.
func DefaultModel() Model {
	return Model{SpeedKmh: DefaultSpeedKmh, RiskWeight: DefaultRiskWeight}
}

// NewModel validates and returns a Model.
func NewModel(speedKmh, riskWeight float64) (Model, error) {
	m := Model{SpeedKmh: speedKmh, RiskWeight: riskWeight}
	if err := m.Validate(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// Validate checks the speed is positive and the risk weight non-negative.
func (m Model) Validate() error {
	if math.IsNaN(m.SpeedKmh) || math.IsInf(m.SpeedKmh, 0) || m.SpeedKmh <= 0 {
		return fmt.Errorf("%w: %v", ErrBadSpeed, m.SpeedKmh)
	}
	if math.IsNaN(m.RiskWeight) || math.IsInf(m.RiskWeight, 0) || m.RiskWeight < 0 {
		return fmt.Errorf("%w: %v", ErrBadRiskWeight, m.RiskWeight)
	}
	return nil
}

// Edge returns the weight of e under the given damage score.
func (m Model) Edge(e network.Edge, damage float64) float64 {
	return EdgeCost(e.LengthM, damage, m.SpeedKmh, m.RiskWeight)
}

// Heuristic returns the straight-line lower bound from u to v.
func (m Model) Heuristic(u, v orb.Point) float64 {
	return Heuristic(u, v, m.SpeedKmh)
}

// CheapestEdge picks among parallel edges the one with minimal weight under
// damage. Ties go to the earliest edge in the list, which for
// network.ParallelEdges is the lowest key. ok is false for an empty list.
func CheapestEdge(edges []network.Edge, damage network.DamageMap, m Model) (best network.Edge, weight float64, ok bool) {
	for i, e := range edges {
		w := m.Edge(e, damage.Get(e.ID()))
		if i == 0 || w < weight {
			best, weight = e, w
		}
	}
	return best, weight, len(edges) > 0
}
