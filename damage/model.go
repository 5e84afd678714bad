package damage

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/tariktoplu/Opti-LogistiX/geo"
	"github.com/tariktoplu/Opti-LogistiX/network"
)

// Predictor produces per-edge damage scores for an earthquake. External
// (for example learned) predictors satisfy the same interface as Model.
type Predictor interface {
	Predict(n *network.Network, epicenter orb.Point, magnitude float64) (network.DamageMap, error)
}

// Falloff selects how damage decays with distance from the epicenter.
type Falloff int

const (
	// InverseLinear is 1/(1+d).
	InverseLinear Falloff = iota
	// InverseSquareHalf is 1/(1+(d/2)²).
	InverseSquareHalf
)

// Factor returns the distance factor for d kilometres.
func (f Falloff) Factor(distanceKm float64) float64 {
	switch f {
	case InverseSquareHalf:
		h := distanceKm / 2
		return 1 / (1 + h*h)
	default:
		return 1 / (1 + distanceKm)
	}
}

// String names the falloff.
func (f Falloff) String() string {
	if f == InverseSquareHalf {
		return "inverse-square-half"
	}
	return "inverse-linear"
}

// DefaultDurabilityWeight scales road-class durability into a reduction.
const DefaultDurabilityWeight = 0.3

// Model is the rule-based damage function.
type Model struct {
	Falloff          Falloff
	BridgeFactor     float64
	DurabilityWeight float64
}

// RuleBased returns the calibration used for direct prediction.
func RuleBased() Model {
	return Model{Falloff: InverseLinear, BridgeFactor: 1.5, DurabilityWeight: DefaultDurabilityWeight}
}

// ScenarioModel returns the calibration used by scenario generation.
func ScenarioModel() Model {
	return Model{Falloff: InverseSquareHalf, BridgeFactor: 2.0, DurabilityWeight: DefaultDurabilityWeight}
}

// Probability scores one edge given a base rate and its distance from the
// epicenter. The result is clamped to [0,1].
func (m Model) Probability(baseRate, distanceKm float64, e network.Edge) float64 {
	bridge := 1.0
	if e.IsBridge {
		bridge = m.BridgeFactor
	}
	durability := 1 - e.Class.Durability()*m.DurabilityWeight
	return network.Clamp01(baseRate * m.Falloff.Factor(distanceKm) * bridge * durability)
}

// Predict scores every edge of n with base rate clamp(magnitude/10).
// Every edge gets an entry, including those scoring 0.
func (m Model) Predict(n *network.Network, epicenter orb.Point, magnitude float64) (network.DamageMap, error) {
	if n == nil {
		return nil, ErrNilNetwork
	}
	if math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
		return nil, fmt.Errorf("%w: %v", ErrBadMagnitude, magnitude)
	}
	if !geo.Finite(epicenter) {
		return nil, fmt.Errorf("%w: %v", ErrBadEpicenter, epicenter)
	}

	base := network.Clamp01(magnitude / 10)
	out := make(network.DamageMap, n.EdgeCount())
	EachEdgeDistance(n, epicenter, func(e network.Edge, dKm float64) {
		out[e.ID()] = m.Probability(base, dKm, e)
	})
	return out, nil
}

// EachEdgeDistance calls fn for every edge of n, in insertion order, with
// the haversine distance in kilometres from p to the edge midpoint.
func EachEdgeDistance(n *network.Network, p orb.Point, fn func(e network.Edge, distanceKm float64)) {
	nodes := n.Nodes()
	pos := make(map[network.NodeID]orb.Point, len(nodes))
	for _, node := range nodes {
		pos[node.ID] = node.Point()
	}
	for _, e := range n.Edges() {
		mid := geo.Midpoint(pos[e.From], pos[e.To])
		fn(e, geo.HaversineKm(p, mid))
	}
}

var _ Predictor = Model{}
