package cost_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tariktoplu/Opti-LogistiX/cost"
	"github.com/tariktoplu/Opti-LogistiX/network"
)

func TestEdgeCost(t *testing.T) {
	// 1 km at 60 km/h is one minute.
	assert.InDelta(t, 1.0, cost.EdgeCost(1000, 0, 60, 2), 1e-12)
	assert.InDelta(t, 2.0, cost.EdgeCost(1000, 0.5, 60, 2), 1e-12)
	assert.InDelta(t, 0.36, cost.EdgeCost(300, 0, 50, 2), 1e-12)
	assert.InDelta(t, 0.36, cost.TravelMinutes(300, 50), 1e-12)
}

func TestHeuristicIsLowerBound(t *testing.T) {
	g, err := network.Grid(3, 3)
	require.NoError(t, err)
	m := cost.DefaultModel()
	for _, e := range g.Edges() {
		u, _ := g.Node(e.From)
		v, _ := g.Node(e.To)
		require.LessOrEqual(t, m.Heuristic(u.Point(), v.Point()), m.Edge(e, 0)+1e-9)
	}
	p := orb.Point{29, 41}
	assert.Zero(t, cost.Heuristic(p, p, 50))
}

func TestNewModel(t *testing.T) {
	m, err := cost.NewModel(45, 0)
	require.NoError(t, err)
	assert.Equal(t, 45.0, m.SpeedKmh)

	for _, s := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		_, err := cost.NewModel(s, 2)
		require.ErrorIs(t, err, cost.ErrBadSpeed)
	}
	_, err = cost.NewModel(50, -1)
	require.ErrorIs(t, err, cost.ErrBadRiskWeight)
}

func TestCheapestEdge(t *testing.T) {
	m := cost.DefaultModel()
	edges := []network.Edge{
		{From: 1, To: 2, Key: 0, LengthM: 200},
		{From: 1, To: 2, Key: 1, LengthM: 150},
		{From: 1, To: 2, Key: 2, LengthM: 150},
	}

	e, w, ok := cost.CheapestEdge(edges, nil, m)
	require.True(t, ok)
	require.Equal(t, 1, e.Key, "ties resolve to the first listed")
	require.InDelta(t, cost.EdgeCost(150, 0, 50, 2), w, 1e-12)

	// Damage on key 1 makes key 2 cheaper.
	e, _, _ = cost.CheapestEdge(edges, network.DamageMap{"1_2_1": 0.5}, m)
	require.Equal(t, 2, e.Key)

	_, _, ok = cost.CheapestEdge(nil, nil, m)
	require.False(t, ok)
}
