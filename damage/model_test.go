package damage_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tariktoplu/Opti-LogistiX/damage"
	"github.com/tariktoplu/Opti-LogistiX/network"
)

func TestFalloffFactor(t *testing.T) {
	assert.Equal(t, 1.0, damage.InverseLinear.Factor(0))
	assert.Equal(t, 0.5, damage.InverseLinear.Factor(1))
	assert.Equal(t, 1.0, damage.InverseSquareHalf.Factor(0))
	assert.Equal(t, 0.5, damage.InverseSquareHalf.Factor(2))
	assert.InDelta(t, 1/1.0625, damage.InverseSquareHalf.Factor(0.5), 1e-12)
}

// A bridge 500 m from the epicenter on a primary road under a 6.5 event.
func TestScenarioProbabilityBridgeAt500m(t *testing.T) {
	e := network.Edge{Class: network.ClassPrimary, IsBridge: true}
	p := damage.ScenarioModel().Probability(0.35, 0.5, e)
	assert.InDelta(t, 0.501, p, 1e-3)
	assert.InDelta(t, 0.35*(1/1.0625)*2.0*0.76, p, 1e-12)
}

func TestRuleBasedProbability(t *testing.T) {
	m := damage.RuleBased()
	plain := network.Edge{Class: network.ClassMotorway}
	bridge := network.Edge{Class: network.ClassMotorway, IsBridge: true}

	// 0.6 × 1/(1+1) × 1 × (1 − 0.3)
	assert.InDelta(t, 0.21, m.Probability(0.6, 1, plain), 1e-12)
	assert.InDelta(t, 0.315, m.Probability(0.6, 1, bridge), 1e-12)

	// Saturates at 1.
	assert.Equal(t, 1.0, damage.Model{Falloff: damage.InverseLinear, BridgeFactor: 5}.Probability(1, 0, bridge))
}

func TestPredictIsBoundedTotalAndDeterministic(t *testing.T) {
	g, err := network.Grid(5, 5)
	require.NoError(t, err)
	c, err := g.Centroid()
	require.NoError(t, err)

	for _, m := range []damage.Model{damage.RuleBased(), damage.ScenarioModel()} {
		for _, mag := range []float64{0, 4.5, 7.2, 9.9, 15} {
			a, err := m.Predict(g, c, mag)
			require.NoError(t, err)
			require.Len(t, a, g.EdgeCount())
			for id, v := range a {
				require.True(t, v >= 0 && v <= 1, "%s=%v", id, v)
			}
			b, err := m.Predict(g, c, mag)
			require.NoError(t, err)
			require.Equal(t, a, b)
		}
	}
}

func TestPredictDecaysWithDistance(t *testing.T) {
	g, err := network.Grid(1, 6, network.WithoutBridge())
	require.NoError(t, err)
	first, err := g.Node(0)
	require.NoError(t, err)

	m, err := damage.RuleBased().Predict(g, first.Point(), 7)
	require.NoError(t, err)

	// Forward links along the single row, increasingly far from node 0.
	prev := math.Inf(1)
	for c := 0; c < 5; c++ {
		v := m.Get(network.EdgeID(network.NodeID(c), network.NodeID(c+1), 0))
		require.Less(t, v, prev)
		prev = v
	}
}

func TestPredictErrors(t *testing.T) {
	g, err := network.Grid(2, 2)
	require.NoError(t, err)
	m := damage.RuleBased()

	_, err = m.Predict(nil, orb.Point{29, 41}, 6)
	require.ErrorIs(t, err, damage.ErrNilNetwork)
	_, err = m.Predict(g, orb.Point{29, 41}, math.NaN())
	require.ErrorIs(t, err, damage.ErrBadMagnitude)
	_, err = m.Predict(g, orb.Point{math.Inf(1), 41}, 6)
	require.ErrorIs(t, err, damage.ErrBadEpicenter)
}

func TestLevelFor(t *testing.T) {
	cases := []struct {
		score float64
		want  damage.Level
	}{
		{0, damage.Mild},
		{0.19, damage.Mild},
		{0.2, damage.Moderate},
		{0.39, damage.Moderate},
		{0.4, damage.Severe},
		{0.69, damage.Severe},
		{0.7, damage.Critical},
		{1, damage.Critical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, damage.LevelFor(tc.score), "score %v", tc.score)
	}
	assert.True(t, damage.Mild < damage.Moderate && damage.Severe < damage.Critical)
}

func TestZoneJSON(t *testing.T) {
	zones := damage.Bands(orb.Point{29.01, 41.02})
	require.Len(t, zones, 3)

	raw, err := json.Marshal(zones[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"zone_id":"Z0_CRITICAL","center_lat":41.02,"center_lon":29.01,
		"radius_m":500,"damage_level":"critical","damage_score":0.9}`, string(raw))

	var back damage.Zone
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, zones[0], back)

	err = json.Unmarshal([]byte(`{"damage_level":"apocalyptic"}`), &back)
	require.ErrorIs(t, err, damage.ErrUnknownLevel)
}
