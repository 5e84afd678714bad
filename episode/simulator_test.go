package episode_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tariktoplu/Opti-LogistiX/cost"
	"github.com/tariktoplu/Opti-LogistiX/episode"
	"github.com/tariktoplu/Opti-LogistiX/network"
)

// line builds 0 ⇄ 1 ⇄ 2 with 300 m links.
func line(t *testing.T) *network.Network {
	t.Helper()
	g, err := network.Grid(1, 3)
	require.NoError(t, err)
	return g
}

func TestObservationLayout(t *testing.T) {
	g := line(t)
	sim, err := episode.New(g, nil)
	require.NoError(t, err)

	obs, err := sim.Reset(episode.WithStart(0), episode.WithGoal(2), episode.WithUrgency(0.7))
	require.NoError(t, err)
	require.Len(t, obs, 17)

	start, _ := g.Node(0)
	goal, _ := g.Node(2)
	assert.InDelta(t, start.Lat/90, obs[episode.ObsCurrentLat], 1e-12)
	assert.InDelta(t, start.Lon/180, obs[episode.ObsCurrentLon], 1e-12)
	assert.InDelta(t, 0.4, obs[episode.ObsCurrentStreets], 1e-12)
	assert.Equal(t, 1.0, obs[episode.ObsBias])
	assert.InDelta(t, goal.Lon/180, obs[episode.ObsGoalLon], 1e-12)
	assert.Equal(t, 0.7, obs[episode.ObsUrgency])

	// Node 0 has one successor (undamaged); the other seven are padding.
	nd := obs.NeighborDamage()
	require.Len(t, nd, 8)
	assert.Equal(t, 0.0, nd[0])
	for _, v := range nd[1:] {
		assert.Equal(t, 1.0, v)
	}
	assert.InDelta(t, 0.06, obs.GoalDistance(), 1e-3)
}

func TestInvalidActionPenalty(t *testing.T) {
	sim, err := episode.New(line(t), nil)
	require.NoError(t, err)
	_, err = sim.Reset(episode.WithStart(0), episode.WithGoal(2), episode.WithUrgency(0.5))
	require.NoError(t, err)

	for _, a := range []int{1, 7, 99, -1} {
		res, err := sim.Step(a)
		require.NoError(t, err)
		require.True(t, res.Invalid)
		require.Equal(t, -5.0, res.Reward)
		require.False(t, res.Terminated)
		require.False(t, res.Truncated)
		require.Equal(t, network.NodeID(0), sim.Current())
	}
	require.Equal(t, 4, sim.Steps())
}

func TestReachingGoalTerminates(t *testing.T) {
	g := line(t)
	require.NoError(t, g.InstallDamage(network.DamageMap{"0_1_0": 0.5}))
	sim, err := episode.New(g, nil)
	require.NoError(t, err)
	_, err = sim.Reset(episode.WithStart(0), episode.WithGoal(1), episode.WithUrgency(0.5))
	require.NoError(t, err)

	res, err := sim.Step(0)
	require.NoError(t, err)
	require.True(t, res.Terminated)
	require.False(t, res.Truncated)
	// 300 m at 50 km/h is 0.36 min, slowed ×(1+0.5×3).
	require.InDelta(t, 0.9, res.TravelTime, 1e-12)
	require.Equal(t, 0.5, res.EdgeDamage)
	require.InDelta(t, -0.9-10*0.5+50*0.5, res.Reward, 1e-12)

	r := sim.Result()
	require.True(t, r.Success)
	require.Equal(t, []network.NodeID{0, 1}, r.Path)
	require.InDelta(t, 0.9, r.TotalTime, 1e-12)
	require.Equal(t, 0.5, r.TotalRisk)

	_, err = sim.Step(0)
	require.ErrorIs(t, err, episode.ErrEpisodeOver)
}

func TestStepBudgetTruncates(t *testing.T) {
	sim, err := episode.New(line(t), nil, episode.WithMaxSteps(2))
	require.NoError(t, err)
	_, err = sim.Reset(episode.WithStart(0), episode.WithGoal(2), episode.WithUrgency(1))
	require.NoError(t, err)

	res, err := sim.Step(0)
	require.NoError(t, err)
	require.False(t, res.Done())

	res, err = sim.Step(5)
	require.NoError(t, err)
	require.True(t, res.Invalid)
	require.True(t, res.Truncated)
	require.False(t, res.Terminated)
	require.False(t, sim.Result().Success)
}

func TestResetDefaults(t *testing.T) {
	g, err := network.Grid(5, 5)
	require.NoError(t, err)
	sim, err := episode.New(g, nil, episode.WithSeed(1))
	require.NoError(t, err)

	_, err = sim.Reset(episode.WithStart(0))
	require.NoError(t, err)
	require.Equal(t, network.NodeID(24), sim.Goal(), "far corner")
	require.GreaterOrEqual(t, sim.Urgency(), 0.3)
	require.Less(t, sim.Urgency(), 1.0)

	_, err = sim.Reset()
	require.NoError(t, err)
	require.True(t, g.HasNode(sim.Current()))
	require.NotEqual(t, sim.Current(), sim.Goal())
}

func TestResetErrors(t *testing.T) {
	g := line(t)
	sim, err := episode.New(g, nil)
	require.NoError(t, err)

	_, err = sim.Step(0)
	require.ErrorIs(t, err, episode.ErrNotReset)
	_, err = sim.Observation()
	require.ErrorIs(t, err, episode.ErrNotReset)

	_, err = sim.Reset(episode.WithStart(77))
	require.ErrorIs(t, err, network.ErrNodeNotFound)
	_, err = sim.Reset(episode.WithStart(0), episode.WithGoal(77))
	require.ErrorIs(t, err, network.ErrNodeNotFound)
	_, err = sim.Reset(episode.WithStart(0), episode.WithUrgency(1.5))
	require.ErrorIs(t, err, episode.ErrBadUrgency)

	lonely := network.New()
	require.NoError(t, lonely.AddNode(network.Node{ID: 1, Lat: 41, Lon: 29}))
	sim, err = episode.New(lonely, nil)
	require.NoError(t, err)
	_, err = sim.Reset()
	require.ErrorIs(t, err, episode.ErrNoReachableGoal)

	_, err = episode.New(g, nil, episode.WithMaxNeighbors(0))
	require.ErrorIs(t, err, episode.ErrBadConfig)
	_, err = episode.New(network.New(), nil)
	require.ErrorIs(t, err, network.ErrEmptyNetwork)
}

func TestParallelEdgesUseFastest(t *testing.T) {
	n := network.New()
	require.NoError(t, n.AddNode(network.Node{ID: 1, Lat: 41, Lon: 29}))
	require.NoError(t, n.AddNode(network.Node{ID: 2, Lat: 41.001, Lon: 29}))
	require.NoError(t, n.AddEdge(network.Edge{From: 1, To: 2, Key: 0, LengthM: 200}))
	require.NoError(t, n.AddEdge(network.Edge{From: 1, To: 2, Key: 1, LengthM: 500}))

	sim, err := episode.New(n, network.DamageMap{"1_2_0": 1})
	require.NoError(t, err)
	_, err = sim.Reset(episode.WithStart(1), episode.WithGoal(2), episode.WithUrgency(0))
	require.NoError(t, err)
	require.Len(t, sim.Neighbors(), 1, "parallel edges are one action")

	// Key 0 costs 0.24×4 = 0.96 min, key 1 costs 0.6 min undamaged.
	res, err := sim.Step(0)
	require.NoError(t, err)
	require.InDelta(t, 0.6, res.TravelTime, 1e-12)
	require.Zero(t, res.EdgeDamage)
}

// twinRoads links 1→2 (about 400 m apart) by a clear 1000 m road and a
// half-damaged 450 m road.
func twinRoads(t *testing.T) (*network.Network, network.DamageMap) {
	t.Helper()
	n := network.New()
	require.NoError(t, n.AddNode(network.Node{ID: 1, Lat: 41, Lon: 29}))
	require.NoError(t, n.AddNode(network.Node{ID: 2, Lat: 41.0036, Lon: 29}))
	require.NoError(t, n.AddEdge(network.Edge{From: 1, To: 2, Key: 0, LengthM: 1000}))
	require.NoError(t, n.AddEdge(network.Edge{From: 1, To: 2, Key: 1, LengthM: 450}))
	return n, network.DamageMap{"1_2_1": 0.5}
}

func TestEdgeModelChoosesParallelEdge(t *testing.T) {
	n, dm := twinRoads(t)
	tests := []struct {
		name   string
		opts   []episode.Option
		damage float64
		travel float64
	}{
		// 1.2 min clear vs 0.54×2.5 = 1.35 min damaged.
		{"slowdown weight", nil, 0, 1.2},
		// Risk weight 2: 0.54×2 = 1.08 beats 1.2, travel still ×(1+3d).
		{"router weight", []episode.Option{episode.WithEdgeModel(cost.Model{SpeedKmh: 50, RiskWeight: 2})}, 0.5, 1.35},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sim, err := episode.New(n, dm, tc.opts...)
			require.NoError(t, err)
			_, err = sim.Reset(episode.WithStart(1), episode.WithGoal(2), episode.WithUrgency(0))
			require.NoError(t, err)
			require.Equal(t, tc.damage, sim.EdgeDamage(1, 2))

			res, err := sim.Step(0)
			require.NoError(t, err)
			require.Equal(t, tc.damage, res.EdgeDamage)
			require.InDelta(t, tc.travel, res.TravelTime, 1e-12)
		})
	}

	_, err := episode.New(n, dm, episode.WithEdgeModel(cost.Model{}))
	require.ErrorIs(t, err, cost.ErrBadSpeed)
}

func TestRunGreedyOnGrid(t *testing.T) {
	g, err := network.Grid(5, 5)
	require.NoError(t, err)
	sim, err := episode.New(g, nil)
	require.NoError(t, err)

	res, err := episode.Run(context.Background(), sim, episode.GreedyPolicy{DamageAversion: 2},
		episode.WithStart(0), episode.WithGoal(24), episode.WithUrgency(0.5))
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 8, res.Steps)
	require.Len(t, res.Path, 9)
	require.InDelta(t, 8*0.36, res.TotalTime, 1e-9)
	require.Zero(t, res.TotalRisk)
}

func TestRunTruncatesStuckPolicy(t *testing.T) {
	sim, err := episode.New(line(t), nil, episode.WithMaxSteps(10))
	require.NoError(t, err)
	stuck := episode.PolicyFunc(func(episode.Observation) int { return 99 })

	res, err := episode.Run(context.Background(), sim, stuck, episode.WithStart(0), episode.WithGoal(2))
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, 10, res.Steps)
	require.Equal(t, []network.NodeID{0}, res.Path)

	_, err = episode.Run(context.Background(), sim, nil)
	require.ErrorIs(t, err, episode.ErrNilPolicy)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = episode.Run(ctx, sim, stuck, episode.WithStart(0), episode.WithGoal(2))
	require.ErrorIs(t, err, context.Canceled)
}

func TestGreedyUnboundPrefersLeastDamage(t *testing.T) {
	obs := episode.Observation{0, 0, 0, 1, 0, 0, 0, 0.5, 0.7, 0.2, 0.9, 1, 0.3}
	require.Equal(t, 1, episode.GreedyPolicy{}.SelectAction(obs))
}
