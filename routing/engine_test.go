package routing_test

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tariktoplu/Opti-LogistiX/cost"
	"github.com/tariktoplu/Opti-LogistiX/damage"
	"github.com/tariktoplu/Opti-LogistiX/episode"
	"github.com/tariktoplu/Opti-LogistiX/network"
	"github.com/tariktoplu/Opti-LogistiX/routing"
)

func grid5(t *testing.T) *network.Network {
	t.Helper()
	g, err := network.Grid(5, 5)
	require.NoError(t, err)
	return g
}

// pathCost sums the search weight of path under dm.
func pathCost(t *testing.T, n *network.Network, path []network.NodeID, dm network.DamageMap, m cost.Model) float64 {
	t.Helper()
	var total float64
	for i := 0; i+1 < len(path); i++ {
		_, w, ok := cost.CheapestEdge(n.ParallelEdges(path[i], path[i+1]), dm, m)
		require.True(t, ok, "no edge %d→%d", path[i], path[i+1])
		total += w
	}
	return total
}

func TestParseMethod(t *testing.T) {
	for i, name := range []string{"astar", "dijkstra", "rl", "hybrid"} {
		m, err := routing.ParseMethod(name)
		require.NoError(t, err)
		require.Equal(t, routing.Method(i), m)
		require.Equal(t, name, m.String())
	}
	_, err := routing.ParseMethod("teleport")
	require.ErrorIs(t, err, routing.ErrInvalidMethod)
}

func TestUndamagedGridCorners(t *testing.T) {
	g := grid5(t)
	eng, err := routing.New(g)
	require.NoError(t, err)

	for _, m := range []routing.Method{routing.AStar, routing.Dijkstra} {
		r, err := eng.FindRoute(context.Background(), 0, 24, m, 0.5)
		require.NoError(t, err)
		require.Equal(t, 8, r.Segments(), m.String())
		require.InDelta(t, 2.4, r.DistanceKm, 1e-9)
		require.Zero(t, r.RiskScore)
		require.InDelta(t, 8*0.36, r.EstimatedTime, 1e-9)
		require.Equal(t, m, r.Method)
		require.Equal(t, network.NodeID(0), r.Path[0])
		require.Equal(t, network.NodeID(24), r.Path[8])
		require.Len(t, r.Coords, 9)
	}
}

func TestStartEqualsGoalIsNoPath(t *testing.T) {
	eng, err := routing.New(grid5(t))
	require.NoError(t, err)
	for _, m := range []routing.Method{routing.AStar, routing.Dijkstra, routing.RL, routing.Hybrid} {
		_, err := eng.FindRoute(context.Background(), 7, 7, m, 0.5)
		require.ErrorIs(t, err, routing.ErrNoPath, m.String())
	}
	_, err = eng.FindAllRoutes(context.Background(), 7, 7, 0.5)
	require.ErrorIs(t, err, routing.ErrNoPath)
}

func TestRequestErrors(t *testing.T) {
	eng, err := routing.New(grid5(t))
	require.NoError(t, err)

	_, err = eng.FindRoute(context.Background(), 0, 99, routing.AStar, 0.5)
	require.ErrorIs(t, err, network.ErrNodeNotFound)
	_, err = eng.FindRoute(context.Background(), 0, 24, routing.Method(9), 0.5)
	require.ErrorIs(t, err, routing.ErrInvalidMethod)
	_, err = eng.FindRoute(context.Background(), 0, 24, routing.AStar, 1.2)
	require.ErrorIs(t, err, routing.ErrBadUrgency)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eng.FindRoute(ctx, 0, 24, routing.Dijkstra, 0.5)
	require.ErrorIs(t, err, context.Canceled)

	_, err = routing.New(grid5(t), routing.WithCostModel(cost.Model{SpeedKmh: 0}))
	require.ErrorIs(t, err, cost.ErrBadSpeed)
	_, err = routing.New(grid5(t), routing.WithDamage(network.DamageMap{"0_1_0": 2}))
	require.ErrorIs(t, err, network.ErrDamageOutOfRange)
}

func TestOneWayIsNoPath(t *testing.T) {
	n := network.New()
	require.NoError(t, n.AddNode(network.Node{ID: 1, Lat: 41, Lon: 29}))
	require.NoError(t, n.AddNode(network.Node{ID: 2, Lat: 41.001, Lon: 29}))
	require.NoError(t, n.AddEdge(network.Edge{From: 1, To: 2, LengthM: 150}))

	eng, err := routing.New(n)
	require.NoError(t, err)
	_, err = eng.FindRoute(context.Background(), 1, 2, routing.AStar, 0.5)
	require.NoError(t, err)
	for _, m := range []routing.Method{routing.AStar, routing.Dijkstra, routing.Hybrid} {
		_, err = eng.FindRoute(context.Background(), 2, 1, m, 0.5)
		require.ErrorIs(t, err, routing.ErrNoPath, m.String())
	}
}

func TestAStarMatchesDijkstraCost(t *testing.T) {
	g, err := network.Grid(6, 6, network.WithLengthRange(300, 600, rand.New(rand.NewSource(3))))
	require.NoError(t, err)
	c, err := g.Centroid()
	require.NoError(t, err)
	dm, err := damage.RuleBased().Predict(g, c, 7.5)
	require.NoError(t, err)

	model := cost.DefaultModel()
	eng, err := routing.New(g, routing.WithDamage(dm), routing.WithCostModel(model))
	require.NoError(t, err)

	pairs := [][2]network.NodeID{{0, 35}, {5, 30}, {2, 33}, {35, 0}, {12, 17}}
	for _, p := range pairs {
		a, err := eng.FindRoute(context.Background(), p[0], p[1], routing.AStar, 0.5)
		require.NoError(t, err)
		d, err := eng.FindRoute(context.Background(), p[0], p[1], routing.Dijkstra, 0.5)
		require.NoError(t, err)
		require.InDelta(t, pathCost(t, g, d.Path, dm, model), pathCost(t, g, a.Path, dm, model), 1e-9, "%v", p)
	}
}

func TestDamageSteersRoute(t *testing.T) {
	// Row 0-1-2 with a detour row 3-4-5 below.
	g, err := network.Grid(2, 3, network.WithoutBridge())
	require.NoError(t, err)
	eng, err := routing.New(g, routing.WithCostModel(cost.Model{SpeedKmh: 50, RiskWeight: 5}))
	require.NoError(t, err)

	r, err := eng.FindRoute(context.Background(), 0, 2, routing.AStar, 0.5)
	require.NoError(t, err)
	require.Equal(t, []network.NodeID{0, 1, 2}, r.Path)

	// Damage 0→1 heavily; the installed map is read on the next call.
	require.NoError(t, g.InstallDamage(network.DamageMap{"0_1_0": 1}))
	r, err = eng.FindRoute(context.Background(), 0, 2, routing.AStar, 0.5)
	require.NoError(t, err)
	require.NotEqual(t, network.NodeID(1), r.Path[1])
	require.Zero(t, r.RiskScore)

	// An explicit map wins over the installed one.
	eng, err = routing.New(g, routing.WithDamage(network.DamageMap{}))
	require.NoError(t, err)
	r, err = eng.FindRoute(context.Background(), 0, 2, routing.Dijkstra, 0.5)
	require.NoError(t, err)
	require.Equal(t, []network.NodeID{0, 1, 2}, r.Path)
}

func TestParallelEdgeReporting(t *testing.T) {
	n := network.New()
	require.NoError(t, n.AddNode(network.Node{ID: 1, Lat: 41, Lon: 29}))
	require.NoError(t, n.AddNode(network.Node{ID: 2, Lat: 41.001, Lon: 29}))
	require.NoError(t, n.AddEdge(network.Edge{From: 1, To: 2, Key: 0, LengthM: 200}))
	require.NoError(t, n.AddEdge(network.Edge{From: 1, To: 2, Key: 1, LengthM: 300}))

	// Key 0: 0.24×(1+0.9×2) = 0.672 min; key 1: 0.36 min.
	eng, err := routing.New(n, routing.WithDamage(network.DamageMap{"1_2_0": 0.9}))
	require.NoError(t, err)
	r, err := eng.FindRoute(context.Background(), 1, 2, routing.AStar, 0.5)
	require.NoError(t, err)
	require.Zero(t, r.RiskScore)
	require.InDelta(t, 0.3, r.DistanceKm, 1e-12)
	require.InDelta(t, 0.36, r.EstimatedTime, 1e-12)
}

func TestRouteTimeUsesDamage(t *testing.T) {
	g, err := network.Grid(1, 2)
	require.NoError(t, err)
	eng, err := routing.New(g, routing.WithDamage(network.DamageMap{"0_1_0": 0.5}))
	require.NoError(t, err)
	r, err := eng.FindRoute(context.Background(), 0, 1, routing.Dijkstra, 0.5)
	require.NoError(t, err)
	require.InDelta(t, 0.36*1.5, r.EstimatedTime, 1e-12)
	require.Equal(t, 0.5, r.RiskScore)
	require.InDelta(t, 0.54+5, r.Score(), 1e-12)
}

func TestRLWithoutPolicyFallsBack(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	eng, err := routing.New(grid5(t), routing.WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.False(t, eng.HasPolicy())
	require.ErrorIs(t, eng.RequirePolicy(), routing.ErrMissingPolicy)

	r, err := eng.FindRoute(context.Background(), 0, 24, routing.RL, 0.5)
	require.NoError(t, err)
	require.Equal(t, routing.AStar, r.Method)
	warned := logs.FilterMessage("no policy loaded, using astar").All()
	require.Len(t, warned, 1)
	require.Equal(t, zapcore.WarnLevel, warned[0].Level)
	require.Equal(t, int64(24), warned[0].ContextMap()["goal"])

	h, err := eng.FindRoute(context.Background(), 0, 24, routing.Hybrid, 0.5)
	require.NoError(t, err)
	require.Equal(t, routing.Hybrid, h.Method)
	require.InDelta(t, r.EstimatedTime, h.EstimatedTime, 1e-12)
}

func TestRLWithPolicy(t *testing.T) {
	eng, err := routing.New(grid5(t), routing.WithPolicy(episode.GreedyPolicy{DamageAversion: 1}))
	require.NoError(t, err)
	require.NoError(t, eng.RequirePolicy())

	r, err := eng.FindRoute(context.Background(), 0, 24, routing.RL, 0.9)
	require.NoError(t, err)
	require.Equal(t, routing.RL, r.Method)
	require.Equal(t, 8, r.Segments())
	require.InDelta(t, 2.4, r.DistanceKm, 1e-9)

	stuck := episode.PolicyFunc(func(episode.Observation) int { return 42 })
	eng, err = routing.New(grid5(t), routing.WithPolicy(stuck), routing.WithEpisodeOptions(episode.WithMaxSteps(5)))
	require.NoError(t, err)
	_, err = eng.FindRoute(context.Background(), 0, 24, routing.RL, 0.9)
	require.ErrorIs(t, err, routing.ErrNoPath)

	// Hybrid tolerates a failing episode and keeps the A* route.
	h, err := eng.FindRoute(context.Background(), 0, 24, routing.Hybrid, 0.9)
	require.NoError(t, err)
	require.Equal(t, routing.Hybrid, h.Method)
	require.Equal(t, 8, h.Segments())
}

func TestFindAllRoutesSingleOptimal(t *testing.T) {
	g := grid5(t)
	c, err := g.Centroid()
	require.NoError(t, err)
	dm, err := damage.RuleBased().Predict(g, c, 8)
	require.NoError(t, err)

	eng, err := routing.New(g, routing.WithDamage(dm), routing.WithPolicy(episode.GreedyPolicy{}))
	require.NoError(t, err)

	routes, err := eng.FindAllRoutes(context.Background(), 0, 24, 0.5)
	require.NoError(t, err)
	require.Len(t, routes, 3)
	require.Equal(t, []routing.Method{routing.AStar, routing.Dijkstra, routing.RL},
		[]routing.Method{routes[0].Method, routes[1].Method, routes[2].Method})

	optimal := 0
	minScore := routes[0].Score()
	for _, r := range routes {
		minScore = min(minScore, r.Score())
	}
	for i, r := range routes {
		if r.IsOptimal {
			optimal++
			assert.Equal(t, minScore, r.Score())
			for _, earlier := range routes[:i] {
				assert.Greater(t, earlier.Score(), r.Score(), "ties go to the first route")
			}
		}
	}
	require.Equal(t, 1, optimal)
}

func TestFindAllRoutesWithoutPolicy(t *testing.T) {
	eng, err := routing.New(grid5(t))
	require.NoError(t, err)
	routes, err := eng.FindAllRoutes(context.Background(), 0, 24, 0.5)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	require.True(t, routes[0].IsOptimal, "equal scores favour astar")
	require.False(t, routes[1].IsOptimal)
}

func TestConcurrentRequests(t *testing.T) {
	eng, err := routing.New(grid5(t), routing.WithPolicy(episode.GreedyPolicy{}))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := routing.Method(i % 4)
			r, err := eng.FindRoute(context.Background(), 0, 24, m, 0.5)
			if assert.NoError(t, err) {
				assert.Equal(t, 8, r.Segments())
			}
		}(i)
	}
	wg.Wait()
}

// uniform returns a map giving every edge of n the same damage.
func uniform(n *network.Network, d float64) network.DamageMap {
	m := make(network.DamageMap, n.EdgeCount())
	for _, e := range n.Edges() {
		m[e.ID()] = d
	}
	return m
}

func TestFindAllRoutesSeesOneDamageMap(t *testing.T) {
	g := grid5(t)
	half := uniform(g, 0.5)
	eng, err := routing.New(g)
	require.NoError(t, err)

	var stop atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for !stop.Load() {
			assert.NoError(t, g.InstallDamage(half))
			g.ClearDamage()
		}
	}()

	mixed := 0
	for i := 0; i < 2000; i++ {
		routes, err := eng.FindAllRoutes(context.Background(), 0, 24, 0.5)
		require.NoError(t, err)
		for _, r := range routes[1:] {
			if r.RiskScore != routes[0].RiskScore {
				mixed++
			}
		}
		r, alts, err := eng.FindRouteWithAlternatives(context.Background(), 0, 24, routing.Dijkstra, 0.5)
		require.NoError(t, err)
		for _, a := range alts {
			if a.RiskScore != r.RiskScore {
				mixed++
			}
		}
	}
	stop.Store(true)
	wg.Wait()
	require.Zero(t, mixed)
}

func TestFindRouteWithAlternatives(t *testing.T) {
	ctx := context.Background()
	eng, err := routing.New(grid5(t), routing.WithPolicy(episode.GreedyPolicy{}))
	require.NoError(t, err)

	r, alts, err := eng.FindRouteWithAlternatives(ctx, 0, 24, routing.Dijkstra, 0.5)
	require.NoError(t, err)
	require.Equal(t, routing.Dijkstra, r.Method)
	require.Len(t, alts, 2)
	for _, a := range alts {
		require.NotEqual(t, routing.Dijkstra, a.Method)
	}

	h, alts, err := eng.FindRouteWithAlternatives(ctx, 0, 24, routing.Hybrid, 0.5)
	require.NoError(t, err)
	require.Equal(t, routing.Hybrid, h.Method)
	require.Len(t, alts, 3)

	_, _, err = eng.FindRouteWithAlternatives(ctx, 0, 24, routing.Method(9), 0.5)
	require.ErrorIs(t, err, routing.ErrInvalidMethod)
	_, _, err = eng.FindRouteWithAlternatives(ctx, 0, 0, routing.AStar, 0.5)
	require.ErrorIs(t, err, routing.ErrNoPath)

	// Without a policy rl falls back to astar and is reported as such.
	plain, err := routing.New(grid5(t))
	require.NoError(t, err)
	r, alts, err = plain.FindRouteWithAlternatives(ctx, 0, 24, routing.RL, 0.5)
	require.NoError(t, err)
	require.Equal(t, routing.AStar, r.Method)
	require.Len(t, alts, 1)
	require.Equal(t, routing.Dijkstra, alts[0].Method)
}

func TestRLDrivesTheMeasuredParallelEdge(t *testing.T) {
	n := network.New()
	require.NoError(t, n.AddNode(network.Node{ID: 1, Lat: 41, Lon: 29}))
	require.NoError(t, n.AddNode(network.Node{ID: 2, Lat: 41.0036, Lon: 29}))
	require.NoError(t, n.AddEdge(network.Edge{From: 1, To: 2, Key: 0, LengthM: 1000}))
	require.NoError(t, n.AddEdge(network.Edge{From: 1, To: 2, Key: 1, LengthM: 450}))
	dm := network.DamageMap{"1_2_1": 0.5}

	// The observation exposes the damage of the edge the episode drives.
	var seen []float64
	policy := episode.PolicyFunc(func(obs episode.Observation) int {
		seen = append(seen, obs.NeighborDamage()[0])
		return 0
	})
	eng, err := routing.New(n, routing.WithDamage(dm), routing.WithPolicy(policy))
	require.NoError(t, err)

	r, err := eng.FindRoute(context.Background(), 1, 2, routing.RL, 0.5)
	require.NoError(t, err)
	require.Equal(t, []float64{0.5}, seen)
	require.Equal(t, 0.5, r.RiskScore)
	require.InDelta(t, 0.45, r.DistanceKm, 1e-12)
	require.InDelta(t, 0.54*1.5, r.EstimatedTime, 1e-12)
}
