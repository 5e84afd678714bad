package episode

import (
	"context"
	"errors"
	"math"

	"github.com/tariktoplu/Opti-LogistiX/geo"
	"github.com/tariktoplu/Opti-LogistiX/network"
)

// ErrNilPolicy indicates Run was called without a policy.
var ErrNilPolicy = errors.New("episode: policy is nil")

// Policy chooses an action index from an observation. Trained models live
// outside this module and plug in through this interface.
type Policy interface {
	SelectAction(obs Observation) int
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(obs Observation) int

// SelectAction calls f(obs).
func (f PolicyFunc) SelectAction(obs Observation) int { return f(obs) }

// Binder is implemented by policies that need the simulator of the episode
// they drive. Run calls Bind once per episode after Reset and uses the
// returned policy, so one Binder can serve concurrent episodes.
type Binder interface {
	Bind(sim *Simulator) Policy
}

// GreedyPolicy is a non-learned baseline. At each node it moves to the
// unvisited successor minimising km-to-goal × (1 + DamageAversion×damage),
// falling back to visited successors when every one has been seen.
type GreedyPolicy struct {
	DamageAversion float64
}

// Bind implements Binder.
func (g GreedyPolicy) Bind(sim *Simulator) Policy {
	return &greedy{aversion: g.DamageAversion, sim: sim, seen: map[network.NodeID]bool{sim.Current(): true}}
}

// SelectAction without a bound simulator picks the least-damaged successor.
func (g GreedyPolicy) SelectAction(obs Observation) int {
	best, bestD := 0, math.Inf(1)
	for i, d := range obs.NeighborDamage() {
		if d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

type greedy struct {
	aversion float64
	sim      *Simulator
	seen     map[network.NodeID]bool
}

func (p *greedy) SelectAction(Observation) int {
	net := p.sim.Network()
	cur := p.sim.Current()
	p.seen[cur] = true
	goal, err := net.Node(p.sim.Goal())
	if err != nil {
		return 0
	}

	best, bestScore, bestSeen := 0, math.Inf(1), true
	for i, v := range p.sim.Neighbors() {
		node, err := net.Node(v)
		if err != nil {
			continue
		}
		score := geo.HaversineKm(node.Point(), goal.Point()) * (1 + p.aversion*p.sim.EdgeDamage(cur, v))
		seen := p.seen[v]
		// Unvisited beats visited; then lower score wins.
		if (bestSeen && !seen) || (seen == bestSeen && score < bestScore) {
			best, bestScore, bestSeen = i, score, seen
		}
	}
	return best
}

// Run resets sim with resetOpts and lets policy act until the episode
// terminates or is truncated. ctx is checked before every step.
func Run(ctx context.Context, sim *Simulator, policy Policy, resetOpts ...ResetOption) (Result, error) {
	if policy == nil {
		return Result{}, ErrNilPolicy
	}
	if ctx == nil {
		ctx = context.Background()
	}
	obs, err := sim.Reset(resetOpts...)
	if err != nil {
		return Result{}, err
	}
	if b, ok := policy.(Binder); ok {
		policy = b.Bind(sim)
	}

	for {
		if err := ctx.Err(); err != nil {
			return sim.Result(), err
		}
		res, err := sim.Step(policy.SelectAction(obs))
		if err != nil {
			return sim.Result(), err
		}
		if res.Done() {
			return sim.Result(), nil
		}
		obs = res.Observation
	}
}
