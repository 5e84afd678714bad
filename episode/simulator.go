package episode

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/tariktoplu/Opti-LogistiX/cost"
	"github.com/tariktoplu/Opti-LogistiX/geo"
	"github.com/tariktoplu/Opti-LogistiX/network"
)

// Urgency is drawn from [urgencyMin, urgencyMin+urgencySpan) when unset.
const (
	urgencyMin  = 0.3
	urgencySpan = 0.7
)

// Simulator runs one episode at a time over a fixed network and damage map.
type Simulator struct {
	net    *network.Network
	damage network.DamageMap
	cfg    Config
	rng    *rand.Rand
	pick   *cost.Model
	edges  cost.Model // chooses between parallel edges

	ready     bool
	done      bool
	current   network.NodeID
	goal      network.NodeID
	urgency   float64
	steps     int
	path      []network.NodeID
	totalTime float64
	totalRisk float64
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithConfig replaces the whole configuration.
func WithConfig(c Config) Option {
	return func(s *Simulator) { s.cfg = c }
}

// WithMaxNeighbors sets the observation width.
func WithMaxNeighbors(k int) Option {
	return func(s *Simulator) { s.cfg.MaxNeighbors = k }
}

// WithMaxSteps sets the step budget.
func WithMaxSteps(n int) Option {
	return func(s *Simulator) { s.cfg.MaxSteps = n }
}

// WithSpeed sets the vehicle speed in km/h.
func WithSpeed(kmh float64) Option {
	return func(s *Simulator) { s.cfg.SpeedKmh = kmh }
}

// WithWeights sets the time, risk and urgency reward weights.
func WithWeights(timeW, riskW, urgencyW float64) Option {
	return func(s *Simulator) {
		s.cfg.TimeWeight, s.cfg.RiskWeight, s.cfg.UrgencyWeight = timeW, riskW, urgencyW
	}
}

// WithEdgeModel makes the simulator choose between parallel edges with m,
// the model a router measures routes with. Travel time still uses the
// configured speed and DamageSlowdown.
func WithEdgeModel(m cost.Model) Option {
	return func(s *Simulator) { s.pick = &m }
}

// WithRand sets the source for random starts and urgencies.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithSeed seeds a private source.
func WithSeed(seed int64) Option {
	return func(s *Simulator) { s.rng = rand.New(rand.NewSource(seed)) }
}

// New returns a simulator over n. A nil damage map means the network's
// installed map, read once here.
func New(n *network.Network, damage network.DamageMap, opts ...Option) (*Simulator, error) {
	if n == nil || n.NodeCount() == 0 {
		return nil, network.ErrEmptyNetwork
	}
	if damage == nil {
		damage = n.DamageSnapshot()
	}
	s := &Simulator{
		net:    n,
		damage: damage,
		cfg:    DefaultConfig(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	s.edges = cost.Model{SpeedKmh: s.cfg.SpeedKmh, RiskWeight: s.cfg.DamageSlowdown}
	if s.pick != nil {
		if err := s.pick.Validate(); err != nil {
			return nil, err
		}
		s.edges = *s.pick
	}
	return s, nil
}

// Config returns the active configuration.
func (s *Simulator) Config() Config { return s.cfg }

// resetConfig holds explicit episode parameters.
type resetConfig struct {
	start, goal       network.NodeID
	hasStart, hasGoal bool
	urgency           float64
	hasUrgency        bool
}

// ResetOption fixes part of the initial state.
type ResetOption func(*resetConfig)

// WithStart fixes the start node.
func WithStart(id network.NodeID) ResetOption {
	return func(c *resetConfig) { c.start, c.hasStart = id, true }
}

// WithGoal fixes the goal node.
func WithGoal(id network.NodeID) ResetOption {
	return func(c *resetConfig) { c.goal, c.hasGoal = id, true }
}

// WithUrgency fixes the urgency in [0,1].
func WithUrgency(u float64) ResetOption {
	return func(c *resetConfig) { c.urgency, c.hasUrgency = u, true }
}

// Reset starts a new episode and returns its first observation.
//
// Unset start: uniform random node. Unset goal: the reachable node with the
// largest great-circle distance from start, scanning in BFS order and
// keeping the first maximum. Unset urgency: U(0.3, 1.0).
func (s *Simulator) Reset(opts ...ResetOption) (Observation, error) {
	var rc resetConfig
	for _, opt := range opts {
		opt(&rc)
	}

	start := rc.start
	if !rc.hasStart {
		nodes := s.net.Nodes()
		start = nodes[s.rng.Intn(len(nodes))].ID
	} else if !s.net.HasNode(start) {
		return nil, fmt.Errorf("%w: start %d", network.ErrNodeNotFound, start)
	}

	goal := rc.goal
	if !rc.hasGoal {
		g, err := s.farthestReachable(start)
		if err != nil {
			return nil, err
		}
		goal = g
	} else if !s.net.HasNode(goal) {
		return nil, fmt.Errorf("%w: goal %d", network.ErrNodeNotFound, goal)
	}

	urgency := rc.urgency
	if !rc.hasUrgency {
		urgency = urgencyMin + s.rng.Float64()*urgencySpan
	} else if math.IsNaN(urgency) || urgency < 0 || urgency > 1 {
		return nil, fmt.Errorf("%w: %v", ErrBadUrgency, urgency)
	}

	s.ready, s.done = true, false
	s.current, s.goal, s.urgency = start, goal, urgency
	s.steps = 0
	s.path = []network.NodeID{start}
	s.totalTime, s.totalRisk = 0, 0

	return s.observe(), nil
}

func (s *Simulator) farthestReachable(start network.NodeID) (network.NodeID, error) {
	reach, err := s.net.Reachable(context.Background(), start)
	if err != nil {
		return 0, err
	}
	from, err := s.net.Node(start)
	if err != nil {
		return 0, err
	}
	best, bestD := start, 0.0
	for _, id := range reach.Order[1:] {
		node, err := s.net.Node(id)
		if err != nil {
			return 0, err
		}
		if d := geo.HaversineKm(from.Point(), node.Point()); d > bestD {
			best, bestD = id, d
		}
	}
	if best == start {
		return 0, fmt.Errorf("%w: from %d", ErrNoReachableGoal, start)
	}
	return best, nil
}

// Step applies one action.
func (s *Simulator) Step(action int) (StepResult, error) {
	if !s.ready {
		return StepResult{}, ErrNotReset
	}
	if s.done {
		return StepResult{}, ErrEpisodeOver
	}
	s.steps++

	nbrs := s.neighbors()
	if action < 0 || action >= len(nbrs) {
		res := StepResult{
			Reward:    s.cfg.InvalidPenalty,
			Truncated: s.steps >= s.cfg.MaxSteps,
			Invalid:   true,
		}
		s.done = res.Truncated
		res.Observation = s.observe()
		return res, nil
	}

	next := nbrs[action]
	travel, dmg := s.leg(s.current, next)
	reached := next == s.goal

	reward := -s.cfg.TimeWeight*travel - s.cfg.RiskWeight*dmg
	if reached {
		reward += s.cfg.UrgencyWeight * s.urgency
	}

	s.current = next
	s.path = append(s.path, next)
	s.totalTime += travel
	s.totalRisk += dmg

	res := StepResult{
		Reward:     reward,
		Terminated: reached,
		Truncated:  s.steps >= s.cfg.MaxSteps,
		TravelTime: travel,
		EdgeDamage: dmg,
	}
	s.done = res.Done()
	res.Observation = s.observe()
	return res, nil
}

// Observation returns the observation of the current state.
func (s *Simulator) Observation() (Observation, error) {
	if !s.ready {
		return nil, ErrNotReset
	}
	return s.observe(), nil
}

// Result summarises the episode so far.
func (s *Simulator) Result() Result {
	return Result{
		Success:   s.ready && s.current == s.goal,
		Path:      append([]network.NodeID(nil), s.path...),
		TotalTime: s.totalTime,
		TotalRisk: s.totalRisk,
		Steps:     s.steps,
	}
}

// Current returns the vehicle's node.
func (s *Simulator) Current() network.NodeID { return s.current }

// Goal returns the goal node.
func (s *Simulator) Goal() network.NodeID { return s.goal }

// Urgency returns the episode urgency.
func (s *Simulator) Urgency() float64 { return s.urgency }

// Steps returns the number of steps taken, invalid ones included.
func (s *Simulator) Steps() int { return s.steps }

// Network returns the simulated network.
func (s *Simulator) Network() *network.Network { return s.net }

// Neighbors returns the action targets at the current node: its direct
// successors in native order, truncated to MaxNeighbors.
func (s *Simulator) Neighbors() []network.NodeID {
	return append([]network.NodeID(nil), s.neighbors()...)
}

// EdgeDamage returns the damage of the edge the simulator would drive from
// u to v, or 1 when they are not adjacent.
func (s *Simulator) EdgeDamage(u, v network.NodeID) float64 {
	e, _, ok := cost.CheapestEdge(s.net.ParallelEdges(u, v), s.damage, s.edges)
	if !ok {
		return 1
	}
	return s.damage.Get(e.ID())
}

func (s *Simulator) neighbors() []network.NodeID {
	nbrs, err := s.net.Successors(s.current)
	if err != nil {
		return nil
	}
	if len(nbrs) > s.cfg.MaxNeighbors {
		nbrs = nbrs[:s.cfg.MaxNeighbors]
	}
	return nbrs
}

// leg returns travel minutes and damage of the chosen parallel edge u→v.
// Travel time is free-flow minutes × (1 + DamageSlowdown×damage).
func (s *Simulator) leg(u, v network.NodeID) (float64, float64) {
	e, _, _ := cost.CheapestEdge(s.net.ParallelEdges(u, v), s.damage, s.edges)
	d := s.damage.Get(e.ID())
	return cost.TravelMinutes(e.LengthM, s.cfg.SpeedKmh) * (1 + s.cfg.DamageSlowdown*d), d
}

func (s *Simulator) observe() Observation {
	cur, _ := s.net.Node(s.current)
	goal, _ := s.net.Node(s.goal)

	obs := make(Observation, 0, s.cfg.ObservationSize())
	obs = append(obs,
		cur.Lat/90, cur.Lon/180, float64(cur.StreetCount)/10, 1.0,
		goal.Lat/90, goal.Lon/180, float64(goal.StreetCount)/10, s.urgency,
	)
	nbrs := s.neighbors()
	for _, v := range nbrs {
		obs = append(obs, s.EdgeDamage(s.current, v))
	}
	for i := len(nbrs); i < s.cfg.MaxNeighbors; i++ {
		obs = append(obs, 1.0)
	}
	return append(obs, geo.HaversineKm(cur.Point(), goal.Point())/10)
}
