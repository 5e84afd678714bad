package routing

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/tariktoplu/Opti-LogistiX/cost"
	"github.com/tariktoplu/Opti-LogistiX/episode"
	"github.com/tariktoplu/Opti-LogistiX/network"
)

// Engine answers route requests over one network.
type Engine struct {
	net        *network.Network
	damage     network.DamageMap
	model      cost.Model
	policy     episode.Policy
	episodeOpt []episode.Option
	logger     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithDamage routes against m instead of the network's installed map.
func WithDamage(m network.DamageMap) Option {
	return func(e *Engine) { e.damage = m }
}

// WithCostModel sets vehicle speed and risk weight.
func WithCostModel(m cost.Model) Option {
	return func(e *Engine) { e.model = m }
}

// WithPolicy enables the rl and hybrid methods.
func WithPolicy(p episode.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithEpisodeOptions configures the simulator built for each rl episode.
func WithEpisodeOptions(opts ...episode.Option) Option {
	return func(e *Engine) { e.episodeOpt = append(e.episodeOpt, opts...) }
}

// WithLogger sets the logger for degradations.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an engine over n with the default cost model.
func New(n *network.Network, opts ...Option) (*Engine, error) {
	if n == nil {
		return nil, network.ErrEmptyNetwork
	}
	e := &Engine{
		net:    n,
		model:  cost.DefaultModel(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.model.Validate(); err != nil {
		return nil, err
	}
	if e.damage != nil {
		if err := e.damage.Validate(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// HasPolicy reports whether rl routing is available.
func (e *Engine) HasPolicy() bool { return e.policy != nil }

// RequirePolicy returns ErrMissingPolicy when no policy is configured.
func (e *Engine) RequirePolicy() error {
	if e.policy == nil {
		return ErrMissingPolicy
	}
	return nil
}

// search is the per-call state shared by the searches and route building.
type search struct {
	net    *network.Network
	damage network.DamageMap
	model  cost.Model
	start  network.NodeID
	goal   network.NodeID
	pos    map[network.NodeID]orb.Point
}

// step returns the minimal-weight parallel edge u→v and its weight.
func (s *search) step(u, v network.NodeID) (network.Edge, float64, bool) {
	return cost.CheapestEdge(s.net.ParallelEdges(u, v), s.damage, s.model)
}

func (e *Engine) newSearch(start, goal network.NodeID) (*search, error) {
	for _, id := range []network.NodeID{start, goal} {
		if !e.net.HasNode(id) {
			return nil, fmt.Errorf("%w: %d", network.ErrNodeNotFound, id)
		}
	}
	if start == goal {
		return nil, fmt.Errorf("%w: start equals goal (%d)", ErrNoPath, start)
	}
	dm := e.damage
	if dm == nil {
		dm = e.net.DamageSnapshot()
	}
	nodes := e.net.Nodes()
	pos := make(map[network.NodeID]orb.Point, len(nodes))
	for _, n := range nodes {
		pos[n.ID] = n.Point()
	}
	return &search{net: e.net, damage: dm, model: e.model, start: start, goal: goal, pos: pos}, nil
}

// FindRoute computes one route with the given method. urgency in [0,1]
// only matters to rl episodes.
func (e *Engine) FindRoute(ctx context.Context, start, goal network.NodeID, method Method, urgency float64) (*Route, error) {
	s, err := e.prepare(start, goal, urgency)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, s, method, urgency)
}

// FindAllRoutes runs astar, dijkstra and, with a policy, rl, in that order,
// and flags the first route of minimal Score as optimal. Methods that find
// no path are left out; ErrNoPath is returned only when none succeeds.
// Every method sees the same damage map, read once per call.
func (e *Engine) FindAllRoutes(ctx context.Context, start, goal network.NodeID, urgency float64) ([]*Route, error) {
	s, err := e.prepare(start, goal, urgency)
	if err != nil {
		return nil, err
	}
	return e.all(ctx, s, urgency)
}

// FindRouteWithAlternatives returns the route of method together with the
// FindAllRoutes results of the other methods, all computed against one
// damage map. A method that falls back (rl without a policy) is reported
// under the method actually used.
func (e *Engine) FindRouteWithAlternatives(ctx context.Context, start, goal network.NodeID, method Method, urgency float64) (*Route, []*Route, error) {
	if method < AStar || method > Hybrid {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidMethod, method)
	}
	s, err := e.prepare(start, goal, urgency)
	if err != nil {
		return nil, nil, err
	}
	routes, err := e.all(ctx, s, urgency)
	if err != nil {
		return nil, nil, err
	}

	var chosen *Route
	for _, r := range routes {
		if r.Method == method {
			chosen = r
		}
	}
	if chosen == nil {
		if chosen, err = e.run(ctx, s, method, urgency); err != nil {
			return nil, nil, err
		}
	}
	alternatives := make([]*Route, 0, len(routes))
	for _, r := range routes {
		if r.Method != chosen.Method {
			alternatives = append(alternatives, r)
		}
	}
	return chosen, alternatives, nil
}

// prepare validates the request and snapshots the search state.
func (e *Engine) prepare(start, goal network.NodeID, urgency float64) (*search, error) {
	if math.IsNaN(urgency) || urgency < 0 || urgency > 1 {
		return nil, fmt.Errorf("%w: %v", ErrBadUrgency, urgency)
	}
	return e.newSearch(start, goal)
}

func (e *Engine) run(ctx context.Context, s *search, method Method, urgency float64) (*Route, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	switch method {
	case AStar:
		return e.exact(ctx, s, AStar)
	case Dijkstra:
		return e.exact(ctx, s, Dijkstra)
	case RL:
		if e.policy == nil {
			e.logger.Warn("no policy loaded, using astar",
				zap.Int64("start", int64(s.start)), zap.Int64("goal", int64(s.goal)))
			return e.exact(ctx, s, AStar)
		}
		return e.rl(ctx, s, urgency)
	case Hybrid:
		return e.hybrid(ctx, s, urgency)
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidMethod, method)
	}
}

func (e *Engine) all(ctx context.Context, s *search, urgency float64) ([]*Route, error) {
	methods := []Method{AStar, Dijkstra}
	if e.policy != nil {
		methods = append(methods, RL)
	}

	var routes []*Route
	for _, m := range methods {
		r, err := e.run(ctx, s, m, urgency)
		switch {
		case err == nil:
			routes = append(routes, r)
		case m == RL && isNoPath(err):
			e.logger.Info("rl episode did not reach goal",
				zap.Int64("start", int64(s.start)), zap.Int64("goal", int64(s.goal)))
		default:
			return nil, err
		}
	}
	if len(routes) == 0 {
		return nil, ErrNoPath
	}

	best := 0
	for i, r := range routes {
		if r.Score() < routes[best].Score() {
			best = i
		}
	}
	routes[best].IsOptimal = true
	return routes, nil
}

func (e *Engine) exact(ctx context.Context, s *search, m Method) (*Route, error) {
	var (
		path []network.NodeID
		err  error
	)
	if m == Dijkstra {
		path, _, err = s.dijkstra(ctx)
	} else {
		path, _, err = s.astar(ctx)
	}
	if err != nil {
		return nil, err
	}
	return s.route(path, m), nil
}

// rl drives one fresh simulator with the policy.
func (e *Engine) rl(ctx context.Context, s *search, urgency float64) (*Route, error) {
	opts := append([]episode.Option{episode.WithSpeed(e.model.SpeedKmh)}, e.episodeOpt...)
	opts = append(opts, episode.WithEdgeModel(e.model))
	sim, err := episode.New(e.net, s.damage, opts...)
	if err != nil {
		return nil, err
	}
	res, err := episode.Run(ctx, sim, e.policy,
		episode.WithStart(s.start), episode.WithGoal(s.goal), episode.WithUrgency(urgency))
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("%w: rl episode stopped after %d steps", ErrNoPath, res.Steps)
	}
	return s.route(res.Path, RL), nil
}

func (e *Engine) hybrid(ctx context.Context, s *search, urgency float64) (*Route, error) {
	best, err := e.exact(ctx, s, AStar)
	if err != nil {
		return nil, err
	}
	if e.policy != nil {
		alt, err := e.rl(ctx, s, urgency)
		switch {
		case err == nil && alt.Score() < best.Score():
			best = alt
		case err != nil && !isNoPath(err):
			return nil, err
		}
	}
	best.Method = Hybrid
	return best, nil
}

// route measures path using the same minimal-weight parallel edges the
// search used. Time is free-flow minutes × (1 + damage).
func (s *search) route(path []network.NodeID, m Method) *Route {
	r := &Route{Path: path, Coords: s.coords(path), Method: m}
	var total float64
	for i := 0; i+1 < len(path); i++ {
		edge, _, ok := s.step(path[i], path[i+1])
		if !ok {
			continue
		}
		d := s.damage.Get(edge.ID())
		r.DistanceKm += edge.LengthM / 1000
		r.EstimatedTime += cost.TravelMinutes(edge.LengthM, s.model.SpeedKmh) * (1 + d)
		total += d
	}
	r.RiskScore = total / float64(max(1, len(path)-1))
	return r
}
