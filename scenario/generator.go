package scenario

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/tariktoplu/Opti-LogistiX/damage"
	"github.com/tariktoplu/Opti-LogistiX/geo"
	"github.com/tariktoplu/Opti-LogistiX/network"
)

// Severity multiplier range applied to the probability of a damaged edge.
const (
	severityMin  = 0.8
	severitySpan = 0.7 // up to 1.5
)

// Generator produces scenarios. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand

	now       func() time.Time
	logger    *zap.Logger
	outputDir string
	model     damage.Model
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand uses r as the randomness source. nil is ignored.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		if r != nil {
			g.rng = r
		}
	}
}

// WithSeed seeds a private source for reproducible scenarios.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.rng = rand.New(rand.NewSource(seed)) }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithLogger sets the logger for generation summaries.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithOutputDir sets the directory used by SaveToOutputDir.
func WithOutputDir(dir string) Option {
	return func(g *Generator) { g.outputDir = dir }
}

// NewGenerator returns a time-seeded generator unless options say otherwise.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
		logger: zap.NewNop(),
		model:  damage.ScenarioModel(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// genConfig holds per-call overrides.
type genConfig struct {
	epicenter    orb.Point
	hasEpicenter bool
	id           string
}

// GenerateOption customizes a single Generate call.
type GenerateOption func(*genConfig)

// WithEpicenter fixes the epicenter instead of picking a random node.
func WithEpicenter(lat, lon float64) GenerateOption {
	return func(c *genConfig) {
		c.epicenter = geo.Point(lat, lon)
		c.hasEpicenter = true
	}
}

// WithScenarioID fixes the scenario ID.
func WithScenarioID(id string) GenerateOption {
	return func(c *genConfig) { c.id = id }
}

// Generate draws an earthquake scenario of the given magnitude over n.
//
// Steps:
//  1. Validate magnitude and network; pick the epicenter.
//  2. For each edge in insertion order: score, draw, maybe record.
//  3. Attach the three fixed zones, ID and timestamp.
func (g *Generator) Generate(n *network.Network, magnitude float64, opts ...GenerateOption) (*Scenario, error) {
	if math.IsNaN(magnitude) || magnitude < MinMagnitude || magnitude > MaxMagnitude {
		return nil, fmt.Errorf("%w: %v (want %.1f–%.1f)", ErrBadMagnitude, magnitude, MinMagnitude, MaxMagnitude)
	}
	if n == nil || n.NodeCount() == 0 {
		return nil, network.ErrEmptyNetwork
	}
	var cfg genConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.hasEpicenter && !geo.Finite(cfg.epicenter) {
		return nil, fmt.Errorf("%w: %v", damage.ErrBadEpicenter, cfg.epicenter)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	epi := cfg.epicenter
	if !cfg.hasEpicenter {
		nodes := n.Nodes()
		epi = nodes[g.rng.Intn(len(nodes))].Point()
	}

	base := BaseDamageRate(magnitude)
	s := &Scenario{
		ID:           cfg.id,
		DisasterType: Earthquake,
		Magnitude:    magnitude,
		EpicenterLat: epi.Lat(),
		EpicenterLon: epi.Lon(),
		DamageZones:  damage.Bands(epi),
		EdgeDamages:  make(network.DamageMap),
	}
	damage.EachEdgeDistance(n, epi, func(e network.Edge, dKm float64) {
		p := g.model.Probability(base, dKm, e)
		if g.rng.Float64() >= p {
			return
		}
		s.EdgeDamages[e.ID()] = network.Clamp01(p * (severityMin + g.rng.Float64()*severitySpan))
		s.AffectedRoads++
		if e.IsBridge {
			s.AffectedBridges++
		}
	})

	if s.ID == "" {
		s.ID = fmt.Sprintf("EQ_%.1f_%s", magnitude, g.shortID())
	}
	s.Timestamp = g.now().UTC().Round(0)

	g.logger.Info("scenario generated",
		zap.String("id", s.ID),
		zap.Float64("magnitude", magnitude),
		zap.Float64("base_rate", base),
		zap.Int("affected_roads", s.AffectedRoads),
		zap.Int("affected_bridges", s.AffectedBridges),
	)

	return s, nil
}

// shortID returns the first 8 hex digits of a UUID drawn from the
// generator's own source, so seeded generators repeat their IDs.
func (g *Generator) shortID() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		id = uuid.New()
	}
	return id.String()[:8]
}

// preset is one of the fixed demo scenarios.
type preset struct {
	id        string
	magnitude float64
	dLat      float64
	dLon      float64
}

var presets = [...]preset{
	{"S1_MILD_5.5", 5.5, 0, 0},
	{"S2_MODERATE_6.5", 6.5, 0.005, -0.003},
	{"S3_SEVERE_7.2", 7.2, -0.002, 0.005},
}

// PresetIDs lists the preset scenario IDs in generation order.
func PresetIDs() []string {
	out := make([]string, len(presets))
	for i, p := range presets {
		out[i] = p.id
	}
	return out
}

// GeneratePresets returns the three demo scenarios at magnitudes 5.5, 6.5
// and 7.2 with epicenters at the network centroid and two fixed offsets.
// Epicenters are deterministic; the damage draws are not unless seeded.
func (g *Generator) GeneratePresets(n *network.Network) ([]*Scenario, error) {
	c, err := n.Centroid()
	if err != nil {
		return nil, err
	}
	out := make([]*Scenario, 0, len(presets))
	for _, p := range presets {
		s, err := g.generatePreset(n, c, p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (g *Generator) generatePreset(n *network.Network, centroid orb.Point, p preset) (*Scenario, error) {
	s, err := g.Generate(n, p.magnitude,
		WithEpicenter(centroid.Lat()+p.dLat, centroid.Lon()+p.dLon),
		WithScenarioID(p.id),
	)
	if err != nil {
		return nil, fmt.Errorf("scenario: preset %s: %w", p.id, err)
	}
	return s, nil
}

// GeneratePreset returns the single preset whose ID starts with prefix
// (case-insensitive), e.g. "S3" or "s2_moderate".
func (g *Generator) GeneratePreset(n *network.Network, prefix string) (*Scenario, error) {
	for _, p := range presets {
		if prefix != "" && len(p.id) >= len(prefix) && strings.EqualFold(p.id[:len(prefix)], prefix) {
			c, err := n.Centroid()
			if err != nil {
				return nil, err
			}
			return g.generatePreset(n, c, p)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, prefix)
}
