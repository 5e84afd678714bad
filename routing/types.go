package routing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"github.com/tariktoplu/Opti-LogistiX/network"
)

// Sentinel errors for routing.
var (
	// ErrNoPath indicates no route exists (or start == goal).
	ErrNoPath = errors.New("routing: no path found")

	// ErrInvalidMethod indicates an unknown routing method.
	ErrInvalidMethod = errors.New("routing: invalid method")

	// ErrMissingPolicy is returned by RequirePolicy when no policy is set.
	ErrMissingPolicy = errors.New("routing: no policy loaded")

	// ErrBadUrgency indicates an urgency outside [0,1].
	ErrBadUrgency = errors.New("routing: urgency must be in [0,1]")
)

// Method selects the route search.
type Method int

const (
	// AStar searches with the straight-line time heuristic.
	AStar Method = iota
	// Dijkstra searches without a heuristic; same cost as AStar.
	Dijkstra
	// RL follows the configured policy through one episode.
	RL
	// Hybrid takes the better-scoring of AStar and RL.
	Hybrid
)

var methodNames = [...]string{"astar", "dijkstra", "rl", "hybrid"}

// String returns the lower-case method tag.
func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("method(%d)", int(m))
	}
	return methodNames[m]
}

// ParseMethod maps a method tag to a Method.
func ParseMethod(s string) (Method, error) {
	for i, name := range methodNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(methodNames) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMethod, int(m))
	}
	return []byte(methodNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(b []byte) error {
	v, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// RiskPenalty converts mean risk into minutes when comparing routes.
const RiskPenalty = 10.0

// Route is a found path. Only IsOptimal changes after construction, and
// only during FindAllRoutes.
type Route struct {
	Path []network.NodeID `json:"path"`
	// Coords holds node positions as (lon, lat) points.
	Coords        orb.LineString `json:"path_coords"`
	EstimatedTime float64        `json:"estimated_time"` // minutes
	RiskScore     float64        `json:"risk_score"`     // mean edge damage
	DistanceKm    float64        `json:"distance_km"`
	Method        Method         `json:"method"`
	IsOptimal     bool           `json:"is_optimal"`
}

// Score is EstimatedTime + 10×RiskScore; lower is better.
func (r *Route) Score() float64 {
	return r.EstimatedTime + r.RiskScore*RiskPenalty
}

// Segments returns the number of edges on the route.
func (r *Route) Segments() int {
	return max(0, len(r.Path)-1)
}

func isNoPath(err error) bool { return errors.Is(err, ErrNoPath) }
