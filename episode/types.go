package episode

import (
	"errors"
	"fmt"
	"math"

	"github.com/tariktoplu/Opti-LogistiX/network"
)

// Sentinel errors for the simulator.
var (
	// ErrNotReset indicates Step or Observation before the first Reset.
	ErrNotReset = errors.New("episode: simulator not reset")

	// ErrEpisodeOver indicates Step after termination or truncation.
	ErrEpisodeOver = errors.New("episode: episode already finished")

	// ErrNoReachableGoal indicates no node other than start is reachable.
	ErrNoReachableGoal = errors.New("episode: no reachable goal")

	// ErrBadUrgency indicates an urgency outside [0,1].
	ErrBadUrgency = errors.New("episode: urgency must be in [0,1]")

	// ErrBadConfig indicates an invalid simulator configuration.
	ErrBadConfig = errors.New("episode: invalid configuration")
)

// Config holds the reward shape and budget of an episode.
type Config struct {
	MaxNeighbors   int     `yaml:"max_neighbors" json:"max_neighbors"`
	MaxSteps       int     `yaml:"max_steps" json:"max_steps"`
	TimeWeight     float64 `yaml:"time_weight" json:"time_weight"`
	RiskWeight     float64 `yaml:"risk_weight" json:"risk_weight"`
	UrgencyWeight  float64 `yaml:"urgency_weight" json:"urgency_weight"`
	SpeedKmh       float64 `yaml:"speed_kmh" json:"speed_kmh"`
	InvalidPenalty float64 `yaml:"invalid_penalty" json:"invalid_penalty"`
	// DamageSlowdown scales damage into extra travel time: ×(1+d×slowdown).
	DamageSlowdown float64 `yaml:"damage_slowdown" json:"damage_slowdown"`
}

// DefaultConfig returns the standard reward shape.
func DefaultConfig() Config {
	return Config{
		MaxNeighbors:   8,
		MaxSteps:       100,
		TimeWeight:     1.0,
		RiskWeight:     10.0,
		UrgencyWeight:  50.0,
		SpeedKmh:       50.0,
		InvalidPenalty: -5.0,
		DamageSlowdown: 3.0,
	}
}

// Validate checks sizes and weights.
func (c Config) Validate() error {
	switch {
	case c.MaxNeighbors < 1:
		return fmt.Errorf("%w: max_neighbors=%d", ErrBadConfig, c.MaxNeighbors)
	case c.MaxSteps < 1:
		return fmt.Errorf("%w: max_steps=%d", ErrBadConfig, c.MaxSteps)
	case !(c.SpeedKmh > 0) || math.IsInf(c.SpeedKmh, 0):
		return fmt.Errorf("%w: speed_kmh=%v", ErrBadConfig, c.SpeedKmh)
	case c.DamageSlowdown < 0:
		return fmt.Errorf("%w: damage_slowdown=%v", ErrBadConfig, c.DamageSlowdown)
	}
	return nil
}

// ObservationSize returns 4 + 4 + MaxNeighbors + 1.
func (c Config) ObservationSize() int {
	return 4 + 4 + c.MaxNeighbors + 1
}

// Observation is the flat feature vector handed to a policy.
type Observation []float64

// Layout of the fixed part of an Observation.
const (
	ObsCurrentLat = iota
	ObsCurrentLon
	ObsCurrentStreets
	ObsBias
	ObsGoalLat
	ObsGoalLon
	ObsGoalStreets
	ObsUrgency
	ObsNeighborsStart
)

// NeighborDamage returns the k neighbor damage entries.
func (o Observation) NeighborDamage() []float64 {
	if len(o) <= ObsNeighborsStart {
		return nil
	}
	return o[ObsNeighborsStart : len(o)-1]
}

// GoalDistance returns the normalised distance-to-goal entry.
func (o Observation) GoalDistance() float64 {
	if len(o) == 0 {
		return 0
	}
	return o[len(o)-1]
}

// StepResult is what Step reports.
type StepResult struct {
	Observation Observation
	Reward      float64
	Terminated  bool
	Truncated   bool
	// Invalid is set when the action did not name a successor.
	Invalid    bool
	TravelTime float64
	EdgeDamage float64
}

// Done reports whether the episode ended with this step.
func (r StepResult) Done() bool { return r.Terminated || r.Truncated }

// Result summarises an episode.
type Result struct {
	Success   bool             `json:"success"`
	Path      []network.NodeID `json:"path"`
	TotalTime float64          `json:"total_time"`
	TotalRisk float64          `json:"total_risk"`
	Steps     int              `json:"steps"`
}
