package damage

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for damage scoring.
var (
	// ErrNilNetwork indicates Predict was called without a network.
	ErrNilNetwork = errors.New("damage: network is nil")

	// ErrBadMagnitude indicates a NaN or infinite magnitude.
	ErrBadMagnitude = errors.New("damage: magnitude must be finite")

	// ErrBadEpicenter indicates a non-finite epicenter coordinate.
	ErrBadEpicenter = errors.New("damage: epicenter must be finite")

	// ErrUnknownLevel indicates an unrecognised damage level name.
	ErrUnknownLevel = errors.New("damage: unknown damage level")
)

// Level is the ordinal severity band of a damage score.
type Level int

const (
	Mild Level = iota
	Moderate
	Severe
	Critical
)

var levelNames = [...]string{"mild", "moderate", "severe", "critical"}

// Level thresholds: [0,0.2) mild, [0.2,0.4) moderate, [0.4,0.7) severe.
const (
	moderateFrom = 0.2
	severeFrom   = 0.4
	criticalFrom = 0.7
)

// LevelFor maps a damage score to its band.
func LevelFor(score float64) Level {
	switch {
	case score < moderateFrom:
		return Mild
	case score < severeFrom:
		return Moderate
	case score < criticalFrom:
		return Severe
	default:
		return Critical
	}
}

// String returns the lower-case level name.
func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel is the inverse of String.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if l < 0 || int(l) >= len(levelNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLevel, int(l))
	}
	return []byte(levelNames[l]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Zone is a circular presentation band around an epicenter. Zones are an
// advisory overlay; routing never reads them.
type Zone struct {
	ID        string  `json:"zone_id"`
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	RadiusM   float64 `json:"radius_m"`
	Level     Level   `json:"damage_level"`
	Score     float64 `json:"damage_score"`
}
