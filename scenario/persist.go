package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tariktoplu/Opti-LogistiX/damage"
	"github.com/tariktoplu/Opti-LogistiX/network"
)

// Save writes s as indented JSON.
func (s *Scenario) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// SaveFile writes s to path, creating parent directories.
func (s *Scenario) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("scenario: save %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("scenario: save %s: %w", path, err)
	}
	if err := s.Save(f); err != nil {
		f.Close()
		return fmt.Errorf("scenario: save %s: %w", path, err)
	}
	return f.Close()
}

// SaveToOutputDir writes s as <output dir>/<id>.json and returns the path.
func (g *Generator) SaveToOutputDir(s *Scenario) (string, error) {
	if g.outputDir == "" {
		return "", ErrNoOutputDir
	}
	path := filepath.Join(g.outputDir, s.ID+".json")
	if err := s.SaveFile(path); err != nil {
		return "", err
	}
	g.logger.Info("scenario saved", zap.String("id", s.ID), zap.String("path", path))
	return path, nil
}

// wire mirrors Scenario with pointers so missing required fields show up.
type wire struct {
	ID              *string           `json:"scenario_id"`
	DisasterType    string            `json:"disaster_type"`
	Magnitude       *float64          `json:"magnitude"`
	EpicenterLat    *float64          `json:"epicenter_lat"`
	EpicenterLon    *float64          `json:"epicenter_lon"`
	Timestamp       *timestamp        `json:"timestamp"`
	DamageZones     []damage.Zone     `json:"damage_zones"`
	EdgeDamages     network.DamageMap `json:"edge_damages"`
	AffectedRoads   int               `json:"affected_roads"`
	AffectedBridges int               `json:"affected_bridges"`
}

// timestampLayouts are tried in order. Zone-less ISO timestamps, as older
// scenario files carry them, are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// timestamp decodes RFC3339 or zone-less ISO 8601 times.
type timestamp struct{ time.Time }

func (t *timestamp) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, raw); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("timestamp %q: want RFC3339 or ISO 8601", raw)
}

// Load reads one scenario and checks it against the schema. Any failure,
// decoding included, wraps ErrMalformedScenario.
func Load(r io.Reader) (*Scenario, error) {
	var w wire
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedScenario, err)
	}
	if err := w.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedScenario, err)
	}

	s := &Scenario{
		ID:              *w.ID,
		DisasterType:    w.DisasterType,
		Magnitude:       *w.Magnitude,
		EpicenterLat:    *w.EpicenterLat,
		EpicenterLon:    *w.EpicenterLon,
		Timestamp:       w.Timestamp.UTC(),
		DamageZones:     w.DamageZones,
		EdgeDamages:     w.EdgeDamages,
		AffectedRoads:   w.AffectedRoads,
		AffectedBridges: w.AffectedBridges,
	}
	if s.DisasterType == "" {
		s.DisasterType = Earthquake
	}
	if s.EdgeDamages == nil {
		s.EdgeDamages = make(network.DamageMap)
	}
	return s, nil
}

// LoadFile reads a scenario from path.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: load %s: %w", path, err)
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("scenario: load %s: %w", path, err)
	}
	return s, nil
}

func (w *wire) validate() error {
	var missing []string
	if w.ID == nil || *w.ID == "" {
		missing = append(missing, "scenario_id")
	}
	if w.Magnitude == nil {
		missing = append(missing, "magnitude")
	}
	if w.EpicenterLat == nil {
		missing = append(missing, "epicenter_lat")
	}
	if w.EpicenterLon == nil {
		missing = append(missing, "epicenter_lon")
	}
	if w.Timestamp == nil {
		missing = append(missing, "timestamp")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}

	var errs []error
	if m := *w.Magnitude; math.IsNaN(m) || m < MinMagnitude || m > MaxMagnitude {
		errs = append(errs, fmt.Errorf("magnitude %v outside %.1f–%.1f", m, MinMagnitude, MaxMagnitude))
	}
	if math.Abs(*w.EpicenterLat) > 90 || math.Abs(*w.EpicenterLon) > 180 {
		errs = append(errs, fmt.Errorf("epicenter (%v, %v) out of range", *w.EpicenterLat, *w.EpicenterLon))
	}
	if err := w.EdgeDamages.Validate(); err != nil {
		errs = append(errs, err)
	}
	for id := range w.EdgeDamages {
		if _, _, _, err := network.ParseEdgeID(id); err != nil {
			errs = append(errs, err)
			break
		}
	}
	if w.AffectedRoads < 0 || w.AffectedBridges < 0 {
		errs = append(errs, fmt.Errorf("negative affected counts (%d, %d)", w.AffectedRoads, w.AffectedBridges))
	}
	for _, z := range w.DamageZones {
		if z.RadiusM <= 0 || z.Score < 0 || z.Score > 1 {
			errs = append(errs, fmt.Errorf("zone %q: radius %v score %v", z.ID, z.RadiusM, z.Score))
		}
	}
	return errors.Join(errs...)
}
