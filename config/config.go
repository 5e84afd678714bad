// Package config loads the YAML configuration of the service and CLI.
//
// Missing sections and fields keep the values of Default(); Load overlays
// the file on top of the defaults and validates the result.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tariktoplu/Opti-LogistiX/cost"
	"github.com/tariktoplu/Opti-LogistiX/episode"
)

// ErrInvalidConfig indicates a configuration that fails validation.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// EnvPath names the environment variable holding the config path.
const EnvPath = "OPTILOGISTIX_CONFIG"

// Config is the root document.
type Config struct {
	Routing  Routing            `yaml:"routing"`
	Vehicles map[string]float64 `yaml:"vehicles"`
	Episode  episode.Config     `yaml:"episode"`
	Scenario Scenario           `yaml:"scenario"`
	Network  Network            `yaml:"network"`
	Server   Server             `yaml:"server"`
}

// Routing holds the cost model defaults.
type Routing struct {
	SpeedKmh   float64 `yaml:"speed_kmh"`
	RiskWeight float64 `yaml:"risk_weight"`
}

// Scenario configures the scenario generator.
type Scenario struct {
	// Seed 0 means seed from the clock.
	Seed      int64  `yaml:"seed"`
	OutputDir string `yaml:"output_dir"`
}

// Network configures the demo grid network.
type Network struct {
	Rows      int     `yaml:"rows"`
	Cols      int     `yaml:"cols"`
	SpacingM  float64 `yaml:"spacing_m"`
	OriginLat float64 `yaml:"origin_lat"`
	OriginLon float64 `yaml:"origin_lon"`
}

// Server configures the HTTP adapter.
type Server struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	LogFormat string `yaml:"log_format"`
	LogLevel  string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Routing: Routing{SpeedKmh: cost.DefaultSpeedKmh, RiskWeight: cost.DefaultRiskWeight},
		Vehicles: map[string]float64{
			"ambulance":    60,
			"fire_truck":   50,
			"rescue":       45,
			"supply_truck": 40,
		},
		Episode:  episode.DefaultConfig(),
		Scenario: Scenario{OutputDir: "data/scenarios"},
		Network:  Network{Rows: 5, Cols: 5, SpacingM: 300, OriginLat: 41.0, OriginLon: 29.0},
		Server:   Server{Host: "0.0.0.0", Port: 8000, LogFormat: "text", LogLevel: "info"},
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.CostModel(""); err != nil {
		errs = append(errs, err)
	}
	for name, v := range c.Vehicles {
		if !(v > 0) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("vehicles.%s: speed %v", name, v))
		}
	}
	if err := c.Episode.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Network.Rows < 1 || c.Network.Cols < 1 || !(c.Network.SpacingM > 0) {
		errs = append(errs, fmt.Errorf("network: grid %dx%d spacing %v", c.Network.Rows, c.Network.Cols, c.Network.SpacingM))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d", c.Server.Port))
	}
	switch strings.ToLower(c.Server.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("server.log_format %q (want text or json)", c.Server.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// CostModel returns the routing cost model, using the speed of vehicle
// when it names a configured vehicle type.
func (c *Config) CostModel(vehicle string) (cost.Model, error) {
	speed := c.Routing.SpeedKmh
	if vehicle != "" {
		v, ok := c.Vehicles[vehicle]
		if !ok {
			return cost.Model{}, fmt.Errorf("%w: unknown vehicle %q", ErrInvalidConfig, vehicle)
		}
		speed = v
	}
	return cost.NewModel(speed, c.Routing.RiskWeight)
}
