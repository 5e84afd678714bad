// Command optilogistix generates earthquake scenarios, computes
// damage-aware emergency routes and serves the HTTP API over a demo grid
// network.
package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tariktoplu/Opti-LogistiX/config"
	"github.com/tariktoplu/Opti-LogistiX/network"
)

// app carries what every subcommand needs after flag parsing.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "optilogistix",
		Short:         "Damage-aware emergency routing after earthquakes",
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = a.logger.Sync()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"YAML config file (default $"+config.EnvPath+")")

	rootCmd.AddCommand(scenarioCmd(a))
	rootCmd.AddCommand(routeCmd(a))
	rootCmd.AddCommand(serveCmd(a))
	return rootCmd
}

// setup loads .env, the config file and the logger.
func (a *app) setup() error {
	envErr := godotenv.Load()

	path := a.configPath
	if path == "" {
		path = os.Getenv(config.EnvPath)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.logger, err = newLogger(cfg.Server); err != nil {
		return err
	}
	if envErr != nil {
		a.logger.Debug("no .env file loaded", zap.Error(envErr))
	}
	if path != "" {
		a.logger.Debug("config loaded", zap.String("path", path))
	}
	return nil
}

// network builds the demo grid from the config.
func (a *app) network() (*network.Network, error) {
	nc := a.cfg.Network
	return network.Grid(nc.Rows, nc.Cols,
		network.WithOrigin(nc.OriginLat, nc.OriginLon),
		network.WithSpacing(nc.SpacingM),
	)
}

// newLogger builds a production (json) or development (text) zap logger
// at the configured level.
func newLogger(sc config.Server) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if strings.EqualFold(sc.LogFormat, "json") {
		zc = zap.NewProductionConfig()
	}
	level := zapcore.InfoLevel
	if sc.LogLevel != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(sc.LogLevel))); err != nil {
			level = zapcore.InfoLevel
		}
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
