package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tariktoplu/Opti-LogistiX/episode"
	"github.com/tariktoplu/Opti-LogistiX/internal/server"
	"github.com/tariktoplu/Opti-LogistiX/scenario"
)

func serveCmd(a *app) *cobra.Command {
	var (
		port   int
		greedy bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.network()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = a.cfg.Server.Port
			}

			genOpts := []scenario.Option{
				scenario.WithLogger(a.logger),
				scenario.WithOutputDir(a.cfg.Scenario.OutputDir),
			}
			if a.cfg.Scenario.Seed != 0 {
				genOpts = append(genOpts, scenario.WithSeed(a.cfg.Scenario.Seed))
			}
			opts := []server.Option{
				server.WithConfig(a.cfg),
				server.WithLogger(a.logger),
				server.WithGenerator(scenario.NewGenerator(genOpts...)),
			}
			if greedy {
				opts = append(opts, server.WithPolicy(episode.GreedyPolicy{DamageAversion: 2}))
			}
			srv, err := server.New(g, opts...)
			if err != nil {
				return err
			}
			return srv.Run(fmt.Sprintf("%s:%d", a.cfg.Server.Host, port))
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8000, "HTTP server port (default from config)")
	cmd.Flags().BoolVar(&greedy, "greedy", false, "enable rl/hybrid with the greedy baseline policy")
	return cmd
}
