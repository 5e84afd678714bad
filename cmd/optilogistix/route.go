package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tariktoplu/Opti-LogistiX/episode"
	"github.com/tariktoplu/Opti-LogistiX/network"
	"github.com/tariktoplu/Opti-LogistiX/routing"
	"github.com/tariktoplu/Opti-LogistiX/scenario"
)

func routeCmd(a *app) *cobra.Command {
	var (
		from, to     int64
		method       string
		urgency      float64
		scenarioPath string
		all          bool
		vehicle      string
		greedy       bool
	)

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Compute a route between two grid nodes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.network()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("to") {
				to = int64(g.NodeCount() - 1)
			}
			if scenarioPath != "" {
				sc, err := scenario.LoadFile(scenarioPath)
				if err != nil {
					return err
				}
				if err := scenario.Apply(g, sc); err != nil {
					return fmt.Errorf("applying %s: %w", sc.ID, err)
				}
				a.logger.Info("scenario applied", zap.String("id", sc.ID), zap.Int("affected_roads", sc.AffectedRoads))
			}

			model, err := a.cfg.CostModel(vehicle)
			if err != nil {
				return err
			}
			ec := a.cfg.Episode
			ec.SpeedKmh = model.SpeedKmh
			opts := []routing.Option{
				routing.WithCostModel(model),
				routing.WithLogger(a.logger),
				routing.WithEpisodeOptions(episode.WithConfig(ec)),
			}
			if greedy {
				opts = append(opts, routing.WithPolicy(episode.GreedyPolicy{DamageAversion: 2}))
			}
			eng, err := routing.New(g, opts...)
			if err != nil {
				return err
			}

			ctx := context.Background()
			start, goal := network.NodeID(from), network.NodeID(to)
			if all {
				routes, err := eng.FindAllRoutes(ctx, start, goal, urgency)
				if err != nil {
					return err
				}
				for _, r := range routes {
					printRoute(r)
				}
				return nil
			}

			m, err := routing.ParseMethod(method)
			if err != nil {
				return err
			}
			r, err := eng.FindRoute(ctx, start, goal, m, urgency)
			if err != nil {
				return err
			}
			printRoute(r)
			return nil
		},
	}

	cmd.Flags().Int64Var(&from, "from", 0, "start node ID")
	cmd.Flags().Int64Var(&to, "to", 0, "goal node ID (default: last grid node)")
	cmd.Flags().StringVar(&method, "method", "astar", "astar | dijkstra | rl | hybrid")
	cmd.Flags().Float64Var(&urgency, "urgency", 0.5, "urgency in [0,1]")
	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "scenario JSON file to apply")
	cmd.Flags().BoolVar(&all, "all", false, "compare every available method")
	cmd.Flags().StringVar(&vehicle, "vehicle", "", "vehicle type from config (default: routing speed)")
	cmd.Flags().BoolVar(&greedy, "greedy", false, "use the greedy baseline policy for rl and hybrid")
	return cmd
}

func printRoute(r *routing.Route) {
	mark := " "
	if r.IsOptimal {
		mark = "*"
	}
	ids := make([]string, len(r.Path))
	for i, id := range r.Path {
		ids[i] = fmt.Sprint(id)
	}
	fmt.Fprintf(os.Stdout, "%s %-8s %6.2f min  %5.2f km  risk %.3f  score %.2f  [%s]\n",
		mark, r.Method, r.EstimatedTime, r.DistanceKm, r.RiskScore, r.Score(), strings.Join(ids, " "))
}
