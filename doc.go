// Package optilogistix routes emergency vehicles across a road network
// damaged by an earthquake.
//
// What is in the module?
//
//	network/    directed road multigraph, damage map install, spatial index
//	damage/     distance-decay damage model, zone bands and summaries
//	scenario/   earthquake scenario generator, presets, JSON persistence
//	cost/       damage-aware edge cost and admissible A* heuristic
//	episode/    step-wise navigation simulator with a policy interface
//	routing/    A*, Dijkstra, policy-driven and hybrid route search
//	config/     YAML configuration with defaults
//	internal/server/  gin HTTP API
//	cmd/optilogistix/  CLI: scenario, route, serve
//
// Quick start:
//
//	g, _ := network.Grid(5, 5)
//	gen := scenario.NewGenerator(scenario.WithSeed(42))
//	sc, _ := gen.Generate(g, 6.5)
//	_ = scenario.Apply(g, sc)
//
//	eng, _ := routing.New(g)
//	r, _ := eng.FindRoute(ctx, 0, 24, routing.AStar, 0.8)
//	fmt.Println(r.Path, r.EstimatedTime, r.RiskScore)
//
// Edge cost is minutes × (1 + risk_weight × damage). Every search picks,
// between parallel edges, the one of minimal cost, and route time and risk
// are measured on those same edges.
package optilogistix
