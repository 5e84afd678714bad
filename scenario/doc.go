// Package scenario generates, persists and applies earthquake scenarios.
//
// A Scenario is an immutable record of one simulated earthquake over a road
// network: the epicenter and magnitude, three fixed presentation zones, and
// the sparse map of edges that were drawn as damaged. Edges absent from the
// map are undamaged.
//
// Generation per edge:
//
//	p = damage.ScenarioModel().Probability(BaseDamageRate(mag), d, edge)
//	r ~ U[0,1)                            one draw for every edge
//	if r < p: score = clamp(p × U[0.8,1.5))
//
// so the scoring is deterministic and only the selection is random. A
// Generator owns its *rand.Rand behind a mutex; seed it (WithSeed) for
// reproducible output, default scenario IDs included.
//
// Scenarios round-trip through JSON (Save/Load). Load rejects documents that
// violate the schema with ErrMalformedScenario. Apply installs a scenario's
// damage map on a network as one atomic swap.
package scenario
