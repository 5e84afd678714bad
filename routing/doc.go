// Package routing finds damage-aware routes between two intersections.
//
// Four methods share one cost model (package cost):
//
//   - astar: A* with the straight-line travel-time heuristic; frontier ties
//     resolve in insertion order.
//   - dijkstra: uniform-cost search with lazy decrease-key. Used as the
//     optimality cross-check of astar: both return equal total cost.
//   - rl: a fresh episode.Simulator driven by the configured policy. With no
//     policy the engine logs a warning and answers with astar.
//   - hybrid: astar, then rl when a policy exists; the lower
//     EstimatedTime + 10×RiskScore wins and is tagged hybrid.
//
// Between parallel edges every step uses the edge of minimal weight (ties:
// lowest key), both during search and when reporting the route, so the
// reported risk matches the cost that chose the path.
//
// An Engine reads the damage map once per call (the explicit WithDamage map
// or the network's installed map) and keeps no per-request state. It is safe
// for concurrent use as long as the policy is.
//
// Errors:
//
//   - ErrNoPath: goal unreachable, start == goal, or an rl episode that
//     did not reach the goal.
//   - ErrInvalidMethod: unknown method name.
//   - network.ErrNodeNotFound: unknown start or goal.
package routing
