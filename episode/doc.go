// Package episode simulates one vehicle driving step by step across a
// damaged road network, as a Markov decision process for route policies.
//
// State is (current node, goal node, urgency, step count). Each step the
// policy picks an index into the current node's successor list:
//
//   - an index outside the list costs InvalidPenalty (−5), leaves the
//     vehicle in place and only ends the episode when the step budget is
//     exhausted;
//   - a valid index moves the vehicle and yields
//     −TimeWeight×t − RiskWeight×damage (+ UrgencyWeight×urgency at the goal),
//     where t = free-flow minutes × (1 + 3×damage).
//
// The observation has 4 + 4 + MaxNeighbors + 1 entries:
//
//	[cur lat/90, cur lon/180, cur streets/10, 1.0,
//	 goal lat/90, goal lon/180, goal streets/10, urgency,
//	 damage of successor 1..k padded with 1.0,
//	 great-circle km to goal / 10]
//
// Successors appear in the network's native order, truncated to
// MaxNeighbors. Between parallel edges the simulator drives the one with
// the shortest damaged travel time.
//
// A Simulator carries per-episode mutable state and is not safe for
// concurrent use; create one per concurrent episode. Policies are opaque:
// anything implementing Policy can drive Run.
package episode
