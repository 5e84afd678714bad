// Package network defines the road-network data model used by the damage
// model, the scenario generator and the routing engine.
//
// A Network is a directed multigraph: intersections (Node) joined by road
// segments (Edge). Parallel edges between the same ordered pair of nodes are
// allowed and told apart by Edge.Key; the textual edge identifier used by
// damage maps is "<from>_<to>_<key>".
//
// Iteration order is native insertion order everywhere (Nodes, Edges,
// Successors, ParallelEdges). Nothing is re-sorted, so callers that depend on
// neighbour order (the episode simulator) see exactly what the map provider
// supplied.
//
// Damage:
//
//	Authoritative per-edge damage lives in a DamageMap (edge ID → score in
//	[0,1], absent = 0). A network carries at most one installed map;
//	InstallDamage validates a complete map and swaps it in under the write
//	lock, so a concurrent route search never observes a half-applied
//	scenario. Searches may instead be handed a map explicitly and leave the
//	network untouched.
//
// Concurrency:
//
//	All methods are safe for concurrent use. Topology is expected to be built
//	once by the map provider and then read; damage installs are rare swaps.
//
// Errors:
//
//	ErrNodeNotFound      - referenced node does not exist.
//	ErrDuplicateNode     - node ID already present.
//	ErrDuplicateEdge     - (from, to, key) already present.
//	ErrEdgeNotFound      - edge ID unknown.
//	ErrBadLength         - length_m <= 0 (or < 0 with WithZeroLengthEdges).
//	ErrBadLanes          - lane count < 1.
//	ErrBadCoordinate     - NaN/Inf or out-of-range latitude/longitude.
//	ErrDamageOutOfRange  - damage score outside [0,1] or not finite.
//	ErrBadEdgeID         - edge ID not of the form "<from>_<to>_<key>".
//	ErrEmptyNetwork      - operation needs at least one node.
package network
