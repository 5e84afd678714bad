// File: network.go
// Role: Network storage plus node/edge lifecycle and read queries.
// Determinism:
//   - Nodes(), Edges(), OutEdges(), Successors() and ParallelEdges() return
//     native insertion order.
// Concurrency:
//   - Mutations under mu write lock, reads under mu read lock.
//   - The installed DamageMap is never mutated after install; readers may
//     keep the reference returned by DamageSnapshot().

package network

import (
	"fmt"
	"math"
	"sync"

	"github.com/paulmach/orb"
)

// pair is an ordered (from, to) node pair.
type pair struct{ from, to NodeID }

// Network is a directed road multigraph with an installable damage map.
type Network struct {
	mu sync.RWMutex

	allowZeroLength bool

	nodes map[NodeID]*Node
	order []NodeID // node insertion order

	edges    []*Edge            // edge insertion order
	byID     map[string]*Edge   // edge ID → Edge
	out      map[NodeID][]*Edge // from → outgoing edges, insertion order
	succ     map[NodeID][]NodeID
	parallel map[pair][]*Edge

	damage DamageMap // installed scenario, read-only once set
}

// Option configures a Network before use.
type Option func(*Network)

// WithZeroLengthEdges admits edges with length_m == 0. Such networks are
// fine for damage scoring but must not be handed to the routing engine.
func WithZeroLengthEdges() Option {
	return func(n *Network) { n.allowZeroLength = true }
}

// New creates an empty network.
func New(opts ...Option) *Network {
	n := &Network{
		nodes:    make(map[NodeID]*Node),
		byID:     make(map[string]*Edge),
		out:      make(map[NodeID][]*Edge),
		succ:     make(map[NodeID][]NodeID),
		parallel: make(map[pair][]*Edge),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// AddNode inserts an intersection. Coordinates must be finite and in range.
func (n *Network) AddNode(node Node) error {
	if err := node.validate(); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.nodes[node.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, node.ID)
	}
	nn := node
	n.nodes[node.ID] = &nn
	n.order = append(n.order, node.ID)

	return nil
}

// AddEdge inserts a directed road segment. Both endpoints must exist.
// A zero Lanes value means "unknown" and is stored as 1. A negative Key is
// replaced by the next free key of the (From, To) pair.
//
// Steps:
//  1. Validate length and lanes.
//  2. Lock, check endpoints, assign the key, check (from, to, key) uniqueness.
//  3. Append to the edge list, the per-node out list, the parallel list,
//     and the successor list when the pair is new.
func (n *Network) AddEdge(e Edge) error {
	if math.IsNaN(e.LengthM) || math.IsInf(e.LengthM, 0) || e.LengthM < 0 || (e.LengthM == 0 && !n.allowZeroLength) {
		return fmt.Errorf("%w: %s length_m=%v", ErrBadLength, e.ID(), e.LengthM)
	}
	if e.Lanes == 0 {
		e.Lanes = 1
	}
	if e.Lanes < 1 {
		return fmt.Errorf("%w: %s lanes=%d", ErrBadLanes, e.ID(), e.Lanes)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.nodes[e.From]; !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, e.From)
	}
	if _, ok := n.nodes[e.To]; !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, e.To)
	}
	p := pair{e.From, e.To}
	if e.Key < 0 {
		e.Key = nextKey(n.parallel[p])
	}
	id := e.ID()
	if _, ok := n.byID[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEdge, id)
	}

	ee := e
	n.edges = append(n.edges, &ee)
	n.byID[id] = &ee
	n.out[e.From] = append(n.out[e.From], &ee)
	if len(n.parallel[p]) == 0 {
		n.succ[e.From] = append(n.succ[e.From], e.To)
	}
	n.parallel[p] = append(n.parallel[p], &ee)

	return nil
}

// NextKey returns the smallest unused key for the (from, to) pair.
func (n *Network) NextKey(from, to NodeID) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return nextKey(n.parallel[pair{from, to}])
}

func nextKey(par []*Edge) int {
	key := 0
	for _, e := range par {
		if e.Key >= key {
			key = e.Key + 1
		}
	}
	return key
}

// HasNode reports whether id exists.
func (n *Network) HasNode(id NodeID) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	_, ok := n.nodes[id]
	return ok
}

// Node returns a copy of the node with the given id.
func (n *Network) Node(id NodeID) (Node, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	node, ok := n.nodes[id]
	if !ok {
		return Node{}, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	return *node, nil
}

// Nodes returns all nodes in insertion order.
func (n *Network) Nodes() []Node {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]Node, len(n.order))
	for i, id := range n.order {
		out[i] = *n.nodes[id]
	}
	return out
}

// NodeCount returns the number of nodes.
func (n *Network) NodeCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.order)
}

// Edges returns all edges in insertion order.
func (n *Network) Edges() []Edge {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]Edge, len(n.edges))
	for i, e := range n.edges {
		out[i] = *e
	}
	return out
}

// EdgeCount returns the number of edges, parallel edges counted separately.
func (n *Network) EdgeCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.edges)
}

// Edge looks up an edge by its textual ID.
func (n *Network) Edge(id string) (Edge, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	e, ok := n.byID[id]
	if !ok {
		return Edge{}, fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}
	return *e, nil
}

// OutEdges returns the edges leaving id in insertion order.
func (n *Network) OutEdges(id NodeID) ([]Edge, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if _, ok := n.nodes[id]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	src := n.out[id]
	out := make([]Edge, len(src))
	for i, e := range src {
		out[i] = *e
	}
	return out, nil
}

// Successors returns the distinct direct successors of id, in the order in
// which their first connecting edge was added.
func (n *Network) Successors(id NodeID) ([]NodeID, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if _, ok := n.nodes[id]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	return append([]NodeID(nil), n.succ[id]...), nil
}

// ParallelEdges returns every edge from→to, ordered by insertion. The list
// is empty when the nodes are not adjacent.
func (n *Network) ParallelEdges(from, to NodeID) []Edge {
	n.mu.RLock()
	defer n.mu.RUnlock()

	src := n.parallel[pair{from, to}]
	out := make([]Edge, len(src))
	for i, e := range src {
		out[i] = *e
	}
	return out
}

// InstallDamage validates m and replaces the installed damage map with a
// private copy of it in a single swap. Unknown edge IDs are rejected so a
// scenario generated for another network cannot be applied silently.
func (n *Network) InstallDamage(m DamageMap) error {
	if err := m.Validate(); err != nil {
		return err
	}
	next := m.Clone()

	n.mu.Lock()
	defer n.mu.Unlock()

	for id := range next {
		if _, ok := n.byID[id]; !ok {
			return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
		}
	}
	n.damage = next

	return nil
}

// ClearDamage removes the installed damage map; every edge scores 0 again.
func (n *Network) ClearDamage() {
	n.mu.Lock()
	n.damage = nil
	n.mu.Unlock()
}

// DamageSnapshot returns the installed damage map. The map is shared and
// must be treated as read-only; it is never modified after installation.
// A network without a scenario returns an empty (nil) map.
func (n *Network) DamageSnapshot() DamageMap {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.damage
}

// Damage returns the installed damage score of edgeID (0 when absent).
func (n *Network) Damage(edgeID string) float64 {
	return n.DamageSnapshot().Get(edgeID)
}

// Centroid returns the mean latitude and longitude of all nodes.
func (n *Network) Centroid() (orb.Point, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if len(n.order) == 0 {
		return orb.Point{}, ErrEmptyNetwork
	}
	var lat, lon float64
	for _, id := range n.order {
		lat += n.nodes[id].Lat
		lon += n.nodes[id].Lon
	}
	k := float64(len(n.order))
	return orb.Point{lon / k, lat / k}, nil
}

// Bounds returns the bounding box of all nodes.
func (n *Network) Bounds() (orb.Bound, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if len(n.order) == 0 {
		return orb.Bound{}, ErrEmptyNetwork
	}
	first := n.nodes[n.order[0]].Point()
	b := orb.Bound{Min: first, Max: first}
	for _, id := range n.order[1:] {
		b = b.Extend(n.nodes[id].Point())
	}
	return b, nil
}
