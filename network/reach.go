package network

import (
	"context"
	"fmt"
)

// reachItem pairs a node with its hop depth from the start.
type reachItem struct {
	id    NodeID
	depth int
}

// walker holds the mutable state of one breadth-first reachability scan.
type walker struct {
	net     *Network
	ctx     context.Context
	queue   []reachItem
	visited map[NodeID]bool
	order   []NodeID
	depth   map[NodeID]int
}

// Reachability is the outcome of Reachable: the nodes reachable from the
// start in visit order, and the hop count to each.
type Reachability struct {
	Order []NodeID
	Depth map[NodeID]int
}

// Contains reports whether id was reached.
func (r *Reachability) Contains(id NodeID) bool {
	_, ok := r.Depth[id]
	return ok
}

// Reachable runs a breadth-first scan over directed edges from start and
// returns every node reachable from it, start included, in visit order.
// Successors are expanded in native insertion order. The scan checks ctx
// once per dequeued node.
func (n *Network) Reachable(ctx context.Context, start NodeID) (*Reachability, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !n.HasNode(start) {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, start)
	}

	size := n.NodeCount()
	w := &walker{
		net:     n,
		ctx:     ctx,
		queue:   make([]reachItem, 0, size),
		visited: make(map[NodeID]bool, size),
		order:   make([]NodeID, 0, size),
		depth:   make(map[NodeID]int, size),
	}
	w.enqueue(start, 0)
	if err := w.loop(); err != nil {
		return nil, err
	}

	return &Reachability{Order: w.order, Depth: w.depth}, nil
}

func (w *walker) enqueue(id NodeID, d int) {
	w.visited[id] = true
	w.depth[id] = d
	w.queue = append(w.queue, reachItem{id: id, depth: d})
}

func (w *walker) loop() error {
	for len(w.queue) > 0 {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		item := w.queue[0]
		w.queue = w.queue[1:]
		w.order = append(w.order, item.id)

		next, err := w.net.Successors(item.id)
		if err != nil {
			return fmt.Errorf("network: successors of %d: %w", item.id, err)
		}
		for _, nbr := range next {
			if !w.visited[nbr] {
				w.enqueue(nbr, item.depth+1)
			}
		}
	}
	return nil
}
