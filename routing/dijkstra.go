package routing

import (
	"container/heap"
	"context"

	"github.com/tariktoplu/Opti-LogistiX/network"
)

// nodeItem represents a vertex and its tentative cost from the start.
type nodeItem struct {
	id   network.NodeID
	dist float64
}

// nodePQ is a min-heap of *nodeItem under lazy decrease-key: an improved
// cost pushes a new entry and stale entries are skipped when popped.
type nodePQ []*nodeItem

func (pq nodePQ) Len() int            { return len(pq) }
func (pq nodePQ) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq nodePQ) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *nodePQ) Push(x interface{}) { *pq = append(*pq, x.(*nodeItem)) }
func (pq *nodePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// runner holds the mutable state of one Dijkstra execution.
type runner struct {
	s       *search
	dist    map[network.NodeID]float64
	prev    map[network.NodeID]network.NodeID
	visited map[network.NodeID]bool
	pq      nodePQ
}

// dijkstra returns the cheapest path start→goal and its cost. The loop
// stops as soon as the goal is finalised.
func (s *search) dijkstra(ctx context.Context) ([]network.NodeID, float64, error) {
	size := s.net.NodeCount()
	r := &runner{
		s:       s,
		dist:    make(map[network.NodeID]float64, size),
		prev:    make(map[network.NodeID]network.NodeID, size),
		visited: make(map[network.NodeID]bool, size),
		pq:      make(nodePQ, 0, size),
	}
	r.dist[s.start] = 0
	heap.Init(&r.pq)
	heap.Push(&r.pq, &nodeItem{id: s.start, dist: 0})

	if err := r.process(ctx); err != nil {
		return nil, 0, err
	}
	if !r.visited[s.goal] {
		return nil, 0, ErrNoPath
	}

	path := []network.NodeID{s.goal}
	for v := s.goal; v != s.start; {
		v = r.prev[v]
		path = append(path, v)
	}
	reverse(path)
	return path, r.dist[s.goal], nil
}

func (r *runner) process(ctx context.Context) error {
	for r.pq.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := heap.Pop(&r.pq).(*nodeItem)
		u := item.id
		if r.visited[u] {
			continue
		}
		r.visited[u] = true
		if u == r.s.goal {
			return nil
		}
		if err := r.relax(u); err != nil {
			return err
		}
	}
	return nil
}

// relax improves the tentative cost of every successor of u.
func (r *runner) relax(u network.NodeID) error {
	succ, err := r.s.net.Successors(u)
	if err != nil {
		return err
	}
	for _, v := range succ {
		if r.visited[v] {
			continue
		}
		_, w, ok := r.s.step(u, v)
		if !ok {
			continue
		}
		newDist := r.dist[u] + w
		if old, seen := r.dist[v]; seen && newDist >= old {
			continue
		}
		r.dist[v] = newDist
		r.prev[v] = u
		heap.Push(&r.pq, &nodeItem{id: v, dist: newDist})
	}
	return nil
}
