package routing

import (
	"container/heap"
	"context"

	"github.com/paulmach/orb"

	"github.com/tariktoplu/Opti-LogistiX/network"
)

// searchNode is one A* frontier entry.
type searchNode struct {
	id     network.NodeID
	g      float64 // cost from start
	f      float64 // g + heuristic
	parent *searchNode
	seq    int // insertion order, breaks f ties
	index  int // position in the heap
}

// openSet is a min-heap on (f, seq).
type openSet []*searchNode

func (pq openSet) Len() int { return len(pq) }

func (pq openSet) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].seq < pq[j].seq
}

func (pq openSet) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *openSet) Push(x interface{}) {
	node := x.(*searchNode)
	node.index = len(*pq)
	*pq = append(*pq, node)
}

func (pq *openSet) Pop() interface{} {
	old := *pq
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*pq = old[:n-1]
	return node
}

// astar returns the cheapest path start→goal and its cost.
func (s *search) astar(ctx context.Context) ([]network.NodeID, float64, error) {
	goalPt := s.pos[s.goal]
	h := func(id network.NodeID) float64 { return s.model.Heuristic(s.pos[id], goalPt) }

	open := &openSet{}
	heap.Init(open)
	seq := 0
	start := &searchNode{id: s.start, f: h(s.start), seq: seq}
	heap.Push(open, start)
	openMap := map[network.NodeID]*searchNode{s.start: start}
	closed := make(map[network.NodeID]bool)

	for open.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		current := heap.Pop(open).(*searchNode)
		delete(openMap, current.id)

		if current.id == s.goal {
			var path []network.NodeID
			for n := current; n != nil; n = n.parent {
				path = append(path, n.id)
			}
			reverse(path)
			return path, current.g, nil
		}
		closed[current.id] = true

		succ, err := s.net.Successors(current.id)
		if err != nil {
			return nil, 0, err
		}
		for _, v := range succ {
			if closed[v] {
				continue
			}
			_, w, ok := s.step(current.id, v)
			if !ok {
				continue
			}
			tentative := current.g + w

			nbr, exists := openMap[v]
			if !exists {
				seq++
				nbr = &searchNode{id: v, g: tentative, f: tentative + h(v), parent: current, seq: seq}
				heap.Push(open, nbr)
				openMap[v] = nbr
			} else if tentative < nbr.g {
				nbr.g = tentative
				nbr.f = tentative + h(v)
				nbr.parent = current
				heap.Fix(open, nbr.index)
			}
		}
	}
	return nil, 0, ErrNoPath
}

func reverse(p []network.NodeID) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}

// coords maps a node path to its line string.
func (s *search) coords(path []network.NodeID) orb.LineString {
	ls := make(orb.LineString, len(path))
	for i, id := range path {
		ls[i] = s.pos[id]
	}
	return ls
}
