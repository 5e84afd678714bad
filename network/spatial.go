package network

import (
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"github.com/tariktoplu/Opti-LogistiX/geo"
)

// rtree fan-out, as used for polygon lookups elsewhere: 2D, 25..50 entries.
const (
	treeDim      = 2
	treeMinChild = 25
	treeMaxChild = 50
	// pointExtent gives point entries a non-degenerate rectangle.
	pointExtent = 1e-9
)

// nodeEntry stores a node in the R-tree.
type nodeEntry struct {
	id   NodeID
	pt   orb.Point
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *nodeEntry) Bounds() rtreego.Rect { return e.rect }

// edgeEntry stores an edge, indexed by its midpoint.
type edgeEntry struct {
	edge Edge
	mid  orb.Point
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *edgeEntry) Bounds() rtreego.Rect { return e.rect }

// SpatialIndex answers geographic queries over a network snapshot: the
// node nearest to a coordinate and the edges whose midpoint lies within a
// radius. It reflects the topology at construction time and is safe for
// concurrent reads.
type SpatialIndex struct {
	nodes *rtreego.Rtree
	edges *rtreego.Rtree
	size  int
}

// NewSpatialIndex indexes every node and every edge midpoint of n.
func NewSpatialIndex(n *Network) (*SpatialIndex, error) {
	all := n.Nodes()
	if len(all) == 0 {
		return nil, ErrEmptyNetwork
	}

	pos := make(map[NodeID]orb.Point, len(all))
	nodeItems := make([]rtreego.Spatial, 0, len(all))
	for _, node := range all {
		p := node.Point()
		pos[node.ID] = p
		r, err := pointRect(p)
		if err != nil {
			return nil, fmt.Errorf("network: index node %d: %w", node.ID, err)
		}
		nodeItems = append(nodeItems, &nodeEntry{id: node.ID, pt: p, rect: r})
	}

	edgeItems := make([]rtreego.Spatial, 0, n.EdgeCount())
	for _, e := range n.Edges() {
		mid := geo.Midpoint(pos[e.From], pos[e.To])
		r, err := pointRect(mid)
		if err != nil {
			return nil, fmt.Errorf("network: index edge %s: %w", e.ID(), err)
		}
		edgeItems = append(edgeItems, &edgeEntry{edge: e, mid: mid, rect: r})
	}

	return &SpatialIndex{
		nodes: rtreego.NewTree(treeDim, treeMinChild, treeMaxChild, nodeItems...),
		edges: rtreego.NewTree(treeDim, treeMinChild, treeMaxChild, edgeItems...),
		size:  len(all),
	}, nil
}

// NearestNode returns the node closest to (lat, lon). The R-tree ranks
// candidates in degree space; the few best are re-ranked by haversine so
// high-latitude longitude compression does not pick the wrong node.
func (s *SpatialIndex) NearestNode(lat, lon float64) (NodeID, error) {
	target := geo.Point(lat, lon)
	if !geo.Finite(target) {
		return 0, fmt.Errorf("%w: (%v, %v)", ErrBadCoordinate, lat, lon)
	}

	k := min(8, s.size)
	cands := s.nodes.NearestNeighbors(k, rtreego.Point{lon, lat})
	best := NodeID(0)
	bestD := -1.0
	for _, c := range cands {
		if c == nil {
			continue
		}
		e := c.(*nodeEntry)
		d := geo.HaversineKm(target, e.pt)
		if bestD < 0 || d < bestD {
			best, bestD = e.id, d
		}
	}
	if bestD < 0 {
		return 0, ErrEmptyNetwork
	}
	return best, nil
}

// EdgesWithin returns the edges whose midpoint lies within radiusM metres
// of center, ordered by edge ID for stable output.
func (s *SpatialIndex) EdgesWithin(center orb.Point, radiusM float64) []Edge {
	b := geo.SearchBound(center, radiusM)
	rect, err := rtreego.NewRect(
		rtreego.Point{b.Min.Lon(), b.Min.Lat()},
		[]float64{max(b.Max.Lon()-b.Min.Lon(), pointExtent), max(b.Max.Lat()-b.Min.Lat(), pointExtent)},
	)
	if err != nil {
		return nil
	}

	var out []Edge
	for _, item := range s.edges.SearchIntersect(rect) {
		e := item.(*edgeEntry)
		if geo.HaversineM(center, e.mid) <= radiusM {
			out = append(out, e.edge)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })

	return out
}

// pointRect wraps a point in a tiny rectangle.
func pointRect(p orb.Point) (rtreego.Rect, error) {
	return rtreego.NewRect(rtreego.Point{p.Lon(), p.Lat()}, []float64{pointExtent, pointExtent})
}
