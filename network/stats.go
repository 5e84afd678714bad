package network

// Stats summarizes a network for presentation.
type Stats struct {
	Nodes         int     `json:"nodes"`
	Edges         int     `json:"edges"`
	TotalLengthKm float64 `json:"total_length_km"`
	Bridges       int     `json:"bridges"`
	// AvgDegree counts in- and out-edges per node.
	AvgDegree float64 `json:"avg_degree"`
	// DamagedEdges is the number of edges with a non-zero installed score.
	DamagedEdges int `json:"damaged_edges"`
}

// Stats computes summary statistics over the current topology and damage.
func (n *Network) Stats() Stats {
	edges := n.Edges()
	damage := n.DamageSnapshot()

	s := Stats{Nodes: n.NodeCount(), Edges: len(edges)}
	for _, e := range edges {
		s.TotalLengthKm += e.LengthM / 1000
		if e.IsBridge {
			s.Bridges++
		}
		if damage.Get(e.ID()) > 0 {
			s.DamagedEdges++
		}
	}
	if s.Nodes > 0 {
		s.AvgDegree = 2 * float64(s.Edges) / float64(s.Nodes)
	}
	return s
}
