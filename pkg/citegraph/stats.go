package citegraph

// Statistics summarizes the shape of the citation graph.
type Statistics struct {
	NodeCount         int     `json:"node_count"`
	EdgeCount         int     `json:"edge_count"`
	IsolatedNodeCount int     `json:"isolated_node_count"`
	MostCitedID       string  `json:"most_cited_id,omitempty"`
	MostCitedCount    int     `json:"most_cited_count"`
	AvgIncomingEdges  float64 `json:"avg_incoming_edges"`
}

// Statistics returns summary statistics for the graph.
func (g *Graph) Statistics() Statistics {
	g.mu.RLock()
	defer g.mu.RUnlock()

	stats := Statistics{
		NodeCount: len(g.nodes),
		EdgeCount: g.edgeCount,
	}

	for id := range g.nodes {
		incoming := len(g.incoming[id])
		outgoing := len(g.outgoing[id])

		if incoming == 0 && outgoing == 0 {
			stats.IsolatedNodeCount++
		}
		if incoming > stats.MostCitedCount {
			stats.MostCitedCount = incoming
			stats.MostCitedID = id
		}
	}

	if stats.NodeCount > 0 {
		stats.AvgIncomingEdges = float64(stats.EdgeCount) / float64(stats.NodeCount)
	}
	return stats
}
