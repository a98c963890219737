package citegraph

// PageRank returns the graph-wide PageRank vector, max-normalized to a 0-100
// relative ranking (the output intentionally does not sum to 1). The vector
// is memoized until the next graph mutation.
//
// Dangling nodes (zero out-degree) contribute their score over a denominator
// of 1 instead of having their mass redistributed uniformly as in the
// textbook formulation. Downstream ranking order depends on this behavior,
// so it is kept rather than corrected.
func (g *Graph) PageRank() map[string]float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pagerank != nil {
		return copyScores(g.pagerank)
	}

	raw := g.computePageRankLocked()

	// Max-normalize to 0-100
	var max float64
	for _, score := range raw {
		if score > max {
			max = score
		}
	}

	normalized := make(map[string]float64, len(raw))
	if max > 0 {
		for id, score := range raw {
			normalized[id] = score / max * 100
		}
	}

	g.pagerank = normalized
	return copyScores(normalized)
}

// computePageRankLocked runs the iterative computation and returns raw
// scores, which sum to ~1 at convergence. Caller must hold the lock.
func (g *Graph) computePageRankLocked() map[string]float64 {
	n := len(g.nodes)
	if n == 0 {
		return map[string]float64{}
	}

	d := g.opts.Damping
	scores := make(map[string]float64, n)
	for id := range g.nodes {
		scores[id] = 1.0 / float64(n)
	}

	base := (1 - d) / float64(n)

	for iter := 0; iter < g.opts.MaxIterations; iter++ {
		next := make(map[string]float64, n)
		var maxDelta float64

		for id := range g.nodes {
			var incomingSum float64
			for _, edge := range g.incoming[id] {
				outDegree := len(g.outgoing[edge.SourceID])
				if outDegree == 0 {
					outDegree = 1
				}
				incomingSum += scores[edge.SourceID] / float64(outDegree)
			}

			score := base + d*incomingSum
			next[id] = score

			delta := score - scores[id]
			if delta < 0 {
				delta = -delta
			}
			if delta > maxDelta {
				maxDelta = delta
			}
		}

		scores = next
		if maxDelta < g.opts.ConvergenceThreshold {
			break
		}
	}

	return scores
}

func copyScores(scores map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for id, score := range scores {
		out[id] = score
	}
	return out
}
