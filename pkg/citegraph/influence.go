package citegraph

import "fmt"

// Influence score weights: a node's own credibility dominates, the
// credibility of its citers refines, and raw citation count caps out at 20
// incoming edges.
const (
	credibilityWeight   = 0.5
	citerWeight         = 0.3
	citationCountWeight = 0.2
)

// InfluenceScore returns the composite influence score for a node in [0,100].
// The score is memoized until the next graph mutation.
func (g *Graph) InfluenceScore(id string) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return 0, &ValidationError{Field: "id", Reason: fmt.Sprintf("node %q does not exist", id)}
	}

	if g.influence != nil {
		if score, ok := g.influence[id]; ok {
			return score, nil
		}
	} else {
		g.influence = make(map[string]float64)
	}

	score := g.computeInfluenceLocked(id)
	g.influence[id] = score
	return score, nil
}

// computeInfluenceLocked computes the influence score for one node.
// Caller must hold the lock.
func (g *Graph) computeInfluenceLocked(id string) float64 {
	node := g.nodes[id]
	incoming := g.incoming[id]

	// Citation-weighted average credibility of citing nodes
	var citerScore float64
	if len(incoming) > 0 {
		var sum float64
		for _, edge := range incoming {
			if citer, ok := g.nodes[edge.SourceID]; ok {
				sum += citer.Credibility * edge.Weight
			}
		}
		citerScore = sum / float64(len(incoming))
	}

	countScore := 5 * float64(len(incoming))
	if countScore > 100 {
		countScore = 100
	}

	score := credibilityWeight*node.Credibility +
		citerWeight*citerScore +
		citationCountWeight*countScore

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
