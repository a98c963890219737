package citegraph

import "fmt"

// DetectCycles runs a depth-first traversal from startID and records every
// cycle the traversal closes: whenever it revisits a node already on the
// current path, the sub-path from that node back to itself is a cycle.
//
// Only cycles reachable by forward edges from startID are found; callers
// wanting graph-wide coverage invoke this per node or per connected
// component.
func (g *Graph) DetectCycles(startID string) ([][]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[startID]; !ok {
		return nil, &ValidationError{Field: "startID", Reason: fmt.Sprintf("node %q does not exist", startID)}
	}

	var cycles [][]string
	visited := make(map[string]bool)
	onPath := make(map[string]int) // node -> index on the current path
	var path []string

	var visit func(id string)
	visit = func(id string) {
		path = append(path, id)
		onPath[id] = len(path) - 1

		for _, edge := range g.outgoing[id] {
			target := edge.TargetID
			if idx, ok := onPath[target]; ok {
				// Close the cycle: sub-path from the revisited node back to itself
				cycle := make([]string, 0, len(path)-idx+1)
				cycle = append(cycle, path[idx:]...)
				cycle = append(cycle, target)
				cycles = append(cycles, cycle)
				continue
			}
			if visited[target] {
				continue
			}
			visit(target)
		}

		delete(onPath, id)
		path = path[:len(path)-1]
		visited[id] = true
	}

	visit(startID)
	return cycles, nil
}
