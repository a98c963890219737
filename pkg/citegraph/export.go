package citegraph

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ExportSchemaVersion identifies the export document layout.
const ExportSchemaVersion = 1

// ExportDocument is the full persistence form of the graph.
type ExportDocument struct {
	SchemaVersion int     `json:"schema_version"`
	Nodes         []*Node `json:"nodes"`
	Edges         []*Edge `json:"edges"`
}

// ToJSON exports the full node and edge state.
func (g *Graph) ToJSON() ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	doc := ExportDocument{
		SchemaVersion: ExportSchemaVersion,
		Nodes:         make([]*Node, 0, len(g.nodes)),
		Edges:         make([]*Edge, 0, g.edgeCount),
	}

	for _, node := range g.nodes {
		copied := *node
		doc.Nodes = append(doc.Nodes, &copied)
	}
	// Deterministic output for diffable exports
	sort.Slice(doc.Nodes, func(i, j int) bool {
		return doc.Nodes[i].ID < doc.Nodes[j].ID
	})

	for _, edges := range g.outgoing {
		for _, edge := range edges {
			copied := *edge
			doc.Edges = append(doc.Edges, &copied)
		}
	}
	sort.Slice(doc.Edges, func(i, j int) bool {
		if doc.Edges[i].SourceID != doc.Edges[j].SourceID {
			return doc.Edges[i].SourceID < doc.Edges[j].SourceID
		}
		return doc.Edges[i].TargetID < doc.Edges[j].TargetID
	})

	return json.Marshal(doc)
}

// FromJSON replaces the graph's state with the imported document. Existing
// nodes, edges, and cached aggregates are dropped before loading.
func (g *Graph) FromJSON(data []byte) error {
	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode graph document: %w", err)
	}
	if doc.SchemaVersion > ExportSchemaVersion {
		return fmt.Errorf("graph document schema version %d not supported (max %d)", doc.SchemaVersion, ExportSchemaVersion)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.clearLocked()

	for _, node := range doc.Nodes {
		if node.ID == "" || node.Title == "" {
			g.clearLocked()
			return &ValidationError{Field: "node", Reason: "imported node missing id or title"}
		}
		copied := *node
		g.nodes[node.ID] = &copied
	}

	for _, edge := range doc.Edges {
		if _, ok := g.nodes[edge.SourceID]; !ok {
			g.clearLocked()
			return &ValidationError{Field: "edge", Reason: fmt.Sprintf("imported edge references unknown node %q", edge.SourceID)}
		}
		if _, ok := g.nodes[edge.TargetID]; !ok {
			g.clearLocked()
			return &ValidationError{Field: "edge", Reason: fmt.Sprintf("imported edge references unknown node %q", edge.TargetID)}
		}
		copied := *edge
		g.outgoing[edge.SourceID] = append(g.outgoing[edge.SourceID], &copied)
		g.incoming[edge.TargetID] = append(g.incoming[edge.TargetID], &copied)
		g.edgeCount++
	}

	return nil
}
