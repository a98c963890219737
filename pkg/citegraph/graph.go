package citegraph

import (
	"fmt"
	"sync"
	"time"
)

// MetadataSchemaVersion identifies the current node/edge metadata layout.
const MetadataSchemaVersion = 1

// Metadata is the typed payload attached to nodes. Malformed ingestion is
// rejected at the boundary instead of surfacing later as a ranking anomaly.
type Metadata struct {
	SchemaVersion int               `json:"schema_version"`
	Source        string            `json:"source,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// Node is a knowledge entry in the citation graph.
type Node struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Credibility float64   `json:"credibility"` // [0,100]
	Type        string    `json:"type"`
	Metadata    *Metadata `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Edge is a directed, weighted, typed citation between two nodes.
type Edge struct {
	SourceID     string    `json:"source_id"`
	TargetID     string    `json:"target_id"`
	CitationType string    `json:"citation_type"`
	Weight       float64   `json:"weight"`
	Context      string    `json:"context,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NodeOptions holds optional fields for AddNode. Title is required.
type NodeOptions struct {
	Title string
	// Credibility in [0,100]; nil means the default of 50.
	Credibility *float64
	// Type defaults to "knowledge".
	Type     string
	Metadata *Metadata
}

// EdgeOptions holds optional fields for AddEdge.
type EdgeOptions struct {
	// CitationType defaults to "references".
	CitationType string
	// Weight defaults to 1.0; nil means the default.
	Weight  *float64
	Context string
}

const (
	// DefaultCredibility is assigned to nodes without an explicit score.
	DefaultCredibility = 50.0
	// DefaultNodeType tags nodes without an explicit type.
	DefaultNodeType = "knowledge"
	// DefaultCitationType tags edges without an explicit citation type.
	DefaultCitationType = "references"
	// DefaultEdgeWeight is assigned to edges without an explicit weight.
	DefaultEdgeWeight = 1.0
)

// ValidationError reports a rejected mutation. State is unchanged.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Options configures the graph's PageRank computation.
type Options struct {
	// Damping is the PageRank damping factor. Defaults to 0.85.
	Damping float64
	// MaxIterations bounds the PageRank loop. Defaults to 100.
	MaxIterations int
	// ConvergenceThreshold stops iteration once the largest per-node delta
	// falls below it. Defaults to 1e-4.
	ConvergenceThreshold float64
}

// Graph is a directed citation graph with memoized authority aggregates.
// One lock guards nodes, both adjacency indexes, and the aggregate caches as
// a unit; mutations invalidate both aggregates wholesale.
type Graph struct {
	opts Options

	mu        sync.RWMutex
	nodes     map[string]*Node
	outgoing  map[string][]*Edge
	incoming  map[string][]*Edge
	edgeCount int

	// derived aggregates, nil when invalidated
	influence map[string]float64
	pagerank  map[string]float64
}

// New creates an empty citation graph.
func New(opts Options) *Graph {
	if opts.Damping <= 0 || opts.Damping >= 1 {
		opts.Damping = 0.85
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 100
	}
	if opts.ConvergenceThreshold <= 0 {
		opts.ConvergenceThreshold = 1e-4
	}

	return &Graph{
		opts:     opts,
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]*Edge),
		incoming: make(map[string][]*Edge),
	}
}

// invalidate drops both derived aggregates. Caller must hold the write lock.
func (g *Graph) invalidate() {
	g.influence = nil
	g.pagerank = nil
}

// AddNode adds or replaces a node. Re-adding an existing id fully replaces
// its data and invalidates the derived aggregates; existing edges are kept.
func (g *Graph) AddNode(id string, opts NodeOptions) error {
	if id == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if opts.Title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	credibility := DefaultCredibility
	if opts.Credibility != nil {
		credibility = *opts.Credibility
		if credibility < 0 || credibility > 100 {
			return &ValidationError{Field: "credibility", Reason: fmt.Sprintf("%g outside [0,100]", credibility)}
		}
	}

	nodeType := opts.Type
	if nodeType == "" {
		nodeType = DefaultNodeType
	}

	if opts.Metadata != nil && opts.Metadata.SchemaVersion > MetadataSchemaVersion {
		return &ValidationError{Field: "metadata", Reason: fmt.Sprintf("schema version %d not supported", opts.Metadata.SchemaVersion)}
	}

	node := &Node{
		ID:          id,
		Title:       opts.Title,
		Credibility: credibility,
		Type:        nodeType,
		Metadata:    opts.Metadata,
		CreatedAt:   time.Now(),
	}
	if node.Metadata != nil && node.Metadata.SchemaVersion == 0 {
		node.Metadata.SchemaVersion = MetadataSchemaVersion
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes[id] = node
	g.invalidate()
	return nil
}

// AddEdge adds a citation edge. Both endpoints must already exist and
// self-loops are rejected; parallel edges between the same ordered pair are
// permitted.
func (g *Graph) AddEdge(sourceID, targetID string, opts EdgeOptions) error {
	if sourceID == "" || targetID == "" {
		return &ValidationError{Field: "edge", Reason: "source and target ids must not be empty"}
	}
	if sourceID == targetID {
		return &ValidationError{Field: "edge", Reason: "self-loops are not allowed"}
	}

	citationType := opts.CitationType
	if citationType == "" {
		citationType = DefaultCitationType
	}
	weight := DefaultEdgeWeight
	if opts.Weight != nil {
		weight = *opts.Weight
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[sourceID]; !ok {
		return &ValidationError{Field: "source", Reason: fmt.Sprintf("node %q does not exist", sourceID)}
	}
	if _, ok := g.nodes[targetID]; !ok {
		return &ValidationError{Field: "target", Reason: fmt.Sprintf("node %q does not exist", targetID)}
	}

	edge := &Edge{
		SourceID:     sourceID,
		TargetID:     targetID,
		CitationType: citationType,
		Weight:       weight,
		Context:      opts.Context,
		CreatedAt:    time.Now(),
	}

	g.outgoing[sourceID] = append(g.outgoing[sourceID], edge)
	g.incoming[targetID] = append(g.incoming[targetID], edge)
	g.edgeCount++
	g.invalidate()
	return nil
}

// GetNode returns a copy of the node with the given id.
func (g *Graph) GetNode(id string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	copied := *node
	return &copied, true
}

// HasNode reports whether the node exists.
func (g *Graph) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// GetOutgoingEdges returns the edges citing out of a node, or an empty slice.
func (g *Graph) GetOutgoingEdges(id string) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return copyEdges(g.outgoing[id])
}

// GetIncomingEdges returns the edges citing into a node, or an empty slice.
func (g *Graph) GetIncomingEdges(id string) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return copyEdges(g.incoming[id])
}

func copyEdges(edges []*Edge) []*Edge {
	out := make([]*Edge, len(edges))
	for i, e := range edges {
		copied := *e
		out[i] = &copied
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgeCount
}

// Clear drops all nodes, edges, and cached aggregates.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearLocked()
}

// clearLocked resets all state. Caller must hold the write lock.
func (g *Graph) clearLocked() {
	g.nodes = make(map[string]*Node)
	g.outgoing = make(map[string][]*Edge)
	g.incoming = make(map[string][]*Edge)
	g.edgeCount = 0
	g.invalidate()
}
