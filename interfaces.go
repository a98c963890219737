package citator

import (
	"context"

	"github.com/soundprediction/citator/pkg/citegraph"
	"github.com/soundprediction/citator/pkg/search"
)

// This file defines focused interfaces composed into the full Citator
// surface. Consumers should depend on the smallest interface that meets
// their needs.

// Searcher runs hybrid retrieval over indexed documents.
type Searcher interface {
	// Search expands the query, retrieves candidates by vector similarity,
	// and fuses similarity with citation influence into a ranked list.
	Search(ctx context.Context, query string, opts search.Options) (*search.Results, error)
}

// DocumentIndexer adds and removes searchable documents.
type DocumentIndexer interface {
	// IndexDocuments embeds and stores documents, registering a citation
	// graph node for each. Returns the final id of every document in order.
	IndexDocuments(ctx context.Context, docs []Document) ([]string, error)

	// DeleteDocuments removes documents from the vector index by id.
	DeleteDocuments(ctx context.Context, ids []string) error
}

// CitationRecorder mutates the citation graph.
type CitationRecorder interface {
	// Cite records that source cites target.
	Cite(sourceID, targetID string, opts citegraph.EdgeOptions) error
}

// GraphAnalyzer computes aggregates over the citation graph.
type GraphAnalyzer interface {
	// InfluenceScore returns the composite influence of a node in [0,100].
	InfluenceScore(id string) (float64, error)

	// PageRank returns the normalized PageRank vector over all nodes.
	PageRank() map[string]float64

	// DetectCycles reports citation cycles reachable from the start node.
	DetectCycles(startID string) ([][]string, error)

	// GraphStatistics summarizes node, edge, and citation counts.
	GraphStatistics() citegraph.Statistics
}

// GraphPersister exports and imports the citation graph wholesale.
type GraphPersister interface {
	// ExportGraph serializes all nodes and edges.
	ExportGraph() ([]byte, error)

	// ImportGraph replaces the graph with a previously exported document.
	ImportGraph(data []byte) error
}

// Citator is the full client surface, composed from the focused interfaces.
type Citator interface {
	Searcher
	DocumentIndexer
	CitationRecorder
	GraphAnalyzer
	GraphPersister

	// Stats returns running totals across the engine, cache, and graph.
	Stats() Stats

	// Close releases the vector store and embedding client.
	Close() error
}

var _ Citator = (*Client)(nil)
