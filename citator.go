package citator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/soundprediction/citator/pkg/citegraph"
	"github.com/soundprediction/citator/pkg/embedder"
	"github.com/soundprediction/citator/pkg/index"
	"github.com/soundprediction/citator/pkg/search"
)

var (
	// ErrNodeNotFound is returned when a graph node is not found.
	ErrNodeNotFound = errors.New("node not found")
	// ErrNoDocuments is returned when an indexing call carries no documents.
	ErrNoDocuments = errors.New("no documents provided")
)

// Config holds configuration for the citator client.
type Config struct {
	// Collection is the default vector collection for indexing and search.
	Collection string
	// Cache configures the embedding cache layer.
	Cache embedder.CacheConfig
	// Graph configures PageRank on the citation graph.
	Graph citegraph.Options
	// Search configures the hybrid fusion pipeline.
	Search search.Config
}

// DefaultCollection is used when Config.Collection is empty.
const DefaultCollection = "knowledge"

// Document is one unit of indexable knowledge. Indexing a document stores its
// text embedding in the vector index and registers a node in the citation
// graph under the same id.
type Document struct {
	// ID identifies the document in both the index and the graph. Empty
	// generates a UUID.
	ID string
	// Title names the document. Required.
	Title string
	// Text is the content to embed. Required.
	Text string
	// Credibility is the node's base credibility in [0,100]. Nil applies the
	// graph default.
	Credibility *float64
	// Type classifies the graph node. Empty applies the graph default.
	Type string
	// Metadata is attached to the vector index entry.
	Metadata map[string]string
}

// Client wires the embedding cache, vector index, citation graph, and hybrid
// search engine into one retrieval surface.
type Client struct {
	embedder embedder.Client
	index    *index.Index
	graph    *citegraph.Graph
	engine   *search.Engine
	store    index.Store
	config   *Config
	logger   *slog.Logger
}

// NewClient creates a citator client over the given vector store and
// embedding provider. The provider is wrapped in a TTL cache; pass an already
// wrapped client via NewClientWithEmbedder to control the layering yourself.
func NewClient(store index.Store, provider embedder.Client, config *Config, logger *slog.Logger) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("embedding provider is required")
	}
	cached := embedder.NewCachingClient(provider, cacheConfig(config))
	return NewClientWithEmbedder(store, cached, config, logger)
}

// NewClientWithEmbedder creates a citator client using the embedding client
// as-is, without adding a cache layer.
func NewClientWithEmbedder(store index.Store, embedderClient embedder.Client, config *Config, logger *slog.Logger) (*Client, error) {
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if embedderClient == nil {
		return nil, fmt.Errorf("embedding client is required")
	}
	if config == nil {
		config = &Config{}
	}
	if config.Collection == "" {
		config.Collection = DefaultCollection
	}
	if logger == nil {
		logger = slog.Default()
	}

	idx := index.New(store, embedderClient, logger)
	graph := citegraph.New(config.Graph)
	engine := search.NewEngine(idx, graph, config.Search, logger)

	return &Client{
		embedder: embedderClient,
		index:    idx,
		graph:    graph,
		engine:   engine,
		store:    store,
		config:   config,
		logger:   logger,
	}, nil
}

// Index returns the underlying vector index.
func (c *Client) Index() *index.Index { return c.index }

// Graph returns the underlying citation graph.
func (c *Client) Graph() *citegraph.Graph { return c.graph }

// Embedder returns the embedding client.
func (c *Client) Embedder() embedder.Client { return c.embedder }

// IndexDocuments embeds and stores documents and registers a graph node for
// each. Documents without an id are assigned a UUID; the returned slice holds
// the final id of every document in input order.
func (c *Client) IndexDocuments(ctx context.Context, docs []Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	if _, err := c.index.GetOrCreateCollection(ctx, c.config.Collection, nil); err != nil {
		return nil, err
	}

	ids := make([]string, len(docs))
	texts := make([]string, len(docs))
	metadatas := make([]map[string]string, len(docs))
	for i, doc := range docs {
		if doc.Text == "" {
			return nil, fmt.Errorf("document %d: %w", i, embedder.ErrEmptyText)
		}
		if doc.Title == "" {
			return nil, fmt.Errorf("document %d: title is required", i)
		}
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		ids[i] = doc.ID
		texts[i] = doc.Text
		metadatas[i] = doc.Metadata
	}

	// Register graph nodes first so a failed index write cannot leave
	// searchable documents without citation state.
	for i, doc := range docs {
		err := c.graph.AddNode(ids[i], citegraph.NodeOptions{
			Title:       doc.Title,
			Credibility: doc.Credibility,
			Type:        doc.Type,
		})
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
	}

	if err := c.index.AddDocumentsWithText(ctx, c.config.Collection, ids, texts, metadatas); err != nil {
		return nil, err
	}

	c.logger.Info("documents indexed", "collection", c.config.Collection, "count", len(docs))
	return ids, nil
}

// Cite records that source cites target.
func (c *Client) Cite(sourceID, targetID string, opts citegraph.EdgeOptions) error {
	return c.graph.AddEdge(sourceID, targetID, opts)
}

// Search runs hybrid retrieval against the default collection unless the
// options name another one.
func (c *Client) Search(ctx context.Context, query string, opts search.Options) (*search.Results, error) {
	if opts.Collection == "" {
		opts.Collection = c.config.Collection
	}
	return c.engine.Search(ctx, query, opts)
}

// DeleteDocuments removes documents from the default collection. Graph nodes
// are retained; citation history outlives the searchable text.
func (c *Client) DeleteDocuments(ctx context.Context, ids []string) error {
	return c.index.DeleteDocuments(ctx, c.config.Collection, ids)
}

// InfluenceScore returns the composite influence of a node.
func (c *Client) InfluenceScore(id string) (float64, error) {
	score, err := c.graph.InfluenceScore(id)
	var vErr *citegraph.ValidationError
	if errors.As(err, &vErr) {
		return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return score, err
}

// PageRank returns the normalized PageRank vector over all graph nodes.
func (c *Client) PageRank() map[string]float64 {
	return c.graph.PageRank()
}

// DetectCycles reports citation cycles reachable from the start node.
func (c *Client) DetectCycles(startID string) ([][]string, error) {
	cycles, err := c.graph.DetectCycles(startID)
	var vErr *citegraph.ValidationError
	if errors.As(err, &vErr) {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, startID)
	}
	return cycles, err
}

// GraphStatistics summarizes the citation graph.
func (c *Client) GraphStatistics() citegraph.Statistics {
	return c.graph.Statistics()
}

// ExportGraph serializes the citation graph for persistence.
func (c *Client) ExportGraph() ([]byte, error) {
	return c.graph.ToJSON()
}

// ImportGraph replaces the citation graph with a previously exported
// document.
func (c *Client) ImportGraph(data []byte) error {
	return c.graph.FromJSON(data)
}

// Stats combines search-engine totals with the embedding cache counters.
type Stats struct {
	Search search.Stats         `json:"search"`
	Cache  embedder.Stats       `json:"cache"`
	Graph  citegraph.Statistics `json:"graph"`
}

// Stats returns running totals across the engine, cache, and graph.
func (c *Client) Stats() Stats {
	stats := Stats{
		Search: c.engine.Stats(),
		Graph:  c.graph.Statistics(),
	}
	if provider, ok := c.embedder.(embedder.StatsProvider); ok {
		stats.Cache = provider.Stats()
	}
	return stats
}

// Close releases the vector store and embedding client.
func (c *Client) Close() error {
	var errs []error
	if err := c.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close vector store: %w", err))
	}
	if err := c.embedder.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close embedding client: %w", err))
	}
	return errors.Join(errs...)
}

func cacheConfig(config *Config) embedder.CacheConfig {
	if config == nil {
		return embedder.CacheConfig{}
	}
	return config.Cache
}
