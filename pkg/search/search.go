package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/soundprediction/citator/pkg/citegraph"
	"github.com/soundprediction/citator/pkg/embedder"
	"github.com/soundprediction/citator/pkg/index"
)

const (
	// DefaultVectorWeight is the fusion weight of vector similarity.
	DefaultVectorWeight = 0.7
	// DefaultCitationWeight is the fusion weight of graph influence.
	DefaultCitationWeight = 0.3
	// DefaultLimit is the result cap when Options.Limit is unset.
	DefaultLimit = 10
	// overFetchFactor widens candidate retrieval ahead of fusion so that
	// graph influence can promote entries past the raw similarity cutoff.
	overFetchFactor = 2
)

// Config controls the fusion pipeline.
type Config struct {
	// VectorWeight and CitationWeight scale the two fused scores. Both zero
	// selects the defaults.
	VectorWeight   float64
	CitationWeight float64

	// DisableExpansion turns off the query-expansion stage.
	DisableExpansion bool

	// ExpansionRules overrides DefaultExpansionRules when non-nil.
	ExpansionRules []ExpansionRule

	// Reranker runs after fusion. Nil selects NoopReranker.
	Reranker Reranker
}

// Options are per-call search parameters.
type Options struct {
	// Collection is the vector index collection to search. Required.
	Collection string

	// Limit caps the ranked result list. Zero selects DefaultLimit.
	Limit int

	// Filters restrict candidates to entries whose metadata matches every
	// key.
	Filters map[string]string

	// OmitScores leaves the per-result score breakdown zeroed.
	OmitScores bool

	// OmitCitations skips the incoming-citation lookup per result.
	OmitCitations bool
}

// Result is one ranked search hit with its score breakdown.
type Result struct {
	ID                string            `json:"id"`
	Document          string            `json:"document,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	Rank              int               `json:"rank"`
	Distance          float32           `json:"distance"`
	VectorScore       float64           `json:"vector_score"`
	CitationScore     float64           `json:"citation_score"`
	TotalScore        float64           `json:"total_score"`
	IncomingCitations int               `json:"incoming_citations"`
}

// Results is the outcome of one search call.
type Results struct {
	Query         string        `json:"query"`
	ExpandedQuery string        `json:"expanded_query,omitempty"`
	Results       []Result      `json:"results"`
	TotalFound    int           `json:"total_found"`
	Duration      time.Duration `json:"duration"`
}

// Stats reports running engine totals.
type Stats struct {
	Searches     uint64        `json:"searches"`
	AvgDuration  time.Duration `json:"avg_duration"`
	CacheHitRate float64       `json:"cache_hit_rate"`
}

// Engine fuses vector similarity from an index with influence scores from a
// citation graph. Engines are safe for concurrent use; the graph serializes
// its own aggregate computation internally.
type Engine struct {
	index    *index.Index
	graph    *citegraph.Graph
	cfg      Config
	rules    []ExpansionRule
	reranker Reranker
	logger   *slog.Logger

	mu            sync.Mutex
	searches      uint64
	totalDuration time.Duration
}

// NewEngine creates an Engine over the given index and graph.
func NewEngine(idx *index.Index, graph *citegraph.Graph, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.VectorWeight == 0 && cfg.CitationWeight == 0 {
		cfg.VectorWeight = DefaultVectorWeight
		cfg.CitationWeight = DefaultCitationWeight
	}

	rules := cfg.ExpansionRules
	if rules == nil {
		rules = DefaultExpansionRules
	}
	rules = append([]ExpansionRule(nil), rules...)
	sortRules(rules)

	reranker := cfg.Reranker
	if reranker == nil {
		reranker = NoopReranker{}
	}

	return &Engine{
		index:    idx,
		graph:    graph,
		cfg:      cfg,
		rules:    rules,
		reranker: reranker,
		logger:   logger,
	}
}

// Search runs the full retrieval pipeline: expand the query, over-fetch
// candidates by vector similarity, fuse similarity with graph influence,
// rerank, and truncate to the requested limit.
func (e *Engine) Search(ctx context.Context, query string, opts Options) (*Results, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if opts.Collection == "" {
		return nil, fmt.Errorf("collection must not be empty")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	start := time.Now()

	searchQuery := query
	if !e.cfg.DisableExpansion {
		searchQuery = expandQuery(query, e.rules)
	}

	resp, err := e.index.QueryByText(ctx, opts.Collection, searchQuery, limit*overFetchFactor, opts.Filters)
	if err != nil {
		return nil, fmt.Errorf("candidate retrieval failed: %w", err)
	}

	candidates := e.fuse(resp, opts)

	candidates, err = e.reranker.Rerank(ctx, searchQuery, candidates)
	if err != nil {
		return nil, fmt.Errorf("rerank failed: %w", err)
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}

	elapsed := time.Since(start)
	e.record(elapsed)

	results := &Results{
		Query:      query,
		Results:    candidates,
		TotalFound: len(resp.IDs),
		Duration:   elapsed,
	}
	if searchQuery != query {
		results.ExpandedQuery = searchQuery
	}

	e.logger.Debug("search complete",
		"query", query,
		"collection", opts.Collection,
		"found", results.TotalFound,
		"returned", len(candidates),
		"duration", elapsed,
	)
	return results, nil
}

// fuse scores every candidate and sorts descending by total score. Ties break
// by id so rankings are stable across runs.
func (e *Engine) fuse(resp *index.QueryResponse, opts Options) []Result {
	fused := make([]Result, 0, len(resp.IDs))
	totals := make([]float64, 0, len(resp.IDs))

	for i, id := range resp.IDs {
		result := Result{ID: id, Distance: resp.Distances[i]}
		if i < len(resp.Documents) {
			result.Document = resp.Documents[i]
		}
		if i < len(resp.Metadatas) {
			result.Metadata = resp.Metadatas[i]
		}

		vectorScore := 1 - float64(resp.Distances[i])
		if vectorScore < 0 {
			vectorScore = 0
		}

		var citationScore float64
		if e.graph != nil {
			if _, ok := e.graph.GetNode(id); ok {
				if influence, err := e.graph.InfluenceScore(id); err == nil {
					citationScore = influence / 100
				}
			}
			if !opts.OmitCitations {
				result.IncomingCitations = len(e.graph.GetIncomingEdges(id))
			}
		}

		total := e.cfg.VectorWeight*vectorScore + e.cfg.CitationWeight*citationScore
		if !opts.OmitScores {
			result.VectorScore = vectorScore
			result.CitationScore = citationScore
			result.TotalScore = total
		}

		fused = append(fused, result)
		totals = append(totals, total)
	}

	order := make([]int, len(fused))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if totals[order[i]] != totals[order[j]] {
			return totals[order[i]] > totals[order[j]]
		}
		return fused[order[i]].ID < fused[order[j]].ID
	})

	sorted := make([]Result, len(fused))
	for i, idx := range order {
		sorted[i] = fused[idx]
	}
	return sorted
}

// record folds one search into the running totals.
func (e *Engine) record(elapsed time.Duration) {
	e.mu.Lock()
	e.searches++
	e.totalDuration += elapsed
	e.mu.Unlock()
}

// Stats returns running search totals plus the embedding cache hit rate when
// the index's embedding client exposes one.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	stats := Stats{Searches: e.searches}
	if e.searches > 0 {
		stats.AvgDuration = e.totalDuration / time.Duration(e.searches)
	}
	e.mu.Unlock()

	if e.index != nil {
		if provider, ok := e.index.Embedder().(embedder.StatsProvider); ok {
			stats.CacheHitRate = provider.Stats().HitRate
		}
	}
	return stats
}
