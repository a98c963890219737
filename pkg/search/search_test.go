package search_test

import (
	"context"
	"testing"

	"github.com/soundprediction/citator/pkg/citegraph"
	"github.com/soundprediction/citator/pkg/embedder"
	"github.com/soundprediction/citator/pkg/index"
	"github.com/soundprediction/citator/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEmbedder struct {
	texts []string
	tasks []embedder.TaskType
}

func (e *recordingEmbedder) Embed(_ context.Context, text string, task embedder.TaskType) ([]float32, error) {
	e.texts = append(e.texts, text)
	e.tasks = append(e.tasks, task)
	return []float32{0.1, 0.2, 0.3}, nil
}

func (e *recordingEmbedder) Dimensions() int { return 3 }
func (e *recordingEmbedder) Close() error    { return nil }

// fixedStore returns a canned query result and records the requested topK.
type fixedStore struct {
	result    index.QueryResult
	lastTopK  int
	lastQuery map[string]string
}

func (s *fixedStore) GetOrCreateCollection(_ context.Context, name string, metadata map[string]string) (*index.CollectionInfo, error) {
	return &index.CollectionInfo{Name: name, Metadata: metadata}, nil
}

func (s *fixedStore) AddDocuments(_ context.Context, _ string, _ []string, _ [][]float32, _ []map[string]string, _ []string) error {
	return nil
}

func (s *fixedStore) Query(_ context.Context, _ string, _ []float32, topK int, filter map[string]string) (*index.QueryResult, error) {
	s.lastTopK = topK
	s.lastQuery = filter
	result := s.result
	if len(result.IDs) > topK {
		result.IDs = result.IDs[:topK]
		result.Distances = result.Distances[:topK]
	}
	return &result, nil
}

func (s *fixedStore) UpdateDocuments(_ context.Context, _ string, _ []string, _ [][]float32, _ []map[string]string, _ []string) error {
	return nil
}

func (s *fixedStore) DeleteDocuments(_ context.Context, _ string, _ []string) error { return nil }
func (s *fixedStore) DeleteCollection(_ context.Context, _ string) error            { return nil }
func (s *fixedStore) ListCollections(_ context.Context) ([]string, error)           { return nil, nil }
func (s *fixedStore) DescribeCollection(_ context.Context, name string) (*index.CollectionInfo, error) {
	return &index.CollectionInfo{Name: name}, nil
}
func (s *fixedStore) Close() error { return nil }

func newEngine(t *testing.T, store *fixedStore, graph *citegraph.Graph, cfg search.Config) (*search.Engine, *recordingEmbedder) {
	t.Helper()
	emb := &recordingEmbedder{}
	idx := index.New(store, emb, nil)
	return search.NewEngine(idx, graph, cfg, nil), emb
}

func credibility(v float64) *float64 { return &v }

// citedGraph builds a graph where doc1 has influence exactly 80:
// 0.5*96 + 0.3*100 + 0.2*min(5*2,100) = 48 + 30 + 2.
func citedGraph(t *testing.T) *citegraph.Graph {
	t.Helper()
	g := citegraph.New(citegraph.Options{})
	require.NoError(t, g.AddNode("doc1", citegraph.NodeOptions{Title: "Doc 1", Credibility: credibility(96)}))
	require.NoError(t, g.AddNode("citer1", citegraph.NodeOptions{Title: "Citer 1", Credibility: credibility(100)}))
	require.NoError(t, g.AddNode("citer2", citegraph.NodeOptions{Title: "Citer 2", Credibility: credibility(100)}))
	require.NoError(t, g.AddEdge("citer1", "doc1", citegraph.EdgeOptions{}))
	require.NoError(t, g.AddEdge("citer2", "doc1", citegraph.EdgeOptions{}))
	return g
}

func TestSearchFusionArithmetic(t *testing.T) {
	store := &fixedStore{result: index.QueryResult{
		IDs:       []string{"doc1"},
		Distances: []float32{0.1},
		Documents: []string{"first document"},
		Metadatas: []map[string]string{{"source": "test"}},
	}}
	engine, _ := newEngine(t, store, citedGraph(t), search.Config{})

	results, err := engine.Search(context.Background(), "query", search.Options{Collection: "docs"})
	require.NoError(t, err)
	require.Len(t, results.Results, 1)

	hit := results.Results[0]
	assert.InDelta(t, 0.9, hit.VectorScore, 1e-6)
	assert.InDelta(t, 0.8, hit.CitationScore, 1e-6)
	assert.InDelta(t, 0.87, hit.TotalScore, 1e-6) // 0.7*0.9 + 0.3*0.8
	assert.Equal(t, 1, hit.Rank)
	assert.Equal(t, 2, hit.IncomingCitations)
	assert.Equal(t, "first document", hit.Document)
}

func TestSearchCandidateOutsideGraph(t *testing.T) {
	store := &fixedStore{result: index.QueryResult{
		IDs:       []string{"unknown"},
		Distances: []float32{0.2},
	}}
	engine, _ := newEngine(t, store, citegraph.New(citegraph.Options{}), search.Config{})

	results, err := engine.Search(context.Background(), "query", search.Options{Collection: "docs"})
	require.NoError(t, err)
	require.Len(t, results.Results, 1)

	hit := results.Results[0]
	assert.Zero(t, hit.CitationScore)
	assert.Zero(t, hit.IncomingCitations)
	assert.InDelta(t, 0.7*0.8, hit.TotalScore, 1e-6)
}

func TestSearchInfluencePromotesCandidate(t *testing.T) {
	// doc1 is farther by vector distance but its influence lifts it past flat.
	store := &fixedStore{result: index.QueryResult{
		IDs:       []string{"flat", "doc1"},
		Distances: []float32{0.15, 0.25},
	}}
	engine, _ := newEngine(t, store, citedGraph(t), search.Config{})

	results, err := engine.Search(context.Background(), "query", search.Options{Collection: "docs"})
	require.NoError(t, err)
	require.Len(t, results.Results, 2)

	// flat: 0.7*0.85 = 0.595; doc1: 0.7*0.75 + 0.3*0.8 = 0.765
	assert.Equal(t, "doc1", results.Results[0].ID)
	assert.Equal(t, "flat", results.Results[1].ID)
}

func TestSearchOverFetchAndTruncate(t *testing.T) {
	ids := make([]string, 8)
	distances := make([]float32, 8)
	for i := range ids {
		ids[i] = string(rune('a' + i))
		distances[i] = float32(i) * 0.1
	}
	store := &fixedStore{result: index.QueryResult{IDs: ids, Distances: distances}}
	engine, _ := newEngine(t, store, citegraph.New(citegraph.Options{}), search.Config{})

	results, err := engine.Search(context.Background(), "query", search.Options{Collection: "docs", Limit: 3})
	require.NoError(t, err)

	assert.Equal(t, 6, store.lastTopK, "candidate retrieval must over-fetch twice the limit")
	assert.Equal(t, 6, results.TotalFound)
	require.Len(t, results.Results, 3)
	for i, hit := range results.Results {
		assert.Equal(t, i+1, hit.Rank)
	}
}

func TestSearchQueryExpansion(t *testing.T) {
	store := &fixedStore{result: index.QueryResult{}}
	engine, emb := newEngine(t, store, nil, search.Config{})

	results, err := engine.Search(context.Background(), "ml papers", search.Options{Collection: "docs"})
	require.NoError(t, err)

	assert.Equal(t, "ml papers", results.Query)
	assert.Equal(t, "machine learning papers", results.ExpandedQuery)
	require.Len(t, emb.texts, 1)
	assert.Equal(t, "machine learning papers", emb.texts[0], "the expanded query must be embedded")
	assert.Equal(t, embedder.TaskQuery, emb.tasks[0])
}

func TestSearchExpansionDisabled(t *testing.T) {
	store := &fixedStore{result: index.QueryResult{}}
	engine, emb := newEngine(t, store, nil, search.Config{DisableExpansion: true})

	results, err := engine.Search(context.Background(), "ml papers", search.Options{Collection: "docs"})
	require.NoError(t, err)

	assert.Empty(t, results.ExpandedQuery)
	assert.Equal(t, "ml papers", emb.texts[0])
}

type reversingReranker struct{ calls int }

func (r *reversingReranker) Rerank(_ context.Context, _ string, results []search.Result) ([]search.Result, error) {
	r.calls++
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

func TestSearchRerankerHook(t *testing.T) {
	store := &fixedStore{result: index.QueryResult{
		IDs:       []string{"near", "far"},
		Distances: []float32{0.1, 0.5},
	}}
	reranker := &reversingReranker{}
	engine, _ := newEngine(t, store, nil, search.Config{Reranker: reranker})

	results, err := engine.Search(context.Background(), "query", search.Options{Collection: "docs"})
	require.NoError(t, err)

	assert.Equal(t, 1, reranker.calls)
	require.Len(t, results.Results, 2)
	assert.Equal(t, "far", results.Results[0].ID, "reranker output order must win")
}

func TestSearchSurfacesMismatchedStoreArrays(t *testing.T) {
	// A backend returning ids without matching distances must produce an
	// error from the search call, not a panic during fusion.
	store := &fixedStore{result: index.QueryResult{
		IDs: []string{"doc1", "doc2"},
	}}
	engine, _ := newEngine(t, store, citedGraph(t), search.Config{})

	results, err := engine.Search(context.Background(), "query", search.Options{Collection: "docs"})
	require.Error(t, err)
	assert.Nil(t, results)

	var storeErr *index.StoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestSearchValidation(t *testing.T) {
	store := &fixedStore{}
	engine, _ := newEngine(t, store, nil, search.Config{})

	_, err := engine.Search(context.Background(), "  ", search.Options{Collection: "docs"})
	assert.Error(t, err)

	_, err = engine.Search(context.Background(), "query", search.Options{})
	assert.Error(t, err)
}

func TestSearchOmitScores(t *testing.T) {
	store := &fixedStore{result: index.QueryResult{
		IDs:       []string{"doc1"},
		Distances: []float32{0.1},
	}}
	engine, _ := newEngine(t, store, citedGraph(t), search.Config{})

	results, err := engine.Search(context.Background(), "query", search.Options{
		Collection:    "docs",
		OmitScores:    true,
		OmitCitations: true,
	})
	require.NoError(t, err)
	require.Len(t, results.Results, 1)

	hit := results.Results[0]
	assert.Zero(t, hit.TotalScore)
	assert.Zero(t, hit.VectorScore)
	assert.Zero(t, hit.IncomingCitations)
	assert.Equal(t, 1, hit.Rank)
}

func TestEngineStats(t *testing.T) {
	store := &fixedStore{result: index.QueryResult{
		IDs:       []string{"doc1"},
		Distances: []float32{0.1},
	}}
	emb := &recordingEmbedder{}
	cached := embedder.NewCachingClient(emb, embedder.CacheConfig{})
	idx := index.New(store, cached, nil)
	engine := search.NewEngine(idx, nil, search.Config{}, nil)

	stats := engine.Stats()
	assert.Zero(t, stats.Searches)

	for i := 0; i < 3; i++ {
		_, err := engine.Search(context.Background(), "same query", search.Options{Collection: "docs"})
		require.NoError(t, err)
	}

	stats = engine.Stats()
	assert.Equal(t, uint64(3), stats.Searches)
	assert.Greater(t, stats.AvgDuration.Nanoseconds(), int64(0))
	// Identical query text: one provider miss, then cache hits.
	assert.InDelta(t, 2.0/3.0, stats.CacheHitRate, 1e-9)
}
