package search

import "context"

// Reranker reorders fused candidates before truncation. Implementations may
// drop candidates but must not fabricate new ones.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []Result) ([]Result, error)
}

// NoopReranker returns the candidates unchanged. It is the default reranker
// and keeps the rerank stage as an extension point.
type NoopReranker struct{}

// Rerank implements Reranker.
func (NoopReranker) Rerank(_ context.Context, _ string, results []Result) ([]Result, error) {
	return results, nil
}
