// Package embedder provides text embedding clients for vector representations.
//
// This package defines the Client interface and provides an OpenAI-backed
// implementation, along with composable wrappers:
//
//   - CachingClient: memoizes embeddings by a content hash with a TTL and
//     tracks hit/miss statistics. Batch embedding runs with bounded
//     concurrency behind a shared rate limiter.
//   - RetryClient: retries transient provider failures with exponential
//     backoff.
//   - CircuitBreakerClient: trips after repeated provider failures so a
//     degraded provider does not stall every search.
//
// Wrappers compose in the usual order:
//
//	provider := embedder.NewOpenAIEmbedder(apiKey, embedder.Config{
//	    Model:      "text-embedding-3-small",
//	    Dimensions: 768,
//	})
//	client := embedder.NewCachingClient(
//	    embedder.NewRetryClient(provider, nil),
//	    embedder.CacheConfig{},
//	)
//
// The task type passed to Embed distinguishes document-indexing from
// query-time embedding semantics for the underlying model.
package embedder
