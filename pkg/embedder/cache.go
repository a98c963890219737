package embedder

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// DefaultTTL is how long a cached vector stays valid.
	DefaultTTL = 24 * time.Hour
	// DefaultBatchSize is the number of texts per embedding batch.
	DefaultBatchSize = 100
	// DefaultConcurrency bounds in-flight provider calls during batch embedding.
	DefaultConcurrency = 4
	// DefaultRateLimit is the provider call budget in calls per second.
	DefaultRateLimit = 10.0
)

// CacheConfig holds configuration for the caching layer.
type CacheConfig struct {
	// TTL is the maximum age of a cached vector. Defaults to DefaultTTL.
	TTL time.Duration
	// BatchSize is the number of texts per batch in EmbedBatch.
	BatchSize int
	// Concurrency bounds concurrent provider calls during batch embedding.
	Concurrency int
	// RateLimit is the sustained provider call rate in calls per second.
	// Zero or negative disables rate limiting.
	RateLimit float64
}

// Stats reports running cache totals.
type Stats struct {
	Requests uint64  `json:"requests"`
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	HitRate  float64 `json:"hit_rate"`
	Size     int     `json:"size"`
}

// StatsProvider is implemented by clients that expose cache statistics.
type StatsProvider interface {
	Stats() Stats
}

type cacheEntry struct {
	vector   []float32
	storedAt time.Time
}

// CachingClient wraps a Client and memoizes embeddings by a hash of the text.
//
// The cache key is a non-cryptographic hash of the text content and length.
// Collisions are possible but treated as acceptably rare. The task type is
// deliberately not part of the key: this matches the behavior existing cached
// data was produced under, so a vector cached while indexing is also returned
// for a query-time embedding of the identical text.
//
// Entries expire after the configured TTL and are evicted lazily on lookup;
// there is no background sweep. An expired entry counts as a miss and is
// overwritten by the fresh provider result.
type CachingClient struct {
	provider Client
	ttl      time.Duration

	mu       sync.Mutex
	entries  map[uint64]cacheEntry
	requests uint64
	hits     uint64
	misses   uint64

	batchSize   int
	concurrency int
	limiter     *rate.Limiter
}

// NewCachingClient wraps provider with an embedding cache.
func NewCachingClient(provider Client, config CacheConfig) *CachingClient {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), config.Concurrency)
	}

	return &CachingClient{
		provider:    provider,
		ttl:         config.TTL,
		entries:     make(map[uint64]cacheEntry),
		batchSize:   config.BatchSize,
		concurrency: config.Concurrency,
		limiter:     limiter,
	}
}

// cacheKey hashes the text content together with its length.
func cacheKey(text string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(text)
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(text)))
	_, _ = h.Write(lenBuf[:])
	return h.Sum64()
}

// Embed returns the cached vector for text when present and fresh, otherwise
// calls the provider and stores the result. Nothing is cached for a failed
// provider call.
func (c *CachingClient) Embed(ctx context.Context, text string, task TaskType) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	key := cacheKey(text)
	now := time.Now()

	c.mu.Lock()
	c.requests++
	if entry, ok := c.entries[key]; ok && now.Sub(entry.storedAt) <= c.ttl {
		c.hits++
		c.mu.Unlock()
		return entry.vector, nil
	}
	c.misses++
	c.mu.Unlock()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	vector, err := c.provider.Embed(ctx, text, task)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{vector: vector, storedAt: time.Now()}
	c.mu.Unlock()

	return vector, nil
}

// EmbedBatch embeds texts in batches, preserving input order. Each batch runs
// with bounded concurrency; the first failing item cancels the rest of its
// batch and no further batches are attempted.
func (c *CachingClient) EmbedBatch(ctx context.Context, texts []string, task TaskType) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.concurrency)

		for i := start; i < end; i++ {
			g.Go(func() error {
				vector, err := c.Embed(gctx, texts[i], task)
				if err != nil {
					return err
				}
				vectors[i] = vector
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return vectors, nil
}

// Stats returns the running cache totals.
func (c *CachingClient) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		Requests: c.requests,
		Hits:     c.hits,
		Misses:   c.misses,
		Size:     len(c.entries),
	}
	if stats.Requests > 0 {
		stats.HitRate = float64(stats.Hits) / float64(stats.Requests)
	}
	return stats
}

// Dimensions returns the provider's embedding dimensionality.
func (c *CachingClient) Dimensions() int {
	return c.provider.Dimensions()
}

// Close releases the underlying provider.
func (c *CachingClient) Close() error {
	return c.provider.Close()
}
