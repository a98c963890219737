package index

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/soundprediction/citator/pkg/embedder"
)

// Index is the engine's view of the vector store. It caches collection
// handles, validates arguments before touching the backing store, and routes
// text operations through the embedding client.
type Index struct {
	store    Store
	embedder embedder.Client
	logger   *slog.Logger

	mu          sync.Mutex
	collections map[string]*CollectionInfo
}

// QueryResponse is a QueryResult plus the measured store round-trip.
type QueryResponse struct {
	QueryResult
	Duration time.Duration `json:"duration"`
}

// New creates an Index over the given store and embedding client.
func New(store Store, embedderClient embedder.Client, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		store:       store,
		embedder:    embedderClient,
		logger:      logger,
		collections: make(map[string]*CollectionInfo),
	}
}

// Embedder returns the embedding client used for text operations.
func (x *Index) Embedder() embedder.Client {
	return x.embedder
}

// GetOrCreateCollection is idempotent: the first successful call caches a
// local handle so subsequent calls with the same name skip the backing store.
func (x *Index) GetOrCreateCollection(ctx context.Context, name string, metadata map[string]string) (*CollectionInfo, error) {
	if x.store == nil {
		return nil, ErrNotInitialized
	}
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	// '!' is the key separator in embedded backends; allowing it would let
	// one collection alias another's document keyspace.
	if strings.ContainsRune(name, '!') {
		return nil, &ValidationError{Field: "name", Reason: "must not contain '!'"}
	}

	x.mu.Lock()
	if info, ok := x.collections[name]; ok {
		x.mu.Unlock()
		return info, nil
	}
	x.mu.Unlock()

	info, err := x.store.GetOrCreateCollection(ctx, name, metadata)
	if err != nil {
		return nil, err
	}

	x.mu.Lock()
	x.collections[name] = info
	x.mu.Unlock()

	x.logger.Debug("collection ready", "collection", name)
	return info, nil
}

// validateResultParallel rejects store responses whose arrays do not
// parallel ids. Callers index these arrays positionally, so a short array
// from a misbehaving backend must surface as an error, not a panic.
func validateResultParallel(result *QueryResult) error {
	if len(result.Distances) != len(result.IDs) {
		return &StoreError{Op: "query", Err: fmt.Errorf("store returned %d distances for %d ids", len(result.Distances), len(result.IDs))}
	}
	if result.Metadatas != nil && len(result.Metadatas) != len(result.IDs) {
		return &StoreError{Op: "query", Err: fmt.Errorf("store returned %d metadatas for %d ids", len(result.Metadatas), len(result.IDs))}
	}
	if result.Documents != nil && len(result.Documents) != len(result.IDs) {
		return &StoreError{Op: "query", Err: fmt.Errorf("store returned %d documents for %d ids", len(result.Documents), len(result.IDs))}
	}
	return nil
}

// validateParallel checks that optional arrays parallel ids.
func validateParallel(ids []string, vectors [][]float32, metadatas []map[string]string, documents []string) error {
	if len(ids) == 0 {
		return &ValidationError{Field: "ids", Reason: "must not be empty"}
	}
	if vectors != nil && len(vectors) != len(ids) {
		return &ValidationError{Field: "vectors", Reason: fmt.Sprintf("length %d does not match %d ids", len(vectors), len(ids))}
	}
	if metadatas != nil && len(metadatas) != len(ids) {
		return &ValidationError{Field: "metadatas", Reason: fmt.Sprintf("length %d does not match %d ids", len(metadatas), len(ids))}
	}
	if documents != nil && len(documents) != len(ids) {
		return &ValidationError{Field: "documents", Reason: fmt.Sprintf("length %d does not match %d ids", len(documents), len(ids))}
	}
	return nil
}

// AddDocuments adds pre-embedded documents to a collection.
func (x *Index) AddDocuments(ctx context.Context, collection string, ids []string, vectors [][]float32, metadatas []map[string]string, documents []string) error {
	if x.store == nil {
		return ErrNotInitialized
	}
	if err := validateParallel(ids, vectors, metadatas, documents); err != nil {
		return err
	}
	if vectors == nil {
		return &ValidationError{Field: "vectors", Reason: "must not be nil"}
	}
	return x.store.AddDocuments(ctx, collection, ids, vectors, metadatas, documents)
}

// Query returns the topK nearest entries to the query vector along with the
// measured store duration.
func (x *Index) Query(ctx context.Context, collection string, vector []float32, topK int, filter map[string]string) (*QueryResponse, error) {
	if x.store == nil {
		return nil, ErrNotInitialized
	}
	if topK <= 0 {
		return nil, &ValidationError{Field: "topK", Reason: "must be positive"}
	}

	start := time.Now()
	result, err := x.store.Query(ctx, collection, vector, topK, filter)
	if err != nil {
		return nil, err
	}
	if err := validateResultParallel(result); err != nil {
		return nil, err
	}

	return &QueryResponse{
		QueryResult: *result,
		Duration:    time.Since(start),
	}, nil
}

// UpdateDocuments overwrites existing documents.
func (x *Index) UpdateDocuments(ctx context.Context, collection string, ids []string, vectors [][]float32, metadatas []map[string]string, documents []string) error {
	if x.store == nil {
		return ErrNotInitialized
	}
	if err := validateParallel(ids, vectors, metadatas, documents); err != nil {
		return err
	}
	return x.store.UpdateDocuments(ctx, collection, ids, vectors, metadatas, documents)
}

// DeleteDocuments removes documents by id.
func (x *Index) DeleteDocuments(ctx context.Context, collection string, ids []string) error {
	if x.store == nil {
		return ErrNotInitialized
	}
	if len(ids) == 0 {
		return &ValidationError{Field: "ids", Reason: "must not be empty"}
	}
	return x.store.DeleteDocuments(ctx, collection, ids)
}

// DeleteCollection drops a collection and forgets the cached handle.
func (x *Index) DeleteCollection(ctx context.Context, name string) error {
	if x.store == nil {
		return ErrNotInitialized
	}
	if err := x.store.DeleteCollection(ctx, name); err != nil {
		return err
	}

	x.mu.Lock()
	delete(x.collections, name)
	x.mu.Unlock()
	return nil
}

// ListCollections returns all collection names from the backing store.
func (x *Index) ListCollections(ctx context.Context) ([]string, error) {
	if x.store == nil {
		return nil, ErrNotInitialized
	}
	return x.store.ListCollections(ctx)
}

// DescribeCollection returns metadata and entry count for a collection.
func (x *Index) DescribeCollection(ctx context.Context, name string) (*CollectionInfo, error) {
	if x.store == nil {
		return nil, ErrNotInitialized
	}
	return x.store.DescribeCollection(ctx, name)
}

// AddDocumentsWithText embeds texts with document-indexing semantics and adds
// them, storing the source text alongside each vector.
func (x *Index) AddDocumentsWithText(ctx context.Context, collection string, ids []string, texts []string, metadatas []map[string]string) error {
	if x.store == nil {
		return ErrNotInitialized
	}
	if x.embedder == nil {
		return ErrNotInitialized
	}
	if len(texts) != len(ids) {
		return &ValidationError{Field: "texts", Reason: fmt.Sprintf("length %d does not match %d ids", len(texts), len(ids))}
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := x.embedder.Embed(ctx, text, embedder.TaskDocument)
		if err != nil {
			return err
		}
		vectors[i] = vector
	}

	return x.AddDocuments(ctx, collection, ids, vectors, metadatas, texts)
}

// QueryByText embeds the query with query-time semantics and runs a vector
// query.
func (x *Index) QueryByText(ctx context.Context, collection string, text string, topK int, filter map[string]string) (*QueryResponse, error) {
	if x.store == nil || x.embedder == nil {
		return nil, ErrNotInitialized
	}

	vector, err := x.embedder.Embed(ctx, text, embedder.TaskQuery)
	if err != nil {
		return nil, err
	}

	return x.Query(ctx, collection, vector, topK, filter)
}
