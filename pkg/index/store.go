package index

import (
	"context"
	"errors"
	"fmt"
)

// CollectionInfo describes a collection in the backing store.
type CollectionInfo struct {
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Count    int               `json:"count"`
}

// QueryResult holds the top-K matches for a query vector as parallel arrays.
// Distances are cosine distances; similarity = 1 - distance.
type QueryResult struct {
	IDs       []string            `json:"ids"`
	Distances []float32           `json:"distances"`
	Metadatas []map[string]string `json:"metadatas"`
	Documents []string            `json:"documents"`
}

// Store is the boundary to an external nearest-neighbor store. Implementations
// must be safe for concurrent use.
type Store interface {
	// GetOrCreateCollection creates the named collection if it does not exist.
	GetOrCreateCollection(ctx context.Context, name string, metadata map[string]string) (*CollectionInfo, error)

	// AddDocuments adds (id, vector, metadata, document) tuples. Metadatas and
	// documents may be nil; when present they must parallel ids.
	AddDocuments(ctx context.Context, collection string, ids []string, vectors [][]float32, metadatas []map[string]string, documents []string) error

	// Query returns the topK nearest entries to the query vector, optionally
	// restricted to entries whose metadata matches every filter key.
	Query(ctx context.Context, collection string, vector []float32, topK int, filter map[string]string) (*QueryResult, error)

	// UpdateDocuments overwrites vectors/metadata/documents for existing ids.
	UpdateDocuments(ctx context.Context, collection string, ids []string, vectors [][]float32, metadatas []map[string]string, documents []string) error

	// DeleteDocuments removes entries by id.
	DeleteDocuments(ctx context.Context, collection string, ids []string) error

	// DeleteCollection drops a collection and its contents.
	DeleteCollection(ctx context.Context, name string) error

	// ListCollections returns the names of all collections.
	ListCollections(ctx context.Context) ([]string, error)

	// DescribeCollection returns metadata and entry count for a collection.
	DescribeCollection(ctx context.Context, name string) (*CollectionInfo, error)

	// Close releases resources held by the store.
	Close() error
}

var (
	// ErrNotInitialized is returned when an operation runs before the backing
	// connections are established.
	ErrNotInitialized = errors.New("index not initialized")
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")
)

// StoreError wraps a failed backing-store call. There is no built-in retry.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("vector store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ValidationError reports invalid arguments detected before any store call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
