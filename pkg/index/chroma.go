package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// ChromaStore implements Store against a ChromaDB server's REST API.
// Collections are addressed by server-assigned ids; the name-to-id mapping is
// cached after the first lookup.
type ChromaStore struct {
	baseURL string
	client  *http.Client

	mu  sync.Mutex
	ids map[string]string // collection name -> server id
}

// ChromaConfig holds configuration for the Chroma backend.
type ChromaConfig struct {
	// URL is the base URL of the Chroma server, e.g. "http://localhost:8000".
	URL string
	// Timeout bounds each HTTP call. Defaults to 30s.
	Timeout time.Duration
}

// NewChromaStore creates a store backed by a ChromaDB server.
func NewChromaStore(config ChromaConfig) *ChromaStore {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &ChromaStore{
		baseURL: config.URL,
		client:  &http.Client{Timeout: config.Timeout},
		ids:     make(map[string]string),
	}
}

type chromaCollection struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

func (s *ChromaStore) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrCollectionNotFound
	}
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("chroma returned %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// collectionID resolves a collection name to its server id.
func (s *ChromaStore) collectionID(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	id, ok := s.ids[name]
	s.mu.Unlock()
	if ok {
		return id, nil
	}

	var coll chromaCollection
	if err := s.do(ctx, http.MethodGet, "/api/v1/collections/"+name, nil, &coll); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.ids[name] = coll.ID
	s.mu.Unlock()
	return coll.ID, nil
}

// GetOrCreateCollection implements Store.
func (s *ChromaStore) GetOrCreateCollection(ctx context.Context, name string, metadata map[string]string) (*CollectionInfo, error) {
	body := map[string]interface{}{
		"name":          name,
		"get_or_create": true,
	}
	if len(metadata) > 0 {
		body["metadata"] = metadata
	}

	var coll chromaCollection
	if err := s.do(ctx, http.MethodPost, "/api/v1/collections", body, &coll); err != nil {
		return nil, &StoreError{Op: "create collection", Err: err}
	}

	s.mu.Lock()
	s.ids[name] = coll.ID
	s.mu.Unlock()

	return &CollectionInfo{Name: name, Metadata: coll.Metadata}, nil
}

// AddDocuments implements Store.
func (s *ChromaStore) AddDocuments(ctx context.Context, collection string, ids []string, vectors [][]float32, metadatas []map[string]string, documents []string) error {
	id, err := s.collectionID(ctx, collection)
	if err != nil {
		return &StoreError{Op: "add", Err: err}
	}

	body := map[string]interface{}{
		"ids":        ids,
		"embeddings": vectors,
	}
	if metadatas != nil {
		body["metadatas"] = metadatas
	}
	if documents != nil {
		body["documents"] = documents
	}

	if err := s.do(ctx, http.MethodPost, "/api/v1/collections/"+id+"/add", body, nil); err != nil {
		return &StoreError{Op: "add", Err: err}
	}
	return nil
}

type chromaQueryResponse struct {
	IDs       [][]string            `json:"ids"`
	Distances [][]float32           `json:"distances"`
	Metadatas [][]map[string]string `json:"metadatas"`
	Documents [][]string            `json:"documents"`
}

// Query implements Store.
func (s *ChromaStore) Query(ctx context.Context, collection string, vector []float32, topK int, filter map[string]string) (*QueryResult, error) {
	id, err := s.collectionID(ctx, collection)
	if err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}

	body := map[string]interface{}{
		"query_embeddings": [][]float32{vector},
		"n_results":        topK,
		"include":          []string{"distances", "metadatas", "documents"},
	}
	if len(filter) > 0 {
		body["where"] = filter
	}

	var resp chromaQueryResponse
	if err := s.do(ctx, http.MethodPost, "/api/v1/collections/"+id+"/query", body, &resp); err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}

	result := &QueryResult{}
	if len(resp.IDs) > 0 {
		result.IDs = resp.IDs[0]
	}
	if len(resp.Distances) > 0 {
		result.Distances = resp.Distances[0]
	}
	if len(resp.Metadatas) > 0 {
		result.Metadatas = resp.Metadatas[0]
	}
	if len(resp.Documents) > 0 {
		result.Documents = resp.Documents[0]
	}
	// Consumers index these arrays by position, so a response whose arrays
	// do not parallel ids must be rejected here rather than panic later.
	if err := validateResultParallel(result); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateDocuments implements Store.
func (s *ChromaStore) UpdateDocuments(ctx context.Context, collection string, ids []string, vectors [][]float32, metadatas []map[string]string, documents []string) error {
	id, err := s.collectionID(ctx, collection)
	if err != nil {
		return &StoreError{Op: "update", Err: err}
	}

	body := map[string]interface{}{
		"ids": ids,
	}
	if vectors != nil {
		body["embeddings"] = vectors
	}
	if metadatas != nil {
		body["metadatas"] = metadatas
	}
	if documents != nil {
		body["documents"] = documents
	}

	if err := s.do(ctx, http.MethodPost, "/api/v1/collections/"+id+"/update", body, nil); err != nil {
		return &StoreError{Op: "update", Err: err}
	}
	return nil
}

// DeleteDocuments implements Store.
func (s *ChromaStore) DeleteDocuments(ctx context.Context, collection string, ids []string) error {
	id, err := s.collectionID(ctx, collection)
	if err != nil {
		return &StoreError{Op: "delete", Err: err}
	}

	body := map[string]interface{}{"ids": ids}
	if err := s.do(ctx, http.MethodPost, "/api/v1/collections/"+id+"/delete", body, nil); err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	return nil
}

// DeleteCollection implements Store.
func (s *ChromaStore) DeleteCollection(ctx context.Context, name string) error {
	if err := s.do(ctx, http.MethodDelete, "/api/v1/collections/"+name, nil, nil); err != nil {
		return &StoreError{Op: "delete collection", Err: err}
	}

	s.mu.Lock()
	delete(s.ids, name)
	s.mu.Unlock()
	return nil
}

// ListCollections implements Store.
func (s *ChromaStore) ListCollections(ctx context.Context) ([]string, error) {
	var colls []chromaCollection
	if err := s.do(ctx, http.MethodGet, "/api/v1/collections", nil, &colls); err != nil {
		return nil, &StoreError{Op: "list collections", Err: err}
	}

	names := make([]string, 0, len(colls))
	for _, c := range colls {
		names = append(names, c.Name)
	}
	return names, nil
}

// DescribeCollection implements Store.
func (s *ChromaStore) DescribeCollection(ctx context.Context, name string) (*CollectionInfo, error) {
	var coll chromaCollection
	if err := s.do(ctx, http.MethodGet, "/api/v1/collections/"+name, nil, &coll); err != nil {
		return nil, &StoreError{Op: "describe collection", Err: err}
	}

	var count int
	if err := s.do(ctx, http.MethodGet, "/api/v1/collections/"+coll.ID+"/count", nil, &count); err != nil {
		return nil, &StoreError{Op: "describe collection", Err: err}
	}

	return &CollectionInfo{Name: name, Metadata: coll.Metadata, Count: count}, nil
}

// Close implements Store.
func (s *ChromaStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
