package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/citator"
	"github.com/soundprediction/citator/pkg/citegraph"
	"github.com/soundprediction/citator/pkg/config"
	"github.com/soundprediction/citator/pkg/embedder"
	"github.com/soundprediction/citator/pkg/search"
)

// stubClient implements citator.Citator with canned responses.
type stubClient struct {
	indexed   []citator.Document
	cited     [][2]string
	searchErr error
}

func (s *stubClient) Search(_ context.Context, query string, _ search.Options) (*search.Results, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return &search.Results{
		Query:   query,
		Results: []search.Result{{ID: "doc1", Rank: 1, TotalScore: 0.87}},
	}, nil
}

func (s *stubClient) IndexDocuments(_ context.Context, docs []citator.Document) ([]string, error) {
	s.indexed = append(s.indexed, docs...)
	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	return ids, nil
}

func (s *stubClient) DeleteDocuments(_ context.Context, _ []string) error { return nil }

func (s *stubClient) Cite(sourceID, targetID string, _ citegraph.EdgeOptions) error {
	if sourceID == targetID {
		return &citegraph.ValidationError{Field: "targetID", Reason: "self-citation"}
	}
	s.cited = append(s.cited, [2]string{sourceID, targetID})
	return nil
}

func (s *stubClient) InfluenceScore(id string) (float64, error) {
	if id == "missing" {
		return 0, citator.ErrNodeNotFound
	}
	return 67, nil
}

func (s *stubClient) PageRank() map[string]float64 { return map[string]float64{"doc1": 100} }

func (s *stubClient) DetectCycles(startID string) ([][]string, error) {
	if startID == "missing" {
		return nil, citator.ErrNodeNotFound
	}
	return nil, nil
}

func (s *stubClient) GraphStatistics() citegraph.Statistics {
	return citegraph.Statistics{NodeCount: 2, EdgeCount: 1}
}

func (s *stubClient) ExportGraph() ([]byte, error) { return []byte(`{"schema_version":1}`), nil }
func (s *stubClient) ImportGraph(data []byte) error {
	if !json.Valid(data) {
		return &citegraph.ValidationError{Field: "document", Reason: "malformed"}
	}
	return nil
}
func (s *stubClient) Stats() citator.Stats {
	return citator.Stats{Cache: embedder.Stats{HitRate: 0.5}}
}
func (s *stubClient) Close() error { return nil }

func newTestServer(t *testing.T) (*Server, *stubClient) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client := &stubClient{}
	cfg := &config.Config{}
	cfg.Server.Mode = gin.TestMode

	srv := New(cfg, client)
	srv.Setup()
	return srv, client
}

func doRequest(srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/health", "/live", "/ready", "/health/detailed"} {
		w := doRequest(srv, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestSearchEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(map[string]any{"query": "transformers", "limit": 5})
	w := doRequest(srv, http.MethodPost, "/api/v1/search", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Query   string          `json:"query"`
			Results []search.Result `json:"results"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "transformers", resp.Data.Query)
	require.Len(t, resp.Data.Results, 1)
	assert.Equal(t, "doc1", resp.Data.Results[0].ID)
}

func TestSearchEndpointValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(srv, http.MethodPost, "/api/v1/search", []byte(`{"query": ""}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(srv, http.MethodPost, "/api/v1/search", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIndexDocumentsEndpoint(t *testing.T) {
	srv, client := newTestServer(t)

	body, _ := json.Marshal(map[string]any{
		"documents": []map[string]any{
			{"id": "a", "title": "A", "text": "text a"},
		},
	})
	w := doRequest(srv, http.MethodPost, "/api/v1/documents", body)
	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, client.indexed, 1)
	assert.Equal(t, "a", client.indexed[0].ID)
}

func TestIndexDocumentsRejectsInvalidPayload(t *testing.T) {
	srv, client := newTestServer(t)

	body, _ := json.Marshal(map[string]any{
		"documents": []map[string]any{
			{"id": "a", "title": "A", "text": "ok"},
			{"id": "b", "title": "B", "text": "fine", "credibility": 250},
		},
	})
	w := doRequest(srv, http.MethodPost, "/api/v1/documents", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, client.indexed, "no document may be indexed when any payload is invalid")
}

func TestCiteEndpoint(t *testing.T) {
	srv, client := newTestServer(t)

	body, _ := json.Marshal(map[string]any{"source_id": "b", "target_id": "a"})
	w := doRequest(srv, http.MethodPost, "/api/v1/graph/citations", body)
	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, client.cited, 1)

	body, _ = json.Marshal(map[string]any{"source_id": "a", "target_id": "a"})
	w = doRequest(srv, http.MethodPost, "/api/v1/graph/citations", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInfluenceEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(srv, http.MethodGet, "/api/v1/graph/influence/doc1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(srv, http.MethodGet, "/api/v1/graph/influence/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGraphExportImportEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(srv, http.MethodGet, "/api/v1/graph/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"schema_version":1}`, w.Body.String())

	w = doRequest(srv, http.MethodPost, "/api/v1/graph/import", w.Body.Bytes())
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(srv, http.MethodPost, "/api/v1/graph/import", []byte("{broken"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(srv, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get("X-Request-ID"))
}
