package embedder

import (
	"context"
	"errors"
	"fmt"
)

// TaskType tells the provider how an embedding will be used. Some models
// produce different vectors for indexing versus querying.
type TaskType string

const (
	// TaskDocument marks text that is being embedded for indexing.
	TaskDocument TaskType = "retrieval_document"
	// TaskQuery marks text that is being embedded at query time.
	TaskQuery TaskType = "retrieval_query"
)

// Client is the interface implemented by all embedding providers and wrappers.
type Client interface {
	// Embed converts text to a fixed-dimension vector. Text must be non-empty.
	Embed(ctx context.Context, text string, task TaskType) ([]float32, error)

	// Dimensions returns the length of vectors produced by this client.
	Dimensions() int

	// Close releases any resources held by the client.
	Close() error
}

// Config holds provider configuration shared by embedding clients.
type Config struct {
	// Model is the embedding model name.
	Model string
	// BaseURL points at an OpenAI-compatible service when non-empty.
	BaseURL string
	// Dimensions is the requested output dimensionality.
	Dimensions int
}

var (
	// ErrEmptyText is returned when Embed is called with empty text.
	ErrEmptyText = errors.New("text must not be empty")
)

// EmbeddingError wraps a failed provider call.
type EmbeddingError struct {
	Model string
	Err   error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed (model %s): %v", e.Model, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}
