package embedder

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultModel      = string(openai.SmallEmbedding3)
	defaultDimensions = 768
)

// OpenAIEmbedder implements the Client interface using the OpenAI embeddings
// API. It also works with OpenAI-compatible services through a custom BaseURL.
type OpenAIEmbedder struct {
	client *openai.Client
	config Config
}

// NewOpenAIEmbedder creates a new OpenAI embedding client.
func NewOpenAIEmbedder(apiKey string, config Config) *OpenAIEmbedder {
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.Dimensions <= 0 {
		config.Dimensions = defaultDimensions
	}

	var client *openai.Client
	if config.BaseURL != "" {
		// Some compatible services don't require authentication
		if apiKey == "" {
			apiKey = "dummy-key"
		}
		clientConfig := openai.DefaultConfig(apiKey)
		clientConfig.BaseURL = config.BaseURL
		client = openai.NewClientWithConfig(clientConfig)
	} else {
		client = openai.NewClient(apiKey)
	}

	return &OpenAIEmbedder{
		client: client,
		config: config,
	}
}

// Embed generates an embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string, task TaskType) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	req := openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(e.config.Model),
		Dimensions: e.config.Dimensions,
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, &EmbeddingError{Model: e.config.Model, Err: err}
	}
	if len(resp.Data) == 0 {
		return nil, &EmbeddingError{Model: e.config.Model, Err: fmt.Errorf("no embeddings returned")}
	}

	return resp.Data[0].Embedding, nil
}

// Dimensions returns the number of dimensions in the embeddings.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.config.Dimensions
}

// Close cleans up any resources.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
