package embedder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soundprediction/citator/pkg/embedder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyProvider fails a fixed number of times before succeeding.
type flakyProvider struct {
	failures int
	calls    int
	err      error
}

func (f *flakyProvider) Embed(ctx context.Context, text string, task embedder.TaskType) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []float32{1, 2, 3}, nil
}

func (f *flakyProvider) Dimensions() int { return 3 }
func (f *flakyProvider) Close() error    { return nil }

func TestRetryClientRecoversFromTransientErrors(t *testing.T) {
	provider := &flakyProvider{failures: 2, err: errors.New("503 service unavailable")}
	client := embedder.NewRetryClient(provider, &embedder.RetryConfig{
		MaxRetries:        3,
		InitialDelay:      time.Millisecond,
		MaxDelay:          10 * time.Millisecond,
		BackoffMultiplier: 2.0,
	})

	vector, err := client.Embed(context.Background(), "hello", embedder.TaskQuery)
	require.NoError(t, err)
	assert.Len(t, vector, 3)
	assert.Equal(t, 3, provider.calls)
}

func TestRetryClientStopsOnPermanentError(t *testing.T) {
	provider := &flakyProvider{failures: 10, err: errors.New("invalid api key")}
	client := embedder.NewRetryClient(provider, &embedder.RetryConfig{
		MaxRetries:        5,
		InitialDelay:      time.Millisecond,
		BackoffMultiplier: 2.0,
	})

	_, err := client.Embed(context.Background(), "hello", embedder.TaskQuery)
	require.Error(t, err)
	assert.Equal(t, 1, provider.calls, "non-retryable errors must fail immediately")
}

func TestRetryClientExhaustsRetries(t *testing.T) {
	provider := &flakyProvider{failures: 10, err: errors.New("rate limit exceeded")}
	client := embedder.NewRetryClient(provider, &embedder.RetryConfig{
		MaxRetries:        2,
		InitialDelay:      time.Millisecond,
		BackoffMultiplier: 2.0,
	})

	_, err := client.Embed(context.Background(), "hello", embedder.TaskQuery)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 retries")
	assert.Equal(t, 3, provider.calls)
}
