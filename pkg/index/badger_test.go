package index_test

import (
	"context"
	"testing"

	"github.com/soundprediction/citator/pkg/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *index.BadgerStore {
	t.Helper()
	store, err := index.NewBadgerStore("") // in-memory
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetOrCreateCollection(ctx, "knowledge", map[string]string{"metric": "cosine"})
	require.NoError(t, err)

	ids := []string{"a", "b", "c"}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
	}
	metadatas := []map[string]string{
		{"topic": "physics"},
		{"topic": "biology"},
		{"topic": "physics"},
	}
	documents := []string{"doc a", "doc b", "doc c"}

	require.NoError(t, store.AddDocuments(ctx, "knowledge", ids, vectors, metadatas, documents))

	result, err := store.Query(ctx, "knowledge", []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, result.IDs, 2)

	// Exact match first, then the nearby vector
	assert.Equal(t, "a", result.IDs[0])
	assert.Equal(t, "c", result.IDs[1])
	assert.InDelta(t, 0, result.Distances[0], 1e-6)
	assert.Equal(t, "doc a", result.Documents[0])
}

func TestBadgerStoreQueryFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetOrCreateCollection(ctx, "knowledge", nil)
	require.NoError(t, err)

	require.NoError(t, store.AddDocuments(ctx, "knowledge",
		[]string{"a", "b"},
		[][]float32{{1, 0}, {1, 0}},
		[]map[string]string{{"topic": "physics"}, {"topic": "biology"}},
		nil,
	))

	result, err := store.Query(ctx, "knowledge", []float32{1, 0}, 10, map[string]string{"topic": "biology"})
	require.NoError(t, err)
	require.Len(t, result.IDs, 1)
	assert.Equal(t, "b", result.IDs[0])
}

func TestBadgerStoreUpdateAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetOrCreateCollection(ctx, "knowledge", nil)
	require.NoError(t, err)

	require.NoError(t, store.AddDocuments(ctx, "knowledge",
		[]string{"a"}, [][]float32{{1, 0}}, nil, []string{"original"}))

	require.NoError(t, store.UpdateDocuments(ctx, "knowledge",
		[]string{"a"}, nil, nil, []string{"updated"}))

	result, err := store.Query(ctx, "knowledge", []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "updated", result.Documents[0])

	require.NoError(t, store.DeleteDocuments(ctx, "knowledge", []string{"a"}))

	result, err = store.Query(ctx, "knowledge", []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, result.IDs)
}

func TestBadgerStoreDescribeAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetOrCreateCollection(ctx, "alpha", map[string]string{"kind": "test"})
	require.NoError(t, err)
	_, err = store.GetOrCreateCollection(ctx, "beta", nil)
	require.NoError(t, err)

	require.NoError(t, store.AddDocuments(ctx, "alpha",
		[]string{"1", "2"}, [][]float32{{1}, {2}}, nil, nil))

	names, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, names)

	info, err := store.DescribeCollection(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", info.Name)
	assert.Equal(t, 2, info.Count)
	assert.Equal(t, "test", info.Metadata["kind"])
}

func TestBadgerStoreMissingCollection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.AddDocuments(ctx, "ghost", []string{"a"}, [][]float32{{1}}, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, index.ErrCollectionNotFound)

	_, err = store.DescribeCollection(ctx, "ghost")
	assert.ErrorIs(t, err, index.ErrCollectionNotFound)
}

func TestBadgerStoreRejectsSeparatorInCollectionName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// "a!b" would scan inside collection "a"'s document keyspace.
	_, err := store.GetOrCreateCollection(ctx, "a!b", nil)
	var vErr *index.ValidationError
	require.ErrorAs(t, err, &vErr)

	names, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestBadgerStoreDeleteCollection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetOrCreateCollection(ctx, "doomed", nil)
	require.NoError(t, err)
	require.NoError(t, store.AddDocuments(ctx, "doomed",
		[]string{"a"}, [][]float32{{1}}, nil, nil))

	require.NoError(t, store.DeleteCollection(ctx, "doomed"))

	names, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}
