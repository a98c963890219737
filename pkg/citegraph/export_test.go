package citegraph_test

import (
	"encoding/json"
	"testing"

	"github.com/soundprediction/citator/pkg/citegraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportRoundTrip(t *testing.T) {
	g := citegraph.New(citegraph.Options{})
	require.NoError(t, g.AddNode("a", citegraph.NodeOptions{Title: "A", Credibility: credibility(90)}))
	require.NoError(t, g.AddNode("b", citegraph.NodeOptions{Title: "B", Type: "paper"}))
	weight := 3.0
	require.NoError(t, g.AddEdge("a", "b", citegraph.EdgeOptions{CitationType: "extends", Weight: &weight}))

	data, err := g.ToJSON()
	require.NoError(t, err)

	restored := citegraph.New(citegraph.Options{})
	require.NoError(t, restored.FromJSON(data))

	assert.Equal(t, 2, restored.NodeCount())
	assert.Equal(t, 1, restored.EdgeCount())

	node, ok := restored.GetNode("a")
	require.True(t, ok)
	assert.Equal(t, 90.0, node.Credibility)

	edges := restored.GetOutgoingEdges("a")
	require.Len(t, edges, 1)
	assert.Equal(t, "extends", edges[0].CitationType)
	assert.Equal(t, 3.0, edges[0].Weight)
	assert.Len(t, restored.GetIncomingEdges("b"), 1)
}

func TestExportCarriesSchemaVersion(t *testing.T) {
	g := citegraph.New(citegraph.Options{})
	require.NoError(t, g.AddNode("a", citegraph.NodeOptions{Title: "A"}))

	data, err := g.ToJSON()
	require.NoError(t, err)

	var doc citegraph.ExportDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, citegraph.ExportSchemaVersion, doc.SchemaVersion)
}

func TestExportDeterministic(t *testing.T) {
	g := citegraph.New(citegraph.Options{})
	for _, id := range []string{"z", "m", "a"} {
		require.NoError(t, g.AddNode(id, citegraph.NodeOptions{Title: id}))
	}
	require.NoError(t, g.AddEdge("z", "a", citegraph.EdgeOptions{}))
	require.NoError(t, g.AddEdge("m", "a", citegraph.EdgeOptions{}))

	first, err := g.ToJSON()
	require.NoError(t, err)
	second, err := g.ToJSON()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var doc citegraph.ExportDocument
	require.NoError(t, json.Unmarshal(first, &doc))
	require.Len(t, doc.Nodes, 3)
	assert.Equal(t, "a", doc.Nodes[0].ID)
	assert.Equal(t, "z", doc.Nodes[2].ID)
}

func TestImportReplacesExistingState(t *testing.T) {
	source := citegraph.New(citegraph.Options{})
	require.NoError(t, source.AddNode("new", citegraph.NodeOptions{Title: "New"}))
	data, err := source.ToJSON()
	require.NoError(t, err)

	g := citegraph.New(citegraph.Options{})
	require.NoError(t, g.AddNode("old", citegraph.NodeOptions{Title: "Old"}))

	require.NoError(t, g.FromJSON(data))

	_, ok := g.GetNode("old")
	assert.False(t, ok, "import must replace, not merge")
	_, ok = g.GetNode("new")
	assert.True(t, ok)
}

func TestImportRejectsUnsupportedSchema(t *testing.T) {
	g := citegraph.New(citegraph.Options{})
	err := g.FromJSON([]byte(`{"schema_version": 99, "nodes": [], "edges": []}`))
	assert.Error(t, err)
}

func TestImportRejectsDanglingEdge(t *testing.T) {
	g := citegraph.New(citegraph.Options{})
	require.NoError(t, g.AddNode("keep", citegraph.NodeOptions{Title: "Keep"}))

	bad := `{
		"schema_version": 1,
		"nodes": [{"id": "a", "title": "A", "credibility": 50, "type": "knowledge"}],
		"edges": [{"source_id": "a", "target_id": "missing", "citation_type": "references", "weight": 1}]
	}`
	err := g.FromJSON([]byte(bad))
	var vErr *citegraph.ValidationError
	require.ErrorAs(t, err, &vErr)

	assert.Equal(t, 0, g.NodeCount(), "failed import must leave the graph empty, not half-loaded")
}

func TestImportMalformedJSON(t *testing.T) {
	g := citegraph.New(citegraph.Options{})
	assert.Error(t, g.FromJSON([]byte("{not json")))
}
