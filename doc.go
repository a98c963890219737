// Package citator provides a hybrid knowledge-retrieval engine for Go.
//
// Citator combines three pieces: a TTL-cached embedding layer over an
// embedding provider, a named-collection vector index over an external
// nearest-neighbor store, and an in-memory citation graph with influence and
// PageRank scoring. Hybrid search fuses vector similarity with graph
// influence into a single ranking.
//
// # Basic Usage
//
// Create a client over a vector store and an embedding provider:
//
//	store, err := index.NewBadgerStore("") // in-memory
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	provider := embedder.NewOpenAIEmbedder(os.Getenv("OPENAI_API_KEY"), embedder.Config{})
//
//	client, err := citator.NewClient(store, provider, nil, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
// # Indexing and Citing
//
// Documents are embedded into the vector index and registered as citation
// graph nodes under the same id:
//
//	ids, err := client.IndexDocuments(ctx, []citator.Document{
//		{ID: "attention", Title: "Attention Is All You Need", Text: "..."},
//		{ID: "bert", Title: "BERT", Text: "..."},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	err = client.Cite("bert", "attention", citegraph.EdgeOptions{CitationType: "extends"})
//
// # Searching
//
// Search fuses vector similarity with citation influence, 0.7/0.3 by
// default:
//
//	results, err := client.Search(ctx, "transformer architectures", search.Options{Limit: 5})
//	for _, hit := range results.Results {
//		fmt.Printf("%d. %s (%.3f)\n", hit.Rank, hit.ID, hit.TotalScore)
//	}
//
// # Architecture
//
//   - pkg/embedder: embedding provider clients, TTL cache, retry, circuit breaking
//   - pkg/index: vector store abstraction with Chroma and Badger backends
//   - pkg/citegraph: citation graph with influence, PageRank, and cycle detection
//   - pkg/search: hybrid fusion pipeline with query expansion and rerank hook
//
// The vector store and embedding provider are both pluggable interfaces, so
// additional backends slot in without touching the engine.
package citator
