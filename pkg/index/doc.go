// Package index provides a named-collection vector index over a pluggable
// nearest-neighbor store.
//
// The Store interface is the boundary to the backing store. Two backends are
// provided:
//
//   - ChromaStore: REST client for a ChromaDB server, the store the engine is
//     deployed against.
//   - BadgerStore: embedded store on BadgerDB with a brute-force cosine scan,
//     for tests and single-node deployments.
//
// Index layers collection-handle caching and text convenience operations
// (AddDocumentsWithText, QueryByText) on top of a Store, routing all
// text-to-vector conversion through the embedding cache.
//
// Backing-store failures surface synchronously as *StoreError with no
// built-in retry; callers needing resilience add it at the boundary.
package index
