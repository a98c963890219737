// Package search implements hybrid retrieval over a vector index and a
// citation graph. A query is optionally expanded, candidates are over-fetched
// by vector similarity, and each candidate's similarity is fused with its
// graph influence into a single ranking score before an optional rerank pass.
package search
