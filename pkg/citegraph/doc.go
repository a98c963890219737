// Package citegraph maintains a directed citation graph of knowledge entries
// and computes authority signals over it.
//
// Nodes carry a credibility score; weighted, typed edges record who cites
// whom. Two derived aggregates are computed lazily and memoized:
//
//   - the per-node influence score, blending a node's own credibility with
//     the citation-weighted credibility of the nodes citing it
//   - the graph-wide PageRank vector
//
// Any node or edge mutation invalidates both aggregates wholesale. A single
// reader-writer lock guards the node set, both adjacency indexes, and the
// aggregate caches as one unit, so concurrent mutation and aggregate reads
// are safe.
//
// The graph also detects citation cycles reachable from a start node and
// exports/imports its full state as a versioned JSON document.
package citegraph
