// Package lgraph provides the layered graph model shared by all layout phases.
//
// A [Graph] holds an ordered sequence of [Layer] values, each an ordered
// sequence of [Node] values, plus the nodes that have not been assigned a
// layer yet ([Graph.Layerless]). Edges connect [Port] values, and ports
// belong to nodes. Layer order defines the primary layout axis; the order of
// nodes within a layer defines in-layer adjacency, which node placement
// depends on.
//
// # Node Types
//
// Besides regular nodes ([NodeTypeNormal]) the model carries two kinds of
// dummy nodes:
//
//   - [NodeTypeLongEdge]: a bend point of an edge spanning several layers
//   - [NodeTypeLabel]: the position reserved for an edge label
//
// # Scratch Indexes
//
// Algorithms never store per-run data on nodes. Each invocation builds an
// [Index] that maps nodes to dense integers and allocates its own slices
// indexed by them, so independent runs (for example the four directional
// Brandes–Koepf layouts) can execute concurrently on the same graph.
//
// # Invariants
//
// After layering, [Graph.Validate] holds: every node is in exactly one layer,
// no layerless nodes remain, and every edge that is not a self-loop leads
// from an earlier layer to a later one.
package lgraph
