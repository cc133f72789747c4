// Package layering assigns the nodes of a layered graph to layers.
//
// # Overview
//
// Layering is the second phase of a Sugiyama-style layout: after cycle
// breaking has made the graph acyclic, every node is put into one of an
// ordered sequence of layers such that all edges point from an earlier layer
// to a later one. The choice of layerer decides how tall (number of layers)
// and how wide (nodes per layer) the final drawing becomes.
//
// All strategies share the [Layerer] contract:
//
//   - Input: nodes in [lgraph.Graph.Layerless] and the edges between them.
//     Self-loops are ignored.
//   - Output: every node sits in a layer of g.Layers, the layerless list is
//     empty, and every non-self-loop edge points to a strictly later layer.
//
// # Strategies
//
//   - [LongestPath]: sinks at the bottom, every node as high as its longest
//     path to a sink allows. Fast, few layers, often wide.
//   - [NetworkSimplex]: minimizes the total weighted edge span. The default.
//   - [CoffmanGraham]: bounds the number of nodes per layer.
//   - [Interactive]: keeps layers derived from existing x coordinates.
//   - [MinWidth] and [StretchWidth]: heuristics for narrow layerings that
//     account for node sizes and dummy nodes of long edges.
//   - [BreadthFirstModelOrder] and [DepthFirstModelOrder]: layer nodes
//     strictly in input order.
//
// Use [New] to construct a layerer from a [Strategy] name and [Config].
//
// # Errors
//
// Graphs an algorithm cannot process are reported as
// UNSUPPORTED_GRAPH errors from layerkit's errors package; no partial
// layering is left behind in that case.
package layering
