// Package transform provides the phases that surround layering and node
// placement in a complete layout run.
//
// # Overview
//
// Layering expects an acyclic graph and node placement expects every edge to
// connect two consecutive layers in a fixed order. The functions here
// establish those preconditions and turn the result back into a drawing:
//
//	transform.BreakCycles(g)            // reverse back edges
//	layerer.Layer(g)                    // package layering
//	transform.SplitLongEdges(g)         // long-edge dummies
//	transform.OrderLayers(g, 24)        // barycenter sweeps
//	placer.Place(ctx, g)                // package bk
//	transform.AssignX(g, spacing)       // layer columns
//	transform.JoinLongEdges(g)          // bend points
//	transform.RestoreReversed(g)        // original directions
//
// # Cycle Breaking
//
// [BreakCycles] runs a depth-first search from the sources and reverses every
// edge that closes a cycle. Unlike removal, reversal keeps the edge in the
// drawing; [lgraph.Edge.Reversed] records the flip so [RestoreReversed] can
// undo it at the end. [BreakCyclesByModelOrder] instead reverses every edge
// that runs against the model order, which is what model-order layering
// requires.
//
// # Long Edges
//
// [SplitLongEdges] replaces an edge spanning k layers by a chain of k-1
// zero-sized [lgraph.NodeTypeLongEdge] dummies, one per crossed layer.
// Chains of dummies form the inner segments node placement keeps straight.
// [JoinLongEdges] removes the dummies again and stores their coordinates as
// bend points on the original edge.
//
// # Ordering
//
// [OrderLayers] applies alternating down and up barycenter sweeps and keeps
// the order with the fewest crossings seen. Crossings between two layers are
// counted as inversions with a Fenwick tree, see [CountCrossings].
package transform
