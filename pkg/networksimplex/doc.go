// Package networksimplex assigns integer ranks to the nodes of a directed
// acyclic cost graph.
//
// Given edges with weight w and minimum length δ, the solver finds ranks
// that minimize Σ w·(rank(target) − rank(source)) subject to
// rank(target) − rank(source) ≥ δ for every edge. This is the classic
// network simplex formulation of Gansner et al. used for layer assignment.
//
// # Algorithm
//
//  1. Leaf subtrees are removed from graphs with at least 40 nodes and
//     reattached at the end; they can always be placed optimally.
//  2. An initial feasible ranking comes from a longest-path topological
//     numbering; a tight spanning tree is grown around it by shifting the
//     tree by the minimal slack of an incident non-tree edge.
//  3. Cut values are computed for all tree edges. While a tree edge has a
//     negative cut value it is exchanged for the non-tree edge of minimal
//     slack crossing the same cut, up to [Solver.IterationLimit] pivots.
//  4. Ranks are shifted so the smallest is 0. With [Solver.Balance] set,
//     nodes whose in- and out-degree match move to the least filled rank
//     within their feasible range, counting [Solver.PreviousLayering].
//
// # Preconditions
//
// The graph must be connected and acyclic. Cycles are detected up front and
// reported as [ErrCyclic]; a disconnected graph yields [ErrDisconnected].
package networksimplex
