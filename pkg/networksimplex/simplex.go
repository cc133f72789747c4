package networksimplex

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

var (
	// ErrCyclic is returned when the cost graph contains a directed cycle.
	ErrCyclic = errors.New("cost graph contains a cycle")

	// ErrDisconnected is returned when no spanning tree can be grown because
	// the cost graph falls apart into several components.
	ErrDisconnected = errors.New("cost graph is not connected")
)

const (
	removeSubtreesThreshold = 40
	fuzzyNegative           = -1e-10
)

// Solver configures a network simplex run. The zero value solves to
// optimality without balancing.
type Solver struct {
	// IterationLimit bounds the number of pivots; values <= 0 mean no limit.
	IterationLimit int
	// Balance moves nodes with equal in- and out-degree to less filled ranks.
	Balance bool
	// PreviousLayering holds node counts per rank from earlier solves that
	// share the same ranks. It only influences balancing.
	PreviousLayering []int
}

// Solve assigns a rank to every node of g. Ranks start at 0.
func (s Solver) Solve(g *Graph) error {
	if len(g.Nodes) == 0 {
		return nil
	}
	if err := checkAcyclic(g); err != nil {
		return err
	}
	for _, n := range g.Nodes {
		n.Rank = 0
	}

	limit := s.IterationLimit
	if limit <= 0 {
		limit = math.MaxInt
	}

	st := &state{nodes: slices.Clone(g.Nodes)}
	removeSubtrees := len(st.nodes) >= removeSubtreesThreshold
	if removeSubtrees {
		st.removeSubtrees()
	}

	st.initialize()
	if err := st.feasibleTree(); err != nil {
		return err
	}

	for iter := 0; iter < limit; iter++ {
		leave := st.leaveEdge()
		if leave == nil {
			break
		}
		enter := st.enterEdge(leave)
		if enter == nil {
			break
		}
		st.exchange(leave, enter)
	}

	if removeSubtrees {
		st.reattachSubtrees()
	}
	filling := st.normalize(s.PreviousLayering)
	if s.Balance {
		st.balance(filling)
	}
	return nil
}

func checkAcyclic(g *Graph) error {
	dg := simple.NewDirectedGraph()
	ids := make(map[*Node]int64, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[n] = int64(i)
		dg.AddNode(simple.Node(int64(i)))
	}
	for _, n := range g.Nodes {
		for _, e := range n.out {
			from, ok := ids[e.Source]
			to, ok2 := ids[e.Target]
			if !ok || !ok2 {
				return fmt.Errorf("networksimplex: edge endpoint outside graph")
			}
			if from == to {
				return fmt.Errorf("%w: self-loop", ErrCyclic)
			}
			dg.SetEdge(dg.NewEdge(simple.Node(from), simple.Node(to)))
		}
	}
	if _, err := topo.Sort(dg); err != nil {
		return fmt.Errorf("%w: %v", ErrCyclic, err)
	}
	return nil
}

type leaf struct {
	node *Node
	edge *Edge
}

type state struct {
	nodes     []*Node
	edges     []*Edge
	treeEdges []*Edge
	sources   []*Node

	edgeVisited []bool
	postOrder   int
	poID        []int
	lowestPoID  []int
	cutvalue    []float64

	subtrees []leaf
}

// removeSubtrees strips leaves repeatedly. Each stripped node remembers the
// edge that connected it so it can be reattached at optimal length.
func (st *state) removeSubtrees() {
	var queue []*Node
	for _, n := range st.nodes {
		if len(n.in)+len(n.out) == 1 {
			queue = append(queue, n)
		}
	}
	removed := make(map[*Node]bool)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if len(n.in)+len(n.out) == 0 {
			continue
		}
		var e *Edge
		isOut := len(n.out) > 0
		if isOut {
			e = n.out[0]
		} else {
			e = n.in[0]
		}
		other := e.other(n)
		if isOut {
			other.in = removeEdge(other.in, e)
		} else {
			other.out = removeEdge(other.out, e)
		}
		if len(other.in)+len(other.out) == 1 {
			queue = append(queue, other)
		}
		st.subtrees = append(st.subtrees, leaf{node: n, edge: e})
		removed[n] = true
	}
	st.nodes = slices.DeleteFunc(st.nodes, func(n *Node) bool { return removed[n] })
}

func (st *state) reattachSubtrees() {
	for i := len(st.subtrees) - 1; i >= 0; i-- {
		lf := st.subtrees[i]
		placed := lf.edge.other(lf.node)
		if lf.edge.Target == lf.node {
			placed.out = append(placed.out, lf.edge)
			lf.node.Rank = placed.Rank + lf.edge.Delta
		} else {
			placed.in = append(placed.in, lf.edge)
			lf.node.Rank = placed.Rank - lf.edge.Delta
		}
		st.nodes = append(st.nodes, lf.node)
	}
	st.subtrees = nil
}

func (st *state) initialize() {
	st.sources = nil
	st.edges = nil
	for i, n := range st.nodes {
		n.id = i
		n.treeNode = false
		if len(n.in) == 0 {
			st.sources = append(st.sources, n)
		}
		st.edges = append(st.edges, n.out...)
	}
	for i, e := range st.edges {
		e.id = i
		e.treeEdge = false
	}
	st.poID = make([]int, len(st.nodes))
	st.lowestPoID = make([]int, len(st.nodes))
	st.cutvalue = make([]float64, len(st.edges))
	st.edgeVisited = make([]bool, len(st.edges))
	st.treeEdges = make([]*Edge, 0, len(st.nodes))
	st.postOrder = 1
}

func (st *state) clearVisited() {
	clear(st.edgeVisited)
}

func (st *state) feasibleTree() error {
	st.topologicalNumbering()
	if len(st.edges) == 0 {
		if len(st.nodes) > 1 {
			return ErrDisconnected
		}
		return nil
	}

	st.clearVisited()
	for st.tightTreeDFS(st.nodes[0]) < len(st.nodes) {
		e := st.minimalSlack()
		if e == nil {
			return ErrDisconnected
		}
		slack := e.slack()
		if e.Target.treeNode {
			slack = -slack
		}
		for _, n := range st.nodes {
			if n.treeNode {
				n.Rank += slack
			}
		}
		st.clearVisited()
	}
	st.clearVisited()
	st.postorderTraversal(st.nodes[0])
	st.cutvalues()
	return nil
}

func (st *state) topologicalNumbering() {
	incident := make([]int, len(st.nodes))
	for _, n := range st.nodes {
		incident[n.id] = len(n.in)
	}
	queue := slices.Clone(st.sources)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, e := range n.out {
			t := e.Target
			t.Rank = max(t.Rank, n.Rank+e.Delta)
			incident[t.id]--
			if incident[t.id] == 0 {
				queue = append(queue, t)
			}
		}
	}
}

// tightTreeDFS grows the tree over tight edges and returns its node count.
func (st *state) tightTreeDFS(n *Node) int {
	count := 1
	n.treeNode = true
	for _, e := range n.connected() {
		if st.edgeVisited[e.id] {
			continue
		}
		st.edgeVisited[e.id] = true
		opposite := e.other(n)
		if e.treeEdge {
			count += st.tightTreeDFS(opposite)
		} else if !opposite.treeNode && e.slack() == 0 {
			e.treeEdge = true
			st.treeEdges = append(st.treeEdges, e)
			count += st.tightTreeDFS(opposite)
		}
	}
	return count
}

func (st *state) minimalSlack() *Edge {
	minSlack := math.MaxInt
	var best *Edge
	for _, e := range st.edges {
		if e.Source.treeNode != e.Target.treeNode {
			if s := e.slack(); s < minSlack {
				minSlack = s
				best = e
			}
		}
	}
	return best
}

func (st *state) postorderTraversal(n *Node) int {
	lowest := math.MaxInt
	for _, e := range n.connected() {
		if e.treeEdge && !st.edgeVisited[e.id] {
			st.edgeVisited[e.id] = true
			lowest = min(lowest, st.postorderTraversal(e.other(n)))
		}
	}
	st.poID[n.id] = st.postOrder
	st.lowestPoID[n.id] = min(lowest, st.postOrder)
	st.postOrder++
	return st.lowestPoID[n.id]
}

// isInHead reports whether n lies in the head component when the tree edge
// e is removed from the spanning tree.
func (st *state) isInHead(n *Node, e *Edge) bool {
	src, tgt := e.Source, e.Target
	po := st.poID[n.id]
	if st.lowestPoID[src.id] <= po && po <= st.poID[src.id] &&
		st.lowestPoID[tgt.id] <= po && po <= st.poID[tgt.id] {
		return st.poID[src.id] >= st.poID[tgt.id]
	}
	return st.poID[src.id] < st.poID[tgt.id]
}

func (st *state) cutvalues() {
	var leafs []*Node
	for _, n := range st.nodes {
		n.unknownCut = n.unknownCut[:0]
		for _, e := range n.connected() {
			if e.treeEdge {
				n.unknownCut = append(n.unknownCut, e)
			}
		}
		if len(n.unknownCut) == 1 {
			leafs = append(leafs, n)
		}
	}

	for _, start := range leafs {
		n := start
		for len(n.unknownCut) == 1 {
			det := n.unknownCut[0]
			cv := det.Weight
			src, tgt := det.Source, det.Target
			for _, e := range n.connected() {
				if e == det {
					continue
				}
				switch {
				case e.treeEdge:
					if src == e.Source || tgt == e.Target {
						cv -= st.cutvalue[e.id] - e.Weight
					} else {
						cv += st.cutvalue[e.id] - e.Weight
					}
				case n == src:
					if e.Source == n {
						cv += e.Weight
					} else {
						cv -= e.Weight
					}
				default:
					if e.Source == n {
						cv -= e.Weight
					} else {
						cv += e.Weight
					}
				}
			}
			st.cutvalue[det.id] = cv
			src.unknownCut = removeEdge(src.unknownCut, det)
			tgt.unknownCut = removeEdge(tgt.unknownCut, det)
			if src == n {
				n = tgt
			} else {
				n = src
			}
		}
	}
}

func (st *state) leaveEdge() *Edge {
	for _, e := range st.treeEdges {
		if e.treeEdge && st.cutvalue[e.id] < fuzzyNegative {
			return e
		}
	}
	return nil
}

func (st *state) enterEdge(leave *Edge) *Edge {
	var best *Edge
	bestSlack := math.MaxInt
	for _, e := range st.edges {
		if st.isInHead(e.Source, leave) && !st.isInHead(e.Target, leave) {
			if s := e.slack(); s < bestSlack {
				bestSlack = s
				best = e
			}
		}
	}
	return best
}

func (st *state) exchange(leave, enter *Edge) {
	leave.treeEdge = false
	st.treeEdges = removeEdge(st.treeEdges, leave)
	enter.treeEdge = true
	st.treeEdges = append(st.treeEdges, enter)

	delta := enter.slack()
	if !st.isInHead(enter.Target, leave) {
		delta = -delta
	}
	for _, n := range st.nodes {
		if !st.isInHead(n, leave) {
			n.Rank += delta
		}
	}

	st.postOrder = 1
	st.clearVisited()
	st.postorderTraversal(st.nodes[0])
	st.cutvalues()
}

// normalize shifts ranks to start at 0 and returns the node count per rank,
// including counts carried over from earlier solves.
func (st *state) normalize(previous []int) []int {
	lowest, highest := math.MaxInt, math.MinInt
	for _, n := range st.nodes {
		lowest = min(lowest, n.Rank)
		highest = max(highest, n.Rank)
	}
	filling := make([]int, highest-lowest+1)
	for _, n := range st.nodes {
		n.Rank -= lowest
		filling[n.Rank]++
	}
	for i, c := range previous {
		if i >= len(filling) {
			break
		}
		filling[i] += c
	}
	return filling
}

// minimalSpan returns the shortest incoming and outgoing edge spans of n,
// or -1 where there is no such edge.
func minimalSpan(n *Node) (in, out int) {
	in, out = math.MaxInt, math.MaxInt
	for _, e := range n.in {
		in = min(in, e.Target.Rank-e.Source.Rank)
	}
	for _, e := range n.out {
		out = min(out, e.Target.Rank-e.Source.Rank)
	}
	if in == math.MaxInt {
		in = -1
	}
	if out == math.MaxInt {
		out = -1
	}
	return in, out
}

func (st *state) balance(filling []int) {
	for _, n := range st.nodes {
		if len(n.in) != len(n.out) {
			continue
		}
		newRank := n.Rank
		spanIn, spanOut := minimalSpan(n)
		for i := n.Rank - spanIn + 1; i < n.Rank+spanOut; i++ {
			if filling[i] < filling[newRank] {
				newRank = i
			}
		}
		if filling[newRank] < filling[n.Rank] {
			filling[n.Rank]--
			filling[newRank]++
			n.Rank = newRank
		}
	}
}
