package layering

import (
	"container/heap"

	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// CoffmanGraham layers a graph so that no layer holds more than Bound nodes.
// Transitive edges are ignored, nodes are ordered topologically with
// lexicographic tie-breaking on the order of their predecessors, and layers
// are then filled greedily from the sinks upward. A layer is also closed
// early when adding a node would create an edge inside it.
//
// Only nodes present during layering count toward the bound; dummies added
// later for long edges may make a layer wider.
type CoffmanGraham struct {
	Bound int
}

type cgState struct {
	ix       *lgraph.Index
	edges    []*lgraph.Edge
	edgeID   map[*lgraph.Edge]int
	edgeMark []bool // transitive edges
	nodeMark []bool
	topoOrd  []int
	inTopo   [][]int // topological numbers of already ordered predecessors
}

// Layer implements [Layerer].
func (c CoffmanGraham) Layer(g *lgraph.Graph) error {
	nodes := g.Layerless
	if len(nodes) == 0 {
		return nil
	}
	st := &cgState{
		ix:     lgraph.NewIndex(nodes),
		edgeID: make(map[*lgraph.Edge]int),
	}
	for _, n := range nodes {
		for _, e := range n.Outgoing() {
			if e.IsSelfLoop() {
				continue
			}
			if _, ok := st.ix.Lookup(e.TargetNode()); !ok {
				continue
			}
			st.edgeID[e] = len(st.edges)
			st.edges = append(st.edges, e)
		}
	}
	count := st.ix.Len()
	succ := make([][]int, count)
	for i, n := range nodes {
		succ[i] = successors(st.ix, n)
	}
	if err := requireAcyclic(succ, "coffman-graham"); err != nil {
		return err
	}
	st.nodeMark = make([]bool, count)
	st.edgeMark = make([]bool, len(st.edges))
	st.topoOrd = make([]int, count)
	st.inTopo = make([][]int, count)

	st.transitiveReduction()

	inDeg := make([]int, count)
	sources := &nodeHeap{less: st.compareInTopo}
	for v, n := range nodes {
		for _, e := range st.incoming(n) {
			if !st.edgeMark[st.edgeID[e]] {
				inDeg[v]++
			}
		}
		if inDeg[v] == 0 {
			heap.Push(sources, v)
		}
	}
	next := 0
	for sources.Len() > 0 {
		v := heap.Pop(sources).(int)
		st.topoOrd[v] = next
		next++
		for _, e := range st.outgoing(nodes[v]) {
			if st.edgeMark[st.edgeID[e]] {
				continue
			}
			t := st.ix.Of(e.TargetNode())
			inDeg[t]--
			st.inTopo[t] = append(st.inTopo[t], st.topoOrd[v])
			if inDeg[t] == 0 {
				heap.Push(sources, t)
			}
		}
	}

	outDeg := make([]int, count)
	sinks := &nodeHeap{less: func(a, b int) bool { return st.topoOrd[a] > st.topoOrd[b] }}
	for v, n := range nodes {
		for _, e := range st.outgoing(n) {
			if !st.edgeMark[st.edgeID[e]] {
				outDeg[v]++
			}
		}
		if outDeg[v] == 0 {
			heap.Push(sinks, v)
		}
	}

	// Layers are built bottom-up and reversed at the end.
	var layers [][]*lgraph.Node
	layerOf := make([]int, count)
	for i := range layerOf {
		layerOf[i] = -1
	}
	layers = append(layers, nil)
	for sinks.Len() > 0 {
		u := heap.Pop(sinks).(int)
		cur := len(layers) - 1
		if len(layers[cur]) >= c.Bound || !st.canAdd(u, cur, layerOf) {
			layers = append(layers, nil)
			cur++
		}
		layers[cur] = append(layers[cur], nodes[u])
		layerOf[u] = cur
		for _, e := range st.incoming(nodes[u]) {
			if st.edgeMark[st.edgeID[e]] {
				continue
			}
			s := st.ix.Of(e.SourceNode())
			outDeg[s]--
			if outDeg[s] == 0 {
				heap.Push(sinks, s)
			}
		}
	}

	for i, j := 0, len(layers)-1; i < j; i, j = i+1, j-1 {
		layers[i], layers[j] = layers[j], layers[i]
	}
	appendLayers(g, layers)
	g.Layerless = nil
	return nil
}

func (st *cgState) incoming(n *lgraph.Node) []*lgraph.Edge {
	var out []*lgraph.Edge
	for _, e := range n.Incoming() {
		if _, ok := st.edgeID[e]; ok {
			out = append(out, e)
		}
	}
	return out
}

func (st *cgState) outgoing(n *lgraph.Node) []*lgraph.Edge {
	var out []*lgraph.Edge
	for _, e := range n.Outgoing() {
		if _, ok := st.edgeID[e]; ok {
			out = append(out, e)
		}
	}
	return out
}

// canAdd reports whether u has no successor in layer cur.
func (st *cgState) canAdd(u, cur int, layerOf []int) bool {
	for _, e := range st.outgoing(st.ix.Node(u)) {
		if layerOf[st.ix.Of(e.TargetNode())] == cur {
			return false
		}
	}
	return true
}

// compareInTopo orders nodes by the topological numbers of their ordered
// predecessors, compared from the most recent one backwards. A node whose
// list runs out first sorts first.
func (st *cgState) compareInTopo(u, v int) bool {
	lu, lv := st.inTopo[u], st.inTopo[v]
	i, j := len(lu)-1, len(lv)-1
	for i >= 0 && j >= 0 {
		if lu[i] != lv[j] {
			return lu[i] < lv[j]
		}
		i--
		j--
	}
	if i < 0 && j < 0 {
		return u < v
	}
	return i < 0
}

func (st *cgState) transitiveReduction() {
	for _, start := range st.ix.Nodes() {
		clear(st.nodeMark)
		for _, e := range st.outgoing(start) {
			st.markTransitive(start, e.TargetNode())
		}
	}
}

// markTransitive marks every edge start→w where w is reachable from v,
// a direct successor of start.
func (st *cgState) markTransitive(start, v *lgraph.Node) {
	stack := []*lgraph.Node{v}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		i := st.ix.Of(n)
		if st.nodeMark[i] {
			continue
		}
		st.nodeMark[i] = true
		for _, out := range st.outgoing(n) {
			w := out.TargetNode()
			for _, tr := range st.incoming(w) {
				if tr.SourceNode() == start {
					st.edgeMark[st.edgeID[tr]] = true
				}
			}
			stack = append(stack, w)
		}
	}
}

// nodeHeap is a priority queue of node indexes.
type nodeHeap struct {
	items []int
	less  func(a, b int) bool
}

func (h *nodeHeap) Len() int           { return len(h.items) }
func (h *nodeHeap) Less(i, j int) bool { return h.less(h.items[i], h.items[j]) }
func (h *nodeHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *nodeHeap) Push(x any)         { h.items = append(h.items, x.(int)) }
func (h *nodeHeap) Pop() any {
	old := h.items
	x := old[len(old)-1]
	h.items = old[:len(old)-1]
	return x
}
