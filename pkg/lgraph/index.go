package lgraph

// Index assigns dense integers to a fixed set of nodes. Algorithms allocate
// their scratch slices with [Index.Len] entries and address them through
// [Index.Of], which keeps per-run state off the shared nodes.
type Index struct {
	nodes []*Node
	ids   map[*Node]int
}

// NewIndex indexes nodes in the given order.
func NewIndex(nodes []*Node) *Index {
	ix := &Index{
		nodes: nodes,
		ids:   make(map[*Node]int, len(nodes)),
	}
	for i, n := range nodes {
		ix.ids[n] = i
	}
	return ix
}

// IndexLayered indexes the nodes of all layers in layer order.
func IndexLayered(g *Graph) *Index {
	var nodes []*Node
	for _, l := range g.Layers {
		nodes = append(nodes, l.Nodes...)
	}
	return NewIndex(nodes)
}

// Of returns the index of n. It panics for nodes outside the index, which
// means a phase handed a node to an index built for a different node set.
func (ix *Index) Of(n *Node) int {
	i, ok := ix.ids[n]
	if !ok {
		panic("lgraph: node " + n.ID + " is not indexed")
	}
	return i
}

// Lookup returns the index of n and whether it is indexed.
func (ix *Index) Lookup(n *Node) (int, bool) {
	i, ok := ix.ids[n]
	return i, ok
}

// Node returns the node with index i.
func (ix *Index) Node(i int) *Node { return ix.nodes[i] }

// Nodes returns the indexed nodes in index order.
func (ix *Index) Nodes() []*Node { return ix.nodes }

// Len returns the number of indexed nodes.
func (ix *Index) Len() int { return len(ix.nodes) }
