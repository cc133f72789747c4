package networksimplex

// Node is a vertex of the cost graph. Rank holds the solver's output.
type Node struct {
	// Origin is an opaque value owned by the caller, typically the node the
	// cost graph was built from.
	Origin any
	// Rank is the integer layer assigned by [Solver.Solve].
	Rank int

	in  []*Edge
	out []*Edge

	id         int
	treeNode   bool
	unknownCut []*Edge
}

// Incoming returns the edges ending at the node.
func (n *Node) Incoming() []*Edge { return n.in }

// Outgoing returns the edges starting at the node.
func (n *Node) Outgoing() []*Edge { return n.out }

func (n *Node) connected() []*Edge {
	c := make([]*Edge, 0, len(n.in)+len(n.out))
	c = append(c, n.in...)
	return append(c, n.out...)
}

// Edge is a directed constraint rank(Target) − rank(Source) ≥ Delta with
// cost Weight per unit of length.
type Edge struct {
	Source *Node
	Target *Node
	Weight float64
	Delta  int

	id       int
	treeEdge bool
}

func (e *Edge) other(n *Node) *Node {
	if e.Source == n {
		return e.Target
	}
	return e.Source
}

func (e *Edge) slack() int {
	return e.Target.Rank - e.Source.Rank - e.Delta
}

// Graph is a cost graph. Build one per solve; the solver keeps scratch state
// on nodes and edges.
type Graph struct {
	Nodes []*Node
}

// AddNode appends a node carrying the given origin.
func (g *Graph) AddNode(origin any) *Node {
	n := &Node{Origin: origin}
	g.Nodes = append(g.Nodes, n)
	return n
}

// AddEdge connects two nodes of the graph.
func (g *Graph) AddEdge(src, tgt *Node, weight float64, delta int) *Edge {
	e := &Edge{Source: src, Target: tgt, Weight: weight, Delta: delta}
	src.out = append(src.out, e)
	tgt.in = append(tgt.in, e)
	return e
}

func removeEdge(edges []*Edge, e *Edge) []*Edge {
	for i, x := range edges {
		if x == e {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return edges
}
