package bk

import (
	"cmp"
	"slices"

	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// Neighbor is a node in an adjacent layer together with the edge that leads
// to it.
type Neighbor struct {
	Node *lgraph.Node
	Edge *lgraph.Edge
}

// Neighborhood is a read-only index over a layered graph: the position of
// every node within its layer, the position of every layer, and for every
// node the neighbors connected to it by edges of maximal straightness
// priority. It must be rebuilt whenever layers or their order change.
type Neighborhood struct {
	// Index assigns every layered node a dense id. All other slices are
	// addressed by it.
	Index *lgraph.Index
	// NodeIndex is a node's position within its layer.
	NodeIndex []int
	// LayerIndex is the position of a node's layer.
	LayerIndex []int
	// Left holds the neighbors in the previous layer (sources of incoming
	// edges), sorted by their position.
	Left [][]Neighbor
	// Right holds the neighbors in the next layer (targets of outgoing
	// edges), sorted by their position.
	Right [][]Neighbor

	layers [][]int // ids per layer in layer order
}

// NewNeighborhood builds the neighborhood information for g.
func NewNeighborhood(g *lgraph.Graph) *Neighborhood {
	ix := lgraph.IndexLayered(g)
	nb := &Neighborhood{
		Index:      ix,
		NodeIndex:  make([]int, ix.Len()),
		LayerIndex: make([]int, ix.Len()),
		Left:       make([][]Neighbor, ix.Len()),
		Right:      make([][]Neighbor, ix.Len()),
		layers:     make([][]int, len(g.Layers)),
	}
	for li, l := range g.Layers {
		nb.layers[li] = make([]int, len(l.Nodes))
		for ni, n := range l.Nodes {
			id := ix.Of(n)
			nb.layers[li][ni] = id
			nb.NodeIndex[id] = ni
			nb.LayerIndex[id] = li
		}
	}
	for id, n := range ix.Nodes() {
		nb.Left[id] = nb.prioritized(n.Incoming(), (*lgraph.Edge).SourceNode)
		nb.Right[id] = nb.prioritized(n.Outgoing(), (*lgraph.Edge).TargetNode)
	}
	return nb
}

// prioritized keeps the inter-layer edges of maximal straightness priority
// and returns their far endpoints ordered by position.
func (nb *Neighborhood) prioritized(edges []*lgraph.Edge, end func(*lgraph.Edge) *lgraph.Node) []Neighbor {
	var out []Neighbor
	best := 0
	for _, e := range edges {
		if e.IsSelfLoop() || e.IsInLayerEdge() {
			continue
		}
		if _, ok := nb.Index.Lookup(end(e)); !ok {
			continue
		}
		switch p := e.PriorityStraightness; {
		case len(out) == 0 || p > best:
			best = p
			out = append(out[:0], Neighbor{Node: end(e), Edge: e})
		case p == best:
			out = append(out, Neighbor{Node: end(e), Edge: e})
		}
	}
	slices.SortStableFunc(out, func(a, b Neighbor) int {
		return cmp.Compare(nb.NodeIndex[nb.Index.Of(a.Node)], nb.NodeIndex[nb.Index.Of(b.Node)])
	})
	return out
}

// Of returns the dense id of n.
func (nb *Neighborhood) Of(n *lgraph.Node) int { return nb.Index.Of(n) }

// Position returns the position of n within its layer.
func (nb *Neighborhood) Position(n *lgraph.Node) int { return nb.NodeIndex[nb.Index.Of(n)] }

// LayerSize returns the number of nodes in layer i.
func (nb *Neighborhood) LayerSize(i int) int { return len(nb.layers[i]) }
