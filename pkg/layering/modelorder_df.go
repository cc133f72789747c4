package layering

import (
	"slices"

	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// DepthFirstModelOrder walks the regular nodes in model order and puts each
// node two layers below its deepest placed predecessor, leaving the layer in
// between for label dummies. A node without predecessors starts a new strip
// at the top. Nodes of a strip are not placed right away: their layers stay
// pending until a later node connects the strip to already placed nodes,
// at which point the whole strip is shifted down to fit and committed.
type DepthFirstModelOrder struct{}

type pendingPlacement struct {
	node  *lgraph.Node
	layer int
}

type dfState struct {
	g          *lgraph.Graph
	current    int
	pending    []pendingPlacement
	maxPending int
}

// Layer implements [Layerer].
func (DepthFirstModelOrder) Layer(g *lgraph.Graph) error {
	if len(g.Layerless) == 0 {
		return nil
	}
	ordered, err := realNodesInModelOrder(g.Layerless, "depth-first model order")
	if err != nil {
		return err
	}

	st := &dfState{g: g}
	first := g.AddLayer()
	for i, n := range ordered {
		if i == 0 {
			n.SetLayer(first)
			continue
		}
		if connectedTo(n, func(src *lgraph.Node) bool { return st.layerOf(src) == st.current }) {
			maxLayer := st.maxConnectedLayer(st.current, n)
			desired := maxLayer + 2
			switch {
			case len(st.pending) == 0:
				st.place(desired, n)
			case maxLayer > st.current:
				st.shiftPending(maxLayer - st.maxPending)
				st.commit()
				st.place(desired, n)
			default:
				st.postpone(n, desired)
				for _, d := range unplacedLabelPredecessors(n) {
					st.postpone(d, desired-1)
				}
				st.current = desired
			}
			continue
		}

		st.commit()
		if !n.HasIncoming() {
			st.postpone(n, 0)
			st.current = 0
			continue
		}
		st.place(st.maxConnectedLayer(0, n)+2, n)
	}
	st.commit()
	return finishModelOrder(g, "depth-first model order")
}

// layerOf returns the pending layer of n, its actual layer index, or -1.
func (st *dfState) layerOf(n *lgraph.Node) int {
	for _, p := range st.pending {
		if p.node == n {
			return p.layer
		}
	}
	if l := n.Layer(); l != nil {
		return l.Index()
	}
	return -1
}

// maxConnectedLayer returns the largest layer index among lower and the
// layers of n's placed predecessors.
func (st *dfState) maxConnectedLayer(lower int, n *lgraph.Node) int {
	m := lower
	for _, e := range n.Incoming() {
		if l := e.SourceNode().Layer(); l != nil {
			m = max(m, l.Index())
		}
	}
	return m
}

// ensureLayers grows the graph to at least count layers.
func (st *dfState) ensureLayers(count int) {
	for len(st.g.Layers) < count {
		st.g.AddLayer()
	}
}

// place puts n into layer id right away, together with its unplaced label
// dummies in the layer above.
func (st *dfState) place(id int, n *lgraph.Node) {
	st.ensureLayers(id + 1)
	st.current = id
	n.SetLayer(st.g.Layers[id])
	for _, d := range unplacedLabelPredecessors(n) {
		d.SetLayer(st.g.Layers[id-1])
	}
}

func (st *dfState) postpone(n *lgraph.Node, layer int) {
	st.pending = append(st.pending, pendingPlacement{node: n, layer: layer})
	st.maxPending = max(st.maxPending, layer)
}

func (st *dfState) shiftPending(delta int) {
	for i := range st.pending {
		st.pending[i].layer = max(0, st.pending[i].layer+delta)
	}
}

// commit applies all pending placements.
func (st *dfState) commit() {
	for _, p := range st.pending {
		st.ensureLayers(p.layer + 1)
		p.node.SetLayer(st.g.Layers[p.layer])
	}
	st.pending = slices.Delete(st.pending, 0, len(st.pending))
	st.maxPending = 0
}
