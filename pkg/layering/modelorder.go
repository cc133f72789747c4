package layering

import (
	"errors"
	"slices"

	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// BreadthFirstModelOrder walks the regular nodes in model order and keeps
// putting them into the current layer. As soon as a node has a predecessor
// in the current layer, a new layer is started, preceded by a layer for the
// label dummies of the node's incoming edges.
type BreadthFirstModelOrder struct{}

// Layer implements [Layerer].
func (BreadthFirstModelOrder) Layer(g *lgraph.Graph) error {
	if len(g.Layerless) == 0 {
		return nil
	}
	ordered, err := realNodesInModelOrder(g.Layerless, "breadth-first model order")
	if err != nil {
		return err
	}

	current := g.AddLayer()
	var dummyLayer *lgraph.Layer
	for i, n := range ordered {
		if i > 0 && connectedTo(n, func(src *lgraph.Node) bool { return src.Layer() == current }) {
			dummyLayer = g.AddLayer()
			current = g.AddLayer()
		}
		n.SetLayer(current)
		for _, d := range unplacedLabelPredecessors(n) {
			if dummyLayer != nil {
				d.SetLayer(dummyLayer)
			}
		}
	}
	return finishModelOrder(g, "breadth-first model order")
}

// realNodesInModelOrder returns the regular nodes sorted by model order. A
// regular node without one makes the graph unsupported.
func realNodesInModelOrder(nodes []*lgraph.Node, algorithm string) ([]*lgraph.Node, error) {
	var ordered []*lgraph.Node
	for _, n := range nodes {
		if n.Type != lgraph.NodeTypeNormal {
			continue
		}
		if _, ok := n.ModelOrder(); !ok {
			return nil, lkerrors.Unsupported("%s layering requires a model order on every node; %q has none", algorithm, n.ID)
		}
		ordered = append(ordered, n)
	}
	slices.SortStableFunc(ordered, func(a, b *lgraph.Node) int {
		oa, _ := a.ModelOrder()
		ob, _ := b.ModelOrder()
		return oa - ob
	})
	return ordered, nil
}

// connectedTo reports whether n has an incoming edge from a regular node
// satisfying inLayer, or from a label dummy whose own source satisfies it.
func connectedTo(n *lgraph.Node, inLayer func(*lgraph.Node) bool) bool {
	for _, e := range n.Incoming() {
		src := e.SourceNode()
		switch src.Type {
		case lgraph.NodeTypeNormal:
			if src != n && inLayer(src) {
				return true
			}
		case lgraph.NodeTypeLabel:
			if in := src.Incoming(); len(in) > 0 && inLayer(in[0].SourceNode()) {
				return true
			}
		}
	}
	return false
}

// unplacedLabelPredecessors returns the layerless label dummies on n's
// incoming edges.
func unplacedLabelPredecessors(n *lgraph.Node) []*lgraph.Node {
	var out []*lgraph.Node
	for _, e := range n.Incoming() {
		src := e.SourceNode()
		if src.Type == lgraph.NodeTypeLabel && src.Layer() == nil && !slices.Contains(out, src) {
			out = append(out, src)
		}
	}
	return out
}

// finishModelOrder drops empty layers and checks the result. Model order
// layerers never move a node against its order, so an edge from a later to
// an earlier node, or a dummy left without a layer, cannot be repaired.
func finishModelOrder(g *lgraph.Graph, algorithm string) error {
	for _, n := range g.Layerless {
		if n.Layer() == nil {
			return lkerrors.Unsupported("%s layering could not place %q", algorithm, n.ID)
		}
	}
	g.Layerless = nil
	g.RemoveEmptyLayers()
	if err := g.Validate(); err != nil {
		if errors.Is(err, lgraph.ErrBackwardEdge) {
			return lkerrors.Wrap(lkerrors.ErrCodeUnsupportedGraph, err,
				"%s layering requires edges to follow the model order", algorithm)
		}
		return lkerrors.Wrap(lkerrors.ErrCodeInternal, err, "%s layering", algorithm)
	}
	return nil
}
