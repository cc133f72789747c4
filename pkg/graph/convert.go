package graph

import (
	"fmt"

	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// =============================================================================
// Graph → lgraph Conversion
// =============================================================================

// ToLGraph builds a layerless [lgraph.Graph] from an input graph.
//
// Every node gets a model order: its explicit one if given, else its position
// in the node list. Edges connect through fresh ports in the middle of the
// node sides. A labeled edge becomes two edges through a label node, which
// layering puts into the layer between the endpoints.
func ToLGraph(in Graph) (*lgraph.Graph, error) {
	g := lgraph.New()

	for i, nj := range in.Nodes {
		if err := lkerrors.ValidateNodeID(nj.ID); err != nil {
			return nil, err
		}
		if nj.Width < 0 || nj.Height < 0 {
			return nil, lkerrors.New(lkerrors.ErrCodeInvalidInput,
				"node %q has a negative size (%gx%g)", nj.ID, nj.Width, nj.Height)
		}
		n, err := g.AddNode(nj.ID)
		if err != nil {
			return nil, lkerrors.Wrap(lkerrors.ErrCodeInvalidInput, err, "add node %s", nj.ID)
		}
		n.Size = lgraph.Vector{X: orDefault(nj.Width, DefaultNodeWidth), Y: orDefault(nj.Height, DefaultNodeHeight)}
		n.Pos = lgraph.Vector{X: nj.X, Y: nj.Y}
		if nj.Margin != nil {
			n.Margin = *nj.Margin
		}
		if nj.ModelOrder != nil {
			n.SetModelOrder(*nj.ModelOrder)
		} else {
			n.SetModelOrder(i)
		}
	}

	ids := EdgeIDs(in.Edges)
	for i, ej := range in.Edges {
		src, ok := g.Node(ej.From)
		if !ok {
			return nil, lkerrors.New(lkerrors.ErrCodeInvalidInput, "edge %s: unknown source %q", ids[i], ej.From)
		}
		tgt, ok := g.Node(ej.To)
		if !ok {
			return nil, lkerrors.New(lkerrors.ErrCodeInvalidInput, "edge %s: unknown target %q", ids[i], ej.To)
		}
		if ej.Label == "" {
			e := g.Connect(src, tgt)
			e.ID = ids[i]
			setPriorities(e, ej)
			continue
		}
		label := g.AddDummy(lgraph.NodeTypeLabel, ids[i])
		label.Size = lgraph.Vector{X: ej.LabelWidth, Y: ej.LabelHeight}
		head := g.Connect(src, label)
		head.ID = ids[i] + "#in"
		setPriorities(head, ej)
		tail := g.Connect(label, tgt)
		tail.ID = ids[i] + "#out"
		setPriorities(tail, ej)
	}

	return g, nil
}

// EdgeIDs returns the identifier of every edge: its explicit ID, or
// "from->to" with a "~k" suffix for the k-th repetition.
func EdgeIDs(edges []Edge) []string {
	out := make([]string, len(edges))
	seen := make(map[string]int, len(edges))
	for i, e := range edges {
		id := e.ID
		if id == "" {
			id = e.From + "->" + e.To
		}
		if k := seen[id]; k > 0 {
			seen[id]++
			id = fmt.Sprintf("%s~%d", id, k)
		} else {
			seen[id] = 1
		}
		out[i] = id
	}
	return out
}

func setPriorities(e *lgraph.Edge, ej Edge) {
	e.PriorityStraightness = ej.PriorityStraightness
	e.PriorityShortness = ej.PriorityShortness
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
