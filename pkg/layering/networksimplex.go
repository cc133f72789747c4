package layering

import (
	"errors"
	"math"

	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
	"github.com/matzehuels/layerkit/pkg/lgraph"
	"github.com/matzehuels/layerkit/pkg/networksimplex"
)

const iterLimitFactor = 4

// NetworkSimplex layers each connected component by solving the network
// simplex problem over its edges: every edge must span at least one layer
// and the sum of edge spans weighted by [lgraph.Edge.PriorityShortness] is
// minimized.
type NetworkSimplex struct {
	// Thoroughness scales the pivot limit of each solve by
	// 4 * sqrt(component size). Values below 1 count as 1.
	Thoroughness int
	// Balance enables the solver's balancing of equal-degree nodes. Node
	// counts of layers filled by earlier components are passed as a hint.
	Balance bool
}

// iterationLimit is the pivot limit for a component of n nodes. The solver
// reads zero as unlimited, so the result is at least 1.
func (l NetworkSimplex) iterationLimit(n int) int {
	return max(1, l.Thoroughness) * iterLimitFactor * max(1, int(math.Sqrt(float64(n))))
}

// Layer implements [Layerer].
func (l NetworkSimplex) Layer(g *lgraph.Graph) error {
	nodes := g.Layerless
	if len(nodes) == 0 {
		return nil
	}
	for _, comp := range connectedComponents(nodes) {
		cg, origins := costGraph(comp)
		solver := networksimplex.Solver{
			IterationLimit:   l.iterationLimit(len(comp)),
			Balance:          l.Balance,
			PreviousLayering: layerFilling(g),
		}
		if err := solver.Solve(cg); err != nil {
			if errors.Is(err, networksimplex.ErrCyclic) {
				return lkerrors.Wrap(lkerrors.ErrCodeUnsupportedGraph, err,
					"network simplex layering requires an acyclic graph")
			}
			return lkerrors.Wrap(lkerrors.ErrCodeInternal, err, "network simplex layering")
		}
		for i, cn := range cg.Nodes {
			for len(g.Layers) <= cn.Rank {
				g.AddLayer()
			}
			origins[i].SetLayer(g.Layers[cn.Rank])
		}
	}
	g.Layerless = nil
	return nil
}

// connectedComponents splits nodes into weakly connected components. The
// largest component found so far is kept in front; others are appended.
func connectedComponents(nodes []*lgraph.Node) [][]*lgraph.Node {
	ix := lgraph.NewIndex(nodes)
	visited := make([]bool, ix.Len())
	var comps [][]*lgraph.Node

	for i := range nodes {
		if visited[i] {
			continue
		}
		var comp []*lgraph.Node
		stack := []int{i}
		visited[i] = true
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			n := ix.Node(v)
			comp = append(comp, n)
			for _, e := range n.Connected() {
				w, ok := ix.Lookup(e.Other(n))
				if ok && !visited[w] {
					visited[w] = true
					stack = append(stack, w)
				}
			}
		}
		if len(comps) == 0 || len(comps[0]) < len(comp) {
			comps = append([][]*lgraph.Node{comp}, comps...)
		} else {
			comps = append(comps, comp)
		}
	}
	return comps
}

// costGraph builds the network simplex input for one component. The i-th
// cost node originates from the i-th returned layered node.
func costGraph(comp []*lgraph.Node) (*networksimplex.Graph, []*lgraph.Node) {
	cg := &networksimplex.Graph{}
	byNode := make(map[*lgraph.Node]*networksimplex.Node, len(comp))
	for _, n := range comp {
		byNode[n] = cg.AddNode(n)
	}
	for _, n := range comp {
		for _, e := range n.Outgoing() {
			if e.IsSelfLoop() {
				continue
			}
			tgt, ok := byNode[e.TargetNode()]
			if !ok {
				continue
			}
			cg.AddEdge(byNode[n], tgt, float64(max(1, e.PriorityShortness)), 1)
		}
	}
	return cg, comp
}

func layerFilling(g *lgraph.Graph) []int {
	filling := make([]int, len(g.Layers))
	for i, l := range g.Layers {
		filling[i] = l.Len()
	}
	return filling
}
