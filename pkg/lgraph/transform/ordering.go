package transform

import (
	"cmp"
	"slices"

	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// DefaultPasses is the number of sweeps [OrderLayers] performs when asked
// for fewer than one.
const DefaultPasses = 24

// OrderLayers reorders the nodes of every layer to reduce edge crossings.
// Layers start out sorted by model order. Even passes sweep down and sort
// each layer by the mean position of its nodes' predecessors, odd passes
// sweep up using successors. Nodes without neighbors in the reference layer
// keep their position as barycenter, and ties keep their current order. The
// order with the fewest crossings wins; the count is returned.
func OrderLayers(g *lgraph.Graph, passes int) int {
	if passes < 1 {
		passes = DefaultPasses
	}
	for _, l := range g.Layers {
		slices.SortStableFunc(l.Nodes, byModelOrder)
	}

	best := snapshot(g)
	bestCrossings := CountCrossings(g)
	for p := 0; p < passes && bestCrossings > 0; p++ {
		if p%2 == 0 {
			for i := 1; i < len(g.Layers); i++ {
				sortByBarycenter(g.Layers[i], g.Layers[i-1], true)
			}
		} else {
			for i := len(g.Layers) - 2; i >= 0; i-- {
				sortByBarycenter(g.Layers[i], g.Layers[i+1], false)
			}
		}
		if c := CountCrossings(g); c < bestCrossings {
			bestCrossings = c
			best = snapshot(g)
		}
	}
	for i, nodes := range best {
		copy(g.Layers[i].Nodes, nodes)
	}
	return bestCrossings
}

func byModelOrder(a, b *lgraph.Node) int {
	oa, okA := a.ModelOrder()
	ob, okB := b.ModelOrder()
	switch {
	case okA && okB:
		return cmp.Compare(oa, ob)
	case okA:
		return -1
	case okB:
		return 1
	}
	return 0
}

func snapshot(g *lgraph.Graph) [][]*lgraph.Node {
	out := make([][]*lgraph.Node, len(g.Layers))
	for i, l := range g.Layers {
		out[i] = slices.Clone(l.Nodes)
	}
	return out
}

// sortByBarycenter sorts layer by the mean position of each node's
// neighbors in ref, predecessors if incoming is set, successors otherwise.
func sortByBarycenter(layer, ref *lgraph.Layer, incoming bool) {
	pos := make(map[*lgraph.Node]int, len(ref.Nodes))
	for i, n := range ref.Nodes {
		pos[n] = i
	}
	bary := make(map[*lgraph.Node]float64, len(layer.Nodes))
	for i, n := range layer.Nodes {
		edges := n.Outgoing()
		if incoming {
			edges = n.Incoming()
		}
		sum, count := 0, 0
		for _, e := range edges {
			if p, ok := pos[e.Other(n)]; ok && !e.IsSelfLoop() {
				sum += p
				count++
			}
		}
		if count > 0 {
			bary[n] = float64(sum) / float64(count)
		} else {
			bary[n] = float64(i)
		}
	}
	slices.SortStableFunc(layer.Nodes, func(a, b *lgraph.Node) int {
		return cmp.Compare(bary[a], bary[b])
	})
}

// CountCrossings returns the number of edge crossings between all pairs of
// consecutive layers.
func CountCrossings(g *lgraph.Graph) int {
	crossings := 0
	for i := 0; i+1 < len(g.Layers); i++ {
		crossings += LayerCrossings(g.Layers[i].Nodes, g.Layers[i+1].Nodes)
	}
	return crossings
}

// LayerCrossings counts crossings among the edges from upper to lower.
//
// Two edges (u1,v1) and (u2,v2) cross if and only if
//
//	pos(u1) < pos(u2) AND pos(v1) > pos(v2)
//
// so sorting the edges by source position and counting inversions of the
// target positions with a Fenwick tree takes O(E log V).
func LayerCrossings(upper, lower []*lgraph.Node) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}
	lowerPos := make(map[*lgraph.Node]int, len(lower))
	for i, n := range lower {
		lowerPos[n] = i
	}

	type edge struct{ upper, lower int }
	var edges []edge
	for i, n := range upper {
		for _, e := range n.Outgoing() {
			if p, ok := lowerPos[e.TargetNode()]; ok {
				edges = append(edges, edge{i, p})
			}
		}
	}
	if len(edges) < 2 {
		return 0
	}
	slices.SortFunc(edges, func(a, b edge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for i := e.lower + 1; i < len(fenwick); i += i & (-i) {
			fenwick[i]++
		}
	}
	return crossings
}
