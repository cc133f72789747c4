package transform

import (
	"slices"

	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// BreakCycles reverses the edges that close a cycle in a depth-first search
// started from the sources, then from any node left unvisited. Self-loops
// are left alone. It returns the number of reversed edges.
func BreakCycles(g *lgraph.Graph) int {
	const (
		white = iota
		gray
		black
	)

	color := make(map[*lgraph.Node]int)
	var backEdges []*lgraph.Edge

	var dfs func(n *lgraph.Node)
	dfs = func(n *lgraph.Node) {
		color[n] = gray
		for _, e := range n.Outgoing() {
			if e.IsSelfLoop() {
				continue
			}
			switch child := e.TargetNode(); color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, e)
			}
		}
		color[n] = black
	}

	nodes := g.Nodes()
	for _, n := range nodes {
		if color[n] == white && !hasRealIncoming(n) {
			dfs(n)
		}
	}
	for _, n := range nodes {
		if color[n] == white {
			dfs(n)
		}
	}

	for _, e := range backEdges {
		e.Reverse()
	}
	return len(backEdges)
}

// BreakCyclesByModelOrder reverses every edge leading from a node to one
// with a smaller model order. Edges touching a node without a model order
// are kept. It returns the number of reversed edges.
func BreakCyclesByModelOrder(g *lgraph.Graph) int {
	var reversed []*lgraph.Edge
	for _, e := range g.Edges() {
		src, okSrc := e.SourceNode().ModelOrder()
		tgt, okTgt := e.TargetNode().ModelOrder()
		if okSrc && okTgt && src > tgt {
			reversed = append(reversed, e)
		}
	}
	for _, e := range reversed {
		e.Reverse()
	}
	return len(reversed)
}

// RestoreReversed flips every edge marked as reversed back to its original
// direction and returns how many were flipped. Bend points are reversed
// along with the edge.
func RestoreReversed(g *lgraph.Graph) int {
	var flip []*lgraph.Edge
	for _, e := range g.Edges() {
		if e.Reversed {
			flip = append(flip, e)
		}
	}
	for _, e := range flip {
		e.Reverse()
		slices.Reverse(e.Bends)
	}
	return len(flip)
}

func hasRealIncoming(n *lgraph.Node) bool {
	for _, e := range n.Incoming() {
		if !e.IsSelfLoop() {
			return true
		}
	}
	return false
}
