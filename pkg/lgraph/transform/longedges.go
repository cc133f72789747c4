package transform

import (
	"fmt"

	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// SplitLongEdges makes every edge connect consecutive layers. An edge from
// layer i to layer j > i+1 keeps its source port and first segment; its
// target moves to a [lgraph.NodeTypeLongEdge] dummy in layer i+1, followed
// by one dummy per further layer and a final segment into the original
// target port. Every segment inherits the edge's priorities and reversal
// flag. It returns the number of dummies created.
//
// SplitLongEdges panics if the graph has layerless nodes.
func SplitLongEdges(g *lgraph.Graph) int {
	if len(g.Layerless) > 0 {
		panic("transform: SplitLongEdges on a graph with layerless nodes")
	}
	idx := g.LayerIndexes()
	created := 0
	for _, e := range g.Edges() {
		from, to := idx[e.SourceNode().Layer()], idx[e.TargetNode().Layer()]
		if to <= from+1 {
			continue
		}

		target := e.Target
		seg := e
		for l := from + 1; l < to; l++ {
			d := g.AddDummy(lgraph.NodeTypeLongEdge, e.ID)
			d.SetLayer(g.Layers[l])
			in, out := d.AddPort(lgraph.Vector{}), d.AddPort(lgraph.Vector{})
			seg.SetTarget(in)

			next := g.ConnectPorts(out, target)
			next.ID = fmt.Sprintf("%s#%d", e.ID, l-from)
			next.PriorityStraightness = e.PriorityStraightness
			next.PriorityShortness = e.PriorityShortness
			next.Reversed = e.Reversed
			seg = next
			created++
		}
	}
	g.Layerless = nil
	return created
}

// JoinLongEdges removes the dummies created by [SplitLongEdges]. The first
// segment of each chain is reconnected to the chain's final target and
// collects the dummies' positions as bend points. Layers left empty are kept
// so layer indexes stay valid. It returns the number of dummies removed.
func JoinLongEdges(g *lgraph.Graph) int {
	removed := 0
	for _, e := range g.Edges() {
		// segments of chains joined earlier in this loop are detached
		if e.Source == nil || e.Target == nil || e.SourceNode().Type == lgraph.NodeTypeLongEdge {
			continue
		}
		var chain []*lgraph.Node
		last := e
		for last.TargetNode().Type == lgraph.NodeTypeLongEdge {
			d := last.TargetNode()
			out := d.Outgoing()
			if len(out) != 1 {
				break
			}
			chain = append(chain, d)
			e.Bends = append(e.Bends, lgraph.Vector{X: d.Pos.X, Y: d.Pos.Y})
			last = out[0]
		}
		if len(chain) == 0 {
			continue
		}
		target := last.Target
		last.SetTarget(nil)
		last.SetSource(nil)
		e.SetTarget(target)
		for _, d := range chain {
			g.RemoveNode(d)
			removed++
		}
	}
	return removed
}
