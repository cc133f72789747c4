package layering

import "github.com/matzehuels/layerkit/pkg/lgraph"

// LongestPath puts every sink into the last layer and every other node as
// far up as the longest path below it requires. Heights are computed with an
// explicit stack so deep graphs do not grow the goroutine stack, and each
// height is computed once.
type LongestPath struct{}

type pathFrame struct {
	node int
	next int // index into succ[node] of the next successor to visit
}

// Layer implements [Layerer].
func (LongestPath) Layer(g *lgraph.Graph) error {
	nodes := g.Layerless
	if len(nodes) == 0 {
		return nil
	}
	ix := lgraph.NewIndex(nodes)
	succ := make([][]int, ix.Len())
	for i, n := range nodes {
		succ[i] = successors(ix, n)
	}
	if err := requireAcyclic(succ, "longest-path"); err != nil {
		return err
	}

	// height[v] is the number of nodes on the longest path from v to a sink;
	// 0 means not computed yet.
	height := make([]int, ix.Len())
	onStack := make([]bool, ix.Len())
	maxHeight := 0

	for start := range nodes {
		if height[start] > 0 {
			continue
		}
		stack := []pathFrame{{node: start}}
		onStack[start] = true
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(succ[top.node]) {
				w := succ[top.node][top.next]
				top.next++
				if height[w] == 0 && !onStack[w] {
					onStack[w] = true
					stack = append(stack, pathFrame{node: w})
				}
				continue
			}
			h := 1
			for _, w := range succ[top.node] {
				h = max(h, height[w]+1)
			}
			height[top.node] = h
			onStack[top.node] = false
			maxHeight = max(maxHeight, h)
			stack = stack[:len(stack)-1]
		}
	}

	layers := make([]*lgraph.Layer, maxHeight)
	for i := range layers {
		layers[i] = g.AddLayer()
	}
	for i, n := range nodes {
		n.SetLayer(layers[maxHeight-height[i]])
	}
	g.Layerless = nil
	return nil
}
