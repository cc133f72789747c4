package layering

import (
	"math"

	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// Interactive derives layers from the nodes' current x coordinates, so a
// drawing a user has rearranged keeps its columns. Nodes whose horizontal
// extents overlap share a layer. Afterwards every edge that does not point
// to a later layer pushes its target one layer past its source.
type Interactive struct{}

type span struct {
	start, end float64
	nodes      []int
}

// Layer implements [Layerer].
func (Interactive) Layer(g *lgraph.Graph) error {
	nodes := g.Layerless
	if len(nodes) == 0 {
		return nil
	}
	ix := lgraph.NewIndex(nodes)

	// spans stays sorted by start and free of overlaps.
	var spans []*span
	for i, n := range nodes {
		minX := n.Pos.X
		maxX := math.Max(minX+1, minX+n.Size.X)

		var found *span
		insertAt := len(spans)
		for k := 0; k < len(spans); k++ {
			s := spans[k]
			if s.start >= maxX {
				insertAt = k
				break
			}
			if s.end <= minX {
				continue
			}
			if found == nil {
				s.nodes = append(s.nodes, i)
				s.start = math.Min(s.start, minX)
				s.end = math.Max(s.end, maxX)
				found = s
				continue
			}
			found.nodes = append(found.nodes, s.nodes...)
			found.end = math.Max(found.end, s.end)
			spans = append(spans[:k], spans[k+1:]...)
			k--
		}
		if found == nil {
			s := &span{start: minX, end: maxX, nodes: []int{i}}
			spans = append(spans[:insertAt], append([]*span{s}, spans[insertAt:]...)...)
		}
	}

	layerOf := make([]int, ix.Len())
	for k, s := range spans {
		for _, i := range s.nodes {
			layerOf[i] = k
		}
	}

	succ := make([][]int, ix.Len())
	for i, n := range nodes {
		succ[i] = successors(ix, n)
	}
	if err := correctLayering(layerOf, succ); err != nil {
		return err
	}

	count := 0
	for _, l := range layerOf {
		count = max(count, l+1)
	}
	layers := make([][]*lgraph.Node, count)
	for k := range spans {
		for _, i := range spans[k].nodes {
			layers[layerOf[i]] = append(layers[layerOf[i]], nodes[i])
		}
	}
	// Nodes pushed into a layer keep span order within it.
	appendLayers(g, layers)
	g.Layerless = nil
	return nil
}

// correctLayering moves the target of every edge that does not point forward
// to the layer after its source, then continues from the moved node. Each
// node is used as a starting point once. Layers never exceed twice the node
// count in an acyclic graph, so a node moved more often lies on a cycle.
func correctLayering(layerOf []int, succ [][]int) error {
	visited := make([]bool, len(layerOf))
	moves := make([]int, len(layerOf))
	for start := range layerOf {
		if visited[start] {
			continue
		}
		stack := []int{start}
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			visited[v] = true
			for _, w := range succ[v] {
				if layerOf[w] > layerOf[v] {
					continue
				}
				layerOf[w] = layerOf[v] + 1
				moves[w]++
				if moves[w] > 2*len(layerOf) {
					return lkerrors.Unsupported("interactive layering requires an acyclic graph")
				}
				stack = append(stack, w)
			}
		}
	}
	return nil
}
