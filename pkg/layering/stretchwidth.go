package layering

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// StretchWidth is a heuristic for narrow layerings. Nodes are ranked by the
// larger of their own out-degree and the out-degrees of their predecessors
// and placed bottom-up. Whenever not even a single node fits into an empty
// layer, the width bound is raised by one and the whole layering starts over.
type StretchWidth struct {
	// EdgeSpacing is taken as the height of a dummy node.
	EdgeSpacing float64
}

type stretchState struct {
	sorted    []int // node indexes by descending rank
	succCount []int
	preds     [][]int
	in, out   []int
	normSize  []float64
	dummySize float64
	influence float64
}

// Layer implements [Layerer].
func (s StretchWidth) Layer(g *lgraph.Graph) error {
	nodes := g.Layerless
	if len(nodes) == 0 {
		return nil
	}
	ix := lgraph.NewIndex(nodes)
	st := &stretchState{}
	st.in, st.out = degrees(ix)

	succ := make([][]int, ix.Len())
	st.preds = make([][]int, ix.Len())
	for i, n := range nodes {
		succ[i] = successors(ix, n)
		for _, e := range n.Incoming() {
			if e.IsSelfLoop() {
				continue
			}
			if p, ok := ix.Lookup(e.SourceNode()); ok {
				st.preds[i] = append(st.preds[i], p)
			}
		}
	}
	if err := requireAcyclic(succ, "stretch-width"); err != nil {
		return err
	}

	rank := make([]int, ix.Len())
	for i := range nodes {
		rank[i] = st.out[i]
		for _, p := range st.preds[i] {
			rank[i] = max(rank[i], st.out[p])
		}
	}
	st.sorted = make([]int, ix.Len())
	for i := range st.sorted {
		st.sorted[i] = i
	}
	slices.SortStableFunc(st.sorted, func(a, b int) int { return cmp.Compare(rank[b], rank[a]) })

	minSize, maxSize := math.Inf(1), math.Inf(-1)
	for _, n := range nodes {
		if n.Type == lgraph.NodeTypeNormal {
			minSize = math.Min(minSize, n.Size.Y)
			maxSize = math.Max(maxSize, n.Size.Y)
		}
	}
	minSize = math.Max(1, minSize)
	maxSize = math.Max(1, maxSize)
	st.normSize = make([]float64, ix.Len())
	for i, n := range nodes {
		st.normSize[i] = n.Size.Y / minSize
	}
	st.dummySize = s.EdgeSpacing / minSize
	totalOut := 0
	for _, o := range st.out {
		totalOut += o
	}
	st.influence = float64(totalOut) / float64(len(nodes))

	layers := st.run(maxSize / minSize)
	slices.Reverse(layers)
	converted := make([][]*lgraph.Node, len(layers))
	for k, layer := range layers {
		for _, i := range layer {
			converted[k] = append(converted[k], nodes[i])
		}
	}
	appendLayers(g, converted)
	g.Layerless = nil
	return nil
}

// run places nodes bottom-up, starting over with a larger bound whenever a
// node does not fit into an otherwise empty layer.
func (st *stretchState) run(maxWidth float64) [][]int {
restart:
	for {
		var (
			layers       = [][]int{nil}
			remaining    = slices.Clone(st.sorted)
			remainingOut = slices.Clone(st.out)
			widthCurrent float64
			widthUp      float64
		)
		for len(remaining) > 0 {
			cur := len(layers) - 1
			sel, at := -1, -1
			for k, v := range remaining {
				if remainingOut[v] <= 0 {
					sel, at = v, k
					break
				}
			}

			if sel >= 0 && st.goUp(sel, maxWidth, widthCurrent, widthUp) && len(layers[cur]) == 0 {
				maxWidth++
				continue restart
			}
			if sel < 0 || st.goUp(sel, maxWidth, widthCurrent, widthUp) {
				for _, v := range layers[cur] {
					for _, p := range st.preds[v] {
						remainingOut[p]--
					}
				}
				layers = append(layers, nil)
				widthCurrent = widthUp
				widthUp = 0
				continue
			}

			layers[cur] = append(layers[cur], sel)
			remaining = slices.Delete(remaining, at, at+1)
			widthCurrent += st.normSize[sel] - float64(st.out[sel])*st.dummySize
			widthUp += float64(st.in[sel]) * st.dummySize
		}
		return layers
	}
}

// goUp reports whether placing v would overflow the current layer or make
// the estimated width of the layer above too large.
func (st *stretchState) goUp(v int, maxWidth, widthCurrent, widthUp float64) bool {
	a := widthCurrent-float64(st.out[v])*st.dummySize+st.normSize[v] > maxWidth
	b := widthUp+float64(st.in[v])*st.dummySize > maxWidth*st.influence*st.dummySize
	return a || b
}
