package layering

import (
	"math"
	"slices"

	"github.com/matzehuels/layerkit/pkg/lgraph"
)

var (
	upperBoundOnWidthRange = [2]int{1, 4}
	scalingFactorRange     = [2]int{1, 2}
)

// MinWidth is the minimum-width heuristic of Nikolov, Tarassov and Branke,
// extended to take node heights into account. Layers are built from the
// sinks upward; a layer is closed once its estimated width, including dummy
// nodes for edges leaving it, reaches UpperBoundOnWidth times the average
// node height, or once the estimated width of the layer above exceeds
// ScalingFactor times that bound.
//
// Either parameter may be [AutoSearch]; all combinations of the search
// ranges are tried and the narrowest layering wins, ties going to fewer
// layers.
type MinWidth struct {
	UpperBoundOnWidth int
	ScalingFactor     int
	// EdgeSpacing is taken as the height of a dummy node.
	EdgeSpacing float64
}

type minWidthState struct {
	ix        *lgraph.Index
	in, out   []int
	normSize  []float64
	avgSize   float64
	dummySize float64
	succ      [][]int
}

// Layer implements [Layerer].
func (m MinWidth) Layer(g *lgraph.Graph) error {
	nodes := g.Layerless
	if len(nodes) == 0 {
		return nil
	}
	minSize := minRealHeight(nodes)
	st := &minWidthState{ix: lgraph.NewIndex(nodes)}
	st.in, st.out = degrees(st.ix)
	st.normSize = make([]float64, st.ix.Len())
	st.succ = make([][]int, st.ix.Len())
	for i, n := range nodes {
		st.normSize[i] = n.Size.Y / minSize
		st.avgSize += st.normSize[i]
		st.succ[i] = successors(st.ix, n)
	}
	if err := requireAcyclic(st.succ, "min-width"); err != nil {
		return err
	}
	st.avgSize /= float64(len(nodes))
	st.dummySize = m.EdgeSpacing / minSize

	// Descending out-degree; the stable sort keeps input order among equals.
	order := make([]int, len(nodes))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return st.out[b] - st.out[a] })

	ubwLo, ubwHi := m.UpperBoundOnWidth, m.UpperBoundOnWidth
	if m.UpperBoundOnWidth < 0 {
		ubwLo, ubwHi = upperBoundOnWidthRange[0], upperBoundOnWidthRange[1]
	}
	cLo, cHi := m.ScalingFactor, m.ScalingFactor
	if m.ScalingFactor < 0 {
		cLo, cHi = scalingFactorRange[0], scalingFactorRange[1]
	}

	minWidth := math.Inf(1)
	minLayers := math.MaxInt
	var best [][]int
	for ubw := ubwLo; ubw <= ubwHi; ubw++ {
		for c := cLo; c <= cHi; c++ {
			width, layering := st.layering(float64(ubw), float64(c), order)
			if width < minWidth || (width == minWidth && len(layering) < minLayers) {
				minWidth = width
				minLayers = len(layering)
				best = layering
			}
		}
	}

	layers := make([][]*lgraph.Node, len(best))
	for k, layer := range best {
		// Built bottom-up.
		dst := len(best) - 1 - k
		for _, i := range layer {
			layers[dst] = append(layers[dst], nodes[i])
		}
	}
	appendLayers(g, layers)
	g.Layerless = nil
	return nil
}

// layering runs the heuristic once and returns the maximum estimated layer
// width together with the layers, sinks first.
func (st *minWidthState) layering(ubw, compensator float64, order []int) (float64, [][]int) {
	placed := make([]bool, st.ix.Len()) // in a finished layer
	unplaced := slices.Clone(order)
	ubwConsiderSize := ubw * st.avgSize

	var (
		layers        [][]int
		current       []int
		widthCurrent  float64
		widthUp       float64
		maxWidth      float64
		realWidth     float64
		spanningEdges float64
		goingOut      float64
		outDeg        int
	)
	for len(unplaced) > 0 {
		sel := -1
		for k, v := range unplaced {
			if st.allPlaced(v, placed) {
				sel = v
				unplaced = slices.Delete(unplaced, k, k+1)
				break
			}
		}
		if sel >= 0 {
			current = append(current, sel)
			outDeg = st.out[sel]
			widthCurrent += st.normSize[sel] - float64(outDeg)*st.dummySize
			widthUp += float64(st.in[sel]) * st.dummySize
			goingOut += float64(outDeg) * st.dummySize
			realWidth += st.normSize[sel]
		}

		if sel < 0 || len(unplaced) == 0 ||
			(widthCurrent >= ubwConsiderSize && st.normSize[sel] > float64(outDeg)*st.dummySize) ||
			widthUp >= compensator*ubwConsiderSize {
			layers = append(layers, current)
			for _, v := range current {
				placed[v] = true
			}
			current = nil
			spanningEdges -= goingOut
			maxWidth = math.Max(maxWidth, spanningEdges*st.dummySize+realWidth)
			spanningEdges += widthUp
			widthCurrent = widthUp
			widthUp = 0
			goingOut = 0
			realWidth = 0
		}
	}
	return maxWidth, layers
}

func (st *minWidthState) allPlaced(v int, placed []bool) bool {
	for _, w := range st.succ[v] {
		if !placed[w] {
			return false
		}
	}
	return true
}
