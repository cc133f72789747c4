package bk

import (
	"math"

	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// VDirection is the order in which the nodes of a layer are visited.
type VDirection int

const (
	// Down visits nodes from the first to the last of a layer.
	Down VDirection = iota
	// Up visits nodes from the last to the first.
	Up
)

// HDirection is the order in which layers are visited.
type HDirection int

const (
	// Right visits layers from the first to the last.
	Right HDirection = iota
	// Left visits layers from the last to the first.
	Left
)

// alignedLayout is the scratch state of one directional layout. Blocks are
// kept as explicit member lists owned by their root, in alignment order, so
// the root is always blocks[root][0].
type alignedLayout struct {
	nb      *Neighborhood
	spacing lgraph.Spacing
	vdir    VDirection
	hdir    HDirection

	root       []int
	blocks     [][]int        // by root id; nil for non-roots
	alignEdge  []*lgraph.Edge // edge joining a node to its predecessor in the block
	innerShift []float64
	blockSize  []float64
	sink       []int
	shift      []float64
	y          []float64
	placed     []bool

	// su marks blocks that already had an edge straightened by the
	// threshold strategy.
	su []bool
	// od marks blocks consisting of long-edge dummies only, apart from the
	// root.
	od []bool
}

func newAlignedLayout(nb *Neighborhood, spacing lgraph.Spacing, v VDirection, h HDirection) *alignedLayout {
	n := nb.Index.Len()
	al := &alignedLayout{
		nb:         nb,
		spacing:    spacing,
		vdir:       v,
		hdir:       h,
		root:       make([]int, n),
		blocks:     make([][]int, n),
		alignEdge:  make([]*lgraph.Edge, n),
		innerShift: make([]float64, n),
		blockSize:  make([]float64, n),
		sink:       make([]int, n),
		shift:      make([]float64, n),
		y:          make([]float64, n),
		placed:     make([]bool, n),
		su:         make([]bool, n),
		od:         make([]bool, n),
	}
	for i := range n {
		al.root[i] = i
		al.blocks[i] = []int{i}
		al.sink[i] = i
		al.od[i] = true
	}
	return al
}

// name returns the layout's direction, e.g. "RIGHTDOWN".
func (al *alignedLayout) name() string {
	return layoutName(al.hdir, al.vdir)
}

func layoutName(h HDirection, v VDirection) string {
	s := "RIGHT"
	if h == Left {
		s = "LEFT"
	}
	if v == Up {
		return s + "UP"
	}
	return s + "DOWN"
}

func (al *alignedLayout) node(id int) *lgraph.Node { return al.nb.Index.Node(id) }

// layers returns the node ids per layer in sweep order.
func (al *alignedLayout) layers() [][]int {
	out := make([][]int, len(al.nb.layers))
	for i, l := range al.nb.layers {
		if al.hdir == Left {
			i = len(out) - 1 - i
		}
		out[i] = l
	}
	return out
}

// sweep returns the ids of one layer in node sweep order.
func (al *alignedLayout) sweep(layer []int) []int {
	if al.vdir == Down {
		return layer
	}
	out := make([]int, len(layer))
	for i, id := range layer {
		out[len(out)-1-i] = id
	}
	return out
}

// isLast reports whether id is the final member of its block.
func (al *alignedLayout) isLast(id int) bool {
	b := al.blocks[al.root[id]]
	return b[len(b)-1] == id
}

// size returns the vertical extent of the layout.
func (al *alignedLayout) size() float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for id := range al.y {
		lo = math.Min(lo, al.y[id])
		hi = math.Max(hi, al.y[id]+al.blockSize[al.root[id]])
	}
	if math.IsInf(lo, 0) {
		return 0
	}
	return hi - lo
}

// portY returns the absolute y coordinate of a port's anchor.
func (al *alignedLayout) portY(p *lgraph.Port) float64 {
	id := al.nb.Of(p.Node)
	return al.y[id] + al.innerShift[id] + p.AnchorY()
}

// delta returns how far tgt lies below src.
func (al *alignedLayout) delta(src, tgt *lgraph.Port) float64 {
	return al.portY(tgt) - al.portY(src)
}

// shiftBlock moves every member of id's block by d.
func (al *alignedLayout) shiftBlock(id int, d float64) {
	for _, m := range al.blocks[al.root[id]] {
		al.y[m] += d
	}
}

func (al *alignedLayout) minY(id int) float64 {
	return al.y[al.root[id]] + al.innerShift[id] - al.node(id).Margin.Top
}

func (al *alignedLayout) maxY(id int) float64 {
	n := al.node(id)
	return al.y[al.root[id]] + al.innerShift[id] + n.Size.Y + n.Margin.Bottom
}

// neighbor returns the node offset positions away from id in its layer, or
// -1 past either end.
func (al *alignedLayout) neighbor(id, offset int) int {
	layer := al.nb.layers[al.nb.LayerIndex[id]]
	i := al.nb.NodeIndex[id] + offset
	if i < 0 || i >= len(layer) {
		return -1
	}
	return layer[i]
}

// spaceAbove limits d to the free space above every member of id's block.
func (al *alignedLayout) spaceAbove(id int, d float64) float64 {
	for _, m := range al.blocks[al.root[id]] {
		if up := al.neighbor(m, -1); up >= 0 {
			gap := al.spacing.Vertical(al.node(m), al.node(up))
			d = math.Min(d, al.minY(m)-(al.maxY(up)+gap))
		}
	}
	return d
}

// spaceBelow limits d to the free space below every member of id's block.
func (al *alignedLayout) spaceBelow(id int, d float64) float64 {
	for _, m := range al.blocks[al.root[id]] {
		if down := al.neighbor(m, 1); down >= 0 {
			gap := al.spacing.Vertical(al.node(m), al.node(down))
			d = math.Min(d, al.minY(down)-(al.maxY(m)+gap))
		}
	}
	return d
}
