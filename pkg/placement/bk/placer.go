package bk

import (
	"context"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"

	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// FixedAlignment restricts placement to one directional layout, or forces
// the balanced layout.
type FixedAlignment string

const (
	AlignNone      FixedAlignment = "NONE"
	AlignBalanced  FixedAlignment = "BALANCED"
	AlignLeftDown  FixedAlignment = "LEFTDOWN"
	AlignLeftUp    FixedAlignment = "LEFTUP"
	AlignRightDown FixedAlignment = "RIGHTDOWN"
	AlignRightUp   FixedAlignment = "RIGHTUP"
)

// Balanced is the name [Result.Chosen] reports for the balanced layout.
const Balanced = "BALANCED"

// Config carries the node placement options.
type Config struct {
	FixedAlignment FixedAlignment
	// FavorStraightEdges picks the smallest directional layout instead of
	// the balanced one when no alignment is fixed.
	FavorStraightEdges bool
	EdgeStraightening  EdgeStraightening
	Spacing            lgraph.Spacing
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		FixedAlignment:    AlignNone,
		EdgeStraightening: StraighteningImproveStraightness,
		Spacing: lgraph.Spacing{
			NodeNode:      20,
			EdgeNode:      10,
			EdgeEdge:      10,
			BetweenLayers: 20,
		},
	}
}

// LayoutSummary describes one computed layout.
type LayoutSummary struct {
	Name     string  `json:"name"`
	Size     float64 `json:"size"`
	Feasible bool    `json:"feasible"`
}

// Result reports which layout was written back.
type Result struct {
	// Chosen is the name of the written layout, e.g. "RIGHTDOWN" or
	// [Balanced].
	Chosen string `json:"chosen"`
	// Feasible is false if no layout passed the order check and the first
	// directional layout was used anyway.
	Feasible bool `json:"feasible"`
	// Layouts lists every computed layout in computation order.
	Layouts []LayoutSummary `json:"layouts"`
	// MarkedEdges counts the edges excluded from alignment by type 1
	// conflicts.
	MarkedEdges int `json:"marked_edges"`
}

// Placer runs Brandes–Köpf node placement.
type Placer struct {
	cfg Config
}

// New validates cfg and returns a placer.
func New(cfg Config) (*Placer, error) {
	switch cfg.FixedAlignment {
	case "":
		cfg.FixedAlignment = AlignNone
	case AlignNone, AlignBalanced, AlignLeftDown, AlignLeftUp, AlignRightDown, AlignRightUp:
	default:
		return nil, lkerrors.New(lkerrors.ErrCodeInvalidConfig, "unknown fixed alignment %q", cfg.FixedAlignment)
	}
	switch cfg.EdgeStraightening {
	case "":
		cfg.EdgeStraightening = StraighteningImproveStraightness
	case StraighteningNone, StraighteningImproveStraightness:
	default:
		return nil, lkerrors.New(lkerrors.ErrCodeInvalidConfig, "unknown edge straightening %q", cfg.EdgeStraightening)
	}
	for _, s := range []struct {
		name string
		v    float64
	}{
		{"spacing.node_node", cfg.Spacing.NodeNode},
		{"spacing.edge_node", cfg.Spacing.EdgeNode},
		{"spacing.edge_edge", cfg.Spacing.EdgeEdge},
	} {
		if err := lkerrors.ValidateSpacing(s.name, s.v); err != nil {
			return nil, err
		}
	}
	return &Placer{cfg: cfg}, nil
}

type direction struct {
	h HDirection
	v VDirection
}

// directions returns the layouts to compute for the configured alignment.
func (p *Placer) directions() []direction {
	switch p.cfg.FixedAlignment {
	case AlignLeftDown:
		return []direction{{Left, Down}}
	case AlignLeftUp:
		return []direction{{Left, Up}}
	case AlignRightDown:
		return []direction{{Right, Down}}
	case AlignRightUp:
		return []direction{{Right, Up}}
	}
	return []direction{{Right, Down}, {Right, Up}, {Left, Down}, {Left, Up}}
}

func (p *Placer) balanced() bool {
	return (p.cfg.FixedAlignment == AlignNone && !p.cfg.FavorStraightEdges) ||
		p.cfg.FixedAlignment == AlignBalanced
}

// Place assigns [lgraph.Node.Pos].Y to every node of g. The graph must be
// layered with every edge leading to the next layer; in-layer edges and
// self-loops are ignored.
func (p *Placer) Place(ctx context.Context, g *lgraph.Graph) (Result, error) {
	if err := checkProperLayering(g); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, lkerrors.Wrap(lkerrors.ErrCodeCanceled, err, "node placement")
	}

	nb := NewNeighborhood(g)
	marked := markConflicts(nb)

	dirs := p.directions()
	layouts := make([]*alignedLayout, len(dirs))
	var eg errgroup.Group
	for i, d := range dirs {
		eg.Go(func() error {
			al := newAlignedLayout(nb, p.cfg.Spacing, d.v, d.h)
			alignVertically(al, marked)
			shiftInsideBlocks(al)
			compactHorizontally(al, p.cfg.EdgeStraightening)
			layouts[i] = al
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{MarkedEdges: len(marked)}
	positions := make([][]float64, len(layouts))
	feasible := make([]bool, len(layouts))
	for i, al := range layouts {
		positions[i] = al.positions()
		feasible[i] = checkOrder(nb, positions[i])
		res.Layouts = append(res.Layouts, LayoutSummary{Name: al.name(), Size: al.size(), Feasible: feasible[i]})
	}

	var chosen []float64
	if p.balanced() && len(layouts) == 4 {
		bal := balance(nb, layouts)
		ok := checkOrder(nb, bal)
		res.Layouts = append(res.Layouts, LayoutSummary{Name: Balanced, Size: extent(nb, bal), Feasible: ok})
		if ok {
			chosen, res.Chosen, res.Feasible = bal, Balanced, true
		}
	}
	if chosen == nil {
		best := -1
		for i, al := range layouts {
			if feasible[i] && (best < 0 || al.size() < layouts[best].size()) {
				best = i
			}
		}
		res.Feasible = best >= 0
		if best < 0 {
			best = 0
		}
		chosen, res.Chosen = positions[best], layouts[best].name()
	}

	for id, n := range nb.Index.Nodes() {
		n.Pos.Y = chosen[id]
	}
	return res, nil
}

// checkProperLayering rejects graphs with layerless nodes or edges that do
// not lead from one layer to the next.
func checkProperLayering(g *lgraph.Graph) error {
	if len(g.Layerless) > 0 {
		return lkerrors.Unsupported("node placement requires a layered graph; %q has no layer", g.Layerless[0].ID)
	}
	idx := g.LayerIndexes()
	for _, e := range g.Edges() {
		if e.IsSelfLoop() || e.IsInLayerEdge() {
			continue
		}
		if idx[e.TargetNode().Layer()]-idx[e.SourceNode().Layer()] != 1 {
			return lkerrors.Unsupported("node placement requires edges between adjacent layers; %s spans %d layers",
				e, idx[e.TargetNode().Layer()]-idx[e.SourceNode().Layer()])
		}
	}
	return nil
}

// markConflicts marks every non-inner edge segment that crosses an inner
// segment, i.e. an edge between two long-edge dummies. The first and last
// pair of layers cannot contain inner segments and are skipped.
func markConflicts(nb *Neighborhood) map[*lgraph.Edge]bool {
	marked := make(map[*lgraph.Edge]bool)
	if len(nb.layers) < 3 {
		return marked
	}
	for i := 1; i < len(nb.layers)-1; i++ {
		next := nb.layers[i+1]
		k0, l := 0, 0
		for l1, v := range next {
			src, inner := nb.innerSegment(v, i)
			if l1 != len(next)-1 && !inner {
				continue
			}
			k1 := nb.LayerSize(i) - 1
			if inner {
				k1 = nb.NodeIndex[src]
			}
			for ; l <= l1; l++ {
				vl := next[l]
				if _, in := nb.innerSegment(vl, i); in {
					continue
				}
				for _, u := range nb.Left[vl] {
					if k := nb.Position(u.Node); k < k0 || k > k1 {
						marked[u.Edge] = true
					}
				}
			}
			k0 = k1
		}
	}
	return marked
}

// innerSegment returns the source of an inner segment ending at the
// long-edge dummy id, coming from layer prev.
func (nb *Neighborhood) innerSegment(id, prev int) (int, bool) {
	n := nb.Index.Node(id)
	if n.Type != lgraph.NodeTypeLongEdge {
		return 0, false
	}
	for _, e := range n.Incoming() {
		src, ok := nb.Index.Lookup(e.SourceNode())
		if ok && e.SourceNode().Type == lgraph.NodeTypeLongEdge && nb.LayerIndex[src] == prev {
			return src, true
		}
	}
	return 0, false
}

// positions returns the final coordinate of every node.
func (al *alignedLayout) positions() []float64 {
	out := make([]float64, len(al.y))
	for id := range out {
		out[id] = al.y[id] + al.innerShift[id]
	}
	return out
}

// balance places every node at the average of its two median coordinates
// among the aligned candidates of [alignCandidates].
func balance(nb *Neighborhood, layouts []*alignedLayout) []float64 {
	cands := alignCandidates(nb, layouts)
	out := make([]float64, nb.Index.Len())
	ys := make([]float64, len(cands))
	for id := range out {
		for i := range cands {
			ys[i] = cands[i][id]
		}
		slices.Sort(ys)
		out[id] = (ys[1] + ys[2]) / 2
	}
	return out
}

// alignCandidates returns the coordinates of every layout, shifted so that
// down layouts share their top and up layouts their bottom with the
// smallest layout.
func alignCandidates(nb *Neighborhood, layouts []*alignedLayout) [][]float64 {
	lo := make([]float64, len(layouts))
	hi := make([]float64, len(layouts))
	pos := make([][]float64, len(layouts))
	smallest := 0
	for i, al := range layouts {
		pos[i] = al.positions()
		if al.size() < layouts[smallest].size() {
			smallest = i
		}
		lo[i], hi[i] = math.Inf(1), math.Inf(-1)
		for id, y := range pos[i] {
			lo[i] = min(lo[i], y)
			hi[i] = max(hi[i], y+nb.Index.Node(id).Size.Y)
		}
	}
	for i, al := range layouts {
		shift := hi[smallest] - hi[i]
		if al.vdir == Down {
			shift = lo[smallest] - lo[i]
		}
		for id := range pos[i] {
			pos[i][id] += shift
		}
	}
	return pos
}

// checkOrder reports whether the nodes of every layer are stacked strictly
// in layer order, margins included.
func checkOrder(nb *Neighborhood, pos []float64) bool {
	for _, layer := range nb.layers {
		last := math.Inf(-1)
		for _, id := range layer {
			n := nb.Index.Node(id)
			top := pos[id] - n.Margin.Top
			bottom := pos[id] + n.Size.Y + n.Margin.Bottom
			if top <= last || bottom <= last {
				return false
			}
			last = bottom
		}
	}
	return true
}

// extent returns the vertical extent of the given coordinates, margins
// excluded.
func extent(nb *Neighborhood, pos []float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for id, y := range pos {
		lo = min(lo, y)
		hi = max(hi, y+nb.Index.Node(id).Size.Y)
	}
	if math.IsInf(lo, 0) {
		return 0
	}
	return hi - lo
}
