package bk

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
	"github.com/matzehuels/layerkit/pkg/lgraph"
)

var nodeSize = lgraph.Vector{X: 30, Y: 20}

// layered builds a graph with the given layers. IDs listed in dummies
// become zero-sized long-edge dummies.
func layered(layers [][]string, dummies []string, edges [][2]string) *lgraph.Graph {
	g := lgraph.New()
	for _, ids := range layers {
		l := g.AddLayer()
		for _, id := range ids {
			n := g.MustAddNode(id, nodeSize)
			if slices.Contains(dummies, id) {
				n.Type = lgraph.NodeTypeLongEdge
				n.Size = lgraph.Vector{}
			}
			n.SetLayer(l)
		}
	}
	g.Layerless = nil
	for _, e := range edges {
		connect(g, e[0], e[1])
	}
	return g
}

func connect(g *lgraph.Graph, src, tgt string) *lgraph.Edge {
	s, _ := g.Node(src)
	t, _ := g.Node(tgt)
	return g.Connect(s, t)
}

func mustNode(t *testing.T, g *lgraph.Graph, id string) *lgraph.Node {
	t.Helper()
	n, ok := g.Node(id)
	if !ok {
		t.Fatalf("node %q missing", id)
	}
	return n
}

func mustPlace(t *testing.T, cfg Config, g *lgraph.Graph) Result {
	t.Helper()
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := p.Place(context.Background(), g)
	if err != nil {
		t.Fatalf("Place() error = %v", err)
	}
	return res
}

func TestNeighborhood_MaxPriorityOnly(t *testing.T) {
	g := layered([][]string{{"d", "a", "b"}, {"c", "x"}}, nil, nil)
	connect(g, "a", "c")
	connect(g, "b", "c").PriorityStraightness = 2
	connect(g, "d", "c").PriorityStraightness = 2
	connect(g, "c", "c")
	connect(g, "x", "c")

	nb := NewNeighborhood(g)
	c := mustNode(t, g, "c")
	var got []string
	for _, n := range nb.Left[nb.Of(c)] {
		got = append(got, n.Node.ID)
	}
	if want := []string{"d", "b"}; !slices.Equal(got, want) {
		t.Errorf("Left[c] = %v, want %v", got, want)
	}
	if len(nb.Right[nb.Of(c)]) != 0 {
		t.Errorf("Right[c] = %v, want none", nb.Right[nb.Of(c)])
	}
	if got := nb.Position(mustNode(t, g, "b")); got != 2 {
		t.Errorf("Position(b) = %d, want 2", got)
	}
	if got := nb.LayerIndex[nb.Of(c)]; got != 1 {
		t.Errorf("LayerIndex[c] = %d, want 1", got)
	}
}

func TestAlignVertically_TwoNodesShareBlock(t *testing.T) {
	g := layered([][]string{{"a"}, {"b"}}, nil, [][2]string{{"a", "b"}})
	nb := NewNeighborhood(g)
	al := newAlignedLayout(nb, DefaultConfig().Spacing, Down, Right)
	alignVertically(al, markConflicts(nb))

	a, b := nb.Of(mustNode(t, g, "a")), nb.Of(mustNode(t, g, "b"))
	if al.root[b] != a || al.root[a] != a {
		t.Errorf("roots = (%d, %d), want both %d", al.root[a], al.root[b], a)
	}
	if !slices.Equal(al.blocks[a], []int{a, b}) {
		t.Errorf("blocks[a] = %v, want [%d %d]", al.blocks[a], a, b)
	}
	if al.blocks[b] != nil {
		t.Errorf("blocks[b] = %v, want nil", al.blocks[b])
	}
}

func TestAlignVertically_MedianBySweep(t *testing.T) {
	tests := []struct {
		v    VDirection
		want string
	}{
		{Down, "a"},
		{Up, "b"},
	}
	for _, tt := range tests {
		g := layered([][]string{{"a", "b"}, {"c"}}, nil, [][2]string{{"a", "c"}, {"b", "c"}})
		nb := NewNeighborhood(g)
		al := newAlignedLayout(nb, DefaultConfig().Spacing, tt.v, Right)
		alignVertically(al, nil)

		c := nb.Of(mustNode(t, g, "c"))
		if got := al.node(al.root[c]).ID; got != tt.want {
			t.Errorf("%s: root of c = %s, want %s", al.name(), got, tt.want)
		}
	}
}

func TestMarkConflicts_CrossingInnerSegment(t *testing.T) {
	g := layered(
		[][]string{{"a", "x"}, {"d1", "b"}, {"c", "d2"}, {"e"}},
		[]string{"d1", "d2"},
		[][2]string{{"a", "d1"}, {"x", "b"}, {"d1", "d2"}, {"b", "c"}, {"d2", "e"}, {"c", "e"}},
	)
	nb := NewNeighborhood(g)
	marked := markConflicts(nb)
	if len(marked) != 1 {
		t.Fatalf("markConflicts() marked %d edges, want 1", len(marked))
	}
	for e := range marked {
		if e.String() != "b->c" {
			t.Errorf("marked %s, want b->c", e)
		}
	}

	res := mustPlace(t, DefaultConfig(), g)
	if res.MarkedEdges != 1 {
		t.Errorf("MarkedEdges = %d, want 1", res.MarkedEdges)
	}
	d1, d2 := mustNode(t, g, "d1"), mustNode(t, g, "d2")
	if res.Chosen != Balanced && d1.Pos.Y != d2.Pos.Y {
		t.Errorf("inner segment bent: d1.y = %v, d2.y = %v", d1.Pos.Y, d2.Pos.Y)
	}
}

func TestMarkConflicts_TooFewLayers(t *testing.T) {
	g := layered([][]string{{"a", "b"}, {"c", "d"}}, nil, [][2]string{{"a", "d"}, {"b", "c"}})
	if got := markConflicts(NewNeighborhood(g)); len(got) != 0 {
		t.Errorf("markConflicts() = %v, want none", got)
	}
}

func TestPlace_FixedRightDownKeepsEdgeStraight(t *testing.T) {
	g := layered([][]string{{"a"}, {"b"}}, nil, [][2]string{{"a", "b"}})
	cfg := DefaultConfig()
	cfg.FixedAlignment = AlignRightDown
	res := mustPlace(t, cfg, g)

	if res.Chosen != "RIGHTDOWN" || !res.Feasible {
		t.Errorf("Place() = %+v, want RIGHTDOWN and feasible", res)
	}
	if len(res.Layouts) != 1 {
		t.Errorf("computed %d layouts, want 1", len(res.Layouts))
	}
	if a, b := mustNode(t, g, "a"), mustNode(t, g, "b"); a.Pos.Y != b.Pos.Y {
		t.Errorf("a.y = %v, b.y = %v, want equal", a.Pos.Y, b.Pos.Y)
	}
}

// straightEdges counts the edges whose ports share a y coordinate.
func straightEdges(g *lgraph.Graph) int {
	count := 0
	for _, e := range g.Edges() {
		if e.SourceNode().Pos.Y+e.Source.AnchorY() == e.TargetNode().Pos.Y+e.Target.AnchorY() {
			count++
		}
	}
	return count
}

func TestPlace_ImproveStraightnessMovesUnalignedBlock(t *testing.T) {
	// c takes the median b of d, so d starts its own block. Compaction
	// alone packs d right below c; the threshold moves it level with e.
	build := func() *lgraph.Graph {
		return layered([][]string{{"a", "b", "f", "e"}, {"c", "d"}}, nil,
			[][2]string{{"b", "c"}, {"e", "d"}, {"a", "d"}, {"b", "d"}})
	}

	place := func(s EdgeStraightening) (*lgraph.Graph, Result) {
		g := build()
		cfg := DefaultConfig()
		cfg.FixedAlignment = AlignRightDown
		cfg.EdgeStraightening = s
		return g, mustPlace(t, cfg, g)
	}

	plain, plainRes := place(StraighteningNone)
	improved, improvedRes := place(StraighteningImproveStraightness)
	for _, res := range []Result{plainRes, improvedRes} {
		if res.Chosen != "RIGHTDOWN" || !res.Feasible {
			t.Fatalf("Place() = %+v, want feasible RIGHTDOWN", res)
		}
	}

	if got := straightEdges(plain); got != 1 {
		t.Errorf("straight edges without straightening = %d, want 1", got)
	}
	if got := straightEdges(improved); got != 2 {
		t.Errorf("straight edges with straightening = %d, want 2", got)
	}
	if d, e := mustNode(t, improved, "d"), mustNode(t, improved, "e"); d.Pos.Y != e.Pos.Y {
		t.Errorf("d.y = %v, e.y = %v, want equal", d.Pos.Y, e.Pos.Y)
	}
	if d, c := mustNode(t, plain, "d"), mustNode(t, plain, "c"); d.Pos.Y <= c.Pos.Y {
		t.Errorf("d.y = %v, want below c.y = %v", d.Pos.Y, c.Pos.Y)
	}
}

func TestPlace_ChainIsStraight(t *testing.T) {
	g := layered([][]string{{"a"}, {"b"}, {"c"}}, nil, [][2]string{{"a", "b"}, {"b", "c"}})
	res := mustPlace(t, DefaultConfig(), g)
	if res.Chosen != Balanced || !res.Feasible {
		t.Errorf("Place() = %+v, want balanced and feasible", res)
	}
	if len(res.Layouts) != 5 {
		t.Errorf("Layouts = %d entries, want 4 directional plus balanced", len(res.Layouts))
	}
	for _, id := range []string{"a", "b", "c"} {
		if y := mustNode(t, g, id).Pos.Y; y != 0 {
			t.Errorf("%s.y = %v, want 0", id, y)
		}
	}
}

func TestPlace_SpacingWithinLayer(t *testing.T) {
	tests := []struct {
		name  string
		align FixedAlignment
	}{
		{"balanced", AlignNone},
		{"right down", AlignRightDown},
		{"right up", AlignRightUp},
		{"left down", AlignLeftDown},
		{"left up", AlignLeftUp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := layered([][]string{{"a", "b"}}, nil, nil)
			cfg := DefaultConfig()
			cfg.FixedAlignment = tt.align
			mustPlace(t, cfg, g)
			a, b := mustNode(t, g, "a"), mustNode(t, g, "b")
			if got := b.Pos.Y - a.Pos.Y; got != nodeSize.Y+cfg.Spacing.NodeNode {
				t.Errorf("b.y - a.y = %v, want %v", got, nodeSize.Y+cfg.Spacing.NodeNode)
			}
		})
	}
}

func TestPlace_DummySpacing(t *testing.T) {
	g := layered([][]string{{"a", "d"}}, []string{"d"}, nil)
	cfg := DefaultConfig()
	cfg.FixedAlignment = AlignRightDown
	mustPlace(t, cfg, g)
	if got := mustNode(t, g, "d").Pos.Y; got != nodeSize.Y+cfg.Spacing.EdgeNode {
		t.Errorf("d.y = %v, want %v", got, nodeSize.Y+cfg.Spacing.EdgeNode)
	}
}

func TestPlace_MarginsKeepDistance(t *testing.T) {
	g := layered([][]string{{"a", "b"}}, nil, nil)
	mustNode(t, g, "a").Margin.Bottom = 5
	mustNode(t, g, "b").Margin.Top = 7
	cfg := DefaultConfig()
	cfg.FixedAlignment = AlignRightDown
	mustPlace(t, cfg, g)
	if got := mustNode(t, g, "b").Pos.Y; got != nodeSize.Y+5+cfg.Spacing.NodeNode+7 {
		t.Errorf("b.y = %v, want %v", got, nodeSize.Y+5+cfg.Spacing.NodeNode+7)
	}
}

func TestPlace_InsideBlockShiftAlignsPorts(t *testing.T) {
	g := lgraph.New()
	a := g.MustAddNode("a", lgraph.Vector{X: 30, Y: 40})
	b := g.MustAddNode("b", lgraph.Vector{X: 30, Y: 20})
	a.SetLayer(g.AddLayer())
	b.SetLayer(g.AddLayer())
	g.Layerless = nil
	g.Connect(a, b)

	cfg := DefaultConfig()
	cfg.FixedAlignment = AlignRightDown
	mustPlace(t, cfg, g)
	ay := a.Pos.Y + a.Ports[0].AnchorY()
	by := b.Pos.Y + b.Ports[0].AnchorY()
	if ay != by {
		t.Errorf("port y = %v and %v, want equal", ay, by)
	}
}

func TestPlace_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *lgraph.Graph
	}{
		{"layerless node", func() *lgraph.Graph {
			g := layered([][]string{{"a"}}, nil, nil)
			g.AddNode("b")
			return g
		}},
		{"edge spans two layers", func() *lgraph.Graph {
			return layered([][]string{{"a"}, {"b"}, {"c"}}, nil, [][2]string{{"a", "c"}})
		}},
	}
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Place(context.Background(), tt.build())
			if !lkerrors.Is(err, lkerrors.ErrCodeUnsupportedGraph) {
				t.Errorf("Place() error = %v, want UNSUPPORTED_GRAPH", err)
			}
		})
	}
}

func TestPlace_Canceled(t *testing.T) {
	p, _ := New(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Place(ctx, layered([][]string{{"a"}}, nil, nil))
	if !lkerrors.Is(err, lkerrors.ErrCodeCanceled) {
		t.Errorf("Place() error = %v, want CANCELED", err)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(*Config)
	}{
		{"alignment", func(c *Config) { c.FixedAlignment = "DIAGONAL" }},
		{"straightening", func(c *Config) { c.EdgeStraightening = "MAXIMAL" }},
		{"spacing", func(c *Config) { c.Spacing.NodeNode = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.cfg(&cfg)
			if _, err := New(cfg); !lkerrors.Is(err, lkerrors.ErrCodeInvalidConfig) {
				t.Errorf("New() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestPlace_EmptyGraph(t *testing.T) {
	res := mustPlace(t, DefaultConfig(), lgraph.New())
	if !res.Feasible {
		t.Errorf("Place(empty) = %+v, want feasible", res)
	}
}

// randomLayered builds a properly layered graph: every edge connects two
// consecutive layers.
func randomLayered(seed int64, layers int) *lgraph.Graph {
	rng := rand.New(rand.NewSource(seed))
	g := lgraph.New()
	var prev []*lgraph.Node
	for li := range layers {
		l := g.AddLayer()
		var cur []*lgraph.Node
		for k := range 1 + rng.Intn(5) {
			n := g.MustAddNode(fmt.Sprintf("n%d_%d", li, k), lgraph.Vector{X: 30, Y: float64(10 + rng.Intn(30))})
			if rng.Intn(3) == 0 {
				n.Type = lgraph.NodeTypeLongEdge
				n.Size = lgraph.Vector{}
			}
			n.Margin.Top = float64(rng.Intn(3))
			n.Margin.Bottom = float64(rng.Intn(3))
			n.SetLayer(l)
			cur = append(cur, n)
		}
		for _, t := range cur {
			for _, s := range prev {
				if rng.Intn(3) == 0 {
					g.Connect(s, t).PriorityStraightness = rng.Intn(2)
				}
			}
		}
		prev = cur
	}
	g.Layerless = nil
	return g
}

func positionsOf(g *lgraph.Graph) []float64 {
	var out []float64
	for _, n := range g.Nodes() {
		out = append(out, n.Pos.Y)
	}
	return out
}

func TestPlacementProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	var configs []Config
	for _, a := range []FixedAlignment{AlignNone, AlignBalanced, AlignRightDown, AlignLeftUp} {
		for _, s := range []EdgeStraightening{StraighteningNone, StraighteningImproveStraightness} {
			cfg := DefaultConfig()
			cfg.FixedAlignment, cfg.EdgeStraightening = a, s
			configs = append(configs, cfg)
		}
	}

	for _, cfg := range configs {
		p, err := New(cfg)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		name := fmt.Sprintf("%s/%s", cfg.FixedAlignment, cfg.EdgeStraightening)

		properties.Property(name+": placements are feasible and do not overlap", prop.ForAll(
			func(seed int64, layers int) bool {
				g := randomLayered(seed, layers)
				res, err := p.Place(context.Background(), g)
				if err != nil || res.Chosen == "" {
					return false
				}
				for _, n := range g.Nodes() {
					if math.IsNaN(n.Pos.Y) || math.IsInf(n.Pos.Y, 0) {
						return false
					}
				}
				if !res.Feasible {
					return false
				}
				for _, l := range g.Layers {
					last := math.Inf(-1)
					for _, n := range l.Nodes {
						top := n.Pos.Y - n.Margin.Top
						bottom := n.Pos.Y + n.Size.Y + n.Margin.Bottom
						if top <= last || bottom <= last {
							return false
						}
						last = bottom
					}
				}
				return true
			},
			gen.Int64(),
			gen.IntRange(1, 6),
		))

		properties.Property(name+": deterministic", prop.ForAll(
			func(seed int64, layers int) bool {
				g1, g2 := randomLayered(seed, layers), randomLayered(seed, layers)
				r1, err1 := p.Place(context.Background(), g1)
				r2, err2 := p.Place(context.Background(), g2)
				if err1 != nil || err2 != nil || r1.Chosen != r2.Chosen {
					return false
				}
				return slices.Equal(positionsOf(g1), positionsOf(g2))
			},
			gen.Int64(),
			gen.IntRange(1, 6),
		))
	}

	properties.Property("balanced coordinates lie between the candidates", prop.ForAll(
		func(seed int64, layers int) bool {
			g := randomLayered(seed, layers)
			nb := NewNeighborhood(g)
			marked := markConflicts(nb)
			var layouts []*alignedLayout
			for _, d := range (&Placer{cfg: DefaultConfig()}).directions() {
				al := newAlignedLayout(nb, DefaultConfig().Spacing, d.v, d.h)
				alignVertically(al, marked)
				shiftInsideBlocks(al)
				compactHorizontally(al, StraighteningImproveStraightness)
				layouts = append(layouts, al)
			}
			cands := alignCandidates(nb, layouts)
			bal := balance(nb, layouts)
			for id, y := range bal {
				lo, hi := math.Inf(1), math.Inf(-1)
				for _, c := range cands {
					lo, hi = min(lo, c[id]), max(hi, c[id])
				}
				if y < lo || y > hi {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(1, 6),
	))

	properties.Property("blocks partition the nodes", prop.ForAll(
		func(seed int64, layers int) bool {
			g := randomLayered(seed, layers)
			nb := NewNeighborhood(g)
			al := newAlignedLayout(nb, DefaultConfig().Spacing, Up, Left)
			alignVertically(al, markConflicts(nb))
			seen := make([]bool, nb.Index.Len())
			for root, block := range al.blocks {
				if block == nil {
					continue
				}
				if block[0] != root {
					return false
				}
				for _, m := range block {
					if seen[m] || al.root[m] != root {
						return false
					}
					seen[m] = true
				}
			}
			return !slices.Contains(seen, false)
		},
		gen.Int64(),
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}
