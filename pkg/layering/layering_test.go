package layering

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
	"github.com/matzehuels/layerkit/pkg/lgraph"
	"github.com/matzehuels/layerkit/pkg/lgraph/transform"
)

var nodeSize = lgraph.Vector{X: 30, Y: 20}

// buildGraph creates nodes in the given order, each with its position in ids
// as model order, and connects them.
func buildGraph(ids []string, edges [][2]string) *lgraph.Graph {
	g := lgraph.New()
	for i, id := range ids {
		n := g.MustAddNode(id, nodeSize)
		n.SetModelOrder(i)
	}
	for _, e := range edges {
		src, _ := g.Node(e[0])
		tgt, _ := g.Node(e[1])
		g.Connect(src, tgt)
	}
	return g
}

func layerOf(t *testing.T, g *lgraph.Graph, id string) int {
	t.Helper()
	n, ok := g.Node(id)
	if !ok {
		t.Fatalf("node %q not found", id)
	}
	if n.Layer() == nil {
		t.Fatalf("node %q has no layer", id)
	}
	return n.Layer().Index()
}

func mustLayer(t *testing.T, l Layerer, g *lgraph.Graph) {
	t.Helper()
	if err := l.Layer(g); err != nil {
		t.Fatalf("Layer() error = %v", err)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func allLayerers(t *testing.T) map[Strategy]Layerer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.CoffmanGrahamBound = 2
	out := make(map[Strategy]Layerer, len(Strategies))
	for _, s := range Strategies {
		l, err := New(s, cfg)
		if err != nil {
			t.Fatalf("New(%q) error = %v", s, err)
		}
		out[s] = l
	}
	return out
}

func TestLongestPath_Chain(t *testing.T) {
	g := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	mustLayer(t, LongestPath{}, g)

	if len(g.Layers) != 3 {
		t.Fatalf("len(Layers) = %d, want 3", len(g.Layers))
	}
	if got := layerOf(t, g, "a"); got != 0 {
		t.Errorf("layer(a) = %d, want 0", got)
	}
	if got := layerOf(t, g, "c"); got != 2 {
		t.Errorf("layer(c) = %d, want 2", got)
	}
}

func TestLongestPath_SinksAtBottom(t *testing.T) {
	g := buildGraph([]string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"b", "c"}, {"a", "d"}})
	mustLayer(t, LongestPath{}, g)

	if got := layerOf(t, g, "d"); got != 2 {
		t.Errorf("layer(d) = %d, want 2", got)
	}
}

func TestAllStrategies_Diamond(t *testing.T) {
	for s, l := range allLayerers(t) {
		t.Run(string(s), func(t *testing.T) {
			g := buildGraph([]string{"a", "b", "c", "d"},
				[][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}})
			mustLayer(t, l, g)

			last := len(g.Layers) - 1
			if got := layerOf(t, g, "a"); got != 0 {
				t.Errorf("layer(a) = %d, want 0", got)
			}
			if got := layerOf(t, g, "d"); got != last {
				t.Errorf("layer(d) = %d, want %d", got, last)
			}
			for _, id := range []string{"b", "c"} {
				if got := layerOf(t, g, id); got <= 0 || got >= last {
					t.Errorf("layer(%s) = %d, want strictly between 0 and %d", id, got, last)
				}
			}
			if len(g.Layerless) != 0 {
				t.Errorf("len(Layerless) = %d, want 0", len(g.Layerless))
			}
		})
	}
}

func TestAllStrategies_SelfLoopsIgnored(t *testing.T) {
	for s, l := range allLayerers(t) {
		t.Run(string(s), func(t *testing.T) {
			g := buildGraph([]string{"a", "b"}, [][2]string{{"a", "a"}, {"a", "b"}, {"b", "b"}})
			mustLayer(t, l, g)
			if layerOf(t, g, "a") >= layerOf(t, g, "b") {
				t.Errorf("layer(a) >= layer(b)")
			}
		})
	}
}

func TestAllStrategies_EmptyGraph(t *testing.T) {
	for s, l := range allLayerers(t) {
		if err := l.Layer(lgraph.New()); err != nil {
			t.Errorf("%s: Layer(empty) error = %v", s, err)
		}
	}
}

func TestCoffmanGraham_BoundOne(t *testing.T) {
	g := buildGraph([]string{"a", "b", "c"}, nil)
	mustLayer(t, CoffmanGraham{Bound: 1}, g)

	if len(g.Layers) != 3 {
		t.Fatalf("len(Layers) = %d, want 3", len(g.Layers))
	}
	for i, l := range g.Layers {
		if l.Len() != 1 {
			t.Errorf("layer %d has %d nodes, want 1", i, l.Len())
		}
	}
}

func TestCoffmanGraham_IgnoresTransitiveEdges(t *testing.T) {
	// a→c is implied by a→b→c and must not force extra layers.
	g := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}})
	mustLayer(t, CoffmanGraham{Bound: 4}, g)

	if len(g.Layers) != 3 {
		t.Errorf("len(Layers) = %d, want 3", len(g.Layers))
	}
}

func TestCoffmanGraham_BoundExcludesLongEdgeDummies(t *testing.T) {
	// a→c skips b's layer; its dummy is added after layering and is not
	// counted against the bound.
	g := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}})
	mustLayer(t, CoffmanGraham{Bound: 1}, g)

	if got := transform.SplitLongEdges(g); got != 1 {
		t.Fatalf("SplitLongEdges() = %d, want 1", got)
	}
	middle := g.Layers[layerOf(t, g, "b")]
	if middle.Len() != 2 {
		t.Errorf("layer of b holds %d nodes, want 2", middle.Len())
	}
	for i, l := range g.Layers {
		regular := 0
		for _, n := range l.Nodes {
			if n.Type == lgraph.NodeTypeNormal {
				regular++
			}
		}
		if regular > 1 {
			t.Errorf("layer %d holds %d regular nodes, want at most 1", i, regular)
		}
	}
}

func TestCoffmanGraham_ClosesLayerOnInLayerEdge(t *testing.T) {
	g := buildGraph([]string{"a", "b"}, [][2]string{{"a", "b"}})
	mustLayer(t, CoffmanGraham{Bound: 10}, g)

	if len(g.Layers) != 2 {
		t.Errorf("len(Layers) = %d, want 2", len(g.Layers))
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		mutate   func(*Config)
	}{
		{"unknown strategy", "spiral", nil},
		{"coffman-graham bound zero", StrategyCoffmanGraham, func(c *Config) { c.CoffmanGrahamBound = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			_, err := New(tt.strategy, cfg)
			if !lkerrors.Is(err, lkerrors.ErrCodeInvalidConfig) {
				t.Errorf("New() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestNew_EmptyStrategyIsNetworkSimplex(t *testing.T) {
	l, err := New("", DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := l.(NetworkSimplex); !ok {
		t.Errorf("New(\"\") = %T, want NetworkSimplex", l)
	}
}

func TestModelOrder_MissingOrder(t *testing.T) {
	for _, l := range []Layerer{BreadthFirstModelOrder{}, DepthFirstModelOrder{}} {
		t.Run(fmt.Sprintf("%T", l), func(t *testing.T) {
			g := lgraph.New()
			a := g.MustAddNode("a", nodeSize)
			a.SetModelOrder(0)
			b := g.MustAddNode("b", nodeSize)
			g.Connect(a, b)

			err := l.Layer(g)
			if !lkerrors.Is(err, lkerrors.ErrCodeUnsupportedGraph) {
				t.Fatalf("Layer() error = %v, want UNSUPPORTED_GRAPH", err)
			}
			if b.Layer() != nil {
				t.Errorf("b was layered despite the error")
			}
		})
	}
}

func TestModelOrder_EdgeAgainstOrder(t *testing.T) {
	for _, l := range []Layerer{BreadthFirstModelOrder{}, DepthFirstModelOrder{}} {
		g := buildGraph([]string{"a", "b"}, [][2]string{{"b", "a"}})
		if err := l.Layer(g); !lkerrors.Is(err, lkerrors.ErrCodeUnsupportedGraph) {
			t.Errorf("%T: Layer() error = %v, want UNSUPPORTED_GRAPH", l, err)
		}
	}
}

func TestBreadthFirstModelOrder_FillsCurrentLayer(t *testing.T) {
	g := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "c"}})
	mustLayer(t, BreadthFirstModelOrder{}, g)

	if len(g.Layers) != 2 {
		t.Fatalf("len(Layers) = %d, want 2", len(g.Layers))
	}
	if layerOf(t, g, "b") != 0 || layerOf(t, g, "c") != 1 {
		t.Errorf("layers = b:%d c:%d, want b:0 c:1", layerOf(t, g, "b"), layerOf(t, g, "c"))
	}
}

func TestBreadthFirstModelOrder_LabelDummyBetween(t *testing.T) {
	g := lgraph.New()
	a := g.MustAddNode("a", nodeSize)
	a.SetModelOrder(0)
	b := g.MustAddNode("b", nodeSize)
	b.SetModelOrder(1)
	label := g.AddDummy(lgraph.NodeTypeLabel, "a->b")
	g.Connect(a, label)
	g.Connect(label, b)

	mustLayer(t, BreadthFirstModelOrder{}, g)

	if got := label.Layer().Index(); got != 1 {
		t.Errorf("layer(label) = %d, want 1", got)
	}
	if got := b.Layer().Index(); got != 2 {
		t.Errorf("layer(b) = %d, want 2", got)
	}
}

func TestDepthFirstModelOrder_Chain(t *testing.T) {
	g := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	mustLayer(t, DepthFirstModelOrder{}, g)

	for i, id := range []string{"a", "b", "c"} {
		if got := layerOf(t, g, id); got != i {
			t.Errorf("layer(%s) = %d, want %d", id, got, i)
		}
	}
}

func TestDepthFirstModelOrder_StripJoinsLater(t *testing.T) {
	// b starts a strip at the top and stays pending until c connects it.
	g := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "c"}, {"b", "c"}})
	mustLayer(t, DepthFirstModelOrder{}, g)

	if layerOf(t, g, "a") != 0 || layerOf(t, g, "b") != 0 {
		t.Errorf("layers = a:%d b:%d, want both 0", layerOf(t, g, "a"), layerOf(t, g, "b"))
	}
	if got := layerOf(t, g, "c"); got != 1 {
		t.Errorf("layer(c) = %d, want 1", got)
	}
}

func TestDepthFirstModelOrder_DeepBranch(t *testing.T) {
	// d hangs off a, but comes after the a→b→c chain.
	g := buildGraph([]string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"b", "c"}, {"a", "d"}})
	mustLayer(t, DepthFirstModelOrder{}, g)

	if got := layerOf(t, g, "d"); got != 1 {
		t.Errorf("layer(d) = %d, want 1", got)
	}
}

func TestNetworkSimplex_Cyclic(t *testing.T) {
	g := buildGraph([]string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
	err := NetworkSimplex{Thoroughness: 7}.Layer(g)
	if !lkerrors.Is(err, lkerrors.ErrCodeUnsupportedGraph) {
		t.Errorf("Layer() error = %v, want UNSUPPORTED_GRAPH", err)
	}
}

func TestNetworkSimplex_IterationLimit(t *testing.T) {
	tests := []struct {
		thoroughness, nodes, want int
	}{
		{7, 16, 7 * 4 * 4},
		{1, 1, 4},
		{0, 16, 16},
		{-3, 16, 16},
		{0, 0, 4},
	}
	for _, tt := range tests {
		l := NetworkSimplex{Thoroughness: tt.thoroughness}
		if got := l.iterationLimit(tt.nodes); got != tt.want {
			t.Errorf("iterationLimit(%d) with thoroughness %d = %d, want %d", tt.nodes, tt.thoroughness, got, tt.want)
		}
	}
}

func TestNetworkSimplex_ZeroThoroughness(t *testing.T) {
	g := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	mustLayer(t, NetworkSimplex{}, g)

	if len(g.Layers) != 3 {
		t.Errorf("len(Layers) = %d, want 3", len(g.Layers))
	}
}

func TestNetworkSimplex_ShortensEdges(t *testing.T) {
	// Longest path would put e at the bottom next to d; network simplex keeps
	// the edge a→e short.
	g := buildGraph([]string{"a", "b", "c", "d", "e"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"a", "e"}})
	mustLayer(t, NetworkSimplex{Thoroughness: 7}, g)

	if got := layerOf(t, g, "e"); got != 1 {
		t.Errorf("layer(e) = %d, want 1", got)
	}
}

func TestNetworkSimplex_Components(t *testing.T) {
	g := buildGraph([]string{"a", "b", "c", "x", "y"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"x", "y"}})
	mustLayer(t, NetworkSimplex{Thoroughness: 7, Balance: true}, g)

	if len(g.Layers) != 3 {
		t.Errorf("len(Layers) = %d, want 3", len(g.Layers))
	}
	if layerOf(t, g, "y")-layerOf(t, g, "x") != 1 {
		t.Errorf("x→y spans %d layers, want 1", layerOf(t, g, "y")-layerOf(t, g, "x"))
	}
}

func TestConnectedComponents_LargestFirst(t *testing.T) {
	g := buildGraph([]string{"x", "a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	comps := connectedComponents(g.Layerless)
	if len(comps) != 2 {
		t.Fatalf("len(components) = %d, want 2", len(comps))
	}
	if len(comps[0]) != 3 {
		t.Errorf("len(components[0]) = %d, want 3", len(comps[0]))
	}
}

func TestInteractive_KeepsColumns(t *testing.T) {
	g := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "c"}})
	xs := map[string]float64{"a": 0, "b": 10, "c": 100}
	for id, x := range xs {
		n, _ := g.Node(id)
		n.Pos.X = x
	}
	mustLayer(t, Interactive{}, g)

	if len(g.Layers) != 2 {
		t.Fatalf("len(Layers) = %d, want 2", len(g.Layers))
	}
	if layerOf(t, g, "a") != 0 || layerOf(t, g, "b") != 0 || layerOf(t, g, "c") != 1 {
		t.Errorf("unexpected layers a:%d b:%d c:%d", layerOf(t, g, "a"), layerOf(t, g, "b"), layerOf(t, g, "c"))
	}
}

func TestInteractive_CorrectsBackwardEdges(t *testing.T) {
	// c is drawn left of its source a and must be pushed behind it.
	g := buildGraph([]string{"a", "c"}, [][2]string{{"a", "c"}})
	a, _ := g.Node("a")
	a.Pos.X = 200
	mustLayer(t, Interactive{}, g)

	if layerOf(t, g, "c") <= layerOf(t, g, "a") {
		t.Errorf("layer(c) = %d, want > layer(a) = %d", layerOf(t, g, "c"), layerOf(t, g, "a"))
	}
}

func TestInteractive_Cycle(t *testing.T) {
	g := buildGraph([]string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
	if err := (Interactive{}).Layer(g); !lkerrors.Is(err, lkerrors.ErrCodeUnsupportedGraph) {
		t.Errorf("Layer() error = %v, want UNSUPPORTED_GRAPH", err)
	}
}

func TestMinWidth_NarrowerThanLongestPath(t *testing.T) {
	// A root with eight leaves: longest path puts all leaves into one layer.
	ids := []string{"r"}
	var edges [][2]string
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("l%d", i)
		ids = append(ids, id)
		edges = append(edges, [2]string{"r", id})
	}
	g := buildGraph(ids, edges)
	mustLayer(t, MinWidth{UpperBoundOnWidth: 1, ScalingFactor: 1, EdgeSpacing: 10}, g)

	if len(g.Layers) < 3 {
		t.Errorf("len(Layers) = %d, want at least 3", len(g.Layers))
	}
}

func TestMinWidth_AutoSearch(t *testing.T) {
	g := buildGraph([]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"a", "d"}})
	mustLayer(t, MinWidth{UpperBoundOnWidth: AutoSearch, ScalingFactor: AutoSearch, EdgeSpacing: 10}, g)
}

func TestStretchWidth_WideFanOut(t *testing.T) {
	ids := []string{"r"}
	var edges [][2]string
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("l%d", i)
		ids = append(ids, id)
		edges = append(edges, [2]string{"r", id})
	}
	g := buildGraph(ids, edges)
	mustLayer(t, StretchWidth{EdgeSpacing: 10}, g)

	if got := layerOf(t, g, "r"); got != 0 {
		t.Errorf("layer(r) = %d, want 0", got)
	}
}

func TestStretchWidth_MixedSizes(t *testing.T) {
	// A node much taller than the others forces the width bound up.
	g := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"a", "c"}})
	b, _ := g.Node("b")
	b.Size.Y = 200
	mustLayer(t, StretchWidth{EdgeSpacing: 10}, g)
}

// randomDAG builds a graph whose edges point from lower to higher node
// numbers, so node numbers are a valid model order.
func randomDAG(seed int64, n int) *lgraph.Graph {
	rng := rand.New(rand.NewSource(seed))
	g := lgraph.New()
	nodes := make([]*lgraph.Node, n)
	for i := range nodes {
		nodes[i] = g.MustAddNode(fmt.Sprintf("n%d", i), lgraph.Vector{
			X: float64(10 + rng.Intn(30)),
			Y: float64(10 + rng.Intn(30)),
		})
		nodes[i].SetModelOrder(i)
		nodes[i].Pos.X = float64(rng.Intn(200))
	}
	for k := 0; k < n+n/2; k++ {
		a, b := rng.Intn(n), rng.Intn(n)
		if a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}
		e := g.Connect(nodes[a], nodes[b])
		e.PriorityShortness = rng.Intn(3)
	}
	return g
}

func layerSignature(g *lgraph.Graph) string {
	var s string
	for i, l := range g.Layers {
		s += fmt.Sprintf("%d:", i)
		for _, n := range l.Nodes {
			s += n.ID + ","
		}
		s += ";"
	}
	return s
}

func TestLayeringProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	cfg := DefaultConfig()
	cfg.CoffmanGrahamBound = 3
	for _, s := range Strategies {
		l, err := New(s, cfg)
		if err != nil {
			t.Fatalf("New(%q) error = %v", s, err)
		}

		properties.Property(string(s)+": every node layered, every edge forward", prop.ForAll(
			func(seed int64, n int) bool {
				g := randomDAG(seed, n)
				if err := l.Layer(g); err != nil {
					return false
				}
				return len(g.Layerless) == 0 && g.Validate() == nil
			},
			gen.Int64(),
			gen.IntRange(1, 40),
		))

		properties.Property(string(s)+": deterministic", prop.ForAll(
			func(seed int64, n int) bool {
				g1, g2 := randomDAG(seed, n), randomDAG(seed, n)
				if l.Layer(g1) != nil || l.Layer(g2) != nil {
					return false
				}
				return layerSignature(g1) == layerSignature(g2)
			},
			gen.Int64(),
			gen.IntRange(1, 40),
		))
	}

	properties.Property("coffman-graham respects the width bound", prop.ForAll(
		func(seed int64, n, w int) bool {
			g := randomDAG(seed, n)
			if err := (CoffmanGraham{Bound: w}).Layer(g); err != nil {
				return false
			}
			for _, l := range g.Layers {
				if l.Len() > w {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(1, 40),
		gen.IntRange(1, 5),
	))

	properties.TestingRun(t)
}
