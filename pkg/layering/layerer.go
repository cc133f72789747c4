package layering

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// Layerer assigns every layerless node of a graph to a layer.
type Layerer interface {
	Layer(g *lgraph.Graph) error
}

// Strategy names a layering algorithm.
type Strategy string

const (
	StrategyLongestPath            Strategy = "longest-path"
	StrategyNetworkSimplex         Strategy = "network-simplex"
	StrategyCoffmanGraham          Strategy = "coffman-graham"
	StrategyInteractive            Strategy = "interactive"
	StrategyMinWidth               Strategy = "min-width"
	StrategyStretchWidth           Strategy = "stretch-width"
	StrategyBreadthFirstModelOrder Strategy = "bf-model-order"
	StrategyDepthFirstModelOrder   Strategy = "df-model-order"
)

// Strategies lists all strategies in a stable order.
var Strategies = []Strategy{
	StrategyNetworkSimplex,
	StrategyLongestPath,
	StrategyCoffmanGraham,
	StrategyInteractive,
	StrategyMinWidth,
	StrategyStretchWidth,
	StrategyBreadthFirstModelOrder,
	StrategyDepthFirstModelOrder,
}

// AutoSearch makes MinWidth try every value of its parameter range and keep
// the narrowest result.
const AutoSearch = -1

// Config carries the options layerers read.
type Config struct {
	// Thoroughness multiplies the network simplex iteration limit.
	Thoroughness int
	// NetworkSimplexBalance moves nodes with equal in- and out-degree to less
	// crowded layers after network simplex.
	NetworkSimplexBalance bool
	// CoffmanGrahamBound is the maximum number of nodes per layer.
	CoffmanGrahamBound int
	// UpperBoundOnWidth for MinWidth, or [AutoSearch].
	UpperBoundOnWidth int
	// UpperLayerEstimationScalingFactor for MinWidth, or [AutoSearch].
	UpperLayerEstimationScalingFactor int
	// Spacing provides the edge spacing MinWidth and StretchWidth use as the
	// size of dummy nodes.
	Spacing lgraph.Spacing
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		Thoroughness:                      7,
		NetworkSimplexBalance:             true,
		CoffmanGrahamBound:                math.MaxInt32,
		UpperBoundOnWidth:                 4,
		UpperLayerEstimationScalingFactor: 2,
		Spacing: lgraph.Spacing{
			NodeNode:      20,
			EdgeNode:      10,
			EdgeEdge:      10,
			BetweenLayers: 20,
		},
	}
}

// New returns the layerer for s configured from cfg.
func New(s Strategy, cfg Config) (Layerer, error) {
	switch s {
	case StrategyLongestPath:
		return LongestPath{}, nil
	case StrategyNetworkSimplex, "":
		return NetworkSimplex{Thoroughness: cfg.Thoroughness, Balance: cfg.NetworkSimplexBalance}, nil
	case StrategyCoffmanGraham:
		if cfg.CoffmanGrahamBound < 1 {
			return nil, lkerrors.New(lkerrors.ErrCodeInvalidConfig,
				"coffman-graham layer bound must be at least 1, got %d", cfg.CoffmanGrahamBound)
		}
		return CoffmanGraham{Bound: cfg.CoffmanGrahamBound}, nil
	case StrategyInteractive:
		return Interactive{}, nil
	case StrategyMinWidth:
		return MinWidth{
			UpperBoundOnWidth: cfg.UpperBoundOnWidth,
			ScalingFactor:     cfg.UpperLayerEstimationScalingFactor,
			EdgeSpacing:       cfg.Spacing.EdgeEdge,
		}, nil
	case StrategyStretchWidth:
		return StretchWidth{EdgeSpacing: cfg.Spacing.EdgeEdge}, nil
	case StrategyBreadthFirstModelOrder:
		return BreadthFirstModelOrder{}, nil
	case StrategyDepthFirstModelOrder:
		return DepthFirstModelOrder{}, nil
	}
	return nil, lkerrors.New(lkerrors.ErrCodeInvalidConfig, "unknown layering strategy %q", s)
}

// successors returns the distinct targets of n's outgoing edges, skipping
// self-loops and nodes outside ix, in edge order.
func successors(ix *lgraph.Index, n *lgraph.Node) []int {
	var out []int
	for _, e := range n.Outgoing() {
		if e.IsSelfLoop() {
			continue
		}
		t, ok := ix.Lookup(e.TargetNode())
		if ok && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// degrees counts incoming and outgoing edges per node, skipping self-loops
// and edges leaving the index.
func degrees(ix *lgraph.Index) (in, out []int) {
	in = make([]int, ix.Len())
	out = make([]int, ix.Len())
	for i, n := range ix.Nodes() {
		for _, e := range n.Incoming() {
			if _, ok := ix.Lookup(e.SourceNode()); ok && !e.IsSelfLoop() {
				in[i]++
			}
		}
		for _, e := range n.Outgoing() {
			if _, ok := ix.Lookup(e.TargetNode()); ok && !e.IsSelfLoop() {
				out[i]++
			}
		}
	}
	return in, out
}

// minRealHeight returns the height of the smallest regular node, at least 1.
func minRealHeight(nodes []*lgraph.Node) float64 {
	m := math.Inf(1)
	for _, n := range nodes {
		if n.Type == lgraph.NodeTypeNormal {
			m = math.Min(m, n.Size.Y)
		}
	}
	return math.Max(1, m)
}

// appendLayers creates one graph layer per node list, in order.
func appendLayers(g *lgraph.Graph, layers [][]*lgraph.Node) {
	for _, nodes := range layers {
		if len(nodes) == 0 {
			continue
		}
		l := g.AddLayer()
		for _, n := range nodes {
			n.SetLayer(l)
		}
	}
}

// requireAcyclic fails with UNSUPPORTED_GRAPH if the successor lists contain
// a directed cycle. Heuristics that wait for all successors of a node to be
// placed would never terminate on such input.
func requireAcyclic(succ [][]int, algorithm string) error {
	dg := simple.NewDirectedGraph()
	for v := range succ {
		dg.AddNode(simple.Node(int64(v)))
	}
	for v, ws := range succ {
		for _, w := range ws {
			dg.SetEdge(dg.NewEdge(simple.Node(int64(v)), simple.Node(int64(w))))
		}
	}
	if _, err := topo.Sort(dg); err != nil {
		return lkerrors.Wrap(lkerrors.ErrCodeUnsupportedGraph, err, "%s layering requires an acyclic graph", algorithm)
	}
	return nil
}
