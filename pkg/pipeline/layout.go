package pipeline

import (
	"context"
	"math"
	"time"

	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
	"github.com/matzehuels/layerkit/pkg/graph"
	"github.com/matzehuels/layerkit/pkg/layering"
	"github.com/matzehuels/layerkit/pkg/lgraph"
	"github.com/matzehuels/layerkit/pkg/lgraph/transform"
	"github.com/matzehuels/layerkit/pkg/observability"
	"github.com/matzehuels/layerkit/pkg/placement/bk"
)

// Phase names reported to observability hooks and in [Stats.Phases].
const (
	PhaseCycles    = "cycles"
	PhaseLayering  = "layering"
	PhaseLongEdges = "long_edges"
	PhaseOrdering  = "ordering"
	PhasePlacement = "placement"
	PhaseCoords    = "coordinates"
	PhaseFinish    = "finish"
)

// layoutStats are the statistics only a computed layout can report.
type layoutStats struct {
	Layers        int
	Dummies       int
	ReversedEdges int
	Crossings     int
	Phases        []PhaseTiming
}

// =============================================================================
// Layout Generation
// =============================================================================

// GenerateLayout lays out a graph without caching. opts must have been
// validated.
func GenerateLayout(ctx context.Context, in graph.Graph, opts Options) (graph.Layout, error) {
	l, _, err := computeLayout(ctx, in, opts)
	return l, err
}

func computeLayout(ctx context.Context, in graph.Graph, opts Options) (graph.Layout, layoutStats, error) {
	var stats layoutStats
	logger := opts.Logger
	mon := observability.NewMonitor(ctx)

	layerer, err := layering.New(layering.Strategy(opts.Layering), opts.LayeringConfig())
	if err != nil {
		return graph.Layout{}, stats, err
	}
	placer, err := bk.New(opts.PlacementConfig())
	if err != nil {
		return graph.Layout{}, stats, err
	}

	lg, err := graph.ToLGraph(in)
	if err != nil {
		return graph.Layout{}, stats, err
	}

	// run executes one phase between cancellation checks.
	run := func(name string, fn func() error) error {
		if err := mon.Err(); err != nil {
			return err
		}
		start := time.Now()
		done := mon.Phase(name, lg.NodeCount())
		err := fn()
		done(err)
		d := time.Since(start)
		stats.Phases = append(stats.Phases, PhaseTiming{Name: name, Duration: d})
		logger.Debug("layout phase", "phase", name, "nodes", lg.NodeCount(), "duration", d, "err", err)
		return err
	}

	var placement bk.Result
	phases := []struct {
		name string
		fn   func() error
	}{
		{PhaseCycles, func() error {
			if opts.IsModelOrderLayering() {
				stats.ReversedEdges = transform.BreakCyclesByModelOrder(lg)
			} else {
				stats.ReversedEdges = transform.BreakCycles(lg)
			}
			return nil
		}},
		{PhaseLayering, func() error {
			return layerer.Layer(lg)
		}},
		{PhaseLongEdges, func() error {
			stats.Dummies = transform.SplitLongEdges(lg)
			if err := lg.Validate(); err != nil {
				return lkerrors.Wrap(lkerrors.ErrCodeUnsupportedGraph, err, "%s layering left an improper graph", opts.Layering)
			}
			return nil
		}},
		{PhaseOrdering, func() error {
			stats.Crossings = transform.OrderLayers(lg, opts.OrderingPasses)
			return nil
		}},
		{PhasePlacement, func() error {
			var err error
			placement, err = placer.Place(ctx, lg)
			return err
		}},
		{PhaseCoords, func() error {
			transform.AssignX(lg, opts.Spacing())
			normalizeY(lg)
			return nil
		}},
		{PhaseFinish, func() error {
			transform.JoinLongEdges(lg)
			transform.RestoreReversed(lg)
			return nil
		}},
	}
	for _, p := range phases {
		if err := run(p.name, p.fn); err != nil {
			return graph.Layout{}, stats, err
		}
	}
	stats.Layers = len(lg.Layers)

	out := graph.Export(in, lg)
	out.Layering = opts.Layering
	out.Crossings = stats.Crossings
	out.Placement = &graph.Placement{
		Chosen:      placement.Chosen,
		Feasible:    placement.Feasible,
		MarkedEdges: placement.MarkedEdges,
	}
	return out, stats, nil
}

// normalizeY shifts all nodes so the topmost one, margin included, starts
// at zero. Bend points are derived from dummy positions later and need no
// shift.
func normalizeY(g *lgraph.Graph) {
	top := math.Inf(1)
	for _, n := range g.Nodes() {
		top = math.Min(top, n.Pos.Y-n.Margin.Top)
	}
	if math.IsInf(top, 1) || top == 0 {
		return
	}
	for _, n := range g.Nodes() {
		n.Pos.Y -= top
	}
}
