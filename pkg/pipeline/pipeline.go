// Package pipeline runs the complete layout pipeline for layerkit.
//
// This package sequences the layout phases and caches their result, so the
// CLI and the HTTP API behave the same. By centralizing this logic, every
// entry point applies the same defaults and validation.
//
// # Architecture
//
// A layout run consists of these phases:
//
//  1. Cycle breaking: reverse back edges (by DFS, or by model order for the
//     model-order layerings)
//  2. Layering: assign every node to a layer
//  3. Long edges: split edges spanning several layers into dummy chains
//  4. Ordering: reduce crossings by barycenter sweeps
//  5. Placement: Brandes–Köpf y coordinates
//  6. Coordinates: x per layer, y normalized to start at zero
//  7. Finish: join dummy chains into bend points and restore reversed edges
//
// Cancellation is checked between phases. Rendering the result to DOT, SVG,
// PNG or JSON is a separate step with its own cache entries.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Layering: "coffman-graham",
//	    CoffmanGrahamLayerBound: 3,
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, g, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerkit/pkg/cache"
	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
	"github.com/matzehuels/layerkit/pkg/graph"
	"github.com/matzehuels/layerkit/pkg/layering"
	"github.com/matzehuels/layerkit/pkg/lgraph"
	"github.com/matzehuels/layerkit/pkg/lgraph/transform"
	"github.com/matzehuels/layerkit/pkg/placement/bk"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultLayering is the layering strategy used when none is given.
	DefaultLayering = string(layering.StrategyNetworkSimplex)

	// DefaultThoroughness multiplies the network simplex iteration limit.
	DefaultThoroughness = 7

	// DefaultCoffmanGrahamBound leaves Coffman–Graham layers unbounded.
	DefaultCoffmanGrahamBound = math.MaxInt32

	// DefaultUpperBoundOnWidth is MinWidth's width bound.
	DefaultUpperBoundOnWidth = 4

	// DefaultUpperLayerEstimationScalingFactor is MinWidth's compensator.
	DefaultUpperLayerEstimationScalingFactor = 2

	// DefaultOrderingPasses is the number of barycenter sweeps.
	DefaultOrderingPasses = transform.DefaultPasses

	// DefaultScale is the PNG resolution multiplier.
	DefaultScale = 1.0
)

// Default spacings.
const (
	DefaultSpacingNodeNode      = 20.0
	DefaultSpacingEdgeNode      = 10.0
	DefaultSpacingEdgeEdge      = 10.0
	DefaultSpacingBetweenLayers = 20.0
)

// Default node placement settings.
const (
	DefaultFixedAlignment    = string(bk.AlignNone)
	DefaultEdgeStraightening = string(bk.StraighteningImproveStraightness)
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// ValidAlignments is the set of accepted node_placement_bk_fixed_alignment values.
var ValidAlignments = map[string]bool{
	string(bk.AlignNone):      true,
	string(bk.AlignBalanced):  true,
	string(bk.AlignLeftDown):  true,
	string(bk.AlignLeftUp):    true,
	string(bk.AlignRightDown): true,
	string(bk.AlignRightUp):   true,
}

// ValidStraightenings is the set of accepted node_placement_bk_edge_straightening values.
var ValidStraightenings = map[string]bool{
	string(bk.StraighteningNone):                true,
	string(bk.StraighteningImproveStraightness): true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the layout pipeline. Field tags use
// the layout option names in lower snake case, for JSON requests and TOML
// configuration files alike. Zero values mean "use the default".
type Options struct {
	// Layering
	Layering                                  string `json:"layering,omitempty" toml:"layering"`
	Thoroughness                              int    `json:"thoroughness,omitempty" toml:"thoroughness"`
	NetworkSimplexBalance                     *bool  `json:"layering_network_simplex_balance,omitempty" toml:"layering_network_simplex_balance"`
	CoffmanGrahamLayerBound                   int    `json:"layering_coffman_graham_layer_bound,omitempty" toml:"layering_coffman_graham_layer_bound"`
	MinWidthUpperBoundOnWidth                 int    `json:"layering_min_width_upper_bound_on_width,omitempty" toml:"layering_min_width_upper_bound_on_width"`
	MinWidthUpperLayerEstimationScalingFactor int    `json:"layering_min_width_upper_layer_estimation_scaling_factor,omitempty" toml:"layering_min_width_upper_layer_estimation_scaling_factor"`

	// Ordering
	OrderingPasses int `json:"ordering_passes,omitempty" toml:"ordering_passes"`

	// Node placement
	FixedAlignment     string `json:"node_placement_bk_fixed_alignment,omitempty" toml:"node_placement_bk_fixed_alignment"`
	FavorStraightEdges bool   `json:"node_placement_favor_straight_edges,omitempty" toml:"node_placement_favor_straight_edges"`
	EdgeStraightening  string `json:"node_placement_bk_edge_straightening,omitempty" toml:"node_placement_bk_edge_straightening"`

	// Spacing
	SpacingNodeNode      float64 `json:"spacing_node_node,omitempty" toml:"spacing_node_node"`
	SpacingEdgeNode      float64 `json:"spacing_edge_node,omitempty" toml:"spacing_edge_node"`
	SpacingEdgeEdge      float64 `json:"spacing_edge_edge,omitempty" toml:"spacing_edge_edge"`
	SpacingBetweenLayers float64 `json:"spacing_between_layers,omitempty" toml:"spacing_between_layers"`

	// Render options
	Formats []string `json:"formats,omitempty" toml:"formats"`
	Scale   float64  `json:"scale,omitempty" toml:"scale"`

	// Detailed annotates drawn nodes with their layer and in-layer index.
	Detailed bool `json:"detailed,omitempty" toml:"detailed"`

	// Refresh skips cache lookups; results are still written.
	Refresh bool `json:"-" toml:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and API responses.
	RunID string

	// GraphHash is the content hash of the input graph.
	GraphHash string

	// Layout is the laid-out graph.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics. Phase statistics are only
// filled when the layout was computed, not when it came from the cache.
type Stats struct {
	NodeCount     int
	EdgeCount     int
	Layers        int
	Dummies       int
	ReversedEdges int
	Crossings     int
	Phases        []PhaseTiming
	LayoutTime    time.Duration
	RenderTime    time.Duration
}

// PhaseTiming records the duration of one layout phase.
type PhaseTiming struct {
	Name     string
	Duration time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return lkerrors.New(lkerrors.ErrCodeInvalidConfig,
			"invalid format: %q (must be one of: svg, png, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLayering checks that a layering strategy name is known.
func ValidateLayering(name string) error {
	for _, s := range layering.Strategies {
		if string(s) == name {
			return nil
		}
	}
	names := make([]string, len(layering.Strategies))
	for i, s := range layering.Strategies {
		names[i] = string(s)
	}
	return lkerrors.New(lkerrors.ErrCodeInvalidConfig,
		"invalid layering: %q (must be one of: %s)", name, strings.Join(names, ", "))
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults and rejects invalid values with an
// INVALID_CONFIG error. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := o.validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults fills unset layout options.
func (o *Options) SetLayoutDefaults() {
	if o.Layering == "" {
		o.Layering = DefaultLayering
	}
	if o.Thoroughness == 0 {
		o.Thoroughness = DefaultThoroughness
	}
	if o.NetworkSimplexBalance == nil {
		balance := true
		o.NetworkSimplexBalance = &balance
	}
	if o.CoffmanGrahamLayerBound == 0 {
		o.CoffmanGrahamLayerBound = DefaultCoffmanGrahamBound
	}
	if o.MinWidthUpperBoundOnWidth == 0 {
		o.MinWidthUpperBoundOnWidth = DefaultUpperBoundOnWidth
	}
	if o.MinWidthUpperLayerEstimationScalingFactor == 0 {
		o.MinWidthUpperLayerEstimationScalingFactor = DefaultUpperLayerEstimationScalingFactor
	}
	if o.OrderingPasses == 0 {
		o.OrderingPasses = DefaultOrderingPasses
	}
	if o.FixedAlignment == "" {
		o.FixedAlignment = DefaultFixedAlignment
	}
	if o.EdgeStraightening == "" {
		o.EdgeStraightening = DefaultEdgeStraightening
	}
	if o.SpacingNodeNode == 0 {
		o.SpacingNodeNode = DefaultSpacingNodeNode
	}
	if o.SpacingEdgeNode == 0 {
		o.SpacingEdgeNode = DefaultSpacingEdgeNode
	}
	if o.SpacingEdgeEdge == 0 {
		o.SpacingEdgeEdge = DefaultSpacingEdgeEdge
	}
	if o.SpacingBetweenLayers == 0 {
		o.SpacingBetweenLayers = DefaultSpacingBetweenLayers
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults fills unset render options.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
}

func (o *Options) validate() error {
	if err := ValidateLayering(o.Layering); err != nil {
		return err
	}
	if err := lkerrors.ValidateIntRange("thoroughness", o.Thoroughness, 1, 1000); err != nil {
		return err
	}
	if o.CoffmanGrahamLayerBound < 1 {
		return lkerrors.New(lkerrors.ErrCodeInvalidConfig,
			"layering_coffman_graham_layer_bound must be at least 1 (got %d)", o.CoffmanGrahamLayerBound)
	}
	if err := lkerrors.ValidateAutoOrPositive("layering_min_width_upper_bound_on_width", o.MinWidthUpperBoundOnWidth); err != nil {
		return err
	}
	if err := lkerrors.ValidateAutoOrPositive("layering_min_width_upper_layer_estimation_scaling_factor",
		o.MinWidthUpperLayerEstimationScalingFactor); err != nil {
		return err
	}
	if o.OrderingPasses < 0 {
		return lkerrors.New(lkerrors.ErrCodeInvalidConfig, "ordering_passes must not be negative (got %d)", o.OrderingPasses)
	}
	if !ValidAlignments[o.FixedAlignment] {
		return lkerrors.New(lkerrors.ErrCodeInvalidConfig,
			"invalid node_placement_bk_fixed_alignment: %q (must be one of: NONE, BALANCED, LEFTDOWN, LEFTUP, RIGHTDOWN, RIGHTUP)",
			o.FixedAlignment)
	}
	if !ValidStraightenings[o.EdgeStraightening] {
		return lkerrors.New(lkerrors.ErrCodeInvalidConfig,
			"invalid node_placement_bk_edge_straightening: %q (must be one of: NONE, IMPROVE_STRAIGHTNESS)",
			o.EdgeStraightening)
	}
	for _, s := range []struct {
		name string
		v    float64
	}{
		{"spacing_node_node", o.SpacingNodeNode},
		{"spacing_edge_node", o.SpacingEdgeNode},
		{"spacing_edge_edge", o.SpacingEdgeEdge},
		{"spacing_between_layers", o.SpacingBetweenLayers},
	} {
		if err := lkerrors.ValidateSpacing(s.name, s.v); err != nil {
			return err
		}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale <= 0 || o.Scale > 8 {
		return lkerrors.New(lkerrors.ErrCodeInvalidConfig, "scale must be in (0, 8] (got %g)", o.Scale)
	}
	return nil
}

// Spacing returns the spacing settings.
func (o *Options) Spacing() lgraph.Spacing {
	return lgraph.Spacing{
		NodeNode:      o.SpacingNodeNode,
		EdgeNode:      o.SpacingEdgeNode,
		EdgeEdge:      o.SpacingEdgeEdge,
		BetweenLayers: o.SpacingBetweenLayers,
	}
}

// LayeringConfig returns the configuration for [layering.New].
func (o *Options) LayeringConfig() layering.Config {
	balance := o.NetworkSimplexBalance == nil || *o.NetworkSimplexBalance
	return layering.Config{
		Thoroughness:                      o.Thoroughness,
		NetworkSimplexBalance:             balance,
		CoffmanGrahamBound:                o.CoffmanGrahamLayerBound,
		UpperBoundOnWidth:                 o.MinWidthUpperBoundOnWidth,
		UpperLayerEstimationScalingFactor: o.MinWidthUpperLayerEstimationScalingFactor,
		Spacing:                           o.Spacing(),
	}
}

// PlacementConfig returns the configuration for [bk.New].
func (o *Options) PlacementConfig() bk.Config {
	return bk.Config{
		FixedAlignment:     bk.FixedAlignment(o.FixedAlignment),
		FavorStraightEdges: o.FavorStraightEdges,
		EdgeStraightening:  bk.EdgeStraightening(o.EdgeStraightening),
		Spacing:            o.Spacing(),
	}
}

// IsModelOrderLayering reports whether the layering strategy follows the
// model order, in which case cycles are broken by model order too.
func (o *Options) IsModelOrderLayering() bool {
	s := layering.Strategy(o.Layering)
	return s == layering.StrategyBreadthFirstModelOrder || s == layering.StrategyDepthFirstModelOrder
}

// LayoutKeyOpts returns cache key options for layout computation. Render
// options do not take part.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	k := *o
	k.Formats, k.Scale, k.Detailed = nil, 0, false
	h, _ := cache.HashJSON(k)
	return cache.LayoutKeyOpts{Layering: o.Layering, OptionsHash: h}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format}
	if format == FormatPNG {
		opts.Scale = o.Scale
	}
	if format != FormatJSON {
		opts.Detailed = o.Detailed
	}
	return opts
}

// =============================================================================
// Configuration Files
// =============================================================================

// LoadOptions reads options from a TOML file. Keys the file sets that
// Options does not know are rejected.
func LoadOptions(path string) (Options, error) {
	var o Options
	md, err := toml.DecodeFile(path, &o)
	if errors.Is(err, fs.ErrNotExist) {
		return Options{}, lkerrors.Wrap(lkerrors.ErrCodeFileNotFound, err, "config file %s not found", path)
	}
	if err != nil {
		return Options{}, lkerrors.Wrap(lkerrors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Options{}, lkerrors.New(lkerrors.ErrCodeInvalidConfig,
			"unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return o, nil
}

// Merge overlays the non-zero fields of over onto o and returns the result.
// The CLI uses it to let flags override a configuration file.
func (o Options) Merge(over Options) Options {
	if over.Layering != "" {
		o.Layering = over.Layering
	}
	if over.Thoroughness != 0 {
		o.Thoroughness = over.Thoroughness
	}
	if over.NetworkSimplexBalance != nil {
		o.NetworkSimplexBalance = over.NetworkSimplexBalance
	}
	if over.CoffmanGrahamLayerBound != 0 {
		o.CoffmanGrahamLayerBound = over.CoffmanGrahamLayerBound
	}
	if over.MinWidthUpperBoundOnWidth != 0 {
		o.MinWidthUpperBoundOnWidth = over.MinWidthUpperBoundOnWidth
	}
	if over.MinWidthUpperLayerEstimationScalingFactor != 0 {
		o.MinWidthUpperLayerEstimationScalingFactor = over.MinWidthUpperLayerEstimationScalingFactor
	}
	if over.OrderingPasses != 0 {
		o.OrderingPasses = over.OrderingPasses
	}
	if over.FixedAlignment != "" {
		o.FixedAlignment = over.FixedAlignment
	}
	if over.FavorStraightEdges {
		o.FavorStraightEdges = true
	}
	if over.EdgeStraightening != "" {
		o.EdgeStraightening = over.EdgeStraightening
	}
	if over.SpacingNodeNode != 0 {
		o.SpacingNodeNode = over.SpacingNodeNode
	}
	if over.SpacingEdgeNode != 0 {
		o.SpacingEdgeNode = over.SpacingEdgeNode
	}
	if over.SpacingEdgeEdge != 0 {
		o.SpacingEdgeEdge = over.SpacingEdgeEdge
	}
	if over.SpacingBetweenLayers != 0 {
		o.SpacingBetweenLayers = over.SpacingBetweenLayers
	}
	if len(over.Formats) > 0 {
		o.Formats = over.Formats
	}
	if over.Scale != 0 {
		o.Scale = over.Scale
	}
	if over.Detailed {
		o.Detailed = true
	}
	if over.Refresh {
		o.Refresh = true
	}
	if over.Logger != nil {
		o.Logger = over.Logger
	}
	o.validated = false
	return o
}

// String summarizes the options that select algorithms, for log lines.
func (o *Options) String() string {
	return fmt.Sprintf("layering=%s alignment=%s straightening=%s", o.Layering, o.FixedAlignment, o.EdgeStraightening)
}
