package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layerkit/pkg/buildinfo"
	"github.com/matzehuels/layerkit/pkg/cache"
	"github.com/matzehuels/layerkit/pkg/layering"
	"github.com/matzehuels/layerkit/pkg/observability"
	"github.com/matzehuels/layerkit/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "layerkit"

	// envCache overrides the default cache location.
	envCache = "LAYERKIT_CACHE"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// cacheLocation is a directory or a file://, redis:// or mongodb:// URL.
	// Empty means the default directory.
	cacheLocation string
	noCache       bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "layerkit lays out directed graphs in layers",
		Long: `layerkit assigns the nodes of a directed graph to layers and places them
within their layers using Brandes–Köpf, producing a layered drawing with few
bends. Results are cached locally, in Redis, or in MongoDB.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			observability.SetCacheHooks(cacheLogHooks{logger: c.Logger})
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.cacheLocation, "cache", os.Getenv(envCache),
		"cache directory or URL (file://, redis://, rediss://, mongodb://), or \"none\"")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable caching")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	if c.noCache {
		return pipeline.NewRunner(cache.NewNullCache(), nil, c.Logger), nil
	}
	cc, err := c.openCache(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

// openCache opens the configured cache. A default directory that cannot be
// determined disables caching instead of failing.
func (c *CLI) openCache(ctx context.Context) (cache.Cache, error) {
	if c.cacheLocation != "" {
		return cache.Open(ctx, c.cacheLocation)
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/layerkit/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Layout Option Flags
// =============================================================================

// layoutFlags binds the layout options shared by several commands.
type layoutFlags struct {
	config    string
	noBalance bool
	opts      pipeline.Options
}

// register adds the layout flags to cmd.
func (f *layoutFlags) register(cmd *cobra.Command) {
	names := make([]string, len(layering.Strategies))
	for i, s := range layering.Strategies {
		names[i] = string(s)
	}

	fs := cmd.Flags()
	fs.StringVar(&f.config, "config", "", "TOML file with layout options; flags override it")
	fs.StringVarP(&f.opts.Layering, "layering", "l", "", "layering strategy: "+strings.Join(names, ", "))
	fs.IntVar(&f.opts.Thoroughness, "thoroughness", 0, "network simplex iteration multiplier (default 7)")
	fs.BoolVar(&f.noBalance, "no-balance", false, "skip network simplex layer balancing")
	fs.IntVar(&f.opts.CoffmanGrahamLayerBound, "layer-bound", 0, "coffman-graham: maximum nodes per layer")
	fs.IntVar(&f.opts.MinWidthUpperBoundOnWidth, "upper-bound-on-width", 0, "min-width: width bound, -1 to search (default 4)")
	fs.IntVar(&f.opts.MinWidthUpperLayerEstimationScalingFactor, "upper-layer-scaling", 0, "min-width: scaling factor, -1 to search (default 2)")
	fs.IntVar(&f.opts.OrderingPasses, "ordering-passes", 0, "barycenter ordering sweeps (default 24)")
	fs.StringVar(&f.opts.FixedAlignment, "alignment", "", "BK alignment: NONE, BALANCED, LEFTDOWN, LEFTUP, RIGHTDOWN, RIGHTUP")
	fs.BoolVar(&f.opts.FavorStraightEdges, "favor-straight-edges", false, "prefer the smallest directional layout over the balanced one")
	fs.StringVar(&f.opts.EdgeStraightening, "straightening", "", "BK edge straightening: NONE, IMPROVE_STRAIGHTNESS")
	fs.Float64Var(&f.opts.SpacingNodeNode, "spacing-node-node", 0, "space between two nodes of a layer (default 20)")
	fs.Float64Var(&f.opts.SpacingEdgeNode, "spacing-edge-node", 0, "space between a node and an edge (default 10)")
	fs.Float64Var(&f.opts.SpacingEdgeEdge, "spacing-edge-edge", 0, "space between two edges (default 10)")
	fs.Float64Var(&f.opts.SpacingBetweenLayers, "spacing-between-layers", 0, "space between layers (default 20)")
	fs.BoolVar(&f.opts.Refresh, "refresh", false, "ignore cached results")

	_ = cmd.RegisterFlagCompletionFunc("layering", fixedCompletion(names))
	_ = cmd.RegisterFlagCompletionFunc("alignment", fixedCompletion(keys(pipeline.ValidAlignments)))
	_ = cmd.RegisterFlagCompletionFunc("straightening", fixedCompletion(keys(pipeline.ValidStraightenings)))
}

// fixedCompletion completes a flag from a fixed set of values.
func fixedCompletion(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// resolve loads the configuration file, applies the flags on top and
// validates the result.
func (f *layoutFlags) resolve(logger *log.Logger) (pipeline.Options, error) {
	var base pipeline.Options
	if f.config != "" {
		loaded, err := pipeline.LoadOptions(f.config)
		if err != nil {
			return pipeline.Options{}, err
		}
		base = loaded
	}
	over := f.opts
	if f.noBalance {
		off := false
		over.NetworkSimplexBalance = &off
	}
	over.Logger = logger
	opts := base.Merge(over)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return pipeline.Options{}, err
	}
	return opts, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	formats := strings.Split(s, ",")
	for i, f := range formats {
		formats[i] = strings.TrimSpace(f)
	}
	return formats
}
