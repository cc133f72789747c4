package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layerkit/pkg/graph"
	"github.com/matzehuels/layerkit/pkg/observability"
	"github.com/matzehuels/layerkit/pkg/pipeline"
)

// layoutCommand creates the layout command for computing layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		stats  bool
		flags  layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute a layered layout from a graph",
		Long: `Compute a layered layout from a graph.

The layout command takes a graph.json file and assigns every node a layer,
an in-layer position and coordinates. Cycles are broken by reversing edges,
edges spanning several layers get bend points, and node placement uses
Brandes–Köpf. The output is a layout.json file (same format as 'render -f json')
that 'render' and 'inspect' accept.

Results are cached; use --refresh to recompute.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.resolve(loggerFromContext(cmd.Context()))
			if err != nil {
				return err
			}
			opts.Formats = []string{pipeline.FormatJSON}
			return c.runLayout(cmd.Context(), args[0], opts, output, stats)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&stats, "stats", false, "print the duration of each layout phase")
	flags.register(cmd)

	return cmd
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, stats bool) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	result, err := executeWithSpinner(ctx, runner, g, opts, "Computing layout")
	if err != nil {
		return err
	}

	outputPath := output
	if outputPath == "" {
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
	}
	if err := graph.WriteLayoutFile(result.Layout, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(result.Stats, result.CacheInfo.LayoutHit)
	printPlacement(result.Layout.Placement)
	if stats {
		printPhases(result.Stats.Phases)
	}
	printNewline()
	printNextStep("Render", appName+" render "+outputPath)

	return nil
}

// executeWithSpinner runs the pipeline while a spinner shows the current
// layout phase.
func executeWithSpinner(ctx context.Context, runner *pipeline.Runner, g graph.Graph, opts pipeline.Options, msg string) (*pipeline.Result, error) {
	spinner := newSpinnerWithContext(ctx, msg+"...")
	observability.SetPhaseHooks(spinner)
	defer observability.SetPhaseHooks(nil)
	spinner.Start()

	result, err := runner.Execute(ctx, g, opts)
	if err != nil {
		spinner.StopWithError(msg + " failed")
		return nil, err
	}
	spinner.Stop()
	return result, nil
}
