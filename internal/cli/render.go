package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
	"github.com/matzehuels/layerkit/pkg/graph"
	"github.com/matzehuels/layerkit/pkg/pipeline"
)

// renderCommand creates the render command for drawing layouts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		scale      float64
		detailed   bool
		flags      layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "render [graph.json|layout.json]",
		Short: "Draw a graph or a computed layout",
		Long: `Draw a graph or a computed layout.

A layout.json from 'layout' is drawn as is. A graph.json is laid out first,
using the same flags as 'layout'. Nodes are pinned to their computed
coordinates and drawn with Graphviz.

Formats: svg, png, dot, json. Several formats can be combined, e.g. -f svg,png.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.opts.Formats = parseFormats(formatsStr)
			flags.opts.Scale = scale
			flags.opts.Detailed = detailed
			opts, err := flags.resolve(loggerFromContext(cmd.Context()))
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file or base path (default: input without extension)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output formats: svg, png, dot, json (default: svg)")
	cmd.Flags().Float64Var(&scale, "scale", 0, "PNG resolution multiplier (default 1)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "annotate nodes with layer and index")
	flags.register(cmd)

	return cmd
}

// runRender lays out the input if needed, renders all formats and writes
// one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		if os.IsNotExist(err) {
			return lkerrors.New(lkerrors.ErrCodeFileNotFound, "file not found: %s", input)
		}
		return err
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	var (
		artifacts map[string][]byte
		result    *pipeline.Result
	)
	if l, err := graph.UnmarshalLayout(data); err == nil {
		artifacts, err = renderLayout(ctx, runner, l, opts)
		if err != nil {
			return err
		}
	} else {
		g, err := graph.UnmarshalGraph(data)
		if err != nil {
			return lkerrors.Wrap(lkerrors.ErrCodeInvalidFormat, err, "%s is neither a graph nor a layout", input)
		}
		result, err = executeWithSpinner(ctx, runner, g, opts, "Rendering")
		if err != nil {
			return err
		}
		artifacts = result.Artifacts
	}

	base := basePath(output, input)
	for _, format := range opts.Formats {
		path := outputPath(output, base, format, len(opts.Formats))
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		printFile(path)
	}
	prog.done(fmt.Sprintf("Rendered %d file(s)", len(opts.Formats)))

	if result != nil {
		printStats(result.Stats, result.CacheInfo.LayoutHit)
	}
	return nil
}

// renderLayout draws an already computed layout.
func renderLayout(ctx context.Context, runner *pipeline.Runner, l graph.Layout, opts pipeline.Options) (map[string][]byte, error) {
	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	artifacts, err := runner.Render(ctx, l, opts)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return nil, err
	}
	spinner.StopWithSuccess("Rendered")
	return artifacts, nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .png, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath is the file written for format. A single format written to an
// explicit output keeps that name.
func outputPath(output, base, format string, count int) string {
	if count == 1 && output != "" && filepath.Ext(output) != "" {
		return output
	}
	if format == pipeline.FormatJSON {
		return base + ".layout.json"
	}
	return base + "." + format
}
