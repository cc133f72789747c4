package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
	"github.com/matzehuels/layerkit/pkg/graph"
	"github.com/matzehuels/layerkit/pkg/pipeline"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "svg", []string{"svg"}},
		{"multiple formats", "svg,png,dot", []string{"svg", "png", "dot"}},
		{"spaces trimmed", "svg, json", []string{"svg", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseFormats(tt.input))
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		name          string
		output, input string
		want          string
	}{
		{"from input", "", "graphs/app.json", "graphs/app"},
		{"output with format ext", "out/app.svg", "app.json", "out/app"},
		{"output with json ext", "out/app.json", "app.json", "out/app"},
		{"output without ext", "out/app", "app.json", "out/app"},
		{"output with other ext", "out/app.v2", "app.json", "out/app.v2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, basePath(tt.output, tt.input))
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		base   string
		format string
		count  int
		want   string
	}{
		{"explicit single", "drawing.svg", "drawing", "svg", 1, "drawing.svg"},
		{"derived single", "", "app", "svg", 1, "app.svg"},
		{"multiple formats", "drawing.svg", "drawing", "png", 2, "drawing.png"},
		{"json gets layout suffix", "", "app", "json", 2, "app.layout.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outputPath(tt.output, tt.base, tt.format, tt.count))
		})
	}
}

func writeGraph(t *testing.T, dir string) string {
	t.Helper()
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []graph.Edge{{From: "a", To: "b"}, {From: "b", To: "c"}, {From: "a", To: "c"}},
	}
	path := filepath.Join(dir, "g.json")
	require.NoError(t, graph.WriteGraphFile(g, path))
	return path
}

func testCLI() *CLI {
	c := New(os.Stderr, LogInfo)
	c.noCache = true
	return c
}

func TestRunRenderGraphAndLayout(t *testing.T) {
	dir := t.TempDir()
	input := writeGraph(t, dir)
	c := testCLI()

	var flags layoutFlags
	flags.opts.Formats = []string{pipeline.FormatJSON, pipeline.FormatDOT}
	opts, err := flags.resolve(c.Logger)
	require.NoError(t, err)

	require.NoError(t, c.runRender(context.Background(), input, opts, ""))

	layoutPath := filepath.Join(dir, "g.layout.json")
	l, err := graph.ReadLayoutFile(layoutPath)
	require.NoError(t, err)
	assert.Len(t, l.Layers, 3)

	dot, err := os.ReadFile(filepath.Join(dir, "g.dot"))
	require.NoError(t, err)
	assert.Contains(t, string(dot), `"a" -> "b"`)

	// A layout file is drawn without laying it out again.
	flags = layoutFlags{}
	flags.opts.Formats = []string{pipeline.FormatDOT}
	opts, err = flags.resolve(c.Logger)
	require.NoError(t, err)
	out := filepath.Join(dir, "again.dot")
	require.NoError(t, c.runRender(context.Background(), layoutPath, opts, out))
	again, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, string(dot), string(again))
}

func TestRunRenderErrors(t *testing.T) {
	dir := t.TempDir()
	c := testCLI()
	var flags layoutFlags
	flags.opts.Formats = []string{pipeline.FormatDOT}
	opts, err := flags.resolve(c.Logger)
	require.NoError(t, err)

	err = c.runRender(context.Background(), filepath.Join(dir, "missing.json"), opts, "")
	assert.True(t, lkerrors.Is(err, lkerrors.ErrCodeFileNotFound))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{nope"), 0o644))
	err = c.runRender(context.Background(), bad, opts, "")
	assert.True(t, lkerrors.Is(err, lkerrors.ErrCodeInvalidFormat))
}

func TestLayoutFlagsResolve(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "layout.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
layering = "longest-path"
ordering_passes = 3
spacing_node_node = 40.0
`), 0o644))

	flags := layoutFlags{config: cfg, noBalance: true}
	flags.opts.OrderingPasses = 5
	opts, err := flags.resolve(nil)
	require.NoError(t, err)

	assert.Equal(t, "longest-path", opts.Layering)
	assert.Equal(t, 5, opts.OrderingPasses, "flags override the file")
	assert.Equal(t, 40.0, opts.SpacingNodeNode)
	require.NotNil(t, opts.NetworkSimplexBalance)
	assert.False(t, *opts.NetworkSimplexBalance)

	flags = layoutFlags{}
	flags.opts.Layering = "bogus"
	_, err = flags.resolve(nil)
	assert.True(t, lkerrors.Is(err, lkerrors.ErrCodeInvalidConfig))
}
