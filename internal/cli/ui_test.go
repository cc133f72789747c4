package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/matzehuels/layerkit/pkg/graph"
	"github.com/matzehuels/layerkit/pkg/pipeline"
)

// captureOutput redirects user-facing output for the duration of a test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

func TestPrintStats(t *testing.T) {
	tests := []struct {
		name   string
		stats  pipeline.Stats
		cached bool
		want   []string
		absent []string
	}{
		{
			name:   "fresh",
			stats:  pipeline.Stats{NodeCount: 4, EdgeCount: 5, Layers: 3, Crossings: 1},
			want:   []string{"4 nodes", "5 edges", "3 layers", "1 crossings", "fresh"},
			absent: []string{"reversed", "bends"},
		},
		{
			name:   "cached with reversals",
			stats:  pipeline.Stats{NodeCount: 2, ReversedEdges: 1, Dummies: 2},
			cached: true,
			want:   []string{"1 reversed", "2 bends", "cached"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureOutput(t)
			printStats(tt.stats, tt.cached)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
			for _, a := range tt.absent {
				assert.NotContains(t, buf.String(), a)
			}
		})
	}
}

func TestPrintPlacement(t *testing.T) {
	buf := captureOutput(t)
	printPlacement(nil)
	assert.Empty(t, buf.String())

	printPlacement(&graph.Placement{Chosen: "BALANCED", Feasible: true})
	assert.Contains(t, buf.String(), "BALANCED")
	assert.NotContains(t, buf.String(), "overlap")

	buf.Reset()
	printPlacement(&graph.Placement{Chosen: "RIGHTDOWN"})
	assert.Contains(t, buf.String(), "no overlap-free placement")
}

func TestPrintPhases(t *testing.T) {
	buf := captureOutput(t)
	printPhases([]pipeline.PhaseTiming{
		{Name: pipeline.PhaseLayering, Duration: 1500 * time.Microsecond},
		{Name: pipeline.PhasePlacement, Duration: 2 * time.Millisecond},
	})
	assert.Contains(t, buf.String(), "layering")
	assert.Contains(t, buf.String(), "1.5ms")
	assert.Contains(t, buf.String(), "placement")
}

func TestPrintFileAndNextStep(t *testing.T) {
	buf := captureOutput(t)
	printFile("out/g.svg")
	printNextStep("Render", "layerkit render g.layout.json")
	assert.Contains(t, buf.String(), "out/g.svg")
	assert.Contains(t, buf.String(), "layerkit render g.layout.json")
}
