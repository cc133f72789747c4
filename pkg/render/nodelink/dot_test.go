package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/layerkit/pkg/graph"
)

func testLayout() graph.Layout {
	return graph.Layout{
		Layering: "network-simplex",
		Width:    172,
		Height:   72,
		Layers:   [][]string{{"a"}, {"_label1"}, {"b"}},
		Nodes: []graph.LayoutNode{
			{ID: "a", Label: "A", Kind: graph.KindNormal, X: 0, Y: 0, Width: 72, Height: 36},
			{ID: "_label1", Label: "uses", Kind: graph.KindLabel, Layer: 1, X: 92, Y: 13, Width: 30, Height: 10},
			{ID: "b", Label: "B", Kind: graph.KindNormal, Layer: 2, X: 142, Y: 36, Width: 30, Height: 36},
		},
		Edges: []graph.LayoutEdge{
			{ID: "a->b#in", From: "a", To: "_label1"},
			{ID: "a->b#out", From: "_label1", To: "b"},
		},
	}
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(testLayout(), Options{})

	for _, want := range []string{
		"digraph G",
		"layout=neato",
		`"a" [label="A"`,
		`"a" -> "_label1"`,
		`"_label1" -> "b"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %q", want)
		}
	}
}

func TestToDOT_PinnedPositions(t *testing.T) {
	dot := ToDOT(testLayout(), Options{})

	// a is centered at (36, 18); flipped, y = 72-18 = 54; in inches 0.5, 0.75.
	if !strings.Contains(dot, `pos="0.5000,0.7500!"`) {
		t.Errorf("ToDOT() missing pinned position for a:\n%s", dot)
	}
	if !strings.Contains(dot, "width=1.0000") || !strings.Contains(dot, "height=0.5000") {
		t.Error("ToDOT() missing node size in inches")
	}
}

func TestToDOT_LabelNode(t *testing.T) {
	dot := ToDOT(testLayout(), Options{})

	if !strings.Contains(dot, "shape=plaintext") {
		t.Error("ToDOT() label node not drawn as plain text")
	}
	if !strings.Contains(dot, `"a" -> "_label1" [id="a->b#in", arrowhead=none]`) {
		t.Errorf("ToDOT() edge into label node should have no arrowhead:\n%s", dot)
	}
	if strings.Contains(dot, `"_label1" -> "b" [id="a->b#out", arrowhead=none]`) {
		t.Error("ToDOT() edge out of label node should keep its arrowhead")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(testLayout(), Options{Detailed: true})

	if !strings.Contains(dot, `B\nlayer 2, index 0`) {
		t.Errorf("ToDOT() detailed output missing layer info:\n%s", dot)
	}
	if strings.Contains(dot, `uses\nlayer`) {
		t.Error("ToDOT() detailed output should not annotate label nodes")
	}
}

func TestRenderPNG_InvalidScale(t *testing.T) {
	if _, err := RenderPNG(context.Background(), ToDOT(testLayout(), Options{}), 0); err == nil {
		t.Error("RenderPNG() with scale 0 should fail")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "rewrites root element",
			in:   `<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`,
		},
		{
			name: "no viewBox",
			in:   `<svg><g/></svg>`,
			want: `<svg><g/></svg>`,
		},
		{
			name: "empty viewBox",
			in:   `<svg viewBox="0 0 0 0"></svg>`,
			want: `<svg viewBox="0 0 0 0"></svg>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(normalizeViewBox([]byte(tt.in))); got != tt.want {
				t.Errorf("normalizeViewBox() = %s, want %s", got, tt.want)
			}
		})
	}
}
