package nodelink_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/layerkit/pkg/graph"
	"github.com/matzehuels/layerkit/pkg/render/nodelink"
)

func ExampleToDOT() {
	l := graph.Layout{
		Height: 30,
		Nodes: []graph.LayoutNode{
			{ID: "app", Label: "app", Kind: graph.KindNormal, Width: 36, Height: 30},
			{ID: "db", Label: "db", Kind: graph.KindNormal, Layer: 1, X: 56, Width: 36, Height: 30},
		},
		Edges: []graph.LayoutEdge{{ID: "app->db", From: "app", To: "db"}},
	}

	for _, line := range strings.Split(nodelink.ToDOT(l, nodelink.Options{}), "\n") {
		if strings.Contains(line, "pos=") || strings.Contains(line, "->") {
			fmt.Println(strings.TrimSpace(line))
		}
	}
	// Output:
	// "app" [label="app", pos="0.2500,0.2083!", width=0.5000, height=0.4167];
	// "db" [label="db", pos="1.0278,0.2083!", width=0.5000, height=0.4167];
	// "app" -> "db" [id="app->db"];
}
