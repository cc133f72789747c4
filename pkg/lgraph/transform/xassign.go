package transform

import "github.com/matzehuels/layerkit/pkg/lgraph"

// AssignX gives every layer its own column. A column is as wide as its
// widest node including horizontal margins, and columns are separated by
// spacing.BetweenLayers. Nodes are left-aligned within their column. It
// returns the total width.
func AssignX(g *lgraph.Graph, spacing lgraph.Spacing) float64 {
	x := 0.0
	for i, l := range g.Layers {
		if i > 0 {
			x += spacing.BetweenLayers
		}
		width := 0.0
		for _, n := range l.Nodes {
			n.Pos.X = x + n.Margin.Left
			width = max(width, n.Margin.Left+n.Size.X+n.Margin.Right)
		}
		x += width
	}
	return x
}
