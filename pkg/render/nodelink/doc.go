// Package nodelink draws laid-out graphs as node-link diagrams.
//
// # Overview
//
// The layout pipeline computes every coordinate itself. This package turns a
// [graph.Layout] into Graphviz DOT source with each node pinned at its
// computed position, then lets Graphviz draw the boxes, labels and edges.
//
// # Usage
//
//	dot := nodelink.ToDOT(layout, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0) // 2x resolution
//
// # DOT Format
//
// The generated DOT uses the neato engine with pinned positions ("pos" with
// a trailing "!"), fixed node sizes in inches (one layout unit is one
// point), and polyline edges. Layers run left to right. Edge label nodes are
// drawn as plain text and their incoming edge has no arrowhead.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering; no Graphviz installation is required.
package nodelink
