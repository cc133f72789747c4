// Package pkg holds the libraries behind layerkit, a layered graph layout
// engine.
//
// # Overview
//
// layerkit draws directed graphs in layers: every node is assigned to a
// layer, nodes within a layer are ordered to reduce crossings, and
// Brandes–Köpf placement picks in-layer coordinates that keep edges
// straight. The packages are organized in three groups:
//
//  1. Model and algorithms: [lgraph], [lgraph/transform], [layering],
//     [networksimplex], [placement/bk]
//  2. Interchange and output: [graph], [render/nodelink]
//  3. Orchestration and infrastructure: [pipeline], [cache],
//     [observability], [errors], [buildinfo]
//
// # Data Flow
//
//	graph.Graph (JSON)
//	       ↓  graph.ToLGraph
//	lgraph.Graph
//	       ↓  transform.BreakCycles
//	       ↓  layering.Layerer
//	       ↓  transform.SplitLongEdges, transform.OrderLayers
//	       ↓  bk.Placer
//	       ↓  transform.AssignX, transform.JoinLongEdges
//	graph.Layout (JSON)
//	       ↓  nodelink.ToDOT
//	SVG / PNG / DOT
//
// # Quick Start
//
//	in, _ := graph.ReadGraphFile("graph.json")
//	opts := pipeline.Options{Layering: "network-simplex", Formats: []string{"svg"}}
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(ctx, in, opts)
//
// [lgraph]: github.com/matzehuels/layerkit/pkg/lgraph
// [lgraph/transform]: github.com/matzehuels/layerkit/pkg/lgraph/transform
// [layering]: github.com/matzehuels/layerkit/pkg/layering
// [networksimplex]: github.com/matzehuels/layerkit/pkg/networksimplex
// [placement/bk]: github.com/matzehuels/layerkit/pkg/placement/bk
// [graph]: github.com/matzehuels/layerkit/pkg/graph
// [render/nodelink]: github.com/matzehuels/layerkit/pkg/render/nodelink
// [pipeline]: github.com/matzehuels/layerkit/pkg/pipeline
// [cache]: github.com/matzehuels/layerkit/pkg/cache
// [observability]: github.com/matzehuels/layerkit/pkg/observability
// [errors]: github.com/matzehuels/layerkit/pkg/errors
// [buildinfo]: github.com/matzehuels/layerkit/pkg/buildinfo
package pkg
