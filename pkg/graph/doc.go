// Package graph provides the interchange formats for input graphs and
// laid-out results.
//
// This package defines layerkit's wire format, used for JSON files, API
// requests and responses, and cache keys.
//
// # Architecture
//
// The package sits at the serialization boundary:
//
//   - [Graph], [Layout]: serialization types (this package)
//   - pkg/lgraph.Graph: the layered graph the algorithms work on
//
// Use [ToLGraph] to build a layerless graph for the layout pipeline and
// [Export] to turn the laid-out result into a [Layout].
//
// # Graph Serialization
//
// Graphs use a node-link JSON format:
//
//	{
//	  "nodes": [{"id": "a", "width": 40, "height": 30}, {"id": "b"}],
//	  "edges": [{"from": "a", "to": "b", "label": "uses", "label_height": 12}]
//	}
//
// Unset sizes default to [DefaultNodeWidth] x [DefaultNodeHeight]. The
// position of a node in "nodes" is its model order unless "model_order" is
// given; the model-order layering strategies rely on it.
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("input.json")  // File → Graph
//	lg, _ := graph.ToLGraph(g)                 // Graph → lgraph
//	data, _ := graph.MarshalGraph(g)           // Graph → []byte
//
// # Layout Serialization
//
// A [Layout] lists layers, positioned nodes and edges with bend points:
//
//	layout, _ := graph.UnmarshalLayout(data)
//	for _, n := range layout.Nodes {
//	    fmt.Println(n.ID, n.Layer, n.X, n.Y)
//	}
package graph
