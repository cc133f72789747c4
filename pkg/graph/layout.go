package graph

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// =============================================================================
// Layout - Laid-out Graph Serialization
// =============================================================================

// Layout is the serialization format for a laid-out graph. Coordinates are
// top-left corners; X runs along the layers, Y along the nodes of a layer.
type Layout struct {
	RunID    string `json:"run_id,omitempty" bson:"run_id,omitempty"`
	Layering string `json:"layering" bson:"layering"`

	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`

	// Layers lists node IDs per layer, in in-layer order. Layers that only
	// held long-edge dummies are kept empty so layer indexes stay stable.
	Layers [][]string   `json:"layers" bson:"layers"`
	Nodes  []LayoutNode `json:"nodes" bson:"nodes"`
	Edges  []LayoutEdge `json:"edges" bson:"edges"`

	Crossings int        `json:"crossings" bson:"crossings"`
	Placement *Placement `json:"placement,omitempty" bson:"placement,omitempty"`
}

// LayoutNode is a positioned node.
type LayoutNode struct {
	ID     string  `json:"id" bson:"id"`
	Label  string  `json:"label" bson:"label"`
	Kind   string  `json:"kind" bson:"kind"`
	Layer  int     `json:"layer" bson:"layer"`
	Index  int     `json:"index" bson:"index"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// LayoutEdge is a routed edge. Bends are the positions of the long-edge
// dummies the edge passed through, in edge direction.
type LayoutEdge struct {
	ID    string          `json:"id" bson:"id"`
	From  string          `json:"from" bson:"from"`
	To    string          `json:"to" bson:"to"`
	Bends []lgraph.Vector `json:"bends,omitempty" bson:"bends,omitempty"`
}

// Placement summarizes the node placement step.
type Placement struct {
	Chosen      string `json:"chosen" bson:"chosen"`
	Feasible    bool   `json:"feasible" bson:"feasible"`
	MarkedEdges int    `json:"marked_edges" bson:"marked_edges"`
}

// Node returns the node with the given ID.
func (l *Layout) Node(id string) (LayoutNode, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return LayoutNode{}, false
}

// =============================================================================
// lgraph → Layout Conversion
// =============================================================================

// Export converts a laid-out graph into a [Layout]. The input graph g was
// built from supplies the display labels.
func Export(in Graph, lg *lgraph.Graph) Layout {
	labels := make(map[string]string, len(in.Nodes)+len(in.Edges))
	for _, n := range in.Nodes {
		labels[n.ID] = n.DisplayLabel()
	}
	for i, id := range EdgeIDs(in.Edges) {
		labels[id] = in.Edges[i].Label
	}

	out := Layout{Layers: make([][]string, len(lg.Layers))}
	right, bottom := 0.0, 0.0
	for li, layer := range lg.Layers {
		out.Layers[li] = []string{}
		for _, n := range layer.Nodes {
			if n.Type == lgraph.NodeTypeLongEdge {
				continue
			}
			ln := LayoutNode{
				ID:     n.ID,
				Kind:   KindNormal,
				Label:  labels[n.ID],
				Layer:  li,
				Index:  len(out.Layers[li]),
				X:      n.Pos.X,
				Y:      n.Pos.Y,
				Width:  n.Size.X,
				Height: n.Size.Y,
			}
			if n.Type == lgraph.NodeTypeLabel {
				ln.Kind = KindLabel
				ln.Label = labels[n.Origin]
			}
			out.Layers[li] = append(out.Layers[li], n.ID)
			out.Nodes = append(out.Nodes, ln)
			right = math.Max(right, n.Pos.X+n.Size.X+n.Margin.Right)
			bottom = math.Max(bottom, n.Pos.Y+n.Size.Y+n.Margin.Bottom)
		}
	}
	out.Width, out.Height = right, bottom

	for _, e := range lg.Edges() {
		out.Edges = append(out.Edges, LayoutEdge{
			ID:    e.ID,
			From:  e.SourceNode().ID,
			To:    e.TargetNode().ID,
			Bends: e.Bends,
		})
	}
	return out
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Layers == nil {
		return Layout{}, fmt.Errorf("layout must contain layers")
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
