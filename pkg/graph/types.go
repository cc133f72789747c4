package graph

import (
	"slices"

	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Default node extent used when an input node leaves width or height unset.
const (
	DefaultNodeWidth  = 40.0
	DefaultNodeHeight = 30.0
)

// Node kinds as written to layout files.
const (
	KindNormal = "normal"
	KindLabel  = "label"
)

// =============================================================================
// Graph - Input Graph Serialization
// =============================================================================

// Graph is the canonical interchange format for input graphs. It is used for
// JSON files, API requests and cache keys.
//
// Node order matters: unless a node carries an explicit model order, its
// position in Nodes is used.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is a node of an input graph.
type Node struct {
	ID     string  `json:"id" bson:"id"`
	Label  string  `json:"label,omitempty" bson:"label,omitempty"` // Display label (defaults to ID)
	Width  float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height float64 `json:"height,omitempty" bson:"height,omitempty"`

	// X and Y are read by interactive layering, which keeps the horizontal
	// arrangement a user already chose.
	X float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y float64 `json:"y,omitempty" bson:"y,omitempty"`

	Margin     *lgraph.Margin `json:"margin,omitempty" bson:"margin,omitempty"`
	ModelOrder *int           `json:"model_order,omitempty" bson:"model_order,omitempty"`
	Meta       map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed edge of an input graph.
type Edge struct {
	ID   string `json:"id,omitempty" bson:"id,omitempty"` // Defaults to "from->to"
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`

	// Label, when set, places a label node of LabelWidth x LabelHeight
	// between the two endpoints.
	Label       string  `json:"label,omitempty" bson:"label,omitempty"`
	LabelWidth  float64 `json:"label_width,omitempty" bson:"label_width,omitempty"`
	LabelHeight float64 `json:"label_height,omitempty" bson:"label_height,omitempty"`

	PriorityStraightness int `json:"priority_straightness,omitempty" bson:"priority_straightness,omitempty"`
	PriorityShortness    int `json:"priority_shortness,omitempty" bson:"priority_shortness,omitempty"`
}

// NodeCount returns the number of nodes.
func (g Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g Graph) EdgeCount() int { return len(g.Edges) }

// Clone returns a deep copy of the graph's structure. Meta maps are shared.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: slices.Clone(g.Nodes),
		Edges: slices.Clone(g.Edges),
	}
	for i, n := range out.Nodes {
		if n.Margin != nil {
			m := *n.Margin
			out.Nodes[i].Margin = &m
		}
		if n.ModelOrder != nil {
			o := *n.ModelOrder
			out.Nodes[i].ModelOrder = &o
		}
	}
	return out
}
