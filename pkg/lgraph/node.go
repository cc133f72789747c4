package lgraph

import "fmt"

// NodeType distinguishes regular nodes from dummies inserted by layout phases.
type NodeType int

const (
	// NodeTypeNormal is a node of the input graph.
	NodeTypeNormal NodeType = iota
	// NodeTypeLongEdge represents a bend of an edge spanning several layers.
	NodeTypeLongEdge
	// NodeTypeLabel reserves space for an edge label between two layers.
	NodeTypeLabel
)

var nodeTypeNames = map[NodeType]string{
	NodeTypeNormal:   "normal",
	NodeTypeLongEdge: "long_edge",
	NodeTypeLabel:    "label",
}

// String returns the lower-case name used in interchange files.
func (t NodeType) String() string {
	if s, ok := nodeTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// ParseNodeType is the inverse of [NodeType.String]. An empty string parses
// as [NodeTypeNormal].
func ParseNodeType(s string) (NodeType, error) {
	if s == "" {
		return NodeTypeNormal, nil
	}
	for t, name := range nodeTypeNames {
		if name == s {
			return t, nil
		}
	}
	return NodeTypeNormal, fmt.Errorf("%w: %q", ErrUnknownNodeType, s)
}

// IsDummy reports whether the type is one of the synthetic node types.
func (t NodeType) IsDummy() bool { return t != NodeTypeNormal }

// Vector is a 2D coordinate or extent. X runs along the layers, Y along the
// nodes of one layer.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Margin is extra space reserved around a node, e.g. for labels.
type Margin struct {
	Top    float64 `json:"top,omitempty"`
	Bottom float64 `json:"bottom,omitempty"`
	Left   float64 `json:"left,omitempty"`
	Right  float64 `json:"right,omitempty"`
}

// Node is a vertex of the layered graph.
//
// The zero value is not usable; create nodes with [Graph.AddNode] or
// [Graph.AddDummy].
type Node struct {
	ID     string   // Unique identifier within the graph
	Type   NodeType // Regular node or dummy
	Size   Vector   // Width (X) and height (Y)
	Pos    Vector   // Top-left corner; Y is written by node placement
	Margin Margin   // Space reserved around the node
	Ports  []*Port  // Ports in creation order

	// Origin names the input edge a dummy node was created for.
	Origin string

	modelOrder    int
	hasModelOrder bool

	layer *Layer
	graph *Graph
}

// SetModelOrder records the node's position in the input model. Model-order
// layerers require it on every regular node.
func (n *Node) SetModelOrder(order int) {
	n.modelOrder = order
	n.hasModelOrder = true
}

// ModelOrder returns the model order and whether one was set.
func (n *Node) ModelOrder() (int, bool) {
	return n.modelOrder, n.hasModelOrder
}

// Graph returns the graph the node belongs to.
func (n *Node) Graph() *Graph { return n.graph }

// Layer returns the node's layer, or nil while it is layerless.
func (n *Node) Layer() *Layer { return n.layer }

// SetLayer moves the node to the end of layer l. A nil layer detaches the
// node from its current layer. The graph's layerless list is not touched;
// layerers clear it once every node has been placed.
func (n *Node) SetLayer(l *Layer) {
	if n.layer == l {
		return
	}
	if n.layer != nil {
		n.layer.remove(n)
	}
	n.layer = l
	if l != nil {
		l.Nodes = append(l.Nodes, n)
	}
}

// SetLayerAt moves the node into layer l at position i.
func (n *Node) SetLayerAt(l *Layer, i int) {
	if n.layer != nil {
		n.layer.remove(n)
	}
	n.layer = l
	if i > len(l.Nodes) {
		i = len(l.Nodes)
	}
	l.Nodes = append(l.Nodes, nil)
	copy(l.Nodes[i+1:], l.Nodes[i:])
	l.Nodes[i] = n
}

// AddPort creates a new port at the given position relative to the node.
func (n *Node) AddPort(pos Vector) *Port {
	p := &Port{Node: n, Pos: pos}
	n.Ports = append(n.Ports, p)
	return p
}

// Incoming returns all edges whose target port belongs to the node.
func (n *Node) Incoming() []*Edge {
	var out []*Edge
	for _, p := range n.Ports {
		out = append(out, p.Incoming...)
	}
	return out
}

// Outgoing returns all edges whose source port belongs to the node.
func (n *Node) Outgoing() []*Edge {
	var out []*Edge
	for _, p := range n.Ports {
		out = append(out, p.Outgoing...)
	}
	return out
}

// Connected returns incoming followed by outgoing edges. A self-loop appears
// twice.
func (n *Node) Connected() []*Edge {
	return append(n.Incoming(), n.Outgoing()...)
}

// HasIncoming reports whether at least one edge ends at the node.
func (n *Node) HasIncoming() bool {
	for _, p := range n.Ports {
		if len(p.Incoming) > 0 {
			return true
		}
	}
	return false
}

// String returns the node ID, which keeps log output and test failures short.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return n.ID
}

// Port is an attachment point for edges on a node's border.
type Port struct {
	Node     *Node
	Pos      Vector // Relative to the node's top-left corner
	Anchor   Vector // Point within the port where edges attach
	Incoming []*Edge
	Outgoing []*Edge
}

// AnchorY returns the y offset of the port's anchor relative to the node.
func (p *Port) AnchorY() float64 {
	return p.Pos.Y + p.Anchor.Y
}

func removeEdge(edges []*Edge, e *Edge) []*Edge {
	for i, x := range edges {
		if x == e {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return edges
}
