package lgraph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNodeType is returned by [ParseNodeType] for unrecognized names.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrLayerlessNode is returned by [Graph.Validate] when a node has no
	// layer or the layerless list is not empty.
	ErrLayerlessNode = errors.New("node has no layer")

	// ErrBackwardEdge is returned by [Graph.Validate] when an edge does not
	// lead from an earlier layer to a later one.
	ErrBackwardEdge = errors.New("edge does not point to a later layer")

	// ErrForeignLayer is returned by [Graph.Validate] when a node refers to
	// a layer that is not part of the graph.
	ErrForeignLayer = errors.New("node refers to a layer outside the graph")
)

// Layer is an ordered sequence of nodes drawn at the same depth.
type Layer struct {
	Nodes []*Node
	graph *Graph
}

// Graph returns the graph owning the layer.
func (l *Layer) Graph() *Graph { return l.graph }

// Index returns the layer's position in its graph, or -1 if it was removed.
func (l *Layer) Index() int {
	if l.graph == nil {
		return -1
	}
	return slices.Index(l.graph.Layers, l)
}

// Len returns the number of nodes in the layer.
func (l *Layer) Len() int { return len(l.Nodes) }

func (l *Layer) remove(n *Node) {
	if i := slices.Index(l.Nodes, n); i >= 0 {
		l.Nodes = slices.Delete(l.Nodes, i, i+1)
	}
}

// Graph is a layered graph. The zero value is not usable; use [New].
// Graph is not safe for concurrent mutation; concurrent readers are fine.
type Graph struct {
	// Layers in drawing order.
	Layers []*Layer
	// Layerless holds nodes that have not been assigned a layer.
	Layerless []*Node

	ids map[string]*Node
	seq int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{ids: make(map[string]*Node)}
}

// AddNode creates a layerless regular node.
func (g *Graph) AddNode(id string) (*Node, error) {
	if _, exists := g.ids[id]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateNodeID, id)
	}
	n := &Node{ID: id, Type: NodeTypeNormal, graph: g}
	g.ids[id] = n
	g.Layerless = append(g.Layerless, n)
	return n, nil
}

// MustAddNode is like AddNode but panics on duplicate IDs. It is meant for
// tests and examples that build graphs from literals.
func (g *Graph) MustAddNode(id string, size Vector) *Node {
	n, err := g.AddNode(id)
	if err != nil {
		panic(err)
	}
	n.Size = size
	return n
}

// AddDummy creates a layerless dummy node with a generated unique ID.
func (g *Graph) AddDummy(t NodeType, origin string) *Node {
	var id string
	for {
		g.seq++
		id = fmt.Sprintf("_%s%d", t, g.seq)
		if _, exists := g.ids[id]; !exists {
			break
		}
	}
	n := &Node{ID: id, Type: t, Origin: origin, graph: g}
	g.ids[id] = n
	g.Layerless = append(g.Layerless, n)
	return n
}

// Node looks up a node by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.ids[id]
	return n, ok
}

// RemoveNode detaches a node and all its edges from the graph.
func (g *Graph) RemoveNode(n *Node) {
	for _, e := range n.Connected() {
		e.SetSource(nil)
		e.SetTarget(nil)
	}
	n.SetLayer(nil)
	if i := slices.Index(g.Layerless, n); i >= 0 {
		g.Layerless = slices.Delete(g.Layerless, i, i+1)
	}
	delete(g.ids, n.ID)
}

// Connect adds an edge from src to tgt through freshly created ports. The
// source port sits at the middle of src's right border, the target port at
// the middle of tgt's left border.
func (g *Graph) Connect(src, tgt *Node) *Edge {
	sp := src.AddPort(Vector{X: src.Size.X, Y: src.Size.Y / 2})
	tp := tgt.AddPort(Vector{X: 0, Y: tgt.Size.Y / 2})
	return g.ConnectPorts(sp, tp)
}

// ConnectPorts adds an edge between two existing ports.
func (g *Graph) ConnectPorts(src, tgt *Port) *Edge {
	e := &Edge{ID: fmt.Sprintf("%s->%s", src.Node.ID, tgt.Node.ID)}
	e.SetSource(src)
	e.SetTarget(tgt)
	return e
}

// AddLayer appends a new empty layer.
func (g *Graph) AddLayer() *Layer {
	l := &Layer{graph: g}
	g.Layers = append(g.Layers, l)
	return l
}

// InsertLayer inserts a new empty layer at index i.
func (g *Graph) InsertLayer(i int) *Layer {
	l := &Layer{graph: g}
	g.Layers = slices.Insert(g.Layers, i, l)
	return l
}

// RemoveEmptyLayers drops layers without nodes, keeping the order of the rest.
func (g *Graph) RemoveEmptyLayers() {
	g.Layers = slices.DeleteFunc(g.Layers, func(l *Layer) bool {
		if len(l.Nodes) == 0 {
			l.graph = nil
			return true
		}
		return false
	})
}

// Nodes returns all nodes: layered ones in layer order followed by layerless ones.
func (g *Graph) Nodes() []*Node {
	var out []*Node
	for _, l := range g.Layers {
		out = append(out, l.Nodes...)
	}
	return append(out, g.Layerless...)
}

// Edges returns every edge once, ordered by source node.
func (g *Graph) Edges() []*Edge {
	var out []*Edge
	for _, n := range g.Nodes() {
		out = append(out, n.Outgoing()...)
	}
	return out
}

// NodeCount returns the number of nodes in layers and in the layerless list.
func (g *Graph) NodeCount() int {
	c := len(g.Layerless)
	for _, l := range g.Layers {
		c += len(l.Nodes)
	}
	return c
}

// LayerIndexes maps each layer to its position. Algorithms that query layer
// positions in loops use this instead of [Layer.Index].
func (g *Graph) LayerIndexes() map[*Layer]int {
	m := make(map[*Layer]int, len(g.Layers))
	for i, l := range g.Layers {
		m[l] = i
	}
	return m
}

// Validate checks the layering postcondition: no layerless nodes, every node
// in a layer of this graph, and every non-self-loop edge pointing from an
// earlier to a later layer.
func (g *Graph) Validate() error {
	if len(g.Layerless) > 0 {
		return fmt.Errorf("%w: %s", ErrLayerlessNode, g.Layerless[0])
	}
	idx := g.LayerIndexes()
	for _, l := range g.Layers {
		for _, n := range l.Nodes {
			if n.layer != l {
				return fmt.Errorf("%w: %s", ErrForeignLayer, n)
			}
		}
	}
	for _, n := range g.ids {
		if n.layer == nil {
			return fmt.Errorf("%w: %s", ErrLayerlessNode, n)
		}
		if _, ok := idx[n.layer]; !ok {
			return fmt.Errorf("%w: %s", ErrForeignLayer, n)
		}
	}
	for _, e := range g.Edges() {
		if e.IsSelfLoop() {
			continue
		}
		if idx[e.Source.Node.layer] >= idx[e.Target.Node.layer] {
			return fmt.Errorf("%w: %s (layer %d -> %d)", ErrBackwardEdge, e,
				idx[e.Source.Node.layer], idx[e.Target.Node.layer])
		}
	}
	return nil
}
