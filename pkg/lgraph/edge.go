package lgraph

import "fmt"

// Edge is a directed connection from a source port to a target port.
type Edge struct {
	ID     string
	Source *Port
	Target *Port

	// PriorityStraightness favors keeping this edge straight during node
	// placement; only edges of maximal priority take part in alignment.
	PriorityStraightness int
	// PriorityShortness weights the edge's span in network-simplex layering.
	PriorityShortness int

	// Reversed is set when cycle breaking flipped the edge.
	Reversed bool

	// Bends collects bend points when long-edge dummies are joined back.
	Bends []Vector
}

// SourceNode returns the node owning the source port.
func (e *Edge) SourceNode() *Node { return e.Source.Node }

// TargetNode returns the node owning the target port.
func (e *Edge) TargetNode() *Node { return e.Target.Node }

// IsSelfLoop reports whether source and target node are the same.
func (e *Edge) IsSelfLoop() bool {
	return e.Source.Node == e.Target.Node
}

// IsInLayerEdge reports whether both endpoints sit in the same layer and the
// edge is not a self-loop.
func (e *Edge) IsInLayerEdge() bool {
	if e.IsSelfLoop() {
		return false
	}
	sl := e.Source.Node.layer
	return sl != nil && sl == e.Target.Node.layer
}

// Other returns the endpoint opposite to n. It panics if n is not an
// endpoint, which indicates a broken graph.
func (e *Edge) Other(n *Node) *Node {
	switch n {
	case e.Source.Node:
		return e.Target.Node
	case e.Target.Node:
		return e.Source.Node
	}
	panic(fmt.Sprintf("lgraph: node %s is neither source nor target of edge %s", n, e))
}

// SetSource moves the edge's tail to port p.
func (e *Edge) SetSource(p *Port) {
	if e.Source != nil {
		e.Source.Outgoing = removeEdge(e.Source.Outgoing, e)
	}
	e.Source = p
	if p != nil {
		p.Outgoing = append(p.Outgoing, e)
	}
}

// SetTarget moves the edge's head to port p.
func (e *Edge) SetTarget(p *Port) {
	if e.Target != nil {
		e.Target.Incoming = removeEdge(e.Target.Incoming, e)
	}
	e.Target = p
	if p != nil {
		p.Incoming = append(p.Incoming, e)
	}
}

// Reverse swaps source and target and toggles [Edge.Reversed].
func (e *Edge) Reverse() {
	src, tgt := e.Source, e.Target
	e.SetSource(nil)
	e.SetTarget(nil)
	e.SetSource(tgt)
	e.SetTarget(src)
	e.Reversed = !e.Reversed
}

// String formats the edge as "source->target".
func (e *Edge) String() string {
	return fmt.Sprintf("%s->%s", e.Source.Node, e.Target.Node)
}
