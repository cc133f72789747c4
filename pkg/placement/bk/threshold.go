package bk

import (
	"math"

	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// EdgeStraightening selects the threshold strategy applied during
// horizontal compaction.
type EdgeStraightening string

const (
	// StraighteningNone compacts blocks without further straightening.
	StraighteningNone EdgeStraightening = "NONE"
	// StraighteningImproveStraightness tries to straighten one more edge at
	// the start and at the end of every block, within the space left by
	// compaction.
	StraighteningImproveStraightness EdgeStraightening = "IMPROVE_STRAIGHTNESS"
)

// maxThreshold bounds the distance a block is moved during post-processing.
const maxThreshold = math.MaxFloat64

// candidate is an edge at one end of a block that may be straightened once
// the block at its other end is placed.
type candidate struct {
	free     int // node whose block would move
	isRoot   bool
	hasEdges bool
	edge     *lgraph.Edge
}

// threshold holds the per-layout state of the threshold strategy. With
// simple unset every method is a no-op and thresholds never bind.
type threshold struct {
	simple   bool
	al       *alignedLayout
	finished []bool // by root id
	queue    []*candidate
	stack    []*candidate
}

func newThreshold(s EdgeStraightening, al *alignedLayout) *threshold {
	return &threshold{
		simple:   s == StraighteningImproveStraightness,
		al:       al,
		finished: make([]bool, len(al.root)),
	}
}

// unbounded is the threshold that never restricts a block position.
func (t *threshold) unbounded() float64 {
	if t.al.vdir == Up {
		return math.Inf(1)
	}
	return math.Inf(-1)
}

func (t *threshold) finishBlock(root int) {
	t.finished[root] = true
}

// calculate returns the threshold for the block of root while its member
// cur is being placed. Only the root and the last member can contribute.
func (t *threshold) calculate(old float64, root, cur int) float64 {
	if !t.simple {
		return t.unbounded()
	}
	isRoot, isLast := root == cur, t.al.isLast(cur)
	if !isRoot && !isLast {
		return old
	}
	th := old
	if isRoot {
		th = t.bound(root, true)
	}
	if math.IsInf(th, 0) && isLast {
		th = t.bound(cur, false)
	}
	return th
}

// pick looks for an edge of c.free whose other end belongs to a finished
// block. Roots look backwards in sweep direction, last members forwards.
func (t *threshold) pick(c *candidate) {
	al := t.al
	free := al.node(c.free)
	incoming := c.isRoot == (al.hdir == Right)
	edges := free.Outgoing()
	if incoming {
		edges = free.Incoming()
	}

	root := al.root[c.free]
	c.hasEdges, c.edge = false, nil
	for _, e := range edges {
		if e.IsSelfLoop() {
			continue
		}
		if !al.od[root] && e.IsInLayerEdge() {
			continue
		}
		if al.su[root] {
			continue
		}
		c.hasEdges = true
		if other, ok := al.nb.Index.Lookup(e.Other(free)); ok && t.finished[al.root[other]] {
			c.edge = e
			return
		}
	}
}

// bound returns the block position that makes the picked edge straight. If
// the edge's other block is not finished yet, the candidate is queued for
// post-processing.
func (t *threshold) bound(id int, isRoot bool) float64 {
	al := t.al
	c := &candidate{free: id, isRoot: isRoot}
	t.pick(c)
	if c.edge == nil {
		if c.hasEdges {
			t.queue = append(t.queue, c)
		}
		return t.unbounded()
	}

	rootPort, otherPort := c.edge.Source, c.edge.Target
	if isRoot == (al.hdir == Right) {
		rootPort, otherPort = c.edge.Target, c.edge.Source
	}
	o, r := al.nb.Of(otherPort.Node), al.nb.Of(rootPort.Node)
	th := al.y[al.root[o]] + al.innerShift[o] + otherPort.AnchorY() -
		al.innerShift[r] - rootPort.AnchorY()

	al.su[al.root[al.nb.Of(c.edge.SourceNode())]] = true
	al.su[al.root[al.nb.Of(c.edge.TargetNode())]] = true
	return th
}

// postProcess straightens the queued candidates once every block has its
// final position. Candidates that could not move are retried in reverse
// order after the queue is drained.
func (t *threshold) postProcess() {
	if !t.simple {
		return
	}
	for len(t.queue) > 0 {
		c := t.queue[0]
		t.queue = t.queue[1:]
		t.pick(c)
		if c.edge == nil {
			continue
		}
		if !t.straighten(c) {
			t.stack = append(t.stack, c)
		}
	}
	for len(t.stack) > 0 {
		c := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.straighten(c)
	}
}

// straighten moves the block of c.free towards the fixed end of c.edge as
// far as its neighbors allow and reports whether it moved.
func (t *threshold) straighten(c *candidate) bool {
	al := t.al
	fix, block := c.edge.Source, c.edge.Target
	if fix.Node == al.node(c.free) {
		fix, block = block, fix
	}
	d := al.delta(fix, block)
	switch {
	case d > 0 && d < maxThreshold:
		space := max(0, al.spaceAbove(c.free, d))
		al.shiftBlock(c.free, -space)
		return space > 0
	case d < 0 && -d < maxThreshold:
		space := max(0, al.spaceBelow(c.free, -d))
		al.shiftBlock(c.free, space)
		return space > 0
	}
	return false
}
