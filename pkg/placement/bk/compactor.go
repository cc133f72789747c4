package bk

import "math"

// classNode is a class in the class graph: all blocks sharing one sink.
type classNode struct {
	sink     int
	shift    float64
	hasShift bool
	out      []classEdge
	indegree int
}

type classEdge struct {
	target     *classNode
	separation float64
}

type compactor struct {
	al      *alignedLayout
	th      *threshold
	classes map[int]*classNode
	order   []*classNode // creation order
}

// compactHorizontally assigns y coordinates to all blocks of al. Blocks are
// placed in sweep order as close to their already placed neighbor as
// spacing allows. Neighboring blocks of different classes only record the
// required separation in the class graph, which is resolved afterwards by a
// longest-path pass.
func compactHorizontally(al *alignedLayout, s EdgeStraightening) {
	c := &compactor{
		al:      al,
		th:      newThreshold(s, al),
		classes: make(map[int]*classNode),
	}
	unset := math.Inf(1)
	if al.vdir == Up {
		unset = math.Inf(-1)
	}
	for i := range al.shift {
		al.sink[i] = i
		al.shift[i] = unset
		al.placed[i] = false
	}

	layers := al.layers()
	for _, layer := range layers {
		for _, v := range al.sweep(layer) {
			if al.root[v] == v {
				c.placeBlock(v)
			}
		}
	}
	c.placeClasses()

	for _, layer := range layers {
		for _, v := range layer {
			al.y[v] = al.y[al.root[v]]
			if al.root[v] == v {
				if s := al.shift[al.sink[v]]; !math.IsInf(s, 0) {
					al.y[v] += s
				}
			}
		}
	}
	c.th.postProcess()
}

func (c *compactor) placeBlock(root int) {
	al := c.al
	if al.placed[root] {
		return
	}
	al.placed[root] = true
	al.y[root] = 0

	step := -1
	thresh := math.Inf(-1)
	if al.vdir == Up {
		step = 1
		thresh = math.Inf(1)
	}
	initial := true
	for _, cur := range al.blocks[root] {
		nbr := al.neighbor(cur, step)
		if nbr < 0 {
			thresh = c.th.calculate(thresh, root, cur)
			continue
		}
		nroot := al.root[nbr]
		c.placeBlock(nroot)
		// after placing the neighbor, so queued candidates keep sweep order
		thresh = c.th.calculate(thresh, root, cur)

		if al.sink[root] == root {
			al.sink[root] = al.sink[nroot]
		}
		cn, nn := al.node(cur), al.node(nbr)
		if al.sink[root] == al.sink[nroot] {
			gap := al.spacing.Vertical(cn, nn)
			if al.vdir == Up {
				pos := al.y[nroot] + al.innerShift[nbr] - nn.Margin.Top - gap -
					cn.Margin.Bottom - cn.Size.Y - al.innerShift[cur]
				if initial {
					al.y[root] = min(pos, thresh)
				} else {
					al.y[root] = min(al.y[root], pos, thresh)
				}
			} else {
				pos := al.y[nroot] + al.innerShift[nbr] + nn.Size.Y + nn.Margin.Bottom +
					gap + cn.Margin.Top - al.innerShift[cur]
				if initial {
					al.y[root] = max(pos, thresh)
				} else {
					al.y[root] = max(al.y[root], pos, thresh)
				}
			}
			initial = false
			continue
		}

		gap := al.spacing.NodeNode
		var required float64
		if al.vdir == Up {
			required = al.y[root] + al.innerShift[cur] + cn.Size.Y + cn.Margin.Bottom + gap -
				(al.y[nroot] + al.innerShift[nbr] - nn.Margin.Top)
		} else {
			required = al.y[root] + al.innerShift[cur] - cn.Margin.Top -
				al.y[nroot] - al.innerShift[nbr] - nn.Size.Y - nn.Margin.Bottom - gap
		}
		c.class(al.sink[root]).connect(c.class(al.sink[nroot]), required)
	}
	c.th.finishBlock(root)
}

func (c *compactor) class(sink int) *classNode {
	if n, ok := c.classes[sink]; ok {
		return n
	}
	n := &classNode{sink: sink}
	c.classes[sink] = n
	c.order = append(c.order, n)
	return n
}

func (n *classNode) connect(target *classNode, separation float64) {
	n.out = append(n.out, classEdge{target: target, separation: separation})
	target.indegree++
}

// placeClasses propagates class shifts from the sources of the class graph.
// A class reached over several edges takes the tightest shift.
func (c *compactor) placeClasses() {
	var queue []*classNode
	for _, n := range c.order {
		if n.indegree == 0 {
			queue = append(queue, n)
		}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if !n.hasShift {
			n.shift, n.hasShift = 0, true
		}
		for _, e := range n.out {
			s := n.shift + e.separation
			switch t := e.target; {
			case !t.hasShift:
				t.shift, t.hasShift = s, true
			case c.al.vdir == Down:
				t.shift = min(t.shift, s)
			default:
				t.shift = max(t.shift, s)
			}
			e.target.indegree--
			if e.target.indegree == 0 {
				queue = append(queue, e.target)
			}
		}
	}
	for _, n := range c.order {
		if n.hasShift {
			c.al.shift[n.sink] = n.shift
		}
	}
}
