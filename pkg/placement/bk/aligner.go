package bk

import (
	"math"

	"github.com/matzehuels/layerkit/pkg/lgraph"
)

// alignVertically builds the blocks of al. Each node is appended to the
// block of one of its median neighbors in the previously swept layer, unless
// the connecting edge is marked or the neighbor lies before a neighbor
// already used in this layer.
func alignVertically(al *alignedLayout, marked map[*lgraph.Edge]bool) {
	for _, layer := range al.layers() {
		r := -1
		if al.vdir == Up {
			r = math.MaxInt
		}
		for _, v := range al.sweep(layer) {
			neighbors := al.nb.Left[v]
			if al.hdir == Left {
				neighbors = al.nb.Right[v]
			}
			d := len(neighbors)
			if d == 0 {
				continue
			}
			low, high := (d+1)/2-1, (d+2)/2-1

			try := func(m int) {
				if al.root[v] != v {
					return
				}
				nbr := neighbors[m]
				um := al.nb.Of(nbr.Node)
				idx := al.nb.NodeIndex[um]
				if marked[nbr.Edge] {
					return
				}
				if (al.vdir == Up && r <= idx) || (al.vdir == Down && r >= idx) {
					return
				}
				root := al.root[um]
				al.blocks[root] = append(al.blocks[root], v)
				al.blocks[v] = nil
				al.root[v] = root
				al.alignEdge[v] = nbr.Edge
				al.od[root] = al.od[root] && al.node(v).Type == lgraph.NodeTypeLongEdge
				r = idx
			}
			if al.vdir == Up {
				for m := high; m >= low; m-- {
					try(m)
				}
			} else {
				for m := low; m <= high; m++ {
					try(m)
				}
			}
		}
	}
}

// shiftInsideBlocks offsets block members against each other so the ports
// of their aligning edges share a y coordinate, then moves the whole block
// down until no member reaches above the block's top. The block size is the
// resulting extent including margins.
func shiftInsideBlocks(al *alignedLayout) {
	for root, block := range al.blocks {
		if block == nil {
			continue
		}
		rn := al.node(root)
		above := rn.Margin.Top
		below := rn.Size.Y + rn.Margin.Bottom
		al.innerShift[root] = 0

		for i := 1; i < len(block); i++ {
			cur, next := block[i-1], block[i]
			e := al.alignEdge[next]
			nn := al.node(next)
			diff := portOn(e, al.node(cur)).AnchorY() - portOn(e, nn).AnchorY()
			al.innerShift[next] = al.innerShift[cur] + diff

			above = math.Max(above, nn.Margin.Top-al.innerShift[next])
			below = math.Max(below, al.innerShift[next]+nn.Size.Y+nn.Margin.Bottom)
		}
		for _, m := range block {
			al.innerShift[m] += above
		}
		al.blockSize[root] = above + below
	}
}

// portOn returns the port of e that belongs to n.
func portOn(e *lgraph.Edge, n *lgraph.Node) *lgraph.Port {
	if e.Source.Node == n {
		return e.Source
	}
	return e.Target
}
