// Package bk assigns vertical coordinates to the nodes of a layered graph
// using the method of Brandes and Köpf.
//
// Placement runs on a fully layered and ordered graph in which every edge
// spans exactly one layer (long edges split into [lgraph.NodeTypeLongEdge]
// dummies). It proceeds in five steps:
//
//  1. Conflict marking: edges crossing an inner segment, that is an edge
//     between two long-edge dummies, are excluded from alignment so long
//     edges stay straight.
//  2. Vertical alignment: nodes are grouped into blocks by aligning each
//     node with one of its median neighbors. This is done four times, once
//     for every combination of layer sweep (left or right) and node sweep
//     (down or up).
//  3. Inside-block shift: members of a block are offset against each other
//     so that the ports of their connecting edges line up.
//  4. Horizontal compaction: blocks are packed as tightly as spacing allows,
//     blocks of different classes through an auxiliary class graph. An
//     optional threshold strategy straightens further edges afterwards.
//  5. Selection: either the median of the four layouts (balanced) or the
//     smallest layout that keeps every layer free of overlaps is written back
//     to [lgraph.Node.Pos].
//
// The four directional layouts only read the graph and keep their state in
// private slices, so [Placer.Place] computes them concurrently. Writing the
// chosen coordinates back happens once, after all layouts are done.
//
// # Usage
//
//	p, err := bk.New(bk.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	res, err := p.Place(ctx, g)
//	if err != nil {
//	    return err
//	}
//	log.Debug("placed", "layout", res.Chosen, "feasible", res.Feasible)
package bk
