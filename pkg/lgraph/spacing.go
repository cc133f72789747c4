package lgraph

// Spacing holds the distances layout phases keep between elements.
type Spacing struct {
	NodeNode      float64 `json:"node_node" toml:"node_node"`
	EdgeNode      float64 `json:"edge_node" toml:"edge_node"`
	EdgeEdge      float64 `json:"edge_edge" toml:"edge_edge"`
	BetweenLayers float64 `json:"between_layers" toml:"between_layers"`
}

// Vertical returns the space required between two neighbors of one layer:
// node spacing for two regular nodes, edge spacing for two dummies, and the
// edge-node spacing for a mixed pair.
func (s Spacing) Vertical(a, b *Node) float64 {
	da, db := a.Type.IsDummy(), b.Type.IsDummy()
	switch {
	case da && db:
		return s.EdgeEdge
	case da || db:
		return s.EdgeNode
	default:
		return s.NodeNode
	}
}
