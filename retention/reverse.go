// ABOUTME: Builds referrer lists for walking a snapshot backwards
// ABOUTME: Maps each node to the nodes holding an owning link to it

package retention

// Referrers maps each node to the nodes that keep it alive
type Referrers map[NodeID][]NodeID

// BuildReferrers inverts the owning links of g
func BuildReferrers(g Graph) Referrers {
	refs := make(Referrers)
	g.ForEachNode(func(n *Node) {
		for _, target := range n.Refs {
			refs[target] = append(refs[target], n.ID)
		}
	})
	return refs
}
