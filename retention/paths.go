// ABOUTME: BFS search for the chains that keep a node reachable
// ABOUTME: Returns up to N shortest paths from a node back to a root

package retention

// Path is a sequence of node IDs from a retained node to a root
type Path struct {
	IDs []NodeID
}

// Labels resolves the path's IDs to node labels. Unknown IDs are skipped.
func (p Path) Labels(g Graph) []string {
	labels := make([]string, 0, len(p.IDs))
	for _, id := range p.IDs {
		if n := g.Node(id); n != nil {
			labels = append(labels, n.Label)
		}
	}
	return labels
}

// PathsToRoots finds up to maxPaths shortest paths from `from` to any root.
// An empty result means nothing in the snapshot keeps `from` alive.
func PathsToRoots(g Graph, from NodeID, maxPaths int) []Path {
	if maxPaths <= 0 || g.Node(from) == nil {
		return nil
	}

	rootSet := make(map[NodeID]bool)
	for _, id := range g.Roots().IDs {
		rootSet[id] = true
	}
	if rootSet[from] {
		return []Path{{IDs: []NodeID{from}}}
	}

	referrers := BuildReferrers(g)

	type step struct {
		id   NodeID
		path []NodeID
	}

	var result []Path
	queue := []step{{id: from, path: []NodeID{from}}}

	for len(queue) > 0 && len(result) < maxPaths {
		cur := queue[0]
		queue = queue[1:]

		for _, ref := range referrers[cur.id] {
			if contains(cur.path, ref) {
				continue
			}

			next := make([]NodeID, len(cur.path)+1)
			copy(next, cur.path)
			next[len(cur.path)] = ref

			if rootSet[ref] {
				result = append(result, Path{IDs: next})
				if len(result) >= maxPaths {
					break
				}
				continue
			}
			queue = append(queue, step{id: ref, path: next})
		}
	}

	return result
}

func contains(ids []NodeID, id NodeID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
