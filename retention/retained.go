// ABOUTME: Reachability and retained-size calculations over a snapshot
// ABOUTME: Answers how many bytes a single node is keeping alive

package retention

// Reachable returns the set of nodes reachable from the roots
func Reachable(g Graph) map[NodeID]bool {
	return reachableWithout(g, nil)
}

// RetainedSize returns the bytes that would become unreachable if id were
// removed from the snapshot, including id itself. Nodes that are not
// reachable retain nothing.
func RetainedSize(g Graph, id NodeID) uint64 {
	before := Reachable(g)
	if !before[id] {
		return 0
	}

	after := reachableWithout(g, map[NodeID]bool{id: true})

	var size uint64
	for nid := range before {
		if after[nid] {
			continue
		}
		if n := g.Node(nid); n != nil {
			size += n.Size
		}
	}
	return size
}

// RetainedSizes computes RetainedSize for every reachable node
func RetainedSizes(g Graph) map[NodeID]uint64 {
	result := make(map[NodeID]uint64)
	for id := range Reachable(g) {
		result[id] = RetainedSize(g, id)
	}
	return result
}

func reachableWithout(g Graph, excluded map[NodeID]bool) map[NodeID]bool {
	seen := make(map[NodeID]bool)
	var stack []NodeID
	for _, id := range g.Roots().IDs {
		if !excluded[id] && g.Node(id) != nil {
			stack = append(stack, id)
		}
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true

		n := g.Node(id)
		for _, ref := range n.Refs {
			if !seen[ref] && !excluded[ref] && g.Node(ref) != nil {
				stack = append(stack, ref)
			}
		}
	}
	return seen
}
