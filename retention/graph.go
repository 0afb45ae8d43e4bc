// ABOUTME: Graph interface and in-memory implementation
// ABOUTME: Stores retention snapshots and answers node lookups

package retention

import (
	"sort"
	"sync"
)

// Graph is a retention snapshot: nodes, owning links, and roots
type Graph interface {
	// AddNode adds a node, replacing any node with the same ID
	AddNode(n *Node)

	// Node retrieves a node by ID, or nil
	Node(id NodeID) *Node

	// NumNodes returns the total number of nodes
	NumNodes() int

	// ForEachNode visits nodes in ascending ID order
	ForEachNode(fn func(*Node))

	// SetRoots sets the root set
	SetRoots(roots Roots)

	// Roots returns the root set
	Roots() Roots
}

// MemGraph is an in-memory implementation of Graph
type MemGraph struct {
	mu    sync.RWMutex
	nodes map[NodeID]*Node
	roots Roots
}

// NewMemGraph creates an empty in-memory graph
func NewMemGraph() *MemGraph {
	return &MemGraph{
		nodes: make(map[NodeID]*Node),
	}
}

// AddNode adds a node, replacing any node with the same ID
func (g *MemGraph) AddNode(n *Node) {
	if n == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[n.ID] = n
}

// Node retrieves a node by ID
func (g *MemGraph) Node(id NodeID) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[id]
}

// NumNodes returns the total number of nodes
func (g *MemGraph) NumNodes() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// ForEachNode visits nodes in ascending ID order so that output built from
// a snapshot is stable across runs.
func (g *MemGraph) ForEachNode(fn func(*Node)) {
	g.mu.RLock()
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	g.mu.RUnlock()

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	for _, n := range nodes {
		fn(n)
	}
}

// SetRoots sets the root set
func (g *MemGraph) SetRoots(roots Roots) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roots = roots
}

// Roots returns the root set
func (g *MemGraph) Roots() Roots {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.roots
}
