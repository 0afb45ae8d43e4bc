// ABOUTME: Core data types for retention snapshots
// ABOUTME: Defines Node, NodeID, and Roots structures

package retention

// NodeID is a unique identifier for a node in a retention snapshot
type NodeID uint64

// Node represents a single retained object in a snapshot
type Node struct {
	ID    NodeID   // Unique identifier
	Label string   // Human-readable name (e.g. "holder-slot", "owner:<id>")
	Size  uint64   // Simulated heap cost in bytes
	Refs  []NodeID // Nodes this node keeps alive through an owning link
}

// Roots represents the set of nodes that are alive unconditionally
type Roots struct {
	IDs []NodeID
}
