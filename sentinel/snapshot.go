// ABOUTME: Renders the holder slot as a retention graph
// ABOUTME: Strong links become edges; weak links leave the owner unrooted

package sentinel

import (
	"github.com/prateek/leaksentinel/retention"
)

// Fixed node IDs used in registry snapshots.
const (
	SlotNodeID    retention.NodeID = 1
	OwnerNodeID   retention.NodeID = 2
	PayloadNodeID retention.NodeID = 3
)

// ownerHeaderBytes approximates the owner's own size apart from its payload.
const ownerHeaderBytes = 64

// Snapshot renders the registry as a retention graph rooted at the holder
// slot. The owner and its payload are included whenever the slot can still
// see the owner, reachable or not.
func (r *Registry) Snapshot() *retention.MemGraph {
	var g *retention.MemGraph
	r.atomically(func(tx *txn) { g = tx.snapshot() })
	return g
}

func renderSnapshot(target *Owner, owning bool) *retention.MemGraph {
	g := retention.NewMemGraph()
	slotNode := &retention.Node{ID: SlotNodeID, Label: "holder-slot"}
	g.AddNode(slotNode)
	g.SetRoots(retention.Roots{IDs: []retention.NodeID{SlotNodeID}})

	if target == nil {
		return g
	}

	if owning {
		slotNode.Refs = []retention.NodeID{OwnerNodeID}
	}
	g.AddNode(&retention.Node{
		ID:    OwnerNodeID,
		Label: target.label(),
		Size:  ownerHeaderBytes,
		Refs:  []retention.NodeID{PayloadNodeID},
	})
	g.AddNode(&retention.Node{
		ID:    PayloadNodeID,
		Label: "payload",
		Size:  uint64(target.PayloadSize()),
	})
	return g
}
