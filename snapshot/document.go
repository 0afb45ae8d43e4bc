// ABOUTME: Document model shared by all snapshot codecs
// ABOUTME: Holds leak reports and an optional retention graph

package snapshot

import (
	"fmt"

	"github.com/prateek/leaksentinel/retention"
	"github.com/prateek/leaksentinel/sentinel"
)

// Document is the unit a codec encodes and decodes
type Document struct {
	Reports    []sentinel.LeakReport       `json:"reports,omitempty" yaml:"reports,omitempty"`
	Navigation []sentinel.NavigationReport `json:"navigation,omitempty" yaml:"navigation,omitempty"`
	Graph      *GraphRecord                `json:"graph,omitempty" yaml:"graph,omitempty"`
}

// GraphRecord is the serialised form of a retention graph
type GraphRecord struct {
	Nodes []NodeRecord       `json:"nodes" yaml:"nodes"`
	Roots []retention.NodeID `json:"roots" yaml:"roots"`
}

// NodeRecord is the serialised form of a retention node
type NodeRecord struct {
	ID    retention.NodeID   `json:"id" yaml:"id"`
	Label string             `json:"label" yaml:"label"`
	Size  uint64             `json:"size" yaml:"size"`
	Refs  []retention.NodeID `json:"refs,omitempty" yaml:"refs,omitempty"`
}

// FromGraph records g's nodes in ascending ID order
func FromGraph(g retention.Graph) *GraphRecord {
	rec := &GraphRecord{
		Nodes: make([]NodeRecord, 0, g.NumNodes()),
		Roots: append([]retention.NodeID{}, g.Roots().IDs...),
	}
	g.ForEachNode(func(n *retention.Node) {
		rec.Nodes = append(rec.Nodes, NodeRecord{
			ID:    n.ID,
			Label: n.Label,
			Size:  n.Size,
			Refs:  append([]retention.NodeID(nil), n.Refs...),
		})
	})
	return rec
}

// Build rebuilds an in-memory graph from the record
func (r *GraphRecord) Build() (*retention.MemGraph, error) {
	g := retention.NewMemGraph()
	for i, n := range r.Nodes {
		if n.ID == 0 {
			return nil, fmt.Errorf("node at index %d missing ID", i)
		}
		refs := n.Refs
		if refs == nil {
			refs = []retention.NodeID{}
		}
		g.AddNode(&retention.Node{ID: n.ID, Label: n.Label, Size: n.Size, Refs: refs})
	}

	roots := r.Roots
	if roots == nil {
		roots = []retention.NodeID{}
	}
	g.SetRoots(retention.Roots{IDs: roots})
	return g, nil
}
