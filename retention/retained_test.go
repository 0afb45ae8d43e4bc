// ABOUTME: Tests for reachability and retained size
// ABOUTME: Covers chains, shared children, and unreachable owners

package retention

import (
	"reflect"
	"testing"
)

func TestReachable(t *testing.T) {
	g := holderGraph()
	g.AddNode(&Node{ID: 4, Label: "orphan", Size: 10})

	want := map[NodeID]bool{1: true, 2: true, 3: true}
	if got := Reachable(g); !reflect.DeepEqual(got, want) {
		t.Errorf("Reachable() = %v, want %v", got, want)
	}
}

func TestRetainedSize(t *testing.T) {
	tests := []struct {
		name     string
		graph    Graph
		expected map[NodeID]uint64
	}{
		{
			name:  "holder chain",
			graph: holderGraph(),
			expected: map[NodeID]uint64{
				1: 1088, // slot retains owner and payload
				2: 1088,
				3: 1024,
			},
		},
		{
			name: "shared payload",
			graph: func() Graph {
				g := NewMemGraph()
				g.AddNode(&Node{ID: 1, Size: 0, Refs: []NodeID{2, 3}})
				g.AddNode(&Node{ID: 2, Size: 30, Refs: []NodeID{4}})
				g.AddNode(&Node{ID: 3, Size: 40, Refs: []NodeID{4}})
				g.AddNode(&Node{ID: 4, Size: 20})
				g.SetRoots(Roots{IDs: []NodeID{1}})
				return g
			}(),
			expected: map[NodeID]uint64{
				1: 90,
				2: 30, // 4 is still held by 3
				3: 40,
				4: 20,
			},
		},
		{
			name: "unreachable owner",
			graph: func() Graph {
				g := NewMemGraph()
				g.AddNode(&Node{ID: 1})
				g.AddNode(&Node{ID: 2, Size: 64, Refs: []NodeID{3}})
				g.AddNode(&Node{ID: 3, Size: 1024})
				g.SetRoots(Roots{IDs: []NodeID{1}})
				return g
			}(),
			expected: map[NodeID]uint64{
				1: 0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RetainedSizes(tt.graph)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("RetainedSizes() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRetainedSizeOfUnreachableNode(t *testing.T) {
	g := NewMemGraph()
	g.AddNode(&Node{ID: 1})
	g.AddNode(&Node{ID: 2, Size: 64})
	g.SetRoots(Roots{IDs: []NodeID{1}})

	if got := RetainedSize(g, 2); got != 0 {
		t.Errorf("Expected 0 retained by unreachable node, got %d", got)
	}
}
