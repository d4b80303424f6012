// Package plan defines the logical plan IR consumed by optimizer passes.
// Nodes form an immutable tree; rewrites produce new nodes via
// ReplaceSources rather than mutating in place.
package plan

// A NodeID uniquely identifies a Node within a plan
type NodeID string

// A Node is a single operator in a logical plan tree
type Node interface {
	// ID returns the NodeID for this Node
	ID() NodeID
	// Sources returns the child Nodes of this Node, in input order
	Sources() []Node
	// ReplaceSources returns a copy of this Node with its sources
	// replaced. The number of sources must match.
	ReplaceSources(sources []Node) Node
}

type baseNode struct {
	id NodeID
}

// ID returns the NodeID for this Node
func (b baseNode) ID() NodeID { return b.id }

// Visit invokes fn on a Node and, if fn returns true, recursively on all
// of its sources in input order.
func Visit(node Node, fn func(Node) bool) {
	if !fn(node) {
		return
	}
	for _, source := range node.Sources() {
		Visit(source, fn)
	}
}
