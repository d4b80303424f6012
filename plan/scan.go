package plan

import (
	"github.com/go-quarry/quarry"
	"github.com/go-quarry/quarry/expr"
)

// A ColumnAssignment binds one output variable of a TableScan to the
// column handle it reads
type ColumnAssignment struct {
	Variable *expr.Variable
	Column   quarry.ColumnHandle
}

// A TableScan is a leaf Node reading columns from a table. Assignment
// order is preserved so rewrites are deterministic.
type TableScan struct {
	baseNode
	Table       quarry.TableHandle
	Assignments []ColumnAssignment
}

// CreateTableScan is a factory for TableScans
func CreateTableScan(id NodeID, table quarry.TableHandle, assignments []ColumnAssignment) *TableScan {
	return &TableScan{baseNode: baseNode{id: id}, Table: table, Assignments: assignments}
}

// Sources returns the child Nodes of this Node
func (n *TableScan) Sources() []Node { return nil }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *TableScan) ReplaceSources(sources []Node) Node {
	return n
}

// WithAssignments returns a copy of this TableScan with new column
// assignments
func (n *TableScan) WithAssignments(assignments []ColumnAssignment) *TableScan {
	return &TableScan{baseNode: n.baseNode, Table: n.Table, Assignments: assignments}
}
