package plan

import (
	"github.com/go-quarry/quarry/expr"
)

// An Assignment binds one output variable of a Project to the expression
// computing it
type Assignment struct {
	Output     *expr.Variable
	Expression expr.Expression
}

// A Project computes a new set of output variables from its source
type Project struct {
	baseNode
	Source      Node
	Assignments []Assignment
}

// CreateProject is a factory for Projects
func CreateProject(id NodeID, source Node, assignments []Assignment) *Project {
	return &Project{baseNode: baseNode{id: id}, Source: source, Assignments: assignments}
}

// Sources returns the child Nodes of this Node
func (n *Project) Sources() []Node { return []Node{n.Source} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *Project) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	return &clone
}

// A Filter drops source rows for which the predicate is not true
type Filter struct {
	baseNode
	Source    Node
	Predicate expr.Expression
}

// CreateFilter is a factory for Filters
func CreateFilter(id NodeID, source Node, predicate expr.Expression) *Filter {
	return &Filter{baseNode: baseNode{id: id}, Source: source, Predicate: predicate}
}

// Sources returns the child Nodes of this Node
func (n *Filter) Sources() []Node { return []Node{n.Source} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *Filter) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	return &clone
}

// An AggregationAssignment binds one output variable of an Aggregation to
// the aggregate call computing it
type AggregationAssignment struct {
	Output  *expr.Variable
	Call    *expr.Call
	Filter  expr.Expression  // optional
	OrderBy []*expr.Variable // optional
	Mask    *expr.Variable   // optional
}

// An Aggregation groups its source by the grouping keys and computes
// aggregate functions per group
type Aggregation struct {
	baseNode
	Source       Node
	GroupingKeys []*expr.Variable
	Aggregations []AggregationAssignment
}

// CreateAggregation is a factory for Aggregations
func CreateAggregation(id NodeID, source Node, groupingKeys []*expr.Variable, aggregations []AggregationAssignment) *Aggregation {
	return &Aggregation{baseNode: baseNode{id: id}, Source: source, GroupingKeys: groupingKeys, Aggregations: aggregations}
}

// Sources returns the child Nodes of this Node
func (n *Aggregation) Sources() []Node { return []Node{n.Source} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *Aggregation) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	return &clone
}

// An EquiJoinClause equates one variable from each side of a Join
type EquiJoinClause struct {
	Left  *expr.Variable
	Right *expr.Variable
}

// A Join combines two sources on equi-join criteria plus an optional
// residual filter
type Join struct {
	baseNode
	Left     Node
	Right    Node
	Criteria []EquiJoinClause
	Filter   expr.Expression // optional
}

// CreateJoin is a factory for Joins
func CreateJoin(id NodeID, left, right Node, criteria []EquiJoinClause, filter expr.Expression) *Join {
	return &Join{baseNode: baseNode{id: id}, Left: left, Right: right, Criteria: criteria, Filter: filter}
}

// Sources returns the child Nodes of this Node
func (n *Join) Sources() []Node { return []Node{n.Left, n.Right} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *Join) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Left = sources[0]
	clone.Right = sources[1]
	return &clone
}

// A SemiJoin marks each source row with whether its join variable appears
// in the filtering source
type SemiJoin struct {
	baseNode
	Source                      Node
	FilteringSource             Node
	SourceJoinVariable          *expr.Variable
	FilteringSourceJoinVariable *expr.Variable
	Output                      *expr.Variable
}

// CreateSemiJoin is a factory for SemiJoins
func CreateSemiJoin(id NodeID, source, filteringSource Node, sourceJoinVariable, filteringSourceJoinVariable, output *expr.Variable) *SemiJoin {
	return &SemiJoin{
		baseNode:                    baseNode{id: id},
		Source:                      source,
		FilteringSource:             filteringSource,
		SourceJoinVariable:          sourceJoinVariable,
		FilteringSourceJoinVariable: filteringSourceJoinVariable,
		Output:                      output,
	}
}

// Sources returns the child Nodes of this Node
func (n *SemiJoin) Sources() []Node { return []Node{n.Source, n.FilteringSource} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *SemiJoin) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	clone.FilteringSource = sources[1]
	return &clone
}

// A Sort orders its source by the given variables
type Sort struct {
	baseNode
	Source  Node
	OrderBy []*expr.Variable
}

// CreateSort is a factory for Sorts
func CreateSort(id NodeID, source Node, orderBy []*expr.Variable) *Sort {
	return &Sort{baseNode: baseNode{id: id}, Source: source, OrderBy: orderBy}
}

// Sources returns the child Nodes of this Node
func (n *Sort) Sources() []Node { return []Node{n.Source} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *Sort) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	return &clone
}

// A TopN returns the first Count rows of its source under the given
// ordering
type TopN struct {
	baseNode
	Source  Node
	Count   int64
	OrderBy []*expr.Variable
}

// CreateTopN is a factory for TopNs
func CreateTopN(id NodeID, source Node, count int64, orderBy []*expr.Variable) *TopN {
	return &TopN{baseNode: baseNode{id: id}, Source: source, Count: count, OrderBy: orderBy}
}

// Sources returns the child Nodes of this Node
func (n *TopN) Sources() []Node { return []Node{n.Source} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *TopN) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	return &clone
}

// A RowNumber assigns a row number per partition of its source
type RowNumber struct {
	baseNode
	Source            Node
	PartitionBy       []*expr.Variable
	RowNumberVariable *expr.Variable
}

// CreateRowNumber is a factory for RowNumbers
func CreateRowNumber(id NodeID, source Node, partitionBy []*expr.Variable, rowNumberVariable *expr.Variable) *RowNumber {
	return &RowNumber{baseNode: baseNode{id: id}, Source: source, PartitionBy: partitionBy, RowNumberVariable: rowNumberVariable}
}

// Sources returns the child Nodes of this Node
func (n *RowNumber) Sources() []Node { return []Node{n.Source} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *RowNumber) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	return &clone
}

// A TopNRowNumber keeps the first N row numbers per partition under the
// given ordering
type TopNRowNumber struct {
	baseNode
	Source            Node
	PartitionBy       []*expr.Variable
	OrderBy           []*expr.Variable
	RowNumberVariable *expr.Variable
}

// CreateTopNRowNumber is a factory for TopNRowNumbers
func CreateTopNRowNumber(id NodeID, source Node, partitionBy, orderBy []*expr.Variable, rowNumberVariable *expr.Variable) *TopNRowNumber {
	return &TopNRowNumber{baseNode: baseNode{id: id}, Source: source, PartitionBy: partitionBy, OrderBy: orderBy, RowNumberVariable: rowNumberVariable}
}

// Sources returns the child Nodes of this Node
func (n *TopNRowNumber) Sources() []Node { return []Node{n.Source} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *TopNRowNumber) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	return &clone
}

// A WindowFunction binds one output variable of a Window to the window
// call computing it, plus optional frame bound variables
type WindowFunction struct {
	Output     *expr.Variable
	Call       *expr.Call
	FrameStart *expr.Variable // optional
	FrameEnd   *expr.Variable // optional
}

// A Window computes windowed aggregate functions over partitions of its
// source
type Window struct {
	baseNode
	Source      Node
	PartitionBy []*expr.Variable
	OrderBy     []*expr.Variable
	Functions   []WindowFunction
}

// CreateWindow is a factory for Windows
func CreateWindow(id NodeID, source Node, partitionBy, orderBy []*expr.Variable, functions []WindowFunction) *Window {
	return &Window{baseNode: baseNode{id: id}, Source: source, PartitionBy: partitionBy, OrderBy: orderBy, Functions: functions}
}

// Sources returns the child Nodes of this Node
func (n *Window) Sources() []Node { return []Node{n.Source} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *Window) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	return &clone
}

// An UnnestMapping expands one container-typed variable into element
// variables: one per struct field for arrays of rows, or a single element
// (or key/value pair) variable otherwise
type UnnestMapping struct {
	Container *expr.Variable
	Elements  []*expr.Variable
}

// An Unnest expands container-typed variables of its source into one row
// per element, carrying the replicate variables through unchanged
type Unnest struct {
	baseNode
	Source             Node
	ReplicateVariables []*expr.Variable
	Mappings           []UnnestMapping
	OrdinalityVariable *expr.Variable // optional
}

// CreateUnnest is a factory for Unnests
func CreateUnnest(id NodeID, source Node, replicateVariables []*expr.Variable, mappings []UnnestMapping, ordinalityVariable *expr.Variable) *Unnest {
	return &Unnest{baseNode: baseNode{id: id}, Source: source, ReplicateVariables: replicateVariables, Mappings: mappings, OrdinalityVariable: ordinalityVariable}
}

// Sources returns the child Nodes of this Node
func (n *Unnest) Sources() []Node { return []Node{n.Source} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *Unnest) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	return &clone
}

// A UnionMapping binds one output variable of a Union to the input
// variable providing it from each source, in source order
type UnionMapping struct {
	Output *expr.Variable
	Inputs []*expr.Variable
}

// A Union concatenates the rows of its sources
type Union struct {
	baseNode
	Inputs          []Node
	VariableMapping []UnionMapping
}

// CreateUnion is a factory for Unions
func CreateUnion(id NodeID, inputs []Node, variableMapping []UnionMapping) *Union {
	return &Union{baseNode: baseNode{id: id}, Inputs: inputs, VariableMapping: variableMapping}
}

// Sources returns the child Nodes of this Node
func (n *Union) Sources() []Node { return n.Inputs }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *Union) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Inputs = sources
	return &clone
}

// A MarkDistinct marks the first occurrence of each distinct combination
// of the given variables
type MarkDistinct struct {
	baseNode
	Source            Node
	MarkerVariable    *expr.Variable
	DistinctVariables []*expr.Variable
}

// CreateMarkDistinct is a factory for MarkDistincts
func CreateMarkDistinct(id NodeID, source Node, markerVariable *expr.Variable, distinctVariables []*expr.Variable) *MarkDistinct {
	return &MarkDistinct{baseNode: baseNode{id: id}, Source: source, MarkerVariable: markerVariable, DistinctVariables: distinctVariables}
}

// Sources returns the child Nodes of this Node
func (n *MarkDistinct) Sources() []Node { return []Node{n.Source} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *MarkDistinct) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	return &clone
}

// A DistinctLimit returns up to Count distinct combinations of the given
// variables
type DistinctLimit struct {
	baseNode
	Source            Node
	Count             int64
	DistinctVariables []*expr.Variable
}

// CreateDistinctLimit is a factory for DistinctLimits
func CreateDistinctLimit(id NodeID, source Node, count int64, distinctVariables []*expr.Variable) *DistinctLimit {
	return &DistinctLimit{baseNode: baseNode{id: id}, Source: source, Count: count, DistinctVariables: distinctVariables}
}

// Sources returns the child Nodes of this Node
func (n *DistinctLimit) Sources() []Node { return []Node{n.Source} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *DistinctLimit) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	return &clone
}

// A GroupingColumn aliases one grouping-set output variable to its input
type GroupingColumn struct {
	Output *expr.Variable
	Input  *expr.Variable
}

// A GroupID expands its source with grouping-set identifiers
type GroupID struct {
	baseNode
	Source          Node
	GroupingColumns []GroupingColumn
	GroupIDVariable *expr.Variable
}

// CreateGroupID is a factory for GroupIDs
func CreateGroupID(id NodeID, source Node, groupingColumns []GroupingColumn, groupIDVariable *expr.Variable) *GroupID {
	return &GroupID{baseNode: baseNode{id: id}, Source: source, GroupingColumns: groupingColumns, GroupIDVariable: groupIDVariable}
}

// Sources returns the child Nodes of this Node
func (n *GroupID) Sources() []Node { return []Node{n.Source} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *GroupID) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	return &clone
}

// A Limit returns up to Count rows of its source
type Limit struct {
	baseNode
	Source Node
	Count  int64
}

// CreateLimit is a factory for Limits
func CreateLimit(id NodeID, source Node, count int64) *Limit {
	return &Limit{baseNode: baseNode{id: id}, Source: source, Count: count}
}

// Sources returns the child Nodes of this Node
func (n *Limit) Sources() []Node { return []Node{n.Source} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *Limit) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	return &clone
}

// An Output is the root of a plan, naming the variables returned to the
// client
type Output struct {
	baseNode
	Source  Node
	Outputs []*expr.Variable
}

// CreateOutput is a factory for Outputs
func CreateOutput(id NodeID, source Node, outputs []*expr.Variable) *Output {
	return &Output{baseNode: baseNode{id: id}, Source: source, Outputs: outputs}
}

// Sources returns the child Nodes of this Node
func (n *Output) Sources() []Node { return []Node{n.Source} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *Output) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	return &clone
}

// A TableWriter writes the given variables of its source to a table
type TableWriter struct {
	baseNode
	Source           Node
	Columns          []*expr.Variable
	RowCountVariable *expr.Variable
}

// CreateTableWriter is a factory for TableWriters
func CreateTableWriter(id NodeID, source Node, columns []*expr.Variable, rowCountVariable *expr.Variable) *TableWriter {
	return &TableWriter{baseNode: baseNode{id: id}, Source: source, Columns: columns, RowCountVariable: rowCountVariable}
}

// Sources returns the child Nodes of this Node
func (n *TableWriter) Sources() []Node { return []Node{n.Source} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *TableWriter) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	return &clone
}

// A Delete removes the rows identified by its source from a table
type Delete struct {
	baseNode
	Source Node
	RowID  *expr.Variable // optional
}

// CreateDelete is a factory for Deletes
func CreateDelete(id NodeID, source Node, rowID *expr.Variable) *Delete {
	return &Delete{baseNode: baseNode{id: id}, Source: source, RowID: rowID}
}

// Sources returns the child Nodes of this Node
func (n *Delete) Sources() []Node { return []Node{n.Source} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *Delete) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Source = sources[0]
	return &clone
}

// An Apply evaluates a correlated subquery per input row
type Apply struct {
	baseNode
	Input       Node
	Subquery    Node
	Correlation []*expr.Variable
}

// CreateApply is a factory for Applys
func CreateApply(id NodeID, input, subquery Node, correlation []*expr.Variable) *Apply {
	return &Apply{baseNode: baseNode{id: id}, Input: input, Subquery: subquery, Correlation: correlation}
}

// Sources returns the child Nodes of this Node
func (n *Apply) Sources() []Node { return []Node{n.Input, n.Subquery} }

// ReplaceSources returns a copy of this Node with its sources replaced
func (n *Apply) ReplaceSources(sources []Node) Node {
	clone := *n
	clone.Input = sources[0]
	clone.Subquery = sources[1]
	return &clone
}
