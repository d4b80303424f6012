package optimizer

import (
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/go-quarry/quarry"
	"github.com/go-quarry/quarry/errors"
	"github.com/go-quarry/quarry/expr"
	"github.com/go-quarry/quarry/plan"
)

// PushdownSubfields rewrites the table scans of a plan to request only
// the columns and subfields the rest of the plan actually accesses. The
// pass walks the plan once, registering requirements top-down, then
// rebuilds the tree bottom-up with narrowed column handles at the leaves.
type PushdownSubfields struct {
	metadata            quarry.Metadata
	functionResolution  quarry.FunctionResolution
	expressionOptimizer expr.Optimizer
}

// CreatePushdownSubfields is a factory for the subfield pushdown pass
func CreatePushdownSubfields(
	metadata quarry.Metadata,
	functionResolution quarry.FunctionResolution,
	expressionOptimizer expr.Optimizer,
) *PushdownSubfields {
	return &PushdownSubfields{
		metadata:            metadata,
		functionResolution:  functionResolution,
		expressionOptimizer: expressionOptimizer,
	}
}

// A Result pairs the rewritten plan with whether anything was narrowed.
// When Changed is false, Node is the original root.
type Result struct {
	Node    plan.Node
	Changed bool
}

// Optimize runs the pass over a plan. The pass is a no-op unless the
// session enables it. Running it twice leaves Changed false on the second
// run, since the scans already carry their narrowed handles.
func (p *PushdownSubfields) Optimize(session *quarry.Session, root plan.Node) (Result, error) {
	if session == nil || !session.PushdownSubfields {
		return Result{Node: root}, nil
	}
	r := &rewriter{
		extractor: createSubfieldExtractor(p.functionResolution, p.expressionOptimizer, p.metadata, session),
		ctx:       newRewriteContext(),
		metadata:  p.metadata,
		session:   session,
	}
	rewritten, err := r.rewrite(root)
	if err != nil {
		return Result{}, err
	}
	if !r.planChanged {
		return Result{Node: root}, nil
	}
	return Result{Node: rewritten, Changed: true}, nil
}

// rewriter carries the state of one Optimize call. The context is shared
// across the whole traversal: requirements registered anywhere in the
// plan are visible to every scan beneath.
type rewriter struct {
	extractor   *subfieldExtractor
	ctx         *rewriteContext
	metadata    quarry.Metadata
	session     *quarry.Session
	planChanged bool
}

func (r *rewriter) rewrite(node plan.Node) (plan.Node, error) {
	switch n := node.(type) {
	case *plan.TableScan:
		return r.rewriteTableScan(n)
	case *plan.Output:
		r.ctx.requireVariables(n.Outputs)
	case *plan.Project:
		if err := r.registerProject(n); err != nil {
			return nil, err
		}
	case *plan.Filter:
		r.extractor.extract(n.Predicate, r.ctx)
	case *plan.Aggregation:
		if err := r.registerAggregation(n); err != nil {
			return nil, err
		}
	case *plan.Join:
		for _, clause := range n.Criteria {
			r.ctx.requireVariable(clause.Left)
			r.ctx.requireVariable(clause.Right)
		}
		if n.Filter != nil {
			r.extractor.extract(n.Filter, r.ctx)
		}
	case *plan.SemiJoin:
		r.ctx.requireVariable(n.SourceJoinVariable)
		r.ctx.requireVariable(n.FilteringSourceJoinVariable)
	case *plan.Sort:
		r.ctx.requireVariables(n.OrderBy)
	case *plan.TopN:
		r.ctx.requireVariables(n.OrderBy)
	case *plan.RowNumber:
		r.ctx.requireVariable(n.RowNumberVariable)
		r.ctx.requireVariables(n.PartitionBy)
	case *plan.TopNRowNumber:
		r.ctx.requireVariable(n.RowNumberVariable)
		r.ctx.requireVariables(n.PartitionBy)
		r.ctx.requireVariables(n.OrderBy)
	case *plan.Window:
		r.registerWindow(n)
	case *plan.Unnest:
		r.registerUnnest(n)
	case *plan.Union:
		if err := r.registerUnion(n); err != nil {
			return nil, err
		}
	case *plan.MarkDistinct:
		r.ctx.requireVariables(n.DistinctVariables)
	case *plan.DistinctLimit:
		r.ctx.requireVariables(n.DistinctVariables)
	case *plan.GroupID:
		for _, column := range n.GroupingColumns {
			if err := r.ctx.addVariableAssignment(column.Output, column.Input); err != nil {
				return nil, err
			}
		}
	case *plan.TableWriter:
		r.ctx.requireVariables(n.Columns)
	case *plan.Delete:
		if n.RowID != nil {
			r.ctx.requireVariable(n.RowID)
		}
	case *plan.Apply:
		r.ctx.requireVariables(n.Correlation)
	}
	return r.rewriteSources(node)
}

func (r *rewriter) rewriteSources(node plan.Node) (plan.Node, error) {
	sources := node.Sources()
	if len(sources) == 0 {
		return node, nil
	}
	rewritten := make([]plan.Node, len(sources))
	changed := false
	for i, source := range sources {
		newSource, err := r.rewrite(source)
		if err != nil {
			return nil, err
		}
		rewritten[i] = newSource
		if newSource != source {
			changed = true
		}
	}
	if !changed {
		return node, nil
	}
	return node.ReplaceSources(rewritten), nil
}

func (r *rewriter) registerProject(node *plan.Project) error {
	for _, assignment := range node.Assignments {
		if input, ok := assignment.Expression.(*expr.Variable); ok {
			if err := r.ctx.addVariableAssignment(assignment.Output, input); err != nil {
				return err
			}
			continue
		}
		if subfields, ok := r.extractor.toSubfields(assignment.Expression); ok {
			for _, subfield := range subfields {
				if err := r.ctx.addSubfieldAssignment(assignment.Output, subfield); err != nil {
					return err
				}
			}
			continue
		}
		r.extractor.extract(assignment.Expression, r.ctx)
	}
	return nil
}

func (r *rewriter) registerAggregation(node *plan.Aggregation) error {
	r.ctx.requireVariables(node.GroupingKeys)
	for _, aggregation := range node.Aggregations {
		// arbitrary(x) returns some input value of x unmodified, so the
		// output is effectively an alias of the argument
		if input, ok := r.arbitraryArgument(aggregation.Call); ok {
			if err := r.ctx.addVariableAssignment(aggregation.Output, input); err != nil {
				return err
			}
			continue
		}
		r.extractor.extractAll(aggregation.Call.Arguments, r.ctx)
		if aggregation.Filter != nil {
			r.extractor.extract(aggregation.Filter, r.ctx)
		}
		r.ctx.requireVariables(aggregation.OrderBy)
		if aggregation.Mask != nil {
			r.ctx.requireVariable(aggregation.Mask)
		}
	}
	return nil
}

func (r *rewriter) arbitraryArgument(call *expr.Call) (*expr.Variable, bool) {
	if len(call.Arguments) != 1 {
		return nil, false
	}
	input, ok := call.Arguments[0].(*expr.Variable)
	if !ok {
		return nil, false
	}
	md, err := r.metadata.FunctionMetadata(call.Function)
	if err != nil || md.Name != "arbitrary" {
		return nil, false
	}
	return input, true
}

func (r *rewriter) registerWindow(node *plan.Window) {
	r.ctx.requireVariables(node.PartitionBy)
	r.ctx.requireVariables(node.OrderBy)
	for _, function := range node.Functions {
		r.extractor.extractAll(function.Call.Arguments, r.ctx)
		if function.FrameStart != nil {
			r.ctx.requireVariable(function.FrameStart)
		}
		if function.FrameEnd != nil {
			r.ctx.requireVariable(function.FrameEnd)
		}
	}
}

func (r *rewriter) registerUnnest(node *plan.Unnest) {
	// requirements collected for one container are staged until every
	// mapping has been matched, so they cannot feed a later container's
	// element lookup
	var staged []quarry.Subfield
	for _, mapping := range node.Mappings {
		elementType, isArrayOfRow := arrayOfRowElement(mapping.Container.Type())
		found := false
		if isArrayOfRow && !r.session.LegacyUnnest {
			// Each unnested output variable corresponds to one field of
			// the row element. An output nobody uses contributes nothing,
			// so the field itself gets pruned from the container.
			for i, element := range mapping.Elements {
				name, ok := elementType.FieldName(i)
				if !ok {
					found = true
					r.ctx.requireVariable(mapping.Container)
					break
				}
				prefix := []quarry.PathElement{quarry.AllSubscripts{}, quarry.NestedField{Name: name}}
				if r.ctx.isVariableRequired(element.Name) {
					found = true
					staged = append(staged, quarry.CreateSubfield(mapping.Container.Name, prefix...))
					continue
				}
				for _, subfield := range r.ctx.findSubfields(element.Name) {
					found = true
					path := make([]quarry.PathElement, 0, 2+len(subfield.Path()))
					path = append(path, prefix...)
					path = append(path, subfield.Path()...)
					staged = append(staged, quarry.CreateSubfield(mapping.Container.Name, path...))
				}
			}
		} else {
			// No row element to name a field on: a fully-required
			// output maps to every element of the container, and a
			// partially-read output keeps its path beneath the
			// subscript.
			for _, element := range mapping.Elements {
				if r.ctx.isVariableRequired(element.Name) {
					found = true
					staged = append(staged, quarry.CreateSubfield(mapping.Container.Name, quarry.AllSubscripts{}))
					continue
				}
				for _, subfield := range r.ctx.findSubfields(element.Name) {
					found = true
					path := make([]quarry.PathElement, 0, 1+len(subfield.Path()))
					path = append(path, quarry.AllSubscripts{})
					path = append(path, subfield.Path()...)
					staged = append(staged, quarry.CreateSubfield(mapping.Container.Name, path...))
				}
			}
		}
		// no referenced output means the whole container is required
		if !found {
			r.ctx.requireVariable(mapping.Container)
		}
	}
	for _, subfield := range staged {
		r.ctx.subfields.Add(subfield)
	}
	r.ctx.requireVariables(node.ReplicateVariables)
}

func arrayOfRowElement(t quarry.Type) (*quarry.RowType, bool) {
	array, ok := t.(*quarry.ArrayType)
	if !ok {
		return nil, false
	}
	row, ok := array.Element.(*quarry.RowType)
	return row, ok
}

func (r *rewriter) registerUnion(node *plan.Union) error {
	for _, mapping := range node.VariableMapping {
		for _, input := range mapping.Inputs {
			if err := r.ctx.addVariableAssignment(mapping.Output, input); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *rewriter) rewriteTableScan(node *plan.TableScan) (plan.Node, error) {
	if r.ctx.subfields.Len() == 0 {
		return node, nil
	}

	var errs *multierror.Error
	newAssignments := make([]plan.ColumnAssignment, 0, len(node.Assignments))
	changed := false
	for _, assignment := range node.Assignments {
		// a full-value requirement anywhere downstream forbids pruning
		if r.ctx.isVariableRequired(assignment.Variable.Name) {
			newAssignments = append(newAssignments, assignment)
			continue
		}
		matching := r.ctx.findSubfields(assignment.Variable.Name)
		if len(matching) == 0 {
			// every column a scan produces must be consumed somewhere
			// above it
			errs = multierror.Append(errs, errors.MissingVariableError{Variable: assignment.Variable.Name})
			newAssignments = append(newAssignments, assignment)
			continue
		}

		md, err := r.metadata.ColumnMetadata(r.session, node.Table, assignment.Column)
		if err != nil {
			errs = multierror.Append(errs, err)
			newAssignments = append(newAssignments, assignment)
			continue
		}

		// requirements are collected against the variable; the connector
		// wants them rooted at the column name
		rerooted := make([]quarry.Subfield, len(matching))
		for i, subfield := range matching {
			rerooted[i] = quarry.CreateSubfield(md.Name, subfield.Path()...)
		}
		pruned := pruneSubfields(rerooted)

		if subfieldsEqual(pruned, assignment.Column.RequiredSubfields()) {
			newAssignments = append(newAssignments, assignment)
			continue
		}
		newAssignments = append(newAssignments, plan.ColumnAssignment{
			Variable: assignment.Variable,
			Column:   assignment.Column.WithRequiredSubfields(pruned),
		})
		changed = true
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	if !changed {
		return node, nil
	}
	r.planChanged = true
	return node.WithAssignments(newAssignments), nil
}

// pruneSubfields removes redundancy from the requirements of one column:
// a subfield extending another required subfield is already covered by
// it, and an existence-only requirement is covered by any data
// requirement on the same path.
func pruneSubfields(subfields []quarry.Subfield) []quarry.Subfield {
	var data, existenceOnly []quarry.Subfield
	for _, subfield := range subfields {
		if containsNoSubfield(subfield) {
			existenceOnly = append(existenceOnly, subfield)
		} else {
			data = append(data, subfield)
		}
	}

	pruned := make([]quarry.Subfield, 0, len(data))
	for _, subfield := range data {
		if !properPrefixExists(subfield, data) {
			pruned = append(pruned, subfield)
		}
	}

	for _, subfield := range existenceOnly {
		stripped := stripNoSubfield(subfield)
		covered := false
		for _, d := range data {
			if stripped.IsPrefix(d) {
				covered = true
				break
			}
		}
		if !covered {
			pruned = append(pruned, subfield)
		}
	}

	sort.Slice(pruned, func(i, j int) bool { return pruned[i].String() < pruned[j].String() })
	return pruned
}

func properPrefixExists(subfield quarry.Subfield, subfields []quarry.Subfield) bool {
	for _, other := range subfields {
		if other.IsPrefix(subfield) && !other.Equals(subfield) {
			return true
		}
	}
	return false
}

func containsNoSubfield(subfield quarry.Subfield) bool {
	for _, element := range subfield.Path() {
		if element == (quarry.NoSubfield{}) {
			return true
		}
	}
	return false
}

func stripNoSubfield(subfield quarry.Subfield) quarry.Subfield {
	path := make([]quarry.PathElement, 0, len(subfield.Path()))
	for _, element := range subfield.Path() {
		if element != (quarry.NoSubfield{}) {
			path = append(path, element)
		}
	}
	return quarry.CreateSubfield(subfield.RootName(), path...)
}

func subfieldsEqual(a, b []quarry.Subfield) bool {
	if len(a) != len(b) {
		return false
	}
	set := quarry.CreateSubfieldSet(b...)
	for _, subfield := range a {
		if !set.Contains(subfield) {
			return false
		}
	}
	return true
}
