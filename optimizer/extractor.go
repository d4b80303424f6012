package optimizer

import (
	"strings"

	"github.com/go-quarry/quarry"
	"github.com/go-quarry/quarry/expr"
)

// subfieldExtractor traverses a scalar expression, recording into a
// rewriteContext the variables and subfields the expression actually
// accesses. Unrecognized shapes degrade to "full value required"; the
// extractor never fails.
type subfieldExtractor struct {
	functionResolution  quarry.FunctionResolution
	expressionOptimizer expr.Optimizer
	metadata            quarry.Metadata
	pushdownFromLambdas bool
	mapFunctions        bool
}

func createSubfieldExtractor(
	functionResolution quarry.FunctionResolution,
	expressionOptimizer expr.Optimizer,
	metadata quarry.Metadata,
	session *quarry.Session,
) *subfieldExtractor {
	return &subfieldExtractor{
		functionResolution:  functionResolution,
		expressionOptimizer: expressionOptimizer,
		metadata:            metadata,
		pushdownFromLambdas: session.PushdownSubfieldsFromArrayLambdas,
		mapFunctions:        session.PushSubfieldsForMapFunctions,
	}
}

// descriptor resolves the complex-type descriptor for a function,
// assuming the conservative default for functions the catalog does not
// know about
func (e *subfieldExtractor) descriptor(handle quarry.FunctionHandle) quarry.ComplexTypeFunctionDescriptor {
	md, err := e.metadata.FunctionMetadata(handle)
	if err != nil {
		return quarry.DefaultFunctionDescriptor()
	}
	return md.Descriptor
}

// extract records the access requirements of an expression into ctx
func (e *subfieldExtractor) extract(expression expr.Expression, ctx *rewriteContext) {
	switch n := expression.(type) {
	case *expr.Variable:
		e.visitVariable(n, ctx)
	case *expr.Call:
		e.visitCall(n, ctx)
	case *expr.SpecialForm:
		e.visitSpecialForm(n, ctx)
	case *expr.Lambda:
		e.extract(n.Body, ctx)
	case *expr.Constant:
		// no accesses
	}
}

func (e *subfieldExtractor) extractAll(expressions []expr.Expression, ctx *rewriteContext) {
	for _, expression := range expressions {
		e.extract(expression, ctx)
	}
}

func (e *subfieldExtractor) visitVariable(reference *expr.Variable, ctx *rewriteContext) {
	if ctx.isPruningLambdaSubfieldsPossible() {
		e.addRequiredLambdaSubfields(ctx, quarry.CreateSubfield(reference.Name))
		return
	}
	ctx.requireVariable(reference)
}

func (e *subfieldExtractor) visitCall(call *expr.Call, ctx *rewriteContext) {
	if e.isSubscriptOrElementAt(call) || e.isMapSubsetWithConstantArray(call) || e.isMapFilterWithConstantKeys(call) {
		if subfields, ok := e.toSubfields(call); ok {
			e.recordSubfields(subfields, ctx)
		} else {
			e.extractAll(call.Arguments, ctx)
		}
		return
	}

	if !e.pushdownFromLambdas {
		ctx.setLambdaSubfields(allSubfieldsOfElement())
		e.extractAll(call.Arguments, ctx)
		return
	}

	original := ctx.lambdaSubfields
	descriptor := e.descriptor(call.Function)

	// A function which reads its input values internally, without
	// declaring lambdas the analysis could follow, hides which subfields
	// it needs. Pruning must be abandoned for its arguments.
	if descriptor.AccessingInputValues && len(descriptor.LambdaDescriptors) == 0 {
		ctx.giveUpOnCollectingLambdaSubfields()
	}

	// Subfields collected against this call's output must be restated
	// against its input before they can flow into the arguments.
	if descriptor.OutputToInputTransformation != nil {
		ctx.setLambdaSubfields(descriptor.OutputToInputTransformation(ctx.lambdaSubfields))
	}

	argumentIndices := descriptor.ArgumentIndicesContainingMapOrArray
	if argumentIndices == nil {
		for i, argument := range call.Arguments {
			if quarry.IsMapOrArrayOfRowType(argument.Type()) {
				argumentIndices = append(argumentIndices, i)
			}
		}
	}

	// The working set accumulated by outer functions relates only to the
	// container-typed arguments named by the descriptor.
	lambdaSubfields := make(map[int]*quarry.SubfieldSet)
	for _, idx := range argumentIndices {
		lambdaSubfields[idx] = ctx.lambdaSubfields.Clone()
	}

	for _, lambdaDescriptor := range descriptor.LambdaDescriptors {
		collected, ok := e.collectLambdaSubfields(call, lambdaDescriptor)
		if !ok {
			ctx.giveUpOnCollectingLambdaSubfields()
			e.extractAll(call.Arguments, ctx)
			return
		}
		for idx, set := range collected {
			if existing, ok := lambdaSubfields[idx]; ok {
				existing.AddAll(set)
			} else {
				lambdaSubfields[idx] = set
			}
		}
	}

	e.addNoSubfieldWhereNothingAccessed(call, lambdaSubfields)

	// Keep visiting the arguments: inner calls contribute their own
	// lambda subfields, and once a leaf is reached the working set is
	// attributed to it. Each argument only receives the working set that
	// relates to it.
	for i, argument := range call.Arguments {
		if set, ok := lambdaSubfields[i]; ok {
			ctx.setLambdaSubfields(set)
		} else {
			ctx.setLambdaSubfields(allSubfieldsOfElement())
		}
		e.extract(argument, ctx)
	}

	// Restore the working set received from the parent expression so
	// sibling calls (e.g. the two sides of an AND) do not see this
	// call's lambda subfields.
	ctx.setLambdaSubfields(original)
}

// addNoSubfieldWhereNothingAccessed marks row-typed container arguments
// with no accessed subfields as "existence only". Arguments whose
// elements are not rows are removed instead, falling back to full access.
func (e *subfieldExtractor) addNoSubfieldWhereNothingAccessed(call *expr.Call, lambdaSubfields map[int]*quarry.SubfieldSet) {
	for idx, set := range lambdaSubfields {
		if set.Len() > 0 {
			continue
		}
		if quarry.IsMapOrArrayOfRowType(call.Arguments[idx].Type()) {
			lambdaSubfields[idx] = quarry.CreateSubfieldSet(
				quarry.CreateSubfield("", quarry.AllSubscripts{}, quarry.NoSubfield{}))
		} else {
			delete(lambdaSubfields, idx)
		}
	}
}

// collectLambdaSubfields extracts, in an isolated sub-context, the
// subfields a lambda body accesses through each described parameter, and
// restates them against the call arguments those parameters range over.
// Returns false when pruning must be abandoned: the argument is not a
// literal lambda, or a parameter's entire value is used.
func (e *subfieldExtractor) collectLambdaSubfields(call *expr.Call, lambdaDescriptor quarry.LambdaDescriptor) (map[int]*quarry.SubfieldSet, bool) {
	lambda, ok := call.Arguments[lambdaDescriptor.CallArgumentIndex].(*expr.Lambda)
	if !ok {
		return nil, false
	}

	subCtx := newRewriteContext()
	e.extract(lambda.Body, subCtx)

	result := make(map[int]*quarry.SubfieldSet)
	for lambdaArgumentIndex, argumentDescriptor := range lambdaDescriptor.LambdaArgumentDescriptors {
		callArgumentIndex := argumentDescriptor.CallArgumentIndex
		if _, ok := result[callArgumentIndex]; !ok {
			result[callArgumentIndex] = quarry.CreateSubfieldSet()
		}
		root := lambda.Parameters[lambdaArgumentIndex]
		if subCtx.isVariableRequired(root) {
			// the entire parameter value was accessed
			return nil, false
		}
		matching := quarry.CreateSubfieldSet(subCtx.subfields.FindByRoot(root)...)
		result[callArgumentIndex].AddAll(argumentDescriptor.Transformation(matching))
	}
	return result, true
}

func (e *subfieldExtractor) visitSpecialForm(specialForm *expr.SpecialForm, ctx *rewriteContext) {
	if specialForm.Form == expr.IsNull {
		if v, ok := specialForm.Arguments[0].(*expr.Variable); ok && quarry.IsRowType(v.Type()) {
			ctx.subfields.Add(quarry.CreateSubfield(v.Name, quarry.NoSubfield{}))
			return
		}
	} else if specialForm.Form != expr.Dereference {
		e.extractAll(specialForm.Arguments, ctx)
		return
	}

	if subfields, ok := e.toSubfields(specialForm); ok {
		e.recordSubfields(subfields, ctx)
	} else {
		e.extractAll(specialForm.Arguments, ctx)
	}
}

func (e *subfieldExtractor) recordSubfields(subfields []quarry.Subfield, ctx *rewriteContext) {
	if ctx.isPruningLambdaSubfieldsPossible() {
		for _, subfield := range subfields {
			e.addRequiredLambdaSubfields(ctx, subfield)
		}
		return
	}
	for _, subfield := range subfields {
		ctx.subfields.Add(subfield)
	}
}

// addRequiredLambdaSubfields attributes the active lambda working set to
// a leaf access, pruning every unaccessed subfield of that leaf
func (e *subfieldExtractor) addRequiredLambdaSubfields(ctx *rewriteContext, input quarry.Subfield) {
	ctx.lambdaSubfields.Each(func(lambdaSubfield quarry.Subfield) {
		path := make([]quarry.PathElement, 0, len(input.Path())+len(lambdaSubfield.Path()))
		path = append(path, input.Path()...)
		path = append(path, lambdaSubfield.Path()...)
		ctx.subfields.Add(quarry.CreateSubfield(input.RootName(), path...))
	})
}

// toSubfields walks a chain of nested accesses inward, accumulating path
// elements until it reaches a variable reference. It returns false when
// the chain contains a non-constant key, a negative array index, or any
// shape it does not recognize.
func (e *subfieldExtractor) toSubfields(expression expr.Expression) ([]quarry.Subfield, bool) {
	var reversed []quarry.PathElement
	for {
		if v, ok := expression.(*expr.Variable); ok {
			path := make([]quarry.PathElement, len(reversed))
			for i, element := range reversed {
				path[len(reversed)-1-i] = element
			}
			return []quarry.Subfield{quarry.CreateSubfield(v.Name, path...)}, true
		}

		if call, ok := expression.(*expr.Call); ok {
			descriptor := e.descriptor(call.Function)
			idx := descriptor.PushdownSubfieldArgIndex
			// pass-through functions continue the chain, but only when a
			// subfield is actually being read from the result
			if idx >= 0 && idx < len(call.Arguments) && quarry.IsRowType(call.Arguments[idx].Type()) && len(reversed) > 0 {
				expression = call.Arguments[idx]
				continue
			}
		}

		if specialForm, ok := expression.(*expr.SpecialForm); ok && specialForm.Form == expr.Dereference {
			base := specialForm.Arguments[0]
			baseType, ok := base.Type().(*quarry.RowType)
			if !ok {
				return nil, false
			}
			index, ok := e.foldToConstant(specialForm.Arguments[1])
			if !ok {
				return nil, false
			}
			ordinal, ok := index.Value.(int64)
			if !ok {
				return nil, false
			}
			name, ok := baseType.FieldName(int(ordinal))
			if !ok {
				return nil, false
			}
			reversed = append(reversed, quarry.NestedField{Name: strings.ToLower(name)})
			expression = base
			continue
		}

		if call, ok := expression.(*expr.Call); ok && e.isSubscriptOrElementAt(call) {
			index, folded := e.foldToConstant(call.Arguments[1])
			if !folded {
				return nil, false
			}
			switch key := index.Value.(type) {
			case int64:
				// negative indices resolve from the end of the array and
				// must never be pushed down
				if _, isArray := call.Arguments[0].Type().(*quarry.ArrayType); isArray && key < 0 {
					return nil, false
				}
				reversed = append(reversed, quarry.LongSubscript{Index: key})
				expression = call.Arguments[0]
				continue
			case string:
				if quarry.IsVarcharType(index.Type()) {
					reversed = append(reversed, quarry.StringSubscript{Key: key})
					expression = call.Arguments[0]
					continue
				}
			}
			return nil, false
		}

		// map_subset(m, array[k...]) accesses exactly the enumerated keys
		if call, ok := expression.(*expr.Call); ok && e.isMapSubsetWithConstantArray(call) {
			return e.subfieldsFromConstantArray(
				call.Arguments[1].(*expr.Constant),
				call.Arguments[0].(*expr.Variable))
		}

		// map_filter(m, (k, v) -> k in (...)), map_filter(m, (k, v) ->
		// contains(array[...], k)) and map_filter(m, (k, v) -> k = c)
		// access exactly the enumerated keys
		if call, ok := expression.(*expr.Call); ok && e.isMapFilterWithConstantKeys(call) {
			return e.subfieldsFromMapFilter(call)
		}

		return nil, false
	}
}

func (e *subfieldExtractor) subfieldsFromMapFilter(call *expr.Call) ([]quarry.Subfield, bool) {
	mapVariable := call.Arguments[0].(*expr.Variable)
	lambda := call.Arguments[1].(*expr.Lambda)

	if body, ok := lambda.Body.(*expr.SpecialForm); ok {
		var res []quarry.Subfield
		for _, key := range body.Arguments[1:] {
			subfield, ok := e.subfieldFromConstantValue(key.(*expr.Constant), mapVariable)
			if !ok {
				return nil, false
			}
			res = append(res, subfield)
		}
		return res, true
	}

	body := lambda.Body.(*expr.Call)
	if e.functionResolution.IsArrayContainsFunction(body.Function) {
		return e.subfieldsFromConstantArray(body.Arguments[0].(*expr.Constant), mapVariable)
	}
	key, ok := body.Arguments[0].(*expr.Constant)
	if !ok {
		key = body.Arguments[1].(*expr.Constant)
	}
	subfield, ok := e.subfieldFromConstantValue(key, mapVariable)
	if !ok {
		return nil, false
	}
	return []quarry.Subfield{subfield}, true
}

func (e *subfieldExtractor) subfieldsFromConstantArray(constantArray *expr.Constant, mapVariable *expr.Variable) ([]quarry.Subfield, bool) {
	values, ok := constantArray.Value.([]any)
	if !ok {
		return nil, false
	}
	arrayType, ok := constantArray.Type().(*quarry.ArrayType)
	if !ok {
		return nil, false
	}
	var res []quarry.Subfield
	for _, key := range values {
		switch k := key.(type) {
		case int64:
			res = append(res, quarry.CreateSubfield(mapVariable.Name, quarry.LongSubscript{Index: k}))
		case string:
			if !quarry.IsVarcharType(arrayType.Element) {
				return nil, false
			}
			res = append(res, quarry.CreateSubfield(mapVariable.Name, quarry.StringSubscript{Key: k}))
		default:
			return nil, false
		}
	}
	return res, true
}

func (e *subfieldExtractor) subfieldFromConstantValue(key *expr.Constant, mapVariable *expr.Variable) (quarry.Subfield, bool) {
	switch k := key.Value.(type) {
	case nil:
		return quarry.Subfield{}, false
	case int64:
		return quarry.CreateSubfield(mapVariable.Name, quarry.LongSubscript{Index: k}), true
	case string:
		if quarry.IsVarcharType(key.Type()) {
			return quarry.CreateSubfield(mapVariable.Name, quarry.StringSubscript{Key: k}), true
		}
	}
	return quarry.Subfield{}, false
}

// foldToConstant asks the engine's expression optimizer to reduce a key
// expression to a literal. A key which does not fold disables pushdown
// for its access chain.
func (e *subfieldExtractor) foldToConstant(expression expr.Expression) (*expr.Constant, bool) {
	folded := e.expressionOptimizer.Optimize(expression, expr.Optimized)
	constant, ok := folded.(*expr.Constant)
	if !ok || constant.Value == nil {
		return nil, false
	}
	return constant, true
}

func (e *subfieldExtractor) isSubscriptOrElementAt(call *expr.Call) bool {
	return e.functionResolution.IsSubscriptFunction(call.Function) ||
		e.functionResolution.IsElementAtFunction(call.Function)
}

func (e *subfieldExtractor) isMapSubsetWithConstantArray(call *expr.Call) bool {
	if !e.mapFunctions {
		return false
	}
	if !e.functionResolution.IsMapSubsetFunction(call.Function) || len(call.Arguments) < 2 {
		return false
	}
	if _, ok := call.Arguments[0].(*expr.Variable); !ok {
		return false
	}
	_, ok := call.Arguments[1].(*expr.Constant)
	return ok
}

func (e *subfieldExtractor) isMapFilterWithConstantKeys(call *expr.Call) bool {
	if !e.mapFunctions {
		return false
	}
	if !e.functionResolution.IsMapFilterFunction(call.Function) || len(call.Arguments) < 2 {
		return false
	}
	if _, ok := call.Arguments[0].(*expr.Variable); !ok {
		return false
	}
	lambda, ok := call.Arguments[1].(*expr.Lambda)
	if !ok || len(lambda.Parameters) == 0 {
		return false
	}
	keyParameter := lambda.Parameters[0]

	if body, ok := lambda.Body.(*expr.SpecialForm); ok {
		if body.Form != expr.In || len(body.Arguments) < 2 {
			return false
		}
		v, ok := body.Arguments[0].(*expr.Variable)
		if !ok || v.Name != keyParameter {
			return false
		}
		for _, argument := range body.Arguments[1:] {
			if _, ok := argument.(*expr.Constant); !ok {
				return false
			}
		}
		return true
	}

	if body, ok := lambda.Body.(*expr.Call); ok && len(body.Arguments) == 2 {
		if e.functionResolution.IsArrayContainsFunction(body.Function) {
			v, ok := body.Arguments[1].(*expr.Variable)
			if !ok || v.Name != keyParameter {
				return false
			}
			_, ok = body.Arguments[0].(*expr.Constant)
			return ok
		}
		if e.functionResolution.IsEqualsFunction(body.Function) {
			if v, ok := body.Arguments[0].(*expr.Variable); ok && v.Name == keyParameter {
				_, ok = body.Arguments[1].(*expr.Constant)
				return ok
			}
			if v, ok := body.Arguments[1].(*expr.Variable); ok && v.Name == keyParameter {
				_, ok = body.Arguments[0].(*expr.Constant)
				return ok
			}
		}
	}
	return false
}
