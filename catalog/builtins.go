package catalog

import (
	"github.com/go-quarry/quarry"
)

// elementLambda describes a higher-order function whose lambda at call
// argument 1 receives elements of the container at call argument 0
func elementLambda() []quarry.LambdaDescriptor {
	return []quarry.LambdaDescriptor{{
		CallArgumentIndex: 1,
		LambdaArgumentDescriptors: map[int]quarry.LambdaArgumentDescriptor{
			0: {CallArgumentIndex: 0, Transformation: quarry.PrependAllSubscripts},
		},
	}}
}

// mapValueLambda describes a higher-order function whose lambda at call
// argument 1 receives (key, value) pairs of the map at call argument 0.
// Only the value parameter contributes subfields; keys are scalar.
func mapValueLambda() []quarry.LambdaDescriptor {
	return []quarry.LambdaDescriptor{{
		CallArgumentIndex: 1,
		LambdaArgumentDescriptors: map[int]quarry.LambdaArgumentDescriptor{
			1: {CallArgumentIndex: 0, Transformation: quarry.PrependAllSubscripts},
		},
	}}
}

func (c *Catalog) registerBuiltins() {
	// transform(array, e -> ...): the output elements are produced by the
	// lambda, so output subfields say nothing about the input
	c.functions["transform"] = quarry.FunctionMetadata{
		Name: "transform",
		Descriptor: quarry.ComplexTypeFunctionDescriptor{
			LambdaDescriptors:                   elementLambda(),
			ArgumentIndicesContainingMapOrArray: []int{0},
			OutputToInputTransformation:         quarry.ClearRequiredSubfields,
			PushdownSubfieldArgIndex:            -1,
		},
	}

	// boolean-returning matchers access only what their lambda accesses
	for _, name := range []string{"any_match", "all_match", "none_match"} {
		c.functions[name] = quarry.FunctionMetadata{
			Name: name,
			Descriptor: quarry.ComplexTypeFunctionDescriptor{
				LambdaDescriptors:                   elementLambda(),
				ArgumentIndicesContainingMapOrArray: []int{0},
				OutputToInputTransformation:         quarry.ClearRequiredSubfields,
				PushdownSubfieldArgIndex:            -1,
			},
		}
	}

	// filter(array, e -> bool): the output is a slice of the input, so
	// output subfields carry through unchanged alongside the lambda's
	c.functions["filter"] = quarry.FunctionMetadata{
		Name: "filter",
		Descriptor: quarry.ComplexTypeFunctionDescriptor{
			LambdaDescriptors:                   elementLambda(),
			ArgumentIndicesContainingMapOrArray: []int{0},
			PushdownSubfieldArgIndex:            -1,
		},
	}

	// map_filter(map, (k, v) -> bool): output is a slice of the input map
	c.functions["map_filter"] = quarry.FunctionMetadata{
		Name: "map_filter",
		Descriptor: quarry.ComplexTypeFunctionDescriptor{
			LambdaDescriptors:                   mapValueLambda(),
			ArgumentIndicesContainingMapOrArray: []int{0},
			PushdownSubfieldArgIndex:            -1,
		},
	}

	// map_values(map): output array elements are the map's values, same
	// wildcard dimension on both sides
	c.functions["map_values"] = quarry.FunctionMetadata{
		Name: "map_values",
		Descriptor: quarry.ComplexTypeFunctionDescriptor{
			ArgumentIndicesContainingMapOrArray: []int{0},
			PushdownSubfieldArgIndex:            -1,
		},
	}

	// map_keys and cardinality never read map or array values
	for _, name := range []string{"map_keys", "cardinality"} {
		c.functions[name] = quarry.FunctionMetadata{
			Name: name,
			Descriptor: quarry.ComplexTypeFunctionDescriptor{
				ArgumentIndicesContainingMapOrArray: []int{0},
				OutputToInputTransformation:         quarry.ClearRequiredSubfields,
				PushdownSubfieldArgIndex:            -1,
			},
		}
	}

	for _, name := range []string{"subscript", "element_at", "map_subset", "contains", "equals", "arbitrary"} {
		c.functions[name] = quarry.FunctionMetadata{
			Name:       name,
			Descriptor: quarry.DefaultFunctionDescriptor(),
		}
	}
}
