package quarry

// A FunctionHandle identifies a resolved function. Handles are opaque to
// the optimizer; metadata is resolved through Metadata and recognition of
// well-known functions through FunctionResolution.
type FunctionHandle interface {
	FunctionName() string
}

// FunctionMetadata describes a resolved function
type FunctionMetadata struct {
	Name       string
	Descriptor ComplexTypeFunctionDescriptor
}

// A SubfieldTransformation rewrites a set of subfields expressed against
// one value (e.g. a lambda parameter, or a function's output) into the
// equivalent subfields of another value (e.g. the function's input).
type SubfieldTransformation func(subfields *SubfieldSet) *SubfieldSet

// A LambdaArgumentDescriptor maps one lambda parameter back to the call
// argument it ranges over, together with the transformation which
// re-roots subfields of the parameter as subfields of that argument.
type LambdaArgumentDescriptor struct {
	CallArgumentIndex int
	Transformation    SubfieldTransformation
}

// A LambdaDescriptor describes one lambda-typed argument of a function:
// its position in the call, and a descriptor per lambda parameter, keyed
// by the parameter's ordinal within the lambda.
type LambdaDescriptor struct {
	CallArgumentIndex         int
	LambdaArgumentDescriptors map[int]LambdaArgumentDescriptor
}

// A ComplexTypeFunctionDescriptor describes how a function interacts with
// the contents of its complex-typed arguments, for the benefit of
// subfield pruning.
type ComplexTypeFunctionDescriptor struct {
	// AccessingInputValues is true when the function may read the
	// contents of its input values internally. Combined with an empty
	// LambdaDescriptors it forbids any lambda-based pruning for the
	// call's arguments.
	AccessingInputValues bool
	LambdaDescriptors    []LambdaDescriptor
	// ArgumentIndicesContainingMapOrArray lists the call arguments the
	// collected lambda subfields relate to. nil means unspecified, in
	// which case the optimizer infers them from argument types; an empty
	// non-nil slice means none.
	ArgumentIndicesContainingMapOrArray []int
	// OutputToInputTransformation, when non-nil, rewrites subfields
	// expressed against the function's output into subfields of its
	// input (e.g. map_values strips the key dimension).
	OutputToInputTransformation SubfieldTransformation
	// PushdownSubfieldArgIndex, when non-negative, names a call argument
	// the function passes through unchanged for the purposes of subfield
	// chain-walking (e.g. a cast that preserves row layout).
	PushdownSubfieldArgIndex int
}

// ClearRequiredSubfields discards all subfields: used as the
// output-to-input transformation of functions whose output values are not
// slices of their input (e.g. produced by a lambda), so subfields of the
// output say nothing about the input.
func ClearRequiredSubfields(subfields *SubfieldSet) *SubfieldSet {
	return CreateSubfieldSet()
}

// PrependAllSubscripts re-expresses subfields of an element or value as
// subfields of the containing array or map, by prefixing each path with a
// wildcard subscript.
func PrependAllSubscripts(subfields *SubfieldSet) *SubfieldSet {
	res := CreateSubfieldSet()
	subfields.Each(func(subfield Subfield) {
		path := make([]PathElement, 0, len(subfield.Path())+1)
		path = append(path, AllSubscripts{})
		path = append(path, subfield.Path()...)
		res.Add(CreateSubfield(subfield.RootName(), path...))
	})
	return res
}

// DefaultFunctionDescriptor returns the conservative descriptor assumed
// for functions with no explicit annotation: the function may access all
// of its input values and supports no pruning.
func DefaultFunctionDescriptor() ComplexTypeFunctionDescriptor {
	return ComplexTypeFunctionDescriptor{
		AccessingInputValues:     true,
		PushdownSubfieldArgIndex: -1,
	}
}

// FunctionResolution recognizes well-known builtin functions by handle
type FunctionResolution interface {
	IsSubscriptFunction(handle FunctionHandle) bool
	IsElementAtFunction(handle FunctionHandle) bool
	IsMapSubsetFunction(handle FunctionHandle) bool
	IsMapFilterFunction(handle FunctionHandle) bool
	IsArrayContainsFunction(handle FunctionHandle) bool
	IsEqualsFunction(handle FunctionHandle) bool
}
