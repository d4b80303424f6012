package optimizer

import (
	"github.com/go-quarry/quarry"
	"github.com/go-quarry/quarry/errors"
	"github.com/go-quarry/quarry/expr"
)

// allSubfieldsOfElement returns the sentinel lambda working set meaning
// "every subfield of the current array element or map value may be
// accessed". Its trailing wildcard makes pruning impossible until a more
// precise set replaces it.
func allSubfieldsOfElement() *quarry.SubfieldSet {
	return quarry.CreateSubfieldSet(quarry.CreateSubfield("", quarry.AllSubscripts{}))
}

// rewriteContext is the mutable accumulator threaded through one plan
// traversal. It is owned by a single Optimize call and never shared
// between concurrent rewrites.
type rewriteContext struct {
	// variables whose full value is required downstream, keyed by name.
	// A variable recorded here dominates any subfield recorded for it.
	variables map[string]struct{}
	// subfields partially accessed downstream
	subfields *quarry.SubfieldSet
	// lambdaSubfields is the working set of subfields accessed inside
	// the currently-open lambda scope, restored around lambda boundaries
	// so sibling lambdas do not leak into each other
	lambdaSubfields *quarry.SubfieldSet
}

func newRewriteContext() *rewriteContext {
	return &rewriteContext{
		variables:       make(map[string]struct{}),
		subfields:       quarry.CreateSubfieldSet(),
		lambdaSubfields: allSubfieldsOfElement(),
	}
}

func (c *rewriteContext) requireVariable(variable *expr.Variable) {
	c.variables[variable.Name] = struct{}{}
}

func (c *rewriteContext) requireVariables(variables []*expr.Variable) {
	for _, variable := range variables {
		c.requireVariable(variable)
	}
}

func (c *rewriteContext) isVariableRequired(name string) bool {
	_, ok := c.variables[name]
	return ok
}

func (c *rewriteContext) findSubfields(root string) []quarry.Subfield {
	return c.subfields.FindByRoot(root)
}

// addVariableAssignment records that output is a pass-through alias of
// input, propagating output's requirements backward onto input.
func (c *rewriteContext) addVariableAssignment(output, input *expr.Variable) error {
	if c.isVariableRequired(output.Name) {
		c.requireVariable(input)
		return nil
	}
	matching := c.findSubfields(output.Name)
	if len(matching) == 0 {
		return errors.MissingVariableError{Variable: output.Name}
	}
	for _, subfield := range matching {
		c.subfields.Add(quarry.CreateSubfield(input.Name, subfield.Path()...))
	}
	return nil
}

// addSubfieldAssignment records that output is computed as a subfield of
// some input column, re-rooting output's requirements onto that subfield.
func (c *rewriteContext) addSubfieldAssignment(output *expr.Variable, subfield quarry.Subfield) error {
	if c.isVariableRequired(output.Name) {
		c.subfields.Add(subfield)
		return nil
	}
	matching := c.findSubfields(output.Name)
	if len(matching) == 0 {
		return errors.MissingVariableError{Variable: output.Name}
	}
	for _, m := range matching {
		path := make([]quarry.PathElement, 0, len(subfield.Path())+len(m.Path()))
		path = append(path, subfield.Path()...)
		path = append(path, m.Path()...)
		c.subfields.Add(quarry.CreateSubfield(subfield.RootName(), path...))
	}
	return nil
}

func (c *rewriteContext) setLambdaSubfields(subfields *quarry.SubfieldSet) {
	c.lambdaSubfields = subfields
}

// giveUpOnCollectingLambdaSubfields resets the working set to the
// wildcard sentinel, abandoning pruning for the enclosing call
func (c *rewriteContext) giveUpOnCollectingLambdaSubfields() {
	c.setLambdaSubfields(allSubfieldsOfElement())
}

// isPruningLambdaSubfieldsPossible reports whether the working set is
// precise enough to substitute for full access: non-empty, with no entry
// ending in an unresolved wildcard.
func (c *rewriteContext) isPruningLambdaSubfieldsPossible() bool {
	if c.lambdaSubfields.Len() == 0 {
		return false
	}
	possible := true
	c.lambdaSubfields.Each(func(subfield quarry.Subfield) {
		if subfield.LastPathElement() == (quarry.AllSubscripts{}) {
			possible = false
		}
	})
	return possible
}
