// Package expr defines the scalar expression IR consumed by optimizer
// passes, along with traversal helpers and the constant-folding service
// interface.
package expr

import (
	"fmt"
	"strings"

	"github.com/go-quarry/quarry"
)

// An Expression is a node in a scalar expression tree. The concrete
// variants are *Variable, *Constant, *Call, *Lambda and *SpecialForm.
type Expression interface {
	fmt.Stringer
	// Type returns the value Type of this Expression
	Type() quarry.Type
}

// A Variable is a reference to a named variable produced by a plan node
type Variable struct {
	Name      string
	ValueType quarry.Type
}

// Type returns the value Type of this Expression
func (v *Variable) Type() quarry.Type { return v.ValueType }

// String returns a textual representation of this Variable
func (v *Variable) String() string { return v.Name }

// A Constant is a literal value. Integer values are held as int64, string
// values as string, boolean values as bool and array values as []any; a
// nil Value represents SQL NULL.
type Constant struct {
	Value     any
	ValueType quarry.Type
}

// Type returns the value Type of this Expression
func (c *Constant) Type() quarry.Type { return c.ValueType }

// String returns a textual representation of this Constant
func (c *Constant) String() string { return fmt.Sprintf("%v", c.Value) }

// A Call is an invocation of a resolved function
type Call struct {
	Function  quarry.FunctionHandle
	Arguments []Expression
	ValueType quarry.Type
}

// Type returns the value Type of this Expression
func (c *Call) Type() quarry.Type { return c.ValueType }

// String returns a textual representation of this Call
func (c *Call) String() string {
	args := make([]string, len(c.Arguments))
	for i, arg := range c.Arguments {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", c.Function.FunctionName(), strings.Join(args, ", "))
}

// A Lambda is an inline function value passed to a higher-order function.
// Parameter names are scoped to the Body.
type Lambda struct {
	Parameters     []string
	ParameterTypes []quarry.Type
	Body           Expression
}

// Type returns the value Type of this Expression
func (l *Lambda) Type() quarry.Type { return l.Body.Type() }

// String returns a textual representation of this Lambda
func (l *Lambda) String() string {
	return fmt.Sprintf("(%s) -> %s", strings.Join(l.Parameters, ", "), l.Body)
}

// Form identifies the operator of a SpecialForm expression
type Form int

const (
	// Dereference is struct field access: arguments are the base
	// expression and a constant field ordinal
	Dereference Form = iota
	// In is membership in an enumerated value list
	In
	// IsNull is a null check on a single argument
	IsNull
	// And is boolean conjunction
	And
	// Or is boolean disjunction
	Or
	// Coalesce returns the first non-null argument
	Coalesce
	// Switch is a searched CASE expression
	Switch
)

var formNames = map[Form]string{
	Dereference: "DEREFERENCE",
	In:          "IN",
	IsNull:      "IS_NULL",
	And:         "AND",
	Or:          "OR",
	Coalesce:    "COALESCE",
	Switch:      "SWITCH",
}

// String returns a textual representation of this Form
func (f Form) String() string { return formNames[f] }

// A SpecialForm is a syntactic operator which is not a regular function
// call (field dereference, IN lists, null checks, boolean connectives)
type SpecialForm struct {
	Form      Form
	Arguments []Expression
	ValueType quarry.Type
}

// Type returns the value Type of this Expression
func (s *SpecialForm) Type() quarry.Type { return s.ValueType }

// String returns a textual representation of this SpecialForm
func (s *SpecialForm) String() string {
	args := make([]string, len(s.Arguments))
	for i, arg := range s.Arguments {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", s.Form, strings.Join(args, ", "))
}
