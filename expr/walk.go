package expr

// Children returns the direct child expressions of an Expression. Leaf
// variants (variables, constants) have none.
func Children(expression Expression) []Expression {
	switch e := expression.(type) {
	case *Call:
		return e.Arguments
	case *SpecialForm:
		return e.Arguments
	case *Lambda:
		return []Expression{e.Body}
	default:
		return nil
	}
}

// Walk invokes fn on an Expression and, if fn returns true, recursively
// on all of its children in argument order.
func Walk(expression Expression, fn func(Expression) bool) {
	if !fn(expression) {
		return
	}
	for _, child := range Children(expression) {
		Walk(child, fn)
	}
}

// Variables returns every Variable referenced anywhere within an
// Expression, including inside lambda bodies
func Variables(expression Expression) []*Variable {
	var res []*Variable
	Walk(expression, func(e Expression) bool {
		if v, ok := e.(*Variable); ok {
			res = append(res, v)
		}
		return true
	})
	return res
}
