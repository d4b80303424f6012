package expr

// Level controls how aggressively an Optimizer simplifies an expression
type Level int

const (
	// Basic applies only transformations which are always safe
	Basic Level = iota
	// Optimized additionally folds deterministic calls over constants
	Optimized
)

// An Optimizer simplifies expressions, in particular folding constant
// sub-expressions to literals. It is an opaque external service from the
// optimizer pass's point of view.
type Optimizer interface {
	Optimize(expression Expression, level Level) Expression
}

type noopOptimizer struct{}

// CreateNoopOptimizer returns an Optimizer which performs no
// simplification. Callers relying on constant folding of already-literal
// keys still work, since literals fold to themselves.
func CreateNoopOptimizer() Optimizer {
	return &noopOptimizer{}
}

func (o *noopOptimizer) Optimize(expression Expression, level Level) Expression {
	return expression
}
