package errors

import (
	"fmt"
)

// MissingVariableError occurs when a plan node output variable is never
// referenced anywhere downstream, which violates the planner contract
// that every produced column is consumed
type MissingVariableError struct{ Variable string }

// Error returns a textual representation of this MissingVariableError
func (e MissingVariableError) Error() string {
	return fmt.Sprintf("Missing variable: %s", e.Variable)
}

// TableNotFoundError occurs when a table handle does not resolve within
// the catalog
type TableNotFoundError struct{ Table string }

// Error returns a textual representation of this TableNotFoundError
func (e TableNotFoundError) Error() string {
	return fmt.Sprintf("Table %s does not exist", e.Table)
}

// ColumnNotFoundError occurs when a column handle does not resolve within
// its table's schema
type ColumnNotFoundError struct {
	Table  string
	Column string
}

// Error returns a textual representation of this ColumnNotFoundError
func (e ColumnNotFoundError) Error() string {
	return fmt.Sprintf("Column %s does not exist in table %s", e.Column, e.Table)
}

// InvalidTaskStatusError occurs when a worker task status payload cannot
// be decoded
type InvalidTaskStatusError struct{ Reason string }

// Error returns a textual representation of this InvalidTaskStatusError
func (e InvalidTaskStatusError) Error() string {
	return fmt.Sprintf("Invalid task status payload: %s", e.Reason)
}
