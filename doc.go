// Package quarry contains the shared value types and service interfaces
// for the quarry columnar query engine: subfield access paths, the SQL
// type model, table/column/function handles and the session configuration
// consulted by optimizer passes. Concrete algorithms live in the
// subpackages: expression and plan IRs in expr and plan, the subfield
// pushdown pass in optimizer, and distributed stage execution tracking in
// execution.
package quarry
