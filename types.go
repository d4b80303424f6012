package quarry

import (
	"fmt"
	"strings"
)

// A Type describes the SQL type of a column, variable or expression value.
// Composite types (arrays, maps, rows) nest other Types.
type Type interface {
	fmt.Stringer
}

// BooleanType is a Type for boolean values
type BooleanType struct{}

// String returns a textual representation of this Type
func (t *BooleanType) String() string { return "boolean" }

// BigintType is a Type for 64-bit integer values
type BigintType struct{}

// String returns a textual representation of this Type
func (t *BigintType) String() string { return "bigint" }

// DoubleType is a Type for 64-bit floating point values
type DoubleType struct{}

// String returns a textual representation of this Type
func (t *DoubleType) String() string { return "double" }

// VarcharType is a Type for variable-length string values
type VarcharType struct{}

// String returns a textual representation of this Type
func (t *VarcharType) String() string { return "varchar" }

// ArrayType is a Type for arrays with a fixed element Type
type ArrayType struct {
	Element Type
}

// String returns a textual representation of this Type
func (t *ArrayType) String() string {
	return fmt.Sprintf("array(%s)", t.Element)
}

// MapType is a Type for maps with fixed key and value Types
type MapType struct {
	Key   Type
	Value Type
}

// String returns a textual representation of this Type
func (t *MapType) String() string {
	return fmt.Sprintf("map(%s, %s)", t.Key, t.Value)
}

// RowField is a single, optionally named field of a RowType
type RowField struct {
	Name string // empty for anonymous fields
	Type Type
}

// RowType is a Type for struct values with ordered, optionally named
// fields
type RowType struct {
	Fields []RowField
}

// FieldName returns the name of the field at the given ordinal, or false
// if the ordinal is out of range or the field is anonymous
func (t *RowType) FieldName(idx int) (string, bool) {
	if idx < 0 || idx >= len(t.Fields) || t.Fields[idx].Name == "" {
		return "", false
	}
	return t.Fields[idx].Name, true
}

// String returns a textual representation of this Type
func (t *RowType) String() string {
	var res strings.Builder
	res.WriteString("row(")
	for i, field := range t.Fields {
		if i > 0 {
			res.WriteString(", ")
		}
		if field.Name != "" {
			res.WriteString(field.Name)
			res.WriteString(" ")
		}
		res.WriteString(field.Type.String())
	}
	res.WriteString(")")
	return res.String()
}

// IsVarcharType returns true iff the given Type is a VarcharType
func IsVarcharType(t Type) bool {
	_, ok := t.(*VarcharType)
	return ok
}

// IsRowType returns true iff the given Type is a RowType
func IsRowType(t Type) bool {
	_, ok := t.(*RowType)
	return ok
}

// IsArrayOfRowType returns true iff the given Type is an array whose
// elements are rows
func IsArrayOfRowType(t Type) bool {
	arr, ok := t.(*ArrayType)
	return ok && IsRowType(arr.Element)
}

// IsMapOrArrayOfRowType returns true iff the given Type is an array of
// rows or a map with row-typed values
func IsMapOrArrayOfRowType(t Type) bool {
	if IsArrayOfRowType(t) {
		return true
	}
	m, ok := t.(*MapType)
	return ok && IsRowType(m.Value)
}
