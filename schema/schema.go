// Package schema defines named, typed column layouts for tables
// registered in a catalog.
package schema

import (
	"fmt"
	"reflect"

	"github.com/go-quarry/quarry"
)

// Column describes one named, typed column of a Schema
type Column struct {
	idx     int
	colType quarry.Type
}

// Clone returns a copy of this Column
func (c *Column) Clone() *Column {
	return &Column{c.idx, c.colType}
}

// Index returns the index of this Column within a Schema
func (c *Column) Index() int {
	return c.idx
}

// Type returns the type of this Column
func (c *Column) Type() quarry.Type {
	return c.colType
}

// Schema is a mapping from column names to column definitions. It allows
// one to obtain column types by name, define new columns, rename columns,
// etc.
type Schema struct {
	schema map[string]*Column
}

// CreateSchema is a factory for Schemas
func CreateSchema() *Schema {
	return &Schema{
		schema: make(map[string]*Column),
	}
}

// Equals returns nil iff this and another Schema are equivalent
func (s *Schema) Equals(otherSchema *Schema) error {
	if s.NumColumns() != otherSchema.NumColumns() {
		return fmt.Errorf("Schemas have unequal numbers of columns")
	}
	return s.ForEachColumn(func(name string, col *Column) error {
		otherCol, err := otherSchema.GetColumn(name)
		if err != nil {
			return err
		}
		if col.Index() != otherCol.Index() {
			return fmt.Errorf("Column %s indices do not match", name)
		}
		if reflect.TypeOf(col.Type()) != reflect.TypeOf(otherCol.Type()) {
			return fmt.Errorf("Column %s types do not match", name)
		}
		if col.Type().String() != otherCol.Type().String() {
			return fmt.Errorf("Column %s type fields do not match", name)
		}
		return nil
	})
}

// Clone returns a copy of this Schema
func (s *Schema) Clone() *Schema {
	newSchema := make(map[string]*Column)
	for k, v := range s.schema {
		newSchema[k] = v.Clone()
	}
	return &Schema{schema: newSchema}
}

// NumColumns returns the number of columns in this Schema
func (s *Schema) NumColumns() int {
	return len(s.schema)
}

// GetColumn returns the definition of a particular column by name
func (s *Schema) GetColumn(colName string) (col *Column, err error) {
	col, ok := s.schema[colName]
	if !ok {
		err = fmt.Errorf("Schema does not contain column with name %s", colName)
	}
	return
}

// HasColumn returns true iff this schema contains a column with the given name
func (s *Schema) HasColumn(colName string) bool {
	_, err := s.GetColumn(colName)
	return err == nil
}

// CreateColumn defines a new column within the Schema
func (s *Schema) CreateColumn(colName string, columnType quarry.Type) (newSchema *Schema, err error) {
	_, containsColumn := s.schema[colName]
	if containsColumn {
		err = fmt.Errorf("Schema already contains column with name %s", colName)
	} else {
		s.schema[colName] = &Column{len(s.schema), columnType}
		newSchema = s
	}
	return
}

// RenameColumn renames a column within the Schema
func (s *Schema) RenameColumn(oldName string, newName string) (newSchema *Schema, err error) {
	if _, exists := s.schema[newName]; exists {
		return nil, fmt.Errorf("Schema already contains column with name %s", newName)
	}
	_, err = s.GetColumn(oldName)
	if err == nil {
		s.schema[newName] = s.schema[oldName]
		delete(s.schema, oldName)
		newSchema = s
	}
	return
}

// RemoveColumn removes a column from the Schema, shifting the indices of
// later columns down to fill the gap
func (s *Schema) RemoveColumn(colName string) (*Schema, bool) {
	col, exists := s.schema[colName]
	if !exists {
		return s, false
	}
	delete(s.schema, colName)
	for _, v := range s.schema {
		if v.idx > col.idx {
			v.idx--
		}
	}
	return s, true
}

// ColumnNames returns the names in the schema, in index order
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.schema))
	for k, v := range s.schema {
		names[v.Index()] = k
	}
	return names
}

// ColumnTypes returns the types in the schema, in index order
func (s *Schema) ColumnTypes() []quarry.Type {
	types := make([]quarry.Type, len(s.schema))
	for _, v := range s.schema {
		types[v.Index()] = v.Type()
	}
	return types
}

// ForEachColumn iterates over the columns in this Schema. Does not necessarily iterate in order of column index.
func (s *Schema) ForEachColumn(fn func(name string, col *Column) error) error {
	for k, v := range s.schema {
		err := fn(k, v)
		if err != nil {
			return err
		}
	}
	return nil
}
