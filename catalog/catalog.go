// Package catalog provides an in-memory implementation of the metadata
// services consumed by optimizer passes: table and column resolution, and
// a registry of function descriptors for builtin and custom functions.
package catalog

import (
	"strings"
	"sync"

	"github.com/go-quarry/quarry"
	"github.com/go-quarry/quarry/errors"
	"github.com/go-quarry/quarry/schema"
)

// A Table is a TableHandle backed by the in-memory catalog
type Table struct {
	name    string
	columns []*Column
}

// TableName returns the name of the table
func (t *Table) TableName() string { return t.name }

// Columns returns the columns of the table in definition order
func (t *Table) Columns() []*Column { return t.columns }

// Column looks up a column of the table by name
func (t *Table) Column(name string) (*Column, bool) {
	for _, column := range t.columns {
		if column.name == name {
			return column, true
		}
	}
	return nil, false
}

// A Column is a ColumnHandle backed by the in-memory catalog, optionally
// narrowed to a set of required subfields
type Column struct {
	name              string
	columnType        quarry.Type
	requiredSubfields []quarry.Subfield
}

// CreateColumn is a factory for Columns
func CreateColumn(name string, columnType quarry.Type) *Column {
	return &Column{name: name, columnType: columnType}
}

// Name returns the name of the column
func (c *Column) Name() string { return c.name }

// Type returns the type of the column
func (c *Column) Type() quarry.Type { return c.columnType }

// WithRequiredSubfields returns a copy of this handle narrowed to the
// given subfields
func (c *Column) WithRequiredSubfields(subfields []quarry.Subfield) quarry.ColumnHandle {
	return &Column{name: c.name, columnType: c.columnType, requiredSubfields: subfields}
}

// RequiredSubfields returns the subfields this handle is narrowed to, or
// nil when the full column is requested
func (c *Column) RequiredSubfields() []quarry.Subfield { return c.requiredSubfields }

// A Function is a FunctionHandle backed by the in-memory catalog
type Function struct {
	name string
}

// FunctionName returns the name of the function
func (f *Function) FunctionName() string { return f.name }

// Catalog is an in-memory registry of tables and functions. It implements
// quarry.Metadata and quarry.FunctionResolution. Safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	tables    map[string]*Table
	functions map[string]quarry.FunctionMetadata
}

// CreateCatalog is a factory for Catalogs, pre-populated with the builtin
// function descriptors
func CreateCatalog() *Catalog {
	c := &Catalog{
		tables:    make(map[string]*Table),
		functions: make(map[string]quarry.FunctionMetadata),
	}
	c.registerBuiltins()
	return c
}

// AddTable registers a table with the given columns, replacing any
// existing table of the same name. It returns the new Table's handle.
func (c *Catalog) AddTable(name string, columns ...*Column) *Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	table := &Table{name: name, columns: columns}
	c.tables[name] = table
	return table
}

// AddTableFromSchema registers a table whose columns are taken from a
// Schema in index order
func (c *Catalog) AddTableFromSchema(name string, tableSchema *schema.Schema) (*Table, error) {
	names := tableSchema.ColumnNames()
	columns := make([]*Column, len(names))
	for i, columnName := range names {
		col, err := tableSchema.GetColumn(columnName)
		if err != nil {
			return nil, err
		}
		columns[i] = CreateColumn(columnName, col.Type())
	}
	return c.AddTable(name, columns...), nil
}

// Table looks up a table by name
func (c *Catalog) Table(name string) (*Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	table, ok := c.tables[name]
	if !ok {
		return nil, errors.TableNotFoundError{Table: name}
	}
	return table, nil
}

// RegisterFunction registers a function under the given name with the
// given complex-type descriptor, replacing any existing registration
func (c *Catalog) RegisterFunction(name string, descriptor quarry.ComplexTypeFunctionDescriptor) *Function {
	c.mu.Lock()
	defer c.mu.Unlock()
	name = strings.ToLower(name)
	c.functions[name] = quarry.FunctionMetadata{Name: name, Descriptor: descriptor}
	return &Function{name: name}
}

// Function returns a handle for the named function. The function does not
// need to be registered; unregistered functions resolve to the
// conservative default descriptor.
func (c *Catalog) Function(name string) *Function {
	return &Function{name: strings.ToLower(name)}
}

// ColumnMetadata resolves the metadata for a column of a table
func (c *Catalog) ColumnMetadata(session *quarry.Session, table quarry.TableHandle, column quarry.ColumnHandle) (quarry.ColumnMetadata, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	registered, ok := c.tables[table.TableName()]
	if !ok {
		return quarry.ColumnMetadata{}, errors.TableNotFoundError{Table: table.TableName()}
	}
	handle, ok := column.(*Column)
	if !ok {
		return quarry.ColumnMetadata{}, errors.ColumnNotFoundError{Table: table.TableName()}
	}
	if _, ok := registered.Column(handle.name); !ok {
		return quarry.ColumnMetadata{}, errors.ColumnNotFoundError{Table: table.TableName(), Column: handle.name}
	}
	return quarry.ColumnMetadata{Name: handle.name, Type: handle.columnType}, nil
}

// FunctionMetadata resolves the metadata for a function. Unregistered
// functions get the conservative default descriptor.
func (c *Catalog) FunctionMetadata(handle quarry.FunctionHandle) (quarry.FunctionMetadata, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	md, ok := c.functions[strings.ToLower(handle.FunctionName())]
	if !ok {
		return quarry.FunctionMetadata{
			Name:       strings.ToLower(handle.FunctionName()),
			Descriptor: quarry.DefaultFunctionDescriptor(),
		}, nil
	}
	return md, nil
}

// IsSubscriptFunction reports whether the handle names the subscript
// operator
func (c *Catalog) IsSubscriptFunction(handle quarry.FunctionHandle) bool {
	return strings.EqualFold(handle.FunctionName(), "subscript")
}

// IsElementAtFunction reports whether the handle names element_at
func (c *Catalog) IsElementAtFunction(handle quarry.FunctionHandle) bool {
	return strings.EqualFold(handle.FunctionName(), "element_at")
}

// IsMapSubsetFunction reports whether the handle names map_subset
func (c *Catalog) IsMapSubsetFunction(handle quarry.FunctionHandle) bool {
	return strings.EqualFold(handle.FunctionName(), "map_subset")
}

// IsMapFilterFunction reports whether the handle names map_filter
func (c *Catalog) IsMapFilterFunction(handle quarry.FunctionHandle) bool {
	return strings.EqualFold(handle.FunctionName(), "map_filter")
}

// IsArrayContainsFunction reports whether the handle names contains
func (c *Catalog) IsArrayContainsFunction(handle quarry.FunctionHandle) bool {
	return strings.EqualFold(handle.FunctionName(), "contains")
}

// IsEqualsFunction reports whether the handle names the equality operator
func (c *Catalog) IsEqualsFunction(handle quarry.FunctionHandle) bool {
	return strings.EqualFold(handle.FunctionName(), "equals")
}
