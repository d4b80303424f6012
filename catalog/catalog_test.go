package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-quarry/quarry"
	"github.com/go-quarry/quarry/errors"
	"github.com/go-quarry/quarry/schema"
)

func TestCatalogTableLookup(t *testing.T) {
	cat := CreateCatalog()
	cat.AddTable("orders",
		CreateColumn("id", &quarry.BigintType{}),
		CreateColumn("comment", &quarry.VarcharType{}),
	)

	table, err := cat.Table("orders")
	require.Nil(t, err)
	require.Equal(t, "orders", table.TableName())
	require.Len(t, table.Columns(), 2)

	col, ok := table.Column("comment")
	require.True(t, ok)
	require.Equal(t, "comment", col.Name())
	require.IsType(t, &quarry.VarcharType{}, col.Type())

	_, ok = table.Column("missing")
	require.False(t, ok)

	_, err = cat.Table("missing")
	require.IsType(t, errors.TableNotFoundError{}, err)
}

func TestCatalogAddTableFromSchema(t *testing.T) {
	tableSchema := schema.CreateSchema()
	tableSchema.CreateColumn("a", &quarry.BigintType{})
	tableSchema.CreateColumn("b", &quarry.VarcharType{})
	tableSchema.CreateColumn("c", &quarry.BooleanType{})

	cat := CreateCatalog()
	table, err := cat.AddTableFromSchema("t", tableSchema)
	require.Nil(t, err)

	// columns come out in schema index order
	columns := table.Columns()
	require.Len(t, columns, 3)
	require.Equal(t, "a", columns[0].Name())
	require.Equal(t, "b", columns[1].Name())
	require.Equal(t, "c", columns[2].Name())
}

func TestCatalogColumnMetadata(t *testing.T) {
	cat := CreateCatalog()
	table := cat.AddTable("t", CreateColumn("x", &quarry.BigintType{}))
	col, ok := table.Column("x")
	require.True(t, ok)

	session := &quarry.Session{}
	md, err := cat.ColumnMetadata(session, table, col)
	require.Nil(t, err)
	require.Equal(t, "x", md.Name)
	require.IsType(t, &quarry.BigintType{}, md.Type)

	_, err = cat.ColumnMetadata(session, table, CreateColumn("missing", &quarry.BigintType{}))
	require.IsType(t, errors.ColumnNotFoundError{}, err)

	_, err = cat.ColumnMetadata(session, &Table{name: "missing"}, col)
	require.IsType(t, errors.TableNotFoundError{}, err)
}

func TestColumnWithRequiredSubfields(t *testing.T) {
	col := CreateColumn("x", &quarry.BigintType{})
	require.Nil(t, col.RequiredSubfields())

	subfields := []quarry.Subfield{
		quarry.CreateSubfield("x", quarry.NestedField{Name: "a"}),
	}
	narrowed := col.WithRequiredSubfields(subfields)
	require.Equal(t, subfields, narrowed.RequiredSubfields())
	// the original handle is untouched
	require.Nil(t, col.RequiredSubfields())
}

func TestCatalogBuiltinDescriptors(t *testing.T) {
	cat := CreateCatalog()

	md, err := cat.FunctionMetadata(cat.Function("TRANSFORM"))
	require.Nil(t, err)
	require.Equal(t, "transform", md.Name)
	require.Len(t, md.Descriptor.LambdaDescriptors, 1)
	require.NotNil(t, md.Descriptor.OutputToInputTransformation)
	require.Equal(t, 0, md.Descriptor.OutputToInputTransformation(quarry.CreateSubfieldSet(
		quarry.CreateSubfield("x", quarry.NestedField{Name: "a"}),
	)).Len())

	md, err = cat.FunctionMetadata(cat.Function("filter"))
	require.Nil(t, err)
	require.Nil(t, md.Descriptor.OutputToInputTransformation)

	// unregistered functions resolve to the conservative default
	md, err = cat.FunctionMetadata(cat.Function("mystery_udf"))
	require.Nil(t, err)
	require.Equal(t, "mystery_udf", md.Name)
	require.True(t, md.Descriptor.AccessingInputValues)
	require.Empty(t, md.Descriptor.LambdaDescriptors)
}

func TestCatalogRegisterFunction(t *testing.T) {
	cat := CreateCatalog()
	descriptor := quarry.ComplexTypeFunctionDescriptor{
		PushdownSubfieldArgIndex: 0,
	}
	handle := cat.RegisterFunction("Passthrough", descriptor)
	require.Equal(t, "passthrough", handle.FunctionName())

	md, err := cat.FunctionMetadata(cat.Function("passthrough"))
	require.Nil(t, err)
	require.Equal(t, 0, md.Descriptor.PushdownSubfieldArgIndex)
}

func TestCatalogFunctionRecognizers(t *testing.T) {
	cat := CreateCatalog()
	require.True(t, cat.IsSubscriptFunction(cat.Function("SUBSCRIPT")))
	require.True(t, cat.IsElementAtFunction(cat.Function("element_at")))
	require.True(t, cat.IsMapSubsetFunction(cat.Function("map_subset")))
	require.True(t, cat.IsMapFilterFunction(cat.Function("map_filter")))
	require.True(t, cat.IsArrayContainsFunction(cat.Function("contains")))
	require.True(t, cat.IsEqualsFunction(cat.Function("equals")))
	require.False(t, cat.IsSubscriptFunction(cat.Function("element_at")))
}
