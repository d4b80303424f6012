package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-quarry/quarry"
)

func TestSchemaEquality(t *testing.T) {
	schema1 := CreateSchema()
	schema1.CreateColumn("a", &quarry.BigintType{})
	schema1.CreateColumn("b", &quarry.VarcharType{})

	schema2 := CreateSchema()
	schema2.CreateColumn("a", &quarry.BigintType{})
	schema2.CreateColumn("b", &quarry.VarcharType{})

	require.Nil(t, schema1.Equals(schema2))
	require.Nil(t, schema2.Equals(schema1))
	require.Nil(t, schema1.Equals(schema1.Clone()))
}

func TestSchemaInequality(t *testing.T) {
	schema1 := CreateSchema()
	schema1.CreateColumn("a", &quarry.BigintType{})

	// different name
	schema2 := CreateSchema()
	schema2.CreateColumn("b", &quarry.BigintType{})
	require.NotNil(t, schema1.Equals(schema2))

	// different type
	schema3 := CreateSchema()
	schema3.CreateColumn("a", &quarry.VarcharType{})
	require.NotNil(t, schema1.Equals(schema3))

	// different number of columns
	schema4 := CreateSchema()
	schema4.CreateColumn("a", &quarry.BigintType{})
	schema4.CreateColumn("b", &quarry.BigintType{})
	require.NotNil(t, schema1.Equals(schema4))

	// different column order
	schema5 := CreateSchema()
	schema5.CreateColumn("b", &quarry.VarcharType{})
	schema5.CreateColumn("a", &quarry.BigintType{})
	schema6 := CreateSchema()
	schema6.CreateColumn("a", &quarry.BigintType{})
	schema6.CreateColumn("b", &quarry.VarcharType{})
	require.NotNil(t, schema5.Equals(schema6))
}

func TestSchemaEqualityNestedTypes(t *testing.T) {
	rowOf := func() quarry.Type {
		return &quarry.RowType{Fields: []quarry.RowField{{Name: "x", Type: &quarry.BigintType{}}}}
	}
	schema1 := CreateSchema()
	schema1.CreateColumn("r", &quarry.ArrayType{Element: rowOf()})
	schema2 := CreateSchema()
	schema2.CreateColumn("r", &quarry.ArrayType{Element: rowOf()})
	require.Nil(t, schema1.Equals(schema2))

	schema3 := CreateSchema()
	schema3.CreateColumn("r", &quarry.ArrayType{Element: &quarry.BigintType{}})
	require.NotNil(t, schema1.Equals(schema3))
}

func TestSchemaCreateColumn(t *testing.T) {
	schema := CreateSchema()
	_, err := schema.CreateColumn("a", &quarry.BigintType{})
	require.Nil(t, err)
	_, err = schema.CreateColumn("a", &quarry.VarcharType{})
	require.NotNil(t, err)

	require.True(t, schema.HasColumn("a"))
	require.False(t, schema.HasColumn("b"))

	col, err := schema.GetColumn("a")
	require.Nil(t, err)
	require.Equal(t, 0, col.Index())
	require.IsType(t, &quarry.BigintType{}, col.Type())
}

func TestSchemaRenameColumn(t *testing.T) {
	schema := CreateSchema()
	schema.CreateColumn("a", &quarry.BigintType{})
	schema.CreateColumn("b", &quarry.VarcharType{})

	_, err := schema.RenameColumn("a", "b")
	require.NotNil(t, err)
	_, err = schema.RenameColumn("c", "d")
	require.NotNil(t, err)

	_, err = schema.RenameColumn("a", "z")
	require.Nil(t, err)
	require.False(t, schema.HasColumn("a"))
	col, err := schema.GetColumn("z")
	require.Nil(t, err)
	require.Equal(t, 0, col.Index())
}

func TestSchemaRemoveColumn(t *testing.T) {
	schema := CreateSchema()
	schema.CreateColumn("a", &quarry.BigintType{})
	schema.CreateColumn("b", &quarry.VarcharType{})
	schema.CreateColumn("c", &quarry.BigintType{})

	_, removed := schema.RemoveColumn("missing")
	require.False(t, removed)

	_, removed = schema.RemoveColumn("b")
	require.True(t, removed)
	require.Equal(t, 2, schema.NumColumns())

	// later indices shift down to fill the gap
	colA, err := schema.GetColumn("a")
	require.Nil(t, err)
	require.Equal(t, 0, colA.Index())
	colC, err := schema.GetColumn("c")
	require.Nil(t, err)
	require.Equal(t, 1, colC.Index())
}

func TestSchemaColumnOrder(t *testing.T) {
	schema := CreateSchema()
	schema.CreateColumn("c", &quarry.BigintType{})
	schema.CreateColumn("a", &quarry.VarcharType{})
	schema.CreateColumn("b", &quarry.BooleanType{})

	require.Equal(t, []string{"c", "a", "b"}, schema.ColumnNames())
	types := schema.ColumnTypes()
	require.Len(t, types, 3)
	require.IsType(t, &quarry.BigintType{}, types[0])
	require.IsType(t, &quarry.VarcharType{}, types[1])
	require.IsType(t, &quarry.BooleanType{}, types[2])
}

func TestSchemaCloneIsIndependent(t *testing.T) {
	schema := CreateSchema()
	schema.CreateColumn("a", &quarry.BigintType{})

	clone := schema.Clone()
	clone.CreateColumn("b", &quarry.VarcharType{})

	require.Equal(t, 1, schema.NumColumns())
	require.Equal(t, 2, clone.NumColumns())
}
