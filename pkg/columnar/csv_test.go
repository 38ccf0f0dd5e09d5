package columnar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

func TestReadCSVUnifiesColumns(t *testing.T) {
	in := "id,amount,tag\n1,2,x\n2,2.5,3\n3,,y\n"

	tbl, err := ReadCSV(strings.NewReader(in), CSVOptions{HasHeader: true, NullValues: []string{""}, IndexColumn: "id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"amount", "tag"}, tbl.ColumnNames())
	assert.Equal(t, Field{Name: "id", Kind: value.KindI64}, tbl.IndexField())

	amount, ok := tbl.Column("amount")
	require.True(t, ok)
	assert.Equal(t, value.KindF64, amount.Kind())
	assert.Equal(t, []value.Value{value.F64(2), value.F64(2.5), value.Null{}}, amount.Values())

	tag, ok := tbl.Column("tag")
	require.True(t, ok)
	assert.Equal(t, value.KindString, tag.Kind())
	assert.Equal(t, []value.Value{value.String("x"), value.String("3"), value.String("y")}, tag.Values())
}

func TestReadCSVOptions(t *testing.T) {
	in := "a; 1 ;n/a\nb; 2 ;z\n"
	tbl, err := ReadCSV(strings.NewReader(in), CSVOptions{
		Comma:      ';',
		NullValues: []string{"n/a"},
		TrimSpaces: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"column_0", "column_1", "column_2"}, tbl.ColumnNames())
	assert.Equal(t, DefaultIndexName, tbl.Index().Name())
	assert.Equal(t, 2, tbl.Height())

	nums, _ := tbl.Column("column_1")
	assert.Equal(t, []value.Value{value.I64(1), value.I64(2)}, nums.Values())
	last, _ := tbl.Column("column_2")
	assert.Equal(t, []value.Value{value.Null{}, value.String("z")}, last.Values())
}

func TestReadCSVUnknownIndexColumn(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("x,y\n1,2\n"), CSVOptions{HasHeader: true, IndexColumn: "id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, tbl.ColumnNames())
	assert.Equal(t, DefaultIndexName, tbl.Index().Name())
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), CSVOptions{})
	assert.True(t, tabulaerrors.IsType(err, tabulaerrors.ErrorTypeEmptyInput))

	_, err = ReadCSV(strings.NewReader("only,header\n"), CSVOptions{HasHeader: true})
	assert.True(t, tabulaerrors.IsType(err, tabulaerrors.ErrorTypeEmptyInput))

	_, err = ReadCSV(strings.NewReader("\"unterminated\n"), CSVOptions{})
	assert.True(t, tabulaerrors.IsType(err, tabulaerrors.ErrorTypeValidation))
}
