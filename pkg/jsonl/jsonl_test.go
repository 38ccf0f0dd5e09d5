package jsonl

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/value"
)

func TestWrite(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.Write(map[string]int{"a": 1}))
	require.NoError(t, w.Write([]string{"<b>"}))
	assert.Equal(t, "{\"a\":1}\n[\"<b>\"]\n", out.String())
}

func TestWriteTable(t *testing.T) {
	rows := []columnar.Row{
		columnar.NewRow(value.I32(1), value.String("ann"), value.F64(1.5)),
		columnar.NewRow(value.I32(2), value.String("bob"), value.Null{}),
	}
	tbl, err := columnar.FromRows(rows)
	require.NoError(t, err)
	require.NoError(t, tbl.SetColumnNames([]string{"name", "score"}))
	tbl.Index().Rename("id")

	var out bytes.Buffer
	require.NoError(t, NewWriter(&out).WriteTable(tbl))
	assert.Equal(t,
		"{\"id\":1,\"name\":\"ann\",\"score\":1.5}\n{\"id\":2,\"name\":\"bob\",\"score\":null}\n",
		out.String())
	assert.Equal(t, 0, tbl.Height())
}

func TestWriteTableDefaultIndex(t *testing.T) {
	tbl, err := columnar.FromRows([]columnar.Row{columnar.RowFromValues(value.Bool(true))})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, NewWriter(&out).WriteTable(tbl))
	assert.Equal(t, "{\"Column_0\":true}\n", out.String())
}

func TestCell(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	ts := time.Date(2016, 1, 8, 9, 10, 11, 0, time.UTC)

	assert.Nil(t, Cell(value.Null{}))
	assert.Nil(t, Cell(nil))
	assert.Equal(t, int64(7), Cell(value.I64(7)))
	assert.Equal(t, "12.5", Cell(value.NewDecimal(decimal.RequireFromString("12.50"))))
	assert.Equal(t, "2016-01-08", Cell(value.NewDate(2016, time.January, 8)))
	assert.Equal(t, "2016-01-08T09:10:11Z", Cell(value.NewDateTime(ts)))
	assert.Equal(t, id.String(), Cell(value.Uuid(id)))
	assert.Equal(t, []byte{0xde, 0xad}, Cell(value.Bytes{0xde, 0xad}))
	assert.Equal(t, 1.5, Cell(value.F64(1.5)))
	assert.Equal(t, "NaN", Cell(value.F64(math.NaN())))
	assert.Equal(t, "-Inf", Cell(value.F32(float32(math.Inf(-1)))))
}

func TestWriteNonFiniteFloat(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.Write(map[string]interface{}{"x": Cell(value.F64(math.Inf(1)))}))
	assert.Equal(t, "{\"x\":\"+Inf\"}\n", out.String())
}
