package columnar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

func sampleRows() []Row {
	return []Row{
		NewRow(value.I64(100), value.I32(0), value.String("Jacob"), value.String("A"), value.I32(10)),
		NewRow(value.I64(101), value.I32(1), value.String("Sam"), value.String("A"), value.I32(9)),
		NewRow(value.I64(102), value.I32(2), value.String("James"), value.String("A"), value.I32(9)),
	}
}

func assertRowEqual(t *testing.T, want, got Row) {
	t.Helper()
	assert.True(t, value.Equal(want.Index, got.Index), "index: want %v got %v", want.Index, got.Index)
	require.Len(t, got.Data, len(want.Data))
	for j := range want.Data {
		assert.True(t, value.Equal(want.Data[j], got.Data[j]), "cell %d: want %v got %v", j, want.Data[j], got.Data[j])
	}
}

func TestFromRowsRoundTrip(t *testing.T) {
	rows := sampleRows()
	tbl, err := FromRows(sampleRows())
	require.NoError(t, err)

	h, w := tbl.Shape()
	assert.Equal(t, 3, h)
	assert.Equal(t, 4, w)
	assert.Equal(t, []string{"Column_0", "Column_1", "Column_2", "Column_3"}, tbl.ColumnNames())
	assert.Equal(t, Field{Name: "Column_1", Kind: value.KindString}, tbl.Fields()[1])

	for i, want := range rows {
		got, err := tbl.GetRowByIdx(i)
		require.NoError(t, err)
		assertRowEqual(t, want, got)
	}
}

func TestFromRowsDefaultIndex(t *testing.T) {
	tbl, err := FromRows([]Row{
		RowFromValues(value.String("a")),
		RowFromValues(value.String("b")),
	})
	require.NoError(t, err)
	assert.Equal(t, Field{Name: DefaultIndexName, Kind: value.KindI64}, tbl.IndexField())
	assert.Equal(t, []value.Value{value.I64(0), value.I64(1)}, tbl.Index().Values())
}

func TestFromRowsErrors(t *testing.T) {
	_, err := FromRows(nil)
	assert.True(t, tabulaerrors.IsType(err, tabulaerrors.ErrorTypeEmptyInput))

	_, err = FromRows([]Row{
		RowFromValues(value.I32(1), value.I32(2)),
		RowFromValues(value.I32(3)),
	})
	assert.True(t, tabulaerrors.IsType(err, tabulaerrors.ErrorTypeLengthMismatch))

	_, err = FromRows([]Row{
		RowFromValues(value.I32(1)),
		RowFromValues(value.String("x")),
	})
	assert.True(t, tabulaerrors.IsType(err, tabulaerrors.ErrorTypeTypeMismatch))
}

func TestFromRowValues(t *testing.T) {
	rows := [][]value.Value{
		{value.I32(11), value.String("Jacob"), value.I32(10)},
		{value.I32(21), value.String("Sam"), value.I32(9)},
		{value.I32(31), value.String("James"), value.Null{}},
	}

	t.Run("without index column", func(t *testing.T) {
		tbl, err := FromRowValues(rows, nil)
		require.NoError(t, err)
		h, w := tbl.Shape()
		assert.Equal(t, 3, h)
		assert.Equal(t, 3, w)
		assert.Equal(t, value.KindI64, tbl.IndexField().Kind)
	})

	t.Run("with index column", func(t *testing.T) {
		col := 0
		tbl, err := FromRowValues(rows, &col)
		require.NoError(t, err)
		assert.Equal(t, 2, tbl.Width())
		assert.Equal(t, Field{Name: DefaultIndexName, Kind: value.KindI32}, tbl.IndexField())
		row, err := tbl.GetRow(value.I32(21))
		require.NoError(t, err)
		assertRowEqual(t, NewRow(value.I32(21), value.String("Sam"), value.I32(9)), row)
	})

	t.Run("out of range index column falls back", func(t *testing.T) {
		col := 7
		tbl, err := FromRowValues(rows, &col)
		require.NoError(t, err)
		assert.Equal(t, 3, tbl.Width())
		assert.Equal(t, []value.Value{value.I64(0), value.I64(1), value.I64(2)}, tbl.Index().Values())
	})

	t.Run("empty", func(t *testing.T) {
		_, err := FromRowValues(nil, nil)
		assert.True(t, tabulaerrors.IsType(err, tabulaerrors.ErrorTypeEmptyInput))
	})
}

func TestGetRowBounds(t *testing.T) {
	tbl, err := FromRows(sampleRows())
	require.NoError(t, err)

	_, err = tbl.GetRowByIdx(3)
	require.Error(t, err)
	assert.True(t, tabulaerrors.IsType(err, tabulaerrors.ErrorTypeOutOfBounds))

	_, err = tbl.GetRow(value.I64(999))
	assert.True(t, tabulaerrors.IsType(err, tabulaerrors.ErrorTypeIndexNotFound))

	row, err := tbl.GetRow(value.I64(101))
	require.NoError(t, err)
	assertRowEqual(t, sampleRows()[1], row)
}

func TestInsertRowByIdx(t *testing.T) {
	for k := 0; k <= 3; k++ {
		tbl, err := FromRows(sampleRows())
		require.NoError(t, err)

		inserted := NewRow(value.I64(200), value.I32(9), value.String("Mia"), value.String("B"), value.I32(8))
		require.NoError(t, tbl.InsertRowByIdx(k, inserted))
		assert.Equal(t, 4, tbl.Height())

		got, err := tbl.GetRowByIdx(k)
		require.NoError(t, err)
		assertRowEqual(t, inserted, got)

		original := sampleRows()
		for i := 0; i < k; i++ {
			got, err := tbl.GetRowByIdx(i)
			require.NoError(t, err)
			assertRowEqual(t, original[i], got)
		}
		for i := k; i < 3; i++ {
			got, err := tbl.GetRowByIdx(i + 1)
			require.NoError(t, err)
			assertRowEqual(t, original[i], got)
		}
	}
}

func TestInsertRowByIdxOutOfBounds(t *testing.T) {
	tbl, err := FromRows(sampleRows())
	require.NoError(t, err)
	err = tbl.InsertRowByIdx(4, sampleRows()[0])
	assert.True(t, tabulaerrors.IsType(err, tabulaerrors.ErrorTypeOutOfBounds))
	assert.Equal(t, 3, tbl.Height())
}

func TestMutations(t *testing.T) {
	tbl, err := FromRows([]Row{
		NewRow(value.I32(1), value.String("Jacob"), value.I32(10)),
		NewRow(value.I32(2), value.String("Sam"), value.I32(9)),
		NewRow(value.I32(3), value.String("James"), value.I32(8)),
	})
	require.NoError(t, err)
	require.NoError(t, tbl.SetColumnNames([]string{"names", "val"}))

	require.NoError(t, tbl.Append(NewRow(value.I32(4), value.String("Mia"), value.I32(10))))
	require.NoError(t, tbl.InsertRow(value.I32(2), NewRow(value.I32(5), value.String("Mandy"), value.I32(9))))
	assert.Equal(t, 5, tbl.Height())
	assert.Equal(t, []string{"names", "val"}, tbl.ColumnNames())

	require.NoError(t, tbl.InsertRows(value.I32(5), []Row{
		NewRow(value.I32(6), value.String("Jamie"), value.I32(9)),
		NewRow(value.I32(7), value.String("Justin"), value.I32(6)),
		NewRow(value.I32(8), value.String("Julia"), value.I32(8)),
	}))
	assert.Equal(t, 8, tbl.Height())

	require.NoError(t, tbl.RemoveRow(value.I32(7)))
	assert.Equal(t, 7, tbl.Height())

	require.NoError(t, tbl.RemoveSlice(1, 2))
	assert.Equal(t, 5, tbl.Height())

	require.NoError(t, tbl.RemoveRows([]value.Value{value.I32(2), value.I32(4)}))
	assert.Equal(t, 3, tbl.Height())

	assert.Equal(t, []value.Value{value.I32(1), value.I32(5), value.I32(3)}, tbl.Index().Values())

	err = tbl.Append(NewRow(value.I32(9), value.I32(1), value.I32(1)))
	assert.True(t, tabulaerrors.IsType(err, tabulaerrors.ErrorTypeTypeMismatch))
	assert.Equal(t, 3, tbl.Height())
}

func TestPopupRows(t *testing.T) {
	tbl, err := FromRows([]Row{
		NewRow(value.I64(10), value.String("a")),
		NewRow(value.I64(11), value.String("b")),
		NewRow(value.I64(12), value.String("c")),
	})
	require.NoError(t, err)

	popped, err := tbl.PopupRows([]value.Value{value.I64(12), value.I64(10), value.I64(99)})
	require.NoError(t, err)

	assert.Equal(t, []value.Value{value.I64(10), value.I64(12)}, popped.Index().Values())
	assert.Equal(t, []value.Value{value.I64(11)}, tbl.Index().Values())
	assert.Equal(t, tbl.ColumnNames(), popped.ColumnNames())
}

func TestIntoIter(t *testing.T) {
	tbl, err := FromRows(sampleRows())
	require.NoError(t, err)

	it := tbl.IntoIter()
	assert.Equal(t, 0, tbl.Height())
	assert.Equal(t, 0, tbl.Width())

	var got []Row
	for it.Next() {
		got = append(got, it.Row())
	}
	require.Len(t, got, 3)
	for i, want := range sampleRows() {
		assertRowEqual(t, want, got[i])
	}
	assert.False(t, it.Next())
	assert.Equal(t, 0, it.Remaining())
}
