package columnar

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

// Row is one record: an identity plus its cells in column order. A Null
// identity means the row has none.
type Row struct {
	Index value.Value
	Data  []value.Value
}

// NewRow builds a row with an identity.
func NewRow(index value.Value, data ...value.Value) Row {
	return Row{Index: index, Data: data}
}

// RowFromValues builds a row without identity.
func RowFromValues(data ...value.Value) Row {
	return Row{Index: value.Null{}, Data: data}
}

// Len is the number of cells.
func (r Row) Len() int { return len(r.Data) }

// Fields lists a positional field per cell.
func (r Row) Fields() []Field {
	fields := make([]Field, len(r.Data))
	for i, v := range r.Data {
		fields[i] = Field{Name: columnName(i), Kind: value.OrNull(v).Kind()}
	}
	return fields
}

func columnName(j int) string {
	return fmt.Sprintf("Column_%d", j)
}

// FromRows transposes rows into a table with columns named Column_0..n.
// Every row must have the width of the first. If no row carries an identity
// the table gets the default index.
func FromRows(rows []Row) (*Table, error) {
	t, err := transposeRows(rows)
	if err != nil {
		return nil, err
	}
	if t.index.Kind() == value.KindNull {
		t.index = DefaultIndex(t.Height())
	}
	return t, nil
}

// transposeRows keeps a null identity as is; inserts rely on this so that
// rows without identity do not collide with the target's index.
func transposeRows(rows []Row) (*Table, error) {
	m := len(rows)
	if m == 0 {
		return nil, tabulaerrors.EmptyInput()
	}
	n := rows[0].Len()
	for i, r := range rows {
		if r.Len() != n {
			return nil, tabulaerrors.Newf(tabulaerrors.ErrorTypeLengthMismatch,
				"row %d has %d values, expected %d", i, r.Len(), n).
				WithDetail("row", i)
		}
	}

	columns := make([]*Series, n)
	for j := 0; j < n; j++ {
		buf := make([]value.Value, m)
		for i := range rows {
			buf[i] = rows[i].Data[j]
		}
		s, err := NewSeries(columnName(j), buf)
		if err != nil {
			return nil, err
		}
		columns[j] = s
	}

	identities := make([]value.Value, m)
	for i, r := range rows {
		identities[i] = r.Index
	}
	index, err := NewSeries(DefaultIndexName, identities)
	if err != nil {
		return nil, err
	}
	return NewTable(columns, index)
}

// FromRowValuesIter transposes a lazily produced sequence of rows. The width
// is taken from the first row. When indexCol names a position inside that
// width, the column at that position is removed from the data and becomes the
// index; a position outside the width is ignored and the default index is
// used.
func FromRowValuesIter(next func() ([]value.Value, bool), indexCol *int) (*Table, error) {
	first, ok := next()
	if !ok {
		return nil, tabulaerrors.EmptyInput()
	}
	n := len(first)
	transposed := make([][]value.Value, n)
	height := 0
	push := func(i int, row []value.Value) error {
		if len(row) != n {
			return tabulaerrors.Newf(tabulaerrors.ErrorTypeLengthMismatch,
				"row %d has %d values, expected %d", i, len(row), n).
				WithDetail("row", i)
		}
		for j, v := range row {
			transposed[j] = append(transposed[j], v)
		}
		height++
		return nil
	}
	if err := push(0, first); err != nil {
		return nil, err
	}
	for i := 1; ; i++ {
		row, ok := next()
		if !ok {
			break
		}
		if err := push(i, row); err != nil {
			return nil, err
		}
	}

	var index *Series
	if indexCol != nil {
		if *indexCol >= 0 && *indexCol < n {
			s, err := NewSeries(DefaultIndexName, transposed[*indexCol])
			if err != nil {
				return nil, err
			}
			index = s
			transposed = append(transposed[:*indexCol], transposed[*indexCol+1:]...)
		} else {
			logger.Get().Debug("index column out of range, using default index",
				zap.String("component", "columnar"),
				zap.Int("index_col", *indexCol),
				zap.Int("width", n))
		}
	}

	columns := make([]*Series, len(transposed))
	for j, vals := range transposed {
		s, err := NewSeries(columnName(j), vals)
		if err != nil {
			return nil, err
		}
		columns[j] = s
	}
	if index == nil {
		index = DefaultIndex(height)
	}
	return NewTable(columns, index)
}

// FromRowValues is FromRowValuesIter over a slice.
func FromRowValues(rows [][]value.Value, indexCol *int) (*Table, error) {
	i := 0
	return FromRowValuesIter(func() ([]value.Value, bool) {
		if i >= len(rows) {
			return nil, false
		}
		i++
		return rows[i-1], true
	}, indexCol)
}

// GetRowByIdx reads position i out of every series. This walks every column
// and is the slow path compared to column access.
func (t *Table) GetRowByIdx(i int) (Row, error) {
	height := t.Height()
	if i < 0 || i >= height {
		return Row{}, tabulaerrors.OutOfBounds(i, height)
	}
	data := make([]value.Value, len(t.columns))
	for j, c := range t.columns {
		data[j] = c.values[i]
	}
	return Row{Index: t.index.values[i], Data: data}, nil
}

// GetRow reads the row whose identity equals index.
func (t *Table) GetRow(index value.Value) (Row, error) {
	i, ok := t.FindIndex(index)
	if !ok {
		return Row{}, tabulaerrors.IndexNotFound(value.OrNull(index))
	}
	return t.GetRowByIdx(i)
}

// Rows materializes every row without consuming the table.
func (t *Table) Rows() []Row {
	rows := make([]Row, t.Height())
	for i := range rows {
		rows[i], _ = t.GetRowByIdx(i)
	}
	return rows
}

// Append adds a row at the end. Its cells must match the table's kinds.
func (t *Table) Append(row Row) error {
	return t.InsertRowsByIdx(t.Height(), []Row{row})
}

// InsertRowByIdx inserts a row before position k; k == height appends.
func (t *Table) InsertRowByIdx(k int, row Row) error {
	return t.InsertRowsByIdx(k, []Row{row})
}

// InsertRow inserts a row before the row whose identity equals index.
func (t *Table) InsertRow(index value.Value, row Row) error {
	return t.InsertRows(index, []Row{row})
}

// InsertRows inserts rows before the row whose identity equals index.
func (t *Table) InsertRows(index value.Value, rows []Row) error {
	k, ok := t.FindIndex(index)
	if !ok {
		return tabulaerrors.IndexNotFound(value.OrNull(index))
	}
	return t.InsertRowsByIdx(k, rows)
}

// InsertRowsByIdx splices rows in before position k: the table becomes
// rows [0,k), the new rows, then rows [k,height).
func (t *Table) InsertRowsByIdx(k int, rows []Row) error {
	height := t.Height()
	if k < 0 || k > height {
		return tabulaerrors.OutOfBounds(k, height)
	}
	fresh, err := transposeRows(rows)
	if err != nil {
		return err
	}
	if err := fresh.SetColumnNames(t.ColumnNames()); err != nil {
		return err
	}
	fresh.index.Rename(t.index.Name())

	head, err := t.Slice(0, k).Concat(fresh)
	if err != nil {
		return err
	}
	spliced, err := head.Concat(t.Slice(k, height-k))
	if err != nil {
		return err
	}
	*t = *spliced
	return nil
}

// RemoveSlice drops rows [offset, offset+length).
func (t *Table) RemoveSlice(offset, length int) error {
	height := t.Height()
	if offset < 0 || offset >= height {
		return tabulaerrors.OutOfBounds(offset, height)
	}
	lo, hi := clamp(offset, length, height)
	spliced, err := t.Slice(0, lo).Concat(t.Slice(hi, height-hi))
	if err != nil {
		return err
	}
	*t = *spliced
	return nil
}

// RemoveRow drops the row whose identity equals index.
func (t *Table) RemoveRow(index value.Value) error {
	i, ok := t.FindIndex(index)
	if !ok {
		return tabulaerrors.IndexNotFound(value.OrNull(index))
	}
	return t.RemoveSlice(i, 1)
}

// RemoveRows drops every row whose identity is in indices. Identities not
// present are ignored.
func (t *Table) RemoveRows(indices []value.Value) error {
	_, err := t.PopupRows(indices)
	return err
}

// PopupRows removes every row whose identity is in indices and returns them,
// in their original order, as a separate table. The receiver keeps the
// remaining rows.
func (t *Table) PopupRows(indices []value.Value) (*Table, error) {
	wanted := make(map[string]struct{}, len(indices))
	for _, v := range indices {
		wanted[value.Key(v)] = struct{}{}
	}

	var keep, pop []int
	for i, v := range t.index.values {
		if _, ok := wanted[value.Key(v)]; ok {
			pop = append(pop, i)
		} else {
			keep = append(keep, i)
		}
	}

	popped := t.Take(pop)
	*t = *t.Take(keep)
	return popped, nil
}
