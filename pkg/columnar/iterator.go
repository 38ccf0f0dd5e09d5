package columnar

import "github.com/ajitpratap0/tabula/pkg/value"

// stepper counts the positions left to yield.
type stepper struct {
	len, step int
}

func (s *stepper) exhausted() bool { return s.step >= s.len }
func (s *stepper) forward()        { s.step++ }

// RowIterator yields the rows of a table it has taken ownership of. It is
// single pass and yields exactly as many rows as the table had.
type RowIterator struct {
	index   []value.Value
	columns [][]value.Value
	stepper stepper
	current Row
}

// IntoIter moves the table's contents into a row iterator. The table is left
// with no rows and no columns.
func (t *Table) IntoIter() *RowIterator {
	it := &RowIterator{
		index:   t.index.values,
		columns: make([][]value.Value, len(t.columns)),
		stepper: stepper{len: t.Height()},
	}
	for j, c := range t.columns {
		it.columns[j] = c.values
	}
	t.columns = nil
	t.index = DefaultIndex(0)
	return it
}

// Next advances to the next row and reports whether there is one.
func (it *RowIterator) Next() bool {
	if it.stepper.exhausted() {
		it.current = Row{}
		return false
	}
	i := it.stepper.step
	data := make([]value.Value, len(it.columns))
	for j, col := range it.columns {
		data[j] = col[i]
	}
	it.current = Row{Index: it.index[i], Data: data}
	it.stepper.forward()
	return true
}

// Row returns the row produced by the last successful Next.
func (it *RowIterator) Row() Row { return it.current }

// Remaining is the number of rows not yet yielded.
func (it *RowIterator) Remaining() int { return it.stepper.len - it.stepper.step }
