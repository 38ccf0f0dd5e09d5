package columnar

import (
	"fmt"

	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

// Table is an ordered set of uniquely named series of equal length plus one
// index series holding each row's identity.
//
// A Table is not safe for concurrent mutation.
type Table struct {
	columns []*Series
	index   *Series
}

// NewTable assembles a table from series. A nil index is replaced by the
// default dense index.
func NewTable(columns []*Series, index *Series) (*Table, error) {
	height := 0
	if len(columns) > 0 {
		height = columns[0].Len()
	} else if index != nil {
		height = index.Len()
	}

	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if c.Len() != height {
			return nil, tabulaerrors.Newf(tabulaerrors.ErrorTypeLengthMismatch,
				"series %q has length %d, expected %d", c.Name(), c.Len(), height)
		}
		if _, dup := seen[c.Name()]; dup {
			return nil, tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "duplicate column name %q", c.Name())
		}
		seen[c.Name()] = struct{}{}
	}

	if index == nil {
		index = DefaultIndex(height)
	}
	if index.Len() != height {
		return nil, tabulaerrors.Newf(tabulaerrors.ErrorTypeLengthMismatch,
			"index has length %d, expected %d", index.Len(), height)
	}

	return &Table{columns: columns, index: index}, nil
}

// Empty returns a zero-row table with the given column names, each of kind
// Null, and an empty default index.
func Empty(names []string) *Table {
	cols := make([]*Series, len(names))
	for i, n := range names {
		cols[i] = &Series{name: n, kind: value.KindNull}
	}
	return &Table{columns: cols, index: DefaultIndex(0)}
}

// Height is the number of rows.
func (t *Table) Height() int { return t.index.Len() }

// Width is the number of data series, excluding the index.
func (t *Table) Width() int { return len(t.columns) }

// Shape returns (height, width).
func (t *Table) Shape() (int, int) { return t.Height(), t.Width() }

// Columns exposes the data series in order. Callers must not modify the slice.
func (t *Table) Columns() []*Series { return t.columns }

// Column looks up a series by name.
func (t *Table) Column(name string) (*Series, bool) {
	for _, c := range t.columns {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// ColumnNames lists the data series names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name()
	}
	return names
}

// Fields lists name and kind of every data series.
func (t *Table) Fields() []Field {
	fields := make([]Field, len(t.columns))
	for i, c := range t.columns {
		fields[i] = c.Field()
	}
	return fields
}

// Index returns the index series.
func (t *Table) Index() *Series { return t.index }

// IndexField returns name and kind of the index series.
func (t *Table) IndexField() Field { return t.index.Field() }

// SetIndex replaces the index series.
func (t *Table) SetIndex(index *Series) error {
	if index.Len() != t.Height() {
		return tabulaerrors.Newf(tabulaerrors.ErrorTypeLengthMismatch,
			"index has length %d, expected %d", index.Len(), t.Height())
	}
	t.index = index
	return nil
}

// SetColumnNames renames every data series positionally.
func (t *Table) SetColumnNames(names []string) error {
	if len(names) != len(t.columns) {
		return tabulaerrors.Newf(tabulaerrors.ErrorTypeLengthMismatch,
			"got %d names for %d columns", len(names), len(t.columns))
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			return tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "duplicate column name %q", n)
		}
		seen[n] = struct{}{}
	}
	for i, c := range t.columns {
		c.Rename(names[i])
	}
	return nil
}

// RenameColumn renames a single data series.
func (t *Table) RenameColumn(from, to string) error {
	c, ok := t.Column(from)
	if !ok {
		return tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "column %q not found", from)
	}
	if _, clash := t.Column(to); clash && from != to {
		return tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "duplicate column name %q", to)
	}
	c.Rename(to)
	return nil
}

// FindIndex returns the position of the row whose identity equals v.
func (t *Table) FindIndex(v value.Value) (int, bool) {
	return t.index.Find(v)
}

// Slice returns a copy of rows [offset, offset+length), clamped to bounds.
func (t *Table) Slice(offset, length int) *Table {
	cols := make([]*Series, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.Slice(offset, length)
	}
	return &Table{columns: cols, index: t.index.Slice(offset, length)}
}

// Take returns a copy of the rows at the given positions, in order.
func (t *Table) Take(positions []int) *Table {
	cols := make([]*Series, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.Take(positions)
	}
	return &Table{columns: cols, index: t.index.Take(positions)}
}

// Concat stacks other below t. Both tables must have the same column names
// in the same order.
func (t *Table) Concat(other *Table) (*Table, error) {
	if t.Width() != other.Width() {
		return nil, tabulaerrors.Newf(tabulaerrors.ErrorTypeLengthMismatch,
			"cannot concatenate width %d with width %d", t.Width(), other.Width())
	}
	cols := make([]*Series, len(t.columns))
	for i, c := range t.columns {
		oc := other.columns[i]
		if c.Name() != oc.Name() {
			return nil, tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation,
				"column %d is %q on the left and %q on the right", i, c.Name(), oc.Name())
		}
		merged, err := c.Concat(oc)
		if err != nil {
			return nil, err
		}
		cols[i] = merged
	}
	index, err := t.index.Concat(other.index)
	if err != nil {
		return nil, err
	}
	return &Table{columns: cols, index: index}, nil
}

func (t *Table) String() string {
	return fmt.Sprintf("Table(%d x %d, index %s, columns %v)", t.Height(), t.Width(), t.IndexField(), t.Fields())
}
