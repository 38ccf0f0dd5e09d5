// Package columnar implements tabula's in-memory columnar table and the
// transposer that converts between row-major and column-major data.
//
// # Overview
//
// A Table is an ordered list of uniquely named Series of equal length plus
// one index Series carrying each row's identity. Every Series holds values of
// a single value.Kind, inferred from its first non-null entry.
//
// # Transposition
//
// Rows come in through FromRows or FromRowValues and go out through
// GetRowByIdx, GetRow, Rows or the consuming IntoIter:
//
//	t, err := columnar.FromRows([]columnar.Row{
//		columnar.NewRow(value.I64(10), value.String("Jacob"), value.I32(10)),
//		columnar.NewRow(value.I64(11), value.String("Sam"), value.I32(9)),
//	})
//	if err != nil {
//		return err
//	}
//	row, err := t.GetRow(value.I64(11))
//
// Column names default to Column_0, Column_1 and so on. Rows without an
// identity get the default dense index 0..n-1.
//
// # Mutation
//
// Inserts never modify a series in place. They transpose the new rows into a
// temporary table, align its column names with the target, and splice it in
// by concatenating the head slice, the new rows and the tail slice. Removal
// works the same way; PopupRows additionally returns the removed rows.
//
// # CSV Input
//
// ReadCSV types each cell with value.Infer and settles every column on one
// kind before building the table. CSVOptions.IndexColumn picks the header
// whose column becomes the index.
//
// # Thread Safety
//
// Tables are not safe for concurrent mutation. Readers may share a table
// that nobody mutates.
package columnar
