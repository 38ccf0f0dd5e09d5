package columnar

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

// CSVOptions controls ReadCSV.
type CSVOptions struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// HasHeader takes column names from the first record. Without a header
	// columns are named column_0..n.
	HasHeader bool
	// NullValues lists the cell texts read as Null.
	NullValues []string
	// TrimSpaces strips surrounding whitespace from every cell.
	TrimSpaces bool
	// IndexColumn names the header whose column becomes the table index.
	// An empty or unknown name keeps the default index.
	IndexColumn string
}

// ReadCSV builds a table from CSV text. Cells are typed with value.Infer and
// each column is then unified to one kind: a mix of integers and floats
// widens to F64, any other mix keeps the original text.
func ReadCSV(r io.Reader, opts CSVOptions) (*Table, error) {
	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.TrimLeadingSpace = opts.TrimSpaces

	records, err := reader.ReadAll()
	if err != nil {
		return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeValidation, "failed to parse CSV")
	}

	var header []string
	if opts.HasHeader && len(records) > 0 {
		header, records = records[0], records[1:]
	}
	if len(records) == 0 {
		return nil, tabulaerrors.EmptyInput()
	}
	if header == nil {
		header = make([]string, len(records[0]))
		for j := range header {
			header[j] = "column_" + strconv.Itoa(j)
		}
	}

	nulls := make(map[string]struct{}, len(opts.NullValues))
	for _, n := range opts.NullValues {
		nulls[n] = struct{}{}
	}

	rows := make([][]value.Value, len(records))
	for i, rec := range records {
		row := make([]value.Value, len(rec))
		for j, cell := range rec {
			if opts.TrimSpaces {
				cell = strings.TrimSpace(cell)
				rec[j] = cell
			}
			if _, ok := nulls[cell]; ok {
				row[j] = value.Null{}
				continue
			}
			row[j] = value.Infer(cell)
		}
		rows[i] = row
	}
	unifyColumns(rows, records)

	var indexPos *int
	names := header
	for j, h := range header {
		if opts.IndexColumn != "" && h == opts.IndexColumn {
			pos := j
			indexPos = &pos
			names = append(append([]string(nil), header[:j]...), header[j+1:]...)
			break
		}
	}

	t, err := FromRowValues(rows, indexPos)
	if err != nil {
		return nil, err
	}
	if err := t.SetColumnNames(names); err != nil {
		return nil, err
	}
	if indexPos != nil {
		t.index.Rename(opts.IndexColumn)
	}
	return t, nil
}

// unifyColumns rewrites rows in place so that every column holds one kind.
// Rows narrower than the first are left for FromRowValues to reject.
func unifyColumns(rows [][]value.Value, records [][]string) {
	for j := range rows[0] {
		kind := value.KindNull
		mixed, numeric := false, true
		for _, row := range rows {
			if j >= len(row) || value.IsNull(row[j]) {
				continue
			}
			k := row[j].Kind()
			if !k.IsInteger() && !k.IsFloat() {
				numeric = false
			}
			if kind == value.KindNull {
				kind = k
			} else if k != kind {
				mixed = true
			}
		}
		if !mixed {
			continue
		}
		if numeric && widen(rows, j) {
			continue
		}
		for i, row := range rows {
			if j < len(row) && !value.IsNull(row[j]) {
				row[j] = value.String(records[i][j])
			}
		}
	}
}

// widen converts column j to F64. Rows are untouched unless every cell
// converts.
func widen(rows [][]value.Value, j int) bool {
	out := make([]value.Value, len(rows))
	for i, row := range rows {
		if j >= len(row) || value.IsNull(row[j]) {
			continue
		}
		v, err := value.Convert(row[j], value.KindF64)
		if err != nil {
			return false
		}
		out[i] = v
	}
	for i, v := range out {
		if v != nil {
			rows[i][j] = v
		}
	}
	return true
}
